package database

import (
	"fmt"
	"net/url"

	"wa-go/internal/migrate"
)

// VerifySQLite opens the database at path read-only, runs an integrity
// check and returns the number of tables it holds.
func VerifySQLite(path string) (int, error) {
	dsn := (&url.URL{Scheme: "file", Path: path, RawQuery: "mode=ro"}).String()
	db, err := OpenConnection(dsn)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	var result string
	if err := db.QueryRow("PRAGMA quick_check").Scan(&result); err != nil {
		return 0, fmt.Errorf("checking %s: %w", path, err)
	}
	if result != "ok" {
		return 0, fmt.Errorf("checking %s: integrity check reported %q", path, result)
	}

	var tables int
	if err := db.QueryRow("SELECT count(*) FROM sqlite_master WHERE type = 'table'").Scan(&tables); err != nil {
		return 0, fmt.Errorf("counting tables in %s: %w", path, err)
	}
	if tables == 0 {
		return 0, fmt.Errorf("%s contains no tables", path)
	}
	return tables, nil
}

// Verifier checks decrypted databases with VerifySQLite.
type Verifier struct{}

func (Verifier) Verify(path string) (int, error) { return VerifySQLite(path) }

var _ migrate.DatabaseVerifier = Verifier{}
