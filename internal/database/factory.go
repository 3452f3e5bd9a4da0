package database

import (
	"fmt"
	"os"
	"path/filepath"
)

// HistoryFileName is the history database inside the data directory.
const HistoryFileName = "history.db"

// OpenHistory opens (creating if needed) the run history under dataDir.
// An empty dataDir gives an in-memory database that is lost on Close.
func OpenHistory(dataDir string) (*SQLiteDatabase, error) {
	if dataDir == "" {
		return NewSQLiteDatabase(":memory:")
	}
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return NewSQLiteDatabase(filepath.Join(dataDir, HistoryFileName))
}
