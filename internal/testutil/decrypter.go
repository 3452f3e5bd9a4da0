package testutil

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"wa-go/internal/migrate"
)

// DecryptCall records one RecordingDecrypter.Decrypt.
type DecryptCall struct {
	Key, In, Out string
}

// RecordingDecrypter records calls and writes Output to the destination of
// every successful decryption.
type RecordingDecrypter struct {
	mu sync.Mutex

	EnsureErr error
	Errs      map[string]error // by input path
	Output    []byte

	EnsureCalls int
	Calls       []DecryptCall
}

func NewRecordingDecrypter() *RecordingDecrypter {
	return &RecordingDecrypter{
		Errs:   make(map[string]error),
		Output: []byte("decrypted"),
	}
}

func (d *RecordingDecrypter) Ensure(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.EnsureCalls++
	return d.EnsureErr
}

func (d *RecordingDecrypter) Decrypt(ctx context.Context, key, in, out string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Calls = append(d.Calls, DecryptCall{Key: key, In: in, Out: out})

	if err := d.Errs[in]; err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return err
	}
	return os.WriteFile(out, d.Output, 0644)
}

var _ migrate.Decrypter = (*RecordingDecrypter)(nil)

// StubVerifier returns Tables or Err for every path and records what it saw.
type StubVerifier struct {
	Tables int
	Err    error
	Paths  []string
}

func (v *StubVerifier) Verify(path string) (int, error) {
	v.Paths = append(v.Paths, path)
	return v.Tables, v.Err
}

var _ migrate.DatabaseVerifier = (*StubVerifier)(nil)
