// Package keystore keeps the 64-hex backup key in a file sealed with an age
// passphrase, so it need not sit in plaintext in the config file.
package keystore

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"filippo.io/age"

	"wa-go/internal/migrate"
)

var (
	ErrWrongPassphrase = errors.New("wrong passphrase")
	ErrInvalidKey      = errors.New("key must be 64 hexadecimal characters")
	ErrExists          = errors.New("key file already exists")
)

// Keystore reads and writes one sealed key file.
type Keystore struct {
	path       string
	workFactor int
}

func NewKeystore(path string) *Keystore {
	return &Keystore{path: path}
}

// WithWorkFactor sets the scrypt work factor (log2 N) used by Seal and
// accepted by Open. Zero keeps age's default.
func (k *Keystore) WithWorkFactor(logN int) *Keystore {
	k.workFactor = logN
	return k
}

func (k *Keystore) Path() string { return k.path }

// Exists reports whether the key file is present.
func (k *Keystore) Exists() bool {
	_, err := os.Stat(k.path)
	return err == nil
}

// Seal encrypts key with passphrase and writes it to the key file. It never
// overwrites an existing file.
func (k *Keystore) Seal(key, passphrase string) error {
	if !migrate.ValidKey(key) {
		return ErrInvalidKey
	}
	if passphrase == "" {
		return errors.New("passphrase must not be empty")
	}
	if k.Exists() {
		return fmt.Errorf("%w: %s", ErrExists, k.path)
	}

	recipient, err := age.NewScryptRecipient(passphrase)
	if err != nil {
		return fmt.Errorf("creating scrypt recipient: %w", err)
	}
	if k.workFactor > 0 {
		recipient.SetWorkFactor(k.workFactor)
	}

	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, recipient)
	if err != nil {
		return fmt.Errorf("creating encrypted writer: %w", err)
	}
	if _, err := io.WriteString(w, key+"\n"); err != nil {
		return fmt.Errorf("writing encrypted key: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalizing encrypted key: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(k.path), 0700); err != nil {
		return fmt.Errorf("creating key directory: %w", err)
	}
	if err := os.WriteFile(k.path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("writing key file: %w", err)
	}
	return nil
}

// Open decrypts the key file with passphrase and returns the key.
func (k *Keystore) Open(passphrase string) (string, error) {
	data, err := os.ReadFile(k.path)
	if err != nil {
		return "", fmt.Errorf("reading key file: %w", err)
	}

	identity, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return "", fmt.Errorf("creating scrypt identity: %w", err)
	}
	if k.workFactor > 0 {
		identity.SetMaxWorkFactor(k.workFactor)
	}

	r, err := age.Decrypt(bytes.NewReader(data), identity)
	if err != nil {
		var noMatch *age.NoIdentityMatchError
		if errors.As(err, &noMatch) {
			return "", ErrWrongPassphrase
		}
		return "", fmt.Errorf("decrypting key file: %w", err)
	}

	plain, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("reading decrypted key: %w", err)
	}

	key := strings.TrimSpace(string(plain))
	if !migrate.ValidKey(key) {
		return "", fmt.Errorf("key file %s: %w", k.path, ErrInvalidKey)
	}
	return key, nil
}
