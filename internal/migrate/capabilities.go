package migrate

import "context"

// Decrypter wraps the external database decryption utility.
// The cipher itself is opaque to this package.
type Decrypter interface {
	// Ensure makes the utility available, provisioning it when missing.
	Ensure(ctx context.Context) error

	// Decrypt runs the utility once: key is hex, in is the encrypted file,
	// out the plaintext destination.
	Decrypt(ctx context.Context, key, in, out string) error
}

// CardField is one value of a contact-card property with its type annotations.
type CardField struct {
	Value string
	Types []string
}

// Card is a parsed contact card. Name is nil when the card has no display name.
type Card struct {
	Name   *string
	Phones []CardField
	Emails []CardField
}

// CardParser turns unfolded contact-card lines into cards.
// raw is the original text, for parsers that want to report positions.
type CardParser interface {
	Parse(lines []string, raw string) ([]Card, error)
}

// DatabaseVerifier checks a decrypted database file is readable.
// It returns the number of tables found.
type DatabaseVerifier interface {
	Verify(path string) (int, error)
}
