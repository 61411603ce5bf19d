package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultCost is the bcrypt work factor applied when the config leaves
	// Cost zero.
	DefaultCost = 12

	// bcrypt ignores everything past 72 bytes; longer inputs are rejected
	// instead of silently truncated.
	maxPasswordBytes = 72
)

// Config carries the bcrypt work factor. Immutable after [NewBcrypt].
type Config struct {
	Cost int
}

// Bcrypt hashes and verifies passwords. Safe for concurrent use.
type Bcrypt struct {
	config Config
}

// NewBcrypt validates the work factor and returns a ready hasher.
func NewBcrypt(cfg Config) (*Bcrypt, error) {
	if cfg.Cost == 0 {
		cfg.Cost = DefaultCost
	}
	if cfg.Cost < bcrypt.MinCost || cfg.Cost > bcrypt.MaxCost {
		return nil, errors.New("bcrypt cost out of range")
	}

	return &Bcrypt{config: cfg}, nil
}

// Hash produces a salted bcrypt hash of password. Each call salts
// independently, so two hashes of the same password differ.
func (b *Bcrypt) Hash(password string) (string, error) {
	if password == "" {
		return "", errors.New("password must not be empty")
	}
	if len(password) > maxPasswordBytes {
		return "", errors.New("password exceeds 72 bytes")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), b.config.Cost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// Verify reports whether password matches encodedHash. Malformed or
// truncated stored hashes verify false; no error escapes this boundary.
// The underlying comparison is constant-time in the digest.
func (b *Bcrypt) Verify(password, encodedHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password)) == nil
}
