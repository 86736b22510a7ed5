// Package auth provides pluggable password strategies for the record store.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordMismatch is returned by Compare when the password does not
// match the stored hash.
var ErrPasswordMismatch = errors.New("password mismatch")

// Hasher hashes passwords on sign-up and verifies them on sign-in.
type Hasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// BcryptHasher is the default strategy.
type BcryptHasher struct {
	cost int
}

func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

func (h *BcryptHasher) Compare(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrPasswordMismatch
	}
	return nil
}

// NoopHasher stores no hash and accepts any password. It reproduces the
// behavior of the original prototype and exists for importing its data;
// production configs should use bcrypt.
type NoopHasher struct{}

func (NoopHasher) Hash(password string) (string, error) { return "", nil }

func (NoopHasher) Compare(hash, password string) error { return nil }
