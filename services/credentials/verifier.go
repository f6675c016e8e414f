// Package credentials checks submitted passwords against stored digests.
package credentials

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the longest input bcrypt accepts
const MaxPasswordBytes = 72

var (
	ErrEmptyPassword   = errors.New("password is required")
	ErrPasswordTooLong = fmt.Errorf("password exceeds %d bytes", MaxPasswordBytes)
)

// PasswordHasher is the one-way hashing capability. Verify must compare in constant time.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, digest string) bool
}

// BcryptHasher implements PasswordHasher with bcrypt
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a hasher; out-of-range costs fall back to bcrypt.DefaultCost
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash hashes a plaintext password
func (h *BcryptHasher) Hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify compares plaintext password with stored hash
func (h *BcryptHasher) Verify(plain, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
}

// decoyPassword seeds the digest compared against when no account matches
const decoyPassword = "oba-decoy-password"

// Verifier registers and checks passwords through a PasswordHasher
type Verifier struct {
	hasher PasswordHasher

	decoyOnce sync.Once
	decoy     string
}

// NewVerifier creates a verifier backed by hasher
func NewVerifier(hasher PasswordHasher) *Verifier {
	return &Verifier{hasher: hasher}
}

// Register validates plain and returns its digest
func (v *Verifier) Register(plain string) (string, error) {
	if plain == "" {
		return "", ErrEmptyPassword
	}
	if len(plain) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	digest, err := v.hasher.Hash(plain)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return digest, nil
}

// Verify reports whether plain matches digest. A nil digest (unknown email or
// social-only account) never matches, but is still compared against a decoy
// digest at the same cost so both paths take the same time.
func (v *Verifier) Verify(plain string, digest *string) bool {
	if digest == nil || *digest == "" {
		if decoy := v.decoyDigest(); decoy != "" {
			_ = v.hasher.Verify(plain, decoy)
		}
		return false
	}
	return v.hasher.Verify(plain, *digest)
}

func (v *Verifier) decoyDigest() string {
	v.decoyOnce.Do(func() {
		if d, err := v.hasher.Hash(decoyPassword); err == nil {
			v.decoy = d
		}
	})
	return v.decoy
}
