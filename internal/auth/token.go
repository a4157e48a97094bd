package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/blake2b"
)

var ErrUnauthorized = errors.New("unauthorized")

// TokenVerifier checks bearer tokens against a single bcrypt hash. Tokens
// that verified once are remembered by digest so bcrypt runs once per token.
type TokenVerifier struct {
	hash     []byte
	mu       sync.RWMutex
	verified map[[32]byte]struct{}
}

// NewTokenVerifier returns nil when hash is empty, which disables auth.
func NewTokenVerifier(hash string) (*TokenVerifier, error) {
	hash = strings.TrimSpace(hash)
	if hash == "" {
		return nil, nil
	}
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, fmt.Errorf("parse token hash: %w", err)
	}
	return &TokenVerifier{hash: []byte(hash), verified: make(map[[32]byte]struct{})}, nil
}

func (v *TokenVerifier) Verify(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrUnauthorized
	}
	digest := blake2b.Sum256([]byte(token))
	v.mu.RLock()
	_, ok := v.verified[digest]
	v.mu.RUnlock()
	if ok {
		return nil
	}
	if err := bcrypt.CompareHashAndPassword(v.hash, []byte(token)); err != nil {
		return ErrUnauthorized
	}
	v.mu.Lock()
	v.verified[digest] = struct{}{}
	v.mu.Unlock()
	return nil
}

func NewToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// HashToken produces the value for ARTICLEGEN_API_TOKEN_HASH.
func HashToken(token string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash token: %w", err)
	}
	return string(hash), nil
}
