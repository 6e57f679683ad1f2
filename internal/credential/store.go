// Package credential persists the session bearer token between runs,
// mirroring the cookie contract of the hosted client: read at startup,
// attached to every authorized call, cleared on sign-out or invalidation.
package credential

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

var (
	ErrNoCredential = errors.New("no stored credential")
	ErrExpired      = errors.New("stored credential has expired")
)

// Credential is the persisted pair from a successful sign-in.
type Credential struct {
	Token   string    `json:"token"`
	Expired time.Time `json:"expired"`
}

// Store holds the process-wide credential and its on-disk copy. It
// implements apiclient.TokenSource.
type Store struct {
	path string
	log  *zap.Logger

	mu      sync.RWMutex
	current *Credential
}

func NewStore(path string, log *zap.Logger) *Store {
	return &Store{path: path, log: log.Named("credential")}
}

// Load rehydrates the credential from disk. Expired credentials are
// discarded and reported as ErrExpired.
func (s *Store) Load() (*Credential, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoCredential
	}
	if err != nil {
		return nil, fmt.Errorf("read credential file: %w", err)
	}

	var cred Credential
	if err := json.Unmarshal(raw, &cred); err != nil {
		return nil, fmt.Errorf("decode credential file: %w", err)
	}
	if cred.Token == "" {
		return nil, ErrNoCredential
	}
	if !cred.Expired.IsZero() && time.Now().After(cred.Expired) {
		s.log.Info("discarding expired credential", zap.Time("expired", cred.Expired))
		_ = s.Clear()
		return nil, ErrExpired
	}

	s.mu.Lock()
	s.current = &cred
	s.mu.Unlock()
	return &cred, nil
}

// Save persists a fresh credential. expiredMillis is the server-supplied
// expiry in epoch milliseconds; when zero the token's own exp claim is used
// as a fallback.
func (s *Store) Save(token string, expiredMillis int64) error {
	cred := Credential{Token: token}
	if expiredMillis > 0 {
		cred.Expired = time.UnixMilli(expiredMillis)
	} else if exp, ok := tokenExpiry(token); ok {
		cred.Expired = exp
	}

	raw, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("encode credential: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("write credential file: %w", err)
	}

	s.mu.Lock()
	s.current = &cred
	s.mu.Unlock()
	return nil
}

// Clear removes the credential from memory and disk.
func (s *Store) Clear() error {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove credential file: %w", err)
	}
	return nil
}

// Token returns the current bearer token for outbound calls.
func (s *Store) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return "", false
	}
	return s.current.Token, true
}

// tokenExpiry extracts the exp claim without verifying the signature; the
// token is opaque to this client and only the deadline matters.
func tokenExpiry(token string) (time.Time, bool) {
	parser := jwt.NewParser()
	claims := jwt.RegisteredClaims{}
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
