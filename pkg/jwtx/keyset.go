package jwtx

import (
	"errors"
	"sync"
)

// KeySet holds the HMAC signing secrets keyed by kid. Exactly one key is
// active for signing; the rest remain available for verification so tokens
// signed before a rotation stay valid until they expire.
type KeySet struct {
	mu        sync.RWMutex
	activeKID string
	secrets   map[string][]byte
}

func NewKeySet() *KeySet {
	return &KeySet{secrets: make(map[string][]byte)}
}

// Add registers a secret under kid. The first key added becomes active.
func (ks *KeySet) Add(kid string, secret []byte) {
	ks.mu.Lock()
	defer ks.mu.Unlock()

	ks.secrets[kid] = secret
	if ks.activeKID == "" {
		ks.activeKID = kid
	}
}

// SetActive switches the signing key. The kid must already be registered.
func (ks *KeySet) SetActive(kid string) error {
	ks.mu.Lock()
	defer ks.mu.Unlock()

	if _, ok := ks.secrets[kid]; !ok {
		return errors.New("jwtx: unknown kid")
	}
	ks.activeKID = kid
	return nil
}

// Active returns the current signing key.
func (ks *KeySet) Active() (kid string, secret []byte, ok bool) {
	ks.mu.RLock()
	defer ks.mu.RUnlock()

	secret, ok = ks.secrets[ks.activeKID]
	return ks.activeKID, secret, ok
}

// Secret returns the secret registered under kid.
func (ks *KeySet) Secret(kid string) ([]byte, bool) {
	ks.mu.RLock()
	defer ks.mu.RUnlock()

	s, ok := ks.secrets[kid]
	return s, ok
}

// IsReady reports whether the set can sign tokens.
func (ks *KeySet) IsReady() bool {
	_, _, ok := ks.Active()
	return ok
}
