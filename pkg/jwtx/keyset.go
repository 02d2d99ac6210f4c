package jwtx

import (
	"errors"
	"sync"
)

var ErrNoKey = errors.New("jwtx: key not found")

// KeySet maps kid to verification key. Safe for concurrent use so a key can
// be added while requests are being verified.
type KeySet struct {
	mu   sync.RWMutex
	keys map[string]any
}

func NewKeySet() *KeySet {
	return &KeySet{keys: make(map[string]any)}
}

// AddSigner registers the verification key of s under its kid.
func (k *KeySet) AddSigner(s Signer) error {
	if err := s.Validate(); err != nil {
		return err
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	k.keys[s.KID()] = s.VerificationKey()
	return nil
}

// Get returns the key registered for kid.
func (k *KeySet) Get(kid string) (any, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if key, ok := k.keys[kid]; ok {
		return key, nil
	}
	return nil, ErrNoKey
}

// IsReady reports whether at least one key is loaded.
func (k *KeySet) IsReady() bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.keys) > 0
}
