package jwtx

import (
	"fmt"

	"github.com/aussiebroadwan/fitra/pkg/cryptox"
)

// Key modes understood by the session service.
const (
	ModeSecret    = "secret"    // HS256 over SESSION_SECRET
	ModeKeyFile   = "keyfile"   // EdDSA key persisted on disk
	ModeEphemeral = "ephemeral" // EdDSA key generated at boot, lost on restart
)

// KeyManager wires one Signer to a KeySet and matching Verifier.
type KeyManager struct {
	Signer   Signer
	Verifier *KeySetVerifier
	KeySet   *KeySet
	mode     string
}

func newKeyManager(mode string, signer Signer, issuer string) (*KeyManager, error) {
	if issuer == "" {
		return nil, fmt.Errorf("jwtx: issuer is required")
	}

	keys := NewKeySet()
	if err := keys.AddSigner(signer); err != nil {
		return nil, err
	}

	return &KeyManager{
		Signer:   signer,
		Verifier: NewVerifier(signer.Alg(), keys, issuer),
		KeySet:   keys,
		mode:     mode,
	}, nil
}

// NewSecretKeyManager signs sessions with HS256 over secret.
func NewSecretKeyManager(issuer string, secret []byte) (*KeyManager, error) {
	signer, err := NewSignerHS256(secret)
	if err != nil {
		return nil, err
	}
	return newKeyManager(ModeSecret, signer, issuer)
}

// NewKeyFileManager signs with the Ed25519 key stored at path, generating it
// on first use.
func NewKeyFileManager(issuer, path string) (*KeyManager, error) {
	pemKey, err := cryptox.LoadOrGenerateEd25519Key(path)
	if err != nil {
		return nil, err
	}
	signer, err := NewSignerEdDSA("", pemKey)
	if err != nil {
		return nil, err
	}
	return newKeyManager(ModeKeyFile, signer, issuer)
}

// NewEphemeralKeyManager signs with a key that only lives in memory. Every
// session becomes invalid when the process restarts.
func NewEphemeralKeyManager(issuer string) (*KeyManager, error) {
	pemKey, err := cryptox.GenerateEd25519Key()
	if err != nil {
		return nil, err
	}
	signer, err := NewSignerEdDSA("", pemKey)
	if err != nil {
		return nil, err
	}
	return newKeyManager(ModeEphemeral, signer, issuer)
}

// Mode reports which constructor built the manager.
func (km *KeyManager) Mode() string { return km.mode }

// Algorithm is the JWS alg of the active signer.
func (km *KeyManager) Algorithm() string { return km.Signer.Alg() }

// IsReady reports whether the manager can sign and verify.
func (km *KeyManager) IsReady() bool {
	return km.Signer != nil && km.Signer.Validate() == nil && km.KeySet.IsReady()
}
