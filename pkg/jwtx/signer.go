package jwtx

import (
	"crypto/sha256"
	"encoding/base64"
)

// Signer is anything that can sign session tokens.
type Signer interface {
	Alg() string
	KID() string
	Sign(Claims) (string, error)

	// VerificationKey is what a Verifier needs for this signer's tokens:
	// the public key for EdDSA, the shared secret for HS256.
	VerificationKey() any

	Validate() error
}

// keyID derives a stable kid from key material so tokens minted before a
// restart still resolve to the same key afterwards.
func keyID(prefix string, material []byte) string {
	sum := sha256.Sum256(material)
	return prefix + "-" + base64.RawURLEncoding.EncodeToString(sum[:6])
}
