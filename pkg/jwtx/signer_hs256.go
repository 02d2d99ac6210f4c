package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLength is the shortest HS256 secret we accept (256 bits).
const MinSecretLength = 32

var ErrWeakSecret = errors.New("jwtx: session secret must be at least 32 bytes")

// HS256Signer signs with a shared secret. Every instance configured with
// the same secret can verify every other instance's sessions.
type HS256Signer struct {
	kid    string
	secret []byte
}

// NewSignerHS256 builds a signer over secret. The kid is derived from the
// secret so a rotated secret gets a new kid.
func NewSignerHS256(secret []byte) (*HS256Signer, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrWeakSecret
	}
	s := make([]byte, len(secret))
	copy(s, secret)
	return &HS256Signer{kid: keyID("fitra-hs", s), secret: s}, nil
}

func (s *HS256Signer) Alg() string          { return jwt.SigningMethodHS256.Alg() }
func (s *HS256Signer) KID() string          { return s.kid }
func (s *HS256Signer) VerificationKey() any { return s.secret }

func (s *HS256Signer) Sign(claims Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	t.Header["kid"] = s.kid
	return t.SignedString(s.secret)
}

func (s *HS256Signer) Validate() error {
	if len(s.secret) < MinSecretLength {
		return ErrWeakSecret
	}
	return nil
}
