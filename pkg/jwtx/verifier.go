package jwtx

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates a session token and returns its claims.
type Verifier interface {
	Verify(token string) (Claims, error)
}

var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrUnknownKID  = errors.New("jwtx: unknown kid")
	ErrInvalidSig  = errors.New("jwtx: invalid signature")
	ErrIssuer      = errors.New("jwtx: issuer mismatch")
	ErrExpired     = errors.New("jwtx: token expired")
	ErrNotYetValid = errors.New("jwtx: token not yet valid")
)

// KeySetVerifier checks tokens of a single algorithm against a KeySet.
type KeySetVerifier struct {
	alg    string
	keys   *KeySet
	issuer string
	now    func() time.Time
}

// NewVerifier accepts only alg-signed tokens whose kid is in keys and whose
// issuer matches (empty issuer skips that check).
func NewVerifier(alg string, keys *KeySet, issuer string) *KeySetVerifier {
	return &KeySetVerifier{alg: alg, keys: keys, issuer: issuer, now: time.Now}
}

// WithClock overrides the clock, for tests.
func (v *KeySetVerifier) WithClock(now func() time.Time) *KeySetVerifier {
	v.now = now
	return v
}

// Issuer is the issuer tokens must carry.
func (v *KeySetVerifier) Issuer() string { return v.issuer }

func (v *KeySetVerifier) Verify(tokenStr string) (Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{v.alg}),
		jwt.WithTimeFunc(v.now),
	)

	var claims Claims
	_, err := parser.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, ErrUnknownKID
		}

		key, err := v.keys.Get(kid)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownKID, kid)
		}

		switch k := key.(type) {
		case ed25519.PublicKey:
			if v.alg != jwt.SigningMethodEdDSA.Alg() {
				return nil, ErrUnknownKID
			}
			return k, nil
		case []byte:
			if v.alg != jwt.SigningMethodHS256.Alg() {
				return nil, ErrUnknownKID
			}
			return k, nil
		default:
			return nil, fmt.Errorf("jwtx: unsupported key type %T", key)
		}
	})
	if err != nil {
		return Claims{}, classify(err)
	}

	if err := claims.ValidateIssuer(v.issuer); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateExpiry(v.now()); err != nil {
		return Claims{}, err
	}

	return claims, nil
}

// classify folds the parser's error tree into our sentinels.
func classify(err error) error {
	switch {
	case errors.Is(err, ErrUnknownKID):
		return err
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return ErrNotYetValid
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %w", ErrInvalidSig, err)
	default:
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}
}
