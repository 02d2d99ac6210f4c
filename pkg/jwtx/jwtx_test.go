package jwtx_test

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/fitra/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const exampleIssuer = "fitra-auth-test"

var exampleSecret = bytes.Repeat([]byte("s"), jwtx.MinSecretLength)

func newManagers(t *testing.T) map[string]*jwtx.KeyManager {
	t.Helper()

	secret, err := jwtx.NewSecretKeyManager(exampleIssuer, exampleSecret)
	require.NoError(t, err)

	ephemeral, err := jwtx.NewEphemeralKeyManager(exampleIssuer)
	require.NoError(t, err)

	keyFile, err := jwtx.NewKeyFileManager(exampleIssuer, filepath.Join(t.TempDir(), "session.pem"))
	require.NoError(t, err)

	return map[string]*jwtx.KeyManager{
		jwtx.ModeSecret:    secret,
		jwtx.ModeEphemeral: ephemeral,
		jwtx.ModeKeyFile:   keyFile,
	}
}

func TestSignAndVerify(t *testing.T) {
	for mode, km := range newManagers(t) {
		t.Run(mode, func(t *testing.T) {
			require.Equal(t, mode, km.Mode())
			require.True(t, km.IsReady())

			now := time.Now()
			claims := jwtx.NewSessionClaims("user-1", "a@b.com", "A B", exampleIssuer, time.Hour, now)

			token, err := km.Signer.Sign(claims)
			require.NoError(t, err)

			got, err := km.Verifier.Verify(token)
			require.NoError(t, err)
			require.Equal(t, "user-1", got.Subject)
			require.Equal(t, "a@b.com", got.Email)
			require.Equal(t, "A B", got.Name)
			require.Equal(t, claims.ID, got.ID)
			require.WithinDuration(t, now.Add(time.Hour), got.ExpiresAtTime(), time.Second)
		})
	}
}

func TestVerifyRejects(t *testing.T) {
	for mode, km := range newManagers(t) {
		t.Run(mode, func(t *testing.T) {
			now := time.Now()

			expired, err := km.Signer.Sign(jwtx.NewSessionClaims("u", "e", "n", exampleIssuer, time.Hour, now.Add(-2*time.Hour)))
			require.NoError(t, err)
			_, err = km.Verifier.Verify(expired)
			require.ErrorIs(t, err, jwtx.ErrExpired)

			wrongIssuer, err := km.Signer.Sign(jwtx.NewSessionClaims("u", "e", "n", "someone-else", time.Hour, now))
			require.NoError(t, err)
			_, err = km.Verifier.Verify(wrongIssuer)
			require.ErrorIs(t, err, jwtx.ErrIssuer)

			good, err := km.Signer.Sign(jwtx.NewSessionClaims("u", "e", "n", exampleIssuer, time.Hour, now))
			require.NoError(t, err)

			// Flip a character in the signature.
			parts := strings.Split(good, ".")
			sig := []byte(parts[2])
			if sig[0] == 'A' {
				sig[0] = 'B'
			} else {
				sig[0] = 'A'
			}
			tampered := parts[0] + "." + parts[1] + "." + string(sig)
			_, err = km.Verifier.Verify(tampered)
			require.Error(t, err)

			_, err = km.Verifier.Verify("not-a-jwt")
			require.ErrorIs(t, err, jwtx.ErrMalformed)
		})
	}
}

func TestVerifyRejectsForeignKeys(t *testing.T) {
	a, err := jwtx.NewEphemeralKeyManager(exampleIssuer)
	require.NoError(t, err)
	b, err := jwtx.NewEphemeralKeyManager(exampleIssuer)
	require.NoError(t, err)
	hs, err := jwtx.NewSecretKeyManager(exampleIssuer, exampleSecret)
	require.NoError(t, err)

	claims := jwtx.NewSessionClaims("u", "e", "n", exampleIssuer, time.Hour, time.Now())

	fromA, err := a.Signer.Sign(claims)
	require.NoError(t, err)
	_, err = b.Verifier.Verify(fromA)
	require.ErrorIs(t, err, jwtx.ErrUnknownKID)

	// An HS256 token must never be accepted by an EdDSA verifier.
	fromHS, err := hs.Signer.Sign(claims)
	require.NoError(t, err)
	_, err = a.Verifier.Verify(fromHS)
	require.Error(t, err)
}

func TestKeyIDsAreStable(t *testing.T) {
	one, err := jwtx.NewSignerHS256(exampleSecret)
	require.NoError(t, err)
	two, err := jwtx.NewSignerHS256(exampleSecret)
	require.NoError(t, err)
	require.Equal(t, one.KID(), two.KID())

	path := filepath.Join(t.TempDir(), "session.pem")
	first, err := jwtx.NewKeyFileManager(exampleIssuer, path)
	require.NoError(t, err)
	second, err := jwtx.NewKeyFileManager(exampleIssuer, path)
	require.NoError(t, err)
	require.Equal(t, first.Signer.KID(), second.Signer.KID())

	// A token minted before the "restart" still verifies after it.
	token, err := first.Signer.Sign(jwtx.NewSessionClaims("u", "e", "n", exampleIssuer, time.Hour, time.Now()))
	require.NoError(t, err)
	_, err = second.Verifier.Verify(token)
	require.NoError(t, err)
}

func TestWeakSecret(t *testing.T) {
	_, err := jwtx.NewSecretKeyManager(exampleIssuer, []byte("short"))
	require.ErrorIs(t, err, jwtx.ErrWeakSecret)
}

func TestIssuerRequired(t *testing.T) {
	_, err := jwtx.NewEphemeralKeyManager("")
	require.Error(t, err)
}

func TestVerifierClock(t *testing.T) {
	km, err := jwtx.NewSecretKeyManager(exampleIssuer, exampleSecret)
	require.NoError(t, err)

	issued := time.Now()
	token, err := km.Signer.Sign(jwtx.NewSessionClaims("u", "e", "n", exampleIssuer, time.Minute, issued))
	require.NoError(t, err)

	later := jwtx.NewVerifier(km.Algorithm(), km.KeySet, exampleIssuer).
		WithClock(func() time.Time { return issued.Add(2 * time.Minute) })
	_, err = later.Verify(token)
	require.ErrorIs(t, err, jwtx.ErrExpired)
}

func TestClaimsValidation(t *testing.T) {
	now := time.Now()

	t.Run("issuer", func(t *testing.T) {
		c := &jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{Issuer: "fitra"}}
		require.NoError(t, c.ValidateIssuer("fitra"))
		require.NoError(t, c.ValidateIssuer(""))
		require.ErrorIs(t, c.ValidateIssuer("other"), jwtx.ErrIssuer)
	})

	t.Run("expiry", func(t *testing.T) {
		c := &jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute))}}
		require.ErrorIs(t, c.ValidateExpiry(now), jwtx.ErrExpired)

		c = &jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{NotBefore: jwt.NewNumericDate(now.Add(time.Minute))}}
		require.ErrorIs(t, c.ValidateExpiry(now), jwtx.ErrNotYetValid)

		require.NoError(t, (&jwtx.Claims{}).ValidateExpiry(now))
		require.True(t, (&jwtx.Claims{}).ExpiresAtTime().IsZero())
	})
}
