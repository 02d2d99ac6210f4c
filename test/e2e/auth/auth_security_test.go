package auth_test

import (
	"net/http"
	"testing"

	"github.com/aussiebroadwan/fitra/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestInvalidCredentials verifies that a wrong password and an unknown
// email are rejected the same way.
func TestInvalidCredentials(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	email := signupUser(t, authsdk.NewSDKClient(baseURL), "victim@example.com")

	client := authsdk.NewSDKClient(baseURL)

	_, wrongPassword := client.Login(t.Context(), email, "wrong-password")
	assertStatus(t, wrongPassword, http.StatusUnauthorized, "Invalid password should be rejected")

	_, unknownEmail := client.Login(t.Context(), "nobody@example.com", testPassword)
	assertStatus(t, unknownEmail, http.StatusUnauthorized, "Unknown email should be rejected")

	require.Equal(t, wrongPassword.Error(), unknownEmail.Error(), "Failures should not reveal which part was wrong")
	require.Empty(t, client.SessionToken(), "Failed login should not set a cookie")

	t.Logf("Invalid credentials correctly rejected with 401")
}

// TestInvalidSessionToken verifies that a forged token reads as anonymous
// and cannot reach protected routes.
func TestInvalidSessionToken(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL)
	client.SetBearerToken("invalid-token-12345")

	session, err := client.Session(t.Context())
	require.NoError(t, err)
	require.False(t, session.Authenticated(), "Invalid token should be anonymous")

	_, err = client.Me(t.Context())
	assertStatus(t, err, http.StatusUnauthorized, "Invalid token should be rejected")

	t.Logf("Invalid token correctly rejected with 401")
}
