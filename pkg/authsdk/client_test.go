package authsdk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aussiebroadwan/fitra/pkg/httpx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeServer mimics the cookie handling of the real service closely enough
// to exercise the jar.
func fakeServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/session", func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		if req.Password != "secret1" {
			httpx.WriteError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		http.SetCookie(w, &http.Cookie{Name: DefaultCookieName, Value: "tok-1", Path: "/", HttpOnly: true})
		httpx.WriteJSON(w, http.StatusOK, SessionResponse{
			User:    &User{ID: "u1", Email: req.Email, Name: "A B"},
			Expires: "2030-01-02T03:04:05Z",
		})
	})
	mux.HandleFunc("GET /auth/session", func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie(DefaultCookieName); err == nil && c.Value == "tok-1" {
			httpx.WriteJSON(w, http.StatusOK, SessionResponse{User: &User{ID: "u1"}, Expires: "2030-01-02T03:04:05Z"})
			return
		}
		httpx.WriteJSON(w, http.StatusOK, struct{}{})
	})
	mux.HandleFunc("DELETE /auth/session", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: DefaultCookieName, Value: "", Path: "/", MaxAge: -1})
		httpx.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Signed out"})
	})
	mux.HandleFunc("GET /auth/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-2" {
			httpx.WriteError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		httpx.WriteJSON(w, http.StatusOK, User{ID: "u2", Email: "c@d.com", Name: "C D"})
	})
	mux.HandleFunc("GET /livez", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("down"))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_LoginSessionLogout(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c := NewSDKClient(fakeServer(t).URL + "/")

	anon, err := c.Session(ctx)
	require.NoError(t, err)
	assert.False(t, anon.Authenticated())
	exp, err := anon.ExpiresAt()
	require.NoError(t, err)
	assert.True(t, exp.IsZero())

	sess, err := c.Login(ctx, "a@b.com", "secret1")
	require.NoError(t, err)
	require.True(t, sess.Authenticated())
	assert.Equal(t, "a@b.com", sess.User.Email)
	assert.Equal(t, "tok-1", c.SessionToken())

	exp, err = sess.ExpiresAt()
	require.NoError(t, err)
	assert.Equal(t, 2030, exp.Year())

	current, err := c.Session(ctx)
	require.NoError(t, err)
	assert.True(t, current.Authenticated())

	require.NoError(t, c.Logout(ctx))
	assert.Empty(t, c.SessionToken())

	after, err := c.Session(ctx)
	require.NoError(t, err)
	assert.False(t, after.Authenticated())
}

func TestClient_APIError(t *testing.T) {
	t.Parallel()
	c := NewSDKClient(fakeServer(t).URL)

	_, err := c.Login(context.Background(), "a@b.com", "wrong")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "invalid credentials", apiErr.Message)
	assert.True(t, IsStatus(err, http.StatusUnauthorized))
	assert.False(t, IsStatus(err, http.StatusBadRequest))
}

func TestClient_NonJSONError(t *testing.T) {
	t.Parallel()
	c := NewSDKClient(fakeServer(t).URL)

	_, err := c.GetReadiness(context.Background())
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.Equal(t, "Service Unavailable", apiErr.Message)
}

func TestClient_BearerToken(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c := NewSDKClient(fakeServer(t).URL)

	_, err := c.Me(ctx)
	assert.True(t, IsStatus(err, http.StatusUnauthorized))

	c.SetBearerToken("tok-2")
	me, err := c.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u2", me.ID)
}

func TestClient_Liveness(t *testing.T) {
	t.Parallel()
	c := NewSDKClient(fakeServer(t).URL)

	health, err := c.GetLiveness(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", health.Status)
}
