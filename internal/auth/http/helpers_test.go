package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/fitra/internal/auth/metrics"
	"github.com/aussiebroadwan/fitra/internal/auth/service"
	"github.com/aussiebroadwan/fitra/internal/auth/store"
	"github.com/aussiebroadwan/fitra/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/fitra/pkg/cryptox"
	"github.com/aussiebroadwan/fitra/pkg/httpx"
	"github.com/aussiebroadwan/fitra/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const testCookie = "fitra.session-token"

var fastArgon2 = cryptox.Argon2Params{Memory: 64, Iterations: 1, Parallelism: 1, KeyLength: 16, SaltLength: 8}

var roomyLimit = httpx.RateLimitConfig{RequestsPerWindow: 10000, Window: time.Minute, Burst: 10000}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testServer struct {
	router  *Router
	store   store.Store
	clock   *testClock
	metrics *metrics.Metrics
}

// newTestServer wires a router over a fresh sqlite store. configure runs
// before the routes are applied.
func newTestServer(t *testing.T, configure ...func(*Router)) *testServer {
	t.Helper()

	st, err := sqlite.NewStore(filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations(context.Background()))

	hasher, err := cryptox.NewHasher(cryptox.HasherOptions{Argon2: fastArgon2, Pepper: "test-pepper"})
	require.NoError(t, err)

	m := metrics.New()
	pool := cryptox.NewWorkerPool(hasher, 4, m.ObserveHash)

	keys, err := jwtx.NewSecretKeyManager("fitra-test", []byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	clock := &testClock{now: time.Now()}
	sessions := service.NewSessionService(keys, st, time.Hour).WithClock(clock.Now)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := NewRouter(keys, "test", st, logger)
	r.RegistrationService = service.NewRegistrationService(st, pool)
	r.CredentialService = &service.CredentialService{Store: st, Hashers: pool}
	r.SessionService = sessions
	r.UserService = &service.UserService{Store: st}
	r.Metrics = m
	r.Cookies.Secure = false
	r.RateLimits = RateLimits{Signup: roomyLimit, Login: roomyLimit, Session: roomyLimit, Health: roomyLimit}

	for _, fn := range configure {
		fn(r)
	}
	r.ApplyRoutes()

	return &testServer{router: r, store: st, clock: clock, metrics: m}
}

// do sends body as JSON (nil for none) with the given cookies.
func (ts *testServer) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(buf)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == testCookie {
			return c
		}
	}
	t.Fatalf("response has no %s cookie", testCookie)
	return nil
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}
