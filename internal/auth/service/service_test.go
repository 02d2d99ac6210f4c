package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/fitra/internal/auth/domain"
	"github.com/aussiebroadwan/fitra/internal/auth/store"
	"github.com/aussiebroadwan/fitra/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/fitra/pkg/cryptox"
	"github.com/aussiebroadwan/fitra/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

// fastArgon2 keeps the suite quick; the format and code paths are the same
// as production parameters.
var fastArgon2 = cryptox.Argon2Params{Memory: 64, Iterations: 1, Parallelism: 1, KeyLength: 16, SaltLength: 8}

type opRecorder struct {
	mu  sync.Mutex
	ops []string
}

func (r *opRecorder) observe(op string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, op)
}

func (r *opRecorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ops...)
}

type testEnv struct {
	store    store.Store
	hasher   *cryptox.Hasher
	pool     *cryptox.WorkerPool
	ops      *opRecorder
	register *RegistrationService
	creds    *CredentialService
	sessions *SessionService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	s, err := sqlite.NewStore(filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations(context.Background()))

	return newTestEnvWithStore(t, s)
}

func newTestEnvWithStore(t *testing.T, s store.Store) *testEnv {
	t.Helper()

	hasher, err := cryptox.NewHasher(cryptox.HasherOptions{Argon2: fastArgon2, Pepper: "test-pepper"})
	require.NoError(t, err)

	ops := &opRecorder{}
	pool := cryptox.NewWorkerPool(hasher, 4, ops.observe)

	keys, err := jwtx.NewSecretKeyManager("fitra-test", []byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	return &testEnv{
		store:    s,
		hasher:   hasher,
		pool:     pool,
		ops:      ops,
		register: NewRegistrationService(s, pool),
		creds:    &CredentialService{Store: s, Hashers: pool},
		sessions: NewSessionService(keys, s, time.Hour),
	}
}

func (e *testEnv) mustRegister(t *testing.T, email, password, name string) domain.Identity {
	t.Helper()
	id, err := e.register.Register(context.Background(), RegisterInput{Email: email, Password: password, Name: name})
	require.NoError(t, err)
	return id
}

var errBackend = errors.New("backend unavailable")

// brokenStore fails every call with errBackend.
type brokenStore struct {
	store.Store
}

func (brokenStore) Users() store.Users                     { return brokenUsers{} }
func (brokenStore) RevokedSessions() store.RevokedSessions { return brokenSessions{} }

type brokenUsers struct{}

func (brokenUsers) GetUserByID(context.Context, string) (domain.User, error) {
	return domain.User{}, errBackend
}

func (brokenUsers) GetUserByEmail(context.Context, string) (domain.User, error) {
	return domain.User{}, errBackend
}

func (brokenUsers) CreateUser(context.Context, domain.User) error { return errBackend }

func (brokenUsers) CountUsers(context.Context) (int64, error) { return 0, errBackend }

type brokenSessions struct{}

func (brokenSessions) RevokeSession(context.Context, domain.RevokedSession) error { return errBackend }

func (brokenSessions) IsSessionRevoked(context.Context, string) (bool, error) {
	return false, errBackend
}

func (brokenSessions) DeleteExpiredRevocations(context.Context, time.Time) (int64, error) {
	return 0, errBackend
}
