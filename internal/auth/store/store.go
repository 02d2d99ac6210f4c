package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aussiebroadwan/fitra/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite,
// postgres, mongo) implement this. It exposes sub-repositories to keep
// concerns tidy and testable.
//
// There is no transaction API. The only multi-step write is registration
// and its race is closed by the unique index on email.
type Store interface {
	Users() Users
	RevokedSessions() RevokedSessions

	// ApplyMigrations brings the schema (or collection indexes) up to date.
	ApplyMigrations(ctx context.Context) error

	// Close releases the underlying connection pool.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail looks up by normalized email. Callers normalize first.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by the service via
	// ULID). Returns ErrAlreadyExists when the email is taken.
	CreateUser(ctx context.Context, u domain.User) error

	// CountUsers returns the number of registered accounts. It seeds the
	// registered users gauge at startup.
	CountUsers(ctx context.Context) (int64, error)
}

type RevokedSessions interface {
	// RevokeSession records a logged out token. Revoking the same jti twice
	// is not an error.
	RevokeSession(ctx context.Context, s domain.RevokedSession) error

	// IsSessionRevoked reports whether jti has been logged out.
	IsSessionRevoked(ctx context.Context, jti string) (bool, error)

	// DeleteExpiredRevocations removes rows whose token expired before
	// cutoff and returns how many were removed.
	DeleteExpiredRevocations(ctx context.Context, cutoff time.Time) (int64, error)
}

// NormalizeEmail is the one email canonicalization used for both storing
// and looking up accounts.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
