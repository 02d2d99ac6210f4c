package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/fitra/internal/auth/domain"
)

const (
	revokeSession = `INSERT INTO revoked_sessions (jti, expires_at, revoked_at)
VALUES (?, ?, ?)
ON CONFLICT (jti) DO NOTHING`

	isSessionRevoked = `SELECT EXISTS (SELECT 1 FROM revoked_sessions WHERE jti = ?)`

	deleteExpiredRevocations = `DELETE FROM revoked_sessions WHERE expires_at < ?`
)

type revokedSessionsRepo struct {
	db *sql.DB
}

func (r *revokedSessionsRepo) RevokeSession(ctx context.Context, s domain.RevokedSession) error {
	revokedAt := s.RevokedAt
	if revokedAt.IsZero() {
		revokedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, revokeSession, s.JTI, s.ExpiresAt.Unix(), revokedAt.Unix())
	return err
}

func (r *revokedSessionsRepo) IsSessionRevoked(ctx context.Context, jti string) (bool, error) {
	var revoked bool
	if err := r.db.QueryRowContext(ctx, isSessionRevoked, jti).Scan(&revoked); err != nil {
		return false, err
	}
	return revoked, nil
}

func (r *revokedSessionsRepo) DeleteExpiredRevocations(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, deleteExpiredRevocations, cutoff.Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
