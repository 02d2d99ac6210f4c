package postgres

import (
	"context"
	"time"

	"github.com/aussiebroadwan/fitra/internal/auth/domain"
)

const (
	revokeSession = `INSERT INTO revoked_sessions (jti, expires_at, revoked_at) VALUES ($1, $2, $3) ON CONFLICT (jti) DO NOTHING`

	isSessionRevoked = `SELECT EXISTS (SELECT 1 FROM revoked_sessions WHERE jti = $1)`

	deleteExpiredRevocations = `DELETE FROM revoked_sessions WHERE expires_at < $1`
)

type revokedSessionsRepo struct {
	pool poolIface
}

func (r *revokedSessionsRepo) RevokeSession(ctx context.Context, s domain.RevokedSession) error {
	revokedAt := s.RevokedAt
	if revokedAt.IsZero() {
		revokedAt = time.Now().UTC()
	}
	_, err := r.pool.Exec(ctx, revokeSession, s.JTI, s.ExpiresAt, revokedAt)
	return err
}

func (r *revokedSessionsRepo) IsSessionRevoked(ctx context.Context, jti string) (bool, error) {
	var revoked bool
	if err := r.pool.QueryRow(ctx, isSessionRevoked, jti).Scan(&revoked); err != nil {
		return false, err
	}
	return revoked, nil
}

func (r *revokedSessionsRepo) DeleteExpiredRevocations(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, deleteExpiredRevocations, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
