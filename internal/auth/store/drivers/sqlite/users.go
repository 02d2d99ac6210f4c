package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/fitra/internal/auth/domain"
)

const (
	getUserByID = `SELECT id, email, name, password_hash, created_at
FROM users WHERE id = ?`

	getUserByEmail = `SELECT id, email, name, password_hash, created_at
FROM users WHERE email = ?`

	createUser = `INSERT INTO users (id, email, name, password_hash, created_at)
VALUES (?, ?, ?, ?, ?)`

	countUsers = `SELECT COUNT(*) FROM users`
)

type usersRepo struct {
	db *sql.DB
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, getUserByID, id))
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, getUserByEmail, email))
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	createdAt := u.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, createUser,
		u.ID,
		u.Email,
		u.Name,
		u.PasswordHash,
		createdAt.Unix(),
	)
	return mapConstraint(err)
}

func (r *usersRepo) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, countUsers).Scan(&n)
	return n, err
}

func scanUser(row *sql.Row) (domain.User, error) {
	var (
		u         domain.User
		createdAt int64
	)
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &createdAt); err != nil {
		return domain.User{}, mapNotFound(err)
	}
	u.CreatedAt = time.Unix(createdAt, 0).UTC()
	return u, nil
}
