package postgres

import (
	"context"
	"time"

	"github.com/aussiebroadwan/fitra/internal/auth/domain"
	"github.com/jackc/pgx/v5"
)

const (
	getUserByID = `SELECT id, email, name, password_hash, created_at FROM users WHERE id = $1`

	getUserByEmail = `SELECT id, email, name, password_hash, created_at FROM users WHERE email = $1`

	createUser = `INSERT INTO users (id, email, name, password_hash, created_at) VALUES ($1, $2, $3, $4, $5)`

	countUsers = `SELECT COUNT(*) FROM users`
)

type usersRepo struct {
	pool poolIface
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	return scanUser(r.pool.QueryRow(ctx, getUserByID, id))
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return scanUser(r.pool.QueryRow(ctx, getUserByEmail, email))
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	createdAt := u.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := r.pool.Exec(ctx, createUser, u.ID, u.Email, u.Name, u.PasswordHash, createdAt)
	return mapConstraint(err)
}

func (r *usersRepo) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, countUsers).Scan(&n)
	return n, err
}

func scanUser(row pgx.Row) (domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt); err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}
