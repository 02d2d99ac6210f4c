package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aussiebroadwan/fitra/internal/auth/domain"
	"github.com/aussiebroadwan/fitra/internal/auth/store"
	"github.com/aussiebroadwan/fitra/pkg/cryptox"
	"github.com/aussiebroadwan/fitra/pkg/slogx"
)

// LoginInput is the credentials form.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type CredentialService struct {
	Store   store.Store
	Hashers *cryptox.WorkerPool
}

// Verify returns the identity owning the credentials. A missing field, an
// unknown email and a wrong password all produce ErrInvalidCredentials after
// the same amount of hashing, so callers cannot tell them apart.
func (s *CredentialService) Verify(ctx context.Context, in LoginInput) (id domain.Identity, err error) {
	ctx, span := tracer.Start(ctx, "credentials.Verify")
	defer func() { endSpan(span, err) }()

	log := slogx.FromContext(ctx)
	email := store.NormalizeEmail(in.Email)

	// 1. Malformed input still costs one verify.
	if email == "" || in.Password == "" {
		return domain.Identity{}, s.reject(ctx, in.Password)
	}

	// 2. Look up the account.
	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Identity{}, s.reject(ctx, in.Password)
		}
		return domain.Identity{}, storageFailed("get_user_by_email", err)
	}

	// 3. Check the password.
	ok, err := s.Hashers.Verify(ctx, in.Password, user.PasswordHash)
	if err != nil {
		return domain.Identity{}, cancelled("verify_password", err)
	}
	if !ok {
		log.Info("login rejected", slog.String("user_id", user.ID))
		return domain.Identity{}, invalidCredentials()
	}

	return user.Identity(), nil
}

func (s *CredentialService) reject(ctx context.Context, password string) error {
	if err := s.Hashers.DummyVerify(ctx, password); err != nil {
		return cancelled("dummy_verify", err)
	}
	return invalidCredentials()
}
