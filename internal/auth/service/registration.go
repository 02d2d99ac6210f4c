package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/aussiebroadwan/fitra/internal/auth/domain"
	"github.com/aussiebroadwan/fitra/internal/auth/store"
	"github.com/aussiebroadwan/fitra/pkg/cryptox"
	"github.com/aussiebroadwan/fitra/pkg/idx"
	"github.com/aussiebroadwan/fitra/pkg/slogx"
	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"
)

// RegisterInput is the signup form. Tags drive validation; json names are
// used in messages.
type RegisterInput struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6,max=1024"`
	Name     string `json:"name" validate:"required,max=100"`
}

type RegistrationService struct {
	Store     store.Store
	Hashers   *cryptox.WorkerPool
	validator *validator.Validate
}

func NewRegistrationService(s store.Store, hashers *cryptox.WorkerPool) *RegistrationService {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	})

	return &RegistrationService{Store: s, Hashers: hashers, validator: v}
}

// Register creates an account and returns its identity. The email is
// normalized before anything else so "A@B.com " and "a@b.com" are the same
// account.
func (s *RegistrationService) Register(ctx context.Context, in RegisterInput) (id domain.Identity, err error) {
	ctx, span := tracer.Start(ctx, "registration.Register")
	defer func() { endSpan(span, err) }()

	log := slogx.FromContext(ctx)

	// 1. Normalize and require the lookup fields.
	in.Email = store.NormalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if in.Email == "" {
		return domain.Identity{}, validationFailed("email", "email is required")
	}
	if in.Password == "" {
		return domain.Identity{}, validationFailed("password", "password is required")
	}

	// 2. A taken email is a conflict whatever the rest of the form holds.
	_, err = s.Store.Users().GetUserByEmail(ctx, in.Email)
	switch {
	case err == nil:
		log.Info("registration rejected, email taken")
		return domain.Identity{}, oops.Code(CodeUserExists).Wrap(ErrUserAlreadyExists)
	case !errors.Is(err, store.ErrNotFound):
		return domain.Identity{}, storageFailed("get_user_by_email", err)
	}

	// 3. Validate the rest before paying for a hash.
	if err := s.validate(in); err != nil {
		return domain.Identity{}, err
	}

	// 4. Hash on the worker pool.
	digest, err := s.Hashers.Hash(ctx, in.Password)
	if err != nil {
		if errors.Is(err, cryptox.ErrPasswordTooLong) {
			return domain.Identity{}, validationFailed("password",
				fmt.Sprintf("password must be at most %d bytes", cryptox.MaxBcryptPasswordBytes))
		}
		if ctx.Err() != nil {
			return domain.Identity{}, cancelled("hash_password", err)
		}
		return domain.Identity{}, oops.Code(CodeHashFailed).Wrap(err)
	}

	// 5. Insert. The unique index settles a race with a concurrent signup.
	user := domain.User{
		ID:           idx.New().String(),
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: digest,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.Store.Users().CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			log.Info("registration lost a race, email taken")
			return domain.Identity{}, oops.Code(CodeUserExists).Wrap(ErrUserAlreadyExists)
		}
		return domain.Identity{}, storageFailed("create_user", err)
	}

	log.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return user.Identity(), nil
}

func (s *RegistrationService) validate(in RegisterInput) error {
	err := s.validator.Struct(in)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return oops.Code(CodeValidation).Wrap(fmt.Errorf("%w: %w", ErrValidation, err))
	}

	fe := fieldErrs[0]
	return validationFailed(fe.Field(), validationMessage(fe))
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fe.Field() + " is invalid"
	}
}
