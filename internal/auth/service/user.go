package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/fitra/internal/auth/domain"
	"github.com/aussiebroadwan/fitra/internal/auth/store"
	"github.com/samber/oops"
)

// ErrUserNotFound means a valid session names an account that is gone.
var ErrUserNotFound = fmt.Errorf("%w: user not found", ErrAuthentication)

type UserService struct {
	Store store.Store
}

// GetIdentity fetches the current record for a session subject, so a
// deleted account stops resolving even while its token is unexpired.
func (s *UserService) GetIdentity(ctx context.Context, userID string) (domain.Identity, error) {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Identity{}, oops.Code("USER_NOT_FOUND").Wrap(ErrUserNotFound)
		}
		return domain.Identity{}, storageFailed("get_user_by_id", err)
	}
	return u.Identity(), nil
}
