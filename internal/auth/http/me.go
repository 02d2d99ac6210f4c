package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/fitra/internal/auth/service"
	"github.com/aussiebroadwan/fitra/pkg/errutil"
	"github.com/aussiebroadwan/fitra/pkg/httpx"
	"github.com/aussiebroadwan/fitra/pkg/slogx"
)

// MeHandler serves GET /auth/me, the example of a route that needs a
// signed-in user. The account is read back from storage so a deleted user
// loses access even while their token is still valid.
type MeHandler struct {
	Users *service.UserService
}

func (h *MeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sess, ok := SessionFromContext(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	id, err := h.Users.GetIdentity(ctx, sess.Identity.ID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			httpx.WriteError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		errutil.LogErrorContext(ctx, slogx.FromContext(ctx), "load current user failed", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, userResponse(id))
}
