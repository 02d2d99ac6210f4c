package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/aussiebroadwan/fitra/internal/auth/domain"
	"github.com/aussiebroadwan/fitra/internal/auth/metrics"
	"github.com/aussiebroadwan/fitra/internal/auth/service"
	"github.com/aussiebroadwan/fitra/pkg/authsdk"
	"github.com/aussiebroadwan/fitra/pkg/errutil"
	"github.com/aussiebroadwan/fitra/pkg/httpx"
	"github.com/aussiebroadwan/fitra/pkg/slogx"
)

// SessionHandler serves the session resource: login, current session and
// logout.
type SessionHandler struct {
	Credentials *service.CredentialService
	Sessions    *service.SessionService
	Cookies     Cookies
	Metrics     *metrics.Metrics
}

// HandleLogin serves POST /auth/session. Every credential failure gets the
// same 401 so responses do not reveal which emails have accounts.
func (h *SessionHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req authsdk.LoginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		h.Metrics.RecordLogin(metrics.OutcomeInvalid)
		httpx.WriteError(w, http.StatusBadRequest, httpx.ErrBadBody.Error())
		return
	}

	id, err := h.Credentials.Verify(ctx, service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, service.ErrAuthentication) {
			h.Metrics.RecordLogin(metrics.OutcomeInvalid)
			httpx.WriteError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		h.Metrics.RecordLogin(metrics.OutcomeError)
		errutil.LogErrorContext(ctx, slogx.FromContext(ctx), "login failed", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	sess, err := h.Sessions.Issue(ctx, id)
	if err != nil {
		h.Metrics.RecordLogin(metrics.OutcomeError)
		errutil.LogErrorContext(ctx, slogx.FromContext(ctx), "session issue failed", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	h.Metrics.RecordLogin(metrics.OutcomeSuccess)

	h.Cookies.Set(w, sess)
	httpx.WriteJSON(w, http.StatusOK, sessionResponse(sess))
}

// HandleCurrent serves GET /auth/session. Anonymous callers get {} with a
// 200, whatever the reason they have no session.
func (h *SessionHandler) HandleCurrent(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFromContext(r.Context())
	if !ok {
		httpx.WriteJSON(w, http.StatusOK, authsdk.SessionResponse{})
		return
	}
	httpx.WriteJSON(w, http.StatusOK, sessionResponse(sess))
}

// HandleLogout serves DELETE /auth/session and POST /auth/logout. The
// cookie is always cleared; the token is revoked so a copy of it stops
// working too.
func (h *SessionHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	h.Cookies.Clear(w)

	if err := h.Sessions.Revoke(ctx, h.Cookies.token(r)); err != nil {
		errutil.LogErrorContext(ctx, slogx.FromContext(ctx), "logout failed", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	h.Metrics.RecordLogout()

	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Message: "Signed out"})
}

func sessionResponse(sess domain.Session) authsdk.SessionResponse {
	return authsdk.SessionResponse{
		User:    userResponse(sess.Identity),
		Expires: sess.ExpiresAt.UTC().Format(time.RFC3339),
	}
}

func userResponse(id domain.Identity) *authsdk.User {
	return &authsdk.User{ID: id.ID, Email: id.Email, Name: id.Name}
}
