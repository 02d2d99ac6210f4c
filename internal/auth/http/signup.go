package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/fitra/internal/auth/metrics"
	"github.com/aussiebroadwan/fitra/internal/auth/service"
	"github.com/aussiebroadwan/fitra/pkg/authsdk"
	"github.com/aussiebroadwan/fitra/pkg/errutil"
	"github.com/aussiebroadwan/fitra/pkg/httpx"
	"github.com/aussiebroadwan/fitra/pkg/slogx"
)

// SignupHandler serves POST /auth/signup. A successful signup also signs
// the new user in.
type SignupHandler struct {
	Registration *service.RegistrationService
	Sessions     *service.SessionService
	Cookies      Cookies
	Metrics      *metrics.Metrics
}

func (h *SignupHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req authsdk.SignupRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		h.Metrics.RecordSignup(metrics.OutcomeInvalid)
		httpx.WriteError(w, http.StatusBadRequest, httpx.ErrBadBody.Error())
		return
	}

	id, err := h.Registration.Register(ctx, service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		var verr *service.ValidationError
		switch {
		case errors.Is(err, service.ErrConflict):
			h.Metrics.RecordSignup(metrics.OutcomeConflict)
			httpx.WriteError(w, http.StatusBadRequest, "User already exists")
		case errors.As(err, &verr):
			h.Metrics.RecordSignup(metrics.OutcomeInvalid)
			httpx.WriteError(w, http.StatusBadRequest, verr.Message)
		default:
			h.Metrics.RecordSignup(metrics.OutcomeError)
			errutil.LogErrorContext(ctx, slogx.FromContext(ctx), "signup failed", err)
			httpx.WriteError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}
	h.Metrics.RecordSignup(metrics.OutcomeSuccess)

	// The account exists at this point, so a signing failure only costs the
	// user an extra login.
	if sess, err := h.Sessions.Issue(ctx, id); err != nil {
		log := slogx.FromContext(ctx).With(slog.String("user_id", id.ID))
		errutil.LogErrorContext(ctx, log, "session issue after signup failed", err)
	} else {
		h.Cookies.Set(w, sess)
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.SignupResponse{
		Message: "User created",
		User:    authsdk.User{Email: id.Email, Name: id.Name},
	})
}
