package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/fitra/internal/auth/domain"
	"github.com/aussiebroadwan/fitra/internal/auth/service"
	"github.com/aussiebroadwan/fitra/pkg/httpx"
	"github.com/aussiebroadwan/fitra/pkg/slogx"
)

type sessionKey struct{}

// SessionFromContext returns the session resolved by SessionMiddleware.
func SessionFromContext(ctx context.Context) (domain.Session, bool) {
	sess, ok := ctx.Value(sessionKey{}).(domain.Session)
	return sess, ok
}

// SessionMiddleware resolves the request's session token, if any, and
// stores the session in the context. It never rejects a request; an
// unusable token simply leaves the request anonymous.
func SessionMiddleware(sessions *service.SessionService, cookies Cookies) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := cookies.token(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			sess, ok := sessions.Resolve(r.Context(), token)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey{}, sess)
			ctx = slogx.With(ctx, slog.String("user_id", sess.Identity.ID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSession rejects anonymous requests with 401. It must run inside
// SessionMiddleware.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := SessionFromContext(r.Context()); !ok {
			httpx.WriteError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		next.ServeHTTP(w, r)
	})
}
