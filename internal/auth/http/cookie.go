package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/fitra/internal/auth/domain"
)

// Cookies describes the session cookie.
type Cookies struct {
	Name     string
	Domain   string
	Secure   bool
	SameSite http.SameSite
}

// ParseSameSite maps "lax", "strict" and "none" to their http.SameSite
// value. ok is false for anything else.
func ParseSameSite(s string) (mode http.SameSite, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lax":
		return http.SameSiteLaxMode, true
	case "strict":
		return http.SameSiteStrictMode, true
	case "none":
		return http.SameSiteNoneMode, true
	default:
		return http.SameSiteDefaultMode, false
	}
}

// Set writes the session cookie. It expires together with the token.
func (c Cookies) Set(w http.ResponseWriter, sess domain.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    sess.Token,
		Path:     "/",
		Domain:   c.Domain,
		Expires:  sess.ExpiresAt.UTC(),
		MaxAge:   int(time.Until(sess.ExpiresAt).Seconds()),
		Secure:   c.Secure,
		HttpOnly: true,
		SameSite: c.SameSite,
	})
}

// Clear tells the browser to drop the session cookie.
func (c Cookies) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    "",
		Path:     "/",
		Domain:   c.Domain,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		Secure:   c.Secure,
		HttpOnly: true,
		SameSite: c.SameSite,
	})
}

// token returns the session token from the cookie, falling back to an
// Authorization: Bearer header for non-browser clients.
func (c Cookies) token(r *http.Request) string {
	if cookie, err := r.Cookie(c.Name); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return ""
}
