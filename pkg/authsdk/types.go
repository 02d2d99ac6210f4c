package authsdk

import "time"

// ============================================================================
// Requests
// ============================================================================

// SignupRequest is the body of POST /auth/signup.
type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// LoginRequest is the body of POST /auth/session.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ============================================================================
// Responses
// ============================================================================

// User is the public projection of an account. It never carries the
// password digest.
type User struct {
	// ID is omitted from the signup response
	ID    string `json:"id,omitempty"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// SignupResponse is returned by POST /auth/signup.
type SignupResponse struct {
	Message string `json:"message"`
	User    User   `json:"user"`
}

// SessionResponse describes the current session. Both fields are empty for
// an anonymous caller, which the server encodes as {}.
type SessionResponse struct {
	User *User `json:"user,omitempty"`

	// Expires is RFC 3339
	Expires string `json:"expires,omitempty"`
}

// Authenticated reports whether the response describes a signed-in user.
func (s *SessionResponse) Authenticated() bool {
	return s.User != nil
}

// ExpiresAt parses Expires. It is the zero time for an anonymous session.
func (s *SessionResponse) ExpiresAt() (time.Time, error) {
	if s.Expires == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, s.Expires)
}

// MessageResponse is a bare acknowledgement, e.g. {"message":"Signed out"}.
type MessageResponse struct {
	Message string `json:"message"`
}

// ============================================================================
// Health
// ============================================================================

// HealthResponse is returned by /livez and /readyz.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks holds the per-dependency readiness results.
type HealthChecks struct {
	Database string `json:"database"`
	Signer   string `json:"signer"`
}
