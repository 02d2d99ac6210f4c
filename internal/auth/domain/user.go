package domain

import "time"

// User is the stored credential record. Records are written once at
// registration and never mutated by the authentication flows.
type User struct {
	ID           string
	Email        string // normalized, unique
	Name         string
	PasswordHash string // argon2id PHC string, or bcrypt for legacy rows
	CreatedAt    time.Time
}

// Identity returns the public projection of u. The password hash never
// leaves the service layer.
func (u User) Identity() Identity {
	return Identity{ID: u.ID, Email: u.Email, Name: u.Name}
}

// Identity is who a request acts as once a credential or session has been
// verified.
type Identity struct {
	ID    string
	Email string
	Name  string
}

// IsZero reports whether i is the anonymous identity.
func (i Identity) IsZero() bool { return i.ID == "" }
