package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/fitra/internal/auth/domain"
	"github.com/aussiebroadwan/fitra/internal/auth/store"
	"github.com/aussiebroadwan/fitra/pkg/jwtx"
	"github.com/aussiebroadwan/fitra/pkg/slogx"
	"github.com/samber/oops"
	"go.opentelemetry.io/otel/attribute"
)

// SessionService mints and checks session tokens. A session is
// Authenticated from Issue until it expires or is revoked; every failure to
// resolve a token is reported as Anonymous.
type SessionService struct {
	Keys  *jwtx.KeyManager
	Store store.Store
	TTL   time.Duration

	now func() time.Time
}

func NewSessionService(keys *jwtx.KeyManager, s store.Store, ttl time.Duration) *SessionService {
	if ttl <= 0 {
		ttl = jwtx.DefaultSessionTTL
	}
	return &SessionService{Keys: keys, Store: s, TTL: ttl, now: time.Now}
}

// WithClock replaces the clock used to mint and check tokens.
func (s *SessionService) WithClock(now func() time.Time) *SessionService {
	s.now = now
	s.Keys.Verifier.WithClock(now)
	return s
}

// Issuer is the iss claim of minted tokens.
func (s *SessionService) Issuer() string { return s.Keys.Verifier.Issuer() }

// Issue signs a new session for id.
func (s *SessionService) Issue(ctx context.Context, id domain.Identity) (sess domain.Session, err error) {
	_, span := tracer.Start(ctx, "session.Issue")
	defer func() { endSpan(span, err) }()

	if id.IsZero() {
		return domain.Session{}, oops.Code("SESSION_ANONYMOUS").Errorf("cannot issue a session without a subject")
	}

	now := s.now()
	claims := jwtx.NewSessionClaims(id.ID, id.Email, id.Name, s.Issuer(), s.TTL, now)

	token, err := s.Keys.Signer.Sign(claims)
	if err != nil {
		return domain.Session{}, oops.Code("SESSION_SIGN_FAILED").Wrap(err)
	}

	return domain.Session{
		Token:     token,
		ID:        claims.ID,
		Identity:  id,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAtTime(),
	}, nil
}

// Resolve returns the session a token stands for. ok is false for a
// missing, malformed, tampered, foreign, expired or revoked token, and when
// the revocation list cannot be read.
func (s *SessionService) Resolve(ctx context.Context, token string) (sess domain.Session, ok bool) {
	ctx, span := tracer.Start(ctx, "session.Resolve")
	defer func() {
		span.SetAttributes(attribute.Bool("session.authenticated", ok))
		span.End()
	}()

	if token == "" {
		return domain.Session{}, false
	}

	log := slogx.FromContext(ctx)

	claims, err := s.Keys.Verifier.Verify(token)
	if err != nil {
		log.Debug("session rejected", slog.String("reason", err.Error()))
		return domain.Session{}, false
	}
	if claims.Subject == "" || claims.ID == "" {
		log.Debug("session rejected", slog.String("reason", "missing sub or jti"))
		return domain.Session{}, false
	}

	revoked, err := s.Store.RevokedSessions().IsSessionRevoked(ctx, claims.ID)
	if err != nil {
		log.Warn("revocation lookup failed, treating session as anonymous", slog.Any("error", err))
		return domain.Session{}, false
	}
	if revoked {
		log.Debug("session rejected", slog.String("reason", "revoked"))
		return domain.Session{}, false
	}

	var issuedAt time.Time
	if claims.IssuedAt != nil {
		issuedAt = claims.IssuedAt.Time
	}

	return domain.Session{
		Token: token,
		ID:    claims.ID,
		Identity: domain.Identity{
			ID:    claims.Subject,
			Email: claims.Email,
			Name:  claims.Name,
		},
		IssuedAt:  issuedAt,
		ExpiresAt: claims.ExpiresAtTime(),
	}, true
}

// Revoke logs a token out so it stops resolving before it expires. Tokens
// that would not resolve anyway are ignored.
func (s *SessionService) Revoke(ctx context.Context, token string) (err error) {
	ctx, span := tracer.Start(ctx, "session.Revoke")
	defer func() { endSpan(span, err) }()

	if token == "" {
		return nil
	}

	claims, verr := s.Keys.Verifier.Verify(token)
	if verr != nil {
		slogx.FromContext(ctx).Debug("ignoring logout of unverifiable token", slog.String("reason", verr.Error()))
		return nil
	}
	if claims.ID == "" {
		return nil
	}

	err = s.Store.RevokedSessions().RevokeSession(ctx, domain.RevokedSession{
		JTI:       claims.ID,
		ExpiresAt: claims.ExpiresAtTime(),
		RevokedAt: s.now().UTC(),
	})
	if err != nil {
		return storageFailed("revoke_session", err)
	}
	return nil
}
