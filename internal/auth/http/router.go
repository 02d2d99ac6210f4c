package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/fitra/internal/auth/metrics"
	"github.com/aussiebroadwan/fitra/internal/auth/service"
	"github.com/aussiebroadwan/fitra/internal/auth/store"
	"github.com/aussiebroadwan/fitra/pkg/httpx"
	"github.com/aussiebroadwan/fitra/pkg/jwtx"
	"github.com/aussiebroadwan/fitra/pkg/slogx"
)

// RateLimits holds the per-route limiter settings. Each field can be
// overridden from the environment, e.g. RATELIMIT_LOGIN_REQUESTS=50.
type RateLimits struct {
	Signup  httpx.RateLimitConfig `koanf:"signup" envPrefix:"SIGNUP_"`
	Login   httpx.RateLimitConfig `koanf:"login" envPrefix:"LOGIN_"`
	Session httpx.RateLimitConfig `koanf:"session" envPrefix:"SESSION_"`
	Health  httpx.RateLimitConfig `koanf:"health" envPrefix:"HEALTH_"`
}

// DefaultRateLimits guards the credential routes strictly and leaves probes
// and metrics scrapes plenty of room.
var DefaultRateLimits = RateLimits{
	Signup:  httpx.StrictLimit,
	Login:   httpx.StrictLimit,
	Session: httpx.ModerateLimit,
	Health:  httpx.LenientLimit,
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *jwtx.KeyManager
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	RegistrationService *service.RegistrationService
	CredentialService   *service.CredentialService
	SessionService      *service.SessionService
	UserService         *service.UserService

	Metrics     *metrics.Metrics
	Cookies     Cookies
	RateLimits  RateLimits
	CORSOrigins []string
}

func NewRouter(
	keys *jwtx.KeyManager,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	return &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
		Cookies: Cookies{
			Name:     "fitra.session-token",
			Secure:   true,
			SameSite: http.SameSiteLaxMode,
		},
		RateLimits: DefaultRateLimits,
	}
}

// ApplyRoutes registers every route. Services, cookies and limits must be
// set before it is called.
func (r *Router) ApplyRoutes() {
	// Logging first so CORS preflights and rejected requests are logged too
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.CORS(r.CORSOrigins),
	}

	r.registerAuth()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// handle registers h under pattern, counting its responses under the
// same label.
func (r *Router) handle(pattern string, h http.Handler) {
	r.Mux.Handle(pattern, r.Metrics.Instrument(pattern, h))
}

func (r *Router) registerAuth() {
	withSession := SessionMiddleware(r.SessionService, r.Cookies)

	// POST /auth/signup - strict rate limit by IP (account creation)
	signup := &SignupHandler{
		Registration: r.RegistrationService,
		Sessions:     r.SessionService,
		Cookies:      r.Cookies,
		Metrics:      r.Metrics,
	}
	r.handle("POST /auth/signup",
		httpx.Chain(signup,
			httpx.RateLimitByIP(r.RateLimits.Signup),
		),
	)

	sessions := &SessionHandler{
		Credentials: r.CredentialService,
		Sessions:    r.SessionService,
		Cookies:     r.Cookies,
		Metrics:     r.Metrics,
	}

	// POST /auth/session - strict rate limit by IP + email to slow down
	// repeated password guesses at one account from one address
	r.handle("POST /auth/session",
		httpx.Chain(http.HandlerFunc(sessions.HandleLogin),
			httpx.RateLimitByIPAndJSONField(r.RateLimits.Login, "email"),
		),
	)

	r.handle("GET /auth/session",
		httpx.Chain(http.HandlerFunc(sessions.HandleCurrent),
			httpx.RateLimitByIP(r.RateLimits.Session),
			withSession,
		),
	)

	logout := httpx.Chain(http.HandlerFunc(sessions.HandleLogout),
		httpx.RateLimitByIP(r.RateLimits.Session),
	)
	r.handle("DELETE /auth/session", logout)
	r.handle("POST /auth/logout", logout)

	me := &MeHandler{Users: r.UserService}
	r.handle("GET /auth/me",
		httpx.Chain(me,
			httpx.RateLimitByIP(r.RateLimits.Session),
			withSession,
			RequireSession,
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(r.RateLimits.Health),
		),
	)
	r.handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.keys),
			httpx.RateLimitByIP(r.RateLimits.Health),
		),
	)

	if r.Metrics != nil {
		r.handle("GET /metrics",
			httpx.Chain(r.Metrics.Handler(),
				httpx.RateLimitByIP(r.RateLimits.Health),
			),
		)
	}
}
