package app

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	httpapi "github.com/aussiebroadwan/fitra/internal/auth/http"
	"github.com/aussiebroadwan/fitra/pkg/cryptox"
	"github.com/aussiebroadwan/fitra/pkg/httpx"
	"github.com/aussiebroadwan/fitra/pkg/jwtx"
)

// Database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

type Config struct {
	Issuer               string        `koanf:"issuer" env:"AUTH_ISSUER"`                          // iss claim of session tokens (default: fitra-auth)
	Env                  string        `koanf:"env" env:"ENV"`                                     // dev, staging, prod (default: dev)
	LogLevel             string        `koanf:"log_level" env:"LOG_LEVEL"`                         // debug, info, warn, error (default: info)
	LogFormat            string        `koanf:"log_format" env:"LOG_FORMAT"`                       // json, text (default: json)
	Port                 int           `koanf:"port" env:"PORT"`                                   // HTTP port (default: 8080)
	ShutdownGracePeriod  time.Duration `koanf:"shutdown_grace_period" env:"SHUTDOWN_GRACE_PERIOD"` // default: 10s
	HousekeepingInterval time.Duration `koanf:"housekeeping_interval" env:"HOUSEKEEPING_INTERVAL"` // default: 1h

	Database DatabaseConfig `koanf:"database" envPrefix:"AUTH_DATABASE_"`
	Password PasswordConfig `koanf:"password" envPrefix:"AUTH_"`
	Session  SessionConfig  `koanf:"session" envPrefix:"SESSION_"`
	Cookie   CookieConfig   `koanf:"cookie" envPrefix:"COOKIE_"`

	// CORSOrigins are the browser origins allowed to call the API with
	// cookies. Empty disables CORS.
	CORSOrigins []string `koanf:"cors_origins" env:"CORS_ORIGIN" envSeparator:","`

	RateLimits httpapi.RateLimits `koanf:"ratelimit" envPrefix:"RATELIMIT_"`
}

type DatabaseConfig struct {
	Driver         string        `koanf:"driver" env:"DRIVER"`                   // sqlite, postgres, mongo (default: sqlite)
	File           string        `koanf:"file" env:"FILE"`                       // sqlite only (default: auth.db)
	URL            string        `koanf:"url" env:"URL"`                         // postgres and mongo
	Name           string        `koanf:"name" env:"NAME"`                       // mongo database (default: fitra)
	ConnectTimeout time.Duration `koanf:"connect_timeout" env:"CONNECT_TIMEOUT"` // how long startup retries (default: 30s)
}

type PasswordConfig struct {
	PepperFile  string `koanf:"pepper_file" env:"PEPPER_FILE"`      // default: pepper
	Algorithm   string `koanf:"algorithm" env:"PASSWORD_ALGORITHM"` // argon2id, bcrypt (default: argon2id)
	BcryptCost  int    `koanf:"bcrypt_cost" env:"BCRYPT_COST"`      // default: 10
	HashWorkers int    `koanf:"hash_workers" env:"HASH_WORKERS"`    // default: NumCPU
}

type SessionConfig struct {
	Secret  string        `koanf:"secret" env:"SECRET"`     // HS256 secret; sessions survive restarts
	KeyFile string        `koanf:"key_file" env:"KEY_FILE"` // Ed25519 key file, used when Secret is empty
	TTL     time.Duration `koanf:"ttl" env:"TTL"`           // default: 30 days
}

type CookieConfig struct {
	Name     string `koanf:"name" env:"NAME"`         // default: fitra.session-token
	Domain   string `koanf:"domain" env:"DOMAIN"`     // default: host only
	Secure   *bool  `koanf:"secure" env:"SECURE"`     // default: true unless env is dev
	SameSite string `koanf:"samesite" env:"SAMESITE"` // lax, strict, none (default: lax)
}

// DefaultConfig is the configuration before any file, environment variable
// or flag is applied.
func DefaultConfig() Config {
	return Config{
		Issuer:               "fitra-auth",
		Env:                  "dev",
		LogLevel:             "info",
		LogFormat:            "json",
		Port:                 8080,
		ShutdownGracePeriod:  10 * time.Second,
		HousekeepingInterval: time.Hour,
		Database: DatabaseConfig{
			Driver:         DriverSQLite,
			File:           "auth.db",
			Name:           "fitra",
			ConnectTimeout: 30 * time.Second,
		},
		Password: PasswordConfig{
			PepperFile:  "pepper",
			Algorithm:   string(cryptox.AlgorithmArgon2id),
			BcryptCost:  cryptox.DefaultBcryptCost,
			HashWorkers: runtime.NumCPU(),
		},
		Session: SessionConfig{
			TTL: jwtx.DefaultSessionTTL,
		},
		Cookie: CookieConfig{
			Name:     "fitra.session-token",
			SameSite: "lax",
		},
		RateLimits: httpapi.DefaultRateLimits,
	}
}

// LoadOptions says where LoadConfig looks besides the environment.
type LoadOptions struct {
	// ConfigFile is an optional YAML file.
	ConfigFile string

	// EnvFile is loaded into the environment without overriding variables
	// that are already set. A missing file is not an error.
	EnvFile string

	// Flags are applied last, but only those set on the command line.
	Flags *pflag.FlagSet
}

// flagKeys maps command line flags to config keys.
var flagKeys = map[string]string{
	"port":            "port",
	"log-level":       "log_level",
	"database-driver": "database.driver",
	"database-url":    "database.url",
}

// LoadConfig layers defaults, the YAML file, the .env file, the environment
// and explicitly set flags, in that order of precedence from lowest.
func LoadConfig(opts LoadOptions) (Config, error) {
	cfg := DefaultConfig()

	if opts.ConfigFile != "" {
		k := koanf.New(".")
		if err := k.Load(file.Provider(opts.ConfigFile), yaml.Parser()); err != nil {
			return Config{}, oops.Code("CONFIG_INVALID").With("file", opts.ConfigFile).Wrap(err)
		}
		if err := k.Unmarshal("", &cfg); err != nil {
			return Config{}, oops.Code("CONFIG_INVALID").With("file", opts.ConfigFile).Wrap(err)
		}
	}

	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, oops.Code("CONFIG_INVALID").With("file", opts.EnvFile).Wrap(err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, oops.Code("CONFIG_INVALID").Wrap(err)
	}

	if opts.Flags != nil {
		k := koanf.New(".")
		provider := posflag.ProviderWithFlag(opts.Flags, ".", nil, func(f *pflag.Flag) (string, any) {
			key, known := flagKeys[f.Name]
			if !known || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(opts.Flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return Config{}, oops.Code("CONFIG_INVALID").Wrap(err)
		}
		if err := k.Unmarshal("", &cfg); err != nil {
			return Config{}, oops.Code("CONFIG_INVALID").Wrap(err)
		}
	}

	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	return cfg, nil
}

// Validate reports every problem with the configuration at once.
func (c Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if c.Issuer == "" {
		add("issuer is required")
	}
	if c.Port < 1 || c.Port > 65535 {
		add("port %d is out of range", c.Port)
	}
	if c.ShutdownGracePeriod <= 0 {
		add("shutdown grace period must be positive")
	}
	if c.HousekeepingInterval <= 0 {
		add("housekeeping interval must be positive")
	}

	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.File == "" {
			add("database file is required for sqlite")
		}
	case DriverPostgres, DriverMongo:
		if c.Database.URL == "" {
			add("database url is required for %s", c.Database.Driver)
		}
		if c.Database.ConnectTimeout <= 0 {
			add("database connect timeout must be positive")
		}
	default:
		add("unknown database driver %q", c.Database.Driver)
	}

	switch cryptox.Algorithm(c.Password.Algorithm) {
	case cryptox.AlgorithmArgon2id:
	case cryptox.AlgorithmBcrypt:
		if c.Password.BcryptCost < 4 || c.Password.BcryptCost > 31 {
			add("bcrypt cost %d is out of range", c.Password.BcryptCost)
		}
	default:
		add("unknown password algorithm %q", c.Password.Algorithm)
	}
	if c.Password.PepperFile == "" {
		add("pepper file is required")
	}

	if c.Session.TTL <= 0 {
		add("session ttl must be positive")
	}
	if c.Session.Secret != "" && len(c.Session.Secret) < 32 {
		add("session secret must be at least 32 bytes")
	}

	if c.Cookie.Name == "" {
		add("cookie name is required")
	}
	sameSite, ok := httpapi.ParseSameSite(c.Cookie.SameSite)
	if !ok {
		add("unknown cookie samesite %q", c.Cookie.SameSite)
	}
	if sameSite == http.SameSiteNoneMode && !c.CookieSecure() {
		add("cookie samesite none requires a secure cookie")
	}

	for _, rl := range []struct {
		name string
		cfg  httpx.RateLimitConfig
	}{
		{"signup", c.RateLimits.Signup},
		{"login", c.RateLimits.Login},
		{"session", c.RateLimits.Session},
		{"health", c.RateLimits.Health},
	} {
		if !rl.cfg.Valid() {
			add("rate limit %s needs a positive request count, window and burst", rl.name)
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return oops.Code("CONFIG_INVALID").Wrap(errors.Join(errs...))
}

// CookieSecure resolves the Secure flag: explicit setting first, otherwise
// on everywhere except dev.
func (c Config) CookieSecure() bool {
	if c.Cookie.Secure != nil {
		return *c.Cookie.Secure
	}
	return c.Env != "dev"
}

// Cookies is the cookie description handed to the router.
func (c Config) Cookies() httpapi.Cookies {
	sameSite, _ := httpapi.ParseSameSite(c.Cookie.SameSite)
	return httpapi.Cookies{
		Name:     c.Cookie.Name,
		Domain:   c.Cookie.Domain,
		Secure:   c.CookieSecure(),
		SameSite: sameSite,
	}
}
