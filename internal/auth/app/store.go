package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/aussiebroadwan/fitra/internal/auth/store"
	"github.com/aussiebroadwan/fitra/internal/auth/store/drivers/mongo"
	"github.com/aussiebroadwan/fitra/internal/auth/store/drivers/postgres"
	"github.com/aussiebroadwan/fitra/internal/auth/store/drivers/sqlite"
)

// retryBase is the first backoff between connection attempts; it doubles up
// to retryCap.
const (
	retryBase = 250 * time.Millisecond
	retryCap  = 5 * time.Second
)

// OpenStore connects to the configured database. Server databases are
// retried with exponential backoff for up to ConnectTimeout, since in a
// compose file the service usually starts before its database accepts
// connections.
func OpenStore(ctx context.Context, cfg DatabaseConfig, logger *slog.Logger) (store.Store, error) {
	switch cfg.Driver {
	case DriverSQLite:
		s, err := sqlite.NewStore(cfg.File)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		return s, nil

	case DriverPostgres:
		return connectWithRetry(ctx, cfg, logger, func(ctx context.Context) (store.Store, error) {
			return postgres.NewStore(ctx, cfg.URL)
		})

	case DriverMongo:
		return connectWithRetry(ctx, cfg, logger, func(ctx context.Context) (store.Store, error) {
			return mongo.NewStore(ctx, cfg.URL, cfg.Name)
		})

	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func connectWithRetry(
	ctx context.Context,
	cfg DatabaseConfig,
	logger *slog.Logger,
	connect func(context.Context) (store.Store, error),
) (store.Store, error) {
	backoff := retry.NewExponential(retryBase)
	backoff = retry.WithCappedDuration(retryCap, backoff)
	backoff = retry.WithMaxDuration(cfg.ConnectTimeout, backoff)

	var (
		s       store.Store
		attempt int
	)
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		var err error
		s, err = connect(ctx)
		if err != nil {
			logger.Warn("database not reachable yet",
				"driver", cfg.Driver,
				"attempt", attempt,
				"error", err,
			)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s after %d attempts: %w", cfg.Driver, attempt, err)
	}

	logger.Info("database connected", "driver", cfg.Driver, "attempts", attempt)
	return s, nil
}
