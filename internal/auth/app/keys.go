package app

import (
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/fitra/pkg/jwtx"
)

// InitSessionKeys builds the session signer.
//
// Key modes:
//   - secret: SESSION_SECRET is set. HS256, sessions survive restarts and
//     can be shared by several instances with the same secret.
//   - keyfile: SESSION_KEY_FILE is set. EdDSA with a key kept on disk,
//     generated on first start.
//   - ephemeral: neither is set. EdDSA with a key generated at boot; every
//     session ends when the process restarts.
func InitSessionKeys(cfg Config, logger *slog.Logger) (*jwtx.KeyManager, error) {
	var (
		keyManager *jwtx.KeyManager
		err        error
	)

	switch {
	case cfg.Session.Secret != "":
		keyManager, err = jwtx.NewSecretKeyManager(cfg.Issuer, []byte(cfg.Session.Secret))
	case cfg.Session.KeyFile != "":
		keyManager, err = jwtx.NewKeyFileManager(cfg.Issuer, cfg.Session.KeyFile)
	default:
		keyManager, err = jwtx.NewEphemeralKeyManager(cfg.Issuer)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session keys: %w", err)
	}

	logger.Info("session keys ready",
		"mode", keyManager.Mode(),
		"algorithm", keyManager.Algorithm(),
		"issuer", cfg.Issuer,
	)
	if keyManager.Mode() == jwtx.ModeEphemeral {
		logger.Warn("no SESSION_SECRET or SESSION_KEY_FILE set, sessions will not survive a restart")
	}

	return keyManager, nil
}
