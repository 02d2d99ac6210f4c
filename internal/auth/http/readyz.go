package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/fitra/internal/auth/store"
	"github.com/aussiebroadwan/fitra/pkg/authsdk"
	"github.com/aussiebroadwan/fitra/pkg/httpx"
	"github.com/aussiebroadwan/fitra/pkg/jwtx"
	"github.com/aussiebroadwan/fitra/pkg/slogx"
)

// ReadyzHandler reports whether the store answers and the session signer
// has a key. Either failing turns the response into a 503.
func ReadyzHandler(
	startTime time.Time,
	version string,
	st store.Store,
	keys *jwtx.KeyManager,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &authsdk.HealthChecks{
			Database: "ok",
			Signer:   "ok",
		}
		overallStatus := "ok"
		statusCode := http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			slogx.FromContext(r.Context()).Warn("readiness: store ping failed", "error", err)
			checks.Database = "error"
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		if !keys.IsReady() {
			checks.Signer = "error: no keys loaded"
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		response := authsdk.HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		}
		httpx.WriteJSON(w, statusCode, response)
	}
}
