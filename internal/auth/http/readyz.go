package http

import (
	"context"
	"net/http"
	"time"

	"github.com/aussiebroadwan/tabgate/pkg/authsdk"
	"github.com/aussiebroadwan/tabgate/pkg/httpx"
	"github.com/aussiebroadwan/tabgate/pkg/jwtx"
)

// Pinger is a dependency that can report its health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadyzHandler godoc
//
//	@Summary		Readiness probe
//	@Description	Checks the database, the session signing key and, when Redis backs the login throttle, the Redis connection.
//	@Description	Returns 503 if any of them is unavailable.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	authsdk.HealthResponse	"status, uptime, version, checks - service not ready"
//	@Router			/readyz [get].
func ReadyzHandler(
	startTime time.Time,
	version string,
	db Pinger,
	keys *jwtx.KeySet,
	throttle Pinger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		checks := &authsdk.HealthChecks{Database: "ok", Signer: "ok"}
		ready := true

		if err := db.Ping(ctx); err != nil {
			checks.Database = "error: " + err.Error()
			ready = false
		}
		if !keys.IsReady() {
			checks.Signer = "error: no keys loaded"
			ready = false
		}
		if throttle != nil {
			checks.Throttle = "ok"
			if err := throttle.Ping(ctx); err != nil {
				checks.Throttle = "error: " + err.Error()
				ready = false
			}
		}

		resp := authsdk.HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).Round(time.Second).String(),
			Version: version,
			Checks:  checks,
		}
		status := http.StatusOK
		if !ready {
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
		}
		httpx.WriteJSON(w, status, resp)
	}
}
