package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/tokenkit/pkg/httpx"
	"github.com/aussiebroadwan/tokenkit/pkg/keyring"
	"github.com/aussiebroadwan/tokenkit/pkg/store"
	"github.com/aussiebroadwan/tokenkit/pkg/tokensdk"
)

// JWKSHandler exposes the public keys of certificate profiles.
func JWKSHandler(keys *keyring.Keyring) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, keys.JWKS())
	}
}

// InfoHandler describes the service and its profiles.
func InfoHandler(info func() tokensdk.Info) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, info())
	}
}

// LivezHandler always answers 200 while the process runs.
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, tokensdk.HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}

// ReadyzHandler reports 503 while the state store is unreachable or no
// verification key is loaded.
func ReadyzHandler(startTime time.Time, version string, st store.Store, keys *keyring.Keyring) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &tokensdk.HealthChecks{
			Store: "ok",
			Keys:  "ok",
		}
		overallStatus := "ok"
		statusCode := http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			checks.Store = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		if !keys.KeySet().IsReady() {
			checks.Keys = "error: no verification keys loaded"
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, statusCode, tokensdk.HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
