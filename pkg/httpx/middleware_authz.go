package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/aussiebroadwan/tokenkit/pkg/service"
	"github.com/aussiebroadwan/tokenkit/pkg/slogx"
)

// Authorizer decides on an identity attached by AuthnMiddleware.
type Authorizer interface {
	Authorize(ctx context.Context, id *service.Identity, opts service.Options) (service.Decision, error)
}

// StatusResponse is the body of a rejected request.
type StatusResponse struct {
	Status service.Status `json:"status"`
}

// AuthorizeMiddleware runs the authorizer for every request. A request with
// no identity gets 403, any other refusal 401, and a store failure 500. On
// success the verified claims are available through ClaimsFromContext.
func AuthorizeMiddleware(a Authorizer, opts service.Options) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			d, err := a.Authorize(ctx, IdentityFromContext(ctx), opts)
			if err != nil {
				log.Error("authorization failed", slog.Any("error", err))
				WriteJSON(w, http.StatusInternalServerError, map[string]string{
					"error":             "server_error",
					"error_description": "Token could not be checked. Please try again later.",
				})
				return
			}

			switch {
			case d.Allowed():
				next.ServeHTTP(w, r.WithContext(withClaims(ctx, d.Claims)))
			case d.Anonymous:
				WriteJSON(w, http.StatusForbidden, StatusResponse{Status: d.Status})
			default:
				log.Info("token refused", slog.String("status", string(d.Status)), slog.String("profile", d.Profile))
				writeBearerError(w, d.Status)
			}
		})
	}
}

// RequireClaim lets a request through only when the authorized token carries
// claim with one of values. It must run after AuthorizeMiddleware.
func RequireClaim(claim string, values ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, ok := ClaimsFromContext(r.Context())
			if ok {
				if v, found := c.Map()[claim]; found && (len(values) == 0 || slices.Contains(values, v)) {
					next.ServeHTTP(w, r)
					return
				}
			}

			w.Header().Set("WWW-Authenticate",
				`Bearer error="insufficient_scope", error_description="`+claim+" "+strings.Join(values, " ")+`"`)
			WriteJSON(w, http.StatusForbidden, map[string]string{"error": "insufficient_scope"})
		})
	}
}

// RFC 6750 error response for a refused bearer token.
func writeBearerError(w http.ResponseWriter, status service.Status) {
	if status == service.StatusTokenRequired {
		w.Header().Set("WWW-Authenticate", `Bearer`)
	} else {
		w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+string(status)+`"`)
	}
	WriteJSON(w, http.StatusUnauthorized, StatusResponse{Status: status})
}
