package httpx

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/tokenkit/pkg/service"
)

// Authenticator establishes an identity from a raw bearer token.
type Authenticator interface {
	Authenticate(raw string) *service.Identity
}

// BearerToken returns the token of an "Authorization: Bearer" header, or
// "" when there is none.
func BearerToken(r *http.Request) string {
	authz := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(authz, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// AuthnMiddleware attaches the caller's identity to the request context when
// the bearer token carries a known signature. It never rejects a request;
// AuthorizeMiddleware decides what an absent identity means.
func AuthnMiddleware(a Authenticator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := BearerToken(r)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			id := a.Authenticate(raw)
			if id == nil {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}
