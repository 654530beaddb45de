package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/tokenkit/pkg/httpx"
	"github.com/aussiebroadwan/tokenkit/pkg/keyring"
	"github.com/aussiebroadwan/tokenkit/pkg/profile"
	"github.com/aussiebroadwan/tokenkit/pkg/service"
	"github.com/aussiebroadwan/tokenkit/pkg/slogx"
	"github.com/aussiebroadwan/tokenkit/pkg/store"
	"github.com/aussiebroadwan/tokenkit/pkg/tokensdk"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	profiles     *profile.Registry
	keys         *keyring.Keyring
	store        store.Store
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	Issuer     *service.Issuer
	Authorizer *service.Authorizer

	// AuthorizeOptions apply to the revoke and validate endpoints.
	AuthorizeOptions service.Options

	// IssueLimit throttles token creation per client IP.
	IssueLimit httpx.RateLimitConfig

	// Info describes the running service.
	Info func() tokensdk.Info
}

func NewRouter(
	profiles *profile.Registry,
	keys *keyring.Keyring,
	st store.Store,
	buildVersion string,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:              http.NewServeMux(),
		profiles:         profiles,
		keys:             keys,
		store:            st,
		buildVersion:     buildVersion,
		startTime:        time.Now(),
		logger:           slogx.OrDefault(logger),
		AuthorizeOptions: service.DefaultOptions(),
		IssueLimit:       httpx.IssueLimit,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerSDK()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerSDK() {
	create := &CreateTokenHandler{Issuer: r.Issuer, Profiles: r.profiles}
	r.Mux.Handle("POST /v1/sdk/createToken",
		httpx.Chain(create,
			httpx.RateLimit(r.IssueLimit),
		),
	)

	secured := func(h http.Handler) http.Handler {
		return httpx.Chain(h,
			httpx.AuthnMiddleware(r.Authorizer),
			httpx.AuthorizeMiddleware(r.Authorizer, r.AuthorizeOptions),
		)
	}

	r.Mux.Handle("POST /v1/sdk/revokeToken", secured(&RevokeTokenHandler{Authorizer: r.Authorizer}))
	r.Mux.Handle("GET /v1/sdk/validateToken", secured(ValidateTokenHandler()))

	if r.Info != nil {
		r.Mux.Handle("GET /v1/sdk/informations", InfoHandler(r.Info))
	}
	r.Mux.Handle("GET /.well-known/jwks.json", JWKSHandler(r.keys))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store, r.keys))
}
