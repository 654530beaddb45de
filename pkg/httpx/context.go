package httpx

import (
	"context"

	"github.com/aussiebroadwan/tokenkit/pkg/jwtx"
	"github.com/aussiebroadwan/tokenkit/pkg/service"
)

type ctxKey string

const (
	CtxKeyIdentity ctxKey = "identity"
	CtxKeyClaims   ctxKey = "claims"
)

// WithIdentity stores the authenticated identity in ctx.
func WithIdentity(ctx context.Context, id *service.Identity) context.Context {
	return context.WithValue(ctx, CtxKeyIdentity, id)
}

// IdentityFromContext returns the identity attached by AuthnMiddleware.
func IdentityFromContext(ctx context.Context) *service.Identity {
	id, _ := ctx.Value(CtxKeyIdentity).(*service.Identity)
	return id
}

// ClaimsFromContext returns the claims of an authorized request.
func ClaimsFromContext(ctx context.Context) (*jwtx.Claims, bool) {
	c, ok := ctx.Value(CtxKeyClaims).(*jwtx.Claims)
	return c, ok && c != nil
}

func withClaims(ctx context.Context, c *jwtx.Claims) context.Context {
	return context.WithValue(ctx, CtxKeyClaims, c)
}
