package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aussiebroadwan/tokenkit/pkg/httpx"
	"github.com/aussiebroadwan/tokenkit/pkg/profile"
	"github.com/aussiebroadwan/tokenkit/pkg/service"
	"github.com/aussiebroadwan/tokenkit/pkg/slogx"
	"github.com/aussiebroadwan/tokenkit/pkg/tokensdk"
)

// CreateTokenHandler issues a token for a registered profile.
type CreateTokenHandler struct {
	Issuer   *service.Issuer
	Profiles *profile.Registry
}

// ServeHTTP handles POST /v1/sdk/createToken.
func (h *CreateTokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req tokensdk.CreateTokenRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		tokensdk.ErrInvalidRequest.WriteError(w)
		return
	}

	if details := validateCreate(h.Profiles, req); len(details) > 0 {
		tokensdk.WriteValidationError(w, details)
		return
	}

	token, err := h.Issuer.Issue(ctx, req.Name, req.UniqueID, profile.PayloadMap(req.Payload))
	switch {
	case err == nil:
		httpx.WriteJSON(w, http.StatusOK, tokensdk.CreateTokenResponse{AccessToken: token})
	case errors.Is(err, service.ErrCannotIssue):
		tokensdk.WriteValidationError(w, []string{err.Error()})
	default:
		log.Error("create token failed", "error", err, "profile", req.Name)
		tokensdk.ErrServerError.WriteError(w)
	}
}

func validateCreate(profiles *profile.Registry, req tokensdk.CreateTokenRequest) []string {
	var details []string
	if err := profiles.ValidateName(req.Name); err != nil {
		details = append(details, err.Error())
	}
	if err := profile.ValidateIdentity(req.UniqueID); err != nil {
		details = append(details, err.Error())
	}
	if err := profile.ValidatePayload(req.Payload); err != nil {
		details = append(details, err.Error())
	}
	return details
}

// RevokeTokenHandler revokes the bearer token of an authorized request.
type RevokeTokenHandler struct {
	Authorizer *service.Authorizer
}

// ServeHTTP handles POST /v1/sdk/revokeToken.
func (h *RevokeTokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id := httpx.IdentityFromContext(ctx)
	claims, ok := httpx.ClaimsFromContext(ctx)
	if id == nil || !ok {
		tokensdk.ErrInvalidRequest.WriteError(w)
		return
	}

	revoked, err := h.Authorizer.Revoke(ctx, id.Token, claims)
	if err != nil {
		slogx.FromContext(ctx).Error("revoke token failed", "error", err)
		tokensdk.ErrServerError.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, tokensdk.RevokeTokenResponse{Revoked: revoked})
}

// ValidateTokenHandler answers GET /v1/sdk/validateToken once the
// authorization middleware has let the request through.
func ValidateTokenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := httpx.ClaimsFromContext(r.Context())
		if !ok {
			tokensdk.ErrInvalidRequest.WriteError(w)
			return
		}

		httpx.WriteJSON(w, http.StatusOK, tokensdk.ValidateTokenResponse{
			Status:  string(service.StatusValid),
			Profile: claims.TokenName,
			Claims:  claims.Map(),
		})
	}
}
