/*
Package tokensdk is a client for the tokenkit HTTP endpoints and holds the
request and response types shared with the server.

# Overview

Create an SDKClient against a running server:

	client := tokensdk.NewSDKClient("https://tokens.example.com")

Issue a token for a profile. Profile names are case-insensitive:

	resp, err := client.CreateToken(ctx, tokensdk.CreateTokenRequest{
		Name:     "API",
		UniqueID: "alice",
		Payload:  []profile.KeyValue{{Key: "role", Value: "admin"}},
	})

Check or revoke a token. A refused token comes back as an *APIError whose
Status holds the authorization outcome:

	info, err := client.ValidateToken(ctx, resp.AccessToken)

	var apiErr *tokensdk.APIError
	if errors.As(err, &apiErr) && apiErr.Status == "Revoked" {
		// ...
	}

	revoked, err := client.RevokeToken(ctx, resp.AccessToken)

# Discovery

GetJWKS returns the public keys of certificate profiles, GetInfo lists the
registered profiles, and GetLiveness and GetReadiness report service health.
*/
package tokensdk
