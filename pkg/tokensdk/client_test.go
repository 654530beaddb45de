package tokensdk

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aussiebroadwan/tokenkit/pkg/profile"
	"github.com/stretchr/testify/require"
)

func newStubServer(t *testing.T, h http.HandlerFunc) *SDKClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewSDKClient(srv.URL + "/")
}

func TestCreateToken_SendsRequest(t *testing.T) {
	t.Parallel()

	client := newStubServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/sdk/createToken", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req CreateTokenRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "API", req.Name)
		require.Equal(t, "alice", req.UniqueID)
		require.Equal(t, []profile.KeyValue{{Key: "role", Value: "admin"}}, req.Payload)

		_ = json.NewEncoder(w).Encode(CreateTokenResponse{AccessToken: "a.b.c"})
	})

	resp, err := client.CreateToken(context.Background(), CreateTokenRequest{
		Name:     "API",
		UniqueID: "alice",
		Payload:  []profile.KeyValue{{Key: "role", Value: "admin"}},
	})
	require.NoError(t, err)
	require.Equal(t, "a.b.c", resp.AccessToken)
}

func TestValidateToken_SendsBearer(t *testing.T) {
	t.Parallel()

	client := newStubServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer a.b.c", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(ValidateTokenResponse{Status: "Valid", Profile: "API"})
	})

	resp, err := client.ValidateToken(context.Background(), "a.b.c")
	require.NoError(t, err)
	require.Equal(t, "Valid", resp.Status)
}

func TestParseErrorResponse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		code int
		body string
		want APIError
	}{
		{
			name: "refused token",
			code: http.StatusUnauthorized,
			body: `{"status":"Revoked"}`,
			want: APIError{StatusCode: 401, Code: ErrorCodeInvalidToken, Status: "Revoked"},
		},
		{
			name: "no identity",
			code: http.StatusForbidden,
			body: `{"status":"TokenRequired"}`,
			want: APIError{StatusCode: 403, Code: ErrorCodeAccessDenied, Status: "TokenRequired"},
		},
		{
			name: "error body",
			code: http.StatusTooManyRequests,
			body: `{"error":"rate_limit_exceeded","error_description":"slow down"}`,
			want: APIError{StatusCode: 429, Code: ErrorCodeRateLimited, Description: "slow down"},
		},
		{
			name: "validation",
			code: http.StatusBadRequest,
			body: `{"code":"validation_error","message":"bad","details":["a","b"]}`,
			want: APIError{StatusCode: 400, Code: ErrorCodeValidation, Description: "bad", Details: []string{"a", "b"}},
		},
		{
			name: "plain text",
			code: http.StatusBadGateway,
			body: `upstream down`,
			want: APIError{StatusCode: 502, Code: ErrorCodeServerError, Description: "HTTP 502: Bad Gateway"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := parseErrorResponse(&http.Response{StatusCode: tt.code}, []byte(tt.body))

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			require.Equal(t, tt.want, *apiErr)
		})
	}

	require.NoError(t, parseErrorResponse(&http.Response{StatusCode: http.StatusOK}, nil))
}

func TestRevokeToken_Refused(t *testing.T) {
	t.Parallel()

	client := newStubServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"status":"Expired"}`))
	})

	_, err := client.RevokeToken(context.Background(), "a.b.c")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "Expired", apiErr.Status)
	require.Equal(t, "invalid_token: Expired", apiErr.Error())
}
