// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const fullTokenJSON = `{"token_type":"Bearer","id_token":"I","access_token":"A","refresh_token":"R","expires_in":3600}`

type recordedRequest struct {
	method  string
	header  http.Header
	form    url.Values
	invoked int
}

func newTokenServer(t *testing.T, status int, body string) (*httptest.Server, *recordedRequest) {
	t.Helper()
	rec := &recordedRequest{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.invoked++
		rec.method = r.Method
		rec.header = r.Header.Clone()
		if err := r.ParseForm(); err == nil {
			rec.form = r.PostForm
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, rec
}

func newTestTokenClient(t *testing.T, tokenURL string, opts ...Option) *TokenClient {
	t.Helper()
	client, err := NewTokenClient(append([]Option{WithTokenURL(tokenURL)}, opts...)...)
	require.NoError(t, err)
	return client
}

func TestExchangeCode(t *testing.T) {
	server, rec := newTokenServer(t, http.StatusOK, fullTokenJSON)
	client := newTestTokenClient(t, server.URL+"/oauth2/token", WithUserAgent("idpctl-test"))

	token, err := client.ExchangeCode(context.Background(), "CODE1", "verifier-1", "client-1", DefaultRedirectURI)
	require.NoError(t, err)
	assert.Equal(t, &TokenResponse{
		TokenType:    "Bearer",
		IDToken:      "I",
		AccessToken:  "A",
		RefreshToken: "R",
		ExpiresIn:    3600,
	}, token)

	assert.Equal(t, http.MethodPost, rec.method)
	assert.Equal(t, "application/x-www-form-urlencoded", rec.header.Get("Content-Type"))
	assert.Equal(t, "application/json", rec.header.Get("Accept"))
	assert.Equal(t, "idpctl-test", rec.header.Get("User-Agent"))
	_, err = uuid.Parse(rec.header.Get("X-Request-ID"))
	assert.NoError(t, err)

	assert.Equal(t, url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {"CODE1"},
		"redirect_uri":  {DefaultRedirectURI},
		"code_verifier": {"verifier-1"},
		"client_id":     {"client-1"},
	}, rec.form)
}

func TestExchangeRefreshToken(t *testing.T) {
	t.Run("sends refresh grant", func(t *testing.T) {
		server, rec := newTokenServer(t, http.StatusOK, fullTokenJSON)
		client := newTestTokenClient(t, server.URL)

		token, err := client.ExchangeRefreshToken(context.Background(), "R0", "client-1")
		require.NoError(t, err)
		assert.Equal(t, "R", token.RefreshToken)
		assert.Equal(t, url.Values{
			"grant_type":    {"refresh_token"},
			"refresh_token": {"R0"},
			"client_id":     {"client-1"},
		}, rec.form)
	})

	t.Run("refresh token is optional in response", func(t *testing.T) {
		server, _ := newTokenServer(t, http.StatusOK, `{"token_type":"Bearer","id_token":"I","access_token":"A","expires_in":60}`)
		client := newTestTokenClient(t, server.URL)

		token, err := client.ExchangeRefreshToken(context.Background(), "R0", "client-1")
		require.NoError(t, err)
		assert.Empty(t, token.RefreshToken)
		assert.Equal(t, "A", token.AccessToken)
		assert.Equal(t, 60, token.ExpiresIn)
	})
}

func TestTokenRequestHTTPError(t *testing.T) {
	body := `{"error":"invalid_grant","error_description":"code expired"}`

	t.Run("authorization code", func(t *testing.T) {
		server, rec := newTokenServer(t, http.StatusBadRequest, body)
		client := newTestTokenClient(t, server.URL)

		token, err := client.ExchangeCode(context.Background(), "CODE1", "v", "c", DefaultRedirectURI)
		require.Nil(t, token)
		var httpErr *HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusBadRequest, httpErr.StatusCode)
		assert.Equal(t, "invalid_grant", httpErr.Code)
		assert.Equal(t, "code expired", httpErr.Description)
		assert.Equal(t, "token request failed (400): invalid_grant: code expired", httpErr.Error())
		assert.Equal(t, 1, rec.invoked, "must not retry")

		var decodeErr *DecodeError
		assert.False(t, errors.As(err, &decodeErr))
	})

	t.Run("refresh token", func(t *testing.T) {
		server, _ := newTokenServer(t, http.StatusBadRequest, body)
		client := newTestTokenClient(t, server.URL)

		_, err := client.ExchangeRefreshToken(context.Background(), "R0", "c")
		var httpErr *HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusBadRequest, httpErr.StatusCode)
	})

	t.Run("non JSON error body", func(t *testing.T) {
		server, _ := newTokenServer(t, http.StatusBadGateway, "upstream down")
		client := newTestTokenClient(t, server.URL)

		_, err := client.ExchangeRefreshToken(context.Background(), "R0", "c")
		var httpErr *HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, "token request failed (502): upstream down", httpErr.Error())
	})

	t.Run("valid token JSON is not decoded on error status", func(t *testing.T) {
		server, _ := newTokenServer(t, http.StatusUnauthorized, fullTokenJSON)
		client := newTestTokenClient(t, server.URL)

		token, err := client.ExchangeCode(context.Background(), "CODE1", "v", "c", DefaultRedirectURI)
		assert.Nil(t, token)
		var httpErr *HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusUnauthorized, httpErr.StatusCode)
	})
}

func TestTokenRequestDecodeError(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		reason string
	}{
		{name: "malformed JSON", body: `{"token_type":`, reason: "malformed JSON"},
		{name: "missing access token", body: `{"token_type":"Bearer","id_token":"I","expires_in":1}`, reason: "missing access_token"},
		{name: "missing id token", body: `{"token_type":"Bearer","access_token":"A","expires_in":1}`, reason: "missing id_token"},
		{name: "missing expires_in", body: `{"token_type":"Bearer","id_token":"I","access_token":"A"}`, reason: "missing expires_in"},
		{name: "missing token_type", body: `{"id_token":"I","access_token":"A","expires_in":1}`, reason: "missing token_type"},
		{name: "empty object", body: `{}`, reason: "missing token_type, expires_in, id_token, access_token"},
		{name: "expires_in not a number", body: `{"token_type":"Bearer","id_token":"I","access_token":"A","expires_in":"soon"}`, reason: "malformed JSON"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := newTokenServer(t, http.StatusOK, tt.body)
			client := newTestTokenClient(t, server.URL)

			_, err := client.ExchangeCode(context.Background(), "CODE1", "v", "c", DefaultRedirectURI)
			var decodeErr *DecodeError
			require.ErrorAs(t, err, &decodeErr)
			assert.Equal(t, tt.reason, decodeErr.Reason)
		})
	}
}

func TestTokenRequestTransportErrorIsReturnedAsIs(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	tokenURL := server.URL
	server.Close()

	client := newTestTokenClient(t, tokenURL)
	_, err := client.ExchangeRefreshToken(context.Background(), "R0", "c")
	require.Error(t, err)

	var urlErr *url.Error
	require.ErrorAs(t, err, &urlErr)
	assert.Same(t, urlErr, err)

	var httpErr *HTTPError
	assert.False(t, errors.As(err, &httpErr))
}

func TestTokenTypeMismatchIsWarningOnly(t *testing.T) {
	server, _ := newTokenServer(t, http.StatusOK, `{"token_type":"mac","id_token":"I","access_token":"A","expires_in":10}`)
	core, recorded := observer.New(zap.DebugLevel)
	client := newTestTokenClient(t, server.URL, WithLogger(zap.New(core).Sugar()))

	token, err := client.ExchangeRefreshToken(context.Background(), "R0", "c")
	require.NoError(t, err)
	assert.Equal(t, "mac", token.TokenType)

	warnings := recorded.FilterMessage("Unexpected token type").All()
	require.Len(t, warnings, 1)
	assert.Equal(t, zap.WarnLevel, warnings[0].Level)
	assert.Equal(t, "mac", warnings[0].ContextMap()["tokenType"])
}

func TestNewTokenClientOptions(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		client, err := NewTokenClient()
		require.NoError(t, err)
		assert.Equal(t, DefaultTokenURL, client.tokenURL)
		assert.Zero(t, client.http.Timeout)
		assert.Contains(t, client.userAgent, "idpctl/")
	})

	t.Run("rejects relative token URL", func(t *testing.T) {
		_, err := NewTokenClient(WithTokenURL("/oauth2/token"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid token URL")
	})

	t.Run("rejects nil http client", func(t *testing.T) {
		_, err := NewTokenClient(WithHTTPClient(nil))
		require.Error(t, err)
	})
}

func TestTokenResponseExpiry(t *testing.T) {
	tests := []struct {
		expiresIn int
		want      Expiry
		text      string
	}{
		{expiresIn: 3600, want: Expiry{Hours: 1}, text: "1h 0m 0s"},
		{expiresIn: 3725, want: Expiry{Hours: 1, Minutes: 2, Seconds: 5}, text: "1h 2m 5s"},
		{expiresIn: 59, want: Expiry{Seconds: 59}, text: "0h 0m 59s"},
		{expiresIn: 0, want: Expiry{}, text: "0h 0m 0s"},
		{expiresIn: -5, want: Expiry{}, text: "0h 0m 0s"},
	}
	for _, tt := range tests {
		token := &TokenResponse{ExpiresIn: tt.expiresIn}
		assert.Equal(t, tt.want, token.Expiry(), "expires_in=%d", tt.expiresIn)
		assert.Equal(t, tt.text, token.Expiry().String())
	}
}
