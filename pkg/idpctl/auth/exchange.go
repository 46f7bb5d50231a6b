// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/telekom/idpctl/pkg/system"
	"github.com/telekom/idpctl/pkg/version"
)

const requestIDHeader = "X-Request-ID"

// TokenResponse is the decoded answer of the token endpoint. It is displayed and
// then dropped; nothing persists it.
type TokenResponse struct {
	TokenType    string `json:"token_type" yaml:"token_type"`
	IDToken      string `json:"id_token" yaml:"id_token"`
	AccessToken  string `json:"access_token" yaml:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty" yaml:"refresh_token,omitempty"`
	ExpiresIn    int    `json:"expires_in" yaml:"expires_in"`
}

// Expiry splits a lifetime in seconds into hours, minutes and seconds.
type Expiry struct {
	Hours   int `json:"hours" yaml:"hours"`
	Minutes int `json:"minutes" yaml:"minutes"`
	Seconds int `json:"seconds" yaml:"seconds"`
}

func (e Expiry) String() string {
	return fmt.Sprintf("%dh %dm %ds", e.Hours, e.Minutes, e.Seconds)
}

// Expiry is informational; nothing tracks the token lifetime.
func (t *TokenResponse) Expiry() Expiry {
	secs := t.ExpiresIn
	if secs < 0 {
		secs = 0
	}
	return Expiry{Hours: secs / 3600, Minutes: secs % 3600 / 60, Seconds: secs % 60}
}

type rawTokenResponse struct {
	TokenType    *string `json:"token_type"`
	IDToken      *string `json:"id_token"`
	AccessToken  *string `json:"access_token"`
	RefreshToken *string `json:"refresh_token"`
	ExpiresIn    *int    `json:"expires_in"`
}

// TokenClient talks to the token endpoint. Each call is a single POST; nothing
// is retried.
type TokenClient struct {
	tokenURL  string
	http      *http.Client
	userAgent string
	log       *zap.SugaredLogger
}

type Option func(*TokenClient) error

func NewTokenClient(opts ...Option) (*TokenClient, error) {
	c := &TokenClient{
		tokenURL:  DefaultTokenURL,
		http:      &http.Client{},
		userAgent: version.UserAgent(),
		log:       system.LoggerOrNop(nil),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func WithTokenURL(tokenURL string) Option {
	return func(c *TokenClient) error {
		parsed, err := url.Parse(tokenURL)
		if err != nil {
			return fmt.Errorf("invalid token URL: %w", err)
		}
		if !parsed.IsAbs() || parsed.Host == "" {
			return fmt.Errorf("invalid token URL: %s", tokenURL)
		}
		c.tokenURL = tokenURL
		return nil
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(c *TokenClient) error {
		if client == nil {
			return errors.New("http client is nil")
		}
		c.http = client
		return nil
	}
}

func WithUserAgent(userAgent string) Option {
	return func(c *TokenClient) error {
		c.userAgent = userAgent
		return nil
	}
}

func WithLogger(log *zap.SugaredLogger) Option {
	return func(c *TokenClient) error {
		c.log = system.LoggerOrNop(log)
		return nil
	}
}

// ExchangeCode redeems an authorization code together with its PKCE verifier.
func (c *TokenClient) ExchangeCode(ctx context.Context, code, codeVerifier, clientID, redirectURI string) (*TokenResponse, error) {
	values := url.Values{}
	values.Set("grant_type", "authorization_code")
	values.Set("code", code)
	values.Set("redirect_uri", redirectURI)
	values.Set("code_verifier", codeVerifier)
	values.Set("client_id", clientID)
	return c.requestToken(ctx, values, true)
}

// ExchangeRefreshToken trades a refresh token for new tokens. The provider may
// or may not rotate the refresh token, so its absence is not an error.
func (c *TokenClient) ExchangeRefreshToken(ctx context.Context, refreshToken, clientID string) (*TokenResponse, error) {
	values := url.Values{}
	values.Set("grant_type", "refresh_token")
	values.Set("refresh_token", refreshToken)
	values.Set("client_id", clientID)
	return c.requestToken(ctx, values, false)
}

func (c *TokenClient) requestToken(ctx context.Context, values url.Values, expectRefresh bool) (*TokenResponse, error) {
	requestID := uuid.NewString()
	grantType := values.Get("grant_type")
	log := c.log.With("grantType", grantType, "requestID", requestID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(values.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, requestID)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	log.Debugw("Requesting token", "tokenURL", c.tokenURL)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		httpErr := decodeHTTPError(resp.StatusCode, body)
		log.Debugw("Token request rejected", "status", resp.StatusCode, "error", httpErr.Code)
		return nil, httpErr
	}

	token, err := decodeTokenResponse(body)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(token.TokenType, "Bearer") {
		log.Warnw("Unexpected token type", "tokenType", token.TokenType)
	}
	if expectRefresh && token.RefreshToken == "" {
		log.Debug("Token response carries no refresh token")
	}
	log.Debugw("Token issued", "expiresIn", token.ExpiresIn)
	return token, nil
}

func decodeHTTPError(status int, body []byte) *HTTPError {
	var oauthErr struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if len(body) > 0 {
		_ = json.Unmarshal(body, &oauthErr)
	}
	return &HTTPError{
		StatusCode:  status,
		Code:        strings.TrimSpace(oauthErr.Error),
		Description: strings.TrimSpace(oauthErr.ErrorDescription),
		Body:        string(body),
	}
}

func decodeTokenResponse(body []byte) (*TokenResponse, error) {
	var raw rawTokenResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &DecodeError{Reason: "malformed JSON", Err: err}
	}
	var missing []string
	if raw.TokenType == nil || *raw.TokenType == "" {
		missing = append(missing, "token_type")
	}
	if raw.ExpiresIn == nil {
		missing = append(missing, "expires_in")
	}
	if raw.IDToken == nil || *raw.IDToken == "" {
		missing = append(missing, "id_token")
	}
	if raw.AccessToken == nil || *raw.AccessToken == "" {
		missing = append(missing, "access_token")
	}
	if len(missing) > 0 {
		return nil, &DecodeError{Reason: "missing " + strings.Join(missing, ", ")}
	}
	token := &TokenResponse{
		TokenType:   *raw.TokenType,
		IDToken:     *raw.IDToken,
		AccessToken: *raw.AccessToken,
		ExpiresIn:   *raw.ExpiresIn,
	}
	if raw.RefreshToken != nil {
		token.RefreshToken = *raw.RefreshToken
	}
	return token, nil
}
