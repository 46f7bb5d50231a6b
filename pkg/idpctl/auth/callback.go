// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/telekom/idpctl/pkg/system"
)

// CodeExchanger redeems an authorization code. TokenClient implements it.
type CodeExchanger interface {
	ExchangeCode(ctx context.Context, code, codeVerifier, clientID, redirectURI string) (*TokenResponse, error)
}

// CallbackHandler completes a flow started by an earlier invocation.
type CallbackHandler struct {
	Provider  Provider
	Store     PendingStore
	Exchanger CodeExchanger
	Log       *zap.SugaredLogger
}

// Handle validates redirectURL against the pending record and exchanges the
// code. The pending record is consumed even when validation fails.
func (h *CallbackHandler) Handle(ctx context.Context, redirectURL string) (*TokenResponse, error) {
	if h.Store == nil || h.Exchanger == nil {
		return nil, errors.New("callback handler is not configured")
	}
	log := system.LoggerOrNop(h.Log)

	expected := h.Provider.RedirectURI
	if expected == "" {
		expected = DefaultRedirectURI
	}
	if !strings.HasPrefix(redirectURL, expected) {
		return nil, &InvalidRedirectError{URL: redirectURL, Expected: expected}
	}
	parsed, err := url.Parse(redirectURL)
	if err != nil {
		return nil, &InvalidRedirectError{URL: redirectURL, Expected: expected}
	}
	query := parsed.Query()
	if code := query.Get("error"); code != "" {
		return nil, &AuthorizationDeniedError{Code: code, Description: query.Get("error_description")}
	}
	receivedState := query.Get("state")
	if receivedState == "" {
		return nil, &MissingParameterError{Param: "state"}
	}
	code := query.Get("code")
	if code == "" {
		return nil, &MissingParameterError{Param: "code"}
	}

	pending, err := h.Store.ReadAndDelete()
	if err != nil {
		return nil, err
	}
	if receivedState != pending.State {
		log.Warnw("Discarding pending authorization after state mismatch",
			"expected", pending.State, "received", receivedState)
		return nil, &StateMismatchError{Expected: pending.State, Received: receivedState}
	}

	log.Debugw("State verified, exchanging authorization code", "clientID", pending.ClientID)
	return h.Exchanger.ExchangeCode(ctx, code, pending.CodeVerifier, pending.ClientID, expected)
}
