// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"golang.org/x/oauth2"
)

const (
	DefaultAuthorizeURL = "https://auth.example.com/oauth2/authorize"
	DefaultTokenURL     = "https://auth.example.com/oauth2/token"
	// DefaultRedirectURI is the custom scheme the desktop handler is registered for.
	DefaultRedirectURI = "idpctl://auth"
)

// Provider describes the endpoints of the identity provider.
type Provider struct {
	AuthorizeURL string
	TokenURL     string
	RedirectURI  string
}

func DefaultProvider() Provider {
	return Provider{
		AuthorizeURL: DefaultAuthorizeURL,
		TokenURL:     DefaultTokenURL,
		RedirectURI:  DefaultRedirectURI,
	}
}

// Endpoint returns the provider endpoints in x/oauth2 form.
func (p Provider) Endpoint() oauth2.Endpoint {
	return oauth2.Endpoint{
		AuthURL:   p.AuthorizeURL,
		TokenURL:  p.TokenURL,
		AuthStyle: oauth2.AuthStyleInParams,
	}
}

// BuildAuthorizeURL composes the URL the user opens in the browser to start the flow.
func BuildAuthorizeURL(p Provider, clientID, state, codeChallenge string) string {
	cfg := oauth2.Config{
		ClientID:    clientID,
		Endpoint:    p.Endpoint(),
		RedirectURL: p.RedirectURI,
	}
	return cfg.AuthCodeURL(state,
		oauth2.SetAuthURLParam("code_challenge", codeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)
}
