// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/telekom/idpctl/pkg/idpctl/auth"
)

// TokenView is what the CLI shows after a successful exchange or refresh.
type TokenView struct {
	TokenType    string      `json:"tokenType" yaml:"tokenType"`
	Identity     string      `json:"identity,omitempty" yaml:"identity,omitempty"`
	ExpiresIn    int         `json:"expiresIn" yaml:"expiresIn"`
	Expiry       auth.Expiry `json:"expiry" yaml:"expiry"`
	AccessToken  string      `json:"accessToken" yaml:"accessToken"`
	IDToken      string      `json:"idToken" yaml:"idToken"`
	RefreshToken string      `json:"refreshToken,omitempty" yaml:"refreshToken,omitempty"`
}

func NewTokenView(token *auth.TokenResponse) TokenView {
	return TokenView{
		TokenType:    token.TokenType,
		Identity:     auth.IdentityFromIDToken(token.IDToken),
		ExpiresIn:    token.ExpiresIn,
		Expiry:       token.Expiry(),
		AccessToken:  token.AccessToken,
		IDToken:      token.IDToken,
		RefreshToken: token.RefreshToken,
	}
}

// WriteToken renders token in the requested format.
func WriteToken(w io.Writer, format Format, token *auth.TokenResponse) error {
	view := NewTokenView(token)
	if format == FormatTable {
		WriteTokenTable(w, view)
		return nil
	}
	return WriteObject(w, format, view)
}

func WriteTokenTable(w io.Writer, view TokenView) {
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "FIELD\tVALUE")
	_, _ = fmt.Fprintf(tw, "TOKEN_TYPE\t%s\n", view.TokenType)
	if view.Identity != "" {
		_, _ = fmt.Fprintf(tw, "IDENTITY\t%s\n", view.Identity)
	}
	_, _ = fmt.Fprintf(tw, "EXPIRES_IN\t%s (%ds)\n", view.Expiry, view.ExpiresIn)
	_, _ = fmt.Fprintf(tw, "ACCESS_TOKEN\t%s\n", view.AccessToken)
	_, _ = fmt.Fprintf(tw, "ID_TOKEN\t%s\n", view.IDToken)
	_, _ = fmt.Fprintf(tw, "REFRESH_TOKEN\t%s\n", dashIfEmpty(view.RefreshToken))
	_ = tw.Flush()
}

func dashIfEmpty(value string) string {
	if value == "" {
		return "-"
	}
	return value
}
