// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bufio"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/telekom/idpctl/pkg/idpctl/auth"
	"github.com/telekom/idpctl/pkg/idpctl/output"
)

type authOptions struct {
	clientID     string
	redirectURL  string
	refreshToken string
	open         bool
	pause        bool
}

type authorizeView struct {
	AuthorizeURL string `json:"authorizeURL" yaml:"authorizeURL"`
	RedirectURI  string `json:"redirectURI" yaml:"redirectURI"`
	PendingStore string `json:"pendingStore" yaml:"pendingStore"`
}

func NewAuthCommand() *cobra.Command {
	opts := &authOptions{}

	cmd := &cobra.Command{
		Use:   "auth [REDIRECT_URL]",
		Short: "Authorize with the identity provider using PKCE",
		Long: `Runs one step of the authorization code flow with PKCE.

Without arguments a new authorization is started: a PKCE verifier and state are
stored as the pending authorization and the URL to open in the browser is printed.
The provider then redirects to the registered redirect URI; passing that URL back
(as argument or with --redirect-url) validates the state and exchanges the code
for tokens. With --refresh-token the refresh grant is used instead and no pending
authorization is involved.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			format, err := output.ParseFormat(rt.OutputFormat())
			if err != nil {
				return err
			}
			redirectURL := opts.redirectURL
			if redirectURL == "" && len(args) == 1 {
				redirectURL = args[0]
			}

			switch {
			case redirectURL != "":
				err := completeAuthorization(cmd, rt, format, redirectURL)
				if opts.pause {
					if err != nil {
						cmd.SilenceErrors = true
						cmd.PrintErrln("Error:", err.Error())
					}
					waitForEnter(cmd)
				}
				return err
			case opts.refreshToken != "":
				return refreshTokens(cmd, rt, format, opts)
			default:
				return initiateAuthorization(rt, format, opts)
			}
		},
	}

	cmd.Flags().StringVar(&opts.clientID, "client-id", "", "OAuth client ID (defaults to IDPCTL_CLIENT_ID or config client-id)")
	cmd.Flags().StringVar(&opts.redirectURL, "redirect-url", "", "Redirect URL received from the provider; completes a pending authorization")
	cmd.Flags().StringVar(&opts.refreshToken, "refresh-token", "", "Refresh token to exchange for new tokens")
	cmd.Flags().BoolVar(&opts.open, "open", false, "Open the authorization URL in the default browser")
	cmd.Flags().BoolVar(&opts.pause, "pause", false, "Wait for Enter after handling a redirect URL")
	return cmd
}

func initiateAuthorization(rt *runtimeState, format output.Format, opts *authOptions) error {
	store, err := rt.PendingStore()
	if err != nil {
		return err
	}
	provider := rt.Provider()
	authURL, err := auth.Initiate(provider, store, rt.ResolveClientID(opts.clientID))
	if err != nil {
		return err
	}
	rt.Logger().Debugw("Pending authorization stored", "backend", rt.PendingStoreBackend())

	if format == output.FormatTable {
		_, _ = fmt.Fprintf(rt.Writer(), "Open the following URL in your browser:\n%s\n", authURL)
	} else {
		view := authorizeView{AuthorizeURL: authURL, RedirectURI: provider.RedirectURI, PendingStore: rt.PendingStoreBackend()}
		if err := output.WriteObject(rt.Writer(), format, view); err != nil {
			return err
		}
	}
	if opts.open {
		if err := rt.openURL(authURL); err != nil {
			rt.Logger().Warnw("Failed to open browser", "error", err)
		}
	}
	return nil
}

func completeAuthorization(cmd *cobra.Command, rt *runtimeState, format output.Format, redirectURL string) error {
	store, err := rt.PendingStore()
	if err != nil {
		return err
	}
	provider := rt.Provider()
	client, err := rt.TokenClient(provider)
	if err != nil {
		return err
	}
	handler := &auth.CallbackHandler{
		Provider:  provider,
		Store:     store,
		Exchanger: client,
		Log:       rt.Logger(),
	}
	token, err := handler.Handle(cmd.Context(), redirectURL)
	if err != nil {
		return err
	}
	return output.WriteToken(rt.Writer(), format, token)
}

func refreshTokens(cmd *cobra.Command, rt *runtimeState, format output.Format, opts *authOptions) error {
	clientID := rt.ResolveClientID(opts.clientID)
	if clientID == "" {
		return auth.ErrClientIDRequired
	}
	client, err := rt.TokenClient(rt.Provider())
	if err != nil {
		return err
	}
	token, err := client.ExchangeRefreshToken(cmd.Context(), opts.refreshToken, clientID)
	if err != nil {
		return err
	}
	return output.WriteToken(rt.Writer(), format, token)
}

func waitForEnter(cmd *cobra.Command) {
	cmd.PrintErr("Press Enter to close...")
	_, _ = bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
}
