// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/telekom/idpctl/pkg/idpctl/auth"
	"github.com/telekom/idpctl/pkg/idpctl/config"
	"github.com/telekom/idpctl/pkg/idpctl/output"
)

var configSetters = map[string]func(*config.Config, string){
	"client-id":              func(c *config.Config, v string) { c.ClientID = v },
	"settings.output-format": func(c *config.Config, v string) { c.Settings.OutputFormat = v },
	"settings.pending-store": func(c *config.Config, v string) { c.Settings.PendingStore = v },
	"provider.authorize-url": func(c *config.Config, v string) { c.Provider.AuthorizeURL = v },
	"provider.token-url":     func(c *config.Config, v string) { c.Provider.TokenURL = v },
	"provider.redirect-uri":  func(c *config.Config, v string) { c.Provider.RedirectURI = v },
}

func configKeys() []string {
	keys := make([]string, 0, len(configSetters))
	for k := range configSetters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage idpctl configuration",
	}

	cmd.AddCommand(
		newConfigInitCommand(),
		newConfigViewCommand(),
		newConfigSetValueCommand(),
		newConfigPathCommand(),
	)

	return cmd
}

func newConfigInitCommand() *cobra.Command {
	var (
		clientID     string
		authorizeURL string
		tokenURL     string
		redirectURI  string
		pendingStore string
		force        bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize an idpctl config file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			path := rt.configPathValue()
			if !force {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("config already exists: %s", path)
				}
			}
			cfg := config.DefaultConfig()
			cfg.ClientID = clientID
			cfg.Provider = config.Provider{
				AuthorizeURL: authorizeURL,
				TokenURL:     tokenURL,
				RedirectURI:  redirectURI,
			}
			if pendingStore != "" {
				cfg.Settings.PendingStore = pendingStore
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := config.Save(path, &cfg); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(rt.Writer(), "Initialized config at %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&clientID, "client-id", "", "OAuth client ID")
	cmd.Flags().StringVar(&authorizeURL, "authorize-url", "", "Authorization endpoint override")
	cmd.Flags().StringVar(&tokenURL, "token-url", "", "Token endpoint override")
	cmd.Flags().StringVar(&redirectURI, "redirect-uri", "", "Registered redirect URI override")
	cmd.Flags().StringVar(&pendingStore, "pending-store", "", "Pending authorization backend: file or keychain")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing config")

	_ = cmd.MarkFlagRequired("client-id")
	return cmd
}

func newConfigViewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "view",
		Short: "Show the current configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			if err := rt.EnsureConfigLoaded(); err != nil {
				return err
			}
			return output.WriteObject(rt.Writer(), output.FormatYAML, rt.cfg)
		},
	}
}

func newConfigSetValueCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "set KEY VALUE",
		Short:     "Set a configuration value",
		Args:      cobra.ExactArgs(2),
		ValidArgs: configKeys(),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			if err := rt.EnsureConfigLoaded(); err != nil {
				return err
			}
			key, value := args[0], args[1]
			set, ok := configSetters[key]
			if !ok {
				return fmt.Errorf("unsupported key: %s", key)
			}
			updated := *rt.cfg
			set(&updated, value)
			if err := updated.Validate(); err != nil {
				return err
			}
			if err := config.Save(rt.configPathValue(), &updated); err != nil {
				return err
			}
			rt.cfg = &updated
			return nil
		},
	}
}

func newConfigPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show the config file and pending authorization locations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			pending := config.DefaultPendingAuthPath()
			if rt.PendingStoreBackend() == config.PendingStoreKeychain {
				pending = fmt.Sprintf("keychain:%s/%s", auth.DefaultKeyringService, auth.DefaultKeyringUser)
			}
			_, _ = fmt.Fprintf(rt.Writer(), "config:  %s\npending: %s\n", rt.configPathValue(), pending)
			return nil
		},
	}
}
