// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/skratchdot/open-golang/open"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/telekom/idpctl/pkg/idpctl/auth"
	"github.com/telekom/idpctl/pkg/idpctl/config"
	"github.com/telekom/idpctl/pkg/system"
)

type Config struct {
	ConfigPath   string
	OutputWriter io.Writer
	// ErrWriter receives log output. Defaults to os.Stderr.
	ErrWriter io.Writer
	// OpenURL launches a browser for `auth --open`. Defaults to open.Run.
	OpenURL func(string) error
}

type runtimeState struct {
	configPath           string
	cfg                  *config.Config
	outputFormat         string
	pendingStoreOverride string
	verbose              bool
	writer               io.Writer
	errWriter            io.Writer
	openURL              func(string) error
	log                  *zap.SugaredLogger
}

type runtimeKey struct{}

func DefaultConfig() Config {
	return Config{
		ConfigPath:   config.DefaultConfigPath(),
		OutputWriter: os.Stdout,
		ErrWriter:    os.Stderr,
		OpenURL:      open.Run,
	}
}

func NewRootCommand(cfg Config) *cobra.Command {
	rt := &runtimeState{
		configPath: cfg.ConfigPath,
		writer:     cfg.OutputWriter,
		errWriter:  cfg.ErrWriter,
		openURL:    cfg.OpenURL,
	}

	root := &cobra.Command{
		Use:           "idpctl",
		Short:         "OAuth2 authorization code + PKCE client for the command line",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if rt.writer == nil {
				rt.writer = os.Stdout
			}
			if rt.errWriter == nil {
				rt.errWriter = os.Stderr
			}
			if rt.openURL == nil {
				rt.openURL = open.Run
			}
			if rt.configPath == "" {
				rt.configPath = config.DefaultConfigPath()
			}
			if rt.outputFormat == "" {
				rt.outputFormat = os.Getenv("IDPCTL_OUTPUT")
			}
			if rt.pendingStoreOverride == "" {
				rt.pendingStoreOverride = os.Getenv("IDPCTL_PENDING_STORE")
			}
			if !rt.verbose {
				rt.verbose = strings.EqualFold(os.Getenv("IDPCTL_VERBOSE"), "true")
			}
			rt.log = system.NewCLILogger(rt.errWriter, rt.verbose)

			if cmd.Name() == "init" && cmd.Parent() != nil && cmd.Parent().Name() == "config" {
				return nil
			}
			if cmd.Name() == "version" || cmd.Name() == "completion" {
				return nil
			}
			return rt.EnsureConfigLoaded()
		},
	}

	root.PersistentFlags().StringVar(&rt.configPath, "config", rt.configPath, "Path to config file")
	root.PersistentFlags().StringVarP(&rt.outputFormat, "output", "o", "", "Output format: table, json, yaml")
	root.PersistentFlags().StringVar(&rt.pendingStoreOverride, "pending-store", "", "Pending authorization backend: file or keychain")
	root.PersistentFlags().BoolVarP(&rt.verbose, "verbose", "v", false, "Enable debug logging")

	root.SetContext(context.WithValue(context.Background(), runtimeKey{}, rt))

	root.AddCommand(
		NewAuthCommand(),
		NewConfigCommand(),
		NewCompletionCommand(),
		NewVersionCommand(),
	)

	return root
}

func getRuntime(cmd *cobra.Command) (*runtimeState, error) {
	rt, ok := cmd.Context().Value(runtimeKey{}).(*runtimeState)
	if !ok || rt == nil {
		return nil, errors.New("runtime not initialized")
	}
	return rt, nil
}

// EnsureConfigLoaded loads the config file once. A missing file means defaults.
func (rt *runtimeState) EnsureConfigLoaded() error {
	if rt.cfg != nil {
		return nil
	}
	cfg, err := config.LoadOrDefault(rt.configPathValue())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config %s: %w", rt.configPathValue(), err)
	}
	rt.cfg = cfg
	return nil
}

func (rt *runtimeState) OutputFormat() string {
	if rt.outputFormat != "" {
		return rt.outputFormat
	}
	if rt.cfg != nil && rt.cfg.Settings.OutputFormat != "" {
		return rt.cfg.Settings.OutputFormat
	}
	return "table"
}

func (rt *runtimeState) PendingStoreBackend() string {
	if rt.pendingStoreOverride != "" {
		return rt.pendingStoreOverride
	}
	if rt.cfg != nil && rt.cfg.Settings.PendingStore != "" {
		return rt.cfg.Settings.PendingStore
	}
	return config.PendingStoreFile
}

func (rt *runtimeState) PendingStore() (auth.PendingStore, error) {
	switch backend := rt.PendingStoreBackend(); backend {
	case config.PendingStoreFile:
		return &auth.FileStore{Path: config.DefaultPendingAuthPath()}, nil
	case config.PendingStoreKeychain:
		return auth.NewKeyringStore(), nil
	default:
		return nil, fmt.Errorf("unsupported pending-store: %s", backend)
	}
}

// Provider returns the built-in endpoints with any config overrides applied.
func (rt *runtimeState) Provider() auth.Provider {
	p := auth.DefaultProvider()
	if rt.cfg == nil {
		return p
	}
	if rt.cfg.Provider.AuthorizeURL != "" {
		p.AuthorizeURL = rt.cfg.Provider.AuthorizeURL
	}
	if rt.cfg.Provider.TokenURL != "" {
		p.TokenURL = rt.cfg.Provider.TokenURL
	}
	if rt.cfg.Provider.RedirectURI != "" {
		p.RedirectURI = rt.cfg.Provider.RedirectURI
	}
	return p
}

// ResolveClientID picks the flag value, then IDPCTL_CLIENT_ID, then the config file.
func (rt *runtimeState) ResolveClientID(flagValue string) string {
	if v := strings.TrimSpace(flagValue); v != "" {
		return v
	}
	if v := strings.TrimSpace(os.Getenv("IDPCTL_CLIENT_ID")); v != "" {
		return v
	}
	if rt.cfg != nil {
		return strings.TrimSpace(rt.cfg.ClientID)
	}
	return ""
}

func (rt *runtimeState) TokenClient(p auth.Provider) (*auth.TokenClient, error) {
	return auth.NewTokenClient(
		auth.WithTokenURL(p.TokenURL),
		auth.WithLogger(rt.Logger()),
	)
}

func (rt *runtimeState) Logger() *zap.SugaredLogger {
	return system.LoggerOrNop(rt.log)
}

func (rt *runtimeState) Writer() io.Writer {
	if rt.writer != nil {
		return rt.writer
	}
	return os.Stdout
}

func (rt *runtimeState) configPathValue() string {
	if rt.configPath == "" {
		return config.DefaultConfigPath()
	}
	return rt.configPath
}
