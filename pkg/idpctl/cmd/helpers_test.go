// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/telekom/idpctl/pkg/idpctl/config"
)

const fullTokenJSON = `{"token_type":"Bearer","id_token":"I","access_token":"A","refresh_token":"R","expires_in":3600}`

type testEnv struct {
	t          *testing.T
	configPath string
	out        *bytes.Buffer
	errOut     *bytes.Buffer
	stdin      string
	opened     []string
	openErr    error
}

// newTestEnv isolates config, cache and IDPCTL_* variables for one test.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	for _, name := range []string{"IDPCTL_CONFIG", "IDPCTL_OUTPUT", "IDPCTL_PENDING_STORE", "IDPCTL_VERBOSE", "IDPCTL_CLIENT_ID"} {
		t.Setenv(name, "")
	}
	return &testEnv{
		t:          t,
		configPath: filepath.Join(t.TempDir(), "config.yaml"),
		out:        &bytes.Buffer{},
		errOut:     &bytes.Buffer{},
	}
}

func (e *testEnv) run(args ...string) error {
	e.t.Helper()
	e.out.Reset()
	e.errOut.Reset()
	root := NewRootCommand(Config{
		ConfigPath:   e.configPath,
		OutputWriter: e.out,
		ErrWriter:    e.errOut,
		OpenURL: func(u string) error {
			e.opened = append(e.opened, u)
			return e.openErr
		},
	})
	root.SetArgs(args)
	root.SetErr(e.errOut)
	root.SetIn(strings.NewReader(e.stdin))
	return root.Execute()
}

func (e *testEnv) writeConfig(mutate func(*config.Config)) {
	e.t.Helper()
	cfg := config.DefaultConfig()
	mutate(&cfg)
	require.NoError(e.t, config.Save(e.configPath, &cfg))
}

// authorizeURL extracts the printed authorization URL from table output.
func (e *testEnv) authorizeURL() *url.URL {
	e.t.Helper()
	for _, line := range strings.Split(e.out.String(), "\n") {
		if strings.HasPrefix(line, "https://") || strings.HasPrefix(line, "http://") {
			parsed, err := url.Parse(strings.TrimSpace(line))
			require.NoError(e.t, err)
			return parsed
		}
	}
	e.t.Fatalf("no authorization URL in output: %q", e.out.String())
	return nil
}

type tokenEndpoint struct {
	server *httptest.Server
	forms  []url.Values
	status int
	body   string
}

func newTokenEndpoint(t *testing.T, status int, body string) *tokenEndpoint {
	t.Helper()
	te := &tokenEndpoint{status: status, body: body}
	te.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err == nil {
			te.forms = append(te.forms, r.PostForm)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(te.status)
		_, _ = w.Write([]byte(te.body))
	}))
	t.Cleanup(te.server.Close)
	return te
}

func (te *tokenEndpoint) lastForm(t *testing.T) url.Values {
	t.Helper()
	require.NotEmpty(t, te.forms, "token endpoint was not called")
	return te.forms[len(te.forms)-1]
}
