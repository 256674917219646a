package main

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rhuss/coursehub/pkg/auth"
	"github.com/rhuss/coursehub/pkg/config"
	"github.com/rhuss/coursehub/pkg/storage/memory"
	transporthttp "github.com/rhuss/coursehub/pkg/transport/http"
)

func TestRootCommand_HasExpectedSubcommands(t *testing.T) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())

	for _, sub := range []string{"serve", "migrate"} {
		assert.Contains(t, buf.String(), sub, "Help missing %q command", sub)
	}
}

func TestRootCommand_ConfigFlag(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantFlag string
	}{
		{
			name:     "separate value",
			args:     []string{"--config", "/path/to/config.yaml", "--help"},
			wantFlag: "/path/to/config.yaml",
		},
		{
			name:     "with equals",
			args:     []string{"--config=/etc/coursehub/config.yaml", "--help"},
			wantFlag: "/etc/coursehub/config.yaml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configFile = ""

			cmd := NewRootCmd()
			cmd.SetOut(new(bytes.Buffer))
			cmd.SetArgs(tt.args)

			require.NoError(t, cmd.Execute())
			assert.Equal(t, tt.wantFlag, configFile)
		})
	}
}

func TestRootCommand_VersionFlag(t *testing.T) {
	cmd := NewRootCmd()
	cmd.Version = "test-version"
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--version"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "test-version")
}

func TestMigrate_RequiresPostgres(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  type: memory\n"), 0o600))

	cmd := NewRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"migrate", "--config", path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres")
}

func TestServe_InvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("auth:\n  bcrypt_cost: 2\n"), 0o600))

	cmd := NewRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"serve", "--config", path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth.bcrypt_cost")
}

func TestNewStore_Memory(t *testing.T) {
	cfg := config.Defaults()

	store, err := newStore(context.Background(), &cfg)
	require.NoError(t, err)
	defer store.Close()

	_, ok := store.(*memory.Store)
	assert.True(t, ok, "expected *memory.Store, got %T", store)
}

func TestNewDeps(t *testing.T) {
	tests := []struct {
		name           string
		modify         func(*config.Config)
		wantAuthn      int
		wantLimiter    bool
		wantErrContain string
	}{
		{
			name:      "basic only",
			modify:    func(*config.Config) {},
			wantAuthn: 1,
		},
		{
			name: "basic and jwt",
			modify: func(c *config.Config) {
				c.Auth.JWT.JWKSURL = "https://issuer.example.com/jwks"
			},
			wantAuthn: 2,
		},
		{
			name: "rate limited",
			modify: func(c *config.Config) {
				c.Auth.RateLimit.RequestsPerMinute = 60
			},
			wantAuthn:   1,
			wantLimiter: true,
		},
		{
			name: "invalid bcrypt cost",
			modify: func(c *config.Config) {
				c.Auth.BcryptCost = 99
			},
			wantErrContain: "creating password hasher",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Defaults()
			cfg.Auth.BcryptCost = 4
			tt.modify(&cfg)

			deps, err := newDeps(&cfg, memory.New(), slog.Default())
			if tt.wantErrContain != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrContain)
				return
			}
			require.NoError(t, err)

			chain, ok := deps.Authenticator.(*auth.AuthChain)
			require.True(t, ok, "expected *auth.AuthChain, got %T", deps.Authenticator)
			assert.Len(t, chain.Authenticators, tt.wantAuthn)
			assert.Equal(t, tt.wantLimiter, deps.Limiter != nil)
			assert.NotNil(t, deps.Hasher)
			assert.NotNil(t, deps.Sink)
		})
	}
}

func TestServerOptions_Metrics(t *testing.T) {
	for _, enabled := range []bool{true, false} {
		cfg := config.Defaults()
		cfg.Auth.BcryptCost = 4
		cfg.Observability.Metrics.Enabled = enabled

		deps, err := newDeps(&cfg, memory.New(), slog.Default())
		require.NoError(t, err)
		srv := transporthttp.NewServer(deps, serverOptions(&cfg)...)

		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		want := http.StatusNotFound
		if enabled {
			want = http.StatusOK
		}
		assert.Equal(t, want, rec.Code, "metrics enabled=%v", enabled)
	}
}
