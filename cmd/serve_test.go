package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/workspace-mcp/internal/config"
	"github.com/teemow/workspace-mcp/internal/permissions"
)

func TestResolveConfig(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		env         map[string]string
		file        string
		check       func(t *testing.T, cfg config.Config)
		errContains string
	}{
		{
			name: "defaults",
			check: func(t *testing.T, cfg config.Config) {
				assert.Equal(t, config.Default(), cfg)
			},
		},
		{
			name: "env permissions apply without flag",
			env:  map[string]string{envPermissions: "gmail:readonly, drive:readonly"},
			check: func(t *testing.T, cfg config.Config) {
				assert.Equal(t, []string{"gmail:readonly", "drive:readonly"}, []string(cfg.Permissions))
			},
		},
		{
			name: "flag overrides env",
			args: []string{"--permissions", "gmail:send"},
			env:  map[string]string{envPermissions: "gmail:readonly"},
			check: func(t *testing.T, cfg config.Config) {
				assert.Equal(t, []string{"gmail:send"}, []string(cfg.Permissions))
			},
		},
		{
			name: "env overrides file",
			file: "permissions: [\"gmail:readonly\"]\nmetrics:\n  addr: \":7000\"\n",
			env:  map[string]string{envMetricsAddr: ":7100"},
			check: func(t *testing.T, cfg config.Config) {
				assert.Equal(t, []string{"gmail:readonly"}, []string(cfg.Permissions))
				assert.Equal(t, ":7100", cfg.Metrics.Addr)
			},
		},
		{
			name: "flags override file",
			file: "transport: streamable-http\nlog:\n  format: json\n",
			args: []string{"--transport", "stdio", "--debug"},
			check: func(t *testing.T, cfg config.Config) {
				assert.Equal(t, config.TransportStdio, cfg.Transport)
				assert.Equal(t, config.LogFormatJSON, cfg.Log.Format)
				assert.True(t, cfg.Log.Debug)
			},
		},
		{
			name: "google credentials from env",
			env: map[string]string{
				envGoogleClientID:     "client-id",
				envGoogleClientSecret: "client-secret",
			},
			check: func(t *testing.T, cfg config.Config) {
				assert.Equal(t, "client-id", cfg.Google.ClientID)
				assert.Equal(t, "client-secret", cfg.Google.ClientSecret)
			},
		},
		{
			name: "metrics disabled from env",
			env:  map[string]string{envMetricsEnabled: "false"},
			check: func(t *testing.T, cfg config.Config) {
				assert.False(t, cfg.Metrics.Enabled)
			},
		},
		{
			name:        "invalid metrics env",
			env:         map[string]string{envMetricsEnabled: "maybe"},
			errContains: envMetricsEnabled,
		},
		{
			name:        "unknown permission level",
			args:        []string{"--permissions", "gmail:superuser"},
			errContains: "superuser",
		},
		{
			name:        "unsupported transport",
			args:        []string{"--transport", "sse"},
			errContains: "unsupported transport",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range []string{envPermissions, envConfigFile, envGoogleClientID, envGoogleClientSecret, envMetricsEnabled, envMetricsAddr} {
				t.Setenv(key, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			args := tt.args
			if tt.file != "" {
				path := filepath.Join(t.TempDir(), "config.yaml")
				require.NoError(t, os.WriteFile(path, []byte(tt.file), 0o600))
				args = append([]string{"--config", path}, args...)
			}

			cmd := newServeCmd()
			require.NoError(t, cmd.ParseFlags(args))

			var flags serveFlags
			flags.configFile, _ = cmd.Flags().GetString("config")
			flags.permissions, _ = cmd.Flags().GetStringSlice("permissions")
			flags.transport, _ = cmd.Flags().GetString("transport")
			flags.httpAddr, _ = cmd.Flags().GetString("http-addr")
			flags.debug, _ = cmd.Flags().GetBool("debug")
			flags.logFormat, _ = cmd.Flags().GetString("log-format")
			flags.googleClientID, _ = cmd.Flags().GetString("google-client-id")
			flags.googleClientSecret, _ = cmd.Flags().GetString("google-client-secret")
			flags.metricsEnabled, _ = cmd.Flags().GetBool("metrics-enabled")
			flags.metricsAddr, _ = cmd.Flags().GetString("metrics-addr")

			got, resolveErr := resolveConfig(cmd, flags)
			if tt.errContains != "" {
				require.Error(t, resolveErr)
				assert.Contains(t, resolveErr.Error(), tt.errContains)
				return
			}
			require.NoError(t, resolveErr)
			tt.check(t, got)
		})
	}
}

func TestBuildToolsMarkdown(t *testing.T) {
	markdown, err := buildToolsMarkdown(context.Background())
	require.NoError(t, err)

	assert.Contains(t, markdown, "## Gmail Tools")
	assert.Contains(t, markdown, "## Google Auth Tools")
	assert.Contains(t, markdown, "### gmail_send_message")
	assert.Contains(t, markdown, "### google_get_auth_url")
	assert.Contains(t, markdown, "**Required scope:** `"+permissions.GmailSend+"`")
	assert.NotContains(t, markdown, "## Other")
}

func TestGetCategoryFromToolName(t *testing.T) {
	assert.Equal(t, "Gmail Tools", getCategoryFromToolName("gmail_list_threads"))
	assert.Equal(t, "Google Auth Tools", getCategoryFromToolName("google_save_auth_code"))
	assert.Equal(t, "Other", getCategoryFromToolName("unknown"))
}

func TestPermissionsCommand(t *testing.T) {
	t.Run("ladders", func(t *testing.T) {
		var out bytes.Buffer
		cmd := newPermissionsCmd()
		cmd.SetOut(&out)
		cmd.SetArgs(nil)
		require.NoError(t, cmd.Execute())

		text := out.String()
		assert.Contains(t, text, permissions.GmailCompose)

		// Ladders are printed lowest level first.
		idx := strings.Index(text, "gmail:\n")
		require.GreaterOrEqual(t, idx, 0)
		gmailSection := text[idx:]
		assert.Less(t, strings.Index(gmailSection, "  readonly"), strings.Index(gmailSection, "  organize"))
	})

	t.Run("resolved", func(t *testing.T) {
		var out bytes.Buffer
		cmd := newPermissionsCmd()
		cmd.SetOut(&out)
		cmd.SetArgs([]string{"--permissions", "gmail:drafts"})
		require.NoError(t, cmd.Execute())

		text := out.String()
		assert.Contains(t, text, "Permissions: gmail:drafts")
		assert.Contains(t, text, "Granted scopes (4):")
		assert.Contains(t, text, permissions.GmailCompose)
		assert.NotContains(t, text, permissions.GmailSend)
		assert.Contains(t, text, "openid")
	})

	t.Run("invalid", func(t *testing.T) {
		cmd := newPermissionsCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{"--permissions", "gmail:everything"})
		assert.Error(t, cmd.Execute())
	})
}
