package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/workspace-mcp/internal/permissions"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name        string
		yaml        string
		want        Config
		errContains string
	}{
		{
			name: "empty file yields defaults",
			yaml: "",
			want: Default(),
		},
		{
			name: "permission sequence",
			yaml: "permissions:\n  - gmail:organize\n  - drive:readonly\n",
			want: func() Config {
				c := Default()
				c.Permissions = PermissionList{"gmail:organize", "drive:readonly"}
				return c
			}(),
		},
		{
			name: "permission mapping",
			yaml: "permissions:\n  gmail: send\n  drive: readonly\n",
			want: func() Config {
				c := Default()
				c.Permissions = PermissionList{"drive:readonly", "gmail:send"}
				return c
			}(),
		},
		{
			name: "permission string",
			yaml: "permissions: \"gmail:readonly, calendar:full\"\n",
			want: func() Config {
				c := Default()
				c.Permissions = PermissionList{"gmail:readonly", "calendar:full"}
				return c
			}(),
		},
		{
			name: "full file",
			yaml: `transport: streamable-http
http_addr: ":9000"
log:
  debug: true
  format: json
metrics:
  enabled: false
  addr: ":9999"
google:
  client_id: id
  client_secret: secret
`,
			want: Config{
				Transport: TransportStreamableHTTP,
				HTTPAddr:  ":9000",
				Log:       LogConfig{Debug: true, Format: LogFormatJSON},
				Metrics:   MetricsConfig{Enabled: false, Addr: ":9999"},
				Google:    GoogleConfig{ClientID: "id", ClientSecret: "secret"},
			},
		},
		{
			name:        "unknown key",
			yaml:        "permisions: [\"gmail:send\"]\n",
			errContains: "permisions",
		},
		{
			name:        "bad transport",
			yaml:        "transport: sse\n",
			errContains: "unsupported transport",
		},
		{
			name:        "bad log format",
			yaml:        "log:\n  format: xml\n",
			errContains: "unsupported log format",
		},
		{
			name:        "bad permission level",
			yaml:        "permissions: [\"gmail:admin\"]\n",
			errContains: "Unknown level 'admin'",
		},
		{
			name:        "http transport without address",
			yaml:        "transport: streamable-http\nhttp_addr: \"\"\n",
			errContains: "http_addr is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse([]byte(tt.yaml))
			if tt.errContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("permissions:\n  gmail: drafts\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	perms, err := cfg.PermissionConfig()
	require.NoError(t, err)
	require.NotNil(t, perms)
	assert.True(t, perms.Allows(permissions.GmailCompose))
	assert.False(t, perms.Allows(permissions.GmailSend))

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestPermissionConfig_Unrestricted(t *testing.T) {
	perms, err := Default().PermissionConfig()
	require.NoError(t, err)
	assert.Nil(t, perms)
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{in: "", want: nil},
		{in: "gmail:send", want: []string{"gmail:send"}},
		{in: " gmail:send , drive:readonly ", want: []string{"gmail:send", "drive:readonly"}},
		{in: "a,,b,", want: []string{"a", "b"}},
		{in: " , ", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitList(tt.in))
		})
	}
}
