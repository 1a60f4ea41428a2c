package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/teemow/workspace-mcp/internal/permissions"
)

// Transport names.
const (
	TransportStdio          = "stdio"
	TransportStreamableHTTP = "streamable-http"
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Config is the server configuration.
type Config struct {
	Permissions PermissionList `yaml:"permissions"`
	Transport   string         `yaml:"transport"`
	HTTPAddr    string         `yaml:"http_addr"`
	Log         LogConfig      `yaml:"log"`
	Metrics     MetricsConfig  `yaml:"metrics"`
	Google      GoogleConfig   `yaml:"google"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Debug  bool   `yaml:"debug"`
	Format string `yaml:"format"`
}

// MetricsConfig configures the dedicated metrics server.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// GoogleConfig holds the Google OAuth client.
type GoogleConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Transport: TransportStdio,
		HTTPAddr:  ":8080",
		Log:       LogConfig{Format: LogFormatText},
		Metrics:   MetricsConfig{Enabled: true, Addr: ":9090"},
	}
}

// Load reads the file at path on top of Default. Unknown keys are rejected.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML data on top of Default and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks transport, log format and permission entries.
func (c Config) Validate() error {
	switch c.Transport {
	case TransportStdio, TransportStreamableHTTP:
	default:
		return fmt.Errorf("unsupported transport %q: use %s or %s", c.Transport, TransportStdio, TransportStreamableHTTP)
	}

	switch c.Log.Format {
	case LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("unsupported log format %q: use %s or %s", c.Log.Format, LogFormatText, LogFormatJSON)
	}

	if c.Transport == TransportStreamableHTTP && c.HTTPAddr == "" {
		return fmt.Errorf("http_addr is required for the %s transport", TransportStreamableHTTP)
	}

	_, err := c.PermissionConfig()
	return err
}

// PermissionConfig resolves the configured permission entries. It returns
// nil (unrestricted) when none are set.
func (c Config) PermissionConfig() (*permissions.Config, error) {
	return permissions.ParseSpecs(c.Permissions)
}

// PermissionList is a list of "service:level" entries. In YAML it may be
// written as a sequence, a service to level mapping or a comma separated
// string.
type PermissionList []string

func (p *PermissionList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var specs []string
		if err := node.Decode(&specs); err != nil {
			return err
		}
		*p = specs
	case yaml.MappingNode:
		var levels map[string]string
		if err := node.Decode(&levels); err != nil {
			return err
		}
		specs := make([]string, 0, len(levels))
		for service, level := range levels {
			specs = append(specs, service+":"+level)
		}
		sort.Strings(specs)
		*p = specs
	case yaml.ScalarNode:
		*p = SplitList(node.Value)
	default:
		return fmt.Errorf("line %d: permissions must be a list, a mapping or a string", node.Line)
	}
	return nil
}

// SplitList splits a comma separated list, trimming spaces and dropping
// empty entries.
func SplitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
