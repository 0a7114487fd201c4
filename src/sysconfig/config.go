package sysconfig

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where the system configuration is looked up unless the
// caller overrides it.
const DefaultPath = "/etc/cloud-init-strict/config.yaml"

const defaultProbeTimeoutSeconds = 10

// Config is the decoded system configuration. Raw holds the full document so
// consumers that walk the tree (the allow-keys filter) see keys the typed
// fields do not model.
type Config struct {
	DatasourceList      []string          `yaml:"datasource_list"`
	AllowKeys           map[string]any    `yaml:"allow_keys"`
	Handlers            HandlersConfig    `yaml:"handlers"`
	Whitelist           WhitelistConfig   `yaml:"cc_whitelist_filter"`
	Datasource          DatasourceOptions `yaml:"datasource"`
	ProbeTimeoutSeconds int               `yaml:"probe_timeout_seconds"`

	Raw map[string]any `yaml:"-"`
}

// HandlersConfig toggles part handlers.
type HandlersConfig struct {
	BoothookEnabled *bool `yaml:"boothook_enabled"`
}

// WhitelistConfig drives the user-data whitelist filter and key validator.
type WhitelistConfig struct {
	AllowedKeys       []string `yaml:"allowed_keys"`
	AllowedWritePaths []string `yaml:"allowed_write_paths"`
}

// DatasourceOptions carries per-backend settings.
type DatasourceOptions struct {
	NoCloud NoCloudOptions `yaml:"nocloud"`
	Incus   IncusOptions   `yaml:"incus"`
	Ec2     Ec2Options     `yaml:"ec2"`
}

// NoCloudOptions configures the filesystem seed backend.
type NoCloudOptions struct {
	// SeedFrom overrides the seed location, e.g. "dir:/var/lib/cloud/seed/nocloud".
	SeedFrom string `yaml:"seedfrom"`
}

// IncusOptions configures the container-platform backend.
type IncusOptions struct {
	Instance string `yaml:"instance"`
}

// Ec2Options configures the metadata-service backend.
type Ec2Options struct {
	MetadataURL string `yaml:"metadata_url"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		DatasourceList: []string{"strict-proxy", "nocloud", "incus", "ec2"},
		Raw:            map[string]any{},
	}
}

// Load reads, schema-validates, and decodes a system configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes a system configuration document, validating it against the
// embedded schema first.
func Parse(data []byte) (*Config, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if raw == nil {
		raw = map[string]any{}
	}
	if err := ValidateDocument(raw); err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Raw = raw
	return cfg, nil
}

// ProbeTimeout is the per-candidate detection budget.
func (c *Config) ProbeTimeout() time.Duration {
	if c != nil && c.ProbeTimeoutSeconds > 0 {
		return time.Duration(c.ProbeTimeoutSeconds) * time.Second
	}
	return defaultProbeTimeoutSeconds * time.Second
}

// BoothookEnabled reports whether the boothook part handler may run.
// Enabled unless the config explicitly turns it off.
func (c *Config) BoothookEnabled() bool {
	if c == nil || c.Handlers.BoothookEnabled == nil {
		return true
	}
	return *c.Handlers.BoothookEnabled
}
