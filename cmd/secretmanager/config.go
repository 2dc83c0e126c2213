package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"gopkg.in/yaml.v3"

	"github.com/input-output-hk/catalyst-forge-libs/secretmanager"
)

// Standard AWS environment variables read by the CLI.
const (
	envAccessKeyID     = "AWS_ACCESS_KEY_ID"
	envSecretAccessKey = "AWS_SECRET_ACCESS_KEY"
	envSessionToken    = "AWS_SESSION_TOKEN"
	envRegion          = "AWS_REGION"
	envProfile         = "AWS_PROFILE"
	envConfigFile      = "AWS_CONFIG_FILE"
	envCredentialsFile = "AWS_SHARED_CREDENTIALS_FILE"
)

const defaultTimeout = 30 * time.Second

// Config is the CLI configuration. It is read from an optional YAML file,
// then overridden by environment variables and finally by flags. Settings
// still empty after that are taken from the named shared config profile.
//
//	profile: dev
//	region: us-east-1
//	accessKeyId: AKIA...
//	secretAccessKey: ...
//	endpoint: http://localhost:4566
//	logLevel: debug
//	timeout: 10s
type Config struct {
	secretmanager.ConnectionConfig `yaml:",inline"`

	Profile  string        `yaml:"profile,omitempty"`
	Endpoint string        `yaml:"endpoint,omitempty"`
	LogLevel string        `yaml:"logLevel,omitempty"`
	Timeout  time.Duration `yaml:"timeout,omitempty"`
}

func defaultConfig() *Config {
	return &Config{
		LogLevel: "warn",
		Timeout:  defaultTimeout,
	}
}

// LoadConfig reads the YAML file at path over the defaults.
// An empty path returns the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return cfg, nil
}

// applyEnv overrides fields with the standard AWS environment variables that are set.
func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(envAccessKeyID); ok && v != "" {
		c.AccessKeyID = v
	}
	if v, ok := lookup(envSecretAccessKey); ok && v != "" {
		c.SecretAccessKey = v
	}
	if v, ok := lookup(envSessionToken); ok && v != "" {
		c.SessionToken = &v
	}
	if v, ok := lookup(envRegion); ok && v != "" {
		c.Region = v
	}
	if v, ok := lookup(envProfile); ok && v != "" {
		c.Profile = v
	}
}

// applyProfile fills the region and credentials left empty from the shared
// config profile c.Profile. Credentials are only taken as a complete pair.
// AWS_CONFIG_FILE and AWS_SHARED_CREDENTIALS_FILE replace the default files.
func (c *Config) applyProfile(ctx context.Context, lookup func(string) (string, bool)) error {
	if c.Profile == "" {
		return nil
	}

	shared, err := config.LoadSharedConfigProfile(ctx, c.Profile, func(o *config.LoadSharedConfigOptions) {
		if v, ok := lookup(envConfigFile); ok && v != "" {
			o.ConfigFiles = []string{v}
		}
		if v, ok := lookup(envCredentialsFile); ok && v != "" {
			o.CredentialsFiles = []string{v}
		}
	})
	if err != nil {
		return fmt.Errorf("failed to load profile %s: %w", c.Profile, err)
	}

	if c.Region == "" {
		c.Region = shared.Region
	}
	if c.AccessKeyID == "" && c.SecretAccessKey == "" && shared.Credentials.HasKeys() {
		c.AccessKeyID = shared.Credentials.AccessKeyID
		c.SecretAccessKey = shared.Credentials.SecretAccessKey
		if token := shared.Credentials.SessionToken; token != "" && c.SessionToken == nil {
			c.SessionToken = &token
		}
	}

	return nil
}

// Validate checks the CLI-only settings. Connection settings are validated by
// the client on Init.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if _, err := parseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

func parseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}
