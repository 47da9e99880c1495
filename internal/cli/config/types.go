// Package config provides configuration management for the forceql CLI.
//
// Configuration is layered: built-in defaults, then forceql.yaml, then
// SF_* environment variables, then command-line flags. The resulting
// Config maps onto core.ConnectionConfig for the adapter layer.
package config

import (
	"fmt"

	"github.com/forceql/forceql/pkg/adapter"
	"github.com/forceql/forceql/pkg/core"
)

// Config holds all CLI configuration options.
type Config struct {
	Type           string            `koanf:"type"`
	Host           string            `koanf:"host"`
	Username       string            `koanf:"username"`
	Password       string            `koanf:"password"`
	ConsumerKey    string            `koanf:"consumer_key"`
	ConsumerSecret string            `koanf:"consumer_secret"`
	SecurityToken  string            `koanf:"security_token"`
	APIVersion     string            `koanf:"api_version"`
	PKField        string            `koanf:"pk_field"`
	LazyConnect    bool              `koanf:"lazy_connect"`
	QuietKnownBugs bool              `koanf:"quiet_known_bugs"`
	Verbose        bool              `koanf:"verbose"`
	OutputFormat   string            `koanf:"output"`
	CachePath      string            `koanf:"cache_path"`
	Options        map[string]string `koanf:"options"`
}

// Default configuration values.
const (
	DefaultType      = "salesforce"
	DefaultHost      = "https://login.salesforce.com"
	DefaultOutput    = "auto" // Auto-detect: TTY=table, non-TTY=markdown
	DefaultCacheFile = ".forceql/schema.db"
)

// ConnectionConfig converts the CLI configuration into the shared
// connection configuration consumed by adapters.
func (c *Config) ConnectionConfig() core.ConnectionConfig {
	return core.ConnectionConfig{
		Type:           c.Type,
		Host:           c.Host,
		Username:       c.Username,
		Password:       c.Password,
		ConsumerKey:    c.ConsumerKey,
		ConsumerSecret: c.ConsumerSecret,
		SecurityToken:  c.SecurityToken,
		APIVersion:     c.APIVersion,
		PKField:        c.PKField,
		LazyConnect:    c.LazyConnect,
		QuietKnownBugs: c.QuietKnownBugs,
		Options:        c.Options,
	}
}

// Validate checks the configuration for problems that would fail every
// command, returning errors with actionable hints.
func (c *Config) Validate() error {
	if !adapter.IsRegistered(c.Type) {
		return &adapter.UnknownAdapterError{Type: c.Type, Available: adapter.List()}
	}
	switch c.OutputFormat {
	case "", "auto", "table", "json", "csv", "md", "markdown":
	default:
		return fmt.Errorf("invalid output format %q\nHint: Valid formats are auto, table, json, csv, md", c.OutputFormat)
	}
	return nil
}

// ValidateCredentials checks that the fields required for login are set.
// Commands that talk to the org call this before connecting.
func (c *Config) ValidateCredentials() error {
	if c.Username == "" || c.Password == "" {
		return fmt.Errorf("username and password are not configured\nHint: Set SF_USER and SF_PASSWORD, or add them to forceql.yaml")
	}
	if c.ConsumerKey == "" || c.ConsumerSecret == "" {
		return fmt.Errorf("connected app credentials are not configured\nHint: Set SF_CONSUMER_KEY and SF_CONSUMER_SECRET from your connected app")
	}
	return nil
}
