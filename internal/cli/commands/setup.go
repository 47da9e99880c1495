// Package commands implements the forceql subcommands.
package commands

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/forceql/forceql/internal/cli/config"
	"github.com/forceql/forceql/pkg/adapter"

	// Register the salesforce adapter.
	_ "github.com/forceql/forceql/pkg/adapters/salesforce"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg     *config.Config
	Logger  *slog.Logger
	Adapter adapter.Adapter
}

// NewCommandContext creates a CommandContext with a connected adapter.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	if err := cfg.ValidateCredentials(); err != nil {
		return nil, nil, err
	}

	ad, err := adapter.New(cfg.ConnectionConfig(), logger)
	if err != nil {
		return nil, nil, err
	}
	if err := ad.Connect(cmd.Context(), cfg.ConnectionConfig()); err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		_ = ad.Close()
	}

	return &CommandContext{
		Cfg:     cfg,
		Logger:  logger,
		Adapter: ad,
	}, cleanup, nil
}

// NewCommandContextWithoutAdapter creates a CommandContext without connecting.
// Useful for commands that work offline (translation, cached schema).
func NewCommandContextWithoutAdapter(cmd *cobra.Command) *CommandContext {
	return &CommandContext{
		Cfg:    getConfig(),
		Logger: config.GetLogger(cmd.Context()),
	}
}

// getConfig returns the current configuration.
// It uses config.GetCurrentConfig() if available, otherwise falls back to environment variables.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	// Fallback: read from environment with defaults
	return &config.Config{
		Type:           config.DefaultType,
		Host:           getEnvOrDefault("SF_HOST", config.DefaultHost),
		Username:       os.Getenv("SF_USER"),
		Password:       os.Getenv("SF_PASSWORD"),
		ConsumerKey:    os.Getenv("SF_CONSUMER_KEY"),
		ConsumerSecret: os.Getenv("SF_CONSUMER_SECRET"),
		SecurityToken:  os.Getenv("SF_SECURITY_TOKEN"),
		APIVersion:     os.Getenv("SF_API_VERSION"),
		PKField:        os.Getenv("SF_PK"),
		LazyConnect:    os.Getenv("SF_LAZY_CONNECT") == "true",
		OutputFormat:   getEnvOrDefault("SF_OUTPUT", config.DefaultOutput),
		CachePath:      getEnvOrDefault("SF_CACHE_PATH", config.DefaultCacheFile),
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
