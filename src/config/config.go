package config

import (
	"fmt"
	"os"

	"chart-bridge/src/models"

	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new MConfig instance from YAML file
func NewConfig(configPath string) (*Config, error) {
	// 1. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	// 2. Unmarshal data into the models struct
	var modelConfig models.MConfig
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	config := &Config{MConfig: &modelConfig}
	config.applyDefaults()

	// 3. Validate the loaded configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

func (c *Config) applyDefaults() {
	if c.Network.RequestTimeout == 0 {
		c.Network.RequestTimeout = 15
	}
	if c.Stream.PhaseTimeoutSeconds == 0 {
		c.Stream.PhaseTimeoutSeconds = 10
	}
	if c.Stream.HeartbeatSeconds == 0 {
		c.Stream.HeartbeatSeconds = 5
	}
	if c.Stream.AuthDelayMs == 0 {
		c.Stream.AuthDelayMs = 250
	}
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	// Validate Server configuration
	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}

	// Validate Storage configuration
	if c.Storage.DBType == "" {
		return fmt.Errorf("database type cannot be empty")
	}
	if c.Storage.DBType == "sqlite" && c.Storage.DBPath == "" {
		return fmt.Errorf("database path cannot be empty for sqlite")
	}
	if c.Storage.DBType == "postgres" && c.Storage.DBConnectionString == "" {
		return fmt.Errorf("connection string cannot be empty for postgres")
	}

	// Validate Network configuration
	if c.Network.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be greater than 0")
	}
	if c.Network.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}

	// Validate Venue configuration
	if c.Venue.RestURL == "" {
		return fmt.Errorf("venue rest_url cannot be empty")
	}
	if c.Venue.WsURL == "" {
		return fmt.Errorf("venue ws_url cannot be empty")
	}
	if c.Venue.AppID == "" {
		return fmt.Errorf("venue app_id cannot be empty")
	}

	// Validate Stream budgets
	if c.Stream.PhaseTimeoutSeconds <= 0 {
		return fmt.Errorf("stream phase timeout must be greater than 0")
	}
	if c.Stream.HeartbeatSeconds <= 0 {
		return fmt.Errorf("stream heartbeat interval must be greater than 0")
	}
	if c.Stream.AuthDelayMs < 0 {
		return fmt.Errorf("stream auth delay cannot be negative")
	}

	return nil
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path
func (c *Config) Save(configPath string) error {
	// 1. Marshal the struct to YAML
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	// 2. Write to file (0644 permissions)
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}
