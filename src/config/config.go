package config

import (
	"fmt"
	"os"

	"facility-observer/src/models"

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
	config.ApplyDefaults()

	// 3. Validate the loaded configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

// ApplyDefaults fills the optional knobs most deployments never touch.
func (c *Config) ApplyDefaults() {
	if c.Query.DefaultLimit == 0 {
		c.Query.DefaultLimit = 500
	}
	if c.Query.MaxLimit == 0 {
		c.Query.MaxLimit = 5000
	}
	if len(c.Summary.AdditiveMetrics) == 0 {
		c.Summary.AdditiveMetrics = []string{"power_kw", "flow_l_min"}
	}
	if c.Client.PollIntervalSeconds == 0 {
		c.Client.PollIntervalSeconds = 5
	}
	if c.Client.WindowSeconds == 0 {
		c.Client.WindowSeconds = 3600
	}
	if c.Client.FetchLimit == 0 {
		c.Client.FetchLimit = c.Query.DefaultLimit
	}
	if c.Client.DisplayBudget == 0 {
		c.Client.DisplayBudget = 300
	}
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	// Validate App configuration (Flattened)
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	// Validate Server configuration (Flattened)
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

	// Validate Query limits
	if c.Query.DefaultLimit <= 0 {
		return fmt.Errorf("default query limit must be greater than 0")
	}
	if c.Query.MaxLimit < c.Query.DefaultLimit {
		return fmt.Errorf("max query limit (%d) cannot be below default limit (%d)", c.Query.MaxLimit, c.Query.DefaultLimit)
	}

	// Validate Client configuration
	if c.Client.PollIntervalSeconds <= 0 {
		return fmt.Errorf("poll interval must be greater than 0")
	}
	if c.Client.WindowSeconds <= 0 {
		return fmt.Errorf("client window must be greater than 0")
	}
	if c.Client.DisplayBudget < 2 {
		return fmt.Errorf("display budget must be at least 2 points")
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
