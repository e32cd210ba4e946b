package config

import "fmt"

// DatabaseConfig holds the PostgreSQL connection settings used when the
// tenant store runs on the postgres backend.
type DatabaseConfig struct {
	DSN            string `yaml:"dsn"`
	MaxConnections int    `yaml:"max_connections"`
	MinConnections int    `yaml:"min_connections"`
}

// SetDefaults fills in sensible defaults for unset pool sizes.
func (c *DatabaseConfig) SetDefaults() {
	if c.MaxConnections <= 0 {
		c.MaxConnections = 20
	}
	if c.MinConnections <= 0 {
		c.MinConnections = 2
	}
}

// Validate checks the database configuration for consistency.
func (c *DatabaseConfig) Validate() error {
	if c.DSN == "" {
		return fmt.Errorf("database dsn is required")
	}
	if c.MinConnections > c.MaxConnections {
		return fmt.Errorf("database min_connections (%d) cannot exceed max_connections (%d)",
			c.MinConnections, c.MaxConnections)
	}
	return nil
}
