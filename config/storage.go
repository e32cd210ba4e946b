package config

import "fmt"

// Tenant store backends.
const (
	StoreBackendPostgres = "postgres"
	StoreBackendObject   = "object"
	StoreBackendMemory   = "memory"
)

// ObjectStoreConfig holds the settings for the S3-compatible object store
// backend (MinIO or AWS S3).
type ObjectStoreConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// Validate checks that the object store settings are complete.
func (c *ObjectStoreConfig) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("object store endpoint is required")
	}
	if c.AccessKey == "" || c.SecretKey == "" {
		return fmt.Errorf("object store credentials are required")
	}
	if c.Bucket == "" {
		return fmt.Errorf("object store bucket is required")
	}
	return nil
}

// StoreConfig selects and configures the tenant store backend.
type StoreConfig struct {
	Backend  string            `yaml:"backend"` // postgres | object | memory
	Database DatabaseConfig    `yaml:"database"`
	Object   ObjectStoreConfig `yaml:"object"`
}

// SetDefaults fills in defaults for the selected backend.
func (c *StoreConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = StoreBackendPostgres
	}
	if c.Backend == StoreBackendPostgres {
		c.Database.SetDefaults()
	}
}

// Validate checks the store configuration for the selected backend.
func (c *StoreConfig) Validate() error {
	switch c.Backend {
	case StoreBackendPostgres:
		return c.Database.Validate()
	case StoreBackendObject:
		return c.Object.Validate()
	case StoreBackendMemory:
		return nil
	default:
		return fmt.Errorf("unknown store backend %q", c.Backend)
	}
}
