package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// KafkaProducerConfig defines the settings for the Kafka delivery-channel
// producer used by the intake service.
type KafkaProducerConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`

	// Reliability settings. Publishes are always synchronous: the intake
	// response depends on whether the record actually reached the channel.
	RequiredAcks string `yaml:"required_acks"` // none | one | all

	BatchTimeout time.Duration `yaml:"batch_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
}

// SetDefaults fills in producer defaults tuned for low-latency single
// publishes rather than throughput batching.
func (c *KafkaProducerConfig) SetDefaults() {
	if c.RequiredAcks == "" {
		c.RequiredAcks = "all"
	}
	if c.BatchTimeout == 0 {
		c.BatchTimeout = 10 * time.Millisecond
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 5 * time.Second
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 5 * time.Second
	}
}

// HttpServerConfig defines HTTP server tuning shared by both services.
type HttpServerConfig struct {
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	MaxHeaderBytes int           `yaml:"max_header_bytes"`
	MaxBodyBytes   int64         `yaml:"max_body_bytes"`
}

// SetDefaults fills in HTTP server defaults.
func (c *HttpServerConfig) SetDefaults() {
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 5 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
	if c.MaxHeaderBytes == 0 {
		c.MaxHeaderBytes = 1 << 20 // 1 MB
	}
	if c.MaxBodyBytes == 0 {
		c.MaxBodyBytes = 10 << 20 // 10 MB
	}
}

// MonitoringConfig controls the Prometheus metrics endpoint.
type MonitoringConfig struct {
	EnableMetrics bool   `yaml:"enable_metrics"`
	MetricsPath   string `yaml:"metrics_path"`
}

// SetDefaults fills in monitoring defaults.
func (c *MonitoringConfig) SetDefaults() {
	if c.MetricsPath == "" {
		c.MetricsPath = "/metrics"
	}
}

// IngestionConfig defines everything the intake service needs.
type IngestionConfig struct {
	HttpListenAddr string `yaml:"http_listen_addr"`

	KafkaProducer KafkaProducerConfig `yaml:"kafka_producer"`
	HttpServer    HttpServerConfig    `yaml:"http_server"`
	Monitoring    MonitoringConfig    `yaml:"monitoring"`
}

// LoadIngestionConfig loads the intake service configuration from a YAML file.
func LoadIngestionConfig(path string) (*IngestionConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ingestion config file %q: %w", path, err)
	}

	var cfg IngestionConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse ingestion YAML config: %w", err)
	}

	cfg.KafkaProducer.SetDefaults()
	cfg.HttpServer.SetDefaults()
	cfg.Monitoring.SetDefaults()

	if cfg.HttpListenAddr == "" {
		return nil, fmt.Errorf("configuration error: http_listen_addr must be set")
	}
	if len(cfg.KafkaProducer.Brokers) == 0 || cfg.KafkaProducer.Topic == "" {
		return nil, fmt.Errorf("configuration error: kafka_producer.brokers and kafka_producer.topic must be set")
	}

	return &cfg, nil
}
