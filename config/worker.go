package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Worker delivery modes.
const (
	WorkerModePull = "pull" // consume from Kafka with a consumer group
	WorkerModePush = "push" // receive pushed deliveries over HTTP
)

// KafkaConsumerConfig defines the settings for the Kafka delivery-channel
// consumers used by the processing worker in pull mode.
type KafkaConsumerConfig struct {
	Brokers           []string `yaml:"brokers"`
	Topic             string   `yaml:"topic"`
	GroupID           string   `yaml:"group_id"`
	Count             int      `yaml:"count"` // number of consumers (one worker loop each)
	SessionTimeout    string   `yaml:"session_timeout"`
	HeartbeatInterval string   `yaml:"heartbeat_interval"`
	AutoOffsetReset   string   `yaml:"auto_offset_reset"` // earliest | latest
}

// SetDefaults fills in consumer defaults.
func (c *KafkaConsumerConfig) SetDefaults() {
	if c.Count <= 0 {
		c.Count = 1
	}
	if c.SessionTimeout == "" {
		c.SessionTimeout = "30s"
	}
	if c.HeartbeatInterval == "" {
		c.HeartbeatInterval = "3s"
	}
	if c.AutoOffsetReset == "" {
		c.AutoOffsetReset = "earliest"
	}
}

// WorkerConfig defines everything the processing worker service needs.
type WorkerConfig struct {
	Mode string `yaml:"mode"` // pull | push

	// HTTP listener: push delivery endpoint in push mode, health and
	// metrics in either mode. Optional in pull mode.
	HttpListenAddr string `yaml:"http_listen_addr"`

	// DelayPerChar tunes the simulated transform cost per input character.
	DelayPerChar       time.Duration `yaml:"delay_per_char"`
	ConsumerRetryDelay time.Duration `yaml:"consumer_retry_delay"`

	KafkaConsumer KafkaConsumerConfig `yaml:"kafka_consumer"`
	Store         StoreConfig         `yaml:"store"`
	HttpServer    HttpServerConfig    `yaml:"http_server"`
	Monitoring    MonitoringConfig    `yaml:"monitoring"`
}

// LoadWorkerConfig loads the worker service configuration from a YAML file.
func LoadWorkerConfig(path string) (*WorkerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read worker config file %q: %w", path, err)
	}

	var cfg WorkerConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse worker YAML config: %w", err)
	}

	if cfg.Mode == "" {
		cfg.Mode = WorkerModePull
	}
	if cfg.DelayPerChar == 0 {
		cfg.DelayPerChar = 50 * time.Millisecond
	}
	if cfg.ConsumerRetryDelay == 0 {
		cfg.ConsumerRetryDelay = 5 * time.Second
	}
	// A pushed delivery blocks for the simulated transform before the
	// response is written; the write timeout has to outlast it.
	if cfg.Mode == WorkerModePush && cfg.HttpServer.WriteTimeout == 0 {
		cfg.HttpServer.WriteTimeout = 10 * time.Minute
	}
	cfg.KafkaConsumer.SetDefaults()
	cfg.Store.SetDefaults()
	cfg.HttpServer.SetDefaults()
	cfg.Monitoring.SetDefaults()

	switch cfg.Mode {
	case WorkerModePull:
		if len(cfg.KafkaConsumer.Brokers) == 0 || cfg.KafkaConsumer.Topic == "" || cfg.KafkaConsumer.GroupID == "" {
			return nil, fmt.Errorf("configuration error: pull mode requires kafka_consumer.brokers, topic and group_id")
		}
	case WorkerModePush:
		if cfg.HttpListenAddr == "" {
			return nil, fmt.Errorf("configuration error: push mode requires http_listen_addr")
		}
	default:
		return nil, fmt.Errorf("configuration error: unknown worker mode %q", cfg.Mode)
	}

	if err := cfg.Store.Validate(); err != nil {
		return nil, fmt.Errorf("store configuration error: %w", err)
	}

	return &cfg, nil
}
