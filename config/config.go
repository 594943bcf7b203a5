// Package config loads server configuration from defaults, an optional
// config file, and SOLSTICE_-prefixed environment variables, in that
// priority order.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	ListenAddr string `mapstructure:"listen_addr"`

	WALDir    string `mapstructure:"wal_dir"`
	OutboxDir string `mapstructure:"outbox_dir"`

	// Scope is the contract identifier decryption authorizations must
	// cover for this engine instance.
	Scope string `mapstructure:"scope"`

	Kafka KafkaConfig `mapstructure:"kafka"`
}

type KafkaConfig struct {
	Enabled     bool     `mapstructure:"enabled"`
	Brokers     []string `mapstructure:"brokers"`
	EventsTopic string   `mapstructure:"events_topic"`
	AuditTopic  string   `mapstructure:"audit_topic"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen_addr", ":50051")
	v.SetDefault("wal_dir", "./data/wal")
	v.SetDefault("outbox_dir", "./data/outbox")
	v.SetDefault("scope", "solstice-engine")
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.events_topic", "solstice.events")
	v.SetDefault("kafka.audit_topic", "solstice.decrypt-audit")
}

// Load reads configuration. path may be empty, in which case only
// defaults and environment apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	v.SetEnvPrefix("SOLSTICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr is required")
	}
	if c.WALDir == "" {
		return fmt.Errorf("wal_dir is required")
	}
	if c.OutboxDir == "" {
		return fmt.Errorf("outbox_dir is required")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required when kafka is enabled")
	}
	return nil
}
