// Package config loads the application configuration from file and
// environment variables.
package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"

	sharedConfig "github.com/meterd-io/meterd/internal/shared/config"
)

// Config is the root configuration.
type Config struct {
	Database sharedConfig.DatabaseConfig `mapstructure:"database"`
	Redis    sharedConfig.RedisConfig    `mapstructure:"redis"`
	Logger   sharedConfig.LoggerConfig   `mapstructure:"logger"`
	Traffic  sharedConfig.TrafficConfig  `mapstructure:"traffic"`
	Billing  sharedConfig.BillingConfig  `mapstructure:"billing"`
	Auth     sharedConfig.AuthConfig     `mapstructure:"auth"`
}

var (
	appConfig   *Config
	appConfigMu sync.RWMutex
)

// Load reads configuration from ./configs/config.yaml (searching upward) and
// METERD_* environment variables.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../configs")
	viper.AddConfigPath("../../configs")

	viper.SetEnvPrefix("METERD")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// A missing file is fine; defaults plus env cover everything.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Traffic.Validate(); err != nil {
		return nil, fmt.Errorf("invalid traffic config: %w", err)
	}

	appConfigMu.Lock()
	appConfig = &config
	appConfigMu.Unlock()

	return &config, nil
}

// Get returns the loaded configuration.
func Get() *Config {
	appConfigMu.RLock()
	defer appConfigMu.RUnlock()
	return appConfig
}

func setDefaults() {
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 3306)
	viper.SetDefault("database.username", "root")
	viper.SetDefault("database.password", "password")
	viper.SetDefault("database.database", "meterd_dev")
	viper.SetDefault("database.max_idle_conns", 10)
	viper.SetDefault("database.max_open_conns", 100)
	viper.SetDefault("database.conn_max_lifetime", 60)

	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "console")
	viper.SetDefault("logger.output_path", "stdout")

	viper.SetDefault("traffic.node_list_ttl", time.Hour)
	viper.SetDefault("traffic.field_ttl", 5*time.Minute)
	viper.SetDefault("traffic.evaluate_sweep_interval", time.Hour)
	viper.SetDefault("traffic.reset_sweep_cron", "0 0 * * *")
	viper.SetDefault("traffic.reset_policy", string(sharedConfig.ResetPolicyBillingDay))
	viper.SetDefault("traffic.sweep_workers", 8)
	viper.SetDefault("traffic.async_evaluate", false)
	viper.SetDefault("traffic.audit_usage", true)
	viper.SetDefault("traffic.usage_retention", 90*24*time.Hour)
	viper.SetDefault("traffic.timezone", "UTC")

	viper.SetDefault("billing.api_url", "")
	viper.SetDefault("billing.identifier", "")
	viper.SetDefault("billing.secret", "")
	viper.SetDefault("billing.timeout", 10*time.Second)

	viper.SetDefault("auth.bcrypt_cost", 12)
}
