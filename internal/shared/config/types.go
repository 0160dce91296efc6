// Package config defines the typed configuration structs shared across the
// application. Every recognized option is an explicit field with a default;
// unknown keys in the config file are ignored by viper.
package config

import (
	"fmt"
	"time"
)

// DatabaseConfig holds the MySQL connection settings.
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // minutes
}

// DSN builds the MySQL DSN for gorm.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		c.Username, c.Password, c.Host, c.Port, c.Database)
}

// RedisConfig holds the cache layer connection settings.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the host:port address for the redis client.
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // console, json
	OutputPath string `mapstructure:"output_path"` // stdout, stderr or file path
}

// ResetPolicy selects how the reset scheduler decides a service is due.
type ResetPolicy string

const (
	// ResetPolicyBillingDay resets when the billing system's next due date
	// falls on today (with the short-month day-31 equivalence).
	ResetPolicyBillingDay ResetPolicy = "billing_day"
	// ResetPolicyFixedDay resets on the service's monthly_reset_day.
	ResetPolicyFixedDay ResetPolicy = "fixed_day"
)

// TrafficConfig holds the accounting engine settings.
type TrafficConfig struct {
	// NodeListTTL bounds how stale a cached node list may be.
	NodeListTTL time.Duration `mapstructure:"node_list_ttl"`
	// FieldTTL bounds staleness of cached scalar service fields.
	FieldTTL time.Duration `mapstructure:"field_ttl"`
	// EvaluateSweepInterval is how often the threshold enforcer sweep runs.
	EvaluateSweepInterval time.Duration `mapstructure:"evaluate_sweep_interval"`
	// ResetSweepCron is the cron expression for the daily reset sweep.
	ResetSweepCron string `mapstructure:"reset_sweep_cron"`
	// ResetPolicy selects billing_day or fixed_day scheduling.
	ResetPolicy ResetPolicy `mapstructure:"reset_policy"`
	// SweepWorkers bounds the reset sweep worker pool.
	SweepWorkers int `mapstructure:"sweep_workers"`
	// AsyncEvaluate runs the post-ingest evaluation in a background
	// goroutine instead of inline.
	AsyncEvaluate bool `mapstructure:"async_evaluate"`
	// AuditUsage appends a usage_records row for every ingest.
	AuditUsage bool `mapstructure:"audit_usage"`
	// UsageRetention bounds the audit trail age; zero disables purging.
	UsageRetention time.Duration `mapstructure:"usage_retention"`
	// Timezone is the business timezone for day boundaries.
	Timezone string `mapstructure:"timezone"`
}

// Validate checks the traffic settings for out-of-range values.
func (c *TrafficConfig) Validate() error {
	if c.NodeListTTL <= 0 {
		return fmt.Errorf("node_list_ttl must be positive, got %s", c.NodeListTTL)
	}
	if c.FieldTTL <= 0 {
		return fmt.Errorf("field_ttl must be positive, got %s", c.FieldTTL)
	}
	if c.SweepWorkers <= 0 {
		return fmt.Errorf("sweep_workers must be positive, got %d", c.SweepWorkers)
	}
	switch c.ResetPolicy {
	case ResetPolicyBillingDay, ResetPolicyFixedDay:
	default:
		return fmt.Errorf("unknown reset_policy %q", c.ResetPolicy)
	}
	return nil
}

// BillingConfig holds the external billing system API settings.
type BillingConfig struct {
	APIURL     string        `mapstructure:"api_url"`
	Identifier string        `mapstructure:"identifier"`
	Secret     string        `mapstructure:"secret"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// AuthConfig holds credential hashing settings.
type AuthConfig struct {
	BcryptCost int `mapstructure:"bcrypt_cost"`
}
