// Package config provides configuration structures and loading for polyseed.
package config

import "time"

// Environment names recognized by the production guard.
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Config represents the complete application configuration.
type Config struct {
	Environment string          `yaml:"environment" mapstructure:"environment"`
	Stores      StoresConfig    `yaml:"stores" mapstructure:"stores"`
	Lifecycle   LifecycleConfig `yaml:"lifecycle" mapstructure:"lifecycle"`
	Health      HealthConfig    `yaml:"health" mapstructure:"health"`
	Seed        SeedConfig      `yaml:"seed" mapstructure:"seed"`
	Versions    []VersionConfig `yaml:"versions" mapstructure:"versions"`
	Logging     LoggingConfig   `yaml:"logging" mapstructure:"logging"`
}

// StoresConfig groups connection settings for the four backing stores.
type StoresConfig struct {
	MySQL  MySQLConfig  `yaml:"mysql" mapstructure:"mysql"`
	Mongo  MongoConfig  `yaml:"mongo" mapstructure:"mongo"`
	Redis  RedisConfig  `yaml:"redis" mapstructure:"redis"`
	Vector VectorConfig `yaml:"vector" mapstructure:"vector"`
}

// MySQLConfig represents the relational store connection configuration.
type MySQLConfig struct {
	Host               string `yaml:"host" mapstructure:"host"`
	Port               int    `yaml:"port" mapstructure:"port"`
	User               string `yaml:"user" mapstructure:"user"`
	Password           string `yaml:"password" mapstructure:"password"`
	Database           string `yaml:"database" mapstructure:"database"`
	TLS                string `yaml:"tls" mapstructure:"tls"` // disable, preferred, required
	MaxConnections     int    `yaml:"max_connections" mapstructure:"max_connections"`
	MaxIdleConnections int    `yaml:"max_idle_connections" mapstructure:"max_idle_connections"`
}

// MongoConfig represents the document store connection configuration.
type MongoConfig struct {
	URI            string `yaml:"uri" mapstructure:"uri"`
	Database       string `yaml:"database" mapstructure:"database"`
	ConnectTimeout int    `yaml:"connect_timeout_seconds" mapstructure:"connect_timeout_seconds"`
}

// RedisConfig represents the key-value cache connection configuration.
type RedisConfig struct {
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db"`
	PoolSize int    `yaml:"pool_size" mapstructure:"pool_size"`
}

// VectorConfig represents the sqlite-vec vector index configuration.
type VectorConfig struct {
	Path       string `yaml:"path" mapstructure:"path"`
	Dimensions int    `yaml:"dimensions" mapstructure:"dimensions"`
}

// LifecycleConfig controls startup retry, health monitoring, and shutdown.
type LifecycleConfig struct {
	MaxAttempts          int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	BaseDelaySeconds     float64 `yaml:"base_delay_seconds" mapstructure:"base_delay_seconds"`
	MonitorEnabled       bool    `yaml:"monitor_enabled" mapstructure:"monitor_enabled"`
	MonitorInterval      int     `yaml:"monitor_interval_seconds" mapstructure:"monitor_interval_seconds"`
	ShutdownGraceSeconds float64 `yaml:"shutdown_grace_seconds" mapstructure:"shutdown_grace_seconds"`
}

// BaseDelay returns the backoff base delay as a duration.
func (lc LifecycleConfig) BaseDelay() time.Duration {
	return time.Duration(lc.BaseDelaySeconds * float64(time.Second))
}

// Interval returns the monitor interval as a duration.
func (lc LifecycleConfig) Interval() time.Duration {
	return time.Duration(lc.MonitorInterval) * time.Second
}

// ShutdownGrace returns the shutdown grace window as a duration.
func (lc LifecycleConfig) ShutdownGrace() time.Duration {
	return time.Duration(lc.ShutdownGraceSeconds * float64(time.Second))
}

// HealthConfig controls the health aggregator.
type HealthConfig struct {
	ProbeTimeoutSeconds float64 `yaml:"probe_timeout_seconds" mapstructure:"probe_timeout_seconds"`
}

// ProbeTimeout returns the per-store probe timeout as a duration.
func (hc HealthConfig) ProbeTimeout() time.Duration {
	return time.Duration(hc.ProbeTimeoutSeconds * float64(time.Second))
}

// SeedConfig holds seeding defaults and per-store batch sizes.
type SeedConfig struct {
	Defaults SeedDefaults `yaml:"defaults" mapstructure:"defaults"`
	Batch    BatchConfig  `yaml:"batch" mapstructure:"batch"`
}

// SeedDefaults mirrors the seed options input contract; CLI flags and
// version definitions override these values.
type SeedDefaults struct {
	UserCount               int     `yaml:"user_count" mapstructure:"user_count"`
	ProductCount            int     `yaml:"product_count" mapstructure:"product_count"`
	OrderCount              int     `yaml:"order_count" mapstructure:"order_count"`
	TaskCount               int     `yaml:"task_count" mapstructure:"task_count"`
	MessageCount            int     `yaml:"message_count" mapstructure:"message_count"`
	VectorCount             int     `yaml:"vector_count" mapstructure:"vector_count"`
	Scenario                string  `yaml:"scenario" mapstructure:"scenario"`
	Cleanup                 bool    `yaml:"cleanup" mapstructure:"cleanup"`
	CreateRelationships     bool    `yaml:"create_relationships" mapstructure:"create_relationships"`
	ValidateData            bool    `yaml:"validate_data" mapstructure:"validate_data"`
	RetryAttempts           int     `yaml:"retry_attempts" mapstructure:"retry_attempts"`
	RetryDelaySeconds       float64 `yaml:"retry_delay_seconds" mapstructure:"retry_delay_seconds"`
	EnableRollbackOnFailure bool    `yaml:"enable_rollback_on_failure" mapstructure:"enable_rollback_on_failure"`
	EnableParallelExecution bool    `yaml:"enable_parallel_execution" mapstructure:"enable_parallel_execution"`
}

// BatchConfig tunes write batch sizes per store. Vector upserts use a
// smaller batch than bulk relational inserts.
type BatchConfig struct {
	MySQLBatchSize  int `yaml:"mysql_batch_size" mapstructure:"mysql_batch_size"`
	MongoBatchSize  int `yaml:"mongo_batch_size" mapstructure:"mongo_batch_size"`
	RedisBatchSize  int `yaml:"redis_batch_size" mapstructure:"redis_batch_size"`
	VectorBatchSize int `yaml:"vector_batch_size" mapstructure:"vector_batch_size"`
}

// VersionConfig represents a named, dependency-ordered seed version.
type VersionConfig struct {
	Name      string        `yaml:"name" mapstructure:"name"`
	ID        string        `yaml:"id" mapstructure:"id"` // semver
	DependsOn []string      `yaml:"depends_on" mapstructure:"depends_on"`
	Options   *SeedDefaults `yaml:"options,omitempty" mapstructure:"options"`
}

// LoggingConfig represents logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json or text
	Output string `yaml:"output" mapstructure:"output"` // stdout, stderr, or file path
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Environment: EnvDevelopment,
		Stores: StoresConfig{
			MySQL: MySQLConfig{
				Port:               3306,
				TLS:                "preferred",
				MaxConnections:     10,
				MaxIdleConnections: 5,
			},
			Mongo: MongoConfig{
				URI:            "mongodb://localhost:27017",
				Database:       "polyseed",
				ConnectTimeout: 10,
			},
			Redis: RedisConfig{
				Addr:     "localhost:6379",
				PoolSize: 10,
			},
			Vector: VectorConfig{
				Path:       "polyseed-vectors.db",
				Dimensions: 384,
			},
		},
		Lifecycle: LifecycleConfig{
			MaxAttempts:          5,
			BaseDelaySeconds:     2,
			MonitorEnabled:       true,
			MonitorInterval:      60,
			ShutdownGraceSeconds: 2,
		},
		Health: HealthConfig{
			ProbeTimeoutSeconds: 5,
		},
		Seed: SeedConfig{
			Defaults: SeedDefaults{
				UserCount:               100,
				ProductCount:            50,
				OrderCount:              200,
				TaskCount:               100,
				MessageCount:            100,
				VectorCount:             100,
				Scenario:                "default",
				RetryAttempts:           3,
				RetryDelaySeconds:       1,
				EnableRollbackOnFailure: true,
			},
			Batch: BatchConfig{
				MySQLBatchSize:  500,
				MongoBatchSize:  250,
				RedisBatchSize:  200,
				VectorBatchSize: 64,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// IsProduction reports whether the configured environment is production.
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// ApplyOverrides applies CLI flag values on top of the loaded configuration.
// Zero values leave the existing setting untouched.
func (c *Config) ApplyOverrides(logLevel, logFormat, environment string, retryAttempts int) {
	if logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFormat != "" {
		c.Logging.Format = logFormat
	}
	if environment != "" {
		c.Environment = environment
	}
	if retryAttempts > 0 {
		c.Seed.Defaults.RetryAttempts = retryAttempts
	}
}

// Version returns the version config with the given name, or nil.
func (c *Config) Version(name string) *VersionConfig {
	for i := range c.Versions {
		if c.Versions[i].Name == name {
			return &c.Versions[i]
		}
	}
	return nil
}
