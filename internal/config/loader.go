package config

import (
	"fmt"
	"os"
	"regexp"

	"github.com/spf13/viper"
)

// Load reads configuration from the specified file path.
// It supports YAML files and performs environment variable substitution.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return fromViper(v)
}

// LoadFromViper creates a Config from an existing Viper instance.
// Useful for testing or when Viper is configured externally.
func LoadFromViper(v *viper.Viper) (*Config, error) {
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	substituteEnvVars(cfg)

	// POLYSEED_ENV always wins so a deploy can force the environment
	// without touching the config file.
	if env := os.Getenv("POLYSEED_ENV"); env != "" {
		cfg.Environment = env
	}

	return cfg, nil
}

// envVarPattern matches ${VAR_NAME} or $VAR_NAME patterns.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// substituteEnvVars replaces ${VAR_NAME} patterns in credential-bearing
// fields with environment variable values.
func substituteEnvVars(cfg *Config) {
	cfg.Environment = expandEnvVar(cfg.Environment)

	cfg.Stores.MySQL.Host = expandEnvVar(cfg.Stores.MySQL.Host)
	cfg.Stores.MySQL.User = expandEnvVar(cfg.Stores.MySQL.User)
	cfg.Stores.MySQL.Password = expandEnvVar(cfg.Stores.MySQL.Password)
	cfg.Stores.MySQL.Database = expandEnvVar(cfg.Stores.MySQL.Database)

	cfg.Stores.Mongo.URI = expandEnvVar(cfg.Stores.Mongo.URI)
	cfg.Stores.Mongo.Database = expandEnvVar(cfg.Stores.Mongo.Database)

	cfg.Stores.Redis.Addr = expandEnvVar(cfg.Stores.Redis.Addr)
	cfg.Stores.Redis.Password = expandEnvVar(cfg.Stores.Redis.Password)

	cfg.Stores.Vector.Path = expandEnvVar(cfg.Stores.Vector.Path)
}

// expandEnvVar substitutes environment variables in a single value.
// Unset variables expand to the empty string.
func expandEnvVar(value string) string {
	return envVarPattern.ReplaceAllStringFunc(value, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		name := groups[1]
		if name == "" {
			name = groups[2]
		}
		return os.Getenv(name)
	})
}
