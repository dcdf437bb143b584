package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

// Validate checks the configuration for required fields and valid values.
func (c *Config) Validate() error {
	var errors ValidationErrors

	switch c.Environment {
	case EnvDevelopment, EnvStaging, EnvProduction:
	case "":
		errors = append(errors, ValidationError{
			Field:   "environment",
			Message: "environment must be set",
		})
	default:
		errors = append(errors, ValidationError{
			Field:   "environment",
			Message: fmt.Sprintf("unknown environment %q (expected development, staging, or production)", c.Environment),
		})
	}

	errors = append(errors, c.validateStores()...)
	errors = append(errors, c.validateLifecycle()...)
	errors = append(errors, c.validateSeed()...)
	errors = append(errors, c.validateVersions()...)
	errors = append(errors, c.validateLogging()...)

	if len(errors) > 0 {
		return errors
	}
	return nil
}

func (c *Config) validateStores() ValidationErrors {
	var errors ValidationErrors

	if c.Stores.MySQL.Host == "" {
		errors = append(errors, ValidationError{Field: "stores.mysql.host", Message: "host is required"})
	}
	if c.Stores.MySQL.Port <= 0 || c.Stores.MySQL.Port > 65535 {
		errors = append(errors, ValidationError{Field: "stores.mysql.port", Message: "port must be between 1 and 65535"})
	}
	if c.Stores.MySQL.User == "" {
		errors = append(errors, ValidationError{Field: "stores.mysql.user", Message: "user is required"})
	}
	if c.Stores.MySQL.Database == "" {
		errors = append(errors, ValidationError{Field: "stores.mysql.database", Message: "database is required"})
	}
	switch c.Stores.MySQL.TLS {
	case "", "disable", "preferred", "required":
	default:
		errors = append(errors, ValidationError{
			Field:   "stores.mysql.tls",
			Message: fmt.Sprintf("invalid tls mode %q (expected disable, preferred, or required)", c.Stores.MySQL.TLS),
		})
	}

	if c.Stores.Mongo.URI == "" {
		errors = append(errors, ValidationError{Field: "stores.mongo.uri", Message: "uri is required"})
	} else if !strings.HasPrefix(c.Stores.Mongo.URI, "mongodb://") && !strings.HasPrefix(c.Stores.Mongo.URI, "mongodb+srv://") {
		errors = append(errors, ValidationError{Field: "stores.mongo.uri", Message: "uri must start with mongodb:// or mongodb+srv://"})
	}
	if c.Stores.Mongo.Database == "" {
		errors = append(errors, ValidationError{Field: "stores.mongo.database", Message: "database is required"})
	}

	if c.Stores.Redis.Addr == "" {
		errors = append(errors, ValidationError{Field: "stores.redis.addr", Message: "addr is required"})
	}

	if c.Stores.Vector.Path == "" {
		errors = append(errors, ValidationError{Field: "stores.vector.path", Message: "path is required"})
	}
	if c.Stores.Vector.Dimensions <= 0 {
		errors = append(errors, ValidationError{Field: "stores.vector.dimensions", Message: "dimensions must be positive"})
	}

	return errors
}

func (c *Config) validateLifecycle() ValidationErrors {
	var errors ValidationErrors

	if c.Lifecycle.MaxAttempts <= 0 {
		errors = append(errors, ValidationError{Field: "lifecycle.max_attempts", Message: "max_attempts must be positive"})
	}
	if c.Lifecycle.BaseDelaySeconds <= 0 {
		errors = append(errors, ValidationError{Field: "lifecycle.base_delay_seconds", Message: "base_delay_seconds must be positive"})
	}
	if c.Lifecycle.MonitorEnabled && c.Lifecycle.MonitorInterval <= 0 {
		errors = append(errors, ValidationError{Field: "lifecycle.monitor_interval_seconds", Message: "monitor_interval_seconds must be positive when monitoring is enabled"})
	}
	if c.Health.ProbeTimeoutSeconds <= 0 {
		errors = append(errors, ValidationError{Field: "health.probe_timeout_seconds", Message: "probe_timeout_seconds must be positive"})
	}

	return errors
}

func (c *Config) validateSeed() ValidationErrors {
	var errors ValidationErrors
	d := c.Seed.Defaults

	counts := map[string]int{
		"seed.defaults.user_count":    d.UserCount,
		"seed.defaults.product_count": d.ProductCount,
		"seed.defaults.order_count":   d.OrderCount,
		"seed.defaults.task_count":    d.TaskCount,
		"seed.defaults.message_count": d.MessageCount,
		"seed.defaults.vector_count":  d.VectorCount,
	}
	for field, count := range counts {
		if count < 0 {
			errors = append(errors, ValidationError{Field: field, Message: "count must not be negative"})
		}
	}

	if d.RetryAttempts < 0 {
		errors = append(errors, ValidationError{Field: "seed.defaults.retry_attempts", Message: "retry_attempts must not be negative"})
	}

	batches := map[string]int{
		"seed.batch.mysql_batch_size":  c.Seed.Batch.MySQLBatchSize,
		"seed.batch.mongo_batch_size":  c.Seed.Batch.MongoBatchSize,
		"seed.batch.redis_batch_size":  c.Seed.Batch.RedisBatchSize,
		"seed.batch.vector_batch_size": c.Seed.Batch.VectorBatchSize,
	}
	for field, size := range batches {
		if size <= 0 {
			errors = append(errors, ValidationError{Field: field, Message: "batch size must be positive"})
		}
	}

	return errors
}

func (c *Config) validateVersions() ValidationErrors {
	var errors ValidationErrors

	seen := make(map[string]bool)
	for i, v := range c.Versions {
		field := fmt.Sprintf("versions[%d]", i)
		if v.Name == "" {
			errors = append(errors, ValidationError{Field: field + ".name", Message: "name is required"})
			continue
		}
		if seen[v.Name] {
			errors = append(errors, ValidationError{Field: field + ".name", Message: fmt.Sprintf("duplicate version name %q", v.Name)})
		}
		seen[v.Name] = true
		if v.ID == "" {
			errors = append(errors, ValidationError{Field: field + ".id", Message: "id (semver) is required"})
		}
		for _, dep := range v.DependsOn {
			if dep == v.Name {
				errors = append(errors, ValidationError{Field: field + ".depends_on", Message: "version cannot depend on itself"})
			}
		}
	}

	// Dependencies must reference declared versions.
	for i, v := range c.Versions {
		for _, dep := range v.DependsOn {
			if !seen[dep] {
				errors = append(errors, ValidationError{
					Field:   fmt.Sprintf("versions[%d].depends_on", i),
					Message: fmt.Sprintf("unknown version %q", dep),
				})
			}
		}
	}

	return errors
}

func (c *Config) validateLogging() ValidationErrors {
	var errors ValidationErrors

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid level %q (expected debug, info, warn, or error)", c.Logging.Level),
		})
	}
	switch c.Logging.Format {
	case "", "json", "text":
	default:
		errors = append(errors, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("invalid format %q (expected json or text)", c.Logging.Format),
		})
	}

	return errors
}
