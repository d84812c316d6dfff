package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Load reads configuration from environment variables.
// It applies defaults for unset values and validates the result.
// Returns an error if required values are missing or validation fails.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := loadStruct(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// loadStruct recursively populates struct fields from environment variables.
func loadStruct(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		// Skip unexported fields
		if !fieldVal.CanSet() {
			continue
		}

		// Recurse into nested structs
		if field.Type.Kind() == reflect.Struct && field.Type != reflect.TypeOf(time.Time{}) {
			if err := loadStruct(fieldVal); err != nil {
				return err
			}
			continue
		}

		envName := field.Tag.Get("env")
		envAlt := field.Tag.Get("envAlt")
		defaultVal := field.Tag.Get("default")
		required := field.Tag.Get("required") == "true"

		if envName == "" {
			continue
		}

		// Try primary env var, then alternate
		value := os.Getenv(envName)
		if value == "" && envAlt != "" {
			value = os.Getenv(envAlt)
		}

		// Apply default if not set
		if value == "" {
			if required {
				return fmt.Errorf("required environment variable %s is not set", envName)
			}
			value = defaultVal
		}

		if value == "" {
			continue
		}

		if err := setField(fieldVal, value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", envName, value, err)
		}
	}

	return nil
}

// setField sets a reflect.Value from a string based on its type.
func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int64:
		// Handle time.Duration specially
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			field.Set(reflect.ValueOf(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer: %w", err)
			}
			field.SetInt(i)
		}

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	if c.Feed.Name == "" {
		errs = append(errs, "FEED_NAME must not be empty")
	}
	if len(c.Feed.Name) > 15 {
		errs = append(errs, fmt.Sprintf("FEED_NAME (%q) must be at most 15 characters", c.Feed.Name))
	}
	if len(c.Feed.ID) != 2 {
		errs = append(errs, fmt.Sprintf("FEED_ID (%q) must be exactly 2 characters", c.Feed.ID))
	}
	if c.Feed.ChartCode == "" {
		errs = append(errs, "FEED_CHART_CODE must not be empty")
	}
	if c.Feed.ObjectCode == "" {
		errs = append(errs, "FEED_OBJECT_CODE must not be empty")
	}

	if c.ILS.PageSize <= 0 || c.ILS.PageSize > 100 {
		errs = append(errs, fmt.Sprintf("ILS_PAGE_SIZE (%d) must be 1-100", c.ILS.PageSize))
	}
	if c.ILS.MaxParallel <= 0 {
		errs = append(errs, "ILS_MAX_PARALLEL must be positive")
	}
	if c.ILS.Timeout <= 0 {
		errs = append(errs, "ILS_TIMEOUT must be positive")
	}

	if c.Finance.MaxConns <= 0 {
		errs = append(errs, "FINANCE_DB_MAX_CONNS must be positive")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// String returns a safe string representation of the config for logging.
// Sensitive values like connection strings and API keys are masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	b.WriteString(fmt.Sprintf("Feed: {Name: %q, ID: %q, Strict: %v}, ",
		c.Feed.Name, c.Feed.ID, c.Feed.Strict))
	b.WriteString(fmt.Sprintf("Paths: {Inbox: %q, Outbox: %q, Archive: %q, State: %q}, ",
		c.Paths.Inbox, c.Paths.Outbox, c.Paths.Archive, c.Paths.State))
	b.WriteString(fmt.Sprintf("ILS: {BaseURL: %q, APIKey: [MASKED], PageSize: %d, MaxParallel: %d}, ",
		c.ILS.BaseURL, c.ILS.PageSize, c.ILS.MaxParallel))
	b.WriteString(fmt.Sprintf("Finance: {URL: [MASKED], MaxConns: %d}, ", c.Finance.MaxConns))
	b.WriteString(fmt.Sprintf("Logging: {Level: %q, Format: %q}",
		c.Logging.Level, c.Logging.Format))
	b.WriteString("}")
	return b.String()
}
