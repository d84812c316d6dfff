// Package config provides centralized configuration management for the
// pipeline. It loads configuration from environment variables with sensible
// defaults and validates all settings on startup to fail fast on
// misconfiguration.
package config

import "time"

// Config holds all pipeline configuration.
// All settings can be configured via environment variables.
type Config struct {
	Feed    FeedConfig
	Paths   PathConfig
	ILS     ILSConfig
	Finance FinanceConfig
	Logging LoggingConfig
}

// FeedConfig identifies the feed to the financial system and carries the
// org-level constants stamped into every record.
type FeedConfig struct {
	// Name is the feed name registered with the financial system (default: GENERALLIBRARY)
	Name string `env:"FEED_NAME" default:"GENERALLIBRARY"`

	// ID is the two-character feed identifier used in batch file names (default: LG)
	ID string `env:"FEED_ID" default:"LG"`

	// ChartCode is the chart of accounts code for every line (default: 3)
	ChartCode string `env:"FEED_CHART_CODE" default:"3"`

	// ObjectCode is the object code for every line (default: 9200)
	ObjectCode string `env:"FEED_OBJECT_CODE" default:"9200"`

	// ShipState is the delivery state code (default: CA)
	ShipState string `env:"FEED_SHIP_STATE" default:"CA"`

	// ShipZip is the delivery zip code (default: 95616-5292)
	ShipZip string `env:"FEED_SHIP_ZIP" default:"95616-5292"`

	// PaymentGroup is the payment group code (default: 2)
	PaymentGroup string `env:"FEED_PAYMENT_GROUP" default:"2"`

	// Strict makes malformed amounts and dates reject a line instead of
	// degrading to blanks (default: true)
	Strict bool `env:"FEED_STRICT" default:"true"`
}

// PathConfig holds the pipeline's working directories.
type PathConfig struct {
	// Inbox is where exported invoice XML files arrive (required)
	Inbox string `env:"PATH_INBOX" required:"true"`

	// Outbox is where finished feed files are delivered (required)
	Outbox string `env:"PATH_OUTBOX" required:"true"`

	// Archive is where processed input files are moved (required)
	Archive string `env:"PATH_ARCHIVE" required:"true"`

	// State is where the invoice log and sequence counter live (required)
	State string `env:"PATH_STATE" required:"true"`

	// Confirmations is where payment confirmation XML is written; the
	// outbox is used when unset
	Confirmations string `env:"PATH_CONFIRMATIONS"`

	// Feed is where finished feed files are staged before upload; the
	// state dir is used when unset
	Feed string `env:"PATH_FEED"`
}

// ILSConfig holds the library system API settings.
type ILSConfig struct {
	// BaseURL is the invoice listing endpoint (required for confirmation runs)
	BaseURL string `env:"ILS_BASE_URL"`

	// APIKey authenticates against the API
	APIKey string `env:"ILS_API_KEY"`

	// Query selects the invoices to list (default: status~ready_to_be_paid)
	Query string `env:"ILS_QUERY" default:"status~ready_to_be_paid"`

	// PageSize is the listing page size; the API caps it at 100 (default: 100)
	PageSize int `env:"ILS_PAGE_SIZE" default:"100"`

	// MaxParallel bounds concurrent page fetches (default: 20)
	MaxParallel int `env:"ILS_MAX_PARALLEL" default:"20"`

	// Timeout is the per-request timeout (default: 30s)
	Timeout time.Duration `env:"ILS_TIMEOUT" default:"30s"`
}

// FinanceConfig holds the financial reporting database settings.
type FinanceConfig struct {
	// URL is the PostgreSQL connection string
	// Supports both FINANCE_DATABASE_URL and DATABASE_URL env vars
	URL string `env:"FINANCE_DATABASE_URL" envAlt:"DATABASE_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 4)
	MaxConns int `env:"FINANCE_DB_MAX_CONNS" default:"4"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// ConfirmationDir returns the directory confirmation XML is written to.
func (c *Config) ConfirmationDir() string {
	if c.Paths.Confirmations != "" {
		return c.Paths.Confirmations
	}
	return c.Paths.Outbox
}

// FeedDir returns the directory feed files are staged in before upload.
func (c *Config) FeedDir() string {
	if c.Paths.Feed != "" {
		return c.Paths.Feed
	}
	return c.Paths.State
}
