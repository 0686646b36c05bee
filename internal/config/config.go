package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds all runtime configuration for a billalloc run.
type Config struct {
	DSN       string
	LogFormat string // "text" or "json"

	// serve
	ListenAddr string

	// recommend
	SessionFile string
	RatesFile   string
	CatalogFile string

	// fee-schedule ingest / plan
	FilePath string
	Force    bool

	// advisor
	AdvisorURL     string
	AdvisorAPIKey  string
	AdvisorModel   string
	AdvisorTimeout time.Duration
}

// ValidateFile checks that FilePath is set and accessible.
func (c *Config) ValidateFile() error {
	if c.FilePath == "" {
		return fmt.Errorf("--file is required")
	}
	if _, err := os.Stat(c.FilePath); err != nil {
		return fmt.Errorf("file not accessible: %w", err)
	}
	return nil
}

// ValidateDSN checks the database connection string is present.
func (c *Config) ValidateDSN() error {
	if c.DSN == "" {
		return fmt.Errorf("--dsn or DATABASE_URL is required")
	}
	return nil
}

// ValidateRecommend checks the one-shot recommendation inputs: a session
// file plus either a database or a rates file for reimbursement data.
func (c *Config) ValidateRecommend() error {
	if c.SessionFile == "" {
		return fmt.Errorf("--session is required")
	}
	if _, err := os.Stat(c.SessionFile); err != nil {
		return fmt.Errorf("session file not accessible: %w", err)
	}
	if c.DSN == "" && c.RatesFile == "" {
		return fmt.Errorf("--dsn, DATABASE_URL, or --rates-file is required")
	}
	return nil
}

// AdvisorEnabled reports whether an advisor endpoint is configured.
func (c *Config) AdvisorEnabled() bool {
	return c.AdvisorURL != ""
}
