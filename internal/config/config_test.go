package config

import (
	"os"
	"path/filepath"
	"testing"
)

func tempFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "f.yaml")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestValidateFile(t *testing.T) {
	c := &Config{}
	if err := c.ValidateFile(); err == nil {
		t.Error("empty FilePath should fail")
	}

	c.FilePath = filepath.Join(t.TempDir(), "missing.parquet")
	if err := c.ValidateFile(); err == nil {
		t.Error("missing file should fail")
	}

	c.FilePath = tempFile(t)
	if err := c.ValidateFile(); err != nil {
		t.Errorf("existing file: %v", err)
	}
}

func TestValidateDSN(t *testing.T) {
	c := &Config{}
	if err := c.ValidateDSN(); err == nil {
		t.Error("empty DSN should fail")
	}
	c.DSN = "postgresql://localhost/billing"
	if err := c.ValidateDSN(); err != nil {
		t.Errorf("ValidateDSN: %v", err)
	}
}

func TestValidateRecommend(t *testing.T) {
	c := &Config{}
	if err := c.ValidateRecommend(); err == nil {
		t.Error("missing session file should fail")
	}

	c.SessionFile = tempFile(t)
	if err := c.ValidateRecommend(); err == nil {
		t.Error("no rate source should fail")
	}

	c.RatesFile = "rates.yaml"
	if err := c.ValidateRecommend(); err != nil {
		t.Errorf("rates file satisfies the rate source: %v", err)
	}

	c.RatesFile = ""
	c.DSN = "postgresql://localhost/billing"
	if err := c.ValidateRecommend(); err != nil {
		t.Errorf("dsn satisfies the rate source: %v", err)
	}
}

func TestAdvisorEnabled(t *testing.T) {
	c := &Config{}
	if c.AdvisorEnabled() {
		t.Error("no URL: advisor should be disabled")
	}
	c.AdvisorURL = "https://api.openai.com"
	if !c.AdvisorEnabled() {
		t.Error("URL set: advisor should be enabled")
	}
}
