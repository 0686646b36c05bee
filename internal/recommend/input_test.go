package recommend

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSessionFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write session file: %v", err)
	}
	return path
}

func TestLoadInput(t *testing.T) {
	path := writeSessionFile(t, `
session:
  duration_minutes: 45
  payer: Aetna
  categories: [therapeutic_exercise, manual_therapy]
  objective: "Progressive resistance exercise, 3x10."
  diagnosis_code: M62.81
codes:
  - id: 1
    code: "97110"
    description: Therapeutic exercise
    base_rate_cents: 4500
  - id: 2
    code: "97140"
    description: Manual therapy
    base_rate_cents: 4000
preferences:
  max_units_per_visit: 4
  guidelines:
    - "Prior auth on file through 2026-12-31"
`)

	in, err := LoadInput(path)
	if err != nil {
		t.Fatalf("LoadInput: %v", err)
	}
	if in.Session.DurationMinutes != 45 || in.Session.Payer != "Aetna" {
		t.Errorf("session = %+v", in.Session)
	}
	if len(in.Session.Categories) != 2 {
		t.Errorf("categories = %v", in.Session.Categories)
	}
	if len(in.Codes) != 2 || in.Codes[1].Code != "97140" {
		t.Errorf("codes = %+v", in.Codes)
	}
	if in.Preferences == nil || in.Preferences.MaxUnitsPerVisit == nil || *in.Preferences.MaxUnitsPerVisit != 4 {
		t.Errorf("preferences = %+v", in.Preferences)
	}
}

func TestLoadInput_Invalid(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"zero duration", "session:\n  duration_minutes: 0\n  payer: Aetna\n"},
		{"missing payer", "session:\n  duration_minutes: 45\n"},
		{"bad yaml", "session: [unclosed"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := LoadInput(writeSessionFile(t, c.content)); err == nil {
				t.Error("expected error")
			}
		})
	}

	if _, err := LoadInput(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("missing file should fail")
	}
}
