package normalize

import (
	"os"
	"path/filepath"
	"testing"
)

func f64Ptr(v float64) *float64 { return &v }

func TestDollarsToCents(t *testing.T) {
	if got := DollarsToCents(nil); got != nil {
		t.Errorf("nil input: got %v", got)
	}
	if got := DollarsToCents(f64Ptr(52.50)); *got != 5250 {
		t.Errorf("52.50: got %d", *got)
	}
	// Round, not truncate.
	if got := DollarsToCents(f64Ptr(0.015)); *got != 2 {
		t.Errorf("0.015: got %d, want 2", *got)
	}
}

func TestPercentToBasisPoints(t *testing.T) {
	if got := PercentToBasisPoints(f64Ptr(12.34)); *got != 1234 {
		t.Errorf("12.34%%: got %d", *got)
	}
}

func TestFormatCents(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{5250, "$52.50"},
		{5, "$0.05"},
		{0, "$0.00"},
		{-150, "-$1.50"},
	}
	for _, c := range cases {
		if got := FormatCents(c.in); got != c.want {
			t.Errorf("FormatCents(%d) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestPayer(t *testing.T) {
	if got := Payer("  Blue   Cross  Blue Shield "); got != "blue cross blue shield" {
		t.Errorf("got %q", got)
	}
	if got := Payer("   "); got != "" {
		t.Errorf("whitespace: got %q", got)
	}
}

func TestCode(t *testing.T) {
	if got := Code(" 97110 "); got != "97110" {
		t.Errorf("got %q", got)
	}
	if got := Code("g-0151"); got != "G0151" {
		t.Errorf("got %q", got)
	}
	if got := Code("--"); got != "" {
		t.Errorf("non-alnum only: got %q", got)
	}
}

func TestParseDate(t *testing.T) {
	if got := ParseDate("2025-06-01"); got == nil || got.Year() != 2025 {
		t.Errorf("iso date: got %v", got)
	}
	if got := ParseDate("06/01/2025"); got == nil || got.Month() != 6 {
		t.Errorf("us date: got %v", got)
	}
	if got := ParseDate("not a date"); got != nil {
		t.Errorf("garbage: got %v", got)
	}
}

func TestFileHash(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.bin")
	os.WriteFile(path, []byte("hello"), 0644)

	sha, err := FileHash(path)
	if err != nil {
		t.Fatalf("FileHash: %v", err)
	}
	// sha256("hello")
	want := "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	if sha != want {
		t.Errorf("got %s, want %s", sha, want)
	}

	if _, err := FileHash(filepath.Join(dir, "missing")); err == nil {
		t.Error("expected error for missing file")
	}
}
