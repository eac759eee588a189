package util

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{0, "00:00:00.000"},
		{12 * time.Second, "00:00:12.000"},
		{90*time.Second + 500*time.Millisecond, "00:01:30.500"},
		{time.Hour + 2*time.Second, "01:00:02.000"},
		{-time.Second, "00:00:00.000"},
	}
	for _, tc := range cases {
		if got := FormatDuration(tc.in); got != tc.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseSeconds(t *testing.T) {
	d, err := ParseSeconds("12.500000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != 12500*time.Millisecond {
		t.Errorf("expected 12.5s, got %v", d)
	}

	d, err = ParseSeconds("N/A")
	if err != nil || d != 0 {
		t.Errorf("expected zero for N/A, got %v (%v)", d, err)
	}

	if _, err := ParseSeconds("abc"); err == nil {
		t.Error("expected error for non-numeric input")
	}
	if _, err := ParseSeconds("-1"); err == nil {
		t.Error("expected error for negative input")
	}
}

func TestParseFrameRate(t *testing.T) {
	if got := ParseFrameRate("30000/1001"); got < 29.96 || got > 29.98 {
		t.Errorf("unexpected frame rate %f", got)
	}
	if got := ParseFrameRate("24/0"); got != 0 {
		t.Errorf("expected 0 for zero denominator, got %f", got)
	}
	if got := ParseFrameRate("25"); got != 0 {
		t.Errorf("expected 0 for malformed rate, got %f", got)
	}
}

func TestFileHelpers(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "a", "b")
	if err := EnsureDir(nested); err != nil {
		t.Fatalf("EnsureDir: %v", err)
	}
	if FileExists(nested) {
		t.Error("directory must not count as a file")
	}

	path := filepath.Join(nested, "x.mp4")
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if !FileExists(path) {
		t.Error("expected file to exist")
	}

	CleanupFiles(path, filepath.Join(dir, "missing"))
	if FileExists(path) {
		t.Error("expected file to be removed")
	}
}

func TestMakeWorkspace(t *testing.T) {
	parent := filepath.Join(t.TempDir(), "runs")

	first, err := MakeWorkspace(parent, "run-*")
	if err != nil {
		t.Fatalf("MakeWorkspace: %v", err)
	}
	second, err := MakeWorkspace(parent, "run-*")
	if err != nil {
		t.Fatalf("MakeWorkspace: %v", err)
	}

	if first == second {
		t.Errorf("expected distinct workspaces, got %s twice", first)
	}
	if filepath.Dir(first) != parent {
		t.Errorf("workspace %s not under %s", first, parent)
	}
	if info, err := os.Stat(first); err != nil || !info.IsDir() {
		t.Errorf("workspace %s is not a directory", first)
	}
}
