package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(Defaults(), *c); diff != "" {
		t.Fatalf("defaults (-want +got):\n%s", diff)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("ARRIVALS_WINDOW_MONTHS", "6")
	t.Setenv("ARRIVALS_OUTPUT_FORMAT", "csv")
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.WindowMonths != 6 || c.OutputFormat != "csv" {
		t.Fatalf("env not applied: %+v", c)
	}
}

func TestSaveAndLoad(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	want := Defaults()
	want.SourcePath = "/data/arrivals.csv"
	want.WindowMonths = 24
	want.Delimiter = ";"
	if err := Save(&want, ""); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(home, ".arrivals", "config.yaml")); err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	got, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(want, *got); diff != "" {
		t.Fatalf("round trip (-want +got):\n%s", diff)
	}
}

func TestLoadExplicitFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	p := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(p, []byte("top_n: 3\nsheet: arrivals\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	c, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.TopN != 3 || c.Sheet != "arrivals" || c.WindowMonths != 12 {
		t.Fatalf("config = %+v", c)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("an explicit config path that does not exist should fail")
	}
}
