package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tsawler/pdfcore/core"
)

// TestDefault tests that the defaults mirror core.DefaultLimits
func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.CoreLimits() != core.DefaultLimits() {
		t.Errorf("CoreLimits = %+v", cfg.CoreLimits())
	}
	if cfg.Avail.HeaderProbe != 1024 || cfg.Avail.TailProbe != 1024 {
		t.Errorf("Avail = %+v", cfg.Avail)
	}
}

// TestParse tests partial files merged over the defaults
func TestParse(t *testing.T) {
	t.Setenv("PDFCORE_TEST_PASSWORD", "s3cret")
	data := []byte(`
password: ${PDFCORE_TEST_PASSWORD}
limits:
  max_parse_depth: 16
  max_xref_chain: 0
log:
  level: debug
  format: json
avail:
  tail_probe: 4096
`)
	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Password != "s3cret" {
		t.Errorf("Password = %q", cfg.Password)
	}
	limits := cfg.CoreLimits()
	if limits.MaxParseDepth != 16 {
		t.Errorf("MaxParseDepth = %d", limits.MaxParseDepth)
	}
	if limits.MaxXRefChain != core.DefaultLimits().MaxXRefChain {
		t.Errorf("zero MaxXRefChain not defaulted: %d", limits.MaxXRefChain)
	}
	if cfg.Avail.TailProbe != 4096 || cfg.Avail.HeaderProbe != 1024 {
		t.Errorf("Avail = %+v", cfg.Avail)
	}

	var buf bytes.Buffer
	cfg.Logger(&buf).Debug("probe", "objnum", 3)
	if !strings.Contains(buf.String(), `"objnum":3`) {
		t.Errorf("json debug output = %q", buf.String())
	}
}

// TestParseErrors tests rejected configurations
func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad yaml", "limits: [1, 2"},
		{"bad level", "log:\n  level: loud\n"},
		{"bad format", "log:\n  format: xml\n"},
		{"negative limit", "limits:\n  max_parse_depth: -1\n"},
		{"negative probe", "avail:\n  header_probe: -5\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.data)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

// TestLoadSave tests a round trip through a file
func TestLoadSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pdfcore.yaml")
	cfg := Default()
	cfg.Log.Level = "warn"
	cfg.Limits.MaxPageTreeNodes = 100
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Log.Level != "warn" || got.Limits.MaxPageTreeNodes != 100 {
		t.Errorf("loaded %+v", got)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file err = %v", err)
	}
}
