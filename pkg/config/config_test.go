package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ekaya-inc/ekaya-charts/pkg/apperrors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), "v1.2.3")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Version != "v1.2.3" {
		t.Errorf("Version = %q, want %q", cfg.Version, "v1.2.3")
	}
	if cfg.Port != "3480" {
		t.Errorf("Port = %q, want %q", cfg.Port, "3480")
	}
	if cfg.BindAddr != "127.0.0.1" {
		t.Errorf("BindAddr = %q, want %q", cfg.BindAddr, "127.0.0.1")
	}
	if cfg.MaxBodyBytes != 4194304 {
		t.Errorf("MaxBodyBytes = %d, want 4194304", cfg.MaxBodyBytes)
	}

	p := cfg.Pipeline
	if p.MinScorecards != 6 || p.MaxScorecards != 10 || p.MinVisualizations != 8 || !p.RequireTable || p.Workers != 4 {
		t.Errorf("unexpected pipeline defaults: %+v", p)
	}
	if p.Scoring.DataTypeMatchCap != 40 || p.Scoring.ColumnConfidenceCap != 30 ||
		p.Scoring.UserCorrectionBoostCap != 20 || p.Scoring.ClarityCap != 10 {
		t.Errorf("unexpected scoring defaults: %+v", p.Scoring)
	}
}

func TestLoad_YAMLValues(t *testing.T) {
	path := writeConfig(t, `
port: "4000"
env: dev
pipeline:
  min_scorecards: 4
  max_scorecards: 0
  min_visualizations: 5
  require_table: false
  workers: 2
`)

	cfg, err := Load(path, "test")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != "4000" {
		t.Errorf("Port = %q, want %q", cfg.Port, "4000")
	}
	if cfg.Env != "dev" {
		t.Errorf("Env = %q, want %q", cfg.Env, "dev")
	}
	p := cfg.Pipeline
	if p.MinScorecards != 4 || p.MaxScorecards != 0 || p.MinVisualizations != 5 || p.RequireTable || p.Workers != 2 {
		t.Errorf("unexpected pipeline: %+v", p)
	}
	// Unset caps keep their defaults.
	if p.Scoring.DataTypeMatchCap != 40 {
		t.Errorf("DataTypeMatchCap = %g, want 40", p.Scoring.DataTypeMatchCap)
	}
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	path := writeConfig(t, "port: \"4000\"\npipeline:\n  min_scorecards: 4\n")
	t.Setenv("PORT", "5000")
	t.Setenv("PIPELINE_MIN_SCORECARDS", "2")

	cfg, err := Load(path, "test")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != "5000" {
		t.Errorf("Port = %q, want %q", cfg.Port, "5000")
	}
	if cfg.Pipeline.MinScorecards != 2 {
		t.Errorf("MinScorecards = %d, want 2", cfg.Pipeline.MinScorecards)
	}
}

func TestLoad_EnvWithoutFile(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SCORING_CLARITY_CAP", "5")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), "test")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
	if cfg.Pipeline.Scoring.ClarityCap != 5 {
		t.Errorf("ClarityCap = %g, want 5", cfg.Pipeline.Scoring.ClarityCap)
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "pipeline: [unterminated\n")
	if _, err := Load(path, "test"); err == nil {
		t.Fatal("Load() expected error for malformed YAML")
	}
}

func TestLoad_InvalidPipeline(t *testing.T) {
	path := writeConfig(t, "pipeline:\n  min_scorecards: 8\n  max_scorecards: 3\n")
	_, err := Load(path, "test")
	if !errors.Is(err, apperrors.ErrInvalidConfig) {
		t.Fatalf("Load() error = %v, want ErrInvalidConfig", err)
	}
}

func validConfig() *Config {
	return &Config{Pipeline: DefaultPipelineConfig()}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"unbounded scorecards", func(c *Config) { c.Pipeline.MaxScorecards = 0 }, false},
		{"max equals min", func(c *Config) { c.Pipeline.MaxScorecards = 6 }, false},
		{"max below min", func(c *Config) { c.Pipeline.MaxScorecards = 5 }, true},
		{"negative min", func(c *Config) { c.Pipeline.MinVisualizations = -1 }, true},
		{"negative workers", func(c *Config) { c.Pipeline.Workers = -2 }, true},
		{"negative cap", func(c *Config) { c.Pipeline.Scoring.ClarityCap = -1 }, true},
		{"caps above 100", func(c *Config) { c.Pipeline.Scoring.ClarityCap = 11 }, true},
		{"caps below 100", func(c *Config) { c.Pipeline.Scoring.DataTypeMatchCap = 20 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				if !errors.Is(err, apperrors.ErrInvalidConfig) {
					t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
				}
			} else if err != nil {
				t.Errorf("Validate() unexpected error: %v", err)
			}
		})
	}
}

func TestServiceConfig(t *testing.T) {
	sc := validConfig().Pipeline.ServiceConfig()

	if sc.Rebalance.MinScorecards != 6 || sc.Rebalance.MaxScorecards != 10 ||
		sc.Rebalance.MinVisualizations != 8 || !sc.Rebalance.RequireTable {
		t.Errorf("unexpected rebalance config: %+v", sc.Rebalance)
	}
	if sc.Scoring.DataTypeMatchCap != 40 || sc.Scoring.ClarityCap != 10 {
		t.Errorf("unexpected scoring config: %+v", sc.Scoring)
	}
	if sc.Workers != 4 {
		t.Errorf("Workers = %d, want 4", sc.Workers)
	}
}

func TestWrite_RoundTripsThroughLoad(t *testing.T) {
	cfg := validConfig()
	cfg.Port = "4100"
	cfg.Pipeline.MinScorecards = 3
	cfg.Version = "not-written"

	var buf bytes.Buffer
	if err := Write(&buf, cfg); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if strings.Contains(buf.String(), "not-written") {
		t.Error("Write() should not emit Version")
	}
	if !strings.Contains(buf.String(), "min_scorecards: 3") {
		t.Errorf("Write() output missing pipeline section:\n%s", buf.String())
	}

	loaded, err := Load(writeConfig(t, buf.String()), "v2")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Port != "4100" || loaded.Pipeline.MinScorecards != 3 {
		t.Errorf("round trip lost values: %+v", loaded)
	}
}
