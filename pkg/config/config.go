package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"

	"github.com/ekaya-inc/ekaya-charts/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-charts/pkg/services"
)

// DefaultPath is the config file read when no path is given.
const DefaultPath = "config.yaml"

// Config holds all configuration for ekaya-charts.
// Values come from config.yaml and environment variables; environment
// variables override YAML values for fields that support both.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"3480"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// MaxBodyBytes caps the size of request bodies.
	MaxBodyBytes int64 `yaml:"max_body_bytes" env:"MAX_BODY_BYTES" env-default:"4194304"`

	// Recommendation pipeline configuration
	Pipeline PipelineConfig `yaml:"pipeline"`
}

// PipelineConfig holds the recommendation set quotas and scoring caps.
// Zero is meaningful for every field here, so defaults come from
// DefaultPipelineConfig rather than env-default tags.
type PipelineConfig struct {
	MinScorecards int `yaml:"min_scorecards" env:"PIPELINE_MIN_SCORECARDS"`
	// MaxScorecards of 0 leaves scorecards unbounded.
	MaxScorecards     int  `yaml:"max_scorecards" env:"PIPELINE_MAX_SCORECARDS"`
	MinVisualizations int  `yaml:"min_visualizations" env:"PIPELINE_MIN_VISUALIZATIONS"`
	RequireTable      bool `yaml:"require_table" env:"PIPELINE_REQUIRE_TABLE"`
	// Workers bounds per-item validation and scoring parallelism.
	Workers int `yaml:"workers" env:"PIPELINE_WORKERS"`

	Scoring ScoringConfig `yaml:"scoring"`
}

// ScoringConfig holds the maximum contribution of each quality factor.
type ScoringConfig struct {
	DataTypeMatchCap       float64 `yaml:"data_type_match_cap" env:"SCORING_DATA_TYPE_MATCH_CAP"`
	ColumnConfidenceCap    float64 `yaml:"column_confidence_cap" env:"SCORING_COLUMN_CONFIDENCE_CAP"`
	UserCorrectionBoostCap float64 `yaml:"user_correction_boost_cap" env:"SCORING_USER_CORRECTION_BOOST_CAP"`
	ClarityCap             float64 `yaml:"clarity_cap" env:"SCORING_CLARITY_CAP"`
}

// DefaultPipelineConfig returns six to ten scorecards, eight
// visualizations, one table and the 40/30/20/10 scoring split.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		MinScorecards:     6,
		MaxScorecards:     10,
		MinVisualizations: 8,
		RequireTable:      true,
		Workers:           4,
		Scoring: ScoringConfig{
			DataTypeMatchCap:       40,
			ColumnConfidenceCap:    30,
			UserCorrectionBoostCap: 20,
			ClarityCap:             10,
		},
	}
}

// Load reads configuration from the YAML file at path with environment
// variable overrides. A missing file is not an error: defaults and the
// environment are used instead. The version is injected at build time.
func Load(path, version string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	cfg := &Config{
		Version:  version,
		Pipeline: DefaultPipelineConfig(),
	}

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	} else if err := cleanenv.ReadConfig(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects quota and cap combinations the pipeline cannot honor.
func (c *Config) Validate() error {
	p := c.Pipeline
	switch {
	case p.MinScorecards < 0 || p.MaxScorecards < 0 || p.MinVisualizations < 0:
		return fmt.Errorf("%w: pipeline quotas must not be negative", apperrors.ErrInvalidConfig)
	case p.MaxScorecards > 0 && p.MaxScorecards < p.MinScorecards:
		return fmt.Errorf("%w: max_scorecards (%d) is below min_scorecards (%d)",
			apperrors.ErrInvalidConfig, p.MaxScorecards, p.MinScorecards)
	case p.Workers < 0:
		return fmt.Errorf("%w: workers must not be negative", apperrors.ErrInvalidConfig)
	}

	s := p.Scoring
	if s.DataTypeMatchCap < 0 || s.ColumnConfidenceCap < 0 || s.UserCorrectionBoostCap < 0 || s.ClarityCap < 0 {
		return fmt.Errorf("%w: scoring caps must not be negative", apperrors.ErrInvalidConfig)
	}
	if total := s.DataTypeMatchCap + s.ColumnConfidenceCap + s.UserCorrectionBoostCap + s.ClarityCap; total > 100 {
		return fmt.Errorf("%w: scoring caps sum to %g, above 100", apperrors.ErrInvalidConfig, total)
	}
	return nil
}

// ServiceConfig converts the pipeline section into the services form.
func (p PipelineConfig) ServiceConfig() services.PipelineConfig {
	return services.PipelineConfig{
		Rebalance: services.RebalanceConfig{
			MinScorecards:     p.MinScorecards,
			MaxScorecards:     p.MaxScorecards,
			MinVisualizations: p.MinVisualizations,
			RequireTable:      p.RequireTable,
		},
		Scoring: services.ScoringConfig{
			DataTypeMatchCap:       p.Scoring.DataTypeMatchCap,
			ColumnConfidenceCap:    p.Scoring.ColumnConfidenceCap,
			UserCorrectionBoostCap: p.Scoring.UserCorrectionBoostCap,
			ClarityCap:             p.Scoring.ClarityCap,
		},
		Workers: p.Workers,
	}
}

// Write renders cfg as YAML, in the layout Load reads.
func Write(w io.Writer, cfg *Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return enc.Close()
}
