// Package config loads stepalign settings from YAML with environment
// overrides and validates them.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/aria-lang/stepalign-go/internal/alignment"
	"github.com/aria-lang/stepalign-go/internal/sequence"
)

// Environment variables that override file values.
const (
	EnvHost     = "STEPALIGN_HOST"
	EnvPort     = "STEPALIGN_PORT"
	EnvLogLevel = "STEPALIGN_LOG_LEVEL"
)

// Config is the full configuration tree.
type Config struct {
	Scoring ScoringConfig `yaml:"scoring"`
	Server  ServerConfig  `yaml:"server"`
	Limits  LimitsConfig  `yaml:"limits"`
	Logging LoggingConfig `yaml:"logging"`
}

// ScoringConfig describes the default cost model.
//
// Substitution is the row text accepted by alignment.ParseSubstitutionMatrix,
// e.g. "10 2 5 2; 2 10 2 5; 5 2 10 2; 2 5 2 10".
type ScoringConfig struct {
	Alphabet     string  `yaml:"alphabet" validate:"required"`
	GapCost      float64 `yaml:"gap_cost"`
	Substitution string  `yaml:"substitution" validate:"required"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host            string        `yaml:"host" validate:"required"`
	Port            int           `yaml:"port" validate:"gte=1,lte=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" validate:"gt=0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" validate:"gt=0"`
	RequestTimeout  time.Duration `yaml:"request_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gt=0"`
}

// LimitsConfig bounds the work one request can cause.
//
// A filled matrix costs about 34 bytes per interior cell including its undo
// history, so MaxCells bounds one alignment and MaxTotalCells bounds every
// live session together.
type LimitsConfig struct {
	MaxSequenceLength  int           `yaml:"max_sequence_length" validate:"gte=1"`
	MaxCells           int           `yaml:"max_cells" validate:"gte=1"`
	MaxAlignments      int           `yaml:"max_alignments" validate:"gte=1"`
	MaxSessions        int           `yaml:"max_sessions" validate:"gte=1"`
	MaxTotalCells      int           `yaml:"max_total_cells" validate:"gtefield=MaxCells"`
	SessionIdleTimeout time.Duration `yaml:"session_idle_timeout" validate:"gte=0"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Scoring: ScoringConfig{
			Alphabet:     sequence.Nucleotides,
			GapCost:      alignment.DefaultGapCost,
			Substitution: alignment.FormatSubstitutionMatrix(alignment.DefaultSubstitution()),
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			RequestTimeout:  60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Limits: LimitsConfig{
			MaxSequenceLength:  5000,
			MaxCells:           1_000_000,
			MaxAlignments:      100,
			MaxSessions:        1000,
			MaxTotalCells:      20_000_000,
			SessionIdleTimeout: 30 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

var validate = validator.New()

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvHost); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: invalid port %q", EnvPort, v)
		}
		c.Server.Port = port
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	return nil
}

// Validate checks field constraints and that the scoring section builds a
// usable cost model.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("invalid config: %s failed %q", verrs[0].Namespace(), verrs[0].Tag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.Scoring.CostModel(); err != nil {
		return fmt.Errorf("invalid config: scoring: %w", err)
	}
	return nil
}

// CostModel builds the cost model the scoring section describes.
func (s ScoringConfig) CostModel() (*alignment.CostModel, error) {
	matrix, err := alignment.ParseSubstitutionMatrix(s.Substitution)
	if err != nil {
		return nil, err
	}
	return alignment.NewCostModel(s.Alphabet, s.GapCost, matrix)
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
