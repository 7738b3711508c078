// Package config loads process configuration from GEARSIM_* environment
// variables.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Prefix is prepended to every variable name, e.g. GEARSIM_LOG_LEVEL.
const Prefix = "GEARSIM"

// Config holds the process-wide settings. Command-line flags may override
// some of them after Load.
type Config struct {
	LogLevel    string        `envconfig:"LOG_LEVEL" default:"info"`
	Epsilon     float64       `envconfig:"EPSILON" default:"0.001"`
	DriveSpeed  float64       `envconfig:"DRIVE_SPEED" default:"0.5"`
	Thickness   float64       `envconfig:"THICKNESS" default:"1.0"`
	MeshCells   int           `envconfig:"MESH_CELLS" default:"64"`
	FrameWidth  int           `envconfig:"FRAME_WIDTH" default:"800"`
	FrameHeight int           `envconfig:"FRAME_HEIGHT" default:"600"`
	RenderMode  string        `envconfig:"RENDER_MODE" default:"lines"`
	Diagnostics bool          `envconfig:"DIAGNOSTICS" default:"false"`
	EvalTimeout time.Duration `envconfig:"EVAL_TIMEOUT" default:"5s"`
}

// Load reads the GEARSIM_* variables, fills in defaults and validates the
// result.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values no component can work with.
func (c *Config) Validate() error {
	switch {
	case c.Epsilon <= 0:
		return fmt.Errorf("config: EPSILON must be positive, got %g", c.Epsilon)
	case c.Thickness <= 0:
		return fmt.Errorf("config: THICKNESS must be positive, got %g", c.Thickness)
	case c.MeshCells < 8:
		return fmt.Errorf("config: MESH_CELLS must be at least 8, got %d", c.MeshCells)
	case c.FrameWidth <= 0 || c.FrameHeight <= 0:
		return fmt.Errorf("config: frame size must be positive, got %dx%d", c.FrameWidth, c.FrameHeight)
	case c.EvalTimeout <= 0:
		return fmt.Errorf("config: EVAL_TIMEOUT must be positive, got %s", c.EvalTimeout)
	}
	return nil
}
