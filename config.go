package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config holds every tunable of the conversion. The zero value is not
// useful; start from DefaultConfig.
type Config struct {
	Resize ResizeConfig `toml:"resize"`
	Dither DitherConfig `toml:"dither"`
	Tool   ToolConfig   `toml:"tool"`
}

type ResizeConfig struct {
	MaxWidth  int `toml:"max_width"`
	MaxHeight int `toml:"max_height"`
	// PadThreshold is the size below which the pixel buffer is padded to
	// power-of-two dimensions.
	PadThreshold int `toml:"pad_threshold"`
	// Gain brightens every sampled channel to offset the darkening of the
	// burn-level quantization.
	Gain float64 `toml:"gain"`
}

type DitherConfig struct {
	BucketWidth int `toml:"bucket_width"`
	// Weights are the diffusion numerators for the right, below-left,
	// below and below-right neighbours.
	Weights [4]int `toml:"weights"`
	Divisor int    `toml:"divisor"`
}

type ToolConfig struct {
	// Depth is the tool engagement depth in mm, also the resting Z.
	Depth float64 `toml:"depth"`
	// TravelFeed is the feed rate of every G1 move.
	TravelFeed float64 `toml:"travel_feed"`
	// BurnDurations are the dwell times in seconds, indexed by Intensity.
	// Exactly NumIntensities entries are required.
	BurnDurations []float64 `toml:"burn_durations"`
	// Pitch is the distance in mm between adjacent pixels.
	Pitch  float64 `toml:"pitch"`
	Offset float64 `toml:"offset"`
}

func DefaultConfig() Config {
	return Config{
		Resize: ResizeConfig{
			MaxWidth:     1024,
			MaxHeight:    1024,
			PadThreshold: 1024,
			Gain:         1.65,
		},
		Dither: DitherConfig{
			BucketWidth: 64,
			Weights:     [4]int{7, 3, 5, 1},
			Divisor:     16,
		},
		Tool: ToolConfig{
			Depth:         5.0,
			TravelFeed:    100,
			BurnDurations: []float64{0.15, 0.45, 0.85},
			Pitch:         0.1,
		},
	}
}

// LoadConfig decodes the TOML file at path over the defaults. Keys that are
// absent keep their default value; unknown keys are an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	// Decode the list into a fresh slice so its length is what the file says.
	defaults := cfg.Tool.BurnDurations
	cfg.Tool.BurnDurations = nil
	err = dec.Decode(&cfg)
	if cfg.Tool.BurnDurations == nil {
		cfg.Tool.BurnDurations = defaults
	}
	if err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return cfg, fmt.Errorf("%s:%d:%d: %w", path, row, col, err)
		}
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var errs []error
	if c.Resize.MaxWidth <= 0 || c.Resize.MaxHeight <= 0 {
		errs = append(errs, fmt.Errorf("resize bounds must be positive, got %dx%d", c.Resize.MaxWidth, c.Resize.MaxHeight))
	}
	if c.Resize.PadThreshold < 0 {
		errs = append(errs, fmt.Errorf("negative pad threshold %d", c.Resize.PadThreshold))
	}
	if c.Resize.Gain <= 0 {
		errs = append(errs, fmt.Errorf("gain must be positive, got %g", c.Resize.Gain))
	}
	if c.Dither.BucketWidth < 1 || c.Dither.BucketWidth > 256 {
		errs = append(errs, fmt.Errorf("bucket width %d out of range 1..256", c.Dither.BucketWidth))
	}
	if c.Dither.Divisor <= 0 {
		errs = append(errs, fmt.Errorf("diffusion divisor must be positive, got %d", c.Dither.Divisor))
	}
	sum := 0
	for _, w := range c.Dither.Weights {
		if w < 0 {
			errs = append(errs, fmt.Errorf("negative diffusion weight %d", w))
		}
		sum += w
	}
	if sum > c.Dither.Divisor {
		errs = append(errs, fmt.Errorf("diffusion weights sum to %d, more than the divisor %d", sum, c.Dither.Divisor))
	}
	if c.Tool.Depth < 0 {
		errs = append(errs, fmt.Errorf("negative engagement depth %g", c.Tool.Depth))
	}
	if c.Tool.TravelFeed <= 0 {
		errs = append(errs, fmt.Errorf("travel feed must be positive, got %g", c.Tool.TravelFeed))
	}
	if n := len(c.Tool.BurnDurations); n != int(NumIntensities) {
		errs = append(errs, fmt.Errorf("burn_durations needs %d entries, got %d", int(NumIntensities), n))
	}
	for i, d := range c.Tool.BurnDurations {
		if d < 0 {
			errs = append(errs, fmt.Errorf("burn duration %d is negative: %g", i, d))
		}
	}
	if c.Tool.Pitch <= 0 {
		errs = append(errs, fmt.Errorf("pitch must be positive, got %g", c.Tool.Pitch))
	}
	return errors.Join(errs...)
}
