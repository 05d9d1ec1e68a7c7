package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/gravsim/internal/gravity"
)

const (
	DefaultTemplate      = "binary"
	DefaultTicks         = 2000
	DefaultSampleEvery   = 1
	DefaultFPS           = 30
	DefaultTicksPerFrame = 2
	DefaultTrailLength   = 400
	DefaultScaleDivisor  = 5.0
	DefaultAddr          = "127.0.0.1:8081"
)

type Config struct {
	Template  string               `yaml:"template"`
	G         float64              `yaml:"g"`
	Seed      uint64               `yaml:"seed"`
	Masses    MassConfig           `yaml:"masses"`
	Insert    InsertConfig         `yaml:"insert"`
	Render    RenderConfig         `yaml:"render"`
	Run       RunConfig            `yaml:"run"`
	Live      LiveConfig           `yaml:"live"`
	Serve     ServeConfig          `yaml:"serve"`
	Templates map[string]*Template `yaml:"templates,omitempty"`
}

type MassConfig struct {
	Small  float64 `yaml:"small"`
	Medium float64 `yaml:"medium"`
	Large  float64 `yaml:"large"`
}

type InsertConfig struct {
	Class        string  `yaml:"class"`
	Anchoring    string  `yaml:"anchoring"`
	Eccentricity float64 `yaml:"eccentricity"`
	Spread       float64 `yaml:"spread"`
}

type RenderConfig struct {
	ScaleDivisor float64 `yaml:"scale_divisor"`
	TrailLength  int     `yaml:"trail_length"`
}

type RunConfig struct {
	Ticks       int `yaml:"ticks"`
	SampleEvery int `yaml:"sample_every"`
}

type LiveConfig struct {
	FPS           int  `yaml:"fps"`
	TicksPerFrame int  `yaml:"ticks_per_frame"`
	Follow        bool `yaml:"follow"`
}

type ServeConfig struct {
	Addr          string `yaml:"addr"`
	FPS           int    `yaml:"fps"`
	TicksPerFrame int    `yaml:"ticks_per_frame"`
}

func DefaultConfig() *Config {
	return &Config{
		Template: DefaultTemplate,
		G:        gravity.DefaultG,
		Seed:     1,
		Masses: MassConfig{
			Small:  gravity.DefaultMasses[gravity.Small],
			Medium: gravity.DefaultMasses[gravity.Medium],
			Large:  gravity.DefaultMasses[gravity.Large],
		},
		Insert: InsertConfig{
			Class:        gravity.Small.String(),
			Anchoring:    gravity.AnchorHeuristic.String(),
			Eccentricity: 1.0,
			Spread:       60,
		},
		Render: RenderConfig{
			ScaleDivisor: DefaultScaleDivisor,
			TrailLength:  DefaultTrailLength,
		},
		Run: RunConfig{
			Ticks:       DefaultTicks,
			SampleEvery: DefaultSampleEvery,
		},
		Live: LiveConfig{
			FPS:           DefaultFPS,
			TicksPerFrame: DefaultTicksPerFrame,
			Follow:        true,
		},
		Serve: ServeConfig{
			Addr:          DefaultAddr,
			FPS:           DefaultFPS,
			TicksPerFrame: DefaultTicksPerFrame,
		},
	}
}

// Load reads a YAML file on top of DefaultConfig.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if !(c.G > 0) {
		return fmt.Errorf("g must be positive, got %g", c.G)
	}
	for _, m := range c.MassTable() {
		if !(m > 0) {
			return fmt.Errorf("masses must be positive, got %+v", c.Masses)
		}
	}
	if _, err := gravity.ParseMassClass(c.Insert.Class); err != nil {
		return err
	}
	if _, err := gravity.ParseAnchoring(c.Insert.Anchoring); err != nil {
		return err
	}
	if c.Insert.Eccentricity < 0 {
		return fmt.Errorf("eccentricity must not be negative, got %g", c.Insert.Eccentricity)
	}
	if !(c.Render.ScaleDivisor > 0) {
		return fmt.Errorf("render.scale_divisor must be positive, got %g", c.Render.ScaleDivisor)
	}
	if c.Run.SampleEvery < 1 {
		return fmt.Errorf("run.sample_every must be at least 1, got %d", c.Run.SampleEvery)
	}
	if c.Live.FPS < 1 || c.Serve.FPS < 1 {
		return fmt.Errorf("fps must be at least 1")
	}
	if _, err := c.LookupTemplate(c.Template); err != nil {
		return err
	}
	return nil
}

func (c *Config) MassTable() gravity.MassTable {
	return gravity.MassTable{
		gravity.Small:  c.Masses.Small,
		gravity.Medium: c.Masses.Medium,
		gravity.Large:  c.Masses.Large,
	}
}

// InsertOptions resolves the insert section. Validate has already checked
// the names.
func (c *Config) InsertOptions() (gravity.MassClass, gravity.InsertOptions) {
	class, _ := gravity.ParseMassClass(c.Insert.Class)
	anchoring, _ := gravity.ParseAnchoring(c.Insert.Anchoring)
	return class, gravity.InsertOptions{Anchoring: anchoring, Eccentricity: c.Insert.Eccentricity}
}

// EngineOptions maps the config onto engine construction options.
func (c *Config) EngineOptions() []gravity.Option {
	return []gravity.Option{
		gravity.WithG(c.G),
		gravity.WithMasses(c.MassTable()),
		gravity.WithScaleDivisor(c.Render.ScaleDivisor),
	}
}
