package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/gcfg.v1"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/sph1d/internal/integrators"
	"github.com/san-kum/sph1d/internal/kernel"
	"github.com/san-kum/sph1d/internal/particle"
	"github.com/san-kum/sph1d/internal/sim"
	"github.com/san-kum/sph1d/internal/sph"
)

const (
	DefaultEndTime      = 1.0
	DefaultV0           = 1.0
	DefaultSoundSpeed   = 1.0
	DefaultKernel       = "cubic"
	DefaultSmoothing    = "variable"
	DefaultFixedH       = 0.2
	DefaultDistribution = "uniform"
	DefaultAmplitude    = 0.01
	DefaultSeed         = 1
	DefaultIntegrator   = "leapfrog"
)

// ErrSetup marks any problem with the run configuration.
var ErrSetup = errors.New("setup error")

// FieldError names the configuration field that is missing or malformed.
type FieldError struct {
	Field string
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("config: %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("config: %s=%q: %v", e.Field, e.Value, e.Err)
}

func (e *FieldError) Unwrap() []error { return []error{ErrSetup, e.Err} }

var errMissing = errors.New("required field missing")

type Config struct {
	Particles    int     `yaml:"particles" json:"particles"`
	Limit        float64 `yaml:"limit" json:"limit"`
	Mass         float64 `yaml:"mass" json:"mass"`
	EOS          string  `yaml:"eos" json:"eos"`
	HFactor      float64 `yaml:"h_factor" json:"h_factor"`
	Timestep     float64 `yaml:"timestep" json:"timestep"`
	EndTime      float64 `yaml:"end_time" json:"end_time"`
	V0           float64 `yaml:"v0" json:"v0"`
	SoundSpeed   float64 `yaml:"sound_speed" json:"sound_speed"`
	Kernel       string  `yaml:"kernel" json:"kernel"`
	Smoothing    string  `yaml:"smoothing" json:"smoothing"`
	FixedH       float64 `yaml:"fixed_h" json:"fixed_h"`
	Distribution string  `yaml:"distribution" json:"distribution"`
	Amplitude    float64 `yaml:"amplitude" json:"amplitude"`
	Seed         int64   `yaml:"seed" json:"seed"`
	MaxParticles int     `yaml:"max_particles" json:"max_particles"`
	Integrator   string  `yaml:"integrator" json:"integrator"`
}

// rawConfig holds every field as text so that each can be checked on its
// own. The same struct serves both file formats; an empty string means the
// field was absent.
type rawConfig struct {
	Particles    string `yaml:"particles"`
	Limit        string `yaml:"limit"`
	Mass         string `yaml:"mass"`
	EOS          string `yaml:"eos"`
	HFactor      string `yaml:"h_factor" gcfg:"h-factor"`
	Timestep     string `yaml:"timestep"`
	EndTime      string `yaml:"end_time" gcfg:"end-time"`
	V0           string `yaml:"v0"`
	SoundSpeed   string `yaml:"sound_speed" gcfg:"sound-speed"`
	Kernel       string `yaml:"kernel"`
	Smoothing    string `yaml:"smoothing"`
	FixedH       string `yaml:"fixed_h" gcfg:"fixed-h"`
	Distribution string `yaml:"distribution"`
	Amplitude    string `yaml:"amplitude"`
	Seed         string `yaml:"seed"`
	MaxParticles string `yaml:"max_particles" gcfg:"max-particles"`
	Integrator   string `yaml:"integrator"`
}

type iniFile struct {
	Simulation rawConfig
}

// DefaultConfig carries the optional defaults. Required fields are zero.
func DefaultConfig() *Config {
	return &Config{
		EndTime:      DefaultEndTime,
		V0:           DefaultV0,
		SoundSpeed:   DefaultSoundSpeed,
		Kernel:       DefaultKernel,
		Smoothing:    DefaultSmoothing,
		FixedH:       DefaultFixedH,
		Distribution: DefaultDistribution,
		Amplitude:    DefaultAmplitude,
		Seed:         DefaultSeed,
		MaxParticles: particle.DefaultMaxParticles,
		Integrator:   DefaultIntegrator,
	}
}

// Load reads a YAML (.yaml, .yml) or INI (.ini, .gcfg, .cfg) file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSetup, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	case ".ini", ".gcfg", ".cfg":
		return ParseINI(data)
	}
	return nil, fmt.Errorf("%w: unsupported config format %q", ErrSetup, filepath.Ext(path))
}

func ParseYAML(data []byte) (*Config, error) {
	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSetup, err)
	}
	return raw.parse()
}

// ParseINI reads the [simulation] section of a git-config style file.
func ParseINI(data []byte) (*Config, error) {
	var f iniFile
	if err := gcfg.ReadInto(&f, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSetup, err)
	}
	return f.Simulation.parse()
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

type fieldParser struct {
	errs []error
}

func (p *fieldParser) fail(field, value string, err error) {
	p.errs = append(p.errs, &FieldError{Field: field, Value: value, Err: err})
}

func (p *fieldParser) float(field, value string, required bool, dst *float64) {
	value = strings.TrimSpace(value)
	if value == "" {
		if required {
			p.fail(field, "", errMissing)
		}
		return
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		p.fail(field, value, errors.Unwrap(err))
		return
	}
	*dst = v
}

func (p *fieldParser) int(field, value string, required bool, dst *int64) {
	value = strings.TrimSpace(value)
	if value == "" {
		if required {
			p.fail(field, "", errMissing)
		}
		return
	}
	v, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		p.fail(field, value, errors.Unwrap(err))
		return
	}
	*dst = v
}

func (p *fieldParser) str(field, value string, required bool, dst *string) {
	value = strings.TrimSpace(value)
	if value == "" {
		if required {
			p.fail(field, "", errMissing)
		}
		return
	}
	*dst = value
}

func (r rawConfig) parse() (*Config, error) {
	cfg := DefaultConfig()
	var p fieldParser

	var particles, seed, maxParticles int64 = 0, cfg.Seed, int64(cfg.MaxParticles)
	p.int("particles", r.Particles, true, &particles)
	p.float("limit", r.Limit, true, &cfg.Limit)
	p.float("mass", r.Mass, true, &cfg.Mass)
	p.str("eos", r.EOS, true, &cfg.EOS)
	p.float("h_factor", r.HFactor, true, &cfg.HFactor)
	p.float("timestep", r.Timestep, true, &cfg.Timestep)

	p.float("end_time", r.EndTime, false, &cfg.EndTime)
	p.float("v0", r.V0, false, &cfg.V0)
	p.float("sound_speed", r.SoundSpeed, false, &cfg.SoundSpeed)
	p.str("kernel", r.Kernel, false, &cfg.Kernel)
	p.str("smoothing", r.Smoothing, false, &cfg.Smoothing)
	p.float("fixed_h", r.FixedH, false, &cfg.FixedH)
	p.str("distribution", r.Distribution, false, &cfg.Distribution)
	p.float("amplitude", r.Amplitude, false, &cfg.Amplitude)
	p.int("seed", r.Seed, false, &seed)
	p.int("max_particles", r.MaxParticles, false, &maxParticles)
	p.str("integrator", r.Integrator, false, &cfg.Integrator)

	if len(p.errs) > 0 {
		return nil, errors.Join(p.errs...)
	}
	cfg.Particles = int(particles)
	cfg.Seed = seed
	cfg.MaxParticles = int(maxParticles)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.canonicalize()
	return cfg, nil
}

// canonicalize rewrites accepted aliases ("0", "m4", "sound_wave") to the
// names the rest of the program compares against. cfg must be valid.
func (c *Config) canonicalize() {
	if eos, err := sph.ParseEOS(c.EOS); err == nil {
		c.EOS = eos.String()
	}
	if kind, err := kernel.ParseKind(c.Kernel); err == nil {
		c.Kernel = kind.String()
	}
	if sm, err := sph.ParseSmoothing(c.Smoothing); err == nil {
		c.Smoothing = sm.String()
	}
	if dist, err := sph.ParseDistribution(c.Distribution); err == nil {
		c.Distribution = dist.String()
	}
}

var (
	errNotPositive = errors.New("must be positive")
	errTooSmall    = errors.New("smaller than particles")
)

// Validate checks ranges and enumerations. All violations are reported.
func (c *Config) Validate() error {
	var errs []error
	bad := func(field string, value any, err error) {
		errs = append(errs, &FieldError{Field: field, Value: fmt.Sprint(value), Err: err})
	}

	if c.Particles <= 0 {
		bad("particles", c.Particles, errNotPositive)
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"limit", c.Limit},
		{"mass", c.Mass},
		{"h_factor", c.HFactor},
		{"timestep", c.Timestep},
		{"end_time", c.EndTime},
		{"sound_speed", c.SoundSpeed},
	} {
		if !(f.v > 0) {
			bad(f.name, f.v, errNotPositive)
		}
	}
	if c.MaxParticles < c.Particles {
		bad("max_particles", c.MaxParticles, errTooSmall)
	}

	if _, err := sph.ParseEOS(c.EOS); err != nil {
		bad("eos", c.EOS, err)
	}
	if _, err := kernel.ParseKind(c.Kernel); err != nil {
		bad("kernel", c.Kernel, err)
	}
	if s, err := sph.ParseSmoothing(c.Smoothing); err != nil {
		bad("smoothing", c.Smoothing, err)
	} else if s == sph.FixedH && !(c.FixedH > 0) {
		bad("fixed_h", c.FixedH, errNotPositive)
	}
	if _, err := sph.ParseDistribution(c.Distribution); err != nil {
		bad("distribution", c.Distribution, err)
	}
	if _, err := integrators.New(c.Integrator); err != nil {
		bad("integrator", c.Integrator, err)
	}
	return errors.Join(errs...)
}

// ToSim converts a validated configuration into simulator input.
func (c *Config) ToSim() (sim.Config, error) {
	if err := c.Validate(); err != nil {
		return sim.Config{}, err
	}
	eos, _ := sph.ParseEOS(c.EOS)
	kind, _ := kernel.ParseKind(c.Kernel)
	smoothing, _ := sph.ParseSmoothing(c.Smoothing)
	dist, _ := sph.ParseDistribution(c.Distribution)
	k, err := kernel.New(kind)
	if err != nil {
		return sim.Config{}, err
	}

	return sim.Config{
		Params: sph.Params{
			NAlive:       c.Particles,
			Limit:        c.Limit,
			EOS:          eos,
			SoundSpeed:   c.SoundSpeed,
			HFactor:      c.HFactor,
			Smoothing:    smoothing,
			FixedH:       c.FixedH,
			Kernel:       k,
			MaxParticles: c.MaxParticles,
		},
		Initial: sph.InitialConditions{
			Distribution: dist,
			Mass:         c.Mass,
			V0:           c.V0,
			Amplitude:    c.Amplitude,
			Seed:         c.Seed,
		},
		Dt:         c.Timestep,
		EndTime:    c.EndTime,
		Integrator: c.Integrator,
	}, nil
}

// Density is the mean initial density implied by mass, count and domain.
func (c *Config) Density() float64 {
	return float64(c.Particles) * c.Mass / (2 * c.Limit)
}
