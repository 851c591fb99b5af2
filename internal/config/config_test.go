package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/sph1d/internal/particle"
	"github.com/san-kum/sph1d/internal/sph"
)

const goodYAML = `
particles: 100
limit: 2
mass: 0.04
eos: isothermal
h_factor: 1.3
timestep: 0.001
`

const goodINI = `
[simulation]
particles = 100
limit = 2
mass = 0.04
eos = adiabatic
h-factor = 1.3
timestep = 0.001
kernel = quartic
end-time = 0.5
`

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, DefaultEndTime, cfg.EndTime)
	assert.Equal(t, "cubic", cfg.Kernel)
	assert.Equal(t, particle.DefaultMaxParticles, cfg.MaxParticles)
	assert.Zero(t, cfg.Particles)
}

func TestParseYAMLAppliesDefaults(t *testing.T) {
	cfg, err := ParseYAML([]byte(goodYAML))
	require.NoError(t, err)

	assert.Equal(t, 100, cfg.Particles)
	assert.Equal(t, 2.0, cfg.Limit)
	assert.Equal(t, 1.3, cfg.HFactor)
	assert.Equal(t, DefaultV0, cfg.V0)
	assert.Equal(t, DefaultSoundSpeed, cfg.SoundSpeed)
	assert.Equal(t, "uniform", cfg.Distribution)
	assert.InDelta(t, 1.0, cfg.Density(), 1e-12)
}

func TestParseINI(t *testing.T) {
	cfg, err := ParseINI([]byte(goodINI))
	require.NoError(t, err)

	assert.Equal(t, "adiabatic", cfg.EOS)
	assert.Equal(t, "quartic", cfg.Kernel)
	assert.Equal(t, 1.3, cfg.HFactor)
	assert.Equal(t, 0.5, cfg.EndTime)
}

func TestParseCanonicalizesAliases(t *testing.T) {
	tests := []struct {
		name, extra string
		eos, kernel string
		dist        string
	}{
		{"numeric isothermal", "eos: 0\n", "isothermal", "cubic", "uniform"},
		{"numeric adiabatic", "eos: 1\nkernel: m5\n", "adiabatic", "quartic", "uniform"},
		{"sound wave alias", "eos: isothermal\nkernel: m4\ndistribution: sound_wave\n", "isothermal", "cubic", "sinusoid"},
	}
	base := "particles: 10\nlimit: 1\nmass: 0.2\nh_factor: 1.2\ntimestep: 0.001\n"

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseYAML([]byte(base + tt.extra))
			require.NoError(t, err)
			assert.Equal(t, tt.eos, cfg.EOS)
			assert.Equal(t, tt.kernel, cfg.Kernel)
			assert.Equal(t, tt.dist, cfg.Distribution)
			assert.Equal(t, "variable", cfg.Smoothing)
		})
	}

	cfg, err := ParseINI([]byte(strings.Replace(goodINI, "eos = adiabatic", "eos = 1", 1)))
	require.NoError(t, err)
	assert.Equal(t, "adiabatic", cfg.EOS)
}

func TestMissingRequiredFields(t *testing.T) {
	_, err := ParseYAML([]byte("particles: 10\nlimit: 1\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSetup)

	var missing []string
	for _, e := range err.(interface{ Unwrap() []error }).Unwrap() {
		var fe *FieldError
		require.True(t, errors.As(e, &fe))
		missing = append(missing, fe.Field)
	}
	assert.ElementsMatch(t, []string{"mass", "eos", "h_factor", "timestep"}, missing)
}

func TestMalformedField(t *testing.T) {
	_, err := ParseYAML([]byte(goodYAML + "v0: fast\n"))
	require.Error(t, err)

	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "v0", fe.Field)
	assert.Equal(t, "fast", fe.Value)
	assert.ErrorIs(t, err, strconv.ErrSyntax)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*Config)
		field string
	}{
		{"negative limit", func(c *Config) { c.Limit = -1 }, "limit"},
		{"zero timestep", func(c *Config) { c.Timestep = 0 }, "timestep"},
		{"bad eos", func(c *Config) { c.EOS = "polytropic" }, "eos"},
		{"bad kernel", func(c *Config) { c.Kernel = "gaussian" }, "kernel"},
		{"fixed without h", func(c *Config) { c.Smoothing, c.FixedH = "fixed", 0 }, "fixed_h"},
		{"arena too small", func(c *Config) { c.MaxParticles = 10 }, "max_particles"},
		{"bad integrator", func(c *Config) { c.Integrator = "rk4" }, "integrator"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetPreset("shock_tube")
			tt.edit(cfg)
			err := cfg.Validate()
			require.Error(t, err)

			var fe *FieldError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tt.field, fe.Field)
			assert.ErrorIs(t, err, ErrSetup)
		})
	}
}

func TestToSim(t *testing.T) {
	cfg, err := ParseINI([]byte(goodINI))
	require.NoError(t, err)

	sc, err := cfg.ToSim()
	require.NoError(t, err)
	assert.Equal(t, 100, sc.Params.NAlive)
	assert.Equal(t, sph.Adiabatic, sc.Params.EOS)
	assert.Equal(t, 2.5, sc.Params.Kernel.Radius())
	assert.Equal(t, 0.04, sc.Initial.Mass)
	assert.Equal(t, 0.001, sc.Dt)
	assert.Equal(t, 0.5, sc.EndTime)
}

func TestLoadAndSave(t *testing.T) {
	dir := t.TempDir()

	ini := filepath.Join(dir, "run.ini")
	require.NoError(t, os.WriteFile(ini, []byte(goodINI), 0644))
	fromINI, err := Load(ini)
	require.NoError(t, err)

	out := filepath.Join(dir, "run.yaml")
	require.NoError(t, Save(out, fromINI))
	fromYAML, err := Load(out)
	require.NoError(t, err)
	assert.Equal(t, fromINI, fromYAML)

	_, err = Load(filepath.Join(dir, "run.toml"))
	assert.ErrorIs(t, err, ErrSetup)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, ErrSetup)
}

func TestPresets(t *testing.T) {
	names := ListPresets()
	require.Equal(t, []string{"adiabatic_shock", "fixed_h", "shock_tube", "sound_wave"}, names)

	for _, name := range names {
		cfg := GetPreset(name)
		require.NotNil(t, cfg, name)
		assert.NoError(t, cfg.Validate(), name)
		assert.InDelta(t, 1.0, cfg.Density(), 1e-12, name)
	}

	cfg := GetPreset("shock_tube")
	cfg.Particles = 1
	assert.Equal(t, 200, Presets["shock_tube"].Particles)

	assert.Nil(t, GetPreset("nonexistent"))
}
