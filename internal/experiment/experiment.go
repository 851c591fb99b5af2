package experiment

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/san-kum/sph1d/internal/analysis"
	"github.com/san-kum/sph1d/internal/config"
	"github.com/san-kum/sph1d/internal/sim"
	"github.com/san-kum/sph1d/internal/sph"
)

// Experiment binds a validated configuration to a simulator and its metrics.
type Experiment struct {
	cfg       *config.Config
	name      string
	logger    *log.Logger
	simulator *sim.Simulator
}

func New(cfg *config.Config, name string, logger *log.Logger) *Experiment {
	if logger == nil {
		logger = log.Default()
	}
	return &Experiment{cfg: cfg, name: name, logger: logger}
}

func (e *Experiment) Name() string              { return e.name }
func (e *Experiment) Config() *config.Config    { return e.cfg }
func (e *Experiment) Simulator() *sim.Simulator { return e.simulator }

// Setup builds the simulator. opts are applied after the experiment logger.
func (e *Experiment) Setup(metrics []sim.Metric, opts ...sim.Option) error {
	sc, err := e.cfg.ToSim()
	if err != nil {
		return err
	}
	opts = append([]sim.Option{sim.WithLogger(e.logger)}, opts...)
	s, err := sim.New(sc, opts...)
	if err != nil {
		return err
	}
	for _, m := range metrics {
		s.AddMetric(m)
	}
	e.simulator = s
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	return e.simulator.Run(ctx)
}

// AnalyticShock returns the exact solution matching cfg when one exists:
// isothermal colliding flows only.
func AnalyticShock(cfg *config.Config) (analysis.IsothermalShock, bool) {
	eos, err := sph.ParseEOS(cfg.EOS)
	if err != nil || eos != sph.Isothermal {
		return analysis.IsothermalShock{}, false
	}
	if dist, err := sph.ParseDistribution(cfg.Distribution); err != nil || dist == sph.Sinusoid {
		return analysis.IsothermalShock{}, false
	}
	return analysis.IsothermalShock{Rho0: cfg.Density(), V0: cfg.V0, Cs: cfg.SoundSpeed}, true
}

// ShockMargin keeps three initial smoothing lengths clear of the
// rarefaction fronts when comparing against the analytic solution.
func ShockMargin(cfg *config.Config) float64 {
	return 3 * cfg.HFactor * 2 * cfg.Limit / float64(cfg.Particles)
}

// Resize changes the particle count and rescales the mass so the mean
// density is unchanged.
func Resize(cfg *config.Config, n int) {
	rho := cfg.Density()
	cfg.Particles = n
	cfg.Mass = rho * 2 * cfg.Limit / float64(n)
	if cfg.MaxParticles < n {
		cfg.MaxParticles = 4 * n
	}
}
