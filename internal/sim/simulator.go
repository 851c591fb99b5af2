package sim

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/san-kum/sph1d/internal/integrators"
	"github.com/san-kum/sph1d/internal/particle"
	"github.com/san-kum/sph1d/internal/sph"
)

// Populator creates the live particles of a run.
type Populator func(st *particle.Store, prm sph.Params) error

type Option func(*Simulator)

func WithLogger(l *log.Logger) Option { return func(s *Simulator) { s.logger = l } }

func WithIDAllocator(ids *particle.IDAllocator) Option {
	return func(s *Simulator) { s.ids = ids }
}

// WithPopulator replaces the configured initial distribution.
func WithPopulator(p Populator) Option { return func(s *Simulator) { s.populate = p } }

func WithObserver(o Observer) Option {
	return func(s *Simulator) { s.observers = append(s.observers, o) }
}

// Simulator owns the particle store and sequences the stages each step.
// It is not safe for concurrent use.
type Simulator struct {
	cfg       Config
	ids       *particle.IDAllocator
	store     *particle.Store
	engine    *sph.Engine
	stepper   integrators.Stepper
	populate  Populator
	observers []Observer
	metrics   []Metric
	logger    *log.Logger

	phase  Phase
	t      float64
	step   int
	result Result
}

func New(cfg Config, opts ...Option) (*Simulator, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	s := &Simulator{cfg: cfg, metrics: make([]Metric, 0)}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	if s.ids == nil {
		s.ids = particle.NewIDAllocator()
	}
	if s.populate == nil {
		ic := cfg.Initial
		s.populate = func(st *particle.Store, prm sph.Params) error {
			return sph.Populate(st, prm, ic)
		}
	}

	engine, err := sph.NewEngine(cfg.Params, s.logger)
	if err != nil {
		return nil, err
	}
	stepper, err := integrators.New(cfg.Integrator)
	if err != nil {
		return nil, err
	}
	s.engine = engine
	s.stepper = stepper
	s.store = particle.NewStore(s.ids, cfg.Params.NAlive, cfg.Params.MaxParticles)
	return s, nil
}

func validateConfig(cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if cfg.EndTime <= 0 {
		return fmt.Errorf("end time must be positive, got %f", cfg.EndTime)
	}
	return cfg.Params.Validate()
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) Phase() Phase           { return s.phase }
func (s *Simulator) Time() float64          { return s.t }
func (s *Simulator) Steps() int             { return s.step }
func (s *Simulator) Store() *particle.Store { return s.store }
func (s *Simulator) Config() Config         { return s.cfg }
func (s *Simulator) Engine() *sph.Engine    { return s.engine }
func (s *Simulator) Done() bool             { return s.t >= s.cfg.EndTime-sph.CalcEpsilon }

// Initialize creates the particles, synthesises the first ghosts and runs a
// full derivative pass at t=0. Under the adiabatic equation of state the
// initial velocities are then back-patched to the local sound speed and the
// derivatives recomputed.
func (s *Simulator) Initialize() error {
	if s.phase != Initializing {
		return fmt.Errorf("sim: initialize called in phase %s", s.phase)
	}
	prm := s.cfg.Params

	if err := s.populate(s.store, prm); err != nil {
		return s.fail(err)
	}
	s.logger.Info("initialized particles", "alive", s.store.NAlive())

	if err := s.engine.Boundary(s.store); err != nil {
		return s.fail(err)
	}
	if err := s.engine.Derive(s.store); err != nil {
		return s.fail(err)
	}

	if prm.EOS == sph.Adiabatic {
		sph.BackPatchVelocities(s.store, prm, s.cfg.Initial)
		if err := s.engine.Boundary(s.store); err != nil {
			return s.fail(err)
		}
		if err := s.engine.Derive(s.store); err != nil {
			return s.fail(err)
		}
	}
	s.logger.Info("initialized ghost particles", "ghosts", s.store.NGhost())

	for _, m := range s.metrics {
		m.Reset()
	}
	s.phase = Running
	s.record()
	return s.notify()
}

// Step advances one timestep.
func (s *Simulator) Step() error {
	if s.phase != Running {
		return fmt.Errorf("sim: step called in phase %s", s.phase)
	}
	if err := s.stepper.Step(s.engine, s.store, s.cfg.Dt); err != nil {
		return s.fail(err)
	}
	s.t += s.cfg.Dt
	s.step++
	s.logger.Debug("simulation time", "t", s.t, "end", s.cfg.EndTime)

	s.record()
	if s.Done() {
		s.phase = Finished
	}
	return s.notify()
}

// Run initializes if needed and steps until the end time. The context is
// only consulted between steps.
func (s *Simulator) Run(ctx context.Context) (*Result, error) {
	if s.phase == Initializing {
		if err := s.Initialize(); err != nil {
			return nil, err
		}
	}

	for s.phase == Running && !s.Done() {
		select {
		case <-ctx.Done():
			return s.finish(), ctx.Err()
		default:
		}
		if err := s.Step(); err != nil {
			return s.finish(), err
		}
	}
	s.phase = Finished
	return s.finish(), nil
}

func (s *Simulator) record() {
	stats := s.engine.LastDensityStats()
	s.result.Newton += stats.Newton
	s.result.Bisection += stats.Bisection
	s.result.BestEstimate += stats.BestEstimate
}

func (s *Simulator) notify() error {
	snap := Snapshot{Step: s.step, Time: s.t, Store: s.store}
	for _, m := range s.metrics {
		m.Observe(snap)
	}
	for _, o := range s.observers {
		if err := o.OnStep(snap); err != nil {
			return fmt.Errorf("observer at step %d: %w", s.step, err)
		}
	}
	return nil
}

func (s *Simulator) fail(err error) error {
	s.logger.Error("simulation aborted", "phase", s.phase, "t", s.t, "step", s.step, "err", err)
	return err
}

func (s *Simulator) finish() *Result {
	res := s.result
	res.Steps = s.step
	res.Time = s.t
	res.NAlive = s.store.NAlive()
	res.NGhost = s.store.NGhost()
	res.Metrics = make(map[string]float64, len(s.metrics))
	for _, m := range s.metrics {
		res.Metrics[m.Name()] = m.Value()
	}
	return &res
}
