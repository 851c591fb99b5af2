package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/sph1d/internal/config"
	"github.com/san-kum/sph1d/internal/metrics"
	"github.com/san-kum/sph1d/internal/sim"
	"github.com/san-kum/sph1d/internal/sph"
)

type Registry struct {
	metrics map[string]func(cfg *config.Config) (sim.Metric, bool)
}

func NewRegistry() *Registry {
	r := &Registry{
		metrics: make(map[string]func(*config.Config) (sim.Metric, bool)),
	}

	r.metrics["energy"] = func(*config.Config) (sim.Metric, bool) { return metrics.NewEnergy(), true }
	r.metrics["momentum_drift"] = func(*config.Config) (sim.Metric, bool) { return metrics.NewMomentumDrift(), true }
	r.metrics["energy_drift"] = func(cfg *config.Config) (sim.Metric, bool) {
		eos, err := sph.ParseEOS(cfg.EOS)
		return metrics.NewEnergyDrift(), err == nil && eos == sph.Adiabatic
	}
	r.metrics["stability"] = func(cfg *config.Config) (sim.Metric, bool) {
		return metrics.NewStability(cfg.Limit), true
	}
	r.metrics["shock_rms"] = func(cfg *config.Config) (sim.Metric, bool) {
		shock, ok := AnalyticShock(cfg)
		if !ok {
			return nil, false
		}
		return metrics.NewShockError(shock, cfg.Limit, ShockMargin(cfg)), true
	}

	return r
}

// GetMetric builds the named metric for cfg. It fails when the metric does
// not apply to cfg, for example energy drift in an isothermal run.
func (r *Registry) GetMetric(name string, cfg *config.Config) (sim.Metric, error) {
	fn, ok := r.metrics[name]
	if !ok {
		return nil, fmt.Errorf("unknown metric: %s", name)
	}
	m, ok := fn(cfg)
	if !ok {
		return nil, fmt.Errorf("metric %s does not apply to a %s %s run", name, cfg.EOS, cfg.Distribution)
	}
	return m, nil
}

func (r *Registry) ListMetrics() []string {
	names := make([]string, 0, len(r.metrics))
	for name := range r.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultMetrics returns every metric that applies to cfg.
func (r *Registry) DefaultMetrics(cfg *config.Config) []sim.Metric {
	var out []sim.Metric
	for _, name := range r.ListMetrics() {
		if m, ok := r.metrics[name](cfg); ok {
			out = append(out, m)
		}
	}
	return out
}
