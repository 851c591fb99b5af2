package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/sph1d/internal/config"
	"github.com/san-kum/sph1d/internal/experiment"
)

// ErrNoResult is returned when every grid point failed or produced no value
// for the objective.
var ErrNoResult = errors.New("grid search: no successful run")

// Tunable lists the configuration fields a grid may vary.
var Tunable = map[string]func(cfg *config.Config, v float64){
	"h_factor":    func(cfg *config.Config, v float64) { cfg.HFactor = v },
	"timestep":    func(cfg *config.Config, v float64) { cfg.Timestep = v },
	"sound_speed": func(cfg *config.Config, v float64) { cfg.SoundSpeed = v },
	"v0":          func(cfg *config.Config, v float64) { cfg.V0 = v },
	"fixed_h":     func(cfg *config.Config, v float64) { cfg.FixedH = v },
	"particles":   func(cfg *config.Config, v float64) { experiment.Resize(cfg, int(v)) },
}

func TunableNames() []string {
	names := make([]string, 0, len(Tunable))
	for name := range Tunable {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Apply returns a copy of base with params set.
func Apply(base *config.Config, params map[string]float64) (*config.Config, error) {
	cfg := *base
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		set, ok := Tunable[name]
		if !ok {
			return nil, fmt.Errorf("grid search: unknown parameter %q", name)
		}
		set(&cfg, params[name])
	}
	return &cfg, cfg.Validate()
}

// Point is one evaluated grid point.
type Point struct {
	Params map[string]float64
	Value  float64
	Err    error
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("grid search: %d parameters but %d ranges", len(params), len(ranges))
	}
	for i, name := range params {
		if _, ok := Tunable[name]; !ok {
			return nil, fmt.Errorf("grid search: unknown parameter %q", name)
		}
		if len(ranges[i]) == 0 {
			return nil, fmt.Errorf("grid search: empty range for %s", name)
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Size is the number of grid points.
func (g *GridSearch) Size() int {
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

// Search runs every grid point and returns the parameters minimizing
// metricName. Failed points are recorded in the returned trace and skipped;
// a cancelled context stops the search.
func (g *GridSearch) Search(
	ctx context.Context,
	buildExperiment func(params map[string]float64) (*experiment.Experiment, error),
	metricName string,
) (map[string]float64, float64, []Point, error) {

	best := math.Inf(1)
	var bestParams map[string]float64
	var trace []Point

	err := g.searchRecursive(ctx, 0, make(map[string]float64), buildExperiment, metricName, &best, &bestParams, &trace)
	if err != nil {
		return nil, math.NaN(), trace, err
	}
	if bestParams == nil {
		return nil, math.NaN(), trace, ErrNoResult
	}

	return bestParams, best, trace, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	buildExperiment func(map[string]float64) (*experiment.Experiment, error),
	metricName string,
	best *float64,
	bestParams *map[string]float64,
	trace *[]Point,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.paramNames) {
		pt := Point{Params: current, Value: math.NaN()}
		defer func() { *trace = append(*trace, pt) }()

		exp, err := buildExperiment(current)
		if err != nil {
			pt.Err = err
			return nil
		}

		result, err := exp.Run(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			pt.Err = err
			return nil
		}

		val, ok := result.Metrics[metricName]
		if !ok {
			pt.Err = fmt.Errorf("metric %s not recorded", metricName)
			return nil
		}
		pt.Value = val
		if val < *best {
			*best = val
			*bestParams = make(map[string]float64)
			for k, v := range current {
				(*bestParams)[k] = v
			}
		}
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, buildExperiment, metricName, best, bestParams, trace); err != nil {
			return err
		}
	}
	return nil
}
