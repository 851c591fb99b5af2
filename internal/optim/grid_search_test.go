package optim

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/sph1d/internal/config"
	"github.com/san-kum/sph1d/internal/experiment"
	"github.com/san-kum/sph1d/internal/sim"
)

func base() *config.Config {
	cfg := config.GetPreset("shock_tube")
	experiment.Resize(cfg, 30)
	cfg.Timestep = 0.002
	cfg.EndTime = 0.01
	return cfg
}

func builder(t *testing.T, metric string) func(map[string]float64) (*experiment.Experiment, error) {
	reg := experiment.NewRegistry()
	return func(params map[string]float64) (*experiment.Experiment, error) {
		cfg, err := Apply(base(), params)
		if err != nil {
			return nil, err
		}
		m, err := reg.GetMetric(metric, cfg)
		if err != nil {
			return nil, err
		}
		e := experiment.New(cfg, "grid", log.New(io.Discard))
		return e, e.Setup([]sim.Metric{m})
	}
}

func TestNewGridSearchRejects(t *testing.T) {
	_, err := NewGridSearch([]string{"h_factor"}, nil)
	assert.Error(t, err)
	_, err = NewGridSearch([]string{"gamma"}, [][]float64{{1}})
	assert.Error(t, err)
	_, err = NewGridSearch([]string{"h_factor"}, [][]float64{{}})
	assert.Error(t, err)
}

func TestApply(t *testing.T) {
	cfg, err := Apply(base(), map[string]float64{"h_factor": 1.5, "particles": 60})
	require.NoError(t, err)
	assert.Equal(t, 1.5, cfg.HFactor)
	assert.Equal(t, 60, cfg.Particles)
	assert.InDelta(t, base().Density(), cfg.Density(), 1e-12)

	_, err = Apply(base(), map[string]float64{"timestep": -1})
	assert.ErrorIs(t, err, config.ErrSetup)
}

func TestSearchVisitsEveryPoint(t *testing.T) {
	g, err := NewGridSearch(
		[]string{"h_factor", "timestep"},
		[][]float64{{1.1, 1.3}, {0.002, 0.001, -1}},
	)
	require.NoError(t, err)
	assert.Equal(t, 6, g.Size())

	params, best, trace, err := g.Search(context.Background(), builder(t, "stability"), "stability")
	require.NoError(t, err)
	assert.Len(t, trace, 6)
	assert.Equal(t, 1.0, best)
	assert.Contains(t, []float64{1.1, 1.3}, params["h_factor"])

	failed := 0
	for _, p := range trace {
		if p.Err != nil {
			failed++
			assert.Equal(t, -1.0, p.Params["timestep"])
		}
	}
	assert.Equal(t, 2, failed)
}

func TestSearchAllFailed(t *testing.T) {
	g, err := NewGridSearch([]string{"timestep"}, [][]float64{{-1, 0}})
	require.NoError(t, err)
	_, _, trace, err := g.Search(context.Background(), builder(t, "stability"), "stability")
	assert.True(t, errors.Is(err, ErrNoResult))
	assert.Len(t, trace, 2)
}

func TestSearchCancelled(t *testing.T) {
	g, err := NewGridSearch([]string{"h_factor"}, [][]float64{{1.1, 1.2}})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, _, err = g.Search(ctx, builder(t, "stability"), "stability")
	assert.ErrorIs(t, err, context.Canceled)
}
