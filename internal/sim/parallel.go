package sim

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Ensemble runs independent simulations concurrently, for example a
// resolution sweep. Each member owns its own store and runs single-threaded.
type Ensemble struct {
	configs []Config
	opts    func(idx int) []Option
	limit   int
}

// NewEnsemble creates an ensemble over configs. opts, if non-nil, supplies
// per-member options such as observers.
func NewEnsemble(configs []Config, opts func(idx int) []Option) *Ensemble {
	return &Ensemble{configs: configs, opts: opts, limit: runtime.GOMAXPROCS(0)}
}

func (e *Ensemble) SetLimit(n int) { e.limit = n }

func (e *Ensemble) Run(ctx context.Context) ([]*Result, error) {
	results := make([]*Result, len(e.configs))

	g, ctx := errgroup.WithContext(ctx)
	if e.limit > 0 {
		g.SetLimit(e.limit)
	}
	for i := range e.configs {
		i := i
		g.Go(func() error {
			var opts []Option
			if e.opts != nil {
				opts = e.opts(i)
			}
			s, err := New(e.configs[i], opts...)
			if err != nil {
				return err
			}
			results[i], err = s.Run(ctx)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
