package sim_test

import (
	"context"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/charmbracelet/log"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/sph1d/internal/analysis"
	"github.com/san-kum/sph1d/internal/kernel"
	"github.com/san-kum/sph1d/internal/particle"
	"github.com/san-kum/sph1d/internal/sim"
	"github.com/san-kum/sph1d/internal/sph"
)

func quiet() sim.Option { return sim.WithLogger(log.New(io.Discard)) }

// collidingFlow is a unit-density isothermal collision on [-1, 1].
func collidingFlow(n int, dt, end float64) sim.Config {
	return sim.Config{
		Params: sph.Params{
			NAlive:     n,
			Limit:      1,
			EOS:        sph.Isothermal,
			SoundSpeed: 1,
			HFactor:    1.2,
			Smoothing:  sph.VariableH,
			Kernel:     kernel.M4{},
		},
		Initial: sph.InitialConditions{
			Distribution: sph.Uniform,
			Mass:         2.0 / float64(n),
			V0:           1,
		},
		Dt:      dt,
		EndTime: end,
	}
}

func totalMomentum(st *particle.Store) float64 {
	sum := 0.0
	for _, p := range st.Alive() {
		sum += p.Mass * p.Vel
	}
	return sum
}

var _ = Describe("Simulator", func() {
	Describe("lifecycle", func() {
		It("moves through initializing, running and finished", func() {
			s, err := sim.New(collidingFlow(20, 0.001, 0.005), quiet())
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Phase()).To(Equal(sim.Initializing))

			Expect(s.Step()).To(HaveOccurred())

			Expect(s.Initialize()).To(Succeed())
			Expect(s.Phase()).To(Equal(sim.Running))
			Expect(s.Initialize()).To(HaveOccurred())

			_, err = s.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Phase()).To(Equal(sim.Finished))
			Expect(s.Step()).To(HaveOccurred())
		})

		It("rejects invalid time control", func() {
			cfg := collidingFlow(20, 0, 1)
			_, err := sim.New(cfg, quiet())
			Expect(err).To(HaveOccurred())

			cfg = collidingFlow(20, 0.01, -1)
			_, err = sim.New(cfg, quiet())
			Expect(err).To(HaveOccurred())
		})

		It("rejects an unknown integrator", func() {
			cfg := collidingFlow(20, 0.01, 0.1)
			cfg.Integrator = "rk9"
			_, err := sim.New(cfg, quiet())
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("stepping", func() {
		It("takes end/dt steps despite floating point accumulation", func() {
			s, err := sim.New(collidingFlow(20, 0.001, 0.01), quiet())
			Expect(err).NotTo(HaveOccurred())

			res, err := s.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Steps).To(Equal(10))
			Expect(res.Time).To(BeNumerically("~", 0.01, 1e-12))
			Expect(res.NAlive).To(Equal(20))
			Expect(res.Newton).To(BeNumerically(">", 0))
		})

		It("notifies observers once at t=0 and once per step", func() {
			var steps []int
			var times []float64
			obs := sim.ObserverFunc(func(snap sim.Snapshot) error {
				steps = append(steps, snap.Step)
				times = append(times, snap.Time)
				return nil
			})

			s, err := sim.New(collidingFlow(20, 0.002, 0.01), quiet(), sim.WithObserver(obs))
			Expect(err).NotTo(HaveOccurred())
			res, err := s.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())

			Expect(steps).To(HaveLen(res.Steps + 1))
			Expect(steps[0]).To(Equal(0))
			Expect(times[0]).To(BeZero())
			for i := 1; i < len(times); i++ {
				Expect(times[i]).To(BeNumerically(">", times[i-1]))
			}
		})

		It("stops when an observer fails", func() {
			boom := errors.New("disk full")
			obs := sim.ObserverFunc(func(snap sim.Snapshot) error {
				if snap.Step == 2 {
					return boom
				}
				return nil
			})
			s, err := sim.New(collidingFlow(20, 0.001, 0.01), quiet(), sim.WithObserver(obs))
			Expect(err).NotTo(HaveOccurred())

			res, err := s.Run(context.Background())
			Expect(err).To(MatchError(boom))
			Expect(res.Steps).To(Equal(2))
		})

		It("honours cancellation between steps", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			s, err := sim.New(collidingFlow(20, 0.001, 0.01), quiet())
			Expect(err).NotTo(HaveOccurred())
			res, err := s.Run(ctx)
			Expect(err).To(MatchError(context.Canceled))
			Expect(res.Steps).To(BeZero())
		})

		It("propagates populate failures", func() {
			boom := errors.New("no particles")
			s, err := sim.New(collidingFlow(20, 0.001, 0.01), quiet(),
				sim.WithPopulator(func(*particle.Store, sph.Params) error { return boom }))
			Expect(err).NotTo(HaveOccurred())

			_, err = s.Run(context.Background())
			Expect(err).To(MatchError(boom))
		})
	})

	Describe("ghost boundary", func() {
		It("rebuilds mirrored ghosts every step", func() {
			var checked int
			obs := sim.ObserverFunc(func(snap sim.Snapshot) error {
				st := snap.Store
				Expect(st.NGhost()).To(BeNumerically(">", 0))
				for _, g := range st.Ghosts() {
					src := st.Find(g.Source)
					Expect(src).NotTo(BeNil())
					Expect(src.IsGhost()).To(BeFalse())
					mirrored := math.Abs(g.Pos+src.Pos-2) < 1e-12 || math.Abs(g.Pos+src.Pos+2) < 1e-12
					Expect(mirrored).To(BeTrue(), "ghost %d not mirrored from %d", g.ID, src.ID)
				}
				checked++
				return nil
			})

			s, err := sim.New(collidingFlow(40, 0.002, 0.02), quiet(), sim.WithObserver(obs))
			Expect(err).NotTo(HaveOccurred())
			res, err := s.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(checked).To(Equal(res.Steps + 1))
		})

		It("keeps live particles inside the walls", func() {
			s, err := sim.New(collidingFlow(40, 0.002, 0.1), quiet())
			Expect(err).NotTo(HaveOccurred())
			_, err = s.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			for _, p := range s.Store().Alive() {
				Expect(math.Abs(p.Pos)).To(BeNumerically("<", 1))
			}
		})
	})

	Describe("conservation", func() {
		It("conserves momentum away from the walls", func() {
			cfg := collidingFlow(30, 0.001, 0.005)
			cfg.Params.Limit = 50
			cluster := func(st *particle.Store, prm sph.Params) error {
				const n = 30
				dx := 2.0 / n
				for i := 0; i < n; i++ {
					x := -1 + (float64(i)+0.5)*dx
					v := 0.3 * math.Sin(3*x)
					if x < 0 {
						v += 0.5
					}
					p, err := st.AddAlive(x, v, 0.05)
					if err != nil {
						return err
					}
					p.H = 1.2 * dx
				}
				return nil
			}

			s, err := sim.New(cfg, quiet(), sim.WithPopulator(cluster))
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Initialize()).To(Succeed())
			Expect(s.Store().NGhost()).To(BeZero())

			before := totalMomentum(s.Store())
			Expect(s.Step()).To(Succeed())
			Expect(totalMomentum(s.Store())).To(BeNumerically("~", before, 1e-10))
		})
	})

	Describe("isothermal colliding flow", func() {
		It("matches the analytic shock solution", func() {
			if testing.Short() {
				Skip("long-running shock tube")
			}
			const end = 0.2
			s, err := sim.New(collidingFlow(200, 4e-4, end), quiet())
			Expect(err).NotTo(HaveOccurred())
			_, err = s.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())

			prof := analysis.Profile{}
			for _, p := range s.Store().Alive() {
				prof.X = append(prof.X, p.Pos)
				prof.Values = append(prof.Values, p.Density)
			}

			shock := analysis.IsothermalShock{Rho0: 1, V0: 1, Cs: 1}
			h0 := 1.2 * 0.01
			xs, rhos := analysis.Window(prof, shock.ValidHalfWidth(1, end)-3*h0)
			Expect(len(xs)).To(BeNumerically(">", 50))

			rms := analysis.RMSRelative(xs, rhos, func(x float64) float64 { return shock.Density(x, end) })
			Expect(rms).To(BeNumerically("<", 0.15))

			plateau := analysis.MeanIn(prof, 0.5*shock.ShockSpeed()*end)
			Expect(plateau).To(BeNumerically("~", shock.PostDensity(), 0.2*shock.PostDensity()))
		})
	})
})

var _ = Describe("Ensemble", func() {
	It("runs independent members and keeps result order", func() {
		cfgs := []sim.Config{
			collidingFlow(20, 0.002, 0.01),
			collidingFlow(40, 0.002, 0.01),
			collidingFlow(30, 0.002, 0.01),
		}
		e := sim.NewEnsemble(cfgs, func(int) []sim.Option { return []sim.Option{quiet()} })
		e.SetLimit(2)

		res, err := e.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(res).To(HaveLen(3))
		Expect(res[0].NAlive).To(Equal(20))
		Expect(res[1].NAlive).To(Equal(40))
		Expect(res[2].NAlive).To(Equal(30))
		for _, r := range res {
			Expect(r.Steps).To(Equal(5))
		}
	})

	It("fails when any member fails", func() {
		bad := collidingFlow(20, 0.002, 0.01)
		bad.Integrator = "nope"
		e := sim.NewEnsemble([]sim.Config{collidingFlow(20, 0.002, 0.01), bad},
			func(int) []sim.Option { return []sim.Option{quiet()} })

		_, err := e.Run(context.Background())
		Expect(err).To(HaveOccurred())
	})
})
