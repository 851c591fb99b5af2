package sim

import (
	"fmt"

	"github.com/san-kum/sph1d/internal/particle"
	"github.com/san-kum/sph1d/internal/sph"
)

type Phase int

const (
	Initializing Phase = iota
	Running
	Finished
)

func (p Phase) String() string {
	switch p {
	case Initializing:
		return "initializing"
	case Running:
		return "running"
	case Finished:
		return "finished"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Snapshot is handed to observers once per step. Store is only valid for the
// duration of the call; observers must copy anything they keep.
type Snapshot struct {
	Step  int
	Time  float64
	Store *particle.Store
}

type Observer interface {
	OnStep(s Snapshot) error
}

type ObserverFunc func(s Snapshot) error

func (f ObserverFunc) OnStep(s Snapshot) error { return f(s) }

type Metric interface {
	Name() string
	Observe(s Snapshot)
	Value() float64
	Reset()
}

// Config is the run description: physics parameters, initial conditions and
// time control.
type Config struct {
	Params     sph.Params
	Initial    sph.InitialConditions
	Dt         float64
	EndTime    float64
	Integrator string
}

type Result struct {
	Steps   int
	Time    float64
	NAlive  int
	NGhost  int
	Metrics map[string]float64

	// Solver usage totals over the run.
	Newton, Bisection, BestEstimate int
}
