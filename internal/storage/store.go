package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/san-kum/sph1d/internal/config"
	"github.com/san-kum/sph1d/internal/sim"
)

const (
	metadataFile = "metadata.json"
	dumpDir      = "dumps"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Timestamp time.Time          `json:"timestamp"`
	Config    config.Config      `json:"config"`
	DumpEvery int                `json:"dump_every"`
	Dumps     int                `json:"dumps"`
	Steps     int                `json:"steps"`
	Time      float64            `json:"time"`
	NAlive    int                `json:"n_alive"`
	NGhost    int                `json:"n_ghost"`
	Newton    int                `json:"newton"`
	Bisection int                `json:"bisection"`
	Best      int                `json:"best_estimate"`
	Metrics   map[string]float64 `json:"metrics"`
	Error     string             `json:"error,omitempty"`
}

// Run is one output directory holding metadata.json and a dumps/ folder.
type Run struct {
	ID  string
	Dir string
}

func (r *Run) DumpDir() string { return filepath.Join(r.Dir, dumpDir) }

// Create makes a fresh run directory named after name and the current time.
func (s *Store) Create(name string) (*Run, error) {
	runID := fmt.Sprintf("%s_%d", name, time.Now().UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(filepath.Join(runDir, dumpDir), 0755); err != nil {
		return nil, err
	}
	return &Run{ID: runID, Dir: runDir}, nil
}

// Finish writes the metadata for a completed (or aborted) run.
func (s *Store) Finish(run *Run, name string, cfg config.Config, dumps *DumpWriter, res *sim.Result, runErr error) error {
	meta := RunMetadata{
		ID:        run.ID,
		Name:      name,
		Timestamp: time.Now(),
		Config:    cfg,
	}
	if dumps != nil {
		meta.DumpEvery = dumps.Every()
		meta.Dumps = dumps.Count()
	}
	if res != nil {
		meta.Steps = res.Steps
		meta.Time = res.Time
		meta.NAlive = res.NAlive
		meta.NGhost = res.NGhost
		meta.Newton = res.Newton
		meta.Bisection = res.Bisection
		meta.Best = res.BestEstimate
		meta.Metrics = res.Metrics
	}
	if runErr != nil {
		meta.Error = runErr.Error()
	}

	metaFile, err := os.Create(filepath.Join(run.Dir, metadataFile))
	if err != nil {
		return err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

// List returns the metadata of every run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// Dumps lists the dump files of a run in write order.
func (s *Store) Dumps(runID string) ([]string, error) {
	return ListDumps(filepath.Join(s.baseDir, runID, dumpDir))
}
