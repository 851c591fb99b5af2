package storage

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/san-kum/sph1d/internal/particle"
	"github.com/san-kum/sph1d/internal/sim"
)

const dumpHeader = `# Column definitions:
# Particle ID / Type / Smoothing length / Density / Pressure / Acceleration / Velocity / Position / Thermal energy
# Aligned definition 'tags' for easier reading:
# ID    TYPE     H          DENSITY  PRESS    ACCEL     VEL       POS       U
`

const rowFormat = "%4d    %s    %3.5f    %3.3f    %3.3f    %+3.3f    %+3.3f    %+3.3f    %3.3f\n"

// WriteDump writes every particle, live and ghost, in the fixed-width text
// format.
func WriteDump(w io.Writer, t float64, st *particle.Store) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# This file was dumped at t = %s\n", strconv.FormatFloat(t, 'g', 6, 64))
	bw.WriteString(dumpHeader)
	for _, p := range st.All() {
		fmt.Fprintf(bw, rowFormat, p.ID, p.Kind, p.H, p.Density, p.Pressure, p.Acc, p.Vel, p.Pos, p.U)
	}
	return bw.Flush()
}

// DumpWriter is an observer writing <dir>/<n>.txt every Every-th step, with
// n counting written files from zero.
type DumpWriter struct {
	dir   string
	every int
	count int
}

func NewDumpWriter(dir string, every int) *DumpWriter {
	if every < 1 {
		every = 1
	}
	return &DumpWriter{dir: dir, every: every}
}

func (d *DumpWriter) Every() int { return d.every }
func (d *DumpWriter) Count() int { return d.count }

func (d *DumpWriter) OnStep(s sim.Snapshot) error {
	if s.Step%d.every != 0 {
		return nil
	}
	f, err := os.Create(filepath.Join(d.dir, strconv.Itoa(d.count)+".txt"))
	if err != nil {
		return err
	}
	if err := WriteDump(f, s.Time, s.Store); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	d.count++
	return nil
}

type Row struct {
	ID       int64
	Kind     string
	H        float64
	Density  float64
	Pressure float64
	Acc      float64
	Vel      float64
	Pos      float64
	U        float64
}

func (r Row) IsGhost() bool { return r.Kind == particle.Ghost.String() }

type Dump struct {
	Time float64
	Rows []Row
}

// Alive returns the live rows only.
func (d *Dump) Alive() []Row {
	out := make([]Row, 0, len(d.Rows))
	for _, r := range d.Rows {
		if !r.IsGhost() {
			out = append(out, r)
		}
	}
	return out
}

func ReadDumpFile(path string) (*Dump, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadDump(f)
}

func ReadDump(r io.Reader) (*Dump, error) {
	d := &Dump{}
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		if strings.HasPrefix(text, "#") {
			if v, ok := strings.CutPrefix(text, "# This file was dumped at t = "); ok {
				t, err := strconv.ParseFloat(v, 64)
				if err != nil {
					return nil, fmt.Errorf("dump line %d: bad time: %w", line, err)
				}
				d.Time = t
			}
			continue
		}

		row, err := parseRow(strings.Fields(text))
		if err != nil {
			return nil, fmt.Errorf("dump line %d: %w", line, err)
		}
		d.Rows = append(d.Rows, row)
	}
	return d, sc.Err()
}

func parseRow(f []string) (Row, error) {
	if len(f) != 9 {
		return Row{}, fmt.Errorf("expected 9 columns, got %d", len(f))
	}
	id, err := strconv.ParseInt(f[0], 10, 64)
	if err != nil {
		return Row{}, err
	}
	vals := make([]float64, 7)
	for i := range vals {
		if vals[i], err = strconv.ParseFloat(f[i+2], 64); err != nil {
			return Row{}, err
		}
	}
	return Row{
		ID: id, Kind: f[1],
		H: vals[0], Density: vals[1], Pressure: vals[2],
		Acc: vals[3], Vel: vals[4], Pos: vals[5], U: vals[6],
	}, nil
}

// ListDumps returns the <n>.txt files in dir ordered by n.
func ListDumps(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	type indexed struct {
		n    int
		path string
	}
	var found []indexed
	for _, e := range entries {
		name, ok := strings.CutSuffix(e.Name(), ".txt")
		if e.IsDir() || !ok {
			continue
		}
		n, err := strconv.Atoi(name)
		if err != nil {
			continue
		}
		found = append(found, indexed{n, filepath.Join(dir, e.Name())})
	}
	sort.Slice(found, func(i, j int) bool { return found[i].n < found[j].n })

	paths := make([]string, len(found))
	for i, f := range found {
		paths[i] = f.path
	}
	return paths, nil
}
