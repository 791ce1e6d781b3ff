package safety

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync"

	"github.com/joeydtaylor/makewaves/pkg/internal/types"
)

// TableGrid describes the period grid of a limit table.
type TableGrid struct {
	MinPeriod   float64
	MaxPeriod   float64
	Step        float64
	ProbeHeight float64 // height requested at every grid point; larger than any safe height
}

// DefaultGrid covers the full regular-wave period range at 1 ms resolution.
func DefaultGrid() TableGrid {
	return TableGrid{
		MinPeriod:   types.MinPeriod,
		MaxPeriod:   types.MaxPeriod,
		Step:        0.001,
		ProbeHeight: 50,
	}
}

// Periods returns the grid points.
func (g TableGrid) Periods() []float64 {
	if g.Step <= 0 || g.MaxPeriod < g.MinPeriod {
		return nil
	}
	n := int(math.Round((g.MaxPeriod-g.MinPeriod)/g.Step)) + 1
	out := make([]float64, n)
	for i := range out {
		// Rounded to 1e-9 so stored grids compare equal across platforms.
		out[i] = math.Round((g.MinPeriod+float64(i)*g.Step)*1e9) / 1e9
	}
	return out
}

// Table maps periods to maximum safe heights. It is immutable after
// construction and safe for concurrent readers.
type Table struct {
	periods     []float64
	maxHeights  []float64
	fingerprint string
}

// Fingerprint identifies the solver limits and grid a table was built from.
// Two tables with equal fingerprints hold the same rows.
func Fingerprint(p Params, g TableGrid) string {
	return fmt.Sprintf("v1 flap=%v depth=%v half_stroke=%v steepness=%v height_depth=%v precision=%d min=%v max=%v step=%v probe=%v",
		p.FlapHeight, p.Depth, p.MaxHalfStroke, p.MaxSteepness, p.MaxHeightDepthRatio, p.Precision,
		g.MinPeriod, g.MaxPeriod, g.Step, g.ProbeHeight)
}

// NewTable validates and wraps parallel period / max-height arrays.
func NewTable(periods, maxHeights []float64) (*Table, error) {
	if len(periods) == 0 {
		return nil, fmt.Errorf("safety table: no periods")
	}
	if len(periods) != len(maxHeights) {
		return nil, fmt.Errorf("safety table: %d periods but %d heights", len(periods), len(maxHeights))
	}
	if !sort.Float64sAreSorted(periods) {
		return nil, fmt.Errorf("safety table: periods must be ascending")
	}
	return &Table{
		periods:    append([]float64(nil), periods...),
		maxHeights: append([]float64(nil), maxHeights...),
	}, nil
}

// BuildTable evaluates the solver at every grid period. Rows are computed in
// parallel; the output does not depend on scheduling.
func BuildTable(ctx context.Context, s *Solver, g TableGrid) (*Table, error) {
	periods := g.Periods()
	if len(periods) == 0 {
		return nil, fmt.Errorf("%w: empty table grid %+v", types.ErrConfiguration, g)
	}
	heights := make([]float64, len(periods))

	workers := runtime.GOMAXPROCS(0)
	if workers > len(periods) {
		workers = len(periods)
	}

	var wg sync.WaitGroup
	errCh := make(chan error, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(offset int) {
			defer wg.Done()
			for n, i := 0, offset; i < len(periods); n, i = n+1, i+workers {
				if n%64 == 0 {
					if err := ctx.Err(); err != nil {
						errCh <- err
						return
					}
				}
				heights[i] = s.SafeHeight(g.ProbeHeight, periods[i])
			}
		}(w)
	}
	wg.Wait()
	close(errCh)
	if err := <-errCh; err != nil {
		return nil, err
	}

	return &Table{periods: periods, maxHeights: heights, fingerprint: Fingerprint(s.params, g)}, nil
}

// Fingerprint returns the provenance recorded by BuildTable or
// WithFingerprint. Tables from NewTable have none.
func (t *Table) Fingerprint() string { return t.fingerprint }

// WithFingerprint returns a copy of t carrying fp.
func (t *Table) WithFingerprint(fp string) *Table {
	c := *t
	c.fingerprint = fp
	return &c
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.periods) }

// Periods returns a copy of the period column.
func (t *Table) Periods() []float64 { return append([]float64(nil), t.periods...) }

// MaxHeights returns a copy of the max-height column.
func (t *Table) MaxHeights() []float64 { return append([]float64(nil), t.maxHeights...) }

// MaxHeight returns the limit at the grid period nearest to period.
func (t *Table) MaxHeight(period float64) float64 {
	return t.maxHeights[t.nearest(period)]
}

// Clamp applies the table to a requested height.
func (t *Table) Clamp(height, period float64) types.ClampInfo {
	limit := t.MaxHeight(period)
	applied := math.Min(height, limit)
	return types.ClampInfo{
		Requested: height,
		Applied:   applied,
		Period:    period,
		Clamped:   applied < height,
	}
}

func (t *Table) nearest(period float64) int {
	i := sort.SearchFloat64s(t.periods, period)
	switch {
	case i == 0:
		return 0
	case i == len(t.periods):
		return len(t.periods) - 1
	}
	if period-t.periods[i-1] <= t.periods[i]-period {
		return i - 1
	}
	return i
}
