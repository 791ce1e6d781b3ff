package limitstore

import (
	"context"
	"errors"
	"math"

	"github.com/joeydtaylor/makewaves/pkg/internal/safety"
	"github.com/joeydtaylor/makewaves/pkg/internal/types"
)

// ErrNotFound is returned by a Store that holds no table.
var ErrNotFound = errors.New("limit table not found")

// Store loads and saves a limit table.
type Store interface {
	Load(ctx context.Context) (*safety.Table, error)
	Save(ctx context.Context, t *safety.Table) error
}

// LoadOrBuild returns the stored table when it was built from solver's
// params on grid, otherwise builds one with solver and saves it. A failed save is logged and the built table
// is still returned.
func LoadOrBuild(ctx context.Context, store Store, solver *safety.Solver, grid safety.TableGrid, loggers ...types.Logger) (*safety.Table, error) {
	log := func(level types.LogLevel, msg string, kv ...interface{}) {
		kv = append([]interface{}{"component", types.ComponentMetadata{Type: "LIMIT_STORE"}}, kv...)
		for _, l := range loggers {
			if l == nil || l.GetLevel() > level {
				continue
			}
			switch level {
			case types.DebugLevel:
				l.Debug(msg, kv...)
			case types.InfoLevel:
				l.Info(msg, kv...)
			case types.WarnLevel:
				l.Warn(msg, kv...)
			default:
				l.Error(msg, kv...)
			}
		}
	}

	t, err := store.Load(ctx)
	switch {
	case err == nil && covers(t, solver, grid):
		log(types.DebugLevel, "Limit table loaded", "event", "Load", "result", "SUCCESS", "rows", t.Len())
		return t, nil
	case err == nil:
		log(types.WarnLevel, "Stored limit table does not match limits or grid, rebuilding", "event", "Load", "result", "STALE", "rows", t.Len())
	case errors.Is(err, ErrNotFound):
		log(types.InfoLevel, "No stored limit table, building", "event", "Load", "result", "MISSING")
	default:
		return nil, err
	}

	t, err = safety.BuildTable(ctx, solver, grid)
	if err != nil {
		return nil, err
	}
	if err := store.Save(ctx, t); err != nil {
		log(types.WarnLevel, "Saving limit table failed", "event", "Save", "result", "FAILURE", "error", err)
		return t, nil
	}
	log(types.InfoLevel, "Limit table built and saved", "event", "Save", "result", "SUCCESS", "rows", t.Len())
	return t, nil
}

func covers(t *safety.Table, solver *safety.Solver, grid safety.TableGrid) bool {
	if t.Fingerprint() != safety.Fingerprint(solver.Params(), grid) {
		return false
	}
	want := grid.Periods()
	got := t.Periods()
	if len(want) != len(got) || len(want) == 0 {
		return false
	}
	const tol = 1e-9
	return math.Abs(want[0]-got[0]) < tol && math.Abs(want[len(want)-1]-got[len(got)-1]) < tol
}
