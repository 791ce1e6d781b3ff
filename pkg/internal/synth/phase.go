package synth

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

// PhaseSource yields random phases in [0, 2π).
type PhaseSource interface {
	Phase() float64
}

type randPhases struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSeededPhases returns a reproducible phase source.
func NewSeededPhases(seed int64) PhaseSource {
	return &randPhases{rng: rand.New(rand.NewSource(seed))}
}

// NewClockPhases seeds from the wall clock.
func NewClockPhases() PhaseSource {
	return NewSeededPhases(time.Now().UnixNano())
}

func (r *randPhases) Phase() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return 2 * math.Pi * r.rng.Float64()
}
