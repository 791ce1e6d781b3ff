package dispersion

import "sync"

type memoKey struct {
	in        float64
	depth     float64
	precision int
}

// Memo caches solver results keyed by (input, depth, precision). It is safe
// for concurrent use.
type Memo struct {
	mu         sync.RWMutex
	wavenumber map[memoKey]float64
	frequency  map[memoKey]float64
}

// NewMemo returns an empty cache.
func NewMemo() *Memo {
	return &Memo{
		wavenumber: make(map[memoKey]float64),
		frequency:  make(map[memoKey]float64),
	}
}

// Wavenumber is a cached SolveWavenumber.
func (m *Memo) Wavenumber(omega, depth float64, precision int) float64 {
	return m.lookup(m.wavenumber, memoKey{omega, depth, precision}, func() float64 {
		return SolveWavenumber(omega, depth, precision)
	})
}

// Frequency is a cached SolveFrequency.
func (m *Memo) Frequency(k, depth float64, precision int) float64 {
	return m.lookup(m.frequency, memoKey{k, depth, precision}, func() float64 {
		return SolveFrequency(k, depth, precision)
	})
}

// Len reports the number of cached results.
func (m *Memo) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.wavenumber) + len(m.frequency)
}

func (m *Memo) lookup(cache map[memoKey]float64, key memoKey, solve func() float64) float64 {
	m.mu.RLock()
	v, ok := cache[key]
	m.mu.RUnlock()
	if ok {
		return v
	}

	v = solve()

	m.mu.Lock()
	cache[key] = v
	m.mu.Unlock()
	return v
}
