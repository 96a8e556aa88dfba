package vectorstore

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"
)

// Memory is a brute-force cosine-similarity Store used in tests and local
// development.
type Memory struct {
	mu        sync.RWMutex
	dimension int
	records   []Record
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) EnsureCollection(_ context.Context, dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dimension = dimension
	m.records = nil
	return nil
}

func (m *Memory) Upsert(_ context.Context, records []Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range records {
		if m.dimension > 0 && len(rec.Vector) != m.dimension {
			return errors.New("vector dimension mismatch")
		}
	}
	m.records = append(m.records, records...)
	return nil
}

func (m *Memory) Search(_ context.Context, vector []float32, topK int, filters ...Filter) ([]Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if topK <= 0 {
		topK = 3
	}

	var matches []Match
	for _, rec := range m.records {
		if !matchesFilters(rec, filters) {
			continue
		}
		matches = append(matches, Match{Record: rec, Score: cosine(rec.Vector, vector)})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

func matchesFilters(rec Record, filters []Filter) bool {
	for _, f := range filters {
		if rec.Metadata[f.Key] != f.Value {
			return false
		}
	}
	return true
}

func cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
