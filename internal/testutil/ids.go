package testutil

import (
	"fmt"
	"sync"
)

// SequenceIDGenerator returns run IDs "run-0001", "run-0002", ... so that
// stored runs and their listings are byte-identical across test runs.
//
// Thread-safety: safe for concurrent use via internal mutex.
type SequenceIDGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequenceIDGenerator creates a generator. An empty prefix defaults
// to "run".
func NewSequenceIDGenerator(prefix string) *SequenceIDGenerator {
	if prefix == "" {
		prefix = "run"
	}
	return &SequenceIDGenerator{prefix: prefix}
}

// Generate returns the next ID.
func (g *SequenceIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}
