package simulation

import (
	"sync"

	"github.com/nvandessel/countconf/internal/variate"
)

// NewSeededEngine creates an engine over a deterministic source. Two engines
// built from the same seed produce identical runs.
func NewSeededEngine(seed uint64) *Engine {
	return NewEngine(variate.NewGenerator(variate.NewSeededSource(seed)))
}

// Recorder is an Observer that keeps every progress event it receives.
// It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Progress
}

// Observe records p.
func (r *Recorder) Observe(p Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, p)
}

// Events returns a copy of the recorded events in arrival order.
func (r *Recorder) Events() []Progress {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Progress, len(r.events))
	copy(out, r.events)
	return out
}
