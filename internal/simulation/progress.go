package simulation

import (
	"fmt"
	"time"

	"github.com/nvandessel/countconf/internal/constants"
)

// Progress is reported after every slice of trials.
type Progress struct {
	Completed int           `json:"completed"`
	Total     int           `json:"total"`
	Percent   int           `json:"percent"`
	ETA       time.Duration `json:"eta"`
}

// String renders the progress line shown to users, e.g. "Simulating... 42%".
func (p Progress) String() string {
	return fmt.Sprintf("Simulating... %d%%", p.Percent)
}

// Done reports whether this is the final event of a run.
func (p Progress) Done() bool {
	return p.Completed >= p.Total
}

// Observer receives progress events. Implementations must not block.
type Observer interface {
	Observe(Progress)
}

// ProgressFunc adapts a function to the Observer interface.
type ProgressFunc func(Progress)

// Observe calls f(p).
func (f ProgressFunc) Observe(p Progress) {
	f(p)
}

// SliceSize returns the number of trials run between progress reports:
// about one percent of the run, never less than one.
func SliceSize(numSimulations int) int {
	return max(1, numSimulations/constants.SlicesPerRun)
}

func newProgress(completed, total int, elapsed time.Duration) Progress {
	p := Progress{
		Completed: completed,
		Total:     total,
		Percent:   completed * 100 / total,
	}
	if completed > 0 && completed < total {
		p.ETA = time.Duration(float64(elapsed) / float64(completed) * float64(total-completed))
	}
	return p
}
