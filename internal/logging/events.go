package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nvandessel/countconf/internal/stats"
)

// EventsFile is the run event log's file name inside the config directory.
const EventsFile = "events.jsonl"

// EventKind names a point in a run's lifecycle.
type EventKind string

const (
	EventRunStarted   EventKind = "run_started"
	EventRunCancelled EventKind = "run_cancelled"
	EventRunFinished  EventKind = "run_finished"
)

// RunParams are the inputs of a run as recorded in run_started.
type RunParams struct {
	NRef           int     `json:"n_ref"`
	CV             float64 `json:"cv"`
	NCounted       int     `json:"n_counted"`
	NRequired      int     `json:"n_required"`
	NumSimulations int     `json:"num_simulations"`
	MuWeight       float64 `json:"mu_weight"`
}

// RunOutcome summarizes a finished run. Per-trial estimates are never logged.
type RunOutcome struct {
	Valid           int         `json:"valid"`
	Invalid         int         `json:"invalid"`
	ConfidenceLevel stats.Value `json:"confidence_level"`
	StdDev          stats.Value `json:"std_dev"`
}

// RunEvent is one line of the event log. Params and SliceSize are set on
// run_started, Outcome on run_finished.
type RunEvent struct {
	Time      time.Time   `json:"time"`
	Event     EventKind   `json:"event"`
	RunID     string      `json:"run_id"`
	Params    *RunParams  `json:"params,omitempty"`
	SliceSize int         `json:"slice_size,omitempty"`
	Completed int         `json:"completed"`
	Total     int         `json:"total"`
	ElapsedMS int64       `json:"elapsed_ms"`
	Outcome   *RunOutcome `json:"outcome,omitempty"`
}

// EventLogger appends RunEvents to a JSONL file. It is safe for concurrent
// use, and a nil *EventLogger (or a nil *RunTrace from it) discards events.
type EventLogger struct {
	mu   sync.Mutex
	file *os.File
	now  func() time.Time
	seq  atomic.Uint64
}

// NewEventLogger opens dir/events.jsonl for append when level is debug or
// trace. At info level, or when the file cannot be opened, it returns nil
// and no file is created.
func NewEventLogger(dir string, level string) *EventLogger {
	if !verbose(level) {
		return nil
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil
	}
	f, err := os.OpenFile(filepath.Join(dir, EventsFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil
	}
	return &EventLogger{file: f, now: time.Now}
}

// StartRun records run_started and returns the trace for the rest of the run.
func (el *EventLogger) StartRun(params RunParams, sliceSize int) *RunTrace {
	if el == nil {
		return nil
	}
	start := el.now()
	rt := &RunTrace{
		log:   el,
		id:    runID(start, el.seq.Add(1)),
		start: start,
		total: params.NumSimulations,
	}
	rt.emitAt(start, RunEvent{Event: EventRunStarted, Params: &params, SliceSize: sliceSize})
	return rt
}

// Close closes the log file. Later events are dropped.
func (el *EventLogger) Close() {
	if el == nil {
		return
	}
	el.mu.Lock()
	defer el.mu.Unlock()
	if el.file != nil {
		el.file.Close()
		el.file = nil
	}
}

func (el *EventLogger) write(ev RunEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	data = append(data, '\n')

	el.mu.Lock()
	defer el.mu.Unlock()
	if el.file == nil {
		return
	}
	_, _ = el.file.Write(data)
}

// runID is unique per process and sortable by start time.
func runID(start time.Time, seq uint64) string {
	return strconv.FormatInt(start.UnixMilli(), 36) + "-" + strconv.FormatUint(seq, 36)
}

// RunTrace ties the events of one run together under a shared run ID.
type RunTrace struct {
	log   *EventLogger
	id    string
	start time.Time
	total int
}

// ID returns the run ID, or "" for a nil trace.
func (rt *RunTrace) ID() string {
	if rt == nil {
		return ""
	}
	return rt.id
}

// Cancelled records run_cancelled after completed trials.
func (rt *RunTrace) Cancelled(completed int) {
	if rt == nil {
		return
	}
	rt.emit(RunEvent{Event: EventRunCancelled, Completed: completed})
}

// Finished records run_finished with the run's outcome.
func (rt *RunTrace) Finished(outcome RunOutcome) {
	if rt == nil {
		return
	}
	rt.emit(RunEvent{Event: EventRunFinished, Completed: rt.total, Outcome: &outcome})
}

func (rt *RunTrace) emit(ev RunEvent) {
	rt.emitAt(rt.log.now(), ev)
}

func (rt *RunTrace) emitAt(t time.Time, ev RunEvent) {
	ev.Time = t.UTC()
	ev.RunID = rt.id
	ev.Total = rt.total
	ev.ElapsedMS = ev.Time.Sub(rt.start).Milliseconds()
	rt.log.write(ev)
}
