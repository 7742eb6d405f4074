package logging

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nvandessel/countconf/internal/stats"
)

var testParams = RunParams{NRef: 100, CV: 0.05, NCounted: 1000, NRequired: 1000, NumSimulations: 500, MuWeight: 1}

// newTestEventLogger returns a debug-level logger in a temp dir whose clock
// advances one second per reading.
func newTestEventLogger(t *testing.T) (*EventLogger, string) {
	t.Helper()
	dir := t.TempDir()
	el := NewEventLogger(dir, "debug")
	if el == nil {
		t.Fatal("NewEventLogger returned nil at debug level")
	}
	t.Cleanup(el.Close)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ticks := 0
	el.now = func() time.Time {
		defer func() { ticks++ }()
		return base.Add(time.Duration(ticks) * time.Second)
	}
	return el, filepath.Join(dir, EventsFile)
}

func readEvents(t *testing.T, path string) []RunEvent {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open events: %v", err)
	}
	defer f.Close()

	var events []RunEvent
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var ev RunEvent
		if err := json.Unmarshal(sc.Bytes(), &ev); err != nil {
			t.Fatalf("line %q: %v", sc.Text(), err)
		}
		events = append(events, ev)
	}
	return events
}

func TestNewEventLogger_Level(t *testing.T) {
	tests := []struct {
		level   string
		enabled bool
	}{
		{"", false},
		{"info", false},
		{"debug", true},
		{"trace", true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "countconf")
			el := NewEventLogger(dir, tt.level)
			defer el.Close()

			if (el != nil) != tt.enabled {
				t.Fatalf("NewEventLogger(%q) enabled = %v, want %v", tt.level, el != nil, tt.enabled)
			}
			_, err := os.Stat(filepath.Join(dir, EventsFile))
			if tt.enabled && err != nil {
				t.Errorf("event file should exist: %v", err)
			}
			if !tt.enabled && !os.IsNotExist(err) {
				t.Errorf("no event file should be created at %q level", tt.level)
			}
		})
	}
}

func TestRunTrace_Finished(t *testing.T) {
	el, path := newTestEventLogger(t)

	rt := el.StartRun(testParams, 5)
	rt.Finished(RunOutcome{
		Valid:           498,
		Invalid:         2,
		ConfidenceLevel: stats.Some(51.2),
		StdDev:          stats.Some(7.1),
	})
	el.Close()

	events := readEvents(t, path)
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	started, finished := events[0], events[1]

	if started.Event != EventRunStarted || finished.Event != EventRunFinished {
		t.Errorf("events = %s, %s", started.Event, finished.Event)
	}
	if started.RunID == "" || started.RunID != rt.ID() || finished.RunID != rt.ID() {
		t.Errorf("run ids = %q, %q, trace %q", started.RunID, finished.RunID, rt.ID())
	}
	if started.Params == nil || *started.Params != testParams {
		t.Errorf("started params = %+v", started.Params)
	}
	if started.SliceSize != 5 || started.Completed != 0 || started.Total != 500 {
		t.Errorf("started = %+v", started)
	}
	if started.Outcome != nil {
		t.Error("run_started should not carry an outcome")
	}

	if finished.Params != nil {
		t.Error("run_finished should not repeat params")
	}
	if finished.Completed != 500 || finished.Total != 500 {
		t.Errorf("finished progress = %d/%d, want 500/500", finished.Completed, finished.Total)
	}
	if finished.ElapsedMS != 1000 {
		t.Errorf("finished elapsed_ms = %d, want 1000", finished.ElapsedMS)
	}
	o := finished.Outcome
	if o == nil || o.Valid != 498 || o.Invalid != 2 || o.ConfidenceLevel.V != 51.2 || o.StdDev.V != 7.1 {
		t.Errorf("outcome = %+v", o)
	}
}

func TestRunTrace_Cancelled(t *testing.T) {
	el, path := newTestEventLogger(t)

	el.StartRun(testParams, 5).Cancelled(135)
	el.Close()

	events := readEvents(t, path)
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	ev := events[1]
	if ev.Event != EventRunCancelled || ev.Completed != 135 || ev.Total != 500 || ev.Outcome != nil {
		t.Errorf("cancelled = %+v", ev)
	}
}

func TestRunTrace_UndefinedStatsAreNull(t *testing.T) {
	el, path := newTestEventLogger(t)

	el.StartRun(testParams, 5).Finished(RunOutcome{Invalid: 500, ConfidenceLevel: stats.None(), StdDev: stats.None()})
	el.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	last := lines[len(lines)-1]
	for _, want := range []string{`"confidence_level":null`, `"std_dev":null`, `"valid":0`} {
		if !strings.Contains(last, want) {
			t.Errorf("run_finished line missing %s: %s", want, last)
		}
	}
}

func TestRunTrace_DistinctRunIDs(t *testing.T) {
	el, _ := newTestEventLogger(t)

	seen := map[string]bool{}
	for range 5 {
		id := el.StartRun(testParams, 5).ID()
		if seen[id] {
			t.Fatalf("duplicate run id %q", id)
		}
		seen[id] = true
	}
}

func TestEventLogger_NilSafety(t *testing.T) {
	var el *EventLogger
	rt := el.StartRun(testParams, 5)
	if rt != nil {
		t.Fatal("nil logger should return a nil trace")
	}
	rt.Cancelled(3)
	rt.Finished(RunOutcome{})
	if rt.ID() != "" {
		t.Error("nil trace should have an empty id")
	}
	el.Close()
}

func TestEventLogger_DropsAfterClose(t *testing.T) {
	el, path := newTestEventLogger(t)

	rt := el.StartRun(testParams, 5)
	el.Close()
	rt.Finished(RunOutcome{Valid: 500})

	if n := len(readEvents(t, path)); n != 1 {
		t.Errorf("got %d events, want only run_started", n)
	}
}

func TestEventLogger_ConcurrentRuns(t *testing.T) {
	el, path := newTestEventLogger(t)
	el.now = time.Now

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			el.StartRun(testParams, 5).Finished(RunOutcome{Valid: 500})
		}()
	}
	wg.Wait()
	el.Close()

	events := readEvents(t, path)
	if len(events) != 16 {
		t.Fatalf("got %d events, want 16", len(events))
	}
	perRun := map[string]int{}
	for _, ev := range events {
		perRun[ev.RunID]++
	}
	if len(perRun) != 8 {
		t.Errorf("got %d distinct runs, want 8", len(perRun))
	}
}

func TestEventLogger_FilePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file modes are not enforced on windows")
	}
	_, path := newTestEventLogger(t)

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("event file mode = %o, want 0600", perm)
	}
}
