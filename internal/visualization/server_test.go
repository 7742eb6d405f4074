package visualization

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/nvandessel/countconf/internal/report"
)

func startServer(t *testing.T, srv *Server) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(ctx) }()
	waitForServer(t, srv, 2*time.Second)
	t.Cleanup(cancel)
	return cancel
}

func TestServer_ServesHTML(t *testing.T) {
	srv := NewServer(testResult(t, 0.05), 0)
	startServer(t, srv)

	resp, err := http.Get("http://" + srv.Addr() + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET / status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q, want text/html; charset=utf-8", ct)
	}
}

func TestServer_UnknownPath(t *testing.T) {
	srv := NewServer(testResult(t, 0.05), 0)
	startServer(t, srv)

	resp, err := http.Get("http://" + srv.Addr() + "/nope")
	if err != nil {
		t.Fatalf("GET /nope: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestServer_Histogram(t *testing.T) {
	srv := NewServer(testResult(t, 0.05), 0)
	startServer(t, srv)

	resp, err := http.Get("http://" + srv.Addr() + "/histogram.svg")
	if err != nil {
		t.Fatalf("GET /histogram.svg: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("Content-Type = %q, want image/svg+xml", ct)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "<svg") {
		t.Error("body is not SVG")
	}
}

func TestServer_HistogramNoData(t *testing.T) {
	srv := NewServer(emptyResult(), 0)
	startServer(t, srv)

	resp, err := http.Get("http://" + srv.Addr() + "/histogram.svg")
	if err != nil {
		t.Fatalf("GET /histogram.svg: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404 without valid counts", resp.StatusCode)
	}
}

func TestServer_ResultEndpoint(t *testing.T) {
	res := testResult(t, 0.05)
	srv := NewServer(res, 0)
	startServer(t, srv)

	tests := []struct {
		name       string
		query      string
		wantCounts int
	}{
		{"summary only", "", 0},
		{"with counts", "?counts=true", res.ValidCount()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get("http://" + srv.Addr() + "/api/result" + tt.query)
			if err != nil {
				t.Fatalf("GET /api/result: %v", err)
			}
			defer resp.Body.Close()

			var got report.Summary
			if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
				t.Fatalf("decode JSON: %v", err)
			}
			if got.Trials != res.Trials {
				t.Errorf("trials = %d, want %d", got.Trials, res.Trials)
			}
			if got.ConfidenceLevel != res.ConfidenceLevel {
				t.Errorf("confidence = %v, want %v", got.ConfidenceLevel, res.ConfidenceLevel)
			}
			if len(got.SimulatedCountsValid) != tt.wantCounts {
				t.Errorf("counts = %d, want %d", len(got.SimulatedCountsValid), tt.wantCounts)
			}
		})
	}
}

func TestServer_CleanShutdown(t *testing.T) {
	srv := NewServer(testResult(t, 0.05), 0)
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(ctx) }()

	waitForServer(t, srv, 2*time.Second)

	// Cancel context to trigger shutdown
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("unexpected error on shutdown: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down within 3 seconds")
	}
}

// waitForServer polls the server until it's ready or the timeout is reached.
func waitForServer(t *testing.T, srv *Server, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		addr := srv.Addr()
		if addr == "" {
			time.Sleep(10 * time.Millisecond)
			continue
		}
		resp, err := http.Get("http://" + addr + "/")
		if err == nil {
			resp.Body.Close()
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("server did not start within timeout")
}
