package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/m-hartl/lettersort/internal/pipeline"
	"github.com/m-hartl/lettersort/internal/stability"
)

type recordingProcessor struct {
	mu    sync.Mutex
	paths []string
}

func (r *recordingProcessor) Process(_ context.Context, path string) pipeline.Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
	return pipeline.Record{Source: path, Outcome: pipeline.OutcomeFiled}
}

func (r *recordingProcessor) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func fastGate() *stability.Gate {
	return stability.New(stability.Options{
		PollInterval:   5 * time.Millisecond,
		RequiredStable: 2,
		MaxPolls:       20,
	})
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func startWatcher(t *testing.T, w *Watcher) (cancel func()) {
	t.Helper()
	ctx, stop := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		stop()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("watcher exited with error: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Error("watcher did not stop on cancellation")
		}
	})
	return stop
}

func TestRunProcessesNewPDF(t *testing.T) {
	dir := t.TempDir()
	proc := &recordingProcessor{}
	w := New(Config{Dir: dir}, fastGate(), proc, nil)
	startWatcher(t, w)

	// Give the subscription a moment before creating the file.
	time.Sleep(100 * time.Millisecond)
	path := filepath.Join(dir, "scan.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatal(err)
	}

	if !waitFor(t, 5*time.Second, func() bool { return len(proc.seen()) == 1 }) {
		t.Fatalf("document was not processed, seen=%v", proc.seen())
	}
	if proc.seen()[0] != path {
		t.Fatalf("processed %s, want %s", proc.seen()[0], path)
	}
}

func TestRunIgnoresOtherExtensions(t *testing.T) {
	dir := t.TempDir()
	proc := &recordingProcessor{}
	w := New(Config{Dir: dir}, fastGate(), proc, nil)
	startWatcher(t, w)

	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "scan.pdf"), []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatal(err)
	}

	if !waitFor(t, 5*time.Second, func() bool { return len(proc.seen()) >= 1 }) {
		t.Fatal("pdf was not processed")
	}
	time.Sleep(200 * time.Millisecond)
	for _, p := range proc.seen() {
		if filepath.Ext(p) != ".pdf" {
			t.Fatalf("non-pdf processed: %s", p)
		}
	}
}

func TestRunInitialScanPicksUpBacklog(t *testing.T) {
	dir := t.TempDir()
	backlog := filepath.Join(dir, "old.pdf")
	if err := os.WriteFile(backlog, []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatal(err)
	}

	proc := &recordingProcessor{}
	w := New(Config{Dir: dir, InitialScan: true}, fastGate(), proc, nil)
	startWatcher(t, w)

	if !waitFor(t, 5*time.Second, func() bool { return len(proc.seen()) == 1 }) {
		t.Fatalf("backlog not processed, seen=%v", proc.seen())
	}
	if proc.seen()[0] != backlog {
		t.Fatalf("processed %s, want %s", proc.seen()[0], backlog)
	}
}

func TestRunFailsWithoutDirectory(t *testing.T) {
	w := New(Config{Dir: filepath.Join(t.TempDir(), "missing")}, fastGate(), &recordingProcessor{}, nil)
	if err := w.Run(context.Background()); err == nil {
		t.Fatal("expected subscription error for missing directory")
	}

	w = New(Config{}, fastGate(), &recordingProcessor{}, nil)
	if err := w.Run(context.Background()); err == nil {
		t.Fatal("expected error for empty directory config")
	}
}
