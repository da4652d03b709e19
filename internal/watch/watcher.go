// Package watch subscribes to a single inbox directory and hands each newly
// created, settled document to the pipeline. One document is processed at a
// time; events arriving meanwhile queue in the fsnotify channel.
package watch

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/m-hartl/lettersort/constants"
	"github.com/m-hartl/lettersort/internal/pipeline"
	"github.com/m-hartl/lettersort/internal/stability"
)

// Processor consumes one settled document. The pipeline implements it;
// failures are encoded in the Record, never returned.
type Processor interface {
	Process(ctx context.Context, path string) pipeline.Record
}

type Config struct {
	// Dir is the inbox directory. It must exist before Run is called;
	// subdirectories are not watched.
	Dir string
	// InitialScan processes documents already present in Dir at startup.
	InitialScan bool
}

type Watcher struct {
	cfg       Config
	gate      *stability.Gate
	processor Processor
	logger    *slog.Logger
}

func New(cfg Config, gate *stability.Gate, processor Processor, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{cfg: cfg, gate: gate, processor: processor, logger: logger}
}

// Run blocks until ctx is cancelled. The returned error is non-nil only when
// the subscription itself cannot be established or breaks; per-document
// trouble is routed by the pipeline and never stops the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	if w.cfg.Dir == "" {
		return errors.New("watch: no directory configured")
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Error("watch.subscribe.failed", "error", err)
		return err
	}
	defer fw.Close()

	if err := fw.Add(w.cfg.Dir); err != nil {
		w.logger.Error("watch.subscribe.failed", "dir", w.cfg.Dir, "error", err)
		return err
	}
	w.logger.Info("watch.started", "dir", w.cfg.Dir)

	if w.cfg.InitialScan {
		w.scanExisting(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watch.stopped", "dir", w.cfg.Dir)
			return nil
		case e, ok := <-fw.Events:
			if !ok {
				return errors.New("watch: event channel closed")
			}
			if e.Op&fsnotify.Create == 0 {
				continue
			}
			w.handleCreate(ctx, e.Name)
		case err, ok := <-fw.Errors:
			if !ok {
				return errors.New("watch: error channel closed")
			}
			w.logger.Error("watch.error", "error", err)
		}
	}
}

// scanExisting picks up documents that landed in the inbox while the service
// was down. Entries are visited in lexicographic order.
func (w *Watcher) scanExisting(ctx context.Context) {
	entries, err := os.ReadDir(w.cfg.Dir)
	if err != nil {
		w.logger.Warn("watch.scan.failed", "dir", w.cfg.Dir, "error", err)
		return
	}
	for _, e := range entries {
		if ctx.Err() != nil {
			return
		}
		if e.IsDir() {
			continue
		}
		w.handleCreate(ctx, filepath.Join(w.cfg.Dir, e.Name()))
	}
}

func (w *Watcher) handleCreate(ctx context.Context, path string) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return
	}
	if !constants.IsAllowedExt(filepath.Ext(path)) {
		w.logger.Debug("watch.skip", "file", filepath.Base(path))
		return
	}
	w.logger.Info("watch.detected", "file", filepath.Base(path))

	if !w.gate.AwaitStable(ctx, path) {
		w.logger.Warn("watch.never_settled", "file", filepath.Base(path))
		return
	}

	rec := w.processor.Process(ctx, path)
	w.logger.Info("watch.processed",
		"file", filepath.Base(path),
		"outcome", string(rec.Outcome),
		"stage", string(rec.Stage),
	)
}
