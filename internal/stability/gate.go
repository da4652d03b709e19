// Package stability decides when a just-created file is safe to read: its
// size has stopped changing, no other process holds an exclusive lock on it,
// and a 1-byte read succeeds.
package stability

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/m-hartl/lettersort/constants"
)

// LockProbe reports whether another process holds an exclusive (deny-read)
// lock on path. Implementations must not block indefinitely and must report
// "not locked" on ambiguous errors, favoring availability.
type LockProbe func(path string) bool

// Options tunes the gate behaviour.
type Options struct {
	// PollInterval is the sleep between size checks. Default 2s.
	PollInterval time.Duration
	// RequiredStable is the number of consecutive unchanged-size polls
	// before the lock and read probes run. Default 3.
	RequiredStable int
	// MaxPolls bounds the total poll iterations. Default 30.
	MaxPolls int
	// LockProbe overrides the platform default probe.
	LockProbe LockProbe
	// Logger overrides the default slog logger.
	Logger *slog.Logger
}

func (o *Options) defaults() {
	if o.PollInterval <= 0 {
		o.PollInterval = constants.DefaultPollInterval
	}
	if o.RequiredStable <= 0 {
		o.RequiredStable = constants.DefaultRequiredStable
	}
	if o.MaxPolls <= 0 {
		o.MaxPolls = constants.DefaultMaxPolls
	}
	if o.LockProbe == nil {
		o.LockProbe = platformLockProbe
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Gate polls file sizes until they settle. Construct once and reuse.
type Gate struct {
	opts Options
}

func New(opts Options) *Gate {
	opts.defaults()
	return &Gate{opts: opts}
}

// AwaitStable blocks until path is size-stable, unlocked and readable, or
// until MaxPolls is exhausted, the file disappears, or ctx is cancelled.
// Failure is not fatal to the caller: the file is simply skipped.
func (g *Gate) AwaitStable(ctx context.Context, path string) bool {
	log := g.opts.Logger

	lastSize := int64(-1)
	stable := 0

	for attempt := 0; attempt < g.opts.MaxPolls; attempt++ {
		info, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				log.Warn("stability.file_vanished", "path", path)
				return false
			}
			log.Warn("stability.stat_error", "path", path, "error", err)
			if !sleep(ctx, g.opts.PollInterval) {
				return false
			}
			continue
		}

		size := info.Size()
		if size == lastSize {
			stable++
			log.Debug("stability.poll", "path", path, "stable", stable, "required", g.opts.RequiredStable)
		} else {
			if lastSize >= 0 {
				log.Debug("stability.size_changed", "path", path, "old", lastSize, "new", size)
			}
			stable = 0
		}
		lastSize = size

		if stable >= g.opts.RequiredStable {
			if g.opts.LockProbe(path) {
				log.Debug("stability.still_locked", "path", path)
			} else if err := readProbe(path); err != nil {
				log.Warn("stability.read_probe_failed", "path", path, "error", err)
			} else {
				log.Info("stability.ready", "path", path, "size", size, "polls", attempt+1)
				return true
			}
		}

		if !sleep(ctx, g.opts.PollInterval) {
			return false
		}
	}

	log.Warn("stability.gave_up", "path", path, "max_polls", g.opts.MaxPolls)
	return false
}

// readProbe opens path and reads a single byte. EOF counts as success: an
// empty but settled file is readable.
func readProbe(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	buf := make([]byte, 1)
	if _, err := f.Read(buf); err != nil && err != io.EOF {
		return err
	}
	return nil
}

// sleep waits d, returning false if ctx is cancelled first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
