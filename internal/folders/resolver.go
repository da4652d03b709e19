// Package folders resolves per-worker, per-receiver destination folders under
// the output root, folding near-duplicate spellings of the same receiver into
// one folder.
package folders

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-hartl/lettersort/internal/common"
	"github.com/m-hartl/lettersort/internal/match"
)

// Resolver creates and reuses destination folders. Safe to reuse across
// pipeline runs; the only writer of the output tree is this package and the
// pipeline's filing step.
type Resolver struct {
	outputDir string
	engine    *match.Engine
	logger    *slog.Logger
}

func NewResolver(outputDir string, engine *match.Engine, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{outputDir: outputDir, engine: engine, logger: logger}
}

// ResolveOrCreate returns the destination folder for (workerID, receiver),
// creating it if no existing subfolder of the worker folder matches receiver
// at the engine threshold. Idempotent: repeated calls with the same inputs
// return the same path. Folder creation failure is the only error and is
// fatal to the current pipeline run.
func (r *Resolver) ResolveOrCreate(workerID, receiver string) (string, error) {
	workerDir := filepath.Join(r.outputDir, workerID)
	if err := os.MkdirAll(workerDir, 0o755); err != nil {
		return "", common.WrapError(err, "create worker folder "+workerDir)
	}

	subdirs, err := listSubfolders(workerDir)
	if err != nil {
		return "", common.WrapError(err, "list worker folder "+workerDir)
	}

	if best, ok := r.engine.BestMatch(receiver, subdirs); ok {
		r.logger.Info("folders.reuse",
			"worker", workerID,
			"receiver", receiver,
			"folder", best.Candidate,
			"score", best.Score,
		)
		return filepath.Join(workerDir, best.Candidate), nil
	}

	receiverDir := filepath.Join(workerDir, sanitizeFolderName(receiver))
	if err := os.MkdirAll(receiverDir, 0o755); err != nil {
		return "", common.WrapError(err, "create receiver folder "+receiverDir)
	}
	r.logger.Info("folders.create", "worker", workerID, "receiver", receiver, "path", receiverDir)
	return receiverDir, nil
}

// sanitizeFolderName substitutes path-unsafe characters in a receiver name.
// The fuzzy match tolerates the substitution when the same receiver comes
// back with spaces again.
func sanitizeFolderName(name string) string {
	r := strings.NewReplacer(" ", "_", "/", "-", "\\", "-")
	return r.Replace(name)
}

// listSubfolders returns the immediate subfolder names of dir in lexicographic
// order, keeping fuzzy tie-breaks deterministic across platforms.
func listSubfolders(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}
