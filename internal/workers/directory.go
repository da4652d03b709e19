// Package workers resolves an extracted receiver name to a worker identity.
// Worker associations live in a directory of flat CSV files: one file per
// worker, file stem = worker identity, one known receiver name per row.
package workers

import (
	"encoding/csv"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-hartl/lettersort/constants"
	"github.com/m-hartl/lettersort/internal/common"
	"github.com/m-hartl/lettersort/internal/match"
)

// Match is a successful receiver-to-worker resolution.
type Match struct {
	WorkerID        string // record file stem, e.g. "John_Doe"
	RecordSource    string // originating file name, e.g. "John_Doe.csv"
	MatchedReceiver string // the exact row value that won
	Score           int
}

// Directory reads worker records from disk on every resolution. Records are
// treated as read-only inputs; staleness across a watch session is acceptable.
type Directory struct {
	dir    string
	engine *match.Engine
	logger *slog.Logger
}

func NewDirectory(dir string, engine *match.Engine, logger *slog.Logger) *Directory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Directory{dir: dir, engine: engine, logger: logger}
}

// ResolveReceiver scores receiver against every row of every record file and
// returns the global best match at or above the engine threshold. A miss is
// not an error: the caller decides between the responsible-person fallback
// and the unrecognized bucket. Record files are visited in lexicographic
// order so equal scores break deterministically.
func (d *Directory) ResolveReceiver(receiver string) (Match, bool, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return Match{}, false, common.WrapError(err, "read records dir "+d.dir)
	}

	best := Match{Score: -1}
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), constants.RecordFileExt) {
			continue
		}
		rows, err := d.readRecordFile(filepath.Join(d.dir, entry.Name()))
		if err != nil {
			d.logger.Warn("workers.record.unreadable", "file", entry.Name(), "error", err)
			continue
		}
		for _, row := range rows {
			for _, cell := range row {
				if cell == "" {
					continue
				}
				if s := match.Score(receiver, cell); s > best.Score {
					best = Match{
						WorkerID:        strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())),
						RecordSource:    entry.Name(),
						MatchedReceiver: cell,
						Score:           s,
					}
				}
			}
		}
	}

	if best.Score < d.engine.Threshold() || best.Score < 0 {
		d.logger.Info("workers.resolve.miss", "receiver", receiver, "best_score", best.Score)
		return Match{}, false, nil
	}
	d.logger.Info("workers.resolve.ok",
		"receiver", receiver,
		"worker", best.WorkerID,
		"matched", best.MatchedReceiver,
		"score", best.Score,
	)
	return best, true, nil
}

// WorkerIdentities lists the worker identities known to the directory, in
// lexicographic order. Used as extraction hints for the responsible-person
// field.
func (d *Directory) WorkerIdentities() ([]string, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, common.WrapError(err, "read records dir "+d.dir)
	}
	var ids []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), constants.RecordFileExt) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())))
	}
	return ids, nil
}

func (d *Directory) readRecordFile(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			d.logger.Warn("workers.record.close_error", "path", path, "error", cerr)
		}
	}()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // rows may vary in width
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	return rows, nil
}
