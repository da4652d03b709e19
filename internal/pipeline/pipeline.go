// Package pipeline runs one scanned letter through its full lifecycle:
// render -> transcribe -> extract -> resolve worker -> resolve folder -> file,
// routing the original into the filed tree, the unrecognized bucket, or the
// failed bucket depending on where the run stopped.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/m-hartl/lettersort/constants"
	"github.com/m-hartl/lettersort/internal/common"
	"github.com/m-hartl/lettersort/internal/folders"
	"github.com/m-hartl/lettersort/internal/llm"
	"github.com/m-hartl/lettersort/internal/ocr"
	"github.com/m-hartl/lettersort/internal/workers"
)

// Stage names the pipeline step a run reached or failed at.
type Stage string

const (
	StageRender        Stage = "render"
	StageTranscribe    Stage = "transcribe"
	StageExtract       Stage = "extract"
	StageResolveWorker Stage = "resolve_worker"
	StageResolveFolder Stage = "resolve_folder"
	StageFile          Stage = "file"
)

// OutcomeKind is the terminal classification of one run.
type OutcomeKind string

const (
	OutcomeFiled        OutcomeKind = "filed"
	OutcomeUnrecognized OutcomeKind = "unrecognized"
	OutcomeFailed       OutcomeKind = "failed"
)

// Record is the journal entry of one pipeline run.
type Record struct {
	RunID       string
	Source      string
	Outcome     OutcomeKind
	Stage       Stage // stage reached (success) or failed at
	Worker      string
	Receiver    string
	Matched     string // record row or folder name the receiver resolved to
	Score       int
	Destination string // where the file (or its partial pages) ended up
	Reason      string
	StartedAt   time.Time
	Duration    time.Duration
}

// Renderer rasterizes a document into page images.
type Renderer interface {
	Render(ctx context.Context, path string) (ocr.PageSet, error)
}

// Transcriber turns page images into raw text.
type Transcriber interface {
	Transcribe(ctx context.Context, pages ocr.PageSet) (string, error)
}

// Pipeline coordinates the stages of one document. Construct once and reuse;
// worker records are re-read from disk on every run.
type Pipeline struct {
	logger      *slog.Logger
	renderer    Renderer
	transcriber Transcriber
	extractor   llm.AttributeExtractor
	workers     *workers.Directory
	folders     *folders.Resolver
	outputDir   string
	language    string
}

func New(
	logger *slog.Logger,
	renderer Renderer,
	transcriber Transcriber,
	extractor llm.AttributeExtractor,
	workerDir *workers.Directory,
	folderResolver *folders.Resolver,
	outputDir string,
	language string,
) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		logger:      logger,
		renderer:    renderer,
		transcriber: transcriber,
		extractor:   extractor,
		workers:     workerDir,
		folders:     folderResolver,
		outputDir:   outputDir,
		language:    language,
	}
}

// Process runs the full lifecycle for path. Errors never escape: every
// failure mode is routed, logged, and encoded in the returned Record. The
// watcher stays alive regardless of what happens to a single document.
func (p *Pipeline) Process(ctx context.Context, path string) Record {
	rec := Record{
		RunID:     uuid.New().String(),
		Source:    path,
		StartedAt: time.Now().UTC(),
	}
	defer func() { rec.Duration = time.Since(rec.StartedAt) }()

	log := p.logger.With("run_id", rec.RunID, "source", filepath.Base(path))
	log.Info("pipeline.start")

	// 1) Render: PDF -> page images.
	rec.Stage = StageRender
	pages, err := p.renderer.Render(ctx, path)
	if err != nil {
		log.Error("pipeline.render.failed", "error", err)
		dest := p.persistPartialPages(log, pages, path)
		pages.Cleanup()
		return p.failed(log, rec, StageRender, dest, stageError(common.ErrRender, err))
	}
	defer pages.Cleanup()

	// 2) Transcribe: page images -> raw text.
	rec.Stage = StageTranscribe
	text, err := p.transcriber.Transcribe(ctx, pages)
	if err != nil {
		log.Error("pipeline.transcribe.failed", "error", err)
		dest := p.routeToBucket(log, path, constants.FailedDir)
		return p.failed(log, rec, StageTranscribe, dest, stageError(common.ErrTranscribe, err))
	}

	// 3) Extract: raw text -> structured letter attributes. Known worker
	// identities ride along as responsible-person hints.
	rec.Stage = StageExtract
	hints, err := p.workers.WorkerIdentities()
	if err != nil {
		log.Warn("pipeline.extract.no_hints", "error", err)
	}
	attrs, _, err := p.extractor.ExtractAttributes(ctx, llm.ExtractRequest{
		Text:         text,
		Language:     p.language,
		HintNames:    hints,
		FilenameHint: filepath.Base(path),
	})
	if err != nil {
		log.Error("pipeline.extract.failed", "error", err)
		dest := p.routeToBucket(log, path, constants.FailedDir)
		return p.failed(log, rec, StageExtract, dest, stageError(common.ErrExtract, err))
	}
	rec.Receiver = attrs.Receiver
	log.Info("pipeline.extract.ok",
		"receiver", attrs.Receiver,
		"date", attrs.DateOfWriting,
		"letter_type", attrs.LetterType,
	)

	// 4) Resolve worker, falling back to the responsible person.
	rec.Stage = StageResolveWorker
	workerID, matched, score, ok, err := p.resolveWorker(log, attrs)
	if err != nil {
		dest := p.routeToBucket(log, path, constants.FailedDir)
		return p.failed(log, rec, StageResolveWorker, dest, stageError(common.ErrFiling, err))
	}
	if !ok {
		log.Warn("pipeline.receiver.unrecognized", "receiver", attrs.Receiver)
		dest := p.routeToBucket(log, path, constants.UnrecognizedDir)
		rec.Outcome = OutcomeUnrecognized
		rec.Destination = dest
		rec.Reason = "no worker record matched and no responsible person given"
		return rec
	}
	rec.Worker = workerID
	rec.Matched = matched
	rec.Score = score

	// 5) Resolve destination folder.
	rec.Stage = StageResolveFolder
	folder, err := p.folders.ResolveOrCreate(workerID, matched)
	if err != nil {
		log.Error("pipeline.folder.failed", "error", err)
		dest := p.routeToBucket(log, path, constants.FailedDir)
		return p.failed(log, rec, StageResolveFolder, dest, stageError(common.ErrFiling, err))
	}

	// 6) File the original: copy, then delete the source only after the
	// copy succeeded.
	rec.Stage = StageFile
	dest, err := p.fileDocument(log, path, folder, attrs, workerID)
	if err != nil {
		log.Error("pipeline.file.failed", "error", err)
		fallback := p.routeToBucket(log, path, constants.FailedDir)
		return p.failed(log, rec, StageFile, fallback, stageError(common.ErrFiling, err))
	}

	rec.Outcome = OutcomeFiled
	rec.Destination = dest
	log.Info("pipeline.filed", "destination", dest, "worker", workerID)
	return rec
}

// resolveWorker maps the extracted receiver to a worker identity. A miss with
// a responsible-person fallback synthesizes a record source from the person's
// name, mirroring how on-disk records derive identities.
func (p *Pipeline) resolveWorker(log *slog.Logger, attrs llm.LetterAttributes) (workerID, matched string, score int, ok bool, err error) {
	m, found, err := p.workers.ResolveReceiver(attrs.Receiver)
	if err != nil {
		log.Error("pipeline.worker.lookup_failed", "error", err)
		return "", "", 0, false, err
	}
	if found {
		return m.WorkerID, m.MatchedReceiver, m.Score, true, nil
	}
	if attrs.ResponsiblePerson != "" {
		log.Info("pipeline.worker.fallback",
			"responsible_person", attrs.ResponsiblePerson,
			"receiver", attrs.Receiver,
		)
		return attrs.ResponsiblePerson, attrs.Receiver, 0, true, nil
	}
	return "", "", 0, false, nil
}

// stageError tags a stage failure with its sentinel so callers holding the
// error (rather than the Record) can branch with errors.Is.
func stageError(sentinel, cause error) error {
	return fmt.Errorf("%w: %w", sentinel, cause)
}

func (p *Pipeline) failed(log *slog.Logger, rec Record, stage Stage, dest string, cause error) Record {
	rec.Outcome = OutcomeFailed
	rec.Stage = stage
	rec.Destination = dest
	rec.Reason = cause.Error()
	log.Warn("pipeline.stopped", "stage", string(stage), "routed_to", dest)
	return rec
}
