// Package ocr turns a scanned letter into plain text in two steps: render the
// PDF into per-page images (pdftoppm) and transcribe each page (tesseract).
// Both binaries run behind a Runner so tests can stub them.
package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

type Config struct {
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	Language string // tesseract language, default "eng"
	DPI      int    // rasterization DPI for scanned PDFs, default 300
	MaxPages int    // 0 = no limit
}

// PageSet is the rendered page-image sequence of one document. The images
// live in a temp directory owned by the set; call Cleanup when done.
type PageSet struct {
	Dir   string
	Files []string // page images in page order
}

// Cleanup removes the temp directory holding the page images.
func (p PageSet) Cleanup() {
	if p.Dir == "" {
		return
	}
	if err := os.RemoveAll(p.Dir); err != nil {
		slog.Warn("ocr.pages.cleanup_failed", "dir", p.Dir, "error", err)
	}
}

type Extractor struct {
	cfg    Config
	runner Runner
	// preflight is swappable so tests don't need well-formed PDF fixtures.
	preflight func(path string) (int, error)
	logger    *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	return &Extractor{cfg: cfg, runner: execRunner{}, preflight: preflight, logger: logger}
}

// Render rasterizes path into per-page PNGs. On error the returned PageSet
// still holds whatever partial sequence was produced, so the caller can
// persist it before giving up.
func (e *Extractor) Render(ctx context.Context, path string) (PageSet, error) {
	pages, err := e.preflight(path)
	if err != nil {
		return PageSet{}, fmt.Errorf("preflight %s: %w", path, err)
	}
	e.logger.Debug("ocr.render.start", "path", path, "pages", pages, "dpi", e.cfg.DPI)

	tmpDir, err := os.MkdirTemp("", "lettersort-pages-*")
	if err != nil {
		return PageSet{}, fmt.Errorf("create page dir: %w", err)
	}

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r 300 -png <in.pdf> <tmp/page>
	_, errb, runErr := e.runner.Run(ctx, e.cfg.Pdftoppm, "-r", fmt.Sprintf("%d", e.cfg.DPI), "-png", path, prefix)

	// pdftoppm zero-pads page numbers, so a lexicographic sort is page order.
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if e.cfg.MaxPages > 0 && len(matches) > e.cfg.MaxPages {
		matches = matches[:e.cfg.MaxPages]
	}
	set := PageSet{Dir: tmpDir, Files: matches}

	if runErr != nil {
		return set, fmt.Errorf("pdftoppm: %w: %s", runErr, truncate(string(errb), 1<<10))
	}
	if len(matches) == 0 {
		return set, fmt.Errorf("pdftoppm produced no images for %s", path)
	}
	e.logger.Debug("ocr.render.ok", "path", path, "images", len(matches))
	return set, nil
}

// Transcribe OCRs every page image and concatenates the text with form-feed
// page breaks. Any page failing aborts the transcription: partial text would
// silently corrupt the downstream attribute extraction.
func (e *Extractor) Transcribe(ctx context.Context, pages PageSet) (string, error) {
	if len(pages.Files) == 0 {
		return "", fmt.Errorf("no page images to transcribe")
	}

	var b strings.Builder
	for _, img := range pages.Files {
		// tesseract <img> stdout -l <lang>
		out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, img, "stdout", "-l", e.cfg.Language)
		if err != nil {
			return "", fmt.Errorf("tesseract %s: %w: %s", filepath.Base(img), err, truncate(string(errb), 1<<10))
		}
		if b.Len() > 0 {
			b.WriteString("\n\f\n") // keep a clear page break marker
		}
		b.Write(out)
	}
	text := b.String()
	e.logger.Debug("ocr.transcribe.ok", "pages", len(pages.Files), "bytes", len(text))
	return text, nil
}
