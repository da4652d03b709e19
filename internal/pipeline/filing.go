package pipeline

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-hartl/lettersort/constants"
	"github.com/m-hartl/lettersort/internal/llm"
	"github.com/m-hartl/lettersort/internal/ocr"
)

// fileDocument copies the original into its destination folder under a name
// built from the extracted attributes, then removes the source. The source is
// only ever deleted after a successful copy.
func (p *Pipeline) fileDocument(log *slog.Logger, src, folder string, attrs llm.LetterAttributes, workerID string) (string, error) {
	organisation := attrs.Organisation
	if organisation == "" {
		organisation = "Private"
	}
	name := sanitizeName(fmt.Sprintf("%s_%s_%s_%s",
		attrs.DateOfWriting, organisation, workerID, attrs.LetterType,
	)) + filepath.Ext(src)

	dest, err := uniqueDestination(folder, name)
	if err != nil {
		return "", fmt.Errorf("pick destination name: %w", err)
	}
	if err := copyFile(src, dest); err != nil {
		return "", fmt.Errorf("copy to destination: %w", err)
	}
	if err := os.Remove(src); err != nil {
		// The document is safely filed; losing the redundant source copy is
		// worth a warning, not a failure.
		log.Warn("pipeline.source.remove_failed", "source", src, "error", err)
	}
	return dest, nil
}

// routeToBucket copies src into the named bucket under the output root,
// preserving the original filename. Best effort: on error the source is left
// untouched and an empty destination is returned.
func (p *Pipeline) routeToBucket(log *slog.Logger, src, bucket string) string {
	dir := filepath.Join(p.outputDir, bucket)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Error("pipeline.bucket.create_failed", "bucket", bucket, "error", err)
		return ""
	}
	dest, err := uniqueDestination(dir, filepath.Base(src))
	if err != nil {
		log.Error("pipeline.bucket.name_failed", "bucket", bucket, "error", err)
		return ""
	}
	if err := copyFile(src, dest); err != nil {
		log.Error("pipeline.bucket.copy_failed", "bucket", bucket, "error", err)
		return ""
	}
	log.Info("pipeline.routed", "bucket", bucket, "destination", dest)
	return dest
}

// persistPartialPages saves whatever page images a failed render produced
// into the unrecognized bucket, tagged with the original file name. The
// sequence may be empty, in which case nothing is written.
func (p *Pipeline) persistPartialPages(log *slog.Logger, pages ocr.PageSet, src string) string {
	files := pages.Files
	dir := filepath.Join(p.outputDir, constants.UnrecognizedDir)
	if len(files) == 0 {
		return ""
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Error("pipeline.pages.persist_failed", "error", err)
		return ""
	}
	stem := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	for _, f := range files {
		dest := filepath.Join(dir, stem+"_"+filepath.Base(f))
		if err := copyFile(f, dest); err != nil {
			log.Warn("pipeline.pages.copy_failed", "page", filepath.Base(f), "error", err)
		}
	}
	log.Info("pipeline.pages.persisted", "bucket", constants.UnrecognizedDir, "pages", len(files))
	return dir
}

// sanitizeName substitutes path-unsafe characters in a destination filename.
func sanitizeName(name string) string {
	r := strings.NewReplacer(" ", "_", "/", "-", "\\", "-")
	return r.Replace(name)
}

// uniqueDestination returns dir/name, suffixing _2, _3, ... when the name is
// already taken. A previously filed document is never overwritten.
func uniqueDestination(dir, name string) (string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	candidate := filepath.Join(dir, name)
	for i := 2; ; i++ {
		if _, err := os.Stat(candidate); err != nil {
			if os.IsNotExist(err) {
				return candidate, nil
			}
			return "", err
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, i, ext))
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	return out.Close()
}
