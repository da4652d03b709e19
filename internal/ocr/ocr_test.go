package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fakeRunner simulates pdftoppm (writing page images next to the prefix) and
// tesseract (returning canned text per image).
type fakeRunner struct {
	pages      int
	renderErr  error
	ocrErr     error
	ocrByImage map[string]string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	if strings.Contains(name, "pdftoppm") {
		if f.renderErr != nil {
			return nil, []byte("rasterization error"), f.renderErr
		}
		prefix := args[len(args)-1]
		for i := 1; i <= f.pages; i++ {
			p := fmt.Sprintf("%s-%02d.png", prefix, i)
			if err := os.WriteFile(p, []byte("png"), 0o644); err != nil {
				return nil, nil, err
			}
		}
		return nil, nil, nil
	}
	// tesseract <img> stdout -l <lang>
	if f.ocrErr != nil {
		return nil, []byte("ocr error"), f.ocrErr
	}
	img := args[0]
	if txt, ok := f.ocrByImage[filepath.Base(img)]; ok {
		return []byte(txt), nil, nil
	}
	return []byte("page text"), nil, nil
}

func newTestExtractor(r Runner, maxPages int) *Extractor {
	e := NewExtractor(Config{MaxPages: maxPages}, nil)
	e.runner = r
	e.preflight = func(string) (int, error) { return 1, nil }
	return e
}

func TestRenderProducesOrderedPages(t *testing.T) {
	e := newTestExtractor(&fakeRunner{pages: 3}, 0)
	set, err := e.Render(context.Background(), "letter.pdf")
	if err != nil {
		t.Fatal(err)
	}
	defer set.Cleanup()

	if len(set.Files) != 3 {
		t.Fatalf("got %d pages, want 3", len(set.Files))
	}
	for i, f := range set.Files {
		want := fmt.Sprintf("page-%02d.png", i+1)
		if filepath.Base(f) != want {
			t.Fatalf("page %d = %s, want %s", i, filepath.Base(f), want)
		}
	}
}

func TestRenderCapsAtMaxPages(t *testing.T) {
	e := newTestExtractor(&fakeRunner{pages: 5}, 2)
	set, err := e.Render(context.Background(), "letter.pdf")
	if err != nil {
		t.Fatal(err)
	}
	defer set.Cleanup()

	if len(set.Files) != 2 {
		t.Fatalf("got %d pages, want MaxPages=2", len(set.Files))
	}
}

func TestRenderFailurePropagates(t *testing.T) {
	e := newTestExtractor(&fakeRunner{renderErr: fmt.Errorf("boom")}, 0)
	set, err := e.Render(context.Background(), "letter.pdf")
	if err == nil {
		t.Fatal("expected render error")
	}
	// The partial set is still usable for the unrecognized persist path.
	set.Cleanup()
}

func TestRenderPreflightRejectsBadPDF(t *testing.T) {
	e := newTestExtractor(&fakeRunner{pages: 1}, 0)
	e.preflight = func(string) (int, error) { return 0, fmt.Errorf("not a pdf") }
	if _, err := e.Render(context.Background(), "garbage.bin"); err == nil {
		t.Fatal("expected preflight error")
	}
}

func TestTranscribeConcatenatesWithPageBreaks(t *testing.T) {
	r := &fakeRunner{pages: 2, ocrByImage: map[string]string{
		"page-01.png": "first page",
		"page-02.png": "second page",
	}}
	e := newTestExtractor(r, 0)

	set, err := e.Render(context.Background(), "letter.pdf")
	if err != nil {
		t.Fatal(err)
	}
	defer set.Cleanup()

	text, err := e.Transcribe(context.Background(), set)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(text, "first page") || !strings.Contains(text, "second page") {
		t.Fatalf("missing page text: %q", text)
	}
	if !strings.Contains(text, "\f") {
		t.Fatal("missing form-feed page break")
	}
}

func TestTranscribeFailsOnAnyPage(t *testing.T) {
	e := newTestExtractor(&fakeRunner{pages: 1, ocrErr: fmt.Errorf("boom")}, 0)
	set, err := e.Render(context.Background(), "letter.pdf")
	if err != nil {
		t.Fatal(err)
	}
	defer set.Cleanup()

	if _, err := e.Transcribe(context.Background(), set); err == nil {
		t.Fatal("expected transcription error")
	}
}

func TestTranscribeEmptySet(t *testing.T) {
	e := newTestExtractor(&fakeRunner{}, 0)
	if _, err := e.Transcribe(context.Background(), PageSet{}); err == nil {
		t.Fatal("expected error for empty page set")
	}
}
