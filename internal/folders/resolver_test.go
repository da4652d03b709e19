package folders

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/m-hartl/lettersort/internal/match"
)

func TestResolveOrCreateIdempotent(t *testing.T) {
	out := t.TempDir()
	r := NewResolver(out, match.New(70), nil)

	first, err := r.ResolveOrCreate("John_Doe", "Alice Johnson")
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.ResolveOrCreate("John_Doe", "Alice Johnson")
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Fatalf("paths differ: %q vs %q", first, second)
	}

	entries, err := os.ReadDir(filepath.Join(out, "John_Doe"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly one receiver folder, got %d", len(entries))
	}
}

func TestResolveOrCreateFoldsNearDuplicates(t *testing.T) {
	out := t.TempDir()
	r := NewResolver(out, match.New(70), nil)

	existing, err := r.ResolveOrCreate("John_Doe", "Alice Johnson")
	if err != nil {
		t.Fatal(err)
	}

	got, err := r.ResolveOrCreate("John_Doe", "Alise Johnsen")
	if err != nil {
		t.Fatal(err)
	}
	if got != existing {
		t.Fatalf("near-duplicate spelling should reuse %q, got %q", existing, got)
	}
}

func TestResolveOrCreateDistinctReceivers(t *testing.T) {
	out := t.TempDir()
	r := NewResolver(out, match.New(70), nil)

	a, err := r.ResolveOrCreate("John_Doe", "Alice Johnson")
	if err != nil {
		t.Fatal(err)
	}
	b, err := r.ResolveOrCreate("John_Doe", "Zed Unknown")
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Fatal("unrelated receivers must not share a folder")
	}
	if filepath.Dir(a) != filepath.Dir(b) {
		t.Fatal("receivers of one worker should share the worker folder")
	}
}

func TestResolveOrCreateSeparatesWorkers(t *testing.T) {
	out := t.TempDir()
	r := NewResolver(out, match.New(70), nil)

	a, err := r.ResolveOrCreate("John_Doe", "Alice Johnson")
	if err != nil {
		t.Fatal(err)
	}
	b, err := r.ResolveOrCreate("Jane_Smith", "Alice Johnson")
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Fatal("same receiver under different workers must not collide")
	}
}
