package match

import "testing"

func TestScoreSymmetricAndNormalized(t *testing.T) {
	cases := []struct {
		a, b string
	}{
		{"Alice Johnson", "alice johnson"},
		{"Alice  Johnson", "Alice Johnson"},
		{"  Bob Smith ", "bob smith"},
	}
	for _, c := range cases {
		if got := Score(c.a, c.b); got != 100 {
			t.Errorf("Score(%q, %q) = %d, want 100", c.a, c.b, got)
		}
		if Score(c.a, c.b) != Score(c.b, c.a) {
			t.Errorf("Score not symmetric for %q / %q", c.a, c.b)
		}
	}
}

func TestScoreRange(t *testing.T) {
	if got := Score("Alice Johnson", "Zed Unknown"); got < 0 || got > 100 {
		t.Fatalf("score out of range: %d", got)
	}
	if got := Score("", ""); got != 100 {
		t.Fatalf("Score of two empties = %d, want 100", got)
	}
}

func TestBestMatchThreshold(t *testing.T) {
	e := New(70)

	if _, ok := e.BestMatch("anything", nil); ok {
		t.Fatal("BestMatch on empty candidates should miss")
	}

	if _, ok := e.BestMatch("Alice Johnson", []string{"Zed Unknown", "Quentin Blake"}); ok {
		t.Fatal("all candidates below threshold should miss")
	}

	got, ok := e.BestMatch("Alise Johnsen", []string{"Bob Smith", "Alice Johnson"})
	if !ok {
		t.Fatal("near-identical candidate should match")
	}
	if got.Candidate != "Alice Johnson" {
		t.Fatalf("BestMatch candidate = %q, want Alice Johnson", got.Candidate)
	}
	if got.Score < 70 {
		t.Fatalf("score %d below threshold", got.Score)
	}
}

func TestBestMatchFirstWinsOnTie(t *testing.T) {
	e := New(70)
	got, ok := e.BestMatch("bob smith", []string{"Bob Smith", "BOB SMITH"})
	if !ok {
		t.Fatal("expected a match")
	}
	// Both candidates score 100 after normalization; first occurrence wins.
	if got.Candidate != "Bob Smith" {
		t.Fatalf("tie-break candidate = %q, want first occurrence", got.Candidate)
	}
}

func TestBestMatchPicksGlobalMaximum(t *testing.T) {
	e := New(10)
	got, ok := e.BestMatch("Grace Kelly", []string{"Frank Martin", "Grace Kelli", "Hank Pym"})
	if !ok {
		t.Fatal("expected a match")
	}
	if got.Candidate != "Grace Kelli" {
		t.Fatalf("BestMatch candidate = %q, want Grace Kelli", got.Candidate)
	}
}
