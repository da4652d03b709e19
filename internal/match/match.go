// Package match provides the fuzzy best-match primitive used for worker
// resolution and receiver-folder dedup. Scores are normalized Levenshtein
// similarity on a 0-100 scale, insensitive to case and whitespace runs.
package match

import (
	"math"
	"strings"

	"github.com/agext/levenshtein"
)

// Result is the winning candidate of a BestMatch call.
type Result struct {
	Candidate string // the candidate as it appeared in the input sequence
	Score     int    // similarity 0..100
}

// Engine scores queries against candidate lists. The zero value is not
// usable; construct with New.
type Engine struct {
	threshold int
}

// New creates an Engine with the given score threshold (0..100).
func New(threshold int) *Engine {
	return &Engine{threshold: threshold}
}

// Threshold returns the configured cutoff.
func (e *Engine) Threshold() int { return e.threshold }

// Score returns the similarity of a and b on a 0..100 scale. Symmetric,
// case-insensitive, whitespace-run-insensitive.
func Score(a, b string) int {
	na, nb := normalize(a), normalize(b)
	if na == "" && nb == "" {
		return 100
	}
	return int(math.Round(levenshtein.Similarity(na, nb, nil) * 100))
}

// BestMatch returns the highest-scoring candidate at or above the engine
// threshold. Ties are broken by first occurrence in candidates. The second
// return is false when candidates is empty or every score is below threshold.
func (e *Engine) BestMatch(query string, candidates []string) (Result, bool) {
	best := Result{Score: -1}
	for _, c := range candidates {
		if s := Score(query, c); s > best.Score {
			best = Result{Candidate: c, Score: s}
		}
	}
	if best.Score < e.threshold || best.Score < 0 {
		return Result{}, false
	}
	return best, true
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
