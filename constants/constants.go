package constants

import (
	"strings"
	"time"
)

// MatchThreshold is the project-wide fuzzy-match cutoff (0-100). A candidate
// scoring below it is treated as "no match" for both worker resolution and
// receiver-folder dedup.
const MatchThreshold = 70

// Output buckets created on demand under the output root.
const (
	UnrecognizedDir = "unrecognized"
	FailedDir       = "failed"
)

// RecordFileExt is the extension of worker record files in the records directory.
const RecordFileExt = ".csv"

// Stability polling defaults for files appearing in the watch directory.
const (
	DefaultPollInterval   = 2 * time.Second
	DefaultRequiredStable = 3
	DefaultMaxPolls       = 30
)

// AllowedExtensions holds the file extensions the watcher reacts to.
var AllowedExtensions = map[string]struct{}{
	"pdf": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsAllowedExt reports whether ext (with or without leading dot) is ingestible.
func IsAllowedExt(ext string) bool {
	_, ok := AllowedExtensions[NormalizeExt(ext)]
	return ok
}
