package indexer

import (
	"fmt"
	"strings"
)

// Mode selects how a source is synchronized with the catalog.
type Mode int

const (
	// ModeInitial ingests every candidate. Existing hashes are left alone.
	ModeInitial Mode = iota
	// ModeIncremental skips candidates already known for the source.
	ModeIncremental
	// ModePurge deletes the source's entries, then ingests as ModeInitial.
	ModePurge
)

func (m Mode) String() string {
	switch m {
	case ModeInitial:
		return "initial"
	case ModeIncremental:
		return "new"
	case ModePurge:
		return "purge"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode accepts "initial", "new" (or "incremental") and "purge",
// case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "initial":
		return ModeInitial, nil
	case "new", "incremental":
		return ModeIncremental, nil
	case "purge":
		return ModePurge, nil
	}
	return 0, fmt.Errorf("unknown index mode %q (want initial, new or purge)", s)
}

// MatchPolicy decides which known entries an incremental run skips.
type MatchPolicy string

const (
	// MatchFilename skips a candidate whose leaf name is already cataloged
	// for the source, wherever it lives in the tree.
	MatchFilename MatchPolicy = "filename"
	// MatchPath skips only candidates whose source-relative path is known.
	MatchPath MatchPolicy = "path"
)

// ErrorPolicy decides what a per-file failure does to the rest of a source.
type ErrorPolicy string

const (
	// ErrorContinue records the failure in the report and keeps going.
	ErrorContinue ErrorPolicy = "continue"
	// ErrorAbort, the default, stops the source at the first failure. Entries already
	// inserted are kept.
	ErrorAbort ErrorPolicy = "abort"
)
