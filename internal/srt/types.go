package srt

import "time"

// Entry represents one subtitle block.
type Entry struct {
	// Index is the 1-based sequence number. Parse assigns a contiguous
	// renumbering regardless of any indices present in the raw input.
	Index   int
	Start   time.Duration
	End     time.Duration
	Speaker string
	Text    string // may contain newlines; never empty after validation
}

// Document is an ordered sequence of subtitle entries, sorted by start time.
type Document struct {
	Entries []Entry
}
