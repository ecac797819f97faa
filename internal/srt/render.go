package srt

import (
	"fmt"
	"strings"
	"time"
)

// Render serializes a document to SRT text: index line, timing line, caption
// lines with the speaker label prefixed onto the first one, and a blank line
// after each block.
//
// Render performs no validation. It assumes the document already satisfies
// the Entry invariants (Parse output does), and will happily produce
// malformed SRT from an unvalidated document.
func Render(doc *Document) string {
	var sb strings.Builder
	for _, e := range doc.Entries {
		fmt.Fprintf(&sb, "%d\n%s --> %s\n", e.Index, Timestamp(e.Start), Timestamp(e.End))
		if e.Speaker != "" {
			sb.WriteString("[" + e.Speaker + "] ")
		}
		sb.WriteString(e.Text)
		sb.WriteString("\n\n")
	}
	return sb.String()
}

// Timestamp formats a duration as an SRT timestamp HH:MM:SS,mmm.
func Timestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	ms := (d - s*time.Second) / time.Millisecond
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}
