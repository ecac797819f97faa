package srt

import (
	"errors"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Mode selects the validation policy applied while parsing.
type Mode int

const (
	// ModeLenient repairs malformed records whenever geometrically possible.
	ModeLenient Mode = iota
	// ModeStrict drops any record that would need a repair.
	ModeStrict
)

// DefaultMinDuration is the floor applied when repairing non-positive
// entry durations.
const DefaultMinDuration = 500 * time.Millisecond

// ErrEmptyTranscript is returned when a payload yields zero recoverable
// entries.
var ErrEmptyTranscript = errors.New("no recoverable subtitle entries in transcript")

// Options configures Parse.
type Options struct {
	Mode        Mode
	MinDuration time.Duration // zero means DefaultMinDuration
}

// timestampRe matches an SRT timing line, tolerating missing leading zeros,
// a period as the fractional separator, and 1-3 fractional digits.
var timestampRe = regexp.MustCompile(
	`^\s*(\d{1,2}):(\d{1,2}):(\d{1,2})[,.](\d{1,3})\s*-->\s*(\d{1,2}):(\d{1,2}):(\d{1,2})[,.](\d{1,3})\s*$`)

var indexLineRe = regexp.MustCompile(`^\d+$`)

// Speaker label forms: "[Name]: text", "[Name] text", "Speaker N: text".
var (
	speakerColonRe  = regexp.MustCompile(`^\[([^\[\]]+)\]:\s*(.*)$`)
	speakerSpaceRe  = regexp.MustCompile(`^\[([^\[\]]+)\]\s+(\S.*)$`)
	speakerPrefixRe = regexp.MustCompile(`^(Speaker\s+\d+):\s*(.*)$`)
)

// Parse converts raw model output into a validated Document.
//
// Records are demarcated by timing lines; anything before the first timing
// line (preambles, raw index lines) is discarded. A single malformed record
// is repaired or dropped according to opts.Mode, never aborting the whole
// transcript. Parse fails only when nothing at all is recoverable.
func Parse(raw string, opts Options) (*Document, error) {
	if opts.MinDuration <= 0 {
		opts.MinDuration = DefaultMinDuration
	}

	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")

	var entries []Entry
	for i := 0; i < len(lines); i++ {
		m := timestampRe.FindStringSubmatch(lines[i])
		if m == nil {
			if strings.Contains(lines[i], "-->") {
				slog.Warn("dropping record with unparseable timestamps",
					"line", i+1, "text", strings.TrimSpace(lines[i]))
				i = skipBlock(lines, i)
			}
			continue
		}

		start := parseClock(m[1], m[2], m[3], m[4])
		end := parseClock(m[5], m[6], m[7], m[8])

		text, next := collectText(lines, i+1)
		i = next

		if len(text) == 0 {
			slog.Warn("dropping record with empty text", "start", Timestamp(start))
			continue
		}

		speaker, first := splitSpeaker(text[0])
		if first != "" {
			text[0] = first
		} else {
			text = text[1:]
		}
		body := strings.Join(text, "\n")
		if strings.TrimSpace(body) == "" {
			slog.Warn("dropping record with empty text", "start", Timestamp(start))
			continue
		}

		if end <= start {
			if opts.Mode == ModeStrict {
				slog.Warn("dropping record with non-positive duration",
					"start", Timestamp(start), "end", Timestamp(end))
				continue
			}
			slog.Warn("repairing record with non-positive duration",
				"start", Timestamp(start), "end", Timestamp(end),
				"repaired_end", Timestamp(start+opts.MinDuration))
			end = start + opts.MinDuration
		}

		entries = append(entries, Entry{
			Start:   start,
			End:     end,
			Speaker: speaker,
			Text:    body,
		})
	}

	entries = resolveOverlaps(entries, opts)

	if len(entries) == 0 {
		return nil, ErrEmptyTranscript
	}

	for i := range entries {
		entries[i].Index = i + 1
	}
	return &Document{Entries: entries}, nil
}

// collectText gathers the caption lines following a timing line. It stops at
// a blank line, the next timing line, or a bare-integer line that prefixes a
// timing line (a raw index). Returns the trimmed lines and the index of the
// last consumed line.
func collectText(lines []string, from int) ([]string, int) {
	var text []string
	i := from
	for ; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			break
		}
		if timestampRe.MatchString(lines[i]) {
			return text, i - 1
		}
		if indexLineRe.MatchString(line) && i+1 < len(lines) && timestampRe.MatchString(lines[i+1]) {
			return text, i - 1
		}
		text = append(text, line)
	}
	return text, i
}

// skipBlock advances past the caption lines of a dropped record.
func skipBlock(lines []string, from int) int {
	i := from + 1
	for ; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "" {
			break
		}
		if timestampRe.MatchString(lines[i]) {
			return i - 1
		}
	}
	return i
}

// splitSpeaker extracts a speaker label from a record's first text line. A
// lone bracketed token with no trailing text ("[Music]") is caption text,
// not a speaker.
func splitSpeaker(line string) (speaker, rest string) {
	if m := speakerColonRe.FindStringSubmatch(line); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
	}
	if m := speakerSpaceRe.FindStringSubmatch(line); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
	}
	if m := speakerPrefixRe.FindStringSubmatch(line); m != nil {
		return m[1], strings.TrimSpace(m[2])
	}
	return "", line
}

// resolveOverlaps sorts entries by start time and fixes consecutive
// overlaps: lenient mode clamps the earlier entry's end to the next start,
// falling back to the minimum-duration repair when clamping would produce a
// non-positive duration; strict mode drops the earlier entry.
func resolveOverlaps(entries []Entry, opts Options) []Entry {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Start < entries[j].Start
	})

	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		for len(out) > 0 && out[len(out)-1].End > e.Start {
			prev := &out[len(out)-1]
			if opts.Mode == ModeStrict {
				slog.Warn("dropping entry overlapping its successor",
					"start", Timestamp(prev.Start), "end", Timestamp(prev.End),
					"next_start", Timestamp(e.Start))
				out = out[:len(out)-1]
				continue
			}
			if e.Start > prev.Start {
				prev.End = e.Start
			} else {
				prev.End = prev.Start + opts.MinDuration
			}
			slog.Warn("clamped entry overlapping its successor",
				"start", Timestamp(prev.Start), "clamped_end", Timestamp(prev.End))
			break
		}
		out = append(out, e)
	}
	return out
}

// parseClock converts matched timestamp components to a duration. Fractional
// digits are scaled by their count, so "7" means 700ms and "07" means 70ms.
func parseClock(h, m, s, frac string) time.Duration {
	hh, _ := strconv.Atoi(h)
	mm, _ := strconv.Atoi(m)
	ss, _ := strconv.Atoi(s)
	ms, _ := strconv.Atoi(frac)
	switch len(frac) {
	case 1:
		ms *= 100
	case 2:
		ms *= 10
	}
	return time.Duration(hh)*time.Hour +
		time.Duration(mm)*time.Minute +
		time.Duration(ss)*time.Second +
		time.Duration(ms)*time.Millisecond
}
