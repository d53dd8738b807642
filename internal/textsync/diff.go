// Package textsync converts between editor and runtime views of the same
// buffer: minimal replacement spans, UTF-16 offsets and cursor positions.
package textsync

import (
	"unicode/utf8"

	"pkt.systems/livecoder/schema"
)

// ComputeDiff returns the single span that turns old into new. The common
// prefix and suffix are excluded; the suffix never overlaps the prefix. Span
// boundaries are aligned to rune starts. ok is false when the texts are equal.
func ComputeDiff(old, new string) (schema.DiffSpan, bool) {
	if old == new {
		return schema.DiffSpan{}, false
	}
	start := 0
	for start < len(old) && start < len(new) && old[start] == new[start] {
		start++
	}
	for start > 0 && (midRune(old, start) || midRune(new, start)) {
		start--
	}
	endOld, endNew := len(old), len(new)
	for endOld > start && endNew > start && old[endOld-1] == new[endNew-1] {
		endOld--
		endNew--
	}
	for midRune(old, endOld) || midRune(new, endNew) {
		if endOld >= len(old) || endNew >= len(new) {
			break
		}
		endOld++
		endNew++
	}
	return schema.DiffSpan{
		Start:       start,
		EndOld:      endOld,
		EndNew:      endNew,
		Replacement: new[start:endNew],
	}, true
}

// Apply replaces old[span.Start:span.EndOld] with span.Replacement.
func Apply(old string, span schema.DiffSpan) string {
	return old[:span.Start] + span.Replacement + old[span.EndOld:]
}

// UTF16Edit expresses span against old in UTF-16 code units.
func UTF16Edit(old string, span schema.DiffSpan) schema.TextEdit {
	from := UTF16Len(old[:span.Start])
	return schema.TextEdit{
		From:   from,
		To:     from + UTF16Len(old[span.Start:span.EndOld]),
		Insert: span.Replacement,
	}
}

// UTF16Len counts the UTF-16 code units needed to encode s. Invalid bytes
// count as one unit each.
func UTF16Len(s string) int {
	n := 0
	for _, r := range s {
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
	}
	return n
}

func midRune(s string, i int) bool {
	return i > 0 && i < len(s) && !utf8.RuneStart(s[i])
}

// ByteOffset converts a UTF-16 offset into a byte offset in s, clamped to
// len(s). An offset inside a surrogate pair resolves to the rune's start.
func ByteOffset(s string, units int) int {
	n := 0
	for i, r := range s {
		w := 1
		if r >= 0x10000 {
			w = 2
		}
		if n+w > units {
			return i
		}
		n += w
	}
	return len(s)
}

// ApplyEdit applies a UTF-16 addressed edit to text.
func ApplyEdit(text string, edit schema.TextEdit) string {
	from := ByteOffset(text, edit.From)
	to := max(from, ByteOffset(text, edit.To))
	return text[:from] + edit.Insert + text[to:]
}
