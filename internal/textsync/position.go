package textsync

import (
	"strings"

	"pkt.systems/livecoder/schema"
)

// LineCount returns the number of lines in text; an empty text has one line.
func LineCount(text string) int {
	return strings.Count(text, "\n") + 1
}

// Line returns line n (0-based) without its terminator, or "" when n is out of
// range.
func Line(text string, n int) string {
	if n < 0 {
		return ""
	}
	for i := 0; i < n; i++ {
		idx := strings.IndexByte(text, '\n')
		if idx < 0 {
			return ""
		}
		text = text[idx+1:]
	}
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		return text[:idx]
	}
	return text
}

// PositionAt converts a byte offset into an editor position. The offset is
// clamped to the text.
func PositionAt(text string, offset int) schema.EditorPosition {
	offset = max(0, min(offset, len(text)))
	prefix := text[:offset]
	line := strings.Count(prefix, "\n")
	lineStart := strings.LastIndexByte(prefix, '\n') + 1
	return schema.EditorPosition{Line: line, Character: UTF16Len(prefix[lineStart:])}
}

// OffsetAt converts an editor position into a byte offset, clamping the line
// to the text and the character to the line.
func OffsetAt(text string, pos schema.EditorPosition) int {
	lineStart := 0
	for i := 0; i < pos.Line; i++ {
		idx := strings.IndexByte(text[lineStart:], '\n')
		if idx < 0 {
			return len(text)
		}
		lineStart += idx + 1
	}
	lineEnd := len(text)
	if idx := strings.IndexByte(text[lineStart:], '\n'); idx >= 0 {
		lineEnd = lineStart + idx
	}
	units := 0
	for i, r := range text[lineStart:lineEnd] {
		if units >= pos.Character {
			return lineStart + i
		}
		if r >= 0x10000 {
			units += 2
		} else {
			units++
		}
	}
	return lineEnd
}

// SpanRange returns the editor range covered by old[span.Start:span.EndOld].
func SpanRange(old string, span schema.DiffSpan) schema.EditorRange {
	return schema.EditorRange{
		Start: PositionAt(old, span.Start),
		End:   PositionAt(old, span.EndOld),
	}
}
