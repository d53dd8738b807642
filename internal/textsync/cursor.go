package textsync

import "pkt.systems/livecoder/schema"

// ToRuntime converts a 0-based editor position to the runtime's 1-based row.
func ToRuntime(pos schema.EditorPosition) schema.CursorPosition {
	return schema.CursorPosition{Row: pos.Line + 1, Col: pos.Character}
}

// ToEditor converts a runtime cursor into an editor position within text. The
// row is clamped to [1, LineCount] and the column to the line's UTF-16 length.
func ToEditor(text string, cur schema.CursorPosition) schema.EditorPosition {
	row := max(1, min(cur.Row, LineCount(text)))
	line := Line(text, row-1)
	col := max(0, min(cur.Col, UTF16Len(line)))
	return schema.EditorPosition{Line: row - 1, Character: col}
}
