package textsync

import (
	"math/rand/v2"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pkt.systems/livecoder/schema"
)

func TestComputeDiffAppend(t *testing.T) {
	span, ok := ComputeDiff("note(c3)", "note(c3).gain(0.5)")
	require.True(t, ok)
	assert.Equal(t, schema.DiffSpan{Start: 8, EndOld: 8, EndNew: 18, Replacement: ".gain(0.5)"}, span)
}

func TestComputeDiffEqualTexts(t *testing.T) {
	_, ok := ComputeDiff("s(\"bd\")", "s(\"bd\")")
	assert.False(t, ok)
	_, ok = ComputeDiff("", "")
	assert.False(t, ok)
}

func TestComputeDiffSuffixDoesNotCrossPrefix(t *testing.T) {
	span, ok := ComputeDiff("aaa", "aaaa")
	require.True(t, ok)
	assert.Equal(t, 3, span.Start)
	assert.Equal(t, 3, span.EndOld)
	assert.Equal(t, 4, span.EndNew)
	assert.Equal(t, "a", span.Replacement)

	span, ok = ComputeDiff("abcabc", "abc")
	require.True(t, ok)
	assert.Equal(t, schema.DiffSpan{Start: 3, EndOld: 6, EndNew: 3}, span)
}

func TestComputeDiffAlignsToRunes(t *testing.T) {
	// "é" and "è" share their first UTF-8 byte.
	span, ok := ComputeDiff("café", "cafè")
	require.True(t, ok)
	assert.Equal(t, 3, span.Start)
	assert.Equal(t, "è", span.Replacement)
	assert.True(t, utf8.ValidString(span.Replacement))
}

var alphabet = []string{"a", "b", "(", ")", "\n", " ", "é", "😀", "\""}

func randomText(r *rand.Rand) string {
	var b strings.Builder
	for n := r.IntN(12); n > 0; n-- {
		b.WriteString(alphabet[r.IntN(len(alphabet))])
	}
	return b.String()
}

func TestComputeDiffProperties(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))
	for i := 0; i < 2000; i++ {
		old, new := randomText(r), randomText(r)
		span, ok := ComputeDiff(old, new)
		if old == new {
			require.False(t, ok)
			continue
		}
		require.True(t, ok, "%q -> %q", old, new)
		require.Equal(t, new, Apply(old, span), "%q -> %q: %+v", old, new, span)
		require.Equal(t, new[span.Start:span.EndNew], span.Replacement)
		require.LessOrEqual(t, span.Start, span.EndOld)
		require.LessOrEqual(t, span.Start, span.EndNew)
		require.True(t, utf8.ValidString(old[span.Start:span.EndOld]))
		require.True(t, utf8.ValidString(span.Replacement))

		_, again := ComputeDiff(Apply(old, span), new)
		require.False(t, again, "applying the span must reach a fixed point")

		edit := UTF16Edit(old, span)
		require.Equal(t, UTF16Len(old[:span.Start]), edit.From)
		require.LessOrEqual(t, edit.From, edit.To)
	}
}

func TestUTF16Edit(t *testing.T) {
	old := "😀 s(\"bd\")"
	new := "😀 s(\"hh\")"
	span, ok := ComputeDiff(old, new)
	require.True(t, ok)
	edit := UTF16Edit(old, span)
	assert.Equal(t, schema.TextEdit{From: 6, To: 8, Insert: "hh"}, edit)
}

func TestUTF16Len(t *testing.T) {
	assert.Equal(t, 0, UTF16Len(""))
	assert.Equal(t, 3, UTF16Len("abc"))
	assert.Equal(t, 1, UTF16Len("é"))
	assert.Equal(t, 2, UTF16Len("😀"))
}

func TestPositionRoundTrip(t *testing.T) {
	text := "a😀b\nsecond é\n\nlast"
	for offset := 0; offset <= len(text); offset++ {
		if offset < len(text) && !utf8.RuneStart(text[offset]) {
			continue
		}
		pos := PositionAt(text, offset)
		assert.Equal(t, offset, OffsetAt(text, pos), "offset %d pos %+v", offset, pos)
	}
	assert.Equal(t, schema.EditorPosition{Line: 0, Character: 3}, PositionAt(text, len("a😀")))
	assert.Equal(t, schema.EditorPosition{Line: 3, Character: 4}, PositionAt(text, len(text)))
	assert.Equal(t, len(text), OffsetAt(text, schema.EditorPosition{Line: 9, Character: 0}))
	assert.Equal(t, len("a😀b"), OffsetAt(text, schema.EditorPosition{Line: 0, Character: 99}))
}

func TestSpanRange(t *testing.T) {
	old := "s(\"bd\")\n.gain(1)"
	span, ok := ComputeDiff(old, "s(\"bd\")\n.gain(0.5)")
	require.True(t, ok)
	assert.Equal(t, schema.EditorRange{
		Start: schema.EditorPosition{Line: 1, Character: 6},
		End:   schema.EditorPosition{Line: 1, Character: 7},
	}, SpanRange(old, span))
}

func TestLineHelpers(t *testing.T) {
	assert.Equal(t, 1, LineCount(""))
	assert.Equal(t, 3, LineCount("a\nb\n"))
	assert.Equal(t, "b", Line("a\nb\n", 1))
	assert.Equal(t, "", Line("a\nb\n", 2))
	assert.Equal(t, "", Line("a", 5))
	assert.Equal(t, "", Line("a", -1))
}

func TestCursorClamping(t *testing.T) {
	text := "ab\ncde"
	assert.Equal(t, schema.EditorPosition{Line: 1, Character: 3}, ToEditor(text, schema.CursorPosition{Row: 9, Col: 99}))
	assert.Equal(t, schema.EditorPosition{Line: 0, Character: 0}, ToEditor(text, schema.CursorPosition{Row: 0, Col: -4}))
	assert.Equal(t, schema.EditorPosition{Line: 0, Character: 0}, ToEditor("", schema.CursorPosition{Row: 3, Col: 3}))
}

func TestCursorRoundTrip(t *testing.T) {
	text := "note(\"c e g\")\n  .gain(0.5)\n😀"
	for line := 0; line < LineCount(text); line++ {
		for char := 0; char <= UTF16Len(Line(text, line)); char++ {
			pos := schema.EditorPosition{Line: line, Character: char}
			cur := ToRuntime(pos)
			assert.Equal(t, line+1, cur.Row)
			assert.Equal(t, pos, ToEditor(text, cur))
		}
	}
}

func TestFingerprint(t *testing.T) {
	assert.Equal(t, FingerprintOf("s(\"bd\")"), FingerprintOf("s(\"bd\")"))
	assert.NotEqual(t, FingerprintOf("s(\"bd\")"), FingerprintOf("s(\"hh\")"))
}

func TestApplyEditRoundTrip(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 5))
	for i := 0; i < 500; i++ {
		old, new := randomText(r), randomText(r)
		span, ok := ComputeDiff(old, new)
		if !ok {
			continue
		}
		require.Equal(t, new, ApplyEdit(old, UTF16Edit(old, span)), "%q -> %q", old, new)
	}
}

func TestByteOffset(t *testing.T) {
	s := "a😀b"
	assert.Equal(t, 0, ByteOffset(s, 0))
	assert.Equal(t, 1, ByteOffset(s, 1))
	assert.Equal(t, 1, ByteOffset(s, 2))
	assert.Equal(t, 5, ByteOffset(s, 3))
	assert.Equal(t, 6, ByteOffset(s, 4))
	assert.Equal(t, 6, ByteOffset(s, 40))
}
