package scan

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractBalancedNestedAndQuoted(t *testing.T) {
	text := `foo(a, (b,c), "d,e")`
	got, ok := ExtractBalanced(text, strings.IndexByte(text, '('))
	require.True(t, ok)
	assert.Equal(t, `a, (b,c), "d,e"`, got)
}

func TestExtractBalancedUnbalanced(t *testing.T) {
	text := `foo(a, (b,c`
	_, ok := ExtractBalanced(text, strings.IndexByte(text, '('))
	assert.False(t, ok)
}

func TestExtractBalancedIgnoresParensInStrings(t *testing.T) {
	text := `s("bd)" , 'x(' , ` + "`(`" + `) + 1`
	got, ok := ExtractBalanced(text, 1)
	require.True(t, ok)
	assert.Equal(t, `"bd)" , 'x(' , `+"`(`", got)
}

func TestExtractBalancedEscapedQuote(t *testing.T) {
	text := `n("a\")b")`
	got, ok := ExtractBalanced(text, 1)
	require.True(t, ok)
	assert.Equal(t, `"a\")b"`, got)
}

func TestExtractBalancedRejectsNonParen(t *testing.T) {
	_, ok := ExtractBalanced("abc", 1)
	assert.False(t, ok)
	_, ok = ExtractBalanced("abc", 10)
	assert.False(t, ok)
	_, ok = ExtractBalanced("abc", -1)
	assert.False(t, ok)
}

func TestSplitArgumentsTopLevel(t *testing.T) {
	args := SplitArguments(`a, (b,c), "d,e"`)
	require.Len(t, args, 3)
	assert.Equal(t, []string{"a", "(b,c)", `"d,e"`}, texts(args))
	assert.Equal(t, 0, args[0].Start)
	assert.Equal(t, 2, args[1].Start)
	assert.Equal(t, 3, args[1].TextStart)
	assert.Equal(t, 9, args[2].Start)
	assert.Equal(t, 10, args[2].TextStart)
}

func TestSplitArgumentsBracketsAndBraces(t *testing.T) {
	args := SplitArguments(`[1, 2], {a: 1, b: 2}, x`)
	assert.Equal(t, []string{"[1, 2]", "{a: 1, b: 2}", "x"}, texts(args))
}

func TestSplitArgumentsBlankAndTrailing(t *testing.T) {
	assert.Empty(t, SplitArguments(""))
	assert.Empty(t, SplitArguments("   "))
	assert.Equal(t, []string{"a"}, texts(SplitArguments("a, ")))
	assert.Equal(t, []string{"a", "", "b"}, texts(SplitArguments("a,,b")))
}

func TestSplitArgumentsUnterminatedString(t *testing.T) {
	args := SplitArguments(`"a, b`)
	assert.Equal(t, []string{`"a, b`}, texts(args))
}

func texts(args []Argument) []string {
	out := make([]string, 0, len(args))
	for _, arg := range args {
		out = append(out, arg.Text)
	}
	return out
}
