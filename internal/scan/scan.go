// Package scan finds balanced parenthesis spans and top-level arguments in
// source text without parsing it.
//
// The scanner understands quoted strings (single, double and backtick) with
// backslash escapes, and keeps independent depth counters for (), [] and {}.
// It is intentionally forgiving: text being typed is usually incomplete.
package scan

import "strings"

// Argument is one top-level argument of a call.
type Argument struct {
	// Text is the trimmed argument text.
	Text string
	// Start is the offset of the argument within the argument list, including
	// leading blanks.
	Start int
	// TextStart is the offset of the first non-blank byte of the argument.
	TextStart int
}

type state struct {
	paren   int
	bracket int
	brace   int
	quote   byte
	escaped bool
}

// step advances the state over c and reports whether c was consumed as part
// of a string literal.
func (s *state) step(c byte) bool {
	if s.quote != 0 {
		switch {
		case s.escaped:
			s.escaped = false
		case c == '\\':
			s.escaped = true
		case c == s.quote:
			s.quote = 0
		}
		return true
	}
	switch c {
	case '"', '\'', '`':
		s.quote = c
		return true
	case '(':
		s.paren++
	case ')':
		s.paren--
	case '[':
		s.bracket++
	case ']':
		s.bracket--
	case '{':
		s.brace++
	case '}':
		s.brace--
	}
	return false
}

func (s *state) topLevel() bool {
	return s.quote == 0 && s.paren == 0 && s.bracket == 0 && s.brace == 0
}

// ExtractBalanced returns the text strictly between the parenthesis at open
// and its matching close. It reports false when open does not point at '(' or
// the text ends before the parenthesis is closed.
func ExtractBalanced(text string, open int) (string, bool) {
	end, ok := MatchParen(text, open)
	if !ok {
		return "", false
	}
	return text[open+1 : end], true
}

// MatchParen returns the offset of the parenthesis closing the one at open.
func MatchParen(text string, open int) (int, bool) {
	if open < 0 || open >= len(text) || text[open] != '(' {
		return 0, false
	}
	st := state{paren: 1}
	for i := open + 1; i < len(text); i++ {
		if st.step(text[i]) {
			continue
		}
		if st.paren == 0 {
			return i, true
		}
	}
	return 0, false
}

// SplitArguments splits an argument list into its top-level arguments. A comma
// separates arguments only outside strings and outside any (), [] or {}
// nesting. Blank input has no arguments and a trailing blank argument is
// dropped.
func SplitArguments(args string) []Argument {
	if strings.TrimSpace(args) == "" {
		return nil
	}
	var out []Argument
	st := state{}
	start := 0
	for i := 0; i < len(args); i++ {
		c := args[i]
		if st.step(c) {
			continue
		}
		if c == ',' && st.topLevel() {
			out = append(out, newArgument(args, start, i))
			start = i + 1
		}
	}
	if last := newArgument(args, start, len(args)); last.Text != "" {
		out = append(out, last)
	}
	return out
}

func newArgument(args string, start, end int) Argument {
	raw := args[start:end]
	lead := len(raw) - len(strings.TrimLeft(raw, " \t\r\n"))
	return Argument{
		Text:      strings.TrimSpace(raw),
		Start:     start,
		TextStart: start + lead,
	}
}
