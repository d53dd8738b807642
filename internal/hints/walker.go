// Package hints discovers function call sites in source text and turns them
// into parameter-name inlay hints.
package hints

import "pkt.systems/livecoder/internal/scan"

// CallSite is one textual occurrence of name(...).
type CallSite struct {
	Name string
	// NameStart is the absolute offset of the callee identifier.
	NameStart int
	// ArgumentsRaw is the text strictly between the parentheses.
	ArgumentsRaw string
	// ArgsStart is the absolute offset just past the opening parenthesis.
	ArgsStart int
}

type span struct {
	text string
	base int
}

// Walk visits every balanced call site in text, including calls nested in
// arguments. base is the absolute offset of text in the document. Call sites
// are visited breadth first, outer before inner; each identifier offset is
// visited once.
func Walk(text string, base int, visit func(CallSite)) {
	queue := []span{{text: text, base: base}}
	visited := make(map[int]struct{})
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, site := range callSites(cur, visited) {
			visit(site)
			queue = append(queue, span{text: site.ArgumentsRaw, base: site.ArgsStart})
		}
	}
}

// callSites scans one span left to right, stepping over the arguments of
// each balanced call. Unbalanced candidates are skipped and scanning resumes
// after their opening parenthesis.
func callSites(s span, visited map[int]struct{}) []CallSite {
	var out []CallSite
	text := s.text
	for i := 0; i < len(text); {
		if !isIdent(text[i]) {
			i++
			continue
		}
		j := i
		for j < len(text) && isIdent(text[j]) {
			j++
		}
		if j >= len(text) || text[j] != '(' {
			i = j
			continue
		}
		abs := s.base + i
		if _, seen := visited[abs]; seen {
			i = j + 1
			continue
		}
		visited[abs] = struct{}{}
		end, ok := scan.MatchParen(text, j)
		if !ok {
			i = j + 1
			continue
		}
		out = append(out, CallSite{
			Name:         text[i:j],
			NameStart:    abs,
			ArgumentsRaw: text[j+1 : end],
			ArgsStart:    s.base + j + 1,
		})
		// Nested calls are found when the argument span is dequeued.
		i = end + 1
	}
	return out
}

func isIdent(c byte) bool {
	return c == '_' || ('0' <= c && c <= '9') || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}
