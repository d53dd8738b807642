package hints

import (
	"cmp"
	"slices"

	"pkt.systems/livecoder/internal/docindex"
	"pkt.systems/livecoder/internal/scan"
)

// Signatures resolves a callee name to its documentation.
type Signatures interface {
	Lookup(name string) (docindex.Function, bool)
}

// Hint is a parameter-name label anchored at an absolute byte offset.
type Hint struct {
	Offset       int
	Label        string
	PaddingRight bool
}

// Synthesizer maps call sites to parameter hints.
type Synthesizer struct {
	Signatures Signatures
	Enabled    bool
}

// Hints returns the parameter hints for text, which starts at absolute offset
// base, sorted by offset.
func (s Synthesizer) Hints(text string, base int) []Hint {
	if !s.Enabled || s.Signatures == nil {
		return nil
	}
	var out []Hint
	Walk(text, base, func(site CallSite) {
		fn, ok := s.Signatures.Lookup(site.Name)
		if !ok || len(fn.Params) == 0 {
			return
		}
		out = append(out, ForCall(fn, site)...)
	})
	slices.SortStableFunc(out, func(a, b Hint) int {
		return cmp.Compare(a.Offset, b.Offset)
	})
	return out
}

// ForCall emits one hint per argument that has a declared parameter.
func ForCall(fn docindex.Function, site CallSite) []Hint {
	args := scan.SplitArguments(site.ArgumentsRaw)
	out := make([]Hint, 0, min(len(args), len(fn.Params)))
	for n, arg := range args {
		if n >= len(fn.Params) {
			break
		}
		out = append(out, Hint{
			Offset:       site.ArgsStart + arg.TextStart,
			Label:        fn.Params[n].Name + ":",
			PaddingRight: true,
		})
	}
	return out
}
