package docindex

import (
	"fmt"
	"strings"

	"pkt.systems/livecoder/schema"
)

// Completion is an editor-neutral completion item.
type Completion struct {
	Label         string
	Detail        string
	Documentation string
	InsertText    string
	Snippet       bool
	FilterText    string
	SortText      string
	Dialect       schema.Dialect
}

// Completions returns completion items for dialect. DialectAmbiguous returns
// items for both libraries.
func (i *Index) Completions(dialect schema.Dialect) []Completion {
	if i == nil {
		return nil
	}
	out := make([]Completion, 0, len(i.functions))
	for _, fn := range i.functions {
		if dialect != schema.DialectAmbiguous && fn.Dialect != dialect {
			continue
		}
		out = append(out, NewCompletion(fn))
	}
	return out
}

// NewCompletion builds the completion item for fn. Strudel items sort before
// hydra items.
func NewCompletion(fn Function) Completion {
	prefix := "a_"
	if fn.Dialect == schema.DialectHydra {
		prefix = "b_"
	}
	insert, snippet := InsertText(fn)
	return Completion{
		Label:         fn.Name,
		Detail:        fmt.Sprintf("[%s] %s", strings.ToUpper(string(fn.Dialect)), fn.Description),
		Documentation: Markdown(fn),
		InsertText:    insert,
		Snippet:       snippet,
		FilterText:    fn.Name,
		SortText:      prefix + fn.Name,
		Dialect:       fn.Dialect,
	}
}

// InsertText returns the text inserted for fn and whether it is a snippet
// with parameter placeholders.
func InsertText(fn Function) (string, bool) {
	if len(fn.Params) == 0 {
		return fn.Name + "()", false
	}
	placeholders := make([]string, 0, len(fn.Params))
	for n, p := range fn.Params {
		placeholders = append(placeholders, fmt.Sprintf("${%d:%s}", n+1, p.Name))
	}
	return fn.Name + "(" + strings.Join(placeholders, ", ") + ")", true
}
