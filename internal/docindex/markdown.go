package docindex

import (
	"fmt"
	"strings"

	"pkt.systems/livecoder/schema"
)

// Badge returns the dialect badge shown in documentation.
func Badge(dialect schema.Dialect) string {
	if dialect == schema.DialectHydra {
		return "🌊 **HYDRA**"
	}
	return "🌀 **STRUDEL**"
}

// Markdown renders the documentation for fn.
func Markdown(fn Function) string {
	var parts []string
	if fn.Description != "" {
		parts = append(parts, fmt.Sprintf("%s **%s**\n\n%s", Badge(fn.Dialect), fn.Name, fn.Description))
	} else {
		parts = append(parts, fmt.Sprintf("%s **%s**", Badge(fn.Dialect), fn.Name))
	}
	if fn.Dialect == schema.DialectHydra && fn.Type != "" {
		parts = append(parts, "\n**Type:** "+fn.Type)
	}
	if len(fn.Params) > 0 {
		lines := []string{"\n**Parameters:**"}
		for _, p := range fn.Params {
			def := ""
			if p.Default != nil {
				def = fmt.Sprintf(" (default: %v)", p.Default)
			}
			lines = append(lines, fmt.Sprintf("- `%s` (%s): %s%s", p.Name, p.Type, p.Description, def))
		}
		parts = append(parts, strings.Join(lines, "\n"))
	}
	if len(fn.Examples) > 0 {
		lines := []string{"\n**Examples:**"}
		for _, ex := range fn.Examples {
			lines = append(lines, "```javascript\n"+ex+"\n```")
		}
		parts = append(parts, strings.Join(lines, "\n"))
	}
	if syn := otherSynonyms(fn); len(syn) > 0 {
		parts = append(parts, "\n**Synonyms:** "+strings.Join(syn, ", "))
	}
	return strings.Join(parts, "\n")
}

// otherSynonyms lists the names fn is also known by. Only strudel aliases
// whose name differs from the original carry synonyms.
func otherSynonyms(fn Function) []string {
	if fn.Dialect != schema.DialectStrudel || len(fn.Synonyms) == 0 || fn.Name == fn.OriginalName {
		return nil
	}
	var out []string
	seen := map[string]struct{}{fn.Name: {}}
	for _, name := range append([]string{fn.OriginalName}, fn.Synonyms...) {
		if _, dup := seen[name]; dup || name == "" {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
