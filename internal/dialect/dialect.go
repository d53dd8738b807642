// Package dialect classifies documents as Strudel, Hydra or ambiguous.
package dialect

import (
	"path"
	"regexp"
	"strings"

	"pkt.systems/livecoder/schema"
)

var (
	hydraPatterns = []*regexp.Regexp{
		regexp.MustCompile(`osc\(`),
		regexp.MustCompile(`noise\(`),
		regexp.MustCompile(`gradient\(`),
		regexp.MustCompile(`shape\(`),
		regexp.MustCompile(`voronoi\(`),
		regexp.MustCompile(`\.out\(o[0-3]\)`),
		regexp.MustCompile(`render\(\)`),
		regexp.MustCompile(`hush\(\)`),
	}
	strudelPatterns = []*regexp.Regexp{
		regexp.MustCompile(`note\(`),
		regexp.MustCompile(`sound\(`),
		regexp.MustCompile(`stack\(`),
		regexp.MustCompile(`sequence\(`),
		regexp.MustCompile(`fastcat\(`),
		regexp.MustCompile(`scale\(`),
		regexp.MustCompile(`chord\(`),
		regexp.MustCompile(`\.gain\(`),
		regexp.MustCompile(`\.fast\(`),
		regexp.MustCompile(`\.slow\(`),
	}
)

// Classify infers the dialect of a document from its name and content. When
// both or neither dialect match, the result is DialectAmbiguous.
func Classify(name, content string) schema.Dialect {
	hydra := IsHydra(name, content)
	strudel := IsStrudel(name, content)
	switch {
	case hydra && !strudel:
		return schema.DialectHydra
	case strudel && !hydra:
		return schema.DialectStrudel
	default:
		return schema.DialectAmbiguous
	}
}

// IsHydra reports whether the file name or content suggests Hydra.
func IsHydra(name, content string) bool {
	base := strings.ToLower(path.Base(name))
	if strings.Contains(base, "hydra") {
		return true
	}
	return matchAny(hydraPatterns, content)
}

// IsStrudel reports whether the file name or content suggests Strudel.
func IsStrudel(name, content string) bool {
	base := strings.ToLower(path.Base(name))
	if strings.Contains(base, "strudel") || strings.HasSuffix(base, ".str") || strings.HasSuffix(base, ".std") {
		return true
	}
	return matchAny(strudelPatterns, content)
}

// Relevant reports whether completions and hovers apply to a document.
func Relevant(name, languageID string) bool {
	switch languageID {
	case "strudel", "javascript", "hydra":
		return true
	}
	base := strings.ToLower(path.Base(name))
	for _, suffix := range []string{".str", ".std", ".strudel", ".hydra"} {
		if strings.HasSuffix(base, suffix) {
			return true
		}
	}
	return strings.Contains(base, "strudel") || strings.Contains(base, "hydra")
}

func matchAny(patterns []*regexp.Regexp, content string) bool {
	for _, re := range patterns {
		if re.MatchString(content) {
			return true
		}
	}
	return false
}
