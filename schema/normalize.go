package schema

import (
	"path"
	"strings"
)

// NormalizeNewlines converts CRLF line endings to LF.
func NormalizeNewlines(text string) string {
	if !strings.Contains(text, "\r\n") {
		return text
	}
	return strings.ReplaceAll(text, "\r\n", "\n")
}

// BaseName returns the last path element of a document URI.
func (u DocumentURI) BaseName() string {
	raw := strings.TrimPrefix(string(u), "file://")
	if raw == "" {
		return ""
	}
	return path.Base(raw)
}

// IsStrudelDocument reports whether a document can be synced to the strudel runtime.
func IsStrudelDocument(doc Document) bool {
	name := strings.ToLower(doc.URI.BaseName())
	if strings.HasSuffix(name, ".str") || strings.HasSuffix(name, ".std") || strings.HasSuffix(name, ".strudel") {
		return true
	}
	return doc.LanguageID == "javascript" || doc.LanguageID == "strudel"
}

// IsHydraDocument reports whether a document is a hydra sketch.
func IsHydraDocument(doc Document) bool {
	return doc.LanguageID == "hydra" || strings.HasSuffix(strings.ToLower(doc.URI.BaseName()), ".hydra")
}
