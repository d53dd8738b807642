package schema

// DocumentURI identifies an editor document (file:// URI or an absolute path).
type DocumentURI string

// SessionID identifies one runtime session.
type SessionID string

// Dialect tags which live-coding language a document or function belongs to.
type Dialect string

const (
	// DialectStrudel is the pattern/music language.
	DialectStrudel Dialect = "strudel"
	// DialectHydra is the visual-synthesis language.
	DialectHydra Dialect = "hydra"
	// DialectAmbiguous means no single dialect could be inferred.
	DialectAmbiguous Dialect = "ambiguous"
)

// SessionState is the lifecycle state of the runtime session.
type SessionState string

const (
	// StateIdle means no runtime session exists.
	StateIdle SessionState = "idle"
	// StateLaunching means the runtime is starting.
	StateLaunching SessionState = "launching"
	// StateReady means the runtime accepts content and cursor updates.
	StateReady SessionState = "ready"
	// StateClosed is the transient state after the runtime closed on its own.
	StateClosed SessionState = "closed"
)

// CursorPosition is a runtime-side cursor: Row is 1-based, Col is a 0-based
// UTF-16 offset within the line.
type CursorPosition struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// EditorPosition is an editor-side cursor: 0-based line and UTF-16 character.
type EditorPosition struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// EditorRange is a half-open range of editor positions.
type EditorRange struct {
	Start EditorPosition `json:"start"`
	End   EditorPosition `json:"end"`
}

// DiffSpan is the minimal replacement turning one snapshot into another.
// Offsets are byte offsets: old[Start:EndOld] is replaced with Replacement,
// which equals new[Start:EndNew].
type DiffSpan struct {
	Start       int
	EndOld      int
	EndNew      int
	Replacement string
}

// TextEdit is a replacement expressed in UTF-16 code units, the unit used by
// browser editors.
type TextEdit struct {
	From   int    `json:"from"`
	To     int    `json:"to"`
	Insert string `json:"insert"`
}

// Document is a snapshot of an editor document.
type Document struct {
	URI        DocumentURI
	LanguageID string
	Text       string
	Version    int
}

// EditorState describes the focused editor.
type EditorState struct {
	Document Document
	Cursor   EditorPosition
}
