package schema

// RuntimeEventType identifies runtime notifications.
type RuntimeEventType string

const (
	// RuntimeContentChanged carries the runtime buffer after a local edit in the browser.
	RuntimeContentChanged RuntimeEventType = "content"
	// RuntimeCursorChanged carries the runtime cursor.
	RuntimeCursorChanged RuntimeEventType = "cursor"
	// RuntimeEvalError carries an evaluation error reported by the DSL runtime.
	RuntimeEvalError RuntimeEventType = "eval_error"
	// RuntimeClosed reports that the runtime went away.
	RuntimeClosed RuntimeEventType = "closed"
)

// RuntimeEvent is an asynchronous notification from a runtime session.
type RuntimeEvent struct {
	Type    RuntimeEventType
	Session SessionID
	Content string
	Cursor  CursorPosition
	Message string
}
