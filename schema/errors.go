package schema

import "errors"

var (
	// ErrNoSession indicates no runtime session is running.
	ErrNoSession = errors.New("no active strudel session")
	// ErrSessionRunning indicates a runtime session already exists.
	ErrSessionRunning = errors.New("strudel is already running")
	// ErrNoActiveEditor indicates no editor has focus.
	ErrNoActiveEditor = errors.New("no active editor")
	// ErrNotStrudelDocument indicates the document cannot be synced to strudel.
	ErrNotStrudelDocument = errors.New("document is not a strudel (.str, .std) or javascript file")
	// ErrNotHydraDocument indicates the document is not a hydra file.
	ErrNotHydraDocument = errors.New("document is not a hydra file (.hydra)")
	// ErrEmptyCode indicates there was nothing to evaluate.
	ErrEmptyCode = errors.New("no code to execute")
	// ErrRuntimeClosed indicates the runtime went away while a command was pending.
	ErrRuntimeClosed = errors.New("runtime closed")
	// ErrDocumentNotFound indicates the host does not know the document.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrUnbalanced indicates an opening parenthesis without a matching close.
	ErrUnbalanced = errors.New("unbalanced parentheses")
)

var (
	// ErrControllerClosed indicates the controller loop has exited.
	ErrControllerClosed = errors.New("controller closed")
	// ErrVisualsUnavailable indicates no hydra output window can be opened.
	ErrVisualsUnavailable = errors.New("hydra output is not available")
)
