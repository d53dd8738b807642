package core

import (
	"context"
	"time"

	"pkt.systems/livecoder/schema"
	"pkt.systems/pslog"
)

// Host is the editor the controller synchronizes with.
type Host interface {
	// Document returns the current snapshot of uri.
	Document(uri schema.DocumentURI) (schema.Document, error)
	// ActiveEditor returns the focused editor, if any.
	ActiveEditor() (schema.EditorState, bool)
	// ApplyEdit replaces rng in uri with text as a single edit.
	ApplyEdit(ctx context.Context, uri schema.DocumentURI, rng schema.EditorRange, text string) error
	// RevealCursor selects pos in uri and scrolls it into view.
	RevealCursor(ctx context.Context, uri schema.DocumentURI, pos schema.EditorPosition) error
}

// Runtime is one live Strudel session. Calls are serialized by the controller.
type Runtime interface {
	Content(ctx context.Context) (string, error)
	Replace(ctx context.Context, edit schema.TextEdit) error
	SetCursor(ctx context.Context, pos schema.CursorPosition) error
	Toggle(ctx context.Context) error
	Evaluate(ctx context.Context) error
	// Refresh re-evaluates only when playback is running.
	Refresh(ctx context.Context) error
	Stop(ctx context.Context) error
	Close() error
}

// Launcher starts runtime sessions. emit must never block and may be called
// from any goroutine until the runtime is closed.
type Launcher interface {
	Launch(ctx context.Context, session schema.SessionID, emit func(schema.RuntimeEvent)) (Runtime, error)
}

// Visuals is a Hydra output window.
type Visuals interface {
	Eval(ctx context.Context, code string) error
	Clear(ctx context.Context) error
	Close() error
}

// VisualsLauncher opens Hydra windows. onClosed is called at most once when
// the window goes away on its own.
type VisualsLauncher interface {
	LaunchVisuals(ctx context.Context, onClosed func()) (Visuals, error)
}

// Scheduler runs f after d on another goroutine.
type Scheduler interface {
	AfterFunc(d time.Duration, f func())
}

// ControllerDeps captures the controller's collaborators. Host and Launcher
// are required.
type ControllerDeps struct {
	Host      Host
	Launcher  Launcher
	Visuals   VisualsLauncher
	EventSink EventSink
	Scheduler Scheduler
	Logger    pslog.Logger
	// NewSessionID overrides session id generation.
	NewSessionID func() schema.SessionID
}

type timeScheduler struct{}

func (timeScheduler) AfterFunc(d time.Duration, f func()) {
	time.AfterFunc(d, f)
}
