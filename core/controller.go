package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pkt.systems/livecoder/internal/logx"
	"pkt.systems/livecoder/internal/textsync"
	"pkt.systems/livecoder/schema"
	"pkt.systems/pslog"
)

// Controller owns the runtime session state machine and keeps the active
// editor document and the runtime buffer in sync. Every field below inbox is
// owned by the goroutine executing Run; public methods only post actions.
type Controller struct {
	host     Host
	launcher Launcher
	visualsL VisualsLauncher
	sink     EventSink
	sched    Scheduler
	logger   pslog.Logger
	newID    func() schema.SessionID
	inbox    *mailbox
	handoffs handoffs
	done     chan struct{}

	cfg          schema.SyncConfig
	state        schema.SessionState
	session      schema.SessionID
	runtime      Runtime
	active       schema.DocumentURI
	editorGuard  guard
	runtimeGuard guard
	cursorSeq    uint64
	pushed       optionalFingerprint
	applied      optionalFingerprint
	hydra        hydraState
	disposed     bool
}

// Status is a snapshot of the controller state.
type Status struct {
	State       schema.SessionState
	Session     schema.SessionID
	Active      schema.DocumentURI
	HydraActive bool
	HydraOpen   bool
}

type optionalFingerprint struct {
	set   bool
	value textsync.Fingerprint
}

func (f *optionalFingerprint) store(text string) {
	f.set = true
	f.value = textsync.FingerprintOf(text)
}

func (f *optionalFingerprint) matches(text string) bool {
	return f.set && f.value == textsync.FingerprintOf(text)
}

func (f *optionalFingerprint) reset() {
	*f = optionalFingerprint{}
}

// NewController constructs a controller in the idle state.
func NewController(cfg schema.SyncConfig, deps ControllerDeps) (*Controller, error) {
	if deps.Host == nil {
		return nil, errors.New("controller requires an editor host")
	}
	if deps.Launcher == nil {
		return nil, errors.New("controller requires a runtime launcher")
	}
	if deps.EventSink == nil {
		deps.EventSink = discardSink{}
	}
	if deps.Scheduler == nil {
		deps.Scheduler = timeScheduler{}
	}
	if deps.NewSessionID == nil {
		deps.NewSessionID = newSessionID
	}
	logger := deps.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Controller{
		host:     deps.Host,
		launcher: deps.Launcher,
		visualsL: deps.Visuals,
		sink:     deps.EventSink,
		sched:    deps.Scheduler,
		logger:   logger,
		newID:    deps.NewSessionID,
		inbox:    newMailbox(),
		done:     make(chan struct{}),
		cfg:      schema.NormalizeSyncConfig(cfg),
		state:    schema.StateIdle,
	}, nil
}

// Run processes events until ctx is cancelled or Dispose is called. Runtime
// and visuals resources are released before Run returns.
func (c *Controller) Run(ctx context.Context) error {
	defer close(c.done)
	c.logger.Debug("controller loop start")
	for {
		select {
		case <-ctx.Done():
			c.teardown()
			return ctx.Err()
		case <-c.inbox.signal:
			for _, action := range c.inbox.drain() {
				action(ctx)
				if c.disposed {
					c.teardown()
					return nil
				}
			}
		}
	}
}

// Done is closed when Run has returned.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Status returns a snapshot taken after all previously posted events were
// handled.
func (c *Controller) Status(ctx context.Context) (Status, error) {
	reply := make(chan Status, 1)
	if !c.post(func(context.Context) { reply <- c.snapshot() }) {
		return Status{}, schema.ErrControllerClosed
	}
	select {
	case st := <-reply:
		return st, nil
	case <-ctx.Done():
		return Status{}, ctx.Err()
	case <-c.done:
		return Status{}, schema.ErrControllerClosed
	}
}

// SetConfig replaces the synchronization settings.
func (c *Controller) SetConfig(cfg schema.SyncConfig) {
	c.post(func(context.Context) {
		c.cfg = schema.NormalizeSyncConfig(cfg)
		c.logger.Info("controller config updated", "update_on_save", c.cfg.UpdateOnSave, "sync_cursor", c.cfg.SyncCursor, "report_eval_errors", c.cfg.ReportEvalErrors)
	})
}

// Launch starts a runtime session.
func (c *Controller) Launch() { c.post(c.launch) }

// Quit tears down the running session.
func (c *Controller) Quit() { c.post(c.quit) }

// Toggle starts or pauses playback.
func (c *Controller) Toggle() {
	c.post(func(ctx context.Context) { c.playback(ctx, "toggling playback", Runtime.Toggle) })
}

// Update evaluates the runtime buffer.
func (c *Controller) Update() {
	c.post(func(ctx context.Context) { c.playback(ctx, "updating code", Runtime.Evaluate) })
}

// Stop halts playback.
func (c *Controller) Stop() {
	c.post(func(ctx context.Context) { c.playback(ctx, "stopping playback", Runtime.Stop) })
}

// SetActiveEditor binds the focused editor's document to the runtime.
func (c *Controller) SetActiveEditor() {
	c.post(func(ctx context.Context) { c.setActiveEditor(ctx) })
}

// Execute binds the focused document and evaluates it shortly after.
func (c *Controller) Execute() { c.post(c.execute) }

// Dispose tears everything down and stops Run.
func (c *Controller) Dispose() {
	c.post(func(context.Context) { c.disposed = true })
}

// DocumentChanged reports an edit in uri.
func (c *Controller) DocumentChanged(uri schema.DocumentURI) {
	c.post(func(ctx context.Context) { c.documentChanged(ctx, uri) })
}

// CursorChanged reports a cursor move in uri.
func (c *Controller) CursorChanged(uri schema.DocumentURI, pos schema.EditorPosition) {
	c.post(func(ctx context.Context) { c.editorCursorChanged(ctx, uri, pos) })
}

// DocumentSaved reports that uri was written to disk.
func (c *Controller) DocumentSaved(uri schema.DocumentURI) {
	c.post(func(ctx context.Context) { c.documentSaved(ctx, uri) })
}

// ActiveEditorChanged reports a focus change; uri is empty when no editor
// has focus.
func (c *Controller) ActiveEditorChanged(uri schema.DocumentURI) {
	c.post(func(ctx context.Context) { c.activeEditorChanged(ctx, uri) })
}

// DocumentClosed reports that the editor closed uri. Closing the bound
// document unbinds it while the session stays up.
func (c *Controller) DocumentClosed(uri schema.DocumentURI) {
	c.post(func(context.Context) { c.documentClosed(uri) })
}

func (c *Controller) post(action func(context.Context)) bool {
	return c.inbox.push(action)
}

// after posts action to the loop once d has elapsed.
func (c *Controller) after(d time.Duration, action func(context.Context)) {
	c.sched.AfterFunc(d, func() { c.post(action) })
}

func (c *Controller) snapshot() Status {
	return Status{
		State:       c.state,
		Session:     c.session,
		Active:      c.active,
		HydraActive: c.hydra.active,
		HydraOpen:   c.hydra.visuals != nil,
	}
}

func (c *Controller) log() pslog.Logger {
	return logx.WithDocument(logx.WithSession(c.logger, c.session), c.active)
}

func (c *Controller) setState(to schema.SessionState) {
	from := c.state
	if from == to {
		return
	}
	c.state = to
	c.log().Info("controller state", "from", from, "to", to)
	c.sink.OnStateChange(schema.StateEvent{Session: c.session, From: from, To: to, Active: c.active})
}

func (c *Controller) notify(severity schema.Severity, message string) {
	switch severity {
	case schema.SeverityError:
		c.log().Warn("controller notice", "severity", severity, "message", message)
	default:
		c.log().Info("controller notice", "severity", severity, "message", message)
	}
	c.sink.OnNotice(schema.Notice{Severity: severity, Message: message})
}

func (c *Controller) info(message string) {
	c.notify(schema.SeverityInfo, message)
}

func (c *Controller) warn(err error) {
	c.notify(schema.SeverityWarning, err.Error())
}

func (c *Controller) launch(ctx context.Context) {
	if c.state != schema.StateIdle {
		c.warn(schema.ErrSessionRunning)
		return
	}
	session := c.newID()
	c.session = session
	c.setState(schema.StateLaunching)
	c.info("Launching Strudel browser...")
	emit := func(event schema.RuntimeEvent) {
		event.Session = session
		c.post(func(ctx context.Context) { c.runtimeEvent(ctx, event) })
	}
	launchCtx := logx.ContextWithSessionLogger(ctx, logx.WithSession(c.logger, session), session)
	go func() {
		rt, err := c.launcher.Launch(launchCtx, session, emit)
		var token uint64
		if rt != nil {
			var ok bool
			if token, ok = c.handoffs.hold(rt); !ok {
				_ = rt.Close()
				return
			}
		}
		c.post(func(ctx context.Context) {
			c.handoffs.claim(token)
			c.launched(ctx, session, rt, err)
		})
	}()
}

func (c *Controller) launched(ctx context.Context, session schema.SessionID, rt Runtime, err error) {
	log := logx.WithSession(c.logger, session)
	if session != c.session || c.state != schema.StateLaunching {
		if rt != nil {
			_ = rt.Close()
		}
		log.Info("controller discarded stale launch")
		return
	}
	if err != nil {
		log.Warn("controller launch failed", "err", err)
		c.setState(schema.StateIdle)
		c.session = ""
		c.notify(schema.SeverityError, fmt.Sprintf("Failed to launch Strudel: %v", err))
		return
	}
	c.runtime = rt
	c.setState(schema.StateReady)
	c.info("Strudel browser is ready!")
	c.setActiveEditor(ctx)
}

func (c *Controller) quit(ctx context.Context) {
	switch c.state {
	case schema.StateLaunching:
		c.setState(schema.StateIdle)
		c.session = ""
	case schema.StateReady:
		rt := c.runtime
		c.runtime = nil
		if err := rt.Close(); err != nil {
			c.notify(schema.SeverityError, fmt.Sprintf("Error quitting Strudel: %v", err))
		}
		c.setState(schema.StateIdle)
		c.resetSession()
		c.info("Strudel session closed")
	default:
		c.warn(schema.ErrNoSession)
	}
}

func (c *Controller) runtimeClosed() {
	if c.state != schema.StateReady && c.state != schema.StateLaunching {
		return
	}
	rt := c.runtime
	c.runtime = nil
	c.setState(schema.StateClosed)
	c.active = ""
	c.setState(schema.StateIdle)
	c.resetSession()
	if rt != nil {
		_ = rt.Close()
	}
	c.info("Strudel session closed")
}

func (c *Controller) resetSession() {
	c.session = ""
	c.active = ""
	c.pushed.reset()
	c.applied.reset()
	c.editorGuard = guard{seq: c.editorGuard.seq}
	c.runtimeGuard = guard{seq: c.runtimeGuard.seq}
	c.cursorSeq++
}

func (c *Controller) playback(ctx context.Context, action string, fn func(Runtime, context.Context) error) {
	if c.state != schema.StateReady || c.runtime == nil {
		c.warn(schema.ErrNoSession)
		return
	}
	if err := fn(c.runtime, ctx); err != nil {
		c.notify(schema.SeverityError, fmt.Sprintf("Error %s: %v", action, err))
	}
}

func (c *Controller) setActiveEditor(ctx context.Context) bool {
	editor, ok := c.host.ActiveEditor()
	if !ok {
		c.warn(schema.ErrNoActiveEditor)
		return false
	}
	if !schema.IsStrudelDocument(editor.Document) {
		c.warn(schema.ErrNotStrudelDocument)
		return false
	}
	c.bind(ctx, editor.Document.URI)
	c.info("Strudel is now syncing with: " + editor.Document.URI.BaseName())
	return true
}

func (c *Controller) execute(ctx context.Context) {
	if !c.setActiveEditor(ctx) {
		return
	}
	c.after(c.cfg.CursorDelay, func(ctx context.Context) {
		c.playback(ctx, "updating code", Runtime.Evaluate)
	})
}

// bind designates uri as the active document and performs a full resync.
func (c *Controller) bind(ctx context.Context, uri schema.DocumentURI) {
	c.active = uri
	c.applied.reset()
	if c.state != schema.StateReady || c.runtime == nil {
		return
	}
	if err := c.pushContent(ctx, true); err != nil {
		c.log().Warn("controller resync failed", "err", err)
	}
}

func (c *Controller) activeEditorChanged(ctx context.Context, uri schema.DocumentURI) {
	if uri == "" {
		return
	}
	doc, err := c.host.Document(uri)
	if err != nil {
		c.logger.Debug("controller focus lookup failed", "uri", uri, "err", err)
		return
	}
	if schema.IsHydraDocument(doc) {
		c.activateHydra()
	}
	if c.state != schema.StateReady || !schema.IsStrudelDocument(doc) {
		return
	}
	c.bind(ctx, uri)
}

func (c *Controller) documentClosed(uri schema.DocumentURI) {
	if uri == "" || uri != c.active {
		return
	}
	c.log().Info("controller active document closed")
	c.active = ""
	c.pushed.reset()
	c.applied.reset()
	c.cursorSeq++
}

func (c *Controller) documentSaved(ctx context.Context, uri schema.DocumentURI) {
	c.hydraSaved(ctx, uri)
	if !c.cfg.UpdateOnSave || !c.syncing(uri) {
		return
	}
	if err := c.runtime.Refresh(ctx); err != nil {
		c.log().Warn("controller refresh failed", "err", err)
	}
}

func (c *Controller) runtimeEvent(ctx context.Context, event schema.RuntimeEvent) {
	if event.Session == "" || event.Session != c.session {
		logx.WithSession(c.logger, event.Session).Debug("controller dropped stale runtime event", "type", event.Type)
		return
	}
	switch event.Type {
	case schema.RuntimeContentChanged:
		c.runtimeContentChanged(ctx, event.Content)
	case schema.RuntimeCursorChanged:
		c.runtimeCursorChanged(ctx, event.Cursor)
	case schema.RuntimeEvalError:
		if c.cfg.ReportEvalErrors {
			c.notify(schema.SeverityError, "Strudel Error: "+event.Message)
		}
	case schema.RuntimeClosed:
		c.runtimeClosed()
	}
}

// syncing reports whether events for uri are forwarded to the runtime.
func (c *Controller) syncing(uri schema.DocumentURI) bool {
	return c.state == schema.StateReady && c.runtime != nil && c.active != "" && uri == c.active
}

func (c *Controller) teardown() {
	c.inbox.close()
	if c.runtime != nil {
		if err := c.runtime.Close(); err != nil {
			c.log().Warn("controller runtime close failed", "err", err)
		}
		c.runtime = nil
	}
	if c.state != schema.StateIdle {
		c.setState(schema.StateIdle)
	}
	c.resetSession()
	c.closeVisuals()
	for _, r := range c.handoffs.closeAll() {
		if err := r.Close(); err != nil {
			c.logger.Warn("controller pending resource close failed", "err", err)
		}
	}
	c.logger.Debug("controller loop stop")
}
