package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/chromedp/cdproto/inspector"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"pkt.systems/livecoder/core"
	"pkt.systems/livecoder/internal/logx"
	"pkt.systems/livecoder/schema"
	"pkt.systems/pslog"
)

const (
	bindingContent   = "livecoderContent"
	bindingCursor    = "livecoderCursor"
	bindingEvalError = "livecoderEvalError"
)

// Strudel launches Strudel REPL sessions in a Chromium app window.
type Strudel struct {
	opts Options
}

var _ core.Launcher = (*Strudel)(nil)

// NewStrudel returns a launcher for opts.
func NewStrudel(opts Options) *Strudel {
	return &Strudel{opts: opts.withDefaults()}
}

// Launch opens the REPL, waits for the editor and installs the page hooks.
// The browser lives until the runtime is closed or ctx ends.
func (s *Strudel) Launch(ctx context.Context, session schema.SessionID, emit func(schema.RuntimeEvent)) (core.Runtime, error) {
	logger := logx.SessionFromContext(ctx, session)
	sheets, err := stylesheets(s.opts.UI, s.opts.CustomCSSFile)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(s.opts.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("browser data dir: %w", err)
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocatorOptions(s.opts.URL, s.opts.Headless, s.opts.DataDir, s.opts.ExecPath)...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(pslog.LogLoggerWithLevel(logger, pslog.DebugLevel).Printf),
		chromedp.WithErrorf(pslog.LogLoggerWithLevel(logger, pslog.ErrorLevel).Printf),
	)
	rt := &strudelSession{
		ctx:        tabCtx,
		cancel:     func() { tabCancel(); allocCancel() },
		emit:       emit,
		logger:     logger,
		closed:     make(chan struct{}),
		syncCursor: s.opts.SyncCursor,
	}
	chromedp.ListenTarget(tabCtx, rt.handleEvent)

	// The first Run starts the browser; a deadline here would kill it.
	if err := chromedp.Run(tabCtx); err != nil {
		rt.abort()
		return nil, fmt.Errorf("start browser: %w", err)
	}
	waitCtx, waitCancel := context.WithTimeout(tabCtx, s.opts.LaunchTimeout)
	err = chromedp.Run(waitCtx, chromedp.WaitVisible(".cm-content", chromedp.ByQuery))
	waitCancel()
	if err != nil {
		rt.abort()
		return nil, fmt.Errorf("wait for strudel editor: %w", err)
	}
	if err := rt.install(sheets, s.opts.ErrorPoll); err != nil {
		rt.abort()
		return nil, err
	}
	content, err := rt.Content(ctx)
	if err != nil {
		rt.abort()
		return nil, err
	}
	rt.setLastContent(content)
	go rt.watch()
	logger.Info("strudel browser ready", "url", s.opts.URL, "headless", s.opts.Headless)
	return rt, nil
}

type strudelSession struct {
	ctx        context.Context
	cancel     func()
	emit       func(schema.RuntimeEvent)
	logger     pslog.Logger
	syncCursor bool

	mu          sync.Mutex
	lastContent string
	closing     bool

	closeOnce    sync.Once
	closed       chan struct{}
	shutdownOnce sync.Once
}

func (r *strudelSession) install(sheets []string, errorPoll time.Duration) error {
	actions := []chromedp.Action{
		chromedp.ActionFunc(func(ctx context.Context) error {
			for _, name := range []string{bindingContent, bindingCursor, bindingEvalError} {
				if err := runtime.AddBinding(name).Do(ctx); err != nil {
					return fmt.Errorf("add binding %s: %w", name, err)
				}
			}
			return nil
		}),
		chromedp.Evaluate(strudelScript, nil),
	}
	for _, css := range sheets {
		actions = append(actions, chromedp.Evaluate(call("addStyle", css), nil))
	}
	actions = append(actions,
		chromedp.Evaluate(call("watchErrors", errorPoll.Milliseconds()), nil),
		chromedp.Evaluate(call("watchContent"), nil),
	)
	if r.syncCursor {
		actions = append(actions, chromedp.Evaluate(call("watchCursor"), nil))
	}
	if err := chromedp.Run(r.ctx, actions...); err != nil {
		return fmt.Errorf("install page hooks: %w", err)
	}
	return nil
}

// handleEvent runs on the chromedp event loop and must not block.
func (r *strudelSession) handleEvent(ev any) {
	switch ev := ev.(type) {
	case *runtime.EventBindingCalled:
		r.binding(ev.Name, ev.Payload)
	case *inspector.EventDetached:
		r.logger.Debug("strudel target detached", "reason", ev.Reason)
		r.lost()
	}
}

func (r *strudelSession) binding(name, payload string) {
	switch name {
	case bindingContent:
		if !r.contentChanged(payload) {
			return
		}
		r.emit(schema.RuntimeEvent{Type: schema.RuntimeContentChanged, Content: payload})
	case bindingCursor:
		var cur schema.CursorPosition
		if err := json.Unmarshal([]byte(payload), &cur); err != nil {
			r.logger.Debug("cursor payload rejected", "payload", payload, "err", err)
			return
		}
		r.emit(schema.RuntimeEvent{Type: schema.RuntimeCursorChanged, Cursor: cur})
	case bindingEvalError:
		if payload == "" {
			return
		}
		r.emit(schema.RuntimeEvent{Type: schema.RuntimeEvalError, Message: payload})
	}
}

// contentChanged records content and reports whether it differs from the
// last observed buffer; the observer fires once per DOM mutation.
func (r *strudelSession) contentChanged(content string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if content == r.lastContent {
		return false
	}
	r.lastContent = content
	return true
}

func (r *strudelSession) setLastContent(content string) {
	r.mu.Lock()
	r.lastContent = content
	r.mu.Unlock()
}

func (r *strudelSession) watch() {
	<-r.ctx.Done()
	r.lost()
}

// lost reports Closed once, unless the close was requested.
func (r *strudelSession) lost() {
	r.closeOnce.Do(func() {
		close(r.closed)
		r.mu.Lock()
		closing := r.closing
		r.mu.Unlock()
		if !closing {
			r.emit(schema.RuntimeEvent{Type: schema.RuntimeClosed})
		}
	})
}

func (r *strudelSession) run(ctx context.Context, actions ...chromedp.Action) error {
	select {
	case <-r.closed:
		return schema.ErrRuntimeClosed
	default:
	}
	// Calls are bound to the tab; the caller's ctx only bounds the wait.
	runCtx, cancel := context.WithCancel(r.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	err := chromedp.Run(runCtx, actions...)
	if err != nil && r.ctx.Err() != nil {
		return schema.ErrRuntimeClosed
	}
	return err
}

func (r *strudelSession) Content(ctx context.Context) (string, error) {
	var content string
	if err := r.run(ctx, chromedp.Evaluate(call("content"), &content)); err != nil {
		return "", err
	}
	return content, nil
}

func (r *strudelSession) Replace(ctx context.Context, edit schema.TextEdit) error {
	var content string
	if err := r.run(ctx, chromedp.Evaluate(call("replace", edit.From, edit.To, edit.Insert), &content)); err != nil {
		return err
	}
	// The observer will report this buffer; it is ours, not the user's.
	r.setLastContent(content)
	if uri, ok := logx.DocumentFromContext(ctx); ok {
		logx.WithDocument(r.logger, uri).Debug("strudel buffer replaced", "from", edit.From, "to", edit.To)
	}
	return nil
}

func (r *strudelSession) SetCursor(ctx context.Context, pos schema.CursorPosition) error {
	return r.run(ctx, chromedp.Evaluate(call("setCursor", pos.Row, pos.Col), nil))
}

func (r *strudelSession) Toggle(ctx context.Context) error {
	return r.run(ctx, chromedp.Evaluate(call("toggle"), nil))
}

func (r *strudelSession) Evaluate(ctx context.Context) error {
	return r.run(ctx, chromedp.Evaluate(call("evaluate"), nil))
}

func (r *strudelSession) Refresh(ctx context.Context) error {
	return r.run(ctx, chromedp.Evaluate(call("refresh"), nil))
}

func (r *strudelSession) Stop(ctx context.Context) error {
	return r.run(ctx, chromedp.Evaluate(call("stop"), nil))
}

// abort tears down a session that never became ready.
func (r *strudelSession) abort() {
	r.mu.Lock()
	r.closing = true
	r.mu.Unlock()
	r.cancel()
}

// Close shuts the browser down and waits for the process to exit.
func (r *strudelSession) Close() error {
	var err error
	r.shutdownOnce.Do(func() {
		r.mu.Lock()
		r.closing = true
		r.mu.Unlock()
		err = chromedp.Cancel(r.ctx)
		r.cancel()
		r.lost()
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// call renders a method call on the page API with JSON-encoded arguments.
func call(method string, args ...any) string {
	return jsCall("window.__livecoder", method, args...)
}

func jsCall(object, method string, args ...any) string {
	encoded := make([]byte, 0, 64)
	for i, arg := range args {
		if i > 0 {
			encoded = append(encoded, ',')
		}
		data, err := json.Marshal(arg)
		if err != nil {
			data = []byte("null")
		}
		encoded = append(encoded, data...)
	}
	return fmt.Sprintf("%s.%s(%s)", object, method, encoded)
}
