package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"pkt.systems/livecoder/internal/textsync"
	"pkt.systems/livecoder/schema"
)

type fakeHost struct {
	mu      sync.Mutex
	docs    map[schema.DocumentURI]*schema.Document
	focused schema.DocumentURI
	cursor  schema.EditorPosition
	edits   []hostEdit
	reveals []schema.EditorPosition
}

type hostEdit struct {
	URI   schema.DocumentURI
	Range schema.EditorRange
	Text  string
}

func newFakeHost() *fakeHost {
	return &fakeHost{docs: make(map[schema.DocumentURI]*schema.Document)}
}

func (h *fakeHost) open(uri schema.DocumentURI, languageID, text string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.docs[uri] = &schema.Document{URI: uri, LanguageID: languageID, Text: text, Version: 1}
}

func (h *fakeHost) focus(uri schema.DocumentURI, cursor schema.EditorPosition) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.focused = uri
	h.cursor = cursor
}

func (h *fakeHost) setText(uri schema.DocumentURI, text string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.docs[uri].Text = text
	h.docs[uri].Version++
}

func (h *fakeHost) text(uri schema.DocumentURI) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.docs[uri].Text
}

func (h *fakeHost) appliedEdits() []hostEdit {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]hostEdit(nil), h.edits...)
}

func (h *fakeHost) revealed() []schema.EditorPosition {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]schema.EditorPosition(nil), h.reveals...)
}

func (h *fakeHost) Document(uri schema.DocumentURI) (schema.Document, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	doc, ok := h.docs[uri]
	if !ok {
		return schema.Document{}, schema.ErrDocumentNotFound
	}
	return *doc, nil
}

func (h *fakeHost) ActiveEditor() (schema.EditorState, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	doc, ok := h.docs[h.focused]
	if !ok {
		return schema.EditorState{}, false
	}
	return schema.EditorState{Document: *doc, Cursor: h.cursor}, true
}

func (h *fakeHost) ApplyEdit(_ context.Context, uri schema.DocumentURI, rng schema.EditorRange, text string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	doc, ok := h.docs[uri]
	if !ok {
		return schema.ErrDocumentNotFound
	}
	start := textsync.OffsetAt(doc.Text, rng.Start)
	end := textsync.OffsetAt(doc.Text, rng.End)
	doc.Text = doc.Text[:start] + text + doc.Text[end:]
	doc.Version++
	h.edits = append(h.edits, hostEdit{URI: uri, Range: rng, Text: text})
	return nil
}

func (h *fakeHost) RevealCursor(_ context.Context, _ schema.DocumentURI, pos schema.EditorPosition) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cursor = pos
	h.reveals = append(h.reveals, pos)
	return nil
}

type fakeRuntime struct {
	mu        sync.Mutex
	buffer    string
	edits     []schema.TextEdit
	cursors   []schema.CursorPosition
	toggles   int
	evaluates int
	refreshes int
	stops     int
	closed    bool
}

func (r *fakeRuntime) Content(context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return "", schema.ErrRuntimeClosed
	}
	return r.buffer, nil
}

func (r *fakeRuntime) Replace(_ context.Context, edit schema.TextEdit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buffer = textsync.ApplyEdit(r.buffer, edit)
	r.edits = append(r.edits, edit)
	return nil
}

func (r *fakeRuntime) SetCursor(_ context.Context, pos schema.CursorPosition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cursors = append(r.cursors, pos)
	return nil
}

func (r *fakeRuntime) Toggle(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toggles++
	return nil
}

func (r *fakeRuntime) Evaluate(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evaluates++
	return nil
}

func (r *fakeRuntime) Refresh(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refreshes++
	return nil
}

func (r *fakeRuntime) Stop(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stops++
	return nil
}

func (r *fakeRuntime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

type fakeRuntimeSnapshot struct {
	Buffer    string
	Edits     []schema.TextEdit
	Cursors   []schema.CursorPosition
	Toggles   int
	Evaluates int
	Refreshes int
	Stops     int
	Closed    bool
}

func (r *fakeRuntime) snapshot() fakeRuntimeSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fakeRuntimeSnapshot{
		Buffer:    r.buffer,
		Edits:     append([]schema.TextEdit(nil), r.edits...),
		Cursors:   append([]schema.CursorPosition(nil), r.cursors...),
		Toggles:   r.toggles,
		Evaluates: r.evaluates,
		Refreshes: r.refreshes,
		Stops:     r.stops,
		Closed:    r.closed,
	}
}

type fakeLauncher struct {
	mu       sync.Mutex
	err      error
	runtimes []*fakeRuntime
	emits    []func(schema.RuntimeEvent)
}

func (l *fakeLauncher) Launch(_ context.Context, _ schema.SessionID, emit func(schema.RuntimeEvent)) (Runtime, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	rt := &fakeRuntime{}
	l.runtimes = append(l.runtimes, rt)
	l.emits = append(l.emits, emit)
	return rt, nil
}

func (l *fakeLauncher) setErr(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.err = err
}

func (l *fakeLauncher) runtime(n int) *fakeRuntime {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.runtimes[n]
}

func (l *fakeLauncher) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.runtimes)
}

func (l *fakeLauncher) emit(n int, event schema.RuntimeEvent) {
	l.mu.Lock()
	emit := l.emits[n]
	l.mu.Unlock()
	emit(event)
}

type fakeVisuals struct {
	mu     sync.Mutex
	evals  []string
	clears int
	closed bool
}

func (v *fakeVisuals) Eval(_ context.Context, code string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.evals = append(v.evals, code)
	return nil
}

func (v *fakeVisuals) Clear(context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.clears++
	return nil
}

func (v *fakeVisuals) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = true
	return nil
}

func (v *fakeVisuals) evaluated() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.evals...)
}

type fakeVisualsLauncher struct {
	visuals  *fakeVisuals
	launches int
	mu       sync.Mutex
}

func (l *fakeVisualsLauncher) LaunchVisuals(context.Context, func()) (Visuals, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.launches++
	return l.visuals, nil
}

// manualScheduler holds timers until fire is called.
type manualScheduler struct {
	mu      sync.Mutex
	pending []func()
	delays  []time.Duration
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, f)
	s.delays = append(s.delays, d)
}

func (s *manualScheduler) fire() {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.delays = nil
	s.mu.Unlock()
	for _, f := range pending {
		f()
	}
}

func (s *manualScheduler) scheduled() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

type recordingSink struct {
	mu      sync.Mutex
	notices []schema.Notice
	states  []schema.StateEvent
}

func (s *recordingSink) OnNotice(notice schema.Notice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = append(s.notices, notice)
}

func (s *recordingSink) OnStateChange(event schema.StateEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states = append(s.states, event)
}

func (s *recordingSink) hasNotice(severity schema.Severity, message string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.notices {
		if n.Severity == severity && n.Message == message {
			return true
		}
	}
	return false
}

func (s *recordingSink) transitions() []schema.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]schema.SessionState, 0, len(s.states))
	for _, st := range s.states {
		out = append(out, st.To)
	}
	return out
}

type harness struct {
	t        *testing.T
	ctrl     *Controller
	host     *fakeHost
	launcher *fakeLauncher
	visuals  *fakeVisualsLauncher
	sched    *manualScheduler
	sink     *recordingSink
}

const (
	beatURI   schema.DocumentURI = "file:///music/beat.str"
	otherURI  schema.DocumentURI = "file:///music/other.strudel"
	sketchURI schema.DocumentURI = "file:///music/sketch.hydra"
)

func newHarness(t *testing.T, cfg schema.SyncConfig) *harness {
	t.Helper()
	h := &harness{
		t:        t,
		host:     newFakeHost(),
		launcher: &fakeLauncher{},
		visuals:  &fakeVisualsLauncher{visuals: &fakeVisuals{}},
		sched:    &manualScheduler{},
		sink:     &recordingSink{},
	}
	ids := 0
	ctrl, err := NewController(cfg, ControllerDeps{
		Host:      h.host,
		Launcher:  h.launcher,
		Visuals:   h.visuals,
		EventSink: h.sink,
		Scheduler: h.sched,
		NewSessionID: func() schema.SessionID {
			ids++
			return schema.SessionID("session-" + string(rune('0'+ids)))
		},
	})
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	h.ctrl = ctrl
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = ctrl.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-ctrl.Done()
	})
	return h
}

func (h *harness) flush() Status {
	h.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	st, err := h.ctrl.Status(ctx)
	if err != nil {
		h.t.Fatalf("status: %v", err)
	}
	return st
}

func (h *harness) waitFor(desc string, cond func(Status) bool) Status {
	h.t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		st := h.flush()
		if cond(st) {
			return st
		}
		if time.Now().After(deadline) {
			h.t.Fatalf("timed out waiting for %s, status %+v", desc, st)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func (h *harness) waitState(state schema.SessionState) Status {
	h.t.Helper()
	return h.waitFor(string(state), func(st Status) bool { return st.State == state })
}

// fire runs every pending timer and waits for the posted actions.
func (h *harness) fire() {
	h.t.Helper()
	h.sched.fire()
	h.flush()
}

// launchReady opens beat.str with text, focuses it and launches a session.
func (h *harness) launchReady(text string) *fakeRuntime {
	h.t.Helper()
	h.host.open(beatURI, "strudel", text)
	h.host.focus(beatURI, schema.EditorPosition{})
	h.ctrl.Launch()
	h.waitState(schema.StateReady)
	h.fire()
	return h.launcher.runtime(h.launcher.count() - 1)
}

var errBoom = errors.New("boom")
