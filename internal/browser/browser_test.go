package browser

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pkt.systems/livecoder/schema"
	"pkt.systems/pslog"
)

func TestOptionsDefaults(t *testing.T) {
	opts := Options{}.withDefaults()
	assert.Equal(t, DefaultStrudelURL, opts.URL)
	assert.Equal(t, DefaultLaunchTimeout, opts.LaunchTimeout)
	assert.Equal(t, DefaultErrorPoll, opts.ErrorPoll)
	assert.NotEmpty(t, opts.DataDir)

	custom := Options{URL: "http://localhost:4321/", DataDir: "/tmp/x"}.withDefaults()
	assert.Equal(t, "http://localhost:4321/", custom.URL)
	assert.Equal(t, "/tmp/x", custom.DataDir)

	hydra := HydraOptions{}.withDefaults()
	assert.Equal(t, DefaultHydraSynthURL, hydra.SynthURL)
	assert.Equal(t, "hydra", filepath.Base(hydra.DataDir))
}

func TestAllocatorOptionsHeadful(t *testing.T) {
	headless := allocatorOptions("http://x/", true, "", "")
	headful := allocatorOptions("http://x/", false, "/tmp/profile", "/usr/bin/chromium")
	assert.Equal(t, len(headless)+6, len(headful))
}

func TestStylesheets(t *testing.T) {
	sheets, err := stylesheets(UIOptions{}, "")
	require.NoError(t, err)
	require.Len(t, sheets, 1)
	assert.Equal(t, baseStyles, sheets[0])

	sheets, err = stylesheets(UIOptions{HideTopBar: true, HideMenuPanel: true, HideCodeEditor: true, HideErrorDisplay: true, MaximizeMenuPanel: true}, "")
	require.NoError(t, err)
	require.Len(t, sheets, 6)
	assert.Contains(t, sheets[1], "header")
	assert.Contains(t, sheets[3], ".cm-editor")
	assert.Equal(t, maximizeMenuStyles, sheets[5])

	sheets, err = stylesheets(UIOptions{}, filepath.Join(t.TempDir(), "missing.css"))
	require.NoError(t, err)
	assert.Len(t, sheets, 1)

	custom := filepath.Join(t.TempDir(), "custom.css")
	require.NoError(t, os.WriteFile(custom, []byte("body { color: red; }"), 0o600))
	sheets, err = stylesheets(UIOptions{}, custom)
	require.NoError(t, err)
	require.Len(t, sheets, 2)
	assert.Equal(t, "body { color: red; }", sheets[1])

	_, err = stylesheets(UIOptions{}, t.TempDir())
	assert.Error(t, err)
}

func TestCallEncodesArguments(t *testing.T) {
	assert.Equal(t, "window.__livecoder.content()", call("content"))
	assert.Equal(t, `window.__livecoder.replace(3,5,"a\"b\n")`, call("replace", 3, 5, "a\"b\n"))
	assert.Equal(t, `window.__hydra.eval("osc().out()")`, jsCall("window.__hydra", "eval", "osc().out()"))
	assert.Equal(t, `window.__livecoder.addStyle("\u003c/style\u003e")`, call("addStyle", "</style>"))
}

func TestScriptInstallsAPI(t *testing.T) {
	for _, method := range []string{"content(", "replace(", "setCursor(", "cursor(", "toggle(", "evaluate(", "refresh(", "stop(", "addStyle(", "watchErrors(", "watchContent(", "watchCursor("} {
		assert.Contains(t, strudelScript, method)
	}
	for _, binding := range []string{bindingContent, bindingCursor, bindingEvalError} {
		assert.Contains(t, strudelScript, "window."+binding+"(")
	}
}

func TestRenderHydraPage(t *testing.T) {
	page, err := renderHydraPage("http://127.0.0.1:9/hydra.js")
	require.NoError(t, err)
	html := string(page)
	assert.Contains(t, html, "window.__hydra")
	assert.True(t, strings.Contains(html, `http:\/\/127.0.0.1:9\/hydra.js`) || strings.Contains(html, "http://127.0.0.1:9/hydra.js"))
}

type eventLog struct {
	mu     sync.Mutex
	events []schema.RuntimeEvent
}

func (l *eventLog) emit(ev schema.RuntimeEvent) {
	l.mu.Lock()
	l.events = append(l.events, ev)
	l.mu.Unlock()
}

func (l *eventLog) snapshot() []schema.RuntimeEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]schema.RuntimeEvent(nil), l.events...)
}

func newTestSession(log *eventLog) *strudelSession {
	return &strudelSession{
		emit:   log.emit,
		logger: pslog.NewWithOptions(io.Discard, pslog.Options{Mode: pslog.ModeStructured, MinLevel: pslog.ErrorLevel}),
		closed: make(chan struct{}),
		cancel: func() {},
	}
}

func TestBindingContentDedupe(t *testing.T) {
	log := &eventLog{}
	rt := newTestSession(log)
	rt.setLastContent("a")

	rt.binding(bindingContent, "a")
	rt.binding(bindingContent, "ab")
	rt.binding(bindingContent, "ab")
	rt.binding(bindingContent, "a")

	events := log.snapshot()
	require.Len(t, events, 2)
	assert.Equal(t, schema.RuntimeContentChanged, events[0].Type)
	assert.Equal(t, "ab", events[0].Content)
	assert.Equal(t, "a", events[1].Content)
}

func TestBindingCursorAndErrors(t *testing.T) {
	log := &eventLog{}
	rt := newTestSession(log)

	rt.binding(bindingCursor, `{"row":2,"col":4}`)
	rt.binding(bindingCursor, `not json`)
	rt.binding(bindingEvalError, "")
	rt.binding(bindingEvalError, "unexpected token")
	rt.binding("somethingElse", "x")

	events := log.snapshot()
	require.Len(t, events, 2)
	assert.Equal(t, schema.RuntimeCursorChanged, events[0].Type)
	assert.Equal(t, schema.CursorPosition{Row: 2, Col: 4}, events[0].Cursor)
	assert.Equal(t, schema.RuntimeEvalError, events[1].Type)
	assert.Equal(t, "unexpected token", events[1].Message)
}

func TestLostEmitsClosedOnce(t *testing.T) {
	log := &eventLog{}
	rt := newTestSession(log)
	rt.lost()
	rt.lost()
	events := log.snapshot()
	require.Len(t, events, 1)
	assert.Equal(t, schema.RuntimeClosed, events[0].Type)

	log = &eventLog{}
	rt = newTestSession(log)
	rt.abort()
	rt.lost()
	assert.Empty(t, log.snapshot())
}

func TestHydraLostNotifiesUnlessClosing(t *testing.T) {
	calls := 0
	v := &hydraWindow{onClosed: func() { calls++ }, cancel: func() {}, logger: newTestSession(&eventLog{}).logger}
	v.lost()
	v.lost()
	assert.Equal(t, 1, calls)

	calls = 0
	v = &hydraWindow{onClosed: func() { calls++ }, cancel: func() {}, logger: v.logger}
	v.abort()
	v.lost()
	assert.Equal(t, 0, calls)
}

func TestFindExecutableHonoursExplicitPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chrome")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755))
	got, err := FindExecutable(path)
	require.NoError(t, err)
	assert.Equal(t, path, got)

	_, err = FindExecutable(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
