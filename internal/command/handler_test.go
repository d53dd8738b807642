package command

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"pkt.systems/livecoder/core"
	"pkt.systems/livecoder/schema"
	"pkt.systems/pslog"
)

type fakeController struct {
	calls  []string
	active schema.DocumentURI
	status core.Status
	err    error
}

func (c *fakeController) Launch()     { c.calls = append(c.calls, "launch") }
func (c *fakeController) Quit()       { c.calls = append(c.calls, "quit") }
func (c *fakeController) Toggle()     { c.calls = append(c.calls, "toggle") }
func (c *fakeController) Update()     { c.calls = append(c.calls, "update") }
func (c *fakeController) Stop()       { c.calls = append(c.calls, "stop") }
func (c *fakeController) Execute()    { c.calls = append(c.calls, "execute") }
func (c *fakeController) HydraEval()  { c.calls = append(c.calls, "hydra.eval") }
func (c *fakeController) HydraClear() { c.calls = append(c.calls, "hydra.clear") }

func (c *fakeController) ActiveEditorChanged(uri schema.DocumentURI) {
	c.calls = append(c.calls, "active")
	c.active = uri
}

func (c *fakeController) Status(context.Context) (core.Status, error) {
	return c.status, c.err
}

type fakeEditor struct {
	docs    map[string]schema.DocumentURI
	focused schema.DocumentURI
}

func (e *fakeEditor) URIFor(path string) (schema.DocumentURI, error) {
	uri, ok := e.docs[path]
	if !ok {
		return "", schema.ErrDocumentNotFound
	}
	return uri, nil
}

func (e *fakeEditor) Focus(uri schema.DocumentURI) error {
	e.focused = uri
	return nil
}

func TestHandleRoutesPlaybackCommands(t *testing.T) {
	ctrl := &fakeController{}
	handler := NewHandler(ctrl, nil, nil, HandlerConfig{})
	inputs := []string{"/launch", "/toggle", "/u", "/stop", "/execute", "/hydra", "/clear", "/quit"}
	for _, input := range inputs {
		handled, err := handler.Handle(context.Background(), input)
		if err != nil {
			t.Fatalf("Handle(%q): %v", input, err)
		}
		if !handled {
			t.Fatalf("expected %q to be handled", input)
		}
	}
	want := "launch toggle update stop execute hydra.eval hydra.clear quit"
	if got := strings.Join(ctrl.calls, " "); got != want {
		t.Fatalf("unexpected calls: %q", got)
	}
}

func TestHandleIgnoresPlainInput(t *testing.T) {
	ctrl := &fakeController{}
	handled, err := NewHandler(ctrl, nil, nil, HandlerConfig{}).Handle(context.Background(), "note(\"c e g\")")
	if err != nil || handled {
		t.Fatalf("expected plain input to pass through, got handled=%v err=%v", handled, err)
	}
	if len(ctrl.calls) != 0 {
		t.Fatalf("expected no controller calls, got %v", ctrl.calls)
	}
}

func TestHandleRejectsUnknownAndEmpty(t *testing.T) {
	handler := NewHandler(&fakeController{}, nil, nil, HandlerConfig{})
	if _, err := handler.Handle(context.Background(), "/nope"); err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Fatalf("expected unknown command error, got %v", err)
	}
	if _, err := handler.Handle(context.Background(), "/"); err == nil {
		t.Fatalf("expected empty command error")
	}
}

func TestHandleFocusSwitchesActiveEditor(t *testing.T) {
	ctrl := &fakeController{}
	editor := &fakeEditor{docs: map[string]schema.DocumentURI{"visuals.hydra": "file:///tmp/visuals.hydra"}}
	var out bytes.Buffer
	handler := NewHandler(ctrl, editor, &out, HandlerConfig{})

	if _, err := handler.Handle(context.Background(), "/focus visuals.hydra"); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if editor.focused != "file:///tmp/visuals.hydra" || ctrl.active != editor.focused {
		t.Fatalf("expected focus to reach editor and controller, got %q %q", editor.focused, ctrl.active)
	}
	if !strings.Contains(out.String(), "active: visuals.hydra") {
		t.Fatalf("unexpected output: %q", out.String())
	}

	if _, err := handler.Handle(context.Background(), `/focus "visuals.hydra"`); err != nil {
		t.Fatalf("expected quoted file name to resolve: %v", err)
	}

	if _, err := handler.Handle(context.Background(), "/focus missing.str"); !errors.Is(err, schema.ErrDocumentNotFound) {
		t.Fatalf("expected document not found, got %v", err)
	}
	if _, err := handler.Handle(context.Background(), "/focus"); err == nil || !strings.Contains(err.Error(), "usage") {
		t.Fatalf("expected usage error, got %v", err)
	}
}

func TestHandleStatusPrintsState(t *testing.T) {
	ctrl := &fakeController{status: core.Status{
		State:       schema.StateReady,
		Session:     "s-1",
		Active:      "file:///tmp/beat.str",
		HydraActive: true,
	}}
	var out bytes.Buffer
	if _, err := NewHandler(ctrl, nil, &out, HandlerConfig{}).Handle(context.Background(), "/status"); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	want := "state: ready\nsession: s-1\nactive: beat.str\nhydra: active\n"
	if out.String() != want {
		t.Fatalf("unexpected status output:\n%s", out.String())
	}
}

func TestHandleStatusReturnsControllerError(t *testing.T) {
	ctrl := &fakeController{err: schema.ErrControllerClosed}
	if _, err := NewHandler(ctrl, nil, nil, HandlerConfig{}).Handle(context.Background(), "/status"); !errors.Is(err, schema.ErrControllerClosed) {
		t.Fatalf("expected controller closed, got %v", err)
	}
}

func TestHandleAuditLog(t *testing.T) {
	capture := newLogCapture(t)
	logger := pslog.NewWithOptions(capture, pslog.Options{
		Mode:          pslog.ModeStructured,
		NoColor:       true,
		VerboseFields: true,
		MinLevel:      pslog.DebugLevel,
	})
	ctx := pslog.ContextWithLogger(context.Background(), logger)

	handler := NewHandler(&fakeController{}, nil, nil, HandlerConfig{})
	if _, err := handler.Handle(ctx, "  /toggle"); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !hasAuditCommand(capture.Entries(), "/toggle") {
		t.Fatalf("expected audit log for slash command")
	}

	capture = newLogCapture(t)
	logger = pslog.NewWithOptions(capture, pslog.Options{Mode: pslog.ModeStructured, NoColor: true, MinLevel: pslog.DebugLevel})
	ctx = pslog.ContextWithLogger(context.Background(), logger)
	handler = NewHandler(&fakeController{}, nil, nil, HandlerConfig{DisableAuditLogging: true})
	if _, err := handler.Handle(ctx, "/toggle"); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if hasAuditCommand(capture.Entries(), "/toggle") {
		t.Fatalf("expected audit log to be disabled")
	}
}

type logEntry struct {
	Level   string
	Message string
	Fields  map[string]any
}

type logCapture struct {
	t     *testing.T
	mu    sync.Mutex
	lines []string
}

func newLogCapture(t *testing.T) *logCapture {
	t.Helper()
	return &logCapture{t: t}
}

func (c *logCapture) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
		if line != "" {
			c.lines = append(c.lines, line)
		}
	}
	return len(p), nil
}

func (c *logCapture) Entries() []logEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	entries := make([]logEntry, 0, len(c.lines))
	for _, line := range c.lines {
		payload := map[string]any{}
		if err := json.Unmarshal([]byte(line), &payload); err != nil {
			continue
		}
		entry := logEntry{Fields: payload}
		if value, ok := payload["level"].(string); ok {
			entry.Level = value
		} else if value, ok := payload["lvl"].(string); ok {
			entry.Level = value
		}
		if value, ok := payload["message"].(string); ok {
			entry.Message = value
		} else if value, ok := payload["msg"].(string); ok {
			entry.Message = value
		}
		entries = append(entries, entry)
	}
	return entries
}

func hasAuditCommand(entries []logEntry, command string) bool {
	for _, entry := range entries {
		if entry.Level != "debug" || entry.Message != "audit command" {
			continue
		}
		if entry.Fields["command_type"] == "slash" && entry.Fields["command"] == command {
			return true
		}
	}
	return false
}
