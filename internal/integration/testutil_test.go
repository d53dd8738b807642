package integration_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"pkt.systems/livecoder/core"
	"pkt.systems/livecoder/internal/browser"
	"pkt.systems/livecoder/schema"
)

func requireLong(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if os.Getenv("LIVECODER_LONG") != "1" {
		t.Skip("set LIVECODER_LONG=1 to run browser integration tests")
	}
}

// requireBrowser returns a Chromium executable or skips the test.
func requireBrowser(t *testing.T) string {
	t.Helper()
	path, err := browser.FindExecutable("")
	if err != nil {
		t.Skip("no chromium executable available")
	}
	return path
}

// fakeStrudelPage mimics the parts of the Strudel REPL the runtime touches:
// a .cm-content element and window.strudelMirror with a CodeMirror-like view.
// Inserting "// ping" makes the page answer with "// pong" as if typed.
const fakeStrudelPage = `<!DOCTYPE html>
<html>
<head><title>strudel</title></head>
<body>
<header>top</header>
<div class="cm-editor"><div class="cm-content" contenteditable="true"></div></div>
<script>
(() => {
  const content = document.querySelector('.cm-content');
  let text = '';
  let head = 0;
  const makeDoc = (value) => {
    const lines = value.split('\n');
    const starts = [];
    let p = 0;
    for (const l of lines) { starts.push(p); p += l.length + 1; }
    const line = (n) => ({ number: n, from: starts[n - 1], to: starts[n - 1] + lines[n - 1].length, length: lines[n - 1].length });
    return {
      length: value.length,
      lines: lines.length,
      toString: () => value,
      line,
      lineAt(pos) {
        let n = 1;
        while (n < lines.length && starts[n] <= pos) n++;
        return line(n);
      },
    };
  };
  const setText = (value) => { text = value; content.textContent = value; };
  const view = {
    get state() {
      return { doc: makeDoc(text), selection: { main: { head } } };
    },
    dispatch(tr) {
      if (tr.changes) {
        const c = tr.changes;
        setText(text.slice(0, c.from) + c.insert + text.slice(c.to));
        if (c.insert.includes('// ping')) {
          setTimeout(() => setText(text.replace('// ping', '// pong')), 50);
        }
      }
      if (tr.selection) {
        head = tr.selection.anchor;
      }
    },
  };
  window.__calls = [];
  window.strudelMirror = {
    editor: view,
    root: document.body,
    repl: { state: { started: false, evalError: null } },
    toggle() { window.__calls.push('toggle'); this.repl.state.started = !this.repl.state.started; },
    evaluate() {
      window.__calls.push('evaluate');
      this.repl.state.evalError = text.includes('boom') ? { message: 'boom is not defined' } : null;
    },
    stop() { window.__calls.push('stop'); this.repl.state.started = false; },
  };
})();
</script>
</body>
</html>`

func serveFakeStrudel(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(fakeStrudelPage))
	}))
	t.Cleanup(server.Close)
	return server
}

type eventRecorder struct {
	mu     sync.Mutex
	events []schema.RuntimeEvent
}

func (r *eventRecorder) emit(ev schema.RuntimeEvent) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *eventRecorder) waitFor(t *testing.T, timeout time.Duration, match func(schema.RuntimeEvent) bool) schema.RuntimeEvent {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		r.mu.Lock()
		for _, ev := range r.events {
			if match(ev) {
				r.mu.Unlock()
				return ev
			}
		}
		r.mu.Unlock()
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for runtime event")
	return schema.RuntimeEvent{}
}

func (r *eventRecorder) count(kind schema.RuntimeEventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.Type == kind {
			n++
		}
	}
	return n
}

func waitState(t *testing.T, ctrl *core.Controller, want schema.SessionState, timeout time.Duration) core.Status {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		status, err := ctrl.Status(ctx)
		cancel()
		if err == nil && status.State == want {
			return status
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for state %s", want)
	return core.Status{}
}

func waitUntil(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("timed out: %s", msg)
}
