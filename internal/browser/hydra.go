package browser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/chromedp/cdproto/inspector"
	"github.com/chromedp/chromedp"

	"pkt.systems/livecoder/core"
	"pkt.systems/livecoder/httpapi"
	"pkt.systems/pslog"
)

// Hydra opens Hydra output windows backed by a page served from loopback.
type Hydra struct {
	opts HydraOptions
}

var _ core.VisualsLauncher = (*Hydra)(nil)

// NewHydra returns a visuals launcher for opts.
func NewHydra(opts HydraOptions) *Hydra {
	return &Hydra{opts: opts.withDefaults()}
}

func renderHydraPage(synthURL string) ([]byte, error) {
	var buf bytes.Buffer
	if err := hydraPage.Execute(&buf, struct{ SynthURL string }{SynthURL: synthURL}); err != nil {
		return nil, fmt.Errorf("render hydra page: %w", err)
	}
	return buf.Bytes(), nil
}

// LaunchVisuals serves the Hydra page, opens it and waits for hydra-synth to
// initialize. onClosed fires once if the window is closed by the user.
func (h *Hydra) LaunchVisuals(ctx context.Context, onClosed func()) (core.Visuals, error) {
	logger := pslog.Ctx(ctx).With("component", "hydra")
	page, err := renderHydraPage(h.opts.SynthURL)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(h.opts.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("browser data dir: %w", err)
	}

	serveCtx, serveCancel := context.WithCancel(pslog.ContextWithLogger(ctx, logger))
	srv, err := httpapi.ListenLocal(serveCtx, h.opts.ListenAddr, httpapi.Page(page))
	if err != nil {
		serveCancel()
		return nil, err
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(serveCtx, allocatorOptions(srv.URL, h.opts.Headless, h.opts.DataDir, h.opts.ExecPath)...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(pslog.LogLoggerWithLevel(logger, pslog.DebugLevel).Printf),
		chromedp.WithErrorf(pslog.LogLoggerWithLevel(logger, pslog.ErrorLevel).Printf),
	)
	v := &hydraWindow{
		ctx:      tabCtx,
		cancel:   func() { tabCancel(); allocCancel(); serveCancel(); _ = srv.Wait() },
		onClosed: onClosed,
		logger:   logger,
	}
	chromedp.ListenTarget(tabCtx, func(ev any) {
		if _, ok := ev.(*inspector.EventDetached); ok {
			v.lost()
		}
	})

	if err := chromedp.Run(tabCtx); err != nil {
		v.abort()
		return nil, fmt.Errorf("start browser: %w", err)
	}
	waitCtx, waitCancel := context.WithTimeout(tabCtx, h.opts.LaunchTimeout)
	err = chromedp.Run(waitCtx, chromedp.Poll("window.__hydra && window.__hydra.ready()", nil, chromedp.WithPollingTimeout(0)))
	waitCancel()
	if err != nil {
		v.abort()
		return nil, fmt.Errorf("wait for hydra: %w", err)
	}
	go func() {
		<-tabCtx.Done()
		v.lost()
	}()
	logger.Info("hydra window ready", "url", srv.URL)
	return v, nil
}

type hydraWindow struct {
	ctx      context.Context
	cancel   func()
	onClosed func()
	logger   pslog.Logger

	mu      sync.Mutex
	closing bool
	gone    bool

	shutdownOnce sync.Once
}

func (v *hydraWindow) lost() {
	v.mu.Lock()
	if v.gone {
		v.mu.Unlock()
		return
	}
	v.gone = true
	notify := !v.closing && v.onClosed != nil
	v.mu.Unlock()
	if notify {
		v.logger.Debug("hydra window closed")
		v.onClosed()
	}
}

func (v *hydraWindow) abort() {
	v.mu.Lock()
	v.closing = true
	v.mu.Unlock()
	v.cancel()
}

func (v *hydraWindow) run(ctx context.Context, action chromedp.Action) error {
	v.mu.Lock()
	gone := v.gone
	v.mu.Unlock()
	if gone {
		return errVisualsGone
	}
	runCtx, cancel := context.WithCancel(v.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	err := chromedp.Run(runCtx, action)
	if err != nil && v.ctx.Err() != nil {
		return errVisualsGone
	}
	return err
}

var errVisualsGone = errors.New("hydra window closed")

// Eval runs code in the Hydra page and returns its error message, if any.
func (v *hydraWindow) Eval(ctx context.Context, code string) error {
	var message string
	if err := v.run(ctx, chromedp.Evaluate(jsCall("window.__hydra", "eval", code), &message)); err != nil {
		return err
	}
	if message != "" {
		return errors.New(message)
	}
	return nil
}

func (v *hydraWindow) Clear(ctx context.Context) error {
	return v.run(ctx, chromedp.Evaluate(jsCall("window.__hydra", "clear"), nil))
}

func (v *hydraWindow) Close() error {
	var err error
	v.shutdownOnce.Do(func() {
		v.mu.Lock()
		v.closing = true
		v.mu.Unlock()
		err = chromedp.Cancel(v.ctx)
		v.cancel()
		v.lost()
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
