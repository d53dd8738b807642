package core

import (
	"context"
	"fmt"
	"strings"

	"pkt.systems/livecoder/schema"
)

type hydraState struct {
	active    bool
	visuals   Visuals
	launching bool
	pending   string
	seq       uint64
}

// HydraEval evaluates the focused Hydra document in the output window,
// opening it first when needed.
func (c *Controller) HydraEval() {
	c.post(c.hydraEval)
}

// HydraClear silences the Hydra output.
func (c *Controller) HydraClear() {
	c.post(c.hydraClear)
}

func (c *Controller) activateHydra() {
	if c.hydra.active {
		return
	}
	c.hydra.active = true
	c.info("Hydra mode activated!")
}

func (c *Controller) hydraSaved(ctx context.Context, uri schema.DocumentURI) {
	if !c.hydra.active {
		return
	}
	doc, err := c.host.Document(uri)
	if err != nil || !schema.IsHydraDocument(doc) {
		return
	}
	c.hydraEval(ctx)
}

func (c *Controller) hydraEval(ctx context.Context) {
	editor, ok := c.host.ActiveEditor()
	if !ok {
		c.notify(schema.SeverityError, schema.ErrNoActiveEditor.Error())
		return
	}
	if !schema.IsHydraDocument(editor.Document) {
		c.warn(schema.ErrNotHydraDocument)
		return
	}
	code := editor.Document.Text
	if strings.TrimSpace(code) == "" {
		c.warn(schema.ErrEmptyCode)
		return
	}
	if c.visualsL == nil {
		c.warn(schema.ErrVisualsUnavailable)
		return
	}
	c.evalVisuals(ctx, code)
	c.info("Hydra code executed")
}

// evalVisuals runs code in the open window, or remembers it and opens the
// window; the pending code runs once hydra-synth had time to initialize.
func (c *Controller) evalVisuals(ctx context.Context, code string) {
	if c.hydra.visuals != nil && c.hydra.pending == "" {
		if err := c.hydra.visuals.Eval(ctx, code); err != nil {
			c.notify(schema.SeverityError, fmt.Sprintf("Hydra error: %v", err))
		}
		return
	}
	c.hydra.pending = code
	if c.hydra.launching || c.hydra.visuals != nil {
		return
	}
	c.hydra.launching = true
	c.hydra.seq++
	seq := c.hydra.seq
	onClosed := func() {
		c.post(func(context.Context) { c.visualsClosed(seq) })
	}
	go func() {
		v, err := c.visualsL.LaunchVisuals(ctx, onClosed)
		var token uint64
		if v != nil {
			var ok bool
			if token, ok = c.handoffs.hold(v); !ok {
				_ = v.Close()
				return
			}
		}
		c.post(func(ctx context.Context) {
			c.handoffs.claim(token)
			c.visualsLaunched(seq, v, err)
		})
	}()
}

func (c *Controller) visualsLaunched(seq uint64, v Visuals, err error) {
	if seq != c.hydra.seq {
		if v != nil {
			_ = v.Close()
		}
		return
	}
	c.hydra.launching = false
	if err != nil {
		c.hydra.pending = ""
		c.notify(schema.SeverityError, fmt.Sprintf("Failed to open Hydra: %v", err))
		return
	}
	c.hydra.visuals = v
	c.logger.Info("controller hydra window open")
	if c.hydra.pending == "" {
		return
	}
	c.after(c.cfg.HydraInitDelay, func(ctx context.Context) {
		code := c.hydra.pending
		c.hydra.pending = ""
		if seq != c.hydra.seq || c.hydra.visuals == nil || code == "" {
			return
		}
		if err := c.hydra.visuals.Eval(ctx, code); err != nil {
			c.notify(schema.SeverityError, fmt.Sprintf("Hydra error: %v", err))
		}
	})
}

func (c *Controller) visualsClosed(seq uint64) {
	if seq != c.hydra.seq {
		return
	}
	c.hydra.visuals = nil
	c.hydra.launching = false
	c.hydra.pending = ""
	c.logger.Info("controller hydra window closed")
}

func (c *Controller) hydraClear(ctx context.Context) {
	if c.hydra.visuals != nil {
		if err := c.hydra.visuals.Clear(ctx); err != nil {
			c.notify(schema.SeverityError, fmt.Sprintf("Hydra error: %v", err))
			return
		}
	}
	c.info("Hydra output cleared")
}

func (c *Controller) closeVisuals() {
	c.hydra.seq++
	if c.hydra.visuals != nil {
		if err := c.hydra.visuals.Close(); err != nil {
			c.logger.Warn("controller hydra close failed", "err", err)
		}
	}
	c.hydra = hydraState{seq: c.hydra.seq}
}
