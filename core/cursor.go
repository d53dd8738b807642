package core

import (
	"context"

	"pkt.systems/livecoder/internal/textsync"
	"pkt.systems/livecoder/schema"
)

// guard suppresses echoes from the side that was just mutated. Each raise
// bumps seq so only the latest timer lowers it.
type guard struct {
	on  bool
	seq uint64
}

func (c *Controller) raise(g *guard) {
	g.on = true
	g.seq++
	seq := g.seq
	c.after(c.cfg.EchoGuard, func(context.Context) {
		if g.seq == seq {
			g.on = false
		}
	})
}

func (c *Controller) editorCursorChanged(ctx context.Context, uri schema.DocumentURI, pos schema.EditorPosition) {
	if !c.cfg.SyncCursor || !c.syncing(uri) || c.editorGuard.on {
		return
	}
	c.pushCursor(ctx, pos)
}

func (c *Controller) pushCursor(ctx context.Context, pos schema.EditorPosition) {
	c.raise(&c.runtimeGuard)
	if err := c.runtime.SetCursor(ctx, textsync.ToRuntime(pos)); err != nil {
		c.log().Warn("controller cursor push failed", "err", err)
	}
}

// scheduleCursorPush sends the focused editor's cursor after the content push
// had time to settle. Only the most recent schedule fires.
func (c *Controller) scheduleCursorPush() {
	if !c.cfg.SyncCursor {
		return
	}
	c.cursorSeq++
	seq := c.cursorSeq
	c.after(c.cfg.CursorDelay, func(ctx context.Context) {
		if seq != c.cursorSeq {
			return
		}
		editor, ok := c.host.ActiveEditor()
		if !ok || !c.cfg.SyncCursor || !c.syncing(editor.Document.URI) {
			return
		}
		c.pushCursor(ctx, editor.Cursor)
	})
}

func (c *Controller) runtimeCursorChanged(ctx context.Context, cur schema.CursorPosition) {
	if !c.cfg.SyncCursor || c.state != schema.StateReady || c.active == "" || c.runtimeGuard.on {
		return
	}
	editor, ok := c.host.ActiveEditor()
	if !ok || editor.Document.URI != c.active {
		return
	}
	pos := textsync.ToEditor(schema.NormalizeNewlines(editor.Document.Text), cur)
	c.raise(&c.editorGuard)
	if err := c.host.RevealCursor(ctx, c.active, pos); err != nil {
		c.log().Warn("controller reveal cursor failed", "err", err)
	}
}
