package core

import (
	"context"
	"fmt"

	"pkt.systems/livecoder/internal/logx"
	"pkt.systems/livecoder/internal/textsync"
	"pkt.systems/livecoder/schema"
)

func (c *Controller) documentChanged(ctx context.Context, uri schema.DocumentURI) {
	if !c.syncing(uri) {
		return
	}
	if err := c.pushContent(ctx, false); err != nil {
		c.log().Warn("controller push failed", "err", err)
	}
}

// pushContent sends the active document to the runtime as one edit, then
// schedules the cursor push. full replaces the whole runtime buffer.
func (c *Controller) pushContent(ctx context.Context, full bool) error {
	doc, err := c.host.Document(c.active)
	if err != nil {
		return fmt.Errorf("read %s: %w", c.active, err)
	}
	text := schema.NormalizeNewlines(doc.Text)
	if !full && c.applied.matches(text) {
		c.applied.reset()
		c.log().Debug("controller dropped editor echo")
		return nil
	}
	c.applied.reset()
	current, err := c.runtime.Content(ctx)
	if err != nil {
		return fmt.Errorf("read runtime buffer: %w", err)
	}
	var edit schema.TextEdit
	switch {
	case full && current != text:
		edit = schema.TextEdit{From: 0, To: textsync.UTF16Len(current), Insert: text}
	case !full:
		span, changed := textsync.ComputeDiff(current, text)
		if !changed {
			c.scheduleCursorPush()
			return nil
		}
		edit = textsync.UTF16Edit(current, span)
	default:
		c.scheduleCursorPush()
		return nil
	}
	c.pushed.store(text)
	if err := c.runtime.Replace(logx.ContextWithDocument(ctx, c.active), edit); err != nil {
		return fmt.Errorf("replace runtime buffer: %w", err)
	}
	c.log().Debug("controller pushed content", "from", edit.From, "to", edit.To, "insert_len", len(edit.Insert), "full", full)
	c.scheduleCursorPush()
	return nil
}

// runtimeContentChanged applies a buffer edited inside the runtime to the
// active editor as one minimal range replacement.
func (c *Controller) runtimeContentChanged(ctx context.Context, content string) {
	if c.state != schema.StateReady || c.active == "" {
		return
	}
	if c.pushed.matches(content) {
		c.log().Debug("controller dropped runtime echo")
		return
	}
	editor, ok := c.host.ActiveEditor()
	if !ok || editor.Document.URI != c.active {
		return
	}
	text := schema.NormalizeNewlines(editor.Document.Text)
	span, changed := textsync.ComputeDiff(text, content)
	if !changed {
		return
	}
	c.raise(&c.editorGuard)
	c.applied.store(content)
	c.pushed.reset()
	if err := c.host.ApplyEdit(ctx, c.active, textsync.SpanRange(text, span), span.Replacement); err != nil {
		c.applied.reset()
		c.log().Warn("controller apply runtime edit failed", "err", err)
		return
	}
	c.log().Debug("controller applied runtime content", "start", span.Start, "end", span.EndOld, "insert_len", len(span.Replacement))
}
