package lsp

import (
	"fmt"
	"sync"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"pkt.systems/livecoder/internal/textsync"
	"pkt.systems/livecoder/schema"
)

type openDocument struct {
	languageID string
	text       string
	version    int
}

// documents mirrors the client's open buffers.
type documents struct {
	mu     sync.RWMutex
	open   map[schema.DocumentURI]*openDocument
	active schema.DocumentURI
	cursor schema.EditorPosition
}

func newDocuments() *documents {
	return &documents{open: make(map[schema.DocumentURI]*openDocument)}
}

func (d *documents) didOpen(item protocol.TextDocumentItem) {
	d.mu.Lock()
	defer d.mu.Unlock()
	uri := schema.DocumentURI(item.URI)
	d.open[uri] = &openDocument{languageID: item.LanguageID, text: item.Text, version: int(item.Version)}
	if d.active == "" {
		d.active = uri
		d.cursor = schema.EditorPosition{}
	}
}

// didChange applies content changes in order.
func (d *documents) didChange(uri schema.DocumentURI, version int, changes []any) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	doc, ok := d.open[uri]
	if !ok {
		return fmt.Errorf("%s: %w", uri, schema.ErrDocumentNotFound)
	}
	for _, change := range changes {
		switch change := change.(type) {
		case protocol.TextDocumentContentChangeEvent:
			start := textsync.OffsetAt(doc.text, editorPosition(change.Range.Start))
			end := textsync.OffsetAt(doc.text, editorPosition(change.Range.End))
			if end < start {
				start, end = end, start
			}
			doc.text = doc.text[:start] + change.Text + doc.text[end:]
		case protocol.TextDocumentContentChangeEventWhole:
			doc.text = change.Text
		}
	}
	doc.version = version
	return nil
}

func (d *documents) didSave(uri schema.DocumentURI, text *string) {
	if text == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if doc, ok := d.open[uri]; ok {
		doc.text = *text
	}
}

func (d *documents) didClose(uri schema.DocumentURI) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.open, uri)
	if d.active == uri {
		d.active = ""
		d.cursor = schema.EditorPosition{}
	}
}

// focus makes uri the active editor. It reports false for unknown documents.
func (d *documents) focus(uri schema.DocumentURI, pos *schema.EditorPosition) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.open[uri]; !ok {
		return false
	}
	if d.active != uri {
		d.cursor = schema.EditorPosition{}
	}
	d.active = uri
	if pos != nil {
		d.cursor = *pos
	}
	return true
}

func (d *documents) setCursor(uri schema.DocumentURI, pos schema.EditorPosition) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if uri != d.active {
		return false
	}
	d.cursor = pos
	return true
}

func (d *documents) get(uri schema.DocumentURI) (schema.Document, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	doc, ok := d.open[uri]
	if !ok {
		return schema.Document{}, false
	}
	return schema.Document{URI: uri, LanguageID: doc.languageID, Text: doc.text, Version: doc.version}, true
}

func (d *documents) activeEditor() (schema.EditorState, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	doc, ok := d.open[d.active]
	if !ok {
		return schema.EditorState{}, false
	}
	return schema.EditorState{
		Document: schema.Document{URI: d.active, LanguageID: doc.languageID, Text: doc.text, Version: doc.version},
		Cursor:   d.cursor,
	}, true
}

func editorPosition(pos protocol.Position) schema.EditorPosition {
	return schema.EditorPosition{Line: int(pos.Line), Character: int(pos.Character)}
}

func protocolPosition(pos schema.EditorPosition) protocol.Position {
	return protocol.Position{Line: protocol.UInteger(pos.Line), Character: protocol.UInteger(pos.Character)}
}

func protocolRange(rng schema.EditorRange) protocol.Range {
	return protocol.Range{Start: protocolPosition(rng.Start), End: protocolPosition(rng.End)}
}
