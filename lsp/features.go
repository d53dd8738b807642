package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"pkt.systems/livecoder/internal/dialect"
	"pkt.systems/livecoder/internal/docindex"
	"pkt.systems/livecoder/internal/logx"
	"pkt.systems/livecoder/internal/textsync"
	"pkt.systems/livecoder/schema"
)

func (s *Server) completion(_ *glsp.Context, params *protocol.CompletionParams) (any, error) {
	doc, ok := s.docs.get(schema.DocumentURI(params.TextDocument.URI))
	if !ok || s.index == nil || !dialect.Relevant(doc.URI.BaseName(), doc.LanguageID) {
		return nil, nil
	}
	kind := dialect.Classify(doc.URI.BaseName(), doc.Text)
	items := s.index.Completions(kind)
	logx.WithDialect(logx.WithDocument(s.logger, doc.URI), kind).Debug("lsp completion", "items", len(items))
	out := make([]protocol.CompletionItem, 0, len(items))
	for _, item := range items {
		out = append(out, completionItem(item))
	}
	return &protocol.CompletionList{IsIncomplete: false, Items: out}, nil
}

func completionItem(item docindex.Completion) protocol.CompletionItem {
	kind := protocol.CompletionItemKindFunction
	format := protocol.InsertTextFormatPlainText
	if item.Snippet {
		format = protocol.InsertTextFormatSnippet
	}
	return protocol.CompletionItem{
		Label:            item.Label,
		Kind:             &kind,
		Detail:           ptr(item.Detail),
		Documentation:    protocol.MarkupContent{Kind: protocol.MarkupKindMarkdown, Value: item.Documentation},
		SortText:         ptr(item.SortText),
		FilterText:       ptr(item.FilterText),
		InsertText:       ptr(item.InsertText),
		InsertTextFormat: &format,
	}
}

func (s *Server) hover(_ *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	doc, ok := s.docs.get(schema.DocumentURI(params.TextDocument.URI))
	if !ok || s.index == nil || !dialect.Relevant(doc.URI.BaseName(), doc.LanguageID) {
		return nil, nil
	}
	offset := textsync.OffsetAt(doc.Text, editorPosition(params.Position))
	start, end := wordAt(doc.Text, offset)
	if start == end {
		return nil, nil
	}
	fn, ok := s.index.Lookup(doc.Text[start:end])
	if !ok {
		return nil, nil
	}
	rng := protocol.Range{
		Start: protocolPosition(textsync.PositionAt(doc.Text, start)),
		End:   protocolPosition(textsync.PositionAt(doc.Text, end)),
	}
	return &protocol.Hover{
		Contents: protocol.MarkupContent{Kind: protocol.MarkupKindMarkdown, Value: docindex.Markdown(fn)},
		Range:    &rng,
	}, nil
}

// wordAt returns the identifier around offset as a byte range.
func wordAt(text string, offset int) (int, int) {
	if offset < 0 || offset > len(text) {
		return 0, 0
	}
	start := offset
	for start > 0 && isWordByte(text[start-1]) {
		start--
	}
	end := offset
	for end < len(text) && isWordByte(text[end]) {
		end++
	}
	return start, end
}

func isWordByte(b byte) bool {
	return b == '_' || b == '$' || (b >= '0' && b <= '9') || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func (s *Server) inlayHints(params *inlayHintParams) ([]inlayHint, error) {
	doc, ok := s.docs.get(schema.DocumentURI(params.TextDocument.URI))
	if !ok {
		return nil, nil
	}
	synth := s.synthesizer()
	if !synth.Enabled {
		return []inlayHint{}, nil
	}
	start := textsync.OffsetAt(doc.Text, editorPosition(params.Range.Start))
	end := textsync.OffsetAt(doc.Text, editorPosition(params.Range.End))
	if end < start {
		start, end = end, start
	}
	found := synth.Hints(doc.Text[start:end], start)
	out := make([]inlayHint, 0, len(found))
	for _, h := range found {
		out = append(out, inlayHint{
			Position:     protocolPosition(textsync.PositionAt(doc.Text, h.Offset)),
			Label:        h.Label,
			Kind:         inlayHintKindParameter,
			PaddingRight: h.PaddingRight,
		})
	}
	return out, nil
}
