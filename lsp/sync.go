package lsp

import (
	"errors"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"pkt.systems/livecoder/internal/logx"
	"pkt.systems/livecoder/schema"
)

var errNotInitialized = errors.New("server not initialized")

func (s *Server) didOpen(_ *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := schema.DocumentURI(params.TextDocument.URI)
	_, hadActive := s.docs.activeEditor()
	s.docs.didOpen(params.TextDocument)
	logx.WithDocument(s.logger, uri).Debug("lsp document opened", "language", params.TextDocument.LanguageID)
	if ctrl := s.controller(); ctrl != nil && !hadActive {
		ctrl.ActiveEditorChanged(uri)
	}
	return nil
}

func (s *Server) didChange(_ *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := schema.DocumentURI(params.TextDocument.URI)
	if err := s.docs.didChange(uri, int(params.TextDocument.Version), params.ContentChanges); err != nil {
		return err
	}
	if ctrl := s.controller(); ctrl != nil {
		ctrl.DocumentChanged(uri)
	}
	return nil
}

func (s *Server) didSave(_ *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	uri := schema.DocumentURI(params.TextDocument.URI)
	s.docs.didSave(uri, params.Text)
	if ctrl := s.controller(); ctrl != nil {
		ctrl.DocumentSaved(uri)
	}
	return nil
}

func (s *Server) didClose(_ *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := schema.DocumentURI(params.TextDocument.URI)
	s.docs.didClose(uri)
	logx.WithDocument(s.logger, uri).Debug("lsp document closed")
	if ctrl := s.controller(); ctrl != nil {
		ctrl.DocumentClosed(uri)
	}
	return nil
}

func (s *Server) didChangeActiveEditor(params *editorParams) {
	uri := schema.DocumentURI(params.TextDocument.URI)
	var pos *schema.EditorPosition
	if params.Position != nil {
		p := editorPosition(*params.Position)
		pos = &p
	}
	if !s.docs.focus(uri, pos) {
		logx.WithDocument(s.logger, uri).Debug("lsp focus on unknown document ignored")
		return
	}
	if ctrl := s.controller(); ctrl != nil {
		ctrl.ActiveEditorChanged(uri)
	}
}

func (s *Server) didChangeCursor(params *editorParams) {
	if params.Position == nil {
		return
	}
	uri := schema.DocumentURI(params.TextDocument.URI)
	pos := editorPosition(*params.Position)
	if !s.docs.setCursor(uri, pos) {
		return
	}
	if ctrl := s.controller(); ctrl != nil {
		ctrl.CursorChanged(uri, pos)
	}
}
