package lsp

import (
	"context"
	"errors"
	"fmt"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"pkt.systems/livecoder/core"
	"pkt.systems/livecoder/schema"
)

var (
	errNoClient     = errors.New("no lsp client connected")
	errEditRejected = errors.New("client rejected the edit")
)

var _ core.Host = (*Server)(nil)

func (s *Server) Document(uri schema.DocumentURI) (schema.Document, error) {
	doc, ok := s.docs.get(uri)
	if !ok {
		return schema.Document{}, fmt.Errorf("%s: %w", uri, schema.ErrDocumentNotFound)
	}
	return doc, nil
}

func (s *Server) ActiveEditor() (schema.EditorState, bool) {
	return s.docs.activeEditor()
}

// ApplyEdit asks the client to replace rng. It blocks until the client
// answers, so it must not be called from a protocol handler.
func (s *Server) ApplyEdit(_ context.Context, uri schema.DocumentURI, rng schema.EditorRange, text string) error {
	c := s.currentClient()
	if c == nil {
		return errNoClient
	}
	params := protocol.ApplyWorkspaceEditParams{
		Label: ptr("livecoder sync"),
		Edit: protocol.WorkspaceEdit{
			Changes: map[protocol.DocumentUri][]protocol.TextEdit{
				string(uri): {{Range: protocolRange(rng), NewText: text}},
			},
		},
	}
	var result protocol.ApplyWorkspaceEditResponse
	c.call(protocol.ServerWorkspaceApplyEdit, params, &result)
	if !result.Applied {
		if result.FailureReason != nil {
			return fmt.Errorf("%w: %s", errEditRejected, *result.FailureReason)
		}
		return errEditRejected
	}
	return nil
}

// RevealCursor moves the client's selection to pos via window/showDocument.
func (s *Server) RevealCursor(_ context.Context, uri schema.DocumentURI, pos schema.EditorPosition) error {
	c := s.currentClient()
	if c == nil {
		return errNoClient
	}
	s.docs.setCursor(uri, pos)
	at := protocolPosition(pos)
	params := protocol.ShowDocumentParams{
		URI:       string(uri),
		TakeFocus: ptr(false),
		Selection: &protocol.Range{Start: at, End: at},
	}
	var result protocol.ShowDocumentResult
	c.call(protocol.ServerWindowShowDocument, params, &result)
	if !result.Success {
		return fmt.Errorf("show document %s failed", uri.BaseName())
	}
	return nil
}

func (s *Server) currentClient() *client {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client
}
