// Package lsp exposes the controller and the documentation index to editors
// over the Language Server Protocol.
package lsp

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"pkt.systems/livecoder/internal/docindex"
	"pkt.systems/livecoder/internal/eventbus"
	"pkt.systems/livecoder/internal/hints"
	"pkt.systems/livecoder/schema"
	"pkt.systems/pslog"
)

// Controller is the part of core.Controller the server drives. Every method
// must return without waiting for the controller loop.
type Controller interface {
	Launch()
	Quit()
	Toggle()
	Update()
	Stop()
	SetActiveEditor()
	Execute()
	HydraEval()
	HydraClear()
	DocumentChanged(uri schema.DocumentURI)
	CursorChanged(uri schema.DocumentURI, pos schema.EditorPosition)
	DocumentSaved(uri schema.DocumentURI)
	DocumentClosed(uri schema.DocumentURI)
	ActiveEditorChanged(uri schema.DocumentURI)
}

// Options configures a Server.
type Options struct {
	Name               string
	Version            string
	Index              *docindex.Index
	ShowParameterHints bool
	// Verbosity is passed to the glsp transport logger, which writes to stderr.
	Verbosity int
	Logger    pslog.Logger
}

// Server is an LSP server and the core.Host backing it.
type Server struct {
	name    string
	version string
	index   *docindex.Index
	logger  pslog.Logger

	handler protocol.Handler
	docs    *documents

	mu     sync.Mutex
	ctrl   Controller
	client *client
	hints  bool
}

type client struct {
	notify glsp.NotifyFunc
	call   glsp.CallFunc
}

// New constructs a server. Attach a controller before serving.
func New(opts Options) *Server {
	if opts.Name == "" {
		opts.Name = "livecoder"
	}
	logger := opts.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	s := &Server{
		name:    opts.Name,
		version: opts.Version,
		index:   opts.Index,
		logger:  logger,
		docs:    newDocuments(),
		hints:   opts.ShowParameterHints,
	}
	s.handler = protocol.Handler{
		Initialize:              s.initialize,
		Initialized:             s.initialized,
		Shutdown:                s.shutdown,
		Exit:                    s.exit,
		SetTrace:                s.setTrace,
		TextDocumentDidOpen:     s.didOpen,
		TextDocumentDidChange:   s.didChange,
		TextDocumentDidSave:     s.didSave,
		TextDocumentDidClose:    s.didClose,
		TextDocumentCompletion:  s.completion,
		TextDocumentHover:       s.hover,
		WorkspaceExecuteCommand: s.executeCommand,
	}
	commonlog.Configure(opts.Verbosity, nil)
	return s
}

// Attach sets the controller editor events are forwarded to.
func (s *Server) Attach(ctrl Controller) {
	s.mu.Lock()
	s.ctrl = ctrl
	s.mu.Unlock()
}

// SetParameterHints toggles inlay parameter hints.
func (s *Server) SetParameterHints(enabled bool) {
	s.mu.Lock()
	s.hints = enabled
	s.mu.Unlock()
}

func (s *Server) controller() Controller {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl
}

func (s *Server) synthesizer() hints.Synthesizer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return hints.Synthesizer{Signatures: s.index, Enabled: s.hints && s.index != nil}
}

// RunStdio serves the protocol on stdin/stdout until the client disconnects.
func (s *Server) RunStdio() error {
	s.logger.Info("lsp server starting", "transport", "stdio")
	return server.NewServer(s, s.name, false).RunStdio()
}

// Handle implements glsp.Handler. Methods newer than LSP 3.16 and the
// livecoder notifications are served here; the rest go to the protocol
// handler.
func (s *Server) Handle(ctx *glsp.Context) (r any, validMethod bool, validParams bool, err error) {
	switch ctx.Method {
	case methodInlayHint, methodDidChangeActiveEditor, methodDidChangeCursor:
	default:
		return s.handler.Handle(ctx)
	}
	if !s.handler.IsInitialized() {
		return nil, true, true, errNotInitialized
	}
	validMethod = true
	switch ctx.Method {
	case methodInlayHint:
		var params inlayHintParams
		if err = json.Unmarshal(ctx.Params, &params); err == nil {
			validParams = true
			r, err = s.inlayHints(&params)
		}
	case methodDidChangeActiveEditor:
		var params editorParams
		if err = json.Unmarshal(ctx.Params, &params); err == nil {
			validParams = true
			s.didChangeActiveEditor(&params)
		}
	case methodDidChangeCursor:
		var params editorParams
		if err = json.Unmarshal(ctx.Params, &params); err == nil {
			validParams = true
			s.didChangeCursor(&params)
		}
	}
	return r, validMethod, validParams, err
}

func (s *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	s.mu.Lock()
	s.client = &client{notify: ctx.Notify, call: ctx.Call}
	s.mu.Unlock()

	capabilities := s.handler.CreateServerCapabilities()
	change := protocol.TextDocumentSyncKindIncremental
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: ptr(true),
		Change:    &change,
		Save:      protocol.SaveOptions{IncludeText: ptr(true)},
	}
	capabilities.CompletionProvider = &protocol.CompletionOptions{TriggerCharacters: []string{".", "("}}
	capabilities.ExecuteCommandProvider = &protocol.ExecuteCommandOptions{Commands: Commands}

	client := "unknown"
	if params.ClientInfo != nil {
		client = params.ClientInfo.Name
	}
	s.logger.Info("lsp initialize", "client", client)
	return initializeResult{
		Capabilities: serverCapabilities{ServerCapabilities: capabilities, InlayHintProvider: true},
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    s.name,
			Version: &s.version,
		},
	}, nil
}

func (s *Server) initialized(_ *glsp.Context, _ *protocol.InitializedParams) error {
	s.logger.Debug("lsp initialized")
	return nil
}

func (s *Server) shutdown(_ *glsp.Context) error {
	protocol.SetTraceValue(protocol.TraceValueOff)
	s.logger.Info("lsp shutdown")
	return nil
}

func (s *Server) exit(_ *glsp.Context) error {
	return nil
}

func (s *Server) setTrace(_ *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

// ForwardNotices shows bus notices as window/showMessage until ctx ends.
func (s *Server) ForwardNotices(ctx context.Context, bus *eventbus.Bus) {
	events, cancel := bus.Subscribe()
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Type == eventbus.EventNotice {
				s.showMessage(ev.Notice)
			}
		}
	}
}

func (s *Server) showMessage(notice schema.Notice) {
	s.mu.Lock()
	c := s.client
	s.mu.Unlock()
	if c == nil {
		return
	}
	kind := protocol.MessageTypeInfo
	switch notice.Severity {
	case schema.SeverityWarning:
		kind = protocol.MessageTypeWarning
	case schema.SeverityError:
		kind = protocol.MessageTypeError
	}
	c.notify(protocol.ServerWindowShowMessage, protocol.ShowMessageParams{Type: kind, Message: notice.Message})
}

func ptr[T any](v T) *T {
	return &v
}
