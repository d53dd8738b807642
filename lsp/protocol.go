package lsp

import (
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Methods outside LSP 3.16.
const (
	methodInlayHint = "textDocument/inlayHint"
	// methodDidChangeActiveEditor is sent by the editor extension when focus
	// moves to another document.
	methodDidChangeActiveEditor = "livecoder/didChangeActiveEditor"
	// methodDidChangeCursor is sent by the editor extension on selection
	// changes in the active document.
	methodDidChangeCursor = "livecoder/didChangeCursor"
)

// Commands accepted by workspace/executeCommand.
const (
	CommandLaunch          = "livecoder.launch"
	CommandQuit            = "livecoder.quit"
	CommandToggle          = "livecoder.toggle"
	CommandUpdate          = "livecoder.update"
	CommandStop            = "livecoder.stop"
	CommandSetActiveEditor = "livecoder.setActiveEditor"
	CommandExecute         = "livecoder.execute"
	CommandHydraEval       = "livecoder.hydra.eval"
	CommandHydraClear      = "livecoder.hydra.clear"
)

// Commands lists every executable command.
var Commands = []string{
	CommandLaunch,
	CommandQuit,
	CommandToggle,
	CommandUpdate,
	CommandStop,
	CommandSetActiveEditor,
	CommandExecute,
	CommandHydraEval,
	CommandHydraClear,
}

const inlayHintKindParameter = 2

type inlayHintParams struct {
	TextDocument protocol.TextDocumentIdentifier `json:"textDocument"`
	Range        protocol.Range                  `json:"range"`
}

type inlayHint struct {
	Position     protocol.Position `json:"position"`
	Label        string            `json:"label"`
	Kind         int               `json:"kind,omitempty"`
	PaddingRight bool              `json:"paddingRight,omitempty"`
}

type editorParams struct {
	TextDocument protocol.TextDocumentIdentifier `json:"textDocument"`
	Position     *protocol.Position              `json:"position,omitempty"`
}

type serverCapabilities struct {
	protocol.ServerCapabilities
	InlayHintProvider bool `json:"inlayHintProvider,omitempty"`
}

type initializeResult struct {
	Capabilities serverCapabilities                   `json:"capabilities"`
	ServerInfo   *protocol.InitializeResultServerInfo `json:"serverInfo,omitempty"`
}
