package lsp

import (
	"fmt"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"pkt.systems/livecoder/schema"
)

// executeCommand posts the command to the controller and returns at once;
// outcomes are reported as notices.
func (s *Server) executeCommand(_ *glsp.Context, params *protocol.ExecuteCommandParams) (any, error) {
	ctrl := s.controller()
	if ctrl == nil {
		return nil, fmt.Errorf("%s: %w", params.Command, schema.ErrControllerClosed)
	}
	// An optional document URI argument focuses that document first.
	if uri, ok := uriArgument(params.Arguments); ok && s.docs.focus(uri, nil) {
		ctrl.ActiveEditorChanged(uri)
	}
	s.logger.Debug("lsp execute command", "command", params.Command)
	switch params.Command {
	case CommandLaunch:
		ctrl.Launch()
	case CommandQuit:
		ctrl.Quit()
	case CommandToggle:
		ctrl.Toggle()
	case CommandUpdate:
		ctrl.Update()
	case CommandStop:
		ctrl.Stop()
	case CommandSetActiveEditor:
		ctrl.SetActiveEditor()
	case CommandExecute:
		ctrl.Execute()
	case CommandHydraEval:
		ctrl.HydraEval()
	case CommandHydraClear:
		ctrl.HydraClear()
	default:
		return nil, fmt.Errorf("unknown command %q", params.Command)
	}
	return nil, nil
}

func uriArgument(args []any) (schema.DocumentURI, bool) {
	if len(args) == 0 {
		return "", false
	}
	switch arg := args[0].(type) {
	case string:
		return schema.DocumentURI(arg), arg != ""
	case map[string]any:
		if uri, ok := arg["uri"].(string); ok && uri != "" {
			return schema.DocumentURI(uri), true
		}
	}
	return "", false
}
