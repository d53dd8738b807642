package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"pkt.systems/livecoder/core"
	"pkt.systems/livecoder/internal/logx"
	"pkt.systems/livecoder/internal/version"
	"pkt.systems/livecoder/schema"
	"pkt.systems/pslog"
)

// Controller is the part of core.Controller the console drives.
type Controller interface {
	Launch()
	Quit()
	Toggle()
	Update()
	Stop()
	Execute()
	HydraEval()
	HydraClear()
	ActiveEditorChanged(uri schema.DocumentURI)
	Status(ctx context.Context) (core.Status, error)
}

// Editor resolves console file arguments to tracked documents.
type Editor interface {
	URIFor(path string) (schema.DocumentURI, error)
	Focus(uri schema.DocumentURI) error
}

// HandlerConfig configures slash command behavior.
type HandlerConfig struct {
	DisableAuditLogging bool
}

// Handler routes slash commands typed into the watch console to the controller.
type Handler struct {
	ctrl   Controller
	editor Editor
	out    io.Writer
	cfg    HandlerConfig
}

// NewHandler constructs a command handler writing replies to out.
func NewHandler(ctrl Controller, editor Editor, out io.Writer, cfg HandlerConfig) *Handler {
	if out == nil {
		out = io.Discard
	}
	return &Handler{ctrl: ctrl, editor: editor, out: out, cfg: cfg}
}

var helpLines = []string{
	"/launch            start the strudel browser and sync the active file",
	"/quit              close the strudel browser",
	"/toggle            start or pause playback",
	"/update            evaluate the current code",
	"/stop              stop playback",
	"/execute           sync the active file, then evaluate it",
	"/focus <file>      make a watched file the active editor",
	"/hydra             evaluate the active hydra file",
	"/clear             clear the hydra output",
	"/status            show the session state",
	"/version           show the livecoder version",
}

// Handle inspects input and executes slash commands. It reports whether the
// input was a command.
func (h *Handler) Handle(ctx context.Context, input string) (bool, error) {
	if ctx == nil {
		return false, errors.New("missing context")
	}
	cmd, ok := Parse(input)
	if !ok {
		return false, nil
	}
	log := logx.Ctx(ctx)
	if !h.cfg.DisableAuditLogging {
		log.Debug("audit command", "command_type", "slash", "command", strings.TrimSpace(input))
	}
	log = log.With("command", cmd.Name)
	if cmd.Alias != "" {
		log = log.With("alias", cmd.Alias)
	}
	log.Info("command slash request")
	switch cmd.Name {
	case "":
		log.Warn("command slash rejected", "reason", "empty")
		return true, fmt.Errorf("invalid command")
	case "launch":
		h.ctrl.Launch()
	case "quit":
		h.ctrl.Quit()
	case "toggle":
		h.ctrl.Toggle()
	case "update":
		h.ctrl.Update()
	case "stop":
		h.ctrl.Stop()
	case "execute":
		h.ctrl.Execute()
	case "hydra":
		h.ctrl.HydraEval()
	case "clear":
		h.ctrl.HydraClear()
	case "focus":
		return true, h.handleFocus(ctx, log, cmd)
	case "status":
		return true, h.handleStatus(ctx, log)
	case "help":
		h.print(helpLines...)
	case "version":
		h.print(version.Read().String())
	default:
		log.Warn("command slash rejected", "reason", "unknown")
		return true, fmt.Errorf("unknown command: /%s", cmd.Name)
	}
	return true, nil
}

func (h *Handler) handleFocus(ctx context.Context, log pslog.Logger, cmd Command) error {
	if cmd.Arg == "" {
		return fmt.Errorf("usage: /focus <file>")
	}
	if h.editor == nil {
		return fmt.Errorf("focus: %w", schema.ErrNoActiveEditor)
	}
	uri, err := h.editor.URIFor(cmd.Arg)
	if err != nil {
		log.Warn("command focus failed", "err", err)
		return err
	}
	if err := h.editor.Focus(uri); err != nil {
		log.Warn("command focus failed", "err", err)
		return err
	}
	logx.WithDocument(log, uri).Info("command focus completed")
	h.ctrl.ActiveEditorChanged(uri)
	h.print("active: " + uri.BaseName())
	return nil
}

func (h *Handler) handleStatus(ctx context.Context, log pslog.Logger) error {
	status, err := h.ctrl.Status(ctx)
	if err != nil {
		log.Warn("command status failed", "err", err)
		return err
	}
	lines := []string{"state: " + string(status.State)}
	if status.Session != "" {
		lines = append(lines, "session: "+string(status.Session))
	}
	if status.Active != "" {
		lines = append(lines, "active: "+status.Active.BaseName())
	}
	switch {
	case status.HydraActive:
		lines = append(lines, "hydra: active")
	case status.HydraOpen:
		lines = append(lines, "hydra: open")
	}
	h.print(lines...)
	return nil
}

func (h *Handler) print(lines ...string) {
	for _, line := range lines {
		_, _ = fmt.Fprintln(h.out, line)
	}
}
