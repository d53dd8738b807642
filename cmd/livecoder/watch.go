package main

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"pkt.systems/livecoder/internal/appconfig"
	"pkt.systems/livecoder/internal/command"
	"pkt.systems/livecoder/internal/eventbus"
	"pkt.systems/livecoder/internal/filehost"
	"pkt.systems/livecoder/internal/logx"
	"pkt.systems/livecoder/schema"
	"pkt.systems/pslog"
)

func newWatchCmd() *cobra.Command {
	var noLaunch bool
	var noConsole bool
	cmd := &cobra.Command{
		Use:   "watch FILE [FILE...]",
		Short: "Sync files on disk with the Strudel browser; the first file starts active",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := pslog.Ctx(cmd.Context())
			path := configPath(cmd)
			cfg, err := appconfig.Load(path)
			if err != nil {
				return err
			}

			host := filehost.New(logger.With("component", "filehost"))
			var first schema.DocumentURI
			for _, arg := range args {
				doc, err := host.Open(arg)
				if err != nil {
					return err
				}
				logx.WithDocument(logger, doc.URI).Info("watch tracking", "language", doc.LanguageID)
				if first == "" {
					first = doc.URI
				}
			}
			if err := host.Focus(first); err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			bus := eventbus.New(logger)
			ctrl, err := newController(cfg, host, bus, logger.With("component", "controller"))
			if err != nil {
				return err
			}
			go logEvents(ctx, bus, logger)
			go func() { _ = ctrl.Run(ctx) }()

			watchErr := make(chan error, 1)
			go func() {
				watchErr <- host.Watch(ctx, ctrl)
				cancel()
			}()
			watchConfig(ctx, path, logger, func(next appconfig.Config) {
				ctrl.SetConfig(next.SyncConfig())
			})
			if !noLaunch {
				ctrl.Launch()
			}

			if !noConsole {
				handler := command.NewHandler(ctrl, host, cmd.OutOrStdout(), command.HandlerConfig{})
				go runConsole(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), handler, logger)
			}

			<-ctx.Done()
			ctrl.Dispose()
			<-ctrl.Done()
			logger.Info("watch stopped")
			return <-watchErr
		},
	}
	cmd.Flags().BoolVar(&noLaunch, "no-launch", false, "do not open the Strudel browser at start")
	cmd.Flags().BoolVar(&noConsole, "no-console", false, "do not read slash commands from stdin")
	return cmd
}

// runConsole feeds stdin lines to the slash command handler until EOF.
func runConsole(ctx context.Context, in io.Reader, out io.Writer, handler *command.Handler, logger pslog.Logger) {
	_, _ = fmt.Fprintln(out, "livecoder: type /help for commands")
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := scanner.Text()
		if line == "" {
			continue
		}
		handled, err := handler.Handle(ctx, line)
		switch {
		case err != nil:
			_, _ = fmt.Fprintln(out, "error:", err)
		case !handled:
			_, _ = fmt.Fprintln(out, "edit the watched files; console input must start with /")
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Warn("console read failed", "err", err)
	}
}

// logEvents renders controller notices and state changes as log lines.
func logEvents(ctx context.Context, bus *eventbus.Bus, logger pslog.Logger) {
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
			switch ev.Type {
			case eventbus.EventNotice:
				logNotice(logger, ev.Notice)
			case eventbus.EventState:
				logx.WithSession(logger, ev.State.Session).Debug("session state", "from", ev.State.From, "to", ev.State.To)
			}
		}
	}
}

func logNotice(logger pslog.Logger, notice schema.Notice) {
	switch notice.Severity {
	case schema.SeverityError:
		logger.Error(notice.Message)
	case schema.SeverityWarning:
		logger.Warn(notice.Message)
	default:
		logger.Info(notice.Message)
	}
}
