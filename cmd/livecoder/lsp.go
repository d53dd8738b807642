package main

import (
	"context"

	"github.com/spf13/cobra"

	"pkt.systems/livecoder/internal/appconfig"
	"pkt.systems/livecoder/internal/eventbus"
	"pkt.systems/livecoder/internal/version"
	"pkt.systems/livecoder/lsp"
	"pkt.systems/pslog"
)

func newLSPCmd() *cobra.Command {
	var verbosity int
	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Serve completion, hover, inlay hints and Strudel sync over LSP on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := pslog.Ctx(cmd.Context())
			path := configPath(cmd)
			cfg, err := appconfig.Load(path)
			if err != nil {
				return err
			}
			idx, err := loadIndex(cfg, logger)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			server := lsp.New(lsp.Options{
				Name:               "livecoder",
				Version:            version.Current(),
				Index:              idx,
				ShowParameterHints: cfg.Hints.ShowParameterHints,
				Verbosity:          verbosity,
				Logger:             logger.With("component", "lsp"),
			})
			bus := eventbus.New(logger)
			ctrl, err := newController(cfg, server, bus, logger.With("component", "controller"))
			if err != nil {
				return err
			}
			server.Attach(ctrl)

			go func() { _ = ctrl.Run(ctx) }()
			go server.ForwardNotices(ctx, bus)
			watchConfig(ctx, path, logger, func(next appconfig.Config) {
				ctrl.SetConfig(next.SyncConfig())
				server.SetParameterHints(next.Hints.ShowParameterHints)
			})

			logger.Info("lsp serving", "transport", "stdio", "functions", idx.Len())
			err = server.RunStdio()
			ctrl.Dispose()
			<-ctrl.Done()
			logger.Info("lsp stopped")
			return err
		},
	}
	cmd.Flags().IntVar(&verbosity, "transport-verbosity", 0, "glsp transport log verbosity (written to stderr)")
	return cmd
}
