package main

import (
	"context"
	"errors"
	"os"

	"pkt.systems/livecoder/core"
	"pkt.systems/livecoder/internal/appconfig"
	"pkt.systems/livecoder/internal/browser"
	"pkt.systems/livecoder/internal/docindex"
	"pkt.systems/livecoder/internal/eventbus"
	"pkt.systems/pslog"
)

// newController wires the browser runtimes and the event bus around host.
func newController(cfg appconfig.Config, host core.Host, bus *eventbus.Bus, logger pslog.Logger) (*core.Controller, error) {
	return core.NewController(cfg.SyncConfig(), core.ControllerDeps{
		Host:      host,
		Launcher:  browser.NewStrudel(cfg.BrowserOptions()),
		Visuals:   browser.NewHydra(cfg.HydraOptions()),
		EventSink: bus,
		Logger:    logger,
	})
}

func loadIndex(cfg appconfig.Config, logger pslog.Logger) (*docindex.Index, error) {
	idx, err := docindex.Load(cfg.Docs.Dir)
	if err != nil {
		return nil, err
	}
	logger.Debug("docindex loaded", "functions", idx.Len(), "dir", cfg.Docs.Dir)
	return idx, nil
}

// watchConfig applies config file edits until ctx ends. A missing config file
// is not watched.
func watchConfig(ctx context.Context, path string, logger pslog.Logger, apply func(appconfig.Config)) {
	if path == "" {
		defaultPath, err := appconfig.DefaultConfigPath()
		if err != nil {
			return
		}
		path = defaultPath
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		logger.Debug("config watch skipped", "path", path, "reason", "missing")
		return
	}
	err := appconfig.Watch(ctx, path, func(cfg appconfig.Config, err error) {
		if err != nil {
			logger.Warn("config reload rejected", "path", path, "err", err)
			return
		}
		logger.Info("config reloaded", "path", path)
		apply(cfg)
	})
	if err != nil {
		logger.Warn("config watch failed", "path", path, "err", err)
	}
}
