package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"pkt.systems/livecoder/internal/appconfig"
	"pkt.systems/livecoder/internal/browser"
	"pkt.systems/livecoder/schema"
	"pkt.systems/pslog"
)

func newDoctorCmd() *cobra.Command {
	var probe bool
	var probeTimeout time.Duration
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the config, documentation index and browser setup",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := pslog.Ctx(cmd.Context())

			path := configPath(cmd)
			if strings.TrimSpace(path) == "" {
				defaultPath, err := appconfig.DefaultConfigPath()
				if err != nil {
					return err
				}
				path = defaultPath
			}
			if _, err := os.Stat(path); err != nil {
				logger.Warn("doctor config missing, using defaults", "config", path)
			}
			cfg, err := appconfig.Load(path)
			if err != nil {
				return err
			}
			logger.Info("doctor config ok", "config", path, "strudel", cfg.Strudel.URL, "headless", cfg.Strudel.Headless)

			idx, err := loadIndex(cfg, logger)
			if err != nil {
				return err
			}
			counts := map[schema.Dialect]int{}
			for _, fn := range idx.Functions() {
				counts[fn.Dialect]++
			}
			logger.Info("doctor docindex ok", "functions", idx.Len(), "strudel", counts[schema.DialectStrudel], "hydra", counts[schema.DialectHydra], "dir", cfg.Docs.Dir)

			if css := cfg.Strudel.CustomCSSFile; css != "" {
				if _, err := os.Stat(css); err != nil {
					logger.Warn("doctor custom css missing", "path", css)
				} else {
					logger.Info("doctor custom css ok", "path", css)
				}
			}
			if u, err := url.Parse(cfg.Strudel.URL); err == nil && u.Scheme != "https" && u.Hostname() != "localhost" && u.Hostname() != "127.0.0.1" {
				logger.Warn("doctor strudel url is not https; audio may be blocked", "url", cfg.Strudel.URL)
			}

			exe, err := browser.FindExecutable(cfg.Strudel.BrowserExecutablePath)
			if err != nil {
				return fmt.Errorf("doctor browser: %w", err)
			}
			logger.Info("doctor browser found", "path", exe)

			if probe {
				ctx, cancel := context.WithTimeout(cmd.Context(), probeTimeout)
				defer cancel()
				agent, err := browser.Probe(ctx, exe)
				if err != nil {
					return err
				}
				logger.Info("doctor browser probe ok", "user_agent", agent)
			}
			logger.Info("doctor ok")
			return nil
		},
	}
	cmd.Flags().BoolVar(&probe, "probe", false, "start a headless browser to verify it runs")
	cmd.Flags().DurationVar(&probeTimeout, "probe-timeout", 30*time.Second, "browser probe timeout")
	return cmd
}
