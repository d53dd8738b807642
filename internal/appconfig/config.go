package appconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"pkt.systems/livecoder/internal/browser"
	"pkt.systems/livecoder/schema"
)

// Config is the top-level application configuration.
type Config struct {
	ConfigVersion int           `mapstructure:"config_version" yaml:"config_version"`
	Strudel       StrudelConfig `mapstructure:"strudel" yaml:"strudel"`
	Hydra         HydraConfig   `mapstructure:"hydra" yaml:"hydra"`
	Hints         HintsConfig   `mapstructure:"hints" yaml:"hints"`
	Sync          SyncConfig    `mapstructure:"sync" yaml:"sync"`
	Docs          DocsConfig    `mapstructure:"docs" yaml:"docs"`
}

// CurrentConfigVersion marks the supported config version.
const CurrentConfigVersion = 1

// StrudelConfig configures the Strudel browser runtime.
type StrudelConfig struct {
	URL                   string   `mapstructure:"url" yaml:"url"`
	Headless              bool     `mapstructure:"headless" yaml:"headless"`
	BrowserDataDir        string   `mapstructure:"browser_data_dir" yaml:"browser_data_dir"`
	BrowserExecutablePath string   `mapstructure:"browser_executable_path" yaml:"browser_executable_path"`
	CustomCSSFile         string   `mapstructure:"custom_css_file" yaml:"custom_css_file"`
	UpdateOnSave          bool     `mapstructure:"update_on_save" yaml:"update_on_save"`
	SyncCursor            bool     `mapstructure:"sync_cursor" yaml:"sync_cursor"`
	ReportEvalErrors      bool     `mapstructure:"report_eval_errors" yaml:"report_eval_errors"`
	LaunchTimeoutSeconds  int      `mapstructure:"launch_timeout_seconds" yaml:"launch_timeout_seconds"`
	ErrorPollMS           int      `mapstructure:"error_poll_ms" yaml:"error_poll_ms"`
	UI                    UIConfig `mapstructure:"ui" yaml:"ui"`
}

// UIConfig toggles parts of the Strudel page.
type UIConfig struct {
	MaximizeMenuPanel bool `mapstructure:"maximize_menu_panel" yaml:"maximize_menu_panel"`
	HideMenuPanel     bool `mapstructure:"hide_menu_panel" yaml:"hide_menu_panel"`
	HideTopBar        bool `mapstructure:"hide_top_bar" yaml:"hide_top_bar"`
	HideCodeEditor    bool `mapstructure:"hide_code_editor" yaml:"hide_code_editor"`
	HideErrorDisplay  bool `mapstructure:"hide_error_display" yaml:"hide_error_display"`
}

// HydraConfig configures the Hydra visuals window.
type HydraConfig struct {
	SynthURL    string `mapstructure:"synth_url" yaml:"synth_url"`
	ListenAddr  string `mapstructure:"listen_addr" yaml:"listen_addr"`
	InitDelayMS int    `mapstructure:"init_delay_ms" yaml:"init_delay_ms"`
	Headless    bool   `mapstructure:"headless" yaml:"headless"`
}

// HintsConfig controls editor features.
type HintsConfig struct {
	ShowParameterHints bool `mapstructure:"show_parameter_hints" yaml:"show_parameter_hints"`
}

// SyncConfig tunes echo suppression and cursor scheduling.
type SyncConfig struct {
	EchoGuardMS   int `mapstructure:"echo_guard_ms" yaml:"echo_guard_ms"`
	CursorDelayMS int `mapstructure:"cursor_delay_ms" yaml:"cursor_delay_ms"`
}

// DocsConfig points at an optional documentation override directory.
type DocsConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// DefaultConfig returns defaults derived from the user's home directory.
func DefaultConfig() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf("resolve home: %w", err)
	}
	sync := schema.DefaultSyncConfig()
	return Config{
		ConfigVersion: CurrentConfigVersion,
		Strudel: StrudelConfig{
			URL:                  browser.DefaultStrudelURL,
			BrowserDataDir:       filepath.Join(home, ".cache", "livecoder"),
			UpdateOnSave:         sync.UpdateOnSave,
			SyncCursor:           sync.SyncCursor,
			ReportEvalErrors:     sync.ReportEvalErrors,
			LaunchTimeoutSeconds: int(browser.DefaultLaunchTimeout / time.Second),
			ErrorPollMS:          int(browser.DefaultErrorPoll / time.Millisecond),
		},
		Hydra: HydraConfig{
			SynthURL:    browser.DefaultHydraSynthURL,
			ListenAddr:  "127.0.0.1:0",
			InitDelayMS: int(schema.DefaultHydraInitDelay / time.Millisecond),
		},
		Hints: HintsConfig{
			ShowParameterHints: true,
		},
		Sync: SyncConfig{
			EchoGuardMS:   int(schema.DefaultEchoGuard / time.Millisecond),
			CursorDelayMS: int(schema.DefaultCursorDelay / time.Millisecond),
		},
	}, nil
}

// DefaultConfigPath returns the default config path (~/.livecoder/config.yaml).
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home: %w", err)
	}
	return filepath.Join(home, ".livecoder", "config.yaml"), nil
}

// BrowserOptions converts the strudel section into browser options.
func (c Config) BrowserOptions() browser.Options {
	return browser.Options{
		URL:           c.Strudel.URL,
		Headless:      c.Strudel.Headless,
		DataDir:       c.Strudel.BrowserDataDir,
		ExecPath:      c.Strudel.BrowserExecutablePath,
		CustomCSSFile: c.Strudel.CustomCSSFile,
		UI: browser.UIOptions{
			MaximizeMenuPanel: c.Strudel.UI.MaximizeMenuPanel,
			HideMenuPanel:     c.Strudel.UI.HideMenuPanel,
			HideTopBar:        c.Strudel.UI.HideTopBar,
			HideCodeEditor:    c.Strudel.UI.HideCodeEditor,
			HideErrorDisplay:  c.Strudel.UI.HideErrorDisplay,
		},
		SyncCursor:    c.Strudel.SyncCursor,
		LaunchTimeout: time.Duration(c.Strudel.LaunchTimeoutSeconds) * time.Second,
		ErrorPoll:     time.Duration(c.Strudel.ErrorPollMS) * time.Millisecond,
	}
}

// HydraOptions converts the hydra section into browser options. The window
// shares the Strudel executable and keeps its own profile under the data dir.
func (c Config) HydraOptions() browser.HydraOptions {
	opts := browser.HydraOptions{
		SynthURL:      c.Hydra.SynthURL,
		ListenAddr:    c.Hydra.ListenAddr,
		Headless:      c.Hydra.Headless,
		ExecPath:      c.Strudel.BrowserExecutablePath,
		LaunchTimeout: time.Duration(c.Strudel.LaunchTimeoutSeconds) * time.Second,
	}
	if c.Strudel.BrowserDataDir != "" {
		opts.DataDir = filepath.Join(c.Strudel.BrowserDataDir, "hydra")
	}
	return opts
}

// SyncConfig converts the sync-related keys into controller settings.
func (c Config) SyncConfig() schema.SyncConfig {
	return schema.NormalizeSyncConfig(schema.SyncConfig{
		UpdateOnSave:     c.Strudel.UpdateOnSave,
		SyncCursor:       c.Strudel.SyncCursor,
		ReportEvalErrors: c.Strudel.ReportEvalErrors,
		EchoGuard:        time.Duration(c.Sync.EchoGuardMS) * time.Millisecond,
		CursorDelay:      time.Duration(c.Sync.CursorDelayMS) * time.Millisecond,
		HydraInitDelay:   time.Duration(c.Hydra.InitDelayMS) * time.Millisecond,
	})
}
