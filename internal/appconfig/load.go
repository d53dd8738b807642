package appconfig

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Load reads configuration from the provided path. If path is empty, uses DefaultConfigPath.
func Load(path string) (Config, error) {
	path, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}
	v, err := newViper(path)
	if err != nil {
		return Config{}, err
	}
	return decode(v)
}

func resolvePath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	return DefaultConfigPath()
}

func newViper(path string) (*viper.Viper, error) {
	cfg, err := DefaultConfig()
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault("config_version", cfg.ConfigVersion)
	v.SetDefault("strudel.url", cfg.Strudel.URL)
	v.SetDefault("strudel.headless", cfg.Strudel.Headless)
	v.SetDefault("strudel.browser_data_dir", cfg.Strudel.BrowserDataDir)
	v.SetDefault("strudel.browser_executable_path", cfg.Strudel.BrowserExecutablePath)
	v.SetDefault("strudel.custom_css_file", cfg.Strudel.CustomCSSFile)
	v.SetDefault("strudel.update_on_save", cfg.Strudel.UpdateOnSave)
	v.SetDefault("strudel.sync_cursor", cfg.Strudel.SyncCursor)
	v.SetDefault("strudel.report_eval_errors", cfg.Strudel.ReportEvalErrors)
	v.SetDefault("strudel.launch_timeout_seconds", cfg.Strudel.LaunchTimeoutSeconds)
	v.SetDefault("strudel.error_poll_ms", cfg.Strudel.ErrorPollMS)
	v.SetDefault("strudel.ui.maximize_menu_panel", cfg.Strudel.UI.MaximizeMenuPanel)
	v.SetDefault("strudel.ui.hide_menu_panel", cfg.Strudel.UI.HideMenuPanel)
	v.SetDefault("strudel.ui.hide_top_bar", cfg.Strudel.UI.HideTopBar)
	v.SetDefault("strudel.ui.hide_code_editor", cfg.Strudel.UI.HideCodeEditor)
	v.SetDefault("strudel.ui.hide_error_display", cfg.Strudel.UI.HideErrorDisplay)
	v.SetDefault("hydra.synth_url", cfg.Hydra.SynthURL)
	v.SetDefault("hydra.listen_addr", cfg.Hydra.ListenAddr)
	v.SetDefault("hydra.init_delay_ms", cfg.Hydra.InitDelayMS)
	v.SetDefault("hydra.headless", cfg.Hydra.Headless)
	v.SetDefault("hints.show_parameter_hints", cfg.Hints.ShowParameterHints)
	v.SetDefault("sync.echo_guard_ms", cfg.Sync.EchoGuardMS)
	v.SetDefault("sync.cursor_delay_ms", cfg.Sync.CursorDelayMS)
	v.SetDefault("docs.dir", cfg.Docs.Dir)
	return v, nil
}

func decode(v *viper.Viper) (Config, error) {
	configLoaded := false
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
	} else {
		configLoaded = true
	}

	if configLoaded {
		if !v.InConfig("config_version") {
			return Config{}, fmt.Errorf("config_version is required; expected %d", CurrentConfigVersion)
		}
		if v.GetInt("config_version") != CurrentConfigVersion {
			return Config{}, fmt.Errorf("unsupported config_version %d; expected %d", v.GetInt("config_version"), CurrentConfigVersion)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	expandConfigEnv(&cfg)
	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Watch reloads the config whenever the file changes and hands the result to
// fn. Invalid edits are delivered as errors so callers can keep the previous
// config. Callbacks stop once ctx is done.
func Watch(ctx context.Context, path string, fn func(Config, error)) error {
	path, err := resolvePath(path)
	if err != nil {
		return err
	}
	v, err := newViper(path)
	if err != nil {
		return err
	}
	v.OnConfigChange(func(ev fsnotify.Event) {
		if ctx.Err() != nil {
			return
		}
		if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
			return
		}
		fn(Load(path))
	})
	v.WatchConfig()
	return nil
}

func validate(cfg Config) error {
	if err := validateURL("strudel.url", cfg.Strudel.URL); err != nil {
		return err
	}
	if err := validateURL("hydra.synth_url", cfg.Hydra.SynthURL); err != nil {
		return err
	}
	if addr := strings.TrimSpace(cfg.Hydra.ListenAddr); addr != "" {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			return fmt.Errorf("hydra.listen_addr must be host:port: %w", err)
		}
	}
	if cfg.Strudel.LaunchTimeoutSeconds < 0 {
		return fmt.Errorf("strudel.launch_timeout_seconds must not be negative")
	}
	if cfg.Strudel.ErrorPollMS < 0 {
		return fmt.Errorf("strudel.error_poll_ms must not be negative")
	}
	if cfg.Hydra.InitDelayMS < 0 {
		return fmt.Errorf("hydra.init_delay_ms must not be negative")
	}
	if cfg.Sync.EchoGuardMS < 0 || cfg.Sync.CursorDelayMS < 0 {
		return fmt.Errorf("sync delays must not be negative")
	}
	return nil
}

func validateURL(key, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("%s is required", key)
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("%s must include scheme and host (e.g. https://strudel.cc/)", key)
	}
	return nil
}

func expandConfigEnv(cfg *Config) {
	if cfg == nil {
		return
	}
	cfg.Strudel.BrowserDataDir = expandEnv(cfg.Strudel.BrowserDataDir)
	cfg.Strudel.BrowserExecutablePath = expandEnv(cfg.Strudel.BrowserExecutablePath)
	cfg.Strudel.CustomCSSFile = expandEnv(cfg.Strudel.CustomCSSFile)
	cfg.Docs.Dir = expandEnv(cfg.Docs.Dir)
}

func expandEnv(value string) string {
	if value == "" {
		return value
	}
	return os.Expand(value, func(key string) string {
		if key == "" {
			return ""
		}
		if val, ok := lookupEnv(key); ok {
			return val
		}
		return "$" + key
	})
}

func lookupEnv(key string) (string, bool) {
	if val, ok := os.LookupEnv(key); ok {
		return val, true
	}
	switch key {
	case "UID":
		return fmt.Sprintf("%d", os.Getuid()), true
	case "GID":
		return fmt.Sprintf("%d", os.Getgid()), true
	}
	return "", false
}

// Marshal renders cfg as YAML.
func Marshal(cfg Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}

// WriteDefault writes the default config to the target path.
func WriteDefault(path string, overwrite bool) (string, error) {
	path, err := resolvePath(path)
	if err != nil {
		return "", err
	}

	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("config already exists at %s", path)
		}
	}

	cfg, err := DefaultConfig()
	if err != nil {
		return "", err
	}

	data, err := Marshal(cfg)
	if err != nil {
		return "", err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}
