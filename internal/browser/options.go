package browser

import (
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"
)

const (
	// DefaultStrudelURL is the public Strudel REPL.
	DefaultStrudelURL = "https://strudel.cc/"
	// DefaultHydraSynthURL is the ES module the Hydra window imports.
	DefaultHydraSynthURL = "https://cdn.skypack.dev/hydra-synth@^1.3.29"
	// DefaultLaunchTimeout bounds the wait for the Strudel editor to appear.
	DefaultLaunchTimeout = 30 * time.Second
	// DefaultErrorPoll is how often the page is checked for evaluation errors.
	DefaultErrorPoll = 300 * time.Millisecond
)

// Options configures the Strudel browser.
type Options struct {
	URL           string
	Headless      bool
	DataDir       string
	ExecPath      string
	CustomCSSFile string
	UI            UIOptions
	SyncCursor    bool
	LaunchTimeout time.Duration
	ErrorPoll     time.Duration
}

// HydraOptions configures the Hydra window.
type HydraOptions struct {
	SynthURL      string
	ListenAddr    string
	Headless      bool
	DataDir       string
	ExecPath      string
	LaunchTimeout time.Duration
}

// DefaultDataDir returns the browser profile directory used when none is set.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(os.TempDir(), "livecoder")
	}
	return filepath.Join(home, ".cache", "livecoder")
}

func (o Options) withDefaults() Options {
	if o.URL == "" {
		o.URL = DefaultStrudelURL
	}
	if o.DataDir == "" {
		o.DataDir = DefaultDataDir()
	}
	if o.LaunchTimeout <= 0 {
		o.LaunchTimeout = DefaultLaunchTimeout
	}
	if o.ErrorPoll <= 0 {
		o.ErrorPoll = DefaultErrorPoll
	}
	return o
}

func (o HydraOptions) withDefaults() HydraOptions {
	if o.SynthURL == "" {
		o.SynthURL = DefaultHydraSynthURL
	}
	if o.DataDir == "" {
		o.DataDir = filepath.Join(DefaultDataDir(), "hydra")
	}
	if o.LaunchTimeout <= 0 {
		o.LaunchTimeout = DefaultLaunchTimeout
	}
	return o
}

// allocatorOptions opens url as a chromeless app window with autoplay allowed.
func allocatorOptions(url string, headless bool, dataDir, execPath string) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("app", url),
		chromedp.Flag("autoplay-policy", "no-user-gesture-required"),
		chromedp.NoSandbox,
		chromedp.Flag("disable-setuid-sandbox", true),
	)
	if !headless {
		opts = append(opts,
			chromedp.Flag("headless", false),
			chromedp.Flag("hide-scrollbars", false),
			chromedp.Flag("mute-audio", false),
			chromedp.Flag("enable-automation", false),
		)
	}
	if dataDir != "" {
		opts = append(opts, chromedp.UserDataDir(dataDir))
	}
	if execPath != "" {
		opts = append(opts, chromedp.ExecPath(execPath))
	}
	return opts
}
