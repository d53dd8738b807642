package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/chromedp/chromedp"
)

// ErrNoExecutable means no Chrome or Chromium binary was found.
var ErrNoExecutable = errors.New("no chrome or chromium executable found")

var executableNames = []string{
	"google-chrome",
	"google-chrome-stable",
	"chromium",
	"chromium-browser",
	"chrome",
	"headless-shell",
}

// FindExecutable returns execPath when set, otherwise the first browser
// binary found on PATH.
func FindExecutable(execPath string) (string, error) {
	if execPath != "" {
		if _, err := os.Stat(execPath); err != nil {
			return "", fmt.Errorf("browser executable: %w", err)
		}
		return execPath, nil
	}
	for _, name := range executableNames {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", ErrNoExecutable
}

// Probe starts a throwaway headless browser and returns its user agent.
func Probe(ctx context.Context, execPath string) (string, error) {
	dataDir, err := os.MkdirTemp("", "livecoder-probe-*")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(dataDir)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocatorOptions("about:blank", true, dataDir, execPath)...)
	defer allocCancel()
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)
	defer tabCancel()

	var agent string
	if err := chromedp.Run(tabCtx, chromedp.Evaluate("navigator.userAgent", &agent)); err != nil {
		return "", fmt.Errorf("browser probe: %w", err)
	}
	return agent, nil
}
