package browser

import (
	"fmt"
	"os"
)

const baseStyles = `
.cm-line:not(.cm-activeLine):has(> span) {
  background: var(--lineBackground) !important;
  width: fit-content;
}
.cm-line.cm-activeLine {
  background: linear-gradient(var(--lineHighlight), var(--lineHighlight)),
              var(--lineBackground) !important;
}
.cm-line > *,
.cm-line span[style*="background-color"] {
  background-color: transparent !important;
  filter: none !important;
}
`

const maximizeMenuStyles = `
nav:not(:has(> button:first-child)) {
  position: absolute;
  z-index: 99;
  height: 100%;
  width: 100vw;
  max-width: 100vw;
  background: linear-gradient(var(--lineHighlight), var(--lineHighlight)),
              var(--background);
}
`

// UIOptions toggles parts of the Strudel page.
type UIOptions struct {
	MaximizeMenuPanel bool
	HideMenuPanel     bool
	HideTopBar        bool
	HideCodeEditor    bool
	HideErrorDisplay  bool
}

// stylesheets returns the style blocks injected into the Strudel page, in
// order. A missing custom CSS file is skipped; an unreadable one is an error.
func stylesheets(ui UIOptions, customCSSFile string) ([]string, error) {
	sheets := []string{baseStyles}
	if ui.HideTopBar {
		sheets = append(sheets, "header { display: none !important; }")
	}
	if ui.HideMenuPanel {
		sheets = append(sheets, "nav { display: none !important; }")
	}
	if ui.HideCodeEditor {
		sheets = append(sheets, ".cm-editor { display: none !important; }")
	}
	if ui.HideErrorDisplay {
		sheets = append(sheets, "header + div + div { display: none !important; }")
	}
	if ui.MaximizeMenuPanel {
		sheets = append(sheets, maximizeMenuStyles)
	}
	if customCSSFile == "" {
		return sheets, nil
	}
	data, err := os.ReadFile(customCSSFile)
	if os.IsNotExist(err) {
		return sheets, nil
	}
	if err != nil {
		return sheets, fmt.Errorf("read custom css: %w", err)
	}
	return append(sheets, string(data)), nil
}
