package browser

import (
	_ "embed"
	"html/template"
)

//go:embed assets/strudel.js
var strudelScript string

//go:embed assets/hydra.html
var hydraPageSource string

var hydraPage = template.Must(template.New("hydra").Parse(hydraPageSource))
