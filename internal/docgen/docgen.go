// Package docgen regenerates the Hydra completion data from hydra-synth's
// glsl-functions.js.
package docgen

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dop251/goja"

	"pkt.systems/livecoder/internal/docindex"
)

// ErrNoExport means the source has no default export to evaluate.
var ErrNoExport = errors.New("glsl functions: no default export")

type glslInput struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Default any    `json:"default"`
}

type glslFunction struct {
	Name        string      `json:"name"`
	Type        string      `json:"type"`
	Description string      `json:"description"`
	Inputs      []glslInput `json:"inputs"`
}

// Extras are the Hydra globals that glsl-functions.js does not describe.
var Extras = []docindex.Function{
	{
		Name:        "out",
		Description: "Output to buffer (o0, o1, o2, o3)",
		Type:        "output",
		Params:      []docindex.Param{{Name: "buffer", Type: "output", Description: "Output buffer (o0, o1, o2, o3)", Default: "o0"}},
		Examples:    []string{".out(o0)", ".out()"},
	},
	{
		Name:        "render",
		Description: "Render all outputs",
		Type:        "utility",
		Params:      []docindex.Param{},
		Examples:    []string{"render()"},
	},
	{
		Name:        "hush",
		Description: "Clear all outputs",
		Type:        "utility",
		Params:      []docindex.Param{},
		Examples:    []string{"hush()"},
	},
	{
		Name:        "setResolution",
		Description: "Set canvas resolution",
		Type:        "utility",
		Params: []docindex.Param{
			{Name: "width", Type: "float", Description: "Width in pixels", Default: 1920},
			{Name: "height", Type: "float", Description: "Height in pixels", Default: 1080},
		},
		Examples: []string{"setResolution(1920, 1080)"},
	},
	{
		Name:        "time",
		Description: "Global time variable",
		Type:        "variable",
		Params:      []docindex.Param{},
		Examples:    []string{"osc(10, 0.1, () => time * 0.1)"},
	},
}

// Extract evaluates the default export of glsl-functions.js and returns the
// function definitions it describes.
func Extract(source []byte) ([]docindex.Function, error) {
	text := string(source)
	idx := strings.Index(text, "export default")
	if idx < 0 {
		return nil, ErrNoExport
	}
	body := strings.TrimSpace(text[idx+len("export default"):])
	body = strings.TrimRight(body, "; \t\r\n")
	script := "(function () {\n" +
		"const exported = (" + body + "\n);\n" +
		"const list = typeof exported === 'function' ? exported() : exported;\n" +
		"return JSON.stringify(list);\n" +
		"})()"

	vm := goja.New()
	value, err := vm.RunString(script)
	if err != nil {
		return nil, fmt.Errorf("glsl functions: evaluate: %w", err)
	}
	var raw []glslFunction
	if err := json.Unmarshal([]byte(value.String()), &raw); err != nil {
		return nil, fmt.Errorf("glsl functions: decode: %w", err)
	}

	out := make([]docindex.Function, 0, len(raw))
	for _, fn := range raw {
		if fn.Name == "" {
			continue
		}
		kind := fn.Type
		if kind == "" {
			kind = "unknown"
		}
		description := "Hydra " + kind + " function"
		if fn.Description != "" {
			description += ": " + fn.Description
		}
		params := make([]docindex.Param, 0, len(fn.Inputs))
		for _, in := range fn.Inputs {
			typ := in.Type
			if typ == "" {
				typ = "float"
			}
			params = append(params, docindex.Param{
				Name:        in.Name,
				Type:        typ,
				Description: in.Name + " parameter",
				Default:     in.Default,
			})
		}
		out = append(out, docindex.Function{
			Name:        fn.Name,
			Description: description,
			Type:        kind,
			Params:      params,
		})
	}
	return out, nil
}

// Generate builds a completion data file from glsl-functions.js plus Extras.
// Entries in base with the same name keep their hand-written description and
// examples. Functions are sorted by name.
func Generate(source []byte, base *docindex.File, now time.Time) (docindex.File, error) {
	fns, err := Extract(source)
	if err != nil {
		return docindex.File{}, err
	}
	fns = append(fns, Extras...)

	curated := map[string]docindex.Function{}
	if base != nil {
		for _, fn := range base.Functions {
			curated[fn.Name] = fn
		}
	}
	for i, fn := range fns {
		prev, ok := curated[fn.Name]
		if !ok {
			continue
		}
		if prev.Description != "" {
			fns[i].Description = prev.Description
		}
		if len(prev.Examples) > 0 {
			fns[i].Examples = prev.Examples
		}
		fns[i].Synonyms = prev.Synonyms
	}

	slices.SortStableFunc(fns, func(a, b docindex.Function) int {
		return strings.Compare(a.Name, b.Name)
	})
	return docindex.File{
		Functions:     fns,
		LastGenerated: now.UTC().Format(time.RFC3339),
	}, nil
}

// Marshal renders a completion data file the way the embedded data is stored.
func Marshal(file docindex.File) ([]byte, error) {
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
