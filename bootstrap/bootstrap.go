// Package bootstrap writes a starter livecoder workspace: the default config,
// a custom stylesheet and example sketches.
package bootstrap

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"pkt.systems/livecoder/internal/appconfig"
	"pkt.systems/livecoder/internal/version"
)

// Options controls optional bootstrap behaviors.
type Options struct {
	// Overrides are applied to the generated config in order.
	Overrides []ConfigOverride
	// SkipExamples omits the example sketches.
	SkipExamples bool
}

// ConfigOverride sets a dotted config path (e.g. strudel.headless) to Value.
type ConfigOverride struct {
	Path  string
	Value any
}

// Paths reports where bootstrap wrote its outputs.
type Paths struct {
	ConfigPath string
	CSSPath    string
	Examples   []string
}

const (
	configName = "config.yaml"
	cssName    = "custom.css"
)

var exampleFiles = []string{"beat.str", "visuals.hydra"}

// ParseOverride parses "path=value". The value is decoded as YAML so booleans
// and numbers keep their types.
func ParseOverride(raw string) (ConfigOverride, error) {
	path, value, ok := strings.Cut(raw, "=")
	path = strings.TrimSpace(path)
	if !ok || path == "" {
		return ConfigOverride{}, fmt.Errorf("invalid override %q: expected path=value", raw)
	}
	var decoded any
	if err := yaml.Unmarshal([]byte(value), &decoded); err != nil {
		return ConfigOverride{}, fmt.Errorf("invalid override %q: %w", raw, err)
	}
	if decoded == nil {
		decoded = ""
	}
	return ConfigOverride{Path: path, Value: decoded}, nil
}

// ConfigYAML renders the default config with overrides applied. The custom
// stylesheet path is set to cssPath when it is not empty.
func ConfigYAML(cssPath string, overrides []ConfigOverride) ([]byte, error) {
	cfg, err := appconfig.DefaultConfig()
	if err != nil {
		return nil, err
	}
	if cssPath != "" {
		cfg.Strudel.CustomCSSFile = cssPath
	}
	cfg, err = applyOverrides(cfg, overrides)
	if err != nil {
		return nil, err
	}
	body, err := appconfig.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	fmt.Fprintf(&out, "# livecoder configuration, generated by %s %s\n", version.Module(), version.Current())
	out.Write(body)
	return out.Bytes(), nil
}

// WriteConfig writes config.yaml, custom.css and the example sketches into
// dir. Existing files are only replaced when overwrite is set.
func WriteConfig(dir string, overwrite bool, opts Options) (Paths, error) {
	if strings.TrimSpace(dir) == "" {
		return Paths{}, fmt.Errorf("output directory is required")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return Paths{}, err
	}
	paths := Paths{
		ConfigPath: filepath.Join(abs, configName),
		CSSPath:    filepath.Join(abs, cssName),
	}
	if !opts.SkipExamples {
		for _, name := range exampleFiles {
			paths.Examples = append(paths.Examples, filepath.Join(abs, "examples", name))
		}
	}

	if !overwrite {
		for _, path := range append([]string{paths.ConfigPath, paths.CSSPath}, paths.Examples...) {
			if _, err := os.Stat(path); err == nil {
				return Paths{}, fmt.Errorf("file already exists: %s", path)
			}
		}
	}

	configYAML, err := ConfigYAML(paths.CSSPath, opts.Overrides)
	if err != nil {
		return Paths{}, err
	}
	// Validate the rendered config before anything touches the disk.
	if _, err := loadBytes(configYAML); err != nil {
		return Paths{}, fmt.Errorf("generated config is invalid: %w", err)
	}

	if err := os.MkdirAll(abs, 0o755); err != nil {
		return Paths{}, err
	}
	if err := os.WriteFile(paths.ConfigPath, configYAML, 0o600); err != nil {
		return Paths{}, err
	}
	if err := writeEmbedded(cssName, paths.CSSPath); err != nil {
		return Paths{}, err
	}
	for i, path := range paths.Examples {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return Paths{}, err
		}
		if err := writeEmbedded(exampleFiles[i], path); err != nil {
			return Paths{}, err
		}
	}
	return paths, nil
}

func writeEmbedded(name, dest string) error {
	data, err := readEmbeddedFile("files/" + name)
	if err != nil {
		return err
	}
	return os.WriteFile(dest, data, 0o644)
}

func loadBytes(data []byte) (appconfig.Config, error) {
	tmp, err := os.CreateTemp("", "livecoder-config-*.yaml")
	if err != nil {
		return appconfig.Config{}, err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return appconfig.Config{}, err
	}
	if err := tmp.Close(); err != nil {
		return appconfig.Config{}, err
	}
	return appconfig.Load(tmp.Name())
}

func applyOverrides(cfg appconfig.Config, overrides []ConfigOverride) (appconfig.Config, error) {
	if len(overrides) == 0 {
		return cfg, nil
	}
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return cfg, err
	}
	var data map[string]any
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return cfg, err
	}
	for _, override := range overrides {
		if err := setOverrideValue(data, override.Path, override.Value); err != nil {
			return cfg, err
		}
	}
	updated, err := yaml.Marshal(data)
	if err != nil {
		return cfg, err
	}
	var next appconfig.Config
	dec := yaml.NewDecoder(bytes.NewReader(updated))
	dec.KnownFields(true)
	if err := dec.Decode(&next); err != nil {
		return cfg, fmt.Errorf("apply overrides: %w", err)
	}
	return next, nil
}

func setOverrideValue(root map[string]any, path string, value any) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("config override path is required")
	}
	parts := strings.Split(path, ".")
	node := root
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			return fmt.Errorf("invalid config override path %q", path)
		}
		if i == len(parts)-1 {
			node[part] = value
			return nil
		}
		next, ok := node[part]
		if !ok || next == nil {
			child := map[string]any{}
			node[part] = child
			node = child
			continue
		}
		child, ok := next.(map[string]any)
		if !ok {
			return fmt.Errorf("config override %q: %q is not a map", path, part)
		}
		node = child
	}
	return nil
}
