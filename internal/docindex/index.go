// Package docindex holds the read-only documentation index for the Strudel
// and Hydra function libraries.
package docindex

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"pkt.systems/livecoder/schema"
)

// Param documents one function parameter.
type Param struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Default     any    `json:"default,omitempty"`
}

// Function documents one DSL function.
type Function struct {
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	Type         string         `json:"type,omitempty"`
	Params       []Param        `json:"params"`
	Examples     []string       `json:"examples,omitempty"`
	Synonyms     []string       `json:"synonyms,omitempty"`
	OriginalName string         `json:"originalName,omitempty"`
	Dialect      schema.Dialect `json:"-"`
}

// File is the on-disk format of a completion data file.
type File struct {
	Functions     []Function `json:"functions"`
	LastGenerated string     `json:"lastGenerated"`
}

// Index maps function names to documentation. It is immutable once built.
type Index struct {
	byName    map[string]Function
	functions []Function
}

// Build constructs an index. Later sets win on name collisions, so hydra
// entries shadow strudel entries of the same name in lookups while both
// remain listed for completion.
func Build(sets ...[]Function) *Index {
	idx := &Index{byName: make(map[string]Function)}
	for _, set := range sets {
		for _, fn := range set {
			if fn.Name == "" {
				continue
			}
			idx.functions = append(idx.functions, fn)
			idx.byName[fn.Name] = fn
		}
	}
	return idx
}

// Parse decodes a completion data file and tags every function with dialect.
func Parse(data []byte, dialect schema.Dialect) ([]Function, error) {
	var file File
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse %s completions: %w", dialect, err)
	}
	out := make([]Function, 0, len(file.Functions))
	for _, fn := range file.Functions {
		fn.Dialect = dialect
		out = append(out, fn)
	}
	return out, nil
}

// Default builds the index from the embedded completion data.
func Default() (*Index, error) {
	return Load("")
}

// Load builds the index from dir, falling back to the embedded data for any
// file missing from dir. An empty dir uses the embedded data only.
func Load(dir string) (*Index, error) {
	strudel, err := loadSet(dir, strudelFile, schema.DialectStrudel)
	if err != nil {
		return nil, err
	}
	hydra, err := loadSet(dir, hydraFile, schema.DialectHydra)
	if err != nil {
		return nil, err
	}
	return Build(strudel, hydra), nil
}

func loadSet(dir, name string, dialect schema.Dialect) ([]Function, error) {
	if dir != "" {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err == nil {
			return Parse(data, dialect)
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}
	data, err := readEmbedded(name)
	if err != nil {
		return nil, err
	}
	return Parse(data, dialect)
}

// Lookup returns the documentation for name.
func (i *Index) Lookup(name string) (Function, bool) {
	if i == nil {
		return Function{}, false
	}
	fn, ok := i.byName[name]
	return fn, ok
}

// Functions returns every indexed function in load order.
func (i *Index) Functions() []Function {
	if i == nil {
		return nil
	}
	return slices.Clone(i.functions)
}

// Len reports the number of indexed functions.
func (i *Index) Len() int {
	if i == nil {
		return 0
	}
	return len(i.functions)
}
