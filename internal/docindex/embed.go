package docindex

import (
	"embed"
	"fmt"
	"io/fs"
)

const (
	strudelFile = "strudel.json"
	hydraFile   = "hydra.json"
)

//go:embed data/*.json
var embeddedData embed.FS

func readEmbedded(name string) ([]byte, error) {
	data, err := fs.ReadFile(embeddedData, "data/"+name)
	if err != nil {
		return nil, fmt.Errorf("read embedded %s: %w", name, err)
	}
	return data, nil
}
