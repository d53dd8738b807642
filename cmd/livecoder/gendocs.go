package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"pkt.systems/livecoder/internal/docgen"
	"pkt.systems/livecoder/internal/docindex"
	"pkt.systems/pslog"
)

func newGendocsCmd() *cobra.Command {
	var basePath string
	var outPath string
	cmd := &cobra.Command{
		Use:   "gendocs GLSL_FUNCTIONS_JS",
		Short: "Generate Hydra completion data from hydra-synth's glsl-functions.js",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := pslog.Ctx(cmd.Context())
			source, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var base *docindex.File
			if basePath != "" {
				data, err := os.ReadFile(basePath)
				switch {
				case err == nil:
					var file docindex.File
					if err := json.Unmarshal(data, &file); err != nil {
						return fmt.Errorf("parse %s: %w", basePath, err)
					}
					base = &file
				case errors.Is(err, os.ErrNotExist):
					logger.Warn("gendocs base missing", "path", basePath)
				default:
					return err
				}
			}
			file, err := docgen.Generate(source, base, time.Now())
			if err != nil {
				return err
			}
			data, err := docgen.Marshal(file)
			if err != nil {
				return err
			}
			if outPath == "" || outPath == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(outPath, data, 0o644); err != nil {
				return err
			}
			logger.Info("gendocs wrote", "path", outPath, "functions", len(file.Functions))
			return nil
		},
	}
	cmd.Flags().StringVar(&basePath, "base", "", "existing hydra.json whose descriptions and examples are kept")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "output file (default stdout)")
	return cmd
}
