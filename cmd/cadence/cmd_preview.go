/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/friendsincode/cadence/internal/catalog"
	"github.com/friendsincode/cadence/internal/logging"
	"github.com/friendsincode/cadence/internal/models"
	"github.com/friendsincode/cadence/internal/sequence"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Generate a sequence from a spec file without persisting anything",
	Long:  "Run the generation engine against a YAML spec file, using either an inline track file or the live catalog, and print the result as JSON",
	RunE:  runPreview,
}

var (
	previewSpecPath   string
	previewTracksPath string
	previewLength     int
)

func init() {
	rootCmd.AddCommand(previewCmd)

	previewCmd.Flags().StringVar(&previewSpecPath, "spec", "", "Path to YAML spec file (required)")
	previewCmd.Flags().StringVar(&previewTracksPath, "tracks", "", "Path to YAML track file; omit to use the live catalog")
	previewCmd.Flags().IntVar(&previewLength, "length", 0, "Sequence length; defaults to one full slot cycle")
	previewCmd.MarkFlagRequired("spec")
}

func runPreview(cmd *cobra.Command, args []string) error {
	spec, err := loadSpecFile(previewSpecPath)
	if err != nil {
		return err
	}

	var tracks []models.Track
	if previewTracksPath != "" {
		logger = logging.Setup("development")
		data, err := os.ReadFile(previewTracksPath)
		if err != nil {
			return fmt.Errorf("read %s: %w", previewTracksPath, err)
		}
		if err := yaml.Unmarshal(data, &tracks); err != nil {
			return fmt.Errorf("parse %s: %w", previewTracksPath, err)
		}
	} else {
		if err := loadConfig(); err != nil {
			return err
		}
		database, err := initDatabase()
		if err != nil {
			return fmt.Errorf("initialize database: %w", err)
		}
		// Channel metadata on the spec never narrows the pool; filtering is
		// the rule groups' job.
		store := catalog.NewStore(database, nil, logger)
		tracks, err = store.ListActive(context.Background(), "")
		if err != nil {
			return err
		}
	}

	length := previewLength
	if length <= 0 {
		length = len(spec.Definitions)
	}

	engine := sequence.New(logger)
	result, err := engine.Generate(spec, tracks, length)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}
