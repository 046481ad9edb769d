/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/friendsincode/cadence/internal/db"
	"github.com/friendsincode/cadence/internal/events"
	"github.com/friendsincode/cadence/internal/sequence"
	"github.com/friendsincode/cadence/internal/specstore"
)

var importCmd = &cobra.Command{
	Use:   "import <spec.yaml>...",
	Short: "Import sequence spec files into the database",
	Long:  "Validate and persist one or more YAML sequence spec files; invalid files are reported and skipped",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runImport,
}

var importDryRun bool

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Validate files without writing to the database")
}

func runImport(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	database, err := initDatabase()
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	if err := db.Migrate(database); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	bus := events.NewBus()
	store := specstore.NewStore(database, nil, bus, logger)

	ctx := context.Background()
	imported := 0
	failed := 0

	for _, path := range args {
		spec, err := loadSpecFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			failed++
			continue
		}
		if spec.Name == "" {
			spec.Name = filepath.Base(path)
		}

		if err := sequence.Validate(spec); err != nil {
			failed++
			var verr *sequence.ValidationError
			if errors.As(err, &verr) {
				fmt.Fprintf(os.Stderr, "%s: invalid\n", path)
				for _, problem := range verr.Problems {
					fmt.Fprintf(os.Stderr, "  - %s\n", problem)
				}
			} else {
				fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			}
			continue
		}

		if importDryRun {
			fmt.Printf("%s: ok (dry run, not imported)\n", path)
			continue
		}

		record, err := sequence.ToModel(spec)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			failed++
			continue
		}

		if err := store.Create(ctx, &record); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			failed++
			continue
		}

		bus.Publish(events.EventAuditSpecImport, events.Payload{
			"spec_id": record.ID,
			"source":  path,
		})
		fmt.Printf("%s: imported as %s\n", path, record.ID)
		imported++
	}

	logger.Info().Int("imported", imported).Int("failed", failed).Msg("spec import finished")
	if failed > 0 {
		return fmt.Errorf("%d of %d spec files failed to import", failed, len(args))
	}
	return nil
}
