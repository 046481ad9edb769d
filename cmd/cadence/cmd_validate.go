/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/friendsincode/cadence/internal/sequence"
)

var validateCmd = &cobra.Command{
	Use:   "validate <spec.yaml>...",
	Short: "Validate sequence spec files",
	Long:  "Parse and validate one or more YAML sequence spec files without touching the database",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func loadSpecFile(path string) (sequence.Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return sequence.Spec{}, fmt.Errorf("read %s: %w", path, err)
	}

	var spec sequence.Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return sequence.Spec{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return spec, nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	failed := 0
	for _, path := range args {
		spec, err := loadSpecFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			failed++
			continue
		}

		if err := sequence.Validate(spec); err != nil {
			failed++
			var verr *sequence.ValidationError
			if errors.As(err, &verr) {
				fmt.Fprintf(os.Stderr, "%s: invalid\n", path)
				for _, problem := range verr.Problems {
					fmt.Fprintf(os.Stderr, "  - %s\n", problem)
				}
				continue
			}
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			continue
		}

		fmt.Printf("%s: ok (%d slots, %d rule groups)\n", path, len(spec.Definitions), len(spec.RuleGroups))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d spec files failed validation", failed, len(args))
	}
	return nil
}
