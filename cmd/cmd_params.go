// Copyright 2026 The GridTrace Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/gridtrace/gridtrace/projection"
	"github.com/spf13/cobra"
)

var paramsCmd = &cobra.Command{
	Use:   "params",
	Short: "Print the canonical National Grid projection parameters",
	Long: `
Prints the OSGB36 / Airy 1830 National Grid definition in the JSON format
accepted by --projection, as a starting point for custom grids.
`,
	RunE: func(_ *cobra.Command, _ []string) error {
		output, err := json.MarshalIndent(projection.NationalGrid, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}

		fmt.Println(string(output))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(paramsCmd)
}
