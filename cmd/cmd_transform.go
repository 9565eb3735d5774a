// Copyright 2026 The GridTrace Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/gridtrace/gridtrace/dataset"
	"github.com/gridtrace/gridtrace/projection"
	"github.com/gridtrace/gridtrace/store"
	"github.com/spf13/cobra"
)

var transformOptions struct {
	input          string
	output         string
	columns        string
	latColumn      string
	lngColumn      string
	radians        bool
	partitionRows  int
	maxProcs       int
	projectionPath string
	progress       bool
}

var transformCmd = &cobra.Command{
	Use:   "transform",
	Short: "Project a CSV of coordinates into a partitioned parquet dataset",
	RunE: func(_ *cobra.Command, _ []string) error {
		params := projection.NationalGrid

		if transformOptions.projectionPath != "" {
			var err error

			params, err = projection.LoadParameters(transformOptions.projectionPath)
			if err != nil {
				return err
			}
		}

		schema, err := dataset.ParseSchema(transformOptions.columns)
		if err != nil {
			return fmt.Errorf("parsing --columns: %w", err)
		}

		fn, outSchema, err := projection.Transform(
			params,
			schema,
			transformOptions.latColumn,
			transformOptions.lngColumn,
			!transformOptions.radians,
		)
		if err != nil {
			return err
		}

		db, err := sql.Open("duckdb", "")
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer db.Close()

		src, err := store.OpenCSV(db, transformOptions.input, schema, transformOptions.partitionRows)
		if err != nil {
			return err
		}

		log.Printf(
			"Loaded %s - %d rows across %d partitions",
			transformOptions.input, src.NumRows(), src.NumPartitions(),
		)

		ds, err := dataset.MapPartitions(src, fn, &dataset.MapOptions{
			Schema:   outSchema,
			MaxProcs: transformOptions.maxProcs,
			Progress: transformOptions.progress,
			Label:    "Projecting",
		})
		if err != nil {
			return err
		}

		if err := store.NewParquetStore(db).Write(ds, transformOptions.output); err != nil {
			return err
		}

		log.Printf(
			"Projection phase complete - %d rows written to %s",
			ds.NumRows(), transformOptions.output,
		)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(transformCmd)
	transformCmd.Flags().StringVar(
		&transformOptions.input,
		"input",
		"",
		"Path of the CSV file to ingest",
	)
	transformCmd.Flags().StringVar(
		&transformOptions.output,
		"output",
		"",
		"Directory for the partitioned parquet dataset",
	)
	transformCmd.Flags().StringVar(
		&transformOptions.columns,
		"columns",
		"id:bigint,lat:double,long:double,infected:bigint",
		"Declared CSV columns as name:type pairs (double, bigint, varchar, boolean)",
	)
	transformCmd.Flags().StringVar(
		&transformOptions.latColumn,
		"lat-column",
		"lat",
		"Name of the latitude column",
	)
	transformCmd.Flags().StringVar(
		&transformOptions.lngColumn,
		"lng-column",
		"long",
		"Name of the longitude column",
	)
	transformCmd.Flags().BoolVar(
		&transformOptions.radians,
		"radians",
		false,
		"Input coordinates are radians instead of degrees",
	)
	transformCmd.Flags().IntVar(
		&transformOptions.partitionRows,
		"partition-rows",
		100000,
		"Rows per partition when chunking the input",
	)
	transformCmd.Flags().IntVar(
		&transformOptions.maxProcs,
		"max-procs",
		0,
		"Max number of partitions to transform concurrently. Defaults to the number of CPUs",
	)
	transformCmd.Flags().StringVar(
		&transformOptions.projectionPath,
		"projection",
		"",
		"JSON file overriding the National Grid projection parameters",
	)
	transformCmd.Flags().BoolVar(
		&transformOptions.progress,
		"progress",
		true,
		"Render a progress bar when stderr is a terminal",
	)

	_ = transformCmd.MarkFlagRequired("input")
	_ = transformCmd.MarkFlagRequired("output")
}
