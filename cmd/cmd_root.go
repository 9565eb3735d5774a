// Copyright 2026 The GridTrace Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"
)

type logWriter struct {
	writer io.Writer
}

func (w *logWriter) Write(bytes []byte) (int, error) {
	return fmt.Fprintf(w.writer, "%s %s", time.Now().Format("2006-01-02 15:04:05"), string(bytes))
}

func init() {
	log.SetFlags(0)
	log.SetOutput(&logWriter{writer: os.Stderr})
}

var rootCmd = &cobra.Command{
	Use:   "gridtrace",
	Short: "project coordinates to a planar grid and recover outbreak clusters",
	Long: `
gridtrace ingests tabular records with geographic coordinates, projects each
latitude/longitude to National Grid northing/easting over independent
partitions, persists the result as a partitioned parquet dataset, and runs
DBSCAN over the infected subset to recover spatial outbreak clusters.
`,
}

var Version = "dev"

func Execute(version string) {
	Version = version

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
