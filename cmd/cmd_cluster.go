// Copyright 2026 The GridTrace Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/gridtrace/gridtrace/cluster"
	"github.com/gridtrace/gridtrace/spatial"
	"github.com/gridtrace/gridtrace/store"
	"github.com/spf13/cobra"
)

var clusterOptions struct {
	data           string
	eps            float64
	minPoints      int
	filterColumn   string
	filterValue    int64
	latColumn      string
	lngColumn      string
	northingColumn string
	eastingColumn  string
	h3Res          int
	output         string
}

// addClusterFlags registers the shared clustering flag surface; both the
// cluster and serve commands run the same pass.
func addClusterFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(
		&clusterOptions.data,
		"data",
		"",
		"Directory of the partitioned parquet dataset written by transform",
	)
	cmd.Flags().Float64Var(
		&clusterOptions.eps,
		"eps",
		5000,
		"Neighborhood radius in meters (boundary inclusive)",
	)
	cmd.Flags().IntVar(
		&clusterOptions.minPoints,
		"min-points",
		5,
		"Minimum neighbors (self included) for a core point",
	)
	cmd.Flags().StringVar(
		&clusterOptions.filterColumn,
		"filter-column",
		"infected",
		"Column selecting the subset to cluster",
	)
	cmd.Flags().Int64Var(
		&clusterOptions.filterValue,
		"filter-value",
		1,
		"Value of the filter column marking subset membership",
	)
	cmd.Flags().StringVar(
		&clusterOptions.latColumn,
		"lat-column",
		store.DefaultBindings.Lat,
		"Name of the latitude column",
	)
	cmd.Flags().StringVar(
		&clusterOptions.lngColumn,
		"lng-column",
		store.DefaultBindings.Lng,
		"Name of the longitude column",
	)
	cmd.Flags().StringVar(
		&clusterOptions.northingColumn,
		"northing-column",
		store.DefaultBindings.Northing,
		"Name of the northing column",
	)
	cmd.Flags().StringVar(
		&clusterOptions.eastingColumn,
		"easting-column",
		store.DefaultBindings.Easting,
		"Name of the easting column",
	)
	cmd.Flags().IntVar(
		&clusterOptions.h3Res,
		"h3-res",
		7,
		"H3 resolution for cluster centroid cells",
	)

	_ = cmd.MarkFlagRequired("data")
}

// runClustering executes the shared read-subset/DBSCAN/summarize pass.
func runClustering() ([]store.SubsetPoint, []int, *cluster.Result, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, nil, nil, fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	bindings := store.ColumnBindings{
		Lat:      clusterOptions.latColumn,
		Lng:      clusterOptions.lngColumn,
		Northing: clusterOptions.northingColumn,
		Easting:  clusterOptions.eastingColumn,
	}

	points, err := store.NewParquetStore(db).SubsetPoints(
		clusterOptions.data,
		clusterOptions.filterColumn,
		clusterOptions.filterValue,
		bindings,
	)
	if err != nil {
		return nil, nil, nil, err
	}

	log.Printf(
		"Loaded %d points where %s = %d",
		len(points), clusterOptions.filterColumn, clusterOptions.filterValue,
	)

	grid := make([]spatial.GridPoint, len(points))
	for i, p := range points {
		grid[i] = p.Grid
	}

	labels, err := cluster.DBSCAN(grid, clusterOptions.eps, clusterOptions.minPoints)
	if err != nil {
		return nil, nil, nil, err
	}

	result, err := cluster.Summarize(points, labels, clusterOptions.h3Res)
	if err != nil {
		return nil, nil, nil, err
	}

	log.Printf(
		"Clustering phase complete - %d clusters, %d noise points from %d points",
		len(result.Clusters), result.Noise, result.Points,
	)

	return points, labels, result, nil
}

type labeledRecord struct {
	ID        int     `json:"id"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Northing  float64 `json:"northing"`
	Easting   float64 `json:"easting"`
	ClusterID int     `json:"cluster_id"`
}

type clusterReport struct {
	Config  cluster.RunConfig `json:"config"`
	Summary *cluster.Result   `json:"summary"`
	Points  []labeledRecord   `json:"points"`
}

var clusterCmd = &cobra.Command{
	Use:   "cluster",
	Short: "Run DBSCAN over the infected subset of a transformed dataset",
	RunE: func(_ *cobra.Command, _ []string) error {
		points, labels, result, err := runClustering()
		if err != nil {
			return err
		}

		report := clusterReport{
			Config: cluster.RunConfig{
				Eps:          clusterOptions.eps,
				MinPoints:    clusterOptions.minPoints,
				H3Resolution: clusterOptions.h3Res,
			},
			Summary: result,
			Points:  make([]labeledRecord, len(points)),
		}

		for i, p := range points {
			report.Points[i] = labeledRecord{
				ID:        p.ID,
				Lat:       p.Geo.Lat,
				Lng:       p.Geo.Lng,
				Northing:  p.Grid.Northing,
				Easting:   p.Grid.Easting,
				ClusterID: labels[i],
			}
		}

		output, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}

		if clusterOptions.output == "" {
			fmt.Println(string(output))

			return nil
		}

		if err := os.WriteFile(clusterOptions.output, output, 0o600); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}

		log.Printf("Report written to %s", clusterOptions.output)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(clusterCmd)
	addClusterFlags(clusterCmd)
	clusterCmd.Flags().StringVar(
		&clusterOptions.output,
		"output",
		"",
		"Path of the JSON report. Defaults to stdout",
	)
}
