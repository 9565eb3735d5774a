// Copyright 2026 The GridTrace Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"log"

	"github.com/gridtrace/gridtrace/cluster"
	"github.com/spf13/cobra"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run clustering and serve the labeled results over HTTP",
	RunE: func(_ *cobra.Command, _ []string) error {
		points, labels, result, err := runClustering()
		if err != nil {
			return err
		}

		config := cluster.RunConfig{
			Eps:          clusterOptions.eps,
			MinPoints:    clusterOptions.minPoints,
			H3Resolution: clusterOptions.h3Res,
		}

		log.Printf("Serving cluster results on %s", serveListen)

		return cluster.NewServer(points, labels, result, config).Run(serveListen)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	addClusterFlags(serveCmd)
	serveCmd.Flags().StringVar(
		&serveListen,
		"listen",
		"localhost:8080",
		"Address to serve the results API on",
	)
}
