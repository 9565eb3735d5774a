// Copyright 2026 The GridTrace Authors
// SPDX-License-Identifier: Apache-2.0

package cluster

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gridtrace/gridtrace/store"
)

// RunConfig echoes the parameters a clustering run was produced with, so a
// dashboard can display them alongside the results.
type RunConfig struct {
	Eps          float64 `json:"eps"`
	MinPoints    int     `json:"min_points"`
	H3Resolution int     `json:"h3_resolution"`
}

// Server exposes a finished clustering run as a JSON API for an external
// dashboard. All state is computed before Run and read-only afterwards.
type Server struct {
	points []store.SubsetPoint
	labels []int
	result *Result
	config RunConfig
}

// NewServer wraps a clustering run for serving. points and labels must be
// parallel slices as produced by DBSCAN over the subset.
func NewServer(points []store.SubsetPoint, labels []int, result *Result, config RunConfig) *Server {
	return &Server{
		points: points,
		labels: labels,
		result: result,
		config: config,
	}
}

// Run serves the API until the listener fails.
func (s *Server) Run(addr string) error {
	return s.router().Run(addr)
}

func (s *Server) router() *gin.Engine {
	r := gin.Default()

	r.GET("/api/points", s.listPoints)
	r.GET("/api/clusters", s.listClusters)
	r.GET("/api/params", s.getParams)

	return r
}

type pointView struct {
	ID        int     `json:"id"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Northing  float64 `json:"northing"`
	Easting   float64 `json:"easting"`
	ClusterID int     `json:"cluster_id"`
}

// listPoints returns every labeled point, optionally restricted to one
// cluster via ?cluster=<id> (use -1 for noise).
func (s *Server) listPoints(ctx *gin.Context) {
	filter := false

	var wantID int

	if raw := ctx.Query("cluster"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "cluster must be an integer"})

			return
		}

		filter = true
		wantID = id
	}

	views := make([]pointView, 0, len(s.points))

	for i, p := range s.points {
		if filter && s.labels[i] != wantID {
			continue
		}

		views = append(views, pointView{
			ID:        p.ID,
			Lat:       p.Geo.Lat,
			Lng:       p.Geo.Lng,
			Northing:  p.Grid.Northing,
			Easting:   p.Grid.Easting,
			ClusterID: s.labels[i],
		})
	}

	ctx.JSON(http.StatusOK, views)
}

func (s *Server) listClusters(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, s.result)
}

func (s *Server) getParams(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, s.config)
}
