// Copyright 2026 The GridTrace Authors
// SPDX-License-Identifier: Apache-2.0

package dataset

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// MapFunc transforms one partition into another. It must be pure: no shared
// mutable state across calls, safe to re-execute, safe to run concurrently
// with itself on sibling partitions. Row order of the returned partition is
// preserved end-to-end.
type MapFunc func(*Partition) (*Partition, error)

// MapOptions configures MapPartitions.
type MapOptions struct {
	// Schema declares the output schema. When nil the executor probes
	// partition 0 and asserts every other partition's output against the
	// probed schema.
	Schema Schema

	// MaxProcs caps concurrent transforms. Zero means runtime.NumCPU().
	MaxProcs int

	// Progress renders a progress bar when stderr is a terminal.
	Progress bool

	// Label describes the stage in the progress bar.
	Label string
}

// MapPartitions applies fn to every partition of src, possibly concurrently,
// and returns a new dataset with the same partition count and per-partition
// row order. Completion order does not matter: results land in an ordered
// slot array indexed by partition number. A schema mismatch or a transform
// failure aborts the whole map; sibling outputs are discarded, never
// published partially.
func MapPartitions(src Source, fn MapFunc, opts *MapOptions) (*Dataset, error) {
	if opts == nil {
		opts = &MapOptions{}
	}

	n := src.NumPartitions()
	results := make([]*Partition, n)
	schema := opts.Schema
	start := 0

	// With no declared schema, probe the first partition synchronously and
	// treat its output schema as the contract for the rest.
	if schema == nil && n > 0 {
		out, err := runPartition(src, fn, 0)
		if err != nil {
			return nil, err
		}

		schema = out.Schema
		results[0] = out
		start = 1
	}

	maxProcs := opts.MaxProcs
	if maxProcs == 0 {
		maxProcs = runtime.NumCPU()
	}

	var bar *progressbar.ProgressBar
	if opts.Progress && isatty.IsTerminal(os.Stderr.Fd()) {
		label := opts.Label
		if label == "" {
			label = "Mapping partitions"
		}

		bar = progressbar.NewOptions(n,
			progressbar.OptionSetDescription(label),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
		if start == 1 {
			_ = bar.Add(1)
		}
	}

	var wg sync.WaitGroup

	semaphore := make(chan struct{}, maxProcs)
	errChan := make(chan error, n)

	for i := start; i < n; i++ {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()
			semaphore <- struct{}{}

			defer func() { <-semaphore }()

			out, err := runPartition(src, fn, i)
			if err != nil {
				errChan <- err

				return
			}

			if !out.Schema.Equal(schema) {
				errChan <- fmt.Errorf(
					"partition %d: output schema mismatch: %s",
					i, schema.Diff(out.Schema),
				)

				return
			}

			results[i] = out

			if bar != nil {
				_ = bar.Add(1)
			}
		}(i)
	}

	wg.Wait()
	close(errChan)

	var errs []error
	for err := range errChan {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return &Dataset{Schema: schema, Partitions: results}, nil
}

// runPartition loads and transforms one partition, tagging every failure
// with the partition index for diagnosis.
func runPartition(src Source, fn MapFunc, i int) (*Partition, error) {
	in, err := src.Partition(i)
	if err != nil {
		return nil, fmt.Errorf("loading partition %d: %w", i, err)
	}

	out, err := fn(in)
	if err != nil {
		return nil, fmt.Errorf("transforming partition %d: %w", i, err)
	}

	if out == nil {
		return nil, fmt.Errorf("transforming partition %d: transform returned no partition", i)
	}

	out.Index = i

	return out, nil
}
