// Copyright 2026 The GridTrace Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/gridtrace/gridtrace/cmd"
)

var Version = "development"

func main() {
	cmd.Execute(Version)
}
