// Copyright 2024 The lk5 Authors
// SPDX-License-Identifier: MIT

// Package term is cmd/lk5's terminal output helper: colorized status
// lines for the CLI and REPL, grounded on the teacher's term/print.go and
// term/log.go (collapsing their near-duplicate color constant blocks and
// Warn/Info/Err print functions into one set).
package term

import (
	"fmt"
	"os"
)

const (
	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Cyan    = "\033[36m"
	Magenta = "\033[95m"
	NoColor = "\033[0m"
)

func colorf(color, format string, a ...any) {
	fmt.Fprintf(os.Stderr, color+format+NoColor+"\n", a...)
}

func Info(format string, a ...any)  { colorf(Cyan, format, a...) }
func Warn(format string, a ...any)  { colorf(Yellow, format, a...) }
func Err(format string, a ...any)   { colorf(Red, format, a...) }
func Debug(format string, a ...any) { colorf(Magenta, format, a...) }
