// Package rtlog is the runtime's own ambient logger: level-gated, cheap,
// and silent unless explicitly enabled. It mirrors the teacher's logger
// package (fmt.Printf behind a debug flag) rather than pulling in a
// structured-logging library, since nothing in the pack reaches for one
// for this kind of internal diagnostic chatter.
package rtlog

import (
	"fmt"
	"os"
)

// Enabled gates all output. Off by default; a non-empty LK5_DEBUG
// environment variable turns it on.
var Enabled = os.Getenv("LK5_DEBUG") != ""

func I(format string, a ...any) {
	if Enabled {
		fmt.Fprintf(os.Stderr, "[info] "+format+"\n", a...)
	}
}

func W(format string, a ...any) {
	if Enabled {
		fmt.Fprintf(os.Stderr, "[warn] "+format+"\n", a...)
	}
}

func E(format string, a ...any) {
	if Enabled {
		fmt.Fprintf(os.Stderr, "[error] "+format+"\n", a...)
	}
}
