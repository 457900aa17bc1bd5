//go:build debug

package debug

import (
	"fmt"
	"os"
)

const Debug = true

// Print traces protocol steps on stderr so it cannot interleave with a
// secret being written to stdout. Callers must never pass secret material.
func Print(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "DEBUG: "+format, args...)
}
