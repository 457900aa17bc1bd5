//go:build !linux

package term

import "os"

// TTYName is best-effort; without procfs there is no portable way to
// recover the device path, and an absent hint is simply not forwarded.
func TTYName(f *os.File) string {
	return ""
}
