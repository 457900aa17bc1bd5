//go:build linux

package term

import (
	"fmt"
	"os"
)

// TTYName reports the device path of the terminal attached to f, or "" when
// f is not a terminal or the name cannot be discovered.
func TTYName(f *os.File) string {
	if f == nil || !IsTerminal(f) {
		return ""
	}
	name, err := os.Readlink(fmt.Sprintf("/proc/self/fd/%d", f.Fd()))
	if err != nil {
		return ""
	}
	return name
}
