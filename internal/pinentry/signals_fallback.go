//go:build !linux && !darwin && !freebsd && !openbsd && !netbsd && !dragonfly

package pinentry

import "os"

var (
	sigGraceful = os.Interrupt
	sigForceful os.Signal = os.Kill
)
