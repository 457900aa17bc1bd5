//go:build linux || darwin || freebsd || openbsd || netbsd || dragonfly

package pinentry

import (
	"os"

	"golang.org/x/sys/unix"
)

var (
	sigGraceful os.Signal = unix.SIGTERM
	sigForceful os.Signal = unix.SIGKILL
)
