//go:build linux || darwin || freebsd || openbsd || netbsd || dragonfly

package term

import (
	"sync"

	"golang.org/x/sys/unix"
)

// suppressEcho captures the terminal's current line discipline, turns off
// canonical mode and character echo, and returns a restore function. The
// restore function puts the captured mode back at most once no matter how
// many times it is called.
func suppressEcho(fd int) (func() error, error) {
	saved, err := unix.IoctlGetTermios(fd, ioctlReadTermios)
	if err != nil {
		return nil, err
	}
	masked := *saved
	masked.Lflag &^= unix.ICANON | unix.ECHO
	masked.Cc[unix.VMIN] = 1
	masked.Cc[unix.VTIME] = 0
	if err := unix.IoctlSetTermios(fd, ioctlWriteTermios, &masked); err != nil {
		return nil, err
	}

	var once sync.Once
	return func() error {
		var rerr error
		once.Do(func() {
			rerr = unix.IoctlSetTermios(fd, ioctlWriteTermios, saved)
		})
		return rerr
	}, nil
}
