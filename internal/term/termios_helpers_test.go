//go:build linux || darwin || freebsd || openbsd || netbsd || dragonfly

package term

import "golang.org/x/sys/unix"

const (
	echoFlag   = unix.ECHO
	icanonFlag = unix.ICANON
)

func getTermios(fd int) (*unix.Termios, error) {
	return unix.IoctlGetTermios(fd, ioctlReadTermios)
}
