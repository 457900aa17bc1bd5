//go:build !linux && !darwin && !freebsd && !openbsd && !netbsd && !dragonfly

package term

// No line-discipline control on this platform; the read proceeds with
// whatever echo behavior the host console provides.
func suppressEcho(fd int) (func() error, error) {
	return nil, nil
}
