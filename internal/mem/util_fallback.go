//go:build !linux && !darwin && !freebsd && !openbsd && !netbsd && !dragonfly && !windows

package mem

func lockMemoryPlatform() (ProtectionLevel, error) {
	// Cannot prevent swapping here; wiping after use still applies.
	return ProtectionPartial, nil
}

func unlockMemoryPlatform() error {
	return nil
}
