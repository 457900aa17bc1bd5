//go:build windows

package mem

func lockMemoryPlatform() (ProtectionLevel, error) {
	// VirtualLock is page-granular and would need per-buffer plumbing;
	// the wipe-on-release discipline is the protection on this platform.
	return ProtectionPartial, nil
}

func unlockMemoryPlatform() error {
	return nil
}
