//go:build linux

package host

import "golang.org/x/sys/unix"

// systemMemory returns total physical memory in bytes.
func systemMemory() uint64 {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return defaultSystemMemory
	}
	return uint64(info.Totalram) * uint64(info.Unit)
}
