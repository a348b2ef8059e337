//go:build !linux

package host

func systemMemory() uint64 {
	return defaultSystemMemory
}
