//go:build linux

package tilegemm

import (
	"encoding/binary"
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

var perfEvents = []perfEvent{
	{"cycles", unix.PERF_COUNT_HW_CPU_CYCLES},
	{"instructions", unix.PERF_COUNT_HW_INSTRUCTIONS},
	{"cache-misses", unix.PERF_COUNT_HW_CACHE_MISSES},
	{"branch-misses", unix.PERF_COUNT_HW_BRANCH_MISSES},
}

// PerfMonitor reads hardware counters through perf_event_open. Counts cover
// the calling thread and threads created after Start; work scheduled onto
// threads that already existed is not included.
type PerfMonitor struct {
	fds []int
}

// NewPerfMonitor creates a stopped monitor.
func NewPerfMonitor() *PerfMonitor {
	return &PerfMonitor{}
}

// Start opens and enables the counters. Kernels commonly refuse unprivileged
// access (perf_event_paranoid); the error then wraps the errno.
func (pm *PerfMonitor) Start() error {
	pm.close()
	for _, ev := range perfEvents {
		attr := unix.PerfEventAttr{
			Type:   unix.PERF_TYPE_HARDWARE,
			Size:   uint32(unsafe.Sizeof(unix.PerfEventAttr{})),
			Config: ev.config,
			Bits:   unix.PerfBitDisabled | unix.PerfBitInherit | unix.PerfBitExcludeKernel | unix.PerfBitExcludeHv,
		}
		fd, err := unix.PerfEventOpen(&attr, 0, -1, -1, unix.PERF_FLAG_FD_CLOEXEC)
		if err != nil {
			pm.close()
			return fmt.Errorf("failed to open perf event %s: %w", ev.name, err)
		}
		pm.fds = append(pm.fds, fd)
	}
	for _, fd := range pm.fds {
		if err := unix.IoctlSetInt(fd, unix.PERF_EVENT_IOC_RESET, 0); err != nil {
			pm.close()
			return fmt.Errorf("failed to reset perf event: %w", err)
		}
		if err := unix.IoctlSetInt(fd, unix.PERF_EVENT_IOC_ENABLE, 0); err != nil {
			pm.close()
			return fmt.Errorf("failed to enable perf event: %w", err)
		}
	}
	return nil
}

// Stop disables the counters and returns their totals.
func (pm *PerfMonitor) Stop() (PerfCounters, error) {
	var pc PerfCounters
	if len(pm.fds) == 0 {
		return pc, fmt.Errorf("perf monitor not started")
	}
	defer pm.close()

	var buf [8]byte
	for i, fd := range pm.fds {
		_ = unix.IoctlSetInt(fd, unix.PERF_EVENT_IOC_DISABLE, 0)
		n, err := unix.Read(fd, buf[:])
		if err != nil {
			return pc, fmt.Errorf("failed to read perf event %s: %w", perfEvents[i].name, err)
		}
		if n == len(buf) {
			pc.set(perfEvents[i].name, binary.NativeEndian.Uint64(buf[:]))
		}
	}
	pc.derive()
	return pc, nil
}

func (pm *PerfMonitor) close() {
	for _, fd := range pm.fds {
		unix.Close(fd)
	}
	pm.fds = nil
}
