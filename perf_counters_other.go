//go:build !linux

package tilegemm

// PerfMonitor is a stub on platforms without perf_event_open.
type PerfMonitor struct{}

// NewPerfMonitor creates a monitor whose Start always fails.
func NewPerfMonitor() *PerfMonitor {
	return &PerfMonitor{}
}

// Start returns ErrPerfUnsupported.
func (pm *PerfMonitor) Start() error {
	return ErrPerfUnsupported
}

// Stop returns ErrPerfUnsupported.
func (pm *PerfMonitor) Stop() (PerfCounters, error) {
	return PerfCounters{}, ErrPerfUnsupported
}
