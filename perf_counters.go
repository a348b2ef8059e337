// Package tilegemm performance monitoring and hardware counter integration
package tilegemm

import (
	"errors"
	"fmt"
	"strings"
)

// ErrPerfUnsupported is returned by PerfMonitor.Start where hardware
// counters cannot be read.
var ErrPerfUnsupported = errors.New("tilegemm: hardware performance counters not supported on this platform")

// PerfCounters holds hardware counter totals for a measured region
type PerfCounters struct {
	Cycles       uint64
	Instructions uint64
	CacheMisses  uint64
	BranchMisses uint64

	// Derived metrics
	IPC float64 // Instructions per cycle
}

type perfEvent struct {
	name   string
	config uint64
}

func (pc *PerfCounters) set(name string, value uint64) {
	switch name {
	case "cycles":
		pc.Cycles = value
	case "instructions":
		pc.Instructions = value
	case "cache-misses":
		pc.CacheMisses = value
	case "branch-misses":
		pc.BranchMisses = value
	}
}

func (pc *PerfCounters) derive() {
	if pc.Cycles > 0 {
		pc.IPC = float64(pc.Instructions) / float64(pc.Cycles)
	}
}

// PerIteration divides every total by n.
func (pc PerfCounters) PerIteration(n int) PerfCounters {
	if n <= 1 {
		return pc
	}
	d := uint64(n)
	return PerfCounters{
		Cycles:       pc.Cycles / d,
		Instructions: pc.Instructions / d,
		CacheMisses:  pc.CacheMisses / d,
		BranchMisses: pc.BranchMisses / d,
		IPC:          pc.IPC,
	}
}

func (pc PerfCounters) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "cycles=%d instructions=%d", pc.Cycles, pc.Instructions)
	if pc.IPC > 0 {
		fmt.Fprintf(&sb, " IPC=%.2f", pc.IPC)
	}
	fmt.Fprintf(&sb, " cache-misses=%d branch-misses=%d", pc.CacheMisses, pc.BranchMisses)
	return sb.String()
}
