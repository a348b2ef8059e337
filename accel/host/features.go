package host

import (
	"runtime"
	"strings"

	"golang.org/x/sys/cpu"
)

// cpuFeatures tracks the instruction set extensions that decide the host
// device's preferred vector width.
type cpuFeatures struct {
	HasAVX     bool
	HasAVX2    bool
	HasAVX512F bool
	HasFMA     bool
	HasSSE4    bool
	HasNEON    bool
	HasSVE     bool
}

var features = detectCPUFeatures()

func detectCPUFeatures() cpuFeatures {
	return cpuFeatures{
		HasSSE4:    cpu.X86.HasSSE41 || cpu.X86.HasSSE42,
		HasAVX:     cpu.X86.HasAVX,
		HasAVX2:    cpu.X86.HasAVX2,
		HasAVX512F: cpu.X86.HasAVX512F,
		HasFMA:     cpu.X86.HasFMA || cpu.ARM64.HasASIMD,
		HasNEON:    cpu.ARM64.HasASIMD,
		HasSVE:     cpu.ARM64.HasSVE,
	}
}

// preferredVectorWidth is the number of float32 lanes in the widest vector
// register the host can use.
func (f cpuFeatures) preferredVectorWidth() int {
	switch {
	case f.HasAVX512F:
		return 16
	case f.HasAVX2, f.HasAVX:
		return 8
	case f.HasSSE4, f.HasNEON:
		return 4
	default:
		return 1
	}
}

// String lists the detected extensions, e.g. "amd64 (AVX, AVX2, FMA)".
func (f cpuFeatures) String() string {
	var names []string
	if f.HasSSE4 {
		names = append(names, "SSE4")
	}
	if f.HasAVX {
		names = append(names, "AVX")
	}
	if f.HasAVX2 {
		names = append(names, "AVX2")
	}
	if f.HasAVX512F {
		names = append(names, "AVX512F")
	}
	if f.HasNEON {
		names = append(names, "NEON")
	}
	if f.HasSVE {
		names = append(names, "SVE")
	}
	if f.HasFMA {
		names = append(names, "FMA")
	}
	if len(names) == 0 {
		return runtime.GOARCH
	}
	return runtime.GOARCH + " (" + strings.Join(names, ", ") + ")"
}
