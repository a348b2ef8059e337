package host

import (
	"sync"

	"github.com/LynnColeArt/tilegemm/accel"
)

// SGEMMKernel is the entry point name of the tiled matrix multiply.
const SGEMMKernel = "sgemm"

func init() {
	RegisterKernel(SGEMMKernel,
		[]ArgKind{ArgBuffer, ArgBuffer, ArgBuffer, ArgInt32, ArgInt32, ArgInt32},
		sgemm)
}

type sgemmScratch struct {
	a, b, acc []float32
}

var scratchPool sync.Pool

func getScratch(tileA, tileB int) *sgemmScratch {
	s, _ := scratchPool.Get().(*sgemmScratch)
	if s == nil {
		s = &sgemmScratch{}
	}
	s.a = grow(s.a, tileA)
	s.b = grow(s.b, tileB)
	s.acc = grow(s.acc, tileB)
	clear(s.acc)
	return s
}

func grow(s []float32, n int) []float32 {
	if cap(s) < n {
		return make([]float32, n)
	}
	return s[:n]
}

// sgemm computes C = A·B for row-major A (M×K), B (K×N), C (M×N).
//
// Launch contract:
//
//	global = (M, N/width)   local = (tile, tile/width)
//
// Work item (r, c) owns row r and the width consecutive columns starting at
// c*width, so a work-group owns a tile×tile block of C. The group walks K in
// steps of tile, staging a tile of A and a tile of B in local memory, then
// every work item accumulates its width outputs from the staged tiles.
func sgemm(g WorkGroup, args []any) error {
	const op = "sgemm"
	a := args[0].(*Buffer).Float32()
	b := args[1].(*Buffer).Float32()
	c := args[2].(*Buffer).Float32()
	m, n, k := int(args[3].(int32)), int(args[4].(int32)), int(args[5].(int32))

	global := g.GlobalSize()
	if global.X != m || global.Y == 0 || n%global.Y != 0 {
		return accel.Errorf(op, accel.StatusInvalidWorkItemSize,
			"global size (%d, %d) does not cover a %dx%d output", global.X, global.Y, m, n)
	}
	width := n / global.Y
	rows := g.LocalSize.X
	cols := g.LocalSize.Y * width
	if len(a) < m*k || len(b) < k*n || len(c) < m*n {
		return accel.Errorf(op, accel.StatusInvalidKernelArgs,
			"buffers hold %d, %d, %d floats for M=%d N=%d K=%d", len(a), len(b), len(c), m, n, k)
	}

	origin := g.Origin()
	rowBase := origin.X
	colBase := origin.Y * width
	ktile := rows

	s := getScratch(rows*ktile, ktile*cols)
	defer scratchPool.Put(s)

	for k0 := 0; k0 < k; k0 += ktile {
		kt := min(ktile, k-k0)

		// Load phase.
		for r := 0; r < rows; r++ {
			src := a[(rowBase+r)*k+k0:]
			copy(s.a[r*ktile:r*ktile+kt], src[:kt])
		}
		for kk := 0; kk < kt; kk++ {
			src := b[(k0+kk)*n+colBase:]
			copy(s.b[kk*cols:(kk+1)*cols], src[:cols])
		}

		// Compute phase: work item (r, lane) updates columns
		// [lane*width, (lane+1)*width) of its row.
		for r := 0; r < rows; r++ {
			acc := s.acc[r*cols : (r+1)*cols]
			for kk := 0; kk < kt; kk++ {
				av := s.a[r*ktile+kk]
				bt := s.b[kk*cols : (kk+1)*cols]
				for lane := 0; lane < g.LocalSize.Y; lane++ {
					lo, hi := lane*width, (lane+1)*width
					accv, bv := acc[lo:hi], bt[lo:hi]
					for v := range accv {
						accv[v] += av * bv[v]
					}
				}
			}
		}
	}

	for r := 0; r < rows; r++ {
		copy(c[(rowBase+r)*n+colBase:(rowBase+r)*n+colBase+cols], s.acc[r*cols:(r+1)*cols])
	}
	return nil
}
