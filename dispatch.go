package tilegemm

import (
	"fmt"

	"k8s.io/klog/v2"
)

// Decomposition is the 2-D launch shape of one multiplication.
type Decomposition struct {
	Global [2]int // (M_padded, N_padded / VectorWidth)
	Local  [2]int // (TileWidth, TileWidth / VectorWidth)
}

// Decompose returns the launch shape for padded dimensions. Each work item
// computes VectorWidth consecutive outputs of one row, so a work-group
// covers a TileWidth×TileWidth block of C. Kernels must index under exactly
// this shape.
func Decompose(padded Dims, cfg Config) Decomposition {
	return Decomposition{
		Global: [2]int{padded.M, padded.N / cfg.VectorWidth},
		Local:  [2]int{cfg.TileWidth, cfg.TileWidth / cfg.VectorWidth},
	}
}

// Plan is the host-side decision for one multiplication.
type Plan struct {
	Dims   Dims
	Padded Dims
	PadA   bool // A is staged through a zero-padded copy
	PadB   bool
	PadC   bool // C is read into staging and un-padded

	Decomposition
}

// NewPlan decides padding and launch shape for d under cfg.
func NewPlan(d Dims, cfg Config) Plan {
	p := d.Padded(cfg.TileWidth)
	return Plan{
		Dims:          d,
		Padded:        p,
		PadA:          d.M != p.M || d.K != p.K,
		PadB:          d.K != p.K || d.N != p.N,
		PadC:          d.M != p.M || d.N != p.N,
		Decomposition: Decompose(p, cfg),
	}
}

// PlanFor returns the plan Multiply would follow for the given dimensions.
func (e *Engine) PlanFor(m, n, k int) Plan {
	return NewPlan(Dims{M: m, N: n, K: k}, e.cfg)
}

// Multiply computes C = A·B for row-major A (m×k), B (k×n) and C (m×n).
//
// Operands whose dimensions are not multiples of the tile width are copied
// into zero-padded staging buffers; aligned operands are transferred as
// they are. Transfers are blocking and the launch is followed by a full
// queue drain, so C is complete when Multiply returns. A and B are not
// modified.
//
// Dimensions other than those the engine was created with are served from
// a pool of buffer sets, allocated on first use.
func (e *Engine) Multiply(a, b, c []float32, m, n, k int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.finalized {
		return ErrFinalized
	}
	if err := checkOperands(a, b, c, m, n, k, e.cfg.TileWidth); err != nil {
		return err
	}

	plan := e.PlanFor(m, n, k)
	p := plan.Padded
	tile := e.cfg.TileWidth
	set, err := e.pool.get(p)
	if err != nil {
		return err
	}
	if klog.V(2).Enabled() {
		klog.Infof("Multiply %v padded %v pad A=%t B=%t C=%t global %v local %v",
			plan.Dims, p, plan.PadA, plan.PadB, plan.PadC, plan.Global, plan.Local)
	}

	srcA := a[:m*k]
	if plan.PadA {
		srcA = set.stageA.pad(a, m, k, tile)
	}
	srcB := b[:k*n]
	if plan.PadB {
		srcB = set.stageB.pad(b, k, n, tile)
	}

	if err := checkDevice("clEnqueueWriteBuffer", e.queue.WriteBuffer(set.a, true, 0, srcA[:p.M*p.K])); err != nil {
		return err
	}
	if err := checkDevice("clEnqueueWriteBuffer", e.queue.WriteBuffer(set.b, true, 0, srcB[:p.K*p.N])); err != nil {
		return err
	}

	args := []any{set.a, set.b, set.c, int32(p.M), int32(p.N), int32(p.K)}
	for i, arg := range args {
		if err := checkDevice("clSetKernelArg", e.kernel.SetArg(i, arg)); err != nil {
			return err
		}
	}

	if err := checkDevice("clEnqueueNDRangeKernel",
		e.queue.EnqueueNDRange(e.kernel, plan.Global[:], plan.Local[:])); err != nil {
		return err
	}
	if err := checkDevice("clFinish", e.queue.Finish()); err != nil {
		return err
	}

	dstC := c[:m*n]
	if plan.PadC {
		dstC = set.stageC
	}
	if err := checkDevice("clEnqueueReadBuffer", e.queue.ReadBuffer(set.c, true, 0, dstC[:p.M*p.N])); err != nil {
		return err
	}
	if plan.PadC {
		Unpad(c, set.stageC, m, n, tile)
	}
	e.stats.record(plan)
	return nil
}

func checkOperands(a, b, c []float32, m, n, k, tile int) error {
	const op = "Multiply"
	if err := checkDims(op, Dims{M: m, N: n, K: k}, tile); err != nil {
		return err
	}
	switch {
	case len(a) < m*k:
		return NewInvalidArgError(op, fmt.Sprintf("A has %d elements, need %d×%d", len(a), m, k))
	case len(b) < k*n:
		return NewInvalidArgError(op, fmt.Sprintf("B has %d elements, need %d×%d", len(b), k, n))
	case len(c) < m*n:
		return NewInvalidArgError(op, fmt.Sprintf("C has %d elements, need %d×%d", len(c), m, n))
	}
	return nil
}
