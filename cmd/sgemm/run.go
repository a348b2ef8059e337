package main

import (
	"fmt"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/LynnColeArt/tilegemm"
)

// Products up to this many multiply-adds are checked with the triple loop;
// larger ones use gonum.
const referenceLimit = 1 << 24

type runOptions struct {
	m, n, k    int
	runtime    string
	kernel     string
	buildOpts  string
	iterations int
	warmup     int
	validate   bool
	tolerance  float64
	logDir     string
	seed       uint64
	perf       bool
}

func newRunCommand() *cobra.Command {
	o := runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Multiply random matrices and report throughput",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.run(cmd)
		},
	}
	f := cmd.Flags()
	f.IntVarP(&o.m, "rows", "m", 1024, "rows of A and C")
	f.IntVarP(&o.n, "cols", "n", 1024, "columns of B and C")
	f.IntVarP(&o.k, "inner", "k", 1024, "columns of A, rows of B")
	f.StringVar(&o.runtime, "runtime", "", "accel runtime (default: opencl if built in, else host)")
	f.StringVar(&o.kernel, "kernel", tilegemm.KernelSource, "kernel source file")
	f.StringVar(&o.buildOpts, "build-options", "", "options passed to the kernel compiler")
	f.IntVar(&o.iterations, "iterations", 5, "timed multiplications")
	f.IntVar(&o.warmup, "warmup", 1, "untimed multiplications before timing")
	f.BoolVar(&o.validate, "validate", false, "check the product against a host reference")
	f.Float64Var(&o.tolerance, "tolerance", 1e-3, "maximum relative error accepted by --validate")
	f.StringVar(&o.logDir, "log-dir", "", "write a JSON run log to this directory")
	f.Uint64Var(&o.seed, "seed", 12345, "seed for the generated matrices")
	f.BoolVar(&o.perf, "perf", false, "report hardware counters of the dispatching thread")
	return cmd
}

func (o *runOptions) run(cmd *cobra.Command) error {
	if o.iterations < 1 {
		return fmt.Errorf("--iterations must be at least 1, got %d", o.iterations)
	}

	var logger *tilegemm.RunLogger
	if o.logDir != "" {
		var err error
		if logger, err = tilegemm.NewRunLogger(o.logDir, "sgemm"); err != nil {
			return err
		}
		klog.V(1).Infof("Logging runs to %s", logger.Path())
	}
	result := tilegemm.RunResult{
		Name:       fmt.Sprintf("sgemm_%dx%dx%d", o.m, o.n, o.k),
		Status:     "pass",
		M:          o.m,
		N:          o.n,
		K:          o.k,
		Iterations: o.iterations,
	}
	err := o.measure(cmd, &result)
	if err != nil {
		result.Status = "fail"
		result.Error = err.Error()
	}
	if logger != nil {
		if lerr := logger.Log(result); lerr != nil {
			klog.Warningf("Writing run log: %v", lerr)
		}
	}
	return err
}

// measure fills result with timings and, when asked, the validation error.
// Engine failures are returned after the engine has been finalized.
func (o *runOptions) measure(cmd *cobra.Command, result *tilegemm.RunResult) error {
	e, err := tilegemm.NewEngine(o.m, o.n, o.k,
		tilegemm.WithRuntime(o.runtime),
		tilegemm.WithKernelSource(o.kernel),
		tilegemm.WithBuildOptions(o.buildOpts))
	if err != nil {
		return err
	}
	defer func() {
		if err := e.Finalize(); err != nil {
			klog.Errorf("Finalize: %v", err)
		}
	}()

	info := e.Info()
	plan := e.PlanFor(o.m, o.n, o.k)
	result.Padded = plan.Padded
	result.Device = info.Device
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "device:  %s (%s, %s)\n", info.Device, info.Platform, info.Runtime)
	fmt.Fprintf(out, "shape:   %v padded %v\n", plan.Dims, plan.Padded)
	fmt.Fprintf(out, "launch:  global %v local %v\n", plan.Global, plan.Local)

	a := tilegemm.GenerateMatrixFloat32(o.m, o.k, o.seed)
	b := tilegemm.GenerateMatrixFloat32(o.k, o.n, o.seed+1)
	c := make([]float32, o.m*o.n)

	for i := 0; i < o.warmup; i++ {
		if err := e.Multiply(a, b, c, o.m, o.n, o.k); err != nil {
			return err
		}
	}

	var monitor *tilegemm.PerfMonitor
	if o.perf {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		monitor = tilegemm.NewPerfMonitor()
		if err := monitor.Start(); err != nil {
			klog.Warningf("Hardware counters unavailable: %v", err)
			monitor = nil
		}
	}
	start := time.Now()
	for i := 0; i < o.iterations; i++ {
		if err := e.Multiply(a, b, c, o.m, o.n, o.k); err != nil {
			if monitor != nil {
				_, _ = monitor.Stop()
			}
			return err
		}
	}
	perIter := time.Since(start) / time.Duration(o.iterations)
	if monitor != nil {
		if pc, err := monitor.Stop(); err != nil {
			klog.Warningf("Reading hardware counters: %v", err)
		} else {
			fmt.Fprintf(out, "perf:    %v per multiply\n", pc.PerIteration(o.iterations))
		}
	}

	result.Duration = perIter
	result.GFLOPS = tilegemm.GFLOPS(o.m, o.n, o.k, perIter)
	fmt.Fprintf(out, "time:    %v per multiply, %.2f GFLOPS\n", perIter, result.GFLOPS)

	if !o.validate {
		return nil
	}
	want := make([]float32, o.m*o.n)
	if o.m*o.n*o.k <= referenceLimit {
		tilegemm.ReferenceGEMM(a, b, want, o.m, o.n, o.k)
	} else {
		tilegemm.GonumGEMM(a, b, want, o.m, o.n, o.k)
	}
	result.MaxRelErr = tilegemm.MaxRelativeError(want, c)
	fmt.Fprintf(out, "check:   max relative error %.3g\n", result.MaxRelErr)
	if result.MaxRelErr > o.tolerance {
		return fmt.Errorf("max relative error %.3g exceeds %.3g", result.MaxRelErr, o.tolerance)
	}
	return nil
}
