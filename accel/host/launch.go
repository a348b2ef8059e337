package host

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/LynnColeArt/tilegemm/accel"
)

// Dim3 holds per-dimension sizes or indices of a launch.
type Dim3 struct {
	X, Y, Z int
}

// Size returns the number of elements.
func (d Dim3) Size() int {
	return d.X * d.Y * d.Z
}

// WorkGroup identifies one work-group of an ND-range launch.
type WorkGroup struct {
	GroupID   Dim3 // get_group_id
	LocalSize Dim3 // get_local_size
	NumGroups Dim3 // get_num_groups
}

// GlobalSize returns get_global_size for the launch.
func (g WorkGroup) GlobalSize() Dim3 {
	return Dim3{
		X: g.NumGroups.X * g.LocalSize.X,
		Y: g.NumGroups.Y * g.LocalSize.Y,
		Z: g.NumGroups.Z * g.LocalSize.Z,
	}
}

// Origin returns the global index of the group's first work item.
func (g WorkGroup) Origin() Dim3 {
	return Dim3{
		X: g.GroupID.X * g.LocalSize.X,
		Y: g.GroupID.Y * g.LocalSize.Y,
		Z: g.GroupID.Z * g.LocalSize.Z,
	}
}

// launch runs fn once per work-group of grid. Contiguous ranges of groups
// are handed to each worker so neighbouring tiles stay on one core.
func launch(fn KernelFunc, grid, block Dim3, args []any) error {
	gridSize := grid.Size()
	if gridSize == 0 {
		return nil
	}

	numWorkers := min(runtime.GOMAXPROCS(0), gridSize)
	groupsPerWorker := (gridSize + numWorkers - 1) / numWorkers

	var eg errgroup.Group
	for w := 0; w < numWorkers; w++ {
		start := w * groupsPerWorker
		end := min(start+groupsPerWorker, gridSize)
		if start >= end {
			break
		}
		eg.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = accel.Errorf("clEnqueueNDRangeKernel", accel.StatusOutOfResources,
						"kernel panicked: %v", r)
				}
			}()
			for id := start; id < end; id++ {
				g := WorkGroup{
					GroupID:   linearTo3D(id, grid),
					LocalSize: block,
					NumGroups: grid,
				}
				if err := fn(g, args); err != nil {
					return fmt.Errorf("work-group %v: %w", g.GroupID, err)
				}
			}
			return nil
		})
	}
	return eg.Wait()
}

// linearTo3D converts a linear index to 3D coordinates.
func linearTo3D(linear int, dim Dim3) Dim3 {
	z := linear / (dim.X * dim.Y)
	y := (linear % (dim.X * dim.Y)) / dim.X
	x := linear % dim.X
	return Dim3{X: x, Y: y, Z: z}
}
