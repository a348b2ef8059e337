package tilegemm

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPaddedSize(t *testing.T) {
	tests := []struct {
		n, tile, want int
	}{
		{1, 64, 64},
		{63, 64, 64},
		{64, 64, 64},
		{65, 64, 128},
		{70, 64, 128},
		{33, 64, 64},
		{128, 64, 128},
		{9, 8, 16},
	}
	for _, tt := range tests {
		if got := PaddedSize(tt.n, tt.tile); got != tt.want {
			t.Errorf("PaddedSize(%d, %d) = %d, want %d", tt.n, tt.tile, got, tt.want)
		}
	}
}

func TestNeedsPadding(t *testing.T) {
	if NeedsPadding(64, 128, 64) {
		t.Error("64x128 is aligned to 64")
	}
	if !NeedsPadding(64, 65, 64) {
		t.Error("64x65 needs column padding")
	}
	if !NeedsPadding(65, 64, 64) {
		t.Error("65x64 needs row padding")
	}
}

func TestPadUnpad(t *testing.T) {
	const rows, cols, tile = 3, 5, 4
	src := GenerateSequence(rows*cols, 1, 1)

	dst := make([]float32, PaddedSize(rows, tile)*PaddedSize(cols, tile))
	Pad(dst, src, rows, cols, tile)

	want := []float32{
		1, 2, 3, 4, 5, 0, 0, 0,
		6, 7, 8, 9, 10, 0, 0, 0,
		11, 12, 13, 14, 15, 0, 0, 0,
		0, 0, 0, 0, 0, 0, 0, 0,
	}
	if diff := cmp.Diff(want, dst); diff != "" {
		t.Fatalf("Pad (-want +got):\n%s", diff)
	}

	back := make([]float32, rows*cols)
	Unpad(back, dst, rows, cols, tile)
	if diff := cmp.Diff(src, back); diff != "" {
		t.Errorf("Unpad(Pad(x)) != x (-want +got):\n%s", diff)
	}
}

func TestPadAligned(t *testing.T) {
	src := GenerateSequence(8*4, 0, 0.5)
	dst := make([]float32, len(src))
	Pad(dst, src, 8, 4, 4)
	if diff := cmp.Diff(src, dst); diff != "" {
		t.Errorf("aligned Pad should copy verbatim (-want +got):\n%s", diff)
	}
}

// Round trip and zero padding over many shapes, including tile 1, columns
// already on a tile boundary and one column past it.
func TestPadUnpadShapes(t *testing.T) {
	for _, tile := range []int{1, 2, 4, 7, 16, 64} {
		colCases := []int{1, 3, 10, tile, tile + 1, 2 * tile, 2*tile + 3}
		if tile > 1 {
			colCases = append(colCases, tile-1)
		}
		for _, rows := range []int{1, 2, 3, 5, 8, 13, 64, 65} {
			for _, cols := range colCases {
				src := GenerateSequence(rows*cols, 1, 1)
				pr, pc := PaddedSize(rows, tile), PaddedSize(cols, tile)
				if pr%tile != 0 || pc%tile != 0 || pr < rows || pc < cols {
					t.Fatalf("tile %d: padded %dx%d for %dx%d", tile, pr, pc, rows, cols)
				}

				dst := make([]float32, pr*pc)
				Pad(dst, src, rows, cols, tile)
				for r := 0; r < pr; r++ {
					for c := 0; c < pc; c++ {
						v := dst[r*pc+c]
						inside := r < rows && c < cols
						if inside && v != src[r*cols+c] {
							t.Fatalf("tile %d, %dx%d: dst[%d][%d] = %v, want %v", tile, rows, cols, r, c, v, src[r*cols+c])
						}
						if !inside && v != 0 {
							t.Fatalf("tile %d, %dx%d: padding cell [%d][%d] = %v, want 0", tile, rows, cols, r, c, v)
						}
					}
				}

				back := make([]float32, rows*cols)
				Unpad(back, dst, rows, cols, tile)
				if diff := cmp.Diff(src, back); diff != "" {
					t.Fatalf("tile %d, %dx%d: Unpad(Pad(x)) != x (-want +got):\n%s", tile, rows, cols, diff)
				}
			}
		}
	}
}

func TestStagingRezeroesOnShapeChange(t *testing.T) {
	const tile = 4
	s := staging{data: make([]float32, 8*8)}

	big := GenerateSequence(7*7, 1, 1)
	s.pad(big, 7, 7, tile)

	small := GenerateSequence(5*6, 100, 1)
	got := s.pad(small, 5, 6, tile)

	want := make([]float32, 8*8)
	Pad(want, small, 5, 6, tile)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("stale cells after shape change (-want +got):\n%s", diff)
	}
}

func TestDecompose(t *testing.T) {
	cfg := DefaultConfig()
	got := Decompose(Dims{M: 128, N: 256, K: 64}, cfg)
	want := Decomposition{Global: [2]int{128, 16}, Local: [2]int{64, 4}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Decompose (-want +got):\n%s", diff)
	}
}

func TestNewPlan(t *testing.T) {
	cfg := DefaultConfig()
	tests := []struct {
		name string
		dims Dims
		want Plan
	}{
		{
			name: "aligned",
			dims: Dims{M: 64, N: 128, K: 64},
			want: Plan{
				Dims:          Dims{M: 64, N: 128, K: 64},
				Padded:        Dims{M: 64, N: 128, K: 64},
				Decomposition: Decomposition{Global: [2]int{64, 8}, Local: [2]int{64, 4}},
			},
		},
		{
			name: "ragged K only",
			dims: Dims{M: 64, N: 64, K: 10},
			want: Plan{
				Dims:          Dims{M: 64, N: 64, K: 10},
				Padded:        Dims{M: 64, N: 64, K: 64},
				PadA:          true,
				PadB:          true,
				Decomposition: Decomposition{Global: [2]int{64, 4}, Local: [2]int{64, 4}},
			},
		},
		{
			name: "ragged N only",
			dims: Dims{M: 64, N: 65, K: 64},
			want: Plan{
				Dims:          Dims{M: 64, N: 65, K: 64},
				Padded:        Dims{M: 64, N: 128, K: 64},
				PadB:          true,
				PadC:          true,
				Decomposition: Decomposition{Global: [2]int{64, 8}, Local: [2]int{64, 4}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, NewPlan(tt.dims, cfg)); diff != "" {
				t.Errorf("NewPlan(%v) (-want +got):\n%s", tt.dims, diff)
			}
		})
	}
}
