package tilegemm

import (
	"fmt"
	"testing"

	"github.com/LynnColeArt/tilegemm/accel/host"
)

// Benchmark Multiply on the host runtime, aligned and ragged
func BenchmarkMultiply(b *testing.B) {
	sizes := [][3]int{
		{64, 64, 64},
		{128, 128, 128},
		{256, 256, 256},
		{65, 70, 33},
		{200, 200, 200},
	}

	for _, s := range sizes {
		m, n, k := s[0], s[1], s[2]
		b.Run(fmt.Sprintf("%dx%dx%d", m, n, k), func(b *testing.B) {
			e := NewEngineOrFail(b, m, n, k, WithRuntime(host.Name))
			a := GenerateMatrixFloat32(m, k, 1)
			bm := GenerateMatrixFloat32(k, n, 2)
			c := make([]float32, m*n)

			b.SetBytes(int64(4 * (m*k + k*n + m*n)))
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				MultiplyOrFail(b, e, a, bm, c, m, n, k)
			}
			b.StopTimer()

			timePerOp := b.Elapsed().Seconds() / float64(b.N)
			b.ReportMetric(2*float64(m)*float64(n)*float64(k)/timePerOp/1e9, "GFLOPS")
		})
	}
}

// Benchmark the host padding copy alone
func BenchmarkPad(b *testing.B) {
	const rows, cols, tile = 1000, 1000, TileWidth
	src := GenerateMatrixFloat32(rows, cols, 3)
	dst := make([]float32, PaddedSize(rows, tile)*PaddedSize(cols, tile))

	b.SetBytes(int64(rows * cols * 4))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Pad(dst, src, rows, cols, tile)
	}
}
