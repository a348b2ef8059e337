// Package tilegemm reference implementations for verification
package tilegemm

import (
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
)

// ReferenceGEMM computes C = A·B for row-major A (m×k), B (k×n) and C (m×n)
// with a plain triple loop. It is slow and obviously correct.
func ReferenceGEMM(a, b, c []float32, m, n, k int) {
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			var sum float32
			for l := 0; l < k; l++ {
				sum += a[i*k+l] * b[l*n+j]
			}
			c[i*n+j] = sum
		}
	}
}

// GonumGEMM computes C = A·B with gonum's blas32, for checking products too
// large for ReferenceGEMM.
func GonumGEMM(a, b, c []float32, m, n, k int) {
	ga := blas32.General{Rows: m, Cols: k, Stride: k, Data: a[:m*k]}
	gb := blas32.General{Rows: k, Cols: n, Stride: n, Data: b[:k*n]}
	gc := blas32.General{Rows: m, Cols: n, Stride: n, Data: c[:m*n]}
	blas32.Gemm(blas.NoTrans, blas.NoTrans, 1, ga, gb, 0, gc)
}
