package tilegemm

import (
	"testing"
)

// NewEngineOrFail creates an engine and fails the test if unsuccessful. The
// engine is finalized when the test ends.
func NewEngineOrFail(t testing.TB, m, n, k int, opts ...Option) *Engine {
	t.Helper()
	e, err := NewEngine(m, n, k, opts...)
	if err != nil {
		t.Fatalf("NewEngine(%d, %d, %d) failed: %v", m, n, k, err)
	}
	t.Cleanup(func() {
		if err := e.Finalize(); err != nil {
			t.Errorf("Finalize failed: %v", err)
		}
	})
	return e
}

// MultiplyOrFail multiplies and fails the test if unsuccessful
func MultiplyOrFail(t testing.TB, e *Engine, a, b, c []float32, m, n, k int) {
	t.Helper()
	if err := e.Multiply(a, b, c, m, n, k); err != nil {
		t.Fatalf("Multiply(%d, %d, %d) failed: %v", m, n, k, err)
	}
}
