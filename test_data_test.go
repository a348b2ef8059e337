package tilegemm

import (
	"slices"
	"testing"
)

func TestGenerateFloat32(t *testing.T) {
	data1 := GenerateFloat32(100, 12345)
	data2 := GenerateFloat32(100, 12345)
	if !slices.Equal(data1, data2) {
		t.Error("GenerateFloat32 is not deterministic")
	}

	if slices.Equal(data1, GenerateFloat32(100, 54321)) {
		t.Error("Different seeds should produce different data")
	}

	for i, v := range GenerateFloat32(10000, 1) {
		if v < 0 || v >= 1 {
			t.Fatalf("Value %d out of range [0, 1): %f", i, v)
		}
	}
}

func TestGenerateMatrixFloat32Range(t *testing.T) {
	for i, v := range GenerateMatrixFloat32(50, 40, 42) {
		if v < -1 || v >= 1 {
			t.Fatalf("Value %d out of range [-1, 1): %f", i, v)
		}
	}
}

func TestGenerateIdentityMatrix(t *testing.T) {
	id := GenerateIdentityMatrix(3)
	want := []float32{1, 0, 0, 0, 1, 0, 0, 0, 1}
	if !slices.Equal(id, want) {
		t.Errorf("GenerateIdentityMatrix(3) = %v, want %v", id, want)
	}
}
