package tilegemm

// GenerateFloat32 generates deterministic float32 test data using a linear
// congruential generator (LCG). This ensures reproducible runs.
//
// Example:
//
//	data := GenerateFloat32(1024, 12345)
func GenerateFloat32(size int, seed uint64) []float32 {
	data := make([]float32, size)
	rng := seed
	for i := range data {
		rng = rng*1103515245 + 12345 // LCG parameters from Numerical Recipes
		data[i] = float32(rng>>40) / (1 << 24) // top 24 bits, exact in [0, 1)
	}
	return data
}

// GenerateFloat32Range generates deterministic float32 data in [lo, hi).
func GenerateFloat32Range(size int, seed uint64, lo, hi float32) []float32 {
	data := GenerateFloat32(size, seed)
	scale := hi - lo
	for i := range data {
		data[i] = data[i]*scale + lo
	}
	return data
}

// GenerateMatrixFloat32 generates a deterministic rows×cols matrix in
// row-major order with values in [-1, 1).
func GenerateMatrixFloat32(rows, cols int, seed uint64) []float32 {
	return GenerateFloat32Range(rows*cols, seed, -1, 1)
}

// GenerateIdentityMatrix generates an identity matrix of the specified size.
func GenerateIdentityMatrix(size int) []float32 {
	data := make([]float32, size*size)
	for i := 0; i < size; i++ {
		data[i*size+i] = 1.0
	}
	return data
}

// TestMatrixSizes returns {M, N, K} shapes covering aligned, ragged and
// degenerate multiplications.
func TestMatrixSizes() [][3]int {
	return [][3]int{
		{64, 64, 64},    // Single tile
		{128, 128, 128}, // Aligned
		{128, 256, 64},  // Wide
		{256, 128, 64},  // Tall
		{65, 70, 33},    // Ragged in every dimension
		{1, 1, 1},       // Scalar
		{1, 130, 64},    // Vector-matrix
		{130, 1, 64},    // Matrix-vector
	}
}

// GenerateSequence generates a simple arithmetic sequence for debugging.
//
// Example:
//
//	data := GenerateSequence(10, 0, 2) // [0, 2, 4, 6, 8, 10, 12, 14, 16, 18]
func GenerateSequence(size int, start, step float32) []float32 {
	data := make([]float32, size)
	for i := range data {
		data[i] = start + float32(i)*step
	}
	return data
}
