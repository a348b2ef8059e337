package tilegemm

// PaddedSize rounds n up to the next multiple of tile.
func PaddedSize(n, tile int) int {
	return (n + tile - 1) / tile * tile
}

// NeedsPadding reports whether a rows×cols matrix is not already tile-aligned
// in both dimensions.
func NeedsPadding(rows, cols, tile int) bool {
	return rows != PaddedSize(rows, tile) || cols != PaddedSize(cols, tile)
}

// Pad copies a dense rows×cols matrix into dst, whose rows are cols rounded
// up to tile. Cells of dst outside the copied region are left as they are,
// so a zeroed dst yields zero padding. dst must hold rows×PaddedSize(cols).
func Pad(dst, src []float32, rows, cols, tile int) {
	stride := PaddedSize(cols, tile)
	for r := 0; r < rows; r++ {
		copy(dst[r*stride:r*stride+cols], src[r*cols:(r+1)*cols])
	}
}

// Unpad is the inverse of Pad: it packs the first cols columns of each of
// rows tile-strided rows of src into dst.
func Unpad(dst, src []float32, rows, cols, tile int) {
	stride := PaddedSize(cols, tile)
	for r := 0; r < rows; r++ {
		copy(dst[r*cols:(r+1)*cols], src[r*stride:r*stride+cols])
	}
}
