// Package tilegemm tolerance-based verification for floating-point comparisons
package tilegemm

import (
	"fmt"
	"math"
)

// ToleranceConfig defines tolerance parameters for floating-point comparison
type ToleranceConfig struct {
	// AbsTol is the absolute tolerance for values near zero
	AbsTol float32

	// RelTol is the relative tolerance as a fraction of the larger value
	RelTol float32

	// ULPTol is the maximum allowed difference in ULPs (Units in Last Place)
	ULPTol int
}

// DefaultTolerance returns the tolerance used to check a product against
// the reference: accumulation order differs between the tiled kernel and a
// plain dot product, so errors grow with K.
func DefaultTolerance() ToleranceConfig {
	return ToleranceConfig{
		AbsTol: 1e-5,
		RelTol: 1e-3,
		ULPTol: 16,
	}
}

// StrictTolerance returns strict tolerance configuration for exact products
func StrictTolerance() ToleranceConfig {
	return ToleranceConfig{
		AbsTol: 1e-9,
		RelTol: 1e-7,
		ULPTol: 1,
	}
}

// Float32NearEqual checks if two float32 values are equal within tolerance
func Float32NearEqual(a, b float32, tol ToleranceConfig) bool {
	if math.IsNaN(float64(a)) || math.IsNaN(float64(b)) {
		return math.IsNaN(float64(a)) && math.IsNaN(float64(b))
	}

	// Handles ±0 and equal infinities
	if a == b {
		return true
	}
	if math.IsInf(float64(a), 0) || math.IsInf(float64(b), 0) {
		return false
	}

	diff := math.Abs(float64(a) - float64(b))
	if diff <= float64(tol.AbsTol) {
		return true
	}

	larger := math.Max(math.Abs(float64(a)), math.Abs(float64(b)))
	if diff <= larger*float64(tol.RelTol) {
		return true
	}

	return tol.ULPTol > 0 && Float32ULPDiff(a, b) <= tol.ULPTol
}

// Float32ULPDiff computes the difference in ULPs between two float32 values
func Float32ULPDiff(a, b float32) int {
	aBits := math.Float32bits(a)
	bBits := math.Float32bits(b)

	// Different signs
	if (aBits^bBits)&0x80000000 != 0 {
		return math.MaxInt32
	}

	if aBits > bBits {
		return int(aBits - bBits)
	}
	return int(bBits - aBits)
}

// VerificationResult summarizes an element-wise comparison
type VerificationResult struct {
	MaxAbsError float32
	MaxRelError float32
	MaxULPError int
	NumErrors   int
	TotalItems  int
	FirstError  int // Index of first error, -1 if none
}

// VerifyFloat32Array compares two float32 arrays and returns detailed results
func VerifyFloat32Array(expected, actual []float32, tol ToleranceConfig) VerificationResult {
	result := VerificationResult{
		TotalItems: len(expected),
		FirstError: -1,
	}

	if len(expected) != len(actual) {
		result.NumErrors = len(expected)
		return result
	}

	for i := range expected {
		if Float32NearEqual(expected[i], actual[i], tol) {
			continue
		}
		result.NumErrors++
		if result.FirstError == -1 {
			result.FirstError = i
		}

		absDiff := float32(math.Abs(float64(expected[i]) - float64(actual[i])))
		result.MaxAbsError = max(result.MaxAbsError, absDiff)

		if expected[i] != 0 {
			relDiff := absDiff / float32(math.Abs(float64(expected[i])))
			result.MaxRelError = max(result.MaxRelError, relDiff)
		}

		result.MaxULPError = max(result.MaxULPError, Float32ULPDiff(expected[i], actual[i]))
	}

	return result
}

// MaxRelativeError returns max |expected-actual| / max(|expected|, 1) over
// both arrays, the figure the sgemm command reports.
func MaxRelativeError(expected, actual []float32) float64 {
	var worst float64
	for i := range min(len(expected), len(actual)) {
		diff := math.Abs(float64(expected[i]) - float64(actual[i]))
		worst = max(worst, diff/max(math.Abs(float64(expected[i])), 1))
	}
	return worst
}

// String formats the verification result for display
func (r VerificationResult) String() string {
	if r.NumErrors == 0 {
		return "PASS: All values match within tolerance"
	}

	errorRate := float64(r.NumErrors) / float64(r.TotalItems) * 100
	return fmt.Sprintf("FAIL: %d/%d values differ (%.2f%%)\n"+
		"  Max absolute error: %e\n"+
		"  Max relative error: %e\n"+
		"  Max ULP difference: %d\n"+
		"  First error at index: %d",
		r.NumErrors, r.TotalItems, errorRate,
		r.MaxAbsError, r.MaxRelError, r.MaxULPError,
		r.FirstError)
}
