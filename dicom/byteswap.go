package dicom

import "github.com/caio-sobreiro/pacs/internal/simd"

// strideFor returns the element width (in bytes) the big-endian swap must
// use for vr, and whether vr is swapped at all. String VRs are never
// swapped; numeric VRs swap at their natural width; bulk VRs (OW/OL/OF/OD)
// swap by element width rather than as one big word.
func strideFor(vr string) (stride int, swap bool) {
	switch vr {
	case "US", "SS", "OW":
		return 2, true
	case "UL", "SL", "FL", "AT", "OL", "OF":
		return 4, true
	case "FD", "OD", "OV", "SV", "UV":
		return 8, true
	default:
		return 0, false
	}
}

// SwapToBigEndian converts a little-endian value buffer for vr into its
// big-endian wire form, swapping at the VR's stride width via the cached
// SIMD-capable dispatcher. It is its own inverse: SwapFromBigEndian undoes
// it exactly (the endian involution property).
func SwapToBigEndian(vr string, b []byte) ([]byte, error) {
	return swapStride(vr, b)
}

// SwapFromBigEndian converts a big-endian wire value for vr back to
// little-endian. Byte-swapping at a fixed stride is its own inverse, so
// this calls the same routine as SwapToBigEndian.
func SwapFromBigEndian(vr string, b []byte) ([]byte, error) {
	return swapStride(vr, b)
}

func swapStride(vr string, b []byte) ([]byte, error) {
	stride, swap := strideFor(vr)
	if !swap {
		return b, nil
	}
	if len(b)%stride != 0 {
		return nil, newInvalidLengthError(vr, len(b), stride)
	}
	return simd.SwapStride(stride, b), nil
}
