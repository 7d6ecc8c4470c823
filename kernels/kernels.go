// Package kernels implements the low-level Gaussian finite-impulse-response
// filter primitives: kernel coefficient generation and separable 1D/2D/3D
// convolution with mirror boundary conditions.
//
// Mirror boundary condition: an out-of-range index -k-1 reflects to k, and
// size+k reflects to size-k-1, so the signal's edge pixel is duplicated by
// its reflection. Every convolution entry point has a fast streaming form
// and a Small reference twin that rederives each tap per pixel; the two are
// required to agree to within a few ULPs and the Small forms serve as the
// oracle in tests.
//
// Kernels are stored as the non-negative half only: a slice of length hw+1
// holding the center coefficient followed by the right half. The implied
// full kernel has width 2*hw+1.
package kernels

import (
	"math"

	"github.com/photonlab/boxxer/errs"
	"github.com/photonlab/boxxer/img"
)

// Gauss computes the half-kernel of a Gaussian FIR filter at the given
// sigma. The implied full kernel (center + both halves) sums to 1.
func Gauss[T img.Float](sigma T, hw int) []T {
	w := hw + 1
	k := make([]float64, w)
	expNorm := -0.5 / (float64(sigma) * float64(sigma))
	k[0] = 1
	sum := 1.0
	for r := 1; r < w; r++ {
		v := math.Exp(float64(r*r) * expNorm)
		k[r] = v
		sum += 2 * v
	}
	out := make([]T, w)
	for r := range k {
		out[r] = T(k[r] / sum)
	}
	return out
}

// LoG computes the half-kernel of a 1D Laplacian-of-Gaussian (second
// derivative of Gaussian) FIR filter at the given sigma.
//
// The coefficients are not renormalized to a zero-sum response even though
// a true Laplacian integrates to zero; the upstream numerics depend on the
// uncorrected values, so the small positive DC leakage is preserved.
func LoG[T img.Float](sigma T, hw int) []T {
	w := hw + 1
	k := make([]float64, w)
	sigmaNorm := 1 / (float64(sigma) * float64(sigma))
	norm := sigmaNorm / math.Sqrt(2*math.Pi)
	expNorm := -0.5 * sigmaNorm
	k[0] = norm
	for r := 1; r < w; r++ {
		rsq := float64(r * r)
		k[r] = norm * (1 - rsq*sigmaNorm) * math.Exp(rsq*expNorm)
	}
	out := make([]T, w)
	for r := range k {
		out[r] = T(k[r])
	}
	return out
}

// Conv1D convolves data with the half-kernel into fdata, mirroring at both
// ends. Falls back to Conv1DSmall when the signal is not longer than the
// full kernel support.
func Conv1D[T img.Float](data, fdata, kernel []T) {
	hw := len(kernel) - 1
	size := len(data)
	if size <= 2*hw+1 {
		Conv1DSmall(data, fdata, kernel)
		return
	}
	x := 0
	for ; x < hw; x++ { // left mirror region
		val := kernel[0] * data[x]
		for r := 1; r <= x; r++ {
			val += kernel[r] * (data[x-r] + data[x+r])
		}
		for r := x + 1; r <= hw; r++ {
			val += kernel[r] * (data[x+r] + data[r-x-1])
		}
		fdata[x] = val
	}
	for ; x < size-hw; x++ { // main loop
		val := kernel[0] * data[x]
		for r := 1; r <= hw; r++ {
			val += kernel[r] * (data[x-r] + data[x+r])
		}
		fdata[x] = val
	}
	for ; x < size; x++ { // right mirror region
		val := kernel[0] * data[x]
		for r := 1; r <= size-x-1; r++ {
			val += kernel[r] * (data[x-r] + data[x+r])
		}
		for r := size - x; r <= hw; r++ {
			val += kernel[r] * (data[x-r] + data[2*size-r-x-1])
		}
		fdata[x] = val
	}
}

// Conv1DSmall is the direct reference form of Conv1D: every tap is mirrored
// (or dropped, beyond the first mirror copy) independently per pixel. Valid
// for any signal length.
func Conv1DSmall[T img.Float](data, fdata, kernel []T) {
	hw := len(kernel) - 1
	size := len(data)
	for x := 0; x < size; x++ {
		var val T
		for r := -hw; r <= hw; r++ {
			switch {
			case x+r < -size || x+r >= 2*size:
				// beyond the single mirror copy, no contribution
			case x+r < 0:
				val += kernel[-r] * data[-x-r-1]
			case x+r >= size:
				val += kernel[r] * data[2*size-r-x-1]
			case r < 0:
				val += kernel[-r] * data[x+r]
			default:
				val += kernel[r] * data[x+r]
			}
		}
		fdata[x] = val
	}
}

// Conv1DInPlace convolves data in place using a rolling (hw+1) x hw scratch
// table that holds the kernel multiples of not-yet-overwritten input pixels.
// The scheme needs the signal to cover the full kernel support; shorter
// signals are a NumericalError.
func Conv1DInPlace[T img.Float](data, kernel []T) error {
	hw := len(kernel) - 1
	size := len(data)
	if size < 2*hw+1 {
		return errs.Numericalf("signal size %d is too small for kernel half-width %d", size, hw)
	}
	if hw == 0 {
		for i := range data {
			data[i] *= kernel[0]
		}
		return nil
	}
	nr := hw + 1
	buf := make([]T, nr*hw) // buf[j + nr*c] = kernel[j] * original(column c)
	for x := 0; x < hw; x++ {
		for j := 0; j <= hw; j++ {
			buf[j+nr*x] = kernel[j] * data[x]
		}
	}
	// Initial hw elements with mirror boundary conditions. Each tap comes
	// either from buf (already multiplied) or directly from untouched data.
	for x := 0; x < hw; x++ {
		val := kernel[0] * data[x]
		r := 1
		for ; 0 <= x-r && x+r < hw; r++ {
			val += buf[r+nr*(x+r)] + buf[r+nr*(x-r)]
		}
		for ; 0 <= x-r; r++ {
			val += kernel[r]*data[x+r] + buf[r+nr*(x-r)]
		}
		for ; x+r < hw; r++ {
			val += buf[r+nr*(x+r)] + buf[r+nr*(r-x-1)]
		}
		for ; r <= hw; r++ {
			val += kernel[r]*data[x+r] + buf[r+nr*(r-x-1)]
		}
		data[x] = val
	}
	// Bring x = hw .. 2*hw-1 to the main loop's initial condition: each
	// holds the partial sum of taps from columns already consumed.
	for x := hw; x < 2*hw; x++ {
		var val T
		for r := x - hw + 1; r <= hw; r++ {
			val += buf[r+nr*((x-r)%hw)]
		}
		for r := 0; r <= hw; r++ {
			buf[r+nr*(x%hw)] = kernel[r] * data[x]
		}
		data[x] = val
	}
	for x := hw; x < size-hw; x++ { // main loop
		xIdx := x % hw
		xhwVal := buf[hw+nr*xIdx] // value data[x+hw] takes after this iteration
		xVal := buf[nr*xIdx]
		for z := x + 1; z < x+hw; z++ {
			data[z] += buf[(z-x)+nr*xIdx]
		}
		for j := 0; j <= hw; j++ {
			buf[j+nr*xIdx] = kernel[j] * data[x+hw]
		}
		data[x+hw] = xhwVal
		for j := 1; j <= hw; j++ {
			xVal += buf[j+nr*((x+j)%hw)]
		}
		data[x] += xVal
	}
	// Final hw entries: remaining taps mirror off the right edge.
	for x := size - hw; x < size; x++ {
		xIdx := x % hw
		xVal := buf[nr*xIdx]
		r := 1
		for ; x+r < size; r++ {
			xVal += buf[r+nr*((x+r)%hw)]
		}
		for ; r <= hw; r++ {
			xVal += buf[r+nr*((2*size-r-x-1)%hw)]
		}
		for z := x + 1; z < size; z++ {
			data[z] += buf[(z-x)+nr*xIdx]
		}
		data[x] += xVal
	}
	return nil
}
