// Package filters provides the separable Gaussian filter family used for
// blob detection: plain Gaussian smoothing, difference-of-Gaussians (DoG)
// and Laplacian-of-Gaussian (LoG) band-pass filters, in 2D and 3D.
//
// A filter object is sized for a fixed image geometry at construction and
// owns its kernels and scratch buffers, so it is cheap to apply repeatedly
// to frames of a stack but must not be shared between goroutines. Parallel
// pipelines construct one filter per worker.
//
// Each filter has a Filter method (the fast streaming convolutions) and a
// FilterRef method running the per-tap reference convolutions in the same
// axis order. The two paths agree to within a few ULPs and FilterRef backs
// the equivalence tests.
package filters

import (
	"math"

	"github.com/photonlab/boxxer/errs"
	"github.com/photonlab/boxxer/img"
)

// DefaultSigmaHWRatio sets the default kernel half-width as a multiple of
// sigma: hw = ceil(DefaultSigmaHWRatio * sigma). Three sigmas carry >99.7%
// of the Gaussian mass.
const DefaultSigmaHWRatio = 3.0

// config carries the geometry shared by every filter type: dimensionality,
// image size, per-axis sigma and kernel half-widths.
type config[T img.Float] struct {
	dim   int
	size  []int
	sigma []T
	hw    []int
}

func newConfig[T img.Float](dim int, size []int, sigma []T) (config[T], error) {
	var zero config[T]
	if dim < 1 || dim > 3 {
		return zero, errs.ParameterValuef("bad dim: %d", dim)
	}
	if len(size) != dim {
		return zero, errs.ParameterShapef("size has %d elements, want %d", len(size), dim)
	}
	for _, s := range size {
		if s <= 0 {
			return zero, errs.ParameterValuef("bad size: %v", size)
		}
	}
	if len(sigma) != dim {
		return zero, errs.ParameterShapef("sigma has %d elements, want %d", len(sigma), dim)
	}
	for _, s := range sigma {
		if !(s > 0) {
			return zero, errs.ParameterValuef("bad sigma: %v", sigma)
		}
	}
	return config[T]{
		dim:   dim,
		size:  append([]int(nil), size...),
		sigma: append([]T(nil), sigma...),
	}, nil
}

// defaultHW derives per-axis kernel half-widths from sigma.
func (c *config[T]) defaultHW() []int {
	hw := make([]int, c.dim)
	for d, s := range c.sigma {
		hw[d] = int(math.Ceil(DefaultSigmaHWRatio * float64(s)))
	}
	return hw
}

func (c *config[T]) setHW(hw []int) error {
	if len(hw) != c.dim {
		return errs.ParameterShapef("kernel half-width has %d elements, want %d", len(hw), c.dim)
	}
	for _, h := range hw {
		if h <= 0 {
			return errs.ParameterValuef("bad kernel half-width: %v", hw)
		}
	}
	c.hw = append([]int(nil), hw...)
	return nil
}

// Dim returns the filter dimensionality.
func (c *config[T]) Dim() int { return c.dim }

// Size returns a copy of the image size the filter was built for.
func (c *config[T]) Size() []int { return append([]int(nil), c.size...) }

// Sigma returns a copy of the per-axis sigmas.
func (c *config[T]) Sigma() []T { return append([]T(nil), c.sigma...) }

// KernelHW returns a copy of the per-axis kernel half-widths.
func (c *config[T]) KernelHW() []int { return append([]int(nil), c.hw...) }

func (c *config[T]) checkImage(in, out *img.Image[T]) error {
	if in.SizeX != c.size[0] || in.SizeY != c.size[1] {
		return errs.ParameterShapef("image is %dx%d, filter wants %dx%d",
			in.SizeX, in.SizeY, c.size[0], c.size[1])
	}
	if !in.SameSize(out) {
		return errs.ParameterShapef("output is %dx%d, want %dx%d",
			out.SizeX, out.SizeY, in.SizeX, in.SizeY)
	}
	return nil
}

func (c *config[T]) checkCube(in, out *img.Cube[T]) error {
	if in.SizeX != c.size[0] || in.SizeY != c.size[1] || in.SizeZ != c.size[2] {
		return errs.ParameterShapef("volume is %dx%dx%d, filter wants %dx%dx%d",
			in.SizeX, in.SizeY, in.SizeZ, c.size[0], c.size[1], c.size[2])
	}
	if !in.SameSize(out) {
		return errs.ParameterShapef("output is %dx%dx%d, want %dx%dx%d",
			out.SizeX, out.SizeY, out.SizeZ, in.SizeX, in.SizeY, in.SizeZ)
	}
	return nil
}

func checkSigmaRatio[T img.Float](ratio T) error {
	if !(ratio > 1) {
		return errs.ParameterValuef("bad sigma ratio: %v", ratio)
	}
	return nil
}

func sub[T img.Float](dst, src []T) {
	for i := range dst {
		dst[i] -= src[i]
	}
}

func add[T img.Float](dst, src []T) {
	for i := range dst {
		dst[i] += src[i]
	}
}
