// Package boxxer detects diffraction-limited spots (blobs) in 2D and 3D
// fluorescence microscopy image stacks by multi-scale Laplacian-of-Gaussian
// or difference-of-Gaussians filtering followed by scale-space maxima
// finding.
//
// Coordinates follow the column-major "X = rows" convention of package img:
// a detected blob reports (x, y[, z]) in that layout plus the scale index
// it was detected at and the frame it came from. Frames of a stack are
// independent and processed in parallel; results are concatenated in frame
// order, and within a frame in scale order, so output is deterministic
// regardless of worker scheduling.
//
// Sigma scale tables are dim x nScales gonum matrices: row d holds the
// sigma for axis d at each scale, mirroring the acquisition pipeline's
// calibration tables.
package boxxer

import (
	"gonum.org/v1/gonum/mat"

	"github.com/photonlab/boxxer/errs"
	"github.com/photonlab/boxxer/img"
)

// DefaultSigmaRatio is the default DoG inhibit/excite sigma ratio.
const DefaultSigmaRatio = 1.1

// Blob2D is a detected 2D blob: spatial position, detection scale index,
// source frame, and the filter response at the detection point.
type Blob2D[T img.Float] struct {
	X, Y  int
	Scale int
	Frame int
	Val   T
}

// Blob3D is a detected 3D blob.
type Blob3D[T img.Float] struct {
	X, Y, Z int
	Scale   int
	Frame   int
	Val     T
}

// StackMax2D is a single-scale local maximum of one frame of a 2D stack.
type StackMax2D[T img.Float] struct {
	X, Y  int
	Frame int
	Val   T
}

// StackMax3D is a single-scale local maximum of one frame of a 3D stack.
type StackMax3D[T img.Float] struct {
	X, Y, Z int
	Frame   int
	Val     T
}

// sigmaCol extracts column s of a sigma table as the element type.
func sigmaCol[T img.Float](sigma *mat.Dense, s int) []T {
	rows, _ := sigma.Dims()
	col := make([]T, rows)
	for d := 0; d < rows; d++ {
		col[d] = T(sigma.At(d, s))
	}
	return col
}

// validateSigma checks a dim x nScales sigma table and returns nScales.
func validateSigma(sigma *mat.Dense, dim int) (int, error) {
	rows, nScales := sigma.Dims()
	if nScales < 1 {
		return 0, errs.ParameterValuef("non-positive number of scales: %d", nScales)
	}
	if rows != dim {
		return 0, errs.ParameterShapef("sigma table has %d rows, want dim=%d", rows, dim)
	}
	for d := 0; d < rows; d++ {
		for s := 0; s < nScales; s++ {
			if !(sigma.At(d, s) > 0) {
				return 0, errs.ParameterValuef("bad sigma at (%d,%d): %v", d, s, sigma.At(d, s))
			}
		}
	}
	return nScales, nil
}

func checkSigmaRatio[T img.Float](ratio T) error {
	if ratio <= 1 {
		return errs.ParameterValuef("bad sigma ratio: %v", ratio)
	}
	return nil
}

// combineBlobs2D concatenates per-frame results, tagging the frame index.
func combineBlobs2D[T img.Float](frameBlobs [][]Blob2D[T]) []Blob2D[T] {
	total := 0
	for _, fb := range frameBlobs {
		total += len(fb)
	}
	out := make([]Blob2D[T], 0, total)
	for n, fb := range frameBlobs {
		for _, b := range fb {
			b.Frame = n
			out = append(out, b)
		}
	}
	return out
}

func combineBlobs3D[T img.Float](frameBlobs [][]Blob3D[T]) []Blob3D[T] {
	total := 0
	for _, fb := range frameBlobs {
		total += len(fb)
	}
	out := make([]Blob3D[T], 0, total)
	for n, fb := range frameBlobs {
		for _, b := range fb {
			b.Frame = n
			out = append(out, b)
		}
	}
	return out
}
