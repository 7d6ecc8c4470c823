// Package maxima finds strict local maxima of 2D images and 3D volumes.
//
// A pixel is a maximum only if it is strictly greater than every other
// pixel of its neighborhood; plateau pixels are never maxima, so two equal
// adjacent peaks suppress each other. The hot path is a skip-scan over the
// interior that follows increasing runs along X and marks pixels proven
// non-maximal in the next row (and, in 3D, the next plane) so they are
// never revisited. Border pixels are handled by a dedicated edge pass that
// clips the neighborhood at the image boundary.
//
// Neighborhood sizes above 3 run the 3x3(x3) scan first and then reject
// candidates with any strictly greater sample in the wider clipped box.
package maxima

import "github.com/photonlab/boxxer/img"

// Peak2D is one detected 2D local maximum.
type Peak2D[T img.Float] struct {
	X, Y int
	Val  T
}

// Peak3D is one detected 3D local maximum.
type Peak3D[T img.Float] struct {
	X, Y, Z int
	Val     T
}

// MinBoxsize is the smallest legal neighborhood edge length.
const MinBoxsize = 3

// CheckPeak2D reports whether (x,y) is a strict local maximum of im over
// the neighborhood-wide box clipped to the image bounds. It is the oracle
// the scan implementations are validated against.
func CheckPeak2D[T img.Float](im *img.Image[T], x, y, neighborhood int) bool {
	k := (neighborhood - 1) / 2
	xlo, xhi := clipLow(x, k), clipHigh(x, k, im.SizeX)
	ylo, yhi := clipLow(y, k), clipHigh(y, k, im.SizeY)
	val := im.At(x, y)
	for j := ylo; j <= yhi; j++ {
		for i := xlo; i <= xhi; i++ {
			if (i != x || j != y) && val <= im.At(i, j) {
				return false
			}
		}
	}
	return true
}

// CheckPeak3D reports whether (x,y,z) is a strict local maximum of im over
// the neighborhood-wide box clipped to the volume bounds.
func CheckPeak3D[T img.Float](im *img.Cube[T], x, y, z, neighborhood int) bool {
	k := (neighborhood - 1) / 2
	xlo, xhi := clipLow(x, k), clipHigh(x, k, im.SizeX)
	ylo, yhi := clipLow(y, k), clipHigh(y, k, im.SizeY)
	zlo, zhi := clipLow(z, k), clipHigh(z, k, im.SizeZ)
	val := im.At(x, y, z)
	for l := zlo; l <= zhi; l++ {
		for j := ylo; j <= yhi; j++ {
			for i := xlo; i <= xhi; i++ {
				if (i != x || j != y || l != z) && val <= im.At(i, j, l) {
					return false
				}
			}
		}
	}
	return true
}

func clipLow(c, k int) int {
	if c <= k {
		return 0
	}
	return c - k
}

func clipHigh(c, k, size int) int {
	if c+k >= size {
		return size - 1
	}
	return c + k
}
