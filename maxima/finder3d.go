package maxima

import (
	"github.com/photonlab/boxxer/errs"
	"github.com/photonlab/boxxer/img"
)

// Finder3D locates strict local maxima of 3D volumes of a fixed size. In
// addition to the per-row skip buffers it keeps a pair of skip planes that
// carry non-maximality proofs into the next Z slice.
type Finder3D[T img.Float] struct {
	sizeX, sizeY, sizeZ int
	boxsize             int
	maxPeaks            int
	peaks               []Peak3D[T]
	skip, skipNext      []uint8
	plane, planeNext    []uint8
}

// NewFinder3D builds a finder for volumes of the given size. boxsize is
// the neighborhood edge length: odd, at least MinBoxsize, and no larger
// than any volume dimension.
func NewFinder3D[T img.Float](size []int, boxsize int) (*Finder3D[T], error) {
	if len(size) != 3 {
		return nil, errs.ParameterShapef("size has %d elements, want 3", len(size))
	}
	if boxsize < MinBoxsize || boxsize%2 == 0 {
		return nil, errs.ParameterValuef("boxsize must be odd and >= %d, got %d", MinBoxsize, boxsize)
	}
	for _, s := range size {
		if s < boxsize {
			return nil, errs.ParameterValuef("boxsize %d exceeds volume size %v", boxsize, size)
		}
	}
	maxPeaks := size[0] * size[1] * size[2] / 8
	return &Finder3D[T]{
		sizeX:     size[0],
		sizeY:     size[1],
		sizeZ:     size[2],
		boxsize:   boxsize,
		maxPeaks:  maxPeaks,
		peaks:     make([]Peak3D[T], 0, maxPeaks),
		skip:      make([]uint8, size[0]),
		skipNext:  make([]uint8, size[0]),
		plane:     make([]uint8, size[0]*size[1]),
		planeNext: make([]uint8, size[0]*size[1]),
	}, nil
}

// Boxsize returns the neighborhood edge length.
func (f *Finder3D[T]) Boxsize() int { return f.boxsize }

// Find returns the strict local maxima of im over the finder's boxsize
// neighborhood. The returned slice is freshly allocated.
func (f *Finder3D[T]) Find(im *img.Cube[T]) ([]Peak3D[T], error) {
	if err := f.checkSize(im); err != nil {
		return nil, err
	}
	f.peaks = f.peaks[:0]
	var err error
	if f.boxsize == 3 {
		err = f.scan3x3(im)
	} else {
		err = f.scanNxN(im)
	}
	if err != nil {
		return nil, err
	}
	return append([]Peak3D[T](nil), f.peaks...), nil
}

// FindSlow is the brute-force counterpart of Find for boxsize 3.
func (f *Finder3D[T]) FindSlow(im *img.Cube[T]) ([]Peak3D[T], error) {
	if err := f.checkSize(im); err != nil {
		return nil, err
	}
	f.peaks = f.peaks[:0]
	if err := f.scanEdges(im); err != nil {
		return nil, err
	}
	for z := 1; z < f.sizeZ-1; z++ {
		for y := 1; y < f.sizeY-1; y++ {
			for x := 1; x < f.sizeX-1; x++ {
				val := im.At(x, y, z)
				if !neighborhood3x3x3Less(im, x, y, z, val) {
					continue
				}
				if err := f.detect(x, y, z, val); err != nil {
					return nil, err
				}
			}
		}
	}
	return append([]Peak3D[T](nil), f.peaks...), nil
}

// neighborhood3x3x3Less reports whether val strictly dominates all 26
// neighbors of an interior voxel.
func neighborhood3x3x3Less[T img.Float](im *img.Cube[T], x, y, z int, val T) bool {
	for dz := -1; dz <= 1; dz++ {
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 && dz == 0 {
					continue
				}
				if val <= im.At(x+dx, y+dy, z+dz) {
					return false
				}
			}
		}
	}
	return true
}

func (f *Finder3D[T]) checkSize(im *img.Cube[T]) error {
	if im.SizeX != f.sizeX || im.SizeY != f.sizeY || im.SizeZ != f.sizeZ {
		return errs.ParameterShapef("volume is %dx%dx%d, finder wants %dx%dx%d",
			im.SizeX, im.SizeY, im.SizeZ, f.sizeX, f.sizeY, f.sizeZ)
	}
	return nil
}

func (f *Finder3D[T]) detect(x, y, z int, val T) error {
	if len(f.peaks) >= f.maxPeaks {
		return errs.Logicalf("cannot add more maxima, capacity %d", f.maxPeaks)
	}
	f.peaks = append(f.peaks, Peak3D[T]{X: x, Y: y, Z: z, Val: val})
	return nil
}

// scan3x3 runs the boundary pass and then the interior skip-scan. Run
// following along X works as in 2D; pixels dominated by the current value
// are marked ahead in the next row and the next Z plane.
func (f *Finder3D[T]) scan3x3(im *img.Cube[T]) error {
	if err := f.scanEdges(im); err != nil {
		return err
	}
	sizeX, sizeY, sizeZ := f.sizeX, f.sizeY, f.sizeZ
	skip, skipNext := f.skip, f.skipNext
	plane, planeNext := f.plane, f.planeNext
	clear(skip)
	clear(skipNext)
	clear(plane)
	clear(planeNext)
	for z := 1; z < sizeZ-1; z++ {
		for y := 1; y < sizeY-1; y++ {
			for x := 1; x < sizeX-1; x++ {
				if skip[x] != 0 || plane[y*sizeX+x] != 0 {
					continue
				}
				val := im.At(x, y, z)
				if val <= im.At(x+1, y, z) {
					// Increasing trend. Follow it to its end.
					x++
					val = im.At(x, y, z)
					for x < sizeX-1 && val <= im.At(x+1, y, z) {
						x++
						val = im.At(x, y, z)
					}
					if x >= sizeX-1 {
						break
					}
					if val <= im.At(x-1, y, z) {
						continue // flat run tail, not a strict maximum
					}
				} else if val <= im.At(x-1, y, z) {
					continue
				}
				skip[x+1] = 1
				// Next row.
				if val <= im.At(x-1, y+1, z) {
					continue
				}
				skipNext[x-1] = 1
				if val <= im.At(x, y+1, z) {
					continue
				}
				skipNext[x] = 1
				if val <= im.At(x+1, y+1, z) {
					continue
				}
				skipNext[x+1] = 1
				// Next plane.
				if val <= im.At(x-1, y-1, z+1) {
					continue
				}
				planeNext[(y-1)*sizeX+x-1] = 1
				if val <= im.At(x, y-1, z+1) {
					continue
				}
				planeNext[(y-1)*sizeX+x] = 1
				if val <= im.At(x+1, y-1, z+1) {
					continue
				}
				planeNext[(y-1)*sizeX+x+1] = 1
				if val <= im.At(x-1, y, z+1) {
					continue
				}
				planeNext[y*sizeX+x-1] = 1
				if val <= im.At(x, y, z+1) {
					continue
				}
				planeNext[y*sizeX+x] = 1
				if val <= im.At(x+1, y, z+1) {
					continue
				}
				planeNext[y*sizeX+x+1] = 1
				if val <= im.At(x-1, y+1, z+1) {
					continue
				}
				planeNext[(y+1)*sizeX+x-1] = 1
				if val <= im.At(x, y+1, z+1) {
					continue
				}
				planeNext[(y+1)*sizeX+x] = 1
				if val <= im.At(x+1, y+1, z+1) {
					continue
				}
				planeNext[(y+1)*sizeX+x+1] = 1
				// Previous row and previous plane were not recorded.
				if val <= im.At(x-1, y-1, z) || val <= im.At(x, y-1, z) || val <= im.At(x+1, y-1, z) {
					continue
				}
				if val <= im.At(x-1, y-1, z-1) || val <= im.At(x, y-1, z-1) || val <= im.At(x+1, y-1, z-1) ||
					val <= im.At(x-1, y, z-1) || val <= im.At(x, y, z-1) || val <= im.At(x+1, y, z-1) ||
					val <= im.At(x-1, y+1, z-1) || val <= im.At(x, y+1, z-1) || val <= im.At(x+1, y+1, z-1) {
					continue
				}
				if err := f.detect(x, y, z, val); err != nil {
					return err
				}
			}
			clear(skip)
			skip, skipNext = skipNext, skip
		}
		clear(plane)
		plane, planeNext = planeNext, plane
		clear(skip)
	}
	return nil
}

// scanNxN refines the 3x3x3 candidates against the boxsize-wide clipped
// box; any strictly greater sample rejects the candidate.
func (f *Finder3D[T]) scanNxN(im *img.Cube[T]) error {
	if err := f.scan3x3(im); err != nil {
		return err
	}
	k := (f.boxsize - 1) / 2
	kept := f.peaks[:0]
	for _, p := range f.peaks {
		xlo, xhi := clipLow(p.X, k), clipHigh(p.X, k, f.sizeX)
		ylo, yhi := clipLow(p.Y, k), clipHigh(p.Y, k, f.sizeY)
		zlo, zhi := clipLow(p.Z, k), clipHigh(p.Z, k, f.sizeZ)
		ok := true
	ring:
		for z := zlo; z <= zhi; z++ {
			for y := ylo; y <= yhi; y++ {
				for x := xlo; x <= xhi; x++ {
					if im.At(x, y, z) > p.Val {
						ok = false
						break ring
					}
				}
			}
		}
		if ok {
			kept = append(kept, p)
		}
	}
	f.peaks = kept
	return nil
}
