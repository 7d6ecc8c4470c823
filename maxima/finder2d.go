package maxima

import (
	"github.com/photonlab/boxxer/errs"
	"github.com/photonlab/boxxer/img"
)

// Finder2D locates strict local maxima of 2D images of a fixed size. It
// owns its skip buffers and result storage, so a finder is cheap to reuse
// across frames but must not be shared between goroutines.
type Finder2D[T img.Float] struct {
	sizeX, sizeY int
	boxsize      int
	maxPeaks     int
	peaks        []Peak2D[T]
	skip         []uint8
	skipNext     []uint8
}

// NewFinder2D builds a finder for images of the given size. boxsize is the
// neighborhood edge length: odd, at least MinBoxsize, and no larger than
// either image dimension.
func NewFinder2D[T img.Float](size []int, boxsize int) (*Finder2D[T], error) {
	if len(size) != 2 {
		return nil, errs.ParameterShapef("size has %d elements, want 2", len(size))
	}
	if boxsize < MinBoxsize || boxsize%2 == 0 {
		return nil, errs.ParameterValuef("boxsize must be odd and >= %d, got %d", MinBoxsize, boxsize)
	}
	for _, s := range size {
		if s < boxsize {
			return nil, errs.ParameterValuef("boxsize %d exceeds image size %v", boxsize, size)
		}
	}
	// At most one strict maximum per 2x2 block.
	maxPeaks := size[0] * size[1] / 4
	return &Finder2D[T]{
		sizeX:    size[0],
		sizeY:    size[1],
		boxsize:  boxsize,
		maxPeaks: maxPeaks,
		peaks:    make([]Peak2D[T], 0, maxPeaks),
		skip:     make([]uint8, size[0]),
		skipNext: make([]uint8, size[0]),
	}, nil
}

// Boxsize returns the neighborhood edge length.
func (f *Finder2D[T]) Boxsize() int { return f.boxsize }

// Find returns the strict local maxima of im over the finder's boxsize
// neighborhood. The returned slice is freshly allocated.
func (f *Finder2D[T]) Find(im *img.Image[T]) ([]Peak2D[T], error) {
	if im.SizeX != f.sizeX || im.SizeY != f.sizeY {
		return nil, errs.ParameterShapef("image is %dx%d, finder wants %dx%d",
			im.SizeX, im.SizeY, f.sizeX, f.sizeY)
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
	return append([]Peak2D[T](nil), f.peaks...), nil
}

// FindSlow is the brute-force counterpart of Find for boxsize 3: the edge
// pass plus a full-neighborhood interior scan. It backs the cross checks
// of the skip-scan.
func (f *Finder2D[T]) FindSlow(im *img.Image[T]) ([]Peak2D[T], error) {
	if im.SizeX != f.sizeX || im.SizeY != f.sizeY {
		return nil, errs.ParameterShapef("image is %dx%d, finder wants %dx%d",
			im.SizeX, im.SizeY, f.sizeX, f.sizeY)
	}
	f.peaks = f.peaks[:0]
	if err := f.scanEdges(im); err != nil {
		return nil, err
	}
	for y := 1; y < f.sizeY-1; y++ {
		for x := 1; x < f.sizeX-1; x++ {
			val := im.At(x, y)
			if val <= im.At(x-1, y-1) || val <= im.At(x-1, y) || val <= im.At(x-1, y+1) ||
				val <= im.At(x, y-1) || val <= im.At(x, y+1) ||
				val <= im.At(x+1, y-1) || val <= im.At(x+1, y) || val <= im.At(x+1, y+1) {
				continue
			}
			if err := f.detect(x, y, val); err != nil {
				return nil, err
			}
		}
	}
	return append([]Peak2D[T](nil), f.peaks...), nil
}

func (f *Finder2D[T]) detect(x, y int, val T) error {
	if len(f.peaks) >= f.maxPeaks {
		return errs.Logicalf("cannot add more maxima, capacity %d", f.maxPeaks)
	}
	f.peaks = append(f.peaks, Peak2D[T]{X: x, Y: y, Val: val})
	return nil
}

// scan3x3 runs the edge pass and then the interior skip-scan. Along each
// row an increasing run is followed to its end, since only the run's last
// pixel can be a maximum; every pixel proven smaller than a neighbor in
// the next row is marked in skipNext and never revisited.
func (f *Finder2D[T]) scan3x3(im *img.Image[T]) error {
	if err := f.scanEdges(im); err != nil {
		return err
	}
	sizeX, sizeY := f.sizeX, f.sizeY
	skip, skipNext := f.skip, f.skipNext
	clear(skip)
	clear(skipNext)
	for y := 1; y < sizeY-1; y++ {
		for x := 1; x < sizeX-1; x++ {
			if skip[x] != 0 {
				continue
			}
			val := im.At(x, y)
			if val <= im.At(x+1, y) {
				// Increasing trend. Follow it to its end.
				x++
				val = im.At(x, y)
				for x < sizeX-1 && val <= im.At(x+1, y) {
					x++
					val = im.At(x, y)
				}
				if x >= sizeX-1 {
					break // run ended at the border
				}
				if val <= im.At(x-1, y) {
					continue // flat run tail, not a strict maximum
				}
			} else if val <= im.At(x-1, y) {
				continue
			}
			skip[x+1] = 1 // 1D max, next pixel cannot be one
			// Next row: record everything proven smaller.
			if val <= im.At(x-1, y+1) {
				continue
			}
			skipNext[x-1] = 1
			if val <= im.At(x, y+1) {
				continue
			}
			skipNext[x] = 1
			if val <= im.At(x+1, y+1) {
				continue
			}
			skipNext[x+1] = 1
			// Previous row was not recorded, check it directly.
			if val <= im.At(x-1, y-1) || val <= im.At(x, y-1) || val <= im.At(x+1, y-1) {
				continue
			}
			if err := f.detect(x, y, val); err != nil {
				return err
			}
		}
		clear(skip)
		skip, skipNext = skipNext, skip
	}
	return nil
}

// scanNxN refines the 3x3 candidates: any strictly greater sample in the
// boxsize-wide clipped box rejects the candidate. Equal samples outside
// the verified 3x3 core do not reject.
func (f *Finder2D[T]) scanNxN(im *img.Image[T]) error {
	if err := f.scan3x3(im); err != nil {
		return err
	}
	k := (f.boxsize - 1) / 2
	kept := f.peaks[:0]
	for _, p := range f.peaks {
		xlo, xhi := clipLow(p.X, k), clipHigh(p.X, k, f.sizeX)
		ylo, yhi := clipLow(p.Y, k), clipHigh(p.Y, k, f.sizeY)
		ok := true
	ring:
		for y := ylo; y <= yhi; y++ {
			for x := xlo; x <= xhi; x++ {
				if im.At(x, y) > p.Val {
					ok = false
					break ring
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

// scanEdges checks the four corners and four borders, clipping the 3x3
// neighborhood at the image boundary.
func (f *Finder2D[T]) scanEdges(im *img.Image[T]) error {
	sizeX, sizeY := f.sizeX, f.sizeY
	x, y := 0, 0
	// Corner (0,0).
	val := im.At(x, y)
	if val > im.At(x, y+1) && val > im.At(x+1, y) && val > im.At(x+1, y+1) {
		if err := f.detect(x, y, val); err != nil {
			return err
		}
	}
	// Border y=0.
	for x = 1; x < sizeX-1; x++ {
		val = im.At(x, y)
		if val > im.At(x-1, y) && val > im.At(x+1, y) &&
			val > im.At(x-1, y+1) && val > im.At(x, y+1) && val > im.At(x+1, y+1) {
			if err := f.detect(x, y, val); err != nil {
				return err
			}
		}
	}
	// Corner (sizeX-1,0).
	val = im.At(x, y)
	if val > im.At(x, y+1) && val > im.At(x-1, y) && val > im.At(x-1, y+1) {
		if err := f.detect(x, y, val); err != nil {
			return err
		}
	}
	// Border x=sizeX-1.
	for y = 1; y < sizeY-1; y++ {
		val = im.At(x, y)
		if val > im.At(x, y-1) && val > im.At(x, y+1) &&
			val > im.At(x-1, y-1) && val > im.At(x-1, y) && val > im.At(x-1, y+1) {
			if err := f.detect(x, y, val); err != nil {
				return err
			}
		}
	}
	// Corner (sizeX-1,sizeY-1).
	val = im.At(x, y)
	if val > im.At(x, y-1) && val > im.At(x-1, y) && val > im.At(x-1, y-1) {
		if err := f.detect(x, y, val); err != nil {
			return err
		}
	}
	// Border y=sizeY-1.
	for x = sizeX - 2; x >= 1; x-- {
		val = im.At(x, y)
		if val > im.At(x-1, y) && val > im.At(x+1, y) &&
			val > im.At(x-1, y-1) && val > im.At(x, y-1) && val > im.At(x+1, y-1) {
			if err := f.detect(x, y, val); err != nil {
				return err
			}
		}
	}
	// Corner (0,sizeY-1).
	val = im.At(x, y)
	if val > im.At(x, y-1) && val > im.At(x+1, y) && val > im.At(x+1, y-1) {
		if err := f.detect(x, y, val); err != nil {
			return err
		}
	}
	// Border x=0.
	for y = sizeY - 2; y >= 1; y-- {
		val = im.At(x, y)
		if val > im.At(x, y-1) && val > im.At(x, y+1) &&
			val > im.At(x+1, y-1) && val > im.At(x+1, y) && val > im.At(x+1, y+1) {
			if err := f.detect(x, y, val); err != nil {
				return err
			}
		}
	}
	return nil
}
