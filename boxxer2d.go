package boxxer

import (
	"gonum.org/v1/gonum/mat"

	"github.com/photonlab/boxxer/errs"
	"github.com/photonlab/boxxer/filters"
	"github.com/photonlab/boxxer/img"
	"github.com/photonlab/boxxer/internal/parallel"
	"github.com/photonlab/boxxer/maxima"
)

// Boxxer2D is the scale-space blob detector for stacks of 2D frames. It is
// a read-only configuration once built; the per-worker filter and finder
// state is created inside each pipeline call, so one Boxxer2D may be used
// from multiple goroutines.
type Boxxer2D[T img.Float] struct {
	imsize     []int
	sigma      *mat.Dense // 2 x nScales
	nScales    int
	sigmaRatio T
}

// NewBoxxer2D builds a detector for frames of the given size. sigma is a
// 2 x nScales table: row 0 holds the X sigma of each scale, row 1 the Y
// sigma.
func NewBoxxer2D[T img.Float](imsize []int, sigma *mat.Dense) (*Boxxer2D[T], error) {
	if len(imsize) != 2 {
		return nil, errs.ParameterShapef("image size has %d elements, want 2", len(imsize))
	}
	nScales, err := validateSigma(sigma, 2)
	if err != nil {
		return nil, err
	}
	return &Boxxer2D[T]{
		imsize:     append([]int(nil), imsize...),
		sigma:      mat.DenseCopyOf(sigma),
		nScales:    nScales,
		sigmaRatio: DefaultSigmaRatio,
	}, nil
}

// NScales returns the number of scales in the sigma table.
func (b *Boxxer2D[T]) NScales() int { return b.nScales }

// ImSize returns a copy of the frame size.
func (b *Boxxer2D[T]) ImSize() []int { return append([]int(nil), b.imsize...) }

// SigmaRatio returns the DoG inhibit/excite sigma ratio.
func (b *Boxxer2D[T]) SigmaRatio() T { return b.sigmaRatio }

// SetDoGSigmaRatio replaces the sigma ratio used by the DoG pipelines.
func (b *Boxxer2D[T]) SetDoGSigmaRatio(ratio T) error {
	if err := checkSigmaRatio(ratio); err != nil {
		return err
	}
	b.sigmaRatio = ratio
	return nil
}

// MakeImage allocates a frame matching the detector geometry.
func (b *Boxxer2D[T]) MakeImage() *img.Image[T] {
	return img.NewImage[T](b.imsize[0], b.imsize[1])
}

// MakeStack allocates a stack of n frames.
func (b *Boxxer2D[T]) MakeStack(n int) *img.Stack[T] {
	return img.NewStack[T](b.imsize[0], b.imsize[1], n)
}

// MakeScaledImage allocates a per-frame scale volume.
func (b *Boxxer2D[T]) MakeScaledImage() *img.ScaledImage[T] {
	return img.NewScaledImage[T](b.imsize[0], b.imsize[1], b.nScales)
}

// MakeScaledStack allocates a scale volume for each of n frames.
func (b *Boxxer2D[T]) MakeScaledStack(n int) *img.ScaledStack[T] {
	return img.NewScaledStack[T](b.imsize[0], b.imsize[1], b.nScales, n)
}

func (b *Boxxer2D[T]) checkStack(im *img.Stack[T]) error {
	if im.SizeX != b.imsize[0] || im.SizeY != b.imsize[1] {
		return errs.ParameterShapef("stack frames are %dx%d, detector wants %dx%d",
			im.SizeX, im.SizeY, b.imsize[0], b.imsize[1])
	}
	return nil
}

func (b *Boxxer2D[T]) checkScaledStack(im *img.Stack[T], fim *img.ScaledStack[T]) error {
	if err := b.checkStack(im); err != nil {
		return err
	}
	if fim.SizeX != b.imsize[0] || fim.SizeY != b.imsize[1] ||
		fim.Scales != b.nScales || fim.Frames != im.Frames {
		return errs.ParameterShapef("scaled stack is %dx%dx%d scales x%d frames, want %dx%dx%d x%d",
			fim.SizeX, fim.SizeY, fim.Scales, fim.Frames,
			b.imsize[0], b.imsize[1], b.nScales, im.Frames)
	}
	return nil
}

// FilterScaledLoG filters every frame of im at every scale with the LoG
// filter, into fim. Frames run in parallel; each worker owns one filter
// per scale.
func (b *Boxxer2D[T]) FilterScaledLoG(im *img.Stack[T], fim *img.ScaledStack[T]) error {
	if err := b.checkScaledStack(im, fim); err != nil {
		return err
	}
	return parallel.Run(im.Frames, func(jobs <-chan int) error {
		scaleFilters := make([]*filters.LoG2D[T], b.nScales)
		for s := range scaleFilters {
			f, err := filters.NewLoG2D(b.imsize, sigmaCol[T](b.sigma, s))
			if err != nil {
				return err
			}
			scaleFilters[s] = f
		}
		for n := range jobs {
			frame := im.Frame(n)
			out := fim.Frame(n)
			for s := 0; s < b.nScales; s++ {
				if err := scaleFilters[s].Filter(frame, out.Scale(s)); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// FilterScaledDoG is FilterScaledLoG with the DoG filter at the current
// sigma ratio.
func (b *Boxxer2D[T]) FilterScaledDoG(im *img.Stack[T], fim *img.ScaledStack[T]) error {
	if err := b.checkScaledStack(im, fim); err != nil {
		return err
	}
	return parallel.Run(im.Frames, func(jobs <-chan int) error {
		scaleFilters := make([]*filters.DoG2D[T], b.nScales)
		for s := range scaleFilters {
			f, err := filters.NewDoG2D(b.imsize, sigmaCol[T](b.sigma, s), b.sigmaRatio)
			if err != nil {
				return err
			}
			scaleFilters[s] = f
		}
		for n := range jobs {
			frame := im.Frame(n)
			out := fim.Frame(n)
			for s := 0; s < b.nScales; s++ {
				if err := scaleFilters[s].Filter(frame, out.Scale(s)); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// ScaleSpaceLoGMaxima runs the full LoG detection pipeline: each frame is
// filtered at every scale, per-scale maxima are found over the
// neighborhoodSize box and then refined across scales over the
// scaleNeighborhoodSize spatial box. Frames are filtered and scanned one
// at a time per worker to bound memory.
func (b *Boxxer2D[T]) ScaleSpaceLoGMaxima(im *img.Stack[T], neighborhoodSize, scaleNeighborhoodSize int) ([]Blob2D[T], error) {
	if err := b.checkStack(im); err != nil {
		return nil, err
	}
	frameBlobs := make([][]Blob2D[T], im.Frames)
	err := parallel.Run(im.Frames, func(jobs <-chan int) error {
		scaleFilters := make([]*filters.LoG2D[T], b.nScales)
		for s := range scaleFilters {
			f, err := filters.NewLoG2D(b.imsize, sigmaCol[T](b.sigma, s))
			if err != nil {
				return err
			}
			scaleFilters[s] = f
		}
		finder, err := maxima.NewFinder2D[T](b.imsize, neighborhoodSize)
		if err != nil {
			return err
		}
		sim := b.MakeScaledImage()
		for n := range jobs {
			frame := im.Frame(n)
			for s := 0; s < b.nScales; s++ {
				if err := scaleFilters[s].Filter(frame, sim.Scale(s)); err != nil {
					return err
				}
			}
			blobs, err := b.scaleSpaceFrameMaxima(sim, finder, scaleNeighborhoodSize)
			if err != nil {
				return err
			}
			frameBlobs[n] = blobs
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return combineBlobs2D(frameBlobs), nil
}

// ScaleSpaceDoGMaxima is ScaleSpaceLoGMaxima with the DoG filter.
func (b *Boxxer2D[T]) ScaleSpaceDoGMaxima(im *img.Stack[T], neighborhoodSize, scaleNeighborhoodSize int) ([]Blob2D[T], error) {
	if err := b.checkStack(im); err != nil {
		return nil, err
	}
	frameBlobs := make([][]Blob2D[T], im.Frames)
	err := parallel.Run(im.Frames, func(jobs <-chan int) error {
		scaleFilters := make([]*filters.DoG2D[T], b.nScales)
		for s := range scaleFilters {
			f, err := filters.NewDoG2D(b.imsize, sigmaCol[T](b.sigma, s), b.sigmaRatio)
			if err != nil {
				return err
			}
			scaleFilters[s] = f
		}
		finder, err := maxima.NewFinder2D[T](b.imsize, neighborhoodSize)
		if err != nil {
			return err
		}
		sim := b.MakeScaledImage()
		for n := range jobs {
			frame := im.Frame(n)
			for s := 0; s < b.nScales; s++ {
				if err := scaleFilters[s].Filter(frame, sim.Scale(s)); err != nil {
					return err
				}
			}
			blobs, err := b.scaleSpaceFrameMaxima(sim, finder, scaleNeighborhoodSize)
			if err != nil {
				return err
			}
			frameBlobs[n] = blobs
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return combineBlobs2D(frameBlobs), nil
}

// scaleSpaceFrameMaxima finds the per-scale maxima of one filtered frame,
// concatenates them in scale order, and refines across scales.
func (b *Boxxer2D[T]) scaleSpaceFrameMaxima(sim *img.ScaledImage[T], finder *maxima.Finder2D[T], scaleNeighborhoodSize int) ([]Blob2D[T], error) {
	var blobs []Blob2D[T]
	for s := 0; s < b.nScales; s++ {
		peaks, err := finder.Find(sim.Scale(s))
		if err != nil {
			return nil, err
		}
		for _, p := range peaks {
			blobs = append(blobs, Blob2D[T]{X: p.X, Y: p.Y, Scale: s, Val: p.Val})
		}
	}
	return b.refineScaleMaxima(sim, blobs, scaleNeighborhoodSize), nil
}

// refineScaleMaxima removes scale maxima dominated by a strictly greater
// sample in the scaleNeighborhoodSize-wide spatial box at any scale. The
// box is clipped at the frame boundary; equal samples do not reject, so a
// blob survives against its own response at other scales unless one is
// actually larger.
func (b *Boxxer2D[T]) refineScaleMaxima(sim *img.ScaledImage[T], blobs []Blob2D[T], scaleNeighborhoodSize int) []Blob2D[T] {
	delta := (scaleNeighborhoodSize - 1) / 2
	kept := blobs[:0]
	for _, blob := range blobs {
		xlo, xhi := clipLow(blob.X, delta), clipHigh(blob.X, delta, b.imsize[0])
		ylo, yhi := clipLow(blob.Y, delta), clipHigh(blob.Y, delta, b.imsize[1])
		ok := true
	scan:
		for s := 0; s < b.nScales; s++ {
			for y := ylo; y <= yhi; y++ {
				for x := xlo; x <= xhi; x++ {
					if sim.At(x, y, s) > blob.Val {
						ok = false
						break scan
					}
				}
			}
		}
		if ok {
			kept = append(kept, blob)
		}
	}
	return kept
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
