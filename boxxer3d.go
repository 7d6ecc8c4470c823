package boxxer

import (
	"gonum.org/v1/gonum/mat"

	"github.com/photonlab/boxxer/errs"
	"github.com/photonlab/boxxer/filters"
	"github.com/photonlab/boxxer/img"
	"github.com/photonlab/boxxer/internal/parallel"
	"github.com/photonlab/boxxer/maxima"
)

// Boxxer3D is the scale-space blob detector for 3D volumes and stacks of
// volumes. Like Boxxer2D it is read-only after construction.
type Boxxer3D[T img.Float] struct {
	imsize     []int
	sigma      *mat.Dense // 3 x nScales
	nScales    int
	sigmaRatio T
}

// NewBoxxer3D builds a detector for volumes of the given size. sigma is a
// 3 x nScales table with one row per axis.
func NewBoxxer3D[T img.Float](imsize []int, sigma *mat.Dense) (*Boxxer3D[T], error) {
	if len(imsize) != 3 {
		return nil, errs.ParameterShapef("volume size has %d elements, want 3", len(imsize))
	}
	nScales, err := validateSigma(sigma, 3)
	if err != nil {
		return nil, err
	}
	return &Boxxer3D[T]{
		imsize:     append([]int(nil), imsize...),
		sigma:      mat.DenseCopyOf(sigma),
		nScales:    nScales,
		sigmaRatio: DefaultSigmaRatio,
	}, nil
}

// NScales returns the number of scales in the sigma table.
func (b *Boxxer3D[T]) NScales() int { return b.nScales }

// ImSize returns a copy of the volume size.
func (b *Boxxer3D[T]) ImSize() []int { return append([]int(nil), b.imsize...) }

// SigmaRatio returns the DoG inhibit/excite sigma ratio.
func (b *Boxxer3D[T]) SigmaRatio() T { return b.sigmaRatio }

// SetDoGSigmaRatio replaces the sigma ratio used by the DoG pipelines.
func (b *Boxxer3D[T]) SetDoGSigmaRatio(ratio T) error {
	if err := checkSigmaRatio(ratio); err != nil {
		return err
	}
	b.sigmaRatio = ratio
	return nil
}

// MakeImage allocates a volume matching the detector geometry.
func (b *Boxxer3D[T]) MakeImage() *img.Cube[T] {
	return img.NewCube[T](b.imsize[0], b.imsize[1], b.imsize[2])
}

// MakeStack allocates a stack of n volumes.
func (b *Boxxer3D[T]) MakeStack(n int) *img.CubeStack[T] {
	return img.NewCubeStack[T](b.imsize[0], b.imsize[1], b.imsize[2], n)
}

// MakeScaledImage allocates a per-frame scale volume.
func (b *Boxxer3D[T]) MakeScaledImage() *img.ScaledCube[T] {
	return img.NewScaledCube[T](b.imsize[0], b.imsize[1], b.imsize[2], b.nScales)
}

func (b *Boxxer3D[T]) checkCube(im *img.Cube[T]) error {
	if im.SizeX != b.imsize[0] || im.SizeY != b.imsize[1] || im.SizeZ != b.imsize[2] {
		return errs.ParameterShapef("volume is %dx%dx%d, detector wants %dx%dx%d",
			im.SizeX, im.SizeY, im.SizeZ, b.imsize[0], b.imsize[1], b.imsize[2])
	}
	return nil
}

func (b *Boxxer3D[T]) checkStack(im *img.CubeStack[T]) error {
	if im.SizeX != b.imsize[0] || im.SizeY != b.imsize[1] || im.SizeZ != b.imsize[2] {
		return errs.ParameterShapef("stack volumes are %dx%dx%d, detector wants %dx%dx%d",
			im.SizeX, im.SizeY, im.SizeZ, b.imsize[0], b.imsize[1], b.imsize[2])
	}
	return nil
}

func (b *Boxxer3D[T]) checkScaledCube(im *img.Cube[T], fim *img.ScaledCube[T]) error {
	if err := b.checkCube(im); err != nil {
		return err
	}
	if fim.SizeX != b.imsize[0] || fim.SizeY != b.imsize[1] || fim.SizeZ != b.imsize[2] ||
		fim.Scales != b.nScales {
		return errs.ParameterShapef("scaled volume is %dx%dx%dx%d scales, want %dx%dx%dx%d",
			fim.SizeX, fim.SizeY, fim.SizeZ, fim.Scales,
			b.imsize[0], b.imsize[1], b.imsize[2], b.nScales)
	}
	return nil
}

// FilterScaledLoG filters a single volume at every scale with the LoG
// filter. A 3D filter's scratch is large, so the parallel unit is the
// scale and each job builds its filter on the spot.
func (b *Boxxer3D[T]) FilterScaledLoG(im *img.Cube[T], fim *img.ScaledCube[T]) error {
	if err := b.checkScaledCube(im, fim); err != nil {
		return err
	}
	return parallel.Run(b.nScales, func(jobs <-chan int) error {
		for s := range jobs {
			f, err := filters.NewLoG3D(b.imsize, sigmaCol[T](b.sigma, s))
			if err != nil {
				return err
			}
			if err := f.Filter(im, fim.Scale(s)); err != nil {
				return err
			}
		}
		return nil
	})
}

// FilterScaledDoG is FilterScaledLoG with the DoG filter at the current
// sigma ratio.
func (b *Boxxer3D[T]) FilterScaledDoG(im *img.Cube[T], fim *img.ScaledCube[T]) error {
	if err := b.checkScaledCube(im, fim); err != nil {
		return err
	}
	return parallel.Run(b.nScales, func(jobs <-chan int) error {
		for s := range jobs {
			f, err := filters.NewDoG3D(b.imsize, sigmaCol[T](b.sigma, s), b.sigmaRatio)
			if err != nil {
				return err
			}
			if err := f.Filter(im, fim.Scale(s)); err != nil {
				return err
			}
		}
		return nil
	})
}

// ScaleSpaceLoGMaxima runs the full LoG detection pipeline over a stack of
// volumes, with frames as the parallel unit.
func (b *Boxxer3D[T]) ScaleSpaceLoGMaxima(im *img.CubeStack[T], neighborhoodSize, scaleNeighborhoodSize int) ([]Blob3D[T], error) {
	if err := b.checkStack(im); err != nil {
		return nil, err
	}
	frameBlobs := make([][]Blob3D[T], im.Frames)
	err := parallel.Run(im.Frames, func(jobs <-chan int) error {
		scaleFilters := make([]*filters.LoG3D[T], b.nScales)
		for s := range scaleFilters {
			f, err := filters.NewLoG3D(b.imsize, sigmaCol[T](b.sigma, s))
			if err != nil {
				return err
			}
			scaleFilters[s] = f
		}
		finder, err := maxima.NewFinder3D[T](b.imsize, neighborhoodSize)
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
	return combineBlobs3D(frameBlobs), nil
}

// ScaleSpaceDoGMaxima is ScaleSpaceLoGMaxima with the DoG filter.
func (b *Boxxer3D[T]) ScaleSpaceDoGMaxima(im *img.CubeStack[T], neighborhoodSize, scaleNeighborhoodSize int) ([]Blob3D[T], error) {
	if err := b.checkStack(im); err != nil {
		return nil, err
	}
	frameBlobs := make([][]Blob3D[T], im.Frames)
	err := parallel.Run(im.Frames, func(jobs <-chan int) error {
		scaleFilters := make([]*filters.DoG3D[T], b.nScales)
		for s := range scaleFilters {
			f, err := filters.NewDoG3D(b.imsize, sigmaCol[T](b.sigma, s), b.sigmaRatio)
			if err != nil {
				return err
			}
			scaleFilters[s] = f
		}
		finder, err := maxima.NewFinder3D[T](b.imsize, neighborhoodSize)
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
	return combineBlobs3D(frameBlobs), nil
}

// scaleSpaceFrameMaxima finds the per-scale maxima of one filtered volume,
// concatenates them in scale order, and refines across scales.
func (b *Boxxer3D[T]) scaleSpaceFrameMaxima(sim *img.ScaledCube[T], finder *maxima.Finder3D[T], scaleNeighborhoodSize int) ([]Blob3D[T], error) {
	var blobs []Blob3D[T]
	for s := 0; s < b.nScales; s++ {
		peaks, err := finder.Find(sim.Scale(s))
		if err != nil {
			return nil, err
		}
		for _, p := range peaks {
			blobs = append(blobs, Blob3D[T]{X: p.X, Y: p.Y, Z: p.Z, Scale: s, Val: p.Val})
		}
	}
	return b.refineScaleMaxima(sim, blobs, scaleNeighborhoodSize), nil
}

// refineScaleMaxima removes scale maxima dominated by a strictly greater
// sample in the clipped spatial box at any scale.
func (b *Boxxer3D[T]) refineScaleMaxima(sim *img.ScaledCube[T], blobs []Blob3D[T], scaleNeighborhoodSize int) []Blob3D[T] {
	delta := (scaleNeighborhoodSize - 1) / 2
	kept := blobs[:0]
	for _, blob := range blobs {
		xlo, xhi := clipLow(blob.X, delta), clipHigh(blob.X, delta, b.imsize[0])
		ylo, yhi := clipLow(blob.Y, delta), clipHigh(blob.Y, delta, b.imsize[1])
		zlo, zhi := clipLow(blob.Z, delta), clipHigh(blob.Z, delta, b.imsize[2])
		ok := true
	scan:
		for s := 0; s < b.nScales; s++ {
			for z := zlo; z <= zhi; z++ {
				for y := ylo; y <= yhi; y++ {
					for x := xlo; x <= xhi; x++ {
						if sim.At(x, y, z, s) > blob.Val {
							ok = false
							break scan
						}
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
