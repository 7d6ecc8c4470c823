package boxxer

import (
	"github.com/photonlab/boxxer/errs"
	"github.com/photonlab/boxxer/filters"
	"github.com/photonlab/boxxer/img"
	"github.com/photonlab/boxxer/internal/parallel"
	"github.com/photonlab/boxxer/maxima"
)

// Single-scale stack utilities. These do not need a detector object: they
// filter or scan every frame of a stack at one sigma, frames in parallel
// with per-worker filter state.

func checkStackPair[T img.Float](im, fim *img.Stack[T]) error {
	if im.SizeX != fim.SizeX || im.SizeY != fim.SizeY || im.Frames != fim.Frames {
		return errs.ParameterShapef("stacks differ: %dx%dx%d vs %dx%dx%d",
			im.SizeX, im.SizeY, im.Frames, fim.SizeX, fim.SizeY, fim.Frames)
	}
	return nil
}

func checkCubeStackPair[T img.Float](im, fim *img.CubeStack[T]) error {
	if im.SizeX != fim.SizeX || im.SizeY != fim.SizeY || im.SizeZ != fim.SizeZ || im.Frames != fim.Frames {
		return errs.ParameterShapef("stacks differ: %dx%dx%dx%d vs %dx%dx%dx%d",
			im.SizeX, im.SizeY, im.SizeZ, im.Frames, fim.SizeX, fim.SizeY, fim.SizeZ, fim.Frames)
	}
	return nil
}

// FilterLoG filters every frame of a 2D stack with a LoG filter at the
// given per-axis sigma.
func FilterLoG[T img.Float](im, fim *img.Stack[T], sigma []T) error {
	if err := checkStackPair(im, fim); err != nil {
		return err
	}
	size := []int{im.SizeX, im.SizeY}
	return parallel.Run(im.Frames, func(jobs <-chan int) error {
		f, err := filters.NewLoG2D(size, sigma)
		if err != nil {
			return err
		}
		for n := range jobs {
			if err := f.Filter(im.Frame(n), fim.Frame(n)); err != nil {
				return err
			}
		}
		return nil
	})
}

// FilterDoG filters every frame of a 2D stack with a DoG filter.
func FilterDoG[T img.Float](im, fim *img.Stack[T], sigma []T, sigmaRatio T) error {
	if err := checkStackPair(im, fim); err != nil {
		return err
	}
	size := []int{im.SizeX, im.SizeY}
	return parallel.Run(im.Frames, func(jobs <-chan int) error {
		f, err := filters.NewDoG2D(size, sigma, sigmaRatio)
		if err != nil {
			return err
		}
		for n := range jobs {
			if err := f.Filter(im.Frame(n), fim.Frame(n)); err != nil {
				return err
			}
		}
		return nil
	})
}

// FilterGauss smooths every frame of a 2D stack with a Gaussian.
func FilterGauss[T img.Float](im, fim *img.Stack[T], sigma []T) error {
	if err := checkStackPair(im, fim); err != nil {
		return err
	}
	size := []int{im.SizeX, im.SizeY}
	return parallel.Run(im.Frames, func(jobs <-chan int) error {
		f, err := filters.NewGauss2D(size, sigma)
		if err != nil {
			return err
		}
		for n := range jobs {
			if err := f.Filter(im.Frame(n), fim.Frame(n)); err != nil {
				return err
			}
		}
		return nil
	})
}

// EnumerateStackMaxima finds the local maxima of every frame of a 2D
// stack over the neighborhoodSize box, concatenated in frame order.
func EnumerateStackMaxima[T img.Float](im *img.Stack[T], neighborhoodSize int) ([]StackMax2D[T], error) {
	size := []int{im.SizeX, im.SizeY}
	framePeaks := make([][]maxima.Peak2D[T], im.Frames)
	err := parallel.Run(im.Frames, func(jobs <-chan int) error {
		finder, err := maxima.NewFinder2D[T](size, neighborhoodSize)
		if err != nil {
			return err
		}
		for n := range jobs {
			peaks, err := finder.Find(im.Frame(n))
			if err != nil {
				return err
			}
			framePeaks[n] = peaks
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	total := 0
	for _, fp := range framePeaks {
		total += len(fp)
	}
	out := make([]StackMax2D[T], 0, total)
	for n, fp := range framePeaks {
		for _, p := range fp {
			out = append(out, StackMax2D[T]{X: p.X, Y: p.Y, Frame: n, Val: p.Val})
		}
	}
	return out, nil
}

// CheckStackMaxima verifies that every reported maximum carries the pixel
// value actually stored at its stack position.
func CheckStackMaxima[T img.Float](im *img.Stack[T], ms []StackMax2D[T]) error {
	for _, m := range ms {
		if v := im.Frame(m.Frame).At(m.X, m.Y); v != m.Val {
			return errs.Logicalf("maximum at (%d,%d) frame %d has value %v, image holds %v",
				m.X, m.Y, m.Frame, m.Val, v)
		}
	}
	return nil
}

// FilterLoGCube filters every volume of a 3D stack with a LoG filter.
func FilterLoGCube[T img.Float](im, fim *img.CubeStack[T], sigma []T) error {
	if err := checkCubeStackPair(im, fim); err != nil {
		return err
	}
	size := []int{im.SizeX, im.SizeY, im.SizeZ}
	return parallel.Run(im.Frames, func(jobs <-chan int) error {
		f, err := filters.NewLoG3D(size, sigma)
		if err != nil {
			return err
		}
		for n := range jobs {
			if err := f.Filter(im.Frame(n), fim.Frame(n)); err != nil {
				return err
			}
		}
		return nil
	})
}

// FilterDoGCube filters every volume of a 3D stack with a DoG filter.
func FilterDoGCube[T img.Float](im, fim *img.CubeStack[T], sigma []T, sigmaRatio T) error {
	if err := checkCubeStackPair(im, fim); err != nil {
		return err
	}
	size := []int{im.SizeX, im.SizeY, im.SizeZ}
	return parallel.Run(im.Frames, func(jobs <-chan int) error {
		f, err := filters.NewDoG3D(size, sigma, sigmaRatio)
		if err != nil {
			return err
		}
		for n := range jobs {
			if err := f.Filter(im.Frame(n), fim.Frame(n)); err != nil {
				return err
			}
		}
		return nil
	})
}

// FilterGaussCube smooths every volume of a 3D stack with a Gaussian.
func FilterGaussCube[T img.Float](im, fim *img.CubeStack[T], sigma []T) error {
	if err := checkCubeStackPair(im, fim); err != nil {
		return err
	}
	size := []int{im.SizeX, im.SizeY, im.SizeZ}
	return parallel.Run(im.Frames, func(jobs <-chan int) error {
		f, err := filters.NewGauss3D(size, sigma)
		if err != nil {
			return err
		}
		for n := range jobs {
			if err := f.Filter(im.Frame(n), fim.Frame(n)); err != nil {
				return err
			}
		}
		return nil
	})
}

// EnumerateCubeStackMaxima finds the local maxima of every volume of a 3D
// stack, concatenated in frame order.
func EnumerateCubeStackMaxima[T img.Float](im *img.CubeStack[T], neighborhoodSize int) ([]StackMax3D[T], error) {
	size := []int{im.SizeX, im.SizeY, im.SizeZ}
	framePeaks := make([][]maxima.Peak3D[T], im.Frames)
	err := parallel.Run(im.Frames, func(jobs <-chan int) error {
		finder, err := maxima.NewFinder3D[T](size, neighborhoodSize)
		if err != nil {
			return err
		}
		for n := range jobs {
			peaks, err := finder.Find(im.Frame(n))
			if err != nil {
				return err
			}
			framePeaks[n] = peaks
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	total := 0
	for _, fp := range framePeaks {
		total += len(fp)
	}
	out := make([]StackMax3D[T], 0, total)
	for n, fp := range framePeaks {
		for _, p := range fp {
			out = append(out, StackMax3D[T]{X: p.X, Y: p.Y, Z: p.Z, Frame: n, Val: p.Val})
		}
	}
	return out, nil
}

// CheckCubeStackMaxima verifies that every reported maximum carries the
// voxel value actually stored at its stack position.
func CheckCubeStackMaxima[T img.Float](im *img.CubeStack[T], ms []StackMax3D[T]) error {
	for _, m := range ms {
		if v := im.Frame(m.Frame).At(m.X, m.Y, m.Z); v != m.Val {
			return errs.Logicalf("maximum at (%d,%d,%d) frame %d has value %v, volume holds %v",
				m.X, m.Y, m.Z, m.Frame, m.Val, v)
		}
	}
	return nil
}
