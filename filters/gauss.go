package filters

import (
	"github.com/photonlab/boxxer/img"
	"github.com/photonlab/boxxer/kernels"
)

// Gauss2D is a separable 2D Gaussian smoothing filter.
type Gauss2D[T img.Float] struct {
	config[T]
	kern [2][]T
	tmp  *img.Image[T]
}

// NewGauss2D builds a Gauss2D for the given image size and per-axis sigma,
// with the default kernel half-widths.
func NewGauss2D[T img.Float](size []int, sigma []T) (*Gauss2D[T], error) {
	cfg, err := newConfig(2, size, sigma)
	if err != nil {
		return nil, err
	}
	f := &Gauss2D[T]{config: cfg}
	if err := f.SetKernelHW(f.defaultHW()); err != nil {
		return nil, err
	}
	f.tmp = img.NewImage[T](size[0], size[1])
	return f, nil
}

// NewGauss2DHW is NewGauss2D with explicit kernel half-widths.
func NewGauss2DHW[T img.Float](size []int, sigma []T, hw []int) (*Gauss2D[T], error) {
	cfg, err := newConfig(2, size, sigma)
	if err != nil {
		return nil, err
	}
	f := &Gauss2D[T]{config: cfg}
	if err := f.SetKernelHW(hw); err != nil {
		return nil, err
	}
	f.tmp = img.NewImage[T](size[0], size[1])
	return f, nil
}

// SetKernelHW replaces the per-axis kernel half-widths and regenerates the
// kernels at the current sigma.
func (f *Gauss2D[T]) SetKernelHW(hw []int) error {
	if err := f.setHW(hw); err != nil {
		return err
	}
	for d := 0; d < f.dim; d++ {
		f.kern[d] = kernels.Gauss(f.sigma[d], f.hw[d])
	}
	return nil
}

// MakeImage allocates an image matching the filter geometry.
func (f *Gauss2D[T]) MakeImage() *img.Image[T] { return img.NewImage[T](f.size[0], f.size[1]) }

// Filter smooths im into out. X pass first, then Y.
func (f *Gauss2D[T]) Filter(im, out *img.Image[T]) error {
	if err := f.checkImage(im, out); err != nil {
		return err
	}
	kernels.Conv2DX(im, f.tmp, f.kern[0])
	kernels.Conv2DY(f.tmp, out, f.kern[1])
	return nil
}

// FilterRef runs the reference convolutions in the same axis order.
func (f *Gauss2D[T]) FilterRef(im, out *img.Image[T]) error {
	if err := f.checkImage(im, out); err != nil {
		return err
	}
	kernels.Conv2DXSmall(im, f.tmp, f.kern[0])
	kernels.Conv2DYSmall(f.tmp, out, f.kern[1])
	return nil
}

// Gauss3D is a separable 3D Gaussian smoothing filter.
type Gauss3D[T img.Float] struct {
	config[T]
	kern       [3][]T
	tmp0, tmp1 *img.Cube[T]
}

// NewGauss3D builds a Gauss3D for the given volume size and per-axis sigma,
// with the default kernel half-widths.
func NewGauss3D[T img.Float](size []int, sigma []T) (*Gauss3D[T], error) {
	cfg, err := newConfig(3, size, sigma)
	if err != nil {
		return nil, err
	}
	f := &Gauss3D[T]{config: cfg}
	if err := f.SetKernelHW(f.defaultHW()); err != nil {
		return nil, err
	}
	f.tmp0 = img.NewCube[T](size[0], size[1], size[2])
	f.tmp1 = img.NewCube[T](size[0], size[1], size[2])
	return f, nil
}

// NewGauss3DHW is NewGauss3D with explicit kernel half-widths.
func NewGauss3DHW[T img.Float](size []int, sigma []T, hw []int) (*Gauss3D[T], error) {
	cfg, err := newConfig(3, size, sigma)
	if err != nil {
		return nil, err
	}
	f := &Gauss3D[T]{config: cfg}
	if err := f.SetKernelHW(hw); err != nil {
		return nil, err
	}
	f.tmp0 = img.NewCube[T](size[0], size[1], size[2])
	f.tmp1 = img.NewCube[T](size[0], size[1], size[2])
	return f, nil
}

// SetKernelHW replaces the per-axis kernel half-widths and regenerates the
// kernels at the current sigma.
func (f *Gauss3D[T]) SetKernelHW(hw []int) error {
	if err := f.setHW(hw); err != nil {
		return err
	}
	for d := 0; d < f.dim; d++ {
		f.kern[d] = kernels.Gauss(f.sigma[d], f.hw[d])
	}
	return nil
}

// MakeImage allocates a volume matching the filter geometry.
func (f *Gauss3D[T]) MakeImage() *img.Cube[T] {
	return img.NewCube[T](f.size[0], f.size[1], f.size[2])
}

// Filter smooths im into out. X, Y, then Z pass.
func (f *Gauss3D[T]) Filter(im, out *img.Cube[T]) error {
	if err := f.checkCube(im, out); err != nil {
		return err
	}
	kernels.Conv3DX(im, f.tmp0, f.kern[0])
	kernels.Conv3DY(f.tmp0, f.tmp1, f.kern[1])
	kernels.Conv3DZ(f.tmp1, out, f.kern[2])
	return nil
}

// FilterRef runs the reference convolutions in the same axis order.
func (f *Gauss3D[T]) FilterRef(im, out *img.Cube[T]) error {
	if err := f.checkCube(im, out); err != nil {
		return err
	}
	kernels.Conv3DXSmall(im, f.tmp0, f.kern[0])
	kernels.Conv3DYSmall(f.tmp0, f.tmp1, f.kern[1])
	kernels.Conv3DZSmall(f.tmp1, out, f.kern[2])
	return nil
}
