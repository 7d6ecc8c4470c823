package filters

import (
	"github.com/photonlab/boxxer/img"
	"github.com/photonlab/boxxer/kernels"
)

// DoG2D is a 2D difference-of-Gaussians band-pass filter: a narrow excite
// Gaussian at sigma minus a wide inhibit Gaussian at sigma*sigmaRatio. Both
// chains share the same kernel half-widths.
type DoG2D[T img.Float] struct {
	config[T]
	sigmaRatio T
	excite     [2][]T
	inhibit    [2][]T
	tmp0, tmp1 *img.Image[T]
}

// NewDoG2D builds a DoG2D with default kernel half-widths. sigmaRatio must
// exceed 1.
func NewDoG2D[T img.Float](size []int, sigma []T, sigmaRatio T) (*DoG2D[T], error) {
	cfg, err := newConfig(2, size, sigma)
	if err != nil {
		return nil, err
	}
	if err := checkSigmaRatio(sigmaRatio); err != nil {
		return nil, err
	}
	f := &DoG2D[T]{config: cfg, sigmaRatio: sigmaRatio}
	if err := f.SetKernelHW(f.defaultHW()); err != nil {
		return nil, err
	}
	f.tmp0 = img.NewImage[T](size[0], size[1])
	f.tmp1 = img.NewImage[T](size[0], size[1])
	return f, nil
}

// NewDoG2DHW is NewDoG2D with explicit kernel half-widths.
func NewDoG2DHW[T img.Float](size []int, sigma []T, sigmaRatio T, hw []int) (*DoG2D[T], error) {
	cfg, err := newConfig(2, size, sigma)
	if err != nil {
		return nil, err
	}
	if err := checkSigmaRatio(sigmaRatio); err != nil {
		return nil, err
	}
	f := &DoG2D[T]{config: cfg, sigmaRatio: sigmaRatio}
	if err := f.SetKernelHW(hw); err != nil {
		return nil, err
	}
	f.tmp0 = img.NewImage[T](size[0], size[1])
	f.tmp1 = img.NewImage[T](size[0], size[1])
	return f, nil
}

// SigmaRatio returns the inhibit/excite sigma ratio.
func (f *DoG2D[T]) SigmaRatio() T { return f.sigmaRatio }

// SetSigmaRatio replaces the sigma ratio and regenerates both kernel sets.
func (f *DoG2D[T]) SetSigmaRatio(ratio T) error {
	if err := checkSigmaRatio(ratio); err != nil {
		return err
	}
	f.sigmaRatio = ratio
	return f.SetKernelHW(f.hw)
}

// SetKernelHW replaces the kernel half-widths and regenerates the excite
// and inhibit kernels.
func (f *DoG2D[T]) SetKernelHW(hw []int) error {
	if err := f.setHW(hw); err != nil {
		return err
	}
	for d := 0; d < f.dim; d++ {
		f.excite[d] = kernels.Gauss(f.sigma[d], f.hw[d])
		f.inhibit[d] = kernels.Gauss(f.sigma[d]*f.sigmaRatio, f.hw[d])
	}
	return nil
}

// MakeImage allocates an image matching the filter geometry.
func (f *DoG2D[T]) MakeImage() *img.Image[T] { return img.NewImage[T](f.size[0], f.size[1]) }

// Filter applies the DoG: excite chain into out, inhibit chain into
// scratch, subtract.
func (f *DoG2D[T]) Filter(im, out *img.Image[T]) error {
	if err := f.checkImage(im, out); err != nil {
		return err
	}
	kernels.Conv2DX(im, f.tmp0, f.excite[0])
	kernels.Conv2DY(f.tmp0, out, f.excite[1])
	kernels.Conv2DX(im, f.tmp1, f.inhibit[0])
	kernels.Conv2DY(f.tmp1, f.tmp0, f.inhibit[1])
	sub(out.Pix, f.tmp0.Pix)
	return nil
}

// FilterRef runs the reference convolutions in the same chain order.
func (f *DoG2D[T]) FilterRef(im, out *img.Image[T]) error {
	if err := f.checkImage(im, out); err != nil {
		return err
	}
	kernels.Conv2DXSmall(im, f.tmp0, f.excite[0])
	kernels.Conv2DYSmall(f.tmp0, out, f.excite[1])
	kernels.Conv2DXSmall(im, f.tmp1, f.inhibit[0])
	kernels.Conv2DYSmall(f.tmp1, f.tmp0, f.inhibit[1])
	sub(out.Pix, f.tmp0.Pix)
	return nil
}

// DoG3D is the 3D difference-of-Gaussians band-pass filter.
type DoG3D[T img.Float] struct {
	config[T]
	sigmaRatio T
	excite     [3][]T
	inhibit    [3][]T
	tmp0, tmp1 *img.Cube[T]
}

// NewDoG3D builds a DoG3D with default kernel half-widths. sigmaRatio must
// exceed 1.
func NewDoG3D[T img.Float](size []int, sigma []T, sigmaRatio T) (*DoG3D[T], error) {
	cfg, err := newConfig(3, size, sigma)
	if err != nil {
		return nil, err
	}
	if err := checkSigmaRatio(sigmaRatio); err != nil {
		return nil, err
	}
	f := &DoG3D[T]{config: cfg, sigmaRatio: sigmaRatio}
	if err := f.SetKernelHW(f.defaultHW()); err != nil {
		return nil, err
	}
	f.tmp0 = img.NewCube[T](size[0], size[1], size[2])
	f.tmp1 = img.NewCube[T](size[0], size[1], size[2])
	return f, nil
}

// NewDoG3DHW is NewDoG3D with explicit kernel half-widths.
func NewDoG3DHW[T img.Float](size []int, sigma []T, sigmaRatio T, hw []int) (*DoG3D[T], error) {
	cfg, err := newConfig(3, size, sigma)
	if err != nil {
		return nil, err
	}
	if err := checkSigmaRatio(sigmaRatio); err != nil {
		return nil, err
	}
	f := &DoG3D[T]{config: cfg, sigmaRatio: sigmaRatio}
	if err := f.SetKernelHW(hw); err != nil {
		return nil, err
	}
	f.tmp0 = img.NewCube[T](size[0], size[1], size[2])
	f.tmp1 = img.NewCube[T](size[0], size[1], size[2])
	return f, nil
}

// SigmaRatio returns the inhibit/excite sigma ratio.
func (f *DoG3D[T]) SigmaRatio() T { return f.sigmaRatio }

// SetSigmaRatio replaces the sigma ratio and regenerates both kernel sets.
func (f *DoG3D[T]) SetSigmaRatio(ratio T) error {
	if err := checkSigmaRatio(ratio); err != nil {
		return err
	}
	f.sigmaRatio = ratio
	return f.SetKernelHW(f.hw)
}

// SetKernelHW replaces the kernel half-widths and regenerates the excite
// and inhibit kernels.
func (f *DoG3D[T]) SetKernelHW(hw []int) error {
	if err := f.setHW(hw); err != nil {
		return err
	}
	for d := 0; d < f.dim; d++ {
		f.excite[d] = kernels.Gauss(f.sigma[d], f.hw[d])
		f.inhibit[d] = kernels.Gauss(f.sigma[d]*f.sigmaRatio, f.hw[d])
	}
	return nil
}

// MakeImage allocates a volume matching the filter geometry.
func (f *DoG3D[T]) MakeImage() *img.Cube[T] {
	return img.NewCube[T](f.size[0], f.size[1], f.size[2])
}

// Filter applies the DoG: excite chain into out, inhibit chain into
// scratch, subtract.
func (f *DoG3D[T]) Filter(im, out *img.Cube[T]) error {
	if err := f.checkCube(im, out); err != nil {
		return err
	}
	kernels.Conv3DX(im, f.tmp0, f.excite[0])
	kernels.Conv3DY(f.tmp0, f.tmp1, f.excite[1])
	kernels.Conv3DZ(f.tmp1, out, f.excite[2])
	kernels.Conv3DX(im, f.tmp0, f.inhibit[0])
	kernels.Conv3DY(f.tmp0, f.tmp1, f.inhibit[1])
	kernels.Conv3DZ(f.tmp1, f.tmp0, f.inhibit[2])
	sub(out.Pix, f.tmp0.Pix)
	return nil
}

// FilterRef runs the reference convolutions in the same chain order.
func (f *DoG3D[T]) FilterRef(im, out *img.Cube[T]) error {
	if err := f.checkCube(im, out); err != nil {
		return err
	}
	kernels.Conv3DXSmall(im, f.tmp0, f.excite[0])
	kernels.Conv3DYSmall(f.tmp0, f.tmp1, f.excite[1])
	kernels.Conv3DZSmall(f.tmp1, out, f.excite[2])
	kernels.Conv3DXSmall(im, f.tmp0, f.inhibit[0])
	kernels.Conv3DYSmall(f.tmp0, f.tmp1, f.inhibit[1])
	kernels.Conv3DZSmall(f.tmp1, f.tmp0, f.inhibit[2])
	sub(out.Pix, f.tmp0.Pix)
	return nil
}
