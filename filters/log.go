package filters

import (
	"github.com/photonlab/boxxer/img"
	"github.com/photonlab/boxxer/kernels"
)

// LoG2D is a separable 2D Laplacian-of-Gaussian filter. The Laplacian is
// the sum of the two second-derivative responses, each computed as a LoG
// kernel along one axis and a Gaussian along the other.
type LoG2D[T img.Float] struct {
	config[T]
	gauss      [2][]T
	log        [2][]T
	tmp0, tmp1 *img.Image[T]
}

// NewLoG2D builds a LoG2D with default kernel half-widths.
func NewLoG2D[T img.Float](size []int, sigma []T) (*LoG2D[T], error) {
	cfg, err := newConfig(2, size, sigma)
	if err != nil {
		return nil, err
	}
	f := &LoG2D[T]{config: cfg}
	if err := f.SetKernelHW(f.defaultHW()); err != nil {
		return nil, err
	}
	f.tmp0 = img.NewImage[T](size[0], size[1])
	f.tmp1 = img.NewImage[T](size[0], size[1])
	return f, nil
}

// NewLoG2DHW is NewLoG2D with explicit kernel half-widths.
func NewLoG2DHW[T img.Float](size []int, sigma []T, hw []int) (*LoG2D[T], error) {
	cfg, err := newConfig(2, size, sigma)
	if err != nil {
		return nil, err
	}
	f := &LoG2D[T]{config: cfg}
	if err := f.SetKernelHW(hw); err != nil {
		return nil, err
	}
	f.tmp0 = img.NewImage[T](size[0], size[1])
	f.tmp1 = img.NewImage[T](size[0], size[1])
	return f, nil
}

// SetKernelHW replaces the kernel half-widths and regenerates the Gaussian
// and LoG kernels.
func (f *LoG2D[T]) SetKernelHW(hw []int) error {
	if err := f.setHW(hw); err != nil {
		return err
	}
	for d := 0; d < f.dim; d++ {
		f.gauss[d] = kernels.Gauss(f.sigma[d], f.hw[d])
		f.log[d] = kernels.LoG(f.sigma[d], f.hw[d])
	}
	return nil
}

// MakeImage allocates an image matching the filter geometry.
func (f *LoG2D[T]) MakeImage() *img.Image[T] { return img.NewImage[T](f.size[0], f.size[1]) }

// Filter applies the LoG as the sum of the d²/dy² and d²/dx² separable
// chains.
func (f *LoG2D[T]) Filter(im, out *img.Image[T]) error {
	if err := f.checkImage(im, out); err != nil {
		return err
	}
	kernels.Conv2DY(im, f.tmp0, f.log[1])
	kernels.Conv2DX(f.tmp0, out, f.gauss[0])
	kernels.Conv2DY(im, f.tmp0, f.gauss[1])
	kernels.Conv2DX(f.tmp0, f.tmp1, f.log[0])
	add(out.Pix, f.tmp1.Pix)
	return nil
}

// FilterRef runs the reference convolutions in the same chain order.
func (f *LoG2D[T]) FilterRef(im, out *img.Image[T]) error {
	if err := f.checkImage(im, out); err != nil {
		return err
	}
	kernels.Conv2DYSmall(im, f.tmp0, f.log[1])
	kernels.Conv2DXSmall(f.tmp0, out, f.gauss[0])
	kernels.Conv2DYSmall(im, f.tmp0, f.gauss[1])
	kernels.Conv2DXSmall(f.tmp0, f.tmp1, f.log[0])
	add(out.Pix, f.tmp1.Pix)
	return nil
}

// LoG3D is the separable 3D Laplacian-of-Gaussian filter, the sum of three
// second-derivative chains.
type LoG3D[T img.Float] struct {
	config[T]
	gauss      [3][]T
	log        [3][]T
	tmp0, tmp1 *img.Cube[T]
}

// NewLoG3D builds a LoG3D with default kernel half-widths.
func NewLoG3D[T img.Float](size []int, sigma []T) (*LoG3D[T], error) {
	cfg, err := newConfig(3, size, sigma)
	if err != nil {
		return nil, err
	}
	f := &LoG3D[T]{config: cfg}
	if err := f.SetKernelHW(f.defaultHW()); err != nil {
		return nil, err
	}
	f.tmp0 = img.NewCube[T](size[0], size[1], size[2])
	f.tmp1 = img.NewCube[T](size[0], size[1], size[2])
	return f, nil
}

// NewLoG3DHW is NewLoG3D with explicit kernel half-widths.
func NewLoG3DHW[T img.Float](size []int, sigma []T, hw []int) (*LoG3D[T], error) {
	cfg, err := newConfig(3, size, sigma)
	if err != nil {
		return nil, err
	}
	f := &LoG3D[T]{config: cfg}
	if err := f.SetKernelHW(hw); err != nil {
		return nil, err
	}
	f.tmp0 = img.NewCube[T](size[0], size[1], size[2])
	f.tmp1 = img.NewCube[T](size[0], size[1], size[2])
	return f, nil
}

// SetKernelHW replaces the kernel half-widths and regenerates the Gaussian
// and LoG kernels.
func (f *LoG3D[T]) SetKernelHW(hw []int) error {
	if err := f.setHW(hw); err != nil {
		return err
	}
	for d := 0; d < f.dim; d++ {
		f.gauss[d] = kernels.Gauss(f.sigma[d], f.hw[d])
		f.log[d] = kernels.LoG(f.sigma[d], f.hw[d])
	}
	return nil
}

// MakeImage allocates a volume matching the filter geometry.
func (f *LoG3D[T]) MakeImage() *img.Cube[T] {
	return img.NewCube[T](f.size[0], f.size[1], f.size[2])
}

// Filter applies the LoG as the sum of the three second-derivative chains,
// each running Z, Y, then X.
func (f *LoG3D[T]) Filter(im, out *img.Cube[T]) error {
	if err := f.checkCube(im, out); err != nil {
		return err
	}
	kernels.Conv3DZ(im, f.tmp0, f.gauss[2])
	kernels.Conv3DY(f.tmp0, f.tmp1, f.gauss[1])
	kernels.Conv3DX(f.tmp1, out, f.log[0])

	kernels.Conv3DZ(im, f.tmp0, f.gauss[2])
	kernels.Conv3DY(f.tmp0, f.tmp1, f.log[1])
	kernels.Conv3DX(f.tmp1, f.tmp0, f.gauss[0])
	add(out.Pix, f.tmp0.Pix)

	kernels.Conv3DZ(im, f.tmp0, f.log[2])
	kernels.Conv3DY(f.tmp0, f.tmp1, f.gauss[1])
	kernels.Conv3DX(f.tmp1, f.tmp0, f.gauss[0])
	add(out.Pix, f.tmp0.Pix)
	return nil
}

// FilterRef runs the reference convolutions in the same chain order.
func (f *LoG3D[T]) FilterRef(im, out *img.Cube[T]) error {
	if err := f.checkCube(im, out); err != nil {
		return err
	}
	kernels.Conv3DZSmall(im, f.tmp0, f.gauss[2])
	kernels.Conv3DYSmall(f.tmp0, f.tmp1, f.gauss[1])
	kernels.Conv3DXSmall(f.tmp1, out, f.log[0])

	kernels.Conv3DZSmall(im, f.tmp0, f.gauss[2])
	kernels.Conv3DYSmall(f.tmp0, f.tmp1, f.log[1])
	kernels.Conv3DXSmall(f.tmp1, f.tmp0, f.gauss[0])
	add(out.Pix, f.tmp0.Pix)

	kernels.Conv3DZSmall(im, f.tmp0, f.log[2])
	kernels.Conv3DYSmall(f.tmp0, f.tmp1, f.gauss[1])
	kernels.Conv3DXSmall(f.tmp1, f.tmp0, f.gauss[0])
	add(out.Pix, f.tmp0.Pix)
	return nil
}
