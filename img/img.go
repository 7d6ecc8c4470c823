// Package img provides the dense column-major image containers used by the
// boxxer detection pipeline.
//
// Layout convention: the X axis runs down the rows and is the fastest-moving
// (contiguous) dimension, matching the column-major storage of the upstream
// acquisition code. A pixel (x,y) of a 2D image lives at Pix[x + SizeX*y];
// a voxel (x,y,z) at Pix[x + SizeX*(y + SizeY*z)]. Scale and frame indices
// extend the layout outward in that order. This "X = rows" convention is
// deliberate and must not be transposed: callers hand us buffers laid out
// this way.
package img

// Float is the element type constraint for all pixel data.
type Float interface {
	~float32 | ~float64
}

// Image is a dense 2D image of SizeX rows by SizeY columns.
type Image[T Float] struct {
	SizeX, SizeY int
	Pix          []T
}

// NewImage allocates a zeroed SizeX by SizeY image.
func NewImage[T Float](sizeX, sizeY int) *Image[T] {
	return &Image[T]{SizeX: sizeX, SizeY: sizeY, Pix: make([]T, sizeX*sizeY)}
}

// At returns the pixel at (x,y).
func (im *Image[T]) At(x, y int) T { return im.Pix[x+im.SizeX*y] }

// Set stores v at (x,y).
func (im *Image[T]) Set(x, y int, v T) { im.Pix[x+im.SizeX*y] = v }

// SameSize reports whether o has identical dimensions.
func (im *Image[T]) SameSize(o *Image[T]) bool {
	return im.SizeX == o.SizeX && im.SizeY == o.SizeY
}

// Cube is a dense 3D volume of SizeX by SizeY by SizeZ voxels.
type Cube[T Float] struct {
	SizeX, SizeY, SizeZ int
	Pix                 []T
}

// NewCube allocates a zeroed SizeX by SizeY by SizeZ volume.
func NewCube[T Float](sizeX, sizeY, sizeZ int) *Cube[T] {
	return &Cube[T]{SizeX: sizeX, SizeY: sizeY, SizeZ: sizeZ, Pix: make([]T, sizeX*sizeY*sizeZ)}
}

// At returns the voxel at (x,y,z).
func (c *Cube[T]) At(x, y, z int) T { return c.Pix[x+c.SizeX*(y+c.SizeY*z)] }

// Set stores v at (x,y,z).
func (c *Cube[T]) Set(x, y, z int, v T) { c.Pix[x+c.SizeX*(y+c.SizeY*z)] = v }

// SameSize reports whether o has identical dimensions.
func (c *Cube[T]) SameSize(o *Cube[T]) bool {
	return c.SizeX == o.SizeX && c.SizeY == o.SizeY && c.SizeZ == o.SizeZ
}

// Stack is a time series of 2D frames sharing one backing buffer.
type Stack[T Float] struct {
	SizeX, SizeY, Frames int
	Pix                  []T
}

// NewStack allocates a zeroed stack of n frames.
func NewStack[T Float](sizeX, sizeY, n int) *Stack[T] {
	return &Stack[T]{SizeX: sizeX, SizeY: sizeY, Frames: n, Pix: make([]T, sizeX*sizeY*n)}
}

// Frame returns a view of frame n. The view shares backing storage.
func (s *Stack[T]) Frame(n int) *Image[T] {
	sz := s.SizeX * s.SizeY
	return &Image[T]{SizeX: s.SizeX, SizeY: s.SizeY, Pix: s.Pix[n*sz : (n+1)*sz]}
}

// CubeStack is a time series of 3D frames sharing one backing buffer.
type CubeStack[T Float] struct {
	SizeX, SizeY, SizeZ, Frames int
	Pix                         []T
}

// NewCubeStack allocates a zeroed stack of n volumes.
func NewCubeStack[T Float](sizeX, sizeY, sizeZ, n int) *CubeStack[T] {
	return &CubeStack[T]{SizeX: sizeX, SizeY: sizeY, SizeZ: sizeZ, Frames: n,
		Pix: make([]T, sizeX*sizeY*sizeZ*n)}
}

// Frame returns a view of volume n. The view shares backing storage.
func (s *CubeStack[T]) Frame(n int) *Cube[T] {
	sz := s.SizeX * s.SizeY * s.SizeZ
	return &Cube[T]{SizeX: s.SizeX, SizeY: s.SizeY, SizeZ: s.SizeZ, Pix: s.Pix[n*sz : (n+1)*sz]}
}

// ScaledImage is a 2D image filtered at Scales different sigmas: one 2D
// slice per scale, scale being the outermost dimension.
type ScaledImage[T Float] struct {
	SizeX, SizeY, Scales int
	Pix                  []T
}

// NewScaledImage allocates a zeroed scale volume.
func NewScaledImage[T Float](sizeX, sizeY, scales int) *ScaledImage[T] {
	return &ScaledImage[T]{SizeX: sizeX, SizeY: sizeY, Scales: scales,
		Pix: make([]T, sizeX*sizeY*scales)}
}

// Scale returns a view of the image at scale s.
func (si *ScaledImage[T]) Scale(s int) *Image[T] {
	sz := si.SizeX * si.SizeY
	return &Image[T]{SizeX: si.SizeX, SizeY: si.SizeY, Pix: si.Pix[s*sz : (s+1)*sz]}
}

// At returns the pixel at (x,y) of scale s.
func (si *ScaledImage[T]) At(x, y, s int) T {
	return si.Pix[x+si.SizeX*(y+si.SizeY*s)]
}

// ScaledCube is a 3D volume filtered at Scales different sigmas.
type ScaledCube[T Float] struct {
	SizeX, SizeY, SizeZ, Scales int
	Pix                         []T
}

// NewScaledCube allocates a zeroed scale volume.
func NewScaledCube[T Float](sizeX, sizeY, sizeZ, scales int) *ScaledCube[T] {
	return &ScaledCube[T]{SizeX: sizeX, SizeY: sizeY, SizeZ: sizeZ, Scales: scales,
		Pix: make([]T, sizeX*sizeY*sizeZ*scales)}
}

// Scale returns a view of the volume at scale s.
func (sc *ScaledCube[T]) Scale(s int) *Cube[T] {
	sz := sc.SizeX * sc.SizeY * sc.SizeZ
	return &Cube[T]{SizeX: sc.SizeX, SizeY: sc.SizeY, SizeZ: sc.SizeZ, Pix: sc.Pix[s*sz : (s+1)*sz]}
}

// At returns the voxel at (x,y,z) of scale s.
func (sc *ScaledCube[T]) At(x, y, z, s int) T {
	return sc.Pix[x+sc.SizeX*(y+sc.SizeY*(z+sc.SizeZ*s))]
}

// ScaledStack is a stack of per-frame scale volumes: frame outermost,
// then scale, then the 2D image.
type ScaledStack[T Float] struct {
	SizeX, SizeY, Scales, Frames int
	Pix                          []T
}

// NewScaledStack allocates a zeroed scaled stack of n frames.
func NewScaledStack[T Float](sizeX, sizeY, scales, n int) *ScaledStack[T] {
	return &ScaledStack[T]{SizeX: sizeX, SizeY: sizeY, Scales: scales, Frames: n,
		Pix: make([]T, sizeX*sizeY*scales*n)}
}

// Frame returns a view of the scale volume for frame n.
func (ss *ScaledStack[T]) Frame(n int) *ScaledImage[T] {
	sz := ss.SizeX * ss.SizeY * ss.Scales
	return &ScaledImage[T]{SizeX: ss.SizeX, SizeY: ss.SizeY, Scales: ss.Scales,
		Pix: ss.Pix[n*sz : (n+1)*sz]}
}
