package kernels

import "github.com/photonlab/boxxer/img"

// Conv2DX filters along the X axis (down the contiguous rows). Each column
// of the image is an independent 1D signal.
func Conv2DX[T img.Float](in, out *img.Image[T], kernel []T) {
	hw := len(kernel) - 1
	if in.SizeX <= 2*hw+1 {
		Conv2DXSmall(in, out, kernel)
		return
	}
	sz := in.SizeX
	for y := 0; y < in.SizeY; y++ {
		Conv1D(in.Pix[y*sz:(y+1)*sz], out.Pix[y*sz:(y+1)*sz], kernel)
	}
}

// Conv2DXSmall is the per-tap reference form of Conv2DX.
func Conv2DXSmall[T img.Float](in, out *img.Image[T], kernel []T) {
	hw := len(kernel) - 1
	sizeX, sizeY := in.SizeX, in.SizeY
	for y := 0; y < sizeY; y++ {
		for x := 0; x < sizeX; x++ {
			var val T
			for r := -hw; r <= hw; r++ {
				k := kernel[absInt(r)]
				switch {
				case x+r < -sizeX || x+r >= 2*sizeX:
				case x+r < 0:
					val += k * in.At(-x-r-1, y)
				case x+r >= sizeX:
					val += k * in.At(2*sizeX-r-x-1, y)
				default:
					val += k * in.At(x+r, y)
				}
			}
			out.Set(x, y, val)
		}
	}
}

// Conv2DY filters along the Y axis (across the columns). The inner loop
// runs down the contiguous X rows so the access pattern stays sequential.
func Conv2DY[T img.Float](in, out *img.Image[T], kernel []T) {
	hw := len(kernel) - 1
	if in.SizeY <= 2*hw+1 {
		Conv2DYSmall(in, out, kernel)
		return
	}
	conv2DYRaw(in.SizeX, in.SizeY, in.Pix, out.Pix, kernel)
}

// conv2DYRaw is the streaming Y-axis pass over one column-major plane.
// Shared with the 3D Y-axis filter, which calls it per Z slice.
func conv2DYRaw[T img.Float](sizeX, sizeY int, data, fdata, kernel []T) {
	hw := len(kernel) - 1
	for y := 0; y < hw; y++ { // top mirror region
		col := sizeX * y
		for x := 0; x < sizeX; x++ {
			val := kernel[0] * data[col+x]
			for r := 1; r <= y; r++ {
				val += kernel[r] * (data[col+x+sizeX*r] + data[col+x-sizeX*r])
			}
			for r := y + 1; r <= hw; r++ {
				val += kernel[r] * (data[col+x+sizeX*r] + data[x+sizeX*(r-y-1)])
			}
			fdata[col+x] = val
		}
	}
	for y := hw; y < sizeY-hw; y++ { // main loop
		col := sizeX * y
		for x := 0; x < sizeX; x++ {
			val := kernel[0] * data[col+x]
			for r := 1; r <= hw; r++ {
				val += kernel[r] * (data[col+x-sizeX*r] + data[col+x+sizeX*r])
			}
			fdata[col+x] = val
		}
	}
	for y := sizeY - hw; y < sizeY; y++ { // bottom mirror region
		col := sizeX * y
		for x := 0; x < sizeX; x++ {
			val := kernel[0] * data[col+x]
			for r := 1; r <= sizeY-y-1; r++ {
				val += kernel[r] * (data[col+x-sizeX*r] + data[col+x+sizeX*r])
			}
			for r := sizeY - y; r <= hw; r++ {
				val += kernel[r] * (data[col+x-sizeX*r] + data[x+sizeX*(2*sizeY-r-y-1)])
			}
			fdata[col+x] = val
		}
	}
}

// Conv2DYSmall is the per-tap reference form of Conv2DY.
func Conv2DYSmall[T img.Float](in, out *img.Image[T], kernel []T) {
	hw := len(kernel) - 1
	sizeX, sizeY := in.SizeX, in.SizeY
	for y := 0; y < sizeY; y++ {
		for x := 0; x < sizeX; x++ {
			var val T
			for r := -hw; r <= hw; r++ {
				k := kernel[absInt(r)]
				switch {
				case y+r < -sizeY || y+r >= 2*sizeY:
				case y+r < 0:
					val += k * in.At(x, -y-r-1)
				case y+r >= sizeY:
					val += k * in.At(x, 2*sizeY-r-y-1)
				default:
					val += k * in.At(x, y+r)
				}
			}
			out.Set(x, y, val)
		}
	}
}

func absInt(r int) int {
	if r < 0 {
		return -r
	}
	return r
}
