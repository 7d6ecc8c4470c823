package kernels

import "github.com/photonlab/boxxer/img"

// Conv3DX filters along the X axis of a volume; every (y,z) row is an
// independent contiguous 1D signal.
func Conv3DX[T img.Float](in, out *img.Cube[T], kernel []T) {
	hw := len(kernel) - 1
	if in.SizeX <= 2*hw+1 {
		Conv3DXSmall(in, out, kernel)
		return
	}
	sz := in.SizeX
	for z := 0; z < in.SizeZ; z++ {
		for y := 0; y < in.SizeY; y++ {
			base := sz * (y + z*in.SizeY)
			Conv1D(in.Pix[base:base+sz], out.Pix[base:base+sz], kernel)
		}
	}
}

// Conv3DXSmall is the per-tap reference form of Conv3DX.
func Conv3DXSmall[T img.Float](in, out *img.Cube[T], kernel []T) {
	hw := len(kernel) - 1
	sizeX := in.SizeX
	for z := 0; z < in.SizeZ; z++ {
		for y := 0; y < in.SizeY; y++ {
			for x := 0; x < sizeX; x++ {
				var val T
				for r := -hw; r <= hw; r++ {
					k := kernel[absInt(r)]
					switch {
					case x+r < -sizeX || x+r >= 2*sizeX:
					case x+r < 0:
						val += k * in.At(-x-r-1, y, z)
					case x+r >= sizeX:
						val += k * in.At(2*sizeX-r-x-1, y, z)
					default:
						val += k * in.At(x+r, y, z)
					}
				}
				out.Set(x, y, z, val)
			}
		}
	}
}

// Conv3DY filters along the Y axis, one Z slice at a time.
func Conv3DY[T img.Float](in, out *img.Cube[T], kernel []T) {
	hw := len(kernel) - 1
	if in.SizeY <= 2*hw+1 {
		Conv3DYSmall(in, out, kernel)
		return
	}
	sizeXY := in.SizeX * in.SizeY
	for z := 0; z < in.SizeZ; z++ {
		base := z * sizeXY
		conv2DYRaw(in.SizeX, in.SizeY, in.Pix[base:base+sizeXY], out.Pix[base:base+sizeXY], kernel)
	}
}

// Conv3DYSmall is the per-tap reference form of Conv3DY.
func Conv3DYSmall[T img.Float](in, out *img.Cube[T], kernel []T) {
	hw := len(kernel) - 1
	sizeY := in.SizeY
	for z := 0; z < in.SizeZ; z++ {
		for y := 0; y < sizeY; y++ {
			for x := 0; x < in.SizeX; x++ {
				var val T
				for r := -hw; r <= hw; r++ {
					k := kernel[absInt(r)]
					switch {
					case y+r < -sizeY || y+r >= 2*sizeY:
					case y+r < 0:
						val += k * in.At(x, -y-r-1, z)
					case y+r >= sizeY:
						val += k * in.At(x, 2*sizeY-r-y-1, z)
					default:
						val += k * in.At(x, y+r, z)
					}
				}
				out.Set(x, y, z, val)
			}
		}
	}
}

// Conv3DZ filters along the Z axis. Taps stride by a full XY slice, so the
// streaming pass walks each (x,y) column through all three phases at once.
func Conv3DZ[T img.Float](in, out *img.Cube[T], kernel []T) {
	hw := len(kernel) - 1
	sizeX, sizeY, sizeZ := in.SizeX, in.SizeY, in.SizeZ
	if sizeZ <= 2*hw+1 {
		Conv3DZSmall(in, out, kernel)
		return
	}
	sizeXY := sizeX * sizeY
	for y := 0; y < sizeY; y++ {
		for x := 0; x < sizeX; x++ {
			base := x + sizeX*y
			d := in.Pix[base:]
			z := 0
			for ; z < hw; z++ { // front mirror region
				val := kernel[0] * d[sizeXY*z]
				for r := 1; r <= z; r++ {
					val += kernel[r] * (d[sizeXY*(z+r)] + d[sizeXY*(z-r)])
				}
				for r := z + 1; r <= hw; r++ {
					val += kernel[r] * (d[sizeXY*(z+r)] + d[sizeXY*(r-z-1)])
				}
				out.Pix[base+sizeXY*z] = val
			}
			for ; z < sizeZ-hw; z++ { // main loop
				val := kernel[0] * d[sizeXY*z]
				for r := 1; r <= hw; r++ {
					val += kernel[r] * (d[sizeXY*(z-r)] + d[sizeXY*(z+r)])
				}
				out.Pix[base+sizeXY*z] = val
			}
			for ; z < sizeZ; z++ { // back mirror region
				val := kernel[0] * d[sizeXY*z]
				for r := 1; r <= sizeZ-z-1; r++ {
					val += kernel[r] * (d[sizeXY*(z-r)] + d[sizeXY*(z+r)])
				}
				for r := sizeZ - z; r <= hw; r++ {
					val += kernel[r] * (d[sizeXY*(z-r)] + d[sizeXY*(2*sizeZ-r-z-1)])
				}
				out.Pix[base+sizeXY*z] = val
			}
		}
	}
}

// Conv3DZSmall is the per-tap reference form of Conv3DZ.
func Conv3DZSmall[T img.Float](in, out *img.Cube[T], kernel []T) {
	hw := len(kernel) - 1
	sizeZ := in.SizeZ
	for z := 0; z < sizeZ; z++ {
		for y := 0; y < in.SizeY; y++ {
			for x := 0; x < in.SizeX; x++ {
				var val T
				for r := -hw; r <= hw; r++ {
					k := kernel[absInt(r)]
					switch {
					case z+r < -sizeZ || z+r >= 2*sizeZ:
					case z+r < 0:
						val += k * in.At(x, y, -z-r-1)
					case z+r >= sizeZ:
						val += k * in.At(x, y, 2*sizeZ-r-z-1)
					default:
						val += k * in.At(x, y, z+r)
					}
				}
				out.Set(x, y, z, val)
			}
		}
	}
}
