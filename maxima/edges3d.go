package maxima

import "github.com/photonlab/boxxer/img"

// scanEdges checks every boundary voxel against its 3x3x3 neighborhood
// clipped to the volume. Enumeration order: perimeter of the z=0 face, the
// four Z-running edges, perimeter of the z=sizeZ-1 face, then the six face
// interiors.
func (f *Finder3D[T]) scanEdges(im *img.Cube[T]) error {
	sx, sy, sz := f.sizeX, f.sizeY, f.sizeZ
	try := func(x, y, z int) error {
		if CheckPeak3D(im, x, y, z, 3) {
			return f.detect(x, y, z, im.At(x, y, z))
		}
		return nil
	}
	perim := func(z int) error {
		if err := try(0, 0, z); err != nil {
			return err
		}
		for x := 1; x < sx-1; x++ {
			if err := try(x, 0, z); err != nil {
				return err
			}
		}
		if err := try(sx-1, 0, z); err != nil {
			return err
		}
		for y := 1; y < sy-1; y++ {
			if err := try(sx-1, y, z); err != nil {
				return err
			}
		}
		if err := try(sx-1, sy-1, z); err != nil {
			return err
		}
		for x := sx - 2; x >= 1; x-- {
			if err := try(x, sy-1, z); err != nil {
				return err
			}
		}
		if err := try(0, sy-1, z); err != nil {
			return err
		}
		for y := sy - 2; y >= 1; y-- {
			if err := try(0, y, z); err != nil {
				return err
			}
		}
		return nil
	}

	if err := perim(0); err != nil {
		return err
	}
	edges := [][2]int{{0, 0}, {sx - 1, 0}, {sx - 1, sy - 1}, {0, sy - 1}}
	for _, e := range edges {
		for z := 1; z < sz-1; z++ {
			if err := try(e[0], e[1], z); err != nil {
				return err
			}
		}
	}
	if err := perim(sz - 1); err != nil {
		return err
	}
	for z := 1; z < sz-1; z++ {
		for y := 1; y < sy-1; y++ {
			if err := try(0, y, z); err != nil {
				return err
			}
		}
	}
	for z := 1; z < sz-1; z++ {
		for y := 1; y < sy-1; y++ {
			if err := try(sx-1, y, z); err != nil {
				return err
			}
		}
	}
	for z := 1; z < sz-1; z++ {
		for x := 1; x < sx-1; x++ {
			if err := try(x, 0, z); err != nil {
				return err
			}
		}
	}
	for z := 1; z < sz-1; z++ {
		for x := 1; x < sx-1; x++ {
			if err := try(x, sy-1, z); err != nil {
				return err
			}
		}
	}
	for y := 1; y < sy-1; y++ {
		for x := 1; x < sx-1; x++ {
			if err := try(x, y, 0); err != nil {
				return err
			}
		}
	}
	for y := 1; y < sy-1; y++ {
		for x := 1; x < sx-1; x++ {
			if err := try(x, y, sz-1); err != nil {
				return err
			}
		}
	}
	return nil
}
