package kernels

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/photonlab/boxxer/img"
)

func randImage(rng *rand.Rand, sizeX, sizeY int) *img.Image[float64] {
	im := img.NewImage[float64](sizeX, sizeY)
	for i := range im.Pix {
		im.Pix[i] = rng.Float64()
	}
	return im
}

func TestConv2DXMatchesSmall(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(3))
	for _, dims := range [][2]int{{9, 7}, {16, 11}, {5, 4}} {
		im := randImage(rng, dims[0], dims[1])
		kernel := Gauss(1.0, 3)
		fast := img.NewImage[float64](dims[0], dims[1])
		ref := img.NewImage[float64](dims[0], dims[1])
		Conv2DX(im, fast, kernel)
		Conv2DXSmall(im, ref, kernel)
		for i := range fast.Pix {
			assert.InDelta(t, ref.Pix[i], fast.Pix[i], 1e-12, "dims=%v i=%d", dims, i)
		}
	}
}

func TestConv2DYMatchesSmall(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(5))
	for _, dims := range [][2]int{{9, 7}, {11, 16}, {4, 5}} {
		im := randImage(rng, dims[0], dims[1])
		kernel := Gauss(1.0, 3)
		fast := img.NewImage[float64](dims[0], dims[1])
		ref := img.NewImage[float64](dims[0], dims[1])
		Conv2DY(im, fast, kernel)
		Conv2DYSmall(im, ref, kernel)
		for i := range fast.Pix {
			assert.InDelta(t, ref.Pix[i], fast.Pix[i], 1e-12, "dims=%v i=%d", dims, i)
		}
	}
}

func TestConv2DPreservesConstant(t *testing.T) {
	t.Parallel()

	im := img.NewImage[float64](12, 10)
	for i := range im.Pix {
		im.Pix[i] = 2.5
	}
	kernel := Gauss(1.3, 4)
	out := img.NewImage[float64](12, 10)
	Conv2DX(im, out, kernel)
	for i := range out.Pix {
		assert.InDelta(t, 2.5, out.Pix[i], 1e-12)
	}
	Conv2DY(im, out, kernel)
	for i := range out.Pix {
		assert.InDelta(t, 2.5, out.Pix[i], 1e-12)
	}
}
