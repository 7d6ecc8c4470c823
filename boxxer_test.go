package boxxer

import (
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/photonlab/boxxer/errs"
	"github.com/photonlab/boxxer/img"
	"github.com/photonlab/boxxer/maxima"
)

func isoSigma(dim int, sigmas ...float64) *mat.Dense {
	s := mat.NewDense(dim, len(sigmas), nil)
	for d := 0; d < dim; d++ {
		for i, v := range sigmas {
			s.Set(d, i, v)
		}
	}
	return s
}

func addSpot2D(frame *img.Image[float64], cx, cy int, sigma, amp float64) {
	r := int(math.Ceil(4 * sigma))
	for x := cx - r; x <= cx+r; x++ {
		if x < 0 || x >= frame.SizeX {
			continue
		}
		for y := cy - r; y <= cy+r; y++ {
			if y < 0 || y >= frame.SizeY {
				continue
			}
			d2 := float64((x-cx)*(x-cx) + (y-cy)*(y-cy))
			frame.Set(x, y, frame.At(x, y)+amp*math.Exp(-d2/(2*sigma*sigma)))
		}
	}
}

func addSpot3D(c *img.Cube[float64], cx, cy, cz int, sigma, amp float64) {
	r := int(math.Ceil(4 * sigma))
	for x := cx - r; x <= cx+r; x++ {
		for y := cy - r; y <= cy+r; y++ {
			for z := cz - r; z <= cz+r; z++ {
				if x < 0 || x >= c.SizeX || y < 0 || y >= c.SizeY || z < 0 || z >= c.SizeZ {
					continue
				}
				d2 := float64((x-cx)*(x-cx) + (y-cy)*(y-cy) + (z-cz)*(z-cz))
				c.Set(x, y, z, c.At(x, y, z)+amp*math.Exp(-d2/(2*sigma*sigma)))
			}
		}
	}
}

func TestNewBoxxer2DValidation(t *testing.T) {
	t.Parallel()

	_, err := NewBoxxer2D[float64]([]int{64}, isoSigma(2, 1.5))
	assert.ErrorIs(t, err, errs.ErrParameterShape)
	_, err = NewBoxxer2D[float64]([]int{64, 64}, isoSigma(3, 1.5))
	assert.ErrorIs(t, err, errs.ErrParameterShape)
	_, err = NewBoxxer2D[float64]([]int{64, 64}, isoSigma(2, 1.5, -2.0))
	assert.ErrorIs(t, err, errs.ErrParameterValue)

	b, err := NewBoxxer2D[float64]([]int{64, 48}, isoSigma(2, 1.5, 2.2))
	require.NoError(t, err)
	assert.Equal(t, 2, b.NScales())
	assert.Equal(t, []int{64, 48}, b.ImSize())
	assert.InDelta(t, DefaultSigmaRatio, b.SigmaRatio(), 1e-12)

	// ImSize returns a copy.
	b.ImSize()[0] = 1
	assert.Equal(t, []int{64, 48}, b.ImSize())
}

func TestNewBoxxer3DValidation(t *testing.T) {
	t.Parallel()

	_, err := NewBoxxer3D[float64]([]int{16, 16}, isoSigma(3, 1.5))
	assert.ErrorIs(t, err, errs.ErrParameterShape)
	_, err = NewBoxxer3D[float64]([]int{16, 16, 8}, isoSigma(2, 1.5))
	assert.ErrorIs(t, err, errs.ErrParameterShape)
	_, err = NewBoxxer3D[float64]([]int{16, 16, 8}, isoSigma(3, 0))
	assert.ErrorIs(t, err, errs.ErrParameterValue)
}

func TestSetDoGSigmaRatio(t *testing.T) {
	t.Parallel()

	b, err := NewBoxxer2D[float64]([]int{32, 32}, isoSigma(2, 1.5))
	require.NoError(t, err)
	assert.ErrorIs(t, b.SetDoGSigmaRatio(1.0), errs.ErrParameterValue)
	assert.ErrorIs(t, b.SetDoGSigmaRatio(0.5), errs.ErrParameterValue)
	require.NoError(t, b.SetDoGSigmaRatio(1.5))
	assert.InDelta(t, 1.5, b.SigmaRatio(), 1e-12)
}

func TestFilterScaledShapeMismatch(t *testing.T) {
	t.Parallel()

	b, err := NewBoxxer2D[float64]([]int{32, 24}, isoSigma(2, 1.5, 2.2))
	require.NoError(t, err)

	wrong := img.NewStack[float64](24, 32, 2)
	err = b.FilterScaledLoG(wrong, img.NewScaledStack[float64](24, 32, 2, 2))
	assert.ErrorIs(t, err, errs.ErrParameterShape)

	im := b.MakeStack(2)
	badScales := img.NewScaledStack[float64](32, 24, 1, 2)
	err = b.FilterScaledLoG(im, badScales)
	assert.ErrorIs(t, err, errs.ErrParameterShape)

	_, err = b.ScaleSpaceLoGMaxima(wrong, 3, 5)
	assert.ErrorIs(t, err, errs.ErrParameterShape)
}

func TestFilterScaledMatchesSequential(t *testing.T) {
	t.Parallel()

	b, err := NewBoxxer2D[float64]([]int{24, 20}, isoSigma(2, 1.5, 2.2))
	require.NoError(t, err)
	rng := rand.New(rand.NewSource(31))
	im := b.MakeStack(3)
	for i := range im.Pix {
		im.Pix[i] = rng.Float64()
	}
	fim := b.MakeScaledStack(3)
	require.NoError(t, b.FilterScaledLoG(im, fim))

	// Filtering one frame at a time must give the identical result
	// regardless of worker scheduling.
	one := img.NewStack[float64](24, 20, 1)
	oneOut := img.NewScaledStack[float64](24, 20, 2, 1)
	for n := 0; n < 3; n++ {
		copy(one.Pix, im.Frame(n).Pix)
		require.NoError(t, b.FilterScaledLoG(one, oneOut))
		assert.Equal(t, oneOut.Pix, fim.Frame(n).Pix, "frame %d", n)
	}
}

func TestScaleSpaceLoGFindsSpots(t *testing.T) {
	t.Parallel()

	b, err := NewBoxxer2D[float64]([]int{64, 64}, isoSigma(2, 2.0, 3.0))
	require.NoError(t, err)
	stack := b.MakeStack(2)
	type spot struct {
		x, y  int
		sigma float64
	}
	spots := []spot{{16, 16, 2.0}, {16, 48, 3.0}, {48, 16, 2.0}, {48, 48, 3.0}}
	for n := 0; n < stack.Frames; n++ {
		frame := stack.Frame(n)
		for _, s := range spots {
			addSpot2D(frame, s.x, s.y, s.sigma, 1.0)
		}
	}

	blobs, err := b.ScaleSpaceLoGMaxima(stack, 3, 5)
	require.NoError(t, err)

	for n := 0; n < stack.Frames; n++ {
		for _, s := range spots {
			found := false
			for _, bl := range blobs {
				if bl.Frame == n && absInt(bl.X-s.x) <= 2 && absInt(bl.Y-s.y) <= 2 {
					found = true
					break
				}
			}
			assert.True(t, found, "spot (%d,%d) frame %d not detected", s.x, s.y, n)
		}
	}
	// Output is ordered by frame, and tags stay in range.
	lastFrame := 0
	for _, bl := range blobs {
		assert.GreaterOrEqual(t, bl.Frame, lastFrame)
		lastFrame = bl.Frame
		assert.Less(t, bl.Scale, b.NScales())
		assert.GreaterOrEqual(t, bl.Scale, 0)
	}
}

func TestScaleSpaceDoGFindsSpots(t *testing.T) {
	t.Parallel()

	b, err := NewBoxxer2D[float64]([]int{48, 48}, isoSigma(2, 2.0, 3.0))
	require.NoError(t, err)
	stack := b.MakeStack(1)
	frame := stack.Frame(0)
	addSpot2D(frame, 12, 12, 2.0, 1.0)
	addSpot2D(frame, 36, 36, 3.0, 1.0)

	blobs, err := b.ScaleSpaceDoGMaxima(stack, 3, 5)
	require.NoError(t, err)

	for _, want := range [][2]int{{12, 12}, {36, 36}} {
		found := false
		for _, bl := range blobs {
			if absInt(bl.X-want[0]) <= 2 && absInt(bl.Y-want[1]) <= 2 {
				found = true
				break
			}
		}
		assert.True(t, found, "spot %v not detected", want)
	}
}

func TestBoxxer3DFindsSpots(t *testing.T) {
	t.Parallel()

	b, err := NewBoxxer3D[float64]([]int{24, 24, 12}, isoSigma(3, 1.5, 2.2))
	require.NoError(t, err)
	stack := b.MakeStack(1)
	addSpot3D(stack.Frame(0), 12, 12, 6, 1.5, 1.0)

	blobs, err := b.ScaleSpaceLoGMaxima(stack, 3, 3)
	require.NoError(t, err)
	found := false
	for _, bl := range blobs {
		if absInt(bl.X-12) <= 2 && absInt(bl.Y-12) <= 2 && absInt(bl.Z-6) <= 2 {
			found = true
			break
		}
	}
	assert.True(t, found, "3D spot not detected, got %v", blobs)
}

func TestFilterScaled3DMatchesSingleFilters(t *testing.T) {
	t.Parallel()

	b, err := NewBoxxer3D[float64]([]int{12, 11, 10}, isoSigma(3, 1.2, 1.8))
	require.NoError(t, err)
	rng := rand.New(rand.NewSource(37))
	in := b.MakeImage()
	for i := range in.Pix {
		in.Pix[i] = rng.Float64()
	}
	fim := b.MakeScaledImage()
	require.NoError(t, b.FilterScaledLoG(in, fim))

	fim2 := b.MakeScaledImage()
	require.NoError(t, b.FilterScaledLoG(in, fim2))
	assert.Equal(t, fim.Pix, fim2.Pix)
}

func TestEnumerateStackMaxima(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(41))
	im := img.NewStack[float64](16, 16, 3)
	for i := range im.Pix {
		im.Pix[i] = rng.Float64()
	}

	got, err := EnumerateStackMaxima(im, 3)
	require.NoError(t, err)

	finder, err := maxima.NewFinder2D[float64]([]int{16, 16}, 3)
	require.NoError(t, err)
	var want []StackMax2D[float64]
	for n := 0; n < 3; n++ {
		peaks, err := finder.Find(im.Frame(n))
		require.NoError(t, err)
		for _, p := range peaks {
			want = append(want, StackMax2D[float64]{X: p.X, Y: p.Y, Frame: n, Val: p.Val})
		}
	}
	assert.Empty(t, cmp.Diff(want, got))

	require.NoError(t, CheckStackMaxima(im, got))
	if len(got) > 0 {
		got[0].Val += 1
		assert.ErrorIs(t, CheckStackMaxima(im, got), errs.ErrLogical)
	}
}

func TestEnumerateCubeStackMaxima(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(43))
	im := img.NewCubeStack[float64](10, 9, 8, 2)
	for i := range im.Pix {
		im.Pix[i] = rng.Float64()
	}

	got, err := EnumerateCubeStackMaxima(im, 3)
	require.NoError(t, err)

	finder, err := maxima.NewFinder3D[float64]([]int{10, 9, 8}, 3)
	require.NoError(t, err)
	var want []StackMax3D[float64]
	for n := 0; n < 2; n++ {
		peaks, err := finder.Find(im.Frame(n))
		require.NoError(t, err)
		for _, p := range peaks {
			want = append(want, StackMax3D[float64]{X: p.X, Y: p.Y, Z: p.Z, Frame: n, Val: p.Val})
		}
	}
	assert.Empty(t, cmp.Diff(want, got))

	require.NoError(t, CheckCubeStackMaxima(im, got))
	if len(got) > 0 {
		got[0].Val += 1
		assert.ErrorIs(t, CheckCubeStackMaxima(im, got), errs.ErrLogical)
	}
}

func TestFilterStackMatchesSingleFilter(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(47))
	im := img.NewStack[float64](20, 18, 4)
	for i := range im.Pix {
		im.Pix[i] = rng.Float64()
	}
	fim := img.NewStack[float64](20, 18, 4)
	require.NoError(t, FilterGauss(im, fim, []float64{1.4, 1.4}))

	// Gaussian smoothing preserves the frame mean up to mirror effects;
	// just pin one frame against a second identical run for determinism.
	fim2 := img.NewStack[float64](20, 18, 4)
	require.NoError(t, FilterGauss(im, fim2, []float64{1.4, 1.4}))
	assert.Equal(t, fim.Pix, fim2.Pix)

	bad := img.NewStack[float64](18, 20, 4)
	assert.ErrorIs(t, FilterGauss(im, bad, []float64{1.4, 1.4}), errs.ErrParameterShape)
	assert.ErrorIs(t, FilterLoG(im, bad, []float64{1.4, 1.4}), errs.ErrParameterShape)
	assert.ErrorIs(t, FilterDoG(im, bad, []float64{1.4, 1.4}, 1.1), errs.ErrParameterShape)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
