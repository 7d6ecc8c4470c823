package maxima

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/photonlab/boxxer/errs"
	"github.com/photonlab/boxxer/img"
)

func randImage(rng *rand.Rand, sizeX, sizeY int) *img.Image[float64] {
	im := img.NewImage[float64](sizeX, sizeY)
	for i := range im.Pix {
		im.Pix[i] = rng.Float64()
	}
	return im
}

func sortPeaks2D(ps []Peak2D[float64]) []Peak2D[float64] {
	out := append([]Peak2D[float64](nil), ps...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Y != out[j].Y {
			return out[i].Y < out[j].Y
		}
		return out[i].X < out[j].X
	})
	return out
}

func TestNewFinder2DValidation(t *testing.T) {
	t.Parallel()

	_, err := NewFinder2D[float64]([]int{8}, 3)
	assert.ErrorIs(t, err, errs.ErrParameterShape)
	_, err = NewFinder2D[float64]([]int{8, 8}, 4)
	assert.ErrorIs(t, err, errs.ErrParameterValue)
	_, err = NewFinder2D[float64]([]int{8, 8}, 1)
	assert.ErrorIs(t, err, errs.ErrParameterValue)
	_, err = NewFinder2D[float64]([]int{8, 4}, 5)
	assert.ErrorIs(t, err, errs.ErrParameterValue)

	f, err := NewFinder2D[float64]([]int{8, 8}, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, f.Boxsize())
}

func TestFinder2DSinglePeak(t *testing.T) {
	t.Parallel()

	f, err := NewFinder2D[float64]([]int{9, 9}, 3)
	require.NoError(t, err)

	t.Run("interior", func(t *testing.T) {
		im := img.NewImage[float64](9, 9)
		im.Set(4, 5, 2.0)
		peaks, err := f.Find(im)
		require.NoError(t, err)
		require.Len(t, peaks, 1)
		assert.Equal(t, Peak2D[float64]{X: 4, Y: 5, Val: 2.0}, peaks[0])
	})

	t.Run("corner", func(t *testing.T) {
		im := img.NewImage[float64](9, 9)
		im.Set(0, 0, 2.0)
		im.Set(8, 8, 3.0)
		peaks, err := f.Find(im)
		require.NoError(t, err)
		got := sortPeaks2D(peaks)
		want := []Peak2D[float64]{{X: 0, Y: 0, Val: 2.0}, {X: 8, Y: 8, Val: 3.0}}
		assert.Empty(t, cmp.Diff(want, got))
	})
}

func TestFinder2DPlateauSuppressed(t *testing.T) {
	t.Parallel()

	f, err := NewFinder2D[float64]([]int{9, 9}, 3)
	require.NoError(t, err)

	check := func(t *testing.T, im *img.Image[float64]) {
		peaks, err := f.Find(im)
		require.NoError(t, err)
		assert.Empty(t, peaks)

		slow, err := f.FindSlow(im)
		require.NoError(t, err)
		assert.Empty(t, slow)
	}

	t.Run("x-adjacent", func(t *testing.T) {
		im := img.NewImage[float64](9, 9)
		im.Set(4, 4, 2.0)
		im.Set(5, 4, 2.0) // equal neighbor: neither is a strict maximum
		check(t, im)
	})

	t.Run("y-adjacent", func(t *testing.T) {
		im := img.NewImage[float64](9, 9)
		im.Set(4, 4, 2.0)
		im.Set(4, 5, 2.0)
		check(t, im)
	})

	t.Run("rising run into plateau", func(t *testing.T) {
		// The tail of an increasing run that ends flat must not be
		// reported either.
		im := img.NewImage[float64](9, 9)
		im.Set(3, 4, 1.0)
		im.Set(4, 4, 2.0)
		im.Set(5, 4, 2.0)
		check(t, im)
	})
}

func TestFinder2DMatchesSlow(t *testing.T) {
	t.Parallel()

	for _, dims := range [][2]int{{9, 9}, {16, 11}, {33, 7}, {7, 33}} {
		f, err := NewFinder2D[float64]([]int{dims[0], dims[1]}, 3)
		require.NoError(t, err)
		for seed := int64(0); seed < 5; seed++ {
			rng := rand.New(rand.NewSource(seed))
			im := randImage(rng, dims[0], dims[1])
			fast, err := f.Find(im)
			require.NoError(t, err)
			slow, err := f.FindSlow(im)
			require.NoError(t, err)
			diff := cmp.Diff(sortPeaks2D(slow), sortPeaks2D(fast))
			assert.Empty(t, diff, "dims=%v seed=%d", dims, seed)
		}
	}
}

func TestFinder2DNxNMatchesOracle(t *testing.T) {
	t.Parallel()

	f, err := NewFinder2D[float64]([]int{15, 12}, 5)
	require.NoError(t, err)
	for seed := int64(0); seed < 5; seed++ {
		rng := rand.New(rand.NewSource(100 + seed))
		im := randImage(rng, 15, 12)
		got, err := f.Find(im)
		require.NoError(t, err)

		var want []Peak2D[float64]
		for y := 0; y < 12; y++ {
			for x := 0; x < 15; x++ {
				if CheckPeak2D(im, x, y, 5) {
					want = append(want, Peak2D[float64]{X: x, Y: y, Val: im.At(x, y)})
				}
			}
		}
		diff := cmp.Diff(want, sortPeaks2D(got))
		assert.Empty(t, diff, "seed=%d", seed)
	}
}

func TestFinder2DNxNEqualRingAccepted(t *testing.T) {
	t.Parallel()

	// An equal sample in the wide ring does not reject a 3x3 maximum; only
	// a strictly greater one does.
	f, err := NewFinder2D[float64]([]int{9, 9}, 5)
	require.NoError(t, err)

	im := img.NewImage[float64](9, 9)
	im.Set(4, 4, 10)
	im.Set(4, 6, 10)
	peaks, err := f.Find(im)
	require.NoError(t, err)
	got := sortPeaks2D(peaks)
	want := []Peak2D[float64]{{X: 4, Y: 4, Val: 10}, {X: 4, Y: 6, Val: 10}}
	assert.Empty(t, cmp.Diff(want, got))

	im.Set(4, 6, 11)
	peaks, err = f.Find(im)
	require.NoError(t, err)
	require.Len(t, peaks, 1)
	assert.Equal(t, Peak2D[float64]{X: 4, Y: 6, Val: 11}, peaks[0])
}

func TestFinder2DCapacityOverflow(t *testing.T) {
	t.Parallel()

	// 9 strict maxima on a 5x5 image exceed the sizeX*sizeY/4 capacity.
	f, err := NewFinder2D[float64]([]int{5, 5}, 3)
	require.NoError(t, err)
	im := img.NewImage[float64](5, 5)
	v := 1.0
	for y := 0; y < 5; y += 2 {
		for x := 0; x < 5; x += 2 {
			im.Set(x, y, v)
			v++
		}
	}
	_, err = f.Find(im)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrLogical)
}

func TestFinder2DShapeMismatch(t *testing.T) {
	t.Parallel()

	f, err := NewFinder2D[float64]([]int{9, 9}, 3)
	require.NoError(t, err)
	_, err = f.Find(img.NewImage[float64](9, 8))
	assert.ErrorIs(t, err, errs.ErrParameterShape)
}

func TestCheckPeak2D(t *testing.T) {
	t.Parallel()

	im := img.NewImage[float64](7, 7)
	im.Set(3, 3, 5)
	im.Set(3, 5, 5)
	assert.False(t, im.At(3, 3) > im.At(3, 5)) // sanity: equal values
	assert.True(t, CheckPeak2D(im, 3, 3, 3))
	assert.False(t, CheckPeak2D(im, 3, 3, 5)) // equal sample in the 5-box rejects in the oracle
	assert.False(t, CheckPeak2D(im, 3, 4, 3))
}
