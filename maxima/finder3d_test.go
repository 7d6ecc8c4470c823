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

func randCube(rng *rand.Rand, sizeX, sizeY, sizeZ int) *img.Cube[float64] {
	c := img.NewCube[float64](sizeX, sizeY, sizeZ)
	for i := range c.Pix {
		c.Pix[i] = rng.Float64()
	}
	return c
}

func sortPeaks3D(ps []Peak3D[float64]) []Peak3D[float64] {
	out := append([]Peak3D[float64](nil), ps...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Z != out[j].Z {
			return out[i].Z < out[j].Z
		}
		if out[i].Y != out[j].Y {
			return out[i].Y < out[j].Y
		}
		return out[i].X < out[j].X
	})
	return out
}

func TestNewFinder3DValidation(t *testing.T) {
	t.Parallel()

	_, err := NewFinder3D[float64]([]int{8, 8}, 3)
	assert.ErrorIs(t, err, errs.ErrParameterShape)
	_, err = NewFinder3D[float64]([]int{8, 8, 8}, 2)
	assert.ErrorIs(t, err, errs.ErrParameterValue)
	_, err = NewFinder3D[float64]([]int{8, 8, 4}, 5)
	assert.ErrorIs(t, err, errs.ErrParameterValue)

	f, err := NewFinder3D[float64]([]int{8, 8, 8}, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, f.Boxsize())
}

func TestFinder3DSinglePeak(t *testing.T) {
	t.Parallel()

	f, err := NewFinder3D[float64]([]int{7, 8, 9}, 3)
	require.NoError(t, err)

	t.Run("interior", func(t *testing.T) {
		c := img.NewCube[float64](7, 8, 9)
		c.Set(3, 4, 5, 2.0)
		peaks, err := f.Find(c)
		require.NoError(t, err)
		require.Len(t, peaks, 1)
		assert.Equal(t, Peak3D[float64]{X: 3, Y: 4, Z: 5, Val: 2.0}, peaks[0])
	})

	t.Run("corners", func(t *testing.T) {
		c := img.NewCube[float64](7, 8, 9)
		c.Set(0, 0, 0, 2.0)
		c.Set(6, 7, 8, 3.0)
		peaks, err := f.Find(c)
		require.NoError(t, err)
		got := sortPeaks3D(peaks)
		want := []Peak3D[float64]{
			{X: 0, Y: 0, Z: 0, Val: 2.0},
			{X: 6, Y: 7, Z: 8, Val: 3.0},
		}
		assert.Empty(t, cmp.Diff(want, got))
	})
}

func TestFinder3DPlateauSuppressed(t *testing.T) {
	t.Parallel()

	f, err := NewFinder3D[float64]([]int{7, 7, 7}, 3)
	require.NoError(t, err)

	check := func(t *testing.T, c *img.Cube[float64]) {
		peaks, err := f.Find(c)
		require.NoError(t, err)
		assert.Empty(t, peaks)

		slow, err := f.FindSlow(c)
		require.NoError(t, err)
		assert.Empty(t, slow)
	}

	t.Run("x-adjacent", func(t *testing.T) {
		c := img.NewCube[float64](7, 7, 7)
		c.Set(3, 3, 3, 2.0)
		c.Set(4, 3, 3, 2.0)
		check(t, c)
	})

	t.Run("y-adjacent", func(t *testing.T) {
		c := img.NewCube[float64](7, 7, 7)
		c.Set(3, 3, 3, 2.0)
		c.Set(3, 4, 3, 2.0)
		check(t, c)
	})

	t.Run("z-adjacent", func(t *testing.T) {
		c := img.NewCube[float64](7, 7, 7)
		c.Set(3, 3, 3, 2.0)
		c.Set(3, 3, 4, 2.0)
		check(t, c)
	})

	t.Run("rising run into plateau", func(t *testing.T) {
		c := img.NewCube[float64](7, 7, 7)
		c.Set(2, 3, 3, 1.0)
		c.Set(3, 3, 3, 2.0)
		c.Set(4, 3, 3, 2.0)
		check(t, c)
	})
}

func TestFinder3DMatchesSlow(t *testing.T) {
	t.Parallel()

	for _, dims := range [][3]int{{7, 8, 9}, {12, 5, 6}, {5, 12, 7}} {
		f, err := NewFinder3D[float64]([]int{dims[0], dims[1], dims[2]}, 3)
		require.NoError(t, err)
		for seed := int64(0); seed < 4; seed++ {
			rng := rand.New(rand.NewSource(200 + seed))
			c := randCube(rng, dims[0], dims[1], dims[2])
			fast, err := f.Find(c)
			require.NoError(t, err)
			slow, err := f.FindSlow(c)
			require.NoError(t, err)
			diff := cmp.Diff(sortPeaks3D(slow), sortPeaks3D(fast))
			assert.Empty(t, diff, "dims=%v seed=%d", dims, seed)
		}
	}
}

func TestFinder3DNxNMatchesOracle(t *testing.T) {
	t.Parallel()

	f, err := NewFinder3D[float64]([]int{11, 10, 9}, 5)
	require.NoError(t, err)
	for seed := int64(0); seed < 3; seed++ {
		rng := rand.New(rand.NewSource(300 + seed))
		c := randCube(rng, 11, 10, 9)
		got, err := f.Find(c)
		require.NoError(t, err)

		var want []Peak3D[float64]
		for z := 0; z < 9; z++ {
			for y := 0; y < 10; y++ {
				for x := 0; x < 11; x++ {
					if CheckPeak3D(c, x, y, z, 5) {
						want = append(want, Peak3D[float64]{X: x, Y: y, Z: z, Val: c.At(x, y, z)})
					}
				}
			}
		}
		diff := cmp.Diff(want, sortPeaks3D(got))
		assert.Empty(t, diff, "seed=%d", seed)
	}
}

func TestFinder3DCapacityOverflow(t *testing.T) {
	t.Parallel()

	// 27 strict maxima on a 5x5x5 volume exceed the capacity of
	// sizeX*sizeY*sizeZ/8 peaks.
	f, err := NewFinder3D[float64]([]int{5, 5, 5}, 3)
	require.NoError(t, err)
	c := img.NewCube[float64](5, 5, 5)
	v := 1.0
	for z := 0; z < 5; z += 2 {
		for y := 0; y < 5; y += 2 {
			for x := 0; x < 5; x += 2 {
				c.Set(x, y, z, v)
				v++
			}
		}
	}
	_, err = f.Find(c)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrLogical)
}

func TestCheckPeak3D(t *testing.T) {
	t.Parallel()

	c := img.NewCube[float64](7, 7, 7)
	c.Set(3, 3, 3, 5)
	assert.True(t, CheckPeak3D(c, 3, 3, 3, 3))
	assert.False(t, CheckPeak3D(c, 3, 3, 2, 3))

	c.Set(3, 3, 5, 5)
	assert.True(t, CheckPeak3D(c, 3, 3, 3, 3))
	assert.False(t, CheckPeak3D(c, 3, 3, 3, 5))
}
