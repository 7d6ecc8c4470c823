package parallel

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunProcessesEveryItem(t *testing.T) {
	t.Parallel()

	const n = 100
	var seen [n]int32
	err := Run(n, func(jobs <-chan int) error {
		for i := range jobs {
			atomic.AddInt32(&seen[i], 1)
		}
		return nil
	})
	require.NoError(t, err)
	for i, c := range seen {
		assert.Equal(t, int32(1), c, "item %d", i)
	}
}

func TestRunZeroItems(t *testing.T) {
	t.Parallel()

	var calls int32
	err := Run(0, func(jobs <-chan int) error {
		for range jobs {
			atomic.AddInt32(&calls, 1)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestRunPropagatesError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	err := Run(50, func(jobs <-chan int) error {
		for i := range jobs {
			if i == 7 {
				return boom
			}
		}
		return nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestRunRecoversPanic(t *testing.T) {
	t.Parallel()

	err := Run(20, func(jobs <-chan int) error {
		for i := range jobs {
			if i == 3 {
				panic("kaboom")
			}
		}
		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "worker panic")
	assert.Contains(t, err.Error(), "kaboom")
}

func TestRunWorkerStatePerGoroutine(t *testing.T) {
	t.Parallel()

	// Each worker sets up private state once and reuses it across jobs.
	var setups int32
	err := Run(16, func(jobs <-chan int) error {
		atomic.AddInt32(&setups, 1)
		scratch := make([]int, 0, 16)
		for i := range jobs {
			scratch = append(scratch, i)
		}
		return nil
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, atomic.LoadInt32(&setups), int32(16))
	assert.GreaterOrEqual(t, atomic.LoadInt32(&setups), int32(1))
}
