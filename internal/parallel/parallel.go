// Package parallel runs a fixed set of independent work items over a
// bounded pool of workers.
//
// Each worker receives the shared job channel, so it can set up private
// per-worker state (filters, scratch buffers) once and then range over the
// jobs. Panics inside a worker are recovered and converted to errors; the
// first failure is reported after every worker has finished, and remaining
// jobs are drained so the feeder never blocks.
package parallel

import (
	"fmt"
	"runtime"
	"sync"
)

// Run distributes job indices 0..nItems-1 over min(GOMAXPROCS, nItems)
// workers and waits for all of them. The returned error is the first one
// any worker produced, or nil.
func Run(nItems int, worker func(jobs <-chan int) error) error {
	nWorkers := runtime.GOMAXPROCS(0)
	if nWorkers > nItems {
		nWorkers = nItems
	}
	if nWorkers < 1 {
		nWorkers = 1
	}
	jobs := make(chan int)
	var wg sync.WaitGroup
	var once sync.Once
	var firstErr error
	fail := func(err error) {
		once.Do(func() { firstErr = err })
		for range jobs {
			// Drain so the feeder can finish.
		}
	}
	for i := 0; i < nWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					fail(fmt.Errorf("worker panic: %v", r))
				}
			}()
			if err := worker(jobs); err != nil {
				fail(err)
			}
		}()
	}
	for i := 0; i < nItems; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return firstErr
}
