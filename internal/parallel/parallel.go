// Package parallel fans independent work items out over goroutines.
//
// A training step evaluates every window of a batch independently, so the
// windows are split into contiguous chunks and each chunk runs on its own
// goroutine. Callers write results into per-index slots and reduce them in
// index order afterwards, which keeps results independent of the worker
// count.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool // Whether parallel execution is enabled.
	NumWorkers   int  // Number of worker goroutines to use.
	MinChunkSize int  // Minimum items per goroutine.
}

// DefaultConfig uses one worker per CPU.
//
// One item is a whole sequence forward pass, so a single item already
// outweighs goroutine overhead.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 1,
	}
}

// Sequential returns a Config that runs everything on the calling goroutine.
func Sequential() Config {
	return Config{Enabled: false, NumWorkers: 1, MinChunkSize: 1}
}

// chunkSize returns the number of items per goroutine for n items, or 0
// when the work should run on the calling goroutine.
func (c Config) chunkSize(n int) int {
	minChunk := max(c.MinChunkSize, 1)
	if !c.Enabled || c.NumWorkers <= 1 || n < 2*minChunk {
		return 0
	}
	return max((n+c.NumWorkers-1)/c.NumWorkers, minChunk)
}

// For calls f(i) for every i in [0, n) and returns when all calls are done.
func For(n int, f func(i int), cfg Config) {
	size := cfg.chunkSize(n)
	if size == 0 {
		for i := range n {
			f(i)
		}
		return
	}

	var wg sync.WaitGroup
	for lo := 0; lo < n; lo += size {
		hi := min(lo+size, n)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				f(i)
			}
		}()
	}
	wg.Wait()
}

// ForErr is For for fallible work. Every index runs; the error of the
// lowest failing index is returned.
func ForErr(n int, f func(i int) error, cfg Config) error {
	errs := make([]error, n)
	For(n, func(i int) {
		errs[i] = f(i)
	}, cfg)
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
