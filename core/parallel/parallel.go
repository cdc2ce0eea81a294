// Package parallel provides small helpers for fanning independent work
// items out across goroutines. The holdout grid search uses For to run
// one (lambda, rho) cell per work item.
package parallel

import (
	"runtime"
	"sync"
)

// For executes fn(i) for i in [0, items) across at most workers goroutines.
// workers <= 0 selects the number of available CPU cores. Each index is
// handled exactly once; fn must be safe to call concurrently for distinct
// indices.
func For(items, workers int, fn func(i int)) {
	if items <= 0 {
		return
	}

	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > items {
		workers = items
	}

	if workers == 1 {
		for i := 0; i < items; i++ {
			fn(i)
		}
		return
	}

	var wg sync.WaitGroup
	next := make(chan int)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range next {
				fn(i)
			}
		}()
	}

	for i := 0; i < items; i++ {
		next <- i
	}
	close(next)

	wg.Wait()
}

// Chunked divides items into contiguous ranges, one per worker, and executes
// fn(start, end) in parallel for each range. Useful when per-item work is
// tiny and the loop body benefits from locality.
func Chunked(items int, fn func(start, end int)) {
	if items == 0 {
		return
	}

	numWorkers := runtime.NumCPU()
	if numWorkers > items {
		numWorkers = items
	}

	// Ceiling division so every item is covered.
	chunkSize := (items + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if end > items {
			end = items
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}

	wg.Wait()
}
