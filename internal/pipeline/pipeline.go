package pipeline

import (
	"runtime"
	"sync"
)

// Job processes item i. Jobs write their own output slot, so callers keep
// input order without extra bookkeeping.
type Job func(i int)

// Run calls fn for every index in [0, n) on at most workers goroutines and
// returns when all calls have finished. workers <= 0 means one per CPU.
func Run(n, workers int, fn Job) {
	if n <= 0 || fn == nil {
		return
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
		if workers < 1 {
			workers = 1
		}
	}
	if workers > n {
		workers = n
	}
	if workers == 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				fn(i)
			}
		}()
	}

	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
}
