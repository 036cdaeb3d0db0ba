package engine

import "sync"

// Runner schedules engine-internal work across workers. The codec layer only
// constructs one and hands it to the engine; it never schedules work itself.
type Runner interface {
	// Run invokes fn for every index in [0, n), possibly concurrently.
	// Run returns once all invocations have completed.
	Run(n int, fn func(i int))
}

type threadRunner struct {
	workers int
}

// NewThreadRunner returns a Runner backed by a fixed-size goroutine pool.
// workers < 1 is treated as 1.
func NewThreadRunner(workers int) Runner {
	if workers < 1 {
		workers = 1
	}
	return &threadRunner{workers: workers}
}

func (r *threadRunner) Run(n int, fn func(i int)) {
	if n <= 0 {
		return
	}
	workers := r.workers
	if workers > n {
		workers = n
	}
	if workers == 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}

	var wg sync.WaitGroup
	next := make(chan int)
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range next {
				fn(i)
			}
		}()
	}
	for i := 0; i < n; i++ {
		next <- i
	}
	close(next)
	wg.Wait()
}
