package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Stats counts finished jobs.
type Stats struct {
	Processed uint64
	Failed    uint64
}

func (s Stats) Total() uint64 {
	return s.Processed + s.Failed
}

// Pool runs jobs on a fixed number of goroutines. A pool of one worker runs
// every job inline in Do.
type Pool struct {
	wg    sync.WaitGroup
	jobs  chan func()
	close func()

	processed, failed atomic.Uint64
}

func Start(numWorkers int) *Pool {
	if numWorkers < 1 {
		numWorkers = runtime.GOMAXPROCS(0)
	}

	pool := &Pool{close: func() {}}
	if numWorkers > 1 {
		pool.jobs = make(chan func(), numWorkers)
		for range numWorkers {
			pool.wg.Go(func() {
				for f := range pool.jobs {
					f()
				}
			})
		}
		pool.close = sync.OnceFunc(func() { close(pool.jobs) })
	}
	return pool
}

// Do schedules job, blocking while every worker is busy. Do must not be
// called after Wait.
func (p *Pool) Do(job func() error) {
	f := func() {
		if err := job(); err != nil {
			p.failed.Add(1)
			return
		}
		p.processed.Add(1)
	}
	if p.jobs == nil {
		f()
		return
	}
	p.jobs <- f
}

// Wait stops accepting jobs, waits for the scheduled ones and returns the
// final counts.
func (p *Pool) Wait() Stats {
	p.close()
	p.wg.Wait()
	return Stats{
		Processed: p.processed.Load(),
		Failed:    p.failed.Load(),
	}
}
