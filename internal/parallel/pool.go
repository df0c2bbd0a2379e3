// Package parallel runs per-pixel work across a fixed set of goroutines.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// minRows is the smallest band worth handing to a worker.
const minRows = 8

// Pool is a set of worker goroutines fed from per-worker queues. Idle
// workers steal from the other queues.
//
// Pool is safe for concurrent use.
type Pool struct {
	workers int
	queues  []chan func()
	done    chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool
}

// NewPool starts a pool of the given size; a size of 0 or less uses
// GOMAXPROCS.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	p := &Pool{
		workers: workers,
		queues:  make([]chan func(), workers),
		done:    make(chan struct{}),
	}
	for i := range p.queues {
		p.queues[i] = make(chan func(), max(8, 4*workers))
	}
	p.running.Store(true)
	p.wg.Add(workers)
	for i := range workers {
		go p.loop(i)
	}
	return p
}

func (p *Pool) loop(id int) {
	defer p.wg.Done()
	own := p.queues[id]
	for {
		select {
		case <-p.done:
			drain(own)
			return
		case fn := <-own:
			fn()
			continue
		default:
		}
		if fn := p.steal(id); fn != nil {
			fn()
			continue
		}
		select {
		case <-p.done:
			drain(own)
			return
		case fn := <-own:
			fn()
		}
	}
}

func drain(q chan func()) {
	for {
		select {
		case fn := <-q:
			fn()
		default:
			return
		}
	}
}

func (p *Pool) steal(id int) func() {
	for i := range p.queues {
		if i == id {
			continue
		}
		select {
		case fn := <-p.queues[i]:
			return fn
		default:
		}
	}
	return nil
}

// Run executes tasks and waits for all of them. After Close, or on a
// nil pool, tasks run on the calling goroutine.
func (p *Pool) Run(tasks []func()) {
	if p == nil || !p.running.Load() || len(tasks) == 1 {
		for _, fn := range tasks {
			fn()
		}
		return
	}
	var wg sync.WaitGroup
	wg.Add(len(tasks))
	for i, fn := range tasks {
		task := func() {
			defer wg.Done()
			fn()
		}
		select {
		case p.queues[i%p.workers] <- task:
		case <-p.done:
			task()
		}
	}
	wg.Wait()
}

// Rows splits rows [0, h) into bands and calls fn once per band,
// concurrently. fn must be safe to call from several goroutines.
func (p *Pool) Rows(h int, fn func(y0, y1 int)) {
	bands := 1
	if p != nil {
		bands = min(p.workers, max(1, h/minRows))
	}
	tasks := make([]func(), 0, bands)
	for b := range bands {
		y0, y1 := b*h/bands, (b+1)*h/bands
		if y0 == y1 {
			continue
		}
		tasks = append(tasks, func() { fn(y0, y1) })
	}
	p.Run(tasks)
}

// Workers returns the pool size; a nil pool has one.
func (p *Pool) Workers() int {
	if p == nil {
		return 1
	}
	return p.workers
}

// Close runs the queued work and stops the workers. It must not race
// with Run. It is safe to call more than once.
func (p *Pool) Close() {
	if p == nil || !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
}
