// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package parallel splits per-row image work across a fixed set of worker
// goroutines.
package parallel

import (
	"image"
	"runtime"
	"sync"
	"sync/atomic"
)

// MinBandRows is the smallest band handed to a worker. Smaller images are
// processed on the calling goroutine.
const MinBandRows = 16

// WorkerPool runs row bands on a fixed set of workers.
//
// A nil *WorkerPool is valid and runs everything on the caller.
// WorkerPool is safe for concurrent use.
type WorkerPool struct {
	workers int
	work    chan func()
	done    chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool
}

// NewWorkerPool starts workers goroutines. Zero or negative uses
// GOMAXPROCS.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	p := &WorkerPool{
		workers: workers,
		work:    make(chan func(), workers*4),
		done:    make(chan struct{}),
	}
	p.running.Store(true)
	p.wg.Add(workers)
	for range workers {
		go p.worker()
	}
	return p
}

func (p *WorkerPool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.done:
			return
		case fn := <-p.work:
			fn()
		}
	}
}

// Workers returns the number of workers, 1 for a nil pool.
func (p *WorkerPool) Workers() int {
	if p == nil {
		return 1
	}
	return p.workers
}

// Rows calls fn for horizontal bands covering r and returns when every
// band is done. Bands do not overlap, so fn may write its rows freely.
func (p *WorkerPool) Rows(r image.Rectangle, fn func(minY, maxY int)) {
	if r.Empty() {
		return
	}
	h := r.Dy()
	bands := min(p.Workers(), h/MinBandRows)
	if bands <= 1 || !p.running.Load() {
		fn(r.Min.Y, r.Max.Y)
		return
	}

	var wg sync.WaitGroup
	step := (h + bands - 1) / bands
	for y := r.Min.Y; y < r.Max.Y; y += step {
		y0, y1 := y, min(y+step, r.Max.Y)
		wg.Add(1)
		task := func() {
			defer wg.Done()
			fn(y0, y1)
		}
		select {
		case p.work <- task:
		case <-p.done:
			task()
		}
	}
	wg.Wait()
}

// Close stops the workers. Rows keeps working serially afterwards.
// Close is idempotent.
func (p *WorkerPool) Close() {
	if p == nil || !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
}
