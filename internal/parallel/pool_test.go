// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package parallel

import (
	"image"
	"sync"
	"testing"
)

func coverage(t *testing.T, p *WorkerPool, r image.Rectangle) (rows []int, calls int) {
	t.Helper()
	rows = make([]int, r.Max.Y)
	var mu sync.Mutex
	p.Rows(r, func(y0, y1 int) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		for y := y0; y < y1; y++ {
			rows[y]++
		}
	})
	return rows, calls
}

func TestRows(t *testing.T) {
	p := NewWorkerPool(4)
	defer p.Close()

	tests := []struct {
		name      string
		r         image.Rectangle
		wantCalls int
	}{
		{"tall", image.Rect(0, 0, 8, 100), 4},
		{"offset", image.Rect(0, 10, 8, 75), 4},
		{"short", image.Rect(0, 0, 8, 20), 1},
		{"empty", image.Rect(0, 0, 8, 0), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, calls := coverage(t, p, tt.r)
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			for y := range rows {
				want := 0
				if y >= tt.r.Min.Y && y < tt.r.Max.Y {
					want = 1
				}
				if rows[y] != want {
					t.Fatalf("row %d visited %d times, want %d", y, rows[y], want)
				}
			}
		})
	}
}

func TestNilAndClosedPools(t *testing.T) {
	var nilPool *WorkerPool
	if nilPool.Workers() != 1 {
		t.Errorf("nil Workers() = %d", nilPool.Workers())
	}
	if _, calls := coverage(t, nilPool, image.Rect(0, 0, 1, 200)); calls != 1 {
		t.Errorf("nil pool calls = %d, want 1", calls)
	}
	nilPool.Close()

	p := NewWorkerPool(0)
	if p.Workers() < 1 {
		t.Errorf("Workers() = %d", p.Workers())
	}
	p.Close()
	p.Close()
	if _, calls := coverage(t, p, image.Rect(0, 0, 1, 200)); calls != 1 {
		t.Errorf("closed pool calls = %d, want 1", calls)
	}
}
