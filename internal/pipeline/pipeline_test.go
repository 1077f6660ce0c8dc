package pipeline

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestRunVisitsEveryIndexOnce(t *testing.T) {
	const n = 50
	var called int32
	seen := make([]int32, n)
	Run(n, 4, func(i int) {
		atomic.AddInt32(&called, 1)
		atomic.AddInt32(&seen[i], 1)
	})

	if called != n {
		t.Fatalf("expected %d calls, got %d", n, called)
	}
	for i, c := range seen {
		if c != 1 {
			t.Fatalf("index %d visited %d times", i, c)
		}
	}
}

func TestRunBoundsConcurrency(t *testing.T) {
	var mu sync.Mutex
	active, peak := 0, 0
	Run(40, 3, func(int) {
		mu.Lock()
		active++
		if active > peak {
			peak = active
		}
		mu.Unlock()
		for i := 0; i < 1000; i++ {
			_ = i * i
		}
		mu.Lock()
		active--
		mu.Unlock()
	})
	if peak > 3 {
		t.Fatalf("expected at most 3 concurrent jobs, saw %d", peak)
	}
}

func TestRunSingleWorkerIsSequential(t *testing.T) {
	order := make([]int, 0, 5)
	Run(5, 1, func(i int) { order = append(order, i) })
	for i, v := range order {
		if v != i {
			t.Fatalf("expected sequential order, got %v", order)
		}
	}
}

func TestRunEmpty(t *testing.T) {
	Run(0, 4, func(int) { t.Fatal("unexpected call") })
	Run(3, 2, nil)
}
