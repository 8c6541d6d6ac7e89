package parallel

import (
	"sync/atomic"
	"testing"
)

func TestWorkerPoolExecuteAll(t *testing.T) {
	p := NewWorkerPool(4)
	defer p.Close()

	var count atomic.Int64
	work := make([]func(), 100)
	for i := range work {
		work[i] = func() { count.Add(1) }
	}

	p.ExecuteAll(work)

	if got := count.Load(); got != 100 {
		t.Errorf("executed %d items, want 100", got)
	}
}

func TestWorkerPoolDefaultWorkers(t *testing.T) {
	p := NewWorkerPool(0)
	defer p.Close()

	if p.Workers() <= 0 {
		t.Errorf("Workers() = %d, want > 0", p.Workers())
	}
}

func TestWorkerPoolSubmit(t *testing.T) {
	p := NewWorkerPool(2)

	var count atomic.Int64
	done := make(chan struct{})
	p.Submit(func() {
		count.Add(1)
		close(done)
	})
	<-done

	if count.Load() != 1 {
		t.Error("submitted work did not run")
	}

	p.Close()
	if p.IsRunning() {
		t.Error("pool still running after Close")
	}

	// Submit after close is a no-op, not a panic.
	p.Submit(func() { count.Add(1) })
	if count.Load() != 1 {
		t.Error("work ran after Close")
	}
}

func TestWorkerPoolCloseIdempotent(t *testing.T) {
	p := NewWorkerPool(2)
	p.Close()
	p.Close()
}

func TestWorkerPoolUnevenWork(t *testing.T) {
	// Mixed fast and slow items exercise the stealing path.
	p := NewWorkerPool(4)
	defer p.Close()

	var sum atomic.Int64
	work := make([]func(), 64)
	for i := range work {
		n := i
		work[i] = func() {
			acc := 0
			for j := 0; j < (n%8)*1000; j++ {
				acc += j
			}
			_ = acc
			sum.Add(1)
		}
	}

	p.ExecuteAll(work)

	if sum.Load() != 64 {
		t.Errorf("completed %d, want 64", sum.Load())
	}
}
