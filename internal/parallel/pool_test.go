package parallel

import (
	"sync/atomic"
	"testing"
)

func TestExecuteRangeVisitsEveryIndex(t *testing.T) {
	p := New(4)
	defer p.Close()

	const n = 1000
	var hits [n]int32
	p.ExecuteRange(n, func(i int) {
		atomic.AddInt32(&hits[i], 1)
	})

	for i, h := range hits {
		if h != 1 {
			t.Fatalf("index %d visited %d times, want 1", i, h)
		}
	}
}

func TestExecuteAllSumsCorrectly(t *testing.T) {
	p := New(0) // GOMAXPROCS sizing
	defer p.Close()

	var total int64
	work := make([]func(), 200)
	for i := range work {
		work[i] = func() { atomic.AddInt64(&total, 1) }
	}
	p.ExecuteAll(work)

	if total != int64(len(work)) {
		t.Fatalf("total = %d, want %d", total, len(work))
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	p := New(2)
	p.Close()
	p.Close() // must not panic or deadlock
}
