package workerpool

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitRunsAllTasks(t *testing.T) {
	p := New(4)
	defer p.Close()

	const n = 200
	var counter atomic.Int64
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		p.Submit(func() {
			counter.Add(1)
			wg.Done()
		})
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("not all tasks ran")
	}
	assert.Equal(t, int64(n), counter.Load())
}

func TestCloseWaitsForInFlightAndQueuedTasks(t *testing.T) {
	p := New(2)

	var ran atomic.Int64
	for i := 0; i < 10; i++ {
		p.Submit(func() {
			time.Sleep(time.Millisecond)
			ran.Add(1)
		})
	}

	p.Close()
	assert.Equal(t, int64(10), ran.Load())
}

func TestSubmitAfterCloseIsNoOp(t *testing.T) {
	p := New(1)
	p.Close()

	var ran atomic.Bool
	p.Submit(func() { ran.Store(true) })
	time.Sleep(10 * time.Millisecond)
	assert.False(t, ran.Load())
}

func TestFairnessIsFIFO(t *testing.T) {
	// A single worker drains strictly in submission order.
	p := New(1)
	defer p.Close()

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup
	wg.Add(5)
	for i := 0; i < 5; i++ {
		i := i
		p.Submit(func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			wg.Done()
		})
	}
	wg.Wait()

	require.Len(t, order, 5)
	for i, v := range order {
		assert.Equal(t, i, v)
	}
}
