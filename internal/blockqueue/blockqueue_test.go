package blockqueue

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushPopFIFOOrder(t *testing.T) {
	q := New[int](4)
	for i := 0; i < 4; i++ {
		require.True(t, q.PushBack(i))
	}
	for i := 0; i < 4; i++ {
		v, ok := q.PopFront()
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
}

func TestPushBackBlocksWhileFull(t *testing.T) {
	q := New[int](1)
	require.True(t, q.PushBack(1))

	done := make(chan struct{})
	go func() {
		q.PushBack(2) // must block until a PopFront frees a slot
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("PushBack returned before queue had room")
	case <-time.After(20 * time.Millisecond):
	}

	v, ok := q.PopFront()
	require.True(t, ok)
	assert.Equal(t, 1, v)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("PushBack did not unblock after PopFront freed a slot")
	}
}

func TestPopFrontBlocksThenClose(t *testing.T) {
	q := New[string](2)
	var wg sync.WaitGroup
	wg.Add(1)
	var got bool
	go func() {
		defer wg.Done()
		_, got = q.PopFront()
	}()

	time.Sleep(20 * time.Millisecond)
	q.Close()
	wg.Wait()
	assert.False(t, got)
}

func TestPopFrontTimeout(t *testing.T) {
	q := New[int](2)
	start := time.Now()
	_, ok := q.PopFrontTimeout(30 * time.Millisecond)
	assert.False(t, ok)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestFlushWakesConsumerWithoutEnqueuing(t *testing.T) {
	q := New[int](2)
	woke := make(chan struct{})
	go func() {
		q.PopFrontTimeout(time.Second)
		close(woke)
	}()
	time.Sleep(10 * time.Millisecond)
	q.Flush()

	select {
	case <-woke:
	case <-time.After(time.Second):
		t.Fatal("flush did not wake the waiting consumer")
	}
}

func TestCloseDrainsAndRejectsFurtherPushes(t *testing.T) {
	q := New[int](4)
	require.True(t, q.PushBack(1))
	q.Close()

	assert.Equal(t, 0, q.Len())
	assert.False(t, q.PushBack(2))
	_, ok := q.PopFront()
	assert.False(t, ok)
}
