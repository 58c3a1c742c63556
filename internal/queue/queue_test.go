package queue_test

import (
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canhld94/HeteroServing/internal/queue"
)

func TestPushPopFIFO(t *testing.T) {
	q := queue.New[int]()
	for i := 0; i < 5; i++ {
		require.True(t, q.Push(i))
	}
	require.Equal(t, 5, q.Size())
	for i := 0; i < 5; i++ {
		v, ok := q.Pop()
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
	assert.Equal(t, 0, q.Size())
}

func TestPopBlocksUntilPush(t *testing.T) {
	q := queue.New[string]()
	result := make(chan string)
	go func() {
		v, _ := q.Pop()
		result <- v
	}()

	select {
	case <-result:
		t.Fatal("Pop returned on an empty queue")
	case <-time.After(50 * time.Millisecond):
	}

	q.Push("ready")
	select {
	case v := <-result:
		assert.Equal(t, "ready", v)
	case <-time.After(time.Second):
		t.Fatal("Pop never unblocked after a Push")
	}
}

func TestCloseWakesBlockedPop(t *testing.T) {
	q := queue.New[int]()
	done := make(chan bool)
	go func() {
		_, ok := q.Pop()
		done <- ok
	}()

	time.Sleep(20 * time.Millisecond)
	q.Close()

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Pop never unblocked after Close")
	}
}

func TestCloseDrainsPendingItemsBeforeReportingClosed(t *testing.T) {
	q := queue.New[int]()
	q.Push(1)
	q.Push(2)
	q.Close()

	v, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, 1, v)
	v, ok = q.Pop()
	require.True(t, ok)
	assert.Equal(t, 2, v)

	_, ok = q.Pop()
	assert.False(t, ok)
}

func TestPushAfterCloseIsRefused(t *testing.T) {
	q := queue.New[int]()
	q.Close()
	assert.False(t, q.Push(1))
	assert.Equal(t, 0, q.Size())
}

func TestConcurrentPushPopNoLossNoDuplication(t *testing.T) {
	q := queue.New[int]()
	const n = 2000
	const consumers = 8

	go func() {
		for i := 0; i < n; i++ {
			q.Push(i)
		}
	}()

	results := make(chan int, n)
	var consumed sync.WaitGroup
	perConsumer := n / consumers
	for c := 0; c < consumers; c++ {
		consumed.Add(1)
		go func() {
			defer consumed.Done()
			for i := 0; i < perConsumer; i++ {
				v, ok := q.Pop()
				if ok {
					results <- v
				}
			}
		}()
	}
	consumed.Wait()
	close(results)

	seen := make([]int, 0, n)
	for v := range results {
		seen = append(seen, v)
	}
	require.Len(t, seen, n)
	sort.Ints(seen)
	for i, v := range seen {
		assert.Equal(t, i, v)
	}
}
