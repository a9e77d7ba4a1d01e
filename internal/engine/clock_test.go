package engine

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClock_Next(t *testing.T) {
	c := NewClock()

	assert.Equal(t, int64(1), c.Next())
	assert.Equal(t, int64(2), c.Next())
	assert.Equal(t, int64(3), c.Next())
}

func TestClock_ConcurrentNext(t *testing.T) {
	c := NewClock()
	const workers, perWorker = 8, 200

	var mu sync.Mutex
	seen := make(map[int64]bool, workers*perWorker)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				seq := c.Next()
				mu.Lock()
				seen[seq] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*perWorker)
	assert.Equal(t, int64(workers*perWorker+1), c.Next())
}
