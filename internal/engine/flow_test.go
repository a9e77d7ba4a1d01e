package engine

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDv7Generator_ValidFormat(t *testing.T) {
	id := UUIDv7Generator{}.Generate()

	assert.Len(t, id, 36)
	parsed, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
}

func TestUUIDv7Generator_Uniqueness(t *testing.T) {
	gen := UUIDv7Generator{}
	const iterations = 1000

	ids := make(map[string]bool, iterations)
	for i := 0; i < iterations; i++ {
		id := gen.Generate()
		require.False(t, ids[id], "id %s generated twice", id)
		ids[id] = true
	}
}

func TestFixedGenerator_InOrder(t *testing.T) {
	gen := NewFixedGenerator("batch-1", "batch-2")

	assert.Equal(t, "batch-1", gen.Generate())
	assert.Equal(t, "batch-2", gen.Generate())
	assert.Panics(t, func() { gen.Generate() })
}

func TestFixedGenerator_ThreadSafe(t *testing.T) {
	const n = 100
	ids := make([]string, n)
	for i := range ids {
		ids[i] = uuid.NewString()
	}
	gen := NewFixedGenerator(ids...)

	var mu sync.Mutex
	seen := make(map[string]bool)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := gen.Generate()
			mu.Lock()
			seen[id] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, n)
}
