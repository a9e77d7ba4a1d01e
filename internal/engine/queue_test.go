package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/eventchain/internal/source"
)

func TestDeliveryQueue_FIFO(t *testing.T) {
	q := newDeliveryQueue()

	for _, id := range []string{"A", "B", "C"} {
		require.True(t, q.Enqueue(source.Delivery{ID: id}))
	}
	assert.Equal(t, 3, q.Len())

	for _, want := range []string{"A", "B", "C"} {
		d, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, want, d.ID)
	}
	assert.Equal(t, 0, q.Len())
}

func TestDeliveryQueue_TryDequeue_Empty(t *testing.T) {
	q := newDeliveryQueue()

	_, ok := q.TryDequeue()
	assert.False(t, ok)
}

func TestDeliveryQueue_EnqueueAfterClose(t *testing.T) {
	q := newDeliveryQueue()
	q.Close()

	assert.False(t, q.Enqueue(source.Delivery{ID: "late"}))
	assert.Equal(t, 0, q.Len())
}

func TestDeliveryQueue_CloseTwice(t *testing.T) {
	q := newDeliveryQueue()
	q.Close()
	assert.NotPanics(t, q.Close)
}

func TestDeliveryQueue_WaitSignals(t *testing.T) {
	q := newDeliveryQueue()

	go func() {
		time.Sleep(10 * time.Millisecond)
		q.Enqueue(source.Delivery{ID: "A"})
	}()

	select {
	case <-q.Wait():
	case <-time.After(time.Second):
		t.Fatal("no signal after enqueue")
	}

	d, ok := q.TryDequeue()
	require.True(t, ok)
	assert.Equal(t, "A", d.ID)
}

func TestDeliveryQueue_CloseWakesWaiters(t *testing.T) {
	q := newDeliveryQueue()

	done := make(chan struct{})
	go func() {
		<-q.Wait()
		close(done)
	}()

	q.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("waiter not woken by Close")
	}
}
