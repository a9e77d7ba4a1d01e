package source

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, input string) ([]Delivery, error) {
	t.Helper()
	var got []Delivery
	err := NewLines(strings.NewReader(input), "test").Run(context.Background(),
		func(ctx context.Context, d Delivery) error {
			got = append(got, d)
			return nil
		})
	return got, err
}

func TestLines_DeliversInOrder(t *testing.T) {
	input := `{"type":"ONMEMPOOL","tx":{"tx":{"h":"a"}}}

{"type":"ONMEMPOOL","tx":{"tx":{"h":"b"}}}
{"type":"ONBLOCK","tx":[{"tx":{"h":"c"},"blk":{"i":1,"h":"blk"}}]}
`
	got, err := collect(t, input)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "b", got[1].ID)
	assert.Equal(t, "blk", got[2].ID)
}

func TestLines_SkipsMalformedAndEmptyBatches(t *testing.T) {
	input := `{"type":"ONMEMPOOL","tx":{"tx":{"h":"a"}}}
garbage
{"type":"ONBLOCK","tx":[]}
{"type":"ONMEMPOOL","tx":{"tx":{"h":"b"}}}`

	got, err := collect(t, input)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "b", got[1].ID)
}

func TestLines_HandlerErrorStops(t *testing.T) {
	input := `{"tx":{"tx":{"h":"a"}}}
{"tx":{"tx":{"h":"b"}}}`
	stop := errors.New("stop")

	calls := 0
	err := NewLines(strings.NewReader(input), "test").Run(context.Background(),
		func(ctx context.Context, d Delivery) error {
			calls++
			return stop
		})

	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestLines_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewLines(strings.NewReader(`{"tx":{"tx":{"h":"a"}}}`), "test").Run(ctx,
		func(ctx context.Context, d Delivery) error {
			t.Fatal("handler called after cancel")
			return nil
		})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDialNATS_Unreachable(t *testing.T) {
	_, err := DialNATS(NATSConfig{
		URL:           "nats://127.0.0.1:1",
		MaxReconnect:  0,
		ReconnectWait: time.Millisecond,
	})
	assert.Error(t, err)
}
