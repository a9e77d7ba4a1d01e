package event

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRecord_Confirmed(t *testing.T) {
	data := []byte(`{"tx":{"h":"abc"},"blk":{"i":100,"h":"blockhash"},"in":[{"e":{"a":"addr"}}],"out":[{"s1":"hi"},{"s1":"there"}]}`)

	rec, err := DecodeRecord(data)
	require.NoError(t, err)

	assert.Equal(t, "abc", rec.TxID)
	require.NotNil(t, rec.BlockIndex)
	assert.Equal(t, int64(100), *rec.BlockIndex)
	assert.Equal(t, "blockhash", rec.BlockHash)
	assert.True(t, rec.Confirmed())
	require.Len(t, rec.Inputs, 1)
	require.Len(t, rec.Outputs, 2)
	assert.Equal(t, Object{"a": String("addr")}, rec.Inputs[0]["e"])
	assert.JSONEq(t, string(data), string(rec.Raw))
}

func TestDecodeRecord_Unconfirmed(t *testing.T) {
	rec, err := DecodeRecord([]byte(`{"tx":{"h":"abc"},"in":[],"out":[{"i":0}]}`))
	require.NoError(t, err)

	assert.Nil(t, rec.BlockIndex)
	assert.False(t, rec.Confirmed())
	assert.Empty(t, rec.Inputs)
	assert.Equal(t, []Item{{"i": Number("0")}}, rec.Outputs)
}

func TestDecodeRecord_MissingTxID(t *testing.T) {
	_, err := DecodeRecord([]byte(`{"tx":{},"in":[]}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingTxID)
}

func TestDecodeRecord_InvalidJSON(t *testing.T) {
	_, err := DecodeRecord([]byte(`{"tx":`))
	assert.Error(t, err)
}

func TestDecodeRecord_FractionalBlockIndex(t *testing.T) {
	_, err := DecodeRecord([]byte(`{"tx":{"h":"abc"},"blk":{"i":1.5}}`))
	assert.Error(t, err)
}

func TestDecodeRecords(t *testing.T) {
	raws := []json.RawMessage{
		json.RawMessage(`{"tx":{"h":"a"}}`),
		json.RawMessage(`{"tx":{"h":"b"}}`),
	}

	recs, err := DecodeRecords(raws)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "a", recs[0].TxID)
	assert.Equal(t, "b", recs[1].TxID)

	_, err = DecodeRecords([]json.RawMessage{json.RawMessage(`{}`)})
	assert.ErrorContains(t, err, "record 0")
}
