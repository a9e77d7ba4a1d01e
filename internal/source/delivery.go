package source

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/eventchain/internal/event"
)

// Delivery is one callback's worth of records from the event source:
// a single unconfirmed transaction or a confirmed block batch.
type Delivery struct {
	Category string
	Records  []event.Record

	// ID is the txid for an unconfirmed delivery and the block hash for a
	// confirmed batch.
	ID string

	// Payload is the raw transaction or transaction list.
	Payload json.RawMessage
}

// envelope is the wire shape of a delivery:
//
//	{"type":"ONMEMPOOL","tx":{...}}
//	{"type":"ONBLOCK","tx":[{...},{...}]}
//
// When type is omitted, an object means ONMEMPOOL and an array ONBLOCK.
type envelope struct {
	Type string          `json:"type"`
	Tx   json.RawMessage `json:"tx"`
}

// ErrEmptyBatch is returned for a confirmed delivery with no transactions.
// Sources skip such deliveries.
var ErrEmptyBatch = errors.New("empty block batch")

// DecodeDelivery parses a delivery envelope.
func DecodeDelivery(data []byte) (Delivery, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Delivery{}, fmt.Errorf("decode delivery: %w", err)
	}

	payload := bytes.TrimSpace(env.Tx)
	if len(payload) == 0 || bytes.Equal(payload, []byte("null")) {
		return Delivery{}, fmt.Errorf("decode delivery: missing tx")
	}

	d := Delivery{Category: env.Type, Payload: payload}

	if payload[0] == '[' {
		var raws []json.RawMessage
		if err := json.Unmarshal(payload, &raws); err != nil {
			return Delivery{}, fmt.Errorf("decode delivery: %w", err)
		}
		if len(raws) == 0 {
			return Delivery{}, ErrEmptyBatch
		}
		records, err := event.DecodeRecords(raws)
		if err != nil {
			return Delivery{}, fmt.Errorf("decode delivery: %w", err)
		}
		d.Records = records
		d.ID = records[0].BlockHash
		if d.Category == "" {
			d.Category = event.Confirmed
		}
		return d, nil
	}

	rec, err := event.DecodeRecord(payload)
	if err != nil {
		return Delivery{}, fmt.Errorf("decode delivery: %w", err)
	}
	d.Records = []event.Record{rec}
	d.ID = rec.TxID
	if d.Category == "" {
		d.Category = event.Unconfirmed
	}
	return d, nil
}
