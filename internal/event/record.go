package event

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Categories delivered by the event source.
// The store accepts any label; these are the two the source produces.
const (
	Unconfirmed = "ONMEMPOOL"
	Confirmed   = "ONBLOCK"
)

// Item is one input or output of a transaction: an arbitrarily nested tree.
type Item = Object

// Record is one transaction occurrence as delivered by the event source.
type Record struct {
	TxID string

	// BlockIndex is the block height. Nil for unconfirmed records.
	BlockIndex *int64

	// BlockHash is informational; it is not persisted by the store.
	BlockHash string

	Inputs  []Item
	Outputs []Item

	// Raw is the payload the record was decoded from, if any.
	Raw json.RawMessage
}

// Confirmed reports whether the record carries a block index.
func (r Record) Confirmed() bool {
	return r.BlockIndex != nil
}

// ErrMissingTxID is returned when a payload has no tx.h field.
var ErrMissingTxID = errors.New("record missing tx.h")

// txoRecord is the wire shape of a TXO transaction.
type txoRecord struct {
	Tx struct {
		H string `json:"h"`
	} `json:"tx"`
	Blk *struct {
		I *json.Number `json:"i"`
		H string       `json:"h"`
	} `json:"blk"`
	In  []Object `json:"in"`
	Out []Object `json:"out"`
}

// DecodeRecord parses a TXO-format transaction payload.
func DecodeRecord(data []byte) (Record, error) {
	var raw txoRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return Record{}, fmt.Errorf("decode record: %w", err)
	}
	if raw.Tx.H == "" {
		return Record{}, fmt.Errorf("decode record: %w", ErrMissingTxID)
	}

	rec := Record{
		TxID:    raw.Tx.H,
		Inputs:  raw.In,
		Outputs: raw.Out,
		Raw:     append(json.RawMessage(nil), data...),
	}

	if raw.Blk != nil {
		rec.BlockHash = raw.Blk.H
		if raw.Blk.I != nil {
			idx, err := raw.Blk.I.Int64()
			if err != nil {
				return Record{}, fmt.Errorf("decode record %s: block index: %w", rec.TxID, err)
			}
			rec.BlockIndex = &idx
		}
	}

	return rec, nil
}

// DecodeRecords parses a list of TXO payloads.
func DecodeRecords(raws []json.RawMessage) ([]Record, error) {
	records := make([]Record, 0, len(raws))
	for i, data := range raws {
		rec, err := DecodeRecord(data)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}
