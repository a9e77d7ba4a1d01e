// Package event models the records delivered by the event source.
//
// A Record is one transaction with zero or more input and output items. Items
// are trees of Value nodes decoded from TXO-format JSON. Flatten reduces an item
// to dotted-path leaves, which is the shape the store persists.
package event
