package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixedBatchGenerator_ReturnsSameID(t *testing.T) {
	gen := NewFixedBatchGenerator("batch-123")

	assert.Equal(t, "batch-123", gen.Generate())
	assert.Equal(t, "batch-123", gen.Generate())
}

func TestFixedBatchGenerator_EmptyIDDefault(t *testing.T) {
	gen := NewFixedBatchGenerator("")

	assert.Equal(t, "test-batch-default", gen.Generate())
}
