package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProjection_OnlyKeysMatter(t *testing.T) {
	p := ParseProjection(map[string]any{
		"out.s2":  1,
		"in.e.a":  true,
		"out.e.v": "yes",
		"tx.h":    0,
	})

	assert.Equal(t, []string{"in.e.a", "out.e.v", "out.s2", "tx.h"}, p.Keys())
	assert.Equal(t, []string{"in.e.a"}, p.ForTable(TableIn))
	assert.Equal(t, []string{"out.e.v", "out.s2"}, p.ForTable(TableOut))
}

func TestNewProjection_DeduplicatesNormalizedKeys(t *testing.T) {
	p := NewProjection("in.cafe\u0301", "in.caf\u00e9", "in.a", "in.a")

	assert.Equal(t, []string{"in.a", "in.caf\u00e9"}, p.Keys())
}

func TestProjection_PrefixNeedsDot(t *testing.T) {
	p := NewProjection("input.a", "outer.b")

	assert.Empty(t, p.ForTable(TableIn))
	assert.Empty(t, p.ForTable(TableOut))
	assert.False(t, p.Wants(TableIn))
}

func TestProjection_Validate(t *testing.T) {
	tests := []struct {
		name    string
		keys    []string
		wantErr bool
	}{
		{"in only", []string{"in.a"}, false},
		{"out only", []string{"out.b"}, false},
		{"both", []string{"in.a", "out.b"}, false},
		{"empty", nil, true},
		{"unprefixed", []string{"tx.h", "blk.i"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewProjection(tt.keys...).Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, IsConfigurationError(err))
			assert.Contains(t, err.Error(), "projection required to derive columns")
		})
	}
}

func TestProjection_KeysIsCopy(t *testing.T) {
	p := NewProjection("in.a")
	keys := p.Keys()
	keys[0] = "mutated"

	assert.Equal(t, []string{"in.a"}, p.Keys())
}
