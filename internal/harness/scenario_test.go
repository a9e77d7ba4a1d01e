package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenario_Valid(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "mempool_then_block.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "mempool_then_block", scenario.Name)
	assert.Equal(t, []string{"in.e.a", "out.s2"}, scenario.Project)
	require.Len(t, scenario.Deliveries, 5)
	assert.Equal(t, "ONMEMPOOL", scenario.Deliveries[0].Type)
	assert.Equal(t, []string{"in.e.a", "out.s2", "out.e.v"}, scenario.Deliveries[3].Resync)

	var nullExpect *Assertion
	for i := range scenario.Assertions {
		if scenario.Assertions[i].Where["type"] == "ONMEMPOOL" {
			nullExpect = &scenario.Assertions[i]
		}
	}
	require.NotNil(t, nullExpect)
	v, ok := nullExpect.Expect["blockindex"]
	assert.True(t, ok)
	assert.Nil(t, v, "~ decodes to a NULL expectation")
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownField(t *testing.T) {
	path := writeScenario(t, `
name: typo
description: misspelled key
project: [out.s2]
deliveries:
  - resync: [out.s2]
assertion:
  - type: row_count
    table: out
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing name",
			content: "description: d\nproject: [out.s2]\ndeliveries:\n  - resync: [out.s2]\n",
			wantErr: "name is required",
		},
		{
			name:    "missing project",
			content: "name: n\ndescription: d\ndeliveries:\n  - resync: [out.s2]\n",
			wantErr: "project list is required",
		},
		{
			name:    "no deliveries",
			content: "name: n\ndescription: d\nproject: [out.s2]\n",
			wantErr: "deliveries list is required",
		},
		{
			name:    "delivery without tx",
			content: "name: n\ndescription: d\nproject: [out.s2]\ndeliveries:\n  - type: ONMEMPOOL\n",
			wantErr: "tx is required",
		},
		{
			name:    "delivery and resync",
			content: "name: n\ndescription: d\nproject: [out.s2]\ndeliveries:\n  - type: ONMEMPOOL\n    tx: {tx: {h: a}}\n    resync: [out.s2]\n",
			wantErr: "either a delivery or a resync",
		},
		{
			name:    "unknown table",
			content: "name: n\ndescription: d\nproject: [out.s2]\ndeliveries:\n  - resync: [out.s2]\nassertions:\n  - type: row_count\n    table: outputs\n",
			wantErr: "table must be one of",
		},
		{
			name:    "row without where",
			content: "name: n\ndescription: d\nproject: [out.s2]\ndeliveries:\n  - resync: [out.s2]\nassertions:\n  - type: row\n    table: out\n    expect: {out.s2: x}\n",
			wantErr: "where is required",
		},
		{
			name:    "unknown assertion",
			content: "name: n\ndescription: d\nproject: [out.s2]\ndeliveries:\n  - resync: [out.s2]\nassertions:\n  - type: trace_contains\n    table: out\n",
			wantErr: "unknown assertion type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
