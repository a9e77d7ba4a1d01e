package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fields(errs ValidationErrors) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Field
	}
	return out
}

func TestValidate_Valid(t *testing.T) {
	raw := map[string]any{
		"eventchain": float64(1),
		"name":       "bitcom",
		"q": map[string]any{
			"find":    map[string]any{"out.s1": "19HxigV4QyBv3tHpQVcUEQyq1pzZVdoAut"},
			"project": map[string]any{"out.s2": float64(1)},
		},
	}

	assert.Empty(t, Validate(raw))
}

func TestValidate_ReportsAllMissing(t *testing.T) {
	errs := Validate(map[string]any{})

	assert.Equal(t, []string{"eventchain", "name", "q"}, fields(errs))
	assert.Equal(t, `requires an "eventchain": 1 key pair`, errs[0].Message)
	assert.Equal(t, `requires a "name" attribute`, errs[1].Message)
	assert.Equal(t, `requires a "q" attribute`, errs[2].Message)
}

func TestValidate_EmptyQuery(t *testing.T) {
	errs := Validate(map[string]any{
		"eventchain": true,
		"name":       "app",
		"q":          map[string]any{},
	})

	require.Len(t, errs, 1)
	assert.Equal(t, "q", errs[0].Field)
}

func TestValidate_UnsupportedQueryKeys(t *testing.T) {
	errs := Validate(map[string]any{
		"eventchain": true,
		"name":       "app",
		"q": map[string]any{
			"find":  map[string]any{},
			"sort":  map[string]any{},
			"limit": float64(10),
		},
	})

	assert.Equal(t, []string{"q.limit", "q.sort"}, fields(errs))
	for _, e := range errs {
		assert.Equal(t, `"q" currently supports only "find" and "project"`, e.Message)
	}
}

func TestValidate_QueryNotObject(t *testing.T) {
	errs := Validate(map[string]any{
		"eventchain": true,
		"name":       "app",
		"q":          "find everything",
	})

	assert.Equal(t, []string{"q"}, fields(errs))
}

func TestValidate_SchemaRejectsWrongTypes(t *testing.T) {
	errs := Validate(map[string]any{
		"eventchain": true,
		"name":       float64(5),
		"q": map[string]any{
			"project": map[string]any{"out.s2": float64(1)},
		},
	})

	require.NotEmpty(t, errs)
	assert.True(t, mentions(errs, "name"), "no error for name: %v", errs)
	assert.False(t, mentions(errs, "out.s2"), "unexpected error for project: %v", errs)
}

func TestValidate_AcceptsAnyProjectMarker(t *testing.T) {
	errs := Validate(map[string]any{
		"eventchain": true,
		"name":       "bitcom",
		"q": map[string]any{
			"project": map[string]any{
				"out.s2":   "yes",
				"out.s3":   map[string]any{"$slice": float64(1)},
				"in.e.a":   float64(1),
				"in.e.h":   true,
				"out.e.a":  nil,
				"out.e.v":  []any{"x"},
				"out.e.i":  float64(0),
				"in.e.i":   false,
				"in.seq":   "",
				"out.tape": map[string]any{},
			},
		},
	})

	assert.Empty(t, errs)
}

// mentions reports whether any error names part in its field or message.
func mentions(errs ValidationErrors, part string) bool {
	for _, e := range errs {
		if strings.Contains(e.Error(), part) {
			return true
		}
	}
	return false
}

func TestValidate_ProjectionWithoutTableFields(t *testing.T) {
	errs := Validate(map[string]any{
		"eventchain": true,
		"name":       "app",
		"q": map[string]any{
			"find":    map[string]any{},
			"project": map[string]any{"tx.h": float64(1)},
		},
	})

	require.Len(t, errs, 1)
	assert.Equal(t, "q.project", errs[0].Field)
	assert.Contains(t, errs[0].Message, "projection required")
}

func TestValidationErrors_Error(t *testing.T) {
	errs := ValidationErrors{
		{Field: "name", Message: `requires a "name" attribute`},
		{Message: "plain"},
	}

	assert.Equal(t, "name: requires a \"name\" attribute\nplain", errs.Error())
}
