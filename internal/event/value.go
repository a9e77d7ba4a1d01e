package event

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"unicode/utf16"
)

// Value is a sealed interface over the node kinds found in event payloads.
// Only Null, String, Number, Bool, Array, and Object implement it.
type Value interface {
	eventValue()
}

// Null represents a JSON null leaf.
type Null struct{}

func (Null) eventValue() {}

// String is a string leaf.
type String string

func (String) eventValue() {}

// Number is a numeric leaf kept as its decimal literal ("5", "1.25", "-3e2").
// Keeping the literal avoids float round-tripping when the value is stored as text.
type Number string

func (Number) eventValue() {}

// Bool is a boolean leaf.
type Bool bool

func (Bool) eventValue() {}

// Array is an ordered list of values.
type Array []Value

func (Array) eventValue() {}

// Object maps field names to values.
// Use SortedKeys() for deterministic iteration.
type Object map[string]Value

func (Object) eventValue() {}

// Text returns the textual form a scalar is stored as.
// Returns false for Null and for non-scalar values.
func Text(v Value) (string, bool) {
	switch val := v.(type) {
	case String:
		return string(val), true
	case Number:
		return string(val), true
	case Bool:
		if val {
			return "true", true
		}
		return "false", true
	default:
		return "", false
	}
}

// SortedKeys returns keys in UTF-16 code unit order.
// Go's native string order is UTF-8 based and differs for supplementary characters.
func (obj Object) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysUTF16)
	return keys
}

func compareKeysUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	minLen := min(len(a16), len(b16))
	for i := 0; i < minLen; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	}
	return 0
}

// UnmarshalJSON implements json.Unmarshaler for Object.
func (obj *Object) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*obj = make(Object, len(raw))
	for k, v := range raw {
		val, err := unmarshalValue(v)
		if err != nil {
			return fmt.Errorf("object key %q: %w", k, err)
		}
		(*obj)[k] = val
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler for Array.
func (arr *Array) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*arr = make(Array, len(raw))
	for i, v := range raw {
		val, err := unmarshalValue(v)
		if err != nil {
			return fmt.Errorf("array index %d: %w", i, err)
		}
		(*arr)[i] = val
	}
	return nil
}

// ParseValue decodes a single JSON document into a Value.
func ParseValue(data []byte) (Value, error) {
	return unmarshalValue(bytes.TrimSpace(data))
}

// unmarshalValue dispatches on the first byte of a JSON value.
func unmarshalValue(data []byte) (Value, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty JSON value")
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, err
		}
		return String(s), nil

	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, err
		}
		return Bool(b), nil

	case 'n':
		return Null{}, nil

	case '[':
		var arr Array
		if err := json.Unmarshal(data, &arr); err != nil {
			return nil, err
		}
		return arr, nil

	case '{':
		var obj Object
		if err := json.Unmarshal(data, &obj); err != nil {
			return nil, err
		}
		return obj, nil

	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, err
		}
		return Number(n.String()), nil
	}
}
