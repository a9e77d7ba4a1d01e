package event

import (
	"strconv"

	"golang.org/x/text/unicode/norm"
)

// PathSeparator joins path segments of a flattened field.
const PathSeparator = "."

// Field is one leaf of a flattened item.
// Value is always a scalar (String, Number, Bool) or Null.
type Field struct {
	Path  string
	Value Value
}

// Flatten reduces a nested item to its leaves, one Field per leaf.
//
// Objects contribute their key to the path of every leaf below them; arrays
// contribute the element index. Keys are visited in SortedKeys() order, so the
// output is deterministic for a given item. Paths are NFC-normalized so that
// they compare equal to normalized projection keys.
func Flatten(item Object) []Field {
	flat := make([]Field, 0, len(item))
	return flattenObject(item, "", flat)
}

// NormalizePath returns the NFC form of a dotted path.
func NormalizePath(path string) string {
	return norm.NFC.String(path)
}

func flattenObject(obj Object, prefix string, flat []Field) []Field {
	for _, key := range obj.SortedKeys() {
		flat = flattenValue(obj[key], prefix+key, flat)
	}
	return flat
}

func flattenValue(v Value, path string, flat []Field) []Field {
	switch val := v.(type) {
	case Object:
		return flattenObject(val, path+PathSeparator, flat)
	case Array:
		for i, elem := range val {
			flat = flattenValue(elem, path+PathSeparator+strconv.Itoa(i), flat)
		}
		return flat
	case nil:
		return append(flat, Field{Path: NormalizePath(path), Value: Null{}})
	default:
		return append(flat, Field{Path: NormalizePath(path), Value: val})
	}
}
