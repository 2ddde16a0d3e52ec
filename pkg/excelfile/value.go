package excelfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
)

// ValueKind tags the variant held by a Value.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindScalar
	KindMap
)

func (k ValueKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindScalar:
		return "scalar"
	case KindMap:
		return "map"
	default:
		return fmt.Sprintf("ValueKind(%d)", int(k))
	}
}

// Value is a record field value: a scalar, a nested mapping, or null.
// The zero Value is null.
type Value struct {
	kind    ValueKind
	scalar  interface{}
	entries map[string]Value
}

// Null returns the null Value.
func Null() Value { return Value{} }

// Scalar wraps a primitive value. A nil argument yields Null.
func Scalar(v interface{}) Value {
	if v == nil {
		return Value{}
	}
	return Value{kind: KindScalar, scalar: v}
}

// Map wraps a nested mapping. A nil map yields Null.
func Map(entries map[string]Value) Value {
	if entries == nil {
		return Value{}
	}
	return Value{kind: KindMap, entries: entries}
}

// ValueOf converts a plain Go value. Maps keyed by a string kind, such as
// map[string]interface{} or map[string]int, become Map values, recursively.
func ValueOf(v interface{}) Value {
	switch t := v.(type) {
	case nil:
		return Null()
	case Value:
		return t
	case map[string]Value:
		return Map(t)
	case map[string]interface{}:
		if t == nil {
			return Null()
		}
		entries := make(map[string]Value, len(t))
		for k, e := range t {
			entries[k] = ValueOf(e)
		}
		return Map(entries)
	default:
		return reflectValueOf(v)
	}
}

func reflectValueOf(v interface{}) Value {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return Scalar(v)
	}
	if rv.IsNil() {
		return Null()
	}
	entries := make(map[string]Value, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		entries[iter.Key().String()] = ValueOf(iter.Value().Interface())
	}
	return Map(entries)
}

// Values converts a plain field mapping into record values.
func Values(m map[string]interface{}) map[string]Value {
	out := make(map[string]Value, len(m))
	for k, v := range m {
		out[k] = ValueOf(v)
	}
	return out
}

func (v Value) Kind() ValueKind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

// Lookup returns the entry stored under key when v is a Map.
func (v Value) Lookup(key string) (Value, bool) {
	if v.kind != KindMap {
		return Value{}, false
	}
	e, ok := v.entries[key]
	return e, ok
}

// Entries returns the nested mapping and true when v is a Map.
func (v Value) Entries() (map[string]Value, bool) {
	if v.kind != KindMap {
		return nil, false
	}
	return v.entries, true
}

// Interface unwraps v into a plain Go value: nil, the scalar, or a
// map[string]interface{} for nested mappings.
func (v Value) Interface() interface{} {
	switch v.kind {
	case KindScalar:
		return v.scalar
	case KindMap:
		out := make(map[string]interface{}, len(v.entries))
		for k, e := range v.entries {
			out[k] = e.Interface()
		}
		return out
	default:
		return nil
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// UnmarshalJSON keeps integral numbers as int64 and other numbers as float64.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	*v = fromJSON(raw)
	return nil
}

func fromJSON(raw interface{}) Value {
	switch t := raw.(type) {
	case nil:
		return Null()
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return Scalar(i)
		}
		if f, err := t.Float64(); err == nil {
			return Scalar(f)
		}
		return Scalar(t.String())
	case map[string]interface{}:
		entries := make(map[string]Value, len(t))
		for k, e := range t {
			entries[k] = fromJSON(e)
		}
		return Map(entries)
	case []interface{}:
		items := make([]interface{}, len(t))
		for i, e := range t {
			items[i] = fromJSON(e).Interface()
		}
		return Scalar(items)
	default:
		return Scalar(t)
	}
}
