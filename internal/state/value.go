package state

import (
	"encoding/json"
	"fmt"
	"reflect"

	"cogengine/internal/services"
)

// Kind classifies a stored value.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindList
	KindMap
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "other"
	}
}

// Value wraps a dynamically typed state entry with checked accessors.
type Value struct {
	raw any
}

// Of wraps v.
func Of(v any) Value {
	return Value{raw: v}
}

// Raw returns the wrapped value unchanged.
func (v Value) Raw() any {
	return v.raw
}

// Kind reports the JSON-level kind of the wrapped value.
func (v Value) Kind() Kind {
	switch v.raw.(type) {
	case nil:
		return KindNull
	case string:
		return KindString
	case bool:
		return KindBool
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64, json.Number:
		return KindNumber
	case []any:
		return KindList
	case map[string]any:
		return KindMap
	}
	rv := reflect.ValueOf(v.raw)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return KindList
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			return KindMap
		}
	}
	return KindOther
}

// AsString returns the wrapped string.
func (v Value) AsString() (string, error) {
	if s, ok := v.raw.(string); ok {
		return s, nil
	}
	return "", v.mismatch(KindString)
}

// AsBool returns the wrapped bool.
func (v Value) AsBool() (bool, error) {
	if b, ok := v.raw.(bool); ok {
		return b, nil
	}
	return false, v.mismatch(KindBool)
}

// AsNumber returns the wrapped number as float64.
func (v Value) AsNumber() (float64, error) {
	switch n := v.raw.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case uint:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, v.mismatch(KindNumber)
		}
		return f, nil
	}
	if v.Kind() == KindNumber {
		return reflect.ValueOf(v.raw).Convert(reflect.TypeFor[float64]()).Float(), nil
	}
	return 0, v.mismatch(KindNumber)
}

// AsList returns the wrapped list. Typed slices are converted element-wise.
func (v Value) AsList() ([]any, error) {
	switch list := v.raw.(type) {
	case []any:
		return list, nil
	case []string:
		out := make([]any, len(list))
		for i, item := range list {
			out[i] = item
		}
		return out, nil
	}
	if v.Kind() != KindList {
		return nil, v.mismatch(KindList)
	}
	rv := reflect.ValueOf(v.raw)
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, nil
}

// AsMap returns the wrapped mapping.
func (v Value) AsMap() (map[string]any, error) {
	if m, ok := v.raw.(map[string]any); ok {
		return m, nil
	}
	if v.Kind() != KindMap {
		return nil, v.mismatch(KindMap)
	}
	rv := reflect.ValueOf(v.raw)
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, nil
}

// String renders the value the way aggregation and reports display it.
func (v Value) String() string {
	switch raw := v.raw.(type) {
	case nil:
		return ""
	case string:
		return raw
	case fmt.Stringer:
		return raw.String()
	}
	if v.Kind() == KindList || v.Kind() == KindMap {
		if data, err := json.Marshal(normalize(v.raw)); err == nil {
			return string(data)
		}
	}
	return fmt.Sprint(v.raw)
}

func (v Value) mismatch(want Kind) error {
	return services.Wrap(services.ErrValidation, "state", "convert", fmt.Sprintf("expected %s, got %s", want, v.Kind()), nil)
}
