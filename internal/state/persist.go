package state

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strconv"

	"cogengine/internal/fileutil"
	"cogengine/internal/services"
)

// Persist writes the full state to path as indented UTF-8 JSON, creating
// parent directories. Values that are not JSON-native are stringified.
func (s *State) Persist(path string) error {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(normalize(s.values)); err != nil {
		return services.Wrap(services.ErrExternalIO, "state", "persist", "encode context", err)
	}
	if err := fileutil.WriteFileAtomic(path, buf.Bytes(), 0o644); err != nil {
		return services.Wrap(services.ErrExternalIO, "state", "persist", fmt.Sprintf("write %s", path), err)
	}
	return nil
}

// Restore merges the JSON object stored at path into the state, overwriting
// existing keys. A missing file is not an error; restored reports whether
// anything was read.
func (s *State) Restore(path string) (restored bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, services.Wrap(services.ErrExternalIO, "state", "restore", fmt.Sprintf("read %s", path), err)
	}
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	var values map[string]any
	if err := decoder.Decode(&values); err != nil {
		return false, services.Wrap(services.ErrParse, "state", "restore", fmt.Sprintf("decode %s", path), err)
	}
	if values == nil {
		return false, services.Wrap(services.ErrParse, "state", "restore", fmt.Sprintf("%s does not contain a JSON object", path), nil)
	}
	for key, value := range values {
		values[key] = fromJSONNumbers(value)
	}
	s.Merge(values)
	return true, nil
}

// fromJSONNumbers replaces decoded json.Number values: integers that fit
// become int, everything else float64.
func fromJSONNumbers(v any) any {
	switch value := v.(type) {
	case json.Number:
		if n, err := strconv.ParseInt(value.String(), 10, strconv.IntSize); err == nil {
			return int(n)
		}
		if f, err := value.Float64(); err == nil {
			return f
		}
		return value.String()
	case []any:
		for i, item := range value {
			value[i] = fromJSONNumbers(item)
		}
		return value
	case map[string]any:
		for key, item := range value {
			value[key] = fromJSONNumbers(item)
		}
		return value
	}
	return v
}

// normalize converts v into JSON-native values, stringifying anything else.
func normalize(v any) any {
	switch value := v.(type) {
	case nil, string, bool, float64, float32, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, json.Number:
		return value
	case Document:
		return value.Map()
	case []any:
		out := make([]any, len(value))
		for i, item := range value {
			out[i] = normalize(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(value))
		for key, item := range value {
			out[key] = normalize(item)
		}
		return out
	case fmt.Stringer:
		return value.String()
	case error:
		return value.Error()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = normalize(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			out := make(map[string]any, rv.Len())
			iter := rv.MapRange()
			for iter.Next() {
				out[iter.Key().String()] = normalize(iter.Value().Interface())
			}
			return out
		}
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		return normalize(rv.Elem().Interface())
	}
	return fmt.Sprint(v)
}
