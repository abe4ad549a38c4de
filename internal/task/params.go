package task

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"cogengine/internal/services"
	"cogengine/internal/state"
)

// Params is the step config mapping handed to a task. Accessors return
// ErrConfiguration when a value is missing or has the wrong shape.
type Params map[string]any

// Has reports whether key is present.
func (p Params) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// String returns the string param key, or def when absent.
func (p Params) String(key, def string) (string, error) {
	raw, ok := p[key]
	if !ok || raw == nil {
		return def, nil
	}
	switch v := raw.(type) {
	case string:
		return v, nil
	case int, int64, float64, bool:
		return fmt.Sprint(v), nil
	default:
		return "", invalidParam(key, "a string", raw)
	}
}

// RequireString returns the non-empty string param key.
func (p Params) RequireString(key string) (string, error) {
	value, err := p.String(key, "")
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(value) == "" {
		return "", services.Wrap(services.ErrConfiguration, "params", key, fmt.Sprintf("required parameter %q is missing", key), nil)
	}
	return value, nil
}

// Bool returns the boolean param key, or def when absent. Strings such as
// "true" and "no" are accepted.
func (p Params) Bool(key string, def bool) (bool, error) {
	raw, ok := p[key]
	if !ok || raw == nil {
		return def, nil
	}
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "on", "1":
			return true, nil
		case "false", "no", "off", "0":
			return false, nil
		}
	}
	return false, invalidParam(key, "a boolean", raw)
}

// Int returns the integer param key, or def when absent.
func (p Params) Int(key string, def int) (int, error) {
	raw, ok := p[key]
	if !ok || raw == nil {
		return def, nil
	}
	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v == float64(int(v)) {
			return int(v), nil
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n, nil
		}
	}
	return 0, invalidParam(key, "an integer", raw)
}

// Duration returns the duration param key, or def when absent. Strings use
// time.ParseDuration syntax; bare numbers are seconds.
func (p Params) Duration(key string, def time.Duration) (time.Duration, error) {
	raw, ok := p[key]
	if !ok || raw == nil {
		return def, nil
	}
	switch v := raw.(type) {
	case string:
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err == nil {
			return d, nil
		}
	case int:
		return time.Duration(v) * time.Second, nil
	case float64:
		return time.Duration(v * float64(time.Second)), nil
	}
	return 0, invalidParam(key, "a duration", raw)
}

// List returns the list param key, or nil when absent.
func (p Params) List(key string) ([]any, error) {
	raw, ok := p[key]
	if !ok || raw == nil {
		return nil, nil
	}
	list, err := state.Of(raw).AsList()
	if err != nil {
		return nil, invalidParam(key, "a list", raw)
	}
	return list, nil
}

// StringList returns the list param key with every element rendered as a string.
func (p Params) StringList(key string) ([]string, error) {
	list, err := p.List(key)
	if err != nil || list == nil {
		return nil, err
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		out = append(out, state.Of(item).String())
	}
	return out, nil
}

// Maps returns the list-of-mappings param key.
func (p Params) Maps(key string) ([]map[string]any, error) {
	list, err := p.List(key)
	if err != nil || list == nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(list))
	for idx, item := range list {
		m, err := state.Of(item).AsMap()
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "params", key, fmt.Sprintf("entry %d must be a mapping", idx), nil)
		}
		out = append(out, m)
	}
	return out, nil
}

func invalidParam(key, want string, got any) error {
	return services.Wrap(services.ErrConfiguration, "params", key, fmt.Sprintf("parameter %q must be %s (got %T)", key, want, got), nil)
}
