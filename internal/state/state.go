package state

import (
	"fmt"
	"maps"
	"slices"

	"cogengine/internal/services"
)

// State is the shared key/value container threaded through every step of a
// run. Values are JSON-native (string, float64/int, bool, nil, []any,
// map[string]any); other types are stringified when persisted.
//
// A State is owned by one run and is not safe for concurrent use.
type State struct {
	values map[string]any
}

// New returns an empty State.
func New() *State {
	return &State{values: make(map[string]any)}
}

// FromMap returns a State seeded with a shallow copy of values.
func FromMap(values map[string]any) *State {
	st := New()
	st.Merge(values)
	return st
}

// Set stores value under key, overwriting any previous value.
func (s *State) Set(key string, value any) {
	s.values[key] = value
}

// Get returns the value stored under key, or fallback when absent.
func (s *State) Get(key string, fallback any) any {
	if value, ok := s.values[key]; ok {
		return value
	}
	return fallback
}

// Lookup returns the value stored under key wrapped for typed access.
func (s *State) Lookup(key string) (Value, bool) {
	value, ok := s.values[key]
	return Of(value), ok
}

// Has reports whether key is present.
func (s *State) Has(key string) bool {
	_, ok := s.values[key]
	return ok
}

// Require returns the value stored under key or an ErrMissingKey error.
func (s *State) Require(key string) (any, error) {
	value, ok := s.values[key]
	if !ok {
		return nil, services.Wrap(services.ErrMissingKey, "state", "require", fmt.Sprintf("required key %q not found in context", key), nil)
	}
	return value, nil
}

// RequireString returns the string stored under key.
func (s *State) RequireString(key string) (string, error) {
	value, err := s.Require(key)
	if err != nil {
		return "", err
	}
	return Of(value).AsString()
}

// RequireList returns the list stored under key.
func (s *State) RequireList(key string) ([]any, error) {
	value, err := s.Require(key)
	if err != nil {
		return nil, err
	}
	return Of(value).AsList()
}

// RequireDocuments returns the document list stored under key.
func (s *State) RequireDocuments(key string) ([]Document, error) {
	return s.documents(key, DocumentFrom)
}

// RequirePartialDocuments is RequireDocuments for consumers that treat a
// record without content as empty text.
func (s *State) RequirePartialDocuments(key string) ([]Document, error) {
	return s.documents(key, PartialDocumentFrom)
}

func (s *State) documents(key string, decode func(any) (Document, error)) ([]Document, error) {
	items, err := s.RequireList(key)
	if err != nil {
		return nil, err
	}
	docs := make([]Document, 0, len(items))
	for idx, item := range items {
		doc, err := decode(item)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", key, idx, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Delete removes key if present.
func (s *State) Delete(key string) {
	delete(s.values, key)
}

// Merge copies values into the state, overwriting keys that already exist.
func (s *State) Merge(values map[string]any) {
	maps.Copy(s.values, values)
}

// Keys returns the stored keys in sorted order.
func (s *State) Keys() []string {
	return slices.Sorted(maps.Keys(s.values))
}

// Len returns the number of stored keys.
func (s *State) Len() int {
	return len(s.values)
}

// Snapshot returns a shallow copy of the stored values.
func (s *State) Snapshot() map[string]any {
	return maps.Clone(s.values)
}
