package docstore

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Encode converts a struct into the map form stored by the document store.
func Encode(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("docstore encode: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("docstore encode: %w", err)
	}
	return doc, nil
}

// Decode unmarshals a record's document into the given struct pointer.
func Decode(rec Record, v any) error {
	raw, err := json.Marshal(rec.Doc)
	if err != nil {
		return fmt.Errorf("docstore decode %s: %w", rec.ID, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("docstore decode %s: %w", rec.ID, err)
	}
	return nil
}

// Lookup resolves a dotted field path inside a document. The second
// return value is false when any path segment is absent.
func Lookup(doc map[string]any, path string) (any, bool) {
	segs := strings.Split(path, ".")
	cur := any(doc)
	for _, seg := range segs {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// SetPath writes a value at a dotted field path. The leaf key is
// created when absent, but a missing or non-object parent makes the
// write a no-op, matching what jsonb_set does on the Postgres side.
func SetPath(doc map[string]any, path string, value any) {
	segs := strings.Split(path, ".")
	cur := doc
	for _, seg := range segs[:len(segs)-1] {
		next, ok := cur[seg].(map[string]any)
		if !ok {
			return
		}
		cur = next
	}
	cur[segs[len(segs)-1]] = value
}

// Matches reports whether a document satisfies a filter.
func Matches(doc map[string]any, f Filter) bool {
	v, ok := Lookup(doc, f.Path)
	switch f.Op {
	case OpMissing:
		return !ok || v == nil
	case OpEq:
		if !ok || v == nil {
			return false
		}
		return looseEqual(v, f.Value)
	default:
		return false
	}
}

// MatchesAll reports whether a document satisfies every filter.
func MatchesAll(doc map[string]any, filters []Filter) bool {
	for _, f := range filters {
		if !Matches(doc, f) {
			return false
		}
	}
	return true
}

// looseEqual compares a stored (JSON-typed) value with a Go value.
// Numbers are compared as float64, everything else via its JSON form.
func looseEqual(stored, want any) bool {
	if sf, ok := asFloat(stored); ok {
		if wf, ok := asFloat(want); ok {
			return sf == wf
		}
		return false
	}
	if stored == want {
		return true
	}
	sj, err1 := json.Marshal(stored)
	wj, err2 := json.Marshal(want)
	return err1 == nil && err2 == nil && string(sj) == string(wj)
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
