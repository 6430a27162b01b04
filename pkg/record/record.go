// Package record extracts WooCommerce records from response bodies and
// normalizes them for downstream schema validation.
package record

import (
	"fmt"
	"sync"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
)

// DefaultPath selects every element of a top-level JSON array.
const DefaultPath = "$[*]"

// Record is a single resource object as returned by the API.
type Record map[string]any

var (
	exprMu    sync.Mutex
	exprCache = map[string]jp.Expr{}
)

func compile(path string) (jp.Expr, error) {
	exprMu.Lock()
	defer exprMu.Unlock()

	if x, ok := exprCache[path]; ok {
		return x, nil
	}
	x, err := jp.ParseString(path)
	if err != nil {
		return nil, fmt.Errorf("parse records path %q: %w", path, err)
	}
	exprCache[path] = x
	return x, nil
}

// Extract parses body as JSON and returns the objects selected by path.
// An empty path means DefaultPath. Matches that are not JSON objects are skipped.
func Extract(body []byte, path string) ([]Record, error) {
	if path == "" {
		path = DefaultPath
	}
	x, err := compile(path)
	if err != nil {
		return nil, err
	}

	if len(body) == 0 {
		return nil, nil
	}
	data, err := oj.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("decode response body: %w", err)
	}

	matches := x.Get(data)
	records := make([]Record, 0, len(matches))
	for _, m := range matches {
		obj, ok := m.(map[string]any)
		if !ok {
			continue
		}
		records = append(records, Record(obj))
	}
	return records, nil
}

// Normalize replaces top-level empty-string values with nil, in place.
// The validator downstream rejects "" for non-string types.
func Normalize(r Record) Record {
	for k, v := range r {
		if s, ok := v.(string); ok && s == "" {
			r[k] = nil
		}
	}
	return r
}

// ID returns the record's "id" field rendered as a string, and whether it was set.
func (r Record) ID() (string, bool) {
	v, ok := r["id"]
	if !ok || v == nil {
		return "", false
	}
	switch id := v.(type) {
	case string:
		return id, id != ""
	case int64:
		return fmt.Sprintf("%d", id), true
	case float64:
		return fmt.Sprintf("%.0f", id), true
	default:
		return fmt.Sprint(id), true
	}
}
