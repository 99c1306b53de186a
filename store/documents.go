// store/documents.go
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("document not found")

// Doc is a JSON-shaped document body.
type Doc = map[string]interface{}

// Filter operators.
const (
	OpEq  = "=="
	OpGt  = ">"
	OpGte = ">="
	OpLt  = "<"
	OpLte = "<="
)

// Filter restricts a query to documents whose Field compares to Value.
// Field may be a dotted path into nested maps.
type Filter struct {
	Field string
	Op    string
	Value interface{}
}

// Query selects documents of one collection.
type Query struct {
	Filters []Filter
	OrderBy string
	Desc    bool
	Limit   int
}

// DocumentStore is the remote source of truth for profiles, daily records
// and photo metadata.
type DocumentStore interface {
	Get(ctx context.Context, collection, id string) (Doc, error)
	// Upsert deep-merges doc over the stored document, creating it if absent.
	Upsert(ctx context.Context, collection, id string, doc Doc) error
	Query(ctx context.Context, collection string, q Query) ([]Doc, error)
	Delete(ctx context.Context, collection, id string) error
	// Increment atomically adds delta to the numeric field at the dotted path.
	Increment(ctx context.Context, collection, id, field string, delta int64) error
}

// Encode converts a JSON-tagged struct into a Doc.
func Encode(v interface{}) (Doc, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding document: %w", err)
	}
	doc := Doc{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("encoding document: %w", err)
	}
	return doc, nil
}

// Decode fills out from doc through its JSON tags.
func Decode(doc Doc, out interface{}) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("decoding document: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding document: %w", err)
	}
	return nil
}

// MergeDocs writes src over dst, descending into nested maps so sibling
// fields of dst survive. dst is modified and returned.
func MergeDocs(dst, src Doc) Doc {
	if dst == nil {
		dst = Doc{}
	}
	for k, v := range src {
		srcMap, srcIsMap := v.(map[string]interface{})
		dstMap, dstIsMap := dst[k].(map[string]interface{})
		if srcIsMap && dstIsMap {
			dst[k] = MergeDocs(dstMap, srcMap)
			continue
		}
		dst[k] = v
	}
	return dst
}

// Nested builds {"a": {"b": value}} from the path "a.b".
func Nested(path string, value interface{}) Doc {
	parts := strings.Split(path, ".")
	doc := Doc{parts[len(parts)-1]: value}
	for i := len(parts) - 2; i >= 0; i-- {
		doc = Doc{parts[i]: doc}
	}
	return doc
}

// Lookup returns the value at the dotted path.
func Lookup(doc Doc, path string) (interface{}, bool) {
	var cur interface{} = doc
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// addInt adds delta to the number at path, treating a missing field as 0.
func addInt(doc Doc, path string, delta int64) (Doc, error) {
	current := int64(0)
	if v, ok := Lookup(doc, path); ok && v != nil {
		n, ok := toFloat(v)
		if !ok {
			return nil, fmt.Errorf("field %s is not numeric", path)
		}
		current = int64(n)
	}
	return MergeDocs(doc, Nested(path, current+delta)), nil
}

// ApplyQuery filters, orders and limits docs in memory.
func ApplyQuery(docs []Doc, q Query) ([]Doc, error) {
	var out []Doc
	for _, doc := range docs {
		ok, err := matches(doc, q.Filters)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, doc)
		}
	}
	if q.OrderBy != "" {
		sort.SliceStable(out, func(i, j int) bool {
			a, _ := Lookup(out[i], q.OrderBy)
			b, _ := Lookup(out[j], q.OrderBy)
			c := compare(a, b)
			if q.Desc {
				return c > 0
			}
			return c < 0
		})
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func matches(doc Doc, filters []Filter) (bool, error) {
	for _, f := range filters {
		v, ok := Lookup(doc, f.Field)
		if !ok {
			return false, nil
		}
		c := compare(v, f.Value)
		switch f.Op {
		case OpEq:
			if c != 0 {
				return false, nil
			}
		case OpGt:
			if c <= 0 {
				return false, nil
			}
		case OpGte:
			if c < 0 {
				return false, nil
			}
		case OpLt:
			if c >= 0 {
				return false, nil
			}
		case OpLte:
			if c > 0 {
				return false, nil
			}
		default:
			return false, fmt.Errorf("unsupported filter operator %q", f.Op)
		}
	}
	return true, nil
}

// compare orders numbers numerically and everything else by its string form.
func compare(a, b interface{}) int {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
