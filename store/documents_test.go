package store_test

import (
	"io"
	"testing"

	"endotrack/store"
)

// main closes the remote store through io.Closer on shutdown.
var _ io.Closer = (*store.FirestoreStore)(nil)

func TestMergeDocsKeepsSiblings(t *testing.T) {
	dst := store.Doc{
		"firstName": "Ana",
		"character": map[string]interface{}{"name": "Lumi", "endolots": float64(4)},
	}
	store.MergeDocs(dst, store.Nested("character.name", "Nova"))

	if got, _ := store.Lookup(dst, "character.name"); got != "Nova" {
		t.Errorf("character.name = %v, want Nova", got)
	}
	if got, _ := store.Lookup(dst, "character.endolots"); got != float64(4) {
		t.Errorf("character.endolots = %v, want 4", got)
	}
	if dst["firstName"] != "Ana" {
		t.Errorf("firstName = %v, want Ana", dst["firstName"])
	}
}

func TestLookupMissingPath(t *testing.T) {
	doc := store.Doc{"a": "scalar"}
	if _, ok := store.Lookup(doc, "a.b"); ok {
		t.Error("Lookup descended into a scalar")
	}
	if _, ok := store.Lookup(doc, "missing"); ok {
		t.Error("Lookup found a missing key")
	}
}

func TestApplyQuery(t *testing.T) {
	docs := []store.Doc{
		{"userId": "u1", "date": "2024-07-12", "score": float64(3)},
		{"userId": "u2", "date": "2024-07-11", "score": float64(1)},
		{"userId": "u1", "date": "2024-07-09", "score": float64(10)},
		{"userId": "u1", "date": "2024-07-10"},
	}

	got, err := store.ApplyQuery(docs, store.Query{
		Filters: []store.Filter{
			{Field: "userId", Op: store.OpEq, Value: "u1"},
			{Field: "date", Op: store.OpGte, Value: "2024-07-10"},
		},
		OrderBy: "date",
	})
	if err != nil {
		t.Fatalf("ApplyQuery: %v", err)
	}
	if len(got) != 2 || got[0]["date"] != "2024-07-10" || got[1]["date"] != "2024-07-12" {
		t.Errorf("date range = %v", got)
	}

	// Numbers compare numerically, not as strings.
	got, err = store.ApplyQuery(docs, store.Query{
		Filters: []store.Filter{{Field: "score", Op: store.OpGt, Value: 2}},
		OrderBy: "score",
		Desc:    true,
		Limit:   1,
	})
	if err != nil {
		t.Fatalf("ApplyQuery: %v", err)
	}
	if len(got) != 1 || got[0]["score"] != float64(10) {
		t.Errorf("top score = %v", got)
	}

	if _, err := store.ApplyQuery(docs, store.Query{Filters: []store.Filter{{Field: "date", Op: "!=", Value: "x"}}}); err == nil {
		t.Error("unsupported operator accepted")
	}
}

func TestEncodeDecode(t *testing.T) {
	type sample struct {
		Name  string   `json:"name"`
		Count int      `json:"count"`
		Tags  []string `json:"tags,omitempty"`
	}
	doc, err := store.Encode(sample{Name: "x", Count: 2})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, ok := doc["tags"]; ok {
		t.Errorf("omitempty field encoded: %v", doc)
	}
	var out sample
	if err := store.Decode(doc, &out); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out.Name != "x" || out.Count != 2 {
		t.Errorf("Decode() = %+v", out)
	}
}
