// Package vectorindex stores answer embeddings and answers nearest-neighbour
// queries by cosine distance.
package vectorindex

import (
	"context"
	"sort"

	"github.com/agenthands/consistencyguard/internal/embedding"
)

// Entry is one indexed answer.
type Entry struct {
	ID        string
	Text      string
	Category  string
	SessionID string
	Vector    []float32
}

// Neighbor is a query hit. Distance is 1 - cosine similarity.
type Neighbor struct {
	ID        string
	Text      string
	Category  string
	SessionID string
	Distance  float64
}

// Filter scopes a query before ranking. Empty fields match everything.
type Filter struct {
	SessionID string
}

func (f Filter) match(e Entry) bool {
	return f.SessionID == "" || e.SessionID == f.SessionID
}

// Index is the nearest-neighbour boundary used by ingestion.
type Index interface {
	// Upsert inserts or replaces the entry with e.ID.
	Upsert(ctx context.Context, e Entry) error
	// QueryNearest returns up to k entries matching f, ordered by ascending
	// distance.
	QueryNearest(ctx context.Context, vec []float32, k int, f Filter) ([]Neighbor, error)
	// Delete removes id. Deleting an unknown id is not an error.
	Delete(ctx context.Context, id string) error
}

// rank orders entries by ascending distance to vec, keeping insertion order
// for equal distances, and returns the first k.
func rank(entries []Entry, vec []float32, k int) []Neighbor {
	if k <= 0 || len(entries) == 0 {
		return nil
	}
	out := make([]Neighbor, len(entries))
	for i, e := range entries {
		out[i] = Neighbor{
			ID:        e.ID,
			Text:      e.Text,
			Category:  e.Category,
			SessionID: e.SessionID,
			Distance:  embedding.CosineDistance(vec, e.Vector),
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Distance < out[j].Distance
	})
	if len(out) > k {
		out = out[:k]
	}
	return out
}
