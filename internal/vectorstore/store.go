// Package vectorstore persists (vector, payload) points and answers cosine
// nearest-neighbour queries, optionally restricted to one payload source.
package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
)

// Drivers selectable through configuration.
const (
	DriverQdrant   = "qdrant"
	DriverPGVector = "pgvector"
	DriverBolt     = "bolt"
	DriverMemory   = "memory"
)

var (
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	ErrNoCollection      = errors.New("collection not initialized")
)

// Payload is the metadata stored with a point. It always carries "source",
// "type" and "text".
type Payload map[string]any

// Source returns the payload's "source" field.
func (p Payload) Source() string {
	s, _ := p["source"].(string)
	return s
}

// Type returns the payload's "type" field.
func (p Payload) Type() string {
	s, _ := p["type"].(string)
	return s
}

// Text returns the payload's "text" field.
func (p Payload) Text() string {
	s, _ := p["text"].(string)
	return s
}

// Point is one stored vector.
type Point struct {
	ID      string
	Vector  []float32
	Payload Payload
}

// Result is a search hit. Higher scores are more similar.
type Result struct {
	Score   float64
	Payload Payload
}

// Store is implemented by every backend. Upsert and Search must be safe for
// concurrent use.
type Store interface {
	// EnsureCollection creates the collection when absent and never drops data.
	EnsureCollection(ctx context.Context, dim int) error
	// Recreate drops and recreates the collection.
	Recreate(ctx context.Context, dim int) error
	Upsert(ctx context.Context, points []Point) error
	// Search returns up to limit results ordered by descending score. A non-empty
	// source keeps only points whose payload source equals it.
	Search(ctx context.Context, vector []float32, limit int, source string) ([]Result, error)
	Count(ctx context.Context) (int, error)
	Close() error
}

// Cosine returns the cosine similarity of a and b, or 0 when either is zero
// or their lengths differ.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

type entry struct {
	vector  []float32
	payload Payload
}

// bruteForce scores every entry and keeps the best limit hits.
func bruteForce(entries map[string]entry, vector []float32, limit int, source string) []Result {
	results := make([]Result, 0, len(entries))
	for _, e := range entries {
		if source != "" && e.payload.Source() != source {
			continue
		}
		results = append(results, Result{Score: Cosine(vector, e.vector), Payload: clonePayload(e.payload)})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

func clonePayload(p Payload) Payload {
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

func checkDims(points []Point, dim int) error {
	for _, p := range points {
		if len(p.Vector) != dim {
			return fmt.Errorf("%w: point %s has %d dimensions, collection has %d", ErrDimensionMismatch, p.ID, len(p.Vector), dim)
		}
	}
	return nil
}
