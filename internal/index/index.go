// Package index provides the in-memory vector index: exact nearest-neighbor
// search over embeddings with snapshot persistence.
package index

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/medrag-labs/medragd/internal/language"
)

// Sentinel errors for index operations.
var (
	// ErrDimensionMismatch is returned when a vector's length differs from
	// the index dimension. It indicates model/index version skew.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrIndexNotEmpty is returned when restoring into a populated index.
	// Restore is whole-index replacement, performed only at startup.
	ErrIndexNotEmpty = errors.New("index not empty")

	// ErrIncompatibleFormat is returned when a snapshot cannot be decoded or
	// fails its self-description checks.
	ErrIncompatibleFormat = errors.New("incompatible index snapshot format")

	// ErrInvalidK is returned when search is requested with k <= 0.
	ErrInvalidK = errors.New("k must be positive")
)

// Chunk is a contiguous slice of a source document's text, tagged with its
// provenance. Chunks are created at ingestion time and never mutated.
type Chunk struct {
	// Text is the chunk content. Never empty for an indexed chunk.
	Text string

	// DocumentID identifies the source document.
	DocumentID string

	// Sequence is the chunk's order within the document, starting at 0.
	Sequence int

	// Language is the language the source document was tagged with.
	Language language.Language
}

// Hit is a single search result: the stored chunk and its raw distance from
// the query vector.
type Hit struct {
	// ID is the internal id assigned at insertion.
	ID int64

	// Distance is the squared Euclidean distance to the query. Lower is
	// more similar.
	Distance float64

	// Chunk is a copy of the stored chunk.
	Chunk Chunk
}

type record struct {
	id     int64
	vector []float32
	chunk  Chunk
}

// Index stores embedding vectors with their chunks and answers exact
// brute-force nearest-neighbor queries.
//
// The dimension is fixed by the first inserted (or restored) vector; every
// later vector must match it. Internal ids are assigned monotonically and
// never reused within a process lifetime. The index is the one shared
// mutable resource of the service: inserts take the write lock, searches the
// read lock, so a search never observes a half-written record.
type Index struct {
	mu        sync.RWMutex
	dimension int
	nextID    int64
	records   []record
}

// New creates an empty index. The dimension is set by the first insert.
func New() *Index {
	return &Index{}
}

// Insert appends a vector and its chunk, returning the assigned internal id.
func (ix *Index) Insert(vector []float32, chunk Chunk) (int64, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if err := ix.checkDimension(vector); err != nil {
		return 0, err
	}
	return ix.append(vector, chunk), nil
}

// InsertBatch appends all vectors and chunks under a single write section,
// so a concurrent search observes either none or all of them. Dimensions are
// validated up front: on any mismatch nothing is inserted.
func (ix *Index) InsertBatch(vectors [][]float32, chunks []Chunk) ([]int64, error) {
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("vectors and chunks length mismatch: %d != %d", len(vectors), len(chunks))
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	for i, v := range vectors {
		// The first vector of the batch may set the dimension, so check
		// against it for the rest.
		want := ix.dimension
		if want == 0 && i > 0 {
			want = len(vectors[0])
		}
		if want != 0 && len(v) != want {
			return nil, fmt.Errorf("%w: got %d, index holds %d", ErrDimensionMismatch, len(v), want)
		}
	}

	ids := make([]int64, len(vectors))
	for i, v := range vectors {
		if ix.dimension == 0 {
			ix.dimension = len(v)
		}
		ids[i] = ix.append(v, chunks[i])
	}
	return ids, nil
}

// append assumes the write lock is held and the dimension was checked.
func (ix *Index) append(vector []float32, chunk Chunk) int64 {
	if ix.dimension == 0 {
		ix.dimension = len(vector)
	}
	id := ix.nextID
	ix.nextID++
	// Copy the vector: the index exclusively owns its records.
	stored := make([]float32, len(vector))
	copy(stored, vector)
	ix.records = append(ix.records, record{id: id, vector: stored, chunk: chunk})
	return id
}

func (ix *Index) checkDimension(vector []float32) error {
	if ix.dimension != 0 && len(vector) != ix.dimension {
		return fmt.Errorf("%w: got %d, index holds %d", ErrDimensionMismatch, len(vector), ix.dimension)
	}
	return nil
}

// Search returns up to k hits ordered by ascending distance, ties broken by
// lowest internal id. An empty index yields no hits. The metric is squared
// Euclidean distance, computed exactly against every stored vector.
func (ix *Index) Search(query []float32, k int) ([]Hit, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidK, k)
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if len(ix.records) == 0 {
		return nil, nil
	}
	if err := ix.checkDimension(query); err != nil {
		return nil, err
	}

	hits := make([]Hit, 0, len(ix.records))
	for _, rec := range ix.records {
		hits = append(hits, Hit{
			ID:       rec.id,
			Distance: squaredL2(query, rec.vector),
			Chunk:    rec.chunk,
		})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].ID < hits[j].ID
	})

	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

// Len returns the number of indexed vectors.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.records)
}

// Dimension returns the fixed vector dimension, or 0 while the index is empty.
func (ix *Index) Dimension() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.dimension
}

// Clear removes all records and resets the dimension. Internal ids are not
// reset: ids are never reused within a process lifetime.
func (ix *Index) Clear() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.records = nil
	ix.dimension = 0
}

// squaredL2 computes the squared Euclidean distance between two vectors of
// equal length. The accumulator is float64 to keep the sum stable across
// large dimensions.
func squaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}
