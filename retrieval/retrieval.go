// Package retrieval provides the document retrieval capability exposed to
// retriever agents: a chunker splitting local documents into token-bounded
// pieces and an index serving the best-matching chunks for a query.
package retrieval

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"
)

// Chunk is one indexed piece of a source document.
type Chunk struct {
	ID       string         `json:"id"`
	Source   string         `json:"source"` // originating file path
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ScoredChunk pairs a chunk with its relevance score for a query.
type ScoredChunk struct {
	Chunk
	Score float64 `json:"score"`
}

// Index stores chunks and answers relevance queries.
type Index interface {
	Add(chunks ...Chunk) error
	Search(query string, limit int) ([]ScoredChunk, error)
}

// InMemoryIndex is a process-local Index using term-overlap scoring: the
// score is the fraction of distinct query terms present in the chunk.
// Linear scan, suitable for document sets that fit in memory; swap for a
// vector index when corpora grow.
//
// Concurrency: protected by RWMutex.
type InMemoryIndex struct {
	mu     sync.RWMutex
	chunks []Chunk
	terms  []map[string]struct{} // parallel to chunks
}

// NewInMemoryIndex creates an empty index.
func NewInMemoryIndex() *InMemoryIndex {
	return &InMemoryIndex{}
}

// Add indexes chunks, assigning incremental IDs to any chunk without one.
func (idx *InMemoryIndex) Add(chunks ...Chunk) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	for _, c := range chunks {
		if strings.TrimSpace(c.Text) == "" {
			continue
		}
		if c.ID == "" {
			c.ID = fmt.Sprintf("chunk_%d", len(idx.chunks))
		}
		idx.chunks = append(idx.chunks, c)
		idx.terms = append(idx.terms, termSet(c.Text))
	}

	return nil
}

// Len returns the number of indexed chunks.
func (idx *InMemoryIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.chunks)
}

// Search returns up to limit chunks ordered by descending score. Chunks with
// zero overlap are omitted.
func (idx *InMemoryIndex) Search(query string, limit int) ([]ScoredChunk, error) {
	queryTerms := termSet(query)
	if len(queryTerms) == 0 {
		return nil, fmt.Errorf("query has no searchable terms")
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var results []ScoredChunk
	for i, c := range idx.chunks {
		hits := 0
		for term := range queryTerms {
			if _, ok := idx.terms[i][term]; ok {
				hits++
			}
		}
		if hits == 0 {
			continue
		}
		results = append(results, ScoredChunk{
			Chunk: c,
			Score: float64(hits) / float64(len(queryTerms)),
		})
	}

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Score > results[b].Score
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}

// termSet lowercases text and splits it into distinct alphanumeric terms.
func termSet(text string) map[string]struct{} {
	terms := make(map[string]struct{})

	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	for _, f := range fields {
		terms[f] = struct{}{}
	}

	return terms
}
