package retrieval

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTokenizer maps whitespace-separated words to token ids so chunk
// boundaries are predictable without a real BPE model.
type fakeTokenizer struct {
	words []string
	ids   map[string]int
}

func newFakeTokenizer() *fakeTokenizer {
	return &fakeTokenizer{ids: map[string]int{}}
}

func (f *fakeTokenizer) Encode(text string) []int {
	var tokens []int
	for _, w := range strings.Fields(text) {
		id, ok := f.ids[w]
		if !ok {
			id = len(f.words)
			f.ids[w] = id
			f.words = append(f.words, w)
		}
		tokens = append(tokens, id)
	}
	return tokens
}

func (f *fakeTokenizer) Decode(tokens []int) string {
	words := make([]string, len(tokens))
	for i, id := range tokens {
		words[i] = f.words[id]
	}
	return strings.Join(words, " ")
}

func TestInMemoryIndex_Search(t *testing.T) {
	idx := NewInMemoryIndex()
	require.NoError(t, idx.Add(
		Chunk{Text: "Goroutines are lightweight threads managed by the Go runtime"},
		Chunk{Text: "Channels provide communication between goroutines"},
		Chunk{Text: "Python uses an interpreter lock"},
	))
	require.Equal(t, 3, idx.Len())

	results, err := idx.Search("goroutines channels", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "Channels provide communication between goroutines", results[0].Text)
	assert.Equal(t, 1.0, results[0].Score)
	assert.Equal(t, 0.5, results[1].Score)
}

func TestInMemoryIndex_SearchLimit(t *testing.T) {
	idx := NewInMemoryIndex()
	require.NoError(t, idx.Add(
		Chunk{Text: "alpha one"},
		Chunk{Text: "alpha two"},
		Chunk{Text: "alpha three"},
	))

	results, err := idx.Search("alpha", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestInMemoryIndex_EmptyQuery(t *testing.T) {
	idx := NewInMemoryIndex()
	_, err := idx.Search("   ", 5)
	require.Error(t, err)
}

func TestInMemoryIndex_SkipsBlankChunks(t *testing.T) {
	idx := NewInMemoryIndex()
	require.NoError(t, idx.Add(Chunk{Text: "  "}, Chunk{Text: "kept"}))
	assert.Equal(t, 1, idx.Len())
}

func TestChunker_Split(t *testing.T) {
	words := make([]string, 25)
	for i := range words {
		words[i] = string(rune('a' + i))
	}
	text := strings.Join(words, " ")

	c := NewChunker(newFakeTokenizer(), 10, 2)
	chunks := c.Split(text)

	require.Len(t, chunks, 3)
	assert.Len(t, strings.Fields(chunks[0]), 10)
	assert.Len(t, strings.Fields(chunks[1]), 10)
	assert.Len(t, strings.Fields(chunks[2]), 9)

	// Overlap: the last two words of a chunk open the next one.
	first := strings.Fields(chunks[0])
	second := strings.Fields(chunks[1])
	assert.Equal(t, first[8:], second[:2])
}

func TestChunker_ShortTextUnsplit(t *testing.T) {
	c := NewChunker(newFakeTokenizer(), 10, 2)
	chunks := c.Split("short text only")
	require.Len(t, chunks, 1)
	assert.Equal(t, "short text only", chunks[0])
}

func TestChunker_ClampsOverlap(t *testing.T) {
	c := NewChunker(newFakeTokenizer(), 4, 10)
	assert.Equal(t, 2, c.overlap)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("golang concurrency patterns"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.md"), []byte("markdown notes about channels"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.json"), []byte(`{"skipped": true}`), 0o644))

	idx := NewInMemoryIndex()
	n, err := LoadDir(idx, NewChunker(newFakeTokenizer(), 10, 2), dir)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	results, err := idx.Search("channels", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, filepath.Join(dir, "b.md"), results[0].Source)
}

func TestLoadDir_EmptyPath(t *testing.T) {
	_, err := LoadDir(NewInMemoryIndex(), NewChunker(newFakeTokenizer(), 10, 2), "")
	require.Error(t, err)
}
