package retrieval

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// Default chunking parameters for article-sized documents.
const (
	DefaultChunkSize    = 1024
	DefaultChunkOverlap = 200
)

// Tokenizer encodes text to token ids and back. Abstracted so tests can use
// a deterministic fake while production wraps tiktoken.
type Tokenizer interface {
	Encode(text string) []int
	Decode(tokens []int) string
}

// TiktokenTokenizer wraps a tiktoken BPE encoding.
type TiktokenTokenizer struct {
	enc *tiktoken.Tiktoken
}

// NewTiktokenTokenizer resolves the encoding for the given embedding model,
// falling back to cl100k_base for unknown model names.
func NewTiktokenTokenizer(model string) (*TiktokenTokenizer, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("resolve tokenizer encoding: %w", err)
		}
	}
	return &TiktokenTokenizer{enc: enc}, nil
}

// Encode implements Tokenizer.
func (t *TiktokenTokenizer) Encode(text string) []int {
	return t.enc.Encode(text, nil, nil)
}

// Decode implements Tokenizer.
func (t *TiktokenTokenizer) Decode(tokens []int) string {
	return t.enc.Decode(tokens)
}

// Chunker splits documents into token windows with a fixed overlap so that
// sentence fragments at window boundaries remain retrievable.
type Chunker struct {
	tok     Tokenizer
	size    int
	overlap int
}

// NewChunker creates a chunker. Non-positive size or overlap fall back to
// the defaults; overlap is clamped below size.
func NewChunker(tok Tokenizer, size, overlap int) *Chunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = DefaultChunkOverlap
	}
	if overlap >= size {
		overlap = size / 2
	}
	return &Chunker{tok: tok, size: size, overlap: overlap}
}

// Split returns the token windows of text decoded back to strings.
func (c *Chunker) Split(text string) []string {
	tokens := c.tok.Encode(text)
	if len(tokens) == 0 {
		return nil
	}
	if len(tokens) <= c.size {
		return []string{text}
	}

	var chunks []string
	step := c.size - c.overlap
	for start := 0; start < len(tokens); start += step {
		end := start + c.size
		if end > len(tokens) {
			end = len(tokens)
		}
		chunks = append(chunks, c.tok.Decode(tokens[start:end]))
		if end == len(tokens) {
			break
		}
	}

	return chunks
}
