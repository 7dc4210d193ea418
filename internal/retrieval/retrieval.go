// Package retrieval builds a throwaway in-memory chunk index over the
// Modeler's attached files and ranks chunks against the user's prompt by
// cosine similarity, for the retrieval sub-path of C6's Modeler role.
package retrieval

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/orpipe/orpipe"
)

const (
	defaultChunkChars   = 1000
	defaultOverlapChars = 200
	minChunkChars       = 50
)

// Chunk splits text into overlapping chunks on paragraph boundaries,
// falling back to a hard character cut (at a UTF-8 rune boundary) for
// paragraphs longer than defaultChunkChars. Chunks shorter than
// minChunkChars are dropped.
func Chunk(text string) []string {
	var paragraphs []string
	for _, p := range strings.Split(strings.TrimSpace(text), "\n\n") {
		p = strings.TrimSpace(p)
		for len(p) > defaultChunkChars {
			cut := defaultChunkChars
			for cut > 0 && !utf8.RuneStart(p[cut]) {
				cut--
			}
			paragraphs = append(paragraphs, p[:cut])
			p = p[cut:]
		}
		paragraphs = append(paragraphs, p)
	}

	var chunks []string
	var cur strings.Builder
	for _, p := range paragraphs {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if cur.Len()+len(p) > defaultChunkChars && cur.Len() > 0 {
			chunks = append(chunks, cur.String())
			overlap := lastNChars(cur.String(), defaultOverlapChars)
			cur.Reset()
			cur.WriteString(overlap)
		}
		if cur.Len() > 0 {
			cur.WriteString("\n\n")
		}
		cur.WriteString(p)
	}
	if cur.Len() > 0 {
		chunks = append(chunks, cur.String())
	}

	filtered := chunks[:0]
	for _, c := range chunks {
		if len(c) >= minChunkChars {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

func lastNChars(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// Index is a throwaway in-memory set of embedded chunks built for one
// retrieval call.
type Index struct {
	chunks     []string
	embeddings [][]float32
}

// Build chunks every text in texts and embeds the resulting chunks.
func Build(ctx context.Context, embedder orpipe.EmbeddingProvider, texts []string) (*Index, error) {
	var chunks []string
	for _, t := range texts {
		chunks = append(chunks, Chunk(t)...)
	}
	if len(chunks) == 0 {
		return &Index{}, nil
	}

	vecs, err := embedder.Embed(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	return &Index{chunks: chunks, embeddings: vecs}, nil
}

// TopK ranks the index's chunks against query and returns the k highest by
// cosine similarity. Empty if the index has no chunks.
func (idx *Index) TopK(ctx context.Context, embedder orpipe.EmbeddingProvider, query string, k int) ([]string, error) {
	if len(idx.chunks) == 0 {
		return nil, nil
	}

	queryVecs, err := embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	queryVec := queryVecs[0]

	type scored struct {
		text  string
		score float32
	}
	ranked := make([]scored, len(idx.chunks))
	for i, c := range idx.chunks {
		ranked[i] = scored{text: c, score: cosineSimilarity(queryVec, idx.embeddings[i])}
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	if k > len(ranked) {
		k = len(ranked)
	}
	out := make([]string, k)
	for i := 0; i < k; i++ {
		out[i] = ranked[i].text
	}
	return out, nil
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
