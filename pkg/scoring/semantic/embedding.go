// Package semantic provides an embedding-backed implementation of
// scoring.TextSimilarity. Event texts are embedded through an ai.ModelClient
// and compared by cosine similarity, rescaled to [0, 1].
package semantic

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/finvista/evograph/pkg/ai"
	"github.com/finvista/evograph/pkg/scoring"

	"github.com/pkoukk/tiktoken-go"
	"golang.org/x/sync/singleflight"
)

// defaultMaxTokens caps the text sent to the embedding model. Longer event
// descriptions are truncated at a token boundary rather than rejected.
const defaultMaxTokens = 2048

// EmbeddingSimilarity scores text pairs by embedding both texts and taking
// the cosine similarity of the vectors, rescaled from [-1, 1] to [0, 1].
//
// Embeddings are cached per text for the lifetime of the instance, and
// concurrent requests for the same text are collapsed into a single model
// call. One instance is meant to live for one batch run: the cache is
// unbounded, sized by the corpus.
type EmbeddingSimilarity struct {
	client    ai.ModelClient
	maxTokens int

	group singleflight.Group

	mu    sync.RWMutex
	cache map[string][]float32
}

// NewEmbeddingSimilarityParams configures an EmbeddingSimilarity.
type NewEmbeddingSimilarityParams struct {
	Client    ai.ModelClient
	MaxTokens int
}

// NewEmbeddingSimilarity creates an embedding-backed similarity scorer.
func NewEmbeddingSimilarity(params NewEmbeddingSimilarityParams) (*EmbeddingSimilarity, error) {
	if params.Client == nil {
		return nil, errors.New("embedding similarity requires a model client")
	}
	maxTokens := params.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &EmbeddingSimilarity{
		client:    params.Client,
		maxTokens: maxTokens,
		cache:     make(map[string][]float32),
	}, nil
}

var _ scoring.TextSimilarity = (*EmbeddingSimilarity)(nil)

// Similarity embeds both texts and returns their cosine similarity rescaled
// to [0, 1]. A blank text on either side scores 0 without a model call.
func (s *EmbeddingSimilarity) Similarity(ctx context.Context, a, b string) (float64, error) {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	if a == "" || b == "" {
		return 0, nil
	}
	if a == b {
		return 1, nil
	}

	va, err := s.embed(ctx, a)
	if err != nil {
		return 0, fmt.Errorf("embed first text: %w", err)
	}
	vb, err := s.embed(ctx, b)
	if err != nil {
		return 0, fmt.Errorf("embed second text: %w", err)
	}

	cos, err := cosine(va, vb)
	if err != nil {
		return 0, err
	}
	return clamp01((cos + 1) / 2), nil
}

func (s *EmbeddingSimilarity) embed(ctx context.Context, text string) ([]float32, error) {
	text, err := s.truncate(text)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	vec, ok := s.cache[text]
	s.mu.RUnlock()
	if ok {
		return vec, nil
	}

	res, err, _ := s.group.Do(text, func() (any, error) {
		v, err := s.client.GenerateEmbedding(ctx, []byte(text))
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.cache[text] = v
		s.mu.Unlock()
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return res.([]float32), nil
}

func (s *EmbeddingSimilarity) truncate(text string) (string, error) {
	// a token is at least one byte, so short texts skip the tokenizer
	if len(text) <= s.maxTokens {
		return text, nil
	}
	enc, err := tiktoken.GetEncoding("o200k_base")
	if err != nil {
		return "", err
	}
	tokens := enc.Encode(text, nil, nil)
	if len(tokens) <= s.maxTokens {
		return text, nil
	}
	return enc.Decode(tokens[:s.maxTokens]), nil
}

func cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("embedding dimension mismatch: %d vs %d", len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
