package matcher

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/reclaimhq/reclaim/plugin/ai"
	"github.com/reclaimhq/reclaim/store/cache"
)

// SemanticThreshold is the recording bar for semantic scoring. Embeddings
// produce tighter, higher scores than token overlap, so the bar is higher;
// lowering it changes matching recall.
const SemanticThreshold = 60

// SemanticScorer scores item pairs by embedding their text blobs and
// taking cosine similarity. Vectors are memoized by blob so every
// comparison within a ranking pass sees the same vector for the same text,
// and the subject item is embedded once instead of once per candidate.
type SemanticScorer struct {
	embedding ai.EmbeddingService
	vectors   *cache.Cache
}

// NewSemanticScorer creates a semantic scorer on top of an embedding service.
func NewSemanticScorer(embedding ai.EmbeddingService) *SemanticScorer {
	return &SemanticScorer{
		embedding: embedding,
		vectors: cache.New(cache.Config{
			DefaultTTL:      30 * time.Minute,
			CleanupInterval: 5 * time.Minute,
			MaxItems:        2000,
		}),
	}
}

// Name implements Scorer.
func (*SemanticScorer) Name() string {
	return "semantic"
}

// Threshold implements Scorer.
func (*SemanticScorer) Threshold() int {
	return SemanticThreshold
}

// Score embeds both blobs and computes their cosine similarity. Any
// provider failure surfaces unchanged so the ranking pass can abort as a
// whole. Negative cosine clamps to 0.
func (s *SemanticScorer) Score(ctx context.Context, a, b ItemText) (int, error) {
	vecA, err := s.vector(ctx, Blob(a))
	if err != nil {
		return 0, err
	}
	vecB, err := s.vector(ctx, Blob(b))
	if err != nil {
		return 0, err
	}

	composite := cosineSimilarity(vecA, vecB) * 100
	return clampScore(int(math.Round(composite))), nil
}

// CachedVector returns the memoized vector for an item text, if present.
// Lets callers persist a vector that was already paid for without another
// provider round trip.
func (s *SemanticScorer) CachedVector(text ItemText) ([]float32, bool) {
	if value, ok := s.vectors.Get(context.Background(), Blob(text)); ok {
		if vec, ok := value.([]float32); ok {
			return vec, true
		}
	}
	return nil, false
}

// Prime seeds the memo with a known vector, e.g. one read back from the
// persistent embedding cache.
func (s *SemanticScorer) Prime(text ItemText, vec []float32) {
	s.vectors.Set(context.Background(), Blob(text), vec)
}

// Model returns the embedding model identifier vectors are computed with.
// Persistent vector caches key on it.
func (s *SemanticScorer) Model() string {
	return s.embedding.Model()
}

// Close releases the memo cache.
func (s *SemanticScorer) Close() {
	s.vectors.Close()
}

func (s *SemanticScorer) vector(ctx context.Context, blob string) ([]float32, error) {
	if value, ok := s.vectors.Get(ctx, blob); ok {
		if vec, ok := value.([]float32); ok {
			return vec, nil
		}
	}

	vec, err := s.embedding.Embed(ctx, blob)
	if err != nil {
		return nil, err
	}
	s.vectors.Set(ctx, blob, vec)
	return vec, nil
}

// Blob flattens an item text into the single string handed to the
// embedding provider.
func Blob(text ItemText) string {
	parts := []string{text.Title}
	if text.Description != "" {
		parts = append(parts, text.Description)
	}
	if text.Location != "" {
		parts = append(parts, text.Location)
	}
	return strings.Join(parts, "\n")
}
