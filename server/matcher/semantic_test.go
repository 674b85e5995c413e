package matcher

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

// fakeEmbedding returns canned vectors keyed by input text and counts calls.
type fakeEmbedding struct {
	vectors map[string][]float32
	calls   atomic.Int32
	err     error
}

func (f *fakeEmbedding) Embed(_ context.Context, text string) ([]float32, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	vec, ok := f.vectors[text]
	if !ok {
		return nil, errors.Errorf("no canned vector for %q", text)
	}
	return vec, nil
}

func (f *fakeEmbedding) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	result := make([][]float32, 0, len(texts))
	for _, text := range texts {
		vec, err := f.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		result = append(result, vec)
	}
	return result, nil
}

func (f *fakeEmbedding) Dimensions() int { return 3 }
func (f *fakeEmbedding) Model() string   { return "fake-embedding" }

func TestSemanticScorerScore(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		vecA     []float32
		vecB     []float32
		expected int
	}{
		{
			name:     "identical vectors score 100",
			vecA:     []float32{0.5, 0.5, 0},
			vecB:     []float32{0.5, 0.5, 0},
			expected: 100,
		},
		{
			name:     "orthogonal vectors score 0",
			vecA:     []float32{1, 0, 0},
			vecB:     []float32{0, 1, 0},
			expected: 0,
		},
		{
			name:     "opposite vectors clamp to 0",
			vecA:     []float32{1, 0, 0},
			vecB:     []float32{-1, 0, 0},
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := ItemText{Title: "lost item"}
			b := ItemText{Title: "found item"}
			embedding := &fakeEmbedding{vectors: map[string][]float32{
				Blob(a): tt.vecA,
				Blob(b): tt.vecB,
			}}
			scorer := NewSemanticScorer(embedding)
			defer scorer.Close()

			score, err := scorer.Score(ctx, a, b)
			require.NoError(t, err)
			require.Equal(t, tt.expected, score)
		})
	}
}

func TestSemanticScorerMemoizesVectors(t *testing.T) {
	ctx := context.Background()

	subject := ItemText{Title: "blue backpack", Location: "library"}
	candidateA := ItemText{Title: "backpack"}
	candidateB := ItemText{Title: "umbrella"}
	embedding := &fakeEmbedding{vectors: map[string][]float32{
		Blob(subject):    {1, 0, 0},
		Blob(candidateA): {0.9, 0.1, 0},
		Blob(candidateB): {0, 0, 1},
	}}
	scorer := NewSemanticScorer(embedding)
	defer scorer.Close()

	_, err := scorer.Score(ctx, subject, candidateA)
	require.NoError(t, err)
	_, err = scorer.Score(ctx, subject, candidateB)
	require.NoError(t, err)

	// Three distinct blobs, the subject embedded once.
	require.Equal(t, int32(3), embedding.calls.Load())

	vec, ok := scorer.CachedVector(subject)
	require.True(t, ok)
	require.Equal(t, []float32{1, 0, 0}, vec)
}

func TestSemanticScorerPrimeSkipsProvider(t *testing.T) {
	ctx := context.Background()

	a := ItemText{Title: "silver watch"}
	b := ItemText{Title: "watch"}
	embedding := &fakeEmbedding{vectors: map[string][]float32{}}
	scorer := NewSemanticScorer(embedding)
	defer scorer.Close()

	scorer.Prime(a, []float32{1, 0, 0})
	scorer.Prime(b, []float32{1, 0, 0})

	score, err := scorer.Score(ctx, a, b)
	require.NoError(t, err)
	require.Equal(t, 100, score)
	require.Equal(t, int32(0), embedding.calls.Load())
}

func TestSemanticScorerProviderError(t *testing.T) {
	ctx := context.Background()

	embedding := &fakeEmbedding{err: errors.New("provider unavailable")}
	scorer := NewSemanticScorer(embedding)
	defer scorer.Close()

	_, err := scorer.Score(ctx, ItemText{Title: "a item"}, ItemText{Title: "b item"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "provider unavailable")
}

func TestBlob(t *testing.T) {
	tests := []struct {
		name     string
		text     ItemText
		expected string
	}{
		{
			name:     "all fields",
			text:     ItemText{Title: "backpack", Description: "blue nike", Location: "library"},
			expected: "backpack\nblue nike\nlibrary",
		},
		{
			name:     "title only",
			text:     ItemText{Title: "backpack"},
			expected: "backpack",
		},
		{
			name:     "skips empty middle field",
			text:     ItemText{Title: "backpack", Location: "library"},
			expected: "backpack\nlibrary",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, Blob(tt.text))
		})
	}
}
