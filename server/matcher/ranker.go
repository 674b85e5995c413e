package matcher

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/reclaimhq/reclaim/store"
)

// DefaultTopK caps how many candidates one ranking pass records.
const DefaultTopK = 3

// defaultConcurrency bounds parallel scoring calls. Only relevant for the
// semantic strategy, where each score may cost a provider round trip.
const defaultConcurrency = 4

// ScoredCandidate pairs a candidate item with its similarity score.
type ScoredCandidate struct {
	Candidate *store.Item
	Score     int
}

// Ranker computes scores for a subject against all counterpart candidates,
// sorts, and applies the strategy threshold and the top-K cap. It is pure
// computation over its inputs; persistence belongs to the caller.
type Ranker struct {
	scorer      Scorer
	topK        int
	concurrency int
}

// NewRanker creates a ranker with the default top-K cap.
func NewRanker(scorer Scorer) *Ranker {
	return &Ranker{
		scorer:      scorer,
		topK:        DefaultTopK,
		concurrency: defaultConcurrency,
	}
}

// Scorer returns the strategy this ranker runs.
func (r *Ranker) Scorer() Scorer {
	return r.scorer
}

// Rank scores every candidate against the subject, sorts descending and
// returns at most topK candidates at or above the strategy threshold.
//
// Scoring calls may run concurrently, but results re-associate with
// candidates by index and the sort is stable, so equal scores keep the
// candidate list's original order regardless of call completion order.
// A single scoring failure aborts the whole pass (all-or-nothing).
func (r *Ranker) Rank(ctx context.Context, subject *store.Item, candidates []*store.Item) ([]ScoredCandidate, error) {
	if len(candidates) == 0 {
		return []ScoredCandidate{}, nil
	}

	subjectText := TextOf(subject)
	scores := make([]int, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, candidate := range candidates {
		i, candidate := i, candidate
		g.Go(func() error {
			score, err := r.scorer.Score(gctx, subjectText, TextOf(candidate))
			if err != nil {
				return err
			}
			scores[i] = score
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ranked := make([]ScoredCandidate, len(candidates))
	for i, candidate := range candidates {
		ranked[i] = ScoredCandidate{Candidate: candidate, Score: scores[i]}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if len(ranked) > r.topK {
		ranked = ranked[:r.topK]
	}

	top := ranked[:0:0]
	for _, sc := range ranked {
		if sc.Score >= r.scorer.Threshold() {
			top = append(top, sc)
		}
	}
	return top, nil
}
