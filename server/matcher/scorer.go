package matcher

import (
	"context"
	"math"

	"github.com/reclaimhq/reclaim/store"
)

// ItemText is the comparable text of an item: the triple a scoring strategy
// operates on.
type ItemText struct {
	Title       string
	Description string
	Location    string
}

// TextOf extracts the comparable text of a stored item.
func TextOf(item *store.Item) ItemText {
	return ItemText{
		Title:       item.Title,
		Description: item.Description,
		Location:    item.Location,
	}
}

// Scorer computes a bounded similarity score for a pair of items. Both
// strategies are deterministic for identical inputs; which one runs is a
// configuration choice, so they must be swappable without changing the
// ranker's contract.
type Scorer interface {
	// Name identifies the strategy.
	Name() string

	// Threshold is the minimum score a candidate must reach to be recorded.
	Threshold() int

	// Score maps a pair of item texts to an integer in [0,100].
	Score(ctx context.Context, a, b ItemText) (int, error)
}

// Per-field weights of the lexical composite score.
const (
	titleWeight       = 0.4
	descriptionWeight = 0.3
	locationWeight    = 0.3
)

// LexicalThreshold is the recording bar for lexical scoring. The coarser
// token-overlap signal gets a lower bar than the semantic strategy.
const LexicalThreshold = 30

// LexicalScorer scores item pairs by per-field token-set overlap.
type LexicalScorer struct{}

// NewLexicalScorer creates a lexical scorer.
func NewLexicalScorer() *LexicalScorer {
	return &LexicalScorer{}
}

// Name implements Scorer.
func (*LexicalScorer) Name() string {
	return "lexical"
}

// Threshold implements Scorer.
func (*LexicalScorer) Threshold() int {
	return LexicalThreshold
}

// Score computes the weighted Jaccard composite of the field pairs.
func (*LexicalScorer) Score(_ context.Context, a, b ItemText) (int, error) {
	title := jaccard(tokenize(a.Title), tokenize(b.Title))
	description := jaccard(tokenize(a.Description), tokenize(b.Description))
	location := jaccard(tokenize(a.Location), tokenize(b.Location))

	composite := (title*titleWeight + description*descriptionWeight + location*locationWeight) * 100
	return clampScore(int(math.Round(composite))), nil
}
