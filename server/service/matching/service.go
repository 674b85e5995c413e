// Package matching runs the item matching pipeline: persist a reported
// item, rank counterpart candidates, record top matches and drive
// notifications.
package matching

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/reclaimhq/reclaim/internal/errors"
	"github.com/reclaimhq/reclaim/internal/profile"
	"github.com/reclaimhq/reclaim/server/internal/observability"
	"github.com/reclaimhq/reclaim/server/matcher"
	"github.com/reclaimhq/reclaim/store"
)

// Store is the subset of the store the pipeline reads and writes.
type Store interface {
	CreateItem(ctx context.Context, create *store.Item) (*store.Item, error)
	ListItems(ctx context.Context, find *store.FindItem) ([]*store.Item, error)
	GetItemByUID(ctx context.Context, uid string) (*store.Item, error)
	UpdateItem(ctx context.Context, update *store.UpdateItem) (*store.Item, error)
	UpsertMatch(ctx context.Context, create *store.Match) (*store.Match, error)
	ListMatches(ctx context.Context, find *store.FindMatch) ([]*store.Match, error)
	GetItemEmbedding(ctx context.Context, itemID int32, model string) (*store.ItemEmbedding, error)
	UpsertItemEmbedding(ctx context.Context, embedding *store.ItemEmbedding) (*store.ItemEmbedding, error)
}

// Notifier is the delivery surface the pipeline drives.
type Notifier interface {
	NotifyMatches(ctx context.Context, found *store.Item) (int, error)
	NotifyResolution(ctx context.Context, lost *store.Item) error
}

// Service is the matching pipeline. One pass runs per triggering event;
// there is no background scheduler.
type Service struct {
	profile  *profile.Profile
	store    Store
	ranker   *matcher.Ranker
	notifier Notifier
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewService creates the matching pipeline service.
func NewService(p *profile.Profile, st Store, ranker *matcher.Ranker, n Notifier) *Service {
	return &Service{
		profile:  p,
		store:    st,
		ranker:   ranker,
		notifier: n,
		metrics:  observability.GlobalMetrics(),
		logger:   slog.Default(),
	}
}

// ReportItem persists a reported item, ranks it against the counterpart
// candidate set and records the top matches. Match rows are written only
// after the whole ranking pass succeeded, so a provider failure leaves no
// partial results; each write is idempotent, so a retried pass converges
// on the same rows. An empty match set is a success.
//
// The item itself is persisted before the pass runs: when the pass fails
// the stored item is returned alongside the error and a later pass may be
// triggered again for it.
func (s *Service) ReportItem(ctx context.Context, create *store.Item) (*store.Item, []*store.Match, error) {
	if err := validateReport(create); err != nil {
		return nil, nil, err
	}

	item, err := s.store.CreateItem(ctx, create)
	if err != nil {
		return nil, nil, errors.Persistence("failed to create item", err)
	}

	matches, err := s.runPass(ctx, item)
	if err != nil {
		return item, nil, err
	}
	return item, matches, nil
}

// RunPass re-runs the matching pass for a stored item, e.g. to retry after
// a provider outage.
func (s *Service) RunPass(ctx context.Context, uid string) ([]*store.Match, error) {
	item, err := s.getItem(ctx, uid)
	if err != nil {
		return nil, err
	}
	return s.runPass(ctx, item)
}

// ApproveAndNotify sets a found item's moderation status to APPROVED and,
// when notify is set, runs the notifier for its recorded matches. When
// pending items are excluded from matching, approval is the moment the item
// becomes eligible, so the pass runs here; its inserts are idempotent.
func (s *Service) ApproveAndNotify(ctx context.Context, uid string, notify bool) (*store.Item, int, error) {
	item, err := s.getItem(ctx, uid)
	if err != nil {
		return nil, 0, err
	}
	if item.Kind != store.ItemKindFound {
		return nil, 0, errors.InvalidArgument("only found items are moderated")
	}

	status := store.StatusApproved
	now := time.Now().Unix()
	item, err = s.store.UpdateItem(ctx, &store.UpdateItem{
		ID:        item.ID,
		UpdatedTs: &now,
		Status:    &status,
	})
	if err != nil {
		return nil, 0, errors.Persistence("failed to approve item", err)
	}

	if !s.profile.MatchPending {
		if _, err := s.runPass(ctx, item); err != nil {
			return item, 0, err
		}
	}

	if !notify {
		return item, 0, nil
	}

	sent, err := s.notifier.NotifyMatches(ctx, item)
	if err != nil {
		return item, sent, errors.Persistence("failed to load matches for notification", err)
	}
	return item, sent, nil
}

// ResolveLostItem marks a lost item as found. When the reporter's contact
// looks like an email address, a direct confirmation goes out immediately;
// its delivery is best-effort and never fails the resolution.
func (s *Service) ResolveLostItem(ctx context.Context, uid string) (*store.Item, error) {
	item, err := s.getItem(ctx, uid)
	if err != nil {
		return nil, err
	}
	if item.Kind != store.ItemKindLost {
		return nil, errors.InvalidArgument("only lost items can be resolved")
	}

	isFound := true
	now := time.Now().Unix()
	item, err = s.store.UpdateItem(ctx, &store.UpdateItem{
		ID:        item.ID,
		UpdatedTs: &now,
		IsFound:   &isFound,
	})
	if err != nil {
		return nil, errors.Persistence("failed to resolve item", err)
	}

	if strings.Contains(item.Contact, "@") {
		if err := s.notifier.NotifyResolution(ctx, item); err != nil {
			s.logger.Warn("resolution notification failed",
				observability.LogFieldItemUID, item.UID,
				"error", err,
			)
		}
	}
	return item, nil
}

// NotifyMatches runs the notifier for a found item's recorded matches.
func (s *Service) NotifyMatches(ctx context.Context, uid string) (int, error) {
	item, err := s.getItem(ctx, uid)
	if err != nil {
		return 0, err
	}
	if item.Kind != store.ItemKindFound {
		return 0, errors.InvalidArgument("matches are notified from the found side")
	}
	if !s.matchable(item) {
		return 0, errors.InvalidArgument("item is pending moderation")
	}

	sent, err := s.notifier.NotifyMatches(ctx, item)
	if err != nil {
		return sent, errors.Persistence("failed to load matches for notification", err)
	}
	return sent, nil
}

// GetItem returns a stored item by UID.
func (s *Service) GetItem(ctx context.Context, uid string) (*store.Item, error) {
	return s.getItem(ctx, uid)
}

// ListItems lists stored items of one kind.
func (s *Service) ListItems(ctx context.Context, find *store.FindItem) ([]*store.Item, error) {
	items, err := s.store.ListItems(ctx, find)
	if err != nil {
		return nil, errors.Persistence("failed to list items", err)
	}
	return items, nil
}

// ListMatchesForItem returns the recorded matches of an item, from
// whichever side of the pair it sits on, ordered by score descending.
func (s *Service) ListMatchesForItem(ctx context.Context, uid string) ([]*store.Match, error) {
	item, err := s.getItem(ctx, uid)
	if err != nil {
		return nil, err
	}

	find := &store.FindMatch{}
	if item.Kind == store.ItemKindLost {
		find.LostItemID = &item.ID
	} else {
		find.FoundItemID = &item.ID
	}

	matches, err := s.store.ListMatches(ctx, find)
	if err != nil {
		return nil, errors.Persistence("failed to list matches", err)
	}
	return matches, nil
}

func (s *Service) getItem(ctx context.Context, uid string) (*store.Item, error) {
	item, err := s.store.GetItemByUID(ctx, uid)
	if err != nil {
		return nil, errors.Persistence("failed to get item", err)
	}
	if item == nil {
		return nil, errors.NotFoundf("item %q not found", uid)
	}
	return item, nil
}

func (s *Service) runPass(ctx context.Context, subject *store.Item) ([]*store.Match, error) {
	if !s.matchable(subject) {
		return []*store.Match{}, nil
	}

	strategy := s.ranker.Scorer().Name()
	passCtx := observability.NewPassContext(s.logger, strategy, subject.UID)
	ctx = observability.WithPassContext(ctx, passCtx)

	candidates, err := s.candidateSet(ctx, subject)
	if err != nil {
		return nil, errors.Persistence("failed to load candidate set", err)
	}

	s.primeVectors(ctx, subject, candidates)

	s.metrics.RecordRankPass(strategy)
	ranked, err := s.ranker.Rank(ctx, subject, candidates)
	if err != nil {
		s.metrics.RecordRankFailure(strategy)
		s.metrics.RecordProviderFailure()
		passCtx.Error("ranking pass failed", err)
		return nil, errors.Provider("failed to score candidates", err)
	}
	s.metrics.RecordPassDuration(strategy, passCtx.Duration())

	s.persistVectors(ctx, subject, candidates)

	matches := make([]*store.Match, 0, len(ranked))
	for _, sc := range ranked {
		match := &store.Match{Score: sc.Score}
		if subject.Kind == store.ItemKindLost {
			match.LostItemID = subject.ID
			match.FoundItemID = sc.Candidate.ID
		} else {
			match.LostItemID = sc.Candidate.ID
			match.FoundItemID = subject.ID
		}

		stored, err := s.store.UpsertMatch(ctx, match)
		if err != nil {
			return nil, errors.Persistence("failed to record match", err)
		}
		matches = append(matches, stored)
	}
	s.metrics.RecordMatches(len(matches))

	passCtx.Info("matching pass complete",
		slog.Int(observability.LogFieldCandidates, len(candidates)),
		slog.Int(observability.LogFieldMatches, len(matches)),
		slog.Int64(observability.LogFieldDuration, passCtx.DurationMs()),
	)
	return matches, nil
}

// matchable reports whether an item takes part in matching and
// notification. The gate only bites for found items awaiting moderation in
// deployments that restrict matching to published items; lost items are
// always eligible.
func (s *Service) matchable(item *store.Item) bool {
	if item.Kind != store.ItemKindFound || s.profile.MatchPending {
		return true
	}
	return item.Status == store.StatusApproved
}

// candidateSet loads every stored counterpart of the subject. Pending
// found items are included by default so a report never misses an item
// that is merely waiting for moderation; the flag excludes them for
// deployments that only match published items.
func (s *Service) candidateSet(ctx context.Context, subject *store.Item) ([]*store.Item, error) {
	counterpart := subject.Kind.Counterpart()
	find := &store.FindItem{Kind: &counterpart}
	if counterpart == store.ItemKindFound && !s.profile.MatchPending {
		approved := store.StatusApproved
		find.Status = &approved
	}
	return s.store.ListItems(ctx, find)
}

// primeVectors seeds the semantic scorer's memo with vectors already
// persisted for the candidates, saving provider calls. Read failures are
// ignored; a miss only costs one embedding call.
func (s *Service) primeVectors(ctx context.Context, subject *store.Item, candidates []*store.Item) {
	sem, ok := s.ranker.Scorer().(*matcher.SemanticScorer)
	if !ok {
		return
	}

	items := append([]*store.Item{subject}, candidates...)
	for _, item := range items {
		cached, err := s.store.GetItemEmbedding(ctx, item.ID, sem.Model())
		if err != nil || cached == nil {
			continue
		}
		sem.Prime(matcher.TextOf(item), cached.Embedding)
	}
}

// persistVectors writes the vectors a pass paid for back to the store.
// Best-effort: the sqlite driver rejects vector storage and that is fine.
func (s *Service) persistVectors(ctx context.Context, subject *store.Item, candidates []*store.Item) {
	sem, ok := s.ranker.Scorer().(*matcher.SemanticScorer)
	if !ok {
		return
	}

	items := append([]*store.Item{subject}, candidates...)
	for _, item := range items {
		vec, ok := sem.CachedVector(matcher.TextOf(item))
		if !ok {
			continue
		}
		if _, err := s.store.UpsertItemEmbedding(ctx, &store.ItemEmbedding{
			ItemID:    item.ID,
			Embedding: vec,
			Model:     sem.Model(),
		}); err != nil {
			s.logger.Debug("skipping vector persistence", "item_id", item.ID, "error", err)
			return
		}
	}
}

func validateReport(create *store.Item) error {
	if create.Kind != store.ItemKindLost && create.Kind != store.ItemKindFound {
		return errors.InvalidArgument("kind must be LOST or FOUND")
	}
	if strings.TrimSpace(create.Title) == "" {
		return errors.InvalidArgument("title is required")
	}
	if strings.TrimSpace(create.Location) == "" {
		return errors.InvalidArgument("location is required")
	}
	return nil
}
