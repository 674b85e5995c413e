package matching

import (
	"context"
	"fmt"
	"sync"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/reclaimhq/reclaim/internal/errors"
	"github.com/reclaimhq/reclaim/internal/profile"
	"github.com/reclaimhq/reclaim/server/matcher"
	"github.com/reclaimhq/reclaim/store"
)

// fakeStore is an in-memory implementation of the pipeline's store surface.
type fakeStore struct {
	mu         sync.Mutex
	items      []*store.Item
	matches    []*store.Match
	embeddings map[string]*store.ItemEmbedding
	nextItemID int32
	nextMatch  int32

	listErr   error
	upsertErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		embeddings: make(map[string]*store.ItemEmbedding),
		nextItemID: 1,
		nextMatch:  1,
	}
}

func (f *fakeStore) CreateItem(_ context.Context, create *store.Item) (*store.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	item := *create
	item.ID = f.nextItemID
	f.nextItemID++
	if item.UID == "" {
		item.UID = fmt.Sprintf("uid-%d", item.ID)
	}
	if item.Status == "" {
		if item.Kind == store.ItemKindFound {
			item.Status = store.StatusPending
		} else {
			item.Status = store.StatusApproved
		}
	}
	f.items = append(f.items, &item)
	return &item, nil
}

func (f *fakeStore) ListItems(_ context.Context, find *store.FindItem) ([]*store.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.listErr != nil {
		return nil, f.listErr
	}

	var result []*store.Item
	for _, item := range f.items {
		if find.Kind != nil && item.Kind != *find.Kind {
			continue
		}
		if find.Status != nil && item.Status != *find.Status {
			continue
		}
		if find.UID != nil && item.UID != *find.UID {
			continue
		}
		if find.ID != nil && item.ID != *find.ID {
			continue
		}
		result = append(result, item)
	}
	return result, nil
}

func (f *fakeStore) GetItemByUID(ctx context.Context, uid string) (*store.Item, error) {
	list, err := f.ListItems(ctx, &store.FindItem{UID: &uid})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (f *fakeStore) UpdateItem(_ context.Context, update *store.UpdateItem) (*store.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, item := range f.items {
		if item.ID != update.ID {
			continue
		}
		if update.Status != nil {
			item.Status = *update.Status
		}
		if update.IsFound != nil {
			item.IsFound = *update.IsFound
		}
		if update.UpdatedTs != nil {
			item.UpdatedTs = *update.UpdatedTs
		}
		return item, nil
	}
	return nil, pkgerrors.Errorf("item %d not found", update.ID)
}

func (f *fakeStore) UpsertMatch(_ context.Context, create *store.Match) (*store.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.upsertErr != nil {
		return nil, f.upsertErr
	}

	for _, match := range f.matches {
		if match.LostItemID == create.LostItemID && match.FoundItemID == create.FoundItemID {
			return match, nil
		}
	}

	match := *create
	match.ID = f.nextMatch
	f.nextMatch++
	f.matches = append(f.matches, &match)
	return &match, nil
}

func (f *fakeStore) ListMatches(_ context.Context, find *store.FindMatch) ([]*store.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var result []*store.Match
	for _, match := range f.matches {
		if find.LostItemID != nil && match.LostItemID != *find.LostItemID {
			continue
		}
		if find.FoundItemID != nil && match.FoundItemID != *find.FoundItemID {
			continue
		}
		if find.Notified != nil && match.Notified != *find.Notified {
			continue
		}
		if find.MinScore != nil && match.Score < *find.MinScore {
			continue
		}
		result = append(result, match)
	}
	return result, nil
}

func (f *fakeStore) GetItemEmbedding(_ context.Context, itemID int32, model string) (*store.ItemEmbedding, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.embeddings[fmt.Sprintf("%d/%s", itemID, model)], nil
}

func (f *fakeStore) UpsertItemEmbedding(_ context.Context, embedding *store.ItemEmbedding) (*store.ItemEmbedding, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.embeddings[fmt.Sprintf("%d/%s", embedding.ItemID, embedding.Model)] = embedding
	return embedding, nil
}

// fakeNotifier records invocations.
type fakeNotifier struct {
	mu          sync.Mutex
	notified    []int32
	resolutions []int32
	sent        int
	err         error
}

func (f *fakeNotifier) NotifyMatches(_ context.Context, found *store.Item) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.notified = append(f.notified, found.ID)
	return f.sent, nil
}

func (f *fakeNotifier) NotifyResolution(_ context.Context, lost *store.Item) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.resolutions = append(f.resolutions, lost.ID)
	return nil
}

// failingScorer aborts every pass.
type failingScorer struct{}

func (*failingScorer) Name() string   { return "failing" }
func (*failingScorer) Threshold() int { return 30 }
func (*failingScorer) Score(context.Context, matcher.ItemText, matcher.ItemText) (int, error) {
	return 0, pkgerrors.New("provider unavailable")
}

func testProfile() *profile.Profile {
	return &profile.Profile{
		Mode:            "dev",
		ScoringStrategy: profile.StrategyLexical,
		MatchPending:    true,
		NotifyThreshold: 60,
	}
}

func newTestService(st Store, n Notifier) *Service {
	return NewService(testProfile(), st, matcher.NewRanker(matcher.NewLexicalScorer()), n)
}

func seedLostItem(t *testing.T, st *fakeStore) *store.Item {
	t.Helper()
	item, err := st.CreateItem(context.Background(), &store.Item{
		Kind:        store.ItemKindLost,
		Title:       "Blue backpack",
		Description: "Nike backpack with laptop charger inside",
		Location:    "Central Library",
		Contact:     "owner@example.com",
	})
	require.NoError(t, err)
	return item
}

func TestReportItemRecordsMatches(t *testing.T) {
	ctx := context.Background()
	st := newFakeStore()
	lost := seedLostItem(t, st)
	svc := newTestService(st, &fakeNotifier{})

	item, matches, err := svc.ReportItem(ctx, &store.Item{
		Kind:        store.ItemKindFound,
		Title:       "blue backpack found",
		Description: "nike backpack, laptop charger inside",
		Location:    "central library",
	})
	require.NoError(t, err)
	require.NotEmpty(t, item.UID)
	require.Equal(t, store.StatusPending, item.Status)
	require.Len(t, matches, 1)
	require.Equal(t, lost.ID, matches[0].LostItemID)
	require.Equal(t, item.ID, matches[0].FoundItemID)
	require.GreaterOrEqual(t, matches[0].Score, matcher.LexicalThreshold)
	require.False(t, matches[0].Notified)
}

func TestReportItemNoMatchesIsSuccess(t *testing.T) {
	ctx := context.Background()
	st := newFakeStore()
	seedLostItem(t, st)
	svc := newTestService(st, &fakeNotifier{})

	_, matches, err := svc.ReportItem(ctx, &store.Item{
		Kind:     store.ItemKindFound,
		Title:    "silver watch",
		Location: "cafeteria",
	})
	require.NoError(t, err)
	require.Empty(t, matches)
}

func TestReportItemValidation(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newFakeStore(), &fakeNotifier{})

	tests := []struct {
		name   string
		create *store.Item
	}{
		{
			name:   "missing kind",
			create: &store.Item{Title: "backpack", Location: "library"},
		},
		{
			name:   "bad kind",
			create: &store.Item{Kind: "STOLEN", Title: "backpack", Location: "library"},
		},
		{
			name:   "missing title",
			create: &store.Item{Kind: store.ItemKindLost, Location: "library"},
		},
		{
			name:   "missing location",
			create: &store.Item{Kind: store.ItemKindLost, Title: "backpack"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.ReportItem(ctx, tt.create)
			require.Error(t, err)
			require.True(t, errors.IsCode(err, errors.ErrCodeInvalidArgument))
		})
	}
}

func TestReportItemIdempotentRecording(t *testing.T) {
	ctx := context.Background()
	st := newFakeStore()
	lost := seedLostItem(t, st)
	svc := newTestService(st, &fakeNotifier{})

	item, matches, err := svc.ReportItem(ctx, &store.Item{
		Kind:        store.ItemKindFound,
		Title:       "blue backpack found",
		Description: "nike backpack, laptop charger inside",
		Location:    "central library",
	})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	firstID := matches[0].ID

	// Re-running the pass converges on the same row.
	again, err := svc.RunPass(ctx, item.UID)
	require.NoError(t, err)
	require.Len(t, again, 1)
	require.Equal(t, firstID, again[0].ID)
	require.Equal(t, lost.ID, again[0].LostItemID)
	require.Len(t, st.matches, 1)
}

func TestReportItemProviderFailureWritesNoMatches(t *testing.T) {
	ctx := context.Background()
	st := newFakeStore()
	seedLostItem(t, st)

	svc := NewService(testProfile(), st, matcher.NewRanker(&failingScorer{}), &fakeNotifier{})

	item, matches, err := svc.ReportItem(ctx, &store.Item{
		Kind:     store.ItemKindFound,
		Title:    "blue backpack found",
		Location: "central library",
	})
	require.Error(t, err)
	require.True(t, errors.IsCode(err, errors.ErrCodeProvider))
	require.Empty(t, matches)
	// The item was stored before the pass, but no match rows exist.
	require.NotNil(t, item)
	require.Empty(t, st.matches)
}

func TestCandidateSetPendingFlag(t *testing.T) {
	ctx := context.Background()
	st := newFakeStore()

	_, err := st.CreateItem(ctx, &store.Item{
		Kind:     store.ItemKindFound,
		Title:    "blue backpack found",
		Location: "central library",
		Status:   store.StatusPending,
	})
	require.NoError(t, err)

	report := &store.Item{
		Kind:        store.ItemKindLost,
		Title:       "blue backpack",
		Description: "",
		Location:    "central library",
	}

	// Pending found items are matchable by default.
	svc := newTestService(st, &fakeNotifier{})
	_, matches, err := svc.ReportItem(ctx, report)
	require.NoError(t, err)
	require.Len(t, matches, 1)

	// With the flag off, only approved found items are candidates.
	p := testProfile()
	p.MatchPending = false
	st2 := newFakeStore()
	_, err = st2.CreateItem(ctx, &store.Item{
		Kind:     store.ItemKindFound,
		Title:    "blue backpack found",
		Location: "central library",
		Status:   store.StatusPending,
	})
	require.NoError(t, err)

	svc2 := NewService(p, st2, matcher.NewRanker(matcher.NewLexicalScorer()), &fakeNotifier{})
	_, matches, err = svc2.ReportItem(ctx, report)
	require.NoError(t, err)
	require.Empty(t, matches)
}

func TestPendingFoundItemExcludedWhenFlagOff(t *testing.T) {
	ctx := context.Background()
	st := newFakeStore()
	seedLostItem(t, st)

	p := testProfile()
	p.MatchPending = false
	n := &fakeNotifier{sent: 1}
	svc := NewService(p, st, matcher.NewRanker(matcher.NewLexicalScorer()), n)

	// Reporting a found item stores it, but the pass skips the pending
	// subject: no match rows exist yet.
	item, matches, err := svc.ReportItem(ctx, &store.Item{
		Kind:        store.ItemKindFound,
		Title:       "blue backpack found",
		Description: "nike backpack, laptop charger inside",
		Location:    "central library",
	})
	require.NoError(t, err)
	require.Equal(t, store.StatusPending, item.Status)
	require.Empty(t, matches)
	require.Empty(t, st.matches)

	// Notifying a pending found item is rejected.
	_, err = svc.NotifyMatches(ctx, item.UID)
	require.Error(t, err)
	require.True(t, errors.IsCode(err, errors.ErrCodeInvalidArgument))
	require.Empty(t, n.notified)

	// Approval makes the item eligible: the pass runs, records the match,
	// and the notifier fires.
	approved, sent, err := svc.ApproveAndNotify(ctx, item.UID, true)
	require.NoError(t, err)
	require.Equal(t, store.StatusApproved, approved.Status)
	require.Len(t, st.matches, 1)
	require.Equal(t, 1, sent)
	require.Equal(t, []int32{item.ID}, n.notified)
}

func TestNotifyMatchesStoreFailureIsPersistence(t *testing.T) {
	ctx := context.Background()
	st := newFakeStore()
	found, err := st.CreateItem(ctx, &store.Item{
		Kind:     store.ItemKindFound,
		Title:    "blue backpack found",
		Location: "central library",
		Status:   store.StatusApproved,
	})
	require.NoError(t, err)

	n := &fakeNotifier{err: pkgerrors.New("list matches failed")}
	svc := newTestService(st, n)

	_, err = svc.NotifyMatches(ctx, found.UID)
	require.Error(t, err)
	// The notifier only surfaces its match-listing read; delivery failures
	// stay isolated per row.
	require.True(t, errors.IsCode(err, errors.ErrCodePersistence))
}

func TestApproveAndNotify(t *testing.T) {
	ctx := context.Background()
	st := newFakeStore()
	found, err := st.CreateItem(ctx, &store.Item{
		Kind:     store.ItemKindFound,
		Title:    "blue backpack found",
		Location: "central library",
	})
	require.NoError(t, err)
	require.Equal(t, store.StatusPending, found.Status)

	n := &fakeNotifier{sent: 2}
	svc := newTestService(st, n)

	item, sent, err := svc.ApproveAndNotify(ctx, found.UID, true)
	require.NoError(t, err)
	require.Equal(t, store.StatusApproved, item.Status)
	require.Equal(t, 2, sent)
	require.Equal(t, []int32{found.ID}, n.notified)
}

func TestApproveWithoutNotify(t *testing.T) {
	ctx := context.Background()
	st := newFakeStore()
	found, err := st.CreateItem(ctx, &store.Item{
		Kind:     store.ItemKindFound,
		Title:    "blue backpack found",
		Location: "central library",
	})
	require.NoError(t, err)

	n := &fakeNotifier{}
	svc := newTestService(st, n)

	item, sent, err := svc.ApproveAndNotify(ctx, found.UID, false)
	require.NoError(t, err)
	require.Equal(t, store.StatusApproved, item.Status)
	require.Zero(t, sent)
	require.Empty(t, n.notified)
}

func TestApproveRejectsLostItems(t *testing.T) {
	ctx := context.Background()
	st := newFakeStore()
	lost := seedLostItem(t, st)
	svc := newTestService(st, &fakeNotifier{})

	_, _, err := svc.ApproveAndNotify(ctx, lost.UID, false)
	require.Error(t, err)
	require.True(t, errors.IsCode(err, errors.ErrCodeInvalidArgument))
}

func TestResolveLostItem(t *testing.T) {
	ctx := context.Background()
	st := newFakeStore()
	lost := seedLostItem(t, st)

	n := &fakeNotifier{}
	svc := newTestService(st, n)

	item, err := svc.ResolveLostItem(ctx, lost.UID)
	require.NoError(t, err)
	require.True(t, item.IsFound)
	// Contact is email-shaped, so the direct confirmation goes out.
	require.Equal(t, []int32{lost.ID}, n.resolutions)
}

func TestResolveLostItemNonEmailContact(t *testing.T) {
	ctx := context.Background()
	st := newFakeStore()
	lost, err := st.CreateItem(ctx, &store.Item{
		Kind:     store.ItemKindLost,
		Title:    "umbrella",
		Location: "station",
		Contact:  "555-0100",
	})
	require.NoError(t, err)

	n := &fakeNotifier{}
	svc := newTestService(st, n)

	item, err := svc.ResolveLostItem(ctx, lost.UID)
	require.NoError(t, err)
	require.True(t, item.IsFound)
	require.Empty(t, n.resolutions)
}

func TestResolveLostItemDeliveryFailureIsNonFatal(t *testing.T) {
	ctx := context.Background()
	st := newFakeStore()
	lost := seedLostItem(t, st)

	n := &fakeNotifier{err: pkgerrors.New("smtp unreachable")}
	svc := newTestService(st, n)

	item, err := svc.ResolveLostItem(ctx, lost.UID)
	require.NoError(t, err)
	require.True(t, item.IsFound)
}

func TestNotifyMatchesUnknownItem(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newFakeStore(), &fakeNotifier{})

	_, err := svc.NotifyMatches(ctx, "missing")
	require.Error(t, err)
	require.True(t, errors.IsCode(err, errors.ErrCodeNotFound))
}

func TestNotifyMatchesRejectsLostSide(t *testing.T) {
	ctx := context.Background()
	st := newFakeStore()
	lost := seedLostItem(t, st)
	svc := newTestService(st, &fakeNotifier{})

	_, err := svc.NotifyMatches(ctx, lost.UID)
	require.Error(t, err)
	require.True(t, errors.IsCode(err, errors.ErrCodeInvalidArgument))
}

func TestListMatchesForItemBothSides(t *testing.T) {
	ctx := context.Background()
	st := newFakeStore()
	lost := seedLostItem(t, st)
	svc := newTestService(st, &fakeNotifier{})

	found, _, err := svc.ReportItem(ctx, &store.Item{
		Kind:        store.ItemKindFound,
		Title:       "blue backpack found",
		Description: "nike backpack, laptop charger inside",
		Location:    "central library",
	})
	require.NoError(t, err)

	fromLost, err := svc.ListMatchesForItem(ctx, lost.UID)
	require.NoError(t, err)
	require.Len(t, fromLost, 1)

	fromFound, err := svc.ListMatchesForItem(ctx, found.UID)
	require.NoError(t, err)
	require.Len(t, fromFound, 1)
	require.Equal(t, fromLost[0].ID, fromFound[0].ID)
}
