package notifier

import (
	"context"
	"log/slog"
	"strings"

	"github.com/reclaimhq/reclaim/server/internal/observability"
	"github.com/reclaimhq/reclaim/store"
)

// MatchStore is the subset of the store the notifier reads and writes.
type MatchStore interface {
	ListMatches(ctx context.Context, find *store.FindMatch) ([]*store.Match, error)
	MarkMatchNotified(ctx context.Context, id int32) (bool, error)
	GetItem(ctx context.Context, find *store.FindItem) (*store.Item, error)
}

// Notifier sends match notifications to lost item reporters. A match is
// notified at most once: after a successful delivery the notified flag is
// flipped with a conditional write, so a repeated invocation cannot send
// the same row twice. A failed delivery leaves the flag unset and the row
// eligible; retry happens by re-invocation.
type Notifier struct {
	store     MatchStore
	sender    Sender
	threshold int
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// New creates a notifier delivering through the given sender. Only matches
// at or above threshold are notified.
func New(matchStore MatchStore, sender Sender, threshold int) *Notifier {
	return &Notifier{
		store:     matchStore,
		sender:    sender,
		threshold: threshold,
		metrics:   observability.GlobalMetrics(),
		logger:    slog.Default(),
	}
}

// NotifyMatches notifies lost item reporters about unnotified matches of
// one found item. Rows fail independently: a skipped or failed row never
// blocks the remaining ones. Returns how many notifications were delivered.
func (n *Notifier) NotifyMatches(ctx context.Context, found *store.Item) (int, error) {
	notified := false
	matches, err := n.store.ListMatches(ctx, &store.FindMatch{
		FoundItemID: &found.ID,
		Notified:    &notified,
		MinScore:    &n.threshold,
	})
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, match := range matches {
		if n.notifyOne(ctx, match, found) {
			sent++
		}
	}
	return sent, nil
}

func (n *Notifier) notifyOne(ctx context.Context, match *store.Match, found *store.Item) bool {
	logger := n.logger.With(
		"match_id", match.ID,
		"lost_item_id", match.LostItemID,
		"found_item_id", match.FoundItemID,
		observability.LogFieldScore, match.Score,
	)

	lost, err := n.store.GetItem(ctx, &store.FindItem{ID: &match.LostItemID})
	if err != nil {
		logger.Error("failed to load lost item for notification", "error", err)
		return false
	}
	if lost == nil || lost.IsFound {
		return false
	}

	if !Contactable(lost) {
		n.metrics.RecordNotificationSkipped()
		logger.Debug("skipping notification, reporter not contactable")
		return false
	}

	subject := MatchSubject(lost)
	body := MatchBody(lost, found, match.Score)
	if err := n.sender.Send(ctx, lost.Contact, subject, body); err != nil {
		n.metrics.RecordNotificationFailure()
		logger.Error("notification delivery failed, row stays eligible", "sender", n.sender.Name(), "error", err)
		return false
	}

	flipped, err := n.store.MarkMatchNotified(ctx, match.ID)
	if err != nil {
		logger.Error("failed to mark match notified", "error", err)
		return false
	}
	if !flipped {
		// A concurrent invocation won the flag flip for this row.
		logger.Warn("match already marked notified")
		return false
	}

	n.metrics.RecordNotificationSent()
	logger.Info("match notification sent", "sender", n.sender.Name())
	return true
}

// NotifyResolution sends a closing confirmation to the reporter of a
// resolved lost item. Best-effort: callers treat a failure as non-fatal.
func (n *Notifier) NotifyResolution(ctx context.Context, lost *store.Item) error {
	if !Contactable(lost) {
		n.metrics.RecordNotificationSkipped()
		return nil
	}

	if err := n.sender.Send(ctx, lost.Contact, ResolutionSubject(lost), ResolutionBody(lost)); err != nil {
		n.metrics.RecordNotificationFailure()
		return err
	}
	n.metrics.RecordNotificationSent()
	return nil
}

// Contactable reports whether an item's reporter can receive notifications:
// a contact address is present and the reporter did not ask to stay
// anonymous.
func Contactable(item *store.Item) bool {
	return strings.TrimSpace(item.Contact) != "" && !item.IsAnonymous
}
