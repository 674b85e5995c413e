package notifier

import (
	"fmt"
	"strings"
	"time"

	"github.com/reclaimhq/reclaim/store"
)

// MatchSubject renders the subject line for a match notification.
func MatchSubject(lost *store.Item) string {
	return fmt.Sprintf("Possible match for your lost item: %s", lost.Title)
}

// MatchBody renders the body of a match notification sent to the reporter
// of a lost item after a found item scored against it.
func MatchBody(lost, found *store.Item, score int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Good news! A found item looks like a match for %q.\n\n", lost.Title)
	fmt.Fprintf(&b, "Found item: %s\n", found.Title)
	if found.Location != "" {
		fmt.Fprintf(&b, "Location: %s\n", found.Location)
	}
	if found.ReportedTs > 0 {
		fmt.Fprintf(&b, "Date found: %s\n", time.Unix(found.ReportedTs, 0).Format("2006-01-02"))
	}
	if found.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", found.Description)
	}
	fmt.Fprintf(&b, "Match confidence: %d%%\n\n", score)
	b.WriteString("If this looks like your item, please get in touch to arrange pickup.\n")
	return b.String()
}

// ResolutionSubject renders the subject line for a resolution confirmation.
func ResolutionSubject(lost *store.Item) string {
	return fmt.Sprintf("Your lost item report is closed: %s", lost.Title)
}

// ResolutionBody renders the body of a resolution confirmation sent to the
// reporter of a lost item after it was marked found.
func ResolutionBody(lost *store.Item) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Your lost item report %q has been marked as found and is now closed.\n", lost.Title)
	b.WriteString("No further match notifications will be sent for this report.\n")
	return b.String()
}
