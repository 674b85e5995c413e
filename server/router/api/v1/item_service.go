package v1

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/reclaimhq/reclaim/internal/errors"
	"github.com/reclaimhq/reclaim/server/internal/observability"
	"github.com/reclaimhq/reclaim/store"
)

// CreateItemRequest is the report payload.
type CreateItemRequest struct {
	Kind         string `json:"kind"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Location     string `json:"location"`
	ReportedDate string `json:"reportedDate"`
	Contact      string `json:"contact"`
	Anonymous    bool   `json:"anonymous"`
}

// Item is the JSON representation of a stored item.
type Item struct {
	UID          string `json:"uid"`
	Kind         string `json:"kind"`
	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	Location     string `json:"location"`
	ReportedDate string `json:"reportedDate,omitempty"`
	Contact      string `json:"contact,omitempty"`
	Anonymous    bool   `json:"anonymous"`
	Status       string `json:"status"`
	IsFound      bool   `json:"isFound"`
	CreatedTs    int64  `json:"createdTs"`
}

// Match is the JSON representation of a recorded match.
type Match struct {
	ID          int32 `json:"id"`
	LostItemID  int32 `json:"lostItemId"`
	FoundItemID int32 `json:"foundItemId"`
	Score       int   `json:"score"`
	Notified    bool  `json:"notified"`
}

// CreateItemResponse is the report response: the stored item plus the
// matches the triggered pass recorded.
type CreateItemResponse struct {
	Item    *Item    `json:"item"`
	Matches []*Match `json:"matches"`
}

// NotifyResponse reports how many notifications a call delivered.
type NotifyResponse struct {
	Notified int `json:"notified"`
}

// CreateItem reports a lost or found item and triggers a matching pass.
func (s *APIV1Service) CreateItem(c echo.Context) error {
	request := &CreateItemRequest{}
	if err := c.Bind(request); err != nil {
		return toHTTPError(c, errors.InvalidArgument("malformed request body"))
	}

	create := &store.Item{
		Kind:        store.ItemKind(request.Kind),
		Title:       request.Title,
		Description: request.Description,
		Location:    request.Location,
		Contact:     request.Contact,
		IsAnonymous: request.Anonymous,
	}
	if request.ReportedDate != "" {
		reported, err := time.Parse("2006-01-02", request.ReportedDate)
		if err != nil {
			return toHTTPError(c, errors.InvalidArgument("reportedDate must be YYYY-MM-DD"))
		}
		create.ReportedTs = reported.Unix()
	}

	item, matches, err := s.Matching.ReportItem(c.Request().Context(), create)
	if err != nil {
		return toHTTPError(c, err)
	}

	return c.JSON(http.StatusOK, &CreateItemResponse{
		Item:    convertItem(item),
		Matches: convertMatches(matches),
	})
}

// ListItems lists stored items, optionally filtered by kind.
func (s *APIV1Service) ListItems(c echo.Context) error {
	find := &store.FindItem{}
	if kind := c.QueryParam("kind"); kind != "" {
		itemKind := store.ItemKind(kind)
		if itemKind != store.ItemKindLost && itemKind != store.ItemKindFound {
			return toHTTPError(c, errors.InvalidArgument("kind must be LOST or FOUND"))
		}
		find.Kind = &itemKind
	}
	if limit := c.QueryParam("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			return toHTTPError(c, errors.InvalidArgument("limit must be a non-negative integer"))
		}
		find.Limit = &n
	}

	items, err := s.Matching.ListItems(c.Request().Context(), find)
	if err != nil {
		return toHTTPError(c, err)
	}

	response := make([]*Item, 0, len(items))
	for _, item := range items {
		response = append(response, convertItem(item))
	}
	return c.JSON(http.StatusOK, response)
}

// GetItem returns a single item by UID.
func (s *APIV1Service) GetItem(c echo.Context) error {
	item, err := s.Matching.GetItem(c.Request().Context(), c.Param("uid"))
	if err != nil {
		return toHTTPError(c, err)
	}
	return c.JSON(http.StatusOK, convertItem(item))
}

// ListItemMatches returns the recorded matches of an item. An empty list
// is a successful response.
func (s *APIV1Service) ListItemMatches(c echo.Context) error {
	matches, err := s.Matching.ListMatchesForItem(c.Request().Context(), c.Param("uid"))
	if err != nil {
		return toHTTPError(c, err)
	}
	return c.JSON(http.StatusOK, convertMatches(matches))
}

// ApproveItem approves a found item, optionally notifying its matches.
func (s *APIV1Service) ApproveItem(c echo.Context) error {
	notify := c.QueryParam("notify") == "true"
	item, sent, err := s.Matching.ApproveAndNotify(c.Request().Context(), c.Param("uid"), notify)
	if err != nil {
		return toHTTPError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"item":     convertItem(item),
		"notified": sent,
	})
}

// NotifyItemMatches notifies the recorded matches of a found item.
func (s *APIV1Service) NotifyItemMatches(c echo.Context) error {
	sent, err := s.Matching.NotifyMatches(c.Request().Context(), c.Param("uid"))
	if err != nil {
		return toHTTPError(c, err)
	}
	return c.JSON(http.StatusOK, &NotifyResponse{Notified: sent})
}

// ResolveItem marks a lost item as found.
func (s *APIV1Service) ResolveItem(c echo.Context) error {
	item, err := s.Matching.ResolveLostItem(c.Request().Context(), c.Param("uid"))
	if err != nil {
		return toHTTPError(c, err)
	}
	return c.JSON(http.StatusOK, convertItem(item))
}

// GetMetrics returns a snapshot of the pipeline counters.
func (s *APIV1Service) GetMetrics(c echo.Context) error {
	snapshot := observability.GlobalMetrics().Snapshot()
	return c.JSON(http.StatusOK, map[string]any{
		"rankPassTotal":     snapshot.RankPassTotal,
		"rankPassFailed":    snapshot.RankPassFailed,
		"matchesRecorded":   snapshot.MatchesRecorded,
		"notificationsSent": snapshot.NotificationsSent,
		"notifySkipped":     snapshot.NotifySkipped,
		"notifyFailed":      snapshot.NotifyFailed,
		"providerFailed":    snapshot.ProviderFailed,
		"successRate":       snapshot.SuccessRate(),
	})
}

func convertItem(item *store.Item) *Item {
	converted := &Item{
		UID:         item.UID,
		Kind:        string(item.Kind),
		Title:       item.Title,
		Description: item.Description,
		Location:    item.Location,
		Anonymous:   item.IsAnonymous,
		Status:      string(item.Status),
		IsFound:     item.IsFound,
		CreatedTs:   item.CreatedTs,
	}
	if item.ReportedTs > 0 {
		converted.ReportedDate = time.Unix(item.ReportedTs, 0).Format("2006-01-02")
	}
	// Anonymous reporters never expose their contact.
	if !item.IsAnonymous {
		converted.Contact = item.Contact
	}
	return converted
}

func convertMatches(matches []*store.Match) []*Match {
	converted := make([]*Match, 0, len(matches))
	for _, match := range matches {
		converted = append(converted, &Match{
			ID:          match.ID,
			LostItemID:  match.LostItemID,
			FoundItemID: match.FoundItemID,
			Score:       match.Score,
			Notified:    match.Notified,
		})
	}
	return converted
}
