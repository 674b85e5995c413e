// Package v1 exposes the matching engine as a JSON HTTP API.
package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/reclaimhq/reclaim/internal/errors"
	"github.com/reclaimhq/reclaim/internal/profile"
	"github.com/reclaimhq/reclaim/server/service/matching"
)

type APIV1Service struct {
	Profile  *profile.Profile
	Matching *matching.Service
}

func NewAPIV1Service(p *profile.Profile, matchingService *matching.Service) *APIV1Service {
	return &APIV1Service{
		Profile:  p,
		Matching: matchingService,
	}
}

// RegisterRoutes registers the v1 routes on the echo instance.
func (s *APIV1Service) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1")
	g.POST("/items", s.CreateItem)
	g.GET("/items", s.ListItems)
	g.GET("/items/:uid", s.GetItem)
	g.GET("/items/:uid/matches", s.ListItemMatches)
	g.POST("/items/:uid/approve", s.ApproveItem)
	g.POST("/items/:uid/notify", s.NotifyItemMatches)
	g.POST("/items/:uid/resolve", s.ResolveItem)
	g.GET("/metrics", s.GetMetrics)
}

// errorResponse is the uniform error body.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// toHTTPError maps an engine error code to an HTTP response.
func toHTTPError(c echo.Context, err error) error {
	code := errors.GetCodeFromError(err)
	status := http.StatusInternalServerError
	switch code {
	case errors.ErrCodeNotFound:
		status = http.StatusNotFound
	case errors.ErrCodeInvalidArgument:
		status = http.StatusBadRequest
	}

	message := err.Error()
	if code == "" {
		code = "INTERNAL"
	}
	return c.JSON(status, &errorResponse{Code: string(code), Message: message})
}
