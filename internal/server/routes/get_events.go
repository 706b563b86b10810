package routes

import (
	"net/http"
	"strconv"

	"github.com/finvista/evograph/internal/server/middleware"
	"github.com/finvista/evograph/pkg/common"
	"github.com/finvista/evograph/pkg/logger"

	"github.com/labstack/echo/v4"
)

// GetEventsHandler returns all events of a corpus in date order.
func GetEventsHandler(c echo.Context) error {
	type getEventsResponse struct {
		Message string         `json:"message,omitempty"`
		Events  []common.Event `json:"events"`
		Count   int            `json:"count"`
	}

	corpusID := c.Param("id")
	if corpusID == "" {
		return c.JSON(http.StatusBadRequest, getEventsResponse{
			Message: "Missing corpus id",
		})
	}

	ctx := c.Request().Context()
	st, err := newStorage(ctx, c.(*middleware.AppContext))
	if err != nil {
		logger.Error("Failed to create storage", "err", err)
		return c.JSON(http.StatusInternalServerError, getEventsResponse{
			Message: "Internal server error",
		})
	}

	events, err := st.GetEvents(ctx, corpusID)
	if err != nil {
		logger.Error("Failed to get events", "corpus", corpusID, "err", err)
		return c.JSON(http.StatusInternalServerError, getEventsResponse{
			Message: "Internal server error",
		})
	}
	if events == nil {
		events = []common.Event{}
	}

	return c.JSON(http.StatusOK, getEventsResponse{
		Events: events,
		Count:  len(events),
	})
}

// GetSimilarEventsHandler finds the events closest to a free-text query by
// embedding distance. Needs a configured AI adapter; without one it returns
// 503 since there is nothing to embed the query with.
func GetSimilarEventsHandler(c echo.Context) error {
	type similarEventsResponse struct {
		Message string         `json:"message,omitempty"`
		Events  []common.Event `json:"events,omitempty"`
	}

	corpusID := c.Param("id")
	if corpusID == "" {
		return c.JSON(http.StatusBadRequest, similarEventsResponse{
			Message: "Missing corpus id",
		})
	}

	query := c.QueryParam("q")
	if query == "" {
		return c.JSON(http.StatusBadRequest, similarEventsResponse{
			Message: "Missing query parameter q",
		})
	}

	topK := 10
	if raw := c.QueryParam("top_k"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 100 {
			return c.JSON(http.StatusBadRequest, similarEventsResponse{
				Message: "top_k must be between 1 and 100",
			})
		}
		topK = parsed
	}

	ctx := c.Request().Context()
	ac := c.(*middleware.AppContext)
	if ac.App.AiClient == nil {
		return c.JSON(http.StatusServiceUnavailable, similarEventsResponse{
			Message: "Similarity search is not available without an AI adapter",
		})
	}

	st, err := newStorage(ctx, ac)
	if err != nil {
		logger.Error("Failed to create storage", "err", err)
		return c.JSON(http.StatusInternalServerError, similarEventsResponse{
			Message: "Internal server error",
		})
	}

	events, err := st.FindSimilarEvents(ctx, corpusID, query, topK)
	if err != nil {
		logger.Error("Failed to search events", "corpus", corpusID, "err", err)
		return c.JSON(http.StatusInternalServerError, similarEventsResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, similarEventsResponse{Events: events})
}
