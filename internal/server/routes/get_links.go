package routes

import (
	"net/http"
	"strconv"

	"github.com/finvista/evograph/internal/server/middleware"
	"github.com/finvista/evograph/pkg/common"
	"github.com/finvista/evograph/pkg/logger"
	"github.com/finvista/evograph/pkg/store"

	"github.com/labstack/echo/v4"
)

// GetLinksHandler returns the committed evolution links of a corpus.
// Supported query parameters: min_score, entity, from, to, limit.
func GetLinksHandler(c echo.Context) error {
	type getLinksResponse struct {
		Message string                 `json:"message,omitempty"`
		Links   []common.EvolutionLink `json:"links"`
		Count   int                    `json:"count"`
	}

	corpusID := c.Param("id")
	if corpusID == "" {
		return c.JSON(http.StatusBadRequest, getLinksResponse{
			Message: "Missing corpus id",
		})
	}

	filter := store.LinkFilter{
		Entity: c.QueryParam("entity"),
		FromID: c.QueryParam("from"),
		ToID:   c.QueryParam("to"),
	}
	if raw := c.QueryParam("min_score"); raw != "" {
		minScore, err := strconv.ParseFloat(raw, 64)
		if err != nil || minScore < 0 || minScore > 1 {
			return c.JSON(http.StatusBadRequest, getLinksResponse{
				Message: "min_score must be a number between 0 and 1",
			})
		}
		filter.MinScore = &minScore
	}
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return c.JSON(http.StatusBadRequest, getLinksResponse{
				Message: "limit must be a non-negative integer",
			})
		}
		filter.Limit = limit
	}

	ctx := c.Request().Context()
	st, err := newStorage(ctx, c.(*middleware.AppContext))
	if err != nil {
		logger.Error("Failed to create storage", "err", err)
		return c.JSON(http.StatusInternalServerError, getLinksResponse{
			Message: "Internal server error",
		})
	}

	links, err := st.GetLinks(ctx, corpusID, filter)
	if err != nil {
		logger.Error("Failed to get links", "corpus", corpusID, "err", err)
		return c.JSON(http.StatusInternalServerError, getLinksResponse{
			Message: "Internal server error",
		})
	}
	if links == nil {
		links = []common.EvolutionLink{}
	}

	return c.JSON(http.StatusOK, getLinksResponse{
		Links: links,
		Count: len(links),
	})
}
