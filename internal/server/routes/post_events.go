package routes

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/finvista/evograph/internal/server/middleware"
	"github.com/finvista/evograph/pkg/common"
	"github.com/finvista/evograph/pkg/loader"
	"github.com/finvista/evograph/pkg/logger"

	"github.com/labstack/echo/v4"
)

// IngestEventsHandler uploads a batch of events into a corpus. The payload
// is a JSON array by default; a text/csv content type switches to the CSV
// loader. Existing event IDs are upserted.
func IngestEventsHandler(c echo.Context) error {
	type ingestEventsResponse struct {
		Message  string   `json:"message"`
		Ingested int      `json:"ingested,omitempty"`
		EventIDs []string `json:"event_ids,omitempty"`
	}

	corpusID := c.Param("id")
	if corpusID == "" {
		return c.JSON(http.StatusBadRequest, ingestEventsResponse{
			Message: "Missing corpus id",
		})
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil || len(body) == 0 {
		return c.JSON(http.StatusBadRequest, ingestEventsResponse{
			Message: "Invalid request body",
		})
	}

	var events []common.Event
	contentType := c.Request().Header.Get(echo.HeaderContentType)
	if strings.Contains(contentType, "csv") {
		events, err = loader.ParseEventsCSV(body)
	} else {
		events, err = loader.ParseEventsJSON(body)
	}
	if err != nil {
		if errors.Is(err, loader.ErrMalformedEvent) {
			return c.JSON(http.StatusBadRequest, ingestEventsResponse{
				Message: err.Error(),
			})
		}
		return c.JSON(http.StatusBadRequest, ingestEventsResponse{
			Message: "Could not parse events",
		})
	}

	ctx := c.Request().Context()
	ac := c.(*middleware.AppContext)
	st, err := newStorage(ctx, ac)
	if err != nil {
		logger.Error("Failed to create storage", "err", err)
		return c.JSON(http.StatusInternalServerError, ingestEventsResponse{
			Message: "Internal server error",
		})
	}

	if err := st.SaveEvents(ctx, corpusID, events); err != nil {
		logger.Error("Failed to save events", "corpus", corpusID, "err", err)
		return c.JSON(http.StatusInternalServerError, ingestEventsResponse{
			Message: "Internal server error",
		})
	}

	ids := make([]string, len(events))
	for i, ev := range events {
		ids[i] = ev.ID
	}

	return c.JSON(http.StatusCreated, ingestEventsResponse{
		Message:  "Events ingested",
		Ingested: len(events),
		EventIDs: ids,
	})
}
