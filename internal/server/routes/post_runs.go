package routes

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/finvista/evograph/internal/queue"
	"github.com/finvista/evograph/internal/server/middleware"
	"github.com/finvista/evograph/internal/timing"
	"github.com/finvista/evograph/internal/util"
	"github.com/finvista/evograph/pkg/logger"
	"github.com/finvista/evograph/pkg/store"

	"github.com/labstack/echo/v4"
)

// CreateRunHandler schedules a link computation run for a corpus. Full runs
// rescore every pair and replace the corpus link set on commit; incremental
// runs score only the pairs involving the given new event IDs and append.
// The run is queued, not executed inline; poll the run endpoints or listen
// on the pubsub exchange for completion.
func CreateRunHandler(c echo.Context) error {
	type createRunBody struct {
		Kind        string   `json:"kind" validate:"required,oneof=full incremental"`
		NewEventIDs []string `json:"new_event_ids"`
	}

	type createRunResponse struct {
		Message     string     `json:"message"`
		Run         *store.Run `json:"run,omitempty"`
		EstimatedMs int64      `json:"estimated_ms,omitempty"`
	}

	corpusID := c.Param("id")
	if corpusID == "" {
		return c.JSON(http.StatusBadRequest, createRunResponse{
			Message: "Missing corpus id",
		})
	}

	data := new(createRunBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, createRunResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, createRunResponse{
			Message: "Invalid request body",
		})
	}
	if data.Kind == store.RunKindIncremental && len(data.NewEventIDs) == 0 {
		return c.JSON(http.StatusBadRequest, createRunResponse{
			Message: "Incremental runs need new_event_ids",
		})
	}

	ctx := c.Request().Context()
	ac := c.(*middleware.AppContext)
	st, err := newStorage(ctx, ac)
	if err != nil {
		logger.Error("Failed to create storage", "err", err)
		return c.JSON(http.StatusInternalServerError, createRunResponse{
			Message: "Internal server error",
		})
	}

	eventCount, err := st.CountEvents(ctx, corpusID)
	if err != nil {
		logger.Error("Failed to count events", "corpus", corpusID, "err", err)
		return c.JSON(http.StatusInternalServerError, createRunResponse{
			Message: "Internal server error",
		})
	}
	if eventCount == 0 {
		return c.JSON(http.StatusBadRequest, createRunResponse{
			Message: "Corpus has no events",
		})
	}

	if data.Kind == store.RunKindIncremental {
		if _, err := st.GetEventsByIDs(ctx, corpusID, data.NewEventIDs); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return c.JSON(http.StatusBadRequest, createRunResponse{
					Message: "Unknown event ids; ingest the batch first",
				})
			}
			logger.Error("Failed to resolve new events", "corpus", corpusID, "err", err)
			return c.JSON(http.StatusInternalServerError, createRunResponse{
				Message: "Internal server error",
			})
		}
	}

	runID, err := util.NewRunID()
	if err != nil {
		logger.Error("Failed to generate run id", "err", err)
		return c.JSON(http.StatusInternalServerError, createRunResponse{
			Message: "Internal server error",
		})
	}

	run := &store.Run{
		ID:       runID,
		CorpusID: corpusID,
		Kind:     data.Kind,
		Status:   store.RunStatusPending,
	}
	if err := st.CreateRun(ctx, run); err != nil {
		logger.Error("Failed to create run", "run", runID, "err", err)
		return c.JSON(http.StatusInternalServerError, createRunResponse{
			Message: "Internal server error",
		})
	}

	correlationID, err := util.NewCorrelationID()
	if err != nil {
		logger.Error("Failed to generate correlation id", "err", err)
		return c.JSON(http.StatusInternalServerError, createRunResponse{
			Message: "Internal server error",
		})
	}

	msg := queue.QueueRunMsg{
		Message:       "Compute evolution links",
		RunID:         runID,
		CorpusID:      corpusID,
		Kind:          data.Kind,
		NewEventIDs:   data.NewEventIDs,
		CorrelationID: correlationID,
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		logger.Error("Failed to marshal run message", "run", runID, "err", err)
		return c.JSON(http.StatusInternalServerError, createRunResponse{
			Message: "Internal server error",
		})
	}

	targetQueue := queue.RunQueue
	if data.Kind == store.RunKindIncremental {
		targetQueue = queue.IncrementalQueue
	}
	if err := queue.PublishFIFO(ac.App.Queue, targetQueue, payload); err != nil {
		logger.Error("Failed to publish run message", "run", runID, "err", err)
		if markErr := st.MarkRunFailed(ctx, runID, "could not enqueue run"); markErr != nil {
			logger.Error("Failed to mark run failed", "run", runID, "err", markErr)
		}
		return c.JSON(http.StatusInternalServerError, createRunResponse{
			Message: "Internal server error",
		})
	}

	estimate, err := timing.PredictRunDuration(ctx, ac.App.DBConn, data.Kind, eventCount)
	if err != nil {
		logger.Warn("Failed to predict run duration", "run", runID, "err", err)
		estimate = 0
	}

	getRun, err := st.GetRun(ctx, runID)
	if err != nil {
		getRun = run
	}

	return c.JSON(http.StatusAccepted, createRunResponse{
		Message:     "Run queued",
		Run:         getRun,
		EstimatedMs: estimate,
	})
}
