package routes

import (
	"encoding/json"
	"net/http"

	"github.com/finvista/evograph/internal/queue"
	"github.com/finvista/evograph/internal/server/middleware"
	"github.com/finvista/evograph/internal/util"
	"github.com/finvista/evograph/pkg/logger"

	"github.com/labstack/echo/v4"
)

// DeleteCorpusHandler removes a corpus with all of its runs and links. The
// delete runs on the worker behind the corpus lease so it cannot race an
// in-flight computation; the API only enqueues.
func DeleteCorpusHandler(c echo.Context) error {
	type deleteCorpusResponse struct {
		Message string `json:"message"`
	}

	corpusID := c.Param("id")
	if corpusID == "" {
		return c.JSON(http.StatusBadRequest, deleteCorpusResponse{
			Message: "Missing corpus id",
		})
	}

	correlationID, err := util.NewCorrelationID()
	if err != nil {
		logger.Error("Failed to generate correlation id", "err", err)
		return c.JSON(http.StatusInternalServerError, deleteCorpusResponse{
			Message: "Internal server error",
		})
	}

	msg := queue.QueueDeleteMsg{
		Message:       "Delete corpus",
		CorpusID:      corpusID,
		CorrelationID: correlationID,
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		logger.Error("Failed to marshal delete message", "corpus", corpusID, "err", err)
		return c.JSON(http.StatusInternalServerError, deleteCorpusResponse{
			Message: "Internal server error",
		})
	}

	ac := c.(*middleware.AppContext)
	if err := queue.PublishFIFO(ac.App.Queue, queue.DeleteQueue, payload); err != nil {
		logger.Error("Failed to publish delete message", "corpus", corpusID, "err", err)
		return c.JSON(http.StatusInternalServerError, deleteCorpusResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusAccepted, deleteCorpusResponse{
		Message: "Corpus deletion queued",
	})
}
