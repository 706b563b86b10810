package routes

import (
	"errors"
	"net/http"

	"github.com/finvista/evograph/internal/server/middleware"
	"github.com/finvista/evograph/pkg/logger"
	"github.com/finvista/evograph/pkg/store"

	"github.com/labstack/echo/v4"
)

// GetRunsHandler lists the runs of a corpus, newest first.
func GetRunsHandler(c echo.Context) error {
	type getRunsResponse struct {
		Message string       `json:"message,omitempty"`
		Runs    []*store.Run `json:"runs,omitempty"`
	}

	corpusID := c.Param("id")
	if corpusID == "" {
		return c.JSON(http.StatusBadRequest, getRunsResponse{
			Message: "Missing corpus id",
		})
	}

	ctx := c.Request().Context()
	st, err := newStorage(ctx, c.(*middleware.AppContext))
	if err != nil {
		logger.Error("Failed to create storage", "err", err)
		return c.JSON(http.StatusInternalServerError, getRunsResponse{
			Message: "Internal server error",
		})
	}

	runs, err := st.ListRuns(ctx, corpusID)
	if err != nil {
		logger.Error("Failed to list runs", "corpus", corpusID, "err", err)
		return c.JSON(http.StatusInternalServerError, getRunsResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, getRunsResponse{Runs: runs})
}

// GetRunHandler returns a single run by id.
func GetRunHandler(c echo.Context) error {
	type getRunResponse struct {
		Message string     `json:"message,omitempty"`
		Run     *store.Run `json:"run,omitempty"`
	}

	runID := c.Param("run_id")
	if runID == "" {
		return c.JSON(http.StatusBadRequest, getRunResponse{
			Message: "Missing run id",
		})
	}

	ctx := c.Request().Context()
	st, err := newStorage(ctx, c.(*middleware.AppContext))
	if err != nil {
		logger.Error("Failed to create storage", "err", err)
		return c.JSON(http.StatusInternalServerError, getRunResponse{
			Message: "Internal server error",
		})
	}

	run, err := st.GetRun(ctx, runID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, getRunResponse{
				Message: "Run not found",
			})
		}
		logger.Error("Failed to get run", "run", runID, "err", err)
		return c.JSON(http.StatusInternalServerError, getRunResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, getRunResponse{Run: run})
}
