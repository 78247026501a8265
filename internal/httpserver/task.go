package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"

	"github.com/taskhub/taskhub/internal/logging"
	"github.com/taskhub/taskhub/internal/middleware"
	"github.com/taskhub/taskhub/internal/models"
	"github.com/taskhub/taskhub/internal/repo"
	"github.com/taskhub/taskhub/internal/service/search"
)

type TaskHTTP struct {
	Repo *repo.GormRepo

	// ES is optional; without it /task/search is disabled and tasks are not
	// mirrored into the index.
	ES *elasticsearch.Client
}

type taskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Done        *bool  `json:"done"`
	CategoryID  *uint  `json:"category_id"`
}

func (h *TaskHTTP) List(c echo.Context) error {
	userID, ok := middleware.AccountID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
	}

	tasks, err := h.Repo.TasksByUser(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
	return c.JSON(http.StatusOK, tasks)
}

func (h *TaskHTTP) Get(c echo.Context) error {
	userID, ok := middleware.AccountID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
	}
	taskID, err := pathID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	task, err := h.Repo.TaskByID(c.Request().Context(), userID, taskID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "task not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
	return c.JSON(http.StatusOK, task)
}

func (h *TaskHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := middleware.AccountID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
	}

	var req taskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title is required")
	}

	task := &models.Task{
		Title:       req.Title,
		Description: req.Description,
		UserID:      userID,
		CategoryID:  req.CategoryID,
	}
	if err := h.Repo.CreateTask(ctx, task); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	h.index(c, task)
	return c.JSON(http.StatusCreated, task)
}

func (h *TaskHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := middleware.AccountID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
	}
	taskID, err := pathID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	task, err := h.Repo.TaskByID(ctx, userID, taskID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "task not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	var req taskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Title != "" {
		task.Title = req.Title
	}
	if req.Description != "" {
		task.Description = req.Description
	}
	if req.Done != nil {
		task.Done = *req.Done
	}
	if req.CategoryID != nil {
		task.CategoryID = req.CategoryID
	}

	if err := h.Repo.UpdateTask(ctx, task); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	h.index(c, task)
	return c.JSON(http.StatusOK, task)
}

func (h *TaskHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := middleware.AccountID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
	}
	taskID, err := pathID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := h.Repo.DeleteTask(ctx, userID, taskID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "task not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	if h.ES != nil {
		if err := search.DeleteTask(ctx, h.ES, taskID); err != nil {
			logging.FromContext(ctx).Warn("search deindex failed", "task_id", taskID, "error", err)
		}
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *TaskHTTP) Search(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := middleware.AccountID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
	}
	if h.ES == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "search is not configured")
	}

	query := c.QueryParam("q")
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "q is required")
	}
	from, size := pagination(c)

	total, tasks, err := search.Tasks(ctx, h.ES, userID, query, from, size)
	if err != nil {
		logging.FromContext(ctx).Error("task search failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"total": total,
		"tasks": tasks,
	})
}

func (h *TaskHTTP) index(c echo.Context, task *models.Task) {
	if h.ES == nil {
		return
	}
	ctx := c.Request().Context()
	if err := search.IndexTask(ctx, h.ES, task); err != nil {
		logging.FromContext(ctx).Warn("search index failed", "task_id", task.ID, "error", err)
	}
}

func pathID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

func pagination(c echo.Context) (from, size int) {
	from, _ = strconv.Atoi(c.QueryParam("from"))
	size, _ = strconv.Atoi(c.QueryParam("size"))
	if from < 0 {
		from = 0
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return from, size
}
