package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/ytakahashi/task-reminder/internal/agenda"
	"github.com/ytakahashi/task-reminder/internal/models"
	"github.com/ytakahashi/task-reminder/internal/services"
	"go.uber.org/zap"
)

// ReminderHook is told about every stored change so that server-side
// reminders follow the store.
type ReminderHook interface {
	Refresh(task models.Task)
	Cancel(id string)
}

type TaskHandler struct {
	store    services.TaskStore
	log      *zap.SugaredLogger
	reminder ReminderHook
}

func NewTaskHandler(store services.TaskStore, log *zap.SugaredLogger, reminder ReminderHook) *TaskHandler {
	return &TaskHandler{
		store:    store,
		log:      log,
		reminder: reminder,
	}
}

type errorResponse struct {
	Message string              `json:"message"`
	Errors  []models.FieldError `json:"errors,omitempty"`
}

// Register mounts the task routes on g, which is expected to be /api.
func (h *TaskHandler) Register(g *echo.Group) {
	g.GET("/tasks", h.ListTasks)
	g.GET("/tasks/range/:startDate/:endDate", h.ListTasksInRange)
	g.GET("/tasks/:id", h.GetTask)
	g.POST("/tasks", h.CreateTask)
	g.PATCH("/tasks/:id", h.UpdateTask)
	g.DELETE("/tasks/:id", h.DeleteTask)
}

func (h *TaskHandler) ListTasks(c echo.Context) error {
	tasks, err := h.store.List(c.Request().Context())
	if err != nil {
		return h.internalError(c, "Failed to fetch tasks", err)
	}
	return c.JSON(http.StatusOK, tasks)
}

func (h *TaskHandler) GetTask(c echo.Context) error {
	task, ok, err := h.store.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.internalError(c, "Failed to fetch task", err)
	}
	if !ok {
		return notFound(c)
	}
	return c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) CreateTask(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return h.internalError(c, "Failed to create task", err)
	}

	in, err := parseCreateRequest(body)
	if err != nil {
		return invalid(c, "Invalid task data", err)
	}

	task, err := h.store.Create(c.Request().Context(), in)
	if err != nil {
		return h.internalError(c, "Failed to create task", err)
	}

	h.log.Infow("task created", "id", task.ID, "scheduledTime", task.ScheduledTime)
	if h.reminder != nil {
		h.reminder.Refresh(task)
	}
	return c.JSON(http.StatusCreated, task)
}

func (h *TaskHandler) UpdateTask(c echo.Context) error {
	var patch models.TaskPatch
	if err := json.NewDecoder(c.Request().Body).Decode(&patch); err != nil && !errors.Is(err, io.EOF) {
		return invalid(c, "Invalid task data", &models.ValidationError{
			Errors: []models.FieldError{{Field: "body", Message: err.Error()}},
		})
	}
	if err := models.ValidatePatch(patch); err != nil {
		return invalid(c, "Invalid task data", err)
	}

	// Nothing to write; answer with the stored task.
	if patch.IsEmpty() {
		return h.GetTask(c)
	}

	task, ok, err := h.store.Update(c.Request().Context(), c.Param("id"), patch)
	if err != nil {
		return h.internalError(c, "Failed to update task", err)
	}
	if !ok {
		return notFound(c)
	}

	if h.reminder != nil {
		h.reminder.Refresh(task)
	}
	return c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) DeleteTask(c echo.Context) error {
	id := c.Param("id")
	deleted, err := h.store.Delete(c.Request().Context(), id)
	if err != nil {
		return h.internalError(c, "Failed to delete task", err)
	}
	if !deleted {
		return notFound(c)
	}

	h.log.Infow("task deleted", "id", id)
	if h.reminder != nil {
		h.reminder.Cancel(id)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *TaskHandler) ListTasksInRange(c echo.Context) error {
	start, errStart := agenda.ParseDate(c.Param("startDate"))
	end, errEnd := agenda.ParseDate(c.Param("endDate"))
	if errStart != nil || errEnd != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "Invalid date format"})
	}

	tasks, err := h.store.ListInRange(c.Request().Context(), start, end)
	if err != nil {
		return h.internalError(c, "Failed to fetch tasks by date range", err)
	}
	return c.JSON(http.StatusOK, tasks)
}

func notFound(c echo.Context) error {
	return c.JSON(http.StatusNotFound, errorResponse{Message: "Task not found"})
}

func invalid(c echo.Context, message string, err error) error {
	resp := errorResponse{Message: message}
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		resp.Errors = verr.Errors
	}
	return c.JSON(http.StatusBadRequest, resp)
}

func (h *TaskHandler) internalError(c echo.Context, message string, err error) error {
	h.log.Errorw(message, "error", err, "path", c.Path())
	return c.JSON(http.StatusInternalServerError, errorResponse{Message: message})
}
