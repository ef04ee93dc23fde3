package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/sakif/taskboard/internal/apperror"
	"github.com/sakif/taskboard/internal/auth"
	"github.com/sakif/taskboard/internal/model"
	"github.com/sakif/taskboard/internal/service"
)

// TaskHandler manages CRUD operations for tasks.
//
// Every route here sits behind auth.RequireAuth, so CurrentUser always
// yields the resolved caller. The owner passed to the service is ALWAYS
// that caller — nothing in a request body can redirect an operation at
// another user's data.
type TaskHandler struct {
	svc    *service.TaskService
	logger *slog.Logger
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(svc *service.TaskService, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{svc: svc, logger: logger}
}

// taskCreateRequest is the POST /tasks/ body. Any "ownerId" key a client
// sends simply has no field to decode into.
type taskCreateRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	DueDate     *time.Time `json:"dueDate"`
}

// HandleCreate saves a new task for the caller.
//
// HTTP: POST /tasks/
// BODY: {"title": "T", "description": "...", "priority": "high", "dueDate": "2026-09-30T12:00:00Z"}
//
// Omitted priority/status default to medium/pending in the service.
func (h *TaskHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	var req taskCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid task JSON", slog.String("error", err.Error()))
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	task, err := h.svc.Create(r.Context(), user.ID, service.TaskCreate{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Status:      req.Status,
		DueDate:     req.DueDate,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

// HandleList returns a page of the caller's tasks.
//
// HTTP: GET /tasks/?skip=0&limit=100
//
// QUERY VALIDATION AT THE BOUNDARY:
// skip ≥ 0 and 1 ≤ limit ≤ 100; anything outside that range (or
// non-numeric) is a 400 here, before the service ever runs.
func (h *TaskHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	skip, limit, err := pageParams(r)
	if err != nil {
		writeError(w, err)
		return
	}

	tasks, err := h.svc.List(r.Context(), user.ID, skip, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tasks)
}

// pageParams parses and range-checks the skip/limit query parameters.
func pageParams(r *http.Request) (skip, limit int, err error) {
	skip, limit = 0, service.DefaultListLimit

	if v := r.URL.Query().Get("skip"); v != "" {
		skip, err = strconv.Atoi(v)
		if err != nil || skip < 0 {
			return 0, 0, apperror.ValidationFailed("skip", "skip must be a non-negative integer")
		}
	}

	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 1 || limit > service.MaxListLimit {
			return 0, 0, apperror.ValidationFailed("limit", "limit must be an integer between 1 and 100")
		}
	}

	return skip, limit, nil
}

// HandleGetByID returns a single task.
//
// HTTP: GET /tasks/{id}
//
// A task belonging to another user 404s exactly like a nonexistent one;
// that translation happened all the way down in the repository, so this
// handler can't leak the difference even by accident.
func (h *TaskHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	task, err := h.svc.GetByID(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

// HandleUpdate applies a partial update.
//
// HTTP: PUT /tasks/{id}
// BODY: any subset of {"title","description","priority","status","dueDate"}
//
// Keys absent from the body keep their stored values — model.TaskUpdate's
// pointer fields stay nil for keys the decoder never saw.
func (h *TaskHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	var upd model.TaskUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		h.logger.Warn("invalid task update JSON", slog.String("error", err.Error()))
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	task, err := h.svc.Update(r.Context(), user.ID, r.PathValue("id"), upd)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

// HandleDelete removes a task.
//
// HTTP: DELETE /tasks/{id}
// RESPONSE: 200 {"message": "task deleted successfully"} — a body rather
// than a bare 204, matching the documented API surface.
func (h *TaskHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	if err := h.svc.Delete(r.Context(), user.ID, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "task deleted successfully"})
}

// HandleListByStatus returns the caller's tasks in a given status.
//
// HTTP: GET /tasks/status/{status}
//
// An unknown status value is a 400 (tagged parse failure from the model),
// not a 404 — the path segment is an enum, not a resource ID.
func (h *TaskHandler) HandleListByStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	tasks, err := h.svc.ListByStatus(r.Context(), user.ID, r.PathValue("status"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tasks)
}

// HandleListByPriority returns the caller's tasks with a given priority.
//
// HTTP: GET /tasks/priority/{priority}
func (h *TaskHandler) HandleListByPriority(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	tasks, err := h.svc.ListByPriority(r.Context(), user.ID, r.PathValue("priority"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tasks)
}
