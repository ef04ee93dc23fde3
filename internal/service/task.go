// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// Handlers only know about HTTP (status codes, headers, JSON). Services only
// know about business rules (validation, defaults, ownership). Neither knows
// SQL. The service receives repository INTERFACES, not concrete types —
// tests pass a fake repository, main passes the sqlite one.
//
// OWNERSHIP IS PART OF EVERY SIGNATURE:
// Every TaskService method takes the resolved caller's user ID as its first
// domain argument. There is no method that touches a task without one. The
// caller ID always comes from the authenticated request context — never from
// the request body, which is how a client could otherwise write into someone
// else's account.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/taskboard/internal/apperror"
	"github.com/sakif/taskboard/internal/model"
	"github.com/sakif/taskboard/internal/repository"
)

// Validation constants.
const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 10000
	DefaultListLimit     = 100
	MaxListLimit         = 100
)

// TaskService handles business logic for tasks.
type TaskService struct {
	repo   repository.TaskRepository
	logger *slog.Logger
}

// NewTaskService creates a TaskService.
func NewTaskService(repo repository.TaskRepository, logger *slog.Logger) *TaskService {
	return &TaskService{
		repo:   repo,
		logger: logger,
	}
}

// TaskCreate carries the client-supplied fields for a new task. Priority and
// Status arrive as raw strings ("" means "use the default") and are parsed
// against the closed enums here — the handler never interprets them.
//
// There is intentionally no owner field: whatever owner a client tries to
// smuggle into the request body has nowhere to land.
type TaskCreate struct {
	Title       string
	Description string
	Priority    string
	Status      string
	DueDate     *time.Time
}

// Create validates and saves a new task for the given owner.
//
// Defaults per the API contract: priority "medium", status "pending".
// The ownerID is the resolved caller — the binding happens here, once,
// and the repository stores it immutably.
func (s *TaskService) Create(ctx context.Context, ownerID string, in TaskCreate) (*model.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "task title is required")
	}
	if len(title) > MaxTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("task title must be %d characters or less", MaxTitleLength))
	}
	if len(in.Description) > MaxDescriptionLength {
		return nil, apperror.ValidationFailed("description",
			fmt.Sprintf("description must be %d characters or less", MaxDescriptionLength))
	}

	priority := model.PriorityMedium
	if in.Priority != "" {
		p, err := model.ParsePriority(in.Priority)
		if err != nil {
			return nil, err
		}
		priority = p
	}

	status := model.StatusPending
	if in.Status != "" {
		st, err := model.ParseStatus(in.Status)
		if err != nil {
			return nil, err
		}
		status = st
	}

	task := &model.Task{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Priority:    priority,
		Status:      status,
		DueDate:     in.DueDate,
		OwnerID:     ownerID,
	}

	if err := s.repo.Create(ctx, task); err != nil {
		s.logger.Error("failed to create task",
			slog.String("ownerID", ownerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating task: %w", err)
	}

	s.logger.Info("task created",
		slog.String("id", task.ID),
		slog.String("ownerID", ownerID),
	)

	return task, nil
}

// GetByID retrieves one of the owner's tasks.
// A task that is missing and a task that belongs to someone else produce
// the same NotFound — the repository enforces that, this layer passes it on.
func (s *TaskService) GetByID(ctx context.Context, ownerID, id string) (*model.Task, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "task ID is required")
	}

	return s.repo.GetByID(ctx, ownerID, id)
}

// List retrieves a page of the owner's tasks.
//
// The HTTP boundary validates skip/limit ranges and rejects bad values with
// a 400; the clamp here is only a backstop for non-HTTP callers.
func (s *TaskService) List(ctx context.Context, ownerID string, offset, limit int) ([]model.Task, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	tasks, err := s.repo.List(ctx, ownerID, repository.ListOptions{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		s.logger.Error("failed to list tasks",
			slog.String("ownerID", ownerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing tasks: %w", err)
	}

	return tasks, nil
}

// ListByStatus retrieves the owner's tasks in the given status.
// The raw value is parsed against the closed enum; unknown values are a
// validation failure the handler maps to 400.
func (s *TaskService) ListByStatus(ctx context.Context, ownerID, rawStatus string) ([]model.Task, error) {
	status, err := model.ParseStatus(rawStatus)
	if err != nil {
		return nil, err
	}

	tasks, err := s.repo.ListByStatus(ctx, ownerID, status)
	if err != nil {
		return nil, fmt.Errorf("listing tasks by status: %w", err)
	}
	return tasks, nil
}

// ListByPriority retrieves the owner's tasks with the given priority.
func (s *TaskService) ListByPriority(ctx context.Context, ownerID, rawPriority string) ([]model.Task, error) {
	priority, err := model.ParsePriority(rawPriority)
	if err != nil {
		return nil, err
	}

	tasks, err := s.repo.ListByPriority(ctx, ownerID, priority)
	if err != nil {
		return nil, fmt.Errorf("listing tasks by priority: %w", err)
	}
	return tasks, nil
}

// Update applies a partial update to one of the owner's tasks.
//
// STRATEGY: "Fetch then update"
//  1. Fetch the existing task (owner-scoped — NotFound covers both missing
//     and not-owned)
//  2. Apply ONLY the fields present in the update; nil pointers mean the
//     client didn't send the key, so the prior value stays
//  3. Save the merged row (again owner-scoped)
//
// Concurrent updates to the same task are last-writer-wins at the row
// level; no optimistic locking is layered on top.
func (s *TaskService) Update(ctx context.Context, ownerID, id string, upd model.TaskUpdate) (*model.Task, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "task ID is required")
	}

	task, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if upd.Title != nil {
		title := strings.TrimSpace(*upd.Title)
		if title == "" {
			return nil, apperror.ValidationFailed("title", "task title must not be empty")
		}
		if len(title) > MaxTitleLength {
			return nil, apperror.ValidationFailed("title",
				fmt.Sprintf("task title must be %d characters or less", MaxTitleLength))
		}
		task.Title = title
	}

	if upd.Description != nil {
		if len(*upd.Description) > MaxDescriptionLength {
			return nil, apperror.ValidationFailed("description",
				fmt.Sprintf("description must be %d characters or less", MaxDescriptionLength))
		}
		task.Description = strings.TrimSpace(*upd.Description)
	}

	if upd.Priority != nil {
		p, err := model.ParsePriority(string(*upd.Priority))
		if err != nil {
			return nil, err
		}
		task.Priority = p
	}

	if upd.Status != nil {
		st, err := model.ParseStatus(string(*upd.Status))
		if err != nil {
			return nil, err
		}
		task.Status = st
	}

	if upd.DueDate != nil {
		task.DueDate = upd.DueDate
	}

	if err := s.repo.Update(ctx, task); err != nil {
		// NotFound is a normal outcome (e.g. deleted between fetch and save),
		// not a database failure worth an error log.
		if !errors.Is(err, apperror.ErrNotFound) {
			s.logger.Error("failed to update task",
				slog.String("id", id),
				slog.String("error", err.Error()),
			)
		}
		return nil, err
	}

	s.logger.Info("task updated",
		slog.String("id", task.ID),
		slog.String("ownerID", ownerID),
	)

	return task, nil
}

// Delete removes one of the owner's tasks.
// Ownership mismatch surfaces as the same NotFound as a bogus ID.
func (s *TaskService) Delete(ctx context.Context, ownerID, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "task ID is required")
	}

	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		return err
	}

	s.logger.Info("task deleted",
		slog.String("id", id),
		slog.String("ownerID", ownerID),
	)
	return nil
}
