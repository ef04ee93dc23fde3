// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import (
	"fmt"
	"time"

	"github.com/sakif/taskboard/internal/apperror"
)

// Priority is the closed set of task priorities.
//
// CLOSED ENUMS IN GO:
// Go has no enum keyword. The idiom is a named string (or int) type plus a
// set of typed constants. A named type means you can't accidentally pass an
// arbitrary string where a Priority is expected without an explicit
// conversion — and all conversions from untrusted input go through
// ParsePriority, which rejects unknown values instead of panicking.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Status is the closed set of task states.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// ParsePriority converts an untrusted string into a Priority.
// Unknown values return a validation error (never a panic) so the HTTP
// layer can map them to a 400 uniformly.
func ParsePriority(s string) (Priority, error) {
	switch Priority(s) {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return Priority(s), nil
	}
	return "", apperror.ValidationFailed("priority",
		fmt.Sprintf("invalid priority %q: must be one of: low, medium, high", s))
}

// ParseStatus converts an untrusted string into a Status.
// Same contract as ParsePriority: tagged result, no panics.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusInProgress, StatusCompleted:
		return Status(s), nil
	}
	return "", apperror.ValidationFailed("status",
		fmt.Sprintf("invalid status %q: must be one of: pending, in_progress, completed", s))
}

// Task represents a single tracked task.
//
// Every task belongs to exactly one owner, set at creation time from the
// authenticated caller and never from the request body. All repository
// queries filter on OwnerID, so a task owned by someone else is
// indistinguishable from a task that doesn't exist.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    Priority   `json:"priority"` // defaults to medium
	Status      Status     `json:"status"`   // defaults to pending
	DueDate     *time.Time `json:"dueDate"`  // optional
	OwnerID     string     `json:"ownerId"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// TaskUpdate is a partial update. Nil fields mean "leave unchanged" —
// the JSON decoder only sets pointers for keys actually present in the
// body, which is exactly the PUT /tasks/{id} contract.
type TaskUpdate struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Priority    *Priority  `json:"priority"`
	Status      *Status    `json:"status"`
	DueDate     *time.Time `json:"dueDate"`
}
