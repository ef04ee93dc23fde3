// Package repository defines the storage interfaces the service layer
// depends on. Concrete implementations live in subpackages (sqlite).
//
// Every task-reading or task-writing method takes the owner's user ID and
// filters on it inside the query. Ownership is enforced HERE, at the data
// access boundary — not by comparing fields on objects already fetched.
// A caller holding user A's identity can never observe that a task owned
// by user B exists: mismatches surface as NotFound, same as a bogus ID.
package repository

import (
	"context"

	"github.com/sakif/taskboard/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

type UserRepository interface {
	// Create inserts a new user. Duplicate username or email yields an
	// error wrapping apperror.ErrConflict.
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// UpsertGitHub inserts or refreshes a user keyed by GitHub ID (OAuth path).
	UpsertGitHub(ctx context.Context, user *model.User) error
}

type TaskRepository interface {
	Create(ctx context.Context, task *model.Task) error
	GetByID(ctx context.Context, ownerID, id string) (*model.Task, error)
	List(ctx context.Context, ownerID string, opts ListOptions) ([]model.Task, error)
	ListByStatus(ctx context.Context, ownerID string, status model.Status) ([]model.Task, error)
	ListByPriority(ctx context.Context, ownerID string, priority model.Priority) ([]model.Task, error)
	// Update writes the full row matching both task.ID and task.OwnerID.
	Update(ctx context.Context, task *model.Task) error
	// Delete removes the row matching both id and ownerID.
	Delete(ctx context.Context, ownerID, id string) error
}
