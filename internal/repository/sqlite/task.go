package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/taskboard/internal/apperror"
	"github.com/sakif/taskboard/internal/model"
	"github.com/sakif/taskboard/internal/repository"
)

// COMPILE-TIME INTERFACE CHECK:
// `var _ X = (*Y)(nil)` assigns a nil *Y to a variable of interface type X.
// If *Y doesn't implement X, the compiler errors immediately — instead of at
// the distant call site where *DB is passed as a TaskRepository.
var _ repository.TaskRepository = (*DB)(nil)

// taskColumns is the canonical SELECT list, shared by every task query so
// scanTask always sees the same column order.
const taskColumns = `id, title, description, priority, status, due_date, owner_id, created_at, updated_at`

// Create inserts a new task.
//
// The caller's struct is modified in place: ID and timestamps are assigned
// here (pointer receiver — with a value parameter the generated ID would be
// lost). OwnerID must already be set to the resolved caller; this layer
// stores whatever owner the service bound and the service only ever binds
// the authenticated identity.
//
// PARAMETERIZED QUERIES (the ? placeholders):
// NEVER build SQL strings with fmt.Sprintf or string concatenation —
// that creates SQL injection vulnerabilities. The driver escapes each
// bound value safely.
func (db *DB) Create(ctx context.Context, task *model.Task) error {
	task.ID = xid.New().String()

	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO tasks (id, title, description, priority, status, due_date, owner_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID,
		task.Title,
		task.Description,
		string(task.Priority),
		string(task.Status),
		nullableTime(task.DueDate),
		task.OwnerID,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating task: %w", err)
	}

	return nil
}

// GetByID retrieves a single task, scoped to its owner.
//
// The WHERE clause matches BOTH id and owner_id. A task that exists but
// belongs to someone else produces sql.ErrNoRows exactly like a task that
// doesn't exist at all — the two cases are indistinguishable on purpose,
// so one user can't probe whether another user's task IDs are real.
func (db *DB) GetByID(ctx context.Context, ownerID, id string) (*model.Task, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ? AND owner_id = ?`,
		id, ownerID,
	)

	task, err := scanTask(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("task", id)
		}
		return nil, fmt.Errorf("sqlite: getting task %s: %w", id, err)
	}

	return task, nil
}

// List retrieves a page of the owner's tasks, newest first.
//
// LIMIT/OFFSET pagination:
//
//	LIMIT N  = return at most N rows
//	OFFSET M = skip the first M rows
//
// Range checks on limit/offset happen at the service boundary; by the time
// a request reaches this layer the window is already validated.
func (db *DB) List(ctx context.Context, ownerID string, opts repository.ListOptions) ([]model.Task, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks
		 WHERE owner_id = ?
		 ORDER BY created_at DESC
		 LIMIT ? OFFSET ?`,
		ownerID, opts.Limit, opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing tasks: %w", err)
	}

	return collectTasks(rows)
}

// ListByStatus retrieves all of the owner's tasks in the given status.
// The owner predicate comes first — filtering is always inside the owner's
// slice of the table, never across it.
func (db *DB) ListByStatus(ctx context.Context, ownerID string, status model.Status) ([]model.Task, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks
		 WHERE owner_id = ? AND status = ?
		 ORDER BY created_at DESC`,
		ownerID, string(status),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing tasks by status: %w", err)
	}

	return collectTasks(rows)
}

// ListByPriority retrieves all of the owner's tasks with the given priority.
func (db *DB) ListByPriority(ctx context.Context, ownerID string, priority model.Priority) ([]model.Task, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks
		 WHERE owner_id = ? AND priority = ?
		 ORDER BY created_at DESC`,
		ownerID, string(priority),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing tasks by priority: %w", err)
	}

	return collectTasks(rows)
}

// Update writes the full row for the task matching id AND owner_id.
//
// RowsAffected tells us whether the WHERE clause matched anything. Zero
// rows means missing or not owned — both reported as NotFound, same
// non-leaking policy as GetByID. This is one query instead of a SELECT
// followed by an UPDATE, and the single UPDATE is atomic: concurrent
// updates to the same task resolve to last-writer-wins at the row level.
func (db *DB) Update(ctx context.Context, task *model.Task) error {
	task.UpdatedAt = time.Now().UTC()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE tasks
		 SET title = ?, description = ?, priority = ?, status = ?, due_date = ?, updated_at = ?
		 WHERE id = ? AND owner_id = ?`,
		task.Title,
		task.Description,
		string(task.Priority),
		string(task.Status),
		nullableTime(task.DueDate),
		task.UpdatedAt,
		task.ID,
		task.OwnerID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating task %s: %w", task.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("task", task.ID)
	}

	return nil
}

// Delete removes the task matching id AND owner_id.
// Same RowsAffected pattern as Update — 0 rows removed means NotFound,
// whether the id was bogus or the task belongs to another user.
func (db *DB) Delete(ctx context.Context, ownerID, id string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM tasks WHERE id = ? AND owner_id = ?`,
		id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting task %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("task", id)
	}

	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanTask reads one row in taskColumns order.
func scanTask(s scanner) (*model.Task, error) {
	var (
		t       model.Task
		dueDate sql.NullTime
	)

	err := s.Scan(
		&t.ID,
		&t.Title,
		&t.Description,
		&t.Priority,
		&t.Status,
		&dueDate,
		&t.OwnerID,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if dueDate.Valid {
		d := dueDate.Time
		t.DueDate = &d
	}

	return &t, nil
}

// collectTasks drains a multi-row result set.
//
// defer rows.Close() is critical: sql.Rows holds a pool connection, and a
// leaked one is never returned. rows.Err() after the loop catches failures
// that happened DURING iteration (e.g. the connection dropping mid-scan).
func collectTasks(rows *sql.Rows) ([]model.Task, error) {
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning task row: %w", err)
		}
		tasks = append(tasks, *t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating tasks: %w", err)
	}

	return tasks, nil
}

// nullableTime maps a nil due date to SQL NULL.
func nullableTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
