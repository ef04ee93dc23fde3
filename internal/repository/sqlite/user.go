package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/taskboard/internal/apperror"
	"github.com/sakif/taskboard/internal/model"
	"github.com/sakif/taskboard/internal/repository"
)

// UserDB is the user-repository view of the database. The user and task
// interfaces both declare Create and GetByID with different signatures, so
// one receiver type cannot implement both; the user methods live here,
// reached via (*DB).Users().
type UserDB struct {
	*DB
}

// compile-time check that *UserDB implements repository.UserRepository
var _ repository.UserRepository = (*UserDB)(nil)

// Create inserts a new user row.
//
// ID GENERATION WITH xid:
// xid generates globally unique IDs that are 20 chars, URL-safe, and
// sortable by creation time (they start with a timestamp).
// Example: "cv37rs3pp9olc6atsptg".
//
// Uniqueness of username and email is enforced by the UNIQUE indexes; the
// driver's constraint error is translated into apperror.ErrConflict so the
// service layer never has to parse SQLite error strings.
func (db *UserDB) Create(ctx context.Context, user *model.User) error {
	user.ID = xid.New().String()

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, username, email, password_hash, github_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		nullableGitHubID(user.GitHubID),
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if conflict := uniqueConflict(err); conflict != nil {
			return conflict
		}
		return fmt.Errorf("sqlite: creating user %s: %w", user.Username, err)
	}

	return nil
}

// GetByID retrieves a user by internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *UserDB) GetByID(ctx context.Context, id string) (*model.User, error) {
	return db.getUser(ctx, `WHERE id = ?`, id)
}

// GetByUsername retrieves a user by username, exact match.
//
// Lookup is case-sensitive and performs no normalization — "Alice" and
// "alice" are different accounts. The identity resolver and the login path
// both go through here.
func (db *UserDB) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return db.getUser(ctx, `WHERE username = ?`, username)
}

// GetByEmail retrieves a user by email, exact match.
func (db *UserDB) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return db.getUser(ctx, `WHERE email = ?`, email)
}

// UpsertGitHub inserts or refreshes a user keyed by their GitHub ID.
//
// First OAuth login → INSERT (a fresh internal ID, no password hash).
// Subsequent logins → UPDATE the email in case it changed on GitHub, keeping
// the existing internal ID and username stable.
//
// GitHub guarantees the numeric ID is stable and unique, which is why it is
// the upsert key — the login name can be renamed on GitHub's side.
func (db *UserDB) UpsertGitHub(ctx context.Context, user *model.User) error {
	var existingID string
	err := db.conn.QueryRowContext(ctx,
		`SELECT id FROM users WHERE github_id = ?`, user.GitHubID,
	).Scan(&existingID)

	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("sqlite: looking up user by github_id %d: %w", user.GitHubID, err)
	}

	if existingID != "" {
		user.UpdatedAt = time.Now().UTC()
		_, err = db.conn.ExecContext(ctx,
			`UPDATE users SET email = ?, updated_at = ? WHERE id = ?`,
			user.Email,
			user.UpdatedAt,
			existingID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: updating user %s: %w", existingID, err)
		}

		// Re-read the canonical row: the caller's struct gets the stored
		// username and timestamps, not whatever GitHub sent this time.
		stored, err := db.GetByID(ctx, existingID)
		if err != nil {
			return err
		}
		*user = *stored
		return nil
	}

	// New OAuth user. Create enforces username/email uniqueness; a clash
	// with an existing password account surfaces as ErrConflict.
	return db.Create(ctx, user)
}

// getUser runs a single-row SELECT with the given WHERE clause.
func (db *UserDB) getUser(ctx context.Context, where string, arg any) (*model.User, error) {
	var (
		u        model.User
		githubID sql.NullInt64
	)

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, github_id, created_at, updated_at
		 FROM users `+where,
		arg,
	).Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&githubID,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		// sql.ErrNoRows is a sentinel — database/sql doesn't wrap it, so ==
		// is the established check. Translated to the domain's NotFound.
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", fmt.Sprint(arg))
		}
		return nil, fmt.Errorf("sqlite: getting user: %w", err)
	}

	if githubID.Valid {
		u.GitHubID = githubID.Int64
	}

	return &u, nil
}

// nullableGitHubID maps the "no linked account" zero value to SQL NULL so
// the UNIQUE index on github_id ignores it.
func nullableGitHubID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}

// uniqueConflict translates SQLite UNIQUE violations into domain conflicts.
// Returns nil if err is not a uniqueness violation.
func uniqueConflict(err error) error {
	msg := err.Error()
	if !strings.Contains(msg, "UNIQUE constraint failed") {
		return nil
	}
	switch {
	case strings.Contains(msg, "users.username"):
		return apperror.Conflict("username already registered")
	case strings.Contains(msg, "users.email"):
		return apperror.Conflict("email already registered")
	case strings.Contains(msg, "users.github_id"):
		return apperror.Conflict("GitHub account already linked")
	}
	return apperror.Conflict("duplicate value")
}
