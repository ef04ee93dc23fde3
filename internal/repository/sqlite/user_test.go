package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/taskboard/internal/apperror"
	"github.com/sakif/taskboard/internal/model"
)

// newTestDB returns a fresh in-memory database with migrations applied.
// ":memory:" databases are private to the connection and vanish on close,
// so every test starts from a clean schema.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// createTestUser is a test helper that creates a user and fails the test if it errors.
func createTestUser(t *testing.T, db *DB, username string) *model.User {
	t.Helper()
	user := &model.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "$2a$04$notarealhashbutgoodenough",
	}
	if err := db.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestUserCreate(t *testing.T) {
	db := newTestDB(t)

	user := &model.User{
		Username:     "testuser",
		Email:        "test@example.com",
		PasswordHash: "$2a$04$hash",
	}

	err := db.Users().Create(context.Background(), user)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Verify the user was modified in-place (pointer receiver)
	if user.ID == "" {
		t.Error("Create() did not set user.ID")
	}
	if user.CreatedAt.IsZero() {
		t.Error("Create() did not set user.CreatedAt")
	}
}

func TestUserCreate_DuplicateUsername(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "alice")

	dup := &model.User{
		Username:     "alice",
		Email:        "different@example.com",
		PasswordHash: "$2a$04$hash",
	}

	err := db.Users().Create(context.Background(), dup)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("Create() with duplicate username error = %v, want ErrConflict", err)
	}
}

func TestUserCreate_DuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "alice")

	dup := &model.User{
		Username:     "alice2",
		Email:        "alice@example.com", // same email as createTestUser's alice
		PasswordHash: "$2a$04$hash",
	}

	err := db.Users().Create(context.Background(), dup)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("Create() with duplicate email error = %v, want ErrConflict", err)
	}
}

// =========================================================================
// GET TESTS
// =========================================================================

func TestUserGetByID(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, "alice")

	got, err := db.Users().GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Username != "alice" {
		t.Errorf("GetByID() username = %q, want %q", got.Username, "alice")
	}
	if got.PasswordHash != created.PasswordHash {
		t.Error("GetByID() did not return the stored password hash")
	}
}

func TestUserGetByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Users().GetByID(context.Background(), "nonexistent")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestUserGetByUsername(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, "alice")

	got, err := db.Users().GetByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetByUsername() error = %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("GetByUsername() ID = %q, want %q", got.ID, created.ID)
	}
}

func TestUserGetByUsername_ExactMatchOnly(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "alice")

	// Lookup is case-sensitive — "Alice" is a different account name
	_, err := db.Users().GetByUsername(context.Background(), "Alice")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("GetByUsername(\"Alice\") error = %v, want ErrNotFound", err)
	}
}

func TestUserGetByEmail(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, "alice")

	got, err := db.Users().GetByEmail(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("GetByEmail() ID = %q, want %q", got.ID, created.ID)
	}
}

// =========================================================================
// UPSERT TESTS (GitHub OAuth path)
// =========================================================================

func TestUpsertGitHub_CreatesNewUser(t *testing.T) {
	db := newTestDB(t)

	user := &model.User{
		Username: "octocat",
		Email:    "octocat@example.com",
		GitHubID: 583231,
	}

	if err := db.Users().UpsertGitHub(context.Background(), user); err != nil {
		t.Fatalf("UpsertGitHub() error = %v", err)
	}
	if user.ID == "" {
		t.Error("UpsertGitHub() did not assign an ID to the new user")
	}

	got, err := db.Users().GetByUsername(context.Background(), "octocat")
	if err != nil {
		t.Fatalf("GetByUsername() after upsert error = %v", err)
	}
	if got.GitHubID != 583231 {
		t.Errorf("stored GitHubID = %d, want %d", got.GitHubID, 583231)
	}
	if got.PasswordHash != "" {
		t.Error("OAuth-created user should have no password hash")
	}
}

func TestUpsertGitHub_SecondLoginKeepsIdentity(t *testing.T) {
	db := newTestDB(t)

	first := &model.User{Username: "octocat", Email: "old@example.com", GitHubID: 583231}
	if err := db.Users().UpsertGitHub(context.Background(), first); err != nil {
		t.Fatalf("first UpsertGitHub() error = %v", err)
	}

	// Same GitHub ID, changed email — must update, not duplicate
	second := &model.User{Username: "octocat", Email: "new@example.com", GitHubID: 583231}
	if err := db.Users().UpsertGitHub(context.Background(), second); err != nil {
		t.Fatalf("second UpsertGitHub() error = %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("second login ID = %q, want the original %q", second.ID, first.ID)
	}
	if second.Email != "new@example.com" {
		t.Errorf("second login email = %q, want refreshed value", second.Email)
	}
}

func TestUserGetByID_NoGitHubLink(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, "alice")

	got, err := db.Users().GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	// Password accounts store NULL for github_id; the model's zero value
	// represents "no linked account"
	if got.GitHubID != 0 {
		t.Errorf("GitHubID = %d, want 0 for a password account", got.GitHubID)
	}
}
