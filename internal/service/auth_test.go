package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/sakif/taskboard/internal/apperror"
	"github.com/sakif/taskboard/internal/auth"
	"github.com/sakif/taskboard/internal/model"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

// fakeUserRepo is an in-memory implementation of repository.UserRepository.
// Using a fake (not a mock framework) keeps tests dependency-free and easy
// to read — you can see exactly what the fake does.
type fakeUserRepo struct {
	users  map[string]*model.User // keyed by internal ID
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:  make(map[string]*model.User),
		nextID: 1,
	}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	for _, u := range f.users {
		if u.Username == user.Username {
			return apperror.Conflict("username already registered")
		}
		if u.Email == user.Email {
			return apperror.Conflict("email already registered")
		}
	}
	user.ID = fmt.Sprintf("user-%d", f.nextID)
	f.nextID++
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	stored := *user
	f.users[user.ID] = &stored
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	if u, ok := f.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, apperror.NotFound("user", id)
}

func (f *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("user", username)
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (f *fakeUserRepo) UpsertGitHub(ctx context.Context, user *model.User) error {
	for _, u := range f.users {
		if u.GitHubID != 0 && u.GitHubID == user.GitHubID {
			u.Email = user.Email
			*user = *u
			return nil
		}
	}
	return f.Create(ctx, user)
}

// delete removes a user directly — simulates account deletion behind an
// already-issued token.
func (f *fakeUserRepo) delete(id string) {
	delete(f.users, id)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestAuthService wires an AuthService against the fake repo with fast
// bcrypt (cost 4) and a deterministic token secret.
func newTestAuthService(t *testing.T) (*AuthService, *fakeUserRepo) {
	t.Helper()

	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!", 30*time.Minute)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	repo := newFakeUserRepo()
	svc := NewAuthService(repo, tokens, auth.NewPasswordService(4), testLogger())
	return svc, repo
}

// =========================================================================
// REGISTER TESTS
// =========================================================================

func TestRegister_Success(t *testing.T) {
	svc, _ := newTestAuthService(t)

	user, err := svc.Register(context.Background(), "alice", "alice@example.com", "secret1")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if user.ID == "" {
		t.Error("Register() returned a user without an ID")
	}
	if user.Username != "alice" {
		t.Errorf("Username = %q, want %q", user.Username, "alice")
	}
	if user.PasswordHash == "" {
		t.Error("Register() stored no password hash")
	}
	if user.PasswordHash == "secret1" {
		t.Error("Register() stored the plaintext password")
	}
	if !strings.HasPrefix(user.PasswordHash, "$2") {
		t.Errorf("PasswordHash = %q, doesn't look like bcrypt output", user.PasswordHash)
	}
}

func TestRegister_StoredHashVerifies(t *testing.T) {
	svc, repo := newTestAuthService(t)

	if _, err := svc.Register(context.Background(), "alice", "alice@example.com", "secret1"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	stored, err := repo.GetByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetByUsername() error = %v", err)
	}

	passwords := auth.NewPasswordService(4)
	if !passwords.Verify(stored.PasswordHash, "secret1") {
		t.Error("stored hash does not verify against the original password")
	}
	if passwords.Verify(stored.PasswordHash, "wrong") {
		t.Error("stored hash verifies against a wrong password")
	}
}

func TestRegister_ValidationFailures(t *testing.T) {
	svc, _ := newTestAuthService(t)

	tests := []struct {
		name     string
		username string
		email    string
		password string
	}{
		{"empty username", "", "a@example.com", "secret1"},
		{"whitespace-only username", "   ", "a@example.com", "secret1"},
		{"username with spaces", "two words", "a@example.com", "secret1"},
		{"username too long", strings.Repeat("x", MaxUsernameLength+1), "a@example.com", "secret1"},
		{"missing email", "alice", "", "secret1"},
		{"email without at-sign", "alice", "not-an-email", "secret1"},
		{"email without domain dot", "alice", "a@localhost", "secret1"},
		{"password too short", "alice", "a@example.com", "12345"},
		{"empty password", "alice", "a@example.com", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.username, tt.email, tt.password)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("Register() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestRegister_MinimumLengthPasswordOK(t *testing.T) {
	svc, _ := newTestAuthService(t)

	// Exactly MinPasswordLength characters is acceptable
	if _, err := svc.Register(context.Background(), "alice", "alice@example.com", "123456"); err != nil {
		t.Fatalf("Register() with 6-char password error = %v", err)
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	svc, _ := newTestAuthService(t)

	if _, err := svc.Register(context.Background(), "alice", "alice@example.com", "secret1"); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}

	_, err := svc.Register(context.Background(), "alice", "other@example.com", "secret2")
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("Register() with taken username error = %v, want ErrConflict", err)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _ := newTestAuthService(t)

	if _, err := svc.Register(context.Background(), "alice", "alice@example.com", "secret1"); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}

	_, err := svc.Register(context.Background(), "alice2", "alice@example.com", "secret2")
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("Register() with taken email error = %v, want ErrConflict", err)
	}
}

// =========================================================================
// LOGIN TESTS
// =========================================================================

func TestLogin_Success(t *testing.T) {
	svc, _ := newTestAuthService(t)

	if _, err := svc.Register(context.Background(), "alice", "alice@example.com", "secret1"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	result, err := svc.Login(context.Background(), "alice", "secret1")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if result.Token == "" {
		t.Error("Login() returned no token")
	}
	if result.User.Username != "alice" {
		t.Errorf("Login() user = %q, want %q", result.User.Username, "alice")
	}
}

func TestLogin_FailureIsGeneric(t *testing.T) {
	svc, _ := newTestAuthService(t)

	if _, err := svc.Register(context.Background(), "alice", "alice@example.com", "secret1"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	// "unknown user" and "wrong password" must be indistinguishable:
	// same sentinel, same message — no username enumeration.
	_, unknownErr := svc.Login(context.Background(), "nobody", "secret1")
	_, wrongPwErr := svc.Login(context.Background(), "alice", "wrong-password")

	if !errors.Is(unknownErr, apperror.ErrUnauthorized) {
		t.Fatalf("Login() unknown user error = %v, want ErrUnauthorized", unknownErr)
	}
	if !errors.Is(wrongPwErr, apperror.ErrUnauthorized) {
		t.Fatalf("Login() wrong password error = %v, want ErrUnauthorized", wrongPwErr)
	}
	if unknownErr.Error() != wrongPwErr.Error() {
		t.Errorf("failure messages differ: %q vs %q — leaks which credential was wrong",
			unknownErr.Error(), wrongPwErr.Error())
	}
}

func TestLogin_TokenResolvesBack(t *testing.T) {
	svc, _ := newTestAuthService(t)

	if _, err := svc.Register(context.Background(), "alice", "alice@example.com", "secret1"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	result, err := svc.Login(context.Background(), "alice", "secret1")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	user, err := svc.ResolveToken(context.Background(), result.Token)
	if err != nil {
		t.Fatalf("ResolveToken() error = %v", err)
	}
	if user.Username != "alice" {
		t.Errorf("ResolveToken() user = %q, want %q", user.Username, "alice")
	}
}

// =========================================================================
// RESOLVE TOKEN TESTS
// =========================================================================

func TestResolveToken_GarbageToken(t *testing.T) {
	svc, _ := newTestAuthService(t)

	_, err := svc.ResolveToken(context.Background(), "not-a-jwt")
	if !errors.Is(err, apperror.ErrUnauthorized) {
		t.Fatalf("ResolveToken() error = %v, want ErrUnauthorized", err)
	}
}

func TestResolveToken_DeletedUser(t *testing.T) {
	svc, repo := newTestAuthService(t)

	user, err := svc.Register(context.Background(), "alice", "alice@example.com", "secret1")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	result, err := svc.Login(context.Background(), "alice", "secret1")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	// The account disappears while the token is still cryptographically valid
	repo.delete(user.ID)

	_, err = svc.ResolveToken(context.Background(), result.Token)
	if !errors.Is(err, apperror.ErrUnauthorized) {
		t.Fatalf("ResolveToken() for deleted user error = %v, want ErrUnauthorized", err)
	}
}

// =========================================================================
// GITHUB OAUTH TESTS
// =========================================================================

func TestLoginOrRegisterGitHub_FirstLoginCreatesAccount(t *testing.T) {
	svc, repo := newTestAuthService(t)

	result, err := svc.LoginOrRegisterGitHub(context.Background(), &auth.GitHubUser{
		ID:    583231,
		Login: "octocat",
		Email: "octocat@example.com",
	})
	if err != nil {
		t.Fatalf("LoginOrRegisterGitHub() error = %v", err)
	}
	if result.Token == "" {
		t.Error("LoginOrRegisterGitHub() returned no token")
	}

	stored, err := repo.GetByUsername(context.Background(), "octocat")
	if err != nil {
		t.Fatalf("GetByUsername() after OAuth login error = %v", err)
	}
	if stored.GitHubID != 583231 {
		t.Errorf("GitHubID = %d, want %d", stored.GitHubID, 583231)
	}
	if stored.PasswordHash != "" {
		t.Error("OAuth account should have no password hash")
	}
}

func TestLoginOrRegisterGitHub_PrivateEmailGetsFallback(t *testing.T) {
	svc, repo := newTestAuthService(t)

	_, err := svc.LoginOrRegisterGitHub(context.Background(), &auth.GitHubUser{
		ID:    42,
		Login: "hidden",
		Email: "", // user keeps their email private on GitHub
	})
	if err != nil {
		t.Fatalf("LoginOrRegisterGitHub() error = %v", err)
	}

	stored, err := repo.GetByUsername(context.Background(), "hidden")
	if err != nil {
		t.Fatalf("GetByUsername() error = %v", err)
	}
	if stored.Email != "42+hidden@users.noreply.github.com" {
		t.Errorf("Email = %q, want the noreply fallback address", stored.Email)
	}
}

func TestLoginOrRegisterGitHub_SecondLoginSameAccount(t *testing.T) {
	svc, _ := newTestAuthService(t)

	first, err := svc.LoginOrRegisterGitHub(context.Background(), &auth.GitHubUser{
		ID: 583231, Login: "octocat", Email: "octocat@example.com",
	})
	if err != nil {
		t.Fatalf("first LoginOrRegisterGitHub() error = %v", err)
	}

	second, err := svc.LoginOrRegisterGitHub(context.Background(), &auth.GitHubUser{
		ID: 583231, Login: "octocat", Email: "new@example.com",
	})
	if err != nil {
		t.Fatalf("second LoginOrRegisterGitHub() error = %v", err)
	}

	if second.User.ID != first.User.ID {
		t.Errorf("second login user ID = %q, want the original %q", second.User.ID, first.User.ID)
	}
}

// =========================================================================
// OAUTH-ONLY ACCOUNT TESTS
// =========================================================================

func TestLogin_OAuthOnlyAccountRejectsPassword(t *testing.T) {
	svc, _ := newTestAuthService(t)

	if _, err := svc.LoginOrRegisterGitHub(context.Background(), &auth.GitHubUser{
		ID: 583231, Login: "octocat", Email: "octocat@example.com",
	}); err != nil {
		t.Fatalf("LoginOrRegisterGitHub() error = %v", err)
	}

	// No password was ever set; any password attempt gets the generic 401
	_, err := svc.Login(context.Background(), "octocat", "anything")
	if !errors.Is(err, apperror.ErrUnauthorized) {
		t.Fatalf("Login() against OAuth-only account error = %v, want ErrUnauthorized", err)
	}
}
