// Package service — authentication business logic.
//
// AuthService is the business logic layer for authentication. It sits between
// the HTTP handlers and the repository/auth utilities:
//
//	AuthHandler (HTTP) → AuthService (business rules) → UserRepository (DB)
//	                   ↘ TokenService (JWT), PasswordService (bcrypt)
//
// KEY RESPONSIBILITIES:
//   - Register: validate input, hash the password, create the user
//   - Login: verify credentials, issue a JWT — with a single generic failure
//     for "no such user" and "wrong password" alike
//   - ResolveToken: per-request identity resolution (token → live user)
//   - Orchestrate the optional GitHub OAuth sign-in
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/taskboard/internal/apperror"
	"github.com/sakif/taskboard/internal/auth"
	"github.com/sakif/taskboard/internal/model"
	"github.com/sakif/taskboard/internal/repository"
)

// Validation constants.
const (
	MinPasswordLength = 6
	MaxUsernameLength = 50
)

// AuthService handles the authentication business logic.
//
// DEPENDENCIES (injected via NewAuthService):
//   - users      repository.UserRepository  → read/write user records
//   - tokens     *auth.TokenService         → generate/validate JWTs
//   - passwords  *auth.PasswordService      → bcrypt hashing/verification
//   - logger     *slog.Logger               → structured logging
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
// Call this in server.go when wiring the dependency graph.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// compile-time check: AuthService is the identity resolver the middleware uses
var _ auth.IdentityResolver = (*AuthService)(nil)

// Register creates a new account from username/email/password.
//
// Validation rules (all surfaced as 400s at the boundary):
//   - username: required, ≤50 chars, no whitespace inside
//   - email: required, must look like an address (exact-match uniqueness,
//     no case normalization — "A@x.com" and "a@x.com" are distinct)
//   - password: at least 6 characters
//
// Duplicate username or email returns a conflict error. We pre-check both
// for a friendly field-specific message, but the UNIQUE indexes are the
// real guarantee — a racing duplicate INSERT still comes back as the same
// conflict error, translated by the repository.
//
// The stored digest is a salted bcrypt hash; the plaintext is never
// persisted or logged.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if username == "" {
		return nil, apperror.ValidationFailed("username", "username is required")
	}
	if len(username) > MaxUsernameLength {
		return nil, apperror.ValidationFailed("username",
			fmt.Sprintf("username must be %d characters or less", MaxUsernameLength))
	}
	if strings.ContainsAny(username, " \t\n") {
		return nil, apperror.ValidationFailed("username", "username must not contain whitespace")
	}
	if !looksLikeEmail(email) {
		return nil, apperror.ValidationFailed("email", "a valid email address is required")
	}
	if len(password) < MinPasswordLength {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters long", MinPasswordLength))
	}

	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, apperror.Conflict("username already registered")
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/auth: checking username: %w", err)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperror.Conflict("email already registered")
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/auth: checking email: %w", err)
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		s.logger.Error("failed to create user",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	return user, nil
}

// LoginResult is returned by successful authentication operations.
type LoginResult struct {
	User  *model.User
	Token string
}

// Login verifies a username/password pair and issues a JWT on success.
//
// FAILURE IS DELIBERATELY OPAQUE:
// "no such user" and "wrong password" both return the same unauthorized
// error with the same message. Distinguishing them would let an attacker
// enumerate valid usernames. (The bcrypt comparison is skipped for unknown
// users, so response timing still differs slightly — a known hardening gap,
// out of scope without rate limiting.)
//
// The token's subject is the username: stable, unique, and what the
// identity resolver looks up on every later request.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	genericErr := apperror.Unauthorized("incorrect username or password")

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, genericErr
		}
		return nil, fmt.Errorf("service/auth: looking up user: %w", err)
	}

	// An OAuth-only account has an empty hash; Verify returns false for it
	// like for any non-matching digest, so the generic failure holds.
	if !s.passwords.Verify(user.PasswordHash, password) {
		return nil, genericErr
	}

	token, err := s.tokens.Generate(user.Username)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	s.logger.Info("user logged in",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	return &LoginResult{User: user, Token: token}, nil
}

// ResolveToken validates a bearer token and returns the live user it
// identifies. This runs on EVERY authenticated request (via the middleware).
//
// Two ways to fail, one answer for both:
//   - the token is invalid/expired/tampered
//   - the token is fine but the subject no longer exists (account deleted
//     after issuance) — a stale identity must not be trusted
//
// Either way the caller gets an unauthorized error, never a half-valid user.
func (s *AuthService) ResolveToken(ctx context.Context, token string) (*model.User, error) {
	username, err := s.tokens.Validate(token)
	if err != nil {
		return nil, apperror.Unauthorized("invalid or expired token")
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("invalid or expired token")
		}
		return nil, fmt.Errorf("service/auth: resolving token subject: %w", err)
	}

	return user, nil
}

// LoginOrRegisterGitHub handles the GitHub OAuth callback.
//
// After the handler exchanges the GitHub code for a profile, this method
// upserts the user (keyed by the stable GitHub ID) and issues the same JWT
// a password login would. First login creates the account with the GitHub
// login as username and no password hash.
func (s *AuthService) LoginOrRegisterGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*LoginResult, error) {
	if ghUser == nil {
		return nil, fmt.Errorf("service/auth: GitHub user must not be nil")
	}

	email := ghUser.Email
	if email == "" {
		// GitHub hides the email unless the user made it public. The
		// noreply address GitHub itself uses for private-email commits is
		// unique per account, which satisfies the email uniqueness index.
		email = fmt.Sprintf("%d+%s@users.noreply.github.com", ghUser.ID, ghUser.Login)
	}

	user := &model.User{
		Username: ghUser.Login,
		Email:    email,
		GitHubID: ghUser.ID,
	}

	if err := s.users.UpsertGitHub(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: upserting user (githubID=%d): %w", ghUser.ID, err)
	}

	s.logger.Info("user authenticated via GitHub",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	token, err := s.tokens.Generate(user.Username)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	return &LoginResult{User: user, Token: token}, nil
}

// looksLikeEmail is a shape check, not RFC 5322 validation — the only
// authoritative validation of an email address is sending mail to it.
func looksLikeEmail(s string) bool {
	at := strings.Index(s, "@")
	if at <= 0 || at == len(s)-1 {
		return false
	}
	domain := s[at+1:]
	return !strings.ContainsAny(s, " \t\n") && strings.Contains(domain, ".")
}
