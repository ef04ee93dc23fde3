package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/rs/xid"
	"github.com/sakif/taskboard/internal/apperror"
	"github.com/sakif/taskboard/internal/auth"
	"github.com/sakif/taskboard/internal/service"
)

// AuthHandler manages registration, login, and the current-user endpoint,
// plus the optional GitHub OAuth flow.
//
// HANDLER RESPONSIBILITIES:
//   - HandleRegister → parse the JSON body, delegate to AuthService.Register
//   - HandleLogin    → parse credentials (form or JSON), issue the token
//   - HandleMe       → return the authenticated caller's profile
//   - HandleGitHubLogin / HandleGitHubCallback → OAuth code flow
//
// All business rules (password length, duplicate checks, hash verification)
// live in the service; this layer only speaks HTTP.
type AuthHandler struct {
	svc    *service.AuthService
	github *auth.GitHubProvider // nil when OAuth is not configured
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler. github may be nil — the server only
// registers the OAuth routes when a provider is configured.
func NewAuthHandler(svc *service.AuthService, github *auth.GitHubProvider, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		svc:    svc,
		github: github,
		logger: logger,
	}
}

// registerRequest is the POST /auth/register body.
type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// tokenResponse is the login success body. Field names follow the OAuth2
// bearer-token convention, which is why they're snake_case while the rest
// of the API is camelCase.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// HandleRegister creates a new account.
//
// HTTP: POST /auth/register
// BODY: {"username": "alice", "email": "alice@example.com", "password": "secret1"}
//
// Success returns the user WITHOUT the password hash (the model's json:"-"
// tag guarantees that). Duplicate username/email comes back from the service
// as a conflict, surfaced here as a 400 — the documented contract for this
// endpoint predates the 409 convention and clients depend on it.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid register JSON", slog.String("error", err.Error()))
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	user, err := h.svc.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		var appErr *apperror.AppError
		if errors.Is(err, apperror.ErrConflict) && errors.As(err, &appErr) {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{
				Error:   "duplicate",
				Message: appErr.Message,
			})
			return
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// HandleLogin verifies credentials and returns a bearer token.
//
// HTTP: POST /auth/login
// BODY: form-encoded username/password (the OAuth2 password-grant shape);
// a JSON body with the same fields is accepted as well.
//
// RESPONSE: {"access_token": "<jwt>", "token_type": "bearer"}
//
// Failure is always the same generic 401 — the response never says whether
// the username or the password was wrong.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	username, password, err := loginCredentials(r)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := h.svc.Login(r.Context(), username, password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: result.Token,
		TokenType:   "bearer",
	})
}

// loginCredentials extracts username/password from either a form-encoded or
// a JSON body, depending on Content-Type.
func loginCredentials(r *http.Request) (string, string, error) {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/json") {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return "", "", apperror.ValidationFailed("body", "invalid JSON body")
		}
		return req.Username, req.Password, nil
	}

	if err := r.ParseForm(); err != nil {
		return "", "", apperror.ValidationFailed("body", "invalid form body")
	}
	return r.PostFormValue("username"), r.PostFormValue("password"), nil
}

// HandleMe returns the currently authenticated user's profile.
//
// HTTP: GET /auth/me
// Auth: Required (RequireAuth resolved the token to a live user already —
// including the "user deleted after token issuance" case, which 401s in the
// middleware before this handler runs).
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		// Should never happen on a RequireAuth-protected route, but be safe.
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// HandleGitHubLogin redirects the user to GitHub's authorization page.
//
// HTTP: GET /auth/github/login
//
// CSRF PROTECTION VIA STATE:
// We generate a random state string and store it in a short-lived HttpOnly
// cookie. When GitHub calls back, HandleGitHubCallback verifies the state
// matches — proving the flow was initiated by this server, not an attacker.
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10 minutes — long enough to approve, short enough to limit risk
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback completes the OAuth login flow.
//
// HTTP: GET /auth/github/callback?code=xxx&state=yyy
//
// FLOW:
//  1. Validate the state parameter (CSRF check)
//  2. Exchange the code for a GitHub user profile
//  3. Upsert the user and issue a JWT (same shape as a password login)
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("oauth callback: state missing or mismatched")
		writeError(w, apperror.ValidationFailed("state", "invalid OAuth state"))
		return
	}

	// Clear the state cookie — it's single-use.
	http.SetCookie(w, &http.Cookie{
		Name:   "oauth_state",
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	// The user may have denied the authorization request on GitHub.
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		writeError(w, apperror.Unauthorized("GitHub authorization was denied"))
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, apperror.ValidationFailed("code", "missing OAuth code"))
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("oauth callback: GitHub exchange failed", slog.String("error", err.Error()))
		writeError(w, apperror.Unauthorized("GitHub authentication failed"))
		return
	}

	result, err := h.svc.LoginOrRegisterGitHub(r.Context(), ghUser)
	if err != nil {
		h.logger.Error("oauth callback: login failed",
			slog.Int64("githubID", ghUser.ID),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: result.Token,
		TokenType:   "bearer",
	})
}
