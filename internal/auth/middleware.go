package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/sakif/taskboard/internal/model"
)

// IdentityResolver turns a raw bearer token into the user it belongs to.
//
// Implemented by service.AuthService: it validates the JWT, then looks the
// subject up in the credential store. The store lookup matters — a token
// can outlive its user (account deleted after issuance), and a stale
// identity must be rejected, not trusted.
type IdentityResolver interface {
	ResolveToken(ctx context.Context, token string) (*model.User, error)
}

// contextKey is an unexported type used for context keys in this package.
//
// WHY A CUSTOM TYPE FOR CONTEXT KEYS?
// context.WithValue uses any as the key type. If you use a plain string like
// context.WithValue(ctx, "user", u), ANY package that knows the string "user"
// can read or shadow your value. Using a package-private type prevents
// collisions: only THIS package can create a key of type contextKey, so only
// this package can read or write the current user in the context.
type contextKey string

const userKey contextKey = "user"

// RequireAuth is a middleware that enforces authentication on protected routes.
//
// It reads the JWT from the "Authorization: Bearer <token>" header, resolves
// it to a user via the IdentityResolver, and stores the user in the request
// context. If the header is missing, the token is invalid/expired, or the
// subject no longer exists, it returns 401 Unauthorized and stops the chain.
// There is no anonymous task access — every /tasks route sits behind this.
//
// MIDDLEWARE PATTERN IN GO:
// A middleware is a function that takes an http.Handler and returns a new
// http.Handler. The new handler "wraps" the original:
//
//	func Middleware(next http.Handler) http.Handler {
//	    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
//	        // ... do stuff before the handler ...
//	        next.ServeHTTP(w, r)
//	        // ... do stuff after the handler ...
//	    })
//	}
//
// Chi applies middlewares in a chain: req → M1 → M2 → Handler → M2 → M1 → resp
func RequireAuth(resolver IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				unauthorized(w)
				return
			}

			user, err := resolver.ResolveToken(r.Context(), token)
			if err != nil {
				unauthorized(w)
				return
			}

			// Store the user in context so handlers can read it
			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CurrentUser retrieves the authenticated user from the request context.
//
// Returns (nil, false) if the request never passed through RequireAuth.
//
// Usage in handlers:
//
//	user, ok := auth.CurrentUser(r.Context())
//	if !ok {
//	    // not authenticated (shouldn't happen behind RequireAuth)
//	}
func CurrentUser(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userKey).(*model.User)
	return user, ok && user != nil
}

// bearerToken extracts the token from the Authorization header.
// The "Bearer" scheme is matched case-insensitively per RFC 7235.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}

	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}

	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

// unauthorized writes the uniform 401 body. Deliberately the same for every
// failure mode — missing header, bad signature, expired token, deleted user —
// so callers can't probe which one they hit.
func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"unauthorized","message":"valid authentication required"}`))
}
