// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// Accounts are created either through POST /auth/register (username/email/
// password) or through the optional GitHub OAuth flow. Both paths end up in
// the same users table.
//
// WHY PasswordHash WITH json:"-"?
// The bcrypt hash must never leave the server. The `json:"-"` tag tells
// encoding/json to skip the field entirely, so even if a handler serializes
// the whole struct (and they all do), the hash cannot leak into a response.
// OAuth-only accounts have an empty hash — password login always fails for
// them because bcrypt verification of an empty digest never matches.
//
// WHY GitHubID int64?
// GitHub user IDs are integers (e.g. 1234567). Using int64 avoids overflow
// for large GitHub account numbers. Zero means "no linked GitHub account";
// the repository stores it as NULL so the UNIQUE index only applies to
// linked accounts.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"` // unique, case-sensitive, immutable
	Email        string    `json:"email"`    // unique, exact-match
	PasswordHash string    `json:"-"`        // bcrypt digest, never serialized
	GitHubID     int64     `json:"-"`        // 0 = no linked GitHub account
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
