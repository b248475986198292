package models

import (
	"strings"
	"time"
)

// Profile is the public record of an authenticated identity.
type Profile struct {
	ID                string    `json:"id"`
	Email             string    `json:"email"`
	Username          *string   `json:"username"`
	ContributionScore *int      `json:"contribution_score"`
	CreatedAt         time.Time `json:"created_at"`
}

// DisplayName falls back to the local part of the email when no username is set.
func (p Profile) DisplayName() string {
	if p.Username != nil && *p.Username != "" {
		return *p.Username
	}
	if i := strings.IndexByte(p.Email, '@'); i > 0 {
		return p.Email[:i]
	}
	return p.Email
}

// ProfileDetails is a profile together with the drivers it contributed.
type ProfileDetails struct {
	Profile
	Drivers []DriverSummary `json:"drivers"`
}

// Identity is the authenticated caller, resolved once per request.
type Identity struct {
	UserID string
	Email  string
}

// Credential is the sign-in secret of a profile.
type Credential struct {
	ProfileID    string
	Email        string
	PasswordHash string
}
