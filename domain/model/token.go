package model

import "time"

// PlatformTikTok is the only platform wired today; the token table keys on
// (user_id, platform) so more can follow without schema changes.
const PlatformTikTok = "tiktok"

// StaticTokenUserID keys the process-wide configured token in the credential
// store so the minimal variant flows through the same code path.
const StaticTokenUserID = "static"

// OAuthToken stores platform OAuth credentials per user. Each refresh
// supersedes the previous row via upsert; tokens are never multi-versioned.
type OAuthToken struct {
	ID           int64      `json:"id"`
	UserID       string     `json:"user_id"`
	Platform     string     `json:"platform"`
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	Scopes       string     `json:"scopes"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
