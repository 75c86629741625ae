package dto

// AuthResponse is returned by register and login with a fresh bearer token.
type AuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	UserName    string `json:"username"`
}

// MeResponse describes the authenticated caller for GET /auth/me.
type MeResponse struct {
	ID           int    `json:"id"`
	UserName     string `json:"username"`
	TikTokLinked bool   `json:"tiktok_linked"`
}

// TikTokAuthResponse carries the authorization URL the frontend redirects to.
type TikTokAuthResponse struct {
	AuthorizationURL string `json:"authorization_url"`
}
