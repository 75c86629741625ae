package configuration

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// TikTokConfig represents TikTok Content Posting API configuration
type TikTokConfig struct {
	ClientKey          string `mapstructure:"client_key"`
	ClientSecret       string `mapstructure:"client_secret"`
	RedirectURI        string `mapstructure:"redirect_uri"`
	AccessToken        string `mapstructure:"access_token"`
	APIBaseURL         string `mapstructure:"api_base_url"`
	ChunkSize          int64  `mapstructure:"chunk_size"`
	StatusPollAttempts int    `mapstructure:"status_poll_attempts"`
	StatusPollInterval time.Duration
}

// GetTikTokConfig returns TikTok configuration from JSON config with
// environment variable fallback. The static access token is env-only so that
// it never ends up committed in a config file.
func GetTikTokConfig() *TikTokConfig {
	port := C.App.Port
	if port == 0 {
		port = 10001
	}
	defaultRedirect := fmt.Sprintf("http://localhost:%d/auth/tiktok/callback", port)
	return &TikTokConfig{
		ClientKey:          getConfigValue(C.TikTok.ClientKey, "TIKTOK_CLIENT_KEY", ""),
		ClientSecret:       getConfigValue(C.TikTok.ClientSecret, "TIKTOK_CLIENT_SECRET", ""),
		RedirectURI:        getConfigValue(C.TikTok.RedirectURI, "TIKTOK_REDIRECT_URI", defaultRedirect),
		AccessToken:        getEnv("TIKTOK_ACCESS_TOKEN", ""),
		APIBaseURL:         C.TikTok.APIBaseURL,
		ChunkSize:          C.TikTok.ChunkSize,
		StatusPollAttempts: C.TikTok.StatusPollAttempts,
		StatusPollInterval: time.Duration(C.TikTok.StatusPollInterval) * time.Second,
	}
}

// OAuthConfigured reports whether the per-user OAuth linking flow can run.
func (c *TikTokConfig) OAuthConfigured() bool {
	return c.ClientKey != "" && c.ClientSecret != "" && c.RedirectURI != ""
}

// getConfigValue gets value from environment first, then config, then default
func getConfigValue(configValue, envKey, defaultValue string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	if configValue != "" && !strings.HasPrefix(configValue, "YOUR_") {
		return configValue
	}
	return defaultValue
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
