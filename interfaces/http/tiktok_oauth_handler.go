package http

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"autoposter-core/domain/dto"
	"autoposter-core/infrastructure/cache"
	"autoposter-core/infrastructure/clients/tiktok"
	"autoposter-core/infrastructure/logger"
	"autoposter-core/usecase"
)

const stateTTL = 10 * time.Minute

type ITikTokOAuthHandler interface {
	GetAuthURL(ctx *gin.Context)
	Callback(ctx *gin.Context)
}

type tikTokOAuthHandler struct {
	oauthClient       *tiktok.OAuthClient
	credentialUsecase usecase.ICredentialUsecase
	states            *cache.StateStore
}

func NewTikTokOAuthHandler(oauthClient *tiktok.OAuthClient, credentialUsecase usecase.ICredentialUsecase, states *cache.StateStore) ITikTokOAuthHandler {
	return &tikTokOAuthHandler{
		oauthClient:       oauthClient,
		credentialUsecase: credentialUsecase,
		states:            states,
	}
}

func randomState() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// GetAuthURL starts the link flow: mints a single-use state bound to the
// caller and returns the consent page URL to redirect to.
func (h *tikTokOAuthHandler) GetAuthURL(c *gin.Context) {
	if h.oauthClient == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tiktok oauth not configured"})
		return
	}

	state := randomState()
	h.states.Save(c.Request.Context(), state, c.GetString("user_id"), stateTTL)

	c.JSON(http.StatusOK, dto.TikTokAuthResponse{
		AuthorizationURL: h.oauthClient.AuthorizeURL(state),
	})
}

// Callback finishes the link flow. The state is validated and consumed
// before any code exchange so a forged callback never reaches the vendor.
func (h *tikTokOAuthHandler) Callback(c *gin.Context) {
	if h.oauthClient == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tiktok oauth not configured"})
		return
	}

	code := c.Query("code")
	state := c.Query("state")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing code"})
		return
	}

	userID, ok := h.states.Consume(c.Request.Context(), state)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_state"})
		return
	}

	token, err := h.oauthClient.ExchangeCode(c.Request.Context(), code)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("TikTok code exchange failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "token_exchange_failed"})
		return
	}

	if err := h.credentialUsecase.SaveToken(c.Request.Context(), userID, token, h.oauthClient.Scopes()); err != nil {
		logger.GetLogger().WithField("error", err).Error("Error storing TikTok token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token_store_failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"linked": true})
}
