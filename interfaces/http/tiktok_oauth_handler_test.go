package http_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"autoposter-core/infrastructure/cache"
	"autoposter-core/infrastructure/clients/tiktok"
	httpHandler "autoposter-core/interfaces/http"
)

type MockCredentialUsecase struct {
	mock.Mock
}

func (m *MockCredentialUsecase) Resolve(ctx context.Context, userID string) (*oauth2.Token, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*oauth2.Token), args.Error(1)
}

func (m *MockCredentialUsecase) SaveToken(ctx context.Context, userID string, tok *oauth2.Token, scopes string) error {
	args := m.Called(ctx, userID, tok, scopes)
	return args.Error(0)
}

func (m *MockCredentialUsecase) Linked(ctx context.Context, userID string) bool {
	args := m.Called(ctx, userID)
	return args.Bool(0)
}

func newOAuthTestRig(t *testing.T, exchangeCalls *int32) (*gin.Engine, *MockCredentialUsecase) {
	gin.SetMode(gin.TestMode)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(exchangeCalls, 1)
		io.WriteString(w, `{"access_token":"at-1","refresh_token":"rt-1","expires_in":86400,"token_type":"Bearer"}`)
	}))
	t.Cleanup(srv.Close)

	oauthClient := tiktok.NewOAuthClient(tiktok.OAuthConfig{
		ClientKey:    "key-1",
		ClientSecret: "secret-1",
		RedirectURI:  "http://localhost:10001/auth/tiktok/callback",
		BaseURL:      srv.URL,
	})

	credentials := new(MockCredentialUsecase)
	handler := httpHandler.NewTikTokOAuthHandler(oauthClient, credentials, cache.NewStateStore(nil))

	router := gin.New()
	router.GET("/auth/tiktok/login", func(c *gin.Context) {
		c.Set("user_id", "7")
		handler.GetAuthURL(c)
	})
	router.GET("/auth/tiktok/callback", handler.Callback)
	return router, credentials
}

func TestTikTokOAuthHandler_LinkFlow(t *testing.T) {
	var exchangeCalls int32
	router, credentials := newOAuthTestRig(t, &exchangeCalls)

	// Start the flow and pull the state out of the authorization URL.
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/tiktok/login", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var res struct {
		AuthorizationURL string `json:"authorization_url"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	authURL, err := url.Parse(res.AuthorizationURL)
	require.NoError(t, err)
	state := authURL.Query().Get("state")
	require.NotEmpty(t, state)

	credentials.On("SaveToken", mock.Anything, "7", mock.MatchedBy(func(tok *oauth2.Token) bool {
		return tok.AccessToken == "at-1" && tok.RefreshToken == "rt-1"
	}), mock.Anything).Return(nil).Once()

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/tiktok/callback?code=c1&state="+state, nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, int32(1), atomic.LoadInt32(&exchangeCalls))
	credentials.AssertExpectations(t)

	// The state is single-use: replaying the callback must fail.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/tiktok/callback?code=c1&state="+state, nil))
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, int32(1), atomic.LoadInt32(&exchangeCalls))
}

func TestTikTokOAuthHandler_Callback_UnknownState(t *testing.T) {
	var exchangeCalls int32
	router, _ := newOAuthTestRig(t, &exchangeCalls)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/tiktok/callback?code=c1&state=forged", nil))

	// A forged state is rejected before any code exchange happens.
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, int32(0), atomic.LoadInt32(&exchangeCalls))
	require.Contains(t, w.Body.String(), "invalid_state")
}

func TestTikTokOAuthHandler_Callback_MissingCode(t *testing.T) {
	var exchangeCalls int32
	router, _ := newOAuthTestRig(t, &exchangeCalls)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/tiktok/callback?state=whatever", nil))
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, int32(0), atomic.LoadInt32(&exchangeCalls))
}
