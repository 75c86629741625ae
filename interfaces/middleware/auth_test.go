package middleware_test

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/require"

	"autoposter-core/domain/model"
	"autoposter-core/infrastructure/configuration"
	"autoposter-core/interfaces/middleware"
)

type stubUserRepository struct {
	users map[string]model.User
}

func (s *stubUserRepository) GetById(ctx context.Context, id int) (model.User, error) {
	return model.User{}, sql.ErrNoRows
}

func (s *stubUserRepository) GetByUserName(ctx context.Context, userName string) (model.User, error) {
	if u, ok := s.users[userName]; ok {
		return u, nil
	}
	return model.User{}, sql.ErrNoRows
}

func (s *stubUserRepository) CreateUser(ctx context.Context, user model.User) error { return nil }

func signToken(t *testing.T, userName, issuer string, expiresAt time.Time) string {
	claims := model.UserClaims{
		UserName: userName,
		StandardClaims: jwt.StandardClaims{
			Issuer:    issuer,
			ExpiresAt: expiresAt.Unix(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func newAuthRouter(t *testing.T) *gin.Engine {
	prev := configuration.C.App.SecretKey
	configuration.C.App.SecretKey = "test-secret"
	t.Cleanup(func() { configuration.C.App.SecretKey = prev })

	gin.SetMode(gin.TestMode)
	users := &stubUserRepository{users: map[string]model.User{"tulus": {ID: 7, UserName: "tulus"}}}

	router := gin.New()
	router.GET("/protected", middleware.Auth(users), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString("user_id")})
	})
	router.GET("/optional", middleware.OptionalAuth(users), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString("user_id")})
	})
	return router
}

func TestAuth_ValidToken(t *testing.T) {
	router := newAuthRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "tulus", "7", time.Now().Add(time.Hour)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"user_id":"7"`)
}

func TestAuth_MissingHeader(t *testing.T) {
	router := newAuthRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_ExpiredToken(t *testing.T) {
	router := newAuthRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "tulus", "7", time.Now().Add(-time.Hour)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "Timing is everything")
}

func TestAuth_UnknownUser(t *testing.T) {
	router := newAuthRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "ghost", "9", time.Now().Add(time.Hour)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOptionalAuth_Anonymous(t *testing.T) {
	router := newAuthRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/optional", nil))

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"user_id":""`)
}

func TestOptionalAuth_WithToken(t *testing.T) {
	router := newAuthRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/optional", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "tulus", "7", time.Now().Add(time.Hour)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"user_id":"7"`)
}

func TestOptionalAuth_DeletedUserRejected(t *testing.T) {
	router := newAuthRouter(t)

	// Token is valid but the account behind it is gone.
	req := httptest.NewRequest(http.MethodGet, "/optional", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "ghost", "9", time.Now().Add(time.Hour)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOptionalAuth_InvalidTokenStillRejected(t *testing.T) {
	router := newAuthRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/optional", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}
