package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"autoposter-core/domain/repository"
	httpHandler "autoposter-core/interfaces/http"
	"autoposter-core/interfaces/middleware"
)

func InitiateRouter(
	userHandler httpHandler.IUserHandler,
	uploadHandler httpHandler.IUploadHandler,
	tiktokOAuthHandler httpHandler.ITikTokOAuthHandler,
	userRepository repository.IUser,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:4200", "http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.POST("/auth/register", userHandler.Register)
	router.POST("/auth/login", userHandler.Login)

	// Upload accepts both anonymous (static-token) and authenticated callers.
	router.POST("/upload", middleware.OptionalAuth(userRepository), uploadHandler.Upload)

	router.GET("/auth/me", middleware.Auth(userRepository), userHandler.Me)

	if tiktokOAuthHandler != nil {
		router.GET("/auth/tiktok/login", middleware.Auth(userRepository), tiktokOAuthHandler.GetAuthURL)
		// The callback is hit by the browser redirect, so it cannot carry a
		// bearer token; the state value binds it back to the initiating user.
		router.GET("/auth/tiktok/callback", tiktokOAuthHandler.Callback)
	}

	api := router.Group("api")
	api.Use(middleware.Auth(userRepository))

	api.GET("/posts", uploadHandler.ListPosts)

	return router
}
