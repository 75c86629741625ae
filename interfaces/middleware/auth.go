package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"

	"autoposter-core/domain/dto"
	"autoposter-core/domain/model"
	"autoposter-core/domain/repository"
	"autoposter-core/infrastructure/configuration"
)

// Auth requires a valid bearer token and puts the caller's user id into the
// gin context under "user_id".
func Auth(userRepository repository.IUser) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		res := dto.Res{ResponseCode: "401", ResponseMessage: "Unauthorized"}

		userClaims, err := parseBearer(ctx)
		if err != nil {
			res.ResponseMessage = authErrorMessage(err)
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, res)
			return
		}
		if _, err := userRepository.GetByUserName(ctx.Request.Context(), userClaims.UserName); err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, res)
			return
		}

		ctx.Set("user_id", userClaims.Issuer)
		ctx.Next()
	}
}

// OptionalAuth attaches the user id when a valid bearer token is present and
// lets anonymous requests through untouched. A token that is present but
// invalid, or issued for an account that no longer exists, is still
// rejected. Used on /upload so the same route serves both the static-token
// mode and logged-in users.
func OptionalAuth(userRepository repository.IUser) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.Request.Header.Get("Authorization") == "" {
			ctx.Next()
			return
		}

		userClaims, err := parseBearer(ctx)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, dto.Res{
				ResponseCode:    "401",
				ResponseMessage: authErrorMessage(err),
			})
			return
		}
		if _, err := userRepository.GetByUserName(ctx.Request.Context(), userClaims.UserName); err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, dto.Res{
				ResponseCode:    "401",
				ResponseMessage: "Unauthorized",
			})
			return
		}

		ctx.Set("user_id", userClaims.Issuer)
		ctx.Next()
	}
}

func parseBearer(ctx *gin.Context) (model.UserClaims, error) {
	var userClaims model.UserClaims

	authorization := ctx.Request.Header.Get("Authorization")
	if authorization == "" {
		return userClaims, errors.New("missing Authorization header")
	}
	auth := strings.Split(authorization, "Bearer ")
	if len(auth) != 2 {
		return userClaims, errors.New("malformed Authorization header")
	}

	token, err := jwt.ParseWithClaims(
		auth[1],
		&userClaims,
		func(token *jwt.Token) (interface{}, error) {
			return []byte(configuration.C.App.SecretKey), nil
		},
	)
	if err != nil {
		return userClaims, err
	}
	if !token.Valid {
		return userClaims, errors.New("invalid token")
	}
	return userClaims, nil
}

func authErrorMessage(err error) string {
	var ve *jwt.ValidationError
	if errors.As(err, &ve) {
		if ve.Errors&jwt.ValidationErrorMalformed != 0 {
			return "That's not even a token"
		}
		if ve.Errors&(jwt.ValidationErrorExpired|jwt.ValidationErrorNotValidYet) != 0 {
			return "Timing is everything"
		}
		return fmt.Sprintf("Couldn't handle this token:%v", err)
	}
	return "Unauthorized"
}
