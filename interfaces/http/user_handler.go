package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"autoposter-core/domain/dto"
	"autoposter-core/domain/model"
	"autoposter-core/infrastructure/logger"
	"autoposter-core/usecase"
)

const (
	ErrorUnmarshal = "Error while unmarshal"
)

type IUserHandler interface {
	Login(c *gin.Context)
	Register(c *gin.Context)
	Me(c *gin.Context)
}

type UserHandler struct {
	userUsecase       usecase.IUserUsecase
	credentialUsecase usecase.ICredentialUsecase
}

func NewUserHandler(userUsecase usecase.IUserUsecase, credentialUsecase usecase.ICredentialUsecase) IUserHandler {
	return &UserHandler{userUsecase: userUsecase, credentialUsecase: credentialUsecase}
}

func (userHandler *UserHandler) Login(c *gin.Context) {
	var req model.ReqLogin

	if err := c.ShouldBindJSON(&req); err != nil {
		logger.GetLogger().WithField("error", err).Error(ErrorUnmarshal)
		c.JSON(http.StatusBadRequest, dto.Res{ResponseCode: "400", ResponseMessage: err.Error()})
		return
	}

	res, err := userHandler.userUsecase.Login(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, dto.Res{ResponseCode: "401", ResponseMessage: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, dto.Res{ResponseCode: "500", ResponseMessage: "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, dto.Res{ResponseCode: "200", ResponseMessage: "Success", Data: res})
}

func (userHandler *UserHandler) Register(c *gin.Context) {
	var req model.ReqRegister

	if err := c.ShouldBindJSON(&req); err != nil {
		logger.GetLogger().WithField("error", err).Error(ErrorUnmarshal)
		c.JSON(http.StatusBadRequest, dto.Res{ResponseCode: "400", ResponseMessage: err.Error()})
		return
	}

	res, err := userHandler.userUsecase.Register(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, usecase.ErrUserExists) {
			c.JSON(http.StatusConflict, dto.Res{ResponseCode: "409", ResponseMessage: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, dto.Res{ResponseCode: "500", ResponseMessage: "Internal server error"})
		return
	}

	c.JSON(http.StatusCreated, dto.Res{ResponseCode: "201", ResponseMessage: "Success", Data: res})
}

// Me describes the authenticated caller, including whether their TikTok
// account is linked.
func (userHandler *UserHandler) Me(c *gin.Context) {
	userID := c.GetString("user_id")
	id, err := strconv.Atoi(userID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, dto.Res{ResponseCode: "401", ResponseMessage: "Unauthorized"})
		return
	}

	user, err := userHandler.userUsecase.GetById(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, dto.Res{ResponseCode: "404", ResponseMessage: "User not found"})
		return
	}

	c.JSON(http.StatusOK, dto.Res{
		ResponseCode:    "200",
		ResponseMessage: "Success",
		Data: dto.MeResponse{
			ID:           user.ID,
			UserName:     user.UserName,
			TikTokLinked: userHandler.credentialUsecase.Linked(c.Request.Context(), userID),
		},
	})
}
