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

type IUploadHandler interface {
	Upload(c *gin.Context)
	ListPosts(c *gin.Context)
}

type UploadHandler struct {
	uploadUsecase usecase.IUploadUsecase
}

func NewUploadHandler(uploadUsecase usecase.IUploadUsecase) IUploadHandler {
	return &UploadHandler{uploadUsecase: uploadUsecase}
}

// Upload takes a multipart "file" field, publishes it to TikTok and reports
// the outcome. Failures come back as {status:"failed", error:<code>} so the
// caller can tell a bad request from a platform rejection.
func (uploadHandler *UploadHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.UploadResponse{
			Status:   model.PostStatusFailed,
			Platform: model.PlatformTikTok,
			Error:    model.ErrorCode(model.ErrInvalidInput),
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error opening uploaded file")
		c.JSON(http.StatusBadRequest, dto.UploadResponse{
			Status:   model.PostStatusFailed,
			Platform: model.PlatformTikTok,
			Error:    model.ErrorCode(model.ErrInvalidInput),
		})
		return
	}
	defer file.Close()

	userID := c.GetString("user_id")
	result, err := uploadHandler.uploadUsecase.Upload(c.Request.Context(), userID, fileHeader.Filename, file, fileHeader.Size)
	if err != nil {
		c.JSON(uploadStatusCode(err), dto.UploadResponse{
			Status:   model.PostStatusFailed,
			Platform: model.PlatformTikTok,
			Error:    model.ErrorCode(err),
		})
		return
	}

	c.JSON(http.StatusOK, dto.UploadResponse{
		Status:    model.PostStatusPosted,
		Platform:  model.PlatformTikTok,
		PublishID: result.PublishID,
	})
}

const maxPostListLimit = 100

// ListPosts returns the caller's recent post-log rows, newest first.
func (uploadHandler *UploadHandler) ListPosts(c *gin.Context) {
	limit := 50
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxPostListLimit {
		limit = maxPostListLimit
	}

	posts, err := uploadHandler.uploadUsecase.ListPosts(c.Request.Context(), c.GetString("user_id"), limit)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error listing posts")
		c.JSON(http.StatusInternalServerError, dto.Res{ResponseCode: "500", ResponseMessage: "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, dto.Res{ResponseCode: "200", ResponseMessage: "Success", Data: posts})
}

func uploadStatusCode(err error) int {
	var pe *model.PlatformError
	switch {
	case errors.Is(err, model.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrNotLinked), errors.Is(err, model.ErrMissingToken):
		return http.StatusConflict
	case errors.Is(err, model.ErrCredentialRefresh):
		return http.StatusUnauthorized
	case errors.Is(err, model.ErrStatusTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, model.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	case errors.As(err, &pe):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
