package usecase

import (
	"context"
	"io"
	"time"

	"autoposter-core/domain/model"
	"autoposter-core/domain/repository"
	"autoposter-core/infrastructure/logger"
)

type IUploadUsecase interface {
	// Upload publishes the video to TikTok and records the outcome. Every
	// call leaves exactly one row in the post log, success or failure.
	Upload(ctx context.Context, userID, filename string, video io.Reader, size int64) (*model.PublishResult, error)
	ListPosts(ctx context.Context, userID string, limit int) ([]*model.PostRecord, error)
}

type UploadUsecase struct {
	credentials    ICredentialUsecase
	tiktokClient   repository.ITikTok
	postRepository repository.IPost
	publishTimeout time.Duration
}

func NewUploadUsecase(credentials ICredentialUsecase, tiktokClient repository.ITikTok, postRepository repository.IPost, publishTimeout time.Duration) IUploadUsecase {
	if publishTimeout <= 0 {
		publishTimeout = 5 * time.Minute
	}
	return &UploadUsecase{
		credentials:    credentials,
		tiktokClient:   tiktokClient,
		postRepository: postRepository,
		publishTimeout: publishTimeout,
	}
}

func (u *UploadUsecase) Upload(ctx context.Context, userID, filename string, video io.Reader, size int64) (*model.PublishResult, error) {
	if filename == "" || video == nil || size <= 0 {
		u.record(ctx, userID, filename, model.PostStatusFailed, "invalid_input")
		return nil, model.ErrInvalidInput
	}

	token, err := u.credentials.Resolve(ctx, userID)
	if err != nil {
		// Short-circuit before any platform traffic, but the attempt still
		// lands in the log.
		u.record(ctx, userID, filename, model.PostStatusFailed, model.ErrorCode(err))
		return nil, err
	}

	publishCtx, cancel := context.WithTimeout(ctx, u.publishTimeout)
	defer cancel()

	result, err := u.tiktokClient.PostVideo(publishCtx, token.AccessToken, video, size)
	if err != nil {
		logger.GetLogger().
			WithField("error", err).
			WithField("filename", filename).
			Error("Publish attempt failed")
		u.record(ctx, userID, filename, model.PostStatusFailed, err.Error())
		return nil, err
	}

	u.record(ctx, userID, filename, model.PostStatusPosted, result.PublishID)
	return result, nil
}

func (u *UploadUsecase) ListPosts(ctx context.Context, userID string, limit int) ([]*model.PostRecord, error) {
	return u.postRepository.GetByUser(ctx, userID, limit)
}

// record appends the post-log row. A storage failure here is logged but never
// masks the publish outcome the caller already has.
func (u *UploadUsecase) record(ctx context.Context, userID, filename, status, response string) {
	rec := &model.PostRecord{
		UserID:   userID,
		Filename: filename,
		Platform: model.PlatformTikTok,
		Status:   status,
		Response: response,
	}
	if err := u.postRepository.CreatePost(ctx, rec); err != nil {
		logger.GetLogger().
			WithField("error", err).
			WithField("filename", filename).
			WithField("status", status).
			Error("Error writing post log")
	}
}
