package repository

import (
	"context"
	"io"

	"autoposter-core/domain/model"
)

// ITikTok executes the vendor's three-call publish protocol against one
// access token. Implementations perform network calls only; persistence of
// the outcome belongs to the post log.
type ITikTok interface {
	PostVideo(ctx context.Context, accessToken string, video io.Reader, size int64) (*model.PublishResult, error)
}
