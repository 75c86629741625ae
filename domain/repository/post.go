package repository

import (
	"context"

	"autoposter-core/domain/model"
)

// IPost is the append-only post log. CreatePost writes exactly one row per
// publish attempt; rows are never updated.
type IPost interface {
	CreatePost(ctx context.Context, rec *model.PostRecord) error
	GetByUser(ctx context.Context, userID string, limit int) ([]*model.PostRecord, error)
}
