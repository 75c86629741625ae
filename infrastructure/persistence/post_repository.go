package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"autoposter-core/domain/model"
	"autoposter-core/domain/repository"
)

// PostRepository implements the append-only post log on PostgreSQL.
type PostRepository struct{ db *sql.DB }

func NewPostRepository(db *sql.DB) repository.IPost { return &PostRepository{db: db} }

func (r *PostRepository) CreatePost(ctx context.Context, rec *model.PostRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	var userID sql.NullString
	if rec.UserID != "" {
		userID = sql.NullString{String: rec.UserID, Valid: true}
	}
	q := `INSERT INTO posts (user_id, filename, platform, status, response, created_at)
		  VALUES ($1,$2,$3,$4,$5,$6) RETURNING id`
	if err := r.db.QueryRowContext(ctx, q, userID, rec.Filename, rec.Platform, rec.Status, rec.Response, rec.CreatedAt).Scan(&rec.ID); err != nil {
		return fmt.Errorf("%w: %v", model.ErrStorageUnavailable, err)
	}
	return nil
}

func (r *PostRepository) GetByUser(ctx context.Context, userID string, limit int) ([]*model.PostRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `SELECT id, user_id, filename, platform, status, response, created_at
		FROM posts WHERE user_id=$1 ORDER BY created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*model.PostRecord
	for rows.Next() {
		rec := &model.PostRecord{}
		var uid, resp sql.NullString
		if err := rows.Scan(&rec.ID, &uid, &rec.Filename, &rec.Platform, &rec.Status, &resp, &rec.CreatedAt); err != nil {
			return nil, err
		}
		if uid.Valid {
			rec.UserID = uid.String
		}
		if resp.Valid {
			rec.Response = resp.String
		}
		list = append(list, rec)
	}
	return list, rows.Err()
}
