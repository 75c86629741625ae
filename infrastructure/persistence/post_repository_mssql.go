package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"autoposter-core/domain/model"
	"autoposter-core/domain/repository"
)

// PostRepositoryMSSQL implements the append-only post log on SQL Server.
type PostRepositoryMSSQL struct{ db *sql.DB }

func NewPostRepositoryMSSQL(db *sql.DB) repository.IPost { return &PostRepositoryMSSQL{db: db} }

func (r *PostRepositoryMSSQL) CreatePost(ctx context.Context, rec *model.PostRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	var userID sql.NullString
	if rec.UserID != "" {
		userID = sql.NullString{String: rec.UserID, Valid: true}
	}
	q := `INSERT INTO dbo.[posts] (user_id, filename, platform, status, response, created_at)
		  OUTPUT INSERTED.id VALUES (@p1, @p2, @p3, @p4, @p5, @p6)`
	if err := r.db.QueryRowContext(ctx, q, userID, rec.Filename, rec.Platform, rec.Status, rec.Response, rec.CreatedAt).Scan(&rec.ID); err != nil {
		return fmt.Errorf("%w: %v", model.ErrStorageUnavailable, err)
	}
	return nil
}

func (r *PostRepositoryMSSQL) GetByUser(ctx context.Context, userID string, limit int) ([]*model.PostRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `SELECT TOP (@p2) id, user_id, filename, platform, status, response, created_at
		FROM dbo.[posts] WHERE user_id=@p1 ORDER BY created_at DESC`, userID, limit)
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
