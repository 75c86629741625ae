package persistence

import (
	"context"
	"database/sql"
	"time"

	"autoposter-core/domain/model"
	"autoposter-core/domain/repository"
)

// OAuthTokenRepositoryMSSQL stores platform tokens on SQL Server using a
// MERGE upsert keyed on (user_id, platform).
type OAuthTokenRepositoryMSSQL struct{ db *sql.DB }

func NewOAuthTokenRepositoryMSSQL(db *sql.DB) repository.IOAuthToken {
	return &OAuthTokenRepositoryMSSQL{db: db}
}

func (r *OAuthTokenRepositoryMSSQL) UpsertToken(ctx context.Context, t *model.OAuthToken) error {
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	q := `MERGE dbo.[oauth_tokens] AS target
		  USING (SELECT @p1 AS user_id, @p2 AS platform) AS source
		  ON target.user_id = source.user_id AND target.platform = source.platform
		  WHEN MATCHED THEN UPDATE SET
			access_token=@p3, refresh_token=@p4, expires_at=@p5, scopes=@p6, updated_at=@p8
		  WHEN NOT MATCHED THEN INSERT (user_id, platform, access_token, refresh_token, expires_at, scopes, created_at, updated_at)
			VALUES (@p1, @p2, @p3, @p4, @p5, @p6, @p7, @p8);`
	_, err := r.db.ExecContext(ctx, q, t.UserID, t.Platform, t.AccessToken, t.RefreshToken, t.ExpiresAt, t.Scopes, t.CreatedAt, t.UpdatedAt)
	return err
}

func (r *OAuthTokenRepositoryMSSQL) GetToken(ctx context.Context, userID, platform string) (*model.OAuthToken, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, user_id, platform, access_token, refresh_token, expires_at, scopes, created_at, updated_at FROM dbo.[oauth_tokens] WHERE user_id=@p1 AND platform=@p2`, userID, platform)
	tok := &model.OAuthToken{}
	var exp sql.NullTime
	if err := row.Scan(&tok.ID, &tok.UserID, &tok.Platform, &tok.AccessToken, &tok.RefreshToken, &exp, &tok.Scopes, &tok.CreatedAt, &tok.UpdatedAt); err != nil {
		return nil, err
	}
	if exp.Valid {
		tok.ExpiresAt = &exp.Time
	}
	return tok, nil
}
