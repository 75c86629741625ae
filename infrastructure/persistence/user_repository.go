package persistence

import (
	"context"
	"database/sql"

	"autoposter-core/domain/model"
	"autoposter-core/domain/repository"
	"autoposter-core/infrastructure/logger"
)

// UserRepository is a PostgreSQL implementation of IUser using database/sql.
type UserRepository struct{ db *sql.DB }

func NewUserRepository(db *sql.DB) repository.IUser { return &UserRepository{db} }

func (r *UserRepository) GetById(ctx context.Context, id int) (model.User, error) {
	var u model.User
	stmt, err := r.db.PrepareContext(ctx, `SELECT u.id, u.name, u.user_name, u.password, u.created_at, u.updated_at
	FROM users AS u
	WHERE u.id = $1`)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("psql: prepare user by id failed")
		return u, err
	}
	defer stmt.Close()
	if err := stmt.QueryRowContext(ctx, id).Scan(&u.ID, &u.Name, &u.UserName, &u.Password, &u.CreatedAt, &u.UpdatedAt); err != nil {
		logger.GetLogger().WithField("error", err).Error("psql: query user by id failed")
		return model.User{}, err
	}
	return u, nil
}

func (r *UserRepository) GetByUserName(ctx context.Context, userName string) (model.User, error) {
	var u model.User
	stmt, err := r.db.PrepareContext(ctx, `SELECT u.id, u.name, u.user_name, u.password, u.created_at, u.updated_at
	FROM users AS u
	WHERE u.user_name = $1`)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("psql: prepare user by username failed")
		return u, err
	}
	defer stmt.Close()
	if err := stmt.QueryRowContext(ctx, userName).Scan(&u.ID, &u.Name, &u.UserName, &u.Password, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return model.User{}, err
	}
	return u, nil
}

func (r *UserRepository) CreateUser(ctx context.Context, user model.User) error {
	stmt, err := r.db.PrepareContext(ctx, `INSERT INTO users (name, user_name, password) VALUES ($1, $2, $3)`)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("psql: prepare create user failed")
		return err
	}
	defer stmt.Close()
	if _, err := stmt.ExecContext(ctx, user.Name, user.UserName, user.Password); err != nil {
		logger.GetLogger().WithFields(map[string]interface{}{
			"error":     err,
			"user_name": user.UserName,
		}).Error("psql: create user failed")
		return err
	}
	return nil
}
