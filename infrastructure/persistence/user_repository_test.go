package persistence

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"autoposter-core/domain/model"
)

func TestUserRepository_GetById(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repository := NewUserRepository(db)

	createdAt := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	updatedAt := createdAt

	mock.ExpectPrepare(regexp.QuoteMeta(`SELECT u.id, u.name, u.user_name, u.password, u.created_at, u.updated_at
	FROM users AS u
	WHERE u.id = $1`)).
		ExpectQuery().WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "user_name", "password", "created_at", "updated_at"}).
			AddRow(1, "Tulus", "tulus", "$2a$10$hash", createdAt, updatedAt))

	res, err := repository.GetById(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, model.User{
		ID:        1,
		Name:      "Tulus",
		UserName:  "tulus",
		Password:  "$2a$10$hash",
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, res)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByUserName(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repository := NewUserRepository(db)

	createdAt := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectPrepare(regexp.QuoteMeta(`SELECT u.id, u.name, u.user_name, u.password, u.created_at, u.updated_at
	FROM users AS u
	WHERE u.user_name = $1`)).
		ExpectQuery().WithArgs("tulus").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "user_name", "password", "created_at", "updated_at"}).
			AddRow(1, "Tulus", "tulus", "$2a$10$hash", createdAt, createdAt))

	res, err := repository.GetByUserName(context.Background(), "tulus")
	require.NoError(t, err)
	require.Equal(t, "tulus", res.UserName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_CreateUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repository := NewUserRepository(db)

	mock.ExpectPrepare(regexp.QuoteMeta(`INSERT INTO users (name, user_name, password) VALUES ($1, $2, $3)`)).
		ExpectExec().WithArgs("Tulus", "tulus", "$2a$10$hash").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = repository.CreateUser(context.Background(), model.User{
		Name:     "Tulus",
		UserName: "tulus",
		Password: "$2a$10$hash",
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
