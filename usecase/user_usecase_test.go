package usecase_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"autoposter-core/domain/model"
	"autoposter-core/infrastructure/configuration"
	"autoposter-core/usecase"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetById(ctx context.Context, id int) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserRepository) GetByUserName(ctx context.Context, userName string) (model.User, error) {
	args := m.Called(ctx, userName)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserRepository) CreateUser(ctx context.Context, user model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func withSecret(t *testing.T) {
	prev := configuration.C.App.SecretKey
	configuration.C.App.SecretKey = "test-secret"
	t.Cleanup(func() { configuration.C.App.SecretKey = prev })
}

func parseClaims(t *testing.T, tokenString string) model.UserClaims {
	var claims model.UserClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)
	return claims
}

func TestUserUsecase_Register(t *testing.T) {
	withSecret(t)
	users := new(MockUserRepository)

	users.On("GetByUserName", mock.Anything, "tulus").Return(model.User{}, sql.ErrNoRows).Once()
	users.On("CreateUser", mock.Anything, mock.MatchedBy(func(u model.User) bool {
		// The password must be stored hashed, never verbatim.
		return u.UserName == "tulus" && u.Password != "secret123" &&
			bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("secret123")) == nil
	})).Return(nil).Once()
	users.On("GetByUserName", mock.Anything, "tulus").
		Return(model.User{ID: 7, UserName: "tulus"}, nil).Once()

	uc := usecase.NewUserUsecase(users)
	res, err := uc.Register(context.Background(), model.ReqRegister{UserName: "tulus", Password: "secret123"})

	require.NoError(t, err)
	assert.Equal(t, "Bearer", res.TokenType)
	assert.Equal(t, "tulus", res.UserName)

	claims := parseClaims(t, res.AccessToken)
	assert.Equal(t, "7", claims.Issuer)
	assert.Equal(t, "tulus", claims.UserName)
	users.AssertExpectations(t)
}

func TestUserUsecase_Register_UserExists(t *testing.T) {
	withSecret(t)
	users := new(MockUserRepository)

	users.On("GetByUserName", mock.Anything, "tulus").Return(model.User{ID: 7, UserName: "tulus"}, nil)

	uc := usecase.NewUserUsecase(users)
	_, err := uc.Register(context.Background(), model.ReqRegister{UserName: "tulus", Password: "secret123"})

	assert.ErrorIs(t, err, usecase.ErrUserExists)
	users.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
}

func TestUserUsecase_Login(t *testing.T) {
	withSecret(t)
	users := new(MockUserRepository)

	hashed, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	users.On("GetByUserName", mock.Anything, "tulus").
		Return(model.User{ID: 7, UserName: "tulus", Password: string(hashed)}, nil)

	uc := usecase.NewUserUsecase(users)
	res, err := uc.Login(context.Background(), model.ReqLogin{UserName: "tulus", Password: "secret123"})

	require.NoError(t, err)
	claims := parseClaims(t, res.AccessToken)
	assert.Equal(t, "7", claims.Issuer)
}

func TestUserUsecase_Login_WrongPassword(t *testing.T) {
	withSecret(t)
	users := new(MockUserRepository)

	hashed, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	users.On("GetByUserName", mock.Anything, "tulus").
		Return(model.User{ID: 7, UserName: "tulus", Password: string(hashed)}, nil)

	uc := usecase.NewUserUsecase(users)
	_, err = uc.Login(context.Background(), model.ReqLogin{UserName: "tulus", Password: "nope"})

	assert.ErrorIs(t, err, usecase.ErrInvalidCredentials)
}

func TestUserUsecase_Login_UnknownUser(t *testing.T) {
	withSecret(t)
	users := new(MockUserRepository)

	users.On("GetByUserName", mock.Anything, "ghost").Return(model.User{}, sql.ErrNoRows)

	uc := usecase.NewUserUsecase(users)
	_, err := uc.Login(context.Background(), model.ReqLogin{UserName: "ghost", Password: "secret123"})

	assert.ErrorIs(t, err, usecase.ErrInvalidCredentials)
}
