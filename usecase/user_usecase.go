package usecase

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt"
	"golang.org/x/crypto/bcrypt"

	"autoposter-core/domain/dto"
	"autoposter-core/domain/model"
	"autoposter-core/domain/repository"
	"autoposter-core/infrastructure/configuration"
	"autoposter-core/infrastructure/logger"
)

var (
	ErrUserExists         = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

type IUserUsecase interface {
	Register(ctx context.Context, req model.ReqRegister) (*dto.AuthResponse, error)
	Login(ctx context.Context, req model.ReqLogin) (*dto.AuthResponse, error)
	GetById(ctx context.Context, id int) (model.User, error)
}

type UserUsecase struct {
	userRepository repository.IUser
}

func NewUserUsecase(userRepository repository.IUser) IUserUsecase {
	return &UserUsecase{userRepository: userRepository}
}

// Register creates the account and logs the user straight in.
func (u *UserUsecase) Register(ctx context.Context, req model.ReqRegister) (*dto.AuthResponse, error) {
	if _, err := u.userRepository.GetByUserName(ctx, req.UserName); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, sql.ErrNoRows) {
		logger.GetLogger().WithField("error", err).Error("Error checking existing user")
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := model.User{
		Name:     req.Name,
		UserName: req.UserName,
		Password: string(hashed),
	}
	if err := u.userRepository.CreateUser(ctx, user); err != nil {
		logger.GetLogger().WithField("error", err).Error("Error creating user")
		return nil, err
	}

	created, err := u.userRepository.GetByUserName(ctx, req.UserName)
	if err != nil {
		return nil, err
	}
	return u.issueToken(created)
}

// Login verifies the password and issues a fresh bearer token.
func (u *UserUsecase) Login(ctx context.Context, req model.ReqLogin) (*dto.AuthResponse, error) {
	user, err := u.userRepository.GetByUserName(ctx, req.UserName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		logger.GetLogger().WithField("error", err).Error("Error fetching user")
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u.issueToken(user)
}

func (u *UserUsecase) GetById(ctx context.Context, id int) (model.User, error) {
	return u.userRepository.GetById(ctx, id)
}

func (u *UserUsecase) issueToken(user model.User) (*dto.AuthResponse, error) {
	now := time.Now()
	claims := model.UserClaims{
		UserName: user.UserName,
		StandardClaims: jwt.StandardClaims{
			Issuer:    strconv.Itoa(user.ID),
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(24 * time.Hour).Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(configuration.C.App.SecretKey))
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error signing token")
		return nil, err
	}
	return &dto.AuthResponse{
		AccessToken: signed,
		TokenType:   "Bearer",
		UserName:    user.UserName,
	}, nil
}
