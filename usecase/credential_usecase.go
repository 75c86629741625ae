package usecase

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"autoposter-core/domain/model"
	"autoposter-core/domain/repository"
	"autoposter-core/infrastructure/logger"
)

// refreshMargin is how long before expiry a stored token is refreshed, so an
// upload never starts with a token about to lapse mid-publish.
const refreshMargin = 5 * time.Minute

// ITokenRefresher trades a refresh token for a fresh access token.
// *tiktok.OAuthClient satisfies it; a nil refresher disables refreshing.
type ITokenRefresher interface {
	RefreshToken(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

type ICredentialUsecase interface {
	// Resolve returns a usable access token for the caller: their stored
	// platform token (refreshed when close to expiry), falling back to the
	// process-wide static token, or ErrNotLinked.
	Resolve(ctx context.Context, userID string) (*oauth2.Token, error)
	SaveToken(ctx context.Context, userID string, tok *oauth2.Token, scopes string) error
	Linked(ctx context.Context, userID string) bool
}

type CredentialUsecase struct {
	tokenRepository repository.IOAuthToken
	refresher       ITokenRefresher
	staticToken     string

	mu        sync.Mutex
	userLocks map[string]*sync.Mutex
}

func NewCredentialUsecase(tokenRepository repository.IOAuthToken, refresher ITokenRefresher, staticToken string) ICredentialUsecase {
	return &CredentialUsecase{
		tokenRepository: tokenRepository,
		refresher:       refresher,
		staticToken:     staticToken,
		userLocks:       map[string]*sync.Mutex{},
	}
}

func (u *CredentialUsecase) Resolve(ctx context.Context, userID string) (*oauth2.Token, error) {
	if userID == "" {
		userID = model.StaticTokenUserID
	}

	if userID != model.StaticTokenUserID {
		stored, err := u.tokenRepository.GetToken(ctx, userID, model.PlatformTikTok)
		switch {
		case err == nil:
			return u.freshen(ctx, userID, stored)
		case errors.Is(err, sql.ErrNoRows):
			// not linked; fall through to the static token
		default:
			return nil, fmt.Errorf("%w: %v", model.ErrStorageUnavailable, err)
		}
	}

	if u.staticToken != "" {
		return &oauth2.Token{AccessToken: u.staticToken, TokenType: "Bearer"}, nil
	}
	if userID == model.StaticTokenUserID {
		return nil, model.ErrMissingToken
	}
	return nil, model.ErrNotLinked
}

// freshen returns the stored token as-is when it has life left, otherwise
// refreshes it. Refreshes for the same user are serialized so concurrent
// uploads cannot both burn the single-use refresh token.
func (u *CredentialUsecase) freshen(ctx context.Context, userID string, stored *model.OAuthToken) (*oauth2.Token, error) {
	if !expiringSoon(stored) {
		return asOAuth2Token(stored), nil
	}

	lock := u.lockFor(userID)
	lock.Lock()
	defer lock.Unlock()

	// Another request may have refreshed while we waited for the lock.
	current, err := u.tokenRepository.GetToken(ctx, userID, model.PlatformTikTok)
	if err == nil {
		stored = current
	}
	if !expiringSoon(stored) {
		return asOAuth2Token(stored), nil
	}

	if u.refresher == nil || stored.RefreshToken == "" {
		if expired(stored) {
			return nil, fmt.Errorf("%w: token expired and no refresh is possible", model.ErrCredentialRefresh)
		}
		// Close to expiry but still valid; use it rather than fail.
		return asOAuth2Token(stored), nil
	}

	fresh, err := u.refresher.RefreshToken(ctx, stored.RefreshToken)
	if err != nil {
		logger.GetLogger().WithField("error", err).WithField("user_id", userID).Error("Token refresh failed")
		return nil, fmt.Errorf("%w: %v", model.ErrCredentialRefresh, err)
	}

	// Some refreshes rotate the refresh token, some keep it.
	if fresh.RefreshToken == "" {
		fresh.RefreshToken = stored.RefreshToken
	}
	if err := u.SaveToken(ctx, userID, fresh, stored.Scopes); err != nil {
		logger.GetLogger().WithField("error", err).WithField("user_id", userID).Error("Error persisting refreshed token")
		return nil, fmt.Errorf("%w: %v", model.ErrCredentialRefresh, err)
	}
	return fresh, nil
}

func (u *CredentialUsecase) SaveToken(ctx context.Context, userID string, tok *oauth2.Token, scopes string) error {
	rec := &model.OAuthToken{
		UserID:       userID,
		Platform:     model.PlatformTikTok,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Scopes:       scopes,
	}
	if !tok.Expiry.IsZero() {
		exp := tok.Expiry
		rec.ExpiresAt = &exp
	}
	return u.tokenRepository.UpsertToken(ctx, rec)
}

func (u *CredentialUsecase) Linked(ctx context.Context, userID string) bool {
	if userID == "" {
		return false
	}
	_, err := u.tokenRepository.GetToken(ctx, userID, model.PlatformTikTok)
	return err == nil
}

func (u *CredentialUsecase) lockFor(userID string) *sync.Mutex {
	u.mu.Lock()
	defer u.mu.Unlock()
	lock, ok := u.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		u.userLocks[userID] = lock
	}
	return lock
}

func expiringSoon(t *model.OAuthToken) bool {
	return t.ExpiresAt != nil && time.Until(*t.ExpiresAt) < refreshMargin
}

func expired(t *model.OAuthToken) bool {
	return t.ExpiresAt != nil && time.Now().After(*t.ExpiresAt)
}

func asOAuth2Token(t *model.OAuthToken) *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    "Bearer",
	}
	if t.ExpiresAt != nil {
		tok.Expiry = *t.ExpiresAt
	}
	return tok
}
