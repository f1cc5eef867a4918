package service

import (
	"errors"
	"time"

	"github.com/taskgate/taskgate/internal/config"
	"github.com/taskgate/taskgate/internal/model"
	"github.com/taskgate/taskgate/internal/oauth"
	"github.com/taskgate/taskgate/internal/scope"
	"github.com/taskgate/taskgate/internal/utils"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type TokenServiceConfig struct {
	AccessTokenExpiry  int // seconds
	RefreshTokenExpiry int // seconds
}

type TokenService struct {
	config   TokenServiceConfig
	database *gorm.DB
}

func NewTokenService(config TokenServiceConfig, database *gorm.DB) *TokenService {
	return &TokenService{
		config:   config,
		database: database,
	}
}

// TokenPair is what the token endpoint hands back: both opaque values plus
// the plain-text scope they carry.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	Scope        string
	ExpiresIn    int
}

type RefreshRequest struct {
	RefreshToken string
	ClientID     string
	Scope        string // optional; may only narrow the current scope
}

type RevokeRequest struct {
	Token         string
	TokenTypeHint string
	ClientID      string
}

func (ts *TokenService) AccessTokenExpiry() int {
	if ts.config.AccessTokenExpiry <= 0 {
		return 900 // 15 minutes
	}
	return ts.config.AccessTokenExpiry
}

func (ts *TokenService) RefreshTokenExpiry() int {
	if ts.config.RefreshTokenExpiry <= 0 {
		return 30 * 24 * 3600 // 30 days
	}
	return ts.config.RefreshTokenExpiry
}

// MintPair creates a fresh access/refresh token pair sharing one scope,
// within the caller's transaction so code exchange and rotation stay atomic.
func (ts *TokenService) MintPair(tx *gorm.DB, clientID string, userID string, workspaceID string, scopeString string) (*TokenPair, error) {
	accessValue, err := utils.GenerateOpaqueToken()
	if err != nil {
		return nil, err
	}

	refreshValue, err := utils.GenerateOpaqueToken()
	if err != nil {
		return nil, err
	}

	now := time.Now().Unix()

	accessToken := model.AccessToken{
		ID:          uuid.New().String(),
		TokenHash:   utils.HashToken(accessValue),
		ClientID:    clientID,
		UserID:      userID,
		WorkspaceID: workspaceID,
		Scope:       scopeString,
		ExpiresAt:   now + int64(ts.AccessTokenExpiry()),
		CreatedAt:   now,
	}

	if err := tx.Create(&accessToken).Error; err != nil {
		return nil, err
	}

	refreshToken := model.RefreshToken{
		ID:            uuid.New().String(),
		TokenHash:     utils.HashToken(refreshValue),
		AccessTokenID: accessToken.ID,
		ClientID:      clientID,
		UserID:        userID,
		WorkspaceID:   workspaceID,
		Scope:         scopeString,
		ExpiresAt:     now + int64(ts.RefreshTokenExpiry()),
		CreatedAt:     now,
	}

	if err := tx.Create(&refreshToken).Error; err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessValue,
		RefreshToken: refreshValue,
		Scope:        scopeString,
		ExpiresIn:    ts.AccessTokenExpiry(),
	}, nil
}

// Refresh rotates a refresh token: the old token is revoked and linked to
// its replacement in the same transaction that mints the new pair, so a
// concurrent second use of the stale token always fails.
func (ts *TokenService) Refresh(request RefreshRequest) (*TokenPair, error) {
	var current model.RefreshToken
	err := ts.database.Where("token_hash = ?", utils.HashToken(request.RefreshToken)).First(&current).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, oauth.InvalidGrant("refresh token is invalid")
		}
		return nil, err
	}

	now := time.Now().Unix()

	if current.RevokedAt != nil || current.ExpiresAt <= now {
		return nil, oauth.InvalidGrant("refresh token is revoked or expired")
	}

	if current.ClientID != request.ClientID {
		return nil, oauth.InvalidClient("client mismatch")
	}

	newScope := current.Scope

	if request.Scope != "" {
		granted, err := scope.Parse(current.Scope)
		if err != nil {
			return nil, err
		}

		requested, err := scope.Parse(request.Scope)
		if err != nil {
			return nil, err
		}

		// Scope can only shrink on refresh, never grow.
		if !scope.IsSubset(requested.Scopes, granted.Scopes) {
			return nil, oauth.InvalidScope("requested scope exceeds the granted scope")
		}

		newScope = requested.String()
	}

	var pair *TokenPair

	err = ts.database.Transaction(func(tx *gorm.DB) error {
		minted, err := ts.MintPair(tx, current.ClientID, current.UserID, current.WorkspaceID, newScope)
		if err != nil {
			return err
		}

		var replacement model.RefreshToken
		if err := tx.Where("token_hash = ?", utils.HashToken(minted.RefreshToken)).First(&replacement).Error; err != nil {
			return err
		}

		// Guard column: only one rotation of this token can ever win.
		result := tx.Model(&model.RefreshToken{}).
			Where("id = ? AND revoked_at IS NULL", current.ID).
			Updates(map[string]interface{}{
				"revoked_at":           now,
				"replaced_by_token_id": replacement.ID,
			})

		if result.Error != nil {
			return result.Error
		}

		if result.RowsAffected != 1 {
			return oauth.InvalidGrant("refresh token is revoked or expired")
		}

		pair = minted
		return nil
	})

	if err != nil {
		return nil, err
	}

	log.Debug().Str("client_id", current.ClientID).Str("workspace_id", current.WorkspaceID).Msg("Rotated refresh token")

	return pair, nil
}

// Revoke implements RFC 7009 semantics: unknown or foreign tokens are
// silently ignored so the endpoint never leaks whether a token exists.
func (ts *TokenService) Revoke(request RevokeRequest) error {
	tokenHash := utils.HashToken(request.Token)

	if request.TokenTypeHint != oauth.TokenTypeHintRefreshToken {
		revoked, err := ts.revokeAccessToken(tokenHash, request.ClientID)
		if err != nil {
			return err
		}
		if revoked || request.TokenTypeHint == oauth.TokenTypeHintAccessToken {
			return nil
		}
	}

	_, err := ts.revokeRefreshToken(tokenHash, request.ClientID)
	return err
}

func (ts *TokenService) revokeAccessToken(tokenHash string, clientID string) (bool, error) {
	var token model.AccessToken
	err := ts.database.Where("token_hash = ?", tokenHash).First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}

	// A mismatched client gets the same silence as a missing token.
	if clientID != "" && token.ClientID != clientID {
		return true, nil
	}

	if token.RevokedAt != nil {
		return true, nil
	}

	now := time.Now().Unix()
	err = ts.database.Model(&model.AccessToken{}).
		Where("id = ? AND revoked_at IS NULL", token.ID).
		Update("revoked_at", now).Error
	return true, err
}

func (ts *TokenService) revokeRefreshToken(tokenHash string, clientID string) (bool, error) {
	var token model.RefreshToken
	err := ts.database.Where("token_hash = ?", tokenHash).First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}

	if clientID != "" && token.ClientID != clientID {
		return true, nil
	}

	now := time.Now().Unix()

	return true, ts.database.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.RefreshToken{}).
			Where("id = ? AND revoked_at IS NULL", token.ID).
			Update("revoked_at", now).Error; err != nil {
			return err
		}

		// Invalidate the access token minted alongside it as well.
		return tx.Model(&model.AccessToken{}).
			Where("id = ? AND revoked_at IS NULL", token.AccessTokenID).
			Update("revoked_at", now).Error
	})
}

// Authenticate resolves a bearer token into the auth context for a tool
// call. The stored scope is re-validated and cross-checked against the
// token's bound workspace as a defense against row tampering.
func (ts *TokenService) Authenticate(token string) (*config.AuthContext, error) {
	var accessToken model.AccessToken
	err := ts.database.Where("token_hash = ?", utils.HashToken(token)).First(&accessToken).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, oauth.InvalidToken("access token is invalid")
		}
		return nil, err
	}

	if accessToken.RevokedAt != nil || accessToken.ExpiresAt <= time.Now().Unix() {
		return nil, oauth.InvalidToken("access token is revoked or expired")
	}

	parsed, err := scope.Parse(accessToken.Scope)
	if err != nil {
		return nil, oauth.InvalidToken("access token carries an invalid scope")
	}

	if parsed.WorkspaceID != accessToken.WorkspaceID {
		return nil, oauth.InvalidToken("access token workspace mismatch")
	}

	return &config.AuthContext{
		UserID:      accessToken.UserID,
		WorkspaceID: accessToken.WorkspaceID,
		ClientID:    accessToken.ClientID,
		Scopes:      parsed.Scopes,
		ToolNames:   parsed.ToolNames,
	}, nil
}

// EnsureToolAllowed gates a single tool call against the token's tool
// scopes.
func (ts *TokenService) EnsureToolAllowed(authContext *config.AuthContext, toolName string) error {
	for _, tool := range authContext.ToolNames {
		if tool == toolName {
			return nil
		}
	}
	return oauth.InsufficientScope("token is not granted the " + toolName + " tool")
}

// UpdateScopeForTriple rewrites the scope in place on every live token of a
// (user, workspace, client) triple. Used when a consent's tool scopes are
// edited so the next tool call already sees the new scope.
func (ts *TokenService) UpdateScopeForTriple(tx *gorm.DB, userID string, workspaceID string, clientID string, scopeString string) error {
	err := tx.Model(&model.AccessToken{}).
		Where("user_id = ? AND workspace_id = ? AND client_id = ? AND revoked_at IS NULL", userID, workspaceID, clientID).
		Update("scope", scopeString).Error
	if err != nil {
		return err
	}

	return tx.Model(&model.RefreshToken{}).
		Where("user_id = ? AND workspace_id = ? AND client_id = ? AND revoked_at IS NULL", userID, workspaceID, clientID).
		Update("scope", scopeString).Error
}

// RevokeAllForTriple revokes every live token of a triple. Used by the
// consent revocation cascade.
func (ts *TokenService) RevokeAllForTriple(tx *gorm.DB, userID string, workspaceID string, clientID string) error {
	now := time.Now().Unix()

	err := tx.Model(&model.AccessToken{}).
		Where("user_id = ? AND workspace_id = ? AND client_id = ? AND revoked_at IS NULL", userID, workspaceID, clientID).
		Update("revoked_at", now).Error
	if err != nil {
		return err
	}

	return tx.Model(&model.RefreshToken{}).
		Where("user_id = ? AND workspace_id = ? AND client_id = ? AND revoked_at IS NULL", userID, workspaceID, clientID).
		Update("revoked_at", now).Error
}

// ReapExpired purges rows that can no longer authenticate anything. Expiry
// is enforced at read time, so this is storage hygiene, not safety.
func (ts *TokenService) ReapExpired() error {
	now := time.Now().Unix()

	if err := ts.database.Where("expires_at <= ? OR used_at IS NOT NULL", now).Delete(&model.AuthorizationCode{}).Error; err != nil {
		return err
	}

	if err := ts.database.Where("expires_at <= ?", now).Delete(&model.AccessToken{}).Error; err != nil {
		return err
	}

	return ts.database.Where("expires_at <= ?", now).Delete(&model.RefreshToken{}).Error
}
