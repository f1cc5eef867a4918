package service

import (
	"errors"
	"time"

	"github.com/taskgate/taskgate/internal/config"
	"github.com/taskgate/taskgate/internal/model"
	"github.com/taskgate/taskgate/internal/oauth"
	"github.com/taskgate/taskgate/internal/scope"
	"github.com/taskgate/taskgate/internal/utils"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type AuthorizeServiceConfig struct {
	CodeExpiry int // seconds
}

// AuthorizeService validates authorization requests and issues/exchanges
// the one-time authorization codes that bridge human approval and token
// issuance.
type AuthorizeService struct {
	config     AuthorizeServiceConfig
	database   *gorm.DB
	clients    *ClientService
	consents   *ConsentService
	tokens     *TokenService
	workspaces RoleProvider
}

func NewAuthorizeService(config AuthorizeServiceConfig, database *gorm.DB, clients *ClientService, consents *ConsentService, tokens *TokenService, workspaces RoleProvider) *AuthorizeService {
	return &AuthorizeService{
		config:     config,
		database:   database,
		clients:    clients,
		consents:   consents,
		tokens:     tokens,
		workspaces: workspaces,
	}
}

// AuthorizeRequest carries the /authorize query parameters. WorkspaceID is
// the approval-time selection used when the requested workspace scope was a
// template placeholder.
type AuthorizeRequest struct {
	ResponseType        string `form:"response_type" url:"response_type"`
	ClientID            string `form:"client_id" url:"client_id"`
	RedirectURI         string `form:"redirect_uri" url:"redirect_uri"`
	Scope               string `form:"scope" url:"scope"`
	State               string `form:"state" url:"state,omitempty"`
	CodeChallenge       string `form:"code_challenge" url:"code_challenge"`
	CodeChallengeMethod string `form:"code_challenge_method" url:"code_challenge_method"`
	WorkspaceID         string `form:"workspace_id" url:"workspace_id,omitempty"`
}

type ExchangeRequest struct {
	Code         string
	ClientID     string
	RedirectURI  string
	CodeVerifier string
}

func (as *AuthorizeService) CodeExpiry() int {
	if as.config.CodeExpiry <= 0 {
		return 300 // 5 minutes
	}
	return as.config.CodeExpiry
}

// ValidateRequest checks the protocol parameters of an authorization
// request. Client and redirect URI resolution is a separate step
// (ValidateClientRedirect) so the caller can render a meaningful error page
// before any consent UI.
func (as *AuthorizeService) ValidateRequest(request AuthorizeRequest) (*scope.Parsed, error) {
	if request.ResponseType != oauth.ResponseTypeCode {
		return nil, oauth.UnsupportedResponseType("only the code response type is supported")
	}

	if request.ClientID == "" {
		return nil, oauth.InvalidRequest("client_id is required")
	}

	if request.RedirectURI == "" {
		return nil, oauth.InvalidRequest("redirect_uri is required")
	}

	if request.CodeChallenge == "" {
		return nil, oauth.InvalidRequest("code_challenge is required")
	}

	if request.CodeChallengeMethod != oauth.CodeChallengeMethodS256 {
		return nil, oauth.InvalidRequest("code_challenge_method must be S256")
	}

	return scope.Parse(request.Scope)
}

// ValidateClientRedirect loads the client and checks the redirect URI
// against its registered set.
func (as *AuthorizeService) ValidateClientRedirect(clientID string, redirectURI string) (*model.Client, error) {
	client, err := as.clients.GetClient(clientID)
	if err != nil {
		return nil, err
	}

	if !as.clients.ValidateRedirectURI(client, redirectURI) {
		return nil, oauth.InvalidRequest("redirect_uri is not registered for this client")
	}

	return client, nil
}

// Approve runs the post-consent half of the authorization flow for an
// authenticated human: resolves the workspace, enforces the owner/admin
// role, upserts the consent and issues a one-time code. Only the code's
// hash is stored.
func (as *AuthorizeService) Approve(identity config.IdentityContext, request AuthorizeRequest) (string, error) {
	parsed, err := as.ValidateRequest(request)
	if err != nil {
		return "", err
	}

	client, err := as.ValidateClientRedirect(request.ClientID, request.RedirectURI)
	if err != nil {
		return "", err
	}

	workspaceID := parsed.WorkspaceID
	if workspaceID == "" {
		// Templated workspace scope: the approval step picks the workspace.
		workspaceID = request.WorkspaceID
	}

	if workspaceID == "" {
		return "", oauth.InvalidRequest("workspace could not be resolved")
	}

	role, err := as.workspaces.Role(workspaceID, identity.UserID)
	if err != nil {
		return "", err
	}

	if !CanAuthorize(role) {
		return "", oauth.AccessDenied("authorizing an agent requires the owner or admin role")
	}

	resolved := parsed.Resolve(workspaceID)

	code, err := utils.GenerateOpaqueToken()
	if err != nil {
		return "", err
	}

	now := time.Now().Unix()

	err = as.database.Transaction(func(tx *gorm.DB) error {
		if _, err := as.consents.Upsert(tx, identity.UserID, workspaceID, client.ID, resolved.Scopes, role); err != nil {
			return err
		}

		authCode := model.AuthorizationCode{
			CodeHash:            utils.HashToken(code),
			ClientID:            client.ID,
			UserID:              identity.UserID,
			WorkspaceID:         workspaceID,
			RedirectURI:         request.RedirectURI,
			Scope:               resolved.String(),
			CodeChallenge:       request.CodeChallenge,
			CodeChallengeMethod: request.CodeChallengeMethod,
			ExpiresAt:           now + int64(as.CodeExpiry()),
			CreatedAt:           now,
		}

		return tx.Create(&authCode).Error
	})

	if err != nil {
		return "", err
	}

	log.Info().Str("client_id", client.ID).Str("workspace_id", workspaceID).Str("role", role).Msg("Issued authorization code")

	return code, nil
}

// Exchange redeems a one-time code for a token pair. The whole sequence
// runs in a single transaction; the used_at guard is checked and set inside
// it, so two concurrent exchanges of the same code produce exactly one
// success.
func (as *AuthorizeService) Exchange(request ExchangeRequest) (*TokenPair, error) {
	var pair *TokenPair

	err := as.database.Transaction(func(tx *gorm.DB) error {
		var authCode model.AuthorizationCode
		err := tx.Where("code_hash = ?", utils.HashToken(request.Code)).First(&authCode).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return oauth.InvalidGrant("authorization code is invalid")
			}
			return err
		}

		now := time.Now().Unix()

		if authCode.UsedAt != nil || authCode.ExpiresAt <= now {
			return oauth.InvalidGrant("authorization code is used or expired")
		}

		client, err := as.clients.GetClient(authCode.ClientID)
		if err != nil {
			return err
		}

		if client.ID != request.ClientID {
			return oauth.InvalidClient("client mismatch")
		}

		if authCode.RedirectURI != request.RedirectURI {
			return oauth.InvalidGrant("redirect_uri mismatch")
		}

		if !utils.VerifyPKCE(authCode.CodeChallenge, request.CodeVerifier) {
			return oauth.InvalidGrant("code verifier does not match the challenge")
		}

		// Replay guard: only one exchange can flip used_at.
		result := tx.Model(&model.AuthorizationCode{}).
			Where("code_hash = ? AND used_at IS NULL", authCode.CodeHash).
			Update("used_at", now)

		if result.Error != nil {
			return result.Error
		}

		if result.RowsAffected != 1 {
			return oauth.InvalidGrant("authorization code is used or expired")
		}

		minted, err := as.tokens.MintPair(tx, authCode.ClientID, authCode.UserID, authCode.WorkspaceID, authCode.Scope)
		if err != nil {
			return err
		}

		pair = minted
		return nil
	})

	if err != nil {
		return nil, err
	}

	log.Info().Str("client_id", request.ClientID).Msg("Exchanged authorization code for tokens")

	return pair, nil
}
