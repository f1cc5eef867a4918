package service

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/taskgate/taskgate/internal/model"
	"github.com/taskgate/taskgate/internal/oauth"
	"github.com/taskgate/taskgate/internal/scope"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type ConsentService struct {
	database *gorm.DB
	tokens   *TokenService
}

func NewConsentService(database *gorm.DB, tokens *TokenService) *ConsentService {
	return &ConsentService{
		database: database,
		tokens:   tokens,
	}
}

// Connection is a workspace-facing view over a consent, joined with the
// client record and the last access-token issuance as an activity signal.
type Connection struct {
	ClientID       string   `json:"client_id"`
	ClientName     string   `json:"client_name"`
	LogoURI        string   `json:"logo_uri,omitempty"`
	UserID         string   `json:"user_id"`
	Scopes         []string `json:"scopes"`
	ToolNames      []string `json:"tool_names"`
	GrantedByRole  string   `json:"granted_by_role"`
	CreatedAt      int64    `json:"created_at"`
	UpdatedAt      int64    `json:"updated_at"`
	LastActivityAt *int64   `json:"last_activity_at,omitempty"`
}

// Upsert records or refreshes the durable grant for a triple. Re-approving
// a revoked or existing consent rewrites its scopes and clears revoked_at
// instead of duplicating the row.
func (cons *ConsentService) Upsert(tx *gorm.DB, userID string, workspaceID string, clientID string, scopes []string, grantedByRole string) (*model.Consent, error) {
	scopesJSON, err := json.Marshal(scopes)
	if err != nil {
		return nil, err
	}

	now := time.Now().Unix()

	var existing model.Consent
	err = tx.Where("user_id = ? AND workspace_id = ? AND client_id = ?", userID, workspaceID, clientID).First(&existing).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		consent := model.Consent{
			ID:            uuid.New().String(),
			UserID:        userID,
			WorkspaceID:   workspaceID,
			ClientID:      clientID,
			Scopes:        string(scopesJSON),
			GrantedByRole: grantedByRole,
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		if err := tx.Create(&consent).Error; err != nil {
			return nil, err
		}

		log.Info().Str("client_id", clientID).Str("workspace_id", workspaceID).Msg("Created consent")
		return &consent, nil
	}

	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"scopes":          string(scopesJSON),
		"granted_by_role": grantedByRole,
		"updated_at":      now,
		"revoked_at":      nil,
	}

	if err := tx.Model(&model.Consent{}).Where("id = ?", existing.ID).Updates(updates).Error; err != nil {
		return nil, err
	}

	existing.Scopes = string(scopesJSON)
	existing.GrantedByRole = grantedByRole
	existing.UpdatedAt = now
	existing.RevokedAt = nil

	log.Info().Str("client_id", clientID).Str("workspace_id", workspaceID).Msg("Updated consent")
	return &existing, nil
}

// GetActive returns the non-revoked consent for a triple, or nil when no
// active grant exists.
func (cons *ConsentService) GetActive(userID string, workspaceID string, clientID string) (*model.Consent, error) {
	var consent model.Consent
	err := cons.database.Where("user_id = ? AND workspace_id = ? AND client_id = ? AND revoked_at IS NULL", userID, workspaceID, clientID).First(&consent).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &consent, nil
}

// Scopes decodes the stored scope array of a consent.
func (cons *ConsentService) Scopes(consent *model.Consent) []string {
	var scopes []string
	if err := json.Unmarshal([]byte(consent.Scopes), &scopes); err != nil {
		log.Error().Err(err).Str("consent_id", consent.ID).Msg("Failed to unmarshal consent scopes")
		return nil
	}
	return scopes
}

// ListWorkspaceConnections lists every active consent of a workspace for
// the settings UI.
func (cons *ConsentService) ListWorkspaceConnections(workspaceID string) ([]Connection, error) {
	var consents []model.Consent
	err := cons.database.Where("workspace_id = ? AND revoked_at IS NULL", workspaceID).Order("created_at ASC").Find(&consents).Error
	if err != nil {
		return nil, err
	}

	connections := make([]Connection, 0, len(consents))

	for _, consent := range consents {
		var client model.Client
		if err := cons.database.Where("id = ?", consent.ClientID).First(&client).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, err
		}

		scopes := cons.Scopes(&consent)

		toolNames := []string{}
		if parsed, err := scope.Parse(strings.Join(scopes, " ")); err == nil {
			toolNames = parsed.ToolNames
		}

		connection := Connection{
			ClientID:      consent.ClientID,
			ClientName:    client.Name,
			LogoURI:       client.LogoURI,
			UserID:        consent.UserID,
			Scopes:        scopes,
			ToolNames:     toolNames,
			GrantedByRole: consent.GrantedByRole,
			CreatedAt:     consent.CreatedAt,
			UpdatedAt:     consent.UpdatedAt,
		}

		var lastActivity *int64
		row := cons.database.Model(&model.AccessToken{}).
			Select("MAX(created_at)").
			Where("user_id = ? AND workspace_id = ? AND client_id = ?", consent.UserID, consent.WorkspaceID, consent.ClientID).
			Row()
		if err := row.Scan(&lastActivity); err == nil {
			connection.LastActivityAt = lastActivity
		}

		connections = append(connections, connection)
	}

	return connections, nil
}

// UpdateToolScopes rewrites a consent's tool scopes, preserving its
// workspace scope, and pushes the new scope onto every live token of the
// triple so the next tool call already reflects the edit.
func (cons *ConsentService) UpdateToolScopes(userID string, workspaceID string, clientID string, toolNames []string) (*model.Consent, error) {
	consent, err := cons.GetActive(userID, workspaceID, clientID)
	if err != nil {
		return nil, err
	}

	if consent == nil {
		return nil, oauth.InvalidRequest("no active connection for this client")
	}

	tokens := make([]string, 0, len(toolNames)+1)
	tokens = append(tokens, scope.WorkspaceScope(workspaceID))
	for _, name := range toolNames {
		tokens = append(tokens, scope.ToolScope(name))
	}

	// Re-validate the full invariant set, not just the tool names.
	parsed, err := scope.Parse(strings.Join(tokens, " "))
	if err != nil {
		return nil, err
	}

	scopesJSON, err := json.Marshal(parsed.Scopes)
	if err != nil {
		return nil, err
	}

	now := time.Now().Unix()

	err = cons.database.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Consent{}).
			Where("id = ? AND revoked_at IS NULL", consent.ID).
			Updates(map[string]interface{}{
				"scopes":     string(scopesJSON),
				"updated_at": now,
			})

		if result.Error != nil {
			return result.Error
		}

		if result.RowsAffected != 1 {
			return oauth.InvalidRequest("no active connection for this client")
		}

		return cons.tokens.UpdateScopeForTriple(tx, userID, workspaceID, clientID, parsed.String())
	})

	if err != nil {
		return nil, err
	}

	consent.Scopes = string(scopesJSON)
	consent.UpdatedAt = now

	log.Info().Str("client_id", clientID).Str("workspace_id", workspaceID).Msg("Updated consent tool scopes")
	return consent, nil
}

// Revoke permanently revokes a consent and cascades into every live token
// of the triple in the same transaction. Re-authorization later creates a
// fresh active grant via Upsert.
func (cons *ConsentService) Revoke(userID string, workspaceID string, clientID string) error {
	consent, err := cons.GetActive(userID, workspaceID, clientID)
	if err != nil {
		return err
	}

	if consent == nil {
		return oauth.InvalidRequest("no active connection for this client")
	}

	now := time.Now().Unix()

	err = cons.database.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Consent{}).
			Where("id = ? AND revoked_at IS NULL", consent.ID).
			Update("revoked_at", now).Error; err != nil {
			return err
		}

		return cons.tokens.RevokeAllForTriple(tx, userID, workspaceID, clientID)
	})

	if err != nil {
		return err
	}

	log.Info().Str("client_id", clientID).Str("workspace_id", workspaceID).Msg("Revoked consent and cascaded token revocation")
	return nil
}
