package service

import (
	"encoding/json"
	"errors"
	"net/url"
	"time"

	"github.com/taskgate/taskgate/internal/model"
	"github.com/taskgate/taskgate/internal/oauth"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ClientRegistration is the dynamic registration request (RFC 7591). Only
// public clients are accepted; a token_endpoint_auth_method other than
// "none" is rejected outright.
type ClientRegistration struct {
	ClientName              string   `json:"client_name"`
	RedirectURIs            []string `json:"redirect_uris"`
	GrantTypes              []string `json:"grant_types"`
	ResponseTypes           []string `json:"response_types"`
	TokenEndpointAuthMethod string   `json:"token_endpoint_auth_method"`
	Scope                   string   `json:"scope"`
	ClientURI               string   `json:"client_uri"`
	LogoURI                 string   `json:"logo_uri"`
}

type ClientService struct {
	database *gorm.DB
}

func NewClientService(database *gorm.DB) *ClientService {
	return &ClientService{
		database: database,
	}
}

// Register validates the metadata, issues an opaque client id and persists
// the client. No client secret is ever generated or returned.
func (cs *ClientService) Register(registration ClientRegistration) (*model.Client, error) {
	if registration.ClientName == "" {
		return nil, oauth.InvalidClientMetadata("client_name is required")
	}

	if len(registration.RedirectURIs) == 0 {
		return nil, oauth.InvalidClientMetadata("redirect_uris is required")
	}

	for _, uri := range registration.RedirectURIs {
		parsed, err := url.Parse(uri)
		if err != nil || !parsed.IsAbs() {
			return nil, oauth.InvalidClientMetadata("redirect_uris must be absolute URIs")
		}
	}

	if registration.TokenEndpointAuthMethod != "" && registration.TokenEndpointAuthMethod != oauth.AuthMethodNone {
		return nil, oauth.InvalidClientMetadata("only public clients are supported, token_endpoint_auth_method must be \"none\"")
	}

	grantTypes := registration.GrantTypes
	if len(grantTypes) == 0 {
		grantTypes = oauth.SupportedGrantTypes
	}

	for _, grantType := range grantTypes {
		if !contains(oauth.SupportedGrantTypes, grantType) {
			return nil, oauth.InvalidClientMetadata("unsupported grant type: " + grantType)
		}
	}

	responseTypes := registration.ResponseTypes
	if len(responseTypes) == 0 {
		responseTypes = oauth.SupportedResponseTypes
	}

	for _, responseType := range responseTypes {
		if !contains(oauth.SupportedResponseTypes, responseType) {
			return nil, oauth.InvalidClientMetadata("unsupported response type: " + responseType)
		}
	}

	redirectURIsJSON, err := json.Marshal(registration.RedirectURIs)
	if err != nil {
		return nil, err
	}

	grantTypesJSON, err := json.Marshal(grantTypes)
	if err != nil {
		return nil, err
	}

	responseTypesJSON, err := json.Marshal(responseTypes)
	if err != nil {
		return nil, err
	}

	client := model.Client{
		ID:            uuid.New().String(),
		Name:          registration.ClientName,
		RedirectURIs:  string(redirectURIsJSON),
		GrantTypes:    string(grantTypesJSON),
		ResponseTypes: string(responseTypesJSON),
		ClientURI:     registration.ClientURI,
		LogoURI:       registration.LogoURI,
		CreatedAt:     time.Now().Unix(),
	}

	if err := cs.database.Create(&client).Error; err != nil {
		return nil, err
	}

	log.Info().Str("client_id", client.ID).Str("client_name", client.Name).Msg("Registered OAuth client")

	return &client, nil
}

func (cs *ClientService) GetClient(clientID string) (*model.Client, error) {
	var client model.Client
	err := cs.database.Where("id = ?", clientID).First(&client).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, oauth.InvalidClient("client not found")
		}
		return nil, err
	}
	return &client, nil
}

func (cs *ClientService) RedirectURIs(client *model.Client) []string {
	var redirectURIs []string
	if err := json.Unmarshal([]byte(client.RedirectURIs), &redirectURIs); err != nil {
		log.Error().Err(err).Str("client_id", client.ID).Msg("Failed to unmarshal redirect URIs")
		return nil
	}
	return redirectURIs
}

// ValidateRedirectURI checks the URI against the client's registered set.
// Matching is exact, no prefix or wildcard semantics.
func (cs *ClientService) ValidateRedirectURI(client *model.Client, redirectURI string) bool {
	for _, uri := range cs.RedirectURIs(client) {
		if uri == redirectURI {
			return true
		}
	}
	return false
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
