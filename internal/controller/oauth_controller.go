package controller

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/taskgate/taskgate/internal/oauth"
	"github.com/taskgate/taskgate/internal/service"
	"github.com/taskgate/taskgate/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type OAuthControllerConfig struct {
	AppURL string
}

type OAuthController struct {
	config    OAuthControllerConfig
	router    *gin.RouterGroup
	clients   *service.ClientService
	authorize *service.AuthorizeService
	tokens    *service.TokenService
}

func NewOAuthController(config OAuthControllerConfig, router *gin.RouterGroup, clients *service.ClientService, authorize *service.AuthorizeService, tokens *service.TokenService) *OAuthController {
	return &OAuthController{
		config:    config,
		router:    router,
		clients:   clients,
		authorize: authorize,
		tokens:    tokens,
	}
}

func (controller *OAuthController) SetupRoutes() {
	oauthGroup := controller.router.Group("/oauth")
	oauthGroup.POST("/register", controller.registerHandler)
	oauthGroup.GET("/authorize", controller.authorizeHandler)
	oauthGroup.POST("/token", controller.tokenHandler)
	oauthGroup.POST("/revoke", controller.revokeHandler)
}

type clientRegistrationResponse struct {
	ClientID                string   `json:"client_id"`
	ClientIDIssuedAt        int64    `json:"client_id_issued_at"`
	ClientName              string   `json:"client_name"`
	RedirectURIs            []string `json:"redirect_uris"`
	GrantTypes              []string `json:"grant_types"`
	ResponseTypes           []string `json:"response_types"`
	TokenEndpointAuthMethod string   `json:"token_endpoint_auth_method"`
	ClientURI               string   `json:"client_uri,omitempty"`
	LogoURI                 string   `json:"logo_uri,omitempty"`
}

func (controller *OAuthController) registerHandler(c *gin.Context) {
	var registration service.ClientRegistration

	if err := c.ShouldBindJSON(&registration); err != nil {
		controller.jsonError(c, oauth.InvalidClientMetadata("request body is not valid JSON"))
		return
	}

	client, err := controller.clients.Register(registration)
	if err != nil {
		controller.jsonError(c, oauth.AsError(err))
		return
	}

	var grantTypes, responseTypes []string
	json.Unmarshal([]byte(client.GrantTypes), &grantTypes)
	json.Unmarshal([]byte(client.ResponseTypes), &responseTypes)

	c.JSON(http.StatusCreated, clientRegistrationResponse{
		ClientID:                client.ID,
		ClientIDIssuedAt:        client.CreatedAt,
		ClientName:              client.Name,
		RedirectURIs:            controller.clients.RedirectURIs(client),
		GrantTypes:              grantTypes,
		ResponseTypes:           responseTypes,
		TokenEndpointAuthMethod: oauth.AuthMethodNone,
		ClientURI:               client.ClientURI,
		LogoURI:                 client.LogoURI,
	})
}

func (controller *OAuthController) authorizeHandler(c *gin.Context) {
	var request service.AuthorizeRequest

	if err := c.ShouldBindQuery(&request); err != nil {
		controller.jsonError(c, oauth.InvalidRequest("invalid query parameters"))
		return
	}

	// Return JSON errors until the redirect URI has been validated against
	// the client's registered set; only then is redirecting safe.
	if request.ClientID == "" || request.RedirectURI == "" {
		controller.jsonError(c, oauth.InvalidRequest("client_id and redirect_uri are required"))
		return
	}

	if _, err := controller.authorize.ValidateClientRedirect(request.ClientID, request.RedirectURI); err != nil {
		controller.jsonError(c, oauth.AsError(err))
		return
	}

	if _, err := controller.authorize.ValidateRequest(request); err != nil {
		controller.redirectError(c, request.RedirectURI, request.State, oauth.AsError(err))
		return
	}

	identity, err := utils.GetIdentity(c)
	if err != nil || !identity.IsLoggedIn {
		// Not authenticated: hand over to the workspace login/consent UI,
		// which sends the human back here once approved.
		authorizeURL := controller.config.AppURL + c.Request.URL.Path
		if c.Request.URL.RawQuery != "" {
			authorizeURL = fmt.Sprintf("%s?%s", authorizeURL, c.Request.URL.RawQuery)
		}
		loginURL := fmt.Sprintf("%s/login?redirect_uri=%s", controller.config.AppURL, url.QueryEscape(authorizeURL))
		c.Redirect(http.StatusFound, loginURL)
		return
	}

	code, err := controller.authorize.Approve(identity, request)
	if err != nil {
		controller.redirectError(c, request.RedirectURI, request.State, oauth.AsError(err))
		return
	}

	redirectURL, err := url.Parse(request.RedirectURI)
	if err != nil {
		controller.redirectError(c, request.RedirectURI, request.State, oauth.InvalidRequest("invalid redirect_uri"))
		return
	}

	query := redirectURL.Query()
	query.Set("code", code)
	if request.State != "" {
		query.Set("state", request.State)
	}
	redirectURL.RawQuery = query.Encode()

	c.Redirect(http.StatusFound, redirectURL.String())
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	Scope        string `json:"scope"`
}

func (controller *OAuthController) tokenHandler(c *gin.Context) {
	grantType := c.PostForm("grant_type")

	var pair *service.TokenPair
	var err error

	switch grantType {
	case oauth.GrantTypeAuthorizationCode:
		pair, err = controller.authorize.Exchange(service.ExchangeRequest{
			Code:         c.PostForm("code"),
			ClientID:     c.PostForm("client_id"),
			RedirectURI:  c.PostForm("redirect_uri"),
			CodeVerifier: c.PostForm("code_verifier"),
		})
	case oauth.GrantTypeRefreshToken:
		pair, err = controller.tokens.Refresh(service.RefreshRequest{
			RefreshToken: c.PostForm("refresh_token"),
			ClientID:     c.PostForm("client_id"),
			Scope:        c.PostForm("scope"),
		})
	default:
		controller.jsonError(c, oauth.UnsupportedGrantType("only authorization_code and refresh_token grants are supported"))
		return
	}

	if err != nil {
		controller.jsonError(c, oauth.AsError(err))
		return
	}

	c.JSON(http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		TokenType:    oauth.TokenTypeBearer,
		ExpiresIn:    pair.ExpiresIn,
		RefreshToken: pair.RefreshToken,
		Scope:        pair.Scope,
	})
}

func (controller *OAuthController) revokeHandler(c *gin.Context) {
	token := c.PostForm("token")
	if token == "" {
		controller.jsonError(c, oauth.InvalidRequest("token is required"))
		return
	}

	err := controller.tokens.Revoke(service.RevokeRequest{
		Token:         token,
		TokenTypeHint: c.PostForm("token_type_hint"),
		ClientID:      c.PostForm("client_id"),
	})

	if err != nil {
		// RFC 7009: revocation reports success even for unknown tokens, but
		// a store failure is still a server error.
		log.Error().Err(err).Msg("Failed to revoke token")
		controller.jsonError(c, oauth.ServerError("failed to revoke token"))
		return
	}

	c.Status(http.StatusOK)
}

// Helper functions

func (controller *OAuthController) jsonError(c *gin.Context, oauthErr *oauth.Error) {
	c.JSON(oauthErr.Status, gin.H{
		"error":             oauthErr.Code,
		"error_description": oauthErr.Description,
	})
}

func (controller *OAuthController) redirectError(c *gin.Context, redirectURI string, state string, oauthErr *oauth.Error) {
	redirectURL, err := url.Parse(redirectURI)
	if err != nil {
		controller.jsonError(c, oauthErr)
		return
	}

	query := redirectURL.Query()
	query.Set("error", oauthErr.Code)
	query.Set("error_description", oauthErr.Description)
	if state != "" {
		query.Set("state", state)
	}
	redirectURL.RawQuery = query.Encode()

	c.Redirect(http.StatusFound, redirectURL.String())
}
