package controller

import (
	"fmt"
	"net/http"

	"github.com/taskgate/taskgate/internal/oauth"
	"github.com/taskgate/taskgate/internal/scope"
	"github.com/taskgate/taskgate/internal/tools"

	"github.com/gin-gonic/gin"
)

type AuthorizationServerMetadata struct {
	Issuer                            string   `json:"issuer"`
	AuthorizationEndpoint             string   `json:"authorization_endpoint"`
	TokenEndpoint                     string   `json:"token_endpoint"`
	RegistrationEndpoint              string   `json:"registration_endpoint"`
	RevocationEndpoint                string   `json:"revocation_endpoint"`
	ResponseTypesSupported            []string `json:"response_types_supported"`
	GrantTypesSupported               []string `json:"grant_types_supported"`
	TokenEndpointAuthMethodsSupported []string `json:"token_endpoint_auth_methods_supported"`
	CodeChallengeMethodsSupported     []string `json:"code_challenge_methods_supported"`
	ScopesSupported                   []string `json:"scopes_supported"`
}

type ProtectedResourceMetadata struct {
	Resource               string   `json:"resource"`
	AuthorizationServers   []string `json:"authorization_servers"`
	ScopesSupported        []string `json:"scopes_supported"`
	BearerMethodsSupported []string `json:"bearer_methods_supported"`
}

type WellKnownControllerConfig struct {
	AppURL string
	Issuer string
}

type WellKnownController struct {
	config WellKnownControllerConfig
	engine *gin.Engine
}

func NewWellKnownController(config WellKnownControllerConfig, engine *gin.Engine) *WellKnownController {
	return &WellKnownController{
		config: config,
		engine: engine,
	}
}

func (controller *WellKnownController) SetupRoutes() {
	controller.engine.GET("/.well-known/oauth-authorization-server", controller.authorizationServerHandler)
	controller.engine.GET("/.well-known/oauth-protected-resource", controller.protectedResourceHandler)
}

// scopesSupported advertises the templated workspace scope plus every tool
// scope; a client registers before the user has picked a workspace.
func (controller *WellKnownController) scopesSupported() []string {
	scopes := []string{scope.TemplateWorkspaceScope}
	for _, name := range tools.Names() {
		scopes = append(scopes, scope.ToolScope(name))
	}
	return scopes
}

func (controller *WellKnownController) authorizationServerHandler(c *gin.Context) {
	c.JSON(http.StatusOK, AuthorizationServerMetadata{
		Issuer:                            controller.config.Issuer,
		AuthorizationEndpoint:             fmt.Sprintf("%s/api/oauth/authorize", controller.config.AppURL),
		TokenEndpoint:                     fmt.Sprintf("%s/api/oauth/token", controller.config.AppURL),
		RegistrationEndpoint:              fmt.Sprintf("%s/api/oauth/register", controller.config.AppURL),
		RevocationEndpoint:                fmt.Sprintf("%s/api/oauth/revoke", controller.config.AppURL),
		ResponseTypesSupported:            oauth.SupportedResponseTypes,
		GrantTypesSupported:               oauth.SupportedGrantTypes,
		TokenEndpointAuthMethodsSupported: oauth.SupportedAuthMethods,
		CodeChallengeMethodsSupported:     []string{oauth.CodeChallengeMethodS256},
		ScopesSupported:                   controller.scopesSupported(),
	})
}

func (controller *WellKnownController) protectedResourceHandler(c *gin.Context) {
	c.JSON(http.StatusOK, ProtectedResourceMetadata{
		Resource:               fmt.Sprintf("%s/api/mcp", controller.config.AppURL),
		AuthorizationServers:   []string{controller.config.Issuer},
		ScopesSupported:        controller.scopesSupported(),
		BearerMethodsSupported: []string{"header"},
	})
}
