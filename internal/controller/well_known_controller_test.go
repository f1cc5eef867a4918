package controller_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/taskgate/taskgate/internal/controller"

	"gotest.tools/v3/assert"
)

func TestAuthorizationServerMetadata(t *testing.T) {
	app := newTestApp(t)

	recorder := app.do(t, getRequest("/.well-known/oauth-authorization-server"))
	assert.Equal(t, recorder.Code, http.StatusOK)

	var metadata controller.AuthorizationServerMetadata
	decodeBody(t, recorder, &metadata)

	assert.Equal(t, metadata.Issuer, testAppURL)
	assert.Equal(t, metadata.AuthorizationEndpoint, testAppURL+"/api/oauth/authorize")
	assert.Equal(t, metadata.TokenEndpoint, testAppURL+"/api/oauth/token")
	assert.Equal(t, metadata.RegistrationEndpoint, testAppURL+"/api/oauth/register")
	assert.Equal(t, metadata.RevocationEndpoint, testAppURL+"/api/oauth/revoke")
	assert.DeepEqual(t, metadata.ResponseTypesSupported, []string{"code"})
	assert.DeepEqual(t, metadata.GrantTypesSupported, []string{"authorization_code", "refresh_token"})
	assert.DeepEqual(t, metadata.TokenEndpointAuthMethodsSupported, []string{"none"})
	assert.DeepEqual(t, metadata.CodeChallengeMethodsSupported, []string{"S256"})

	assert.Equal(t, metadata.ScopesSupported[0], "workspace:{workspace_id}")
	assert.Assert(t, len(metadata.ScopesSupported) > 1)
	for _, scopeValue := range metadata.ScopesSupported[1:] {
		assert.Assert(t, strings.HasPrefix(scopeValue, "tool:"))
	}
}

func TestProtectedResourceMetadata(t *testing.T) {
	app := newTestApp(t)

	recorder := app.do(t, getRequest("/.well-known/oauth-protected-resource"))
	assert.Equal(t, recorder.Code, http.StatusOK)

	var metadata controller.ProtectedResourceMetadata
	decodeBody(t, recorder, &metadata)

	assert.Equal(t, metadata.Resource, testAppURL+"/api/mcp")
	assert.DeepEqual(t, metadata.AuthorizationServers, []string{testAppURL})
	assert.DeepEqual(t, metadata.BearerMethodsSupported, []string{"header"})
	assert.Equal(t, metadata.ScopesSupported[0], "workspace:{workspace_id}")
}
