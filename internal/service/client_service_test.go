package service_test

import (
	"testing"

	"github.com/taskgate/taskgate/internal/oauth"
	"github.com/taskgate/taskgate/internal/service"

	"gotest.tools/v3/assert"
)

func TestRegisterClient(t *testing.T) {
	database := newTestDatabase(t)
	clients := service.NewClientService(database)

	client, err := clients.Register(service.ClientRegistration{
		ClientName:              "Chat Assistant",
		RedirectURIs:            []string{"https://agent.example/cb"},
		TokenEndpointAuthMethod: "none",
	})
	assert.NilError(t, err)

	assert.Assert(t, client.ID != "")
	assert.Assert(t, client.CreatedAt > 0)
	assert.Equal(t, client.Name, "Chat Assistant")

	// Defaults applied when grant/response types are omitted
	assert.Equal(t, client.GrantTypes, `["authorization_code","refresh_token"]`)
	assert.Equal(t, client.ResponseTypes, `["code"]`)

	found, err := clients.GetClient(client.ID)
	assert.NilError(t, err)
	assert.Equal(t, found.Name, "Chat Assistant")
}

func TestRegisterClientRejectsConfidential(t *testing.T) {
	database := newTestDatabase(t)
	clients := service.NewClientService(database)

	_, err := clients.Register(service.ClientRegistration{
		ClientName:              "Confidential Agent",
		RedirectURIs:            []string{"https://agent.example/cb"},
		TokenEndpointAuthMethod: "client_secret_basic",
	})
	assert.Assert(t, err != nil)
	assert.Equal(t, oauth.AsError(err).Code, "invalid_client_metadata")
}

func TestRegisterClientMetadataValidation(t *testing.T) {
	database := newTestDatabase(t)
	clients := service.NewClientService(database)

	cases := []struct {
		name         string
		registration service.ClientRegistration
	}{
		{
			"missing name",
			service.ClientRegistration{RedirectURIs: []string{"https://agent.example/cb"}},
		},
		{
			"missing redirect uris",
			service.ClientRegistration{ClientName: "Agent"},
		},
		{
			"relative redirect uri",
			service.ClientRegistration{ClientName: "Agent", RedirectURIs: []string{"/cb"}},
		},
		{
			"unsupported grant type",
			service.ClientRegistration{ClientName: "Agent", RedirectURIs: []string{"https://agent.example/cb"}, GrantTypes: []string{"client_credentials"}},
		},
		{
			"unsupported response type",
			service.ClientRegistration{ClientName: "Agent", RedirectURIs: []string{"https://agent.example/cb"}, ResponseTypes: []string{"token"}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := clients.Register(tc.registration)
			assert.Assert(t, err != nil)
			assert.Equal(t, oauth.AsError(err).Code, "invalid_client_metadata")
		})
	}
}

func TestGetClientNotFound(t *testing.T) {
	database := newTestDatabase(t)
	clients := service.NewClientService(database)

	_, err := clients.GetClient("missing-client")
	assert.Assert(t, err != nil)
	assert.Equal(t, oauth.AsError(err).Code, "invalid_client")
}

func TestValidateRedirectURI(t *testing.T) {
	database := newTestDatabase(t)
	clients := service.NewClientService(database)

	client := registerTestClient(t, clients, "https://agent.example/cb")

	assert.Assert(t, clients.ValidateRedirectURI(client, "https://agent.example/cb"))

	// Exact match only
	assert.Assert(t, !clients.ValidateRedirectURI(client, "https://agent.example/cb/extra"))
	assert.Assert(t, !clients.ValidateRedirectURI(client, "https://agent.example/"))
}
