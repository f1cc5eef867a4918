package service_test

import (
	"testing"

	"github.com/taskgate/taskgate/internal/model"
	"github.com/taskgate/taskgate/internal/oauth"
	"github.com/taskgate/taskgate/internal/service"

	"gotest.tools/v3/assert"
)

func TestUpsertCreatesAndUpdates(t *testing.T) {
	stack := newTestStack(t)
	client := registerTestClient(t, stack.clients, testRedirectURI)

	created, err := stack.consents.Upsert(stack.database, "user-1", "ws1", client.ID,
		[]string{"workspace:ws1", "tool:create_task"}, model.RoleAdmin)
	assert.NilError(t, err)
	assert.Equal(t, created.GrantedByRole, model.RoleAdmin)

	// Re-approval with different scopes updates the same row
	updated, err := stack.consents.Upsert(stack.database, "user-1", "ws1", client.ID,
		[]string{"workspace:ws1", "tool:query_tasks"}, model.RoleOwner)
	assert.NilError(t, err)
	assert.Equal(t, updated.ID, created.ID)
	assert.Equal(t, updated.GrantedByRole, model.RoleOwner)
	assert.DeepEqual(t, stack.consents.Scopes(updated), []string{"workspace:ws1", "tool:query_tasks"})

	var count int64
	err = stack.database.Model(&model.Consent{}).Count(&count).Error
	assert.NilError(t, err)
	assert.Equal(t, count, int64(1))
}

func TestUpsertRevivesRevokedConsent(t *testing.T) {
	stack := newTestStack(t)
	client := registerTestClient(t, stack.clients, testRedirectURI)

	_, err := stack.consents.Upsert(stack.database, "user-1", "ws1", client.ID,
		[]string{"workspace:ws1", "tool:create_task"}, model.RoleAdmin)
	assert.NilError(t, err)

	err = stack.consents.Revoke("user-1", "ws1", client.ID)
	assert.NilError(t, err)

	active, err := stack.consents.GetActive("user-1", "ws1", client.ID)
	assert.NilError(t, err)
	assert.Assert(t, active == nil)

	_, err = stack.consents.Upsert(stack.database, "user-1", "ws1", client.ID,
		[]string{"workspace:ws1", "tool:create_task"}, model.RoleAdmin)
	assert.NilError(t, err)

	active, err = stack.consents.GetActive("user-1", "ws1", client.ID)
	assert.NilError(t, err)
	assert.Assert(t, active != nil)
	assert.Assert(t, active.RevokedAt == nil)
}

func TestListWorkspaceConnections(t *testing.T) {
	stack := newTestStack(t)
	client := registerTestClient(t, stack.clients, testRedirectURI)
	seedMember(t, stack.database, "ws1", "user-1", model.RoleAdmin)

	connections, err := stack.consents.ListWorkspaceConnections("ws1")
	assert.NilError(t, err)
	assert.Equal(t, len(connections), 0)

	// Nothing minted yet: consent only, no activity
	_, err = stack.consents.Upsert(stack.database, "user-1", "ws1", client.ID,
		[]string{"workspace:ws1", "tool:create_task", "tool:query_tasks"}, model.RoleAdmin)
	assert.NilError(t, err)

	connections, err = stack.consents.ListWorkspaceConnections("ws1")
	assert.NilError(t, err)
	assert.Equal(t, len(connections), 1)
	assert.Equal(t, connections[0].ClientID, client.ID)
	assert.Equal(t, connections[0].ClientName, "Agent Under Test")
	assert.Equal(t, connections[0].UserID, "user-1")
	assert.DeepEqual(t, connections[0].ToolNames, []string{"create_task", "query_tasks"})
	assert.Assert(t, connections[0].LastActivityAt == nil)

	// A full authorization flow stamps last activity
	pair := issueTestPair(t, stack, client.ID)
	_ = pair

	connections, err = stack.consents.ListWorkspaceConnections("ws1")
	assert.NilError(t, err)
	assert.Equal(t, len(connections), 1)
	assert.Assert(t, connections[0].LastActivityAt != nil)

	// Other workspaces see nothing
	connections, err = stack.consents.ListWorkspaceConnections("ws2")
	assert.NilError(t, err)
	assert.Equal(t, len(connections), 0)
}

func TestUpdateToolScopesPropagatesToTokens(t *testing.T) {
	stack := newTestStack(t)
	client := registerTestClient(t, stack.clients, testRedirectURI)
	seedMember(t, stack.database, "ws1", "user-1", model.RoleAdmin)

	pair := issueTestPair(t, stack, client.ID)

	consent, err := stack.consents.UpdateToolScopes("user-1", "ws1", client.ID, []string{"query_tasks"})
	assert.NilError(t, err)
	assert.DeepEqual(t, stack.consents.Scopes(consent), []string{"workspace:ws1", "tool:query_tasks"})

	// The live access token already carries the narrowed scope
	authContext, err := stack.tokens.Authenticate(pair.AccessToken)
	assert.NilError(t, err)
	assert.DeepEqual(t, authContext.ToolNames, []string{"query_tasks"})

	err = stack.tokens.EnsureToolAllowed(authContext, "create_task")
	assert.Equal(t, oauth.AsError(err).Code, "insufficient_scope")

	// And so does the next refreshed pair
	rotated, err := stack.tokens.Refresh(service.RefreshRequest{
		RefreshToken: pair.RefreshToken,
		ClientID:     client.ID,
	})
	assert.NilError(t, err)
	assert.Equal(t, rotated.Scope, "workspace:ws1 tool:query_tasks")
}

func TestUpdateToolScopesValidation(t *testing.T) {
	stack := newTestStack(t)
	client := registerTestClient(t, stack.clients, testRedirectURI)
	seedMember(t, stack.database, "ws1", "user-1", model.RoleAdmin)

	_ = issueTestPair(t, stack, client.ID)

	t.Run("unknown tool", func(t *testing.T) {
		_, err := stack.consents.UpdateToolScopes("user-1", "ws1", client.ID, []string{"launch_rockets"})
		assert.Equal(t, oauth.AsError(err).Code, "invalid_scope")
	})

	t.Run("no tools left", func(t *testing.T) {
		_, err := stack.consents.UpdateToolScopes("user-1", "ws1", client.ID, nil)
		assert.Equal(t, oauth.AsError(err).Code, "invalid_scope")
	})

	t.Run("no such connection", func(t *testing.T) {
		_, err := stack.consents.UpdateToolScopes("user-2", "ws1", client.ID, []string{"query_tasks"})
		assert.Equal(t, oauth.AsError(err).Code, "invalid_request")
	})
}

func TestRevokeCascadesToTokens(t *testing.T) {
	stack := newTestStack(t)
	client := registerTestClient(t, stack.clients, testRedirectURI)
	seedMember(t, stack.database, "ws1", "user-1", model.RoleAdmin)

	pair := issueTestPair(t, stack, client.ID)

	err := stack.consents.Revoke("user-1", "ws1", client.ID)
	assert.NilError(t, err)

	_, err = stack.tokens.Authenticate(pair.AccessToken)
	assert.Equal(t, oauth.AsError(err).Code, "invalid_token")

	_, err = stack.tokens.Refresh(service.RefreshRequest{
		RefreshToken: pair.RefreshToken,
		ClientID:     client.ID,
	})
	assert.Equal(t, oauth.AsError(err).Code, "invalid_grant")

	// Revoking twice reports no active connection
	err = stack.consents.Revoke("user-1", "ws1", client.ID)
	assert.Equal(t, oauth.AsError(err).Code, "invalid_request")
}
