package scope_test

import (
	"testing"

	"github.com/taskgate/taskgate/internal/oauth"
	"github.com/taskgate/taskgate/internal/scope"

	"gotest.tools/v3/assert"
)

func TestParse(t *testing.T) {
	parsed, err := scope.Parse("workspace:ws1 tool:query_tasks tool:create_task")
	assert.NilError(t, err)
	assert.Equal(t, "ws1", parsed.WorkspaceID)
	assert.DeepEqual(t, parsed.ToolNames, []string{"create_task", "query_tasks"})
	assert.Equal(t, parsed.String(), "workspace:ws1 tool:create_task tool:query_tasks")
}

func TestParseDeduplicates(t *testing.T) {
	parsed, err := scope.Parse("workspace:ws1 tool:query_tasks tool:query_tasks workspace:ws1")
	assert.NilError(t, err)
	assert.DeepEqual(t, parsed.ToolNames, []string{"query_tasks"})
	assert.Equal(t, parsed.String(), "workspace:ws1 tool:query_tasks")
}

func TestParseDeterministicOrder(t *testing.T) {
	first, err := scope.Parse("tool:query_tasks workspace:ws1 tool:create_task")
	assert.NilError(t, err)

	second, err := scope.Parse("tool:create_task tool:query_tasks workspace:ws1")
	assert.NilError(t, err)

	assert.Equal(t, first.String(), second.String())
}

func TestParsePlaceholderWorkspace(t *testing.T) {
	parsed, err := scope.Parse("workspace:{workspace_id} tool:query_tasks")
	assert.NilError(t, err)
	assert.Equal(t, parsed.WorkspaceID, "")

	resolved := parsed.Resolve("ws42")
	assert.Equal(t, resolved.WorkspaceID, "ws42")
	assert.Equal(t, resolved.String(), "workspace:ws42 tool:query_tasks")
}

func TestParseFailures(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"no workspace", "tool:query_tasks"},
		{"two workspaces", "workspace:ws1 workspace:ws2 tool:query_tasks"},
		{"no tools", "workspace:ws1"},
		{"unknown tool", "workspace:ws1 tool:fly_to_moon"},
		{"unknown family", "workspace:ws1 tool:query_tasks admin:everything"},
		{"bare workspace", "workspace: tool:query_tasks"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := scope.Parse(tc.raw)
			assert.Assert(t, err != nil)
			assert.Equal(t, oauth.AsError(err).Code, "invalid_scope")
		})
	}
}

func TestHasTool(t *testing.T) {
	parsed, err := scope.Parse("workspace:ws1 tool:create_task")
	assert.NilError(t, err)
	assert.Assert(t, parsed.HasTool("create_task"))
	assert.Assert(t, !parsed.HasTool("delete_task"))
}

func TestIsSubset(t *testing.T) {
	granted := []string{"workspace:ws1", "tool:create_task", "tool:query_tasks"}

	assert.Assert(t, scope.IsSubset([]string{"workspace:ws1", "tool:query_tasks"}, granted))
	assert.Assert(t, scope.IsSubset(granted, granted))
	assert.Assert(t, !scope.IsSubset([]string{"workspace:ws1", "tool:delete_task"}, granted))
	assert.Assert(t, !scope.IsSubset([]string{"workspace:ws2"}, granted))
}
