// Package scope parses and normalizes the two scope families taskgate
// understands: workspace scopes (`workspace:{id}`) binding a grant to exactly
// one workspace, and tool scopes (`tool:{name}`) naming the task-domain
// tools the grant may invoke. The codec is pure and does no I/O.
package scope

import (
	"sort"
	"strings"

	"github.com/taskgate/taskgate/internal/oauth"
	"github.com/taskgate/taskgate/internal/tools"
)

const (
	WorkspacePrefix = "workspace:"
	ToolPrefix      = "tool:"
)

// TemplateWorkspaceScope is the templated workspace scope advertised in the
// discovery metadata. Clients that register before the user has picked a
// workspace send it verbatim; it parses as "workspace unspecified" and the
// real workspace is resolved during consent.
const TemplateWorkspaceScope = WorkspacePrefix + "{workspace_id}"

// Parsed is the normalized form of a scope string. Scopes is deterministic
// (workspace scope first, tool scopes sorted) so it can be stored and
// compared directly. WorkspaceID is empty when the workspace scope was a
// brace-wrapped placeholder.
type Parsed struct {
	Scopes      []string
	WorkspaceID string
	ToolNames   []string
}

// Parse validates a raw scope string. It fails with invalid_scope unless
// exactly one workspace scope is present, at least one tool scope is present
// and every tool name is in the supported registry.
func Parse(raw string) (*Parsed, error) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return nil, oauth.InvalidScope("scope is required")
	}

	seen := make(map[string]bool)
	workspaceTokens := []string{}
	toolNames := []string{}

	for _, token := range fields {
		if seen[token] {
			continue
		}
		seen[token] = true

		switch {
		case strings.HasPrefix(token, WorkspacePrefix):
			workspaceTokens = append(workspaceTokens, token)
		case strings.HasPrefix(token, ToolPrefix):
			name := strings.TrimPrefix(token, ToolPrefix)
			if !tools.IsSupported(name) {
				return nil, oauth.InvalidScope("unknown tool scope: " + name)
			}
			toolNames = append(toolNames, name)
		default:
			return nil, oauth.InvalidScope("unknown scope: " + token)
		}
	}

	if len(workspaceTokens) != 1 {
		return nil, oauth.InvalidScope("scope must contain exactly one workspace scope")
	}

	if len(toolNames) == 0 {
		return nil, oauth.InvalidScope("scope must contain at least one tool scope")
	}

	workspaceID := strings.TrimPrefix(workspaceTokens[0], WorkspacePrefix)
	if workspaceID == "" {
		return nil, oauth.InvalidScope("workspace scope must name a workspace")
	}

	// A brace-wrapped id is a client-side template literal, not a workspace.
	// The real workspace gets resolved at consent time.
	if strings.HasPrefix(workspaceID, "{") && strings.HasSuffix(workspaceID, "}") {
		workspaceID = ""
	}

	sort.Strings(toolNames)

	return &Parsed{
		Scopes:      buildScopes(workspaceTokens[0], toolNames),
		WorkspaceID: workspaceID,
		ToolNames:   toolNames,
	}, nil
}

// Resolve rebinds the parsed scope to a concrete workspace, replacing a
// placeholder (or a previously resolved workspace) in the normalized output.
func (p *Parsed) Resolve(workspaceID string) *Parsed {
	return &Parsed{
		Scopes:      buildScopes(WorkspacePrefix+workspaceID, p.ToolNames),
		WorkspaceID: workspaceID,
		ToolNames:   p.ToolNames,
	}
}

// String returns the canonical space-separated scope string.
func (p *Parsed) String() string {
	return strings.Join(p.Scopes, " ")
}

// HasTool reports whether the parsed scope grants the named tool.
func (p *Parsed) HasTool(name string) bool {
	for _, tool := range p.ToolNames {
		if tool == name {
			return true
		}
	}
	return false
}

// IsSubset reports whether every requested scope token is present in the
// granted set. Used to enforce that scope can only shrink on refresh.
func IsSubset(requested []string, granted []string) bool {
	grantedSet := make(map[string]bool, len(granted))
	for _, token := range granted {
		grantedSet[token] = true
	}
	for _, token := range requested {
		if !grantedSet[token] {
			return false
		}
	}
	return true
}

// WorkspaceScope builds the scope token for a workspace id.
func WorkspaceScope(id string) string {
	return WorkspacePrefix + id
}

// ToolScope builds the scope token for a tool name.
func ToolScope(name string) string {
	return ToolPrefix + name
}

func buildScopes(workspaceToken string, toolNames []string) []string {
	scopes := make([]string, 0, len(toolNames)+1)
	scopes = append(scopes, workspaceToken)
	for _, name := range toolNames {
		scopes = append(scopes, ToolPrefix+name)
	}
	return scopes
}
