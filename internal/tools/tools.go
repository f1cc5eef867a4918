// Package tools is the registry of task-domain tools an agent client can be
// granted. The task domain owns the actual tool implementations; the
// authorization server only needs the set of valid names.
package tools

var registry = []string{
	"create_task",
	"update_task",
	"delete_task",
	"query_tasks",
	"create_project",
	"query_projects",
	"create_comment",
	"query_comments",
	"get_workspace",
}

// Names returns the supported tool names in registry order.
func Names() []string {
	names := make([]string, len(registry))
	copy(names, registry)
	return names
}

func IsSupported(name string) bool {
	for _, tool := range registry {
		if tool == name {
			return true
		}
	}
	return false
}
