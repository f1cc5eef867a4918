package service

import (
	"errors"

	"github.com/taskgate/taskgate/internal/model"

	"gorm.io/gorm"
)

// RoleProvider is the workspace-membership collaborator. The task domain
// owns membership; taskgate only asks what role a user holds.
type RoleProvider interface {
	Role(workspaceID string, userID string) (string, error)
}

// WorkspaceService is the default RoleProvider, reading the membership
// table the task domain maintains in the shared store.
type WorkspaceService struct {
	database *gorm.DB
}

func NewWorkspaceService(database *gorm.DB) *WorkspaceService {
	return &WorkspaceService{
		database: database,
	}
}

func (ws *WorkspaceService) Role(workspaceID string, userID string) (string, error) {
	var member model.WorkspaceMember
	err := ws.database.Where("workspace_id = ? AND user_id = ?", workspaceID, userID).First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.RoleNone, nil
		}
		return "", err
	}
	return member.Role, nil
}

// CanAuthorize reports whether a role may grant or manage workspace
// connections. Only owners and admins qualify.
func CanAuthorize(role string) bool {
	return role == model.RoleOwner || role == model.RoleAdmin
}
