package model

// Workspace membership roles.
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
	RoleNone   = "none"
)

// WorkspaceMember records a user's role in a workspace. The task domain is
// the source of truth for membership; taskgate only reads it for the
// owner/admin gate on authorization and connection management.
type WorkspaceMember struct {
	WorkspaceID string `gorm:"column:workspace_id;primaryKey"`
	UserID      string `gorm:"column:user_id;primaryKey"`
	Role        string `gorm:"column:role;not null"`
	CreatedAt   int64  `gorm:"column:created_at;not null"`
}

func (WorkspaceMember) TableName() string {
	return "workspace_members"
}
