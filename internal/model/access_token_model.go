package model

// AccessToken is a short-lived opaque bearer token, stored as a SHA-256
// hash. created_at doubles as the last-activity signal for the owning
// consent's connection listing.
type AccessToken struct {
	ID          string `gorm:"column:id;primaryKey"`
	TokenHash   string `gorm:"column:token_hash;uniqueIndex;not null"`
	ClientID    string `gorm:"column:client_id;not null;index"`
	UserID      string `gorm:"column:user_id;not null;index"`
	WorkspaceID string `gorm:"column:workspace_id;not null;index"`
	Scope       string `gorm:"column:scope;not null"`
	ExpiresAt   int64  `gorm:"column:expires_at;not null"`
	RevokedAt   *int64 `gorm:"column:revoked_at"`
	CreatedAt   int64  `gorm:"column:created_at;not null"`
}

func (AccessToken) TableName() string {
	return "oauth_access_tokens"
}
