package model

// RefreshToken is a long-lived opaque token, stored as a SHA-256 hash.
// Rotation revokes the old token and records replaced_by_token_id, forming
// a linked chain so a stale token can never be used twice.
type RefreshToken struct {
	ID                string  `gorm:"column:id;primaryKey"`
	TokenHash         string  `gorm:"column:token_hash;uniqueIndex;not null"`
	AccessTokenID     string  `gorm:"column:access_token_id;not null"`
	ClientID          string  `gorm:"column:client_id;not null;index"`
	UserID            string  `gorm:"column:user_id;not null;index"`
	WorkspaceID       string  `gorm:"column:workspace_id;not null;index"`
	Scope             string  `gorm:"column:scope;not null"`
	ExpiresAt         int64   `gorm:"column:expires_at;not null"`
	RevokedAt         *int64  `gorm:"column:revoked_at"`
	ReplacedByTokenID *string `gorm:"column:replaced_by_token_id"`
	CreatedAt         int64   `gorm:"column:created_at;not null"`
}

func (RefreshToken) TableName() string {
	return "oauth_refresh_tokens"
}
