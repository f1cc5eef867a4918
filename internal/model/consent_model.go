package model

// Consent is the durable human-approved grant linking a (user, workspace,
// client) triple to a scope set, independent of any token's lifetime.
// Re-authorizing an existing triple updates the row and clears revoked_at
// instead of inserting a duplicate.
type Consent struct {
	ID            string `gorm:"column:id;primaryKey"`
	UserID        string `gorm:"column:user_id;not null;uniqueIndex:idx_consent_triple"`
	WorkspaceID   string `gorm:"column:workspace_id;not null;uniqueIndex:idx_consent_triple"`
	ClientID      string `gorm:"column:client_id;not null;uniqueIndex:idx_consent_triple"`
	Scopes        string `gorm:"column:scopes;not null"` // JSON array
	GrantedByRole string `gorm:"column:granted_by_role;not null"`
	CreatedAt     int64  `gorm:"column:created_at;not null"`
	UpdatedAt     int64  `gorm:"column:updated_at;not null"`
	RevokedAt     *int64 `gorm:"column:revoked_at"`
}

func (Consent) TableName() string {
	return "oauth_consents"
}
