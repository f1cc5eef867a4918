package model

// AuthorizationCode is a one-time credential. Only the SHA-256 hash of the
// code is stored; a row with a non-null used_at or a past expires_at is
// permanently unusable.
type AuthorizationCode struct {
	CodeHash            string `gorm:"column:code_hash;primaryKey"`
	ClientID            string `gorm:"column:client_id;not null;index"`
	UserID              string `gorm:"column:user_id;not null"`
	WorkspaceID         string `gorm:"column:workspace_id;not null"`
	RedirectURI         string `gorm:"column:redirect_uri;not null"`
	Scope               string `gorm:"column:scope;not null"`
	CodeChallenge       string `gorm:"column:code_challenge;not null"`
	CodeChallengeMethod string `gorm:"column:code_challenge_method;not null"`
	ExpiresAt           int64  `gorm:"column:expires_at;not null"`
	UsedAt              *int64 `gorm:"column:used_at"`
	CreatedAt           int64  `gorm:"column:created_at;not null"`
}

func (AuthorizationCode) TableName() string {
	return "oauth_authorization_codes"
}
