package model

// Client is a dynamically registered public OAuth client. There is no
// client secret column on purpose: PKCE is the only proof of possession.
// Clients are not owned by a workspace; the same client can be authorized
// into many workspaces.
type Client struct {
	ID            string `gorm:"column:id;primaryKey"`
	Name          string `gorm:"column:name;not null"`
	RedirectURIs  string `gorm:"column:redirect_uris;not null"` // JSON array
	GrantTypes    string `gorm:"column:grant_types;not null"`   // JSON array
	ResponseTypes string `gorm:"column:response_types;not null"` // JSON array
	ClientURI     string `gorm:"column:client_uri"`
	LogoURI       string `gorm:"column:logo_uri"`
	CreatedAt     int64  `gorm:"column:created_at;not null"`
}

func (Client) TableName() string {
	return "oauth_clients"
}
