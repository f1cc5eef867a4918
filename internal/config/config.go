package config

// Version information, set at build time

var Version = "development"
var CommitHash = "development"
var BuildTimestamp = "0000-00-00T00:00:00Z"

// Session cookie name template

var SessionCookieName = "taskgate-session"

// Main app config

type Config struct {
	Port               int    `mapstructure:"port" validate:"required"`
	Address            string `mapstructure:"address" validate:"required,ip4_addr"`
	AppURL             string `mapstructure:"app-url" validate:"required,url"`
	DatabasePath       string `mapstructure:"database-path" validate:"required"`
	LogLevel           string `mapstructure:"log-level" validate:"oneof=trace debug info warn error fatal panic"`
	SessionSecret      string `mapstructure:"session-secret"`
	SessionSecretFile  string `mapstructure:"session-secret-file"`
	CodeExpiry         int    `mapstructure:"code-expiry"`
	AccessTokenExpiry  int    `mapstructure:"access-token-expiry"`
	RefreshTokenExpiry int    `mapstructure:"refresh-token-expiry"`
	TrustedProxies     string `mapstructure:"trusted-proxies"`
	DisableReaper      bool   `mapstructure:"disable-reaper"`
}

// IdentityContext is the authenticated human resolved from the web session.
// Taskgate never authenticates humans itself; the session layer only carries
// the identity that approves or manages OAuth grants.

type IdentityContext struct {
	UserID     string
	Name       string
	Email      string
	IsLoggedIn bool
}

// AuthContext is the result of authenticating a bearer token on a tool-call
// request. It carries everything the task domain needs for authorization.

type AuthContext struct {
	UserID      string
	WorkspaceID string
	ClientID    string
	Scopes      []string
	ToolNames   []string
}
