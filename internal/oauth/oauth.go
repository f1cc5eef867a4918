// Package oauth holds the protocol-level constants and error vocabulary
// shared by the authorization server services and controllers.
package oauth

// Grant types (RFC 6749). Taskgate serves public clients only, so the
// client_credentials grant is deliberately absent.
const (
	GrantTypeAuthorizationCode = "authorization_code"
	GrantTypeRefreshToken      = "refresh_token"
)

// Response types. OAuth 2.1 drops the implicit grant; code is the only one.
const (
	ResponseTypeCode = "code"
)

// Client authentication. Public clients prove possession via PKCE, never a
// secret.
const (
	AuthMethodNone = "none"
)

// PKCE challenge methods (RFC 7636). The plain method is never accepted.
const (
	CodeChallengeMethodS256 = "S256"
)

const (
	TokenTypeBearer = "Bearer"

	TokenTypeHintAccessToken  = "access_token"
	TokenTypeHintRefreshToken = "refresh_token"
)

var (
	SupportedGrantTypes    = []string{GrantTypeAuthorizationCode, GrantTypeRefreshToken}
	SupportedResponseTypes = []string{ResponseTypeCode}
	SupportedAuthMethods   = []string{AuthMethodNone}
)
