package oauth

import (
	"errors"
	"net/http"
)

// Error is a client-facing OAuth failure: an RFC 6749 error code, the HTTP
// status it maps to and a human readable description. Internal store
// failures are wrapped into a ServerError before leaving the service layer
// so their detail never reaches the client.
type Error struct {
	Code        string
	Status      int
	Description string
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Description
}

func NewError(code string, status int, description string) *Error {
	return &Error{
		Code:        code,
		Status:      status,
		Description: description,
	}
}

func InvalidRequest(description string) *Error {
	return NewError("invalid_request", http.StatusBadRequest, description)
}

func InvalidClient(description string) *Error {
	return NewError("invalid_client", http.StatusBadRequest, description)
}

func InvalidGrant(description string) *Error {
	return NewError("invalid_grant", http.StatusBadRequest, description)
}

func InvalidScope(description string) *Error {
	return NewError("invalid_scope", http.StatusBadRequest, description)
}

func UnsupportedResponseType(description string) *Error {
	return NewError("unsupported_response_type", http.StatusBadRequest, description)
}

func UnsupportedGrantType(description string) *Error {
	return NewError("unsupported_grant_type", http.StatusBadRequest, description)
}

func InvalidClientMetadata(description string) *Error {
	return NewError("invalid_client_metadata", http.StatusBadRequest, description)
}

func InvalidRedirectURI(description string) *Error {
	return NewError("invalid_redirect_uri", http.StatusBadRequest, description)
}

func InvalidToken(description string) *Error {
	return NewError("invalid_token", http.StatusUnauthorized, description)
}

func InsufficientScope(description string) *Error {
	return NewError("insufficient_scope", http.StatusForbidden, description)
}

func AccessDenied(description string) *Error {
	return NewError("access_denied", http.StatusForbidden, description)
}

func ServerError(description string) *Error {
	return NewError("server_error", http.StatusInternalServerError, description)
}

// AsError unwraps err into an *Error, falling back to an opaque server_error
// so controllers never leak store internals.
func AsError(err error) *Error {
	var oauthErr *Error
	if errors.As(err, &oauthErr) {
		return oauthErr
	}
	return ServerError("internal error")
}
