package utils

import (
	"errors"

	"github.com/taskgate/taskgate/internal/config"

	"github.com/gin-gonic/gin"
)

// GetIdentity returns the authenticated human from the request context, set
// by the session middleware.
func GetIdentity(c *gin.Context) (config.IdentityContext, error) {
	value, exists := c.Get("identity")
	if !exists {
		return config.IdentityContext{}, errors.New("no identity in context")
	}

	identity, ok := value.(config.IdentityContext)
	if !ok {
		return config.IdentityContext{}, errors.New("invalid identity in context")
	}

	return identity, nil
}

// GetAuthContext returns the bearer-token auth context, set by the bearer
// middleware on tool-call routes.
func GetAuthContext(c *gin.Context) (*config.AuthContext, error) {
	value, exists := c.Get("auth")
	if !exists {
		return nil, errors.New("no auth context in context")
	}

	authContext, ok := value.(*config.AuthContext)
	if !ok {
		return nil, errors.New("invalid auth context in context")
	}

	return authContext, nil
}
