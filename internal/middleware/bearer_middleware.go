package middleware

import (
	"fmt"
	"strings"

	"github.com/taskgate/taskgate/internal/oauth"
	"github.com/taskgate/taskgate/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type BearerMiddlewareConfig struct {
	AppURL string
	Realm  string
}

// BearerMiddleware authenticates every tool-call request via the
// Authorization header. Failures answer 401 with a WWW-Authenticate
// challenge pointing back at the protected-resource metadata.
type BearerMiddleware struct {
	config BearerMiddlewareConfig
	tokens *service.TokenService
}

func NewBearerMiddleware(config BearerMiddlewareConfig, tokens *service.TokenService) *BearerMiddleware {
	return &BearerMiddleware{
		config: config,
		tokens: tokens,
	}
}

func (m *BearerMiddleware) Init() error {
	return nil
}

func (m *BearerMiddleware) challenge() string {
	return fmt.Sprintf(`Bearer realm=%q, resource_metadata=%q`, m.config.Realm, m.config.AppURL+"/.well-known/oauth-protected-resource")
}

func (m *BearerMiddleware) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")

		if !strings.HasPrefix(authHeader, "Bearer ") {
			// The token value itself is never logged, only its absence.
			log.Debug().Str("path", c.Request.URL.Path).Bool("header_present", authHeader != "").Msg("Tool call without bearer credentials")
			m.unauthorized(c, oauth.InvalidToken("missing bearer token"))
			return
		}

		authContext, err := m.tokens.Authenticate(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			oauthErr := oauth.AsError(err)
			log.Debug().Str("path", c.Request.URL.Path).Str("error_code", oauthErr.Code).Msg("Tool call authentication failed")
			m.unauthorized(c, oauthErr)
			return
		}

		c.Set("auth", authContext)
		c.Next()
	}
}

func (m *BearerMiddleware) unauthorized(c *gin.Context, oauthErr *oauth.Error) {
	c.Header("WWW-Authenticate", m.challenge())
	c.AbortWithStatusJSON(oauthErr.Status, gin.H{
		"error":             oauthErr.Code,
		"error_description": oauthErr.Description,
	})
}
