package middleware

import (
	"github.com/taskgate/taskgate/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"github.com/rs/zerolog/log"
)

type SessionMiddlewareConfig struct {
	SessionSecret string
	CookieName    string
	SecureCookie  bool
}

// SessionMiddleware resolves the authenticated human from the web session
// cookie and exposes it as an IdentityContext. Login itself is owned by the
// workspace web app; taskgate only reads the identity that approves or
// manages grants.
type SessionMiddleware struct {
	config SessionMiddlewareConfig
	store  *sessions.CookieStore
}

func NewSessionMiddleware(config SessionMiddlewareConfig) *SessionMiddleware {
	return &SessionMiddleware{
		config: config,
	}
}

func (m *SessionMiddleware) Init() error {
	store := sessions.NewCookieStore([]byte(m.config.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		Secure:   m.config.SecureCookie,
		HttpOnly: true,
	}
	m.store = store
	return nil
}

// Store exposes the cookie store so tests and the login collaborator can
// write sessions taskgate will accept.
func (m *SessionMiddleware) Store() *sessions.CookieStore {
	return m.store
}

func (m *SessionMiddleware) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := m.store.Get(c.Request, m.config.CookieName)
		if err != nil {
			log.Debug().Err(err).Msg("Invalid session cookie")
			c.Next()
			return
		}

		userID, ok := session.Values["user_id"].(string)
		if !ok || userID == "" {
			c.Next()
			return
		}

		name, _ := session.Values["name"].(string)
		email, _ := session.Values["email"].(string)

		c.Set("identity", config.IdentityContext{
			UserID:     userID,
			Name:       name,
			Email:      email,
			IsLoggedIn: true,
		})

		c.Next()
	}
}
