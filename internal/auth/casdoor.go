package auth

import (
	"strings"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"
	"github.com/leonthanh/listening-service/internal/config"
	"github.com/leonthanh/listening-service/internal/utils"
)

// Authenticator resolves bearer tokens to user identities via Casdoor.
type Authenticator struct {
	client *casdoorsdk.Client
	logger utils.Logger
}

// NewAuthenticator builds an Authenticator from config. A config without a
// Casdoor endpoint yields a nil authenticator; callers treat that as running
// in open mode where every request is anonymous.
func NewAuthenticator(cfg *config.Config, logger utils.Logger) *Authenticator {
	if cfg.CasdoorEndpoint == "" {
		logger.Warn("Casdoor endpoint not configured, running without authentication")
		return nil
	}
	client := casdoorsdk.NewClient(
		cfg.CasdoorEndpoint,
		cfg.CasdoorClientID,
		cfg.CasdoorClientSecret,
		cfg.CasdoorCertificate,
		cfg.CasdoorOrganization,
		cfg.CasdoorApplication,
	)
	return &Authenticator{client: client, logger: logger}
}

// Middleware attaches the caller identity to the request context. Requests
// without a token stay anonymous; a present but invalid token is rejected so
// a stale session fails loudly instead of silently downgrading to anonymous.
func (a *Authenticator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		token := strings.TrimPrefix(header, "Bearer ")
		claims, err := a.client.ParseJwtToken(token)
		if err != nil {
			a.logger.Warn("Rejected invalid bearer token", "error", err)
			c.AbortWithStatusJSON(401, gin.H{"message": "invalid token"})
			return
		}

		c.Set("user_id", claims.User.Id)
		c.Set("user_name", claims.User.DisplayName)
		c.Next()
	}
}

// OptionalMiddleware returns the auth middleware when an authenticator is
// configured and a pass-through otherwise.
func OptionalMiddleware(a *Authenticator) gin.HandlerFunc {
	if a == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return a.Middleware()
}
