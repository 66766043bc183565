package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

// Identity is the resolved caller of an authenticated request.
type Identity struct {
	UserID string `json:"user_id"`
	Admin  bool   `json:"admin"`
}

// Authenticator resolves static bearer tokens to identities. Token issuance
// belongs to the surrounding deployment; the core only maps them.
type Authenticator struct {
	tokens map[string]Identity
}

// NewAuthenticator creates an Authenticator from a token-to-identity map.
func NewAuthenticator(tokens map[string]Identity) *Authenticator {
	return &Authenticator{tokens: tokens}
}

// Middleware rejects requests without a known bearer token and stores the
// identity on the context.
func (a *Authenticator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		id, ok := a.tokens[token]
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown token"})
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

// callerIdentity returns the identity stored by the middleware, if any.
func callerIdentity(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}

// requireAdmin aborts non-admin requests.
func (s *Server) requireAdmin(c *gin.Context) {
	id, ok := callerIdentity(c)
	if !ok || !id.Admin {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
		return
	}
	c.Next()
}
