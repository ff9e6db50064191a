package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"devicereg/internal/authz"
)

const RegistrantKey = "registrant"

// BasicAuth admits only requests carrying a known registrant and its token.
func BasicAuth(registrants *authz.Registrants) gin.HandlerFunc {
	return func(c *gin.Context) {
		// let CORS preflight through
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		user, pass, ok := c.Request.BasicAuth()
		if !ok {
			unauthorized(c)
			return
		}
		registrant, ok := registrants.Authenticate(user, pass)
		if !ok {
			unauthorized(c)
			return
		}

		c.Set(RegistrantKey, registrant)
		c.Next()
	}
}

func unauthorized(c *gin.Context) {
	c.Header("WWW-Authenticate", `Basic realm="devicereg"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid person token"})
}

// Registrant returns the identity stored by BasicAuth.
func Registrant(c *gin.Context) (string, bool) {
	v, ok := c.Get(RegistrantKey)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}
