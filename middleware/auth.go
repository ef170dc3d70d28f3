package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"yellowair/auth"
)

const claimsKey = "claims"

// tokenFromRequest reads the session cookie, falling back to a Bearer header
// for non-browser clients.
func tokenFromRequest(c *gin.Context) string {
	if cookie, err := c.Cookie(auth.CookieName); err == nil && cookie != "" {
		return cookie
	}

	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

// Authenticate decodes the credential when one is present and stores its
// claims on the context. It never rejects a request.
func Authenticate(codec *auth.Codec) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := tokenFromRequest(c); token != "" {
			if claims, err := codec.Decode(token); err == nil {
				c.Set(claimsKey, claims)
			}
		}
		c.Next()
	}
}

func AuthRequired(codec *auth.Codec) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := authenticate(c, codec); !ok {
			return
		}
		c.Next()
	}
}

// AdminRequired rejects missing or invalid credentials with 401 and
// credentials the guard does not accept with 403.
func AdminRequired(codec *auth.Codec, guard auth.Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := authenticate(c, codec)
		if !ok {
			return
		}

		if !guard.IsAdmin(claims) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		c.Next()
	}
}

func authenticate(c *gin.Context, codec *auth.Codec) (*auth.Claims, bool) {
	token := tokenFromRequest(c)
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return nil, false
	}

	claims, err := codec.Decode(token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return nil, false
	}

	c.Set(claimsKey, claims)
	return claims, true
}

// ClaimsFrom returns the claims stored by the auth middleware.
func ClaimsFrom(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}
