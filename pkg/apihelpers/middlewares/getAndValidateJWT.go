package middlewares

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	jwthandling "github.com/case-framework/records-portal/pkg/jwt-handling"
	"github.com/case-framework/records-portal/pkg/session"
	"github.com/gin-gonic/gin"
)

const (
	HeaderAuthorization = "Authorization"

	ContextKeyToken          = "token"
	ContextKeyValidatedToken = "validatedToken"
	ContextKeySession        = "session"
)

func extractToken(c *gin.Context) (string, error) {
	header := c.GetHeader(HeaderAuthorization)
	if header == "" {
		return "", errors.New("no Authorization header found")
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return "", errors.New("no token found in Authorization header")
	}
	return token, nil
}

// GetAndValidateUserJWT validates the bearer token and stores the parsed
// claims plus the derived session context on the gin context.
func GetAndValidateUserJWT(tokenSignKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := extractToken(c)
		if err != nil {
			slog.Warn("no Authorization token found")
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		parsedToken, ok, err := jwthandling.ValidateUserToken(token, tokenSignKey)
		if err != nil || !ok {
			msg := "token invalid"
			if err != nil {
				msg = err.Error()
			}
			slog.Warn("token validation failed", slog.String("error", msg))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "error during token validation"})
			return
		}

		c.Set(ContextKeyToken, token)
		c.Set(ContextKeyValidatedToken, parsedToken)
		c.Set(ContextKeySession, session.FromClaims(token, parsedToken))
		c.Next()
	}
}

// IsAdminUser must run after GetAndValidateUserJWT.
func IsAdminUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenValue, ok := c.Get(ContextKeyValidatedToken)
		if !ok {
			slog.Warn("IsAdminUser: validatedToken not found in context")
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "validatedToken not found in context"})
			return
		}
		parsedToken := tokenValue.(*jwthandling.UserClaims)

		if !parsedToken.IsAdmin {
			slog.Warn("IsAdminUser Middleware: non admin user tried to access admin endpoint", slog.String("userID", parsedToken.Subject))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized access to admin endpoint"})
			return
		}
		c.Next()
	}
}

// SessionFromCtx returns the session stored by GetAndValidateUserJWT.
func SessionFromCtx(c *gin.Context) *session.Context {
	v, ok := c.Get(ContextKeySession)
	if !ok {
		return nil
	}
	sc, _ := v.(*session.Context)
	return sc
}
