package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/SeopE9611/sub010-backend/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// OperatorKey is the gin context key carrying the authenticated operator
// identity for audit logging. Empty when the shared admin token was used.
const OperatorKey = "Operator"

// AdminAuth guards the back-office outbox surface. It accepts either the
// shared admin API token or an HS256 bearer token issued by the storefront's
// auth service; the latter attributes the action to a named operator.
func AdminAuth(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimSpace(cfg.AdminAPIToken)
		if token == "" && cfg.AuthJWTSecret == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin_token_not_configured"})
			return
		}

		provided := strings.TrimSpace(c.GetHeader("X-Admin-Token"))
		if provided == "" {
			authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
			if strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
				provided = strings.TrimSpace(authHeader[7:])
			}
		}
		if provided == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		if token != "" && subtle.ConstantTimeCompare([]byte(provided), []byte(token)) == 1 {
			c.Next()
			return
		}

		if cfg.AuthJWTSecret != "" {
			if operator, ok := verifyOperator(provided, cfg.AuthJWTSecret); ok {
				c.Set(OperatorKey, operator)
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	}
}

type operatorClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func verifyOperator(tokenString, secret string) (string, bool) {
	claims := &operatorClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return "", false
	}
	if claims.Role != "admin" {
		return "", false
	}
	return claims.Subject, true
}

// Operator returns the operator identity set by AdminAuth, if any.
func Operator(c *gin.Context) string {
	return c.GetString(OperatorKey)
}
