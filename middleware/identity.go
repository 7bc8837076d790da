package middleware

import (
	"fmt"
	"net/http"
	"time"

	"mcph/crate-api/internal/apikey"
	"mcph/crate-api/internal/crate"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// NewIdentityMiddleware resolves the caller identity once, up front, for
// every transport. Browsers carry an auth_token JWT cookie, MCP callers
// an X-API-Key header. A request with neither simply runs anonymous:
// anonymous uploads and anonymous-owned crate reads are legitimate.
// Requests with a credential that fails to verify are rejected instead
// of being demoted to anonymous.
//
// Handlers never look at cookies or headers themselves, they read the
// userID context key and hand it to the core as a crate.Identity.
func NewIdentityMiddleware(keys *apikey.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.MustGet("requestID").(string)

		if key := c.GetHeader("X-API-Key"); key != "" {
			userID, err := keys.Verify(key)
			if err != nil {
				if err == apikey.ErrInvalidKey {
					c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
						"error":     "invalid_api_key",
						"requestID": requestID,
					})
					return
				}

				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error":     "internal_server_error",
					"requestID": requestID,
				})

				zap.L().Error("Failed to verify API key", zap.Error(err), zap.String("requestID", requestID))
				return
			}

			c.Set("userID", userID)
			c.Next()
			return
		}

		tokenStr, err := c.Cookie("auth_token")
		if err != nil {
			// No credential at all, carry on anonymous
			c.Set("userID", "")
			c.Next()
			return
		}

		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
			if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
			}

			return []byte(viper.GetString("jwt.secret")), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "token_invalid",
				"requestID": requestID,
			})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "token_invalid",
				"requestID": requestID,
			})
			return
		}

		userID, ok := claims["user_id"].(string)
		if !ok || userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "token_invalid",
				"requestID": requestID,
			})
			return
		}

		exp, ok := claims["exp"].(float64)
		if !ok || time.Now().Unix() >= int64(exp) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "token_expired",
				"requestID": requestID,
			})
			return
		}

		c.Set("userID", userID)
		c.Next()
	}
}

// RequireAuth rejects anonymous callers. Placed after the identity
// middleware on owner-only routes like key management and ownership
// transfer.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.MustGet("requestID").(string)

		if c.GetString("userID") == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "authentication_required",
				"requestID": requestID,
			})
			return
		}

		c.Next()
	}
}

// CallerIdentity extracts the resolved identity for core calls.
func CallerIdentity(c *gin.Context) crate.Identity {
	return crate.Identity{UserID: c.GetString("userID")}
}
