package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"kitchen-system/internal/utils"
)

// JWTAuth guards the kitchen routes. The parsed claims are stored on
// the context under "claims".
func JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "missing or malformed authorization header",
			})
			return
		}

		claims, err := utils.ParseToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "invalid token",
			})
			return
		}

		c.Set("claims", claims)
		c.Next()
	}
}
