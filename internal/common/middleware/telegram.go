package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sbtid-verifier-bot/internal/features/webapp"
)

// ContextUserID is the gin context key holding the verified Telegram user id.
const ContextUserID = "user_id"

// TelegramInitData authenticates requests by the init_data header. Only
// payloads with a genuine signature and a usable user id get through.
func TelegramInitData(verifier *webapp.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("init_data")
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Telegram Init Data required"})
			return
		}

		outcome := verifier.Verify(raw)
		if !outcome.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid init data"})
			return
		}
		if outcome.UserID == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Init data carries no user id"})
			return
		}

		c.Set(ContextUserID, outcome.UserID)
		c.Next()
	}
}
