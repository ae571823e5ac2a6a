package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sbtid-verifier-bot/internal/common/middleware"
	"sbtid-verifier-bot/internal/features/nft/service"
)

type NFTHandler struct {
	service service.NFTService
}

func NewNFTHandler(service service.NFTService) *NFTHandler {
	return &NFTHandler{
		service: service,
	}
}

func (h *NFTHandler) RegisterRoutes(router *gin.RouterGroup) {
	nft := router.Group("/nft")
	{
		nft.GET("/status", h.GetStatus)
	}
}

// GetStatus reports whether the NFT tied to the authenticated user has been
// minted. The lookup itself never fails; upstream trouble arrives as an
// error-worded message inside a 200 response.
func (h *NFTHandler) GetStatus(c *gin.Context) {
	userID := c.GetInt64(middleware.ContextUserID)
	if userID == 0 {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Telegram Init Data required"})
		return
	}

	status := h.service.LookupStatus(c.Request.Context(), userID)
	c.JSON(http.StatusOK, status)
}
