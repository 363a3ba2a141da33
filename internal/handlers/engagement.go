// internal/handlers/engagement.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/farmlink/discovery/internal/config"
	"github.com/farmlink/discovery/internal/i18n"
	"github.com/farmlink/discovery/internal/services"
	"github.com/farmlink/discovery/internal/utils"
)

type EngagementHandler struct {
	engagementService *services.EngagementService
	retryAfter        int
}

func NewEngagementHandler(engagementService *services.EngagementService, cfg config.DiscoveryConfig) *EngagementHandler {
	return &EngagementHandler{
		engagementService: engagementService,
		retryAfter:        retryAfterSeconds(cfg),
	}
}

// POST /products/:id/view
func (h *EngagementHandler) RecordView(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	productID, ok := parseProductID(c)
	if !ok {
		return
	}

	counters, err := h.engagementService.RecordView(c.Request.Context(), productID, optionalUser(c))
	if err != nil {
		respondError(c, err, h.retryAfter)
		return
	}

	utils.SuccessResponseWithMeta(c, counters, gin.H{"message": i18n.T(lang, i18n.KeyEngagementViewRecorded)})
}

// POST /products/:id/favorite
func (h *EngagementHandler) ToggleFavorite(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	productID, ok := parseProductID(c)
	if !ok {
		return
	}

	result, err := h.engagementService.ToggleFavorite(c.Request.Context(), productID, userID)
	if err != nil {
		respondError(c, err, h.retryAfter)
		return
	}

	key := i18n.KeyEngagementFavoriteRemoved
	if result.Favorited {
		key = i18n.KeyEngagementFavoriteAdded
	}
	utils.SuccessResponseWithMeta(c, result, gin.H{"message": i18n.T(lang, key)})
}

// POST /products/:id/chat
func (h *EngagementHandler) RecordChat(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	productID, ok := parseProductID(c)
	if !ok {
		return
	}

	counters, err := h.engagementService.RecordChat(c.Request.Context(), productID, userID)
	if err != nil {
		respondError(c, err, h.retryAfter)
		return
	}

	utils.SuccessResponseWithMeta(c, counters, gin.H{"message": i18n.T(lang, i18n.KeyEngagementChatRecorded)})
}
