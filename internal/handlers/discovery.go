// internal/handlers/discovery.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/farmlink/discovery/internal/config"
	"github.com/farmlink/discovery/internal/i18n"
	"github.com/farmlink/discovery/internal/models"
	"github.com/farmlink/discovery/internal/services"
	"github.com/farmlink/discovery/internal/utils"
)

type DiscoveryHandler struct {
	discoveryService *services.DiscoveryService
	cfg              config.DiscoveryConfig
	retryAfter       int
}

func NewDiscoveryHandler(discoveryService *services.DiscoveryService, cfg config.DiscoveryConfig) *DiscoveryHandler {
	return &DiscoveryHandler{
		discoveryService: discoveryService,
		cfg:              cfg,
		retryAfter:       retryAfterSeconds(cfg),
	}
}

// GET /products/search
func (h *DiscoveryHandler) Search(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	req := services.SearchRequest{
		Category:    c.Query("category"),
		Brand:       c.Query("brand"),
		SearchTerm:  c.Query("searchTerm"),
		Coordinates: c.Query("coordinates"),
		MaxDistance: c.Query("maxDistance"),
	}

	// Unpaginated unless the caller asks for a page.
	_, hasPage := c.GetQuery("page")
	_, hasLimit := c.GetQuery("limit")
	if hasPage || hasLimit {
		req.Pagination = utils.GetPaginationParams(c, h.cfg.PageSize, h.cfg.MaxPageSize)
	}

	result, err := h.discoveryService.Search(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, h.retryAfter)
		return
	}

	message := ""
	if result.Notice != "" {
		message = i18n.T(lang, result.Notice)
	} else if len(result.Products) == 0 {
		message = i18n.T(lang, i18n.KeySearchNoResults)
	}

	var meta interface{}
	if req.Pagination.Limit > 0 {
		page := utils.CreatePaginationResult(nil, result.Total, req.Pagination)
		utils.SetPaginationHeaders(c, page)
		meta = gin.H{
			"pagination": gin.H{
				"page":        page.Page,
				"limit":       page.Limit,
				"total":       page.Total,
				"total_pages": page.TotalPages,
			},
		}
	}

	utils.SearchResultResponse(c, result.Products, result.GeoApplied, message, meta)
}

// GET /products
func (h *DiscoveryHandler) ListProducts(c *gin.Context) {
	params := utils.GetPaginationParams(c, h.cfg.PageSize, h.cfg.MaxPageSize)

	result, err := h.discoveryService.Search(c.Request.Context(), services.SearchRequest{Pagination: params})
	if err != nil {
		respondError(c, err, h.retryAfter)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(result.Products, result.Total, params))
}

// GET /products/recommendations
func (h *DiscoveryHandler) Recommend(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, _ := utils.GetUserIDFromContext(c)

	rec, err := h.discoveryService.Recommend(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, h.retryAfter)
		return
	}

	products := rec.Products
	if products == nil {
		products = []models.RankedProduct{}
	}

	meta := gin.H{"strategy": rec.Strategy}
	if len(products) == 0 {
		meta["message"] = i18n.T(lang, i18n.KeyDiscoveryNoRecommendations)
	}
	utils.SuccessResponseWithMeta(c, products, meta)
}

// GET /products/popular
func (h *DiscoveryHandler) Popular(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(h.cfg.PageSize)))

	products, err := h.discoveryService.Popular(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err, h.retryAfter)
		return
	}

	utils.SuccessResponse(c, products)
}
