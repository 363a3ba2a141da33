// internal/handlers/product.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/farmlink/discovery/internal/config"
	"github.com/farmlink/discovery/internal/i18n"
	"github.com/farmlink/discovery/internal/services"
	"github.com/farmlink/discovery/internal/utils"
)

type ProductHandler struct {
	productService *services.ProductService
	retryAfter     int
}

func NewProductHandler(productService *services.ProductService, cfg config.DiscoveryConfig) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		retryAfter:     retryAfterSeconds(cfg),
	}
}

// POST /products
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	sellerID, ok := requireUser(c)
	if !ok {
		return
	}

	var req services.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	product, err := h.productService.CreateProduct(c.Request.Context(), sellerID, &req)
	if err != nil {
		respondError(c, err, h.retryAfter)
		return
	}

	utils.CreatedResponse(c, product)
}

// GET /products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	productID, ok := parseProductID(c)
	if !ok {
		return
	}

	product, err := h.productService.GetProduct(c.Request.Context(), productID)
	if err != nil {
		respondError(c, err, h.retryAfter)
		return
	}

	utils.SuccessResponse(c, product)
}

// PUT /products/:id
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	sellerID, ok := requireUser(c)
	if !ok {
		return
	}
	productID, ok := parseProductID(c)
	if !ok {
		return
	}

	var req services.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	product, err := h.productService.UpdateProduct(c.Request.Context(), productID, sellerID, &req)
	if err != nil {
		respondError(c, err, h.retryAfter)
		return
	}

	utils.SuccessResponse(c, product)
}

// DELETE /products/:id
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	sellerID, ok := requireUser(c)
	if !ok {
		return
	}
	productID, ok := parseProductID(c)
	if !ok {
		return
	}

	if err := h.productService.DeleteProduct(c.Request.Context(), productID, sellerID); err != nil {
		respondError(c, err, h.retryAfter)
		return
	}

	utils.SuccessResponse(c, gin.H{"message": i18n.T(lang, i18n.KeyProductDeleted)})
}
