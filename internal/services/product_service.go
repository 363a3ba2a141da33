// internal/services/product_service.go
package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/farmlink/discovery/internal/models"
	"github.com/farmlink/discovery/internal/utils"
)

// ListingStore is the write side of the catalog used by sellers.
type ListingStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindSeller(ctx context.Context, id uuid.UUID) (*models.User, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product, updates map[string]interface{}) error
	Delete(ctx context.Context, product *models.Product) error
}

type ProductService struct {
	store ListingStore
	guard *StoreGuard
	media ImageResolver
}

type CreateProductRequest struct {
	Title       string   `json:"title" validate:"required,min=3,max=255"`
	Description string   `json:"description" validate:"required,min=10"`
	Category    string   `json:"category" validate:"required,max=100"`
	Brand       string   `json:"brand" validate:"required,max=100"`
	Price       string   `json:"price" validate:"required,decimal_gte0"`
	Quantity    int      `json:"quantity" validate:"min=0"`
	ImageKeys   []string `json:"image_keys" validate:"required,min=1,dive,required"`
	Longitude   *float64 `json:"longitude" validate:"required,longitude"`
	Latitude    *float64 `json:"latitude" validate:"required,latitude"`
}

type UpdateProductRequest struct {
	Title       string   `json:"title,omitempty" validate:"omitempty,min=3,max=255"`
	Description string   `json:"description,omitempty" validate:"omitempty,min=10"`
	Category    string   `json:"category,omitempty" validate:"omitempty,max=100"`
	Brand       string   `json:"brand,omitempty" validate:"omitempty,max=100"`
	Price       string   `json:"price,omitempty" validate:"omitempty,decimal_gte0"`
	Quantity    *int     `json:"quantity,omitempty" validate:"omitempty,min=0"`
	ImageKeys   []string `json:"image_keys,omitempty" validate:"omitempty,min=1,dive,required"`
	Longitude   *float64 `json:"longitude,omitempty" validate:"omitempty,longitude"`
	Latitude    *float64 `json:"latitude,omitempty" validate:"omitempty,latitude"`
}

func NewProductService(store ListingStore, guard *StoreGuard, media ImageResolver) *ProductService {
	return &ProductService{
		store: store,
		guard: guard,
		media: media,
	}
}

func (s *ProductService) CreateProduct(ctx context.Context, sellerID uuid.UUID, req *CreateProductRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, invalidInput(err)
	}
	if err := validateImageKeys(req.ImageKeys); err != nil {
		return nil, invalidInput(err)
	}

	// Verify seller exists and is active
	seller, err := guardedCall(ctx, s.guard, StageListing, func(ctx context.Context) (*models.User, error) {
		return s.store.FindSeller(ctx, sellerID)
	})
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return nil, ErrForbidden
		}
		return nil, err
	}
	if !seller.IsActive() {
		return nil, ErrForbidden
	}

	product := &models.Product{
		SellerID:    sellerID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Category:    strings.TrimSpace(req.Category),
		Brand:       strings.TrimSpace(req.Brand),
		Price:       decimal.RequireFromString(strings.TrimSpace(req.Price)),
		Quantity:    req.Quantity,
		ImageKeys:   models.StringList(req.ImageKeys),
		Longitude:   req.Longitude,
		Latitude:    req.Latitude,
	}

	if _, err := guardedCall(ctx, s.guard, StageListing, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.store.Create(ctx, product)
	}); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"product_id": product.ID,
		"seller_id":  sellerID,
	}).Info("Product listed")

	s.resolveImages(product)
	return product, nil
}

func (s *ProductService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := guardedCall(ctx, s.guard, StageListing, func(ctx context.Context) (*models.Product, error) {
		return s.store.FindByID(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	s.resolveImages(product)
	return product, nil
}

// UpdateProduct applies a partial update by the owning seller. The seller
// never changes; location changes only when both coordinates are supplied.
func (s *ProductService) UpdateProduct(ctx context.Context, id, sellerID uuid.UUID, req *UpdateProductRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, invalidInput(err)
	}
	if req.ImageKeys != nil {
		if err := validateImageKeys(req.ImageKeys); err != nil {
			return nil, invalidInput(err)
		}
	}
	if (req.Longitude == nil) != (req.Latitude == nil) {
		return nil, invalidInput(errors.New("longitude and latitude must be updated together"))
	}

	product, err := s.ownedProduct(ctx, id, sellerID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Title != "" {
		updates["title"] = strings.TrimSpace(req.Title)
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	if req.Category != "" {
		updates["category"] = strings.TrimSpace(req.Category)
	}
	if req.Brand != "" {
		updates["brand"] = strings.TrimSpace(req.Brand)
	}
	if req.Price != "" {
		updates["price"] = decimal.RequireFromString(strings.TrimSpace(req.Price))
	}
	if req.Quantity != nil {
		updates["quantity"] = *req.Quantity
	}
	if req.ImageKeys != nil {
		updates["image_keys"] = models.StringList(req.ImageKeys)
	}
	if req.Longitude != nil && req.Latitude != nil {
		updates["longitude"] = *req.Longitude
		updates["latitude"] = *req.Latitude
	}

	if _, err := guardedCall(ctx, s.guard, StageListing, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.store.Update(ctx, product, updates)
	}); err != nil {
		return nil, err
	}

	return s.GetProduct(ctx, id)
}

func (s *ProductService) DeleteProduct(ctx context.Context, id, sellerID uuid.UUID) error {
	product, err := s.ownedProduct(ctx, id, sellerID)
	if err != nil {
		return err
	}

	_, err = guardedCall(ctx, s.guard, StageListing, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.store.Delete(ctx, product)
	})
	if err == nil {
		logrus.WithField("product_id", id).Info("Product removed")
	}
	return err
}

func (s *ProductService) ownedProduct(ctx context.Context, id, sellerID uuid.UUID) (*models.Product, error) {
	product, err := guardedCall(ctx, s.guard, StageListing, func(ctx context.Context) (*models.Product, error) {
		return s.store.FindByID(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	if product.SellerID != sellerID {
		return nil, ErrForbidden
	}
	return product, nil
}

func (s *ProductService) resolveImages(product *models.Product) {
	if s.media != nil {
		s.media.ResolveProductImages(product)
	}
}

func validateImageKeys(keys []string) error {
	for _, key := range keys {
		if err := ValidateImageKey(key); err != nil {
			return err
		}
	}
	return nil
}
