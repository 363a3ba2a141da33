// internal/database/seed.go
package database

import (
	"github.com/shopspring/decimal"

	"github.com/farmlink/discovery/internal/models"
)

func demoProduct(seller *models.User, title, category, brand, price string, lon, lat float64) models.Product {
	return models.Product{
		SellerID:    seller.ID,
		Title:       title,
		Description: title + " sold directly by the grower",
		Category:    category,
		Brand:       brand,
		Price:       decimal.RequireFromString(price),
		Quantity:    10,
		ImageKeys:   models.StringList{"products/demo/" + category + ".jpg"},
		Longitude:   &lon,
		Latitude:    &lat,
	}
}
