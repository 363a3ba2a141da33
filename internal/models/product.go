// internal/models/product.go
package models

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Product struct {
	BaseModel
	SellerID    uuid.UUID       `json:"seller_id" gorm:"type:uuid;not null;index"`
	Title       string          `json:"title" gorm:"size:255;not null"`
	Description string          `json:"description" gorm:"type:text"`
	Category    string          `json:"category" gorm:"size:100;index"`
	Brand       string          `json:"brand" gorm:"size:100;index"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
	Quantity    int             `json:"quantity" gorm:"default:0"`
	ImageKeys   StringList      `json:"-" gorm:"type:text"`
	ImageURLs   []string        `json:"image_urls" gorm:"-"`

	// Location is nullable; products without a valid point never match geo queries.
	Longitude *float64 `json:"longitude" gorm:"index:idx_products_location,priority:2"`
	Latitude  *float64 `json:"latitude" gorm:"index:idx_products_location,priority:1"`

	// Engagement counters
	Views     int64 `json:"views" gorm:"default:0"`
	Favorites int64 `json:"favorites" gorm:"default:0"`
	ChatCount int64 `json:"chat_count" gorm:"default:0"`

	// Maintained by the review service
	Rating      float64 `json:"rating" gorm:"default:0"`
	ReviewCount int64   `json:"review_count" gorm:"default:0"`

	// Relationships
	Seller *User `json:"seller,omitempty" gorm:"foreignKey:SellerID"`
}

// HasValidLocation reports whether the product carries a usable point.
func (p *Product) HasValidLocation() bool {
	if p.Longitude == nil || p.Latitude == nil {
		return false
	}
	lon, lat := *p.Longitude, *p.Latitude
	if math.IsNaN(lon) || math.IsNaN(lat) {
		return false
	}
	return lon >= -180 && lon <= 180 && lat >= -90 && lat <= 90
}

// AgeInDays is zero when the creation time is unknown or in the future.
func (p *Product) AgeInDays(now time.Time) float64 {
	if p.CreatedAt.IsZero() {
		return 0
	}
	age := now.Sub(p.CreatedAt).Hours() / 24
	if age < 0 {
		return 0
	}
	return age
}

// ProductWithDistance is a geo query hit annotated with its distance in kilometers.
type ProductWithDistance struct {
	Product
	DistanceKm float64 `json:"distance_km"`
}

// RankedProduct is a recommendation entry with the score that placed it.
type RankedProduct struct {
	Product
	Score float64 `json:"score"`
}
