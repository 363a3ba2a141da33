// internal/repository/engagement_store.go
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/farmlink/discovery/internal/models"
)

// EngagementStore applies counter changes and the matching behavior-log
// entries in one transaction.
type EngagementStore struct {
	db *gorm.DB
}

func NewEngagementStore(db *gorm.DB) *EngagementStore {
	return &EngagementStore{db: db}
}

// FavoriteResult is the membership state after a toggle.
type FavoriteResult struct {
	Favorited bool  `json:"favorited"`
	Favorites int64 `json:"favorites"`
}

// RecordView increments the view counter. Authenticated viewers other than
// the seller also get a view entry in the behavior log.
func (s *EngagementStore) RecordView(ctx context.Context, productID uuid.UUID, viewerID *uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&product, "id = ?", productID).Error; err != nil {
			return err
		}
		if err := incrementColumn(tx, productID, "views"); err != nil {
			return err
		}
		if viewerID != nil && *viewerID != product.SellerID {
			if err := appendInteraction(tx, *viewerID, productID, models.ActionView); err != nil {
				return err
			}
		}
		return tx.First(&product, "id = ?", productID).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record view: %w", err)
	}
	return &product, nil
}

// ToggleFavorite flips the user's favorite membership for a product. The
// counter moves only when membership actually changes and never drops below zero.
func (s *EngagementStore) ToggleFavorite(ctx context.Context, productID, userID uuid.UUID) (*FavoriteResult, error) {
	result := &FavoriteResult{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.First(&product, "id = ?", productID).Error; err != nil {
			return err
		}

		var membership models.ProductFavorite
		err := tx.Where("user_id = ? AND product_id = ?", userID, productID).First(&membership).Error
		switch {
		case err == nil:
			if err := tx.Where("user_id = ? AND product_id = ?", userID, productID).
				Delete(&models.ProductFavorite{}).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.Product{}).
				Where("id = ? AND favorites > 0", productID).
				UpdateColumns(map[string]interface{}{
					"favorites":  gorm.Expr("favorites - 1"),
					"updated_at": time.Now(),
				}).Error; err != nil {
				return err
			}
			result.Favorited = false
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Create(&models.ProductFavorite{UserID: userID, ProductID: productID}).Error; err != nil {
				return err
			}
			if err := incrementColumn(tx, productID, "favorites"); err != nil {
				return err
			}
			if err := appendInteraction(tx, userID, productID, models.ActionFavorite); err != nil {
				return err
			}
			result.Favorited = true
		default:
			return err
		}

		return tx.Model(&models.Product{}).Where("id = ?", productID).
			Pluck("favorites", &result.Favorites).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to toggle favorite: %w", err)
	}
	return result, nil
}

// RecordChat counts a buyer opening a conversation about a product. Sellers
// chatting on their own listing are not counted.
func (s *EngagementStore) RecordChat(ctx context.Context, productID, userID uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&product, "id = ?", productID).Error; err != nil {
			return err
		}
		if userID == product.SellerID {
			return nil
		}
		if err := incrementColumn(tx, productID, "chat_count"); err != nil {
			return err
		}
		if err := appendInteraction(tx, userID, productID, models.ActionChat); err != nil {
			return err
		}
		return tx.First(&product, "id = ?", productID).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record chat: %w", err)
	}
	return &product, nil
}

func incrementColumn(tx *gorm.DB, productID uuid.UUID, column string) error {
	return tx.Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumns(map[string]interface{}{
			column:       gorm.Expr(column + " + 1"),
			"updated_at": time.Now(),
		}).Error
}

func appendInteraction(tx *gorm.DB, userID, productID uuid.UUID, action models.InteractionAction) error {
	return tx.Create(&models.InteractionRecord{
		UserID:    userID,
		ProductID: productID,
		Action:    action,
	}).Error
}
