// internal/repository/activity_store.go
package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/farmlink/discovery/internal/models"
)

// ActivityStore reads the behavior log that feeds affinity profiles.
type ActivityStore struct {
	db *gorm.DB
}

func NewActivityStore(db *gorm.DB) *ActivityStore {
	return &ActivityStore{db: db}
}

type interactionRow struct {
	ProductID uuid.UUID
	Action    models.InteractionAction
}

// GetUserActivitySummary collects the distinct products a user viewed,
// favorited, chatted about, and listed.
func (s *ActivityStore) GetUserActivitySummary(ctx context.Context, userID uuid.UUID) (*models.UserActivitySummary, error) {
	db := s.db.WithContext(ctx)

	var rows []interactionRow
	if err := db.Model(&models.InteractionRecord{}).
		Distinct("product_id", "action").
		Where("user_id = ?", userID).
		Order("product_id").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch interactions: %w", err)
	}

	summary := &models.UserActivitySummary{UserID: userID}
	for _, row := range rows {
		switch row.Action {
		case models.ActionView:
			summary.ViewedIDs = append(summary.ViewedIDs, row.ProductID)
		case models.ActionFavorite:
			summary.FavoritedIDs = append(summary.FavoritedIDs, row.ProductID)
		case models.ActionChat:
			summary.ChattedIDs = append(summary.ChattedIDs, row.ProductID)
		}
	}

	if err := db.Model(&models.Product{}).
		Where("seller_id = ?", userID).
		Order("id").
		Pluck("id", &summary.ListedIDs).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch listings: %w", err)
	}

	return summary, nil
}
