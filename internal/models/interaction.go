// internal/models/interaction.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InteractionRecord is one append-only entry of the behavior log.
type InteractionRecord struct {
	ID        uuid.UUID         `json:"id" gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID         `json:"user_id" gorm:"type:uuid;not null;index:idx_interactions_user_action,priority:1"`
	ProductID uuid.UUID         `json:"product_id" gorm:"type:uuid;not null;index"`
	Action    InteractionAction `json:"action" gorm:"type:varchar(20);not null;index:idx_interactions_user_action,priority:2"`
	CreatedAt time.Time         `json:"created_at" gorm:"index"`
}

func (InteractionRecord) TableName() string {
	return "interaction_records"
}

func (r *InteractionRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// ProductFavorite is the per-user favorite membership the favorites counter is derived from.
type ProductFavorite struct {
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;primaryKey"`
	ProductID uuid.UUID `json:"product_id" gorm:"type:uuid;primaryKey;index"`
	CreatedAt time.Time `json:"created_at"`
}

// UserActivitySummary is the per-user rollup of the behavior log.
type UserActivitySummary struct {
	UserID       uuid.UUID   `json:"user_id"`
	ViewedIDs    []uuid.UUID `json:"viewed_ids"`
	FavoritedIDs []uuid.UUID `json:"favorited_ids"`
	ChattedIDs   []uuid.UUID `json:"chatted_ids"`
	ListedIDs    []uuid.UUID `json:"listed_ids"`
}

// InteractedIDs returns the deduplicated union of all four sets.
func (s *UserActivitySummary) InteractedIDs() []uuid.UUID {
	if s == nil {
		return nil
	}
	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID
	for _, set := range [][]uuid.UUID{s.ViewedIDs, s.FavoritedIDs, s.ChattedIDs, s.ListedIDs} {
		for _, id := range set {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}
