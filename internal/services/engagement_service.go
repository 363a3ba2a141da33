// internal/services/engagement_service.go
package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/farmlink/discovery/internal/metrics"
	"github.com/farmlink/discovery/internal/models"
	"github.com/farmlink/discovery/internal/repository"
)

type EngagementStore interface {
	RecordView(ctx context.Context, productID uuid.UUID, viewerID *uuid.UUID) (*models.Product, error)
	ToggleFavorite(ctx context.Context, productID, userID uuid.UUID) (*repository.FavoriteResult, error)
	RecordChat(ctx context.Context, productID, userID uuid.UUID) (*models.Product, error)
}

// EngagementService records views, favorites and chats. Counters feed the
// popularity score; the behavior log feeds affinity profiles.
type EngagementService struct {
	store EngagementStore
	guard *StoreGuard
}

// EngagementCounters is the post-write view of a product's counters.
type EngagementCounters struct {
	ProductID uuid.UUID `json:"product_id"`
	Views     int64     `json:"views"`
	Favorites int64     `json:"favorites"`
	ChatCount int64     `json:"chat_count"`
}

func NewEngagementService(store EngagementStore, guard *StoreGuard) *EngagementService {
	return &EngagementService{store: store, guard: guard}
}

func (s *EngagementService) RecordView(ctx context.Context, productID uuid.UUID, viewerID *uuid.UUID) (*EngagementCounters, error) {
	product, err := guardedCall(ctx, s.guard, StageEngagement, func(ctx context.Context) (*models.Product, error) {
		return s.store.RecordView(ctx, productID, viewerID)
	})
	if err != nil {
		return nil, err
	}
	metrics.EngagementEvents.WithLabelValues(string(models.ActionView)).Inc()
	return countersOf(product), nil
}

func (s *EngagementService) ToggleFavorite(ctx context.Context, productID, userID uuid.UUID) (*repository.FavoriteResult, error) {
	result, err := guardedCall(ctx, s.guard, StageEngagement, func(ctx context.Context) (*repository.FavoriteResult, error) {
		return s.store.ToggleFavorite(ctx, productID, userID)
	})
	if err != nil {
		return nil, err
	}

	metrics.EngagementEvents.WithLabelValues(string(models.ActionFavorite)).Inc()
	logrus.WithFields(logrus.Fields{
		"product_id": productID,
		"user_id":    userID,
		"favorited":  result.Favorited,
	}).Debug("Favorite toggled")
	return result, nil
}

func (s *EngagementService) RecordChat(ctx context.Context, productID, userID uuid.UUID) (*EngagementCounters, error) {
	product, err := guardedCall(ctx, s.guard, StageEngagement, func(ctx context.Context) (*models.Product, error) {
		return s.store.RecordChat(ctx, productID, userID)
	})
	if err != nil {
		return nil, err
	}
	metrics.EngagementEvents.WithLabelValues(string(models.ActionChat)).Inc()
	return countersOf(product), nil
}

func countersOf(p *models.Product) *EngagementCounters {
	return &EngagementCounters{
		ProductID: p.ID,
		Views:     p.Views,
		Favorites: p.Favorites,
		ChatCount: p.ChatCount,
	}
}
