// internal/services/discovery_service.go
package services

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/farmlink/discovery/internal/config"
	"github.com/farmlink/discovery/internal/i18n"
	"github.com/farmlink/discovery/internal/metrics"
	"github.com/farmlink/discovery/internal/models"
	"github.com/farmlink/discovery/internal/repository"
	"github.com/farmlink/discovery/internal/utils"
)

// CatalogStore is the read side of the product catalog.
type CatalogStore interface {
	ProductLookup
	FindByFilter(ctx context.Context, filter repository.CatalogFilter) ([]models.Product, error)
	CountByFilter(ctx context.Context, filter repository.CatalogFilter) (int64, error)
	FindWithinRadius(ctx context.Context, filter repository.CatalogFilter, q repository.GeoQuery) ([]models.ProductWithDistance, error)
	FindCandidates(ctx context.Context, filter repository.CandidateFilter) ([]models.Product, error)
	FindPopular(ctx context.Context, excludeSellerID *uuid.UUID, limit int) ([]models.Product, error)
}

type ImageResolver interface {
	ResolveProductImages(products ...*models.Product)
}

type SearchRequest struct {
	Category    string
	Brand       string
	SearchTerm  string
	Coordinates string // "<longitude>,<latitude>"
	MaxDistance string // kilometers
	Pagination  utils.PaginationParams
}

// SearchHit is a search result entry. DistanceKm is set only in geo mode.
type SearchHit struct {
	models.Product
	DistanceKm *float64 `json:"distance_km,omitempty"`
}

// SearchResult carries the hits plus whether the radius was honoured. Notice
// is an i18n key explaining a silent fallback to flat mode.
type SearchResult struct {
	Products   []SearchHit `json:"products"`
	GeoApplied bool        `json:"geo_applied"`
	Notice     string      `json:"notice,omitempty"`
	Total      int64       `json:"total"`
}

type Strategy string

const (
	StrategyColdStart    Strategy = "cold_start"
	StrategyPersonalized Strategy = "personalized"
	StrategyEmpty        Strategy = "empty"
)

type Recommendation struct {
	Strategy Strategy               `json:"strategy"`
	Products []models.RankedProduct `json:"products"`
}

type DiscoveryService struct {
	catalog  CatalogStore
	affinity *AffinityBuilder
	scorer   *Scorer
	guard    *StoreGuard
	cache    SearchCache
	media    ImageResolver
	cfg      config.DiscoveryConfig
	now      func() time.Time
}

func NewDiscoveryService(
	catalog CatalogStore,
	activity ActivityStore,
	guard *StoreGuard,
	cache SearchCache,
	media ImageResolver,
	cfg config.DiscoveryConfig,
) *DiscoveryService {
	if cache == nil {
		cache = NewNoopSearchCache()
	}
	if cfg.PageSize < 1 {
		cfg.PageSize = 20
	}
	return &DiscoveryService{
		catalog:  catalog,
		affinity: NewAffinityBuilder(activity, catalog, guard, cfg),
		scorer:   NewScorer(cfg.Weights),
		guard:    guard,
		cache:    cache,
		media:    media,
		cfg:      cfg,
		now:      time.Now,
	}
}

type geoParams struct {
	center   utils.Point
	radiusKm float64
}

// planSearch validates the geo inputs before any store access. Malformed
// coordinates are an error; an unusable radius only downgrades to flat mode.
func planSearch(req SearchRequest) (*geoParams, string, error) {
	coords := strings.TrimSpace(req.Coordinates)
	radiusRaw := strings.TrimSpace(req.MaxDistance)

	if coords == "" {
		if radiusRaw != "" {
			return nil, i18n.KeyDiscoveryMissingCoordinates, nil
		}
		return nil, "", nil
	}

	center, err := utils.ParseCoordinates(coords)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidCoordinates, err)
	}

	radius, err := strconv.ParseFloat(radiusRaw, 64)
	if err != nil || math.IsNaN(radius) || math.IsInf(radius, 0) || radius <= 0 {
		return nil, i18n.KeyDiscoveryRadiusIgnored, nil
	}
	return &geoParams{center: center, radiusKm: radius}, "", nil
}

// Search runs the attribute filters, bounded by a radius when both
// coordinates and a positive maxDistance (km) are given.
func (s *DiscoveryService) Search(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	start := time.Now()
	defer func() {
		metrics.DiscoveryDuration.WithLabelValues("search").Observe(time.Since(start).Seconds())
	}()

	geo, notice, err := planSearch(req)
	if err != nil {
		metrics.DiscoveryRequests.WithLabelValues("search", "invalid").Inc()
		return nil, err
	}

	key := searchCacheKey(req, geo, notice)
	if cached, ok := s.cache.Get(ctx, key); ok {
		return cached, nil
	}

	var result *SearchResult
	if geo != nil {
		result, err = s.searchWithinRadius(ctx, req, geo)
	} else {
		result, err = s.searchFlat(ctx, req)
	}
	if err != nil {
		metrics.DiscoveryRequests.WithLabelValues("search", "error").Inc()
		return nil, err
	}
	result.Notice = notice

	switch {
	case result.GeoApplied:
		metrics.DiscoveryRequests.WithLabelValues("search", "geo").Inc()
	case notice != "":
		metrics.DiscoveryRequests.WithLabelValues("search", "radius_ignored").Inc()
		logrus.WithFields(logrus.Fields{
			"coordinates":  req.Coordinates,
			"max_distance": req.MaxDistance,
		}).Info("Distance filter not applied, returning unfiltered results")
	default:
		metrics.DiscoveryRequests.WithLabelValues("search", "flat").Inc()
	}

	s.cache.Set(ctx, key, result)
	return result, nil
}

func catalogFilter(req SearchRequest) repository.CatalogFilter {
	return repository.CatalogFilter{
		Category:   req.Category,
		Brand:      req.Brand,
		SearchTerm: req.SearchTerm,
		Pagination: req.Pagination,
	}
}

func (s *DiscoveryService) searchFlat(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	filter := catalogFilter(req)
	products, err := guardedCall(ctx, s.guard, StageFilterQuery, func(ctx context.Context) ([]models.Product, error) {
		return s.catalog.FindByFilter(ctx, filter)
	})
	if err != nil {
		return nil, err
	}

	total := int64(len(products))
	if req.Pagination.Limit > 0 {
		total, err = guardedCall(ctx, s.guard, StageFilterQuery, func(ctx context.Context) (int64, error) {
			return s.catalog.CountByFilter(ctx, filter)
		})
		if err != nil {
			return nil, err
		}
	}

	hits := make([]SearchHit, 0, len(products))
	for _, p := range products {
		hits = append(hits, SearchHit{Product: p})
	}
	s.resolveHitImages(hits)
	return &SearchResult{Products: hits, GeoApplied: false, Total: total}, nil
}

func (s *DiscoveryService) searchWithinRadius(ctx context.Context, req SearchRequest, geo *geoParams) (*SearchResult, error) {
	filter := catalogFilter(req)
	filter.Pagination = utils.PaginationParams{}
	query := repository.GeoQuery{Center: geo.center, RadiusKm: geo.radiusKm}

	found, err := guardedCall(ctx, s.guard, StageFilterQuery, func(ctx context.Context) ([]models.ProductWithDistance, error) {
		return s.catalog.FindWithinRadius(ctx, filter, query)
	})
	if err != nil {
		return nil, err
	}

	page := utils.PaginateSlice(found, req.Pagination)
	hits := make([]SearchHit, 0, len(page))
	for _, p := range page {
		distance := p.DistanceKm
		hits = append(hits, SearchHit{Product: p.Product, DistanceKm: &distance})
	}
	s.resolveHitImages(hits)
	return &SearchResult{Products: hits, GeoApplied: true, Total: int64(len(found))}, nil
}

// Recommend ranks products for userID, or falls back to the most engaged
// listings when the user has no history.
func (s *DiscoveryService) Recommend(ctx context.Context, userID string) (*Recommendation, error) {
	start := time.Now()
	defer func() {
		metrics.DiscoveryDuration.WithLabelValues("recommend").Observe(time.Since(start).Seconds())
	}()

	uid, err := uuid.Parse(strings.TrimSpace(userID))
	if err != nil || uid == uuid.Nil {
		metrics.DiscoveryRequests.WithLabelValues("recommend", "unauthorized").Inc()
		return nil, ErrUnauthorized
	}

	rec, err := s.recommend(ctx, uid)
	if err != nil {
		metrics.DiscoveryRequests.WithLabelValues("recommend", "error").Inc()
		return nil, err
	}

	metrics.DiscoveryRequests.WithLabelValues("recommend", string(rec.Strategy)).Inc()
	logrus.WithFields(logrus.Fields{
		"user_id":  uid,
		"strategy": rec.Strategy,
		"results":  len(rec.Products),
	}).Debug("Recommendations computed")
	return rec, nil
}

func (s *DiscoveryService) recommend(ctx context.Context, uid uuid.UUID) (*Recommendation, error) {
	profile, err := s.affinity.Build(ctx, uid)
	if err != nil {
		return nil, err
	}

	switch profile.State {
	case ProfileColdStart:
		return s.coldStart(ctx, uid)
	case ProfileEmpty:
		return &Recommendation{Strategy: StrategyEmpty, Products: []models.RankedProduct{}}, nil
	}

	candidates, err := guardedCall(ctx, s.guard, StageScoring, func(ctx context.Context) ([]models.Product, error) {
		return s.catalog.FindCandidates(ctx, repository.CandidateFilter{
			ExcludeInteractedBy: uid,
			ExcludeSellerID:     uid,
			Weights:             s.cfg.Weights,
			Limit:               s.cfg.MaxCandidates,
		})
	})
	if err != nil {
		return nil, err
	}
	metrics.RankedCandidates.Observe(float64(len(candidates)))

	ranked := s.scorer.Rank(candidates, profile, s.now(), s.cfg.PageSize)
	s.resolveRankedImages(ranked)
	return &Recommendation{Strategy: StrategyPersonalized, Products: ranked}, nil
}

func (s *DiscoveryService) coldStart(ctx context.Context, uid uuid.UUID) (*Recommendation, error) {
	products, err := guardedCall(ctx, s.guard, StageFallback, func(ctx context.Context) ([]models.Product, error) {
		return s.catalog.FindPopular(ctx, &uid, s.cfg.PageSize)
	})
	if err != nil {
		return nil, err
	}

	ranked := s.popularityRanked(products)
	s.resolveRankedImages(ranked)
	return &Recommendation{Strategy: StrategyColdStart, Products: ranked}, nil
}

// Popular is the anonymous engagement ranking, with no exclusions.
func (s *DiscoveryService) Popular(ctx context.Context, limit int) ([]models.RankedProduct, error) {
	if limit < 1 {
		limit = s.cfg.PageSize
	}
	if s.cfg.MaxPageSize > 0 && limit > s.cfg.MaxPageSize {
		limit = s.cfg.MaxPageSize
	}
	products, err := guardedCall(ctx, s.guard, StageFallback, func(ctx context.Context) ([]models.Product, error) {
		return s.catalog.FindPopular(ctx, nil, limit)
	})
	if err != nil {
		return nil, err
	}

	ranked := s.popularityRanked(products)
	s.resolveRankedImages(ranked)
	return ranked, nil
}

// popularityRanked keeps the store's engagement order and reports the
// popularity term as the score.
func (s *DiscoveryService) popularityRanked(products []models.Product) []models.RankedProduct {
	ranked := make([]models.RankedProduct, 0, len(products))
	for i := range products {
		ranked = append(ranked, models.RankedProduct{
			Product: products[i],
			Score:   s.scorer.Popularity(&products[i]),
		})
	}
	return ranked
}

func (s *DiscoveryService) resolveHitImages(hits []SearchHit) {
	if s.media == nil {
		return
	}
	for i := range hits {
		s.media.ResolveProductImages(&hits[i].Product)
	}
}

func (s *DiscoveryService) resolveRankedImages(ranked []models.RankedProduct) {
	if s.media == nil {
		return
	}
	for i := range ranked {
		s.media.ResolveProductImages(&ranked[i].Product)
	}
}
