package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/farmlink/discovery/internal/config"
	"github.com/farmlink/discovery/internal/models"
	"github.com/farmlink/discovery/internal/repository"
	"github.com/farmlink/discovery/internal/utils"
)

// fakeCatalog is an in-memory CatalogStore. Attribute filters are ignored;
// the repository tests cover them.
type fakeCatalog struct {
	mu       sync.Mutex
	products []models.Product
	calls    map[string]int
	failures map[string]error
	batches  [][]uuid.UUID

	candidateFilters []repository.CandidateFilter
}

func newFakeCatalog(products ...models.Product) *fakeCatalog {
	return &fakeCatalog{
		products: products,
		calls:    make(map[string]int),
		failures: make(map[string]error),
	}
}

func (f *fakeCatalog) record(method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[method]++
	return f.failures[method]
}

func (f *fakeCatalog) callCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *fakeCatalog) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeCatalog) FindByFilter(ctx context.Context, filter repository.CatalogFilter) ([]models.Product, error) {
	if err := f.record("FindByFilter"); err != nil {
		return nil, err
	}
	return utils.PaginateSlice(append([]models.Product(nil), f.products...), filter.Pagination), nil
}

func (f *fakeCatalog) CountByFilter(ctx context.Context, filter repository.CatalogFilter) (int64, error) {
	if err := f.record("CountByFilter"); err != nil {
		return 0, err
	}
	return int64(len(f.products)), nil
}

func (f *fakeCatalog) FindWithinRadius(ctx context.Context, filter repository.CatalogFilter, q repository.GeoQuery) ([]models.ProductWithDistance, error) {
	if err := f.record("FindWithinRadius"); err != nil {
		return nil, err
	}
	var hits []models.ProductWithDistance
	for _, p := range f.products {
		if !p.HasValidLocation() {
			continue
		}
		d := utils.DistanceKm(q.Center, utils.Point{Longitude: *p.Longitude, Latitude: *p.Latitude})
		if d <= q.RadiusKm {
			hits = append(hits, models.ProductWithDistance{Product: p, DistanceKm: d})
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].DistanceKm < hits[j].DistanceKm })
	return hits, nil
}

func (f *fakeCatalog) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if err := f.record("FindByIDs"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.batches = append(f.batches, ids)
	f.mu.Unlock()

	wanted := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	var out []models.Product
	for _, p := range f.products {
		if wanted[p.ID] {
			out = append(out, p)
		}
	}
	return out, nil
}

// FindCandidates has no behavior log, so ExcludeInteractedBy is only
// recorded; the scorer's own exclusion covers interacted products.
func (f *fakeCatalog) FindCandidates(ctx context.Context, filter repository.CandidateFilter) ([]models.Product, error) {
	if err := f.record("FindCandidates"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.candidateFilters = append(f.candidateFilters, filter)
	f.mu.Unlock()

	scorer := NewScorer(filter.Weights)
	var out []models.Product
	for _, p := range f.products {
		if p.SellerID == filter.ExcludeSellerID {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := scorer.Popularity(&out[i]), scorer.Popularity(&out[j])
		if pi != pj {
			return pi > pj
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (f *fakeCatalog) FindPopular(ctx context.Context, excludeSellerID *uuid.UUID, limit int) ([]models.Product, error) {
	if err := f.record("FindPopular"); err != nil {
		return nil, err
	}
	var out []models.Product
	for _, p := range f.products {
		if excludeSellerID != nil && p.SellerID == *excludeSellerID {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Views != b.Views {
			return a.Views > b.Views
		}
		if a.Favorites != b.Favorites {
			return a.Favorites > b.Favorites
		}
		if a.ChatCount != b.ChatCount {
			return a.ChatCount > b.ChatCount
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeActivity struct {
	summaries map[uuid.UUID]*models.UserActivitySummary
	err       error
	calls     int
}

func (f *fakeActivity) GetUserActivitySummary(ctx context.Context, userID uuid.UUID) (*models.UserActivitySummary, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if s, ok := f.summaries[userID]; ok {
		return s, nil
	}
	return &models.UserActivitySummary{UserID: userID}, nil
}

type memoryCache struct {
	entries map[string]*SearchResult
	hits    int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string]*SearchResult)}
}

func (c *memoryCache) Get(ctx context.Context, key string) (*SearchResult, bool) {
	r, ok := c.entries[key]
	if ok {
		c.hits++
	}
	return r, ok
}

func (c *memoryCache) Set(ctx context.Context, key string, result *SearchResult) {
	c.entries[key] = result
}

func testDiscoveryConfig() config.DiscoveryConfig {
	return config.DiscoveryConfig{
		PageSize:        20,
		MaxPageSize:     100,
		MaxCandidates:   2000,
		LookupBatchSize: 100,
		StoreTimeout:    time.Second,
		BreakerFailures: 1000,
		BreakerOpenFor:  time.Second,
		Weights:         config.DefaultScoringWeights(),
	}
}

func testGuard() *StoreGuard {
	return NewStoreGuard("test-store", testDiscoveryConfig())
}

type productFixture struct {
	seller                  uuid.UUID
	category, brand         string
	views, favorites, chats int64
	rating                  float64
	reviews                 int64
	age                     time.Duration
	lon, lat                *float64
}

func makeProduct(now time.Time, fx productFixture) models.Product {
	return models.Product{
		BaseModel:   models.BaseModel{ID: uuid.New(), CreatedAt: now.Add(-fx.age)},
		SellerID:    fx.seller,
		Title:       fx.category + " item",
		Category:    fx.category,
		Brand:       fx.brand,
		Price:       decimal.NewFromInt(1),
		Views:       fx.views,
		Favorites:   fx.favorites,
		ChatCount:   fx.chats,
		Rating:      fx.rating,
		ReviewCount: fx.reviews,
		Longitude:   fx.lon,
		Latitude:    fx.lat,
	}
}

func ptr(v float64) *float64 { return &v }

func idsOfRanked(ranked []models.RankedProduct) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(ranked))
	for _, r := range ranked {
		ids = append(ids, r.ID)
	}
	return ids
}
