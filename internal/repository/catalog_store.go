// internal/repository/catalog_store.go
package repository

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/farmlink/discovery/internal/config"
	"github.com/farmlink/discovery/internal/models"
	"github.com/farmlink/discovery/internal/utils"
)

// GeoQuery bounds a catalog query to a great-circle radius in kilometers.
type GeoQuery struct {
	Center   utils.Point
	RadiusKm float64
}

// CandidateFilter describes the pool a personalized ranking scores over.
// When Limit is set, the pool is the Limit products with the highest
// weighted engagement under Weights.
type CandidateFilter struct {
	ExcludeInteractedBy uuid.UUID
	ExcludeSellerID     uuid.UUID
	Weights             config.ScoringWeights
	Limit               int
}

type CatalogStore struct {
	db *gorm.DB
}

func NewCatalogStore(db *gorm.DB) *CatalogStore {
	return &CatalogStore{db: db}
}

// FindByFilter returns products matching the attribute filters in catalog order.
func (s *CatalogStore) FindByFilter(ctx context.Context, filter CatalogFilter) ([]models.Product, error) {
	query := applyCatalogFilter(s.db.WithContext(ctx).Model(&models.Product{}), filter)
	query = utils.ApplySort(query, filter.Pagination, catalogSortFields)
	query = utils.ApplyPagination(query, filter.Pagination)

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	return products, nil
}

// CountByFilter returns the number of products matching the attribute filters.
func (s *CatalogStore) CountByFilter(ctx context.Context, filter CatalogFilter) (int64, error) {
	var total int64
	query := applyCatalogFilter(s.db.WithContext(ctx).Model(&models.Product{}), filter)
	if err := query.Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return total, nil
}

// FindWithinRadius returns products no farther than q.RadiusKm from q.Center,
// nearest first, each annotated with its distance. A bounding box narrows the
// rows in SQL; the haversine check decides membership.
func (s *CatalogStore) FindWithinRadius(ctx context.Context, filter CatalogFilter, q GeoQuery) ([]models.ProductWithDistance, error) {
	box := utils.BoundingBoxFor(q.Center, q.RadiusKm)

	query := s.db.WithContext(ctx).Model(&models.Product{}).
		Where("latitude IS NOT NULL AND longitude IS NOT NULL").
		Where("latitude BETWEEN ? AND ?", box.MinLat, box.MaxLat)
	if !box.LonUnbounded {
		query = query.Where("longitude BETWEEN ? AND ?", box.MinLon, box.MaxLon)
	}
	query = applyCatalogFilter(query, filter)

	var rows []models.Product
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch products within radius: %w", err)
	}

	hits := make([]models.ProductWithDistance, 0, len(rows))
	for _, p := range rows {
		if !p.HasValidLocation() {
			continue
		}
		d := utils.DistanceKm(q.Center, utils.Point{Longitude: *p.Longitude, Latitude: *p.Latitude})
		if d > q.RadiusKm {
			continue
		}
		hits = append(hits, models.ProductWithDistance{Product: p, DistanceKm: d})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].DistanceKm != hits[j].DistanceKm {
			return hits[i].DistanceKm < hits[j].DistanceKm
		}
		return hits[i].ID.String() < hits[j].ID.String()
	})
	return hits, nil
}

// FindByID returns gorm.ErrRecordNotFound (wrapped) when the product does not exist.
func (s *CatalogStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).Preload("Seller").First(&product, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch product %s: %w", id, err)
	}
	return &product, nil
}

// FindByIDs returns the products that still exist among ids; missing ids are
// silently absent from the result.
func (s *CatalogStore) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []models.Product
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch products by id: %w", err)
	}
	return products, nil
}

// FindCandidates returns the most engaged products the user has neither
// listed nor interacted with.
func (s *CatalogStore) FindCandidates(ctx context.Context, filter CandidateFilter) ([]models.Product, error) {
	query := s.db.WithContext(ctx).Model(&models.Product{})
	if filter.ExcludeSellerID != uuid.Nil {
		query = query.Where("seller_id <> ?", filter.ExcludeSellerID)
	}
	if filter.ExcludeInteractedBy != uuid.Nil {
		interacted := s.db.WithContext(ctx).Model(&models.InteractionRecord{}).
			Select("1").
			Where("interaction_records.product_id = products.id AND interaction_records.user_id = ?", filter.ExcludeInteractedBy)
		query = query.Where("NOT EXISTS (?)", interacted)
	}
	query = query.Clauses(popularityScoreOrder(filter.Weights))
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch candidates: %w", err)
	}
	return products, nil
}

// FindPopular returns products ordered by engagement, optionally skipping one seller's listings.
func (s *CatalogStore) FindPopular(ctx context.Context, excludeSellerID *uuid.UUID, limit int) ([]models.Product, error) {
	query := s.db.WithContext(ctx).Model(&models.Product{})
	if excludeSellerID != nil {
		query = query.Where("seller_id <> ?", *excludeSellerID)
	}
	query = popularityOrder(query)
	if limit > 0 {
		query = query.Limit(limit)
	}

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch popular products: %w", err)
	}
	return products, nil
}

func (s *CatalogStore) Create(ctx context.Context, product *models.Product) error {
	if err := s.db.WithContext(ctx).Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

func (s *CatalogStore) Update(ctx context.Context, product *models.Product, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Model(product).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	return nil
}

// Delete soft-deletes the product so it drops out of every catalog query.
func (s *CatalogStore) Delete(ctx context.Context, product *models.Product) error {
	if err := s.db.WithContext(ctx).Delete(product).Error; err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}

// FindSeller returns the seller account, or a wrapped gorm.ErrRecordNotFound.
func (s *CatalogStore) FindSeller(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch seller %s: %w", id, err)
	}
	return &user, nil
}
