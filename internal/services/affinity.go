// internal/services/affinity.go
package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/farmlink/discovery/internal/config"
	"github.com/farmlink/discovery/internal/metrics"
	"github.com/farmlink/discovery/internal/models"
)

type ProfileState string

const (
	// ProfileColdStart means the user has no recorded interactions.
	ProfileColdStart ProfileState = "cold_start"
	// ProfileEmpty means interactions exist but none resolve to a product.
	ProfileEmpty ProfileState = "empty"
	ProfileReady ProfileState = "ready"
)

// maxConcurrentLookups caps parallel batch lookups for one profile build.
const maxConcurrentLookups = 4

// AffinityProfile is a user's category and brand preference tally plus the
// products that must never be recommended back to them.
type AffinityProfile struct {
	UserID     uuid.UUID
	State      ProfileState
	Categories map[string]int
	Brands     map[string]int
	Resolved   int
	Skipped    int

	interacted    map[uuid.UUID]struct{}
	interactedIDs []uuid.UUID
}

// Excludes reports whether p is off limits for this user: already
// interacted with, or listed by the user.
func (p *AffinityProfile) Excludes(product *models.Product) bool {
	if product.SellerID == p.UserID {
		return true
	}
	_, seen := p.interacted[product.ID]
	return seen
}

// InteractedIDs is the deduplicated union of viewed, favorited, chatted and listed ids.
func (p *AffinityProfile) InteractedIDs() []uuid.UUID {
	return p.interactedIDs
}

// CategoryCount and BrandCount match case-insensitively.
func (p *AffinityProfile) CategoryCount(category string) int {
	return p.Categories[normalizeAttr(category)]
}

func (p *AffinityProfile) BrandCount(brand string) int {
	return p.Brands[normalizeAttr(brand)]
}

func normalizeAttr(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// ProductLookup resolves product ids to their current attributes.
type ProductLookup interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

type ActivityStore interface {
	GetUserActivitySummary(ctx context.Context, userID uuid.UUID) (*models.UserActivitySummary, error)
}

type AffinityBuilder struct {
	activity  ActivityStore
	products  ProductLookup
	guard     *StoreGuard
	batchSize int
}

func NewAffinityBuilder(activity ActivityStore, products ProductLookup, guard *StoreGuard, cfg config.DiscoveryConfig) *AffinityBuilder {
	batchSize := cfg.LookupBatchSize
	if batchSize < 1 {
		batchSize = 100
	}
	return &AffinityBuilder{
		activity:  activity,
		products:  products,
		guard:     guard,
		batchSize: batchSize,
	}
}

// Build gathers the user's interaction union and tallies the attributes of
// every product that still resolves. Unresolvable ids are skipped.
func (b *AffinityBuilder) Build(ctx context.Context, userID uuid.UUID) (*AffinityProfile, error) {
	summary, err := guardedCall(ctx, b.guard, StageAffinityBuild, func(ctx context.Context) (*models.UserActivitySummary, error) {
		return b.activity.GetUserActivitySummary(ctx, userID)
	})
	if err != nil {
		return nil, err
	}

	ids := summary.InteractedIDs()
	profile := &AffinityProfile{
		UserID:        userID,
		Categories:    make(map[string]int),
		Brands:        make(map[string]int),
		interacted:    make(map[uuid.UUID]struct{}, len(ids)),
		interactedIDs: ids,
	}
	for _, id := range ids {
		profile.interacted[id] = struct{}{}
	}

	if len(ids) == 0 {
		profile.State = ProfileColdStart
		return profile, nil
	}

	resolved, err := b.lookup(ctx, ids)
	if err != nil {
		return nil, err
	}

	for _, product := range resolved {
		if category := normalizeAttr(product.Category); category != "" {
			profile.Categories[category]++
		}
		if brand := normalizeAttr(product.Brand); brand != "" {
			profile.Brands[brand]++
		}
	}
	profile.Resolved = len(resolved)
	profile.Skipped = len(ids) - len(resolved)

	if profile.Skipped > 0 {
		metrics.SkippedReferences.Add(float64(profile.Skipped))
		logrus.WithFields(logrus.Fields{
			"user_id": userID,
			"skipped": profile.Skipped,
		}).Debug("Skipped unresolvable interaction references")
	}

	if profile.Resolved == 0 {
		profile.State = ProfileEmpty
		return profile, nil
	}
	profile.State = ProfileReady
	return profile, nil
}

// lookup fetches ids in batches concurrently and joins the results.
func (b *AffinityBuilder) lookup(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	var batches [][]uuid.UUID
	for start := 0; start < len(ids); start += b.batchSize {
		end := start + b.batchSize
		if end > len(ids) {
			end = len(ids)
		}
		batches = append(batches, ids[start:end])
	}

	results := make([][]models.Product, len(batches))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLookups)
	for i, batch := range batches {
		i, batch := i, batch
		g.Go(func() error {
			products, err := guardedCall(gctx, b.guard, StageAffinityBuild, func(ctx context.Context) ([]models.Product, error) {
				return b.products.FindByIDs(ctx, batch)
			})
			if err != nil {
				return err
			}
			results[i] = products
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var resolved []models.Product
	for _, products := range results {
		resolved = append(resolved, products...)
	}
	return resolved, nil
}
