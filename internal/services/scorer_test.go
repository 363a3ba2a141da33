package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmlink/discovery/internal/config"
	"github.com/farmlink/discovery/internal/models"
)

func newProfile(userID uuid.UUID, interacted []uuid.UUID, categories, brands map[string]int) *AffinityProfile {
	p := &AffinityProfile{
		UserID:        userID,
		State:         ProfileReady,
		Categories:    categories,
		Brands:        brands,
		interacted:    make(map[uuid.UUID]struct{}),
		interactedIDs: interacted,
	}
	for _, id := range interacted {
		p.interacted[id] = struct{}{}
	}
	return p
}

func TestScorer_GrainsScenario(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	user := uuid.New()
	seller := uuid.New()

	a := makeProduct(now, productFixture{seller: seller, category: "Grains", views: 100, favorites: 10, chats: 5, rating: 4, reviews: 20, age: 30 * 24 * time.Hour})
	b := makeProduct(now, productFixture{seller: seller, category: "Fruit", views: 10, favorites: 1, chats: 20, rating: 3, reviews: 2, age: 24 * time.Hour})

	// The user once favorited some other Grains product.
	profile := newProfile(user, []uuid.UUID{uuid.New()}, map[string]int{"grains": 1}, map[string]int{})
	scorer := NewScorer(config.DefaultScoringWeights())

	assert.InDelta(t, 12.2, scorer.Popularity(&a), 1e-9)
	assert.InDelta(t, 9.8, scorer.Popularity(&b), 1e-9)
	assert.InDelta(t, 2.0, scorer.Content(&a, profile), 1e-9)
	assert.InDelta(t, 0.0, scorer.Content(&b, profile), 1e-9)
	assert.InDelta(t, 11.9, scorer.Score(&a, profile, now), 1e-9)
	assert.InDelta(t, 9.75, scorer.Score(&b, profile, now), 1e-9)

	ranked := scorer.Rank([]models.Product{b, a}, profile, now, 20)
	require.Len(t, ranked, 2)
	assert.Equal(t, a.ID, ranked[0].ID)
	assert.Equal(t, b.ID, ranked[1].ID)
	assert.InDelta(t, 11.9, ranked[0].Score, 1e-9)
}

func TestScorer_BrandAndCategoryAreCaseInsensitive(t *testing.T) {
	now := time.Now()
	profile := newProfile(uuid.New(), nil, map[string]int{"fruit": 2}, map[string]int{"tilda": 3})
	scorer := NewScorer(config.DefaultScoringWeights())

	p := makeProduct(now, productFixture{seller: uuid.New(), category: "FRUIT", brand: "Tilda"})
	assert.InDelta(t, 2*2+3*1.5, scorer.Content(&p, profile), 1e-9)
}

func TestScorer_RankIsIdempotent(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	seller := uuid.New()
	var products []models.Product
	for i := 0; i < 30; i++ {
		products = append(products, makeProduct(now, productFixture{
			seller:   seller,
			category: []string{"Grains", "Fruit", "Dairy"}[i%3],
			views:    int64(i % 7),
			chats:    int64(i % 4),
			age:      time.Duration(i%5) * 24 * time.Hour,
		}))
	}
	profile := newProfile(uuid.New(), nil, map[string]int{"dairy": 1}, nil)
	scorer := NewScorer(config.DefaultScoringWeights())

	first := scorer.Rank(products, profile, now, 20)
	second := scorer.Rank(products, profile, now, 20)
	assert.Equal(t, idsOfRanked(first), idsOfRanked(second))
	assert.Len(t, first, 20)
}

func TestScorer_RankExcludesOwnAndInteracted(t *testing.T) {
	now := time.Now()
	user := uuid.New()
	other := uuid.New()

	own := makeProduct(now, productFixture{seller: user, views: 1000})
	seen := makeProduct(now, productFixture{seller: other, views: 500})
	fresh := makeProduct(now, productFixture{seller: other, views: 1})

	profile := newProfile(user, []uuid.UUID{seen.ID}, map[string]int{}, map[string]int{})
	ranked := NewScorer(config.DefaultScoringWeights()).Rank([]models.Product{own, seen, fresh}, profile, now, 20)

	assert.Equal(t, []uuid.UUID{fresh.ID}, idsOfRanked(ranked))
}

func TestScorer_TiesBreakByNewest(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	weights := config.DefaultScoringWeights()
	weights.RecencyPerDay = 0
	scorer := NewScorer(weights)

	older := makeProduct(now, productFixture{seller: uuid.New(), views: 10, age: 48 * time.Hour})
	newer := makeProduct(now, productFixture{seller: uuid.New(), views: 10, age: time.Hour})

	ranked := scorer.Rank([]models.Product{older, newer}, nil, now, 20)
	assert.Equal(t, []uuid.UUID{newer.ID, older.ID}, idsOfRanked(ranked))
}

func TestScorer_MissingCreatedAtHasNoRecencyPenalty(t *testing.T) {
	scorer := NewScorer(config.DefaultScoringWeights())
	p := models.Product{Views: 20}
	assert.InDelta(t, 1.0, scorer.Score(&p, nil, time.Now()), 1e-9)
}
