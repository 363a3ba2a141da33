// internal/services/scorer.go
package services

import (
	"sort"
	"time"

	"github.com/farmlink/discovery/internal/config"
	"github.com/farmlink/discovery/internal/models"
)

// Scorer ranks candidates for one user. It is a pure function of the
// candidates, the profile, and the supplied time.
type Scorer struct {
	weights config.ScoringWeights
}

func NewScorer(weights config.ScoringWeights) *Scorer {
	return &Scorer{weights: weights}
}

// Popularity is the engagement part of the score.
func (s *Scorer) Popularity(p *models.Product) float64 {
	w := s.weights
	return w.Views*float64(p.Views) +
		w.Favorites*float64(p.Favorites) +
		w.ChatCount*float64(p.ChatCount) +
		w.Rating*p.Rating +
		w.ReviewCount*float64(p.ReviewCount)
}

// Content is the affinity bonus a product earns from the user's history.
func (s *Scorer) Content(p *models.Product, profile *AffinityProfile) float64 {
	if profile == nil {
		return 0
	}
	return float64(profile.CategoryCount(p.Category))*s.weights.CategoryMatch +
		float64(profile.BrandCount(p.Brand))*s.weights.BrandMatch
}

func (s *Scorer) Score(p *models.Product, profile *AffinityProfile, now time.Time) float64 {
	return s.Popularity(p) +
		s.weights.Content*s.Content(p, profile) -
		s.weights.RecencyPerDay*p.AgeInDays(now)
}

// Rank scores every candidate the profile does not exclude and returns the
// best limit of them: score desc, then newest first, then id.
func (s *Scorer) Rank(candidates []models.Product, profile *AffinityProfile, now time.Time, limit int) []models.RankedProduct {
	ranked := make([]models.RankedProduct, 0, len(candidates))
	for i := range candidates {
		p := &candidates[i]
		if profile != nil && profile.Excludes(p) {
			continue
		}
		ranked = append(ranked, models.RankedProduct{Product: *p, Score: s.Score(p, profile, now)})
	}

	sortRanked(ranked)
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func sortRanked(ranked []models.RankedProduct) {
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID.String() < b.ID.String()
	})
}
