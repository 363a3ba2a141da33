// internal/config/weights.go
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ScoringWeights are the ranking policy constants. The defaults keep the
// signal order chat > favorite > rating/category > views/recency > reviews/brand.
type ScoringWeights struct {
	Views         float64 `yaml:"views"`
	Favorites     float64 `yaml:"favorites"`
	ChatCount     float64 `yaml:"chat_count"`
	Rating        float64 `yaml:"rating"`
	ReviewCount   float64 `yaml:"review_count"`
	Content       float64 `yaml:"content"`
	RecencyPerDay float64 `yaml:"recency_per_day"`
	CategoryMatch float64 `yaml:"category_match"`
	BrandMatch    float64 `yaml:"brand_match"`
}

func DefaultScoringWeights() ScoringWeights {
	return ScoringWeights{
		Views:         0.05,
		Favorites:     0.20,
		ChatCount:     0.40,
		Rating:        0.30,
		ReviewCount:   0.10,
		Content:       0.6,
		RecencyPerDay: 0.05,
		CategoryMatch: 2,
		BrandMatch:    1.5,
	}
}

// LoadScoringWeights overlays the YAML file at path on the defaults.
// An empty path returns the defaults unchanged.
func LoadScoringWeights(path string) (ScoringWeights, error) {
	weights := DefaultScoringWeights()
	if path == "" {
		return weights, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return weights, fmt.Errorf("failed to read ranking weights file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &weights); err != nil {
		return weights, fmt.Errorf("failed to parse ranking weights file %s: %w", path, err)
	}

	return weights, weights.Validate()
}

func (w ScoringWeights) Validate() error {
	fields := map[string]float64{
		"views":           w.Views,
		"favorites":       w.Favorites,
		"chat_count":      w.ChatCount,
		"rating":          w.Rating,
		"review_count":    w.ReviewCount,
		"content":         w.Content,
		"recency_per_day": w.RecencyPerDay,
		"category_match":  w.CategoryMatch,
		"brand_match":     w.BrandMatch,
	}
	for name, value := range fields {
		if value < 0 {
			return fmt.Errorf("ranking weight %s must not be negative, got %v", name, value)
		}
	}
	return nil
}
