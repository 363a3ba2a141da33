// internal/repository/query.go
package repository

import (
	"strings"

	"github.com/farmlink/discovery/internal/config"
	"github.com/farmlink/discovery/internal/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CatalogFilter holds the non-geo attribute filters shared by flat and geo queries.
type CatalogFilter struct {
	Category   string
	Brand      string
	SearchTerm string
	Pagination utils.PaginationParams
}

// IsEmpty reports whether no attribute filter is set.
func (f CatalogFilter) IsEmpty() bool {
	return strings.TrimSpace(f.Category) == "" &&
		strings.TrimSpace(f.Brand) == "" &&
		strings.TrimSpace(f.SearchTerm) == ""
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike neutralizes LIKE wildcards so user input is matched literally.
func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}

// containsPattern builds a lowercase substring pattern for use with ESCAPE '\'.
func containsPattern(term string) string {
	return "%" + escapeLike(strings.ToLower(term)) + "%"
}

const searchTermCondition = `(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\' OR LOWER(brand) LIKE ? ESCAPE '\' OR LOWER(category) LIKE ? ESCAPE '\')`

func applyCatalogFilter(db *gorm.DB, f CatalogFilter) *gorm.DB {
	if category := strings.TrimSpace(f.Category); category != "" {
		db = db.Where("LOWER(category) = ?", strings.ToLower(category))
	}
	if brand := strings.TrimSpace(f.Brand); brand != "" {
		db = db.Where("LOWER(brand) = ?", strings.ToLower(brand))
	}
	if term := strings.TrimSpace(f.SearchTerm); term != "" {
		pattern := containsPattern(term)
		db = db.Where(searchTermCondition, pattern, pattern, pattern, pattern)
	}
	return db
}

var catalogSortFields = []string{"created_at", "updated_at", "title", "price", "views", "favorites", "chat_count", "rating"}

// popularityOrder is the engagement ordering used for cold-start fallback.
func popularityOrder(db *gorm.DB) *gorm.DB {
	return db.Order("views desc").
		Order("favorites desc").
		Order("chat_count desc").
		Order("created_at desc").
		Order("id asc")
}

// popularityScoreOrder sorts by the weighted engagement sum, newest first on
// ties. The whole ordering must stay in one expression: gorm ignores column
// orders once an OrderBy expression is set.
func popularityScoreOrder(w config.ScoringWeights) clause.OrderBy {
	return clause.OrderBy{Expression: clause.Expr{
		SQL:                "(? * views + ? * favorites + ? * chat_count + ? * rating + ? * review_count) DESC, created_at DESC, id ASC",
		Vars:               []interface{}{w.Views, w.Favorites, w.ChatCount, w.Rating, w.ReviewCount},
		WithoutParentheses: true,
	}}
}
