// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess = "success"
	KeyError   = "error"

	// Authentication
	KeyAuthRequired     = "auth.required"
	KeyAuthInvalidToken = "auth.invalid_token"
	KeyAuthTokenExpired = "auth.token_expired"

	// Discovery
	KeyDiscoveryInvalidCoordinates = "discovery.invalid_coordinates"
	KeyDiscoveryRadiusIgnored      = "discovery.radius_ignored"
	KeyDiscoveryMissingCoordinates = "discovery.missing_coordinates"
	KeyDiscoveryStoreUnavailable   = "discovery.store_unavailable"
	KeyDiscoveryNoRecommendations  = "discovery.no_recommendations"

	// Products
	KeyProductCreated   = "product.created"
	KeyProductUpdated   = "product.updated"
	KeyProductDeleted   = "product.deleted"
	KeyProductNotFound  = "product.not_found"
	KeyProductForbidden = "product.forbidden"

	// Engagement
	KeyEngagementViewRecorded    = "engagement.view_recorded"
	KeyEngagementFavoriteAdded   = "engagement.favorite_added"
	KeyEngagementFavoriteRemoved = "engagement.favorite_removed"
	KeyEngagementChatRecorded    = "engagement.chat_recorded"

	// Validation
	KeyValidationRequired = "validation.required"
	KeyValidationInvalid  = "validation.invalid"
	KeyValidationTooShort = "validation.too_short"
	KeyValidationTooLong  = "validation.too_long"

	// Search
	KeySearchNoResults    = "search.no_results"
	KeySearchResultsFound = "search.results_found"
)
