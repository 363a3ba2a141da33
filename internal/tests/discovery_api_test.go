// internal/tests/discovery_api_test.go
package tests

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/farmlink/discovery/internal/config"
	"github.com/farmlink/discovery/internal/database"
	"github.com/farmlink/discovery/internal/i18n"
	"github.com/farmlink/discovery/internal/models"
	"github.com/farmlink/discovery/internal/router"
	"github.com/farmlink/discovery/internal/utils"
)

type apiEnvelope struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data"`
	GeoApplied bool            `json:"geoApplied"`
	Message    string          `json:"message"`
	Meta       map[string]any  `json:"meta"`
	Error      *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type productJSON struct {
	ID         uuid.UUID `json:"id"`
	SellerID   uuid.UUID `json:"seller_id"`
	Title      string    `json:"title"`
	Category   string    `json:"category"`
	Views      int64     `json:"views"`
	Favorites  int64     `json:"favorites"`
	ImageURLs  []string  `json:"image_urls"`
	DistanceKm *float64  `json:"distance_km"`
	Score      *float64  `json:"score"`
}

type DiscoveryAPITestSuite struct {
	suite.Suite
	db     *gorm.DB
	router *gin.Engine

	seller, buyer *models.User
	sellerToken   string
	buyerToken    string

	rice, wheat, mango *models.Product
}

func testConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		JWT:         config.JWTConfig{SecretKey: "test-secret", Issuer: "marketplace-auth"},
		I18n:        config.I18nConfig{DefaultLocale: "en", LocalesPath: "../i18n/locales"},
		Discovery: config.DiscoveryConfig{
			PageSize:         20,
			MaxPageSize:      100,
			MaxCandidates:    2000,
			LookupBatchSize:  100,
			StoreTimeout:     2 * time.Second,
			BreakerFailures:  1000,
			BreakerOpenFor:   5 * time.Second,
			Weights:          config.DefaultScoringWeights(),
			LocalMediaPrefix: "/media",
		},
	}
}

func (suite *DiscoveryAPITestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	suite.Require().NoError(i18n.Initialize(testConfig().I18n))
}

func (suite *DiscoveryAPITestSuite) SetupTest() {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	suite.Require().NoError(err)
	sqlDB, err := db.DB()
	suite.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)
	suite.Require().NoError(database.RunMigrations(db))
	suite.db = db

	suite.router = router.Initialize(db, testConfig())

	suite.seller = suite.createUser("farmer")
	suite.buyer = suite.createUser("buyer")
	suite.sellerToken = suite.token(suite.seller)
	suite.buyerToken = suite.token(suite.buyer)

	// Delhi, Agra and Mumbai
	suite.rice = suite.createProduct("Basmati Rice", "Grains", "Tilda", 77.2090, 28.6139, 50)
	suite.wheat = suite.createProduct("Wheat Flour", "Grains", "Aashirvaad", 78.0081, 27.1767, 10)
	suite.mango = suite.createProduct("Alphonso Mango", "Fruit", "Ratnagiri", 72.8777, 19.0760, 20)
}

func (suite *DiscoveryAPITestSuite) TearDownTest() {
	if sqlDB, err := suite.db.DB(); err == nil {
		sqlDB.Close()
	}
}

func (suite *DiscoveryAPITestSuite) createUser(name string) *models.User {
	user := &models.User{Username: name, Email: name + "@example.com", Status: models.UserStatusActive}
	suite.Require().NoError(suite.db.Create(user).Error)
	return user
}

func (suite *DiscoveryAPITestSuite) token(user *models.User) string {
	token, err := utils.GenerateJWT(user.ID, user.Username, time.Hour)
	suite.Require().NoError(err)
	return token
}

func (suite *DiscoveryAPITestSuite) createProduct(title, category, brand string, lon, lat float64, views int64) *models.Product {
	product := &models.Product{
		SellerID:    suite.seller.ID,
		Title:       title,
		Description: title + " from the farm",
		Category:    category,
		Brand:       brand,
		Price:       decimal.RequireFromString("9.99"),
		ImageKeys:   models.StringList{"products/" + title + ".jpg"},
		Longitude:   &lon,
		Latitude:    &lat,
		Views:       views,
	}
	suite.Require().NoError(suite.db.Create(product).Error)
	return product
}

func (suite *DiscoveryAPITestSuite) do(method, path, token string, body interface{}) (*httptest.ResponseRecorder, apiEnvelope) {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		suite.Require().NoError(err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, path, reader)
	suite.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	var envelope apiEnvelope
	if w.Body.Len() > 0 {
		suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &envelope), w.Body.String())
	}
	return w, envelope
}

func (suite *DiscoveryAPITestSuite) products(envelope apiEnvelope) []productJSON {
	var products []productJSON
	suite.Require().NoError(json.Unmarshal(envelope.Data, &products))
	return products
}

func titles(products []productJSON) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.Title)
	}
	return out
}

func (suite *DiscoveryAPITestSuite) TestHealth() {
	w, _ := suite.do(http.MethodGet, "/health", "", nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Contains(suite.T(), w.Body.String(), `"database":"up"`)
	assert.Contains(suite.T(), w.Body.String(), `"circuit_breaker":"closed"`)
	assert.NotEmpty(suite.T(), w.Header().Get("X-Request-ID"))
}

func (suite *DiscoveryAPITestSuite) TestSearchWithoutFilters() {
	w, envelope := suite.do(http.MethodGet, "/v1/products/search", "", nil)

	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.True(suite.T(), envelope.Success)
	assert.False(suite.T(), envelope.GeoApplied)
	products := suite.products(envelope)
	assert.Len(suite.T(), products, 3)
	for _, p := range products {
		assert.Nil(suite.T(), p.DistanceKm)
		assert.Equal(suite.T(), []string{"/media/products/" + p.Title + ".jpg"}, p.ImageURLs)
	}
}

func (suite *DiscoveryAPITestSuite) TestSearchWithinRadius() {
	// 200 km around Delhi reaches Agra (~180 km) but not Mumbai.
	w, envelope := suite.do(http.MethodGet, "/v1/products/search?coordinates=77.2090,28.6139&maxDistance=200", "", nil)

	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.True(suite.T(), envelope.GeoApplied)
	products := suite.products(envelope)
	assert.Equal(suite.T(), []string{"Basmati Rice", "Wheat Flour"}, titles(products))
	suite.Require().NotNil(products[0].DistanceKm)
	assert.InDelta(suite.T(), 0, *products[0].DistanceKm, 1e-6)
	suite.Require().NotNil(products[1].DistanceKm)
	assert.InDelta(suite.T(), 180, *products[1].DistanceKm, 10)
}

func (suite *DiscoveryAPITestSuite) TestSearchCombinesRadiusAndAttributes() {
	w, envelope := suite.do(http.MethodGet, "/v1/products/search?coordinates=77.2090,28.6139&maxDistance=200&brand=aashirvaad", "", nil)

	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), []string{"Wheat Flour"}, titles(suite.products(envelope)))
}

func (suite *DiscoveryAPITestSuite) TestSearchTermMatchesDescription() {
	_, envelope := suite.do(http.MethodGet, "/v1/products/search?searchTerm=MANGO", "", nil)
	assert.Equal(suite.T(), []string{"Alphonso Mango"}, titles(suite.products(envelope)))
}

func (suite *DiscoveryAPITestSuite) TestSearchRejectsMalformedCoordinates() {
	for _, coords := range []string{"abc", "77.2", "200,10", "10,95"} {
		w, envelope := suite.do(http.MethodGet, "/v1/products/search?maxDistance=5&coordinates="+coords, "", nil)
		assert.Equal(suite.T(), http.StatusBadRequest, w.Code, coords)
		suite.Require().NotNil(envelope.Error, coords)
		assert.Equal(suite.T(), "INVALID_COORDINATES", envelope.Error.Code)
	}
}

func (suite *DiscoveryAPITestSuite) TestSearchIgnoresNonPositiveRadius() {
	for _, radius := range []string{"0", "-5", "abc"} {
		w, envelope := suite.do(http.MethodGet, "/v1/products/search?coordinates=77.2090,28.6139&maxDistance="+radius, "", nil)
		assert.Equal(suite.T(), http.StatusOK, w.Code, radius)
		assert.False(suite.T(), envelope.GeoApplied, radius)
		assert.NotEmpty(suite.T(), envelope.Message, radius)
		assert.Len(suite.T(), suite.products(envelope), 3)
	}
}

func (suite *DiscoveryAPITestSuite) TestSearchPagination() {
	w, envelope := suite.do(http.MethodGet, "/v1/products/search?limit=2&page=2", "", nil)

	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Len(suite.T(), suite.products(envelope), 1)
	assert.Equal(suite.T(), "3", w.Header().Get("X-Total-Count"))
	pagination, ok := envelope.Meta["pagination"].(map[string]any)
	suite.Require().True(ok)
	assert.EqualValues(suite.T(), 3, pagination["total"])
	assert.EqualValues(suite.T(), 2, pagination["total_pages"])
}

func (suite *DiscoveryAPITestSuite) TestRecommendationsRequireAuth() {
	w, envelope := suite.do(http.MethodGet, "/v1/products/recommendations", "", nil)
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
	suite.Require().NotNil(envelope.Error)
	assert.Equal(suite.T(), "UNAUTHORIZED", envelope.Error.Code)

	w, _ = suite.do(http.MethodGet, "/v1/products/recommendations", "not-a-token", nil)
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)

	expired, err := utils.GenerateJWT(suite.buyer.ID, suite.buyer.Username, -time.Minute)
	suite.Require().NoError(err)
	w, envelope = suite.do(http.MethodGet, "/v1/products/recommendations", expired, nil)
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
	suite.Require().NotNil(envelope.Error)
	assert.Equal(suite.T(), i18n.T("en", i18n.KeyAuthTokenExpired), envelope.Error.Message)
}

func (suite *DiscoveryAPITestSuite) TestColdStartRecommendations() {
	w, envelope := suite.do(http.MethodGet, "/v1/products/recommendations", suite.buyerToken, nil)

	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), "cold_start", envelope.Meta["strategy"])
	assert.Equal(suite.T(), []string{"Basmati Rice", "Alphonso Mango", "Wheat Flour"}, titles(suite.products(envelope)))
}

func (suite *DiscoveryAPITestSuite) TestRecommendationsSkipOwnListings() {
	// Listing counts as history, and every candidate belongs to the caller.
	w, envelope := suite.do(http.MethodGet, "/v1/products/recommendations", suite.sellerToken, nil)

	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), "personalized", envelope.Meta["strategy"])
	assert.NotEmpty(suite.T(), envelope.Meta["message"])
	assert.Empty(suite.T(), suite.products(envelope))
}

func (suite *DiscoveryAPITestSuite) TestPersonalizedRecommendations() {
	w, _ := suite.do(http.MethodPost, "/v1/products/"+suite.rice.ID.String()+"/favorite", suite.buyerToken, nil)
	suite.Require().Equal(http.StatusOK, w.Code)

	w, envelope := suite.do(http.MethodGet, "/v1/products/recommendations", suite.buyerToken, nil)

	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), "personalized", envelope.Meta["strategy"])
	products := suite.products(envelope)
	// The favorited listing is excluded; same-category grain outranks the
	// more popular mango on content affinity.
	assert.Equal(suite.T(), []string{"Wheat Flour", "Alphonso Mango"}, titles(products))
	for _, p := range products {
		assert.NotNil(suite.T(), p.Score)
	}
}

func (suite *DiscoveryAPITestSuite) TestPopular() {
	w, envelope := suite.do(http.MethodGet, "/v1/products/popular?limit=2", "", nil)

	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), []string{"Basmati Rice", "Alphonso Mango"}, titles(suite.products(envelope)))
}

func (suite *DiscoveryAPITestSuite) TestListingLifecycle() {
	lon, lat := 72.8777, 19.0760
	create := map[string]interface{}{
		"title":       "Kesar Mango",
		"description": "Sweet kesar mangoes from Gujarat",
		"category":    "Fruit",
		"brand":       "Gir Orchards",
		"price":       "6.25",
		"quantity":    40,
		"image_keys":  []string{"products/kesar.jpg"},
		"longitude":   lon,
		"latitude":    lat,
	}

	w, envelope := suite.do(http.MethodPost, "/v1/products", suite.buyerToken, create)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var created productJSON
	suite.Require().NoError(json.Unmarshal(envelope.Data, &created))
	assert.Equal(suite.T(), suite.buyer.ID, created.SellerID)
	assert.Equal(suite.T(), []string{"/media/products/kesar.jpg"}, created.ImageURLs)

	path := "/v1/products/" + created.ID.String()

	w, envelope = suite.do(http.MethodPut, path, suite.sellerToken, map[string]interface{}{"title": "Stolen Mango"})
	assert.Equal(suite.T(), http.StatusForbidden, w.Code)
	suite.Require().NotNil(envelope.Error)
	assert.Equal(suite.T(), "FORBIDDEN", envelope.Error.Code)

	w, envelope = suite.do(http.MethodPut, path, suite.buyerToken, map[string]interface{}{"title": "Kesar Mango Box", "price": "7.00"})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var updated productJSON
	suite.Require().NoError(json.Unmarshal(envelope.Data, &updated))
	assert.Equal(suite.T(), "Kesar Mango Box", updated.Title)

	w, _ = suite.do(http.MethodDelete, path, suite.buyerToken, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	w, envelope = suite.do(http.MethodGet, path, "", nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
	suite.Require().NotNil(envelope.Error)
	assert.Equal(suite.T(), "NOT_FOUND", envelope.Error.Code)
	assert.Equal(suite.T(), "Product not found", envelope.Error.Message)
}

func (suite *DiscoveryAPITestSuite) TestCreateProductValidation() {
	w, envelope := suite.do(http.MethodPost, "/v1/products", suite.buyerToken, map[string]interface{}{
		"title":      "X",
		"price":      "-1",
		"image_keys": []string{},
	})

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	suite.Require().NotNil(envelope.Error)
	assert.Equal(suite.T(), "VALIDATION_ERROR", envelope.Error.Code)

	w, _ = suite.do(http.MethodPost, "/v1/products", "", map[string]interface{}{"title": "Anything"})
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
}

func (suite *DiscoveryAPITestSuite) TestGetProductRejectsBadID() {
	w, envelope := suite.do(http.MethodGet, "/v1/products/not-a-uuid", "", nil)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	suite.Require().NotNil(envelope.Error)
	assert.Equal(suite.T(), "BAD_REQUEST", envelope.Error.Code)
}

func (suite *DiscoveryAPITestSuite) TestFavoriteToggle() {
	path := "/v1/products/" + suite.mango.ID.String() + "/favorite"

	w, envelope := suite.do(http.MethodPost, path, suite.buyerToken, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	assert.JSONEq(suite.T(), `{"favorited":true,"favorites":1}`, string(envelope.Data))

	w, envelope = suite.do(http.MethodPost, path, suite.buyerToken, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	assert.JSONEq(suite.T(), `{"favorited":false,"favorites":0}`, string(envelope.Data))

	w, _ = suite.do(http.MethodPost, path, "", nil)
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
}

func (suite *DiscoveryAPITestSuite) TestRecordView() {
	path := "/v1/products/" + suite.wheat.ID.String() + "/view"

	w, _ := suite.do(http.MethodPost, path, "", nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	w, envelope := suite.do(http.MethodPost, path, suite.buyerToken, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var counters struct {
		Views int64 `json:"views"`
	}
	suite.Require().NoError(json.Unmarshal(envelope.Data, &counters))
	assert.EqualValues(suite.T(), 12, counters.Views)

	var interactions int64
	suite.Require().NoError(suite.db.Model(&models.InteractionRecord{}).
		Where("user_id = ? AND product_id = ?", suite.buyer.ID, suite.wheat.ID).
		Count(&interactions).Error)
	assert.EqualValues(suite.T(), 1, interactions)

	w, _ = suite.do(http.MethodPost, "/v1/products/"+uuid.NewString()+"/view", "", nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func (suite *DiscoveryAPITestSuite) TestLocalizedMessages() {
	req, err := http.NewRequest(http.MethodGet, "/v1/products/"+uuid.NewString(), nil)
	suite.Require().NoError(err)
	req.Header.Set("Accept-Language", "zh-TW,zh;q=0.9")

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
	assert.Contains(suite.T(), w.Body.String(), i18n.T("zh_TW", i18n.KeyProductNotFound))
}

func TestDiscoveryAPISuite(t *testing.T) {
	suite.Run(t, new(DiscoveryAPITestSuite))
}
