package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"marketplace-service/internal/catalog"
	"marketplace-service/internal/mocks"
	"marketplace-service/internal/models"
	"marketplace-service/internal/repositories"
)

func setupAdRouter(handler *AdHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", "user-1")
		c.Set("userName", "Alice")
		c.Next()
	})
	r.POST("/ads", handler.CreateAd)
	r.GET("/ads", handler.ListAds)
	r.GET("/ads/:ad_id", handler.GetAd)
	r.PUT("/ads/:ad_id", handler.UpdateAd)
	r.DELETE("/ads/:ad_id", handler.DeleteAd)
	r.GET("/me/ads", handler.ListMyAds)
	return r
}

func newAdHandlerWithMocks() (*AdHandler, *mocks.AdRepositoryMock, *mocks.FavoriteRepositoryMock, *mocks.ConversationRepositoryMock, *mocks.UserRepositoryMock) {
	adRepo := new(mocks.AdRepositoryMock)
	favRepo := new(mocks.FavoriteRepositoryMock)
	convRepo := new(mocks.ConversationRepositoryMock)
	userRepo := new(mocks.UserRepositoryMock)
	return NewAdHandler(adRepo, favRepo, convRepo, userRepo), adRepo, favRepo, convRepo, userRepo
}

func TestCreateAdParsesPrice(t *testing.T) {
	handler, adRepo, _, _, _ := newAdHandlerWithMocks()
	router := setupAdRouter(handler)

	var created models.Ad
	adRepo.On("CreateAd", mock.Anything, mock.MatchedBy(func(ad models.Ad) bool {
		created = ad
		return ad.Title == "Old couch" && ad.UserID == "user-1"
	})).Return(nil).Once()

	body := bytes.NewBufferString(`{"title":"Old couch","category":"furniture","price":"1,500 tk"}`)
	req := httptest.NewRequest(http.MethodPost, "/ads", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1500.0, created.PriceAmount)
	assert.False(t, created.IsFree)
	adRepo.AssertExpectations(t)
}

func TestCreateAdFreeListing(t *testing.T) {
	handler, adRepo, _, _, _ := newAdHandlerWithMocks()
	router := setupAdRouter(handler)

	adRepo.On("CreateAd", mock.Anything, mock.MatchedBy(func(ad models.Ad) bool {
		return ad.IsFree && ad.PriceAmount == 0
	})).Return(nil).Once()

	body := bytes.NewBufferString(`{"title":"Giveaway","category":"misc","price":"Free"}`)
	req := httptest.NewRequest(http.MethodPost, "/ads", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	adRepo.AssertExpectations(t)
}

func TestCreateAuctionAdRequiresDetails(t *testing.T) {
	handler, _, _, _, _ := newAdHandlerWithMocks()
	router := setupAdRouter(handler)

	body := bytes.NewBufferString(`{"title":"Bike","category":"vehicles","is_auction":true}`)
	req := httptest.NewRequest(http.MethodPost, "/ads", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateAuctionAdRejectsPastEndTime(t *testing.T) {
	handler, _, _, _, _ := newAdHandlerWithMocks()
	router := setupAdRouter(handler)

	past := time.Now().Add(-time.Hour).Format(time.RFC3339)
	body := bytes.NewBufferString(`{"title":"Bike","category":"vehicles","is_auction":true,
        "auction":{"starting_price":100,"bid_increment":50,"end_time":"` + past + `"}}`)
	req := httptest.NewRequest(http.MethodPost, "/ads", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListAdsReturnsCursor(t *testing.T) {
	handler, adRepo, _, _, _ := newAdHandlerWithMocks()
	router := setupAdRouter(handler)

	ads := make([]models.Ad, defaultPageSize)
	base := time.Now()
	for i := range ads {
		ads[i] = models.Ad{ID: uuid.New(), Title: "ad", CreatedAt: base.Add(-time.Duration(i) * time.Minute)}
	}
	adRepo.On("ListAds", mock.Anything, catalog.Cursor{}, defaultPageSize).Return(ads, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/ads", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Ads        []models.Ad `json:"ads"`
		NextCursor string      `json:"next_cursor"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(t, resp.Ads, defaultPageSize)
	assert.NotEmpty(t, resp.NextCursor)

	cursor, err := catalog.DecodeCursor(resp.NextCursor)
	require.NoError(t, err)
	assert.Equal(t, ads[len(ads)-1].ID, cursor.ID)
	adRepo.AssertExpectations(t)
}

func TestListAdsAppliesFilters(t *testing.T) {
	handler, adRepo, _, _, _ := newAdHandlerWithMocks()
	router := setupAdRouter(handler)

	ads := []models.Ad{
		{ID: uuid.New(), Title: "Couch", Category: "furniture", PriceAmount: 300},
		{ID: uuid.New(), Title: "Bike", Category: "vehicles", PriceAmount: 500},
		{ID: uuid.New(), Title: "Chair", Category: "furniture", PriceAmount: 100},
	}
	adRepo.On("ListAds", mock.Anything, catalog.Cursor{}, defaultPageSize).Return(ads, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/ads?category=furniture&price_sort=lowtohigh", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Ads []models.Ad `json:"ads"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Ads, 2)
	assert.Equal(t, "Chair", resp.Ads[0].Title)
	assert.Equal(t, "Couch", resp.Ads[1].Title)
	adRepo.AssertExpectations(t)
}

func TestListAdsInvalidCursor(t *testing.T) {
	handler, _, _, _, _ := newAdHandlerWithMocks()
	router := setupAdRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/ads?cursor=@@@", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetAdWithSellerAndFavorite(t *testing.T) {
	handler, adRepo, favRepo, _, userRepo := newAdHandlerWithMocks()
	router := setupAdRouter(handler)

	adID := uuid.New()
	adRepo.On("GetAd", mock.Anything, adID).Return(models.Ad{ID: adID, UserID: "seller-1"}, nil).Once()
	favRepo.On("IsFavorite", mock.Anything, adID, "user-1").Return(true, nil).Once()
	userRepo.On("GetUser", mock.Anything, "seller-1").Return(models.User{ID: "seller-1", DisplayName: "Bob", Online: true}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/ads/"+adID.String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, true, resp["is_favorite"])
	assert.Equal(t, false, resp["is_owner"])
	seller := resp["seller"].(map[string]any)
	assert.Equal(t, "Bob", seller["display_name"])
	adRepo.AssertExpectations(t)
}

func TestGetAdNotFound(t *testing.T) {
	handler, adRepo, _, _, _ := newAdHandlerWithMocks()
	router := setupAdRouter(handler)

	adID := uuid.New()
	adRepo.On("GetAd", mock.Anything, adID).Return(models.Ad{}, repositories.ErrAdNotFound).Once()

	req := httptest.NewRequest(http.MethodGet, "/ads/"+adID.String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	adRepo.AssertExpectations(t)
}

func TestUpdateAdForbiddenForNonOwner(t *testing.T) {
	handler, adRepo, _, _, _ := newAdHandlerWithMocks()
	router := setupAdRouter(handler)

	adID := uuid.New()
	adRepo.On("GetAd", mock.Anything, adID).Return(models.Ad{ID: adID, UserID: "someone-else"}, nil).Once()

	body := bytes.NewBufferString(`{"title":"New title","category":"misc"}`)
	req := httptest.NewRequest(http.MethodPut, "/ads/"+adID.String(), body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	adRepo.AssertExpectations(t)
}

func TestDeleteAdCascades(t *testing.T) {
	handler, adRepo, favRepo, convRepo, _ := newAdHandlerWithMocks()
	router := setupAdRouter(handler)

	adID := uuid.New()
	adRepo.On("GetAd", mock.Anything, adID).Return(models.Ad{ID: adID, UserID: "user-1"}, nil).Once()
	favRepo.On("DeleteForAd", mock.Anything, adID).Return(nil).Once()
	convRepo.On("DeleteForAd", mock.Anything, adID).Return(nil).Once()
	adRepo.On("DeleteAd", mock.Anything, adID).Return(nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/ads/"+adID.String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	adRepo.AssertExpectations(t)
	favRepo.AssertExpectations(t)
	convRepo.AssertExpectations(t)
}

func TestDeleteAdContinuesAfterCascadeFailure(t *testing.T) {
	handler, adRepo, favRepo, convRepo, _ := newAdHandlerWithMocks()
	router := setupAdRouter(handler)

	adID := uuid.New()
	adRepo.On("GetAd", mock.Anything, adID).Return(models.Ad{ID: adID, UserID: "user-1"}, nil).Once()
	favRepo.On("DeleteForAd", mock.Anything, adID).Return(assert.AnError).Once()
	convRepo.On("DeleteForAd", mock.Anything, adID).Return(nil).Once()
	adRepo.On("DeleteAd", mock.Anything, adID).Return(nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/ads/"+adID.String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	adRepo.AssertExpectations(t)
	favRepo.AssertExpectations(t)
	convRepo.AssertExpectations(t)
}

func TestListMyAds(t *testing.T) {
	handler, adRepo, _, _, _ := newAdHandlerWithMocks()
	router := setupAdRouter(handler)

	adRepo.On("ListAdsByUser", mock.Anything, "user-1").
		Return([]models.Ad{{ID: uuid.New(), Title: "mine"}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/me/ads", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	adRepo.AssertExpectations(t)
}
