package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"marketplace-service/internal/mocks"
	"marketplace-service/internal/models"
	"marketplace-service/internal/repositories"
)

func setupFavoriteRouter(handler *FavoriteHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", "user-1")
		c.Next()
	})
	r.POST("/favorites/:ad_id", handler.AddFavorite)
	r.DELETE("/favorites/:ad_id", handler.RemoveFavorite)
	r.GET("/favorites", handler.ListFavorites)
	return r
}

func TestAddFavoriteSuccess(t *testing.T) {
	favRepo := new(mocks.FavoriteRepositoryMock)
	adRepo := new(mocks.AdRepositoryMock)
	router := setupFavoriteRouter(NewFavoriteHandler(favRepo, adRepo))

	adID := uuid.New()
	adRepo.On("GetAd", mock.Anything, adID).Return(models.Ad{ID: adID}, nil).Once()
	favRepo.On("AddFavorite", mock.Anything, adID, "user-1").Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/favorites/"+adID.String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	favRepo.AssertExpectations(t)
	adRepo.AssertExpectations(t)
}

func TestAddFavoriteMissingAd(t *testing.T) {
	favRepo := new(mocks.FavoriteRepositoryMock)
	adRepo := new(mocks.AdRepositoryMock)
	router := setupFavoriteRouter(NewFavoriteHandler(favRepo, adRepo))

	adID := uuid.New()
	adRepo.On("GetAd", mock.Anything, adID).Return(models.Ad{}, repositories.ErrAdNotFound).Once()

	req := httptest.NewRequest(http.MethodPost, "/favorites/"+adID.String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	adRepo.AssertExpectations(t)
}

func TestRemoveFavoriteIdempotent(t *testing.T) {
	favRepo := new(mocks.FavoriteRepositoryMock)
	router := setupFavoriteRouter(NewFavoriteHandler(favRepo, new(mocks.AdRepositoryMock)))

	adID := uuid.New()
	favRepo.On("RemoveFavorite", mock.Anything, adID, "user-1").Return(nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/favorites/"+adID.String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	favRepo.AssertExpectations(t)
}

func TestListFavoritesSkipsDeletedAds(t *testing.T) {
	favRepo := new(mocks.FavoriteRepositoryMock)
	adRepo := new(mocks.AdRepositoryMock)
	router := setupFavoriteRouter(NewFavoriteHandler(favRepo, adRepo))

	keptID := uuid.New()
	goneID := uuid.New()
	favRepo.On("ListFavorites", mock.Anything, "user-1").Return([]uuid.UUID{keptID, goneID}, nil).Once()
	adRepo.On("GetAd", mock.Anything, keptID).Return(models.Ad{ID: keptID, Title: "kept"}, nil).Once()
	adRepo.On("GetAd", mock.Anything, goneID).Return(models.Ad{}, repositories.ErrAdNotFound).Once()

	req := httptest.NewRequest(http.MethodGet, "/favorites", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Ads []models.Ad `json:"ads"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Ads, 1)
	assert.Equal(t, "kept", resp.Ads[0].Title)
	favRepo.AssertExpectations(t)
	adRepo.AssertExpectations(t)
}
