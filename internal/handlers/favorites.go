package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"marketplace-service/internal/models"
	"marketplace-service/internal/repositories"
)

// FavoriteHandler manages the per-user favorites list.
type FavoriteHandler struct {
	favRepo repositories.FavoriteRepository
	adRepo  repositories.AdRepository
}

// NewFavoriteHandler builds a FavoriteHandler.
func NewFavoriteHandler(favRepo repositories.FavoriteRepository, adRepo repositories.AdRepository) *FavoriteHandler {
	return &FavoriteHandler{favRepo: favRepo, adRepo: adRepo}
}

// AddFavorite marks an ad as a favorite. Repeating the call is a no-op.
func (h *FavoriteHandler) AddFavorite(c *gin.Context) {
	adID, err := uuid.Parse(c.Param("ad_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ad id"})
		return
	}
	userID, _ := currentUser(c)

	if _, err := h.adRepo.GetAd(c.Request.Context(), adID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrAdNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "ad not found"})
		return
	}

	if err := h.favRepo.AddFavorite(c.Request.Context(), adID, userID); err != nil {
		log.WithError(err).Error("failed to add favorite")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add favorite"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// RemoveFavorite unmarks a favorite. Removing an absent favorite succeeds.
func (h *FavoriteHandler) RemoveFavorite(c *gin.Context) {
	adID, err := uuid.Parse(c.Param("ad_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ad id"})
		return
	}
	userID, _ := currentUser(c)

	if err := h.favRepo.RemoveFavorite(c.Request.Context(), adID, userID); err != nil {
		log.WithError(err).Error("failed to remove favorite")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove favorite"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListFavorites returns the caller's favorited ads. Ads deleted since being
// favorited are skipped.
func (h *FavoriteHandler) ListFavorites(c *gin.Context) {
	userID, _ := currentUser(c)

	ids, err := h.favRepo.ListFavorites(c.Request.Context(), userID)
	if err != nil {
		log.WithError(err).Error("failed to list favorites")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load favorites"})
		return
	}

	ads := make([]models.Ad, 0, len(ids))
	for _, id := range ids {
		ad, err := h.adRepo.GetAd(c.Request.Context(), id)
		if errors.Is(err, repositories.ErrAdNotFound) {
			continue
		}
		if err != nil {
			log.WithError(err).WithField("ad_id", id).Warn("failed to load favorited ad")
			continue
		}
		ads = append(ads, ad)
	}

	c.JSON(http.StatusOK, gin.H{"ads": ads})
}
