package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"marketplace-service/internal/catalog"
	"marketplace-service/internal/models"
	"marketplace-service/internal/repositories"
)

const defaultUpdatesLimit = 30

// ProfileHandler manages user profiles and the interest-matched updates feed.
type ProfileHandler struct {
	userRepo repositories.UserRepository
	adRepo   repositories.AdRepository
}

// NewProfileHandler builds a ProfileHandler.
func NewProfileHandler(userRepo repositories.UserRepository, adRepo repositories.AdRepository) *ProfileHandler {
	return &ProfileHandler{userRepo: userRepo, adRepo: adRepo}
}

type profileRequest struct {
	DisplayName string   `json:"display_name" binding:"required"`
	Email       string   `json:"email"`
	PhotoURL    string   `json:"photo_url"`
	About       string   `json:"about"`
	Instagram   string   `json:"instagram"`
	Facebook    string   `json:"facebook"`
	Interests   []string `json:"interests"`
}

// GetProfile returns the caller's own profile.
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID, _ := currentUser(c)

	user, err := h.userRepo.GetUser(c.Request.Context(), userID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrUserNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "profile not found"})
		return
	}

	c.JSON(http.StatusOK, user)
}

// GetUserProfile returns another user's public profile.
func (h *ProfileHandler) GetUserProfile(c *gin.Context) {
	user, err := h.userRepo.GetUser(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrUserNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "profile not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":           user.ID,
		"display_name": user.DisplayName,
		"photo_url":    user.PhotoURL,
		"about":        user.About,
		"instagram":    user.Instagram,
		"facebook":     user.Facebook,
		"online":       user.Online,
	})
}

// UpsertProfile creates or replaces the caller's profile.
func (h *ProfileHandler) UpsertProfile(c *gin.Context) {
	userID, _ := currentUser(c)

	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user := models.User{
		ID:          userID,
		DisplayName: req.DisplayName,
		Email:       req.Email,
		PhotoURL:    req.PhotoURL,
		About:       req.About,
		Instagram:   req.Instagram,
		Facebook:    req.Facebook,
		Interests:   req.Interests,
	}
	if err := h.userRepo.UpsertUser(c.Request.Context(), user); err != nil {
		log.WithError(err).Error("failed to save profile")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save profile"})
		return
	}

	c.JSON(http.StatusOK, user)
}

// ListUpdates returns recent ads matching the caller's interests, skipping the
// caller's own listings. Without saved interests the feed is empty.
func (h *ProfileHandler) ListUpdates(c *gin.Context) {
	userID, _ := currentUser(c)

	user, err := h.userRepo.GetUser(c.Request.Context(), userID)
	if err != nil && !errors.Is(err, repositories.ErrUserNotFound) {
		log.WithError(err).Error("failed to load profile for updates")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load updates"})
		return
	}
	if len(user.Interests) == 0 {
		c.JSON(http.StatusOK, gin.H{"ads": []models.Ad{}})
		return
	}

	limit := defaultUpdatesLimit
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	// Scan recent pages until enough matches accumulate. Interests are a
	// substring match against the category, so filtering happens here rather
	// than in SQL.
	var matched []models.Ad
	cursor := catalog.Cursor{}
	for len(matched) < limit {
		page, err := h.adRepo.ListAds(c.Request.Context(), cursor, 100)
		if err != nil {
			log.WithError(err).Error("failed to scan ads for updates")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load updates"})
			return
		}
		for _, ad := range page {
			if ad.UserID == userID {
				continue
			}
			if catalog.MatchesInterests(ad, user.Interests) {
				matched = append(matched, ad)
				if len(matched) == limit {
					break
				}
			}
		}
		if len(page) < 100 {
			break
		}
		last := page[len(page)-1]
		cursor = catalog.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
	}

	c.JSON(http.StatusOK, gin.H{"ads": matched})
}
