package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"marketplace-service/internal/catalog"
	"marketplace-service/internal/models"
	"marketplace-service/internal/repositories"
)

const defaultPageSize = 20

// AdHandler manages listing endpoints.
type AdHandler struct {
	adRepo   repositories.AdRepository
	favRepo  repositories.FavoriteRepository
	convRepo repositories.ConversationRepository
	userRepo repositories.UserRepository
}

// NewAdHandler builds an AdHandler.
func NewAdHandler(adRepo repositories.AdRepository, favRepo repositories.FavoriteRepository, convRepo repositories.ConversationRepository, userRepo repositories.UserRepository) *AdHandler {
	return &AdHandler{adRepo: adRepo, favRepo: favRepo, convRepo: convRepo, userRepo: userRepo}
}

type adRequest struct {
	Title         string            `json:"title" binding:"required"`
	Description   string            `json:"description"`
	Category      string            `json:"category" binding:"required"`
	Price         string            `json:"price"`
	Currency      string            `json:"currency"`
	Location      string            `json:"location"`
	ContactNumber string            `json:"contact_number"`
	Images        []adImageRequest  `json:"images"`
	IsAuction     bool              `json:"is_auction"`
	Auction       *adAuctionRequest `json:"auction"`
}

type adImageRequest struct {
	URL      string `json:"url" binding:"required"`
	PublicID string `json:"public_id"`
}

type adAuctionRequest struct {
	StartingPrice float64   `json:"starting_price"`
	BidIncrement  float64   `json:"bid_increment"`
	EndTime       time.Time `json:"end_time" binding:"required"`
}

// CreateAd stores a new listing for the authenticated user.
func (h *AdHandler) CreateAd(c *gin.Context) {
	userID, _ := currentUser(c)

	var req adRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.IsAuction && req.Auction == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "auction details required for auction ads"})
		return
	}

	currency := req.Currency
	if currency == "" {
		currency = "BDT"
	}
	price := catalog.ParsePrice(req.Price, currency)

	now := time.Now()
	ad := models.Ad{
		ID:            uuid.New(),
		UserID:        userID,
		Title:         req.Title,
		Description:   req.Description,
		Category:      req.Category,
		PriceAmount:   price.Amount,
		PriceCurrency: price.Currency,
		IsFree:        price.Free,
		Location:      req.Location,
		ContactNumber: req.ContactNumber,
		IsAuction:     req.IsAuction,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for _, img := range req.Images {
		ad.Images = append(ad.Images, models.AdImage{URL: img.URL, PublicID: img.PublicID})
	}
	if req.IsAuction {
		if !req.Auction.EndTime.After(now) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "auction end time must be in the future"})
			return
		}
		increment := req.Auction.BidIncrement
		if increment <= 0 {
			increment = 1
		}
		ad.Auction = &models.Auction{
			AdID:          ad.ID,
			StartingPrice: req.Auction.StartingPrice,
			BidIncrement:  increment,
			EndTime:       req.Auction.EndTime,
			Status:        models.AuctionActive,
		}
	}

	if err := h.adRepo.CreateAd(c.Request.Context(), ad); err != nil {
		log.WithError(err).Error("failed to create ad")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create ad"})
		return
	}

	c.JSON(http.StatusCreated, ad)
}

// ListAds returns one page of the public feed with filters applied.
func (h *AdHandler) ListAds(c *gin.Context) {
	cursor, err := catalog.DecodeCursor(c.Query("cursor"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cursor"})
		return
	}
	limit := defaultPageSize
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	ads, err := h.adRepo.ListAds(c.Request.Context(), cursor, limit)
	if err != nil {
		log.WithError(err).Error("failed to list ads")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load ads"})
		return
	}

	var next string
	if len(ads) == limit {
		last := ads[len(ads)-1]
		next = catalog.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}.Encode()
	}

	ads = catalog.FilterCategory(ads, c.Query("category"))
	ads = catalog.SearchTitle(ads, c.Query("q"))
	ads = catalog.ApplyPriceSort(ads, c.Query("price_sort"))

	c.JSON(http.StatusOK, gin.H{"ads": ads, "next_cursor": next})
}

// ListMyAds returns the authenticated user's listings.
func (h *AdHandler) ListMyAds(c *gin.Context) {
	userID, _ := currentUser(c)

	ads, err := h.adRepo.ListAdsByUser(c.Request.Context(), userID)
	if err != nil {
		log.WithError(err).Error("failed to list user ads")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load ads"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ads": ads})
}

// GetAd returns one listing with seller info and favorite state.
func (h *AdHandler) GetAd(c *gin.Context) {
	adID, err := uuid.Parse(c.Param("ad_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ad id"})
		return
	}

	ad, err := h.adRepo.GetAd(c.Request.Context(), adID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrAdNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "ad not found"})
		return
	}

	userID, _ := currentUser(c)
	favorite, err := h.favRepo.IsFavorite(c.Request.Context(), adID, userID)
	if err != nil {
		log.WithError(err).Warn("failed to check favorite state")
	}

	resp := gin.H{"ad": ad, "is_owner": ad.UserID == userID, "is_favorite": favorite}
	if seller, err := h.userRepo.GetUser(c.Request.Context(), ad.UserID); err == nil {
		resp["seller"] = gin.H{
			"id":           seller.ID,
			"display_name": seller.DisplayName,
			"photo_url":    seller.PhotoURL,
			"online":       seller.Online,
		}
	}

	c.JSON(http.StatusOK, resp)
}

// UpdateAd rewrites a listing owned by the caller.
func (h *AdHandler) UpdateAd(c *gin.Context) {
	adID, err := uuid.Parse(c.Param("ad_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ad id"})
		return
	}
	userID, _ := currentUser(c)

	existing, err := h.adRepo.GetAd(c.Request.Context(), adID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrAdNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "ad not found"})
		return
	}
	if existing.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not the ad owner"})
		return
	}

	var req adRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	currency := req.Currency
	if currency == "" {
		currency = existing.PriceCurrency
	}
	price := catalog.ParsePrice(req.Price, currency)

	updated := existing
	updated.Title = req.Title
	updated.Description = req.Description
	updated.Category = req.Category
	updated.PriceAmount = price.Amount
	updated.PriceCurrency = price.Currency
	updated.IsFree = price.Free
	updated.Location = req.Location
	updated.ContactNumber = req.ContactNumber
	updated.Images = nil
	for _, img := range req.Images {
		updated.Images = append(updated.Images, models.AdImage{URL: img.URL, PublicID: img.PublicID})
	}

	if err := h.adRepo.UpdateAd(c.Request.Context(), updated); err != nil {
		log.WithError(err).Error("failed to update ad")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update ad"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "ad_id": adID})
}

// DeleteAd removes a listing owned by the caller. Favorites and chat threads
// go first as independent best-effort deletes.
func (h *AdHandler) DeleteAd(c *gin.Context) {
	adID, err := uuid.Parse(c.Param("ad_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ad id"})
		return
	}
	userID, _ := currentUser(c)

	ad, err := h.adRepo.GetAd(c.Request.Context(), adID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrAdNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "ad not found"})
		return
	}
	if ad.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not the ad owner"})
		return
	}

	if err := h.favRepo.DeleteForAd(c.Request.Context(), adID); err != nil {
		log.WithError(err).WithField("ad_id", adID).Warn("failed to delete favorites for ad")
	}
	if err := h.convRepo.DeleteForAd(c.Request.Context(), adID); err != nil {
		log.WithError(err).WithField("ad_id", adID).Warn("failed to delete conversations for ad")
	}

	if err := h.adRepo.DeleteAd(c.Request.Context(), adID); err != nil {
		log.WithError(err).Error("failed to delete ad")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete ad"})
		return
	}

	c.Status(http.StatusNoContent)
}
