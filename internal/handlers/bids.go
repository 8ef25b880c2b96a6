package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"marketplace-service/internal/auction"
	"marketplace-service/internal/models"
	"marketplace-service/internal/observability"
	"marketplace-service/internal/repositories"
	"marketplace-service/internal/telemetry"
	"marketplace-service/internal/ws"
)

const defaultBidHistory = 50

// BidHandler manages auction bidding endpoints.
type BidHandler struct {
	auctionRepo repositories.AuctionRepository
	adRepo      repositories.AdRepository
	hub         *ws.Hub
	audit       *telemetry.AuditEmitter
}

// NewBidHandler builds a BidHandler.
func NewBidHandler(auctionRepo repositories.AuctionRepository, adRepo repositories.AdRepository, hub *ws.Hub, audit *telemetry.AuditEmitter) *BidHandler {
	return &BidHandler{auctionRepo: auctionRepo, adRepo: adRepo, hub: hub, audit: audit}
}

type placeBidRequest struct {
	Amount    float64 `json:"amount" binding:"required,gt=0"`
	MaxBid    float64 `json:"max_bid"`
	IsAutoBid bool    `json:"is_auto_bid"`
}

// PlaceBid applies a bid to an auction ad. Rejections carry a reason code and,
// for low bids, the minimum acceptable amount.
func (h *BidHandler) PlaceBid(c *gin.Context) {
	adID, err := uuid.Parse(c.Param("ad_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ad id"})
		return
	}
	userID, userName := currentUser(c)

	var req placeBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bidder := auction.Bidder{ID: userID, Name: userName}
	offer := auction.Offer{Amount: req.Amount, MaxBid: req.MaxBid, IsAutoBid: req.IsAutoBid}
	res, err := h.auctionRepo.PlaceBid(c.Request.Context(), adID, offer, bidder)
	if err != nil {
		h.rejectBid(c, adID, req.Amount, err)
		return
	}

	observability.IncBid("accepted")
	if res.Auction.Extended {
		observability.IncAuctionExtension()
	}

	h.hub.BroadcastAdEvent(adID.String(), models.AdEvent{
		Type:    "bid_placed",
		AdID:    adID.String(),
		Auction: &res.Auction,
		Bid:     &res.Entry,
	})

	requestID := requestIDFromContext(c)
	h.audit.Emit(c.Request.Context(), "bid.placed", requestID, userID, map[string]any{
		"ad_id":    adID.String(),
		"amount":   req.Amount,
		"extended": res.Auction.Extended,
	})
	publishBidEvent(c, adID, res)

	c.JSON(http.StatusOK, gin.H{
		"auction": res.Auction,
		"bid":     res.Entry,
	})
}

func (h *BidHandler) rejectBid(c *gin.Context, adID uuid.UUID, amount float64, err error) {
	var tooLow *auction.BidTooLowError

	switch {
	case errors.Is(err, repositories.ErrAdNotFound):
		observability.IncBid("not_found")
		c.JSON(http.StatusNotFound, gin.H{"error": "ad not found"})
	case errors.Is(err, auction.ErrNotAnAuction):
		observability.IncBid("not_auction")
		c.JSON(http.StatusConflict, gin.H{"error": "ad is not an auction", "reason": "not_an_auction"})
	case errors.As(err, &tooLow):
		observability.IncBid("too_low")
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   tooLow.Error(),
			"reason":  "bid_too_low",
			"min_bid": tooLow.MinBid,
		})
	case errors.Is(err, auction.ErrAuctionClosed):
		observability.IncBid("closed")
		c.JSON(http.StatusConflict, gin.H{"error": "auction is no longer active", "reason": "auction_closed"})
	case errors.Is(err, auction.ErrAuctionEnded):
		observability.IncBid("ended")
		c.JSON(http.StatusConflict, gin.H{"error": "auction has already ended", "reason": "auction_ended"})
	case errors.Is(err, auction.ErrMaxBidTooLow):
		observability.IncBid("max_bid_too_low")
		c.JSON(http.StatusBadRequest, gin.H{"error": "maximum bid must be at least the bid amount", "reason": "max_bid_too_low"})
	case errors.Is(err, auction.ErrAlreadyHighestBidder):
		observability.IncBid("already_highest")
		c.JSON(http.StatusConflict, gin.H{"error": "you already hold the highest bid", "reason": "already_highest_bidder"})
	case errors.Is(err, auction.ErrSellerCannotBid):
		observability.IncBid("seller")
		c.JSON(http.StatusForbidden, gin.H{"error": "seller cannot bid on own auction", "reason": "seller_cannot_bid"})
	default:
		observability.IncBid("error")
		log.WithError(err).WithFields(log.Fields{"ad_id": adID, "amount": amount}).Error("failed to place bid")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to place bid"})
	}
}

func publishBidEvent(c *gin.Context, adID uuid.UUID, res auction.Result) {
	payload := map[string]interface{}{
		"bid": map[string]interface{}{
			"ad_id":       adID.String(),
			"bidder_id":   res.Entry.BidderID,
			"amount":      res.Entry.Amount,
			"is_auto_bid": res.Entry.IsAutoBid,
			"current_bid": res.Auction.CurrentBid,
			"end_time":    res.Auction.EndTime,
			"extended":    res.Auction.Extended,
		},
	}
	headers := observability.BuildHeaders(requestIDFromContext(c), "")
	if err := observability.PublishEvent(c.Request.Context(), "auction_events.bid_placed",
		observability.NewEnvelope("auction_events", "bid_placed", payload), headers); err != nil {
		log.WithError(err).Warn("failed to publish bid event")
	}
}

// ListBids returns the bid history for an ad, newest first.
func (h *BidHandler) ListBids(c *gin.Context) {
	adID, err := uuid.Parse(c.Param("ad_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ad id"})
		return
	}
	limit := defaultBidHistory
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 200 {
			limit = parsed
		}
	}

	bids, err := h.auctionRepo.ListBids(c.Request.Context(), adID, limit)
	if err != nil {
		log.WithError(err).Error("failed to list bids")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load bids"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"bids": bids})
}

// ListMyBids returns every bid the authenticated user has placed.
func (h *BidHandler) ListMyBids(c *gin.Context) {
	userID, _ := currentUser(c)

	bids, err := h.auctionRepo.ListBidsByUser(c.Request.Context(), userID)
	if err != nil {
		log.WithError(err).Error("failed to list user bids")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load bids"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"bids": bids})
}

// QuickBids returns suggested amounts for an auction ad.
func (h *BidHandler) QuickBids(c *gin.Context) {
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
	if !ad.IsAuction || ad.Auction == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "ad is not an auction", "reason": "not_an_auction"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"min_bid":    auction.MinBid(*ad.Auction),
		"quick_bids": auction.QuickBids(*ad.Auction),
	})
}
