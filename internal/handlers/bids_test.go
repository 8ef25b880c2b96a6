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

	"marketplace-service/internal/auction"
	"marketplace-service/internal/mocks"
	"marketplace-service/internal/models"
	"marketplace-service/internal/ws"
)

func setupBidRouter(handler *BidHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", "user-1")
		c.Set("userName", "Alice")
		c.Next()
	})
	r.POST("/ads/:ad_id/bids", handler.PlaceBid)
	r.GET("/ads/:ad_id/bids", handler.ListBids)
	r.GET("/ads/:ad_id/quick-bids", handler.QuickBids)
	r.GET("/me/bids", handler.ListMyBids)
	return r
}

func TestPlaceBidSuccess(t *testing.T) {
	auctionRepo := new(mocks.AuctionRepositoryMock)
	handler := NewBidHandler(auctionRepo, new(mocks.AdRepositoryMock), ws.NewHub(), nil)
	router := setupBidRouter(handler)

	adID := uuid.New()
	bidder := auction.Bidder{ID: "user-1", Name: "Alice"}
	res := auction.Result{
		Auction: models.Auction{AdID: adID, CurrentBid: 150, CurrentBidderID: "user-1"},
		Entry:   models.Bid{ID: uuid.New(), AdID: adID, BidderID: "user-1", Amount: 150, MaxBid: 150},
	}
	auctionRepo.On("PlaceBid", mock.Anything, adID, auction.Offer{Amount: 150, MaxBid: 0}, bidder).Return(res, nil).Once()

	body := bytes.NewBufferString(`{"amount":150}`)
	req := httptest.NewRequest(http.MethodPost, "/ads/"+adID.String()+"/bids", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Contains(t, resp, "auction")
	assert.Contains(t, resp, "bid")
	auctionRepo.AssertExpectations(t)
}

func TestPlaceBidTooLowCarriesMinimum(t *testing.T) {
	auctionRepo := new(mocks.AuctionRepositoryMock)
	handler := NewBidHandler(auctionRepo, new(mocks.AdRepositoryMock), ws.NewHub(), nil)
	router := setupBidRouter(handler)

	adID := uuid.New()
	auctionRepo.On("PlaceBid", mock.Anything, adID, auction.Offer{Amount: 120}, mock.Anything).
		Return(auction.Result{}, &auction.BidTooLowError{MinBid: 150}).Once()

	body := bytes.NewBufferString(`{"amount":120}`)
	req := httptest.NewRequest(http.MethodPost, "/ads/"+adID.String()+"/bids", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "bid_too_low", resp["reason"])
	assert.Equal(t, 150.0, resp["min_bid"])
	auctionRepo.AssertExpectations(t)
}

func TestPlaceBidRejectionStatuses(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		reason string
	}{
		{"not an auction", auction.ErrNotAnAuction, http.StatusConflict, "not_an_auction"},
		{"closed", auction.ErrAuctionClosed, http.StatusConflict, "auction_closed"},
		{"ended", auction.ErrAuctionEnded, http.StatusConflict, "auction_ended"},
		{"already highest", auction.ErrAlreadyHighestBidder, http.StatusConflict, "already_highest_bidder"},
		{"seller", auction.ErrSellerCannotBid, http.StatusForbidden, "seller_cannot_bid"},
		{"max bid too low", auction.ErrMaxBidTooLow, http.StatusBadRequest, "max_bid_too_low"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			auctionRepo := new(mocks.AuctionRepositoryMock)
			handler := NewBidHandler(auctionRepo, new(mocks.AdRepositoryMock), ws.NewHub(), nil)
			router := setupBidRouter(handler)

			adID := uuid.New()
			auctionRepo.On("PlaceBid", mock.Anything, adID, auction.Offer{Amount: 200}, mock.Anything).
				Return(auction.Result{}, tc.err).Once()

			body := bytes.NewBufferString(`{"amount":200}`)
			req := httptest.NewRequest(http.MethodPost, "/ads/"+adID.String()+"/bids", body)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			require.Equal(t, tc.status, rec.Code)
			var resp map[string]any
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, tc.reason, resp["reason"])
			auctionRepo.AssertExpectations(t)
		})
	}
}

func TestPlaceBidAutoBidCarriesCeiling(t *testing.T) {
	auctionRepo := new(mocks.AuctionRepositoryMock)
	handler := NewBidHandler(auctionRepo, new(mocks.AdRepositoryMock), ws.NewHub(), nil)
	router := setupBidRouter(handler)

	adID := uuid.New()
	offer := auction.Offer{Amount: 150, MaxBid: 500, IsAutoBid: true}
	res := auction.Result{
		Auction: models.Auction{AdID: adID, CurrentBid: 150, CurrentBidderID: "user-1"},
		Entry:   models.Bid{ID: uuid.New(), AdID: adID, BidderID: "user-1", Amount: 150, MaxBid: 500, IsAutoBid: true},
	}
	auctionRepo.On("PlaceBid", mock.Anything, adID, offer, mock.Anything).Return(res, nil).Once()

	body := bytes.NewBufferString(`{"amount":150,"max_bid":500,"is_auto_bid":true}`)
	req := httptest.NewRequest(http.MethodPost, "/ads/"+adID.String()+"/bids", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Bid models.Bid `json:"bid"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 500.0, resp.Bid.MaxBid)
	assert.True(t, resp.Bid.IsAutoBid)
	auctionRepo.AssertExpectations(t)
}

func TestPlaceBidInvalidBody(t *testing.T) {
	handler := NewBidHandler(new(mocks.AuctionRepositoryMock), new(mocks.AdRepositoryMock), ws.NewHub(), nil)
	router := setupBidRouter(handler)

	body := bytes.NewBufferString(`{"amount":0}`)
	req := httptest.NewRequest(http.MethodPost, "/ads/"+uuid.NewString()+"/bids", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPlaceBidInvalidAdID(t *testing.T) {
	handler := NewBidHandler(new(mocks.AuctionRepositoryMock), new(mocks.AdRepositoryMock), ws.NewHub(), nil)
	router := setupBidRouter(handler)

	body := bytes.NewBufferString(`{"amount":100}`)
	req := httptest.NewRequest(http.MethodPost, "/ads/not-a-uuid/bids", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListBidsSuccess(t *testing.T) {
	auctionRepo := new(mocks.AuctionRepositoryMock)
	handler := NewBidHandler(auctionRepo, new(mocks.AdRepositoryMock), ws.NewHub(), nil)
	router := setupBidRouter(handler)

	adID := uuid.New()
	auctionRepo.On("ListBids", mock.Anything, adID, defaultBidHistory).
		Return([]models.Bid{{AdID: adID, Amount: 150}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/ads/"+adID.String()+"/bids", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	auctionRepo.AssertExpectations(t)
}

func TestListMyBidsRepoError(t *testing.T) {
	auctionRepo := new(mocks.AuctionRepositoryMock)
	handler := NewBidHandler(auctionRepo, new(mocks.AdRepositoryMock), ws.NewHub(), nil)
	router := setupBidRouter(handler)

	auctionRepo.On("ListBidsByUser", mock.Anything, "user-1").
		Return(([]models.Bid)(nil), assert.AnError).Once()

	req := httptest.NewRequest(http.MethodGet, "/me/bids", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	auctionRepo.AssertExpectations(t)
}

func TestQuickBidsSuccess(t *testing.T) {
	adRepo := new(mocks.AdRepositoryMock)
	handler := NewBidHandler(new(mocks.AuctionRepositoryMock), adRepo, ws.NewHub(), nil)
	router := setupBidRouter(handler)

	adID := uuid.New()
	ad := models.Ad{
		ID:        adID,
		IsAuction: true,
		Auction: &models.Auction{
			AdID:          adID,
			StartingPrice: 100,
			BidIncrement:  50,
			EndTime:       time.Now().Add(time.Hour),
			Status:        models.AuctionActive,
		},
	}
	adRepo.On("GetAd", mock.Anything, adID).Return(ad, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/ads/"+adID.String()+"/quick-bids", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		MinBid    float64   `json:"min_bid"`
		QuickBids []float64 `json:"quick_bids"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 150.0, resp.MinBid)
	assert.Equal(t, []float64{150, 200, 250, 400}, resp.QuickBids)
	adRepo.AssertExpectations(t)
}

func TestQuickBidsNotAnAuction(t *testing.T) {
	adRepo := new(mocks.AdRepositoryMock)
	handler := NewBidHandler(new(mocks.AuctionRepositoryMock), adRepo, ws.NewHub(), nil)
	router := setupBidRouter(handler)

	adID := uuid.New()
	adRepo.On("GetAd", mock.Anything, adID).Return(models.Ad{ID: adID}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/ads/"+adID.String()+"/quick-bids", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	adRepo.AssertExpectations(t)
}
