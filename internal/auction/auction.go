// Package auction implements the bid validation and application rules for
// auction ads. Evaluation is pure; callers persist the resulting state.
package auction

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"marketplace-service/internal/models"
)

// ExtensionWindow is the anti-snipe window: a bid accepted with less than this
// much time remaining pushes the deadline out to now + ExtensionWindow.
const ExtensionWindow = 5 * time.Minute

var (
	ErrNotAnAuction         = errors.New("ad is not an auction")
	ErrAuctionClosed        = errors.New("auction is no longer active")
	ErrAuctionEnded         = errors.New("auction has already ended")
	ErrMaxBidTooLow         = errors.New("maximum bid must be at least the bid amount")
	ErrAlreadyHighestBidder = errors.New("bidder already holds the highest bid")
	ErrSellerCannotBid      = errors.New("seller cannot bid on own auction")
)

// BidTooLowError reports the minimum acceptable amount alongside the rejection.
type BidTooLowError struct {
	MinBid float64
}

func (e *BidTooLowError) Error() string {
	return fmt.Sprintf("bid too low, minimum is %.2f", e.MinBid)
}

// Bidder identifies who is placing a bid.
type Bidder struct {
	ID   string
	Name string
}

// Offer is one proposed bid. With auto bidding enabled MaxBid is the bidder's
// ceiling; otherwise the recorded ceiling is the amount itself.
type Offer struct {
	Amount    float64
	MaxBid    float64
	IsAutoBid bool
}

// Result is the state an accepted bid produces.
type Result struct {
	Auction models.Auction
	Entry   models.Bid
}

// MinBid returns the lowest acceptable amount for the auction's current state.
func MinBid(a models.Auction) float64 {
	base := a.CurrentBid
	if a.StartingPrice > base {
		base = a.StartingPrice
	}
	return base + a.BidIncrement
}

// QuickBids suggests convenient amounts starting from the current minimum.
func QuickBids(a models.Auction) []float64 {
	min := MinBid(a)
	inc := a.BidIncrement
	return []float64{min, min + inc, min + 2*inc, min + 5*inc}
}

// Evaluate applies the bidding rules in order and, on acceptance, returns the
// updated auction state together with the history entry to append. The input
// auction is not mutated.
func Evaluate(ad models.Ad, offer Offer, bidder Bidder, now time.Time) (Result, error) {
	if !ad.IsAuction || ad.Auction == nil {
		return Result{}, ErrNotAnAuction
	}
	a := *ad.Auction

	if min := MinBid(a); offer.Amount < min {
		return Result{}, &BidTooLowError{MinBid: min}
	}
	if a.Status != models.AuctionActive {
		return Result{}, ErrAuctionClosed
	}
	if !a.EndTime.After(now) {
		return Result{}, ErrAuctionEnded
	}
	if offer.IsAutoBid && offer.MaxBid < offer.Amount {
		return Result{}, ErrMaxBidTooLow
	}
	if bidder.ID == a.CurrentBidderID {
		return Result{}, ErrAlreadyHighestBidder
	}
	if bidder.ID == ad.UserID {
		return Result{}, ErrSellerCannotBid
	}

	a.CurrentBid = offer.Amount
	a.CurrentBidderID = bidder.ID
	if a.EndTime.Sub(now) <= ExtensionWindow {
		a.EndTime = now.Add(ExtensionWindow)
		a.Extended = true
	}

	maxBid := offer.Amount
	if offer.IsAutoBid {
		maxBid = offer.MaxBid
	}
	return Result{
		Auction: a,
		Entry: models.Bid{
			ID:         uuid.New(),
			AdID:       ad.ID,
			BidderID:   bidder.ID,
			BidderName: bidder.Name,
			Amount:     offer.Amount,
			MaxBid:     maxBid,
			IsAutoBid:  offer.IsAutoBid,
			CreatedAt:  now,
		},
	}, nil
}
