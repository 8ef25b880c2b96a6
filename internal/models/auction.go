package models

import (
	"time"

	"github.com/google/uuid"
)

// Auction statuses.
const (
	AuctionActive = "active"
	AuctionClosed = "closed"
)

// Auction holds the bidding state attached to an auction ad.
type Auction struct {
	AdID            uuid.UUID `db:"ad_id" json:"ad_id"`
	StartingPrice   float64   `db:"starting_price" json:"starting_price"`
	CurrentBid      float64   `db:"current_bid" json:"current_bid"`
	CurrentBidderID string    `db:"current_bidder_id" json:"current_bidder_id"`
	BidIncrement    float64   `db:"bid_increment" json:"bid_increment"`
	EndTime         time.Time `db:"end_time" json:"end_time"`
	Status          string    `db:"status" json:"status"`
	Extended        bool      `db:"extended" json:"extended"`
}

// Bid is one entry of an auction's bidder history. It mirrors the accepted
// amount; the auction row remains the source of truth for current-bid state.
type Bid struct {
	ID         uuid.UUID `db:"id" json:"id"`
	AdID       uuid.UUID `db:"ad_id" json:"ad_id"`
	BidderID   string    `db:"bidder_id" json:"bidder_id"`
	BidderName string    `db:"bidder_name" json:"bidder_name"`
	Amount     float64   `db:"amount" json:"amount"`
	MaxBid     float64   `db:"max_bid" json:"max_bid"`
	IsAutoBid  bool      `db:"is_auto_bid" json:"is_auto_bid"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
