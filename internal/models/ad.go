package models

import (
	"time"

	"github.com/google/uuid"
)

// Ad represents a posted listing. Auction data lives in a separate row and is
// attached when IsAuction is true.
type Ad struct {
	ID            uuid.UUID `db:"id" json:"id"`
	UserID        string    `db:"user_id" json:"user_id"`
	Title         string    `db:"title" json:"title"`
	Description   string    `db:"description" json:"description"`
	Category      string    `db:"category" json:"category"`
	PriceAmount   float64   `db:"price_amount" json:"price_amount"`
	PriceCurrency string    `db:"price_currency" json:"price_currency"`
	IsFree        bool      `db:"is_free" json:"is_free"`
	Location      string    `db:"location" json:"location"`
	ContactNumber string    `db:"contact_number" json:"contact_number"`
	IsAuction     bool      `db:"is_auction" json:"is_auction"`
	BidCount      int       `db:"bid_count" json:"bid_count"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`

	Images  []AdImage `db:"-" json:"images,omitempty"`
	Auction *Auction  `db:"-" json:"auction,omitempty"`
}

// AdImage is one uploaded image attached to an ad.
type AdImage struct {
	ID       int       `db:"id" json:"id"`
	AdID     uuid.UUID `db:"ad_id" json:"ad_id"`
	URL      string    `db:"url" json:"url"`
	PublicID string    `db:"public_id" json:"public_id"`
	Position int       `db:"position" json:"position"`
}

// AdEvent is broadcast through ad websocket rooms on auction changes.
type AdEvent struct {
	Type    string   `json:"type"`
	AdID    string   `json:"ad_id"`
	Auction *Auction `json:"auction,omitempty"`
	Bid     *Bid     `json:"bid,omitempty"`
}
