package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"marketplace-service/internal/auction"
	"marketplace-service/internal/models"
)

// AuctionRepository applies bids and serves bid history.
type AuctionRepository interface {
	PlaceBid(ctx context.Context, adID uuid.UUID, offer auction.Offer, bidder auction.Bidder) (auction.Result, error)
	ListBids(ctx context.Context, adID uuid.UUID, limit int) ([]models.Bid, error)
	ListBidsByUser(ctx context.Context, bidderID string) ([]models.Bid, error)
}

// AuctionRepo is a sqlx implementation of AuctionRepository.
type AuctionRepo struct {
	db *sqlx.DB
}

// NewAuctionRepo constructs an AuctionRepo.
func NewAuctionRepo(db *sqlx.DB) *AuctionRepo {
	return &AuctionRepo{db: db}
}

// PlaceBid evaluates and applies a bid inside one transaction. The auction row
// is locked for the duration so concurrent bidders serialize instead of
// overwriting each other.
func (r *AuctionRepo) PlaceBid(ctx context.Context, adID uuid.UUID, offer auction.Offer, bidder auction.Bidder) (auction.Result, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return auction.Result{}, err
	}
	defer tx.Rollback()

	var ad models.Ad
	err = tx.GetContext(ctx, &ad, `SELECT id, user_id, title, is_auction, bid_count FROM ads WHERE id=$1`, adID)
	if errors.Is(err, sql.ErrNoRows) {
		return auction.Result{}, ErrAdNotFound
	}
	if err != nil {
		return auction.Result{}, err
	}

	var a models.Auction
	err = tx.GetContext(ctx, &a, `SELECT ad_id, starting_price, current_bid, current_bidder_id,
        bid_increment, end_time, status, extended FROM auctions WHERE ad_id=$1 FOR UPDATE`, adID)
	if err == nil {
		ad.Auction = &a
	} else if !errors.Is(err, sql.ErrNoRows) {
		return auction.Result{}, err
	}

	res, err := auction.Evaluate(ad, offer, bidder, time.Now())
	if err != nil {
		return auction.Result{}, err
	}

	if _, err := tx.ExecContext(ctx, `UPDATE auctions SET current_bid=$1, current_bidder_id=$2,
        end_time=$3, extended=$4 WHERE ad_id=$5`,
		res.Auction.CurrentBid, res.Auction.CurrentBidderID, res.Auction.EndTime, res.Auction.Extended, adID); err != nil {
		return auction.Result{}, err
	}

	if _, err := tx.ExecContext(ctx, `UPDATE ads SET bid_count = bid_count + 1, updated_at=NOW() WHERE id=$1`, adID); err != nil {
		return auction.Result{}, err
	}

	e := res.Entry
	if _, err := tx.ExecContext(ctx, `INSERT INTO bids (id, ad_id, bidder_id, bidder_name, amount, max_bid, is_auto_bid, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`, e.ID, e.AdID, e.BidderID, e.BidderName, e.Amount, e.MaxBid, e.IsAutoBid, e.CreatedAt); err != nil {
		return auction.Result{}, err
	}

	if err := tx.Commit(); err != nil {
		return auction.Result{}, err
	}
	return res, nil
}

// ListBids returns the most recent bids for an ad, newest first.
func (r *AuctionRepo) ListBids(ctx context.Context, adID uuid.UUID, limit int) ([]models.Bid, error) {
	var bids []models.Bid
	err := r.db.SelectContext(ctx, &bids, `SELECT id, ad_id, bidder_id, bidder_name, amount, max_bid, is_auto_bid, created_at
        FROM bids WHERE ad_id=$1 ORDER BY created_at DESC LIMIT $2`, adID, limit)
	return bids, err
}

// ListBidsByUser returns every bid the user has placed, newest first.
func (r *AuctionRepo) ListBidsByUser(ctx context.Context, bidderID string) ([]models.Bid, error) {
	var bids []models.Bid
	err := r.db.SelectContext(ctx, &bids, `SELECT id, ad_id, bidder_id, bidder_name, amount, max_bid, is_auto_bid, created_at
        FROM bids WHERE bidder_id=$1 ORDER BY created_at DESC`, bidderID)
	return bids, err
}
