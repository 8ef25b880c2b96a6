package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"marketplace-service/internal/catalog"
	"marketplace-service/internal/models"
)

var ErrAdNotFound = errors.New("ad not found")

// AdRepository abstracts listing persistence.
type AdRepository interface {
	CreateAd(ctx context.Context, ad models.Ad) error
	GetAd(ctx context.Context, adID uuid.UUID) (models.Ad, error)
	ListAds(ctx context.Context, cursor catalog.Cursor, limit int) ([]models.Ad, error)
	ListAdsByUser(ctx context.Context, userID string) ([]models.Ad, error)
	UpdateAd(ctx context.Context, ad models.Ad) error
	DeleteAd(ctx context.Context, adID uuid.UUID) error
}

// AdRepo is a sqlx implementation of AdRepository.
type AdRepo struct {
	db *sqlx.DB
}

// NewAdRepo constructs an AdRepo.
func NewAdRepo(db *sqlx.DB) *AdRepo {
	return &AdRepo{db: db}
}

// CreateAd stores the ad together with its images and, for auction ads, the
// auction row, in one transaction.
func (r *AdRepo) CreateAd(ctx context.Context, ad models.Ad) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO ads
        (id, user_id, title, description, category, price_amount, price_currency, is_free, location, contact_number, is_auction, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$12)`,
		ad.ID, ad.UserID, ad.Title, ad.Description, ad.Category, ad.PriceAmount, ad.PriceCurrency,
		ad.IsFree, ad.Location, ad.ContactNumber, ad.IsAuction, ad.CreatedAt)
	if err != nil {
		return err
	}

	for i, img := range ad.Images {
		if _, err := tx.ExecContext(ctx, `INSERT INTO ad_images (ad_id, url, public_id, position) VALUES ($1,$2,$3,$4)`,
			ad.ID, img.URL, img.PublicID, i); err != nil {
			return err
		}
	}

	if ad.IsAuction && ad.Auction != nil {
		a := ad.Auction
		if _, err := tx.ExecContext(ctx, `INSERT INTO auctions
            (ad_id, starting_price, current_bid, current_bidder_id, bid_increment, end_time, status, extended)
            VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			ad.ID, a.StartingPrice, a.CurrentBid, a.CurrentBidderID, a.BidIncrement, a.EndTime, a.Status, a.Extended); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetAd fetches an ad with images and auction state attached.
func (r *AdRepo) GetAd(ctx context.Context, adID uuid.UUID) (models.Ad, error) {
	var ad models.Ad
	err := r.db.GetContext(ctx, &ad, `SELECT id, user_id, title, description, category, price_amount, price_currency,
        is_free, location, contact_number, is_auction, bid_count, created_at, updated_at FROM ads WHERE id=$1`, adID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Ad{}, ErrAdNotFound
	}
	if err != nil {
		return models.Ad{}, err
	}
	if err := r.attachDetails(ctx, &ad); err != nil {
		return models.Ad{}, err
	}
	return ad, nil
}

// ListAds returns a page of ads newest first, starting after the cursor.
func (r *AdRepo) ListAds(ctx context.Context, cursor catalog.Cursor, limit int) ([]models.Ad, error) {
	var (
		rows *sqlx.Rows
		err  error
	)
	base := `SELECT id, user_id, title, description, category, price_amount, price_currency,
        is_free, location, contact_number, is_auction, bid_count, created_at, updated_at FROM ads`
	if cursor.IsZero() {
		rows, err = r.db.QueryxContext(ctx, base+` ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	} else {
		rows, err = r.db.QueryxContext(ctx, base+` WHERE (created_at, id) < ($1, $2)
            ORDER BY created_at DESC, id DESC LIMIT $3`, cursor.CreatedAt, cursor.ID, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanAds(ctx, rows)
}

// ListAdsByUser returns every ad posted by the user, newest first.
func (r *AdRepo) ListAdsByUser(ctx context.Context, userID string) ([]models.Ad, error) {
	rows, err := r.db.QueryxContext(ctx, `SELECT id, user_id, title, description, category, price_amount, price_currency,
        is_free, location, contact_number, is_auction, bid_count, created_at, updated_at
        FROM ads WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanAds(ctx, rows)
}

// UpdateAd rewrites the mutable listing fields and replaces images when any
// are supplied.
func (r *AdRepo) UpdateAd(ctx context.Context, ad models.Ad) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE ads SET title=$1, description=$2, category=$3, price_amount=$4,
        price_currency=$5, is_free=$6, location=$7, contact_number=$8, updated_at=$9 WHERE id=$10`,
		ad.Title, ad.Description, ad.Category, ad.PriceAmount, ad.PriceCurrency,
		ad.IsFree, ad.Location, ad.ContactNumber, time.Now(), ad.ID)
	if err != nil {
		return err
	}
	if count, err := res.RowsAffected(); err == nil && count == 0 {
		return ErrAdNotFound
	}

	if len(ad.Images) > 0 {
		if _, err := tx.ExecContext(ctx, `DELETE FROM ad_images WHERE ad_id=$1`, ad.ID); err != nil {
			return err
		}
		for i, img := range ad.Images {
			if _, err := tx.ExecContext(ctx, `INSERT INTO ad_images (ad_id, url, public_id, position) VALUES ($1,$2,$3,$4)`,
				ad.ID, img.URL, img.PublicID, i); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// DeleteAd removes the ad row; dependent rows go with it.
func (r *AdRepo) DeleteAd(ctx context.Context, adID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM ads WHERE id=$1`, adID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrAdNotFound
	}
	return nil
}

func (r *AdRepo) scanAds(ctx context.Context, rows *sqlx.Rows) ([]models.Ad, error) {
	var ads []models.Ad
	for rows.Next() {
		var ad models.Ad
		if err := rows.StructScan(&ad); err != nil {
			return nil, err
		}
		ads = append(ads, ad)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range ads {
		if err := r.attachDetails(ctx, &ads[i]); err != nil {
			return nil, err
		}
	}
	return ads, nil
}

func (r *AdRepo) attachDetails(ctx context.Context, ad *models.Ad) error {
	var images []models.AdImage
	if err := r.db.SelectContext(ctx, &images,
		`SELECT id, ad_id, url, public_id, position FROM ad_images WHERE ad_id=$1 ORDER BY position ASC`, ad.ID); err != nil {
		return err
	}
	ad.Images = images

	if !ad.IsAuction {
		return nil
	}
	var a models.Auction
	err := r.db.GetContext(ctx, &a, `SELECT ad_id, starting_price, current_bid, current_bidder_id,
        bid_increment, end_time, status, extended FROM auctions WHERE ad_id=$1`, ad.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}
	ad.Auction = &a
	return nil
}
