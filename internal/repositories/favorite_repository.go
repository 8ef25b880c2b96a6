package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// FavoriteRepository tracks the per-ad set of users who favorited it.
type FavoriteRepository interface {
	AddFavorite(ctx context.Context, adID uuid.UUID, userID string) error
	RemoveFavorite(ctx context.Context, adID uuid.UUID, userID string) error
	ListFavorites(ctx context.Context, userID string) ([]uuid.UUID, error)
	IsFavorite(ctx context.Context, adID uuid.UUID, userID string) (bool, error)
	DeleteForAd(ctx context.Context, adID uuid.UUID) error
}

// FavoriteRepo is a sqlx implementation of FavoriteRepository.
type FavoriteRepo struct {
	db *sqlx.DB
}

// NewFavoriteRepo constructs a FavoriteRepo.
func NewFavoriteRepo(db *sqlx.DB) *FavoriteRepo {
	return &FavoriteRepo{db: db}
}

// AddFavorite records the user's favorite; re-favoriting is a no-op.
func (r *FavoriteRepo) AddFavorite(ctx context.Context, adID uuid.UUID, userID string) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO favorites (ad_id, user_id) VALUES ($1,$2)
        ON CONFLICT (ad_id, user_id) DO NOTHING`, adID, userID)
	return err
}

// RemoveFavorite drops the user's favorite.
func (r *FavoriteRepo) RemoveFavorite(ctx context.Context, adID uuid.UUID, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM favorites WHERE ad_id=$1 AND user_id=$2`, adID, userID)
	return err
}

// ListFavorites returns the ads the user favorited, newest favorite first.
func (r *FavoriteRepo) ListFavorites(ctx context.Context, userID string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.SelectContext(ctx, &ids, `SELECT ad_id FROM favorites WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	return ids, err
}

// IsFavorite reports whether the user favorited the ad.
func (r *FavoriteRepo) IsFavorite(ctx context.Context, adID uuid.UUID, userID string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM favorites WHERE ad_id=$1 AND user_id=$2)`, adID, userID)
	return exists, err
}

// DeleteForAd removes every favorite of an ad.
func (r *FavoriteRepo) DeleteForAd(ctx context.Context, adID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM favorites WHERE ad_id=$1`, adID)
	return err
}
