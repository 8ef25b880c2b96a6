package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"marketplace-service/internal/models"
)

var ErrUserNotFound = errors.New("user not found")

// UserRepository abstracts profile and presence persistence.
type UserRepository interface {
	UpsertUser(ctx context.Context, user models.User) error
	GetUser(ctx context.Context, userID string) (models.User, error)
	GetUsers(ctx context.Context, userIDs []string) ([]models.User, error)
	SetOnline(ctx context.Context, userID string, online bool) error
}

// UserRepo is a sqlx implementation of UserRepository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = `id, display_name, email, photo_url, about, instagram, facebook, interests, online, created_at`

// UpsertUser creates or updates the profile row for the authenticated user.
func (r *UserRepo) UpsertUser(ctx context.Context, user models.User) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO users (id, display_name, email, photo_url, about, instagram, facebook, interests)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        ON CONFLICT (id) DO UPDATE SET display_name=EXCLUDED.display_name, email=EXCLUDED.email,
            photo_url=EXCLUDED.photo_url, about=EXCLUDED.about, instagram=EXCLUDED.instagram,
            facebook=EXCLUDED.facebook, interests=EXCLUDED.interests`,
		user.ID, user.DisplayName, user.Email, user.PhotoURL, user.About,
		user.Instagram, user.Facebook, user.Interests)
	return err
}

// GetUser fetches one profile.
func (r *UserRepo) GetUser(ctx context.Context, userID string) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// GetUsers fetches profiles in bulk; missing ids are simply absent from the
// result.
func (r *UserRepo) GetUsers(ctx context.Context, userIDs []string) ([]models.User, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var users []models.User
	err := r.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users WHERE id = ANY($1)`, pq.Array(userIDs))
	return users, err
}

// SetOnline flips the presence flag.
func (r *UserRepo) SetOnline(ctx context.Context, userID string, online bool) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET online=$1 WHERE id=$2`, online, userID)
	return err
}
