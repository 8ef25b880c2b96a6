package models

import (
	"time"

	"github.com/lib/pq"
)

// User is a marketplace profile. The id comes from the auth token subject.
type User struct {
	ID          string         `db:"id" json:"id"`
	DisplayName string         `db:"display_name" json:"display_name"`
	Email       string         `db:"email" json:"email"`
	PhotoURL    string         `db:"photo_url" json:"photo_url"`
	About       string         `db:"about" json:"about"`
	Instagram   string         `db:"instagram" json:"instagram"`
	Facebook    string         `db:"facebook" json:"facebook"`
	Interests   pq.StringArray `db:"interests" json:"interests"`
	Online      bool           `db:"online" json:"online"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
}
