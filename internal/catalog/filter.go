package catalog

import (
	"encoding/base64"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"marketplace-service/internal/models"
)

// Price sort modes accepted from the client.
const (
	SortFree      = "free"
	SortLowToHigh = "lowtohigh"
	SortHighToLow = "hightolow"
)

// FilterCategory keeps ads matching the category exactly. An empty category
// keeps everything.
func FilterCategory(ads []models.Ad, category string) []models.Ad {
	if category == "" {
		return ads
	}
	out := make([]models.Ad, 0, len(ads))
	for _, ad := range ads {
		if ad.Category == category {
			out = append(out, ad)
		}
	}
	return out
}

// SearchTitle keeps ads whose title contains the query, case-insensitively.
func SearchTitle(ads []models.Ad, query string) []models.Ad {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return ads
	}
	out := make([]models.Ad, 0, len(ads))
	for _, ad := range ads {
		if strings.Contains(strings.ToLower(ad.Title), q) {
			out = append(out, ad)
		}
	}
	return out
}

// ApplyPriceSort filters or orders ads by their derived price. Unknown modes
// leave the slice untouched.
func ApplyPriceSort(ads []models.Ad, mode string) []models.Ad {
	switch mode {
	case SortFree:
		out := make([]models.Ad, 0, len(ads))
		for _, ad := range ads {
			if ListingPrice(ad) == 0 {
				out = append(out, ad)
			}
		}
		return out
	case SortLowToHigh:
		sort.SliceStable(ads, func(i, j int) bool {
			return ListingPrice(ads[i]) < ListingPrice(ads[j])
		})
	case SortHighToLow:
		sort.SliceStable(ads, func(i, j int) bool {
			return ListingPrice(ads[i]) > ListingPrice(ads[j])
		})
	}
	return ads
}

// MatchesInterests reports whether the ad's category overlaps the user's
// interest tags, case-insensitively.
func MatchesInterests(ad models.Ad, interests []string) bool {
	cat := strings.ToLower(ad.Category)
	for _, interest := range interests {
		if strings.Contains(cat, strings.ToLower(interest)) {
			return true
		}
	}
	return false
}

// Cursor is an opaque keyset position over (created_at, id).
type Cursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// Encode serializes the cursor for the client.
func (c Cursor) Encode() string {
	raw := fmt.Sprintf("%s|%s", c.CreatedAt.UTC().Format(time.RFC3339Nano), c.ID)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses a client-provided cursor. An empty string yields a zero
// cursor meaning "from the top".
func DecodeCursor(s string) (Cursor, error) {
	if s == "" {
		return Cursor{}, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return Cursor{}, fmt.Errorf("decode cursor: %w", err)
	}
	parts := strings.SplitN(string(raw), "|", 2)
	if len(parts) != 2 {
		return Cursor{}, fmt.Errorf("malformed cursor")
	}
	ts, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return Cursor{}, fmt.Errorf("decode cursor time: %w", err)
	}
	id, err := uuid.Parse(parts[1])
	if err != nil {
		return Cursor{}, fmt.Errorf("decode cursor id: %w", err)
	}
	return Cursor{CreatedAt: ts, ID: id}, nil
}

// IsZero reports whether the cursor points at the top of the feed.
func (c Cursor) IsZero() bool {
	return c.CreatedAt.IsZero()
}
