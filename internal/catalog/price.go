// Package catalog implements client-facing listing transforms: price
// canonicalization, filtering, sorting and pagination cursors.
package catalog

import (
	"strconv"
	"strings"

	"marketplace-service/internal/models"
)

// Price is the canonical price representation. Legacy inputs (the word
// "free", currency symbols, thousand separators) are adapted here and
// nowhere else.
type Price struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	Free     bool    `json:"free"`
}

// ParsePrice converts a raw user-entered price string into canonical form.
// Empty and "free" inputs yield a free price; otherwise every non-numeric
// character is stripped before parsing. Unparseable input is treated as free.
func ParsePrice(raw, currency string) Price {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" || s == "free" {
		return Price{Free: true, Currency: currency}
	}

	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	amount, err := strconv.ParseFloat(b.String(), 64)
	if err != nil || amount == 0 {
		return Price{Free: true, Currency: currency}
	}
	return Price{Amount: amount, Currency: currency}
}

// ListingPrice derives the effective numeric price of an ad for sorting and
// the free filter. Auction ads are priced at the current bid, falling back to
// the starting price before any bid lands.
func ListingPrice(ad models.Ad) float64 {
	if ad.IsAuction && ad.Auction != nil {
		if ad.Auction.CurrentBid > 0 {
			return ad.Auction.CurrentBid
		}
		return ad.Auction.StartingPrice
	}
	if ad.IsFree {
		return 0
	}
	return ad.PriceAmount
}
