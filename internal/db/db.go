package db

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	log "github.com/sirupsen/logrus"
)

// Connect initializes the database connection and runs migrations.
func Connect(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return db, nil
}

func runMigrations(db *sqlx.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id TEXT PRIMARY KEY,
            display_name TEXT NOT NULL DEFAULT '',
            email TEXT NOT NULL DEFAULT '',
            photo_url TEXT NOT NULL DEFAULT '',
            about TEXT NOT NULL DEFAULT '',
            instagram TEXT NOT NULL DEFAULT '',
            facebook TEXT NOT NULL DEFAULT '',
            interests TEXT[] NOT NULL DEFAULT '{}',
            online BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE TABLE IF NOT EXISTS ads (
            id UUID PRIMARY KEY,
            user_id TEXT NOT NULL REFERENCES users(id),
            title TEXT NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            category TEXT NOT NULL DEFAULT '',
            price_amount NUMERIC NOT NULL DEFAULT 0,
            price_currency TEXT NOT NULL DEFAULT 'BDT',
            is_free BOOLEAN NOT NULL DEFAULT FALSE,
            location TEXT NOT NULL DEFAULT '',
            contact_number TEXT NOT NULL DEFAULT '',
            is_auction BOOLEAN NOT NULL DEFAULT FALSE,
            bid_count INT NOT NULL DEFAULT 0,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE INDEX IF NOT EXISTS idx_ads_feed ON ads (created_at DESC, id DESC);`,
		`CREATE TABLE IF NOT EXISTS ad_images (
            id SERIAL PRIMARY KEY,
            ad_id UUID NOT NULL REFERENCES ads(id) ON DELETE CASCADE,
            url TEXT NOT NULL,
            public_id TEXT NOT NULL DEFAULT '',
            position INT NOT NULL DEFAULT 0
        );`,
		`CREATE TABLE IF NOT EXISTS auctions (
            ad_id UUID PRIMARY KEY REFERENCES ads(id) ON DELETE CASCADE,
            starting_price NUMERIC NOT NULL DEFAULT 0,
            current_bid NUMERIC NOT NULL DEFAULT 0,
            current_bidder_id TEXT NOT NULL DEFAULT '',
            bid_increment NUMERIC NOT NULL DEFAULT 1,
            end_time TIMESTAMPTZ NOT NULL,
            status TEXT NOT NULL DEFAULT 'active',
            extended BOOLEAN NOT NULL DEFAULT FALSE
        );`,
		`CREATE TABLE IF NOT EXISTS bids (
            id UUID PRIMARY KEY,
            ad_id UUID NOT NULL REFERENCES ads(id) ON DELETE CASCADE,
            bidder_id TEXT NOT NULL,
            bidder_name TEXT NOT NULL DEFAULT '',
            amount NUMERIC NOT NULL,
            max_bid NUMERIC NOT NULL DEFAULT 0,
            is_auto_bid BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE INDEX IF NOT EXISTS idx_bids_ad ON bids (ad_id, created_at DESC);`,
		`CREATE TABLE IF NOT EXISTS conversations (
            id SERIAL PRIMARY KEY,
            ad_id UUID NOT NULL REFERENCES ads(id) ON DELETE CASCADE,
            user1_id TEXT NOT NULL,
            user2_id TEXT NOT NULL,
            last_message TEXT NOT NULL DEFAULT '',
            last_sender TEXT NOT NULL DEFAULT '',
            last_unread BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            UNIQUE(ad_id, user1_id, user2_id)
        );`,
		`CREATE TABLE IF NOT EXISTS messages (
            id SERIAL PRIMARY KEY,
            conversation_id INT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
            sender_id TEXT NOT NULL,
            text TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE TABLE IF NOT EXISTS favorites (
            ad_id UUID NOT NULL REFERENCES ads(id) ON DELETE CASCADE,
            user_id TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            PRIMARY KEY(ad_id, user_id)
        );`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}
	log.Info("database migrations applied")
	return nil
}
