package db

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
)

var Conn *pgxpool.Pool

// Init connects to Postgres
func Init() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = fmt.Sprintf(
			"postgres://%s:%s@%s:%s/%s",
			os.Getenv("DB_USER"),
			os.Getenv("DB_PASSWORD"),
			os.Getenv("DB_HOST"),
			os.Getenv("DB_PORT"),
			os.Getenv("DB_NAME"),
		)
	}

	var err error
	Conn, err = pgxpool.New(context.Background(), dsn)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v\n", err)
	}

	if err = Conn.Ping(context.Background()); err != nil {
		log.Fatalf("Unable to ping database: %v\n", err)
	}

	log.Println("Connected to Postgres successfully")

	ensureUsersTable()
	ensureListingsTable()
	ensureTransactionsTable()
	ensureReviewsTable()
	ensureNotificationsTable()
}

// ensureUsersTable creates the users table with the reputation columns
func ensureUsersTable() {
	ctx := context.Background()
	_, err := Conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'student',
			phone TEXT NOT NULL DEFAULT '',
			hostel TEXT NOT NULL DEFAULT '',
			profile_picture TEXT NOT NULL DEFAULT '',
			trust_score DOUBLE PRECISION NOT NULL DEFAULT 50 CHECK (trust_score >= 0 AND trust_score <= 500),
			total_ratings_received INTEGER NOT NULL DEFAULT 0,
			total_transactions INTEGER NOT NULL DEFAULT 0,
			successful_transactions INTEGER NOT NULL DEFAULT 0,
			is_banned BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		log.Printf("failed to ensure users table: %v", err)
	}
}

// ensureListingsTable creates listings with the all-or-nothing reservation fields
func ensureListingsTable() {
	ctx := context.Background()
	_, err := Conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS listings (
			id UUID PRIMARY KEY,
			seller_id UUID NOT NULL REFERENCES users(id),
			title TEXT NOT NULL,
			description TEXT NOT NULL,
			price BIGINT NOT NULL CHECK (price >= 0),
			category TEXT NOT NULL,
			condition TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'Available'
				CHECK (status IN ('Available', 'Reserved', 'Completed', 'Disputed', 'Removed')),
			reserved_by UUID NULL REFERENCES users(id),
			reserved_at TIMESTAMP WITH TIME ZONE NULL,
			reservation_expires_at TIMESTAMP WITH TIME ZONE NULL,
			images JSONB NOT NULL DEFAULT '[]',
			views INTEGER NOT NULL DEFAULT 0,
			is_negotiable BOOLEAN NOT NULL DEFAULT FALSE,
			tags TEXT[] NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_listings_category_status ON listings(category, status);
		CREATE INDEX IF NOT EXISTS idx_listings_seller ON listings(seller_id);
		CREATE INDEX IF NOT EXISTS idx_listings_price ON listings(price);
	`)
	if err != nil {
		log.Printf("failed to ensure listings table: %v", err)
	}
}

// ensureTransactionsTable creates the escrow transaction records
func ensureTransactionsTable() {
	ctx := context.Background()
	_, err := Conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS transactions (
			id UUID PRIMARY KEY,
			listing_id UUID NOT NULL REFERENCES listings(id),
			buyer_id UUID NOT NULL REFERENCES users(id),
			seller_id UUID NOT NULL REFERENCES users(id),
			agreed_price BIGINT NOT NULL CHECK (agreed_price >= 0),
			status TEXT NOT NULL DEFAULT 'Reserved'
				CHECK (status IN ('Reserved', 'Completed', 'Disputed', 'Cancelled', 'Expired')),
			buyer_confirmed BOOLEAN NOT NULL DEFAULT FALSE,
			seller_confirmed BOOLEAN NOT NULL DEFAULT FALSE,
			buyer_confirmed_at TIMESTAMP WITH TIME ZONE NULL,
			seller_confirmed_at TIMESTAMP WITH TIME ZONE NULL,
			dispute_raised_by UUID NULL REFERENCES users(id),
			dispute_reason TEXT NOT NULL DEFAULT '',
			dispute_raised_at TIMESTAMP WITH TIME ZONE NULL,
			dispute_resolution TEXT NOT NULL DEFAULT '',
			dispute_resolved_at TIMESTAMP WITH TIME ZONE NULL,
			meeting_location TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			expires_at TIMESTAMP WITH TIME ZONE NOT NULL,
			completed_at TIMESTAMP WITH TIME ZONE NULL,
			cancelled_at TIMESTAMP WITH TIME ZONE NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
			CHECK (buyer_id <> seller_id)
		);
		CREATE INDEX IF NOT EXISTS idx_transactions_buyer ON transactions(buyer_id);
		CREATE INDEX IF NOT EXISTS idx_transactions_seller ON transactions(seller_id);
		CREATE INDEX IF NOT EXISTS idx_transactions_listing ON transactions(listing_id);
		CREATE INDEX IF NOT EXISTS idx_transactions_status_expiry ON transactions(status, expires_at);
	`)
	if err != nil {
		log.Printf("failed to ensure transactions table: %v", err)
	}
}

// ensureReviewsTable creates reviews with the one-review-per-participant rule
func ensureReviewsTable() {
	ctx := context.Background()
	_, err := Conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS reviews (
			id UUID PRIMARY KEY,
			transaction_id UUID NOT NULL REFERENCES transactions(id),
			reviewer_id UUID NOT NULL REFERENCES users(id),
			reviewee_id UUID NOT NULL REFERENCES users(id),
			rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
			comment TEXT NOT NULL DEFAULT '',
			reviewer_role TEXT NOT NULL CHECK (reviewer_role IN ('buyer', 'seller')),
			created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_reviews_transaction_reviewer
			ON reviews(transaction_id, reviewer_id);
		CREATE INDEX IF NOT EXISTS idx_reviews_reviewee ON reviews(reviewee_id);
	`)
	if err != nil {
		log.Printf("failed to ensure reviews table: %v", err)
	}
}

// ensureNotificationsTable creates notifications table if it doesn't exist
func ensureNotificationsTable() {
	ctx := context.Background()
	_, err := Conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS notifications (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			type TEXT NOT NULL,
			title TEXT NOT NULL,
			body TEXT,
			reference UUID NULL,
			metadata JSONB NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
			read_at TIMESTAMP WITH TIME ZONE NULL
		);
		CREATE INDEX IF NOT EXISTS idx_notifications_user_created ON notifications(user_id, created_at);
		CREATE INDEX IF NOT EXISTS idx_notifications_user_unread ON notifications(user_id) WHERE read_at IS NULL;
	`)
	if err != nil {
		log.Printf("failed to create notifications table: %v", err)
	}
}
