package market

import (
	"context"
	"time"
)

// ListingEdit is the allow-listed set of content fields a seller may change
// while a listing is Available. Nil pointers leave the field untouched.
type ListingEdit struct {
	Title        *string
	Description  *string
	Price        *int64
	Category     *string
	Condition    *string
	IsNegotiable *bool
	Tags         []string
}

// ListingQuery filters and paginates the listing catalogue.
type ListingQuery struct {
	Search    string
	Category  string
	Condition string
	MinPrice  *int64
	MaxPrice  *int64
	SellerID  string
	Status    ListingStatus
	Page      int
	Limit     int
	SortDesc  bool // newest first when true
}

// TransactionFilter selects a user's transactions by role and status.
type TransactionFilter struct {
	UserID string
	Role   string // "buyer", "seller" or "all"
	Status TransactionStatus
}

// RoleStats aggregates one side of a user's transaction history.
type RoleStats struct {
	Total     int   `json:"total"`
	Reserved  int   `json:"reserved"`
	Completed int   `json:"completed"`
	Cancelled int   `json:"cancelled"`
	Disputed  int   `json:"disputed"`
	Turnover  int64 `json:"turnover"` // sum of agreed prices on completed transactions
}

// DashboardStats backs the dashboard summary cards.
type DashboardStats struct {
	TotalTransactions int       `json:"total_transactions"`
	AsBuyer           RoleStats `json:"as_buyer"`
	AsSeller          RoleStats `json:"as_seller"`
	TrustScore        float64   `json:"trust_score"`
}

// Store is the persistence contract the escrow engine runs on. Transition
// methods are conditional single-record updates: they succeed only when the
// record is still in the required state, and return a Conflict error
// otherwise. That conditional discipline — not in-process locking — is what
// keeps per-record transitions linearizable across distributed callers.
type Store interface {
	// Listings.
	CreateListing(ctx context.Context, l Listing) (Listing, error)
	GetListing(ctx context.Context, id string) (Listing, error)
	ListListings(ctx context.Context, q ListingQuery) ([]Listing, int, error)
	// UpdateListing applies edits only while the listing is Available.
	UpdateListing(ctx context.Context, id string, edit ListingEdit) (Listing, error)
	AddListingImages(ctx context.Context, id string, images []Image) (Listing, error)
	IncrementListingViews(ctx context.Context, id string) error
	// LockListing reserves an Available listing for a buyer. It is the
	// serialization point between competing buyers: a single conditional
	// update that fails with Conflict once the status has changed.
	LockListing(ctx context.Context, id, buyerID string, at, expiresAt time.Time) (Listing, error)
	// ReleaseListing returns a Reserved listing to Available, clearing all
	// reservation fields.
	ReleaseListing(ctx context.Context, id string) (Listing, error)
	// FinalizeListing moves a Reserved listing to Completed or Disputed.
	// Disputed clears the reservation fields; Completed keeps them as the
	// implicit record of who bought the item.
	FinalizeListing(ctx context.Context, id string, outcome ListingStatus) (Listing, error)
	// RemoveListing soft-deletes a listing that is not currently Reserved.
	RemoveListing(ctx context.Context, id string) (Listing, error)
	// RelistListing returns a Disputed listing to Available after an admin
	// resolution.
	RelistListing(ctx context.Context, id string) (Listing, error)

	// Transactions.
	CreateTransaction(ctx context.Context, t Transaction) (Transaction, error)
	GetTransaction(ctx context.Context, id string) (Transaction, error)
	ListTransactions(ctx context.Context, f TransactionFilter) ([]Transaction, error)
	ListOverdueReserved(ctx context.Context, cutoff time.Time, limit int) ([]Transaction, error)
	// SetConfirmation records one side's confirmation on a Reserved
	// transaction. Idempotent per role: a repeated call keeps the original
	// timestamp.
	SetConfirmation(ctx context.Context, id string, role Role, at time.Time) (Transaction, error)
	// CompleteTransaction promotes a Reserved transaction with both flags
	// set to Completed. The boolean reports whether this call won the
	// transition; under racing confirms exactly one caller sees true.
	CompleteTransaction(ctx context.Context, id string, at time.Time) (Transaction, bool, error)
	MarkDisputed(ctx context.Context, id, raisedBy, reason string, at time.Time) (Transaction, error)
	MarkCancelled(ctx context.Context, id string, at time.Time) (Transaction, error)
	MarkExpired(ctx context.Context, id string, at time.Time) (Transaction, error)
	ResolveDispute(ctx context.Context, id, resolution string, at time.Time) (Transaction, error)
	DashboardStats(ctx context.Context, userID string) (DashboardStats, error)

	// Users. Trust/counter writes are atomic increment-and-clamp expressions
	// at the store, never read-modify-write in application code.
	GetUser(ctx context.Context, id string) (User, error)
	ApplyCompletionBonus(ctx context.Context, userID string, bonus float64) error
	ApplyTrustPenalty(ctx context.Context, userID string, penalty float64) error
	ApplyReviewRating(ctx context.Context, userID string, rating int) (User, error)

	// Reviews.
	CreateReview(ctx context.Context, r Review) (Review, error)
	HasReviewed(ctx context.Context, transactionID, reviewerID string) (bool, error)
	ListReviewsForUser(ctx context.Context, userID string, page, limit int) ([]Review, int, error)
}
