package market

import "time"

// ListingStatus is the lifecycle state of a listing.
// Available → Reserved → {Completed, Disputed}; Reserved → Available on
// cancel; Available → Removed (soft delete) while not reserved.
type ListingStatus string

const (
	ListingAvailable ListingStatus = "Available"
	ListingReserved  ListingStatus = "Reserved"
	ListingCompleted ListingStatus = "Completed"
	ListingDisputed  ListingStatus = "Disputed"
	ListingRemoved   ListingStatus = "Removed"
)

// TransactionStatus is the escrow state. Reserved is the only non-terminal
// state; every other value is final.
type TransactionStatus string

const (
	TxReserved  TransactionStatus = "Reserved"
	TxCompleted TransactionStatus = "Completed"
	TxDisputed  TransactionStatus = "Disputed"
	TxCancelled TransactionStatus = "Cancelled"
	TxExpired   TransactionStatus = "Expired"
)

// Terminal reports whether no further transition is permitted.
func (s TransactionStatus) Terminal() bool { return s != TxReserved }

// Role identifies which side of a transaction an actor is on.
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
)

// Categories and conditions accepted for listings.
var (
	Categories = []string{"Books", "Electronics", "Cycles", "Hostel Essentials", "Clothing", "Sports", "Stationery", "Other"}
	Conditions = []string{"New", "Like New", "Good", "Fair", "Poor"}
)

func ValidCategory(c string) bool { return contains(Categories, c) }
func ValidCondition(c string) bool { return contains(Conditions, c) }

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// Image is a reference to an already-uploaded listing photo.
type Image struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id,omitempty"`
}

// Listing is an item offered for sale. The reservation fields are
// all-or-nothing: set together when a buyer locks the listing, cleared
// together when the reservation ends.
type Listing struct {
	ID                   string         `json:"id"`
	SellerID             string         `json:"seller_id"`
	Title                string         `json:"title"`
	Description          string         `json:"description"`
	Price                int64          `json:"price"`
	Category             string         `json:"category"`
	Condition            string         `json:"condition"`
	Status               ListingStatus  `json:"status"`
	ReservedBy           *string        `json:"reserved_by,omitempty"`
	ReservedAt           *time.Time     `json:"reserved_at,omitempty"`
	ReservationExpiresAt *time.Time     `json:"reservation_expires_at,omitempty"`
	Images               []Image        `json:"images"`
	Views                int            `json:"views"`
	IsNegotiable         bool           `json:"is_negotiable"`
	Tags                 []string       `json:"tags,omitempty"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
}

// Transaction is the escrow record tying a buyer to a reserved listing.
// AgreedPrice is snapshotted at creation and does not follow later listing
// edits.
type Transaction struct {
	ID                string            `json:"id"`
	ListingID         string            `json:"listing_id"`
	BuyerID           string            `json:"buyer_id"`
	SellerID          string            `json:"seller_id"`
	AgreedPrice       int64             `json:"agreed_price"`
	Status            TransactionStatus `json:"status"`
	BuyerConfirmed    bool              `json:"buyer_confirmed"`
	SellerConfirmed   bool              `json:"seller_confirmed"`
	BuyerConfirmedAt  *time.Time        `json:"buyer_confirmed_at,omitempty"`
	SellerConfirmedAt *time.Time        `json:"seller_confirmed_at,omitempty"`
	DisputeRaisedBy   *string           `json:"dispute_raised_by,omitempty"`
	DisputeReason     string            `json:"dispute_reason,omitempty"`
	DisputeRaisedAt   *time.Time        `json:"dispute_raised_at,omitempty"`
	DisputeResolution string            `json:"dispute_resolution,omitempty"`
	DisputeResolvedAt *time.Time        `json:"dispute_resolved_at,omitempty"`
	MeetingLocation   string            `json:"meeting_location,omitempty"`
	Notes             string            `json:"notes,omitempty"`
	ExpiresAt         time.Time         `json:"expires_at"`
	CompletedAt       *time.Time        `json:"completed_at,omitempty"`
	CancelledAt       *time.Time        `json:"cancelled_at,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// RoleOf returns the role the given user plays in the transaction, or "" if
// they are not a participant.
func (t Transaction) RoleOf(userID string) Role {
	switch userID {
	case t.BuyerID:
		return RoleBuyer
	case t.SellerID:
		return RoleSeller
	}
	return ""
}

// User carries the reputation-relevant slice of an account.
type User struct {
	ID                     string    `json:"id"`
	Name                   string    `json:"name"`
	Email                  string    `json:"email"`
	TrustScore             float64   `json:"trust_score"`
	TotalRatingsReceived   int       `json:"total_ratings_received"`
	TotalTransactions      int       `json:"total_transactions"`
	SuccessfulTransactions int       `json:"successful_transactions"`
	IsBanned               bool      `json:"is_banned"`
	CreatedAt              time.Time `json:"created_at"`
}

// Review is one participant's rating of the other for a completed
// transaction. Immutable once created; at most one per (transaction,
// reviewer).
type Review struct {
	ID            string    `json:"id"`
	TransactionID string    `json:"transaction_id"`
	ReviewerID    string    `json:"reviewer_id"`
	RevieweeID    string    `json:"reviewee_id"`
	Rating        int       `json:"rating"`
	Comment       string    `json:"comment,omitempty"`
	ReviewerRole  Role      `json:"reviewer_role"`
	CreatedAt     time.Time `json:"created_at"`
}
