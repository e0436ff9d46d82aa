package alerts

import "time"

// Task type constants
const (
	TaskWelcomeEmail         = "email:welcome"
	TaskListingReserved      = "email:listing_reserved"
	TaskTransactionCompleted = "email:transaction_completed"
	TaskTransactionDisputed  = "email:transaction_disputed"
	TaskTransactionCancelled = "email:transaction_cancelled"
	TaskTransactionExpired   = "email:transaction_expired"
	TaskReviewReceived       = "email:review_received"
	TaskAdminAlert           = "email:admin_alert"
)

// Common envelope for email-like notifications
type EmailEnvelope struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Welcome email payload
type WelcomeEmailPayload struct {
	UserID   string        `json:"user_id"`
	Name     string        `json:"name"`
	Email    string        `json:"email"`
	Envelope EmailEnvelope `json:"envelope"`
	SentAt   time.Time     `json:"sent_at"`
}

// TransactionEventPayload covers every escrow lifecycle email: reserved,
// completed, disputed, cancelled, expired.
type TransactionEventPayload struct {
	TransactionID string        `json:"transaction_id"`
	ListingID     string        `json:"listing_id"`
	ListingTitle  string        `json:"listing_title"`
	BuyerID       string        `json:"buyer_id"`
	SellerID      string        `json:"seller_id"`
	Email         string        `json:"email"`
	AgreedPrice   int64         `json:"agreed_price"`
	Reason        string        `json:"reason,omitempty"`
	Envelope      EmailEnvelope `json:"envelope"`
	SentAt        time.Time     `json:"sent_at"`
}

// Review received payload (sent to the reviewee)
type ReviewReceivedPayload struct {
	ReviewID      string        `json:"review_id"`
	TransactionID string        `json:"transaction_id"`
	RevieweeID    string        `json:"reviewee_id"`
	Email         string        `json:"email"`
	Rating        int           `json:"rating"`
	Envelope      EmailEnvelope `json:"envelope"`
	SentAt        time.Time     `json:"sent_at"`
}

// Admin alert payload
type AdminAlertPayload struct {
	AdminID  string        `json:"admin_id"`
	Severity string        `json:"severity"` // info|warning|critical
	Message  string        `json:"message"`
	Envelope EmailEnvelope `json:"envelope"`
	SentAt   time.Time     `json:"sent_at"`
}
