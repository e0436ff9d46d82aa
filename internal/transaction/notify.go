package transaction

import (
	"context"

	"github.com/sudo-init-do/campusmarket/internal/alerts"
	"github.com/sudo-init-do/campusmarket/internal/db"
	"github.com/sudo-init-do/campusmarket/internal/market"
)

// Best-effort notifications fired after a transition commits. Delivery
// failures never fail the request. The exported helpers are shared with the
// listing-level mirror endpoints so both entry points notify identically.

func userEmail(id string) string {
	var email string
	_ = db.Conn.QueryRow(context.Background(), `SELECT email FROM users WHERE id = $1`, id).Scan(&email)
	return email
}

func listingTitle(id string) string {
	var title string
	_ = db.Conn.QueryRow(context.Background(), `SELECT title FROM listings WHERE id = $1`, id).Scan(&title)
	return title
}

func NotifyReserved(t market.Transaction) {
	title := listingTitle(t.ListingID)
	if email := userEmail(t.SellerID); email != "" {
		_ = alerts.EnqueueListingReserved(t.ID, t.ListingID, title, t.BuyerID, t.SellerID, email, t.AgreedPrice)
	}
	_ = alerts.CreateNotification(t.SellerID, "listing_reserved", "Your listing was reserved",
		"A buyer reserved \""+title+"\". The hold lasts 24 hours.", &t.ID)
}

func NotifyCompleted(t market.Transaction) {
	title := listingTitle(t.ListingID)
	for _, uid := range []string{t.BuyerID, t.SellerID} {
		if email := userEmail(uid); email != "" {
			_ = alerts.EnqueueTransactionCompleted(t.ID, t.ListingID, title, t.BuyerID, t.SellerID, email, t.AgreedPrice)
		}
		_ = alerts.CreateNotification(uid, "transaction_completed", "Transaction completed",
			"The sale of \""+title+"\" is complete. You can now leave a review.", &t.ID)
	}
}

func notifyDisputed(t market.Transaction, raisedBy, reason string) {
	title := listingTitle(t.ListingID)
	other := t.SellerID
	if raisedBy == t.SellerID {
		other = t.BuyerID
	}
	if email := userEmail(other); email != "" {
		_ = alerts.EnqueueTransactionDisputed(t.ID, t.ListingID, title, t.BuyerID, t.SellerID, email, reason, t.AgreedPrice)
	}
	_ = alerts.CreateNotification(other, "transaction_disputed", "A dispute was raised",
		"A dispute was raised on the sale of \""+title+"\": "+reason, &t.ID)
	_ = alerts.EnqueueAdminAlert(raisedBy, "warning", "Dispute raised on transaction "+t.ID+": "+reason)
}

func NotifyCancelled(t market.Transaction, actorID string) {
	title := listingTitle(t.ListingID)
	other := t.SellerID
	if actorID == t.SellerID {
		other = t.BuyerID
	}
	if email := userEmail(other); email != "" {
		_ = alerts.EnqueueTransactionCancelled(t.ID, t.ListingID, title, t.BuyerID, t.SellerID, email, t.AgreedPrice)
	}
	_ = alerts.CreateNotification(other, "transaction_cancelled", "Reservation cancelled",
		"The reservation on \""+title+"\" was cancelled.", &t.ID)
}

func notifyExpired(t market.Transaction) {
	title := listingTitle(t.ListingID)
	for _, uid := range []string{t.BuyerID, t.SellerID} {
		if email := userEmail(uid); email != "" {
			_ = alerts.EnqueueTransactionExpired(t.ID, t.ListingID, title, t.BuyerID, t.SellerID, email, t.AgreedPrice)
		}
		_ = alerts.CreateNotification(uid, "transaction_expired", "Reservation expired",
			"The reservation on \""+title+"\" expired without confirmation. The listing is available again.", &t.ID)
	}
}
