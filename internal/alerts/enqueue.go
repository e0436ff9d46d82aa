package alerts

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hibiken/asynq"
)

// ensureClient returns a usable client instance
func ensureClient() *asynq.Client {
	if client == nil {
		Init()
	}
	return client
}

func enqueueTransactionEvent(taskType string, p TransactionEventPayload) error {
	p.SentAt = time.Now()
	b, _ := json.Marshal(p)
	task := asynq.NewTask(taskType, b)
	_, err := ensureClient().Enqueue(task, asynq.Queue("emails"))
	return err
}

// EnqueueWelcomeEmail schedules a welcome email to a new student
func EnqueueWelcomeEmail(userID, email, name string) error {
	base := os.Getenv("APP_URL")
	if base == "" {
		base = "http://localhost:3000"
	}
	base = strings.TrimRight(base, "/")

	subject := fmt.Sprintf("Welcome to CampusMarket, %s!", name)
	body := fmt.Sprintf("Hi %s, thanks for joining CampusMarket.\n\nBrowse listings: %s\n\nIf the link doesn't work, copy and paste the URL above.", name, base)

	env := EmailEnvelope{To: email, Subject: subject, Body: body}
	payload := WelcomeEmailPayload{UserID: userID, Name: name, Email: email, Envelope: env, SentAt: time.Now()}
	b, _ := json.Marshal(payload)
	task := asynq.NewTask(TaskWelcomeEmail, b)
	_, err := ensureClient().Enqueue(task, asynq.Queue("emails"))
	return err
}

// EnqueueListingReserved notifies the seller that a buyer reserved their listing
func EnqueueListingReserved(txID, listingID, title, buyerID, sellerID, sellerEmail string, price int64) error {
	return enqueueTransactionEvent(TaskListingReserved, TransactionEventPayload{
		TransactionID: txID, ListingID: listingID, ListingTitle: title,
		BuyerID: buyerID, SellerID: sellerID, Email: sellerEmail, AgreedPrice: price,
		Envelope: EmailEnvelope{
			To:      sellerEmail,
			Subject: "Your listing has been reserved",
			Body:    fmt.Sprintf("\"%s\" was reserved for %d. The reservation holds for 24 hours; arrange the handover and confirm to complete the sale.", title, price),
		},
	})
}

// EnqueueTransactionCompleted notifies one participant that the sale went through
func EnqueueTransactionCompleted(txID, listingID, title, buyerID, sellerID, email string, price int64) error {
	return enqueueTransactionEvent(TaskTransactionCompleted, TransactionEventPayload{
		TransactionID: txID, ListingID: listingID, ListingTitle: title,
		BuyerID: buyerID, SellerID: sellerID, Email: email, AgreedPrice: price,
		Envelope: EmailEnvelope{
			To:      email,
			Subject: "Transaction completed",
			Body:    fmt.Sprintf("The sale of \"%s\" for %d is complete. You can now leave a review for the other party.", title, price),
		},
	})
}

// EnqueueTransactionDisputed notifies the other participant that a dispute was raised
func EnqueueTransactionDisputed(txID, listingID, title, buyerID, sellerID, email, reason string, price int64) error {
	return enqueueTransactionEvent(TaskTransactionDisputed, TransactionEventPayload{
		TransactionID: txID, ListingID: listingID, ListingTitle: title,
		BuyerID: buyerID, SellerID: sellerID, Email: email, AgreedPrice: price, Reason: reason,
		Envelope: EmailEnvelope{
			To:      email,
			Subject: "A dispute was raised on your transaction",
			Body:    fmt.Sprintf("A dispute was raised on the sale of \"%s\": %s\n\nAn admin will review and resolve it.", title, reason),
		},
	})
}

// EnqueueTransactionCancelled notifies the other participant of a cancellation
func EnqueueTransactionCancelled(txID, listingID, title, buyerID, sellerID, email string, price int64) error {
	return enqueueTransactionEvent(TaskTransactionCancelled, TransactionEventPayload{
		TransactionID: txID, ListingID: listingID, ListingTitle: title,
		BuyerID: buyerID, SellerID: sellerID, Email: email, AgreedPrice: price,
		Envelope: EmailEnvelope{
			To:      email,
			Subject: "Transaction cancelled",
			Body:    fmt.Sprintf("The reservation on \"%s\" was cancelled. The listing is available again.", title),
		},
	})
}

// EnqueueTransactionExpired notifies a participant that the reservation lapsed
func EnqueueTransactionExpired(txID, listingID, title, buyerID, sellerID, email string, price int64) error {
	return enqueueTransactionEvent(TaskTransactionExpired, TransactionEventPayload{
		TransactionID: txID, ListingID: listingID, ListingTitle: title,
		BuyerID: buyerID, SellerID: sellerID, Email: email, AgreedPrice: price,
		Envelope: EmailEnvelope{
			To:      email,
			Subject: "Reservation expired",
			Body:    fmt.Sprintf("The reservation on \"%s\" expired without confirmation. The listing is available again.", title),
		},
	})
}

// EnqueueReviewReceived notifies the reviewee of a new rating
func EnqueueReviewReceived(reviewID, txID, revieweeID, email string, rating int) error {
	env := EmailEnvelope{
		To:      email,
		Subject: "You received a new review",
		Body:    fmt.Sprintf("You were rated %d/5 on a recent transaction. Reviews feed your trust score.", rating),
	}
	payload := ReviewReceivedPayload{ReviewID: reviewID, TransactionID: txID, RevieweeID: revieweeID, Email: email, Rating: rating, Envelope: env, SentAt: time.Now()}
	b, _ := json.Marshal(payload)
	task := asynq.NewTask(TaskReviewReceived, b)
	_, err := ensureClient().Enqueue(task, asynq.Queue("emails"))
	return err
}

// EnqueueAdminAlert sends an alert to admins
func EnqueueAdminAlert(adminID, severity, message string) error {
	to := os.Getenv("ADMIN_ALERT_EMAIL")
	if to == "" {
		to = "admin@campusmarket.local"
	}
	env := EmailEnvelope{To: to, Subject: "Admin Alert", Body: message}
	payload := AdminAlertPayload{AdminID: adminID, Severity: severity, Message: message, Envelope: env, SentAt: time.Now()}
	b, _ := json.Marshal(payload)
	task := asynq.NewTask(TaskAdminAlert, b)
	_, err := ensureClient().Enqueue(task, asynq.Queue("alerts"))
	return err
}
