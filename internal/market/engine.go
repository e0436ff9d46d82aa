package market

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sudo-init-do/campusmarket/internal/apperr"
)

const (
	// ReservationTTL is how long a buyer holds a listing before the
	// reservation expires.
	ReservationTTL = 24 * time.Hour

	// MaxCommentLen bounds review comments.
	MaxCommentLen = 500

	// MaxTitleLen / MaxDescriptionLen bound listing content.
	MaxTitleLen       = 100
	MaxDescriptionLen = 1000

	sweepBatchSize = 100
)

// Engine is the authoritative escrow state machine. Every mutation of a
// listing's availability or a transaction's status goes through here; the
// listing-level reserve/complete/cancel endpoints delegate to it as well so
// the two entry points cannot diverge.
type Engine struct {
	store Store
	now   func() time.Time
}

func NewEngine(store Store) *Engine {
	return &Engine{store: store, now: time.Now}
}

// NewEngineWithClock builds an engine on an injected clock. The sweep and
// every transition timestamp read from it.
func NewEngineWithClock(store Store, now func() time.Time) *Engine {
	return &Engine{store: store, now: now}
}

// Store exposes the underlying store for read paths that need no transition
// logic (catalogue queries, dashboards).
func (e *Engine) Store() Store { return e.store }

// CreateListing validates and persists a new listing owned by sellerID.
func (e *Engine) CreateListing(ctx context.Context, l Listing) (Listing, error) {
	l.Title = strings.TrimSpace(l.Title)
	switch {
	case l.Title == "":
		return Listing{}, apperr.InvalidInput("title is required")
	case len(l.Title) > MaxTitleLen:
		return Listing{}, apperr.InvalidInput("title cannot exceed 100 characters")
	case strings.TrimSpace(l.Description) == "":
		return Listing{}, apperr.InvalidInput("description is required")
	case len(l.Description) > MaxDescriptionLen:
		return Listing{}, apperr.InvalidInput("description cannot exceed 1000 characters")
	case l.Price < 0:
		return Listing{}, apperr.InvalidInput("price cannot be negative")
	case !ValidCategory(l.Category):
		return Listing{}, apperr.InvalidInput("unknown category")
	case !ValidCondition(l.Condition):
		return Listing{}, apperr.InvalidInput("unknown condition")
	}

	now := e.now()
	l.ID = uuid.NewString()
	l.Status = ListingAvailable
	l.ReservedBy = nil
	l.ReservedAt = nil
	l.ReservationExpiresAt = nil
	l.Views = 0
	l.CreatedAt = now
	l.UpdatedAt = now
	if l.Images == nil {
		l.Images = []Image{}
	}
	return e.store.CreateListing(ctx, l)
}

// EditListing applies allow-listed content edits. Only the owning seller may
// edit, and only while the listing is Available.
func (e *Engine) EditListing(ctx context.Context, id, actorID string, edit ListingEdit) (Listing, error) {
	l, err := e.store.GetListing(ctx, id)
	if err != nil {
		return Listing{}, err
	}
	if l.SellerID != actorID {
		return Listing{}, apperr.Forbidden("not authorized to update this listing")
	}
	if l.Status != ListingAvailable {
		return Listing{}, apperr.Conflict("cannot edit a listing that is not Available")
	}
	if edit.Price != nil && *edit.Price < 0 {
		return Listing{}, apperr.InvalidInput("price cannot be negative")
	}
	if edit.Category != nil && !ValidCategory(*edit.Category) {
		return Listing{}, apperr.InvalidInput("unknown category")
	}
	if edit.Condition != nil && !ValidCondition(*edit.Condition) {
		return Listing{}, apperr.InvalidInput("unknown condition")
	}
	return e.store.UpdateListing(ctx, id, edit)
}

// RemoveListing soft-deletes a listing. Reserved listings cannot be removed;
// the reservation must be cancelled first.
func (e *Engine) RemoveListing(ctx context.Context, id, actorID string) (Listing, error) {
	l, err := e.store.GetListing(ctx, id)
	if err != nil {
		return Listing{}, err
	}
	if l.SellerID != actorID {
		return Listing{}, apperr.Forbidden("not authorized to remove this listing")
	}
	if l.Status == ListingReserved {
		return Listing{}, apperr.Conflict("cannot remove a reserved listing; cancel the transaction first")
	}
	return e.store.RemoveListing(ctx, id)
}

// Initiate creates a transaction against an Available listing, locking it
// for the buyer. agreedPrice of 0 means "use the listing price".
func (e *Engine) Initiate(ctx context.Context, listingID, buyerID string, agreedPrice int64, meetingLocation, notes string) (Transaction, error) {
	if agreedPrice < 0 {
		return Transaction{}, apperr.InvalidInput("agreed price cannot be negative")
	}
	l, err := e.store.GetListing(ctx, listingID)
	if err != nil {
		return Transaction{}, err
	}
	if l.SellerID == buyerID {
		return Transaction{}, apperr.InvalidActor("you cannot buy your own listing")
	}

	now := e.now()
	expires := now.Add(ReservationTTL)
	if _, err := e.store.LockListing(ctx, listingID, buyerID, now, expires); err != nil {
		return Transaction{}, err
	}

	price := agreedPrice
	if price == 0 {
		price = l.Price
	}
	t := Transaction{
		ID:              uuid.NewString(),
		ListingID:       listingID,
		BuyerID:         buyerID,
		SellerID:        l.SellerID,
		AgreedPrice:     price,
		Status:          TxReserved,
		MeetingLocation: meetingLocation,
		Notes:           notes,
		ExpiresAt:       expires,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	created, err := e.store.CreateTransaction(ctx, t)
	if err != nil {
		// Roll the lock back so the listing is not stranded in Reserved
		// with no transaction referencing it.
		if _, relErr := e.store.ReleaseListing(ctx, listingID); relErr != nil {
			log.Printf("initiate: failed to release listing %s after create error: %v", listingID, relErr)
		}
		return Transaction{}, apperr.Server("failed to create transaction", err)
	}
	return created, nil
}

// Confirm records the caller's confirmation. When both sides have confirmed,
// the transaction completes: the listing finalizes, counters increment and
// completion bonuses apply — exactly once, even under racing confirms,
// because CompleteTransaction is a conditional update only one caller wins.
// Returns the transaction and whether this call completed it.
func (e *Engine) Confirm(ctx context.Context, id, actorID string) (Transaction, bool, error) {
	t, err := e.store.GetTransaction(ctx, id)
	if err != nil {
		return Transaction{}, false, err
	}
	role := t.RoleOf(actorID)
	if role == "" {
		return Transaction{}, false, apperr.Forbidden("not a participant in this transaction")
	}
	if t.Status != TxReserved {
		return Transaction{}, false, apperr.Conflict("transaction is already " + string(t.Status))
	}

	t, err = e.store.SetConfirmation(ctx, id, role, e.now())
	if err != nil {
		return Transaction{}, false, err
	}
	return e.tryComplete(ctx, t)
}

// Release is the seller-side shortcut: marking the item handed over is
// equivalent to the seller confirming.
func (e *Engine) Release(ctx context.Context, id, actorID string) (Transaction, bool, error) {
	t, err := e.store.GetTransaction(ctx, id)
	if err != nil {
		return Transaction{}, false, err
	}
	if t.SellerID != actorID {
		return Transaction{}, false, apperr.Forbidden("only the seller can release an item")
	}
	if t.Status != TxReserved {
		return Transaction{}, false, apperr.Conflict("only Reserved transactions can be released")
	}

	t, err = e.store.SetConfirmation(ctx, id, RoleSeller, e.now())
	if err != nil {
		return Transaction{}, false, err
	}
	return e.tryComplete(ctx, t)
}

func (e *Engine) tryComplete(ctx context.Context, t Transaction) (Transaction, bool, error) {
	if !t.BuyerConfirmed || !t.SellerConfirmed {
		return t, false, nil
	}
	completed, won, err := e.store.CompleteTransaction(ctx, t.ID, e.now())
	if err != nil {
		return Transaction{}, false, err
	}
	if !won {
		// The racing confirm got there first and ran the side effects.
		return completed, false, nil
	}

	// The terminal transaction write has won; a later side-effect failure
	// must surface rather than leave the listing contradicting it. A Conflict
	// on the listing means another transition already settled it.
	if _, err := e.store.FinalizeListing(ctx, t.ListingID, ListingCompleted); err != nil && !apperr.Is(err, apperr.KindConflict) {
		log.Printf("complete: failed to finalize listing %s for transaction %s: %v", t.ListingID, t.ID, err)
		return Transaction{}, false, apperr.Server("transaction completed but the listing could not be updated", err)
	}
	if err := e.store.ApplyCompletionBonus(ctx, t.SellerID, SellerCompletionBonus); err != nil {
		log.Printf("complete: seller trust update failed for %s: %v", t.SellerID, err)
		return Transaction{}, false, apperr.Server("transaction completed but trust updates failed", err)
	}
	if err := e.store.ApplyCompletionBonus(ctx, t.BuyerID, BuyerCompletionBonus); err != nil {
		log.Printf("complete: buyer trust update failed for %s: %v", t.BuyerID, err)
		return Transaction{}, false, apperr.Server("transaction completed but trust updates failed", err)
	}
	return completed, true, nil
}

// Dispute freezes a Reserved transaction. The listing is freed of its
// reservation but marked Disputed rather than returned to the catalogue.
func (e *Engine) Dispute(ctx context.Context, id, actorID, reason string) (Transaction, error) {
	if strings.TrimSpace(reason) == "" {
		return Transaction{}, apperr.InvalidInput("dispute reason is required")
	}
	t, err := e.store.GetTransaction(ctx, id)
	if err != nil {
		return Transaction{}, err
	}
	if t.RoleOf(actorID) == "" {
		return Transaction{}, apperr.Forbidden("not a participant in this transaction")
	}
	if t.Status != TxReserved {
		return Transaction{}, apperr.Conflict("can only dispute a Reserved transaction")
	}

	t, err = e.store.MarkDisputed(ctx, id, actorID, reason, e.now())
	if err != nil {
		return Transaction{}, err
	}
	if _, err := e.store.FinalizeListing(ctx, t.ListingID, ListingDisputed); err != nil && !apperr.Is(err, apperr.KindConflict) {
		log.Printf("dispute: failed to finalize listing %s for transaction %s: %v", t.ListingID, t.ID, err)
		return Transaction{}, apperr.Server("dispute recorded but the listing could not be updated", err)
	}
	return t, nil
}

// Cancel aborts a Reserved transaction, returning the listing to the
// catalogue. Both participants take a small symmetric trust penalty.
func (e *Engine) Cancel(ctx context.Context, id, actorID string) (Transaction, error) {
	t, err := e.store.GetTransaction(ctx, id)
	if err != nil {
		return Transaction{}, err
	}
	if t.RoleOf(actorID) == "" {
		return Transaction{}, apperr.Forbidden("not a participant in this transaction")
	}
	if t.Status != TxReserved {
		return Transaction{}, apperr.Conflict("only Reserved transactions can be cancelled")
	}

	t, err = e.store.MarkCancelled(ctx, id, e.now())
	if err != nil {
		return Transaction{}, err
	}
	if _, err := e.store.ReleaseListing(ctx, t.ListingID); err != nil && !apperr.Is(err, apperr.KindConflict) {
		log.Printf("cancel: failed to release listing %s for transaction %s: %v", t.ListingID, t.ID, err)
		return Transaction{}, apperr.Server("cancellation recorded but the listing could not be released", err)
	}
	for _, uid := range []string{t.BuyerID, t.SellerID} {
		if err := e.store.ApplyTrustPenalty(ctx, uid, CancelPenalty); err != nil {
			log.Printf("cancel: trust penalty failed for %s: %v", uid, err)
			return Transaction{}, apperr.Server("cancellation recorded but trust updates failed", err)
		}
	}
	return t, nil
}

// ExpireOverdue sweeps Reserved transactions past their expiry, marking them
// Expired and releasing their listings. No trust penalty applies: nobody
// visibly broke the commitment. Safe to run concurrently with user actions —
// whichever transition reaches a record first wins its conditional update.
// Returns the transactions it expired so the caller can notify participants.
func (e *Engine) ExpireOverdue(ctx context.Context) ([]Transaction, error) {
	now := e.now()
	overdue, err := e.store.ListOverdueReserved(ctx, now, sweepBatchSize)
	if err != nil {
		return nil, err
	}
	expired := make([]Transaction, 0, len(overdue))
	for _, t := range overdue {
		marked, err := e.store.MarkExpired(ctx, t.ID, now)
		if err != nil {
			if apperr.Is(err, apperr.KindConflict) || apperr.Is(err, apperr.KindNotFound) {
				continue // a user action beat the sweep to this record
			}
			return expired, err
		}
		if _, err := e.store.ReleaseListing(ctx, marked.ListingID); err != nil && !apperr.Is(err, apperr.KindConflict) {
			log.Printf("expire: failed to release listing %s for transaction %s: %v", marked.ListingID, marked.ID, err)
			return expired, apperr.Server("expiry recorded but the listing could not be released", err)
		}
		expired = append(expired, marked)
	}
	return expired, nil
}

// SubmitReview records a participant's rating for a completed transaction
// and folds it into the other participant's trust score.
func (e *Engine) SubmitReview(ctx context.Context, transactionID, reviewerID string, rating int, comment string) (Review, error) {
	if rating < 1 || rating > 5 {
		return Review{}, apperr.InvalidInput("rating must be between 1 and 5")
	}
	if len(comment) > MaxCommentLen {
		return Review{}, apperr.InvalidInput("comment cannot exceed 500 characters")
	}
	t, err := e.store.GetTransaction(ctx, transactionID)
	if err != nil {
		return Review{}, err
	}
	role := t.RoleOf(reviewerID)
	if role == "" {
		return Review{}, apperr.Forbidden("not a participant in this transaction")
	}
	if t.Status != TxCompleted {
		return Review{}, apperr.Conflict("can only review completed transactions")
	}

	revieweeID := t.SellerID
	if role == RoleSeller {
		revieweeID = t.BuyerID
	}
	r := Review{
		ID:            uuid.NewString(),
		TransactionID: transactionID,
		ReviewerID:    reviewerID,
		RevieweeID:    revieweeID,
		Rating:        rating,
		Comment:       comment,
		ReviewerRole:  role,
		CreatedAt:     e.now(),
	}
	created, err := e.store.CreateReview(ctx, r)
	if err != nil {
		return Review{}, err
	}
	if _, err := e.store.ApplyReviewRating(ctx, revieweeID, rating); err != nil {
		log.Printf("review: trust update failed for %s: %v", revieweeID, err)
		return Review{}, apperr.Server("review recorded but the trust update failed", err)
	}
	return created, nil
}

// ResolveDispute records an admin resolution on a Disputed transaction and
// either relists or removes the listing.
func (e *Engine) ResolveDispute(ctx context.Context, transactionID, resolution string, relist bool) (Transaction, error) {
	if strings.TrimSpace(resolution) == "" {
		return Transaction{}, apperr.InvalidInput("resolution is required")
	}
	t, err := e.store.GetTransaction(ctx, transactionID)
	if err != nil {
		return Transaction{}, err
	}
	if t.Status != TxDisputed {
		return Transaction{}, apperr.Conflict("transaction is not disputed")
	}
	t, err = e.store.ResolveDispute(ctx, transactionID, resolution, e.now())
	if err != nil {
		return Transaction{}, err
	}
	if relist {
		if _, err := e.store.RelistListing(ctx, t.ListingID); err != nil && !apperr.Is(err, apperr.KindConflict) {
			log.Printf("resolve: failed to relist listing %s: %v", t.ListingID, err)
			return Transaction{}, apperr.Server("dispute resolved but the listing could not be relisted", err)
		}
	} else {
		if _, err := e.store.RemoveListing(ctx, t.ListingID); err != nil && !apperr.Is(err, apperr.KindConflict) {
			log.Printf("resolve: failed to remove listing %s: %v", t.ListingID, err)
			return Transaction{}, apperr.Server("dispute resolved but the listing could not be removed", err)
		}
	}
	return t, nil
}
