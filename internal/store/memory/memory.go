// Package memory provides an in-memory implementation of the market store.
// It is safe for concurrent use and is primarily intended for tests and
// local development.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sudo-init-do/campusmarket/internal/apperr"
	"github.com/sudo-init-do/campusmarket/internal/market"
)

type Store struct {
	mu           sync.Mutex
	listings     map[string]market.Listing
	transactions map[string]market.Transaction
	users        map[string]market.User
	reviews      map[string]market.Review
}

var _ market.Store = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		listings:     make(map[string]market.Listing),
		transactions: make(map[string]market.Transaction),
		users:        make(map[string]market.User),
		reviews:      make(map[string]market.Review),
	}
}

// SeedUser inserts a user record directly; test setup helper.
func (s *Store) SeedUser(u market.User) market.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.TrustScore == 0 && u.TotalRatingsReceived == 0 {
		u.TrustScore = market.TrustDefault
	}
	s.users[u.ID] = u
	return u
}

// Listings ------------------------------------------------------------------

func (s *Store) CreateListing(_ context.Context, l market.Listing) (market.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	s.listings[l.ID] = cloneListing(l)
	return l, nil
}

func (s *Store) GetListing(_ context.Context, id string) (market.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.listings[id]
	if !ok {
		return market.Listing{}, apperr.NotFound("listing not found")
	}
	return cloneListing(l), nil
}

func (s *Store) ListListings(_ context.Context, q market.ListingQuery) ([]market.Listing, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []market.Listing
	for _, l := range s.listings {
		if q.Status != "" && l.Status != q.Status {
			continue
		}
		if q.SellerID != "" && l.SellerID != q.SellerID {
			continue
		}
		if q.Category != "" && l.Category != q.Category {
			continue
		}
		if q.Condition != "" && l.Condition != q.Condition {
			continue
		}
		if q.MinPrice != nil && l.Price < *q.MinPrice {
			continue
		}
		if q.MaxPrice != nil && l.Price > *q.MaxPrice {
			continue
		}
		if q.Search != "" {
			needle := strings.ToLower(q.Search)
			if !strings.Contains(strings.ToLower(l.Title), needle) &&
				!strings.Contains(strings.ToLower(l.Description), needle) {
				continue
			}
		}
		matched = append(matched, cloneListing(l))
	}
	sort.Slice(matched, func(i, j int) bool {
		if q.SortDesc {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})

	total := len(matched)
	start, end := pageBounds(q.Page, q.Limit, total)
	return matched[start:end], total, nil
}

func (s *Store) UpdateListing(_ context.Context, id string, edit market.ListingEdit) (market.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.listings[id]
	if !ok {
		return market.Listing{}, apperr.NotFound("listing not found")
	}
	if l.Status != market.ListingAvailable {
		return market.Listing{}, apperr.Conflict("listing is not Available")
	}
	if edit.Title != nil {
		l.Title = *edit.Title
	}
	if edit.Description != nil {
		l.Description = *edit.Description
	}
	if edit.Price != nil {
		l.Price = *edit.Price
	}
	if edit.Category != nil {
		l.Category = *edit.Category
	}
	if edit.Condition != nil {
		l.Condition = *edit.Condition
	}
	if edit.IsNegotiable != nil {
		l.IsNegotiable = *edit.IsNegotiable
	}
	if edit.Tags != nil {
		l.Tags = append([]string(nil), edit.Tags...)
	}
	l.UpdatedAt = time.Now()
	s.listings[id] = l
	return cloneListing(l), nil
}

func (s *Store) AddListingImages(_ context.Context, id string, images []market.Image) (market.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.listings[id]
	if !ok {
		return market.Listing{}, apperr.NotFound("listing not found")
	}
	l.Images = append(append([]market.Image(nil), l.Images...), images...)
	s.listings[id] = l
	return cloneListing(l), nil
}

func (s *Store) IncrementListingViews(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.listings[id]
	if !ok {
		return apperr.NotFound("listing not found")
	}
	l.Views++
	s.listings[id] = l
	return nil
}

func (s *Store) LockListing(_ context.Context, id, buyerID string, at, expiresAt time.Time) (market.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.listings[id]
	if !ok {
		return market.Listing{}, apperr.NotFound("listing not found")
	}
	if l.Status != market.ListingAvailable {
		return market.Listing{}, apperr.Conflict("item is currently " + string(l.Status))
	}
	l.Status = market.ListingReserved
	l.ReservedBy = &buyerID
	l.ReservedAt = &at
	l.ReservationExpiresAt = &expiresAt
	l.UpdatedAt = at
	s.listings[id] = l
	return cloneListing(l), nil
}

func (s *Store) ReleaseListing(_ context.Context, id string) (market.Listing, error) {
	return s.transitionListing(id, market.ListingReserved, market.ListingAvailable, true)
}

func (s *Store) FinalizeListing(_ context.Context, id string, outcome market.ListingStatus) (market.Listing, error) {
	if outcome != market.ListingCompleted && outcome != market.ListingDisputed {
		return market.Listing{}, apperr.InvalidInput("invalid finalize outcome")
	}
	// Disputed listings drop their reservation; Completed ones keep it as
	// the record of the buyer.
	clear := outcome == market.ListingDisputed
	return s.transitionListing(id, market.ListingReserved, outcome, clear)
}

func (s *Store) RemoveListing(_ context.Context, id string) (market.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.listings[id]
	if !ok {
		return market.Listing{}, apperr.NotFound("listing not found")
	}
	if l.Status == market.ListingReserved {
		return market.Listing{}, apperr.Conflict("listing is reserved")
	}
	l.Status = market.ListingRemoved
	l.UpdatedAt = time.Now()
	s.listings[id] = l
	return cloneListing(l), nil
}

func (s *Store) RelistListing(_ context.Context, id string) (market.Listing, error) {
	return s.transitionListing(id, market.ListingDisputed, market.ListingAvailable, true)
}

func (s *Store) transitionListing(id string, from, to market.ListingStatus, clearReservation bool) (market.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.listings[id]
	if !ok {
		return market.Listing{}, apperr.NotFound("listing not found")
	}
	if l.Status != from {
		return market.Listing{}, apperr.Conflict("listing is " + string(l.Status))
	}
	l.Status = to
	if clearReservation {
		l.ReservedBy = nil
		l.ReservedAt = nil
		l.ReservationExpiresAt = nil
	}
	l.UpdatedAt = time.Now()
	s.listings[id] = l
	return cloneListing(l), nil
}

// Transactions --------------------------------------------------------------

func (s *Store) CreateTransaction(_ context.Context, t market.Transaction) (market.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	s.transactions[t.ID] = cloneTx(t)
	return t, nil
}

func (s *Store) GetTransaction(_ context.Context, id string) (market.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[id]
	if !ok {
		return market.Transaction{}, apperr.NotFound("transaction not found")
	}
	return cloneTx(t), nil
}

func (s *Store) ListTransactions(_ context.Context, f market.TransactionFilter) ([]market.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []market.Transaction
	for _, t := range s.transactions {
		switch f.Role {
		case "buyer":
			if t.BuyerID != f.UserID {
				continue
			}
		case "seller":
			if t.SellerID != f.UserID {
				continue
			}
		default:
			if t.BuyerID != f.UserID && t.SellerID != f.UserID {
				continue
			}
		}
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		out = append(out, cloneTx(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) ListOverdueReserved(_ context.Context, cutoff time.Time, limit int) ([]market.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []market.Transaction
	for _, t := range s.transactions {
		if t.Status == market.TxReserved && t.ExpiresAt.Before(cutoff) {
			out = append(out, cloneTx(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) SetConfirmation(_ context.Context, id string, role market.Role, at time.Time) (market.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[id]
	if !ok {
		return market.Transaction{}, apperr.NotFound("transaction not found")
	}
	if t.Status != market.TxReserved {
		return market.Transaction{}, apperr.Conflict("transaction is already " + string(t.Status))
	}
	switch role {
	case market.RoleBuyer:
		if !t.BuyerConfirmed {
			t.BuyerConfirmed = true
			ts := at
			t.BuyerConfirmedAt = &ts
		}
	case market.RoleSeller:
		if !t.SellerConfirmed {
			t.SellerConfirmed = true
			ts := at
			t.SellerConfirmedAt = &ts
		}
	default:
		return market.Transaction{}, apperr.InvalidInput("unknown role")
	}
	t.UpdatedAt = at
	s.transactions[id] = t
	return cloneTx(t), nil
}

func (s *Store) CompleteTransaction(_ context.Context, id string, at time.Time) (market.Transaction, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[id]
	if !ok {
		return market.Transaction{}, false, apperr.NotFound("transaction not found")
	}
	if t.Status != market.TxReserved || !t.BuyerConfirmed || !t.SellerConfirmed {
		// Already completed (or otherwise terminal): the racing caller won.
		return cloneTx(t), false, nil
	}
	t.Status = market.TxCompleted
	ts := at
	t.CompletedAt = &ts
	t.UpdatedAt = at
	s.transactions[id] = t
	return cloneTx(t), true, nil
}

func (s *Store) MarkDisputed(_ context.Context, id, raisedBy, reason string, at time.Time) (market.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[id]
	if !ok {
		return market.Transaction{}, apperr.NotFound("transaction not found")
	}
	if t.Status != market.TxReserved {
		return market.Transaction{}, apperr.Conflict("transaction is already " + string(t.Status))
	}
	t.Status = market.TxDisputed
	t.DisputeRaisedBy = &raisedBy
	t.DisputeReason = reason
	ts := at
	t.DisputeRaisedAt = &ts
	t.UpdatedAt = at
	s.transactions[id] = t
	return cloneTx(t), nil
}

func (s *Store) MarkCancelled(_ context.Context, id string, at time.Time) (market.Transaction, error) {
	return s.terminate(id, market.TxCancelled, at)
}

func (s *Store) MarkExpired(_ context.Context, id string, at time.Time) (market.Transaction, error) {
	return s.terminate(id, market.TxExpired, at)
}

func (s *Store) terminate(id string, to market.TransactionStatus, at time.Time) (market.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[id]
	if !ok {
		return market.Transaction{}, apperr.NotFound("transaction not found")
	}
	if t.Status != market.TxReserved {
		return market.Transaction{}, apperr.Conflict("transaction is already " + string(t.Status))
	}
	t.Status = to
	ts := at
	if to == market.TxCancelled {
		t.CancelledAt = &ts
	}
	t.UpdatedAt = at
	s.transactions[id] = t
	return cloneTx(t), nil
}

func (s *Store) ResolveDispute(_ context.Context, id, resolution string, at time.Time) (market.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[id]
	if !ok {
		return market.Transaction{}, apperr.NotFound("transaction not found")
	}
	if t.Status != market.TxDisputed {
		return market.Transaction{}, apperr.Conflict("transaction is not disputed")
	}
	t.DisputeResolution = resolution
	ts := at
	t.DisputeResolvedAt = &ts
	t.UpdatedAt = at
	s.transactions[id] = t
	return cloneTx(t), nil
}

func (s *Store) DashboardStats(_ context.Context, userID string) (market.DashboardStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var stats market.DashboardStats
	for _, t := range s.transactions {
		if t.BuyerID == userID {
			tally(&stats.AsBuyer, t)
		}
		if t.SellerID == userID {
			tally(&stats.AsSeller, t)
		}
	}
	stats.TotalTransactions = stats.AsBuyer.Total + stats.AsSeller.Total
	if u, ok := s.users[userID]; ok {
		stats.TrustScore = u.TrustScore
	}
	return stats, nil
}

func tally(rs *market.RoleStats, t market.Transaction) {
	rs.Total++
	switch t.Status {
	case market.TxReserved:
		rs.Reserved++
	case market.TxCompleted:
		rs.Completed++
		rs.Turnover += t.AgreedPrice
	case market.TxCancelled:
		rs.Cancelled++
	case market.TxDisputed:
		rs.Disputed++
	}
}

// Users ----------------------------------------------------------------------

func (s *Store) GetUser(_ context.Context, id string) (market.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return market.User{}, apperr.NotFound("user not found")
	}
	return u, nil
}

func (s *Store) ApplyCompletionBonus(_ context.Context, userID string, bonus float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return apperr.NotFound("user not found")
	}
	u.TrustScore = market.ClampTrust(u.TrustScore + bonus)
	u.TotalTransactions++
	u.SuccessfulTransactions++
	s.users[userID] = u
	return nil
}

func (s *Store) ApplyTrustPenalty(_ context.Context, userID string, penalty float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return apperr.NotFound("user not found")
	}
	u.TrustScore = market.ClampTrust(u.TrustScore - penalty)
	s.users[userID] = u
	return nil
}

func (s *Store) ApplyReviewRating(_ context.Context, userID string, rating int) (market.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return market.User{}, apperr.NotFound("user not found")
	}
	u.TrustScore = market.ReviewAdjustedTrust(u.TrustScore, u.TotalRatingsReceived, rating)
	u.TotalRatingsReceived++
	s.users[userID] = u
	return u, nil
}

// Reviews --------------------------------------------------------------------

func (s *Store) CreateReview(_ context.Context, r market.Review) (market.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.reviews {
		if existing.TransactionID == r.TransactionID && existing.ReviewerID == r.ReviewerID {
			return market.Review{}, apperr.AlreadyExists("you have already reviewed this transaction")
		}
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	s.reviews[r.ID] = r
	return r, nil
}

func (s *Store) HasReviewed(_ context.Context, transactionID, reviewerID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.reviews {
		if r.TransactionID == transactionID && r.ReviewerID == reviewerID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) ListReviewsForUser(_ context.Context, userID string, page, limit int) ([]market.Review, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []market.Review
	for _, r := range s.reviews {
		if r.RevieweeID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	total := len(out)
	start, end := pageBounds(page, limit, total)
	return out[start:end], total, nil
}

// Helpers --------------------------------------------------------------------

func pageBounds(page, limit, total int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	return start, end
}

func cloneListing(l market.Listing) market.Listing {
	l.Images = append([]market.Image(nil), l.Images...)
	l.Tags = append([]string(nil), l.Tags...)
	if l.ReservedBy != nil {
		v := *l.ReservedBy
		l.ReservedBy = &v
	}
	l.ReservedAt = cloneTime(l.ReservedAt)
	l.ReservationExpiresAt = cloneTime(l.ReservationExpiresAt)
	return l
}

func cloneTx(t market.Transaction) market.Transaction {
	if t.DisputeRaisedBy != nil {
		v := *t.DisputeRaisedBy
		t.DisputeRaisedBy = &v
	}
	t.BuyerConfirmedAt = cloneTime(t.BuyerConfirmedAt)
	t.SellerConfirmedAt = cloneTime(t.SellerConfirmedAt)
	t.DisputeRaisedAt = cloneTime(t.DisputeRaisedAt)
	t.DisputeResolvedAt = cloneTime(t.DisputeResolvedAt)
	t.CompletedAt = cloneTime(t.CompletedAt)
	t.CancelledAt = cloneTime(t.CancelledAt)
	return t
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
