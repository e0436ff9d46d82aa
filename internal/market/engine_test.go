package market_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudo-init-do/campusmarket/internal/apperr"
	"github.com/sudo-init-do/campusmarket/internal/market"
	"github.com/sudo-init-do/campusmarket/internal/store/memory"
)

type fixture struct {
	store  *memory.Store
	eng    *market.Engine
	buyer  market.User
	seller market.User
	now    time.Time
	mu     sync.Mutex
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store: memory.New(),
		now:   time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
	}
	f.eng = market.NewEngineWithClock(f.store, func() time.Time {
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.now
	})
	f.seller = f.store.SeedUser(market.User{ID: "seller-1", Name: "Asha"})
	f.buyer = f.store.SeedUser(market.User{ID: "buyer-1", Name: "Ben"})
	return f
}

func (f *fixture) advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func (f *fixture) newListing(t *testing.T, price int64) market.Listing {
	t.Helper()
	l, err := f.eng.CreateListing(context.Background(), market.Listing{
		SellerID:    f.seller.ID,
		Title:       "Calculus textbook",
		Description: "8th edition, barely used",
		Price:       price,
		Category:    "Books",
		Condition:   "Good",
	})
	require.NoError(t, err)
	return l
}

func (f *fixture) reserve(t *testing.T, listingID string) market.Transaction {
	t.Helper()
	tx, err := f.eng.Initiate(context.Background(), listingID, f.buyer.ID, 0, "library steps", "")
	require.NoError(t, err)
	return tx
}

func TestCreateListingValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name    string
		mutate  func(*market.Listing)
		message string
	}{
		{"empty title", func(l *market.Listing) { l.Title = "  " }, "title is required"},
		{"empty description", func(l *market.Listing) { l.Description = "" }, "description is required"},
		{"negative price", func(l *market.Listing) { l.Price = -1 }, "price cannot be negative"},
		{"unknown category", func(l *market.Listing) { l.Category = "Vehicles" }, "unknown category"},
		{"unknown condition", func(l *market.Listing) { l.Condition = "Mint" }, "unknown condition"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			l := market.Listing{
				SellerID:    f.seller.ID,
				Title:       "Desk lamp",
				Description: "Bright and working",
				Price:       500,
				Category:    "Hostel Essentials",
				Condition:   "Good",
			}
			tc.mutate(&l)
			_, err := f.eng.CreateListing(ctx, l)
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.KindInvalidInput))
			assert.Equal(t, tc.message, apperr.MessageOf(err))
		})
	}

	created := f.newListing(t, 1200)
	assert.Equal(t, market.ListingAvailable, created.Status)
	assert.Zero(t, created.Views)
	assert.NotEmpty(t, created.ID)
}

func TestEditListingRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := f.newListing(t, 1200)

	newPrice := int64(999)
	_, err := f.eng.EditListing(ctx, l.ID, "someone-else", market.ListingEdit{Price: &newPrice})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	got, err := f.eng.EditListing(ctx, l.ID, f.seller.ID, market.ListingEdit{Price: &newPrice})
	require.NoError(t, err)
	assert.Equal(t, newPrice, got.Price)

	// Reserved listings reject edits until the reservation ends.
	f.reserve(t, l.ID)
	_, err = f.eng.EditListing(ctx, l.ID, f.seller.ID, market.ListingEdit{Price: &newPrice})
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestInitiateReservesListing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := f.newListing(t, 1500)

	_, err := f.eng.Initiate(ctx, l.ID, f.seller.ID, 0, "", "")
	assert.True(t, apperr.Is(err, apperr.KindInvalidActor), "self-purchase must be rejected")

	tx := f.reserve(t, l.ID)
	assert.Equal(t, market.TxReserved, tx.Status)
	assert.Equal(t, int64(1500), tx.AgreedPrice, "zero agreed price falls back to the listing price")
	assert.Equal(t, f.now.Add(market.ReservationTTL), tx.ExpiresAt)

	got, err := f.store.GetListing(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, market.ListingReserved, got.Status)
	require.NotNil(t, got.ReservedBy)
	assert.Equal(t, f.buyer.ID, *got.ReservedBy)

	// A second buyer cannot reserve the same listing.
	other := f.store.SeedUser(market.User{ID: "buyer-2", Name: "Cara"})
	_, err = f.eng.Initiate(ctx, l.ID, other.ID, 0, "", "")
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestBilateralConfirmationCompletes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := f.newListing(t, 2000)
	tx := f.reserve(t, l.ID)

	got, completed, err := f.eng.Confirm(ctx, tx.ID, f.buyer.ID)
	require.NoError(t, err)
	assert.False(t, completed)
	assert.True(t, got.BuyerConfirmed)
	assert.Equal(t, market.TxReserved, got.Status)

	got, completed, err = f.eng.Confirm(ctx, tx.ID, f.seller.ID)
	require.NoError(t, err)
	assert.True(t, completed)
	assert.Equal(t, market.TxCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)

	listing, err := f.store.GetListing(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, market.ListingCompleted, listing.Status)
	require.NotNil(t, listing.ReservedBy, "completed listings keep the buyer on record")

	seller, _ := f.store.GetUser(ctx, f.seller.ID)
	buyer, _ := f.store.GetUser(ctx, f.buyer.ID)
	assert.Equal(t, 60.0, seller.TrustScore)
	assert.Equal(t, 55.0, buyer.TrustScore)
	assert.Equal(t, 1, seller.SuccessfulTransactions)
	assert.Equal(t, 1, buyer.SuccessfulTransactions)

	// Terminal state: no further transitions.
	_, _, err = f.eng.Confirm(ctx, tx.ID, f.buyer.ID)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	_, err = f.eng.Cancel(ctx, tx.ID, f.buyer.ID)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestReleaseActsAsSellerConfirmation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := f.newListing(t, 800)
	tx := f.reserve(t, l.ID)

	_, _, err := f.eng.Release(ctx, tx.ID, f.buyer.ID)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	got, completed, err := f.eng.Release(ctx, tx.ID, f.seller.ID)
	require.NoError(t, err)
	assert.False(t, completed)
	assert.True(t, got.SellerConfirmed)

	_, completed, err = f.eng.Confirm(ctx, tx.ID, f.buyer.ID)
	require.NoError(t, err)
	assert.True(t, completed)
}

func TestConcurrentConfirmsCompleteExactlyOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		l := f.newListing(t, 1000)
		tx := f.reserve(t, l.ID)

		var wg sync.WaitGroup
		results := make([]bool, 2)
		for j, actor := range []string{f.buyer.ID, f.seller.ID} {
			wg.Add(1)
			go func(idx int, id string) {
				defer wg.Done()
				_, completed, err := f.eng.Confirm(ctx, tx.ID, id)
				assert.NoError(t, err)
				results[idx] = completed
			}(j, actor)
		}
		wg.Wait()

		wins := 0
		for _, won := range results {
			if won {
				wins++
			}
		}
		assert.Equal(t, 1, wins, "exactly one confirm call must run the completion side effects")

		got, err := f.store.GetTransaction(ctx, tx.ID)
		require.NoError(t, err)
		assert.Equal(t, market.TxCompleted, got.Status)
	}

	// 20 completions applied exactly once each: +10 seller, +5 buyer.
	seller, _ := f.store.GetUser(ctx, f.seller.ID)
	buyer, _ := f.store.GetUser(ctx, f.buyer.ID)
	assert.Equal(t, 250.0, seller.TrustScore)
	assert.Equal(t, 150.0, buyer.TrustScore)
	assert.Equal(t, 20, seller.SuccessfulTransactions)
}

func TestCancelReturnsListingAndPenalisesBoth(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := f.newListing(t, 700)
	tx := f.reserve(t, l.ID)

	_, err := f.eng.Cancel(ctx, tx.ID, "stranger")
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	got, err := f.eng.Cancel(ctx, tx.ID, f.buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, market.TxCancelled, got.Status)
	require.NotNil(t, got.CancelledAt)

	listing, err := f.store.GetListing(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, market.ListingAvailable, listing.Status)
	assert.Nil(t, listing.ReservedBy)

	seller, _ := f.store.GetUser(ctx, f.seller.ID)
	buyer, _ := f.store.GetUser(ctx, f.buyer.ID)
	assert.Equal(t, 45.0, seller.TrustScore)
	assert.Equal(t, 45.0, buyer.TrustScore)

	// The listing can be reserved again.
	f.reserve(t, l.ID)
}

func TestDisputeFreezesTransactionAndListing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := f.newListing(t, 3000)
	tx := f.reserve(t, l.ID)

	_, err := f.eng.Dispute(ctx, tx.ID, f.buyer.ID, "   ")
	assert.True(t, apperr.Is(err, apperr.KindInvalidInput))

	got, err := f.eng.Dispute(ctx, tx.ID, f.buyer.ID, "item not as described")
	require.NoError(t, err)
	assert.Equal(t, market.TxDisputed, got.Status)
	require.NotNil(t, got.DisputeRaisedBy)
	assert.Equal(t, f.buyer.ID, *got.DisputeRaisedBy)

	listing, err := f.store.GetListing(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, market.ListingDisputed, listing.Status)

	// Frozen: neither side can confirm or cancel.
	_, _, err = f.eng.Confirm(ctx, tx.ID, f.seller.ID)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	_, err = f.eng.Cancel(ctx, tx.ID, f.seller.ID)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestResolveDisputeRelistsOrRemoves(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	l := f.newListing(t, 3000)
	tx := f.reserve(t, l.ID)
	_, err := f.eng.Dispute(ctx, tx.ID, f.buyer.ID, "never showed up")
	require.NoError(t, err)

	got, err := f.eng.ResolveDispute(ctx, tx.ID, "buyer at fault, listing returned to catalogue", true)
	require.NoError(t, err)
	assert.Equal(t, "buyer at fault, listing returned to catalogue", got.DisputeResolution)
	require.NotNil(t, got.DisputeResolvedAt)

	listing, err := f.store.GetListing(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, market.ListingAvailable, listing.Status)

	// Second resolution attempt fails: dispute already handled.
	_, err = f.eng.ResolveDispute(ctx, tx.ID, "again", false)
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	// Resolution without relist removes the listing.
	l2 := f.newListing(t, 400)
	tx2 := f.reserve(t, l2.ID)
	_, err = f.eng.Dispute(ctx, tx2.ID, f.seller.ID, "buyer damaged the item")
	require.NoError(t, err)
	_, err = f.eng.ResolveDispute(ctx, tx2.ID, "item withdrawn", false)
	require.NoError(t, err)

	listing2, err := f.store.GetListing(ctx, l2.ID)
	require.NoError(t, err)
	assert.Equal(t, market.ListingRemoved, listing2.Status)
}

func TestExpireOverdueReleasesListings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	l1 := f.newListing(t, 100)
	tx1 := f.reserve(t, l1.ID)

	// A fresh reservation made later should survive the sweep.
	f.advance(23 * time.Hour)
	l2 := f.newListing(t, 200)
	other := f.store.SeedUser(market.User{ID: "buyer-2", Name: "Cara"})
	tx2, err := f.eng.Initiate(ctx, l2.ID, other.ID, 0, "", "")
	require.NoError(t, err)

	f.advance(2 * time.Hour) // tx1 is now 25h old, tx2 only 2h

	expired, err := f.eng.ExpireOverdue(ctx)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, tx1.ID, expired[0].ID)

	got1, _ := f.store.GetTransaction(ctx, tx1.ID)
	assert.Equal(t, market.TxExpired, got1.Status)
	got2, _ := f.store.GetTransaction(ctx, tx2.ID)
	assert.Equal(t, market.TxReserved, got2.Status)

	listing1, _ := f.store.GetListing(ctx, l1.ID)
	assert.Equal(t, market.ListingAvailable, listing1.Status)

	// Expiry carries no trust penalty.
	buyer, _ := f.store.GetUser(ctx, f.buyer.ID)
	seller, _ := f.store.GetUser(ctx, f.seller.ID)
	assert.Equal(t, 50.0, buyer.TrustScore)
	assert.Equal(t, 50.0, seller.TrustScore)

	// Sweep is idempotent.
	expired, err = f.eng.ExpireOverdue(ctx)
	require.NoError(t, err)
	assert.Empty(t, expired)
}

func completeTransaction(t *testing.T, f *fixture, txID string) {
	t.Helper()
	ctx := context.Background()
	_, _, err := f.eng.Confirm(ctx, txID, f.buyer.ID)
	require.NoError(t, err)
	_, completed, err := f.eng.Confirm(ctx, txID, f.seller.ID)
	require.NoError(t, err)
	require.True(t, completed)
}

func TestSubmitReviewRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := f.newListing(t, 900)
	tx := f.reserve(t, l.ID)

	_, err := f.eng.SubmitReview(ctx, tx.ID, f.buyer.ID, 5, "great seller")
	assert.True(t, apperr.Is(err, apperr.KindConflict), "reviews require a completed transaction")

	completeTransaction(t, f, tx.ID)

	_, err = f.eng.SubmitReview(ctx, tx.ID, f.buyer.ID, 0, "")
	assert.True(t, apperr.Is(err, apperr.KindInvalidInput))
	_, err = f.eng.SubmitReview(ctx, tx.ID, "stranger", 4, "")
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	r, err := f.eng.SubmitReview(ctx, tx.ID, f.buyer.ID, 5, "great seller")
	require.NoError(t, err)
	assert.Equal(t, f.seller.ID, r.RevieweeID)
	assert.Equal(t, market.RoleBuyer, r.ReviewerRole)

	// Completion left the seller at 60 with no ratings; the first rating
	// replaces that transactional score with the review mean.
	seller, _ := f.store.GetUser(ctx, f.seller.ID)
	assert.Equal(t, 5.0, seller.TrustScore)
	assert.Equal(t, 1, seller.TotalRatingsReceived)

	_, err = f.eng.SubmitReview(ctx, tx.ID, f.buyer.ID, 4, "second thoughts")
	assert.True(t, apperr.Is(err, apperr.KindAlreadyExists))

	// The seller reviews the buyer independently.
	r2, err := f.eng.SubmitReview(ctx, tx.ID, f.seller.ID, 4, "smooth handover")
	require.NoError(t, err)
	assert.Equal(t, f.buyer.ID, r2.RevieweeID)

	reviews, total, err := f.store.ListReviewsForUser(ctx, f.seller.ID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, reviews, 1)
	assert.Equal(t, "great seller", reviews[0].Comment)
}

// faultyStore injects listing-write failures to exercise the partial-failure
// paths of completed transitions.
type faultyStore struct {
	market.Store
	finalizeErr error
	releaseErr  error
}

func (s *faultyStore) FinalizeListing(ctx context.Context, id string, outcome market.ListingStatus) (market.Listing, error) {
	if s.finalizeErr != nil {
		return market.Listing{}, s.finalizeErr
	}
	return s.Store.FinalizeListing(ctx, id, outcome)
}

func (s *faultyStore) ReleaseListing(ctx context.Context, id string) (market.Listing, error) {
	if s.releaseErr != nil {
		return market.Listing{}, s.releaseErr
	}
	return s.Store.ReleaseListing(ctx, id)
}

func TestListingWriteFailureSurfacesServerError(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	mem.SeedUser(market.User{ID: "seller-1", Name: "Asha"})
	mem.SeedUser(market.User{ID: "buyer-1", Name: "Ben"})
	fs := &faultyStore{Store: mem}
	eng := market.NewEngine(fs)

	newTx := func(t *testing.T) market.Transaction {
		t.Helper()
		l, err := eng.CreateListing(ctx, market.Listing{
			SellerID:    "seller-1",
			Title:       "Desk lamp",
			Description: "Bright and working",
			Price:       300,
			Category:    "Hostel Essentials",
			Condition:   "Good",
		})
		require.NoError(t, err)
		tx, err := eng.Initiate(ctx, l.ID, "buyer-1", 0, "", "")
		require.NoError(t, err)
		return tx
	}

	// Dispute: the transaction write wins, the listing finalize fails — the
	// caller must see a server error, not a silent success.
	tx := newTx(t)
	fs.finalizeErr = errors.New("connection reset")
	_, err := eng.Dispute(ctx, tx.ID, "buyer-1", "item damaged")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindServer))
	got, err := mem.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, market.TxDisputed, got.Status)
	fs.finalizeErr = nil

	// Cancel: same for the listing release.
	tx = newTx(t)
	fs.releaseErr = errors.New("connection reset")
	_, err = eng.Cancel(ctx, tx.ID, "buyer-1")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindServer))
	got, err = mem.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, market.TxCancelled, got.Status)
	fs.releaseErr = nil

	// Completion: the winning confirm surfaces the finalize failure.
	tx = newTx(t)
	_, _, err = eng.Confirm(ctx, tx.ID, "buyer-1")
	require.NoError(t, err)
	fs.finalizeErr = errors.New("connection reset")
	_, _, err = eng.Confirm(ctx, tx.ID, "seller-1")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindServer))
	got, err = mem.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, market.TxCompleted, got.Status)
}

func TestRemoveListingRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := f.newListing(t, 250)

	_, err := f.eng.RemoveListing(ctx, l.ID, f.buyer.ID)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	f.reserve(t, l.ID)
	_, err = f.eng.RemoveListing(ctx, l.ID, f.seller.ID)
	assert.True(t, apperr.Is(err, apperr.KindConflict), "reserved listings cannot be removed")

	l2 := f.newListing(t, 250)
	got, err := f.eng.RemoveListing(ctx, l2.ID, f.seller.ID)
	require.NoError(t, err)
	assert.Equal(t, market.ListingRemoved, got.Status)

	// Removed listings cannot be bought: like every non-Available status,
	// the lock fails the conditional update.
	_, err = f.eng.Initiate(ctx, l2.ID, f.buyer.ID, 0, "", "")
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}
