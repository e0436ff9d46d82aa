package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudo-init-do/campusmarket/internal/apperr"
	"github.com/sudo-init-do/campusmarket/internal/market"
)

func TestListListingsFilterAndPagination(t *testing.T) {
	s := New()
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 7; i++ {
		category := "Books"
		if i%2 == 1 {
			category = "Electronics"
		}
		_, err := s.CreateListing(ctx, market.Listing{
			SellerID:    "seller-1",
			Title:       fmt.Sprintf("Item %d", i),
			Description: "desc",
			Price:       int64(100 * (i + 1)),
			Category:    category,
			Condition:   "Good",
			Status:      market.ListingAvailable,
			CreatedAt:   base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}

	items, total, err := s.ListListings(ctx, market.ListingQuery{Category: "Books", Limit: 2, Page: 1, SortDesc: true})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	require.Len(t, items, 2)
	assert.Equal(t, "Item 6", items[0].Title, "newest first")

	items, _, err = s.ListListings(ctx, market.ListingQuery{Category: "Books", Limit: 2, Page: 2, SortDesc: true})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Item 2", items[0].Title)

	// Page beyond the end yields an empty slice, not an error.
	items, _, err = s.ListListings(ctx, market.ListingQuery{Category: "Books", Limit: 2, Page: 9})
	require.NoError(t, err)
	assert.Empty(t, items)

	min := int64(300)
	items, total, err = s.ListListings(ctx, market.ListingQuery{MinPrice: &min})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, items, 5)

	items, _, err = s.ListListings(ctx, market.ListingQuery{Search: "item 3"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Item 3", items[0].Title)
}

func TestLockListingIsSingleWinner(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Now()

	l, err := s.CreateListing(ctx, market.Listing{
		SellerID: "seller-1", Title: "Cycle", Description: "d",
		Category: "Cycles", Condition: "Fair", Status: market.ListingAvailable,
	})
	require.NoError(t, err)

	_, err = s.LockListing(ctx, l.ID, "buyer-1", now, now.Add(24*time.Hour))
	require.NoError(t, err)

	_, err = s.LockListing(ctx, l.ID, "buyer-2", now, now.Add(24*time.Hour))
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	_, err = s.LockListing(ctx, "missing", "buyer-1", now, now.Add(24*time.Hour))
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	// Release clears every reservation field.
	got, err := s.ReleaseListing(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, market.ListingAvailable, got.Status)
	assert.Nil(t, got.ReservedBy)
	assert.Nil(t, got.ReservedAt)
	assert.Nil(t, got.ReservationExpiresAt)
}

func TestCompleteTransactionWinnerFlag(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Now()

	tx, err := s.CreateTransaction(ctx, market.Transaction{
		ListingID: "l1", BuyerID: "b", SellerID: "s",
		Status: market.TxReserved, AgreedPrice: 100,
	})
	require.NoError(t, err)

	// Not yet confirmed on both sides: no winner, no error.
	_, won, err := s.CompleteTransaction(ctx, tx.ID, now)
	require.NoError(t, err)
	assert.False(t, won)

	_, err = s.SetConfirmation(ctx, tx.ID, market.RoleBuyer, now)
	require.NoError(t, err)
	_, err = s.SetConfirmation(ctx, tx.ID, market.RoleSeller, now)
	require.NoError(t, err)

	got, won, err := s.CompleteTransaction(ctx, tx.ID, now)
	require.NoError(t, err)
	assert.True(t, won)
	assert.Equal(t, market.TxCompleted, got.Status)

	// The losing caller observes the completed record without winning.
	got, won, err = s.CompleteTransaction(ctx, tx.ID, now)
	require.NoError(t, err)
	assert.False(t, won)
	assert.Equal(t, market.TxCompleted, got.Status)
}

func TestSetConfirmationKeepsFirstTimestamp(t *testing.T) {
	s := New()
	ctx := context.Background()
	first := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	second := first.Add(time.Hour)

	tx, err := s.CreateTransaction(ctx, market.Transaction{
		ListingID: "l1", BuyerID: "b", SellerID: "s", Status: market.TxReserved,
	})
	require.NoError(t, err)

	got, err := s.SetConfirmation(ctx, tx.ID, market.RoleBuyer, first)
	require.NoError(t, err)
	require.NotNil(t, got.BuyerConfirmedAt)

	got, err = s.SetConfirmation(ctx, tx.ID, market.RoleBuyer, second)
	require.NoError(t, err)
	assert.Equal(t, first, *got.BuyerConfirmedAt, "repeated confirmation keeps the original timestamp")
}

func TestTrustWritesClampAndCount(t *testing.T) {
	s := New()
	ctx := context.Background()
	u := s.SeedUser(market.User{ID: "u1", Name: "Dee", TrustScore: 3, TotalRatingsReceived: 1})

	require.NoError(t, s.ApplyTrustPenalty(ctx, u.ID, 5))
	got, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, market.TrustMin, got.TrustScore, "penalties clamp at the floor")

	for i := 0; i < 60; i++ {
		require.NoError(t, s.ApplyCompletionBonus(ctx, u.ID, 10))
	}
	got, _ = s.GetUser(ctx, u.ID)
	assert.Equal(t, market.TrustMax, got.TrustScore, "bonuses clamp at the ceiling")
	assert.Equal(t, 60, got.SuccessfulTransactions)

	updated, err := s.ApplyReviewRating(ctx, u.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.TotalRatingsReceived)
	assert.Equal(t, market.ReviewAdjustedTrust(market.TrustMax, 1, 4), updated.TrustScore)
}

func TestCreateReviewRejectsDuplicates(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.CreateReview(ctx, market.Review{
		TransactionID: "t1", ReviewerID: "b", RevieweeID: "s", Rating: 5, ReviewerRole: market.RoleBuyer,
	})
	require.NoError(t, err)

	_, err = s.CreateReview(ctx, market.Review{
		TransactionID: "t1", ReviewerID: "b", RevieweeID: "s", Rating: 3, ReviewerRole: market.RoleBuyer,
	})
	assert.True(t, apperr.Is(err, apperr.KindAlreadyExists))

	// The other participant may still review.
	_, err = s.CreateReview(ctx, market.Review{
		TransactionID: "t1", ReviewerID: "s", RevieweeID: "b", Rating: 4, ReviewerRole: market.RoleSeller,
	})
	require.NoError(t, err)

	ok, err := s.HasReviewed(ctx, "t1", "b")
	require.NoError(t, err)
	assert.True(t, ok)
}
