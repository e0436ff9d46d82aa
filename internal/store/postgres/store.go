// Package postgres implements the market store on PostgreSQL via pgx. All
// state-machine transitions are single conditional UPDATEs so that at most
// one concurrent caller can win any given transition, and trust/counter
// writes are increment-and-clamp expressions evaluated inside the database.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sudo-init-do/campusmarket/internal/apperr"
	"github.com/sudo-init-do/campusmarket/internal/market"
)

type Store struct {
	pool *pgxpool.Pool
}

var _ market.Store = (*Store)(nil)

// New creates a Store using the provided connection pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const listingCols = `id, seller_id, title, description, price, category, condition, status,
	reserved_by, reserved_at, reservation_expires_at, images, views, is_negotiable, tags,
	created_at, updated_at`

const txCols = `id, listing_id, buyer_id, seller_id, agreed_price, status,
	buyer_confirmed, seller_confirmed, buyer_confirmed_at, seller_confirmed_at,
	dispute_raised_by, dispute_reason, dispute_raised_at, dispute_resolution, dispute_resolved_at,
	meeting_location, notes, expires_at, completed_at, cancelled_at, created_at, updated_at`

const userCols = `id, name, email, trust_score, total_ratings_received,
	total_transactions, successful_transactions, is_banned, created_at`

const reviewCols = `id, transaction_id, reviewer_id, reviewee_id, rating, comment, reviewer_role, created_at`

// Listings -------------------------------------------------------------------

func (s *Store) CreateListing(ctx context.Context, l market.Listing) (market.Listing, error) {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	images, err := json.Marshal(l.Images)
	if err != nil {
		return market.Listing{}, apperr.Server("failed to encode images", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO listings (id, seller_id, title, description, price, category, condition, status,
		     images, views, is_negotiable, tags, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 0, $10, $11, $12, $12)`,
		l.ID, l.SellerID, l.Title, l.Description, l.Price, l.Category, l.Condition, l.Status,
		images, l.IsNegotiable, l.Tags, l.CreatedAt,
	)
	if err != nil {
		return market.Listing{}, apperr.Server("failed to create listing", err)
	}
	return l, nil
}

func (s *Store) GetListing(ctx context.Context, id string) (market.Listing, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+listingCols+` FROM listings WHERE id = $1`, id)
	return scanListing(row)
}

func (s *Store) ListListings(ctx context.Context, q market.ListingQuery) ([]market.Listing, int, error) {
	where := []string{"1=1"}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if q.Status != "" {
		where = append(where, "status = "+arg(string(q.Status)))
	}
	if q.SellerID != "" {
		where = append(where, "seller_id = "+arg(q.SellerID))
	}
	if q.Category != "" {
		where = append(where, "category = "+arg(q.Category))
	}
	if q.Condition != "" {
		where = append(where, "condition = "+arg(q.Condition))
	}
	if q.MinPrice != nil {
		where = append(where, "price >= "+arg(*q.MinPrice))
	}
	if q.MaxPrice != nil {
		where = append(where, "price <= "+arg(*q.MaxPrice))
	}
	if q.Search != "" {
		p := arg("%" + q.Search + "%")
		where = append(where, "(title ILIKE "+p+" OR description ILIKE "+p+")")
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM listings WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, apperr.Server("failed to count listings", err)
	}

	order := "created_at ASC"
	if q.SortDesc {
		order = "created_at DESC"
	}
	page, limit := q.Page, q.Limit
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT ` + listingCols + ` FROM listings WHERE ` + cond +
		` ORDER BY ` + order + ` LIMIT ` + arg(limit) + ` OFFSET ` + arg((page-1)*limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, apperr.Server("failed to fetch listings", err)
	}
	defer rows.Close()

	var listings []market.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, 0, err
		}
		listings = append(listings, l)
	}
	return listings, total, nil
}

func (s *Store) UpdateListing(ctx context.Context, id string, edit market.ListingEdit) (market.Listing, error) {
	set := []string{"updated_at = NOW()"}
	args := []any{id}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if edit.Title != nil {
		set = append(set, "title = "+arg(*edit.Title))
	}
	if edit.Description != nil {
		set = append(set, "description = "+arg(*edit.Description))
	}
	if edit.Price != nil {
		set = append(set, "price = "+arg(*edit.Price))
	}
	if edit.Category != nil {
		set = append(set, "category = "+arg(*edit.Category))
	}
	if edit.Condition != nil {
		set = append(set, "condition = "+arg(*edit.Condition))
	}
	if edit.IsNegotiable != nil {
		set = append(set, "is_negotiable = "+arg(*edit.IsNegotiable))
	}
	if edit.Tags != nil {
		set = append(set, "tags = "+arg(edit.Tags))
	}

	row := s.pool.QueryRow(ctx,
		`UPDATE listings SET `+strings.Join(set, ", ")+
			` WHERE id = $1 AND status = 'Available' RETURNING `+listingCols, args...)
	l, err := scanListing(row)
	if apperr.Is(err, apperr.KindNotFound) {
		return market.Listing{}, s.listingUpdateMiss(ctx, id, "listing is not Available")
	}
	return l, err
}

func (s *Store) AddListingImages(ctx context.Context, id string, images []market.Image) (market.Listing, error) {
	encoded, err := json.Marshal(images)
	if err != nil {
		return market.Listing{}, apperr.Server("failed to encode images", err)
	}
	row := s.pool.QueryRow(ctx,
		`UPDATE listings SET images = images || $2::jsonb, updated_at = NOW()
		 WHERE id = $1 RETURNING `+listingCols, id, encoded)
	return scanListing(row)
}

func (s *Store) IncrementListingViews(ctx context.Context, id string) error {
	res, err := s.pool.Exec(ctx, `UPDATE listings SET views = views + 1 WHERE id = $1`, id)
	if err != nil {
		return apperr.Server("failed to count view", err)
	}
	if res.RowsAffected() == 0 {
		return apperr.NotFound("listing not found")
	}
	return nil
}

func (s *Store) LockListing(ctx context.Context, id, buyerID string, at, expiresAt time.Time) (market.Listing, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE listings
		 SET status = 'Reserved', reserved_by = $2, reserved_at = $3, reservation_expires_at = $4, updated_at = $3
		 WHERE id = $1 AND status = 'Available'
		 RETURNING `+listingCols, id, buyerID, at, expiresAt)
	l, err := scanListing(row)
	if apperr.Is(err, apperr.KindNotFound) {
		return market.Listing{}, s.listingUpdateMiss(ctx, id, "")
	}
	return l, err
}

func (s *Store) ReleaseListing(ctx context.Context, id string) (market.Listing, error) {
	return s.transitionListing(ctx, id, "Reserved", "Available", true)
}

func (s *Store) FinalizeListing(ctx context.Context, id string, outcome market.ListingStatus) (market.Listing, error) {
	switch outcome {
	case market.ListingCompleted:
		return s.transitionListing(ctx, id, "Reserved", "Completed", false)
	case market.ListingDisputed:
		return s.transitionListing(ctx, id, "Reserved", "Disputed", true)
	}
	return market.Listing{}, apperr.InvalidInput("invalid finalize outcome")
}

func (s *Store) RemoveListing(ctx context.Context, id string) (market.Listing, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE listings SET status = 'Removed', updated_at = NOW()
		 WHERE id = $1 AND status <> 'Reserved'
		 RETURNING `+listingCols, id)
	l, err := scanListing(row)
	if apperr.Is(err, apperr.KindNotFound) {
		return market.Listing{}, s.listingUpdateMiss(ctx, id, "listing is reserved")
	}
	return l, err
}

func (s *Store) RelistListing(ctx context.Context, id string) (market.Listing, error) {
	return s.transitionListing(ctx, id, "Disputed", "Available", true)
}

func (s *Store) transitionListing(ctx context.Context, id, from, to string, clearReservation bool) (market.Listing, error) {
	clause := ""
	if clearReservation {
		clause = ", reserved_by = NULL, reserved_at = NULL, reservation_expires_at = NULL"
	}
	row := s.pool.QueryRow(ctx,
		`UPDATE listings SET status = $3, updated_at = NOW()`+clause+`
		 WHERE id = $1 AND status = $2
		 RETURNING `+listingCols, id, from, to)
	l, err := scanListing(row)
	if apperr.Is(err, apperr.KindNotFound) {
		return market.Listing{}, s.listingUpdateMiss(ctx, id, "")
	}
	return l, err
}

// listingUpdateMiss disambiguates a zero-row conditional update: the listing
// either does not exist (NotFound) or is in the wrong state (Conflict).
func (s *Store) listingUpdateMiss(ctx context.Context, id, msg string) error {
	l, err := s.GetListing(ctx, id)
	if err != nil {
		return err
	}
	if msg == "" {
		msg = "item is currently " + string(l.Status)
	}
	return apperr.Conflict(msg)
}

// Transactions ---------------------------------------------------------------

func (s *Store) CreateTransaction(ctx context.Context, t market.Transaction) (market.Transaction, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO transactions (id, listing_id, buyer_id, seller_id, agreed_price, status,
		     meeting_location, notes, expires_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)`,
		t.ID, t.ListingID, t.BuyerID, t.SellerID, t.AgreedPrice, t.Status,
		t.MeetingLocation, t.Notes, t.ExpiresAt, t.CreatedAt,
	)
	if err != nil {
		return market.Transaction{}, apperr.Server("failed to create transaction", err)
	}
	return t, nil
}

func (s *Store) GetTransaction(ctx context.Context, id string) (market.Transaction, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+txCols+` FROM transactions WHERE id = $1`, id)
	return scanTx(row)
}

func (s *Store) ListTransactions(ctx context.Context, f market.TransactionFilter) ([]market.Transaction, error) {
	where := ""
	args := []any{f.UserID}
	switch f.Role {
	case "buyer":
		where = "buyer_id = $1"
	case "seller":
		where = "seller_id = $1"
	default:
		where = "(buyer_id = $1 OR seller_id = $1)"
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+txCols+` FROM transactions WHERE `+where+` ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, apperr.Server("failed to fetch transactions", err)
	}
	defer rows.Close()

	var out []market.Transaction
	for rows.Next() {
		t, err := scanTx(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *Store) ListOverdueReserved(ctx context.Context, cutoff time.Time, limit int) ([]market.Transaction, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+txCols+` FROM transactions
		 WHERE status = 'Reserved' AND expires_at < $1
		 ORDER BY expires_at ASC LIMIT $2`, cutoff, limit)
	if err != nil {
		return nil, apperr.Server("failed to fetch overdue transactions", err)
	}
	defer rows.Close()

	var out []market.Transaction
	for rows.Next() {
		t, err := scanTx(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *Store) SetConfirmation(ctx context.Context, id string, role market.Role, at time.Time) (market.Transaction, error) {
	col := "buyer_confirmed"
	if role == market.RoleSeller {
		col = "seller_confirmed"
	}
	// COALESCE keeps the first confirmation timestamp on repeated calls.
	row := s.pool.QueryRow(ctx,
		`UPDATE transactions
		 SET `+col+` = TRUE, `+col+`_at = COALESCE(`+col+`_at, $2), updated_at = $2
		 WHERE id = $1 AND status = 'Reserved'
		 RETURNING `+txCols, id, at)
	t, err := scanTx(row)
	if apperr.Is(err, apperr.KindNotFound) {
		return market.Transaction{}, s.txUpdateMiss(ctx, id)
	}
	return t, err
}

func (s *Store) CompleteTransaction(ctx context.Context, id string, at time.Time) (market.Transaction, bool, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE transactions
		 SET status = 'Completed', completed_at = $2, updated_at = $2
		 WHERE id = $1 AND status = 'Reserved' AND buyer_confirmed AND seller_confirmed
		 RETURNING `+txCols, id, at)
	t, err := scanTx(row)
	if err == nil {
		return t, true, nil
	}
	if !apperr.Is(err, apperr.KindNotFound) {
		return market.Transaction{}, false, err
	}
	// Lost the race (or preconditions not met): report current state.
	current, getErr := s.GetTransaction(ctx, id)
	if getErr != nil {
		return market.Transaction{}, false, getErr
	}
	return current, false, nil
}

func (s *Store) MarkDisputed(ctx context.Context, id, raisedBy, reason string, at time.Time) (market.Transaction, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE transactions
		 SET status = 'Disputed', dispute_raised_by = $2, dispute_reason = $3, dispute_raised_at = $4, updated_at = $4
		 WHERE id = $1 AND status = 'Reserved'
		 RETURNING `+txCols, id, raisedBy, reason, at)
	t, err := scanTx(row)
	if apperr.Is(err, apperr.KindNotFound) {
		return market.Transaction{}, s.txUpdateMiss(ctx, id)
	}
	return t, err
}

func (s *Store) MarkCancelled(ctx context.Context, id string, at time.Time) (market.Transaction, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE transactions
		 SET status = 'Cancelled', cancelled_at = $2, updated_at = $2
		 WHERE id = $1 AND status = 'Reserved'
		 RETURNING `+txCols, id, at)
	t, err := scanTx(row)
	if apperr.Is(err, apperr.KindNotFound) {
		return market.Transaction{}, s.txUpdateMiss(ctx, id)
	}
	return t, err
}

func (s *Store) MarkExpired(ctx context.Context, id string, at time.Time) (market.Transaction, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE transactions
		 SET status = 'Expired', updated_at = $2
		 WHERE id = $1 AND status = 'Reserved'
		 RETURNING `+txCols, id, at)
	t, err := scanTx(row)
	if apperr.Is(err, apperr.KindNotFound) {
		return market.Transaction{}, s.txUpdateMiss(ctx, id)
	}
	return t, err
}

func (s *Store) ResolveDispute(ctx context.Context, id, resolution string, at time.Time) (market.Transaction, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE transactions
		 SET dispute_resolution = $2, dispute_resolved_at = $3, updated_at = $3
		 WHERE id = $1 AND status = 'Disputed'
		 RETURNING `+txCols, id, resolution, at)
	t, err := scanTx(row)
	if apperr.Is(err, apperr.KindNotFound) {
		return market.Transaction{}, s.txUpdateMiss(ctx, id)
	}
	return t, err
}

func (s *Store) txUpdateMiss(ctx context.Context, id string) error {
	t, err := s.GetTransaction(ctx, id)
	if err != nil {
		return err
	}
	return apperr.Conflict("transaction is already " + string(t.Status))
}

func (s *Store) DashboardStats(ctx context.Context, userID string) (market.DashboardStats, error) {
	var stats market.DashboardStats
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'Reserved'),
		       COUNT(*) FILTER (WHERE status = 'Completed'),
		       COUNT(*) FILTER (WHERE status = 'Cancelled'),
		       COUNT(*) FILTER (WHERE status = 'Disputed'),
		       COALESCE(SUM(agreed_price) FILTER (WHERE status = 'Completed'), 0)
		FROM transactions WHERE %s = $1`
	scanRole := func(col string, rs *market.RoleStats) error {
		return s.pool.QueryRow(ctx, fmt.Sprintf(query, col), userID).Scan(
			&rs.Total, &rs.Reserved, &rs.Completed, &rs.Cancelled, &rs.Disputed, &rs.Turnover)
	}
	if err := scanRole("buyer_id", &stats.AsBuyer); err != nil {
		return stats, apperr.Server("failed to aggregate buyer stats", err)
	}
	if err := scanRole("seller_id", &stats.AsSeller); err != nil {
		return stats, apperr.Server("failed to aggregate seller stats", err)
	}
	stats.TotalTransactions = stats.AsBuyer.Total + stats.AsSeller.Total

	if err := s.pool.QueryRow(ctx, `SELECT trust_score FROM users WHERE id = $1`, userID).Scan(&stats.TrustScore); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return stats, apperr.NotFound("user not found")
		}
		return stats, apperr.Server("failed to fetch trust score", err)
	}
	return stats, nil
}

// Users ----------------------------------------------------------------------

func (s *Store) GetUser(ctx context.Context, id string) (market.User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (s *Store) ApplyCompletionBonus(ctx context.Context, userID string, bonus float64) error {
	res, err := s.pool.Exec(ctx,
		`UPDATE users
		 SET trust_score = LEAST($3, GREATEST($2, trust_score + $4)),
		     total_transactions = total_transactions + 1,
		     successful_transactions = successful_transactions + 1,
		     updated_at = NOW()
		 WHERE id = $1`,
		userID, market.TrustMin, market.TrustMax, bonus)
	if err != nil {
		return apperr.Server("failed to apply completion bonus", err)
	}
	if res.RowsAffected() == 0 {
		return apperr.NotFound("user not found")
	}
	return nil
}

func (s *Store) ApplyTrustPenalty(ctx context.Context, userID string, penalty float64) error {
	res, err := s.pool.Exec(ctx,
		`UPDATE users
		 SET trust_score = LEAST($3, GREATEST($2, trust_score - $4)), updated_at = NOW()
		 WHERE id = $1`,
		userID, market.TrustMin, market.TrustMax, penalty)
	if err != nil {
		return apperr.Server("failed to apply trust penalty", err)
	}
	if res.RowsAffected() == 0 {
		return apperr.NotFound("user not found")
	}
	return nil
}

func (s *Store) ApplyReviewRating(ctx context.Context, userID string, rating int) (market.User, error) {
	// Running mean folded in atomically; no read-modify-write in Go.
	row := s.pool.QueryRow(ctx,
		`UPDATE users
		 SET trust_score = LEAST($3, GREATEST($2,
		         ROUND(((trust_score * total_ratings_received + $4) / (total_ratings_received + 1))::numeric, 2)::double precision)),
		     total_ratings_received = total_ratings_received + 1,
		     updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+userCols,
		userID, market.TrustMin, market.TrustMax, rating)
	return scanUser(row)
}

// Reviews --------------------------------------------------------------------

func (s *Store) CreateReview(ctx context.Context, r market.Review) (market.Review, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO reviews (id, transaction_id, reviewer_id, reviewee_id, rating, comment, reviewer_role, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		r.ID, r.TransactionID, r.ReviewerID, r.RevieweeID, r.Rating, r.Comment, r.ReviewerRole, r.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return market.Review{}, apperr.AlreadyExists("you have already reviewed this transaction")
		}
		return market.Review{}, apperr.Server("failed to create review", err)
	}
	return r, nil
}

func (s *Store) HasReviewed(ctx context.Context, transactionID, reviewerID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM reviews WHERE transaction_id = $1 AND reviewer_id = $2)`,
		transactionID, reviewerID).Scan(&exists)
	if err != nil {
		return false, apperr.Server("failed to check review", err)
	}
	return exists, nil
}

func (s *Store) ListReviewsForUser(ctx context.Context, userID string, page, limit int) ([]market.Review, int, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	var total int
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM reviews WHERE reviewee_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, apperr.Server("failed to count reviews", err)
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+reviewCols+` FROM reviews WHERE reviewee_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, apperr.Server("failed to fetch reviews", err)
	}
	defer rows.Close()

	var out []market.Review
	for rows.Next() {
		var r market.Review
		if err := rows.Scan(&r.ID, &r.TransactionID, &r.ReviewerID, &r.RevieweeID,
			&r.Rating, &r.Comment, &r.ReviewerRole, &r.CreatedAt); err != nil {
			return nil, 0, apperr.Server("failed to parse review", err)
		}
		out = append(out, r)
	}
	return out, total, nil
}

// Scan helpers ---------------------------------------------------------------

func scanListing(row pgx.Row) (market.Listing, error) {
	var l market.Listing
	var images []byte
	err := row.Scan(&l.ID, &l.SellerID, &l.Title, &l.Description, &l.Price, &l.Category,
		&l.Condition, &l.Status, &l.ReservedBy, &l.ReservedAt, &l.ReservationExpiresAt,
		&images, &l.Views, &l.IsNegotiable, &l.Tags, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return market.Listing{}, apperr.NotFound("listing not found")
		}
		return market.Listing{}, apperr.Server("failed to parse listing", err)
	}
	if len(images) > 0 {
		if err := json.Unmarshal(images, &l.Images); err != nil {
			return market.Listing{}, apperr.Server("failed to decode images", err)
		}
	}
	if l.Images == nil {
		l.Images = []market.Image{}
	}
	return l, nil
}

func scanTx(row pgx.Row) (market.Transaction, error) {
	var t market.Transaction
	err := row.Scan(&t.ID, &t.ListingID, &t.BuyerID, &t.SellerID, &t.AgreedPrice, &t.Status,
		&t.BuyerConfirmed, &t.SellerConfirmed, &t.BuyerConfirmedAt, &t.SellerConfirmedAt,
		&t.DisputeRaisedBy, &t.DisputeReason, &t.DisputeRaisedAt, &t.DisputeResolution, &t.DisputeResolvedAt,
		&t.MeetingLocation, &t.Notes, &t.ExpiresAt, &t.CompletedAt, &t.CancelledAt,
		&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return market.Transaction{}, apperr.NotFound("transaction not found")
		}
		return market.Transaction{}, apperr.Server("failed to parse transaction", err)
	}
	return t, nil
}

func scanUser(row pgx.Row) (market.User, error) {
	var u market.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.TrustScore, &u.TotalRatingsReceived,
		&u.TotalTransactions, &u.SuccessfulTransactions, &u.IsBanned, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return market.User{}, apperr.NotFound("user not found")
		}
		return market.User{}, apperr.Server("failed to parse user", err)
	}
	return u, nil
}
