package listing

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/campusmarket/internal/apperr"
	"github.com/sudo-init-do/campusmarket/internal/market"
	"github.com/sudo-init-do/campusmarket/internal/transaction"
)

// Listing-level escrow endpoints. These are conveniences over the
// transaction endpoints and delegate to the same engine, so the two entry
// points cannot disagree about state.

type ReserveRequest struct {
	AgreedPrice     int64  `json:"agreed_price"`
	MeetingLocation string `json:"meeting_location"`
	Notes           string `json:"notes"`
}

// =========================
// ReserveListing - Buyer locks an Available listing
// =========================
func ReserveListing(c echo.Context) error {
	buyerID, ok := c.Get("user_id").(string)
	if !ok || buyerID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "unauthorized"})
	}
	listingID := c.Param("id")
	if listingID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "missing listing id"})
	}

	var req ReserveRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid request"})
	}

	t, err := eng.Initiate(c.Request().Context(), listingID, buyerID, req.AgreedPrice, req.MeetingLocation, req.Notes)
	if err != nil {
		return apperr.Respond(c, err)
	}

	transaction.NotifyReserved(t)

	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": t})
}

// =========================
// CompleteListing - Participant confirms handover via the listing
// =========================
func CompleteListing(c echo.Context) error {
	actorID, ok := c.Get("user_id").(string)
	if !ok || actorID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "unauthorized"})
	}
	listingID := c.Param("id")

	t, err := activeTransactionFor(c.Request().Context(), listingID, actorID)
	if err != nil {
		return apperr.Respond(c, err)
	}

	t, completed, err := eng.Confirm(c.Request().Context(), t.ID, actorID)
	if err != nil {
		return apperr.Respond(c, err)
	}
	if completed {
		transaction.NotifyCompleted(t)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": t, "completed": completed})
}

// =========================
// CancelReservation - Participant cancels via the listing
// =========================
func CancelReservation(c echo.Context) error {
	actorID, ok := c.Get("user_id").(string)
	if !ok || actorID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "unauthorized"})
	}
	listingID := c.Param("id")

	t, err := activeTransactionFor(c.Request().Context(), listingID, actorID)
	if err != nil {
		return apperr.Respond(c, err)
	}

	t, err = eng.Cancel(c.Request().Context(), t.ID, actorID)
	if err != nil {
		return apperr.Respond(c, err)
	}
	transaction.NotifyCancelled(t, actorID)
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": t})
}

// activeTransactionFor finds the caller's Reserved transaction on a listing.
func activeTransactionFor(ctx context.Context, listingID, actorID string) (market.Transaction, error) {
	if listingID == "" {
		return market.Transaction{}, apperr.InvalidInput("missing listing id")
	}
	txs, err := eng.Store().ListTransactions(ctx, market.TransactionFilter{
		UserID: actorID,
		Role:   "all",
		Status: market.TxReserved,
	})
	if err != nil {
		return market.Transaction{}, err
	}
	for _, t := range txs {
		if t.ListingID == listingID {
			return t, nil
		}
	}
	return market.Transaction{}, apperr.NotFound("no active reservation on this listing")
}
