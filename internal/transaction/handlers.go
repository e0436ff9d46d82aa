package transaction

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/campusmarket/internal/apperr"
	"github.com/sudo-init-do/campusmarket/internal/market"
)

var eng *market.Engine

// Init wires the handlers to the escrow engine. Must be called before the
// routes are registered.
func Init(e *market.Engine) { eng = e }

type CreateTransactionRequest struct {
	ListingID       string `json:"listing_id"`
	AgreedPrice     int64  `json:"agreed_price"`
	MeetingLocation string `json:"meeting_location"`
	Notes           string `json:"notes"`
}

// =========================
// CreateTransaction - Buyer reserves a listing
// =========================
func CreateTransaction(c echo.Context) error {
	buyerID, ok := c.Get("user_id").(string)
	if !ok || buyerID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "unauthorized"})
	}

	var req CreateTransactionRequest
	if err := c.Bind(&req); err != nil || req.ListingID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "listing_id is required"})
	}

	t, err := eng.Initiate(c.Request().Context(), req.ListingID, buyerID, req.AgreedPrice, req.MeetingLocation, req.Notes)
	if err != nil {
		return apperr.Respond(c, err)
	}

	NotifyReserved(t)

	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": t})
}

// =========================
// GetTransaction - Participant (or admin) fetches one record
// =========================
func GetTransaction(c echo.Context) error {
	actorID, ok := c.Get("user_id").(string)
	if !ok || actorID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "unauthorized"})
	}
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "missing transaction id"})
	}

	t, err := eng.Store().GetTransaction(c.Request().Context(), id)
	if err != nil {
		return apperr.Respond(c, err)
	}
	role, _ := c.Get("role").(string)
	if t.RoleOf(actorID) == "" && role != "admin" {
		return c.JSON(http.StatusForbidden, echo.Map{"success": false, "message": "not a participant in this transaction"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": t})
}

// =========================
// MyTransactions - Caller's history filtered by role and status
// =========================
func MyTransactions(c echo.Context) error {
	actorID, ok := c.Get("user_id").(string)
	if !ok || actorID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "unauthorized"})
	}

	role := c.QueryParam("role")
	if role == "" {
		role = "all"
	}
	f := market.TransactionFilter{
		UserID: actorID,
		Role:   role,
		Status: market.TransactionStatus(c.QueryParam("status")),
	}
	txs, err := eng.Store().ListTransactions(c.Request().Context(), f)
	if err != nil {
		return apperr.Respond(c, err)
	}

	// Completed rows carry whether the caller already left a review, so the
	// client can show or hide the review prompt.
	items := make([]transactionItem, 0, len(txs))
	for _, t := range txs {
		item := transactionItem{Transaction: t}
		if t.Status == market.TxCompleted {
			reviewed, err := eng.Store().HasReviewed(c.Request().Context(), t.ID, actorID)
			if err != nil {
				return apperr.Respond(c, err)
			}
			item.HasReviewed = reviewed
		}
		items = append(items, item)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"transactions": items}})
}

type transactionItem struct {
	market.Transaction
	HasReviewed bool `json:"has_reviewed"`
}

// =========================
// ConfirmTransaction - Either side confirms the exchange happened
// =========================
func ConfirmTransaction(c echo.Context) error {
	actorID, ok := c.Get("user_id").(string)
	if !ok || actorID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "unauthorized"})
	}
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "missing transaction id"})
	}

	t, completed, err := eng.Confirm(c.Request().Context(), id, actorID)
	if err != nil {
		return apperr.Respond(c, err)
	}
	if completed {
		NotifyCompleted(t)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": t, "completed": completed})
}

// =========================
// ReleaseTransaction - Seller marks the item handed over
// =========================
func ReleaseTransaction(c echo.Context) error {
	actorID, ok := c.Get("user_id").(string)
	if !ok || actorID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "unauthorized"})
	}
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "missing transaction id"})
	}

	t, completed, err := eng.Release(c.Request().Context(), id, actorID)
	if err != nil {
		return apperr.Respond(c, err)
	}
	if completed {
		NotifyCompleted(t)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": t, "completed": completed})
}

type DisputeRequest struct {
	Reason string `json:"reason"`
}

// =========================
// DisputeTransaction - Either side freezes the escrow for admin review
// =========================
func DisputeTransaction(c echo.Context) error {
	actorID, ok := c.Get("user_id").(string)
	if !ok || actorID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "unauthorized"})
	}
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "missing transaction id"})
	}

	var req DisputeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid request"})
	}

	t, err := eng.Dispute(c.Request().Context(), id, actorID, req.Reason)
	if err != nil {
		return apperr.Respond(c, err)
	}
	notifyDisputed(t, actorID, req.Reason)
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": t})
}

// =========================
// CancelTransaction - Either side aborts the reservation
// =========================
func CancelTransaction(c echo.Context) error {
	actorID, ok := c.Get("user_id").(string)
	if !ok || actorID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "unauthorized"})
	}
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "missing transaction id"})
	}

	t, err := eng.Cancel(c.Request().Context(), id, actorID)
	if err != nil {
		return apperr.Respond(c, err)
	}
	NotifyCancelled(t, actorID)
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": t})
}

// =========================
// Dashboard - Caller's transaction summary and trust score
// =========================
func Dashboard(c echo.Context) error {
	actorID, ok := c.Get("user_id").(string)
	if !ok || actorID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "unauthorized"})
	}

	stats, err := eng.Store().DashboardStats(c.Request().Context(), actorID)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": stats})
}
