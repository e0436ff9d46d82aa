package review

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/campusmarket/internal/alerts"
	"github.com/sudo-init-do/campusmarket/internal/apperr"
	"github.com/sudo-init-do/campusmarket/internal/db"
	"github.com/sudo-init-do/campusmarket/internal/market"
)

var eng *market.Engine

// Init wires the handlers to the escrow engine. Must be called before the
// routes are registered.
func Init(e *market.Engine) { eng = e }

type SubmitReviewRequest struct {
	TransactionID string `json:"transaction_id"`
	Rating        int    `json:"rating"`
	Comment       string `json:"comment"`
}

// =========================
// SubmitReview - Participant rates the other side of a completed sale
// =========================
func SubmitReview(c echo.Context) error {
	reviewerID, ok := c.Get("user_id").(string)
	if !ok || reviewerID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "unauthorized"})
	}

	var req SubmitReviewRequest
	if err := c.Bind(&req); err != nil || req.TransactionID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "transaction_id is required"})
	}

	r, err := eng.SubmitReview(c.Request().Context(), req.TransactionID, reviewerID, req.Rating, req.Comment)
	if err != nil {
		return apperr.Respond(c, err)
	}

	// Best-effort reviewee notification
	var email string
	_ = db.Conn.QueryRow(context.Background(), `SELECT email FROM users WHERE id = $1`, r.RevieweeID).Scan(&email)
	if email != "" {
		_ = alerts.EnqueueReviewReceived(r.ID, r.TransactionID, r.RevieweeID, email, r.Rating)
	}
	_ = alerts.CreateNotification(r.RevieweeID, "review_received", "You received a new review",
		"You were rated "+strconv.Itoa(r.Rating)+"/5 on a recent transaction.", &r.ID)

	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": r})
}

// =========================
// ListUserReviews - Public review history for a user, newest first
// =========================
func ListUserReviews(c echo.Context) error {
	userID := c.Param("userId")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "missing user id"})
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	reviews, total, err := eng.Store().ListReviewsForUser(c.Request().Context(), userID, page, limit)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"reviews": reviews, "total": total},
	})
}
