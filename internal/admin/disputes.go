package admin

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/campusmarket/internal/alerts"
	"github.com/sudo-init-do/campusmarket/internal/apperr"
	"github.com/sudo-init-do/campusmarket/internal/db"
)

type AdminDispute struct {
	TransactionID string  `json:"transaction_id"`
	ListingID     string  `json:"listing_id"`
	BuyerID       string  `json:"buyer_id"`
	SellerID      string  `json:"seller_id"`
	RaisedBy      string  `json:"raised_by"`
	Reason        string  `json:"reason"`
	AgreedPrice   int64   `json:"agreed_price"`
	RaisedAt      *string `json:"raised_at"`
}

// GET /api/admin/disputes
func ListDisputes(c echo.Context) error {
	rows, err := db.Conn.Query(context.Background(),
		`SELECT id::text, listing_id::text, buyer_id::text, seller_id::text,
                COALESCE(dispute_raised_by::text, ''), dispute_reason, agreed_price, dispute_raised_at
         FROM transactions WHERE status = 'Disputed' ORDER BY dispute_raised_at DESC`,
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "could not fetch disputes"})
	}
	defer rows.Close()

	var items []AdminDispute
	for rows.Next() {
		var d AdminDispute
		var raisedAt *time.Time
		if err := rows.Scan(&d.TransactionID, &d.ListingID, &d.BuyerID, &d.SellerID, &d.RaisedBy, &d.Reason, &d.AgreedPrice, &raisedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "failed to read dispute record"})
		}
		if raisedAt != nil {
			s := raisedAt.UTC().Format(time.RFC3339)
			d.RaisedAt = &s
		}
		items = append(items, d)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"disputes": items}})
}

type ResolveDisputeRequest struct {
	Resolution string `json:"resolution"`
	Relist     bool   `json:"relist"`
}

// POST /api/admin/disputes/:id/resolve
func ResolveDispute(c echo.Context) error {
	adminID, ok := c.Get("user_id").(string)
	if !ok || adminID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "unauthorized"})
	}
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "transaction id required"})
	}
	var req ResolveDisputeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid payload"})
	}

	t, err := eng.ResolveDispute(c.Request().Context(), id, req.Resolution, req.Relist)
	if err != nil {
		return apperr.Respond(c, err)
	}

	// Notify participants
	for _, uid := range []string{t.BuyerID, t.SellerID} {
		_ = alerts.CreateNotification(uid, "dispute_resolved", "Dispute resolved", req.Resolution, &t.ID)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "resolved", "data": t})
}
