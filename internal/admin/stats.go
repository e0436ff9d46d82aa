package admin

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/campusmarket/internal/db"
)

// GET /api/admin/stats
func Stats(c echo.Context) error {
	ctx := context.Background()

	var users, listings, transactions, reviews, disputes, banned int

	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&users)
	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE is_banned`).Scan(&banned)
	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM listings WHERE status <> 'Removed'`).Scan(&listings)
	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&transactions)
	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM transactions WHERE status = 'Disputed'`).Scan(&disputes)
	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM reviews`).Scan(&reviews)

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"users":         users,
			"banned_users":  banned,
			"listings":      listings,
			"transactions":  transactions,
			"open_disputes": disputes,
			"reviews":       reviews,
		},
	})
}
