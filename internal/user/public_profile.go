package user

import (
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/campusmarket/internal/db"
)

// GET /api/users/:id
func GetPublicProfile(c echo.Context) error {
	userID := c.Param("id")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "missing user id"})
	}

	var (
		id, name, hostel string
		trustScore       float64
		totalRatings     int
		totalTx          int
		successfulTx     int
		createdAt        time.Time
	)

	query := `
		SELECT id, name, hostel, trust_score,
		       total_ratings_received, total_transactions, successful_transactions, created_at
		FROM users
		WHERE id = $1 AND NOT is_banned
	`

	err := db.Conn.QueryRow(c.Request().Context(), query, userID).Scan(
		&id, &name, &hostel, &trustScore,
		&totalRatings, &totalTx, &successfulTx, &createdAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "failed to fetch user"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"id":                      id,
			"name":                    name,
			"hostel":                  hostel,
			"trust_score":             trustScore,
			"total_ratings_received":  totalRatings,
			"total_transactions":      totalTx,
			"successful_transactions": successfulTx,
			"member_since":            createdAt.Format(time.RFC3339),
		},
	})
}
