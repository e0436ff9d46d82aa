package auth

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/campusmarket/internal/db"
)

// Me returns the currently authenticated user's profile
func Me(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "invalid or missing token"})
	}

	var (
		id, name, email, role, phone, hostel string
		trustScore                           float64
		totalRatings                         int
		totalTx, successfulTx                int
	)
	err := db.Conn.QueryRow(context.Background(), `
		SELECT id, name, email, role, phone, hostel,
		       trust_score, total_ratings_received, total_transactions, successful_transactions
		FROM users WHERE id = $1
	`, userID).Scan(&id, &name, &email, &role, &phone, &hostel,
		&trustScore, &totalRatings, &totalTx, &successfulTx)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "user not found"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"id":                      id,
			"name":                    name,
			"email":                   email,
			"role":                    role,
			"phone":                   phone,
			"hostel":                  hostel,
			"trust_score":             trustScore,
			"total_ratings_received":  totalRatings,
			"total_transactions":      totalTx,
			"successful_transactions": successfulTx,
		},
	})
}
