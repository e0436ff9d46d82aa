package admin

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/campusmarket/internal/db"
	"github.com/sudo-init-do/campusmarket/internal/market"
)

var eng *market.Engine

// Init wires the admin handlers to the escrow engine. Must be called before
// the routes are registered.
func Init(e *market.Engine) { eng = e }

type AdminUser struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	TrustScore float64   `json:"trust_score"`
	IsBanned   bool      `json:"is_banned"`
	CreatedAt  time.Time `json:"created_at"`
}

// GET /api/admin/users
func ListUsers(c echo.Context) error {
	rows, err := db.Conn.Query(context.Background(),
		`SELECT id, name, email, role, trust_score, is_banned, created_at
         FROM users ORDER BY created_at DESC`,
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "could not fetch users"})
	}
	defer rows.Close()

	var users []AdminUser
	for rows.Next() {
		var u AdminUser
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.TrustScore, &u.IsBanned, &u.CreatedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "failed to read user record"})
		}
		users = append(users, u)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"users": users}})
}

// POST /api/admin/users/:id/ban
func BanUser(c echo.Context) error {
	userID := c.Param("id")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "user id required"})
	}
	res, err := db.Conn.Exec(context.Background(), `UPDATE users SET is_banned = TRUE, updated_at = NOW() WHERE id = $1`, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "failed to ban user"})
	}
	if res.RowsAffected() == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "user not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "user banned", "data": echo.Map{"user_id": userID}})
}

// POST /api/admin/users/:id/unban
func UnbanUser(c echo.Context) error {
	userID := c.Param("id")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "user id required"})
	}
	res, err := db.Conn.Exec(context.Background(), `UPDATE users SET is_banned = FALSE, updated_at = NOW() WHERE id = $1`, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "failed to unban user"})
	}
	if res.RowsAffected() == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "user not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "user unbanned", "data": echo.Map{"user_id": userID}})
}
