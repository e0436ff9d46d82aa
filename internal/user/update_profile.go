package user

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/campusmarket/internal/db"
)

type UpdateProfileRequest struct {
	Name           string `json:"name"`
	Phone          string `json:"phone"`
	Hostel         string `json:"hostel"`
	ProfilePicture string `json:"profile_picture"`
}

// PATCH /api/users/profile
func UpdateProfile(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "invalid or missing token"})
	}

	var req UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid request"})
	}

	query := `
		UPDATE users
		SET name = COALESCE(NULLIF($1, ''), name),
		    phone = COALESCE(NULLIF($2, ''), phone),
		    hostel = COALESCE(NULLIF($3, ''), hostel),
		    profile_picture = COALESCE(NULLIF($4, ''), profile_picture),
		    updated_at = NOW()
		WHERE id = $5
	`
	_, err := db.Conn.Exec(c.Request().Context(), query, req.Name, req.Phone, req.Hostel, req.ProfilePicture, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "failed to update profile"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "profile updated successfully",
	})
}
