package auth

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/sudo-init-do/campusmarket/internal/alerts"
	"github.com/sudo-init-do/campusmarket/internal/db"
	"github.com/sudo-init-do/campusmarket/internal/market"
)

type SignupRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Phone    string `json:"phone"`
	Hostel   string `json:"hostel"`
}

type SignupResponse struct {
	Token string `json:"token"`
}

// ===== Signup =====
func Signup(c echo.Context) error {
	req := new(SignupRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid request"})
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || email == "" || len(req.Password) < 6 {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "name, email and a password of at least 6 characters are required"})
	}

	// Only campus addresses may register when CAMPUS_EMAIL_DOMAIN is set
	if domain := os.Getenv("CAMPUS_EMAIL_DOMAIN"); domain != "" {
		if !strings.HasSuffix(email, "@"+strings.TrimPrefix(domain, "@")) {
			return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "a campus email address is required"})
		}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "server error"})
	}

	conn := db.Conn
	ctx := context.Background()

	var userID string
	err = conn.QueryRow(ctx, `
		INSERT INTO users (id, name, email, password, role, phone, hostel, trust_score)
		VALUES ($1, $2, $3, $4, 'student', $5, $6, $7)
		RETURNING id
	`, uuid.New().String(), req.Name, email, string(hashed), req.Phone, req.Hostel, market.TrustDefault).Scan(&userID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "email already registered"})
	}

	// Best-effort welcome email
	_ = alerts.EnqueueWelcomeEmail(userID, email, req.Name)

	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    "student",
		"exp":     time.Now().Add(72 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(os.Getenv("JWT_SECRET")))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "token generation failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": SignupResponse{Token: signed}})
}
