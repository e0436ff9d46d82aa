package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/sudo-init-do/campusmarket/internal/admin"
	"github.com/sudo-init-do/campusmarket/internal/alerts"
	"github.com/sudo-init-do/campusmarket/internal/auth"
	"github.com/sudo-init-do/campusmarket/internal/db"
	"github.com/sudo-init-do/campusmarket/internal/listing"
	"github.com/sudo-init-do/campusmarket/internal/market"
	appmw "github.com/sudo-init-do/campusmarket/internal/middleware"
	"github.com/sudo-init-do/campusmarket/internal/review"
	"github.com/sudo-init-do/campusmarket/internal/store/postgres"
	"github.com/sudo-init-do/campusmarket/internal/transaction"
	"github.com/sudo-init-do/campusmarket/internal/user"
)

func main() {
	_ = godotenv.Load()

	// Init subsystems
	db.Init()
	alerts.Init()
	defer alerts.Close()

	// Single escrow engine behind every listing/transaction mutation
	eng := market.NewEngine(postgres.New(db.Conn))
	listing.Init(eng)
	transaction.Init(eng)
	review.Init(eng)
	admin.Init(eng)

	sweep := transaction.StartExpirySweep(eng)
	defer sweep.Stop()

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// Health
	e.GET("/health", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/ready", func(c echo.Context) error {
		if err := db.Conn.Ping(context.Background()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "not_ready"})
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ready"})
	})

	api := e.Group("/api")

	// Public auth routes with per-IP rate limiting against abuse
	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(20)))
	authGroup.POST("/signup", auth.Signup)
	authGroup.POST("/login", auth.Login)

	// Public catalogue and profiles
	api.GET("/listings", listing.SearchListings)
	api.GET("/listings/categories", listing.GetCategories)
	api.GET("/listings/:id", listing.GetListing)
	api.GET("/users/:id", user.GetPublicProfile)
	api.GET("/reviews/user/:userId", review.ListUserReviews)

	// Authenticated group
	g := api.Group("")
	g.Use(appmw.JWTMiddleware)

	g.GET("/auth/me", auth.Me)
	g.PATCH("/users/profile", user.UpdateProfile)

	// Listings
	g.POST("/listings", listing.CreateListing)
	g.GET("/listings/my", listing.MyListings)
	g.PATCH("/listings/:id", listing.UpdateListing)
	g.DELETE("/listings/:id", listing.DeleteListing)
	g.POST("/listings/:id/images", listing.AddImages)
	g.POST("/listings/:id/reserve", listing.ReserveListing)
	g.POST("/listings/:id/complete", listing.CompleteListing)
	g.POST("/listings/:id/cancel", listing.CancelReservation)

	// Transactions
	g.POST("/transactions", transaction.CreateTransaction)
	g.GET("/transactions/my", transaction.MyTransactions)
	g.GET("/transactions/dashboard", transaction.Dashboard)
	g.GET("/transactions/:id", transaction.GetTransaction)
	g.POST("/transactions/:id/confirm", transaction.ConfirmTransaction)
	g.POST("/transactions/:id/release", transaction.ReleaseTransaction)
	g.POST("/transactions/:id/dispute", transaction.DisputeTransaction)
	g.POST("/transactions/:id/cancel", transaction.CancelTransaction)

	// Reviews
	g.POST("/reviews", review.SubmitReview)

	// Notifications
	g.GET("/notifications", alerts.ListNotifications)
	g.POST("/notifications/:id/read", alerts.MarkNotificationRead)

	// Admin routes
	adminGroup := api.Group("/admin")
	adminGroup.Use(appmw.JWTMiddleware)
	adminGroup.Use(appmw.AdminGuard)
	adminGroup.GET("/stats", admin.Stats)
	adminGroup.GET("/users", admin.ListUsers)
	adminGroup.POST("/users/:id/ban", admin.BanUser)
	adminGroup.POST("/users/:id/unban", admin.UnbanUser)
	adminGroup.GET("/disputes", admin.ListDisputes)
	adminGroup.POST("/disputes/:id/resolve", admin.ResolveDispute)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("API server listening on :%s", port)
	if err := e.Start(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
