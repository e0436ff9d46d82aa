package listing

import (
	"log"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/campusmarket/internal/apperr"
	"github.com/sudo-init-do/campusmarket/internal/market"
)

var eng *market.Engine

// Init wires the handlers to the escrow engine. Must be called before the
// routes are registered.
func Init(e *market.Engine) { eng = e }

type CreateListingRequest struct {
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	Price        int64          `json:"price"`
	Category     string         `json:"category"`
	Condition    string         `json:"condition"`
	IsNegotiable bool           `json:"is_negotiable"`
	Tags         []string       `json:"tags"`
	Images       []market.Image `json:"images"`
}

// =========================
// CreateListing - Seller posts an item
// =========================
func CreateListing(c echo.Context) error {
	sellerID, ok := c.Get("user_id").(string)
	if !ok || sellerID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "unauthorized"})
	}

	var req CreateListingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid request"})
	}

	l, err := eng.CreateListing(c.Request().Context(), market.Listing{
		SellerID:     sellerID,
		Title:        req.Title,
		Description:  req.Description,
		Price:        req.Price,
		Category:     req.Category,
		Condition:    req.Condition,
		IsNegotiable: req.IsNegotiable,
		Tags:         req.Tags,
		Images:       req.Images,
	})
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": l})
}

// =========================
// GetListing - Public detail view, counts a view
// =========================
func GetListing(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "missing listing id"})
	}

	l, err := eng.Store().GetListing(c.Request().Context(), id)
	if err != nil {
		return apperr.Respond(c, err)
	}
	if l.Status == market.ListingRemoved {
		return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "listing not found"})
	}

	// View counting is best-effort and does not touch the returned copy.
	if err := eng.Store().IncrementListingViews(c.Request().Context(), id); err != nil {
		log.Printf("listing: view increment failed for %s: %v", id, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": l})
}

// =========================
// SearchListings - Public catalogue with filters and pagination
// =========================
func SearchListings(c echo.Context) error {
	q := market.ListingQuery{
		Search:    c.QueryParam("q"),
		Category:  c.QueryParam("category"),
		Condition: c.QueryParam("condition"),
		Status:    market.ListingAvailable,
		SortDesc:  c.QueryParam("sort") != "oldest",
	}
	if v := c.QueryParam("min_price"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			q.MinPrice = &n
		}
	}
	if v := c.QueryParam("max_price"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			q.MaxPrice = &n
		}
	}
	q.Page, _ = strconv.Atoi(c.QueryParam("page"))
	q.Limit, _ = strconv.Atoi(c.QueryParam("limit"))

	items, total, err := eng.Store().ListListings(c.Request().Context(), q)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"listings": items,
			"total":    total,
			"page":     max(q.Page, 1),
		},
	})
}

// =========================
// MyListings - Seller's own listings across all statuses
// =========================
func MyListings(c echo.Context) error {
	sellerID, ok := c.Get("user_id").(string)
	if !ok || sellerID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "unauthorized"})
	}

	q := market.ListingQuery{SellerID: sellerID, SortDesc: true}
	q.Page, _ = strconv.Atoi(c.QueryParam("page"))
	q.Limit, _ = strconv.Atoi(c.QueryParam("limit"))

	items, total, err := eng.Store().ListListings(c.Request().Context(), q)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"listings": items, "total": total},
	})
}

type UpdateListingRequest struct {
	Title        *string  `json:"title"`
	Description  *string  `json:"description"`
	Price        *int64   `json:"price"`
	Category     *string  `json:"category"`
	Condition    *string  `json:"condition"`
	IsNegotiable *bool    `json:"is_negotiable"`
	Tags         []string `json:"tags"`
}

// =========================
// UpdateListing - Seller edits an Available listing
// =========================
func UpdateListing(c echo.Context) error {
	sellerID, ok := c.Get("user_id").(string)
	if !ok || sellerID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "unauthorized"})
	}
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "missing listing id"})
	}

	var req UpdateListingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid request"})
	}

	l, err := eng.EditListing(c.Request().Context(), id, sellerID, market.ListingEdit{
		Title:        req.Title,
		Description:  req.Description,
		Price:        req.Price,
		Category:     req.Category,
		Condition:    req.Condition,
		IsNegotiable: req.IsNegotiable,
		Tags:         req.Tags,
	})
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": l})
}

// =========================
// DeleteListing - Seller removes a listing (soft delete)
// =========================
func DeleteListing(c echo.Context) error {
	sellerID, ok := c.Get("user_id").(string)
	if !ok || sellerID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "unauthorized"})
	}
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "missing listing id"})
	}

	if _, err := eng.RemoveListing(c.Request().Context(), id, sellerID); err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "listing removed"})
}

type AddImagesRequest struct {
	Images []market.Image `json:"images"`
}

// =========================
// AddImages - Seller attaches already-uploaded image URLs
// =========================
func AddImages(c echo.Context) error {
	sellerID, ok := c.Get("user_id").(string)
	if !ok || sellerID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "unauthorized"})
	}
	id := c.Param("id")

	var req AddImagesRequest
	if err := c.Bind(&req); err != nil || len(req.Images) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "images are required"})
	}

	l, err := eng.Store().GetListing(c.Request().Context(), id)
	if err != nil {
		return apperr.Respond(c, err)
	}
	if l.SellerID != sellerID {
		return c.JSON(http.StatusForbidden, echo.Map{"success": false, "message": "not authorized to update this listing"})
	}

	l, err = eng.Store().AddListingImages(c.Request().Context(), id, req.Images)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": l})
}

// =========================
// GetCategories - Static category and condition lists for the client
// =========================
func GetCategories(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"categories": market.Categories,
			"conditions": market.Conditions,
		},
	})
}
