package httpgin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kirinyoku/stow/internal/service"
	"github.com/kirinyoku/stow/internal/service/listing"
)

// @Summary  Create listing
// @Security BearerAuth
// @Param    req body  CreateListingRequest true "payload"
// @Success  201 {object} domain.Listing
// @Failure  400 {object} ErrorResponse
// @Router   /api/listings [post]
func handleCreateListing(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateListingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		l, err := svcs.Listing.Create(c.Request.Context(), currentUser(c), req.input())
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, l)
	}
}

// @Summary  Get listing with its sub-slots
// @Param    id  path  string  true  "Listing ID (uuid)"
// @Success  200 {object} domain.ListingDetail
// @Failure  404 {object} ErrorResponse
// @Router   /api/listings/{id} [get]
func handleGetListing(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		l, err := svcs.Listing.Get(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		// ETag + Cache-Control 60s
		writeJSONWithCache(c, http.StatusOK, l, "public, max-age=60", true)
	}
}

// @Summary  List the caller's listings
// @Security BearerAuth
// @Success  200 {array} domain.OwnedListing
// @Router   /api/listings/user/mine [get]
func handleListMyListings(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := svcs.Listing.ListMine(c.Request.Context(), currentUser(c))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// @Summary  Update listing
// @Security BearerAuth
// @Param    id  path  string  true  "Listing ID (uuid)"
// @Param    req body  UpdateListingRequest true "payload"
// @Success  200 {object} domain.Listing
// @Failure  400 {object} ErrorResponse
// @Failure  403 {object} ErrorResponse
// @Failure  404 {object} ErrorResponse
// @Router   /api/listings/{id} [put]
func handleUpdateListing(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		var req UpdateListingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		l, err := svcs.Listing.Update(c.Request.Context(), id, currentUser(c), req.patch())
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, l)
	}
}

// @Summary  Delete listing
// @Security BearerAuth
// @Param    id  path  string  true  "Listing ID (uuid)"
// @Success  200 {object} DeletedResponse
// @Failure  403 {object} ErrorResponse
// @Failure  404 {object} ErrorResponse
// @Failure  409 {object} ErrorResponse "active bookings"
// @Router   /api/listings/{id} [delete]
func handleDeleteListing(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		if err := svcs.Listing.Delete(c.Request.Context(), id, currentUser(c)); err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, DeletedResponse{Deleted: id})
	}
}

// @Summary  Add a bookable sub-slot
// @Security BearerAuth
// @Param    id  path  string  true  "Listing ID (uuid)"
// @Param    req body  CreateSubSlotRequest true "payload"
// @Success  201 {object} domain.SubSlot
// @Failure  400 {object} ErrorResponse
// @Failure  403 {object} ErrorResponse
// @Router   /api/listings/{id}/subslots [post]
func handleAddSubSlot(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		var req CreateSubSlotRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		slot, err := svcs.Listing.AddSubSlot(c.Request.Context(), id, currentUser(c), listing.SubSlotInput{
			Label:    req.Label,
			LengthFt: req.LengthFt,
			WidthFt:  req.WidthFt,
			HeightFt: req.HeightFt,
		})
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, slot)
	}
}

// @Summary  Split a storage listing
// @Description Shrinks the listing and publishes the freed area as a new child listing.
// @Security BearerAuth
// @Param    id  path  string  true  "Listing ID (uuid)"
// @Param    req body  SplitRequest true "payload"
// @Success  201 {object} listing.SplitResult
// @Failure  400 {object} ErrorResponse
// @Failure  403 {object} ErrorResponse
// @Router   /api/listings/{id}/split [post]
func handleSplitListing(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		var req SplitRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		res, err := svcs.Listing.Split(c.Request.Context(), id, currentUser(c), req.NewLengthFt, req.NewWidthFt)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, res)
	}
}
