package httpgin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kirinyoku/stow/internal/service"
)

// @Summary  Issue a one-time QR token for the next custody step
// @Security BearerAuth
// @Param    bookingId  path  string  true  "Booking ID (uuid)"
// @Success  200 {object} custody.TokenGrant
// @Failure  403 {object} ErrorResponse "not the provider"
// @Failure  409 {object} ErrorResponse "cancelled / completed"
// @Router   /api/custody/{bookingId}/generate-qr [post]
func handleGenerateQR(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "bookingId")
		if !ok {
			return
		}
		grant, err := svcs.Custody.GenerateToken(c.Request.Context(), id, currentUser(c))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.Header("Cache-Control", "no-store")
		c.JSON(http.StatusOK, grant)
	}
}

// @Summary  Redeem a scanned QR token
// @Security BearerAuth
// @Param    bookingId  path  string       true  "Booking ID (uuid)"
// @Param    req        body  ScanRequest  true  "payload"
// @Success  200 {object} domain.Booking
// @Failure  400 {object} ErrorResponse "invalid token"
// @Failure  403 {object} ErrorResponse "not the seeker"
// @Failure  429 {object} ErrorResponse "too many attempts"
// @Router   /api/custody/{bookingId}/scan [post]
func handleScan(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "bookingId")
		if !ok {
			return
		}
		var req ScanRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		b, err := svcs.Custody.Redeem(c.Request.Context(), id, currentUser(c), req.ScanToken)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, b)
	}
}

// @Summary  Custody status
// @Security BearerAuth
// @Param    bookingId  path  string  true  "Booking ID (uuid)"
// @Success  200 {object} custody.View
// @Failure  403 {object} ErrorResponse
// @Failure  404 {object} ErrorResponse
// @Router   /api/custody/{bookingId} [get]
func handleCustodyStatus(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "bookingId")
		if !ok {
			return
		}
		v, err := svcs.Custody.Status(c.Request.Context(), id, currentUser(c))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, v)
	}
}
