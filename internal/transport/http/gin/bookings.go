package httpgin

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	redisrepo "github.com/kirinyoku/stow/internal/repository/redis"
	"github.com/kirinyoku/stow/internal/service"
	"github.com/kirinyoku/stow/internal/service/booking"
)

// @Summary  Preview booking price
// @Param    req body  PreviewPriceRequest true "payload"
// @Success  200 {object} pricing.Breakdown
// @Failure  400 {object} ErrorResponse
// @Failure  404 {object} ErrorResponse
// @Failure  429 {object} ErrorResponse "rate limited"
// @Router   /api/bookings/preview-price [post]
func handlePreviewPrice(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PreviewPriceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		start, end, ok := parseRange(c, req.StartTime, req.EndTime)
		if !ok {
			return
		}

		quote, err := svcs.Booking.Preview(c.Request.Context(), uuid.MustParse(req.ListingID), start, end)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, quote)
	}
}

// @Summary  Create booking (idempotent)
// @Security BearerAuth
// @Param    req body  CreateBookingRequest true "payload"
// @Header   201 {string} Idempotency-Key "echo"
// @Success  201 {object} domain.Booking
// @Failure  400 {object} ErrorResponse
// @Failure  403 {object} ErrorResponse "own listing"
// @Failure  404 {object} ErrorResponse
// @Failure  409 {object} ErrorResponse "slot unavailable / idem in progress"
// @Router   /api/bookings [post]
func handleCreateBooking(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateBookingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		start, end, ok := parseRange(c, req.StartTime, req.EndTime)
		if !ok {
			return
		}

		in := booking.CreateInput{
			ListingID:       uuid.MustParse(req.ListingID),
			Start:           start,
			End:             end,
			ItemPhotos:      req.ItemPhotos,
			ItemDescription: req.ItemDescription,
		}

		if req.SubSlotID != nil {
			id := uuid.MustParse(*req.SubSlotID)
			in.SubSlotID = &id
		}

		ctx := c.Request.Context()
		seekerID := currentUser(c)

		idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
		var idemStorageKey string
		if idem != nil && idemKey != "" {
			idemStorageKey = redisrepo.KeyIdemBooking(seekerID, idemKey)

			if payload, ok, _ := idem.GetResult(ctx, idemStorageKey); ok {
				replay(c, idemKey, payload)
				return
			}

			locked, err := idem.AcquireLock(ctx, idemStorageKey, 60*time.Second)
			if err != nil {
				respondErr(c, err)
				return
			}
			if !locked {
				if payload, ok, _ := idem.GetResult(ctx, idemStorageKey); ok {
					replay(c, idemKey, payload)
					return
				}
				c.Header("Retry-After", "1")
				c.JSON(http.StatusConflict, ErrorResponse{Error: "idempotency key in progress"})
				return
			}
		}

		b, err := svcs.Booking.Create(ctx, seekerID, in)
		if err != nil {
			if idemStorageKey != "" {
				_ = idem.Release(ctx, idemStorageKey)
			}
			respondErr(c, err)
			return
		}

		if idemStorageKey != "" {
			payload, _ := json.Marshal(b)
			_ = idem.SaveResult(ctx, idemStorageKey, string(payload))
			c.Header("Idempotency-Key", idemKey)
		}

		c.JSON(http.StatusCreated, b)
	}
}

func replay(c *gin.Context, idemKey, payload string) {
	c.Header("Idempotency-Key", idemKey)
	c.Data(http.StatusCreated, "application/json; charset=utf-8", []byte(payload))
}

// @Summary  List bookings made by the caller
// @Security BearerAuth
// @Param    limit  query  int  false "page size"
// @Param    offset query  int  false "offset"
// @Success  200 {array} domain.BookingSummary
// @Router   /api/bookings/mine [get]
func handleListMyBookings(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := svcs.Booking.ListMine(c.Request.Context(), currentUser(c), pageOf(c))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// @Summary  List bookings on the caller's listings
// @Security BearerAuth
// @Param    limit  query  int  false "page size"
// @Param    offset query  int  false "offset"
// @Success  200 {array} domain.BookingSummary
// @Router   /api/bookings/provider [get]
func handleListProviderBookings(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := svcs.Booking.ListProvider(c.Request.Context(), currentUser(c), pageOf(c))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// @Summary  Get booking
// @Security BearerAuth
// @Param    id  path  string  true  "Booking ID (uuid)"
// @Success  200 {object} domain.Booking
// @Failure  403 {object} ErrorResponse
// @Failure  404 {object} ErrorResponse
// @Router   /api/bookings/{id} [get]
func handleGetBooking(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		b, err := svcs.Booking.Get(c.Request.Context(), id, currentUser(c))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, b)
	}
}

// @Summary  Cancel booking
// @Description Full refund when cancelled at least 24h before start, none otherwise.
// @Security BearerAuth
// @Param    id  path  string  true  "Booking ID (uuid)"
// @Success  200 {object} domain.Booking
// @Failure  403 {object} ErrorResponse
// @Failure  404 {object} ErrorResponse
// @Failure  409 {object} ErrorResponse
// @Router   /api/bookings/{id}/cancel [patch]
func handleCancelBooking(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		b, err := svcs.Booking.Cancel(c.Request.Context(), id, currentUser(c))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, b)
	}
}

// @Summary  Free 15-minute slots on a day
// @Param    listingId    path   string  true  "Listing ID (uuid)"
// @Param    date         query  string  false "YYYY-MM-DD (UTC), defaults to today"
// @Param    sub_slot_id  query  string  false "Sub-slot ID (uuid)"
// @Success  200 {object} SlotsResponse
// @Failure  404 {object} ErrorResponse
// @Router   /api/bookings/slots/{listingId} [get]
func handleAvailableSlots(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		listingID, ok := parseUUIDParam(c, "listingId")
		if !ok {
			return
		}

		day := time.Now().UTC()
		if s := c.Query("date"); s != "" {
			d, err := time.Parse(time.DateOnly, s)
			if err != nil {
				badRequest(c, "invalid date (YYYY-MM-DD)")
				return
			}
			day = d
		}

		var subSlotID *uuid.UUID
		if s := c.Query("sub_slot_id"); s != "" {
			id, err := uuid.Parse(s)
			if err != nil {
				badRequest(c, "invalid sub_slot_id")
				return
			}
			subSlotID = &id
		}

		slots, err := svcs.Booking.AvailableSlots(c.Request.Context(), listingID, subSlotID, day)
		if err != nil {
			respondErr(c, err)
			return
		}

		writeJSONWithCache(c, http.StatusOK, SlotsResponse{
			ListingID: listingID,
			SubSlotID: subSlotID,
			Date:      day.Format(time.DateOnly),
			Slots:     slots,
		}, "public, max-age=15", true)
	}
}

func parseRange(c *gin.Context, startRaw, endRaw string) (start, end time.Time, ok bool) {
	start, err := parseRFC3339(startRaw)
	if err != nil {
		badRequest(c, "invalid start_time (RFC3339)")
		return time.Time{}, time.Time{}, false
	}
	end, err = parseRFC3339(endRaw)
	if err != nil {
		badRequest(c, "invalid end_time (RFC3339)")
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

func pageOf(c *gin.Context) booking.Page {
	return booking.Page{
		Limit:  parseIntDefault(c.Query("limit"), 0),
		Offset: parseIntDefault(c.Query("offset"), 0),
	}
}
