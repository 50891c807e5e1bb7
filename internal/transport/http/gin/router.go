package httpgin

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/kirinyoku/stow/internal/pricing"
	redisrepo "github.com/kirinyoku/stow/internal/repository/redis"
	"github.com/kirinyoku/stow/internal/service"
	"github.com/kirinyoku/stow/internal/service/booking"
	"github.com/kirinyoku/stow/internal/service/custody"
	"github.com/kirinyoku/stow/internal/service/listing"
)

type Options struct {
	JWTSecret      []byte
	Idempotency    *redisrepo.IdempotencyStore
	PreviewLimiter *redisrepo.SlidingWindowLimiter
}

func NewRouter(
	svcs *service.Services,
	opts Options,
	logger *slog.Logger,
	middlewares ...gin.HandlerFunc,
) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery(), RequestIDMiddleware(), LoggingMiddleware(logger), CORS())
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	// Swagger UI
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// health
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := AuthMiddleware(opts.JWTSecret)
	api := r.Group("/api")

	bookings := api.Group("/bookings")
	{
		bookings.POST("/preview-price", RateLimitByIP(opts.PreviewLimiter, logger), handlePreviewPrice(svcs))
		bookings.GET("/slots/:listingId", handleAvailableSlots(svcs))

		bookings.POST("", auth, handleCreateBooking(svcs, opts.Idempotency))
		bookings.GET("/mine", auth, handleListMyBookings(svcs))
		bookings.GET("/provider", auth, handleListProviderBookings(svcs))
		bookings.GET("/:id", auth, handleGetBooking(svcs))
		bookings.PATCH("/:id/cancel", auth, handleCancelBooking(svcs))
	}

	cust := api.Group("/custody", auth)
	{
		cust.POST("/:bookingId/generate-qr", handleGenerateQR(svcs))
		cust.POST("/:bookingId/scan", handleScan(svcs))
		cust.GET("/:bookingId", handleCustodyStatus(svcs))
	}

	listings := api.Group("/listings")
	{
		listings.GET("/:id", handleGetListing(svcs))

		listings.POST("", auth, handleCreateListing(svcs))
		listings.GET("/user/mine", auth, handleListMyListings(svcs))
		listings.PUT("/:id", auth, handleUpdateListing(svcs))
		listings.DELETE("/:id", auth, handleDeleteListing(svcs))
		listings.POST("/:id/subslots", auth, handleAddSubSlot(svcs))
		listings.POST("/:id/split", auth, handleSplitListing(svcs))
	}

	return r
}

// --- Helpers ---

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

type errStatus struct {
	err    error
	status int
}

// statusTable maps business errors to HTTP statuses. Anything missing is a
// 500 with a generic body.
var statusTable = []errStatus{
	// booking service
	{booking.ErrInvalidTimeRange, http.StatusBadRequest},
	{pricing.ErrInvalidRange, http.StatusBadRequest},
	{booking.ErrListingNotFound, http.StatusNotFound},
	{booking.ErrSubSlotNotFound, http.StatusNotFound},
	{booking.ErrBookingNotFound, http.StatusNotFound},
	{booking.ErrSelfBooking, http.StatusForbidden},
	{booking.ErrForbidden, http.StatusForbidden},
	{booking.ErrListingInactive, http.StatusConflict},
	{booking.ErrSlotUnavailable, http.StatusConflict},
	{booking.ErrAlreadyCancelled, http.StatusConflict},
	{booking.ErrCustodyInProgress, http.StatusConflict},
	{booking.ErrAlreadyCompleted, http.StatusConflict},
	// custody service
	{custody.ErrBookingNotFound, http.StatusNotFound},
	{custody.ErrForbidden, http.StatusForbidden},
	{custody.ErrBookingCancelled, http.StatusConflict},
	{custody.ErrAlreadyCompleted, http.StatusConflict},
	{custody.ErrInvalidTransition, http.StatusBadRequest},
	{custody.ErrInvalidToken, http.StatusBadRequest},
	{custody.ErrTooManyAttempts, http.StatusTooManyRequests},
	// listing service
	{listing.ErrListingNotFound, http.StatusNotFound},
	{listing.ErrForbidden, http.StatusForbidden},
	{listing.ErrActiveBookings, http.StatusConflict},
	{listing.ErrInvalidInput, http.StatusBadRequest},
	{listing.ErrLocationRequired, http.StatusBadRequest},
	{listing.ErrInvalidDimensions, http.StatusBadRequest},
	{listing.ErrNoSpaceRemaining, http.StatusBadRequest},
}

func respondErr(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	for _, e := range statusTable {
		if errors.Is(err, e.err) {
			if e.status == http.StatusTooManyRequests {
				c.Header("Retry-After", "60")
			}
			c.JSON(e.status, ErrorResponse{Error: e.err.Error()})
			return
		}
	}

	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}
