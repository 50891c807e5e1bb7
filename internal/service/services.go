package service

import (
	"log/slog"

	"github.com/kirinyoku/stow/internal/pricing"
	postgres "github.com/kirinyoku/stow/internal/repository/postgres"
	redis "github.com/kirinyoku/stow/internal/repository/redis"
	"github.com/kirinyoku/stow/internal/service/booking"
	"github.com/kirinyoku/stow/internal/service/custody"
	"github.com/kirinyoku/stow/internal/service/listing"
	"github.com/kirinyoku/stow/internal/uow"
)

type Services struct {
	Booking *booking.Service
	Custody *custody.Service
	Listing *listing.Service
}

type Config struct {
	Booking booking.Config
	Custody custody.Config
	Listing listing.Config
}

func NewServices(
	store *postgres.Store,
	engine *pricing.Engine,
	cache *redis.Cache,
	pubsub *redis.EventsPubSub,
	scanLimiter *redis.SlidingWindowLimiter,
	logger *slog.Logger,
	cfg Config,
) *Services {
	tx := uow.NewUoW(store)
	listings := store.Listings()
	bookings := store.Bookings()

	return &Services{
		Booking: booking.New(listings, bookings, tx, engine, cache, pubsub, cfg.Booking),
		Custody: custody.New(bookings, tx, cache, pubsub, scanLimiter, logger, cfg.Custody),
		Listing: listing.New(listings, bookings, tx, cache, cfg.Listing),
	}
}
