package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kirinyoku/stow/internal/domain"
	"github.com/kirinyoku/stow/internal/pricing"
	"github.com/kirinyoku/stow/internal/repository"
	postgresrepo "github.com/kirinyoku/stow/internal/repository/postgres"
	redisrepo "github.com/kirinyoku/stow/internal/repository/redis"
	"github.com/kirinyoku/stow/internal/schedule"
	"github.com/kirinyoku/stow/internal/uow"
)

type ListingReader interface {
	Get(ctx context.Context, db postgresrepo.DB, id uuid.UUID) (*domain.Listing, error)
	GetSubSlot(ctx context.Context, db postgresrepo.DB, id uuid.UUID) (*domain.SubSlot, error)
}

type BookingStore interface {
	LockTarget(ctx context.Context, tx postgresrepo.DB, t domain.Target) error
	ActiveIntervals(ctx context.Context, db postgresrepo.DB, t domain.Target, window *domain.Interval) ([]domain.Interval, error)
	Create(ctx context.Context, db postgresrepo.DB, b *domain.Booking) error
	Get(ctx context.Context, db postgresrepo.DB, id uuid.UUID) (*domain.Booking, error)
	GetForUpdate(ctx context.Context, db postgresrepo.DB, id uuid.UUID) (*domain.Booking, error)
	Cancel(ctx context.Context, db postgresrepo.DB, id uuid.UUID, amount float64, percent int) error
	ListBySeeker(ctx context.Context, db postgresrepo.DB, seekerID uuid.UUID, limit, offset int) ([]domain.BookingSummary, error)
	ListByProvider(ctx context.Context, db postgresrepo.DB, providerID uuid.UUID, limit, offset int) ([]domain.BookingSummary, error)
}

type Config struct {
	RefundCutoff    time.Duration
	SlotsTTL        time.Duration
	DefaultPageSize int
	MaxPageSize     int
	Now             func() time.Time
}

type Service struct {
	listings ListingReader
	bookings BookingStore
	uow      uow.Transactor
	pricing  *pricing.Engine
	cache    *redisrepo.Cache
	pubsub   *redisrepo.EventsPubSub
	cfg      Config
}

func New(
	listings ListingReader,
	bookings BookingStore,
	tx uow.Transactor,
	engine *pricing.Engine,
	cache *redisrepo.Cache,
	pubsub *redisrepo.EventsPubSub,
	cfg Config,
) *Service {
	if cfg.RefundCutoff <= 0 {
		cfg.RefundCutoff = DefaultRefundCutoff
	}

	if cfg.SlotsTTL <= 0 {
		cfg.SlotsTTL = 2 * time.Minute
	}

	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = 20
	}

	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = 100
	}

	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	if engine == nil {
		engine = pricing.New(pricing.DefaultConfig())
	}

	return &Service{
		listings: listings,
		bookings: bookings,
		uow:      tx,
		pricing:  engine,
		cache:    cache,
		pubsub:   pubsub,
		cfg:      cfg,
	}
}

type CreateInput struct {
	ListingID       uuid.UUID
	SubSlotID       *uuid.UUID
	Start           time.Time
	End             time.Time
	ItemPhotos      []string
	ItemDescription string
}

// Create books a listing (or one of its sub-slots) for a seeker.
//
// Parameters:
//   - ctx: request-scoped context.
//   - seekerID: ID of the user making the booking.
//   - in: the listing, optional sub-slot, time range and item details.
//
// Returns:
//   - *domain.Booking: the confirmed booking with its price.
//   - error: booking.ErrInvalidTimeRange if in.End is not after in.Start.
//   - error: booking.ErrListingNotFound if the listing does not exist.
//   - error: booking.ErrListingInactive if the listing is not active.
//   - error: booking.ErrSelfBooking if the seeker owns the listing.
//   - error: booking.ErrSubSlotNotFound if the sub-slot is not part of the listing.
//   - error: booking.ErrSlotUnavailable if the range overlaps a live booking.
func (s *Service) Create(ctx context.Context, seekerID uuid.UUID, in CreateInput) (*domain.Booking, error) {
	const op = "service.booking.Create"

	if !in.End.After(in.Start) {
		return nil, fmt.Errorf("%s:%w", op, ErrInvalidTimeRange)
	}

	var out *domain.Booking

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		l, err := s.listings.Get(ctx, tx, in.ListingID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrListingNotFound
			}
			return err
		}

		if !l.IsActive {
			return ErrListingInactive
		}

		if l.OwnerID == seekerID {
			return ErrSelfBooking
		}

		if in.SubSlotID != nil {
			slot, err := s.listings.GetSubSlot(ctx, tx, *in.SubSlotID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return ErrSubSlotNotFound
				}
				return err
			}

			if slot.ListingID != l.ID || !slot.IsActive {
				return ErrSubSlotNotFound
			}
		}

		proposed := domain.Interval{Start: in.Start, End: in.End}
		target := domain.Target{ListingID: l.ID, SubSlotID: in.SubSlotID}

		if err := s.bookings.LockTarget(ctx, tx, target); err != nil {
			return err
		}

		existing, err := s.bookings.ActiveIntervals(ctx, tx, target, &proposed)
		if err != nil {
			return err
		}

		if schedule.HasConflict(existing, proposed) {
			return ErrSlotUnavailable
		}

		quote, err := s.pricing.Quote(l, in.Start, in.End)
		if err != nil {
			return err
		}

		b := &domain.Booking{
			ListingID:       l.ID,
			SubSlotID:       in.SubSlotID,
			SeekerID:        seekerID,
			ProviderID:      l.OwnerID,
			StartTime:       in.Start,
			EndTime:         in.End,
			DurationMinutes: quote.Minutes,
			TotalPrice:      quote.Total,
			Status:          domain.BookingConfirmed,
			CustodyState:    domain.CustodyPending,
			ItemPhotos:      []string{},
		}

		if l.Kind == domain.KindStorage {
			if in.ItemPhotos != nil {
				b.ItemPhotos = in.ItemPhotos
			}
			b.ItemDescription = in.ItemDescription
		}

		if err := s.bookings.Create(ctx, tx, b); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return ErrSlotUnavailable
			}
			return err
		}

		out = b

		after(func(ctx context.Context) {
			s.announce(ctx, b)
		})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

// Preview prices a prospective booking without reserving anything. It runs
// the same calculation as Create.
//
// Returns:
//   - error: booking.ErrInvalidTimeRange if end is not after start.
//   - error: booking.ErrListingNotFound if the listing does not exist.
func (s *Service) Preview(ctx context.Context, listingID uuid.UUID, start, end time.Time) (pricing.Breakdown, error) {
	const op = "service.booking.Preview"

	if !end.After(start) {
		return pricing.Breakdown{}, fmt.Errorf("%s:%w", op, ErrInvalidTimeRange)
	}

	l, err := s.listings.Get(ctx, nil, listingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return pricing.Breakdown{}, fmt.Errorf("%s:%w", op, ErrListingNotFound)
		}
		return pricing.Breakdown{}, fmt.Errorf("%s:%w", op, err)
	}

	quote, err := s.pricing.Quote(l, start, end)
	if err != nil {
		return pricing.Breakdown{}, fmt.Errorf("%s:%w", op, err)
	}

	return quote, nil
}

// Cancel cancels a booking on behalf of its seeker and records the refund.
//
// Returns:
//   - *domain.Booking: the cancelled booking.
//   - error: booking.ErrBookingNotFound if the booking does not exist.
//   - error: booking.ErrForbidden if actorID is not the seeker.
//   - error: booking.ErrAlreadyCancelled if the booking is already cancelled.
//   - error: booking.ErrCustodyInProgress if the items are in custody.
//   - error: booking.ErrAlreadyCompleted if custody is completed.
func (s *Service) Cancel(ctx context.Context, id, actorID uuid.UUID) (*domain.Booking, error) {
	const op = "service.booking.Cancel"

	var out *domain.Booking

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		b, err := s.bookings.GetForUpdate(ctx, tx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrBookingNotFound
			}
			return err
		}

		if b.SeekerID != actorID {
			return ErrForbidden
		}

		if b.Status == domain.BookingCancelled {
			return ErrAlreadyCancelled
		}

		switch b.CustodyState {
		case domain.CustodyInCustody:
			return ErrCustodyInProgress
		case domain.CustodyCompleted:
			return ErrAlreadyCompleted
		}

		now := s.cfg.Now()
		amount, percent := Refund(b.TotalPrice, b.StartTime, now, s.cfg.RefundCutoff)

		if err := s.bookings.Cancel(ctx, tx, b.ID, amount, percent); err != nil {
			return err
		}

		b.Status = domain.BookingCancelled
		b.RefundAmount = &amount
		b.RefundPercent = &percent
		b.ScanToken = nil
		b.UpdatedAt = now
		out = b

		after(func(ctx context.Context) {
			s.announce(ctx, b)
		})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

// Get returns a booking to its seeker or provider.
//
// Returns:
//   - error: booking.ErrBookingNotFound if the booking does not exist.
//   - error: booking.ErrForbidden if actorID is neither party.
func (s *Service) Get(ctx context.Context, id, actorID uuid.UUID) (*domain.Booking, error) {
	const op = "service.booking.Get"

	b, err := s.bookings.Get(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrBookingNotFound)
		}
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	if b.SeekerID != actorID && b.ProviderID != actorID {
		return nil, fmt.Errorf("%s:%w", op, ErrForbidden)
	}

	return b, nil
}

// Page selects a window of a listing. Zero values fall back to defaults.
type Page struct {
	Limit  int
	Offset int
}

func (s *Service) page(p Page) (limit, offset int) {
	limit = p.Limit
	if limit <= 0 {
		limit = s.cfg.DefaultPageSize
	}
	if limit > s.cfg.MaxPageSize {
		limit = s.cfg.MaxPageSize
	}

	offset = max(p.Offset, 0)

	return limit, offset
}

// ListMine lists the bookings a seeker has made, newest first.
func (s *Service) ListMine(ctx context.Context, seekerID uuid.UUID, p Page) ([]domain.BookingSummary, error) {
	const op = "service.booking.ListMine"

	limit, offset := s.page(p)

	out, err := s.bookings.ListBySeeker(ctx, nil, seekerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

// ListProvider lists the bookings made on a provider's listings, newest first.
func (s *Service) ListProvider(ctx context.Context, providerID uuid.UUID, p Page) ([]domain.BookingSummary, error) {
	const op = "service.booking.ListProvider"

	limit, offset := s.page(p)

	out, err := s.bookings.ListByProvider(ctx, nil, providerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

// AvailableSlots returns the free billing blocks of a listing, or of one of
// its sub-slots, on the UTC day containing day.
//
// Returns:
//   - error: booking.ErrListingNotFound if the listing does not exist.
//   - error: booking.ErrSubSlotNotFound if the sub-slot is not part of the listing.
func (s *Service) AvailableSlots(
	ctx context.Context,
	listingID uuid.UUID,
	subSlotID *uuid.UUID,
	day time.Time,
) ([]domain.Interval, error) {
	const op = "service.booking.AvailableSlots"

	from := day.UTC().Truncate(24 * time.Hour)
	to := from.Add(24 * time.Hour)

	key := redisrepo.KeySlots(listingID, subSlotID, from.Format(time.DateOnly))

	slots, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		key,
		s.cfg.SlotsTTL,
		func(ctx context.Context) ([]domain.Interval, error) {
			if _, err := s.listings.Get(ctx, nil, listingID); err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return nil, ErrListingNotFound
				}
				return nil, err
			}

			if subSlotID != nil {
				slot, err := s.listings.GetSubSlot(ctx, nil, *subSlotID)
				if err != nil {
					if errors.Is(err, repository.ErrNotFound) {
						return nil, ErrSubSlotNotFound
					}
					return nil, err
				}

				if slot.ListingID != listingID || !slot.IsActive {
					return nil, ErrSubSlotNotFound
				}
			}

			window := domain.Interval{Start: from, End: to}
			target := domain.Target{ListingID: listingID, SubSlotID: subSlotID}

			existing, err := s.bookings.ActiveIntervals(ctx, nil, target, &window)
			if err != nil {
				return nil, err
			}

			free := schedule.FreeSlots(from, to, s.pricing.Config().Block, existing)
			if free == nil {
				free = []domain.Interval{}
			}

			return free, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return slots, nil
}

// announce drops cached availability for the booking's range and tells other
// instances to do the same.
func (s *Service) announce(ctx context.Context, b *domain.Booking) {
	_ = s.cache.InvalidateSlots(ctx, b.ListingID, b.SubSlotID, b.StartTime, b.EndTime)
	_ = s.pubsub.PublishBookingChanged(ctx, b)
}
