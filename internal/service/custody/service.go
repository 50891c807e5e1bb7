package custody

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	custodyfsm "github.com/kirinyoku/stow/internal/custody"
	"github.com/kirinyoku/stow/internal/domain"
	"github.com/kirinyoku/stow/internal/repository"
	postgresrepo "github.com/kirinyoku/stow/internal/repository/postgres"
	redisrepo "github.com/kirinyoku/stow/internal/repository/redis"
	"github.com/kirinyoku/stow/internal/uow"
)

type BookingStore interface {
	Get(ctx context.Context, db postgresrepo.DB, id uuid.UUID) (*domain.Booking, error)
	GetForUpdate(ctx context.Context, db postgresrepo.DB, id uuid.UUID) (*domain.Booking, error)
	SetScanToken(ctx context.Context, db postgresrepo.DB, id uuid.UUID, token string) error
	ApplyCustody(ctx context.Context, db postgresrepo.DB, b *domain.Booking) error
	ListOverdueCustody(ctx context.Context, db postgresrepo.DB, endedBefore time.Time) ([]domain.Booking, error)
}

type Config struct {
	// EscalateAfter is how long past the booking end a custody may run before
	// EscalateOverdue reports it. Zero disables escalation.
	EscalateAfter time.Duration
	Now           func() time.Time
}

type Service struct {
	bookings BookingStore
	uow      uow.Transactor
	cache    *redisrepo.Cache
	pubsub   *redisrepo.EventsPubSub
	limiter  *redisrepo.SlidingWindowLimiter
	log      *slog.Logger
	cfg      Config
}

func New(
	bookings BookingStore,
	tx uow.Transactor,
	cache *redisrepo.Cache,
	pubsub *redisrepo.EventsPubSub,
	limiter *redisrepo.SlidingWindowLimiter,
	log *slog.Logger,
	cfg Config,
) *Service {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	if log == nil {
		log = slog.Default()
	}

	return &Service{
		bookings: bookings,
		uow:      tx,
		cache:    cache,
		pubsub:   pubsub,
		limiter:  limiter,
		log:      log,
		cfg:      cfg,
	}
}

// TokenGrant is handed to the provider to render as a QR code.
type TokenGrant struct {
	ScanToken    string              `json:"scanToken"`
	Action       custodyfsm.Action   `json:"action"`
	BookingID    uuid.UUID           `json:"bookingId"`
	CustodyState domain.CustodyState `json:"custody_state"`
}

// View is the custody status of a booking. The token itself is never shown.
type View struct {
	BookingID    uuid.UUID            `json:"id"`
	Status       domain.BookingStatus `json:"status"`
	CustodyState domain.CustodyState  `json:"custody_state"`
	TokenIssued  bool                 `json:"token_issued"`
	HandedOverAt *time.Time           `json:"handed_over_at,omitempty"`
	CompletedAt  *time.Time           `json:"completed_at,omitempty"`
}

// GenerateToken mints a one-time scan token for the next custody step,
// replacing any token issued earlier.
//
// Returns:
//   - error: custody.ErrBookingNotFound if the booking does not exist.
//   - error: custody.ErrForbidden if actorID is not the provider.
//   - error: custody.ErrBookingCancelled if the booking was cancelled.
//   - error: custody.ErrAlreadyCompleted if custody is already completed.
func (s *Service) GenerateToken(ctx context.Context, bookingID, actorID uuid.UUID) (TokenGrant, error) {
	const op = "service.custody.GenerateToken"

	var grant TokenGrant

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		_ func(uow.AfterCommit),
	) error {
		b, err := s.bookings.GetForUpdate(ctx, tx, bookingID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrBookingNotFound
			}
			return err
		}

		if b.ProviderID != actorID {
			return ErrForbidden
		}

		if b.Status == domain.BookingCancelled {
			return ErrBookingCancelled
		}

		action, err := custodyfsm.ActionFor(b.CustodyState)
		if err != nil {
			return err
		}

		token, err := custodyfsm.NewToken()
		if err != nil {
			return err
		}

		if err := s.bookings.SetScanToken(ctx, tx, b.ID, token); err != nil {
			return err
		}

		grant = TokenGrant{
			ScanToken:    token,
			Action:       action,
			BookingID:    b.ID,
			CustodyState: b.CustodyState,
		}

		return nil
	})
	if err != nil {
		return TokenGrant{}, fmt.Errorf("%s:%w", op, err)
	}

	return grant, nil
}

// Redeem consumes a scan token presented by the seeker and advances custody
// by one step. Attempts are rate limited per booking and seeker.
//
// Returns:
//   - *domain.Booking: the booking after the transition.
//   - error: custody.ErrTooManyAttempts if the seeker is rate limited.
//   - error: custody.ErrBookingNotFound if the booking does not exist.
//   - error: custody.ErrForbidden if actorID is not the seeker.
//   - error: custody.ErrInvalidToken if token does not match the issued one.
//   - error: custody.ErrBookingCancelled if the booking was cancelled.
//   - error: custody.ErrAlreadyCompleted if custody is already completed.
func (s *Service) Redeem(ctx context.Context, bookingID, actorID uuid.UUID, token string) (*domain.Booking, error) {
	const op = "service.custody.Redeem"

	ok, _, retry, err := s.limiter.Allow(ctx, bookingID.String()+":"+actorID.String())
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s:%w (retry in %s)", op, ErrTooManyAttempts, retry)
	}

	var out *domain.Booking

	err = s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		b, err := s.bookings.GetForUpdate(ctx, tx, bookingID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrBookingNotFound
			}
			return err
		}

		if b.SeekerID != actorID {
			return ErrForbidden
		}

		if !tokenMatches(b.ScanToken, token) {
			return ErrInvalidToken
		}

		if b.Status == domain.BookingCancelled {
			return ErrBookingCancelled
		}

		if err := custodyfsm.Advance(b, s.cfg.Now()); err != nil {
			return err
		}

		if err := s.bookings.ApplyCustody(ctx, tx, b); err != nil {
			return err
		}

		out = b

		after(func(ctx context.Context) {
			_ = s.cache.InvalidateSlots(ctx, b.ListingID, b.SubSlotID, b.StartTime, b.EndTime)
			_ = s.pubsub.PublishBookingChanged(ctx, b)
		})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

// Status returns the custody view of a booking to either party.
//
// Returns:
//   - error: custody.ErrBookingNotFound if the booking does not exist.
//   - error: custody.ErrForbidden if actorID is neither party.
func (s *Service) Status(ctx context.Context, bookingID, actorID uuid.UUID) (View, error) {
	const op = "service.custody.Status"

	b, err := s.bookings.Get(ctx, nil, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return View{}, fmt.Errorf("%s:%w", op, ErrBookingNotFound)
		}
		return View{}, fmt.Errorf("%s:%w", op, err)
	}

	if b.SeekerID != actorID && b.ProviderID != actorID {
		return View{}, fmt.Errorf("%s:%w", op, ErrForbidden)
	}

	return View{
		BookingID:    b.ID,
		Status:       b.Status,
		CustodyState: b.CustodyState,
		TokenIssued:  b.ScanToken != nil && *b.ScanToken != "",
		HandedOverAt: b.HandedOverAt,
		CompletedAt:  b.CompletedAt,
	}, nil
}

// EscalateOverdue reports custodies still open EscalateAfter past the end of
// their booking. It logs and publishes an event per booking and never changes
// state. It returns the number of bookings reported.
func (s *Service) EscalateOverdue(ctx context.Context) (int, error) {
	const op = "service.custody.EscalateOverdue"

	if s.cfg.EscalateAfter <= 0 {
		return 0, nil
	}

	now := s.cfg.Now()

	overdue, err := s.bookings.ListOverdueCustody(ctx, nil, now.Add(-s.cfg.EscalateAfter))
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, err)
	}

	for i := range overdue {
		b := &overdue[i]

		s.log.Warn("custody overdue",
			slog.String("booking_id", b.ID.String()),
			slog.String("listing_id", b.ListingID.String()),
			slog.String("provider_id", b.ProviderID.String()),
			slog.Time("end_time", b.EndTime),
			slog.Duration("overdue_by", now.Sub(b.EndTime)),
		)

		if err := s.pubsub.PublishCustodyOverdue(ctx, b); err != nil {
			s.log.Error("publish custody overdue", slog.String("booking_id", b.ID.String()), slog.Any("err", err))
		}
	}

	return len(overdue), nil
}

func tokenMatches(stored *string, presented string) bool {
	if stored == nil || *stored == "" || presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(*stored), []byte(presented)) == 1
}
