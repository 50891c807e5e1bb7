//go:build integration

package postgresrepo

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/stow/internal/domain"
	"github.com/kirinyoku/stow/internal/postgres"
	"github.com/kirinyoku/stow/internal/repository"
)

// Run with: STOW_TEST_DSN=postgres://... go test -tags integration ./internal/repository/postgres/
func newTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := os.Getenv("STOW_TEST_DSN")
	if dsn == "" {
		t.Skip("STOW_TEST_DSN is not set")
	}

	require.NoError(t, postgres.Migrate(dsn, postgres.Up))

	pool, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return NewStore(pool)
}

func seedListing(t *testing.T, s *Store) *domain.Listing {
	t.Helper()

	l := &domain.Listing{
		OwnerID:  uuid.New(),
		Kind:     domain.KindStorage,
		Title:    "Basement",
		LengthFt: 10,
		WidthFt:  10,
		IsActive: true,
	}
	require.NoError(t, s.Listings().Create(context.Background(), nil, l))
	t.Cleanup(func() { _ = s.Listings().Delete(context.Background(), nil, l.ID) })

	return l
}

func newBooking(l *domain.Listing, subSlotID *uuid.UUID, start, end time.Time) *domain.Booking {
	return &domain.Booking{
		ListingID:       l.ID,
		SubSlotID:       subSlotID,
		SeekerID:        uuid.New(),
		ProviderID:      l.OwnerID,
		StartTime:       start,
		EndTime:         end,
		DurationMinutes: int(end.Sub(start).Minutes()),
		TotalPrice:      100,
		Status:          domain.BookingConfirmed,
		CustodyState:    domain.CustodyPending,
	}
}

func TestBookingRepoRejectsOverlapOnSameResource(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	l := seedListing(t, s)

	start := time.Date(2030, 1, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.Bookings().Create(ctx, nil, newBooking(l, nil, start, start.Add(time.Hour))))

	err := s.Bookings().Create(ctx, nil, newBooking(l, nil, start.Add(30*time.Minute), start.Add(90*time.Minute)))
	assert.ErrorIs(t, err, repository.ErrConflict)

	err = s.Bookings().Create(ctx, nil, newBooking(l, nil, start.Add(time.Hour), start.Add(2*time.Hour)))
	assert.NoError(t, err, "half-open intervals may touch")

	sub := &domain.SubSlot{ListingID: l.ID, Label: "A", IsActive: true}
	require.NoError(t, s.Listings().CreateSubSlot(ctx, nil, sub))

	err = s.Bookings().Create(ctx, nil, newBooking(l, &sub.ID, start, start.Add(time.Hour)))
	assert.NoError(t, err, "sub-slot is its own resource")

	err = s.Bookings().Create(ctx, nil, newBooking(l, &sub.ID, start.Add(15*time.Minute), start.Add(45*time.Minute)))
	assert.ErrorIs(t, err, repository.ErrConflict)
}

func TestBookingRepoCancelledBookingFreesInterval(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	l := seedListing(t, s)

	start := time.Date(2030, 1, 2, 10, 0, 0, 0, time.UTC)
	first := newBooking(l, nil, start, start.Add(time.Hour))
	require.NoError(t, s.Bookings().Create(ctx, nil, first))
	require.NoError(t, s.Bookings().Cancel(ctx, nil, first.ID, 100, 100))

	assert.NoError(t, s.Bookings().Create(ctx, nil, newBooking(l, nil, start, start.Add(time.Hour))))
}

func TestBookingRepoActiveIntervalsSplitsListingAndSubSlot(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	l := seedListing(t, s)

	sub := &domain.SubSlot{ListingID: l.ID, Label: "A", IsActive: true}
	require.NoError(t, s.Listings().CreateSubSlot(ctx, nil, sub))

	start := time.Date(2030, 1, 3, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.Bookings().Create(ctx, nil, newBooking(l, nil, start, start.Add(time.Hour))))
	require.NoError(t, s.Bookings().Create(ctx, nil, newBooking(l, &sub.ID, start.Add(2*time.Hour), start.Add(3*time.Hour))))

	whole, err := s.Bookings().ActiveIntervals(ctx, nil, domain.Target{ListingID: l.ID}, nil)
	require.NoError(t, err)
	require.Len(t, whole, 1)
	assert.True(t, whole[0].Start.Equal(start))

	part, err := s.Bookings().ActiveIntervals(ctx, nil, domain.Target{ListingID: l.ID, SubSlotID: &sub.ID}, nil)
	require.NoError(t, err)
	require.Len(t, part, 1)
	assert.True(t, part[0].Start.Equal(start.Add(2*time.Hour)))

	window := domain.Interval{Start: start.Add(4 * time.Hour), End: start.Add(5 * time.Hour)}
	none, err := s.Bookings().ActiveIntervals(ctx, nil, domain.Target{ListingID: l.ID}, &window)
	require.NoError(t, err)
	assert.Empty(t, none)
}
