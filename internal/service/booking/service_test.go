package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/stow/internal/domain"
	"github.com/kirinyoku/stow/internal/pricing"
	postgresrepo "github.com/kirinyoku/stow/internal/repository/postgres"
	"github.com/kirinyoku/stow/internal/service/servicetest"
)

type fixture struct {
	store   *servicetest.Store
	svc     *Service
	now     time.Time
	owner   uuid.UUID
	seeker  uuid.UUID
	storage domain.Listing
	parking domain.Listing
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store:  servicetest.New(),
		now:    time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC),
		owner:  uuid.New(),
		seeker: uuid.New(),
	}

	f.storage = f.store.SeedListing(domain.Listing{
		OwnerID:  f.owner,
		Kind:     domain.KindStorage,
		Title:    "Garage corner",
		Address:  "12 Hill Rd",
		LengthFt: 10,
		WidthFt:  10,
		IsActive: true,
	})

	f.parking = f.store.SeedListing(domain.Listing{
		OwnerID:      f.owner,
		Kind:         domain.KindParking,
		Title:        "Covered bay",
		VehicleClass: domain.FourWheeler,
		Subtypes:     []string{domain.SubtypeCovered},
		IsActive:     true,
	})

	f.svc = New(
		f.store.Listings(),
		f.store.Bookings(),
		f.store,
		pricing.New(pricing.DefaultConfig()),
		nil,
		nil,
		Config{Now: func() time.Time { return f.now }},
	)

	return f
}

// withBookings returns a service sharing the fixture's store but reaching
// bookings through bs.
func (f *fixture) withBookings(bs BookingStore) *Service {
	return New(
		f.store.Listings(),
		bs,
		f.store,
		pricing.New(pricing.DefaultConfig()),
		nil,
		nil,
		Config{Now: func() time.Time { return f.now }},
	)
}

func at(hour, minute int) time.Time {
	return time.Date(2025, 6, 2, hour, minute, 0, 0, time.UTC)
}

func (f *fixture) book(t *testing.T, listingID uuid.UUID, start, end time.Time) *domain.Booking {
	t.Helper()

	b, err := f.svc.Create(context.Background(), f.seeker, CreateInput{ListingID: listingID, Start: start, End: end})
	require.NoError(t, err)

	return b
}

func TestCreateStorageBooking(t *testing.T) {
	f := newFixture(t)

	b, err := f.svc.Create(context.Background(), f.seeker, CreateInput{
		ListingID:       f.storage.ID,
		Start:           at(10, 0),
		End:             at(10, 15),
		ItemPhotos:      []string{"box.jpg"},
		ItemDescription: "two boxes",
	})
	require.NoError(t, err)

	assert.Equal(t, 240.0, b.TotalPrice)
	assert.Equal(t, 15, b.DurationMinutes)
	assert.Equal(t, domain.BookingConfirmed, b.Status)
	assert.Equal(t, domain.CustodyPending, b.CustodyState)
	assert.Equal(t, f.owner, b.ProviderID)
	assert.Equal(t, []string{"box.jpg"}, b.ItemPhotos)
	assert.Equal(t, "two boxes", b.ItemDescription)
	assert.Nil(t, b.ScanToken)

	stored, ok := f.store.Booking(b.ID)
	require.True(t, ok)
	assert.Equal(t, 240.0, stored.TotalPrice)
}

func TestCreateFourHourStorageBooking(t *testing.T) {
	f := newFixture(t)

	b := f.book(t, f.storage.ID, at(10, 0), at(14, 0))

	assert.Equal(t, 134.0, b.TotalPrice)
	assert.Equal(t, 240, b.DurationMinutes)
}

func TestCreateParkingDropsItemDetails(t *testing.T) {
	f := newFixture(t)

	b, err := f.svc.Create(context.Background(), f.seeker, CreateInput{
		ListingID:       f.parking.ID,
		Start:           at(10, 0),
		End:             at(11, 0),
		ItemPhotos:      []string{"car.jpg"},
		ItemDescription: "sedan",
	})
	require.NoError(t, err)

	assert.Equal(t, 48.0, b.TotalPrice)
	assert.Empty(t, b.ItemPhotos)
	assert.Empty(t, b.ItemDescription)
}

func TestCreateRejectsOverlap(t *testing.T) {
	f := newFixture(t)
	f.book(t, f.storage.ID, at(10, 0), at(11, 0))

	_, err := f.svc.Create(context.Background(), f.seeker, CreateInput{
		ListingID: f.storage.ID,
		Start:     at(10, 30),
		End:       at(11, 30),
	})

	assert.ErrorIs(t, err, ErrSlotUnavailable)
	assert.Equal(t, 1, f.store.BookingCount(), "nothing persisted")
}

func TestCreateAllowsBackToBack(t *testing.T) {
	f := newFixture(t)
	f.book(t, f.storage.ID, at(10, 0), at(11, 0))

	f.book(t, f.storage.ID, at(11, 0), at(12, 0))
	f.book(t, f.storage.ID, at(9, 0), at(10, 0))

	assert.Equal(t, 3, f.store.BookingCount())
}

func TestTerminalBookingsDoNotBlock(t *testing.T) {
	f := newFixture(t)

	for _, status := range []domain.BookingStatus{domain.BookingCancelled, domain.BookingCompleted} {
		f.store.SeedBooking(domain.Booking{
			ListingID: f.storage.ID,
			SeekerID:  uuid.New(),
			StartTime: at(10, 0),
			EndTime:   at(11, 0),
			Status:    status,
		})
	}

	f.book(t, f.storage.ID, at(10, 0), at(11, 0))
}

func TestSubSlotsAreIndependentConflictDomains(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.store.SeedSubSlot(domain.SubSlot{ListingID: f.storage.ID, Label: "A", IsActive: true})
	b := f.store.SeedSubSlot(domain.SubSlot{ListingID: f.storage.ID, Label: "B", IsActive: true})

	f.book(t, f.storage.ID, at(10, 0), at(11, 0))

	for _, slot := range []domain.SubSlot{a, b} {
		_, err := f.svc.Create(ctx, f.seeker, CreateInput{
			ListingID: f.storage.ID,
			SubSlotID: &slot.ID,
			Start:     at(10, 0),
			End:       at(11, 0),
		})
		require.NoError(t, err, "slot %s", slot.Label)
	}

	_, err := f.svc.Create(ctx, f.seeker, CreateInput{
		ListingID: f.storage.ID,
		SubSlotID: &a.ID,
		Start:     at(10, 45),
		End:       at(11, 15),
	})
	assert.ErrorIs(t, err, ErrSlotUnavailable)
}

func TestCreateRejectsForeignSubSlot(t *testing.T) {
	f := newFixture(t)

	other := f.store.SeedSubSlot(domain.SubSlot{ListingID: f.parking.ID, Label: "P1", IsActive: true})
	missing := uuid.New()

	for _, id := range []uuid.UUID{other.ID, missing} {
		_, err := f.svc.Create(context.Background(), f.seeker, CreateInput{
			ListingID: f.storage.ID,
			SubSlotID: &id,
			Start:     at(10, 0),
			End:       at(11, 0),
		})
		assert.ErrorIs(t, err, ErrSubSlotNotFound)
	}
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inactive := f.store.SeedListing(domain.Listing{OwnerID: f.owner, Kind: domain.KindStorage, LengthFt: 2, WidthFt: 2})

	cases := []struct {
		name   string
		seeker uuid.UUID
		in     CreateInput
		want   error
	}{
		{"end before start", f.seeker, CreateInput{ListingID: f.storage.ID, Start: at(11, 0), End: at(10, 0)}, ErrInvalidTimeRange},
		{"empty range", f.seeker, CreateInput{ListingID: f.storage.ID, Start: at(11, 0), End: at(11, 0)}, ErrInvalidTimeRange},
		{"unknown listing", f.seeker, CreateInput{ListingID: uuid.New(), Start: at(10, 0), End: at(11, 0)}, ErrListingNotFound},
		{"inactive listing", f.seeker, CreateInput{ListingID: inactive.ID, Start: at(10, 0), End: at(11, 0)}, ErrListingInactive},
		{"own listing", f.owner, CreateInput{ListingID: f.storage.ID, Start: at(10, 0), End: at(11, 0)}, ErrSelfBooking},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, tc.seeker, tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	assert.Equal(t, 0, f.store.BookingCount())
}

func TestInvalidRangeFailsBeforeAnyTransaction(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), f.seeker, CreateInput{ListingID: f.storage.ID, Start: at(11, 0), End: at(10, 0)})

	require.ErrorIs(t, err, ErrInvalidTimeRange)
	assert.Equal(t, 0, f.store.Transactions())
}

func TestConcurrentCreatesYieldOneBooking(t *testing.T) {
	f := newFixture(t)

	const n = 20

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ok      int
		clashed int
	)

	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := f.svc.Create(context.Background(), uuid.New(), CreateInput{
				ListingID: f.storage.ID,
				Start:     at(10, 0),
				End:       at(11, 0),
			})

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
				return
			}
			assert.ErrorIs(t, err, ErrSlotUnavailable)
			clashed++
		}()
	}

	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, clashed)
	assert.Equal(t, 1, f.store.BookingCount())
}

// staleReads sees no existing bookings, as a transaction that read before a
// concurrent insert committed would.
type staleReads struct {
	BookingStore
}

func (staleReads) ActiveIntervals(context.Context, postgresrepo.DB, domain.Target, *domain.Interval) ([]domain.Interval, error) {
	return nil, nil
}

// failingInsert writes the row and then fails, like a connection dropped
// before the statement completed.
type failingInsert struct {
	BookingStore
	err error
}

func (s failingInsert) Create(ctx context.Context, db postgresrepo.DB, b *domain.Booking) error {
	if err := s.BookingStore.Create(ctx, db, b); err != nil {
		return err
	}
	return s.err
}

func TestCreateMapsStoreConflictToSlotUnavailable(t *testing.T) {
	f := newFixture(t)
	existing := f.book(t, f.storage.ID, at(10, 0), at(11, 0))

	svc := f.withBookings(staleReads{f.store.Bookings()})

	_, err := svc.Create(context.Background(), uuid.New(), CreateInput{
		ListingID: f.storage.ID,
		Start:     at(10, 30),
		End:       at(11, 30),
	})

	require.ErrorIs(t, err, ErrSlotUnavailable)
	assert.Equal(t, 1, f.store.BookingCount())

	kept, ok := f.store.Booking(existing.ID)
	require.True(t, ok)
	assert.Equal(t, domain.BookingConfirmed, kept.Status)

	sub := f.store.SeedSubSlot(domain.SubSlot{ListingID: f.storage.ID, Label: "A", IsActive: true})
	_, err = svc.Create(context.Background(), uuid.New(), CreateInput{
		ListingID: f.storage.ID,
		SubSlotID: &sub.ID,
		Start:     at(10, 30),
		End:       at(11, 30),
	})
	require.NoError(t, err, "sub-slot is a separate resource")
	assert.Equal(t, 2, f.store.BookingCount())
}

func TestCreateRollsBackOnStoreError(t *testing.T) {
	f := newFixture(t)

	dbErr := errors.New("connection reset")
	svc := f.withBookings(failingInsert{BookingStore: f.store.Bookings(), err: dbErr})

	b, err := svc.Create(context.Background(), f.seeker, CreateInput{
		ListingID: f.storage.ID,
		Start:     at(10, 0),
		End:       at(11, 0),
	})

	require.ErrorIs(t, err, dbErr)
	assert.NotErrorIs(t, err, ErrSlotUnavailable)
	assert.Nil(t, b)
	assert.Equal(t, 0, f.store.BookingCount())
	assert.Equal(t, 1, f.store.Transactions())

	f.book(t, f.storage.ID, at(10, 0), at(11, 0))
	assert.Equal(t, 1, f.store.BookingCount())
}

func TestPreviewMatchesCreate(t *testing.T) {
	durations := []time.Duration{
		time.Minute, 15 * time.Minute, 16 * time.Minute, time.Hour, 4 * time.Hour, 26 * time.Hour, 7 * 24 * time.Hour,
	}

	for _, d := range durations {
		f := newFixture(t)

		for _, l := range []domain.Listing{f.storage, f.parking} {
			quote, err := f.svc.Preview(context.Background(), l.ID, at(10, 0), at(10, 0).Add(d))
			require.NoError(t, err)

			b := f.book(t, l.ID, at(10, 0), at(10, 0).Add(d))
			assert.Equal(t, quote.Total, b.TotalPrice, "kind=%s duration=%s", l.Kind, d)
		}
	}
}

func TestPreviewErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Preview(ctx, uuid.New(), at(10, 0), at(11, 0))
	assert.ErrorIs(t, err, ErrListingNotFound)

	_, err = f.svc.Preview(ctx, f.storage.ID, at(10, 0), at(10, 0))
	assert.ErrorIs(t, err, ErrInvalidTimeRange)
}

func TestCancelRefundsInFullBeforeCutoff(t *testing.T) {
	f := newFixture(t)

	b := f.book(t, f.storage.ID, f.now.Add(30*time.Hour), f.now.Add(30*time.Hour+15*time.Minute))
	require.Equal(t, 240.0, b.TotalPrice)

	got, err := f.svc.Cancel(context.Background(), b.ID, f.seeker)
	require.NoError(t, err)

	assert.Equal(t, domain.BookingCancelled, got.Status)
	assert.Equal(t, 240.0, *got.RefundAmount)
	assert.Equal(t, 100, *got.RefundPercent)
	assert.Equal(t, domain.CustodyPending, got.CustodyState, "custody state is untouched")

	stored, _ := f.store.Booking(b.ID)
	assert.Equal(t, domain.BookingCancelled, stored.Status)
	assert.Equal(t, 100, *stored.RefundPercent)
}

func TestCancelInsideCutoffRefundsNothing(t *testing.T) {
	f := newFixture(t)

	b := f.book(t, f.storage.ID, f.now.Add(10*time.Hour), f.now.Add(10*time.Hour+15*time.Minute))

	got, err := f.svc.Cancel(context.Background(), b.ID, f.seeker)
	require.NoError(t, err)

	assert.Equal(t, 0.0, *got.RefundAmount)
	assert.Equal(t, 0, *got.RefundPercent)
}

func TestCancelFreesTheSlot(t *testing.T) {
	f := newFixture(t)

	b := f.book(t, f.storage.ID, at(10, 0), at(11, 0))
	_, err := f.svc.Cancel(context.Background(), b.ID, f.seeker)
	require.NoError(t, err)

	f.book(t, f.storage.ID, at(10, 0), at(11, 0))
}

func TestCancelGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	live := f.book(t, f.storage.ID, at(10, 0), at(11, 0))

	_, err := f.svc.Cancel(ctx, uuid.New(), f.seeker)
	assert.ErrorIs(t, err, ErrBookingNotFound)

	_, err = f.svc.Cancel(ctx, live.ID, f.owner)
	assert.ErrorIs(t, err, ErrForbidden, "only the seeker may cancel")

	inCustody := f.store.SeedBooking(domain.Booking{
		ListingID: f.storage.ID, SeekerID: f.seeker, ProviderID: f.owner,
		StartTime: at(12, 0), EndTime: at(13, 0),
		Status: domain.BookingInCustody, CustodyState: domain.CustodyInCustody,
	})
	_, err = f.svc.Cancel(ctx, inCustody.ID, f.seeker)
	assert.ErrorIs(t, err, ErrCustodyInProgress)

	completed := f.store.SeedBooking(domain.Booking{
		ListingID: f.storage.ID, SeekerID: f.seeker, ProviderID: f.owner,
		StartTime: at(14, 0), EndTime: at(15, 0),
		Status: domain.BookingCompleted, CustodyState: domain.CustodyCompleted,
	})
	_, err = f.svc.Cancel(ctx, completed.ID, f.seeker)
	assert.ErrorIs(t, err, ErrAlreadyCompleted)

	_, err = f.svc.Cancel(ctx, live.ID, f.seeker)
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, live.ID, f.seeker)
	assert.ErrorIs(t, err, ErrAlreadyCancelled)
}

func TestRefund(t *testing.T) {
	now := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	cases := []struct {
		name    string
		start   time.Time
		amount  float64
		percent int
	}{
		{"30 hours ahead", now.Add(30 * time.Hour), 240, 100},
		{"exactly 24 hours", now.Add(24 * time.Hour), 240, 100},
		{"just inside cutoff", now.Add(24*time.Hour - 4*time.Second), 0, 0},
		{"10 hours ahead", now.Add(10 * time.Hour), 0, 0},
		{"already started", now.Add(-time.Hour), 0, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			amount, percent := Refund(240, tc.start, now, DefaultRefundCutoff)
			assert.Equal(t, tc.amount, amount)
			assert.Equal(t, tc.percent, percent)
		})
	}

	amount, _ := Refund(134.567, now.Add(48*time.Hour), now, DefaultRefundCutoff)
	assert.Equal(t, 134.57, amount)
}

func TestGetIsLimitedToParties(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b := f.book(t, f.storage.ID, at(10, 0), at(11, 0))

	for _, actor := range []uuid.UUID{f.seeker, f.owner} {
		got, err := f.svc.Get(ctx, b.ID, actor)
		require.NoError(t, err)
		assert.Equal(t, b.ID, got.ID)
	}

	_, err := f.svc.Get(ctx, b.ID, uuid.New())
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.Get(ctx, uuid.New(), f.seeker)
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestListMineAndProvider(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.book(t, f.storage.ID, at(10, 0), at(11, 0))
	second := f.book(t, f.parking.ID, at(10, 0), at(11, 0))

	mine, err := f.svc.ListMine(ctx, f.seeker, Page{})
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, second.ID, mine[0].ID, "newest first")
	assert.Equal(t, first.ID, mine[1].ID)
	assert.Equal(t, "Garage corner", mine[1].ListingTitle)
	assert.Equal(t, domain.KindStorage, mine[1].ListingKind)

	page, err := f.svc.ListMine(ctx, f.seeker, Page{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, first.ID, page[0].ID)

	provided, err := f.svc.ListProvider(ctx, f.owner, Page{})
	require.NoError(t, err)
	assert.Len(t, provided, 2)

	none, err := f.svc.ListProvider(ctx, f.seeker, Page{})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestAvailableSlots(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.book(t, f.storage.ID, at(10, 0), at(11, 0))
	f.book(t, f.storage.ID, time.Date(2025, 6, 1, 23, 30, 0, 0, time.UTC), at(0, 30))

	slots, err := f.svc.AvailableSlots(ctx, f.storage.ID, nil, at(15, 0))
	require.NoError(t, err)

	assert.Len(t, slots, 96-4-2)
	assert.True(t, slots[0].Start.Equal(at(0, 30)))
	for _, s := range slots {
		assert.Equal(t, 15*time.Minute, s.End.Sub(s.Start))
		booked := !s.Start.Before(at(10, 0)) && s.Start.Before(at(11, 0))
		assert.False(t, booked, "slot %s is booked", s.Start)
	}

	sub := f.store.SeedSubSlot(domain.SubSlot{ListingID: f.storage.ID, Label: "A", IsActive: true})
	subSlots, err := f.svc.AvailableSlots(ctx, f.storage.ID, &sub.ID, at(15, 0))
	require.NoError(t, err)
	assert.Len(t, subSlots, 96, "listing-level bookings do not occupy sub-slots")

	_, err = f.svc.AvailableSlots(ctx, uuid.New(), nil, at(15, 0))
	assert.ErrorIs(t, err, ErrListingNotFound)

	foreign := f.store.SeedSubSlot(domain.SubSlot{ListingID: f.parking.ID, Label: "P", IsActive: true})
	_, err = f.svc.AvailableSlots(ctx, f.storage.ID, &foreign.ID, at(15, 0))
	assert.ErrorIs(t, err, ErrSubSlotNotFound)

	retired := f.store.SeedSubSlot(domain.SubSlot{ListingID: f.storage.ID, Label: "B", IsActive: false})
	_, err = f.svc.AvailableSlots(ctx, f.storage.ID, &retired.ID, at(15, 0))
	assert.ErrorIs(t, err, ErrSubSlotNotFound)

	_, err = f.svc.Create(ctx, f.seeker, CreateInput{ListingID: f.storage.ID, SubSlotID: &retired.ID, Start: at(10, 0), End: at(11, 0)})
	assert.ErrorIs(t, err, ErrSubSlotNotFound)
}
