// Package servicetest provides an in-memory store that satisfies the
// repository interfaces of the services, for use in tests.
//
// Units of work run one at a time and roll back every write when they fail,
// so service-level invariants can be exercised without a database.
package servicetest

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kirinyoku/stow/internal/domain"
	"github.com/kirinyoku/stow/internal/repository"
	postgresrepo "github.com/kirinyoku/stow/internal/repository/postgres"
	"github.com/kirinyoku/stow/internal/schedule"
	"github.com/kirinyoku/stow/internal/uow"
)

type Store struct {
	txMu sync.Mutex
	mu   sync.Mutex

	listings map[uuid.UUID]domain.Listing
	subSlots map[uuid.UUID]domain.SubSlot
	bookings map[uuid.UUID]domain.Booking

	clock time.Time
	txs   int
}

func New() *Store {
	return &Store{
		listings: map[uuid.UUID]domain.Listing{},
		subSlots: map[uuid.UUID]domain.SubSlot{},
		bookings: map[uuid.UUID]domain.Booking{},
		clock:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (s *Store) Listings() *Listings { return &Listings{s: s} }
func (s *Store) Bookings() *Bookings { return &Bookings{s: s} }

// Do runs fn as a unit of work. Writes made by fn are discarded when it
// returns an error; hooks run only after success.
func (s *Store) Do(
	ctx context.Context,
	fn func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error,
) error {
	s.txMu.Lock()

	s.mu.Lock()
	s.txs++
	listings, subSlots, bookings := maps.Clone(s.listings), maps.Clone(s.subSlots), maps.Clone(s.bookings)
	s.mu.Unlock()

	var hooks []uow.AfterCommit
	err := fn(ctx, nil, func(h uow.AfterCommit) { hooks = append(hooks, h) })

	if err != nil {
		s.mu.Lock()
		s.listings, s.subSlots, s.bookings = listings, subSlots, bookings
		s.mu.Unlock()
	}

	s.txMu.Unlock()

	if err != nil {
		return err
	}

	for _, h := range hooks {
		h(ctx)
	}

	return nil
}

// Transactions reports how many units of work have been started.
func (s *Store) Transactions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.txs
}

// tick advances the store clock so that rows get distinct creation times.
func (s *Store) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

// SeedListing stores l as is, assigning an ID when it has none.
func (s *Store) SeedListing(l domain.Listing) domain.Listing {
	s.mu.Lock()
	defer s.mu.Unlock()

	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = s.tick()
		l.UpdatedAt = l.CreatedAt
	}
	s.listings[l.ID] = l

	return l
}

// SeedSubSlot stores sl as is, assigning an ID when it has none.
func (s *Store) SeedSubSlot(sl domain.SubSlot) domain.SubSlot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sl.ID == uuid.Nil {
		sl.ID = uuid.New()
	}
	if sl.CreatedAt.IsZero() {
		sl.CreatedAt = s.tick()
	}
	s.subSlots[sl.ID] = sl

	return sl
}

// SeedBooking stores b as is, assigning an ID when it has none.
func (s *Store) SeedBooking(b domain.Booking) domain.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = s.tick()
		b.UpdatedAt = b.CreatedAt
	}
	s.bookings[b.ID] = b

	return b
}

// Listing returns the stored listing with the given ID.
func (s *Store) Listing(id uuid.UUID) (domain.Listing, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.listings[id]
	return l, ok
}

// Booking returns the stored booking with the given ID.
func (s *Store) Booking(id uuid.UUID) (domain.Booking, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	return b, ok
}

// ListingCount returns the number of stored listings.
func (s *Store) ListingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listings)
}

// BookingCount returns the number of stored bookings.
func (s *Store) BookingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bookings)
}

type Listings struct {
	s *Store
}

func (r *Listings) Create(_ context.Context, _ postgresrepo.DB, l *domain.Listing) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if l.ParentListingID != nil {
		if _, ok := r.s.listings[*l.ParentListingID]; !ok {
			return repository.ErrNotFound
		}
	}

	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	l.CreatedAt = r.s.tick()
	l.UpdatedAt = l.CreatedAt
	r.s.listings[l.ID] = *l

	return nil
}

func (r *Listings) Get(_ context.Context, _ postgresrepo.DB, id uuid.UUID) (*domain.Listing, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	l, ok := r.s.listings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}

	return &l, nil
}

func (r *Listings) GetForUpdate(ctx context.Context, db postgresrepo.DB, id uuid.UUID) (*domain.Listing, error) {
	return r.Get(ctx, db, id)
}

func (r *Listings) Update(_ context.Context, _ postgresrepo.DB, id uuid.UUID, p domain.ListingPatch) (*domain.Listing, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	l, ok := r.s.listings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}

	set(&l.Title, p.Title)
	set(&l.Description, p.Description)
	set(&l.Address, p.Address)
	set(&l.Latitude, p.Latitude)
	set(&l.Longitude, p.Longitude)
	set(&l.LengthFt, p.LengthFt)
	set(&l.WidthFt, p.WidthFt)
	if p.HeightFt != nil {
		h := *p.HeightFt
		l.HeightFt = &h
	}
	set(&l.VehicleClass, p.VehicleClass)
	if p.Subtypes != nil {
		l.Subtypes = p.Subtypes
	}
	if p.Photos != nil {
		l.Photos = p.Photos
	}
	set(&l.ImageURL, p.ImageURL)
	set(&l.IsActive, p.IsActive)
	set(&l.Locker, p.Locker)
	set(&l.CCTV, p.CCTV)
	set(&l.EVCharge, p.EVCharge)
	set(&l.Waterproof, p.Waterproof)
	set(&l.SecurityGuard, p.SecurityGuard)

	l.UpdatedAt = r.s.tick()
	r.s.listings[id] = l

	return &l, nil
}

func (r *Listings) Resize(_ context.Context, _ postgresrepo.DB, id uuid.UUID, lengthFt, widthFt float64) (*domain.Listing, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	l, ok := r.s.listings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}

	l.LengthFt, l.WidthFt = lengthFt, widthFt
	l.UpdatedAt = r.s.tick()
	r.s.listings[id] = l

	return &l, nil
}

func (r *Listings) Delete(_ context.Context, _ postgresrepo.DB, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.listings[id]; !ok {
		return repository.ErrNotFound
	}

	delete(r.s.listings, id)
	maps.DeleteFunc(r.s.subSlots, func(_ uuid.UUID, sl domain.SubSlot) bool { return sl.ListingID == id })
	maps.DeleteFunc(r.s.bookings, func(_ uuid.UUID, b domain.Booking) bool { return b.ListingID == id })
	for k, l := range r.s.listings {
		if l.ParentListingID != nil && *l.ParentListingID == id {
			l.ParentListingID = nil
			r.s.listings[k] = l
		}
	}

	return nil
}

func (r *Listings) ListByOwner(_ context.Context, _ postgresrepo.DB, ownerID uuid.UUID) ([]domain.OwnedListing, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := []domain.OwnedListing{}
	for _, l := range r.s.listings {
		if l.OwnerID != ownerID {
			continue
		}
		out = append(out, domain.OwnedListing{Listing: l, ActiveBookings: r.s.activeCount(l.ID)})
	}

	slices.SortFunc(out, func(a, b domain.OwnedListing) int { return b.CreatedAt.Compare(a.CreatedAt) })

	return out, nil
}

func (r *Listings) CreateSubSlot(_ context.Context, _ postgresrepo.DB, sl *domain.SubSlot) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.listings[sl.ListingID]; !ok {
		return repository.ErrNotFound
	}

	if sl.ID == uuid.Nil {
		sl.ID = uuid.New()
	}
	sl.CreatedAt = r.s.tick()
	r.s.subSlots[sl.ID] = *sl

	return nil
}

func (r *Listings) GetSubSlot(_ context.Context, _ postgresrepo.DB, id uuid.UUID) (*domain.SubSlot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sl, ok := r.s.subSlots[id]
	if !ok {
		return nil, repository.ErrNotFound
	}

	return &sl, nil
}

func (r *Listings) ListSubSlots(_ context.Context, _ postgresrepo.DB, listingID uuid.UUID) ([]domain.SubSlot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []domain.SubSlot
	for _, sl := range r.s.subSlots {
		if sl.ListingID == listingID && sl.IsActive {
			out = append(out, sl)
		}
	}

	slices.SortFunc(out, func(a, b domain.SubSlot) int { return a.CreatedAt.Compare(b.CreatedAt) })

	return out, nil
}

type Bookings struct {
	s *Store
}

func (r *Bookings) LockTarget(context.Context, postgresrepo.DB, domain.Target) error {
	return nil
}

func (r *Bookings) ActiveIntervals(
	_ context.Context,
	_ postgresrepo.DB,
	t domain.Target,
	window *domain.Interval,
) ([]domain.Interval, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []domain.Interval
	for _, b := range r.s.bookings {
		if !b.Status.Live() || !onTarget(b, t) {
			continue
		}
		if window != nil && !schedule.Overlaps(b.Interval(), *window) {
			continue
		}
		out = append(out, b.Interval())
	}

	slices.SortFunc(out, func(a, b domain.Interval) int { return a.Start.Compare(b.Start) })

	return out, nil
}

// Create stores b. Like the database exclusion constraint, it refuses a live
// booking that overlaps another live booking on the same resource.
func (r *Bookings) Create(_ context.Context, _ postgresrepo.DB, b *domain.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.listings[b.ListingID]; !ok {
		return repository.ErrNotFound
	}

	if b.SubSlotID != nil {
		if _, ok := r.s.subSlots[*b.SubSlotID]; !ok {
			return repository.ErrNotFound
		}
	}

	if b.Status.Live() {
		for _, other := range r.s.bookings {
			if other.Status.Live() && resource(other) == resource(*b) && schedule.Overlaps(other.Interval(), b.Interval()) {
				return repository.ErrConflict
			}
		}
	}

	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	b.CreatedAt = r.s.tick()
	b.UpdatedAt = b.CreatedAt
	r.s.bookings[b.ID] = *b

	return nil
}

func (r *Bookings) Get(_ context.Context, _ postgresrepo.DB, id uuid.UUID) (*domain.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}

	return &b, nil
}

func (r *Bookings) GetForUpdate(ctx context.Context, db postgresrepo.DB, id uuid.UUID) (*domain.Booking, error) {
	return r.Get(ctx, db, id)
}

func (r *Bookings) Cancel(_ context.Context, _ postgresrepo.DB, id uuid.UUID, amount float64, percent int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.bookings[id]
	if !ok || b.Status == domain.BookingCancelled {
		return repository.ErrNotFound
	}

	b.Status = domain.BookingCancelled
	b.RefundAmount = &amount
	b.RefundPercent = &percent
	b.ScanToken = nil
	b.UpdatedAt = r.s.tick()
	r.s.bookings[id] = b

	return nil
}

func (r *Bookings) SetScanToken(_ context.Context, _ postgresrepo.DB, id uuid.UUID, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.bookings[id]
	if !ok {
		return repository.ErrNotFound
	}

	b.ScanToken = &token
	b.UpdatedAt = r.s.tick()
	r.s.bookings[id] = b

	return nil
}

func (r *Bookings) ApplyCustody(_ context.Context, _ postgresrepo.DB, in *domain.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.bookings[in.ID]
	if !ok {
		return repository.ErrNotFound
	}

	b.Status = in.Status
	b.CustodyState = in.CustodyState
	b.ScanToken = in.ScanToken
	b.HandedOverAt = in.HandedOverAt
	b.CompletedAt = in.CompletedAt
	b.UpdatedAt = r.s.tick()
	r.s.bookings[in.ID] = b

	in.UpdatedAt = b.UpdatedAt

	return nil
}

func (r *Bookings) ListBySeeker(_ context.Context, _ postgresrepo.DB, seekerID uuid.UUID, limit, offset int) ([]domain.BookingSummary, error) {
	return r.summaries(func(b domain.Booking) bool { return b.SeekerID == seekerID }, limit, offset), nil
}

func (r *Bookings) ListByProvider(_ context.Context, _ postgresrepo.DB, providerID uuid.UUID, limit, offset int) ([]domain.BookingSummary, error) {
	return r.summaries(func(b domain.Booking) bool { return b.ProviderID == providerID }, limit, offset), nil
}

func (r *Bookings) summaries(keep func(domain.Booking) bool, limit, offset int) []domain.BookingSummary {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var all []domain.BookingSummary
	for _, b := range r.s.bookings {
		if !keep(b) {
			continue
		}
		l := r.s.listings[b.ListingID]
		all = append(all, domain.BookingSummary{
			Booking:        b,
			ListingTitle:   l.Title,
			ListingAddress: l.Address,
			ListingKind:    l.Kind,
			ListingImage:   l.ImageURL,
		})
	}

	slices.SortFunc(all, func(a, b domain.BookingSummary) int { return b.CreatedAt.Compare(a.CreatedAt) })

	out := []domain.BookingSummary{}
	for i := offset; i < len(all) && len(out) < limit; i++ {
		out = append(out, all[i])
	}

	return out
}

func (r *Bookings) CountActiveForListing(_ context.Context, _ postgresrepo.DB, listingID uuid.UUID) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.activeCount(listingID), nil
}

func (r *Bookings) ListOverdueCustody(_ context.Context, _ postgresrepo.DB, endedBefore time.Time) ([]domain.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []domain.Booking
	for _, b := range r.s.bookings {
		if b.Status == domain.BookingInCustody && b.EndTime.Before(endedBefore) {
			out = append(out, b)
		}
	}

	slices.SortFunc(out, func(a, b domain.Booking) int { return a.EndTime.Compare(b.EndTime) })

	return out, nil
}

func (s *Store) activeCount(listingID uuid.UUID) int {
	n := 0
	for _, b := range s.bookings {
		if b.ListingID == listingID && b.Status.Live() {
			n++
		}
	}
	return n
}

func onTarget(b domain.Booking, t domain.Target) bool {
	if t.SubSlotID != nil {
		return b.SubSlotID != nil && *b.SubSlotID == *t.SubSlotID
	}
	return b.ListingID == t.ListingID && b.SubSlotID == nil
}

func resource(b domain.Booking) uuid.UUID {
	if b.SubSlotID != nil {
		return *b.SubSlotID
	}
	return b.ListingID
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
