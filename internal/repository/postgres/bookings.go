package postgresrepo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kirinyoku/stow/internal/domain"
	"github.com/kirinyoku/stow/internal/repository"
)

const bookingColumns = `b.id, b.listing_id, b.sub_slot_id, b.seeker_id, b.provider_id,
	b.start_time, b.end_time, b.duration_minutes, b.total_price, b.status, b.custody_state,
	b.scan_token, b.item_photos, b.item_description, b.refund_amount, b.refund_percent,
	b.handed_over_at, b.completed_at, b.created_at, b.updated_at`

type BookingRepo struct {
	pool *pgxpool.Pool
}

// LockTarget takes a transaction-scoped advisory lock on the booking target so
// that concurrent creates for the same listing or sub-slot run one at a time.
// It must be called inside a transaction.
func (r *BookingRepo) LockTarget(ctx context.Context, tx DB, t domain.Target) error {
	const op = "postgresrepo.BookingRepo.LockTarget"

	if _, err := tx.Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, t.Key(),
	); err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

// ActiveIntervals returns the intervals of live bookings on target. A
// listing-level target only sees bookings made without a sub-slot. When
// window is set only intervals overlapping it are returned.
func (r *BookingRepo) ActiveIntervals(
	ctx context.Context,
	db DB,
	t domain.Target,
	window *domain.Interval,
) ([]domain.Interval, error) {
	const op = "postgresrepo.BookingRepo.ActiveIntervals"

	sql := `SELECT start_time, end_time FROM bookings
		WHERE status IN ('confirmed', 'in_custody')`
	args := []any{}

	if t.SubSlotID != nil {
		sql += ` AND sub_slot_id = $1`
		args = append(args, *t.SubSlotID)
	} else {
		sql += ` AND listing_id = $1 AND sub_slot_id IS NULL`
		args = append(args, t.ListingID)
	}

	if window != nil {
		sql += ` AND start_time < $3 AND end_time > $2`
		args = append(args, window.Start, window.End)
	}

	sql += ` ORDER BY start_time`

	rows, err := pick(r.pool, db).Query(ctx, sql, args...)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	var out []domain.Interval
	for rows.Next() {
		var iv domain.Interval
		if err := rows.Scan(&iv.Start, &iv.End); err != nil {
			return nil, wrapDBErr(op, err)
		}
		out = append(out, iv)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

// Create inserts b and fills its ID and timestamps.
//
// Returns:
//   - error: repository.ErrConflict if the interval collides with another
//     live booking on the same target.
//   - error: repository.ErrNotFound if the listing or sub-slot does not exist.
func (r *BookingRepo) Create(ctx context.Context, db DB, b *domain.Booking) error {
	const op = "postgresrepo.BookingRepo.Create"

	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}

	photos := b.ItemPhotos
	if photos == nil {
		photos = []string{}
	}

	err := pick(r.pool, db).QueryRow(ctx,
		`INSERT INTO bookings
			(id, listing_id, sub_slot_id, seeker_id, provider_id, start_time, end_time,
			 duration_minutes, total_price, status, custody_state, item_photos, item_description)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		 RETURNING created_at, updated_at`,
		b.ID, b.ListingID, b.SubSlotID, b.SeekerID, b.ProviderID, b.StartTime, b.EndTime,
		b.DurationMinutes, b.TotalPrice, b.Status, b.CustodyState, photos, b.ItemDescription,
	).Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

// Get retrieves a booking by its ID.
//
// Returns:
//   - error: repository.ErrNotFound if the booking does not exist.
func (r *BookingRepo) Get(ctx context.Context, db DB, id uuid.UUID) (*domain.Booking, error) {
	const op = "postgresrepo.BookingRepo.Get"

	b, err := scanBooking(pick(r.pool, db).QueryRow(ctx,
		`SELECT `+bookingColumns+` FROM bookings b WHERE b.id = $1`, id,
	))
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return b, nil
}

// GetForUpdate retrieves a booking and locks its row until the surrounding
// transaction ends.
func (r *BookingRepo) GetForUpdate(ctx context.Context, db DB, id uuid.UUID) (*domain.Booking, error) {
	const op = "postgresrepo.BookingRepo.GetForUpdate"

	b, err := scanBooking(pick(r.pool, db).QueryRow(ctx,
		`SELECT `+bookingColumns+` FROM bookings b WHERE b.id = $1 FOR UPDATE`, id,
	))
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return b, nil
}

// Cancel marks a booking cancelled and records the refund. Bookings that are
// already cancelled are left as they are.
//
// Returns:
//   - error: repository.ErrNotFound if no live booking matched.
func (r *BookingRepo) Cancel(ctx context.Context, db DB, id uuid.UUID, amount float64, percent int) error {
	const op = "postgresrepo.BookingRepo.Cancel"

	tag, err := pick(r.pool, db).Exec(ctx,
		`UPDATE bookings
		 SET status = 'cancelled', refund_amount = $2, refund_percent = $3,
		     scan_token = NULL, updated_at = now()
		 WHERE id = $1 AND status <> 'cancelled'`,
		id, amount, percent,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return wrapDBErr(op, repository.ErrNotFound)
	}

	return nil
}

// SetScanToken stores the one-time custody token, replacing any previous one.
func (r *BookingRepo) SetScanToken(ctx context.Context, db DB, id uuid.UUID, token string) error {
	const op = "postgresrepo.BookingRepo.SetScanToken"

	tag, err := pick(r.pool, db).Exec(ctx,
		`UPDATE bookings SET scan_token = $2, updated_at = now() WHERE id = $1`,
		id, token,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return wrapDBErr(op, repository.ErrNotFound)
	}

	return nil
}

// ApplyCustody persists the custody fields of b after a state transition.
func (r *BookingRepo) ApplyCustody(ctx context.Context, db DB, b *domain.Booking) error {
	const op = "postgresrepo.BookingRepo.ApplyCustody"

	err := pick(r.pool, db).QueryRow(ctx,
		`UPDATE bookings
		 SET status = $2, custody_state = $3, scan_token = $4,
		     handed_over_at = $5, completed_at = $6, updated_at = now()
		 WHERE id = $1
		 RETURNING updated_at`,
		b.ID, b.Status, b.CustodyState, b.ScanToken, b.HandedOverAt, b.CompletedAt,
	).Scan(&b.UpdatedAt)
	if err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

// ListBySeeker lists bookings made by a seeker, newest first.
func (r *BookingRepo) ListBySeeker(ctx context.Context, db DB, seekerID uuid.UUID, limit, offset int) ([]domain.BookingSummary, error) {
	const op = "postgresrepo.BookingRepo.ListBySeeker"

	out, err := r.listSummaries(ctx, pick(r.pool, db), `b.seeker_id = $1`, seekerID, limit, offset)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

// ListByProvider lists bookings on listings owned by a provider, newest first.
func (r *BookingRepo) ListByProvider(ctx context.Context, db DB, providerID uuid.UUID, limit, offset int) ([]domain.BookingSummary, error) {
	const op = "postgresrepo.BookingRepo.ListByProvider"

	out, err := r.listSummaries(ctx, pick(r.pool, db), `b.provider_id = $1`, providerID, limit, offset)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

func (r *BookingRepo) listSummaries(
	ctx context.Context,
	db DB,
	where string,
	id uuid.UUID,
	limit, offset int,
) ([]domain.BookingSummary, error) {
	rows, err := db.Query(ctx,
		`SELECT `+bookingColumns+`, l.title, l.address, l.type, l.image_url
		 FROM bookings b
		 JOIN listings l ON l.id = b.listing_id
		 WHERE `+where+`
		 ORDER BY b.created_at DESC, b.id
		 LIMIT $2 OFFSET $3`,
		id, limit, offset,
	)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	out := make([]domain.BookingSummary, 0, limit)
	for rows.Next() {
		var s domain.BookingSummary
		dest := append(bookingDest(&s.Booking), &s.ListingTitle, &s.ListingAddress, &s.ListingKind, &s.ListingImage)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		out = append(out, s)
	}

	return out, rows.Err()
}

// CountActiveForListing counts live bookings on a listing or any of its
// sub-slots.
func (r *BookingRepo) CountActiveForListing(ctx context.Context, db DB, listingID uuid.UUID) (int, error) {
	const op = "postgresrepo.BookingRepo.CountActiveForListing"

	var n int
	err := pick(r.pool, db).QueryRow(ctx,
		`SELECT count(*) FROM bookings
		 WHERE listing_id = $1 AND status IN ('confirmed', 'in_custody')`,
		listingID,
	).Scan(&n)
	if err != nil {
		return 0, wrapDBErr(op, err)
	}

	return n, nil
}

// ListOverdueCustody returns in-custody bookings whose end time is before
// endedBefore.
func (r *BookingRepo) ListOverdueCustody(ctx context.Context, db DB, endedBefore time.Time) ([]domain.Booking, error) {
	const op = "postgresrepo.BookingRepo.ListOverdueCustody"

	rows, err := pick(r.pool, db).Query(ctx,
		`SELECT `+bookingColumns+` FROM bookings b
		 WHERE b.status = 'in_custody' AND b.end_time < $1
		 ORDER BY b.end_time`,
		endedBefore,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	var out []domain.Booking
	for rows.Next() {
		var b domain.Booking
		if err := rows.Scan(bookingDest(&b)...); err != nil {
			return nil, wrapDBErr(op, err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

func bookingDest(b *domain.Booking) []any {
	return []any{
		&b.ID, &b.ListingID, &b.SubSlotID, &b.SeekerID, &b.ProviderID,
		&b.StartTime, &b.EndTime, &b.DurationMinutes, &b.TotalPrice, &b.Status, &b.CustodyState,
		&b.ScanToken, &b.ItemPhotos, &b.ItemDescription, &b.RefundAmount, &b.RefundPercent,
		&b.HandedOverAt, &b.CompletedAt, &b.CreatedAt, &b.UpdatedAt,
	}
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	if err := row.Scan(bookingDest(&b)...); err != nil {
		return nil, err
	}
	return &b, nil
}
