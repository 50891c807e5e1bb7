package postgresrepo

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kirinyoku/stow/internal/domain"
	"github.com/kirinyoku/stow/internal/repository"
)

const listingColumns = `id, owner_id, type, title, description, address, latitude, longitude,
	length_ft, width_ft, height_ft, vehicle_type, subtypes,
	has_locker, has_cctv, has_ev_charge, is_waterproof, has_security_guard,
	image_url, photos, is_active, parent_listing_id, created_at, updated_at`

type ListingRepo struct {
	pool *pgxpool.Pool
}

// Create inserts l and fills its ID and timestamps.
//
// Returns:
//   - error: repository.ErrNotFound if l.ParentListingID does not exist.
func (r *ListingRepo) Create(ctx context.Context, db DB, l *domain.Listing) error {
	const op = "postgresrepo.ListingRepo.Create"

	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}

	err := pick(r.pool, db).QueryRow(ctx,
		`INSERT INTO listings
			(id, owner_id, type, title, description, address, latitude, longitude,
			 length_ft, width_ft, height_ft, vehicle_type, subtypes,
			 has_locker, has_cctv, has_ev_charge, is_waterproof, has_security_guard,
			 image_url, photos, is_active, parent_listing_id)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)
		 RETURNING created_at, updated_at`,
		l.ID, l.OwnerID, l.Kind, l.Title, l.Description, l.Address, l.Latitude, l.Longitude,
		l.LengthFt, l.WidthFt, l.HeightFt, nullableClass(l.VehicleClass), nonNil(l.Subtypes),
		l.Locker, l.CCTV, l.EVCharge, l.Waterproof, l.SecurityGuard,
		l.ImageURL, nonNil(l.Photos), l.IsActive, l.ParentListingID,
	).Scan(&l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

// Get retrieves a listing by its ID.
//
// Returns:
//   - error: repository.ErrNotFound if the listing does not exist.
func (r *ListingRepo) Get(ctx context.Context, db DB, id uuid.UUID) (*domain.Listing, error) {
	const op = "postgresrepo.ListingRepo.Get"

	l, err := scanListing(pick(r.pool, db).QueryRow(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE id = $1`, id,
	))
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return l, nil
}

// GetForUpdate retrieves a listing and locks its row until the surrounding
// transaction ends.
func (r *ListingRepo) GetForUpdate(ctx context.Context, db DB, id uuid.UUID) (*domain.Listing, error) {
	const op = "postgresrepo.ListingRepo.GetForUpdate"

	l, err := scanListing(pick(r.pool, db).QueryRow(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE id = $1 FOR UPDATE`, id,
	))
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return l, nil
}

// Update applies p to the listing. Nil patch fields keep their stored value.
//
// Returns:
//   - *domain.Listing: the listing after the update.
//   - error: repository.ErrNotFound if the listing does not exist.
func (r *ListingRepo) Update(ctx context.Context, db DB, id uuid.UUID, p domain.ListingPatch) (*domain.Listing, error) {
	const op = "postgresrepo.ListingRepo.Update"

	var class *string
	if p.VehicleClass != nil {
		s := string(*p.VehicleClass)
		class = &s
	}

	l, err := scanListing(pick(r.pool, db).QueryRow(ctx,
		`UPDATE listings SET
			title = COALESCE($2, title),
			description = COALESCE($3, description),
			address = COALESCE($4, address),
			latitude = COALESCE($5, latitude),
			longitude = COALESCE($6, longitude),
			length_ft = COALESCE($7, length_ft),
			width_ft = COALESCE($8, width_ft),
			height_ft = COALESCE($9, height_ft),
			vehicle_type = COALESCE($10, vehicle_type),
			subtypes = COALESCE($11, subtypes),
			photos = COALESCE($12, photos),
			image_url = COALESCE($13, image_url),
			is_active = COALESCE($14, is_active),
			has_locker = COALESCE($15, has_locker),
			has_cctv = COALESCE($16, has_cctv),
			has_ev_charge = COALESCE($17, has_ev_charge),
			is_waterproof = COALESCE($18, is_waterproof),
			has_security_guard = COALESCE($19, has_security_guard),
			updated_at = now()
		 WHERE id = $1
		 RETURNING `+listingColumns,
		id, p.Title, p.Description, p.Address, p.Latitude, p.Longitude,
		p.LengthFt, p.WidthFt, p.HeightFt, class, p.Subtypes, p.Photos, p.ImageURL, p.IsActive,
		p.Locker, p.CCTV, p.EVCharge, p.Waterproof, p.SecurityGuard,
	))
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return l, nil
}

// Resize overwrites the footprint of a listing.
func (r *ListingRepo) Resize(ctx context.Context, db DB, id uuid.UUID, lengthFt, widthFt float64) (*domain.Listing, error) {
	const op = "postgresrepo.ListingRepo.Resize"

	l, err := scanListing(pick(r.pool, db).QueryRow(ctx,
		`UPDATE listings SET length_ft = $2, width_ft = $3, updated_at = now()
		 WHERE id = $1
		 RETURNING `+listingColumns,
		id, lengthFt, widthFt,
	))
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return l, nil
}

// Delete removes a listing.
//
// Returns:
//   - error: repository.ErrNotFound if nothing was deleted.
func (r *ListingRepo) Delete(ctx context.Context, db DB, id uuid.UUID) error {
	const op = "postgresrepo.ListingRepo.Delete"

	tag, err := pick(r.pool, db).Exec(ctx, `DELETE FROM listings WHERE id = $1`, id)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return wrapDBErr(op, repository.ErrNotFound)
	}

	return nil
}

func (r *ListingRepo) CreateSubSlot(ctx context.Context, db DB, s *domain.SubSlot) error {
	const op = "postgresrepo.ListingRepo.CreateSubSlot"

	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}

	err := pick(r.pool, db).QueryRow(ctx,
		`INSERT INTO sub_slots (id, listing_id, label, length_ft, width_ft, height_ft, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at`,
		s.ID, s.ListingID, s.Label, s.LengthFt, s.WidthFt, s.HeightFt, s.IsActive,
	).Scan(&s.CreatedAt)
	if err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

// GetSubSlot retrieves a sub-slot by its ID.
//
// Returns:
//   - error: repository.ErrNotFound if the sub-slot does not exist.
func (r *ListingRepo) GetSubSlot(ctx context.Context, db DB, id uuid.UUID) (*domain.SubSlot, error) {
	const op = "postgresrepo.ListingRepo.GetSubSlot"

	var s domain.SubSlot
	err := pick(r.pool, db).QueryRow(ctx,
		`SELECT id, listing_id, label, length_ft, width_ft, height_ft, is_active, created_at
		 FROM sub_slots WHERE id = $1`,
		id,
	).Scan(&s.ID, &s.ListingID, &s.Label, &s.LengthFt, &s.WidthFt, &s.HeightFt, &s.IsActive, &s.CreatedAt)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &s, nil
}

// ListSubSlots lists the active sub-slots of a listing.
func (r *ListingRepo) ListSubSlots(ctx context.Context, db DB, listingID uuid.UUID) ([]domain.SubSlot, error) {
	const op = "postgresrepo.ListingRepo.ListSubSlots"

	rows, err := pick(r.pool, db).Query(ctx,
		`SELECT id, listing_id, label, length_ft, width_ft, height_ft, is_active, created_at
		 FROM sub_slots
		 WHERE listing_id = $1 AND is_active
		 ORDER BY created_at`,
		listingID,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	var out []domain.SubSlot
	for rows.Next() {
		var s domain.SubSlot
		if err := rows.Scan(
			&s.ID, &s.ListingID, &s.Label, &s.LengthFt, &s.WidthFt, &s.HeightFt, &s.IsActive, &s.CreatedAt,
		); err != nil {
			return nil, wrapDBErr(op, err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

// ListByOwner lists the listings of an owner, newest first, with the number
// of live bookings on each.
func (r *ListingRepo) ListByOwner(ctx context.Context, db DB, ownerID uuid.UUID) ([]domain.OwnedListing, error) {
	const op = "postgresrepo.ListingRepo.ListByOwner"

	rows, err := pick(r.pool, db).Query(ctx,
		`SELECT `+listingColumns+`,
			(SELECT count(*) FROM bookings b
			 WHERE b.listing_id = listings.id AND b.status IN ('confirmed', 'in_custody'))
		 FROM listings
		 WHERE owner_id = $1
		 ORDER BY created_at DESC`,
		ownerID,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	out := []domain.OwnedListing{}
	for rows.Next() {
		var (
			o     domain.OwnedListing
			class *string
		)
		dest := append(listingDest(&o.Listing, &class), &o.ActiveBookings)
		if err := rows.Scan(dest...); err != nil {
			return nil, wrapDBErr(op, err)
		}
		if class != nil {
			o.VehicleClass = domain.VehicleClass(*class)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

func listingDest(l *domain.Listing, class **string) []any {
	return []any{
		&l.ID, &l.OwnerID, &l.Kind, &l.Title, &l.Description, &l.Address, &l.Latitude, &l.Longitude,
		&l.LengthFt, &l.WidthFt, &l.HeightFt, class, &l.Subtypes,
		&l.Locker, &l.CCTV, &l.EVCharge, &l.Waterproof, &l.SecurityGuard,
		&l.ImageURL, &l.Photos, &l.IsActive, &l.ParentListingID, &l.CreatedAt, &l.UpdatedAt,
	}
}

func scanListing(row pgx.Row) (*domain.Listing, error) {
	var (
		l     domain.Listing
		class *string
	)

	if err := row.Scan(listingDest(&l, &class)...); err != nil {
		return nil, err
	}

	if class != nil {
		l.VehicleClass = domain.VehicleClass(*class)
	}

	return &l, nil
}

func nullableClass(c domain.VehicleClass) *string {
	if c == "" {
		return nil
	}
	s := string(c)
	return &s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
