package listing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirinyoku/stow/internal/domain"
	"github.com/kirinyoku/stow/internal/repository"
	postgresrepo "github.com/kirinyoku/stow/internal/repository/postgres"
	redisrepo "github.com/kirinyoku/stow/internal/repository/redis"
	"github.com/kirinyoku/stow/internal/uow"
)

type ListingStore interface {
	Create(ctx context.Context, db postgresrepo.DB, l *domain.Listing) error
	Get(ctx context.Context, db postgresrepo.DB, id uuid.UUID) (*domain.Listing, error)
	GetForUpdate(ctx context.Context, db postgresrepo.DB, id uuid.UUID) (*domain.Listing, error)
	Update(ctx context.Context, db postgresrepo.DB, id uuid.UUID, p domain.ListingPatch) (*domain.Listing, error)
	Resize(ctx context.Context, db postgresrepo.DB, id uuid.UUID, lengthFt, widthFt float64) (*domain.Listing, error)
	Delete(ctx context.Context, db postgresrepo.DB, id uuid.UUID) error
	ListByOwner(ctx context.Context, db postgresrepo.DB, ownerID uuid.UUID) ([]domain.OwnedListing, error)
	CreateSubSlot(ctx context.Context, db postgresrepo.DB, s *domain.SubSlot) error
	ListSubSlots(ctx context.Context, db postgresrepo.DB, listingID uuid.UUID) ([]domain.SubSlot, error)
}

type BookingCounter interface {
	CountActiveForListing(ctx context.Context, db postgresrepo.DB, listingID uuid.UUID) (int, error)
}

type Config struct {
	ListingTTL time.Duration
}

type Service struct {
	listings ListingStore
	bookings BookingCounter
	uow      uow.Transactor
	cache    *redisrepo.Cache
	cfg      Config
}

func New(
	listings ListingStore,
	bookings BookingCounter,
	tx uow.Transactor,
	cache *redisrepo.Cache,
	cfg Config,
) *Service {
	if cfg.ListingTTL <= 0 {
		cfg.ListingTTL = 5 * time.Minute
	}

	return &Service{
		listings: listings,
		bookings: bookings,
		uow:      tx,
		cache:    cache,
		cfg:      cfg,
	}
}

type CreateInput struct {
	Kind         domain.ListingKind
	Title        string
	Description  string
	Address      string
	Latitude     *float64
	Longitude    *float64
	LengthFt     float64
	WidthFt      float64
	HeightFt     *float64
	VehicleClass domain.VehicleClass
	Subtypes     []string
	ImageURL     string
	Photos       []string
	Amenities    domain.Amenities
}

// Create publishes a new listing owned by ownerID. Parking listings carry no
// geometry; their vehicle class defaults to 2-wheeler.
//
// Returns:
//   - error: listing.ErrInvalidInput if the kind, title or vehicle class is invalid.
//   - error: listing.ErrLocationRequired if latitude or longitude is missing.
//   - error: listing.ErrInvalidDimensions if a storage listing has no area.
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, in CreateInput) (*domain.Listing, error) {
	const op = "service.listing.Create"

	if !in.Kind.Valid() {
		return nil, fmt.Errorf("%s:%w: unknown type %q", op, ErrInvalidInput, in.Kind)
	}

	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("%s:%w: title is required", op, ErrInvalidInput)
	}

	if in.Latitude == nil || in.Longitude == nil {
		return nil, fmt.Errorf("%s:%w", op, ErrLocationRequired)
	}

	l := &domain.Listing{
		OwnerID:     ownerID,
		Kind:        in.Kind,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Address:     in.Address,
		Latitude:    *in.Latitude,
		Longitude:   *in.Longitude,
		Subtypes:    nonNil(in.Subtypes),
		ImageURL:    in.ImageURL,
		Photos:      nonNil(in.Photos),
		IsActive:    true,
		Amenities:   in.Amenities,
	}

	switch in.Kind {
	case domain.KindStorage:
		if in.LengthFt <= 0 || in.WidthFt <= 0 {
			return nil, fmt.Errorf("%s:%w: length and width must be positive", op, ErrInvalidDimensions)
		}
		l.LengthFt = in.LengthFt
		l.WidthFt = in.WidthFt
		l.HeightFt = in.HeightFt
	case domain.KindParking:
		class, err := vehicleClass(in.VehicleClass)
		if err != nil {
			return nil, fmt.Errorf("%s:%w", op, err)
		}
		l.VehicleClass = class
	}

	if err := s.listings.Create(ctx, nil, l); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return l, nil
}

// Get returns a listing with its active sub-slots.
//
// Returns:
//   - error: listing.ErrListingNotFound if the listing does not exist.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.ListingDetail, error) {
	const op = "service.listing.Get"

	detail, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		redisrepo.KeyListing(id),
		s.cfg.ListingTTL,
		func(ctx context.Context) (domain.ListingDetail, error) {
			l, err := s.listings.Get(ctx, nil, id)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return domain.ListingDetail{}, ErrListingNotFound
				}
				return domain.ListingDetail{}, err
			}

			slots, err := s.listings.ListSubSlots(ctx, nil, id)
			if err != nil {
				return domain.ListingDetail{}, err
			}

			if slots == nil {
				slots = []domain.SubSlot{}
			}

			return domain.ListingDetail{Listing: *l, SubSlots: slots}, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &detail, nil
}

// ListMine lists the listings owned by ownerID with their live booking counts.
func (s *Service) ListMine(ctx context.Context, ownerID uuid.UUID) ([]domain.OwnedListing, error) {
	const op = "service.listing.ListMine"

	out, err := s.listings.ListByOwner(ctx, nil, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

// Update applies a partial update to a listing owned by actorID. Geometry is
// ignored for parking listings and vehicle class for storage listings.
//
// Returns:
//   - error: listing.ErrListingNotFound if the listing does not exist.
//   - error: listing.ErrForbidden if actorID does not own the listing.
//   - error: listing.ErrInvalidDimensions if a storage dimension is not positive.
//   - error: listing.ErrInvalidInput if the patch is otherwise invalid.
func (s *Service) Update(ctx context.Context, id, actorID uuid.UUID, p domain.ListingPatch) (*domain.Listing, error) {
	const op = "service.listing.Update"

	var out *domain.Listing

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		l, err := s.ownedForUpdate(ctx, tx, id, actorID)
		if err != nil {
			return err
		}

		if p.Title != nil {
			title := strings.TrimSpace(*p.Title)
			if title == "" {
				return fmt.Errorf("%w: title is required", ErrInvalidInput)
			}
			p.Title = &title
		}

		switch l.Kind {
		case domain.KindParking:
			p.LengthFt, p.WidthFt, p.HeightFt = nil, nil, nil
			if p.VehicleClass != nil {
				class, err := vehicleClass(*p.VehicleClass)
				if err != nil {
					return err
				}
				p.VehicleClass = &class
			}
		case domain.KindStorage:
			p.VehicleClass = nil
			for _, d := range []*float64{p.LengthFt, p.WidthFt} {
				if d != nil && *d <= 0 {
					return fmt.Errorf("%w: length and width must be positive", ErrInvalidDimensions)
				}
			}
		}

		updated, err := s.listings.Update(ctx, tx, id, p)
		if err != nil {
			return err
		}

		out = updated

		after(func(ctx context.Context) {
			_ = s.cache.InvalidateListing(ctx, id)
		})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

// Delete removes a listing owned by actorID.
//
// Returns:
//   - error: listing.ErrListingNotFound if the listing does not exist.
//   - error: listing.ErrForbidden if actorID does not own the listing.
//   - error: listing.ErrActiveBookings if the listing still has live bookings.
func (s *Service) Delete(ctx context.Context, id, actorID uuid.UUID) error {
	const op = "service.listing.Delete"

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		if _, err := s.ownedForUpdate(ctx, tx, id, actorID); err != nil {
			return err
		}

		n, err := s.bookings.CountActiveForListing(ctx, tx, id)
		if err != nil {
			return err
		}

		if n > 0 {
			return ErrActiveBookings
		}

		if err := s.listings.Delete(ctx, tx, id); err != nil {
			return err
		}

		after(func(ctx context.Context) {
			_ = s.cache.InvalidateListing(ctx, id)
		})

		return nil
	})
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

type SubSlotInput struct {
	Label    string
	LengthFt float64
	WidthFt  float64
	HeightFt *float64
}

// AddSubSlot adds an independently bookable sub-slot to a listing.
//
// Returns:
//   - error: listing.ErrListingNotFound if the listing does not exist.
//   - error: listing.ErrForbidden if actorID does not own the listing.
//   - error: listing.ErrInvalidInput if the label is empty or a dimension is negative.
func (s *Service) AddSubSlot(ctx context.Context, listingID, actorID uuid.UUID, in SubSlotInput) (*domain.SubSlot, error) {
	const op = "service.listing.AddSubSlot"

	if strings.TrimSpace(in.Label) == "" {
		return nil, fmt.Errorf("%s:%w: label is required", op, ErrInvalidInput)
	}

	if in.LengthFt < 0 || in.WidthFt < 0 || (in.HeightFt != nil && *in.HeightFt < 0) {
		return nil, fmt.Errorf("%s:%w: dimensions cannot be negative", op, ErrInvalidInput)
	}

	var out *domain.SubSlot

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		if _, err := s.ownedForUpdate(ctx, tx, listingID, actorID); err != nil {
			return err
		}

		slot := &domain.SubSlot{
			ListingID: listingID,
			Label:     strings.TrimSpace(in.Label),
			LengthFt:  in.LengthFt,
			WidthFt:   in.WidthFt,
			HeightFt:  in.HeightFt,
			IsActive:  true,
		}

		if err := s.listings.CreateSubSlot(ctx, tx, slot); err != nil {
			return err
		}

		out = slot

		after(func(ctx context.Context) {
			_ = s.cache.InvalidateListing(ctx, listingID)
		})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

// SplitResult holds both halves of a split.
type SplitResult struct {
	Original  *domain.Listing `json:"original"`
	Remainder *domain.Listing `json:"remainder"`
}

// Split shrinks a storage listing to newLength×newWidth and publishes the
// freed space as a new child listing. Both writes happen in one transaction.
//
// Returns:
//   - error: listing.ErrListingNotFound if the listing does not exist.
//   - error: listing.ErrForbidden if actorID does not own the listing.
//   - error: listing.ErrInvalidDimensions if the new dimensions are not a strict shrink.
//   - error: listing.ErrNoSpaceRemaining if nothing would be left to split off.
func (s *Service) Split(ctx context.Context, id, actorID uuid.UUID, newLength, newWidth float64) (*SplitResult, error) {
	const op = "service.listing.Split"

	var out *SplitResult

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		l, err := s.ownedForUpdate(ctx, tx, id, actorID)
		if err != nil {
			return err
		}

		if l.Kind != domain.KindStorage {
			return fmt.Errorf("%w: only storage listings can be split", ErrInvalidDimensions)
		}

		remLength, remWidth, err := planSplit(l.LengthFt, l.WidthFt, newLength, newWidth)
		if err != nil {
			return err
		}

		original, err := s.listings.Resize(ctx, tx, id, newLength, newWidth)
		if err != nil {
			return err
		}

		parentID := l.ID
		child := &domain.Listing{
			OwnerID:         l.OwnerID,
			Kind:            l.Kind,
			Title:           l.Title + SplitSuffix,
			Description:     l.Description,
			Address:         l.Address,
			Latitude:        l.Latitude,
			Longitude:       l.Longitude,
			LengthFt:        remLength,
			WidthFt:         remWidth,
			HeightFt:        l.HeightFt,
			Subtypes:        nonNil(l.Subtypes),
			ImageURL:        l.ImageURL,
			Photos:          nonNil(l.Photos),
			IsActive:        l.IsActive,
			ParentListingID: &parentID,
			Amenities:       l.Amenities,
		}

		if err := s.listings.Create(ctx, tx, child); err != nil {
			return err
		}

		out = &SplitResult{Original: original, Remainder: child}

		after(func(ctx context.Context) {
			_ = s.cache.InvalidateListing(ctx, id)
		})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

func (s *Service) ownedForUpdate(ctx context.Context, tx postgresrepo.DB, id, actorID uuid.UUID) (*domain.Listing, error) {
	l, err := s.listings.GetForUpdate(ctx, tx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}

	if l.OwnerID != actorID {
		return nil, ErrForbidden
	}

	return l, nil
}

func vehicleClass(c domain.VehicleClass) (domain.VehicleClass, error) {
	switch c {
	case "":
		return domain.TwoWheeler, nil
	case domain.TwoWheeler, domain.FourWheeler:
		return c, nil
	default:
		return "", fmt.Errorf("%w: unknown vehicle type %q", ErrInvalidInput, c)
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
