package httpgin

import (
	"time"

	"github.com/google/uuid"

	"github.com/kirinyoku/stow/internal/domain"
	"github.com/kirinyoku/stow/internal/service/listing"
)

type PreviewPriceRequest struct {
	ListingID string `json:"listing_id" binding:"required,uuid"`
	StartTime string `json:"start_time" binding:"required"`
	EndTime   string `json:"end_time" binding:"required"`
}

type CreateBookingRequest struct {
	ListingID       string   `json:"listing_id" binding:"required,uuid"`
	SubSlotID       *string  `json:"sub_slot_id" binding:"omitempty,uuid"`
	StartTime       string   `json:"start_time" binding:"required"`
	EndTime         string   `json:"end_time" binding:"required"`
	ItemPhotos      []string `json:"item_photos"`
	ItemDescription string   `json:"item_description"`
}

type ScanRequest struct {
	ScanToken string `json:"scanToken" binding:"required"`
}

type CreateListingRequest struct {
	Type             domain.ListingKind  `json:"type" binding:"required"`
	Title            string              `json:"title" binding:"required"`
	Description      string              `json:"description"`
	Address          string              `json:"address"`
	Latitude         *float64            `json:"latitude"`
	Longitude        *float64            `json:"longitude"`
	LengthFt         float64             `json:"length_ft"`
	WidthFt          float64             `json:"width_ft"`
	HeightFt         *float64            `json:"height_ft"`
	VehicleType      domain.VehicleClass `json:"vehicle_type"`
	Subtypes         []string            `json:"subtypes"`
	ImageURL         string              `json:"image_url"`
	Photos           []string            `json:"photos"`
	HasLocker        bool                `json:"has_locker"`
	HasCCTV          bool                `json:"has_cctv"`
	HasEVCharge      bool                `json:"has_ev_charge"`
	IsWaterproof     bool                `json:"is_waterproof"`
	HasSecurityGuard bool                `json:"has_security_guard"`
}

func (r CreateListingRequest) input() listing.CreateInput {
	return listing.CreateInput{
		Kind:         r.Type,
		Title:        r.Title,
		Description:  r.Description,
		Address:      r.Address,
		Latitude:     r.Latitude,
		Longitude:    r.Longitude,
		LengthFt:     r.LengthFt,
		WidthFt:      r.WidthFt,
		HeightFt:     r.HeightFt,
		VehicleClass: r.VehicleType,
		Subtypes:     r.Subtypes,
		ImageURL:     r.ImageURL,
		Photos:       r.Photos,
		Amenities: domain.Amenities{
			Locker:        r.HasLocker,
			CCTV:          r.HasCCTV,
			EVCharge:      r.HasEVCharge,
			Waterproof:    r.IsWaterproof,
			SecurityGuard: r.HasSecurityGuard,
		},
	}
}

// UpdateListingRequest leaves omitted fields unchanged.
type UpdateListingRequest struct {
	Title            *string              `json:"title"`
	Description      *string              `json:"description"`
	Address          *string              `json:"address"`
	Latitude         *float64             `json:"latitude"`
	Longitude        *float64             `json:"longitude"`
	LengthFt         *float64             `json:"length_ft"`
	WidthFt          *float64             `json:"width_ft"`
	HeightFt         *float64             `json:"height_ft"`
	VehicleType      *domain.VehicleClass `json:"vehicle_type"`
	Subtypes         []string             `json:"subtypes"`
	ImageURL         *string              `json:"image_url"`
	Photos           []string             `json:"photos"`
	IsActive         *bool                `json:"is_active"`
	HasLocker        *bool                `json:"has_locker"`
	HasCCTV          *bool                `json:"has_cctv"`
	HasEVCharge      *bool                `json:"has_ev_charge"`
	IsWaterproof     *bool                `json:"is_waterproof"`
	HasSecurityGuard *bool                `json:"has_security_guard"`
}

func (r UpdateListingRequest) patch() domain.ListingPatch {
	return domain.ListingPatch{
		Title:         r.Title,
		Description:   r.Description,
		Address:       r.Address,
		Latitude:      r.Latitude,
		Longitude:     r.Longitude,
		LengthFt:      r.LengthFt,
		WidthFt:       r.WidthFt,
		HeightFt:      r.HeightFt,
		VehicleClass:  r.VehicleType,
		Subtypes:      r.Subtypes,
		Photos:        r.Photos,
		ImageURL:      r.ImageURL,
		IsActive:      r.IsActive,
		Locker:        r.HasLocker,
		CCTV:          r.HasCCTV,
		EVCharge:      r.HasEVCharge,
		Waterproof:    r.IsWaterproof,
		SecurityGuard: r.HasSecurityGuard,
	}
}

type CreateSubSlotRequest struct {
	Label    string   `json:"label" binding:"required"`
	LengthFt float64  `json:"length_ft"`
	WidthFt  float64  `json:"width_ft"`
	HeightFt *float64 `json:"height_ft"`
}

type SplitRequest struct {
	NewLengthFt float64 `json:"new_length_ft"`
	NewWidthFt  float64 `json:"new_width_ft"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type SlotsResponse struct {
	ListingID uuid.UUID         `json:"listing_id"`
	SubSlotID *uuid.UUID        `json:"sub_slot_id,omitempty"`
	Date      string            `json:"date"`
	Slots     []domain.Interval `json:"slots"`
}

type DeletedResponse struct {
	Deleted uuid.UUID `json:"deleted"`
}

func parseRFC3339(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}
