package domain

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

type ListingKind string

const (
	KindStorage ListingKind = "storage"
	KindParking ListingKind = "parking"
)

func (k ListingKind) Valid() bool {
	return k == KindStorage || k == KindParking
}

type VehicleClass string

const (
	TwoWheeler  VehicleClass = "2-wheeler"
	FourWheeler VehicleClass = "4-wheeler"
)

// SubtypeCovered marks a covered space in a listing's subtype tag set.
const SubtypeCovered = "Covered"

type BookingStatus string

const (
	BookingConfirmed BookingStatus = "confirmed"
	BookingInCustody BookingStatus = "in_custody"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

// Live reports whether a booking in this status still occupies its resource.
func (s BookingStatus) Live() bool {
	return s == BookingConfirmed || s == BookingInCustody
}

type CustodyState string

const (
	CustodyPending   CustodyState = "Pending"
	CustodyInCustody CustodyState = "In-Custody"
	CustodyCompleted CustodyState = "Completed"
)

type Amenities struct {
	Locker        bool `json:"has_locker"`
	CCTV          bool `json:"has_cctv"`
	EVCharge      bool `json:"has_ev_charge"`
	Waterproof    bool `json:"is_waterproof"`
	SecurityGuard bool `json:"has_security_guard"`
}

type Listing struct {
	ID              uuid.UUID    `json:"id"`
	OwnerID         uuid.UUID    `json:"owner_id"`
	Kind            ListingKind  `json:"type"`
	Title           string       `json:"title"`
	Description     string       `json:"description"`
	Address         string       `json:"address"`
	Latitude        float64      `json:"latitude"`
	Longitude       float64      `json:"longitude"`
	LengthFt        float64      `json:"length_ft"`
	WidthFt         float64      `json:"width_ft"`
	HeightFt        *float64     `json:"height_ft,omitempty"`
	VehicleClass    VehicleClass `json:"vehicle_type,omitempty"`
	Subtypes        []string     `json:"subtypes"`
	ImageURL        string       `json:"image_url,omitempty"`
	Photos          []string     `json:"photos"`
	IsActive        bool         `json:"is_active"`
	ParentListingID *uuid.UUID   `json:"parent_listing_id,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`

	Amenities
}

func (l *Listing) Covered() bool {
	return slices.Contains(l.Subtypes, SubtypeCovered)
}

func (l *Listing) AreaSqft() float64 {
	return l.LengthFt * l.WidthFt
}

// ListingPatch carries a partial listing update. Nil fields are left unchanged.
type ListingPatch struct {
	Title         *string
	Description   *string
	Address       *string
	Latitude      *float64
	Longitude     *float64
	LengthFt      *float64
	WidthFt       *float64
	HeightFt      *float64
	VehicleClass  *VehicleClass
	Subtypes      []string
	Photos        []string
	ImageURL      *string
	IsActive      *bool
	Locker        *bool
	CCTV          *bool
	EVCharge      *bool
	Waterproof    *bool
	SecurityGuard *bool
}

type SubSlot struct {
	ID        uuid.UUID `json:"id"`
	ListingID uuid.UUID `json:"listing_id"`
	Label     string    `json:"label"`
	LengthFt  float64   `json:"length_ft"`
	WidthFt   float64   `json:"width_ft"`
	HeightFt  *float64  `json:"height_ft,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Target identifies the conflict domain of a booking: a sub-slot when one is
// set, otherwise the listing itself.
type Target struct {
	ListingID uuid.UUID
	SubSlotID *uuid.UUID
}

func (t Target) Key() string {
	if t.SubSlotID != nil {
		return fmt.Sprintf("subslot:%s", t.SubSlotID)
	}
	return fmt.Sprintf("listing:%s", t.ListingID)
}

type Booking struct {
	ID              uuid.UUID     `json:"id"`
	ListingID       uuid.UUID     `json:"listing_id"`
	SubSlotID       *uuid.UUID    `json:"sub_slot_id,omitempty"`
	SeekerID        uuid.UUID     `json:"seeker_id"`
	ProviderID      uuid.UUID     `json:"provider_id"`
	StartTime       time.Time     `json:"start_time"`
	EndTime         time.Time     `json:"end_time"`
	DurationMinutes int           `json:"duration_minutes"`
	TotalPrice      float64       `json:"total_price"`
	Status          BookingStatus `json:"status"`
	CustodyState    CustodyState  `json:"custody_state"`
	ScanToken       *string       `json:"-"`
	ItemPhotos      []string      `json:"item_photos"`
	ItemDescription string        `json:"item_description"`
	RefundAmount    *float64      `json:"refund_amount,omitempty"`
	RefundPercent   *int          `json:"refund_percent,omitempty"`
	HandedOverAt    *time.Time    `json:"handed_over_at,omitempty"`
	CompletedAt     *time.Time    `json:"completed_at,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

func (b *Booking) Target() Target {
	return Target{ListingID: b.ListingID, SubSlotID: b.SubSlotID}
}

func (b *Booking) Interval() Interval {
	return Interval{Start: b.StartTime, End: b.EndTime}
}

// BookingSummary is a booking joined with the listing fields shown in
// seeker and provider dashboards.
type BookingSummary struct {
	Booking
	ListingTitle   string      `json:"listing_title"`
	ListingAddress string      `json:"address"`
	ListingKind    ListingKind `json:"listing_type"`
	ListingImage   string      `json:"image_url,omitempty"`
}

// ListingDetail is a listing together with its active sub-slots.
type ListingDetail struct {
	Listing
	SubSlots []SubSlot `json:"sub_slots"`
}

// OwnedListing is a listing as shown to its owner.
type OwnedListing struct {
	Listing
	ActiveBookings int `json:"active_bookings"`
}
