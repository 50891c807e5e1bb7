// Package pricing turns a listing and a time range into a price.
//
// Storage is billed per square foot with a per-block rate that decays
// logarithmically with the number of blocks booked:
//
//	decay = 1 / (1 + DecayConstant * ln(blocks))
//	total = max(StorageMinPrice, round(StorageBaseRate * decay * area * blocks))
//
// Parking is billed at a flat per-block rate looked up by vehicle class and
// coverage. Both calculations are pure; the same Engine backs price previews
// and booking creation.
package pricing

import (
	"errors"
	"math"
	"time"

	"github.com/kirinyoku/stow/internal/domain"
)

var ErrInvalidRange = errors.New("end time must be after start time")

// ParkingRates holds the per-block parking rate for each vehicle class and
// coverage combination.
type ParkingRates struct {
	TwoWheelerOpen     float64
	TwoWheelerCovered  float64
	FourWheelerOpen    float64
	FourWheelerCovered float64
}

type Config struct {
	Block           time.Duration
	StorageBaseRate float64
	DecayConstant   float64
	MinAreaSqft     float64
	StorageMinPrice float64
	ParkingMinPrice float64
	Parking         ParkingRates
}

func DefaultConfig() Config {
	return Config{
		Block:           15 * time.Minute,
		StorageBaseRate: 2.40,
		DecayConstant:   10,
		MinAreaSqft:     4,
		StorageMinPrice: 30,
		ParkingMinPrice: 4,
		Parking: ParkingRates{
			TwoWheelerOpen:     4,
			TwoWheelerCovered:  8,
			FourWheelerOpen:    8,
			FourWheelerCovered: 12,
		},
	}
}

// Breakdown explains how a total was reached.
type Breakdown struct {
	Kind           domain.ListingKind  `json:"kind"`
	Total          float64             `json:"total"`
	Minutes        int                 `json:"minutes"`
	Blocks         int                 `json:"blocks"`
	PerBlock       float64             `json:"per_block"`
	EffectiveRate  float64             `json:"effective_rate"`
	SavingsPercent int                 `json:"savings_percent"`
	Area           float64             `json:"area,omitempty"`
	Decay          float64             `json:"decay,omitempty"`
	BaseRate       float64             `json:"base_rate,omitempty"`
	ParkingType    string              `json:"parking_type,omitempty"`
	VehicleClass   domain.VehicleClass `json:"vehicle_type,omitempty"`
}

// Engine prices bookings with a fixed Config. It holds no mutable state and
// is safe for concurrent use.
type Engine struct {
	cfg Config
}

// New returns an Engine for cfg. Zero fields fall back to DefaultConfig.
func New(cfg Config) *Engine {
	def := DefaultConfig()

	if cfg.Block <= 0 {
		cfg.Block = def.Block
	}

	if cfg.StorageBaseRate <= 0 {
		cfg.StorageBaseRate = def.StorageBaseRate
	}

	if cfg.DecayConstant <= 0 {
		cfg.DecayConstant = def.DecayConstant
	}

	if cfg.MinAreaSqft <= 0 {
		cfg.MinAreaSqft = def.MinAreaSqft
	}

	if cfg.StorageMinPrice <= 0 {
		cfg.StorageMinPrice = def.StorageMinPrice
	}

	if cfg.ParkingMinPrice <= 0 {
		cfg.ParkingMinPrice = def.ParkingMinPrice
	}

	if cfg.Parking == (ParkingRates{}) {
		cfg.Parking = def.Parking
	}

	return &Engine{cfg: cfg}
}

func (e *Engine) Config() Config {
	return e.cfg
}

// Blocks returns the number of whole minutes in [start, end) and the number
// of billing blocks they round up to, never less than one.
func (e *Engine) Blocks(start, end time.Time) (minutes, blocks int) {
	minutes = int(end.Sub(start) / time.Minute)
	blockMin := int(e.cfg.Block / time.Minute)

	blocks = int(math.Ceil(float64(minutes) / float64(blockMin)))
	if blocks < 1 {
		blocks = 1
	}

	return minutes, blocks
}

// Decay returns the storage rate multiplier for the given number of blocks.
func (e *Engine) Decay(blocks int) float64 {
	if blocks < 1 {
		blocks = 1
	}
	return 1 / (1 + e.cfg.DecayConstant*math.Log(float64(blocks)))
}

// Storage prices a storage booking of areaSqft square feet.
func (e *Engine) Storage(start, end time.Time, areaSqft float64) Breakdown {
	minutes, blocks := e.Blocks(start, end)
	area := math.Max(e.cfg.MinAreaSqft, areaSqft)
	decay := e.Decay(blocks)

	raw := e.cfg.StorageBaseRate * decay * area * float64(blocks)
	total := math.Max(e.cfg.StorageMinPrice, math.Round(raw))

	savings := 0
	if blocks > 1 {
		savings = int(math.Round((1 - decay) * 100))
	}

	return Breakdown{
		Kind:           domain.KindStorage,
		Total:          total,
		Minutes:        minutes,
		Blocks:         blocks,
		PerBlock:       round2(total / float64(blocks)),
		EffectiveRate:  round2(e.cfg.StorageBaseRate * decay),
		SavingsPercent: savings,
		Area:           area,
		Decay:          math.Round(decay*10000) / 10000,
	}
}

// Parking prices a parking booking. An unknown vehicle class is billed as a
// two-wheeler.
func (e *Engine) Parking(start, end time.Time, covered bool, class domain.VehicleClass) Breakdown {
	minutes, blocks := e.Blocks(start, end)
	class = normalizeClass(class)
	rate := e.ParkingRate(class, covered)

	total := math.Max(e.cfg.ParkingMinPrice, rate*float64(blocks))

	parkingType := "Open"
	if covered {
		parkingType = domain.SubtypeCovered
	}

	return Breakdown{
		Kind:           domain.KindParking,
		Total:          total,
		Minutes:        minutes,
		Blocks:         blocks,
		PerBlock:       rate,
		EffectiveRate:  rate,
		SavingsPercent: 0,
		BaseRate:       rate,
		ParkingType:    parkingType,
		VehicleClass:   class,
	}
}

// ParkingRate returns the per-block parking rate.
func (e *Engine) ParkingRate(class domain.VehicleClass, covered bool) float64 {
	if normalizeClass(class) == domain.FourWheeler {
		if covered {
			return e.cfg.Parking.FourWheelerCovered
		}
		return e.cfg.Parking.FourWheelerOpen
	}

	if covered {
		return e.cfg.Parking.TwoWheelerCovered
	}
	return e.cfg.Parking.TwoWheelerOpen
}

// BlockRate is the undiscounted price of a single block for the listing,
// shown on listing cards.
func (e *Engine) BlockRate(l *domain.Listing) float64 {
	if l.Kind == domain.KindParking {
		return e.ParkingRate(l.VehicleClass, l.Covered())
	}
	return round2(math.Max(e.cfg.MinAreaSqft, l.AreaSqft()) * e.cfg.StorageBaseRate)
}

// Quote prices a booking of listing l over [start, end).
func (e *Engine) Quote(l *domain.Listing, start, end time.Time) (Breakdown, error) {
	if !end.After(start) {
		return Breakdown{}, ErrInvalidRange
	}

	if l.Kind == domain.KindParking {
		return e.Parking(start, end, l.Covered(), l.VehicleClass), nil
	}

	return e.Storage(start, end, l.AreaSqft()), nil
}

func normalizeClass(class domain.VehicleClass) domain.VehicleClass {
	if class == domain.FourWheeler {
		return domain.FourWheeler
	}
	return domain.TwoWheeler
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
