package redisrepo

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/kirinyoku/stow/internal/domain"
)

const (
	EventBookingChanged = "booking_changed"
	EventCustodyOverdue = "custody_overdue"
)

// BookingEvent is broadcast whenever a booking changes in a way that affects
// availability, or when custody runs past the booking end.
type BookingEvent struct {
	Type      string     `json:"type"`
	BookingID uuid.UUID  `json:"booking_id"`
	ListingID uuid.UUID  `json:"listing_id"`
	SubSlotID *uuid.UUID `json:"sub_slot_id,omitempty"`
	Start     time.Time  `json:"start"`
	End       time.Time  `json:"end"`
	TsUnix    int64      `json:"ts_unix"`
}

// EventsPubSub fans booking events out to every running instance. A nil
// *EventsPubSub drops published events.
type EventsPubSub struct {
	rdb     *redis.Client
	channel string
}

func NewEventsPubSub(rdb *redis.Client) *EventsPubSub {
	return &EventsPubSub{
		rdb:     rdb,
		channel: ChannelBookingsChanged(),
	}
}

func (p *EventsPubSub) PublishBookingChanged(ctx context.Context, b *domain.Booking) error {
	return p.publish(ctx, EventBookingChanged, b)
}

func (p *EventsPubSub) PublishCustodyOverdue(ctx context.Context, b *domain.Booking) error {
	return p.publish(ctx, EventCustodyOverdue, b)
}

func (p *EventsPubSub) publish(ctx context.Context, typ string, b *domain.Booking) error {
	if p == nil {
		return nil
	}

	msg := BookingEvent{
		Type:      typ,
		BookingID: b.ID,
		ListingID: b.ListingID,
		SubSlotID: b.SubSlotID,
		Start:     b.StartTime,
		End:       b.EndTime,
		TsUnix:    time.Now().Unix(),
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	return p.rdb.Publish(ctx, p.channel, payload).Err()
}

// Subscribe delivers events to handler until ctx is done.
func (p *EventsPubSub) Subscribe(ctx context.Context, handler func(ctx context.Context, ev BookingEvent)) error {
	sub := p.rdb.Subscribe(ctx, p.channel)
	defer sub.Close()

	ch := sub.Channel(redis.WithChannelSize(256))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var ev BookingEvent
			if err := json.Unmarshal([]byte(m.Payload), &ev); err == nil &&
				ev.ListingID != uuid.Nil {
				handler(ctx, ev)
			}
		}
	}
}
