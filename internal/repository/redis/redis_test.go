package redisrepo

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/stow/internal/domain"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return mr, rdb
}

func TestGetOrSetJSONLoadsOnce(t *testing.T) {
	_, rdb := newClient(t)
	c := NewCache(rdb)
	ctx := context.Background()

	var calls atomic.Int32
	loader := func(context.Context) ([]string, error) {
		calls.Add(1)
		return []string{"a", "b"}, nil
	}

	for range 3 {
		v, err := GetOrSetJSON(ctx, c, "k", time.Minute, loader)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, v)
	}

	assert.Equal(t, int32(1), calls.Load())
}

func TestGetOrSetJSONDoesNotCacheErrors(t *testing.T) {
	_, rdb := newClient(t)
	c := NewCache(rdb)
	boom := errors.New("boom")

	_, err := GetOrSetJSON(context.Background(), c, "k", time.Minute, func(context.Context) (int, error) {
		return 0, boom
	})
	require.ErrorIs(t, err, boom)

	_, ok, err := GetJSON[int](context.Background(), c, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNilCacheCallsLoader(t *testing.T) {
	var c *Cache

	v, err := GetOrSetJSON(context.Background(), c, "k", time.Minute, func(context.Context) (int, error) {
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	assert.NoError(t, c.InvalidateListing(context.Background(), uuid.New()))
}

func TestInvalidateSlotsDropsEveryTouchedDay(t *testing.T) {
	mr, rdb := newClient(t)
	c := NewCache(rdb)
	ctx := context.Background()

	listing := uuid.New()
	start := time.Date(2025, 6, 1, 22, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)

	for _, day := range []string{"2025-06-01", "2025-06-02", "2025-06-03"} {
		require.NoError(t, SetJSON(ctx, c, KeySlots(listing, nil, day), []int{1}, time.Minute))
	}

	require.NoError(t, c.InvalidateSlots(ctx, listing, nil, start, end))

	assert.False(t, mr.Exists(KeySlots(listing, nil, "2025-06-01")))
	assert.False(t, mr.Exists(KeySlots(listing, nil, "2025-06-02")))
	assert.True(t, mr.Exists(KeySlots(listing, nil, "2025-06-03")), "end is exclusive")
}

func TestSlotDays(t *testing.T) {
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, []string{"2025-06-01"}, SlotDays(start, start.Add(time.Hour)))
	assert.Equal(t, []string{"2025-06-01", "2025-06-02"}, SlotDays(start, start.Add(20*time.Hour)))
	assert.Nil(t, SlotDays(start, start))
	assert.Len(t, SlotDays(start, start.Add(5000*24*time.Hour)), maxSlotDays)
}

func TestKeySlotsScopes(t *testing.T) {
	listing := uuid.New()
	sub := uuid.New()

	assert.NotEqual(t, KeySlots(listing, nil, "2025-06-01"), KeySlots(listing, &sub, "2025-06-01"))
	assert.Contains(t, KeySlots(listing, &sub, "2025-06-01"), sub.String())
}

func TestSlidingWindowLimiter(t *testing.T) {
	_, rdb := newClient(t)
	l := NewSlidingWindowLimiter(rdb, "scan", 2, time.Minute)
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 1; i <= 2; i++ {
		ok, n, _, err := l.Allow(ctx, "b1")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, int64(i), n)
	}

	ok, _, retry, err := l.Allow(ctx, "b1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, time.Minute, retry)

	ok, _, _, err = l.Allow(ctx, "b2")
	require.NoError(t, err)
	assert.True(t, ok, "keys are independent")

	now = now.Add(2 * time.Minute)
	ok, _, _, err = l.Allow(ctx, "b1")
	require.NoError(t, err)
	assert.True(t, ok, "window slid past old hits")
}

func TestNilLimiterAllows(t *testing.T) {
	var l *SlidingWindowLimiter

	ok, _, _, err := l.Allow(context.Background(), "x")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestIdempotencyStore(t *testing.T) {
	_, rdb := newClient(t)
	s := NewIdempotencyStore(rdb, time.Hour)
	ctx := context.Background()
	key := KeyIdemBooking(uuid.New(), "abc")

	ok, err := s.AcquireLock(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.AcquireLock(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	locked, err := s.IsLocked(ctx, key)
	require.NoError(t, err)
	assert.True(t, locked)

	require.NoError(t, s.SaveResult(ctx, key, `{"id":"1"}`))

	res, found, err := s.GetResult(ctx, key)
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, `{"id":"1"}`, res)

	locked, err = s.IsLocked(ctx, key)
	require.NoError(t, err)
	assert.False(t, locked)

	require.NoError(t, s.Release(ctx, key))
	_, found, err = s.GetResult(ctx, key)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestEventsPubSubDeliversBookingChanges(t *testing.T) {
	mr, rdb := newClient(t)
	ps := NewEventsPubSub(rdb)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan BookingEvent, 1)
	go func() {
		_ = ps.Subscribe(ctx, func(_ context.Context, ev BookingEvent) { got <- ev })
	}()

	require.Eventually(t, func() bool {
		return mr.PubSubNumSub(ChannelBookingsChanged())[ChannelBookingsChanged()] == 1
	}, time.Second, 10*time.Millisecond)

	sub := uuid.New()
	b := &domain.Booking{
		ID:        uuid.New(),
		ListingID: uuid.New(),
		SubSlotID: &sub,
		StartTime: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC),
	}
	require.NoError(t, ps.PublishBookingChanged(ctx, b))

	select {
	case ev := <-got:
		assert.Equal(t, EventBookingChanged, ev.Type)
		assert.Equal(t, b.ListingID, ev.ListingID)
		assert.Equal(t, &sub, ev.SubSlotID)
		assert.True(t, b.StartTime.Equal(ev.Start))
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestNilPubSubDropsEvents(t *testing.T) {
	var ps *EventsPubSub
	assert.NoError(t, ps.PublishCustodyOverdue(context.Background(), &domain.Booking{}))
}
