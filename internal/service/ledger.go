package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/seat-reservation/internal/model"
)

// ReminderLedger remembers which reservations were already reminded.
// A reservation is identified by seat and claim time, so a seat that is
// released and claimed again gets a fresh reminder.
type ReminderLedger interface {
	// MarkReminded records the reservation and reports whether this is
	// the first time it was seen.
	MarkReminded(ctx context.Context, seat model.Seat) (bool, error)
}

func reminderKey(seat model.Seat) string {
	var at int64
	if seat.ReservedAt != nil {
		at = seat.ReservedAt.Unix()
	}
	return fmt.Sprintf("%d|%s|%d", seat.EventID, seat.SeatID, at)
}

// RepeatLedger never remembers anything, so a reminder goes out on every
// sweep while the reservation is past the reminder threshold.
type RepeatLedger struct{}

func (RepeatLedger) MarkReminded(context.Context, model.Seat) (bool, error) { return true, nil }

// MemoryLedger keeps reminded reservations in process memory.  Entries
// expire after ttl; a restart forgets them and may remind once more.
type MemoryLedger struct {
	ttl time.Duration
	now func() time.Time

	mu   sync.Mutex
	seen map[string]time.Time
}

func NewMemoryLedger(ttl time.Duration) *MemoryLedger {
	return &MemoryLedger{ttl: ttl, now: time.Now, seen: make(map[string]time.Time)}
}

func (l *MemoryLedger) MarkReminded(_ context.Context, seat model.Seat) (bool, error) {
	now := l.now()
	key := reminderKey(seat)

	l.mu.Lock()
	defer l.mu.Unlock()
	for k, exp := range l.seen {
		if now.After(exp) {
			delete(l.seen, k)
		}
	}
	if _, ok := l.seen[key]; ok {
		return false, nil
	}
	l.seen[key] = now.Add(l.ttl)
	return true, nil
}

// RedisLedger stores reminded reservations with SET NX so the record
// survives restarts.
type RedisLedger struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisLedger(rdb *redis.Client, ttl time.Duration, prefix string) *RedisLedger {
	if prefix == "" {
		prefix = "reminded"
	}
	return &RedisLedger{rdb: rdb, ttl: ttl, prefix: prefix}
}

func (l *RedisLedger) MarkReminded(ctx context.Context, seat model.Seat) (bool, error) {
	ok, err := l.rdb.SetNX(ctx, l.prefix+":"+reminderKey(seat), 1, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("reminder ledger: %w", err)
	}
	return ok, nil
}
