package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"siteaudit-api/internal/domain/billing"
)

// LedgerBackend is the authoritative ledger a RedisLedger fronts.
type LedgerBackend interface {
	Lookup(ctx context.Context, eventID string) (*billing.ProcessedNotification, error)
	Record(ctx context.Context, eventID, eventType string) error
	MarkProcessed(ctx context.Context, eventID, eventType string) error
}

const DefaultMarkerTTL = 72 * time.Hour

// RedisLedger fronts a ledger with processed markers in redis. The wrapped ledger stays
// authoritative; redis failures fall through to it.
type RedisLedger struct {
	next LedgerBackend
	rdb  redis.UniversalClient
	ttl  time.Duration
	log  *slog.Logger
}

func NewRedisLedger(next LedgerBackend, rdb redis.UniversalClient, ttl time.Duration, log *slog.Logger) *RedisLedger {
	if ttl <= 0 {
		ttl = DefaultMarkerTTL
	}
	if log == nil {
		log = slog.Default()
	}
	return &RedisLedger{next: next, rdb: rdb, ttl: ttl, log: log}
}

func markerKey(eventID string) string {
	return "billing:notification:" + eventID
}

func (l *RedisLedger) Lookup(ctx context.Context, eventID string) (*billing.ProcessedNotification, error) {
	eventType, err := l.rdb.Get(ctx, markerKey(eventID)).Result()
	switch {
	case err == nil:
		return &billing.ProcessedNotification{EventID: eventID, EventType: eventType, Processed: true}, nil
	case !errors.Is(err, redis.Nil):
		l.log.Warn("redis ledger lookup failed", "event_id", eventID, "error", err)
	}
	return l.next.Lookup(ctx, eventID)
}

func (l *RedisLedger) Record(ctx context.Context, eventID, eventType string) error {
	return l.next.Record(ctx, eventID, eventType)
}

func (l *RedisLedger) MarkProcessed(ctx context.Context, eventID, eventType string) error {
	if err := l.next.MarkProcessed(ctx, eventID, eventType); err != nil {
		return err
	}
	if err := l.rdb.Set(ctx, markerKey(eventID), eventType, l.ttl).Err(); err != nil {
		l.log.Warn("redis ledger mark failed", "event_id", eventID, "error", err)
	}
	return nil
}
