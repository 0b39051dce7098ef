package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"siteaudit-api/internal/domain/billing"
)

// NotificationLedger is the SQL dedup ledger for processor notifications.
type NotificationLedger struct {
	db *gorm.DB
}

func NewNotificationLedger(db *gorm.DB) *NotificationLedger {
	return &NotificationLedger{db: db}
}

func (l *NotificationLedger) Lookup(ctx context.Context, eventID string) (*billing.ProcessedNotification, error) {
	var n billing.ProcessedNotification
	err := l.db.WithContext(ctx).Where("event_id = ?", eventID).First(&n).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap(err, "lookup notification")
	}
	return &n, nil
}

func (l *NotificationLedger) Record(ctx context.Context, eventID, eventType string) error {
	n := billing.ProcessedNotification{EventID: eventID, EventType: eventType}
	err := l.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "event_id"}}, DoNothing: true}).
		Create(&n).Error
	return wrap(err, "record notification")
}

// MarkProcessed inserts the row if Record never ran.
func (l *NotificationLedger) MarkProcessed(ctx context.Context, eventID, eventType string) error {
	n := billing.ProcessedNotification{EventID: eventID, EventType: eventType, Processed: true}
	err := l.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}},
			DoUpdates: clause.Assignments(map[string]any{"processed": true}),
		}).
		Create(&n).Error
	return wrap(err, "mark notification processed")
}
