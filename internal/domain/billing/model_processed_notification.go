package billing

import "time"

// ProcessedNotification is the dedup ledger for processor notifications.
type ProcessedNotification struct {
	ID        uint   `gorm:"primaryKey"`
	EventID   string `gorm:"column:event_id;not null;uniqueIndex:idx_processed_notifications_event"`
	EventType string `gorm:"column:event_type;type:varchar(64);not null"`
	Processed bool   `gorm:"column:processed;not null;default:false"`
	CreatedAt time.Time
}
