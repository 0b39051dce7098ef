package billing

import (
	"context"

	apperrors "siteaudit-api/internal/shared/errors"
)

type NotificationResult struct {
	Processed bool `json:"processed"`
	Duplicate bool `json:"duplicate,omitempty"`
}

// HandleNotification authenticates, deduplicates and dispatches one notification.
// Only a signature failure is returned as an error. Handling failures are logged and
// reported as not processed; the ledger row stays unprocessed so a later redelivery
// of the same notification re-enters.
func (s *Service) HandleNotification(ctx context.Context, payload []byte, signature string) (NotificationResult, error) {
	event, err := s.processor.ParseEvent(payload, signature)
	if err != nil {
		s.log.Warn("rejected notification", "error", err)
		return NotificationResult{}, apperrors.NewUnauthorizedError("invalid notification signature")
	}

	log := s.log.With("event_id", event.ID, "event_type", event.Type)

	ledgerOK := true
	seen, err := s.ledger.Lookup(ctx, event.ID)
	switch {
	case err != nil:
		// Processing continues; handlers are idempotent.
		log.Error("notification ledger lookup failed, processing without dedup", "error", err)
		ledgerOK = false
	case seen != nil && seen.Processed:
		log.Info("duplicate notification skipped")
		return NotificationResult{Processed: true, Duplicate: true}, nil
	}

	if ledgerOK {
		if err := s.ledger.Record(ctx, event.ID, event.Type); err != nil {
			log.Error("failed to record notification", "error", err)
		}
	}

	if err := s.dispatch(ctx, event); err != nil {
		log.Error("notification handling failed", "error", err)
		return NotificationResult{Processed: false}, nil
	}

	if err := s.ledger.MarkProcessed(ctx, event.ID, event.Type); err != nil {
		log.Error("failed to mark notification processed", "error", err)
	}
	return NotificationResult{Processed: true}, nil
}
