package billing

import (
	"context"
	"strings"
	"time"

	apperrors "siteaudit-api/internal/shared/errors"
)

type VerifyResult struct {
	Paid         bool   `json:"paid"`
	PurchaseType string `json:"purchase_type"`
	ReportID     string `json:"report_id,omitempty"`
	PackID       string `json:"pack_id,omitempty"`
	Credits      int    `json:"credits,omitempty"`

	// CompletedAt is the first recorded completion, whichever path wrote it.
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// VerifySession confirms a checkout on the caller's return, concurrently with the
// notification path. The session must belong to the caller: a signed-in caller may
// only verify their own session and an anonymous caller only an anonymous one.
func (s *Service) VerifySession(ctx context.Context, sessionID string, callerID uint) (*VerifyResult, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, apperrors.NewValidationError("session_id is required")
	}

	sess, err := s.processor.GetSession(ctx, sessionID)
	if err != nil {
		return nil, externalError("get checkout session", err)
	}

	if sess.Meta.UserID != callerID {
		s.log.Warn("session ownership mismatch",
			"session_id", sess.ID, "caller_id", callerID, "owner_id", sess.Meta.UserID)
		return nil, apperrors.NewAccessDeniedError("checkout session belongs to another user")
	}

	res, err := s.applySession(ctx, *sess)
	if err != nil || !res.Paid || !recordsOutcome(*sess) {
		return res, err
	}

	// Report the merged outcome so both writer paths answer the same.
	stored, err := s.store.GetCheckoutOutcome(ctx, sess.ID)
	if err != nil {
		return nil, err
	}
	res.Credits = stored.CreditsGranted
	res.CompletedAt = stored.CompletedAt
	return res, nil
}

// recordsOutcome reports whether a paid session is tracked as a checkout outcome
// rather than a report purchase or subscription.
func recordsOutcome(sess Session) bool {
	if sess.Mode != ModePayment {
		return false
	}
	return sess.Meta.PurchaseType == PurchaseCreditPack ||
		(sess.Meta.PurchaseType == PurchaseSingleReport && sess.Meta.UserID == 0)
}
