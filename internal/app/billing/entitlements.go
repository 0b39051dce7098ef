package billing

import (
	"context"
	"strings"

	"siteaudit-api/internal/domain/access"
	"siteaudit-api/internal/domain/billing"
	apperrors "siteaudit-api/internal/shared/errors"
)

// ResolveEntitlements reads the persisted state and resolves it against the clock.
// A user without a billing record gets the free view.
func (s *Service) ResolveEntitlements(ctx context.Context, userID uint) (access.EntitlementView, error) {
	snap := access.Snapshot{UserID: userID}
	if userID == 0 {
		return access.Resolve(s.now(), snap), nil
	}

	rec, err := s.store.GetUserBilling(ctx, userID)
	switch {
	case err == nil:
		snap.Billing = rec
	case !apperrors.IsType(err, apperrors.ErrorTypeNotFound):
		return access.EntitlementView{}, err
	}

	if snap.Purchases, err = s.store.ListReportPurchases(ctx, userID); err != nil {
		return access.EntitlementView{}, err
	}

	var cached *billing.Entitlement
	cached, err = s.store.GetEntitlement(ctx, userID)
	switch {
	case err == nil:
		snap.Cached = cached
	case !apperrors.IsType(err, apperrors.ErrorTypeNotFound):
		return access.EntitlementView{}, err
	}

	return access.Resolve(s.now(), snap), nil
}

// CanExport reports whether userID may export reportID.
func (s *Service) CanExport(ctx context.Context, userID uint, reportID string) (bool, error) {
	view, err := s.ResolveEntitlements(ctx, userID)
	if err != nil {
		return false, err
	}
	return access.CanExport(view, strings.TrimSpace(reportID)), nil
}
