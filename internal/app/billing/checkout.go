package billing

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"siteaudit-api/internal/domain/billing"
	"siteaudit-api/internal/domain/plans"
	apperrors "siteaudit-api/internal/shared/errors"
)

type CheckoutRequest struct {
	PurchaseType string `json:"purchase_type" validate:"required,oneof=subscription single_report credit_pack"`
	Interval     string `json:"interval" validate:"omitempty,oneof=day month year"`
	ReportID     string `json:"report_id" validate:"omitempty,max=128"`
	PackID       string `json:"pack_id" validate:"omitempty,max=64"`
	ReturnURL    string `json:"return_url" validate:"required,url"`
	SiteURL      string `json:"site_url" validate:"omitempty,max=2048"`
	AnalyzerType string `json:"analyzer_type" validate:"omitempty,max=32"`
}

type CheckoutResult struct {
	URL       string `json:"url"`
	SessionID string `json:"session_id"`
}

// StartCheckout opens a hosted checkout session. callerID 0 is an anonymous caller,
// who may buy single reports and credit packs but not subscriptions.
func (s *Service) StartCheckout(ctx context.Context, req CheckoutRequest, callerID uint) (*CheckoutResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperrors.NewValidationError("invalid checkout request", err.Error())
	}

	meta := PurchaseMeta{
		UserID:       callerID,
		PurchaseType: PurchaseType(req.PurchaseType),
		SiteURL:      strings.TrimSpace(req.SiteURL),
		AnalyzerType: strings.TrimSpace(req.AnalyzerType),
	}

	var (
		mode    string
		priceID string
		credits int
	)

	switch meta.PurchaseType {
	case PurchaseSubscription:
		if callerID == 0 {
			return nil, apperrors.NewAccessDeniedError("sign in to subscribe")
		}
		if req.Interval == "" {
			return nil, apperrors.NewValidationError("interval is required for subscription")
		}
		meta.Interval = req.Interval
		mode = ModeSubscription
		priceID = s.catalog.SubscriptionPrices[meta.Interval]

	case PurchaseSingleReport:
		meta.ReportID = strings.TrimSpace(req.ReportID)
		if meta.ReportID == "" {
			return nil, apperrors.NewValidationError("report_id is required for single_report")
		}
		mode = ModePayment
		priceID = s.catalog.SingleReportPrice

	case PurchaseCreditPack:
		pack, ok := plans.LookupCreditPack(req.PackID)
		if !ok {
			return nil, apperrors.NewValidationError("unknown credit pack", req.PackID)
		}
		meta.PackID = pack.ID
		credits = pack.Credits
		mode = ModePayment
		priceID = s.catalog.PackPrices[pack.ID]
	}

	base, err := s.validateReturnURL(req.ReturnURL)
	if err != nil {
		return nil, err
	}

	if priceID == "" {
		return nil, apperrors.NewConfigurationError("no price configured for purchase",
			fmt.Sprintf("purchase_type=%s interval=%s pack_id=%s", meta.PurchaseType, meta.Interval, meta.PackID))
	}

	successURL, cancelURL := redirectURLs(base, meta)

	var customerID string
	if callerID != 0 {
		if customerID, err = s.ensureCustomer(ctx, callerID); err != nil {
			return nil, err
		}
	}

	params := CheckoutSessionParams{
		Mode:       mode,
		PriceID:    priceID,
		CustomerID: customerID,
		SuccessURL: successURL,
		CancelURL:  cancelURL,
		Metadata:   meta.Metadata(),
	}
	if callerID != 0 {
		params.ClientReferenceID = fmt.Sprint(callerID)
	}

	created, err := s.processor.CreateCheckoutSession(ctx, params)
	if err != nil {
		return nil, externalError("create checkout session", err)
	}

	log := s.log.With("session_id", created.ID, "purchase_type", meta.PurchaseType, "user_id", callerID)

	// Signed-in single report buyers are recorded as ReportPurchase on completion;
	// everything else gets a pending outcome row now.
	if mode == ModePayment && (meta.PurchaseType == PurchaseCreditPack || callerID == 0) {
		pending := &billing.CheckoutOutcome{
			StripeSessionID: created.ID,
			PurchaseType:    string(meta.PurchaseType),
			ReportID:        optional(meta.ReportID),
			PackID:          optional(meta.PackID),
			PaymentStatus:   billing.PaymentUnpaid,
			Mode:            mode,
			CustomerID:      optional(customerID),
		}
		if err := s.store.UpsertCheckoutOutcome(ctx, pending); err != nil {
			log.Warn("failed to record pending checkout outcome", "error", err)
		}
	}

	log.Info("checkout session created", "mode", mode, "credits", credits)
	return &CheckoutResult{URL: created.URL, SessionID: created.ID}, nil
}

// ensureCustomer returns the caller's processor customer, creating it at most once
// per user record. A concurrent creator may leave an orphan customer behind; the
// stored reference wins.
func (s *Service) ensureCustomer(ctx context.Context, userID uint) (string, error) {
	if err := s.store.EnsureUserBilling(ctx, userID); err != nil {
		return "", err
	}
	rec, err := s.store.GetUserBilling(ctx, userID)
	if err != nil {
		return "", err
	}
	if rec.StripeCustomerID != nil && *rec.StripeCustomerID != "" {
		return *rec.StripeCustomerID, nil
	}

	created, err := s.processor.CreateCustomer(ctx, userID)
	if err != nil {
		return "", externalError("create customer", err)
	}

	stored, err := s.store.AttachCustomer(ctx, userID, created)
	if err != nil {
		return "", err
	}
	if stored != created {
		s.log.Info("customer already attached, discarding new one",
			"user_id", userID, "stored", stored, "discarded", created)
	}
	return stored, nil
}

func (s *Service) validateReturnURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, apperrors.NewValidationError("invalid return_url", err.Error())
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, apperrors.NewValidationError("return_url must be http or https")
	}
	if u.User != nil {
		return nil, apperrors.NewValidationError("return_url must not carry credentials")
	}
	if _, ok := s.allowedHosts[strings.ToLower(u.Hostname())]; !ok {
		return nil, apperrors.NewValidationError("return_url host is not allowed", u.Hostname())
	}
	return u, nil
}

// redirectURLs builds the success and cancel URLs. The session id placeholder is
// appended after encoding so the processor sees it literally.
func redirectURLs(base *url.URL, meta PurchaseMeta) (success, cancel string) {
	b := *base
	b.Fragment = ""
	b.RawFragment = ""

	q := b.Query()
	q.Set("purchase", string(meta.PurchaseType))
	switch meta.PurchaseType {
	case PurchaseSubscription:
		q.Set("interval", meta.Interval)
	case PurchaseSingleReport:
		q.Set("report_id", meta.ReportID)
	case PurchaseCreditPack:
		q.Set("pack_id", meta.PackID)
	}

	cq := cloneValues(q)
	cq.Set("checkout", "canceled")
	c := b
	c.RawQuery = cq.Encode()

	q.Set("checkout", "success")
	b.RawQuery = q.Encode()
	success = b.String() + "&session_id=" + SessionIDPlaceholder

	return success, c.String()
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vs := range v {
		out[k] = append([]string(nil), vs...)
	}
	return out
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// externalError keeps AppErrors from the adapter and wraps anything else.
func externalError(op string, err error) error {
	if apperrors.GetAppError(err) != nil {
		return err
	}
	return apperrors.NewExternalServiceError(op+" failed", err)
}
