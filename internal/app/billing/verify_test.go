package billing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"siteaudit-api/internal/domain/billing"
	apperrors "siteaudit-api/internal/shared/errors"
)

func TestVerifySession_Ownership(t *testing.T) {
	env := newTestEnv(t)
	reportSetup(env, 7)
	env.proc.sessions["cs_anon"] = Session{ID: "cs_anon", Mode: ModePayment, Status: "complete", PaymentStatus: "paid",
		Meta: PurchaseMeta{PurchaseType: PurchaseSingleReport, ReportID: "r"}}

	tests := []struct {
		name      string
		sessionID string
		callerID  uint
	}{
		{"other signed-in user", "cs_report", 8},
		{"anonymous caller on owned session", "cs_report", 0},
		{"signed-in caller on anonymous session", "cs_anon", 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.VerifySession(context.Background(), tt.sessionID, tt.callerID)
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeAccessDenied))
		})
	}

	var count int64
	require.NoError(t, env.db.Model(&billing.ReportPurchase{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestVerifySession_UnpaidMakesNoWrites(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.proc.sessions["cs_open"] = Session{ID: "cs_open", Mode: ModePayment, Status: "open", PaymentStatus: "unpaid",
		Meta: PurchaseMeta{UserID: 3, PurchaseType: PurchaseSingleReport, ReportID: "seo_1"}}

	res, err := env.svc.VerifySession(ctx, "cs_open", 3)
	require.NoError(t, err)
	assert.Equal(t, &VerifyResult{Paid: false, PurchaseType: "single_report", ReportID: "seo_1"}, res)

	purchases, err := env.store.ListReportPurchases(ctx, 3)
	require.NoError(t, err)
	assert.Empty(t, purchases)
}

func TestVerifySession_Errors(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.VerifySession(context.Background(), "  ", 1)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	_, err = env.svc.VerifySession(context.Background(), "cs_missing", 1)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestSessionPaid(t *testing.T) {
	assert.True(t, Session{PaymentStatus: "paid"}.Paid())
	assert.True(t, Session{Status: "complete", PaymentStatus: "no_payment_required"}.Paid())
	assert.False(t, Session{Status: "open", PaymentStatus: "no_payment_required"}.Paid())
	assert.False(t, Session{Status: "complete", PaymentStatus: "unpaid"}.Paid())
}

func TestVerifySession_ReportsRecordedOutcome(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	sess := reportSetup(env, 0)

	res, err := env.svc.HandleNotification(ctx, env.proc.deliver("evt_anon", "checkout.session.completed", CheckoutCompleted{Session: sess}), goodSignature)
	require.NoError(t, err)
	require.True(t, res.Processed)

	// A later return with a different session timestamp keeps the first completion.
	later := sess
	later.Created = sess.Created.Add(time.Hour)
	env.proc.sessions[sess.ID] = later

	verified, err := env.svc.VerifySession(ctx, sess.ID, 0)
	require.NoError(t, err)
	assert.True(t, verified.Paid)
	require.NotNil(t, verified.CompletedAt)
	assert.True(t, sess.Created.Equal(*verified.CompletedAt))

	o, err := env.store.GetCheckoutOutcome(ctx, sess.ID)
	require.NoError(t, err)
	assert.True(t, o.CompletedAt.Equal(*verified.CompletedAt))
}
