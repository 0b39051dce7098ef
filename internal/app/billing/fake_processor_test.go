package billing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"siteaudit-api/database"
	"siteaudit-api/internal/infra/repository"
	apperrors "siteaudit-api/internal/shared/errors"
	"siteaudit-api/internal/shared/logger"
)

const goodSignature = "t=1,v1=good"

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeProcessor struct {
	mu sync.Mutex

	customerSeq int
	sessions    map[string]Session
	subs        map[string]Subscription
	events      map[string]*Event
	listed      map[string][]Subscription

	checkouts   []CheckoutSessionParams
	cancelCalls []string
	subGets     int

	cancelErr error
	getSubErr error
}

func newFakeProcessor() *fakeProcessor {
	return &fakeProcessor{
		sessions: map[string]Session{},
		subs:     map[string]Subscription{},
		events:   map[string]*Event{},
		listed:   map[string][]Subscription{},
	}
}

func (f *fakeProcessor) CreateCustomer(_ context.Context, userID uint) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.customerSeq++
	return fmt.Sprintf("cus_%d_%d", userID, f.customerSeq), nil
}

func (f *fakeProcessor) CreateCheckoutSession(_ context.Context, p CheckoutSessionParams) (*CreatedSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkouts = append(f.checkouts, p)
	id := fmt.Sprintf("cs_test_%d", len(f.checkouts))
	return &CreatedSession{ID: id, URL: "https://checkout.example/" + id}, nil
}

func (f *fakeProcessor) GetSession(_ context.Context, id string) (*Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("no such session", id)
	}
	return &s, nil
}

func (f *fakeProcessor) GetSubscription(_ context.Context, id string) (*Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subGets++
	if f.getSubErr != nil {
		return nil, f.getSubErr
	}
	s, ok := f.subs[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("no such subscription", id)
	}
	return &s, nil
}

func (f *fakeProcessor) SetCancelAtPeriodEnd(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelCalls = append(f.cancelCalls, id)
	return f.cancelErr
}

func (f *fakeProcessor) ListSubscriptions(_ context.Context, customerID string) ([]Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listed[customerID], nil
}

func (f *fakeProcessor) ParseEvent(payload []byte, signature string) (*Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if signature != goodSignature {
		return nil, ErrInvalidSignature
	}
	ev, ok := f.events[string(payload)]
	if !ok {
		return nil, errors.New("unknown payload")
	}
	return ev, nil
}

// deliver registers an event and returns the payload that addresses it.
func (f *fakeProcessor) deliver(id, typ string, n Notification) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events[id] = &Event{ID: id, Type: typ, Notification: n}
	return []byte(id)
}

type testEnv struct {
	svc   *Service
	proc  *fakeProcessor
	store *repository.BillingStore
	db    *gorm.DB
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	store := repository.NewBillingStore(db)
	proc := newFakeProcessor()
	svc := NewService(store, repository.NewNotificationLedger(db), proc, logger.Discard(), Options{
		Catalog: Catalog{
			SubscriptionPrices: map[string]string{"day": "price_day", "month": "price_month", "year": "price_year"},
			SingleReportPrice:  "price_report",
			PackPrices:         map[string]string{"starter": "price_starter", "growth": "price_growth"},
		},
		AllowedReturnHosts: []string{"app.example.com", "localhost"},
		Now:                func() time.Time { return testNow },
	})
	return &testEnv{svc: svc, proc: proc, store: store, db: db}
}
