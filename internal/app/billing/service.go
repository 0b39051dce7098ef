package billing

import (
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"siteaudit-api/internal/domain/plans"
)

// Catalog maps purchasable items to processor price ids.
type Catalog struct {
	SubscriptionPrices map[string]string // day|month|year
	SingleReportPrice  string
	PackPrices         map[string]string // pack id
}

type Options struct {
	Catalog            Catalog
	AllowedReturnHosts []string
	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

// Service owns checkout, notification ingestion, session verification and
// entitlement resolution. It holds no mutable state of its own.
type Service struct {
	store     Store
	ledger    Ledger
	processor Processor
	log       *slog.Logger

	catalog      Catalog
	allowedHosts map[string]struct{}
	validate     *validator.Validate
	now          func() time.Time
}

func NewService(store Store, ledger Ledger, processor Processor, log *slog.Logger, opts Options) *Service {
	if log == nil {
		log = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	hosts := make(map[string]struct{}, len(opts.AllowedReturnHosts))
	for _, h := range opts.AllowedReturnHosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			hosts[h] = struct{}{}
		}
	}

	log = log.With("component", "billing")

	catalog := opts.Catalog
	subPrices := make(map[string]string, len(catalog.SubscriptionPrices))
	for interval, price := range catalog.SubscriptionPrices {
		if !plans.ValidInterval(interval) {
			log.Warn("ignoring subscription price with unknown interval", "interval", interval)
			continue
		}
		subPrices[interval] = price
	}
	catalog.SubscriptionPrices = subPrices

	return &Service{
		store:        store,
		ledger:       ledger,
		processor:    processor,
		log:          log,
		catalog:      catalog,
		allowedHosts: hosts,
		validate:     validator.New(),
		now:          func() time.Time { return now().UTC() },
	}
}
