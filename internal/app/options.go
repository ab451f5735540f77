package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is used for display when no currency is configured.
const DefaultCurrency = "USD"

// Option configures LedgerService and JournalService.
type Option func(*options)

type options struct {
	now      func() time.Time
	newID    func() string
	currency string
}

func defaultOptions() options {
	return options{
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
		currency: DefaultCurrency,
	}
}

func buildOptions(opts []Option) (options, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if money.GetCurrency(o.currency) == nil {
		return o, fmt.Errorf("unknown display currency %q", o.currency)
	}
	return o, nil
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithIDGenerator overrides how record ids are generated.
func WithIDGenerator(fn func() string) Option {
	return func(o *options) { o.newID = fn }
}

// WithCurrency sets the ISO 4217 code used to format amounts in generated
// descriptions.
func WithCurrency(code string) Option {
	return func(o *options) { o.currency = strings.ToUpper(strings.TrimSpace(code)) }
}

// FormatAmount renders d in the given currency, e.g. "$1,234.50" for USD.
// Unknown currencies fall back to the plain decimal.
func FormatAmount(d decimal.Decimal, currency string) string {
	c := money.GetCurrency(currency)
	if c == nil {
		return d.String()
	}
	minor := d.Shift(int32(c.Fraction)).Round(0).IntPart()
	return money.New(minor, c.Code).Display()
}
