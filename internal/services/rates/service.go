package rates

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var satsPerBTC = decimal.NewFromInt(100_000_000)

// PriceCache stores BTC prices between refreshes.
type PriceCache interface {
	CacheRate(ctx context.Context, currency string, btcPrice decimal.Decimal, ttl time.Duration) error
	GetRate(ctx context.Context, currency string) (decimal.Decimal, bool, error)
}

type Service struct {
	source     PriceSource
	cache      PriceCache
	ttl        time.Duration
	currencies []string
	log        *logrus.Entry
}

// NewService returns a rate service. cache may be nil, in which case every
// lookup goes to the source. currencies are the ones Refresh keeps warm.
func NewService(source PriceSource, cache PriceCache, ttl time.Duration, currencies []string) *Service {
	warm := make([]string, 0, len(currencies))
	for _, c := range currencies {
		if c = normalize(c); c != "" {
			warm = append(warm, c)
		}
	}

	return &Service{
		source:     source,
		cache:      cache,
		ttl:        ttl,
		currencies: warm,
		log:        logrus.WithField("component", "rates"),
	}
}

// SatsPerFiat returns how many satoshis one unit of currency buys.
func (s *Service) SatsPerFiat(ctx context.Context, currency string) (decimal.Decimal, error) {
	cur := normalize(currency)
	if !validCurrency(cur) {
		return decimal.Zero, ErrUnsupportedCurrency
	}

	if price, ok := s.cached(ctx, cur); ok {
		return satsPerBTC.Div(price), nil
	}

	prices, err := s.source.BTCPrices(ctx, cur)
	if err != nil {
		return decimal.Zero, err
	}
	price, ok := prices[cur]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnsupportedCurrency, cur)
	}

	s.store(ctx, cur, price)
	return satsPerBTC.Div(price), nil
}

// Refresh reloads the prices of the warm currencies into the cache.
func (s *Service) Refresh(ctx context.Context) error {
	if s.cache == nil || len(s.currencies) == 0 {
		return nil
	}

	prices, err := s.source.BTCPrices(ctx, s.currencies...)
	if err != nil {
		return err
	}
	for cur, price := range prices {
		s.store(ctx, cur, price)
	}

	s.log.WithField("currencies", len(prices)).Debug("rates refreshed")
	return nil
}

func (s *Service) cached(ctx context.Context, cur string) (decimal.Decimal, bool) {
	if s.cache == nil {
		return decimal.Zero, false
	}
	price, found, err := s.cache.GetRate(ctx, cur)
	if err != nil {
		s.log.WithError(err).WithField("currency", cur).Warn("rate cache read failed")
		return decimal.Zero, false
	}
	return price, found && price.IsPositive()
}

func (s *Service) store(ctx context.Context, cur string, price decimal.Decimal) {
	if s.cache == nil {
		return
	}
	if err := s.cache.CacheRate(ctx, cur, price, s.ttl); err != nil {
		s.log.WithError(err).WithField("currency", cur).Warn("rate cache write failed")
	}
}
