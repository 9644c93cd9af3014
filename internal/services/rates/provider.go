package rates

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

var ErrUnsupportedCurrency = errors.New("unsupported currency")

// PriceSource quotes the price of one bitcoin in fiat currencies.
type PriceSource interface {
	BTCPrices(ctx context.Context, currencies ...string) (map[string]decimal.Decimal, error)
}

// Provider reads BTC prices from an exchange-rates endpoint answering
// {"data":{"rates":{"USD":"43000.12",...}}}.
type Provider struct {
	client *resty.Client
	url    string
}

func NewProvider(url string, timeout time.Duration) *Provider {
	return &Provider{
		client: resty.New().SetTimeout(timeout).SetHeader("Accept", "application/json"),
		url:    url,
	}
}

// BTCPrices returns the price of one bitcoin in each requested currency.
// Currencies the endpoint does not quote are left out of the map.
func (p *Provider) BTCPrices(ctx context.Context, currencies ...string) (map[string]decimal.Decimal, error) {
	resp, err := p.client.R().SetContext(ctx).Get(p.url)
	if err != nil {
		return nil, fmt.Errorf("fetch rates: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch rates: status %d", resp.StatusCode())
	}

	rates := gjson.GetBytes(resp.Body(), "data.rates")
	if !rates.IsObject() {
		return nil, errors.New("fetch rates: reply has no data.rates")
	}

	prices := make(map[string]decimal.Decimal, len(currencies))
	for _, cur := range currencies {
		if !validCurrency(cur) {
			continue
		}
		v := rates.Get(cur)
		if !v.Exists() {
			continue
		}
		price, err := decimal.NewFromString(v.String())
		if err != nil || !price.IsPositive() {
			continue
		}
		prices[cur] = price
	}
	return prices, nil
}

// validCurrency keeps user input from being read as a gjson path.
func validCurrency(cur string) bool {
	if len(cur) < 3 || len(cur) > 5 {
		return false
	}
	for _, r := range cur {
		if !unicode.IsUpper(r) || r > unicode.MaxASCII {
			return false
		}
	}
	return true
}

func normalize(cur string) string {
	return strings.ToUpper(strings.TrimSpace(cur))
}
