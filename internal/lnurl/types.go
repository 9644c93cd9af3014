package lnurl

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// Tag identifies the kind of LNURL service behind a URL.
type Tag string

const (
	TagPayRequest      Tag = "payRequest"
	TagWithdrawRequest Tag = "withdrawRequest"
)

// StatusError is the value of the status field in an LNURL error reply.
const StatusError = "ERROR"

// Msat is an amount in millisatoshi. Services encode it either as a JSON
// number or as a numeric string, both are accepted.
type Msat int64

// MaxSat is the largest satoshi amount representable in Msat.
const MaxSat = math.MaxInt64 / 1000

// FromSat converts satoshis to millisatoshis, clamping at the int64 range.
func FromSat(sat int64) Msat {
	switch {
	case sat > MaxSat:
		return Msat(math.MaxInt64)
	case sat < -MaxSat:
		return Msat(math.MinInt64)
	}
	return Msat(sat * 1000)
}

func (m *Msat) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 {
		return fmt.Errorf("empty msat amount")
	}

	if n, err := strconv.ParseInt(string(data), 10, 64); err == nil {
		*m = Msat(n)
		return nil
	}

	// Some services send whole numbers as 1000.0 or 1e3.
	d, err := decimal.NewFromString(string(data))
	if err != nil {
		return fmt.Errorf("invalid msat amount %q: %w", data, err)
	}
	if !d.IsInteger() {
		return fmt.Errorf("invalid msat amount %q: not a whole number", data)
	}
	if d.GreaterThan(maxMsat) || d.LessThan(minMsat) {
		return fmt.Errorf("invalid msat amount %q: out of range", data)
	}
	*m = Msat(d.IntPart())
	return nil
}

var (
	maxMsat = decimal.NewFromInt(math.MaxInt64)
	minMsat = decimal.NewFromInt(math.MinInt64)
)

// PayParams is the reply of an LNURL-pay service to the first GET.
type PayParams struct {
	Tag            Tag    `json:"tag"`
	Callback       string `json:"callback"`
	MinSendable    *Msat  `json:"minSendable"`
	MaxSendable    *Msat  `json:"maxSendable"`
	Metadata       string `json:"metadata"`
	CommentAllowed int    `json:"commentAllowed"`
}

// PayCallbackResponse is the reply of the pay callback carrying the invoice.
type PayCallbackResponse struct {
	PR     string `json:"pr"`
	Routes []any  `json:"routes"`
	Status string `json:"status"`
	Reason string `json:"reason"`
}

// WithdrawParams is the reply of an LNURL-withdraw service to the first GET.
type WithdrawParams struct {
	Tag                Tag    `json:"tag"`
	Callback           string `json:"callback"`
	K1                 string `json:"k1"`
	MinWithdrawable    *Msat  `json:"minWithdrawable"`
	MaxWithdrawable    *Msat  `json:"maxWithdrawable"`
	DefaultDescription string `json:"defaultDescription"`
}

// WithdrawResult is the reply of the withdraw callback. Raw holds the body
// untouched so callers can hand it back verbatim.
type WithdrawResult struct {
	Status string
	Reason string
	Raw    json.RawMessage
}

// Failed reports whether the service rejected the withdrawal.
func (r *WithdrawResult) Failed() bool {
	return r.Status == StatusError
}
