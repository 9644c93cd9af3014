package models

import "encoding/json"

// Invoice is a freshly created Lightning invoice.
type Invoice struct {
	PaymentHash    string `json:"payment_hash"`
	PaymentRequest string `json:"payment_request"`
}

// PaymentSummary is one line of a terminal's recent payments.
type PaymentSummary struct {
	CheckingID string `json:"checking_id"`
	Amount     int64  `json:"amount"`
	Time       int64  `json:"time"`
	Pending    bool   `json:"pending"`
}

// PaymentStatus is the reply to a status poll.
type PaymentStatus struct {
	Paid     bool            `json:"paid"`
	Preimage string          `json:"preimage,omitempty"`
	Details  json.RawMessage `json:"details,omitempty"`
}

// SaleRequest is a new sale entered on a terminal. Amounts are in sats.
type SaleRequest struct {
	Amount    int64
	Memo      string
	TipAmount int64
}
