package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tpos/internal/models"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

const latestPaymentsLimit = 20

// LNbits talks to an LNbits compatible REST backend.
type LNbits struct {
	client  *resty.Client
	wallets WalletLookup
	log     *logrus.Entry
}

var _ Gateway = (*LNbits)(nil)

func NewLNbits(baseURL string, timeout time.Duration, wallets WalletLookup) *LNbits {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")

	return &LNbits{
		client:  client,
		wallets: wallets,
		log:     logrus.WithField("component", "lnbits_gateway"),
	}
}

type createInvoiceRequest struct {
	Out    bool           `json:"out"`
	Amount int64          `json:"amount"`
	Memo   string         `json:"memo"`
	Unit   string         `json:"unit"`
	Extra  map[string]any `json:"extra,omitempty"`
}

type payInvoiceRequest struct {
	Out    bool           `json:"out"`
	Bolt11 string         `json:"bolt11"`
	Memo   string         `json:"memo,omitempty"`
	Extra  map[string]any `json:"extra,omitempty"`
}

type paymentRow struct {
	CheckingID string          `json:"checking_id"`
	Amount     int64           `json:"amount"`
	Time       json.Number     `json:"time"`
	Pending    bool            `json:"pending"`
	Extra      json.RawMessage `json:"extra"`
}

func (g *LNbits) CreateInvoice(ctx context.Context, walletID string, amount int64, memo string, extra map[string]any) (*models.Invoice, error) {
	w, err := g.wallets.GetByID(ctx, walletID)
	if err != nil {
		return nil, fmt.Errorf("wallet %s: %w", walletID, err)
	}

	var inv models.Invoice
	resp, err := g.client.R().
		SetContext(ctx).
		SetHeader("X-Api-Key", w.InvoiceKey).
		SetBody(createInvoiceRequest{Amount: amount, Memo: memo, Unit: "sat", Extra: extra}).
		Post("/api/v1/payments")
	if err != nil {
		return nil, fmt.Errorf("create invoice: %w", err)
	}
	if err := decode(resp, &inv); err != nil {
		return nil, err
	}

	g.log.WithFields(logrus.Fields{
		"wallet":       walletID,
		"amount":       amount,
		"payment_hash": inv.PaymentHash,
	}).Info("invoice created")
	return &inv, nil
}

func (g *LNbits) PayInvoice(ctx context.Context, walletID, paymentRequest, description string, extra map[string]any) (string, error) {
	w, err := g.wallets.GetByID(ctx, walletID)
	if err != nil {
		return "", fmt.Errorf("wallet %s: %w", walletID, err)
	}

	resp, err := g.client.R().
		SetContext(ctx).
		SetHeader("X-Api-Key", w.AdminKey).
		SetBody(payInvoiceRequest{Out: true, Bolt11: paymentRequest, Memo: description, Extra: extra}).
		Post("/api/v1/payments")
	if err != nil {
		return "", fmt.Errorf("pay invoice: %w", err)
	}
	if resp.IsError() {
		return "", backendError(resp)
	}

	hash := gjson.GetBytes(resp.Body(), "payment_hash").String()
	if hash == "" {
		return "", &Error{StatusCode: resp.StatusCode(), Detail: "backend returned no payment hash"}
	}

	g.log.WithFields(logrus.Fields{
		"wallet":       walletID,
		"payment_hash": hash,
	}).Info("invoice paid")
	return hash, nil
}

func (g *LNbits) CheckPayment(ctx context.Context, walletID, paymentHash string) (*models.PaymentStatus, error) {
	w, err := g.wallets.GetByID(ctx, walletID)
	if err != nil {
		return nil, fmt.Errorf("wallet %s: %w", walletID, err)
	}

	var status models.PaymentStatus
	resp, err := g.client.R().
		SetContext(ctx).
		SetHeader("X-Api-Key", w.InvoiceKey).
		SetPathParam("hash", paymentHash).
		Get("/api/v1/payments/{hash}")
	if err != nil {
		return nil, fmt.Errorf("check payment: %w", err)
	}
	if err := decode(resp, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// LatestPayments lists the most recent payments whose extra carries the
// given tag and extension id.
func (g *LNbits) LatestPayments(ctx context.Context, walletID, tag, extID string) ([]models.PaymentSummary, error) {
	w, err := g.wallets.GetByID(ctx, walletID)
	if err != nil {
		return nil, fmt.Errorf("wallet %s: %w", walletID, err)
	}

	var rows []paymentRow
	resp, err := g.client.R().
		SetContext(ctx).
		SetHeader("X-Api-Key", w.InvoiceKey).
		SetQueryParams(map[string]string{
			"limit":     "100",
			"sortby":    "time",
			"direction": "desc",
		}).
		Get("/api/v1/payments")
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	if err := decode(resp, &rows); err != nil {
		return nil, err
	}

	payments := make([]models.PaymentSummary, 0, latestPaymentsLimit)
	for _, row := range rows {
		extra := gjson.ParseBytes(row.Extra)
		if extra.Get("tag").String() != tag || extra.Get("tposId").String() != extID {
			continue
		}

		t, _ := row.Time.Int64()
		payments = append(payments, models.PaymentSummary{
			CheckingID: row.CheckingID,
			Amount:     row.Amount,
			Time:       t,
			Pending:    row.Pending,
		})
		if len(payments) == latestPaymentsLimit {
			break
		}
	}
	return payments, nil
}

// decode unmarshals a successful reply into v. The backend does not always
// label its replies as JSON, so the body is decoded regardless of type.
func decode(resp *resty.Response, v any) error {
	if resp.IsError() {
		return backendError(resp)
	}
	if err := json.Unmarshal(resp.Body(), v); err != nil {
		return fmt.Errorf("decode %s reply: %w", resp.Request.URL, err)
	}
	return nil
}

func backendError(resp *resty.Response) error {
	detail := gjson.GetBytes(resp.Body(), "detail").String()
	return &Error{StatusCode: resp.StatusCode(), Detail: detail}
}
