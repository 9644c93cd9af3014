package payment

import (
	"context"

	"tpos/internal/lnurl"
)

// Payer settles a BOLT11 invoice from a wallet and returns the payment hash.
type Payer interface {
	PayInvoice(ctx context.Context, walletID, paymentRequest, description string, extra map[string]any) (string, error)
}

// LNURLClient is the subset of the LNURL HTTP client the flows use.
type LNURLClient interface {
	FetchPayParams(ctx context.Context, url string) (*lnurl.PayParams, error)
	RequestInvoice(ctx context.Context, callback string, amount lnurl.Msat) (*lnurl.PayCallbackResponse, error)
	FetchWithdrawParams(ctx context.Context, url string) (*lnurl.WithdrawParams, error)
	SubmitWithdraw(ctx context.Context, callback, k1, paymentRequest string) (*lnurl.WithdrawResult, error)
	Close()
}

// ClientFactory opens a client scoped to a single flow.
type ClientFactory func() LNURLClient

// NewClientFactory returns a factory building clients from opts.
func NewClientFactory(opts lnurl.Options) ClientFactory {
	return func() LNURLClient {
		return lnurl.NewClient(opts)
	}
}
