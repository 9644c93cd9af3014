package gateway

import (
	"context"

	"tpos/internal/models"
)

// Gateway creates and settles Lightning invoices on behalf of a wallet.
type Gateway interface {
	CreateInvoice(ctx context.Context, walletID string, amount int64, memo string, extra map[string]any) (*models.Invoice, error)
	PayInvoice(ctx context.Context, walletID, paymentRequest, description string, extra map[string]any) (string, error)
	CheckPayment(ctx context.Context, walletID, paymentHash string) (*models.PaymentStatus, error)
	LatestPayments(ctx context.Context, walletID, tag, extID string) ([]models.PaymentSummary, error)
}

// WalletLookup resolves the backend keys of a wallet.
type WalletLookup interface {
	GetByID(ctx context.Context, id string) (*models.Wallet, error)
}
