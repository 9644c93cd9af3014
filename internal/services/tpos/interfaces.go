package tpos

import (
	"context"

	"tpos/internal/models"
	"tpos/internal/services/payment"
)

// Service is the terminal API: CRUD plus the sale and withdrawal flows.
type Service interface {
	List(ctx context.Context, w *models.WalletTypeInfo, allWallets bool) ([]models.Tpos, error)
	Create(ctx context.Context, w *models.WalletTypeInfo, data models.CreateTposData) (*models.Tpos, error)
	// Update checks ownership before it validates data.
	Update(ctx context.Context, w *models.WalletTypeInfo, id string, data models.CreateTposData) (*models.Tpos, error)
	Authorize(ctx context.Context, w *models.WalletTypeInfo, id string) error
	Delete(ctx context.Context, w *models.WalletTypeInfo, id string) error

	CreateInvoice(ctx context.Context, id string, sale models.SaleRequest) (*models.Invoice, error)
	MakeATM(ctx context.Context, id string, amount int64, payLink string) (payment.Outcome, error)
	PayWithLNURLw(ctx context.Context, id, paymentRequest, lnurl string) (payment.Outcome, error)
	LatestPayments(ctx context.Context, id string) ([]models.PaymentSummary, error)
	CheckInvoice(ctx context.Context, id, paymentHash string) (*models.PaymentStatus, error)
}

// Flows runs the LNURL flows on behalf of a terminal.
type Flows interface {
	PullATM(ctx context.Context, t *models.Tpos, amount int64, payLink string) payment.Outcome
	PushWithdraw(ctx context.Context, rawLNURL, paymentRequest string) (payment.Outcome, error)
}

// WalletDirectory lists the wallets of a user.
type WalletDirectory interface {
	ListIDsByUser(ctx context.Context, userID string) ([]string, error)
}
