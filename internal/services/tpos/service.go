package tpos

import (
	"context"
	"errors"
	"fmt"

	"tpos/internal/models"
	"tpos/internal/repositories"
	"tpos/internal/services/gateway"
	"tpos/internal/services/payment"
	"tpos/internal/validation"

	"github.com/sirupsen/logrus"
)

// ExtensionTag marks payments created by terminals.
const ExtensionTag = "tpos"

type service struct {
	store   repositories.TposRepository
	wallets WalletDirectory
	gateway gateway.Gateway
	flows   Flows
	log     *logrus.Entry
}

func NewService(
	store repositories.TposRepository,
	wallets WalletDirectory,
	gw gateway.Gateway,
	flows Flows,
) Service {
	return &service{
		store:   store,
		wallets: wallets,
		gateway: gw,
		flows:   flows,
		log:     logrus.WithField("component", "tpos_service"),
	}
}

func (s *service) List(ctx context.Context, w *models.WalletTypeInfo, allWallets bool) ([]models.Tpos, error) {
	walletIDs := []string{w.Wallet.ID}
	if allWallets {
		ids, err := s.wallets.ListIDsByUser(ctx, w.Wallet.UserID)
		if err != nil {
			return nil, fmt.Errorf("list user wallets: %w", err)
		}
		walletIDs = ids
	}
	return s.store.List(ctx, walletIDs)
}

func (s *service) Create(ctx context.Context, w *models.WalletTypeInfo, data models.CreateTposData) (*models.Tpos, error) {
	t := &models.Tpos{Wallet: w.Wallet.ID}
	data.Apply(t)

	if err := s.store.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create tpos: %w", err)
	}

	s.log.WithFields(logrus.Fields{"tpos_id": t.ID, "wallet": t.Wallet}).Info("tpos created")
	return t, nil
}

func (s *service) Update(ctx context.Context, w *models.WalletTypeInfo, id string, data models.CreateTposData) (*models.Tpos, error) {
	t, err := s.owned(ctx, w, id)
	if err != nil {
		return nil, err
	}

	v := validation.New()
	v.TposData(&data)
	if err := v.Err(); err != nil {
		return nil, err
	}

	data.Apply(t)
	if err := s.store.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("update tpos: %w", err)
	}
	return t, nil
}

func (s *service) Authorize(ctx context.Context, w *models.WalletTypeInfo, id string) error {
	_, err := s.owned(ctx, w, id)
	return err
}

func (s *service) Delete(ctx context.Context, w *models.WalletTypeInfo, id string) error {
	if _, err := s.owned(ctx, w, id); err != nil {
		return err
	}

	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrTposNotFound
		}
		return fmt.Errorf("delete tpos: %w", err)
	}

	s.log.WithField("tpos_id", id).Info("tpos deleted")
	return nil
}

// CreateInvoice issues an invoice for a sale, tip included. Gateway
// failures are returned as is.
func (s *service) CreateInvoice(ctx context.Context, id string, sale models.SaleRequest) (*models.Invoice, error) {
	v := validation.New()
	v.Sale(&sale)
	if err := v.Err(); err != nil {
		return nil, err
	}

	t, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	amount := sale.Amount
	var baseAmount any = false
	if sale.TipAmount > 0 {
		baseAmount = sale.Amount
		amount += sale.TipAmount
	}

	memo := t.Name
	if sale.Memo != "" {
		memo = fmt.Sprintf("%s to %s", sale.Memo, t.Name)
	}

	return s.gateway.CreateInvoice(ctx, t.Wallet, amount, memo, map[string]any{
		"tag":       ExtensionTag,
		"tipAmount": sale.TipAmount,
		"tposId":    t.ID,
		"amount":    baseAmount,
	})
}

func (s *service) MakeATM(ctx context.Context, id string, amount int64, payLink string) (payment.Outcome, error) {
	t, err := s.get(ctx, id)
	if err != nil {
		return payment.Outcome{}, err
	}
	return s.flows.PullATM(ctx, t, amount, payLink), nil
}

func (s *service) PayWithLNURLw(ctx context.Context, id, paymentRequest, lnurl string) (payment.Outcome, error) {
	if _, err := s.get(ctx, id); err != nil {
		return payment.Outcome{}, err
	}
	return s.flows.PushWithdraw(ctx, lnurl, paymentRequest)
}

func (s *service) LatestPayments(ctx context.Context, id string) ([]models.PaymentSummary, error) {
	t, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.gateway.LatestPayments(ctx, t.Wallet, ExtensionTag, t.ID)
}

// CheckInvoice reports a failed status lookup as not paid. Terminals poll
// it in a loop; only an unknown terminal is an error.
func (s *service) CheckInvoice(ctx context.Context, id, paymentHash string) (*models.PaymentStatus, error) {
	t, err := s.get(ctx, id)
	if errors.Is(err, ErrTposNotFound) {
		return nil, err
	}

	var status *models.PaymentStatus
	if err == nil {
		status, err = s.gateway.CheckPayment(ctx, t.Wallet, paymentHash)
	}
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"tpos_id":      id,
			"payment_hash": paymentHash,
		}).Error("payment status check failed")
		return &models.PaymentStatus{Paid: false}, nil
	}
	return status, nil
}

func (s *service) get(ctx context.Context, id string) (*models.Tpos, error) {
	if id == "" {
		return nil, ErrTposNotFound
	}

	t, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTposNotFound
		}
		return nil, fmt.Errorf("get tpos %s: %w", id, err)
	}
	return t, nil
}

func (s *service) owned(ctx context.Context, w *models.WalletTypeInfo, id string) (*models.Tpos, error) {
	t, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Wallet != w.Wallet.ID {
		return nil, ErrNotYourTpos
	}
	return t, nil
}
