package payment

import (
	"context"
	"errors"
	"fmt"

	"tpos/internal/lnurl"
	"tpos/internal/models"

	"github.com/sirupsen/logrus"
)

const (
	atmDescription = "ATM Withdrawal"
	atmTag         = "tpos_atm"
)

// Orchestrator drives the LNURL pay and withdraw flows. It holds no state
// between calls; every flow opens its own client and closes it on return.
type Orchestrator struct {
	payer     Payer
	newClient ClientFactory
	log       *logrus.Entry
}

func NewOrchestrator(payer Payer, newClient ClientFactory, log *logrus.Entry) *Orchestrator {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Orchestrator{
		payer:     payer,
		newClient: newClient,
		log:       log.WithField("component", "payment_orchestrator"),
	}
}

// PullATM pulls amount sats from the LNURL-pay service behind payLink into
// the terminal's wallet by paying the invoice the service hands back.
func (o *Orchestrator) PullATM(ctx context.Context, t *models.Tpos, amount int64, payLink string) Outcome {
	if !t.AtmEnabled() {
		return Failed(DetailATMNotAllowed)
	}

	log := o.log.WithFields(logrus.Fields{"tpos_id": t.ID, "flow": "atm"})

	client := o.newClient()
	defer client.Close()

	params, err := client.FetchPayParams(ctx, lnurl.NormalizePayLink(payLink))
	if err != nil {
		return stageFailure(log, "metadata", err, DetailErrorLoading)
	}

	msat := lnurl.FromSat(amount)
	if msat < *params.MinSendable {
		return Failed(DetailAmountTooLow)
	}
	if msat > *params.MaxSendable {
		return Failed(DetailAmountTooHigh)
	}

	invoice, err := client.RequestInvoice(ctx, params.Callback, msat)
	if err != nil {
		return stageFailure(log, "callback", err, DetailErrorLoadingCB)
	}

	hash, err := o.payer.PayInvoice(ctx, t.Wallet, invoice.PR, atmDescription, map[string]any{
		"tag":  atmTag,
		"tpos": t.ID,
	})
	if err != nil {
		log.WithError(err).WithField("stage", "pay").Warn("atm payment failed")
		return Failed(fmt.Sprintf(detailPaymentFailedFormat, err))
	}

	log.WithFields(logrus.Fields{"amount": amount, "payment_hash": hash}).Info("atm withdrawal paid")
	return Succeeded(DetailPaymentSuccessful, hash)
}

// PushWithdraw hands paymentRequest to the LNURL-withdraw service behind
// rawLNURL, which pays it. The error return is reserved for an lnurl that
// cannot be decoded.
func (o *Orchestrator) PushWithdraw(ctx context.Context, rawLNURL, paymentRequest string) (Outcome, error) {
	target, err := lnurl.Resolve(rawLNURL)
	if err != nil {
		return Outcome{}, err
	}

	log := o.log.WithFields(logrus.Fields{"flow": "withdraw"})

	client := o.newClient()
	defer client.Close()

	params, err := client.FetchWithdrawParams(ctx, target)
	if err != nil {
		return withdrawFailure(log, "metadata", err, DetailErrorLoading), nil
	}

	result, err := client.SubmitWithdraw(ctx, params.Callback, params.K1, paymentRequest)
	if err != nil {
		return withdrawFailure(log, "callback", err, DetailErrorLoadingCB), nil
	}
	if result.Failed() {
		return rejected(result.Reason), nil
	}

	return Succeeded(result.Raw, ""), nil
}

// stageFailure maps a client error to the detail shown at the terminal.
// Transport and status errors both read as the stage's loading message.
func stageFailure(log *logrus.Entry, stage string, err error, loading string) Outcome {
	log.WithError(err).WithField("stage", stage).Warn("lnurl request failed")

	var svcErr *lnurl.ServiceError
	switch {
	case errors.Is(err, lnurl.ErrWrongTag):
		return Failed(DetailWrongTag)
	case errors.Is(err, lnurl.ErrMalformedMetadata):
		return Failed(DetailMalformedResponse)
	case errors.As(err, &svcErr):
		return rejected(svcErr.Reason)
	default:
		return Failed(loading)
	}
}

// withdrawFailure is stageFailure for the withdraw flow, where connection
// level failures are reported as unexpected.
func withdrawFailure(log *logrus.Entry, stage string, err error, loading string) Outcome {
	var transportErr *lnurl.TransportError
	if errors.As(err, &transportErr) {
		log.WithError(err).WithField("stage", stage).Warn("lnurl request failed")
		return Failed(DetailUnexpectedError)
	}
	return stageFailure(log, stage, err, loading)
}
