package validation

import (
	"strings"

	"tpos/internal/models"
)

// TposData validates a terminal create or update body.
func (v *Validator) TposData(d *models.CreateTposData) {
	v.Required("name", d.Name)
	v.MaxLength("name", d.Name, MaxNameLength)
	v.Currency("currency", d.Currency)

	v.Check(len(d.TipOptions) <= MaxTipOptions, "tip_options", "too many tip options")
	for _, tip := range d.TipOptions {
		if tip <= 0 || tip > MaxTipPercent {
			v.AddError("tip_options", "tip options must be between 1 and 100")
			break
		}
	}
}

// Sale validates the query of a new sale.
func (v *Validator) Sale(s *models.SaleRequest) {
	v.MinInt("amount", s.Amount, MinAmount)
	v.MaxInt("amount", s.Amount, MaxAmount)
	v.MinInt("tipAmount", s.TipAmount, 0)
	v.MaxInt("tipAmount", s.TipAmount, MaxAmount)
	v.MaxLength("memo", s.Memo, MaxMemoLength)
}

// ATM validates the query of an ATM withdrawal.
func (v *Validator) ATM(amount int64, payLink string) {
	v.MinInt("amount", amount, MinAmount)
	v.MaxInt("amount", amount, MaxAmount)
	v.Required("payLink", payLink)
}

// Withdraw validates the body of a pay-by-LNURL-withdraw request.
func (v *Validator) Withdraw(paymentRequest, lnurl string) {
	v.Required("payment_request", paymentRequest)
	v.Required("lnurl", lnurl)
}

// Password validates an admin password
func (v *Validator) Password(field, password string) {
	v.Check(len(password) >= MinPasswordLength, field, "must be at least 8 characters long")
	v.Check(len(password) <= MaxPasswordLength, field, "must not be more than 72 characters long")
	v.Check(strings.TrimSpace(password) == password, field, "must not start or end with spaces")
}
