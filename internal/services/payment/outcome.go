package payment

import "strings"

const (
	DetailATMNotAllowed       = "ATM mode not allowed"
	DetailErrorLoading        = "Error loading"
	DetailErrorLoadingCB      = "Error loading callback"
	DetailWrongTag            = "Wrong tag type"
	DetailAmountTooLow        = "Amount too low"
	DetailAmountTooHigh       = "Amount too high"
	DetailMalformedResponse   = "Malformed response"
	DetailPaymentSuccessful   = "Payment successful"
	DetailUnexpectedError     = "Unexpected error occurred"
	DetailServiceRejected     = "Request rejected by the LNURL service"
	detailPaymentFailedFormat = "Payment failed - %v"
)

// Outcome is the result of a payment flow. Failures the person at the
// terminal can act on are reported here rather than as errors.
type Outcome struct {
	Success     bool   `json:"success"`
	Detail      any    `json:"detail"`
	PaymentHash string `json:"payment_hash,omitempty"`
}

func Succeeded(detail any, paymentHash string) Outcome {
	return Outcome{Success: true, Detail: detail, PaymentHash: paymentHash}
}

func Failed(detail string) Outcome {
	return Outcome{Success: false, Detail: detail}
}

// rejected is the failure for an LNURL {"status":"ERROR"} reply.
func rejected(reason string) Outcome {
	if strings.TrimSpace(reason) == "" {
		return Failed(DetailServiceRejected)
	}
	return Failed(reason)
}
