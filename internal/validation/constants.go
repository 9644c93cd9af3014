package validation

const (
	MaxNameLength     = 100
	MaxMemoLength     = 640
	MaxCurrencyLength = 5
	MaxTipOptions     = 10
	MaxTipPercent     = 100

	// Password requirements for admin accounts
	MinPasswordLength = 8
	MaxPasswordLength = 72

	MinAmount = 1
	// MaxAmount is the bitcoin supply cap in sats.
	MaxAmount = 21_000_000 * 100_000_000
)
