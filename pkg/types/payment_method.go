package types

import "strings"

type PaymentAction string

const (
	PaymentActionCapture   PaymentAction = "capture"
	PaymentActionAuthorize PaymentAction = "authorize"
)

// PaymentMethodConfig holds the merchant settings of one shop payment method.
type PaymentMethodConfig struct {
	// ID is the shop-side method id, e.g. NOVALNET_INVOICE
	ID                string        `json:"id" mapstructure:"id"`
	Enabled           bool          `json:"enabled" mapstructure:"enabled"`
	TestMode          bool          `json:"test_mode" mapstructure:"test_mode"`
	DueDateDays       int           `json:"due_date_days" mapstructure:"due_date_days"`
	PaymentAction     PaymentAction `json:"payment_action" mapstructure:"payment_action"`
	OnholdAmount      int64         `json:"onhold_amount" mapstructure:"onhold_amount"`
	Tokenization      bool          `json:"tokenization" mapstructure:"tokenization"`
	ZeroAmountBooking bool          `json:"zero_amount_booking" mapstructure:"zero_amount_booking"`
	Enforce3D         bool          `json:"enforce_3d" mapstructure:"enforce_3d"`
	// GuaranteeMinAmount is the minimum order amount in minor units for guaranteed methods
	GuaranteeMinAmount int64 `json:"guarantee_min_amount" mapstructure:"guarantee_min_amount"`
	// InstalmentMinAmount is the minimum order amount in minor units for instalment methods
	InstalmentMinAmount int64 `json:"instalment_min_amount" mapstructure:"instalment_min_amount"`
	// InstalmentMinCycleAmount is the minimum amount in minor units of a single instalment cycle
	InstalmentMinCycleAmount int64    `json:"instalment_min_cycle_amount" mapstructure:"instalment_min_cycle_amount"`
	InstalmentCycles         []int    `json:"instalment_cycles" mapstructure:"instalment_cycles"`
	AllowedCountries         []string `json:"allowed_countries" mapstructure:"allowed_countries"`
}

func (m *PaymentMethodConfig) IsAuthorizeOnly() bool {
	return m != nil && m.PaymentAction == PaymentActionAuthorize
}

// AllowsCountry reports whether billing to country is allowed. An empty list allows all.
func (m *PaymentMethodConfig) AllowsCountry(country string) bool {
	if m == nil || len(m.AllowedCountries) == 0 {
		return true
	}
	for _, c := range m.AllowedCountries {
		if strings.EqualFold(c, country) {
			return true
		}
	}
	return false
}

// AllowsCycles reports whether n is one of the configured instalment cycle counts.
// A plan has at least two cycles whatever the configuration lists.
func (m *PaymentMethodConfig) AllowsCycles(n int) bool {
	if n < 2 {
		return false
	}
	if m == nil || len(m.InstalmentCycles) == 0 {
		return true
	}
	for _, c := range m.InstalmentCycles {
		if c == n {
			return true
		}
	}
	return false
}
