package checkout

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/fatflowers/payport/internal/models"
	"github.com/fatflowers/payport/internal/platform/gateway"
	"github.com/fatflowers/payport/pkg/config"
	"github.com/fatflowers/payport/pkg/types"
)

var (
	ErrConfigurationMissing   = errors.New("payment configuration missing")
	ErrUnsupportedPaymentType = errors.New("unsupported payment type")
	ErrBusinessRuleViolation  = errors.New("payment method not available for this order")
)

const (
	systemName      = "payport"
	guestCustomerNo = "guest"
	instalmentEvery = "1m"

	defaultGuaranteeMinAmount  int64 = 999
	defaultInstalmentMinAmount int64 = 1998
	defaultMinCycleAmount      int64 = 999
)

// Selection is the payment method chosen by the buyer together with the instrument
// data collected by the checkout form.
type Selection struct {
	MethodID        string `json:"method_id" binding:"required"`
	SavedToken      string `json:"saved_token"`
	SavePaymentData bool   `json:"save_payment_data"`
	PanHash         string `json:"pan_hash"`
	UniqueID        string `json:"unique_id"`
	// DoRedirect is set by the card form when the issuer requires a 3-D Secure redirect
	DoRedirect bool   `json:"do_redirect"`
	IBAN       string `json:"iban"`
	BIC        string `json:"bic"`
	// BirthDate is YYYY-MM-DD, required by guaranteed and instalment methods
	BirthDate        string `json:"birth_date"`
	InstalmentCycles int    `json:"instalment_cycles"`
}

// MinorUnits converts a decimal amount to minor units, rounding half away from zero.
func MinorUnits(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}

// ReturnURL is the redirect-return endpoint for an order.
func ReturnURL(base, orderNo, token string) string {
	q := url.Values{}
	q.Set("orderNo", orderNo)
	q.Set("orderToken", token)
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + q.Encode()
}

// resolveMethod maps the selection onto a gateway type and its merchant settings.
func resolveMethod(cfg *config.Config, methodID string) (gateway.PaymentType, *types.PaymentMethodConfig, error) {
	if cfg == nil || !cfg.Gateway.HasCredentials() {
		return "", nil, fmt.Errorf("%w: merchant credentials or tariff not set", ErrConfigurationMissing)
	}
	pt, ok := gateway.ToGatewayType(methodID)
	if !ok {
		return "", nil, fmt.Errorf("%w: %s", ErrUnsupportedPaymentType, methodID)
	}
	method, ok := cfg.Method(methodID)
	if !ok {
		return "", nil, fmt.Errorf("%w: payment method %s is not configured", ErrConfigurationMissing, methodID)
	}
	if !method.Enabled {
		return "", nil, fmt.Errorf("%w: payment method %s is disabled", ErrUnsupportedPaymentType, methodID)
	}
	return pt, method, nil
}

// CheckEligibility applies the availability rules of guaranteed and instalment methods
// and the configured billing countries.
func CheckEligibility(o *models.Order, sel *Selection, pt gateway.PaymentType, method *types.PaymentMethodConfig) error {
	billing := o.BillingAddress()
	if billing == nil {
		return fmt.Errorf("%w: billing address missing", ErrBusinessRuleViolation)
	}
	if !method.AllowsCountry(billing.CountryCode) {
		return fmt.Errorf("%w: billing country %s not allowed", ErrBusinessRuleViolation, billing.CountryCode)
	}
	if !pt.IsGuaranteed() && !pt.IsInstalment() {
		return nil
	}

	amount := MinorUnits(o.GrossAmount)
	minAmount := lo.Ternary(method.GuaranteeMinAmount > 0, method.GuaranteeMinAmount, defaultGuaranteeMinAmount)
	if pt.IsInstalment() {
		minAmount = lo.Ternary(method.InstalmentMinAmount > 0, method.InstalmentMinAmount, defaultInstalmentMinAmount)
	}
	if amount < minAmount {
		return fmt.Errorf("%w: order amount below %d", ErrBusinessRuleViolation, minAmount)
	}
	if !strings.EqualFold(o.Currency, "EUR") {
		return fmt.Errorf("%w: currency %s not supported", ErrBusinessRuleViolation, o.Currency)
	}
	if sel.BirthDate == "" && billing.Company == "" {
		return fmt.Errorf("%w: birth date required", ErrBusinessRuleViolation)
	}
	if sel.BirthDate != "" {
		if _, err := time.Parse(types.DateLayout, sel.BirthDate); err != nil {
			return fmt.Errorf("%w: invalid birth date", ErrBusinessRuleViolation)
		}
	}

	if pt.IsInstalment() {
		if !method.AllowsCycles(sel.InstalmentCycles) {
			return fmt.Errorf("%w: %d instalment cycles not offered", ErrBusinessRuleViolation, sel.InstalmentCycles)
		}
		minCycle := lo.Ternary(method.InstalmentMinCycleAmount > 0, method.InstalmentMinCycleAmount, defaultMinCycleAmount)
		if amount/int64(sel.InstalmentCycles) < minCycle {
			return fmt.Errorf("%w: instalment cycle amount below %d", ErrBusinessRuleViolation, minCycle)
		}
	}
	return nil
}

// BuildPaymentRequest assembles the payment or authorize body for o.
func BuildPaymentRequest(o *models.Order, sel *Selection, cfg *config.Config, now time.Time) (*gateway.PaymentRequest, error) {
	if o == nil || sel == nil {
		return nil, fmt.Errorf("%w: nothing to pay", ErrBusinessRuleViolation)
	}
	pt, method, err := resolveMethod(cfg, sel.MethodID)
	if err != nil {
		return nil, err
	}
	if err := CheckEligibility(o, sel, pt, method); err != nil {
		return nil, err
	}

	req := &gateway.PaymentRequest{
		Merchant: &gateway.Merchant{Signature: cfg.Gateway.Signature, Tariff: cfg.Gateway.Tariff},
		Customer: buildCustomer(o, sel, pt),
		Custom: &gateway.Custom{
			Lang:      lo.CoalesceOrEmpty(o.Lang, cfg.Gateway.Lang),
			Input1:    "orderToken",
			Inputval1: o.Token,
		},
	}

	tx := &gateway.PaymentTransaction{
		PaymentType: pt,
		Amount:      MinorUnits(o.GrossAmount),
		Currency:    o.Currency,
		TestMode:    lo.Ternary(method.TestMode, 1, 0),
		OrderNo:     o.OrderNo,
		SystemName:  systemName,
	}
	if pt.RequiresDueDate() && method.DueDateDays > 0 {
		tx.DueDate = now.AddDate(0, 0, method.DueDateDays).Format(types.DateLayout)
	}
	if pt.SupportsZeroAmountBooking() && method.ZeroAmountBooking {
		tx.Amount = 0
		tx.CreateToken = 1
	}

	reusesToken := false
	if pt.SupportsToken() {
		switch {
		case sel.SavedToken != "":
			tx.PaymentData = &gateway.PaymentData{Token: sel.SavedToken}
			reusesToken = true
		case pt == gateway.PaymentTypeCreditCard:
			tx.PaymentData = &gateway.PaymentData{PanHash: sel.PanHash, UniqueID: sel.UniqueID}
			if sel.DoRedirect && method.Enforce3D {
				tx.PaymentData.Enforce3D = 1
			}
		default:
			tx.PaymentData = &gateway.PaymentData{IBAN: sel.IBAN, BIC: sel.BIC}
		}
		if sel.SavePaymentData && !reusesToken {
			tx.CreateToken = 1
		}
	}

	if !reusesToken && (pt.RequiresRedirect() || (pt == gateway.PaymentTypeCreditCard && sel.DoRedirect)) {
		tx.ReturnURL = ReturnURL(cfg.Shop.ReturnURL, o.OrderNo, o.Token)
		tx.ErrorReturnURL = tx.ReturnURL
	}
	req.Transaction = tx

	if pt.IsInstalment() {
		req.Instalment = &gateway.InstalmentRequest{Interval: instalmentEvery, Cycles: sel.InstalmentCycles}
	}
	if pt == gateway.PaymentTypePaypal {
		req.CartInfo = buildCartInfo(o)
	}
	return req, nil
}

func buildCustomer(o *models.Order, sel *Selection, pt gateway.PaymentType) *gateway.Customer {
	billing := o.BillingAddress()
	c := &gateway.Customer{
		FirstName:  billing.FirstName,
		LastName:   billing.LastName,
		Email:      o.CustomerEmail,
		CustomerIP: o.CustomerIP,
		CustomerNo: lo.CoalesceOrEmpty(o.CustomerNo, guestCustomerNo),
		Gender:     lo.CoalesceOrEmpty(o.Gender, "u"),
		Billing: &gateway.Address{
			Street:      billing.StreetLine(),
			City:        billing.City,
			Zip:         billing.Zip,
			CountryCode: billing.CountryCode,
			State:       billing.State,
			Tel:         billing.Phone,
		},
	}

	shipping := o.ShippingAddress()
	if shipping == nil || billing.Equal(shipping) {
		c.Shipping = &gateway.Address{SameAsBilling: 1}
	} else {
		c.Shipping = &gateway.Address{
			FirstName:   shipping.FirstName,
			LastName:    shipping.LastName,
			Email:       o.CustomerEmail,
			Street:      shipping.StreetLine(),
			City:        shipping.City,
			Zip:         shipping.Zip,
			CountryCode: shipping.CountryCode,
			State:       shipping.State,
			Tel:         shipping.Phone,
		}
	}

	if pt.IsGuaranteed() || pt.IsInstalment() {
		c.BirthDate = lo.CoalesceOrEmpty(sel.BirthDate, o.BirthDate)
	}
	return c
}

func buildCartInfo(o *models.Order) *gateway.CartInfo {
	items := lo.Map(o.LineItems.Data(), func(it models.LineItem, _ int) gateway.LineItem {
		return gateway.LineItem{Name: it.Name, Price: MinorUnits(it.Price), Quantity: it.Quantity}
	})
	return &gateway.CartInfo{
		LineItems:          items,
		ItemsTaxPrice:      MinorUnits(o.TaxAmount),
		ItemsShippingPrice: MinorUnits(o.ShippingAmount),
	}
}

var authorizableTypes = []gateway.PaymentType{
	gateway.PaymentTypeInvoice,
	gateway.PaymentTypeDirectDebitSepa,
	gateway.PaymentTypeCreditCard,
	gateway.PaymentTypeGuaranteedDirectDebitSepa,
	gateway.PaymentTypeGuaranteedInvoice,
	gateway.PaymentTypeInstalmentInvoice,
	gateway.PaymentTypeInstalmentDirectDebitSepa,
	gateway.PaymentTypePaypal,
}

// SelectPaymentEndpoint returns authorize for methods configured to authorize only
// when amount reaches the on-hold limit, payment otherwise.
func SelectPaymentEndpoint(pt gateway.PaymentType, method *types.PaymentMethodConfig, amount int64) gateway.Endpoint {
	if lo.Contains(authorizableTypes, pt) && method.IsAuthorizeOnly() && amount >= method.OnholdAmount {
		return gateway.EndpointAuthorize
	}
	return gateway.EndpointPayment
}
