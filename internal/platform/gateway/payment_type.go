package gateway

import (
	"strings"

	"github.com/samber/lo"
)

// PaymentType is the gateway's payment_type enum.
type PaymentType string

const (
	PaymentTypeInvoice                   PaymentType = "INVOICE"
	PaymentTypeIdeal                     PaymentType = "IDEAL"
	PaymentTypePrepayment                PaymentType = "PREPAYMENT"
	PaymentTypeDirectDebitSepa           PaymentType = "DIRECT_DEBIT_SEPA"
	PaymentTypeCreditCard                PaymentType = "CREDITCARD"
	PaymentTypeOnlineTransfer            PaymentType = "ONLINE_TRANSFER"
	PaymentTypeGiropay                   PaymentType = "GIROPAY"
	PaymentTypeEps                       PaymentType = "EPS"
	PaymentTypePrzelewy24                PaymentType = "PRZELEWY24"
	PaymentTypePaypal                    PaymentType = "PAYPAL"
	PaymentTypeCashPayment               PaymentType = "CASHPAYMENT"
	PaymentTypeMultibanco                PaymentType = "MULTIBANCO"
	PaymentTypeBancontact                PaymentType = "BANCONTACT"
	PaymentTypePostfinance               PaymentType = "POSTFINANCE"
	PaymentTypePostfinanceCard           PaymentType = "POSTFINANCE_CARD"
	PaymentTypeGuaranteedInvoice         PaymentType = "GUARANTEED_INVOICE"
	PaymentTypeGuaranteedDirectDebitSepa PaymentType = "GUARANTEED_DIRECT_DEBIT_SEPA"
	PaymentTypeInstalmentDirectDebitSepa PaymentType = "INSTALMENT_DIRECT_DEBIT_SEPA"
	PaymentTypeInstalmentInvoice         PaymentType = "INSTALMENT_INVOICE"

	// Credit sub-types reported on CREDIT events.
	PaymentTypeInvoiceCredit     PaymentType = "INVOICE_CREDIT"
	PaymentTypeCashPaymentCredit PaymentType = "CASHPAYMENT_CREDIT"
	PaymentTypeMultibancoCredit  PaymentType = "MULTIBANCO_CREDIT"
)

// shopPaymentTypes maps shop payment method ids to gateway payment types.
var shopPaymentTypes = map[string]PaymentType{
	"NOVALNET_INVOICE":            PaymentTypeInvoice,
	"NOVALNET_IDEAL":              PaymentTypeIdeal,
	"NOVALNET_PREPAYMENT":         PaymentTypePrepayment,
	"NOVALNET_SEPA":               PaymentTypeDirectDebitSepa,
	"NOVALNET_CREDITCARD":         PaymentTypeCreditCard,
	"NOVALNET_SOFORT":             PaymentTypeOnlineTransfer,
	"NOVALNET_GIROPAY":            PaymentTypeGiropay,
	"NOVALNET_EPS":                PaymentTypeEps,
	"NOVALNET_PRZELEWY":           PaymentTypePrzelewy24,
	"NOVALNET_PAYPAL":             PaymentTypePaypal,
	"NOVALNET_CASHPAYMENT":        PaymentTypeCashPayment,
	"NOVALNET_MULTIBANCO":         PaymentTypeMultibanco,
	"NOVALNET_BANCONTACT":         PaymentTypeBancontact,
	"NOVALNET_POSTFINANCE":        PaymentTypePostfinance,
	"NOVALNET_POSTFINANCE_CARD":   PaymentTypePostfinanceCard,
	"NOVALNET_GUARANTEED_INVOICE": PaymentTypeGuaranteedInvoice,
	"NOVALNET_GUARANTEED_SEPA":    PaymentTypeGuaranteedDirectDebitSepa,
	"NOVALNET_INSTALMENT_SEPA":    PaymentTypeInstalmentDirectDebitSepa,
	"NOVALNET_INSTALMENT_INVOICE": PaymentTypeInstalmentInvoice,
}

var gatewayShopIDs = lo.Invert(shopPaymentTypes)

// ToGatewayType resolves a shop payment method id (case-insensitive) to the gateway type.
func ToGatewayType(shopID string) (PaymentType, bool) {
	pt, ok := shopPaymentTypes[strings.ToUpper(strings.TrimSpace(shopID))]
	return pt, ok
}

// ToShopID resolves a gateway payment type to the shop payment method id.
func ToShopID(pt PaymentType) (string, bool) {
	id, ok := gatewayShopIDs[PaymentType(strings.ToUpper(string(pt)))]
	return id, ok
}

// PaymentTypes returns every gateway type that has a shop payment method.
func PaymentTypes() []PaymentType {
	return lo.Keys(gatewayShopIDs)
}

var (
	invoiceLikeTypes = []PaymentType{
		PaymentTypeInvoice, PaymentTypeGuaranteedInvoice, PaymentTypeInstalmentInvoice,
		PaymentTypePrepayment, PaymentTypeCashPayment, PaymentTypeMultibanco,
	}
	instalmentTypes = []PaymentType{PaymentTypeInstalmentDirectDebitSepa, PaymentTypeInstalmentInvoice}
	guaranteedTypes = []PaymentType{PaymentTypeGuaranteedInvoice, PaymentTypeGuaranteedDirectDebitSepa}
	sepaTypes       = []PaymentType{
		PaymentTypeDirectDebitSepa, PaymentTypeGuaranteedDirectDebitSepa, PaymentTypeInstalmentDirectDebitSepa,
	}
	dueDateTypes = []PaymentType{
		PaymentTypeInvoice, PaymentTypePrepayment, PaymentTypeDirectDebitSepa, PaymentTypeCashPayment,
	}
	redirectTypes = []PaymentType{
		PaymentTypeIdeal, PaymentTypeOnlineTransfer, PaymentTypeGiropay, PaymentTypeEps, PaymentTypePrzelewy24,
		PaymentTypePaypal, PaymentTypeBancontact, PaymentTypePostfinance, PaymentTypePostfinanceCard,
	}
	bankTransferTypes = []PaymentType{
		PaymentTypeInvoice, PaymentTypeGuaranteedInvoice, PaymentTypeInstalmentInvoice, PaymentTypePrepayment,
	}
	creditTypes = []PaymentType{PaymentTypeInvoiceCredit, PaymentTypeCashPaymentCredit, PaymentTypeMultibancoCredit}
)

// IsInvoiceLike reports types settled by transfer after the order is placed.
// A CONFIRMED status on these means instructions were issued, not money received.
func (p PaymentType) IsInvoiceLike() bool { return lo.Contains(invoiceLikeTypes, p) }

func (p PaymentType) IsInstalment() bool { return lo.Contains(instalmentTypes, p) }

func (p PaymentType) IsGuaranteed() bool { return lo.Contains(guaranteedTypes, p) }

func (p PaymentType) IsSepa() bool { return lo.Contains(sepaTypes, p) }

// RequiresDueDate reports types that accept a configured due_date offset.
func (p PaymentType) RequiresDueDate() bool { return lo.Contains(dueDateTypes, p) }

// RequiresRedirect reports types that always send the buyer to the gateway.
func (p PaymentType) RequiresRedirect() bool { return lo.Contains(redirectTypes, p) }

// IsBankTransfer reports types whose comments carry bank-transfer instructions.
func (p PaymentType) IsBankTransfer() bool { return lo.Contains(bankTransferTypes, p) }

// IsCredit reports the CREDIT sub-types that settle invoice-like payments.
func (p PaymentType) IsCredit() bool { return lo.Contains(creditTypes, p) }

// SupportsToken reports types that can reuse or create a stored payment token.
func (p PaymentType) SupportsToken() bool {
	return p == PaymentTypeCreditCard || p.IsSepa()
}

// SupportsZeroAmountBooking reports types that can tokenize without charging.
func (p PaymentType) SupportsZeroAmountBooking() bool {
	return p == PaymentTypeCreditCard || p == PaymentTypeDirectDebitSepa
}
