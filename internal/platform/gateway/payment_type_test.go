package gateway

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPaymentTypeMapping_IsBijective(t *testing.T) {
	require.Len(t, PaymentTypes(), len(shopPaymentTypes))

	for _, pt := range PaymentTypes() {
		id, ok := ToShopID(pt)
		require.True(t, ok, pt)
		back, ok := ToGatewayType(id)
		require.True(t, ok, id)
		require.Equal(t, pt, back)
	}
	for id := range shopPaymentTypes {
		pt, ok := ToGatewayType(id)
		require.True(t, ok, id)
		back, ok := ToShopID(pt)
		require.True(t, ok, pt)
		require.Equal(t, id, back)
	}
}

func TestPaymentTypeMapping_Unknown(t *testing.T) {
	_, ok := ToGatewayType("NOVALNET_BITCOIN")
	require.False(t, ok)
	_, ok = ToShopID(PaymentTypeInvoiceCredit)
	require.False(t, ok)

	pt, ok := ToGatewayType(" novalnet_paypal ")
	require.True(t, ok)
	require.Equal(t, PaymentTypePaypal, pt)
}

func TestPaymentType_Classes(t *testing.T) {
	require.True(t, PaymentTypeInvoice.IsInvoiceLike())
	require.True(t, PaymentTypeMultibanco.IsInvoiceLike())
	require.False(t, PaymentTypeCreditCard.IsInvoiceLike())
	require.True(t, PaymentTypeInstalmentInvoice.IsInstalment())
	require.True(t, PaymentTypeGuaranteedDirectDebitSepa.IsSepa())
	require.True(t, PaymentTypePaypal.RequiresRedirect())
	require.False(t, PaymentTypeCreditCard.RequiresRedirect())
	require.True(t, PaymentTypeCashPaymentCredit.IsCredit())
	require.True(t, PaymentTypeDirectDebitSepa.SupportsZeroAmountBooking())
	require.False(t, PaymentTypeGuaranteedDirectDebitSepa.SupportsZeroAmountBooking())
	require.Equal(t, "2", EventPaymentReminder2.ReminderNumber())
}
