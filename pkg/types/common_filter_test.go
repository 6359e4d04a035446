package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCommonFilter_Valid(t *testing.T) {
	require.True(t, (&CommonFilter{Field: "status"}).Valid())
	require.True(t, (&CommonFilter{Field: "shop_order.created_at"}).Valid())
	require.False(t, (&CommonFilter{Field: "status; drop table x"}).Valid())
	require.False(t, (&CommonFilter{Field: "extra->>'a'"}).Valid())
}

func TestDateRange(t *testing.T) {
	from, to, ok := dateRange([]any{"2026-01-01", "2026-01-31"})
	require.True(t, ok)
	require.Equal(t, 1, from.Day())
	require.Equal(t, 31, to.Day())

	_, _, ok = dateRange([]any{"2026-01-01"})
	require.False(t, ok)
	_, _, ok = dateRange([]any{"2026-01-01", 5})
	require.False(t, ok)
}

func TestPaymentMethodConfig(t *testing.T) {
	m := &PaymentMethodConfig{ID: "NOVALNET_INVOICE", AllowedCountries: []string{"DE", "AT"}, PaymentAction: PaymentActionAuthorize}
	require.True(t, m.AllowsCountry("de"))
	require.False(t, m.AllowsCountry("FR"))
	require.True(t, m.IsAuthorizeOnly())

	var none *PaymentMethodConfig
	require.True(t, none.AllowsCountry("FR"))
	require.False(t, none.IsAuthorizeOnly())
}
