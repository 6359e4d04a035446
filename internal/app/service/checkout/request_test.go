package checkout

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/fatflowers/payport/internal/models"
	"github.com/fatflowers/payport/internal/platform/gateway"
	"github.com/fatflowers/payport/pkg/config"
	"github.com/fatflowers/payport/pkg/types"
)

var buildTime = time.Date(2026, 1, 28, 9, 0, 0, 0, time.UTC)

func testConfig() *config.Config {
	return &config.Config{
		Gateway: config.GatewayConfig{
			Signature: "sig", AccessKey: "a87ff679a2f3e71d9181a67b7542122c", Tariff: "10004", Lang: "EN",
		},
		Shop: config.ShopConfig{ReturnURL: "https://shop.example.com/api/v1/gateway/return"},
		PaymentMethods: []*types.PaymentMethodConfig{
			{ID: "NOVALNET_INVOICE", Enabled: true, TestMode: true, DueDateDays: 14, PaymentAction: types.PaymentActionAuthorize, OnholdAmount: 5000},
			{ID: "NOVALNET_CREDITCARD", Enabled: true, Enforce3D: true},
			{ID: "NOVALNET_SEPA", Enabled: true, ZeroAmountBooking: true},
			{ID: "NOVALNET_PAYPAL", Enabled: true},
			{ID: "NOVALNET_IDEAL", Enabled: false},
			{ID: "NOVALNET_GUARANTEED_INVOICE", Enabled: true, AllowedCountries: []string{"DE", "AT", "CH"}},
			{ID: "NOVALNET_INSTALMENT_INVOICE", Enabled: true, InstalmentCycles: []int{2, 3, 6}, InstalmentMinCycleAmount: 999},
		},
	}
}

func billingAddress() *models.Address {
	return &models.Address{
		FirstName: "Max", LastName: "Mustermann", Street: "Hauptstr.", HouseNo: "9",
		City: "Berlin", Zip: "10115", CountryCode: "DE", Phone: "+49 30 1234",
	}
}

func testOrder() *models.Order {
	o := &models.Order{
		OrderNo:        "10001",
		Token:          "0f6e1b2c3d4e5f60718293a4b5c6d7e8",
		CustomerNo:     "C-42",
		CustomerEmail:  "max@example.com",
		CustomerIP:     "192.0.2.10",
		Currency:       "EUR",
		GrossAmount:    decimal.RequireFromString("100.005"),
		TaxAmount:      decimal.RequireFromString("15.97"),
		ShippingAmount: decimal.RequireFromString("4.99"),
		Billing:        datatypes.NewJSONType(billingAddress()),
		Shipping:       datatypes.NewJSONType(billingAddress()),
		LineItems: datatypes.NewJSONType([]models.LineItem{
			{Name: "Roses", Price: decimal.RequireFromString("47.505"), Quantity: 2},
		}),
	}
	return o
}

func TestMinorUnits(t *testing.T) {
	require.Equal(t, int64(10001), MinorUnits(decimal.RequireFromString("100.005")))
	require.Equal(t, int64(10000), MinorUnits(decimal.RequireFromString("100.004")))
	require.Equal(t, int64(1999), MinorUnits(decimal.RequireFromString("19.99")))
	require.Equal(t, int64(-251), MinorUnits(decimal.RequireFromString("-2.505")))
}

func TestBuildPaymentRequest_SameAddress(t *testing.T) {
	req, err := BuildPaymentRequest(testOrder(), &Selection{MethodID: "NOVALNET_INVOICE"}, testConfig(), buildTime)
	require.NoError(t, err)

	b, err := json.Marshal(req.Customer.Shipping)
	require.NoError(t, err)
	require.JSONEq(t, `{"same_as_billing":1}`, string(b))
	require.Equal(t, "Hauptstr. 9", req.Customer.Billing.Street)
	require.Equal(t, "C-42", req.Customer.CustomerNo)

	require.Equal(t, gateway.PaymentTypeInvoice, req.Transaction.PaymentType)
	require.Equal(t, int64(10001), req.Transaction.Amount)
	require.Equal(t, 1, req.Transaction.TestMode)
	require.Equal(t, "2026-02-11", req.Transaction.DueDate)
	require.Empty(t, req.Transaction.ReturnURL)
	require.Nil(t, req.Transaction.PaymentData)
	require.Equal(t, &gateway.Merchant{Signature: "sig", Tariff: "10004"}, req.Merchant)
	require.Equal(t, &gateway.Custom{Lang: "EN", Input1: "orderToken", Inputval1: "0f6e1b2c3d4e5f60718293a4b5c6d7e8"}, req.Custom)
}

func TestBuildPaymentRequest_DifferentShipping(t *testing.T) {
	o := testOrder()
	ship := billingAddress()
	ship.Street = "Nebenstr."
	o.Shipping = datatypes.NewJSONType(ship)
	o.CustomerNo = ""

	req, err := BuildPaymentRequest(o, &Selection{MethodID: "NOVALNET_INVOICE"}, testConfig(), buildTime)
	require.NoError(t, err)
	require.Equal(t, 0, req.Customer.Shipping.SameAsBilling)
	require.Equal(t, "Nebenstr. 9", req.Customer.Shipping.Street)
	require.Equal(t, "max@example.com", req.Customer.Shipping.Email)
	require.Equal(t, "guest", req.Customer.CustomerNo)
}

func TestBuildPaymentRequest_Token(t *testing.T) {
	cfg := testConfig()

	req, err := BuildPaymentRequest(testOrder(), &Selection{MethodID: "NOVALNET_CREDITCARD", SavedToken: "tok-1", SavePaymentData: true, DoRedirect: true}, cfg, buildTime)
	require.NoError(t, err)
	require.Equal(t, &gateway.PaymentData{Token: "tok-1"}, req.Transaction.PaymentData)
	require.Zero(t, req.Transaction.CreateToken)
	require.Empty(t, req.Transaction.ReturnURL)

	req, err = BuildPaymentRequest(testOrder(), &Selection{MethodID: "NOVALNET_CREDITCARD", PanHash: "ph", UniqueID: "u1", SavePaymentData: true, DoRedirect: true}, cfg, buildTime)
	require.NoError(t, err)
	require.Equal(t, &gateway.PaymentData{PanHash: "ph", UniqueID: "u1", Enforce3D: 1}, req.Transaction.PaymentData)
	require.Equal(t, 1, req.Transaction.CreateToken)
	require.Equal(t, "https://shop.example.com/api/v1/gateway/return?orderNo=10001&orderToken=0f6e1b2c3d4e5f60718293a4b5c6d7e8", req.Transaction.ReturnURL)
	require.Equal(t, req.Transaction.ReturnURL, req.Transaction.ErrorReturnURL)
	require.Empty(t, req.Transaction.DueDate)
}

func TestBuildPaymentRequest_ZeroAmountBooking(t *testing.T) {
	req, err := BuildPaymentRequest(testOrder(), &Selection{MethodID: "NOVALNET_SEPA", IBAN: "DE89370400440532013000"}, testConfig(), buildTime)
	require.NoError(t, err)
	require.Zero(t, req.Transaction.Amount)
	require.Equal(t, 1, req.Transaction.CreateToken)
	require.Equal(t, &gateway.PaymentData{IBAN: "DE89370400440532013000"}, req.Transaction.PaymentData)
}

func TestBuildPaymentRequest_PaypalCart(t *testing.T) {
	req, err := BuildPaymentRequest(testOrder(), &Selection{MethodID: "novalnet_paypal"}, testConfig(), buildTime)
	require.NoError(t, err)
	require.NotEmpty(t, req.Transaction.ReturnURL)
	require.Equal(t, &gateway.CartInfo{
		LineItems:          []gateway.LineItem{{Name: "Roses", Price: 4751, Quantity: 2}},
		ItemsTaxPrice:      1597,
		ItemsShippingPrice: 499,
	}, req.CartInfo)
}

func TestBuildPaymentRequest_Instalment(t *testing.T) {
	o := testOrder()
	req, err := BuildPaymentRequest(o, &Selection{MethodID: "NOVALNET_INSTALMENT_INVOICE", BirthDate: "1980-05-17", InstalmentCycles: 6}, testConfig(), buildTime)
	require.NoError(t, err)
	require.Equal(t, &gateway.InstalmentRequest{Interval: "1m", Cycles: 6}, req.Instalment)
	require.Equal(t, "1980-05-17", req.Customer.BirthDate)

	_, err = BuildPaymentRequest(o, &Selection{MethodID: "NOVALNET_INSTALMENT_INVOICE", BirthDate: "1980-05-17", InstalmentCycles: 4}, testConfig(), buildTime)
	require.True(t, errors.Is(err, ErrBusinessRuleViolation))

	o.GrossAmount = decimal.RequireFromString("25.00")
	_, err = BuildPaymentRequest(o, &Selection{MethodID: "NOVALNET_INSTALMENT_INVOICE", BirthDate: "1980-05-17", InstalmentCycles: 3}, testConfig(), buildTime)
	require.True(t, errors.Is(err, ErrBusinessRuleViolation))
}

func TestBuildPaymentRequest_Errors(t *testing.T) {
	cfg := testConfig()
	o := testOrder()

	_, err := BuildPaymentRequest(o, &Selection{MethodID: "NOVALNET_BITCOIN"}, cfg, buildTime)
	require.True(t, errors.Is(err, ErrUnsupportedPaymentType))

	_, err = BuildPaymentRequest(o, &Selection{MethodID: "NOVALNET_IDEAL"}, cfg, buildTime)
	require.True(t, errors.Is(err, ErrUnsupportedPaymentType))

	_, err = BuildPaymentRequest(o, &Selection{MethodID: "NOVALNET_EPS"}, cfg, buildTime)
	require.True(t, errors.Is(err, ErrConfigurationMissing))

	noCreds := testConfig()
	noCreds.Gateway.Tariff = ""
	_, err = BuildPaymentRequest(o, &Selection{MethodID: "NOVALNET_INVOICE"}, noCreds, buildTime)
	require.True(t, errors.Is(err, ErrConfigurationMissing))

	// guaranteed: birth date, currency and country rules
	_, err = BuildPaymentRequest(o, &Selection{MethodID: "NOVALNET_GUARANTEED_INVOICE"}, cfg, buildTime)
	require.True(t, errors.Is(err, ErrBusinessRuleViolation))
	_, err = BuildPaymentRequest(o, &Selection{MethodID: "NOVALNET_GUARANTEED_INVOICE", BirthDate: "1980-05-17"}, cfg, buildTime)
	require.NoError(t, err)

	o.Currency = "USD"
	_, err = BuildPaymentRequest(o, &Selection{MethodID: "NOVALNET_GUARANTEED_INVOICE", BirthDate: "1980-05-17"}, cfg, buildTime)
	require.True(t, errors.Is(err, ErrBusinessRuleViolation))

	o = testOrder()
	fr := billingAddress()
	fr.CountryCode = "FR"
	o.Billing = datatypes.NewJSONType(fr)
	_, err = BuildPaymentRequest(o, &Selection{MethodID: "NOVALNET_GUARANTEED_INVOICE", BirthDate: "1980-05-17"}, cfg, buildTime)
	require.True(t, errors.Is(err, ErrBusinessRuleViolation))
}

func TestCheckEligibility_Thresholds(t *testing.T) {
	o := testOrder()
	o.GrossAmount = decimal.RequireFromString("25.00")
	sel := &Selection{BirthDate: "1980-05-17", InstalmentCycles: 2}

	guaranteeOnly := &types.PaymentMethodConfig{GuaranteeMinAmount: 5000}
	require.NoError(t, CheckEligibility(o, sel, gateway.PaymentTypeInstalmentInvoice, guaranteeOnly))
	err := CheckEligibility(o, sel, gateway.PaymentTypeGuaranteedInvoice, guaranteeOnly)
	require.True(t, errors.Is(err, ErrBusinessRuleViolation))

	instalmentOnly := &types.PaymentMethodConfig{InstalmentMinAmount: 3000}
	require.NoError(t, CheckEligibility(o, sel, gateway.PaymentTypeGuaranteedInvoice, instalmentOnly))
	err = CheckEligibility(o, sel, gateway.PaymentTypeInstalmentInvoice, instalmentOnly)
	require.True(t, errors.Is(err, ErrBusinessRuleViolation))
}

func TestCheckEligibility_NonPositiveCycles(t *testing.T) {
	o := testOrder()
	method := &types.PaymentMethodConfig{InstalmentCycles: []int{0, -1, 3}}

	for _, cycles := range []int{0, -1} {
		var err error
		require.NotPanics(t, func() {
			err = CheckEligibility(o, &Selection{BirthDate: "1980-05-17", InstalmentCycles: cycles}, gateway.PaymentTypeInstalmentInvoice, method)
		})
		require.True(t, errors.Is(err, ErrBusinessRuleViolation))
	}
	require.NoError(t, CheckEligibility(o, &Selection{BirthDate: "1980-05-17", InstalmentCycles: 3}, gateway.PaymentTypeInstalmentInvoice, method))
}

func TestSelectPaymentEndpoint(t *testing.T) {
	cfg := testConfig()
	invoice, _ := cfg.Method("NOVALNET_INVOICE")
	card, _ := cfg.Method("NOVALNET_CREDITCARD")

	require.Equal(t, gateway.EndpointAuthorize, SelectPaymentEndpoint(gateway.PaymentTypeInvoice, invoice, 5000))
	require.Equal(t, gateway.EndpointPayment, SelectPaymentEndpoint(gateway.PaymentTypeInvoice, invoice, 4999))
	require.Equal(t, gateway.EndpointPayment, SelectPaymentEndpoint(gateway.PaymentTypeCreditCard, card, 10000))
	require.Equal(t, gateway.EndpointPayment, SelectPaymentEndpoint(gateway.PaymentTypePrepayment, invoice, 10000))
}
