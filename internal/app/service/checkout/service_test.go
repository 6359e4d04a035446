package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/fatflowers/payport/internal/app/service/notification_log"
	"github.com/fatflowers/payport/internal/app/service/order"
	"github.com/fatflowers/payport/internal/app/service/reconcile"
	"github.com/fatflowers/payport/internal/models"
	"github.com/fatflowers/payport/internal/platform/db/dbtest"
	"github.com/fatflowers/payport/internal/platform/gateway"
	"github.com/fatflowers/payport/pkg/types"
)

type call struct {
	endpoint gateway.Endpoint
	payload  any
}

// stubCaller answers each endpoint with a canned body or error.
type stubCaller struct {
	mu      sync.Mutex
	replies map[gateway.Endpoint]string
	errs    map[gateway.Endpoint]error
	calls   []call
}

func newStubCaller() *stubCaller {
	return &stubCaller{replies: map[gateway.Endpoint]string{}, errs: map[gateway.Endpoint]error{}}
}

func (c *stubCaller) Call(_ context.Context, endpoint gateway.Endpoint, payload any) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, call{endpoint: endpoint, payload: payload})
	if err := c.errs[endpoint]; err != nil {
		return "", err
	}
	raw, ok := c.replies[endpoint]
	if !ok {
		return "", &gateway.TransportError{Endpoint: endpoint, Message: "no stub reply"}
	}
	return raw, nil
}

func (c *stubCaller) endpoints() []gateway.Endpoint {
	c.mu.Lock()
	defer c.mu.Unlock()
	return lo.Map(c.calls, func(c call, _ int) gateway.Endpoint { return c.endpoint })
}

type fixture struct {
	svc    *Service
	store  *order.Store
	caller *stubCaller
	logs   *notification_log.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.New(t)
	log := zap.NewNop().Sugar()
	cfg := testConfig()
	store := order.NewStore(db, log)
	caller := newStubCaller()
	logs := notification_log.New(db, log)
	engine := reconcile.NewEngine(cfg, log)
	svc := NewService(cfg, store, caller, engine, logs, nil, log, WithClock(func() time.Time { return buildTime }))
	return &fixture{svc: svc, store: store, caller: caller, logs: logs}
}

func (f *fixture) createOrder(t *testing.T) *models.Order {
	t.Helper()
	o := testOrder()
	require.NoError(t, f.svc.CreateOrder(context.Background(), o))
	require.NotEmpty(t, o.Token)
	return o
}

func (f *fixture) reload(t *testing.T, o *models.Order) *models.Order {
	t.Helper()
	got, err := f.store.Get(context.Background(), o.OrderNo, "")
	require.NoError(t, err)
	return got
}

const paymentTID = "14769800001234567"

func successBody(status gateway.TransactionStatus, pt gateway.PaymentType) string {
	return fmt.Sprintf(`{"result":{"status":"SUCCESS","status_code":100,"status_text":"Successful"},`+
		`"transaction":{"tid":%s,"status":"%s","payment_type":"%s","amount":10001,"currency":"EUR","order_no":"10001","test_mode":1}}`,
		paymentTID, status, pt)
}

func TestAuthorize_OnHoldInvoice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.createOrder(t)
	f.caller.replies[gateway.EndpointAuthorize] = successBody(gateway.TransactionStatusOnHold, gateway.PaymentTypeInvoice)

	res, err := f.svc.Authorize(ctx, &AuthorizeRequest{OrderNo: o.OrderNo, OrderToken: o.Token, Selection: Selection{MethodID: "NOVALNET_INVOICE"}})
	require.NoError(t, err)
	require.False(t, res.Failed())
	require.Empty(t, res.RedirectURL)
	require.Equal(t, paymentTID, res.TID)
	require.Equal(t, gateway.TransactionStatusOnHold, res.Status)
	require.Equal(t, []gateway.Endpoint{gateway.EndpointAuthorize}, f.caller.endpoints())

	got := f.reload(t, o)
	require.Equal(t, types.OrderStatusOpen, got.Status)
	require.Equal(t, types.ConfirmationStatusNotConfirmed, got.ConfirmationStatus)
	require.Equal(t, "NOVALNET_INVOICE", got.Payment.ShopMethodID)
	require.Equal(t, int64(10001), got.Payment.OrderAmount)
	require.Zero(t, got.Payment.PaidAmount)

	f.logs.Flush()
	entries, err := f.logs.List(ctx, o.OrderNo)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, models.PaymentNotificationSourceAuthorize, entries[0].Source)
	require.Equal(t, paymentTID, entries[0].TransactionID)

	_, err = f.svc.Authorize(ctx, &AuthorizeRequest{OrderNo: o.OrderNo, OrderToken: o.Token, Selection: Selection{MethodID: "NOVALNET_INVOICE"}})
	require.True(t, errors.Is(err, ErrBusinessRuleViolation))
	require.Len(t, f.caller.endpoints(), 1)
}

func TestAuthorize_Rejected(t *testing.T) {
	f := newFixture(t)
	o := f.createOrder(t)
	f.caller.replies[gateway.EndpointPayment] = `{"result":{"status":"FAILURE","status_code":7,"status_text":"Card declined"},` +
		`"transaction":{"status":"FAILURE","payment_type":"CREDITCARD","order_no":"10001"}}`

	res, err := f.svc.Authorize(context.Background(), &AuthorizeRequest{
		OrderNo: o.OrderNo, OrderToken: o.Token,
		Selection: Selection{MethodID: "NOVALNET_CREDITCARD", PanHash: "ph", UniqueID: "u1"},
	})
	require.NoError(t, err)
	require.True(t, res.Failed())
	require.Equal(t, "Card declined", res.Error)

	got := f.reload(t, o)
	require.Equal(t, types.OrderStatusFailed, got.Status)
	require.Equal(t, gateway.TransactionStatusFailure, got.Payment.Status)
	require.Contains(t, got.Payment.Comment, "Card declined")
}

func TestAuthorize_TransportErrorFailsOrder(t *testing.T) {
	f := newFixture(t)
	o := f.createOrder(t)
	f.caller.errs[gateway.EndpointPayment] = &gateway.TransportError{Endpoint: gateway.EndpointPayment, StatusCode: 502, Message: "bad gateway"}

	_, err := f.svc.Authorize(context.Background(), &AuthorizeRequest{
		OrderNo: o.OrderNo, OrderToken: o.Token, Selection: Selection{MethodID: "NOVALNET_PREPAYMENT"},
	})
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrConfigurationMissing), "prepayment is not configured")

	_, err = f.svc.Authorize(context.Background(), &AuthorizeRequest{
		OrderNo: o.OrderNo, OrderToken: o.Token, Selection: Selection{MethodID: "NOVALNET_SEPA", IBAN: "DE89370400440532013000"},
	})
	require.True(t, errors.Is(err, gateway.ErrTransport))

	got := f.reload(t, o)
	require.Equal(t, types.OrderStatusFailed, got.Status)
	require.Contains(t, got.Payment.Comment, MsgTechnicalError)
}

func TestAuthorize_WrongToken(t *testing.T) {
	f := newFixture(t)
	o := f.createOrder(t)
	_, err := f.svc.Authorize(context.Background(), &AuthorizeRequest{
		OrderNo: o.OrderNo, OrderToken: "forged", Selection: Selection{MethodID: "NOVALNET_INVOICE"},
	})
	require.True(t, errors.Is(err, order.ErrOrderNotFound))
	require.Empty(t, f.caller.endpoints())
}

const redirectSecret = "4a52b5c1b5e0d8f2c07d5d0dd3b1f4a9"

// startRedirect authorizes a PayPal payment and leaves the order waiting for the return.
func startRedirect(t *testing.T, f *fixture) *models.Order {
	t.Helper()
	o := f.createOrder(t)
	f.caller.replies[gateway.EndpointPayment] = `{"result":{"status":"SUCCESS","status_code":100,"redirect_url":"https://pay.example.com/redirect/abc"},` +
		`"transaction":{"txn_secret":"` + redirectSecret + `"}}`

	res, err := f.svc.Authorize(context.Background(), &AuthorizeRequest{
		OrderNo: o.OrderNo, OrderToken: o.Token, Selection: Selection{MethodID: "NOVALNET_PAYPAL"},
	})
	require.NoError(t, err)
	require.Equal(t, "https://pay.example.com/redirect/abc", res.RedirectURL)
	require.Equal(t, redirectSecret, f.reload(t, o).Payment.TxnSecret)
	return o
}

func signedReturn(o *models.Order, status string) *ReturnQuery {
	return &ReturnQuery{
		TID:        paymentTID,
		OrderNo:    o.OrderNo,
		OrderToken: o.Token,
		Status:     status,
		Checksum:   gateway.RedirectChecksum(paymentTID, redirectSecret, status, testConfig().Gateway.AccessKey),
	}
}

func TestHandleReturn_Success(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := startRedirect(t, f)
	f.caller.replies[gateway.EndpointTransactionDetails] = successBody(gateway.TransactionStatusConfirmed, gateway.PaymentTypePaypal)

	res, err := f.svc.HandleReturn(ctx, signedReturn(o, "SUCCESS"))
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Empty(t, res.Message)

	got := f.reload(t, o)
	require.Equal(t, paymentTID, got.Payment.TID)
	require.Empty(t, got.Payment.TxnSecret)
	require.Equal(t, types.PaymentStatusPaid, got.PaymentStatus)
	require.Equal(t, int64(10001), got.Payment.PaidAmount)

	details := f.caller.calls[len(f.caller.calls)-1].payload.(*gateway.ActionRequest)
	require.Equal(t, paymentTID, details.Transaction.TID)

	// the secret is gone, so a replay cannot be verified and leaves the order alone
	res, err = f.svc.HandleReturn(ctx, signedReturn(o, "SUCCESS"))
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Equal(t, MsgHashCheckFailed, res.Message)
	require.Equal(t, types.PaymentStatusPaid, f.reload(t, o).PaymentStatus)
}

func TestHandleReturn_TamperedChecksum(t *testing.T) {
	f := newFixture(t)
	o := startRedirect(t, f)
	f.caller.replies[gateway.EndpointTransactionDetails] = successBody(gateway.TransactionStatusConfirmed, gateway.PaymentTypePaypal)

	q := signedReturn(o, "SUCCESS")
	q.TID = "14769800001234599"
	res, err := f.svc.HandleReturn(context.Background(), q)
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Equal(t, MsgHashCheckFailed, res.Message)
	require.NotContains(t, f.caller.endpoints(), gateway.EndpointTransactionDetails)

	got := f.reload(t, o)
	require.Equal(t, types.OrderStatusFailed, got.Status)
	require.Empty(t, got.Payment.TID)
	require.Empty(t, got.Payment.TxnSecret)
	require.Contains(t, got.Payment.Comment, MsgHashCheckFailed)
}

func TestHandleReturn_WithoutTID(t *testing.T) {
	f := newFixture(t)
	o := startRedirect(t, f)

	res, err := f.svc.HandleReturn(context.Background(), &ReturnQuery{
		OrderNo: o.OrderNo, OrderToken: o.Token, Status: "FAILURE", StatusText: "Cancelled by the buyer",
	})
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Equal(t, "Cancelled by the buyer", res.Message)
	require.Equal(t, types.OrderStatusFailed, f.reload(t, o).Status)
}

func TestHandleReturn_DetailsUnavailable(t *testing.T) {
	f := newFixture(t)
	o := startRedirect(t, f)
	f.caller.errs[gateway.EndpointTransactionDetails] = &gateway.TransportError{Endpoint: gateway.EndpointTransactionDetails, Message: "timeout"}

	res, err := f.svc.HandleReturn(context.Background(), signedReturn(o, "SUCCESS"))
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Equal(t, MsgTechnicalError, res.Message)

	got := f.reload(t, o)
	require.NotEqual(t, types.OrderStatusFailed, got.Status)
	require.Empty(t, got.Payment.TxnSecret)
}

func TestHandleReturn_FailureDetails(t *testing.T) {
	f := newFixture(t)
	o := startRedirect(t, f)
	f.caller.replies[gateway.EndpointTransactionDetails] = `{"result":{"status":"FAILURE","status_code":0,"status_text":"Payment aborted"},` +
		`"transaction":{"tid":` + paymentTID + `,"status":"FAILURE","payment_type":"PAYPAL","amount":10001,"currency":"EUR","order_no":"10001"}}`

	res, err := f.svc.HandleReturn(context.Background(), signedReturn(o, "FAILURE"))
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Equal(t, "Payment aborted", res.Message)

	got := f.reload(t, o)
	require.Equal(t, types.OrderStatusFailed, got.Status)
	require.Equal(t, paymentTID, got.Payment.TID)
}

func storeCard(t *testing.T, f *fixture, orderNo, token, number string) {
	t.Helper()
	o := testOrder()
	o.OrderNo = orderNo
	require.NoError(t, f.svc.CreateOrder(context.Background(), o))
	resp, err := gateway.Normalize(`{"result":{"status":"SUCCESS"},"transaction":{"tid":` + paymentTID + `,"status":"CONFIRMED",` +
		`"payment_type":"CREDITCARD","payment_data":{"token":"` + token + `","card_brand":"VISA","card_number":"` + number + `",` +
		`"card_expiry_month":3,"card_expiry_year":2029}}}`)
	require.NoError(t, err)
	_, err = f.store.Mutate(context.Background(), orderNo, "", func(o *models.Order) (bool, error) {
		p := o.EnsurePayment()
		p.TID = paymentTID
		p.Status = gateway.TransactionStatusConfirmed
		p.PaymentMethod = gateway.PaymentTypeCreditCard
		p.PaymentToken = token
		p.MergeResponse(resp)
		return true, nil
	})
	require.NoError(t, err)
}

func TestSavedPaymentDetails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	storeCard(t, f, "20001", "tok-a", "4200********1111")
	storeCard(t, f, "20002", "tok-b", "4200********1111")
	storeCard(t, f, "20003", "tok-c", "5500********4444")

	saved, err := f.svc.SavedPaymentDetails(ctx, "C-42", "NOVALNET_CREDITCARD")
	require.NoError(t, err)
	require.Len(t, saved, 2)
	labels := lo.Map(saved, func(s *SavedPayment, _ int) string { return s.Label })
	require.ElementsMatch(t, []string{"VISA ending in 1111 (expires 03/29)", "VISA ending in 4444 (expires 03/29)"}, labels)

	none, err := f.svc.SavedPaymentDetails(ctx, "C-42", "NOVALNET_INVOICE")
	require.NoError(t, err)
	require.Empty(t, none)

	_, err = f.svc.SavedPaymentDetails(ctx, "C-42", "NOVALNET_BITCOIN")
	require.True(t, errors.Is(err, ErrUnsupportedPaymentType))

	o, err := f.store.Get(ctx, "20003", "")
	require.NoError(t, err)
	require.NoError(t, f.svc.RemovePaymentToken(ctx, "20003", o.Token))
	notes, err := f.store.Notes(ctx, o.ID)
	require.NoError(t, err)
	require.Equal(t, "Stored payment data removed", notes[len(notes)-1].Text)

	saved, err = f.svc.SavedPaymentDetails(ctx, "C-42", "NOVALNET_CREDITCARD")
	require.NoError(t, err)
	require.Len(t, saved, 1)
	require.Equal(t, "VISA ending in 1111 (expires 03/29)", saved[0].Label)
}

func TestCreateOrder_Validation(t *testing.T) {
	f := newFixture(t)
	o := testOrder()
	o.Billing = datatypes.NewJSONType[*models.Address](nil)
	require.True(t, errors.Is(f.svc.CreateOrder(context.Background(), o), ErrBusinessRuleViolation))

	o = testOrder()
	o.GrossAmount = o.GrossAmount.Neg()
	require.True(t, errors.Is(f.svc.CreateOrder(context.Background(), o), ErrBusinessRuleViolation))
	require.True(t, IsCheckoutError(ErrBusinessRuleViolation))
	require.False(t, IsCheckoutError(order.ErrOrderNotFound))
}
