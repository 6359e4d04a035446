package notification_handler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fatflowers/payport/internal/app/service/notification_log"
	"github.com/fatflowers/payport/internal/app/service/order"
	"github.com/fatflowers/payport/internal/app/service/reconcile"
	"github.com/fatflowers/payport/internal/models"
	"github.com/fatflowers/payport/internal/platform/db/dbtest"
	"github.com/fatflowers/payport/internal/platform/gateway"
	"github.com/fatflowers/payport/pkg/config"
	"github.com/fatflowers/payport/pkg/types"
)

const (
	accessKey = "a87ff679a2f3e71d9181a67b7542122c"
	gatewayIP = "213.95.190.5"
	parentTID = "14769800001234567"
)

type sentMail struct{ subject, body string }

type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *recordingMailer) Notify(_ context.Context, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{subject, body})
	return nil
}

type busyGuard struct{}

func (busyGuard) Claim(context.Context, string) (bool, error) { return false, nil }
func (busyGuard) Release(context.Context, string)              {}

type fixture struct {
	h      *NotificationHandler
	store  *order.Store
	logs   *notification_log.Service
	mailer *recordingMailer
	order  *models.Order
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.New(t)
	log := zap.NewNop().Sugar()
	cfg := &config.Config{
		Gateway: config.GatewayConfig{AccessKey: accessKey},
		Webhook: config.WebhookConfig{AllowedIPs: []string{gatewayIP}},
	}
	store := order.NewStore(db, log)
	logs := notification_log.New(db, log)
	engine := reconcile.NewEngine(cfg, log, reconcile.WithClock(func() time.Time {
		return time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	}))
	mailer := &recordingMailer{}

	o := &models.Order{OrderNo: "10001", CustomerNo: "C1", Currency: "EUR", GrossAmount: decimal.NewFromInt(100)}
	require.NoError(t, store.Create(context.Background(), o))

	return &fixture{
		h:      NewNotificationHandler(cfg, store, engine, logs, nil, mailer, nil, log),
		store:  store,
		logs:   logs,
		mailer: mailer,
		order:  o,
	}
}

// recordInvoice gives the order a confirmed invoice transaction awaiting transfer.
func (f *fixture) recordInvoice(t *testing.T) {
	t.Helper()
	_, err := f.store.Mutate(context.Background(), f.order.OrderNo, "", func(o *models.Order) (bool, error) {
		p := o.EnsurePayment()
		p.TID = parentTID
		p.Status = gateway.TransactionStatusConfirmed
		p.PaymentMethod = gateway.PaymentTypeInvoice
		p.OrderAmount = 10000
		o.Status = types.OrderStatusOpen
		return true, nil
	})
	require.NoError(t, err)
}

func (f *fixture) reload(t *testing.T) *models.Order {
	t.Helper()
	o, err := f.store.Get(context.Background(), f.order.OrderNo, "")
	require.NoError(t, err)
	return o
}

type event struct {
	eventType   gateway.EventType
	eventTID    string
	parentTID   string
	paymentType gateway.PaymentType
	status      gateway.TransactionStatus
	amount      int64
	orderNo     string
	token       string
	checksum    string
}

// body renders a signed webhook payload. A preset checksum is used verbatim.
func (e event) body() []byte {
	checksum := e.checksum
	if checksum == "" {
		checksum = gateway.WebhookChecksum(e.eventTID, string(e.eventType), "SUCCESS", fmt.Sprint(e.amount), "EUR", accessKey)
	}
	parent := ""
	if e.parentTID != "" {
		parent = `,"parent_tid":` + e.parentTID
	}
	return []byte(fmt.Sprintf(`{"event":{"type":"%s","tid":%s%s,"checksum":"%s"},"merchant":{"vendor":4,"project":6},`+
		`"result":{"status":"SUCCESS"},"transaction":{"tid":%s,"payment_type":"%s","status":"%s","amount":%d,"currency":"EUR","order_no":"%s"},`+
		`"custom":{"input1":"orderToken","inputval1":"%s"}}`,
		e.eventType, e.eventTID, parent, checksum, e.eventTID, e.paymentType, e.status, e.amount, e.orderNo, e.token))
}

func (f *fixture) credit(eventTID string, amount int64) event {
	return event{
		eventType: gateway.EventCredit, eventTID: eventTID, parentTID: parentTID,
		paymentType: gateway.PaymentTypeInvoiceCredit, status: gateway.TransactionStatusConfirmed,
		amount: amount, orderNo: f.order.OrderNo, token: f.order.Token,
	}
}

func (f *fixture) deliver(t *testing.T, e event) *Result {
	t.Helper()
	res, err := f.h.Handle(context.Background(), &Delivery{Body: e.body(), RemoteIP: gatewayIP})
	require.NoError(t, err)
	return res
}

func TestHandle_CreditAccumulation(t *testing.T) {
	f := newFixture(t)
	f.recordInvoice(t)

	res := f.deliver(t, f.credit("14769800001234601", 4000))
	require.Equal(t, models.PaymentNotificationLogStatusHandled, res.Status)
	require.Contains(t, res.Message, "Credit has been successfully received for the TID: "+parentTID+" with amount 40.00 EUR")
	got := f.reload(t)
	require.Equal(t, int64(4000), got.Payment.PaidAmount)
	require.Equal(t, types.PaymentStatusNotPaid, got.PaymentStatus)

	// redelivery of the same event
	res = f.deliver(t, f.credit("14769800001234601", 4000))
	require.Equal(t, reconcile.MsgAlreadyProcessed, res.Message)
	require.Equal(t, int64(4000), f.reload(t).Payment.PaidAmount)

	f.deliver(t, f.credit("14769800001234602", 6000))
	got = f.reload(t)
	require.Equal(t, int64(10000), got.Payment.PaidAmount)
	require.Equal(t, types.PaymentStatusPaid, got.PaymentStatus)
	require.Equal(t, types.OrderStatusCompleted, got.Status)

	res = f.deliver(t, f.credit("14769800001234603", 6000))
	require.Equal(t, models.PaymentNotificationLogStatusHandled, res.Status)
	require.Equal(t, reconcile.MsgAlreadyPaid, res.Message)
	require.Equal(t, int64(10000), f.reload(t).Payment.PaidAmount)

	require.Len(t, f.mailer.sent, 2)
	require.Equal(t, "Payment webhook notification - Order No : 10001", f.mailer.sent[0].subject)

	f.logs.Flush()
	entries, err := f.logs.List(context.Background(), f.order.OrderNo)
	require.NoError(t, err)
	require.Len(t, entries, 4)
	require.Equal(t, models.PaymentNotificationSourceWebhook, entries[0].Source)
	require.Equal(t, "CREDIT", entries[0].EventType)
}

func TestHandle_BadChecksumLeavesOrderUntouched(t *testing.T) {
	f := newFixture(t)
	f.recordInvoice(t)
	before := f.reload(t)
	notesBefore, err := f.store.Notes(context.Background(), before.ID)
	require.NoError(t, err)

	e := f.credit("14769800001234601", 4000)
	e.checksum = gateway.WebhookChecksum(e.eventTID, "CREDIT", "SUCCESS", "40000", "EUR", accessKey)
	res := f.deliver(t, e)
	require.Equal(t, models.PaymentNotificationLogStatusRejected, res.Status)
	require.Contains(t, res.Message, "hash check failed")

	require.Equal(t, before, f.reload(t))
	notesAfter, err := f.store.Notes(context.Background(), before.ID)
	require.NoError(t, err)
	require.Equal(t, notesBefore, notesAfter)
	require.Empty(t, f.mailer.sent)
}

func TestHandle_SourceGate(t *testing.T) {
	f := newFixture(t)
	f.recordInvoice(t)
	body := f.credit("14769800001234601", 4000).body()

	res, err := f.h.Handle(context.Background(), &Delivery{Body: body, RemoteIP: "198.51.100.7"})
	require.NoError(t, err)
	require.Equal(t, models.PaymentNotificationLogStatusRejected, res.Status)
	require.Contains(t, res.Message, "unauthorised access from the IP 198.51.100.7")

	res, err = f.h.Handle(context.Background(), &Delivery{Body: body})
	require.NoError(t, err)
	require.Contains(t, res.Message, "received IP is empty")
	require.Zero(t, f.reload(t).Payment.PaidAmount)

	f.h.cfg.Webhook.TestMode = true
	res, err = f.h.Handle(context.Background(), &Delivery{Body: body, RemoteIP: "198.51.100.7"})
	require.NoError(t, err)
	require.Equal(t, models.PaymentNotificationLogStatusHandled, res.Status)
	require.Equal(t, int64(4000), f.reload(t).Payment.PaidAmount)
}

func TestHandle_MalformedPayloads(t *testing.T) {
	f := newFixture(t)

	res, err := f.h.Handle(context.Background(), &Delivery{Body: []byte("tid=1&status=100"), RemoteIP: gatewayIP})
	require.True(t, errors.Is(err, ErrNotJSON))
	require.Equal(t, models.PaymentNotificationLogStatusRejected, res.Status)

	res, err = f.h.Handle(context.Background(), &Delivery{
		Body:     []byte(`{"event":{"type":"CREDIT","tid":14769800001234601,"checksum":"x"},"result":{"status":"SUCCESS"},"transaction":{"tid":14769800001234601,"payment_type":"INVOICE_CREDIT","status":"CONFIRMED"}}`),
		RemoteIP: gatewayIP,
	})
	require.NoError(t, err)
	require.Contains(t, res.Message, "category(merchant) not received")

	e := f.credit("1476980000123", 4000)
	res = f.deliver(t, e)
	require.Contains(t, res.Message, "invalid TID received in the category(event)")
}

func TestHandle_OrderResolution(t *testing.T) {
	f := newFixture(t)
	f.recordInvoice(t)

	e := f.credit("14769800001234601", 4000)
	e.orderNo = "99999"
	require.Equal(t, reconcile.MsgOrderNotFound, f.deliver(t, e).Message)

	e = f.credit("14769800001234601", 4000)
	e.token = "forged"
	require.Equal(t, reconcile.MsgOrderNotFound, f.deliver(t, e).Message)

	e = f.credit("14769800001234601", 4000)
	e.parentTID = "14769800009999999"
	res := f.deliver(t, e)
	require.Equal(t, models.PaymentNotificationLogStatusRejected, res.Status)
	require.Equal(t, reconcile.MsgReferenceMismatch, res.Message)
	require.Zero(t, f.reload(t).Payment.PaidAmount)
}

func TestHandle_PaymentEventRecordsMissingTransaction(t *testing.T) {
	f := newFixture(t)
	e := event{
		eventType: gateway.EventPayment, eventTID: parentTID,
		paymentType: gateway.PaymentTypeCreditCard, status: gateway.TransactionStatusConfirmed,
		amount: 10000, orderNo: f.order.OrderNo, token: f.order.Token,
	}

	res := f.deliver(t, e)
	require.Equal(t, reconcile.MsgProcessed, res.Message)
	got := f.reload(t)
	require.Equal(t, parentTID, got.Payment.TID)
	require.Equal(t, types.PaymentStatusPaid, got.PaymentStatus)
	require.Len(t, f.mailer.sent, 1)

	res = f.deliver(t, e)
	require.Equal(t, reconcile.MsgTIDExists, res.Message)
	require.Len(t, f.mailer.sent, 1)
}

func TestHandle_DeliveryInFlight(t *testing.T) {
	f := newFixture(t)
	f.recordInvoice(t)
	f.h.guard = busyGuard{}

	res, err := f.h.Handle(context.Background(), &Delivery{Body: f.credit("14769800001234601", 4000).body(), RemoteIP: gatewayIP})
	require.True(t, errors.Is(err, ErrDeliveryInFlight))
	require.Equal(t, models.PaymentNotificationLogStatusHandleFailed, res.Status)
	require.Zero(t, f.reload(t).Payment.PaidAmount)
}
