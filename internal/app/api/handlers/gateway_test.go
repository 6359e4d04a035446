package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fatflowers/payport/internal/app/service/checkout"
	"github.com/fatflowers/payport/internal/app/service/notification_handler"
	"github.com/fatflowers/payport/internal/app/service/notification_log"
	"github.com/fatflowers/payport/internal/app/service/order"
	"github.com/fatflowers/payport/internal/app/service/reconcile"
	"github.com/fatflowers/payport/internal/models"
	"github.com/fatflowers/payport/internal/platform/cache"
	"github.com/fatflowers/payport/internal/platform/db/dbtest"
	"github.com/fatflowers/payport/internal/platform/gateway"
	"github.com/fatflowers/payport/pkg/config"
	"github.com/fatflowers/payport/pkg/response"
	"github.com/fatflowers/payport/pkg/types"
)

const (
	testAccessKey = "a87ff679a2f3e71d9181a67b7542122c"
	testGatewayIP = "213.95.190.5"
	testTID       = "14769800001234567"
	checkoutURL   = "https://shop.example.com/checkout"
	confirmURL    = "https://shop.example.com/confirm"
)

type detailsCaller struct{ body string }

func (c *detailsCaller) Call(context.Context, gateway.Endpoint, any) (string, error) {
	return c.body, nil
}

type busyGuard struct{}

func (busyGuard) Claim(context.Context, string) (bool, error) { return false, nil }
func (busyGuard) Release(context.Context, string)              {}

type gatewayFixture struct {
	router *gin.Engine
	store  *order.Store
	caller *detailsCaller
}

func newGatewayFixture(t *testing.T, guard cache.DeliveryGuard) *gatewayFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := dbtest.New(t)
	log := zap.NewNop().Sugar()
	cfg := &config.Config{
		Gateway: config.GatewayConfig{AccessKey: testAccessKey, Lang: "EN"},
		Webhook: config.WebhookConfig{AllowedIPs: []string{testGatewayIP}},
		Shop:    config.ShopConfig{CheckoutURL: checkoutURL, ConfirmURL: confirmURL},
	}
	store := order.NewStore(db, log)
	logs := notification_log.New(db, log)
	engine := reconcile.NewEngine(cfg, log)
	caller := &detailsCaller{}
	h := notification_handler.NewNotificationHandler(cfg, store, engine, logs, guard, nil, nil, log)
	svc := checkout.NewService(cfg, store, caller, engine, logs, nil, log)

	r := gin.New()
	require.NoError(t, r.SetTrustedProxies(nil))
	RegisterGatewayRoutes(r.Group("/api/v1/gateway"), h, svc, cfg.Shop, log)
	return &gatewayFixture{router: r, store: store, caller: caller}
}

func (f *gatewayFixture) createOrder(t *testing.T) *models.Order {
	t.Helper()
	o := &models.Order{OrderNo: "10001", CustomerNo: "C1", Currency: "EUR", GrossAmount: decimal.NewFromInt(100)}
	require.NoError(t, f.store.Create(context.Background(), o))
	return o
}

func fromGateway(r *http.Request) { r.RemoteAddr = testGatewayIP + ":443" }

func signedPayment(orderNo string) []byte {
	checksum := gateway.WebhookChecksum(testTID, string(gateway.EventPayment), "SUCCESS", "10000", "EUR", testAccessKey)
	return []byte(fmt.Sprintf(`{"event":{"type":"PAYMENT","tid":%s,"checksum":"%s"},"merchant":{"vendor":4,"project":6},`+
		`"result":{"status":"SUCCESS"},"transaction":{"tid":%s,"payment_type":"INVOICE","status":"PENDING","amount":10000,"currency":"EUR","order_no":"%s"}}`,
		testTID, checksum, testTID, orderNo))
}

func TestGatewayWebhook_NotJSON(t *testing.T) {
	f := newGatewayFixture(t, nil)
	w, env := perform(t, f.router, http.MethodPost, "/api/v1/gateway/webhook", []byte("tid=1&status=100"), fromGateway)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, response.APIResponseCodeBadRequest, env.Code)
	require.Contains(t, string(env.Data), notification_handler.ErrNotJSON.Error())
}

func TestGatewayWebhook_UnknownSource(t *testing.T) {
	f := newGatewayFixture(t, nil)
	w, env := perform(t, f.router, http.MethodPost, "/api/v1/gateway/webhook", signedPayment("10001"), func(r *http.Request) {
		r.RemoteAddr = "198.51.100.7:443"
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, response.APIResponseCodeRejected, env.Code)
	require.Contains(t, string(env.Data), "unauthorised access from the IP 198.51.100.7")
}

func TestGatewayWebhook_ForwardedForIgnored(t *testing.T) {
	f := newGatewayFixture(t, nil)
	w, env := perform(t, f.router, http.MethodPost, "/api/v1/gateway/webhook", signedPayment("99999"), func(r *http.Request) {
		r.RemoteAddr = "198.51.100.7:1234"
		r.Header.Set("X-Forwarded-For", testGatewayIP)
		r.Header.Set("X-Real-IP", testGatewayIP)
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, response.APIResponseCodeRejected, env.Code)
	require.Contains(t, string(env.Data), "unauthorised access from the IP 198.51.100.7")
}

func TestGatewayWebhook_OrderNotFound(t *testing.T) {
	f := newGatewayFixture(t, nil)
	w, env := perform(t, f.router, http.MethodPost, "/api/v1/gateway/webhook", signedPayment("99999"), fromGateway)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, response.APIResponseCodeRejected, env.Code)
	require.JSONEq(t, fmt.Sprintf(`{"message":%q}`, reconcile.MsgOrderNotFound), string(env.Data))
}

func TestGatewayWebhook_DeliveryInFlight(t *testing.T) {
	f := newGatewayFixture(t, busyGuard{})
	w, env := perform(t, f.router, http.MethodPost, "/api/v1/gateway/webhook", signedPayment("10001"), fromGateway)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.Equal(t, response.APIResponseCodeError, env.Code)
}

func TestGatewayReturn_MissingOrder(t *testing.T) {
	f := newGatewayFixture(t, nil)
	w, _ := perform(t, f.router, http.MethodGet, "/api/v1/gateway/return?tid="+testTID, nil)
	require.Equal(t, http.StatusFound, w.Code)

	u, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "payment", u.Query().Get("stage"))
	require.Equal(t, checkout.MsgTechnicalError, u.Query().Get("paymentError"))
}

func TestGatewayReturn_BuyerCancelled(t *testing.T) {
	f := newGatewayFixture(t, nil)
	o := f.createOrder(t)

	q := url.Values{"orderNo": {o.OrderNo}, "orderToken": {o.Token}, "status": {"FAILURE"}, "status_text": {"Cancelled by the buyer"}}
	w, _ := perform(t, f.router, http.MethodGet, "/api/v1/gateway/return?"+q.Encode(), nil)
	require.Equal(t, http.StatusFound, w.Code)

	u, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "shop.example.com", u.Host)
	require.Equal(t, "/checkout", u.Path)
	require.Equal(t, "Cancelled by the buyer", u.Query().Get("paymentError"))

	got, err := f.store.Get(context.Background(), o.OrderNo, "")
	require.NoError(t, err)
	require.Equal(t, types.OrderStatusFailed, got.Status)
}

func TestGatewayReturn_Success(t *testing.T) {
	f := newGatewayFixture(t, nil)
	o := f.createOrder(t)
	f.caller.body = fmt.Sprintf(`{"result":{"status":"SUCCESS","status_code":100,"status_text":"Successful"},`+
		`"transaction":{"tid":%s,"status":"CONFIRMED","payment_type":"PAYPAL","amount":10000,"currency":"EUR","order_no":"%s"}}`,
		testTID, o.OrderNo)

	const secret = "3a7bd3e2360a3d29eea436fcfb7e44c7"
	q := url.Values{
		"tid":        {testTID},
		"orderNo":    {o.OrderNo},
		"orderToken": {o.Token},
		"status":     {"SUCCESS"},
		"txn_secret": {secret},
		"checksum":   {gateway.RedirectChecksum(testTID, secret, "SUCCESS", testAccessKey)},
	}
	w, _ := perform(t, f.router, http.MethodGet, "/api/v1/gateway/return?"+q.Encode(), nil)
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, confirmURL+"?orderNo="+o.OrderNo, w.Header().Get("Location"))

	got, err := f.store.Get(context.Background(), o.OrderNo, "")
	require.NoError(t, err)
	require.Equal(t, testTID, got.Payment.TID)
	require.Equal(t, types.PaymentStatusPaid, got.PaymentStatus)
}
