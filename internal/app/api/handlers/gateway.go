package handlers

import (
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fatflowers/payport/internal/app/service/checkout"
	"github.com/fatflowers/payport/internal/app/service/notification_handler"
	"github.com/fatflowers/payport/internal/models"
	"github.com/fatflowers/payport/pkg/config"
	"github.com/fatflowers/payport/pkg/logctx"
	"github.com/fatflowers/payport/pkg/response"
)

const maxWebhookBody = 1 << 20

// @Summary      Gateway Webhook
// @Description  Receives asynchronous transaction events. Processed and rejected events are
// @Description  answered with 200; non-JSON bodies with 400; deliveries that should be
// @Description  retried with 5xx.
// @Tags         Gateway
// @Accept       json
// @Produce      json
// @Success      200  {object}  handlers.RespMessage
// @Failure      400  {object}  handlers.RespMessage
// @Failure      503  {object}  handlers.RespMessage
// @Router       /api/v1/gateway/webhook [post]
func ApiGatewayWebhook(h *notification_handler.NotificationHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
		if err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorT(response.APIResponseCodeBadRequest, response.MessageData{Message: err.Error()}))
			return
		}

		res, err := h.Handle(c.Request.Context(), &notification_handler.Delivery{Body: body, RemoteIP: c.ClientIP()})
		data := response.MessageData{Message: res.Message}
		switch {
		case errors.Is(err, notification_handler.ErrNotJSON):
			c.JSON(http.StatusBadRequest, response.ErrorT(response.APIResponseCodeBadRequest, data))
		case errors.Is(err, notification_handler.ErrDeliveryInFlight):
			c.JSON(http.StatusServiceUnavailable, response.ErrorT(response.APIResponseCodeError, data))
		case err != nil:
			logctx.FromGin(c, h.Logger).Errorw("webhook processing failed", "order_no", res.OrderNo, "err", err)
			c.JSON(http.StatusInternalServerError, response.ErrorT(response.APIResponseCodeError, data))
		case res.Status == models.PaymentNotificationLogStatusHandled:
			c.JSON(http.StatusOK, response.OKT(data))
		default:
			c.JSON(http.StatusOK, response.ErrorT(response.APIResponseCodeRejected, data))
		}
	}
}

// @Summary      Gateway Return
// @Description  Landing point of the buyer after a redirect payment. Redirects to the order
// @Description  confirmation on success and back to the payment step otherwise.
// @Tags         Gateway
// @Param        tid           query  string  false  "Transaction id"
// @Param        orderNo       query  string  true   "Order number"
// @Param        orderToken    query  string  true   "Order token"
// @Param        status        query  string  false  "Transaction status"
// @Param        status_text   query  string  false  "Status text"
// @Param        checksum      query  string  false  "Redirect checksum"
// @Param        txn_secret    query  string  false  "Transaction secret"
// @Success      302  {string}  string  "redirect"
// @Router       /api/v1/gateway/return [get]
func ApiGatewayReturn(svc *checkout.Service, shop config.ShopConfig, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q checkout.ReturnQuery
		if err := c.ShouldBindQuery(&q); err != nil || q.OrderNo == "" {
			c.Redirect(http.StatusFound, withQuery(shop.CheckoutURL, "stage", "payment", "paymentError", checkout.MsgTechnicalError))
			return
		}
		res, err := svc.HandleReturn(c.Request.Context(), &q)
		if err != nil {
			logctx.FromGin(c, log).Errorw("payment return failed", "order_no", q.OrderNo, "err", err)
			c.Redirect(http.StatusFound, withQuery(shop.CheckoutURL, "stage", "payment", "paymentError", checkout.MsgTechnicalError))
			return
		}
		if !res.Success {
			c.Redirect(http.StatusFound, withQuery(shop.CheckoutURL, "stage", "payment", "paymentError", res.Message))
			return
		}
		c.Redirect(http.StatusFound, withQuery(shop.ConfirmURL, "orderNo", res.OrderNo))
	}
}

// withQuery adds key/value pairs to the query of base.
func withQuery(base string, kv ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	q := u.Query()
	for i := 0; i+1 < len(kv); i += 2 {
		q.Set(kv[i], kv[i+1])
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func RegisterGatewayRoutes(r gin.IRouter, h *notification_handler.NotificationHandler, svc *checkout.Service, shop config.ShopConfig, log *zap.SugaredLogger) {
	r.POST("/webhook", ApiGatewayWebhook(h))
	r.GET("/return", ApiGatewayReturn(svc, shop, log))
}
