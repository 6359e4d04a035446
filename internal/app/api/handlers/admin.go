package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fatflowers/payport/internal/app/api/middleware"
	"github.com/fatflowers/payport/internal/app/service/checkout"
	"github.com/fatflowers/payport/internal/app/service/order"
	"github.com/fatflowers/payport/internal/app/service/statistics"
	"github.com/fatflowers/payport/internal/app/service/transaction"
	"github.com/fatflowers/payport/pkg/logctx"
	"github.com/fatflowers/payport/pkg/response"
	"github.com/fatflowers/payport/pkg/types"
)

// ListOrdersQuery is the query string of the order list. Every set field becomes an
// equality filter.
type ListOrdersQuery struct {
	From          int    `form:"from"`
	Size          int    `form:"size"`
	SortBy        string `form:"sort_by"`
	SortOrder     string `form:"sort_order"`
	Status        string `form:"status"`
	PaymentStatus string `form:"payment_status"`
	CustomerNo    string `form:"customer_no"`
}

func (q *ListOrdersQuery) toScan() *order.ScanOrdersRequest {
	req := &order.ScanOrdersRequest{From: q.From, Size: q.Size, SortBy: q.SortBy, SortOrder: q.SortOrder}
	for field, value := range map[string]string{
		"status":         q.Status,
		"payment_status": q.PaymentStatus,
		"customer_no":    q.CustomerNo,
	} {
		if value == "" {
			continue
		}
		req.Filters = append(req.Filters, &types.CommonFilter{Field: field, Operator: types.CommonFilterOperatorEq, Values: []any{value}})
	}
	return req
}

// @Summary      List Orders (Admin)
// @Description  Retrieves a paginated list of orders with their payment.
// @Tags         Admin
// @Produce      json
// @Param        from            query  int     false  "Offset"
// @Param        size            query  int     false  "Page size (max 100)"
// @Param        sort_by         query  string  false  "created_at, updated_at, order_no, gross_amount or status"
// @Param        sort_order      query  string  false  "asc or desc"
// @Param        status          query  string  false  "Order status"
// @Param        payment_status  query  string  false  "Payment status"
// @Param        customer_no     query  string  false  "Customer number"
// @Success      200  {object}  handlers.RespListOrders
// @Security     BearerAuth
// @Router       /api/v1/admin/orders [get]
func ApiListOrders(mgr transaction.TransactionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q ListOrdersQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			writeBadRequest(c, err)
			return
		}
		res, err := mgr.ScanOrders(c.Request.Context(), q.toScan())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Search Orders (Admin)
// @Description  Retrieves a paginated and filterable list of orders.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body order.ScanOrdersRequest true "Filters, pagination and sorting"
// @Success      200  {object}  handlers.RespListOrders
// @Security     BearerAuth
// @Router       /api/v1/admin/orders/search [post]
func ApiSearchOrders(mgr transaction.TransactionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req order.ScanOrdersRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeBadRequest(c, err)
			return
		}
		res, err := mgr.ScanOrders(c.Request.Context(), &req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Get Transaction (Admin)
// @Description  Order with payment, allowed actions, instalment schedule, history and gateway messages.
// @Tags         Admin
// @Produce      json
// @Param        orderNo  path  string  true  "Order number"
// @Success      200  {object}  handlers.RespTransactionView
// @Security     BearerAuth
// @Router       /api/v1/admin/orders/{orderNo} [get]
func ApiGetTransaction(mgr transaction.TransactionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := mgr.View(c.Request.Context(), c.Param("orderNo"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Capture, Cancel or Stop Instalments (Admin)
// @Description  Runs a back-office action against the gateway. A declined action answers code 42200
// @Description  with the gateway status text.
// @Tags         Admin
// @Produce      json
// @Param        orderNo  path  string  true  "Order number"
// @Success      200  {object}  handlers.RespActionResult
// @Security     BearerAuth
// @Router       /api/v1/admin/orders/{orderNo}/capture [post]
// @Router       /api/v1/admin/orders/{orderNo}/cancel [post]
// @Router       /api/v1/admin/orders/{orderNo}/instalment_cancel [post]
func ApiOrderAction(mgr transaction.TransactionManager, action transaction.Action, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderNo := c.Param("orderNo")
		auditAction(c, log, action, orderNo)
		var (
			res *transaction.ActionResult
			err error
		)
		switch action {
		case transaction.ActionCapture:
			res, err = mgr.Capture(c.Request.Context(), orderNo)
		case transaction.ActionCancel:
			res, err = mgr.Cancel(c.Request.Context(), orderNo)
		case transaction.ActionInstalmentCancel:
			res, err = mgr.CancelInstalment(c.Request.Context(), orderNo)
		default:
			err = transaction.ErrActionNotAllowed
		}
		writeActionResult(c, res, err)
	}
}

// @Summary      Refund (Admin)
// @Description  Refunds part or all of the remaining amount (minor units).
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        orderNo  path  string                     true  "Order number"
// @Param        request  body  transaction.RefundRequest  true  "Refund amount and reason"
// @Success      200  {object}  handlers.RespActionResult
// @Security     BearerAuth
// @Router       /api/v1/admin/orders/{orderNo}/refund [post]
func ApiRefund(mgr transaction.TransactionManager, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req transaction.RefundRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeBadRequest(c, err)
			return
		}
		req.OrderNo = c.Param("orderNo")
		auditAction(c, log, transaction.ActionRefund, req.OrderNo, "amount", req.Amount)
		res, err := mgr.Refund(c.Request.Context(), &req)
		writeActionResult(c, res, err)
	}
}

// @Summary      Sync Transaction (Admin)
// @Description  Fetches the transaction details from the gateway and reconciles the order.
// @Tags         Admin
// @Produce      json
// @Param        orderNo  path   string  true   "Order number"
// @Param        tid      query  string  false  "Transaction id for orders without a recorded transaction"
// @Success      200  {object}  handlers.RespActionResult
// @Security     BearerAuth
// @Router       /api/v1/admin/orders/{orderNo}/sync [post]
func ApiSyncTransaction(mgr transaction.TransactionManager, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := &transaction.SyncRequest{OrderNo: c.Param("orderNo"), TID: c.Query("tid")}
		auditAction(c, log, transaction.ActionSync, req.OrderNo)
		res, err := mgr.Sync(c.Request.Context(), req)
		writeActionResult(c, res, err)
	}
}

// @Summary      Remove Stored Payment Token (Admin)
// @Tags         Admin
// @Produce      json
// @Param        orderNo  path  string  true  "Order number"
// @Success      200  {object}  handlers.RespOK
// @Security     BearerAuth
// @Router       /api/v1/admin/orders/{orderNo}/payment_token [delete]
func ApiAdminRemovePaymentToken(svc *checkout.Service, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderNo := c.Param("orderNo")
		logctx.FromGin(c, log).Infow("payment token removal", "operator", c.GetString(middleware.OperatorKey), "order_no", orderNo)
		if err := svc.RemovePaymentToken(c.Request.Context(), orderNo, ""); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT[any](nil))
	}
}

// @Summary      Merchant Details (Admin)
// @Description  Checks a product activation key against the gateway. The configured key is used
// @Description  when none is given.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body transaction.MerchantDetailsRequest false "Signature override"
// @Success      200  {object}  handlers.RespMerchantDetails
// @Security     BearerAuth
// @Router       /api/v1/admin/merchant/details [post]
func ApiMerchantDetails(mgr transaction.TransactionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req transaction.MerchantDetailsRequest
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				writeBadRequest(c, err)
				return
			}
		}
		res, err := mgr.MerchantDetails(c.Request.Context(), &req)
		if err != nil {
			writeError(c, err)
			return
		}
		if !res.Accepted {
			c.JSON(http.StatusOK, response.ErrorT(response.APIResponseCodeRejected, res))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Payment Statistics (Admin)
// @Description  Daily order counts and gross, totals by payment method and status, settlement.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body statistics.PaymentStatisticRequest true "Statistic request parameters"
// @Success      200  {object}  handlers.RespPaymentStatistic
// @Security     BearerAuth
// @Router       /api/v1/admin/statistics [post]
func ApiPaymentStatistic(svc *statistics.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req statistics.PaymentStatisticRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeBadRequest(c, err)
			return
		}
		res, err := svc.GetPaymentStatistic(c.Request.Context(), &req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

func auditAction(c *gin.Context, log *zap.SugaredLogger, action transaction.Action, orderNo string, kv ...any) {
	args := append([]any{"operator", c.GetString(middleware.OperatorKey), "action", action, "order_no", orderNo}, kv...)
	logctx.FromGin(c, log).Infow("back office action", args...)
}

func writeActionResult(c *gin.Context, res *transaction.ActionResult, err error) {
	if err != nil {
		writeError(c, err)
		return
	}
	if !res.Accepted {
		c.JSON(http.StatusOK, response.ErrorT(response.APIResponseCodeRejected, res))
		return
	}
	c.JSON(http.StatusOK, response.OKT(res))
}

func RegisterAdminRoutes(r gin.IRouter, mgr transaction.TransactionManager, svc *checkout.Service, stats *statistics.Service, log *zap.SugaredLogger) {
	r.GET("/orders", ApiListOrders(mgr))
	r.POST("/orders/search", ApiSearchOrders(mgr))
	r.GET("/orders/:orderNo", ApiGetTransaction(mgr))
	r.POST("/orders/:orderNo/capture", ApiOrderAction(mgr, transaction.ActionCapture, log))
	r.POST("/orders/:orderNo/cancel", ApiOrderAction(mgr, transaction.ActionCancel, log))
	r.POST("/orders/:orderNo/instalment_cancel", ApiOrderAction(mgr, transaction.ActionInstalmentCancel, log))
	r.POST("/orders/:orderNo/refund", ApiRefund(mgr, log))
	r.POST("/orders/:orderNo/sync", ApiSyncTransaction(mgr, log))
	r.DELETE("/orders/:orderNo/payment_token", ApiAdminRemovePaymentToken(svc, log))
	r.POST("/merchant/details", ApiMerchantDetails(mgr))
	r.POST("/statistics", ApiPaymentStatistic(stats))
}
