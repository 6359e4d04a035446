package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/fatflowers/payport/internal/app/service/checkout"
	"github.com/fatflowers/payport/internal/models"
	"github.com/fatflowers/payport/pkg/response"
)

type CreateOrderRequest struct {
	OrderNo        string            `json:"order_no" binding:"required"`
	CustomerNo     string            `json:"customer_no"`
	CustomerEmail  string            `json:"customer_email" binding:"required"`
	Gender         string            `json:"gender"`
	BirthDate      string            `json:"birth_date"`
	Currency       string            `json:"currency" binding:"required"`
	GrossAmount    decimal.Decimal   `json:"gross_amount"`
	TaxAmount      decimal.Decimal   `json:"tax_amount"`
	ShippingAmount decimal.Decimal   `json:"shipping_amount"`
	Billing        *models.Address   `json:"billing"`
	Shipping       *models.Address   `json:"shipping"`
	LineItems      []models.LineItem `json:"line_items"`
	Lang           string            `json:"lang"`
}

type CreateOrderResponse struct {
	OrderNo    string `json:"order_no"`
	OrderToken string `json:"order_token"`
}

func (r *CreateOrderRequest) toOrder(clientIP string) *models.Order {
	return &models.Order{
		OrderNo:        r.OrderNo,
		CustomerNo:     r.CustomerNo,
		CustomerEmail:  r.CustomerEmail,
		CustomerIP:     clientIP,
		Gender:         r.Gender,
		BirthDate:      r.BirthDate,
		Currency:       r.Currency,
		GrossAmount:    r.GrossAmount,
		TaxAmount:      r.TaxAmount,
		ShippingAmount: r.ShippingAmount,
		Billing:        datatypes.NewJSONType(r.Billing),
		Shipping:       datatypes.NewJSONType(lo.CoalesceOrEmpty(r.Shipping, r.Billing)),
		LineItems:      datatypes.NewJSONType(r.LineItems),
		Lang:           r.Lang,
	}
}

// @Summary      Create Order
// @Description  Registers a shop order for payment and returns the token that guards it.
// @Tags         Checkout
// @Accept       json
// @Produce      json
// @Param        request body CreateOrderRequest true "Order"
// @Success      200  {object}  handlers.RespCreateOrder
// @Router       /api/v1/checkout/orders [post]
func ApiCreateOrder(svc *checkout.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeBadRequest(c, err)
			return
		}
		o := req.toOrder(c.ClientIP())
		if err := svc.CreateOrder(c.Request.Context(), o); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(&CreateOrderResponse{OrderNo: o.OrderNo, OrderToken: o.Token}))
	}
}

// @Summary      Authorize Payment
// @Description  Builds the payment request for the selected method and sends it to the gateway.
// @Description  Redirect methods answer with redirect_url; a declined payment answers code 42200.
// @Tags         Checkout
// @Accept       json
// @Produce      json
// @Param        request body checkout.AuthorizeRequest true "Order and payment selection"
// @Success      200  {object}  handlers.RespAuthorize
// @Router       /api/v1/checkout/authorize [post]
func ApiAuthorize(svc *checkout.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req checkout.AuthorizeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeBadRequest(c, err)
			return
		}
		res, err := svc.Authorize(c.Request.Context(), &req)
		if err != nil {
			writeError(c, err)
			return
		}
		if res.Failed() {
			c.JSON(http.StatusOK, response.ErrorT(response.APIResponseCodeRejected, res))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Saved Payment Data
// @Description  Lists up to three stored instruments of a customer for one payment method.
// @Tags         Checkout
// @Produce      json
// @Param        customer_no  query  string  true  "Customer number"
// @Param        method_id    query  string  true  "Shop payment method id"
// @Success      200  {object}  handlers.RespSavedPayments
// @Router       /api/v1/checkout/saved_payments [get]
func ApiSavedPayments(svc *checkout.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			CustomerNo string `form:"customer_no" binding:"required"`
			MethodID   string `form:"method_id" binding:"required"`
		}
		if err := c.ShouldBindQuery(&req); err != nil {
			writeBadRequest(c, err)
			return
		}
		res, err := svc.SavedPaymentDetails(c.Request.Context(), req.CustomerNo, req.MethodID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(lo.Ternary(res == nil, []*checkout.SavedPayment{}, res)))
	}
}

// @Summary      Remove Saved Payment Data
// @Description  Forgets the stored payment token of one of the customer's orders.
// @Tags         Checkout
// @Produce      json
// @Param        orderNo     path   string  true  "Order number"
// @Param        orderToken  query  string  true  "Order token"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/checkout/orders/{orderNo}/payment_token [delete]
func ApiRemovePaymentToken(svc *checkout.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("orderToken")
		if token == "" {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "missing orderToken"))
			return
		}
		if err := svc.RemovePaymentToken(c.Request.Context(), c.Param("orderNo"), token); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT[any](nil))
	}
}

func RegisterCheckoutRoutes(r gin.IRouter, svc *checkout.Service) {
	r.POST("/orders", ApiCreateOrder(svc))
	r.POST("/authorize", ApiAuthorize(svc))
	r.GET("/saved_payments", ApiSavedPayments(svc))
	r.DELETE("/orders/:orderNo/payment_token", ApiRemovePaymentToken(svc))
}
