package handlers

import (
	"github.com/fatflowers/payport/internal/app/service/checkout"
	"github.com/fatflowers/payport/internal/app/service/order"
	"github.com/fatflowers/payport/internal/app/service/statistics"
	"github.com/fatflowers/payport/internal/app/service/transaction"
	"github.com/fatflowers/payport/pkg/response"
)

// RespOK is a generic OK envelope for endpoints returning no specific data.
type RespOK struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    interface{}              `json:"data"`
}

// RespMessage is the webhook answer.
type RespMessage struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    response.MessageData     `json:"data"`
}

type RespCreateOrder struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    CreateOrderResponse      `json:"data"`
}

type RespAuthorize struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    checkout.AuthorizeResult `json:"data"`
}

type RespSavedPayments struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    []checkout.SavedPayment  `json:"data"`
}

// RespListOrders wraps order.ScanOrdersResponse in the standard envelope.
type RespListOrders struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    order.ScanOrdersResponse `json:"data"`
}

type RespTransactionView struct {
	Code    response.APIResponseCode    `json:"code"`
	Message string                      `json:"message"`
	Data    transaction.TransactionView `json:"data"`
}

type RespActionResult struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    transaction.ActionResult `json:"data"`
}

type RespMerchantDetails struct {
	Code    response.APIResponseCode          `json:"code"`
	Message string                            `json:"message"`
	Data    transaction.MerchantDetailsResult `json:"data"`
}

// RespPaymentStatistic wraps PaymentStatisticResponse in the standard envelope.
type RespPaymentStatistic struct {
	Code    response.APIResponseCode            `json:"code"`
	Message string                              `json:"message"`
	Data    statistics.PaymentStatisticResponse `json:"data"`
}
