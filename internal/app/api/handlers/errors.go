package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fatflowers/payport/internal/app/service/checkout"
	"github.com/fatflowers/payport/internal/app/service/order"
	"github.com/fatflowers/payport/internal/app/service/transaction"
	"github.com/fatflowers/payport/internal/platform/gateway"
	"github.com/fatflowers/payport/pkg/response"
)

// errorCode maps a service error to the envelope code.
func errorCode(err error) response.APIResponseCode {
	switch {
	case errors.Is(err, order.ErrOrderNotFound):
		return response.APIResponseCodeNotFound
	case checkout.IsCheckoutError(err),
		errors.Is(err, transaction.ErrActionNotAllowed),
		errors.Is(err, transaction.ErrInvalidAmount),
		errors.Is(err, transaction.ErrCredentialsMissing):
		return response.APIResponseCodeRejected
	case errors.Is(err, gateway.ErrTransport), errors.Is(err, gateway.ErrMalformedResponse):
		return response.APIResponseCodeGateway
	default:
		return response.APIResponseCodeError
	}
}

func writeError(c *gin.Context, err error) {
	c.JSON(http.StatusOK, response.ErrorT[any](errorCode(err), err.Error()))
}

func writeBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
}
