package gateway

import "strings"

// DefaultBaseURL is the production API root.
const DefaultBaseURL = "https://payport.novalnet.de/v2"

// Endpoint is a path under the API root.
type Endpoint string

const (
	EndpointPayment            Endpoint = "payment"
	EndpointAuthorize          Endpoint = "authorize"
	EndpointTransactionCapture Endpoint = "transaction/capture"
	EndpointTransactionCancel  Endpoint = "transaction/cancel"
	EndpointTransactionRefund  Endpoint = "transaction/refund"
	EndpointTransactionDetails Endpoint = "transaction/details"
	EndpointInstalmentCancel   Endpoint = "instalment/cancel"
	EndpointMerchantDetails    Endpoint = "merchant/details"
	EndpointSeamlessPayment    Endpoint = "seamless/payment"
)

// URL joins the endpoint onto base, falling back to DefaultBaseURL.
func (e Endpoint) URL(base string) string {
	if base == "" {
		base = DefaultBaseURL
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(string(e), "/")
}
