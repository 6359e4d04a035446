package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ID is an opaque identifier the gateway may encode as a JSON number or string.
// It always round-trips as a string.
type ID string

func (i *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*i = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*i = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*i = ID(n.String())
	return nil
}

func (i ID) String() string { return string(i) }

// Amount is a value in minor currency units. Numeric strings are accepted on decode.
type Amount int64

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) || bytes.Equal(data, []byte(`""`)) {
		*a = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		data = []byte(s)
	}
	n, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	*a = Amount(n)
	return nil
}

func (a Amount) Int64() int64 { return int64(a) }

// Int is a small counter or flag with the same lenient decoding as Amount.
type Int int

func (i *Int) UnmarshalJSON(data []byte) error {
	var a Amount
	if err := a.UnmarshalJSON(data); err != nil {
		return err
	}
	*i = Int(a)
	return nil
}

// Merchant carries credentials on requests and vendor/project ids on webhooks.
type Merchant struct {
	Signature string `json:"signature,omitempty"`
	Tariff    string `json:"tariff,omitempty"`
	Vendor    ID     `json:"vendor,omitempty"`
	Project   ID     `json:"project,omitempty"`
}

type Address struct {
	SameAsBilling int    `json:"same_as_billing,omitempty"`
	FirstName     string `json:"first_name,omitempty"`
	LastName      string `json:"last_name,omitempty"`
	Email         string `json:"email,omitempty"`
	Street        string `json:"street,omitempty"`
	City          string `json:"city,omitempty"`
	Zip           string `json:"zip,omitempty"`
	CountryCode   string `json:"country_code,omitempty"`
	State         string `json:"state,omitempty"`
	Tel           string `json:"tel,omitempty"`
}

type Customer struct {
	FirstName  string   `json:"first_name"`
	LastName   string   `json:"last_name"`
	Email      string   `json:"email"`
	CustomerIP string   `json:"customer_ip,omitempty"`
	CustomerNo string   `json:"customer_no"`
	Gender     string   `json:"gender"`
	Billing    *Address `json:"billing"`
	Shipping   *Address `json:"shipping,omitempty"`
	BirthDate  string   `json:"birth_date,omitempty"`
}

// PaymentData is the union of instrument fields sent and returned by the gateway.
type PaymentData struct {
	Token               string `json:"token,omitempty"`
	PanHash             string `json:"pan_hash,omitempty"`
	UniqueID            string `json:"unique_id,omitempty"`
	Enforce3D           int    `json:"enforce_3d,omitempty"`
	IBAN                string `json:"iban,omitempty"`
	BIC                 string `json:"bic,omitempty"`
	CardHolder          string `json:"card_holder,omitempty"`
	CardNumber          string `json:"card_number,omitempty"`
	CardBrand           string `json:"card_brand,omitempty"`
	CardExpiryMonth     ID     `json:"card_expiry_month,omitempty"`
	CardExpiryYear      ID     `json:"card_expiry_year,omitempty"`
	AccountHolder       string `json:"account_holder,omitempty"`
	PaypalAccount       string `json:"paypal_account,omitempty"`
	PaypalTransactionID string `json:"paypal_transaction_id,omitempty"`
}

// PaymentTransaction is the transaction block of a payment/authorize request.
type PaymentTransaction struct {
	PaymentType    PaymentType  `json:"payment_type"`
	Amount         int64        `json:"amount"`
	Currency       string       `json:"currency"`
	TestMode       int          `json:"test_mode"`
	OrderNo        string       `json:"order_no"`
	SystemName     string       `json:"system_name,omitempty"`
	DueDate        string       `json:"due_date,omitempty"`
	PaymentData    *PaymentData `json:"payment_data,omitempty"`
	CreateToken    int          `json:"create_token,omitempty"`
	ReturnURL      string       `json:"return_url,omitempty"`
	ErrorReturnURL string       `json:"error_return_url,omitempty"`
}

type InstalmentRequest struct {
	Interval string `json:"interval"`
	Cycles   int    `json:"cycles"`
}

type LineItem struct {
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int64  `json:"quantity"`
}

type CartInfo struct {
	LineItems          []LineItem `json:"line_items"`
	ItemsTaxPrice      int64      `json:"items_tax_price"`
	ItemsShippingPrice int64      `json:"items_shipping_price"`
}

// Custom carries the correlation token echoed back on webhooks as inputval1.
type Custom struct {
	Lang        string `json:"lang,omitempty"`
	Input1      string `json:"input1,omitempty"`
	Inputval1   string `json:"inputval1,omitempty"`
	ShopInvoked int    `json:"shop_invoked,omitempty"`
}

// PaymentRequest is the body of the payment and authorize endpoints.
type PaymentRequest struct {
	Merchant    *Merchant           `json:"merchant"`
	Customer    *Customer           `json:"customer"`
	Transaction *PaymentTransaction `json:"transaction"`
	Instalment  *InstalmentRequest  `json:"instalment,omitempty"`
	CartInfo    *CartInfo           `json:"cart_info,omitempty"`
	Custom      *Custom             `json:"custom"`
}

// TransactionRef addresses an existing transaction in follow-up calls.
type TransactionRef struct {
	TID    string `json:"tid"`
	Amount int64  `json:"amount,omitempty"`
	Reason string `json:"reason,omitempty"`
}

type InstalmentRef struct {
	TID string `json:"tid"`
}

// ActionRequest is the body of details, capture, cancel, refund and instalment cancel calls.
type ActionRequest struct {
	Merchant    *Merchant       `json:"merchant,omitempty"`
	Transaction *TransactionRef `json:"transaction,omitempty"`
	Instalment  *InstalmentRef  `json:"instalment,omitempty"`
	Custom      *Custom         `json:"custom,omitempty"`
}

type Result struct {
	Status      ResultStatus `json:"status"`
	StatusCode  Int          `json:"status_code,omitempty"`
	StatusText  string       `json:"status_text,omitempty"`
	RedirectURL string       `json:"redirect_url,omitempty"`
}

type BankDetails struct {
	AccountHolder string `json:"account_holder,omitempty"`
	BankName      string `json:"bank_name,omitempty"`
	BankPlace     string `json:"bank_place,omitempty"`
	IBAN          string `json:"iban,omitempty"`
	BIC           string `json:"bic,omitempty"`
}

type Store struct {
	StoreName   string `json:"store_name,omitempty"`
	Street      string `json:"street,omitempty"`
	City        string `json:"city,omitempty"`
	Zip         string `json:"zip,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
}

type Refund struct {
	TID      ID     `json:"tid,omitempty"`
	Amount   Amount `json:"amount,omitempty"`
	Currency string `json:"currency,omitempty"`
}

type Transaction struct {
	TID                     ID                `json:"tid,omitempty"`
	Status                  TransactionStatus `json:"status,omitempty"`
	PaymentType             PaymentType       `json:"payment_type,omitempty"`
	Amount                  Amount            `json:"amount,omitempty"`
	Currency                string            `json:"currency,omitempty"`
	OrderNo                 ID                `json:"order_no,omitempty"`
	TestMode                Int               `json:"test_mode,omitempty"`
	DueDate                 string            `json:"due_date,omitempty"`
	InvoiceRef              string            `json:"invoice_ref,omitempty"`
	TxnSecret               string            `json:"txn_secret,omitempty"`
	UpdateType              UpdateType        `json:"update_type,omitempty"`
	PartnerPaymentReference ID                `json:"partner_payment_reference,omitempty"`
	ServiceSupplierID       ID                `json:"service_supplier_id,omitempty"`
	BankDetails             *BankDetails      `json:"bank_details,omitempty"`
	NearestStores           map[string]Store  `json:"nearest_stores,omitempty"`
	PaymentData             *PaymentData      `json:"payment_data,omitempty"`
	Refund                  *Refund           `json:"refund,omitempty"`
}

type Instalment struct {
	CyclesExecuted Int               `json:"cycles_executed,omitempty"`
	CycleAmount    Amount            `json:"cycle_amount,omitempty"`
	CycleDates     map[string]string `json:"cycle_dates,omitempty"`
	PendingCycles  Int               `json:"pending_cycles,omitempty"`
	TotalAmount    Amount            `json:"total_amount,omitempty"`
}

type Event struct {
	Type      EventType `json:"type,omitempty"`
	TID       ID        `json:"tid,omitempty"`
	ParentTID ID        `json:"parent_tid,omitempty"`
	Checksum  string    `json:"checksum,omitempty"`
}

type Collection struct {
	Reference ID `json:"reference,omitempty"`
}

// Response is a normalized gateway response or webhook payload.
type Response struct {
	Result      Result      `json:"result"`
	Transaction Transaction `json:"transaction"`
	Instalment  *Instalment `json:"instalment,omitempty"`
	Event       *Event      `json:"event,omitempty"`
	Merchant    *Merchant   `json:"merchant,omitempty"`
	Custom      *Custom     `json:"custom,omitempty"`
	Collection  *Collection `json:"collection,omitempty"`

	doc map[string]any
}

// Succeeded reports result.status == SUCCESS.
func (r *Response) Succeeded() bool {
	return r != nil && r.Result.Status == ResultStatusSuccess
}

// Document returns the patched JSON document the response was decoded from.
func (r *Response) Document() map[string]any {
	if r == nil {
		return nil
	}
	return r.doc
}

// Lookup returns the value at a dotted path of the patched document.
func (r *Response) Lookup(path ...string) (any, bool) {
	if r == nil {
		return nil, false
	}
	return lookup(r.doc, path...)
}

// OrderToken is the correlation token echoed back in custom.inputval1.
func (r *Response) OrderToken() string {
	if r == nil || r.Custom == nil {
		return ""
	}
	return r.Custom.Inputval1
}

// ParentTID returns event.parent_tid, defaulting to event.tid.
func (r *Response) ParentTID() string {
	if r == nil || r.Event == nil {
		return ""
	}
	if r.Event.ParentTID != "" {
		return r.Event.ParentTID.String()
	}
	return r.Event.TID.String()
}

func lookup(doc map[string]any, path ...string) (any, bool) {
	var cur any = doc
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[key]; !ok {
			return nil, false
		}
	}
	return cur, true
}
