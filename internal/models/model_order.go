package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/fatflowers/payport/pkg/types"
)

// Address is a postal address as captured at checkout.
type Address struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Street      string `json:"street"`
	HouseNo     string `json:"house_no,omitempty"`
	City        string `json:"city"`
	Zip         string `json:"zip"`
	CountryCode string `json:"country_code"`
	State       string `json:"state,omitempty"`
	Company     string `json:"company,omitempty"`
	Phone       string `json:"phone,omitempty"`
}

// Equal compares two addresses field by field.
func (a *Address) Equal(b *Address) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// StreetLine joins street and house number.
func (a *Address) StreetLine() string {
	if a == nil {
		return ""
	}
	return strings.TrimSpace(a.Street + " " + a.HouseNo)
}

type LineItem struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int64           `json:"quantity"`
}

// Order is the shop order a payment belongs to. Payment state lives in OrderPayment.
type Order struct {
	ID                 string                         `gorm:"column:id;primary_key;type:varchar(36)" json:"id"`
	OrderNo            string                         `gorm:"column:order_no;type:varchar(64);not null;uniqueIndex" json:"order_no"`
	Token              string                         `gorm:"column:token;type:varchar(64);not null" json:"-"`
	CustomerNo         string                         `gorm:"column:customer_no;type:varchar(64);index" json:"customer_no"`
	CustomerEmail      string                         `gorm:"column:customer_email;type:varchar(255)" json:"customer_email"`
	CustomerIP         string                         `gorm:"column:customer_ip;type:varchar(64)" json:"customer_ip"`
	Gender             string                         `gorm:"column:gender;type:varchar(8)" json:"gender"`
	BirthDate          string                         `gorm:"column:birth_date;type:varchar(10)" json:"birth_date,omitempty"`
	Currency           string                         `gorm:"column:currency;type:varchar(3);not null" json:"currency"`
	GrossAmount        decimal.Decimal                `gorm:"column:gross_amount;type:decimal(20,2);not null" json:"gross_amount"`
	TaxAmount          decimal.Decimal                `gorm:"column:tax_amount;type:decimal(20,2)" json:"tax_amount"`
	ShippingAmount     decimal.Decimal                `gorm:"column:shipping_amount;type:decimal(20,2)" json:"shipping_amount"`
	Billing            datatypes.JSONType[*Address]   `gorm:"column:billing" json:"billing"`
	Shipping           datatypes.JSONType[*Address]   `gorm:"column:shipping" json:"shipping"`
	LineItems          datatypes.JSONType[[]LineItem] `gorm:"column:line_items" json:"line_items"`
	Lang               string                         `gorm:"column:lang;type:varchar(8)" json:"lang"`
	Status             types.OrderStatus              `gorm:"column:status;type:varchar(32);not null;index" json:"status"`
	PaymentStatus      types.PaymentStatus            `gorm:"column:payment_status;type:varchar(32);not null" json:"payment_status"`
	ConfirmationStatus types.ConfirmationStatus       `gorm:"column:confirmation_status;type:varchar(32);not null" json:"confirmation_status"`
	ExportStatus       types.ExportStatus             `gorm:"column:export_status;type:varchar(32);not null" json:"export_status"`
	Payment            *OrderPayment                  `gorm:"foreignKey:OrderID;references:ID" json:"payment,omitempty"`
	CreatedAt          time.Time                      `json:"created_at"`
	UpdatedAt          time.Time                      `json:"updated_at"`

	// PendingNotes are appended to the note log when the order is saved.
	PendingNotes []string `gorm:"-" json:"-"`
}

func (Order) TableName() string { return "shop_order" }

// AddNote queues a payment note for the next save.
func (o *Order) AddNote(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	o.PendingNotes = append(o.PendingNotes, text)
}

// EnsurePayment returns the payment record, creating an empty one if needed.
func (o *Order) EnsurePayment() *OrderPayment {
	if o.Payment == nil {
		o.Payment = &OrderPayment{OrderID: o.ID}
	}
	return o.Payment
}

// BillingAddress returns the billing address or nil.
func (o *Order) BillingAddress() *Address { return o.Billing.Data() }

// ShippingAddress returns the shipping address or nil.
func (o *Order) ShippingAddress() *Address { return o.Shipping.Data() }

// OrderNote is one entry of the append-only payment history of an order.
type OrderNote struct {
	ID        string    `gorm:"column:id;primary_key;type:varchar(36)" json:"id"`
	OrderID   string    `gorm:"column:order_id;type:varchar(36);not null;index" json:"order_id"`
	Subject   string    `gorm:"column:subject;type:varchar(128);not null" json:"subject"`
	Text      string    `gorm:"column:text;type:text;not null" json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

func (OrderNote) TableName() string { return "order_note" }

// NoteSubject is the subject of every payment note.
const NoteSubject = "Payment"
