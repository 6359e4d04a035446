package models

import (
	"sort"
	"strconv"
	"time"

	"github.com/samber/lo"
	"gorm.io/datatypes"

	"github.com/fatflowers/payport/internal/platform/gateway"
)

// InstalmentCycle is one executed cycle of an instalment plan.
type InstalmentCycle struct {
	TID string `json:"tid"`
}

// InstalmentLedger records the executed cycles of an instalment plan, keyed by
// the gateway's cycles_executed counter. Entries are only ever added.
type InstalmentLedger struct {
	CycleAmount   int64                      `json:"cycle_amount"`
	TotalAmount   int64                      `json:"total_amount,omitempty"`
	PendingCycles int                        `json:"pending_cycles,omitempty"`
	CycleDates    map[string]string          `json:"cycle_dates,omitempty"`
	Cycles        map[string]InstalmentCycle `json:"cycles"`
}

// Record adds the entry for cycle. It reports false when the cycle is already recorded.
func (l *InstalmentLedger) Record(cycle int, tid string) bool {
	key := strconv.Itoa(cycle)
	if l.Cycles == nil {
		l.Cycles = map[string]InstalmentCycle{}
	}
	if _, ok := l.Cycles[key]; ok {
		return false
	}
	l.Cycles[key] = InstalmentCycle{TID: tid}
	return true
}

// Has reports whether cycle is recorded.
func (l *InstalmentLedger) Has(cycle int) bool {
	if l == nil {
		return false
	}
	_, ok := l.Cycles[strconv.Itoa(cycle)]
	return ok
}

// Sync copies the plan figures reported by the gateway.
func (l *InstalmentLedger) Sync(in *gateway.Instalment) {
	if in == nil {
		return
	}
	if in.CycleAmount != 0 {
		l.CycleAmount = in.CycleAmount.Int64()
	}
	if in.TotalAmount != 0 {
		l.TotalAmount = in.TotalAmount.Int64()
	}
	if in.PendingCycles != 0 {
		l.PendingCycles = int(in.PendingCycles)
	}
	if len(in.CycleDates) > 0 {
		if l.CycleDates == nil {
			l.CycleDates = map[string]string{}
		}
		for k, v := range in.CycleDates {
			l.CycleDates[k] = v
		}
	}
}

// CycleKeys returns the scheduled cycle numbers in ascending order.
func (l *InstalmentLedger) CycleKeys() []int {
	if l == nil {
		return nil
	}
	keys := lo.FilterMap(lo.Keys(l.CycleDates), func(k string, _ int) (int, bool) {
		n, err := strconv.Atoi(k)
		return n, err == nil
	})
	sort.Ints(keys)
	return keys
}

// OrderPayment is the persisted gateway state of an order.
type OrderPayment struct {
	ID            string                    `gorm:"column:id;primary_key;type:varchar(36)" json:"id"`
	OrderID       string                    `gorm:"column:order_id;type:varchar(36);not null;uniqueIndex" json:"order_id"`
	TID           string                    `gorm:"column:tid;type:varchar(32);index" json:"tid"`
	Status        gateway.TransactionStatus `gorm:"column:status;type:varchar(32)" json:"status"`
	PaymentMethod gateway.PaymentType       `gorm:"column:payment_method;type:varchar(64)" json:"payment_method"`
	// ShopMethodID is the shop-side id of the selected method, e.g. NOVALNET_INVOICE
	ShopMethodID      string `gorm:"column:shop_method_id;type:varchar(64)" json:"shop_method_id"`
	OrderAmount       int64  `gorm:"column:order_amount;type:bigint;not null;default:0" json:"order_amount"`
	PaidAmount        int64  `gorm:"column:paid_amount;type:bigint;not null;default:0" json:"paid_amount"`
	RefundedAmount    int64  `gorm:"column:refunded_amount;type:bigint;not null;default:0" json:"refunded_amount"`
	PaymentToken      string `gorm:"column:payment_token;type:varchar(128)" json:"-"`
	SavePaymentData   bool   `gorm:"column:save_payment_data;not null;default:false" json:"save_payment_data"`
	ZeroAmountBooking bool   `gorm:"column:zero_amount_booking;not null;default:false" json:"zero_amount_booking"`
	// TxnSecret is issued with a redirect and consumed once by the return handler
	TxnSecret string `gorm:"column:txn_secret;type:varchar(128)" json:"-"`
	// Comment is the current human readable payment comment
	Comment         string                                `gorm:"column:comment;type:text" json:"comment"`
	ServerResponse  datatypes.JSONType[*gateway.Response] `gorm:"column:server_response" json:"server_response"`
	Instalment      datatypes.JSONType[*InstalmentLedger] `gorm:"column:instalment" json:"instalment"`
	ProcessedEvents datatypes.JSONType[[]string]          `gorm:"column:processed_events" json:"processed_events"`
	CreatedAt       time.Time                             `json:"created_at"`
	UpdatedAt       time.Time                             `json:"updated_at"`
}

func (OrderPayment) TableName() string { return "order_payment" }

// Balance is the amount still owed: order minus refunded.
func (p *OrderPayment) Balance() int64 {
	return p.OrderAmount - p.RefundedAmount
}

// Response returns the stored gateway response, never nil.
func (p *OrderPayment) Response() *gateway.Response {
	if r := p.ServerResponse.Data(); r != nil {
		return r
	}
	return &gateway.Response{}
}

// MergeResponse merges in into the stored gateway response.
func (p *OrderPayment) MergeResponse(in *gateway.Response) {
	p.ServerResponse = datatypes.NewJSONType(gateway.Merge(p.ServerResponse.Data(), in))
}

// Ledger returns the instalment ledger, creating an empty one if needed.
func (p *OrderPayment) Ledger() *InstalmentLedger {
	if l := p.Instalment.Data(); l != nil {
		return l
	}
	l := &InstalmentLedger{Cycles: map[string]InstalmentCycle{}}
	p.Instalment = datatypes.NewJSONType(l)
	return l
}

// HasProcessed reports whether the event marker was already applied.
func (p *OrderPayment) HasProcessed(marker string) bool {
	return lo.Contains(p.ProcessedEvents.Data(), marker)
}

// MarkProcessed records marker as applied.
func (p *OrderPayment) MarkProcessed(marker string) {
	if p.HasProcessed(marker) {
		return
	}
	p.ProcessedEvents = datatypes.NewJSONType(append(p.ProcessedEvents.Data(), marker))
}

// ExpectEvent records marker for an event whose own tid is not known yet. The same
// marker may be expected more than once.
func (p *OrderPayment) ExpectEvent(marker string) {
	p.ProcessedEvents = datatypes.NewJSONType(append(p.ProcessedEvents.Data(), marker))
}

// ConsumeExpected removes one occurrence of marker and reports whether there was one.
func (p *OrderPayment) ConsumeExpected(marker string) bool {
	events := p.ProcessedEvents.Data()
	i := lo.IndexOf(events, marker)
	if i < 0 {
		return false
	}
	p.ProcessedEvents = datatypes.NewJSONType(append(events[:i:i], events[i+1:]...))
	return true
}

// AppendComment adds a paragraph to the payment comment.
func (p *OrderPayment) AppendComment(text string) {
	if text == "" {
		return
	}
	if p.Comment == "" {
		p.Comment = text
		return
	}
	p.Comment = p.Comment + "\n\n" + text
}
