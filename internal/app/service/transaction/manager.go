package transaction

import (
	"context"
	"errors"

	"github.com/fatflowers/payport/internal/app/service/order"
	"github.com/fatflowers/payport/internal/models"
	"github.com/fatflowers/payport/internal/platform/gateway"
)

var (
	// ErrActionNotAllowed is returned when the order state does not permit the action.
	ErrActionNotAllowed   = errors.New("action not allowed for the transaction")
	// ErrInvalidAmount rejects refunds outside (0, remaining amount].
	ErrInvalidAmount      = errors.New("invalid refund amount")
	// ErrCredentialsMissing means no product activation key is configured or given.
	ErrCredentialsMissing = errors.New("merchant credentials missing")
)

// Action names a back-office operation.
type Action string

const (
	ActionCapture          Action = "capture"
	ActionCancel           Action = "cancel"
	ActionInstalmentCancel Action = "instalment_cancel"
	ActionRefund           Action = "refund"
	ActionSync             Action = "sync"
)

type RefundRequest struct {
	OrderNo string `json:"-"`
	// Amount in minor units
	Amount  int64  `json:"amount" binding:"required"`
	Reason  string `json:"reason"`
}

type SyncRequest struct {
	OrderNo string `json:"-"`
	// TID is used when the order has no recorded transaction yet
	TID     string `json:"tid"`
}

// ActionResult is the answer of a back-office call. A call the gateway declined is
// not an error: Accepted is false and StatusText carries the reason.
type ActionResult struct {
	OrderNo    string                    `json:"order_no"`
	Action     Action                    `json:"action"`
	Accepted   bool                      `json:"accepted"`
	StatusCode int                       `json:"status_code"`
	StatusText string                    `json:"status_text"`
	Status     gateway.TransactionStatus `json:"status,omitempty"`
	Comment    string                    `json:"comment,omitempty"`
}

// InstalmentRow is one line of an instalment schedule.
type InstalmentRow struct {
	Cycle  int    `json:"cycle"`
	Date   string `json:"date"`
	Amount int64  `json:"amount"`
	TID    string `json:"tid,omitempty"`
	Paid   bool   `json:"paid"`
}

// TransactionView is the back-office page of one order.
type TransactionView struct {
	Order               *models.Order                    `json:"order"`
	RemainingAmount     int64                            `json:"remaining_amount"`
	CanCapture          bool                             `json:"can_capture"`
	CanCancel           bool                             `json:"can_cancel"`
	CanRefund           bool                             `json:"can_refund"`
	CanCancelInstalment bool                             `json:"can_cancel_instalment"`
	Instalments         []*InstalmentRow                 `json:"instalments,omitempty"`
	Notes               []*models.OrderNote              `json:"notes"`
	Messages            []*models.PaymentNotificationLog `json:"messages"`
}

type MerchantDetailsRequest struct {
	// Signature overrides the configured product activation key
	Signature string `json:"signature"`
	Lang      string `json:"lang"`
}

type MerchantDetailsResult struct {
	Accepted   bool              `json:"accepted"`
	StatusText string            `json:"status_text"`
	Merchant   *gateway.Merchant `json:"merchant,omitempty"`
	Details    map[string]any    `json:"details,omitempty"`
}

// TransactionManager runs the merchant-side operations on recorded transactions.
type TransactionManager interface {
	// Capture confirms an on-hold transaction.
	Capture(ctx context.Context, orderNo string) (*ActionResult, error)
	// Cancel voids an on-hold transaction.
	Cancel(ctx context.Context, orderNo string) (*ActionResult, error)
	// CancelInstalment stops the remaining cycles of an instalment plan.
	CancelInstalment(ctx context.Context, orderNo string) (*ActionResult, error)
	// Refund refunds part or all of the remaining amount.
	Refund(ctx context.Context, req *RefundRequest) (*ActionResult, error)
	// Sync fetches the transaction details and reconciles the order with them.
	Sync(ctx context.Context, req *SyncRequest) (*ActionResult, error)
	// View assembles the transaction page of an order.
	View(ctx context.Context, orderNo string) (*TransactionView, error)
	// MerchantDetails checks the merchant credentials.
	MerchantDetails(ctx context.Context, req *MerchantDetailsRequest) (*MerchantDetailsResult, error)
	// ScanOrders lists orders (used by admin list pages).
	ScanOrders(ctx context.Context, req *order.ScanOrdersRequest) (*order.ScanOrdersResponse, error)
}
