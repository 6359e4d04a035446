package reconcile

import (
	"github.com/fatflowers/payport/internal/models"
	"github.com/fatflowers/payport/internal/platform/gateway"
	"github.com/fatflowers/payport/pkg/types"
)

// Projection is the order state derived from a gateway transaction status.
type Projection struct {
	Order        types.OrderStatus
	Payment      types.PaymentStatus
	Confirmation types.ConfirmationStatus
	Export       types.ExportStatus
}

var paidProjection = Projection{
	Order:        types.OrderStatusCompleted,
	Payment:      types.PaymentStatusPaid,
	Confirmation: types.ConfirmationStatusConfirmed,
	Export:       types.ExportStatusReady,
}

// Project maps a transaction status to the order state. CONFIRMED only completes
// the order for types that are paid when confirmed; invoice-like orders complete
// once credits cover the balance.
func Project(status gateway.TransactionStatus, pt gateway.PaymentType) Projection {
	switch {
	case status == gateway.TransactionStatusConfirmed && !pt.IsInvoiceLike():
		return paidProjection
	case status == gateway.TransactionStatusOnHold:
		return Projection{
			Order:        types.OrderStatusOpen,
			Payment:      types.PaymentStatusNotPaid,
			Confirmation: types.ConfirmationStatusNotConfirmed,
			Export:       types.ExportStatusNotExported,
		}
	case status.IsFailed():
		return Projection{
			Order:        types.OrderStatusCancelled,
			Payment:      types.PaymentStatusNotPaid,
			Confirmation: types.ConfirmationStatusConfirmed,
			Export:       types.ExportStatusNotExported,
		}
	default:
		return Projection{
			Order:        types.OrderStatusOpen,
			Payment:      types.PaymentStatusNotPaid,
			Confirmation: types.ConfirmationStatusConfirmed,
			Export:       types.ExportStatusNotExported,
		}
	}
}

// Apply writes the projection onto o.
func (p Projection) Apply(o *models.Order) {
	o.Status = p.Order
	o.PaymentStatus = p.Payment
	o.ConfirmationStatus = p.Confirmation
	o.ExportStatus = p.Export
}
