package types

type OrderStatus string

const (
	OrderStatusCreated   OrderStatus = "CREATED"
	OrderStatusOpen      OrderStatus = "OPEN"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	// OrderStatusFailed marks an order whose checkout attempt failed before a transaction was accepted.
	OrderStatusFailed OrderStatus = "FAILED"
)

type PaymentStatus string

const (
	PaymentStatusNotPaid PaymentStatus = "NOTPAID"
	PaymentStatusPaid    PaymentStatus = "PAID"
)

type ConfirmationStatus string

const (
	ConfirmationStatusConfirmed    ConfirmationStatus = "CONFIRMED"
	ConfirmationStatusNotConfirmed ConfirmationStatus = "NOTCONFIRMED"
)

type ExportStatus string

const (
	ExportStatusNotExported ExportStatus = "NOTEXPORTED"
	ExportStatusReady       ExportStatus = "READY"
)
