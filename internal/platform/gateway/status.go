package gateway

import "strings"

// ResultStatus is result.status on every gateway response.
type ResultStatus string

const (
	ResultStatusSuccess ResultStatus = "SUCCESS"
	ResultStatusFailure ResultStatus = "FAILURE"
)

// StatusCodeSuccess is result.status_code for an accepted back-office call.
const StatusCodeSuccess = 100

// TransactionStatus is transaction.status.
type TransactionStatus string

const (
	TransactionStatusPending     TransactionStatus = "PENDING"
	TransactionStatusOnHold      TransactionStatus = "ON_HOLD"
	TransactionStatusConfirmed   TransactionStatus = "CONFIRMED"
	TransactionStatusDeactivated TransactionStatus = "DEACTIVATED"
	TransactionStatusFailure     TransactionStatus = "FAILURE"
)

// IsFailed reports the terminal states that cancel an order.
func (s TransactionStatus) IsFailed() bool {
	return s == TransactionStatusDeactivated || s == TransactionStatusFailure
}

// EventType is event.type on webhook payloads.
type EventType string

const (
	EventPayment                      EventType = "PAYMENT"
	EventTransactionCapture           EventType = "TRANSACTION_CAPTURE"
	EventTransactionCancel            EventType = "TRANSACTION_CANCEL"
	EventTransactionRefund            EventType = "TRANSACTION_REFUND"
	EventTransactionUpdate            EventType = "TRANSACTION_UPDATE"
	EventCredit                       EventType = "CREDIT"
	EventChargeback                   EventType = "CHARGEBACK"
	EventInstalment                   EventType = "INSTALMENT"
	EventPaymentReminder1             EventType = "PAYMENT_REMINDER_1"
	EventPaymentReminder2             EventType = "PAYMENT_REMINDER_2"
	EventSubmissionToCollectionAgency EventType = "SUBMISSION_TO_COLLECTION_AGENCY"
)

// ReminderNumber returns the digits of a PAYMENT_REMINDER_n type.
func (e EventType) ReminderNumber() string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, string(e))
}

// UpdateType is transaction.update_type on TRANSACTION_UPDATE events.
type UpdateType string

const (
	UpdateTypeAmount        UpdateType = "AMOUNT"
	UpdateTypeAmountDueDate UpdateType = "AMOUNT_DUE_DATE"
	UpdateTypeDueDate       UpdateType = "DUE_DATE"
	UpdateTypeStatus        UpdateType = "STATUS"
)

// ChangesAmount reports update types that carry a new order amount.
func (u UpdateType) ChangesAmount() bool {
	return u == UpdateTypeAmount || u == UpdateTypeAmountDueDate
}
