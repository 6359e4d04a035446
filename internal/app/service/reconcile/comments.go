package reconcile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fatflowers/payport/internal/platform/gateway"
)

// DateLayout is the date format used in payment comments.
const DateLayout = "2006-01-02"

// Webhook reply messages.
const (
	MsgOrderNotFound     = "Order not found"
	MsgProcessed         = "Callback script executed successfully"
	MsgTIDExists         = "Callback executed. The Transaction ID already existed"
	MsgReferenceMismatch = "Order reference not matching"
	MsgAlreadyPaid       = "Order already paid"
	MsgAlreadyProcessed  = "Event already processed"
	MsgResultNotSuccess  = "Event ignored: result status is not SUCCESS"
	MsgNothingToApply    = "Event received, nothing to apply"
	msgUnhandledFormat   = "The webhook notification has been received for the unhandled EVENT type %s"
)

// UnhandledMessage is the reply for event types the engine does not know.
func UnhandledMessage(t gateway.EventType) string {
	return fmt.Sprintf(msgUnhandledFormat, t)
}

// FormatAmount renders a minor-unit amount as "12.34 EUR".
func FormatAmount(minor int64, currency string) string {
	return strings.TrimSpace(decimal.New(minor, -2).StringFixed(2) + " " + currency)
}

// TransactionComment is the comment written when a transaction is first recorded.
// A failed transaction carries the gateway's status text instead of payment details.
func TransactionComment(resp *gateway.Response, success bool) string {
	var b strings.Builder
	if tid := resp.Transaction.TID.String(); tid != "" {
		fmt.Fprintf(&b, "Transaction ID: %s\n", tid)
	}
	if resp.Transaction.TestMode == 1 {
		b.WriteString("Test order\n")
	}
	if !success {
		b.WriteString(resp.Result.StatusText)
		return b.String()
	}
	b.WriteString(PaymentComment(resp))
	return b.String()
}

// PaymentComment renders the payment instructions carried by resp: the pending notice
// of guaranteed and instalment types, bank transfer details, cash payment stores or
// the multibanco reference.
func PaymentComment(resp *gateway.Response) string {
	tx := resp.Transaction
	amount := tx.Amount.Int64()
	if resp.Instalment != nil && resp.Instalment.CycleAmount != 0 {
		amount = resp.Instalment.CycleAmount.Int64()
	}
	formatted := FormatAmount(amount, tx.Currency)

	var b strings.Builder
	switch {
	case (tx.PaymentType.IsGuaranteed() || tx.PaymentType.IsInstalment()) && tx.Status == gateway.TransactionStatusPending:
		b.WriteString("Your order is under verification and we will soon update you with the order status. Please note that this may take upto 24 hours.")
	case tx.BankDetails != nil:
		bank := tx.BankDetails
		if tx.Status != gateway.TransactionStatusOnHold && tx.DueDate != "" {
			fmt.Fprintf(&b, "Please transfer the amount of %s to the following account on or before %s\n", formatted, tx.DueDate)
		} else {
			fmt.Fprintf(&b, "Please transfer the amount of %s to the following account.\n", formatted)
		}
		fmt.Fprintf(&b, "Account holder: %s\n", bank.AccountHolder)
		fmt.Fprintf(&b, "BANK: %s\n", bank.BankName)
		fmt.Fprintf(&b, "Place: %s\n", bank.BankPlace)
		fmt.Fprintf(&b, "IBAN: %s\n", bank.IBAN)
		fmt.Fprintf(&b, "BIC: %s\n", bank.BIC)
		b.WriteString("Please use any of the following payment references when transferring the amount. This is necessary to match it with your corresponding order\n")
		if tx.PaymentType == gateway.PaymentTypeInstalmentInvoice {
			fmt.Fprintf(&b, "Payment Reference: %s\n", tx.TID)
		} else {
			fmt.Fprintf(&b, "Payment Reference 1: %s\n", tx.TID)
			fmt.Fprintf(&b, "Payment Reference 2: %s\n", tx.InvoiceRef)
		}
	case tx.PaymentType == gateway.PaymentTypeCashPayment:
		fmt.Fprintf(&b, "Slip expiry date: %s\n", tx.DueDate)
		b.WriteString("Store(s) near to you\n")
		keys := make([]string, 0, len(tx.NearestStores))
		for k := range tx.NearestStores {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			s := tx.NearestStores[k]
			fmt.Fprintf(&b, "%s\n%s\n%s\n%s\n%s\n\n", s.StoreName, s.Street, s.City, s.Zip, s.CountryCode)
		}
	case tx.PaymentType == gateway.PaymentTypeMultibanco:
		fmt.Fprintf(&b, "Please use the following payment reference details to pay the amount of %s at a Multibanco ATM or through your internet banking.\n", formatted)
		fmt.Fprintf(&b, "Payment Reference: %s\n", tx.PartnerPaymentReference)
		fmt.Fprintf(&b, "Entity: %s\n", tx.ServiceSupplierID)
	}
	return b.String()
}

// ZeroAmountBookingNotice is appended when a card or account was tokenized without a charge.
const ZeroAmountBookingNotice = "This order will be processed as zero amount booking which store your payment data for further online purchases."

func instalmentReceivedComment(parentTID, amount, date, tid string) string {
	return fmt.Sprintf("A new instalment has been received for the Transaction ID: %s with amount %s on %s. The new instalment transaction ID is: %s", parentTID, amount, date, tid)
}

func chargebackComment(parentTID, amount, date, tid string) string {
	return fmt.Sprintf("Chargeback executed successfully for the TID: %s amount: %s on %s. The subsequent TID: %s", parentTID, amount, date, tid)
}

func creditComment(parentTID, amount, date, tid string) string {
	return fmt.Sprintf("Credit has been successfully received for the TID: %s with amount %s on %s. Please refer PAID order details in the merchant admin portal for the TID: %s", parentTID, amount, date, tid)
}

// ConfirmedComment is written when an on-hold transaction is captured.
func ConfirmedComment(date string) string {
	return fmt.Sprintf("The transaction has been confirmed on %s", date)
}

// CancelledComment is written when a transaction is cancelled.
func CancelledComment(date string) string {
	return fmt.Sprintf("The transaction has been canceled on %s", date)
}

func changedComment(tid, date string) string {
	return fmt.Sprintf("The transaction status has been changed from pending to on-hold for the TID: %s on %s.", tid, date)
}

func updatedComment(tid, amount, date string) string {
	return fmt.Sprintf("Transaction updated successfully for the TID: %s with amount %s on %s.", tid, amount, date)
}

func updatedWithDueDateComment(amount, dueDate string) string {
	return fmt.Sprintf("The transaction has been updated with amount %s and due date %s", amount, dueDate)
}

func updatedWithSlipDateComment(amount, slipDate string) string {
	return fmt.Sprintf("The transaction has been updated with amount %s and slip expiry date %s", amount, slipDate)
}

// RefundComment describes a refund of parentTID. refundTID is empty when the
// gateway did not create a new transaction for it.
func RefundComment(parentTID, amount, refundTID string) string {
	s := fmt.Sprintf("Refund has been initiated for the TID: %s with the amount %s.", parentTID, amount)
	if refundTID != "" {
		s += fmt.Sprintf(" New TID: %s for the refunded amount %s", refundTID, amount)
	}
	return s
}

func reminderComment(n string) string {
	return fmt.Sprintf("Payment Reminder %s has been sent to the customer.", n)
}

func collectionComment(reference string) string {
	return fmt.Sprintf("The transaction has been submitted to the collection agency. Collection Reference: %s", reference)
}

// InstalmentCancelledComment is written when the remaining cycles of a plan are cancelled.
func InstalmentCancelledComment(tid, date string) string {
	return fmt.Sprintf("Instalment has been cancelled for the TID: %s on %s", tid, date)
}
