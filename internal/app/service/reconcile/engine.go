package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/payport/internal/models"
	"github.com/fatflowers/payport/internal/platform/gateway"
	"github.com/fatflowers/payport/pkg/config"
	"github.com/fatflowers/payport/pkg/logctx"
	"github.com/fatflowers/payport/pkg/types"
)

var ErrOrderReferenceMismatch = errors.New("order reference not matching")

// MethodSource resolves the shop settings of a payment method.
type MethodSource interface {
	Method(id string) (*types.PaymentMethodConfig, bool)
}

// Outcome describes what applying a gateway message did to an order.
type Outcome struct {
	// Message is the reply for the sender of the message.
	Message string
	// Mutated is false when the message was understood but changed nothing.
	Mutated bool
	// Comment is the history entry written, if any.
	Comment string
	// Failed is set when the initial transaction was rejected by the gateway.
	Failed bool
}

func unchanged(msg string) *Outcome { return &Outcome{Message: msg} }

func applied(comment string) *Outcome {
	return &Outcome{Message: comment, Mutated: true, Comment: comment}
}

// Engine applies gateway responses and webhook events to orders. It never performs
// I/O; callers run it inside an order mutation.
type Engine struct {
	methods MethodSource
	now     func() time.Time
	log     *zap.SugaredLogger
}

type EngineOption func(*Engine)

// WithClock replaces the clock used for comment dates.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

func NewEngine(methods MethodSource, log *zap.SugaredLogger, opts ...EngineOption) *Engine {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	e := &Engine{methods: methods, now: time.Now, log: log}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) today() string { return e.now().Format(DateLayout) }

// Failed reports whether resp rejects the transaction.
func Failed(resp *gateway.Response) bool {
	return !resp.Succeeded() || resp.Transaction.Status.IsFailed()
}

// ApplyInitial records the first transaction response of an order: the synchronous
// payment response, the details fetched on redirect return, or a PAYMENT event.
// A recorded tid is never replaced.
func (e *Engine) ApplyInitial(ctx context.Context, o *models.Order, resp *gateway.Response) (*Outcome, error) {
	if resp == nil {
		return nil, fmt.Errorf("%w: empty response", gateway.ErrMalformedResponse)
	}
	p := o.EnsurePayment()
	if p.TID != "" {
		logctx.FromCtx(ctx, e.log).Infow("transaction already recorded", "order_no", o.OrderNo, "tid", p.TID,
			"incoming_tid", resp.Transaction.TID)
		return unchanged(MsgTIDExists), nil
	}

	if Failed(resp) {
		e.handleFailure(o, resp)
		return &Outcome{Message: MsgProcessed, Mutated: true, Comment: p.Comment, Failed: true}, nil
	}
	e.handleSuccess(o, resp)
	return &Outcome{Message: MsgProcessed, Mutated: true, Comment: p.Comment}, nil
}

func (e *Engine) handleSuccess(o *models.Order, resp *gateway.Response) {
	p := o.Payment
	e.saveTransactionDetails(p, resp)
	comment := TransactionComment(resp, true)
	if p.ZeroAmountBooking {
		comment = strings.TrimRight(comment, "\n") + "\n" + ZeroAmountBookingNotice
	}
	replaceComment(o, comment)
	Project(p.Status, p.PaymentMethod).Apply(o)
}

func (e *Engine) handleFailure(o *models.Order, resp *gateway.Response) {
	p := o.Payment
	if resp.Transaction.TID != "" {
		e.saveTransactionDetails(p, resp)
	}
	if !p.Status.IsFailed() {
		p.Status = gateway.TransactionStatusFailure
	}
	replaceComment(o, TransactionComment(resp, false))
	Project(p.Status, p.PaymentMethod).Apply(o)
	o.Status = types.OrderStatusFailed
}

func (e *Engine) saveTransactionDetails(p *models.OrderPayment, resp *gateway.Response) {
	tx := resp.Transaction
	pt := lo.CoalesceOrEmpty(tx.PaymentType, p.PaymentMethod)
	amount := tx.Amount.Int64()

	p.TID = tx.TID.String()
	p.Status = tx.Status
	p.PaymentMethod = pt
	p.OrderAmount = amount
	p.PaidAmount = 0
	if !pt.IsInvoiceLike() && tx.Status == gateway.TransactionStatusConfirmed {
		p.PaidAmount = amount
	}

	token := ""
	if tx.PaymentData != nil {
		token = tx.PaymentData.Token
	}
	if p.SavePaymentData && token != "" {
		p.PaymentToken = token
	}
	if pt.SupportsZeroAmountBooking() && amount == 0 && token != "" && e.zeroAmountBookingEnabled(p, pt) {
		p.ZeroAmountBooking = true
		p.PaymentToken = token
	}

	if resp.Instalment != nil {
		l := p.Ledger()
		l.Sync(resp.Instalment)
		if n := int(resp.Instalment.CyclesExecuted); n > 0 && tx.Status == gateway.TransactionStatusConfirmed {
			l.Record(n, p.TID)
		}
	}
	p.MergeResponse(resp)
}

func (e *Engine) zeroAmountBookingEnabled(p *models.OrderPayment, pt gateway.PaymentType) bool {
	if e.methods == nil {
		return false
	}
	id := p.ShopMethodID
	if id == "" {
		id, _ = gateway.ToShopID(pt)
	}
	m, ok := e.methods.Method(id)
	return ok && m.ZeroAmountBooking
}

// ApplyEvent applies a verified webhook event to o. Events other than PAYMENT must
// reference the recorded tid through event.parent_tid.
func (e *Engine) ApplyEvent(ctx context.Context, o *models.Order, resp *gateway.Response) (*Outcome, error) {
	if resp == nil || resp.Event == nil {
		return nil, fmt.Errorf("%w: missing event", gateway.ErrMalformedResponse)
	}
	lg := logctx.FromCtx(ctx, e.log).With("order_no", o.OrderNo, "event_type", resp.Event.Type, "event_tid", resp.Event.TID)
	p := o.EnsurePayment()
	eventType := resp.Event.Type

	if eventType == gateway.EventPayment {
		return e.ApplyInitial(ctx, o, resp)
	}
	if p.TID == "" || p.TID != resp.ParentTID() {
		lg.Warnw("event does not reference the order transaction", "tid", p.TID, "parent_tid", resp.ParentTID())
		return nil, ErrOrderReferenceMismatch
	}
	if !resp.Succeeded() {
		lg.Infow("event result is not successful", "result_status", resp.Result.Status)
		return unchanged(MsgResultNotSuccess), nil
	}
	if eventType == gateway.EventCredit && resp.Transaction.PaymentType.IsCredit() && fullyPaid(p) {
		return unchanged(MsgAlreadyPaid), nil
	}
	marker := processedMarker(resp)
	if marker != "" && p.HasProcessed(marker) {
		lg.Infow("event already applied")
		return unchanged(MsgAlreadyProcessed), nil
	}

	var out *Outcome
	switch eventType {
	case gateway.EventTransactionCapture, gateway.EventTransactionCancel:
		out = e.handleCaptureCancel(o, resp)
	case gateway.EventTransactionRefund:
		out = e.handleRefund(o, resp)
	case gateway.EventTransactionUpdate:
		out = e.handleUpdate(o, resp)
	case gateway.EventCredit:
		out = e.handleCredit(o, resp)
	case gateway.EventChargeback:
		out = e.handleChargeback(o, resp)
	case gateway.EventInstalment:
		out = e.handleInstalment(o, resp)
	case gateway.EventPaymentReminder1, gateway.EventPaymentReminder2:
		comment := reminderComment(eventType.ReminderNumber())
		appendComment(o, comment, "")
		out = applied(comment)
	case gateway.EventSubmissionToCollectionAgency:
		ref := ""
		if resp.Collection != nil {
			ref = resp.Collection.Reference.String()
		}
		comment := collectionComment(ref)
		appendComment(o, comment, "")
		out = applied(comment)
	default:
		lg.Infow("unhandled event type")
		return unchanged(UnhandledMessage(eventType)), nil
	}

	if out.Mutated && marker != "" {
		p.MarkProcessed(marker)
	}
	return out, nil
}

// processedMarker identifies an event delivery. TRANSACTION_UPDATE reuses the
// transaction tid for every update, so handleUpdate compares stored values instead.
func processedMarker(resp *gateway.Response) string {
	if resp.Event.Type == gateway.EventTransactionUpdate || resp.Event.TID == "" {
		return ""
	}
	return EventMarker(resp.Event.Type, resp.Event.TID.String())
}

// EventMarker is the processed-event key of an event type and event tid.
func EventMarker(t gateway.EventType, tid string) string {
	return fmt.Sprintf("%s:%s", t, tid)
}

// RefundAmountMarker stands for a refund the gateway confirmed without a refund tid.
func RefundAmountMarker(parentTID string, amount int64) string {
	return fmt.Sprintf("%s:%s:%d", gateway.EventTransactionRefund, parentTID, amount)
}

func fullyPaid(p *models.OrderPayment) bool {
	return p.PaidAmount >= p.Balance()
}

func eventPaymentType(p *models.OrderPayment, resp *gateway.Response) gateway.PaymentType {
	return lo.CoalesceOrEmpty(resp.Transaction.PaymentType, p.PaymentMethod)
}

// withStoredBankDetails returns resp with bank details and invoice reference taken
// from the stored response when the event omits them.
func withStoredBankDetails(p *models.OrderPayment, resp *gateway.Response) *gateway.Response {
	view := *resp
	stored := p.Response().Transaction
	if view.Transaction.BankDetails == nil {
		view.Transaction.BankDetails = stored.BankDetails
	}
	view.Transaction.InvoiceRef = lo.CoalesceOrEmpty(view.Transaction.InvoiceRef, stored.InvoiceRef)
	view.Transaction.DueDate = lo.CoalesceOrEmpty(view.Transaction.DueDate, stored.DueDate)
	view.Transaction.Currency = lo.CoalesceOrEmpty(view.Transaction.Currency, stored.Currency)
	view.Transaction.PaymentType = eventPaymentType(p, resp)
	return &view
}

func recordInstalment(p *models.OrderPayment, resp *gateway.Response, tid string) {
	if resp.Instalment == nil {
		return
	}
	l := p.Ledger()
	l.Sync(resp.Instalment)
	if n := int(resp.Instalment.CyclesExecuted); n > 0 {
		l.Record(n, tid)
	}
}

func (e *Engine) handleCaptureCancel(o *models.Order, resp *gateway.Response) *Outcome {
	p := o.Payment
	pt := eventPaymentType(p, resp)
	status := resp.Transaction.Status

	var comment string
	if resp.Event.Type == gateway.EventTransactionCapture {
		comment = ConfirmedComment(e.today())
		switch {
		case pt.IsInstalment():
			recordInstalment(p, resp, resp.Event.TID.String())
		case pt.IsBankTransfer():
			replaceComment(o, TransactionComment(withStoredBankDetails(p, resp), true))
		}
	} else {
		comment = CancelledComment(e.today())
	}

	p.MergeResponse(resp)
	appendComment(o, comment, status)
	if status == gateway.TransactionStatusConfirmed && !pt.IsInvoiceLike() {
		p.PaidAmount = p.OrderAmount
	}
	Project(p.Status, pt).Apply(o)
	return applied(comment)
}

func (e *Engine) handleRefund(o *models.Order, resp *gateway.Response) *Outcome {
	p := o.Payment
	ref := resp.Transaction.Refund
	if ref == nil || ref.Amount == 0 {
		return unchanged(MsgNothingToApply)
	}
	if p.ConsumeExpected(RefundAmountMarker(resp.ParentTID(), ref.Amount.Int64())) {
		return &Outcome{Message: MsgAlreadyProcessed, Mutated: true}
	}
	currency := lo.CoalesceOrEmpty(ref.Currency, resp.Transaction.Currency)
	comment := RefundComment(resp.ParentTID(), FormatAmount(ref.Amount.Int64(), currency), ref.TID.String())

	p.RefundedAmount += ref.Amount.Int64()
	appendComment(o, comment, "")
	return applied(comment)
}

var updatableStatuses = []gateway.TransactionStatus{
	gateway.TransactionStatusPending,
	gateway.TransactionStatusOnHold,
	gateway.TransactionStatusConfirmed,
	gateway.TransactionStatusDeactivated,
}

func (e *Engine) handleUpdate(o *models.Order, resp *gateway.Response) *Outcome {
	p := o.Payment
	tx := resp.Transaction
	pt := eventPaymentType(p, resp)
	if !lo.Contains(updatableStatuses, tx.Status) {
		return unchanged(MsgNothingToApply)
	}
	if alreadyUpdated(p, tx) {
		return unchanged(MsgAlreadyProcessed)
	}

	prev := p.Status
	eventTID := resp.Event.TID.String()
	amount := FormatAmount(tx.Amount.Int64(), lo.CoalesceOrEmpty(tx.Currency, p.Response().Transaction.Currency))

	var comment string
	switch {
	case tx.Status == gateway.TransactionStatusDeactivated:
		comment = CancelledComment(e.today())
	case prev == gateway.TransactionStatusPending && tx.Status == gateway.TransactionStatusOnHold:
		comment = changedComment(eventTID, e.today())
		if pt == gateway.PaymentTypeInstalmentInvoice || pt == gateway.PaymentTypeGuaranteedInvoice {
			if details := PaymentComment(withStoredBankDetails(p, resp)); details != "" {
				comment += "\n" + strings.TrimRight(details, "\n")
			}
		}
	case prev == gateway.TransactionStatusPending || prev == gateway.TransactionStatusOnHold:
		if pt.IsInstalment() && tx.Status == gateway.TransactionStatusConfirmed {
			recordInstalment(p, resp, eventTID)
		}
		if pt.IsBankTransfer() {
			replaceComment(o, TransactionComment(withStoredBankDetails(p, resp), true))
		}
		comment = updatedComment(eventTID, amount, e.today())
		if tx.DueDate != "" {
			if pt == gateway.PaymentTypeCashPayment {
				comment = updatedWithSlipDateComment(amount, tx.DueDate)
			} else {
				comment = updatedWithDueDateComment(amount, tx.DueDate)
			}
		}
	}

	amountChanged := false
	if tx.Amount != 0 && tx.UpdateType.ChangesAmount() && p.OrderAmount != tx.Amount.Int64() {
		p.OrderAmount = tx.Amount.Int64()
		amountChanged = true
	}
	if comment == "" && !amountChanged {
		return unchanged(MsgNothingToApply)
	}

	p.MergeResponse(resp)
	if comment == "" {
		return &Outcome{Message: MsgProcessed, Mutated: true}
	}
	appendComment(o, comment, tx.Status)
	if tx.Status == gateway.TransactionStatusConfirmed && !pt.IsInvoiceLike() {
		p.PaidAmount = p.OrderAmount
	}
	Project(p.Status, pt).Apply(o)
	return applied(comment)
}

// alreadyUpdated reports whether the stored payment already carries the status,
// amount and due date of an update.
func alreadyUpdated(p *models.OrderPayment, tx gateway.Transaction) bool {
	if tx.Status != p.Status {
		return false
	}
	if tx.Amount != 0 && tx.Amount.Int64() != p.OrderAmount {
		return false
	}
	return tx.DueDate == "" || tx.DueDate == p.Response().Transaction.DueDate
}

func (e *Engine) handleCredit(o *models.Order, resp *gateway.Response) *Outcome {
	p := o.Payment
	tx := resp.Transaction
	comment := creditComment(resp.ParentTID(), FormatAmount(tx.Amount.Int64(), tx.Currency), e.today(), resp.Event.TID.String())

	if tx.PaymentType.IsCredit() {
		if fullyPaid(p) {
			return unchanged(MsgAlreadyPaid)
		}
		p.PaidAmount += tx.Amount.Int64()
		if fullyPaid(p) {
			paidProjection.Apply(o)
		}
	}
	appendComment(o, comment, tx.Status)
	return applied(comment)
}

func (e *Engine) handleChargeback(o *models.Order, resp *gateway.Response) *Outcome {
	tx := resp.Transaction
	if tx.Status != gateway.TransactionStatusConfirmed || tx.Amount == 0 {
		return unchanged(MsgNothingToApply)
	}
	comment := chargebackComment(resp.ParentTID(), FormatAmount(tx.Amount.Int64(), tx.Currency), e.today(), resp.Event.TID.String())
	appendComment(o, comment, "")
	return applied(comment)
}

func (e *Engine) handleInstalment(o *models.Order, resp *gateway.Response) *Outcome {
	p := o.Payment
	tx := resp.Transaction
	if tx.Status != gateway.TransactionStatusConfirmed || resp.Instalment == nil || resp.Instalment.CyclesExecuted == 0 {
		return unchanged(MsgNothingToApply)
	}
	cycle := int(resp.Instalment.CyclesExecuted)
	if p.Instalment.Data().Has(cycle) {
		return unchanged(MsgAlreadyProcessed)
	}

	eventTID := resp.Event.TID.String()
	comment := instalmentReceivedComment(resp.ParentTID(), FormatAmount(tx.Amount.Int64(), tx.Currency), e.today(), eventTID)
	if details := PaymentComment(resp); details != "" {
		comment += "\n" + strings.TrimRight(details, "\n")
	}

	recordInstalment(p, resp, eventTID)
	p.MergeResponse(&gateway.Response{Instalment: resp.Instalment})
	appendComment(o, comment, "")
	return applied(comment)
}

// appendComment adds comment to the note log and the payment comment, and records
// status when one is given.
func appendComment(o *models.Order, comment string, status gateway.TransactionStatus) {
	p := o.EnsurePayment()
	o.AddNote(comment)
	p.AppendComment(comment)
	if status != "" {
		p.Status = status
	}
}

// replaceComment adds comment to the note log and makes it the payment comment.
func replaceComment(o *models.Order, comment string) {
	comment = strings.TrimRight(comment, "\n")
	o.AddNote(comment)
	o.EnsurePayment().Comment = comment
}

var Module = fx.Options(
	fx.Provide(func(cfg *config.Config, log *zap.SugaredLogger) *Engine {
		return NewEngine(cfg, log)
	}),
)
