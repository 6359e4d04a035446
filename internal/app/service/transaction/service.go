package transaction

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/fatflowers/payport/internal/app/service/notification_log"
	"github.com/fatflowers/payport/internal/app/service/order"
	"github.com/fatflowers/payport/internal/app/service/reconcile"
	"github.com/fatflowers/payport/internal/models"
	"github.com/fatflowers/payport/internal/platform/gateway"
	"github.com/fatflowers/payport/pkg/config"
	"github.com/fatflowers/payport/pkg/logctx"
	"github.com/fatflowers/payport/pkg/metrics"
)

// OrderStore is the order storage used by the back office.
type OrderStore interface {
	order.Repository
	Notes(ctx context.Context, orderID string) ([]*models.OrderNote, error)
	Scan(ctx context.Context, req *order.ScanOrdersRequest) (*order.ScanOrdersResponse, error)
}

// Journal records and lists raw gateway messages.
type Journal interface {
	notification_log.Recorder
	List(ctx context.Context, orderNo string) ([]*models.PaymentNotificationLog, error)
}

type Service struct {
	cfg     *config.Config
	store   OrderStore
	caller  gateway.Caller
	engine  *reconcile.Engine
	logs    Journal
	metrics *metrics.Recorder
	log     *zap.SugaredLogger
	now     func() time.Time
}

type Option func(*Service)

// WithClock replaces the clock used for comment dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(cfg *config.Config, store OrderStore, caller gateway.Caller, engine *reconcile.Engine,
	logs Journal, rec *metrics.Recorder, log *zap.SugaredLogger, opts ...Option) *Service {
	s := &Service{cfg: cfg, store: store, caller: caller, engine: engine, logs: logs, metrics: rec, log: log, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ TransactionManager = (*Service)(nil)

func canManage(p *models.OrderPayment) bool {
	return p.TID != "" && p.Status == gateway.TransactionStatusOnHold
}

// canRefund allows refunds of confirmed transactions and of unpaid invoice and
// prepayment transactions. Instalment plans are refunded per cycle at the gateway.
func canRefund(p *models.OrderPayment) bool {
	if p.TID == "" || p.PaymentMethod.IsInstalment() || p.Balance() <= 0 {
		return false
	}
	switch p.Status {
	case gateway.TransactionStatusConfirmed:
		return true
	case gateway.TransactionStatusPending:
		return p.PaymentMethod == gateway.PaymentTypeInvoice || p.PaymentMethod == gateway.PaymentTypePrepayment
	}
	return false
}

func canCancelInstalment(p *models.OrderPayment) bool {
	return p.TID != "" && p.PaymentMethod.IsInstalment() && p.Status == gateway.TransactionStatusConfirmed
}

func (s *Service) Capture(ctx context.Context, orderNo string) (*ActionResult, error) {
	return s.manage(ctx, orderNo, ActionCapture)
}

func (s *Service) Cancel(ctx context.Context, orderNo string) (*ActionResult, error) {
	return s.manage(ctx, orderNo, ActionCancel)
}

func (s *Service) CancelInstalment(ctx context.Context, orderNo string) (*ActionResult, error) {
	return s.manage(ctx, orderNo, ActionInstalmentCancel)
}

// manage runs capture, cancel and instalment cancel. An accepted capture or cancel is
// applied like the matching webhook event, so the event delivered later is recognised
// as already processed.
func (s *Service) manage(ctx context.Context, orderNo string, action Action) (*ActionResult, error) {
	start := time.Now()
	defer s.metrics.ObserveProcess("admin", string(action), start)
	ctx = logctx.WithOrderNo(ctx, orderNo)
	lg := logctx.FromCtx(ctx, s.log)

	o, err := s.store.Get(ctx, orderNo, "")
	if err != nil {
		return nil, err
	}
	p := o.EnsurePayment()

	req := &gateway.ActionRequest{Custom: s.custom(o, true)}
	var (
		endpoint  gateway.Endpoint
		eventType gateway.EventType
		allowed   bool
	)
	switch action {
	case ActionCapture:
		endpoint, eventType, allowed = gateway.EndpointTransactionCapture, gateway.EventTransactionCapture, canManage(p)
		req.Transaction = &gateway.TransactionRef{TID: p.TID}
	case ActionCancel:
		endpoint, eventType, allowed = gateway.EndpointTransactionCancel, gateway.EventTransactionCancel, canManage(p)
		req.Transaction = &gateway.TransactionRef{TID: p.TID}
	case ActionInstalmentCancel:
		endpoint, allowed = gateway.EndpointInstalmentCancel, canCancelInstalment(p)
		req.Instalment = &gateway.InstalmentRef{TID: p.TID}
	default:
		return nil, fmt.Errorf("%w: unknown action %s", ErrActionNotAllowed, action)
	}
	if !allowed {
		return nil, fmt.Errorf("%w: %s on a %s %s transaction", ErrActionNotAllowed, action, p.Status, p.PaymentMethod)
	}

	lg.Infow("sending back-office request", "action", action, "tid", p.TID)
	resp, err := s.call(ctx, o.OrderNo, endpoint, req)
	if err != nil {
		lg.Errorw("back-office request failed", "action", action, "err", err)
		return nil, err
	}
	res := newResult(o.OrderNo, action, resp)
	res.Accepted = int(resp.Result.StatusCode) == gateway.StatusCodeSuccess
	if !res.Accepted {
		lg.Infow("back-office request declined", "action", action, "status_code", res.StatusCode, "status_text", res.StatusText)
		return res, nil
	}

	tid := p.TID
	saved, err := s.store.Mutate(ctx, o.OrderNo, "", func(o *models.Order) (bool, error) {
		if action == ActionInstalmentCancel {
			res.Comment = s.applyInstalmentCancel(o, resp)
			return true, nil
		}
		event := *resp
		event.Result.Status = gateway.ResultStatusSuccess
		event.Event = &gateway.Event{Type: eventType, TID: gateway.ID(tid), ParentTID: gateway.ID(tid)}
		out, err := s.engine.ApplyEvent(ctx, o, &event)
		if err != nil {
			return false, err
		}
		res.Comment = out.Comment
		return out.Mutated, nil
	})
	if err != nil {
		return nil, err
	}
	res.Status = saved.EnsurePayment().Status
	return res, nil
}

func (s *Service) applyInstalmentCancel(o *models.Order, resp *gateway.Response) string {
	p := o.EnsurePayment()
	refundTID := ""
	if resp.Transaction.Refund != nil {
		refundTID = resp.Transaction.Refund.TID.String()
	}
	comment := reconcile.InstalmentCancelledComment(lo.CoalesceOrEmpty(refundTID, p.TID), s.now().Format(reconcile.DateLayout))
	addComment(o, comment)
	p.Status = gateway.TransactionStatusDeactivated
	if ref := resp.Transaction.Refund; ref != nil {
		p.MergeResponse(&gateway.Response{Transaction: gateway.Transaction{Refund: ref}})
	}
	reconcile.Project(p.Status, p.PaymentMethod).Apply(o)
	return comment
}

// Refund refunds req.Amount of the transaction. A refund that deactivates the
// transaction cancels the order, except for instalment plans.
func (s *Service) Refund(ctx context.Context, req *RefundRequest) (*ActionResult, error) {
	start := time.Now()
	defer s.metrics.ObserveProcess("admin", string(ActionRefund), start)
	ctx = logctx.WithOrderNo(ctx, req.OrderNo)
	lg := logctx.FromCtx(ctx, s.log)

	o, err := s.store.Get(ctx, req.OrderNo, "")
	if err != nil {
		return nil, err
	}
	p := o.EnsurePayment()
	if !canRefund(p) {
		return nil, fmt.Errorf("%w: refund on a %s %s transaction", ErrActionNotAllowed, p.Status, p.PaymentMethod)
	}
	if req.Amount <= 0 || req.Amount > p.Balance() {
		return nil, fmt.Errorf("%w: %d not in 1..%d", ErrInvalidAmount, req.Amount, p.Balance())
	}

	payload := &gateway.ActionRequest{
		Transaction: &gateway.TransactionRef{TID: p.TID, Amount: req.Amount, Reason: req.Reason},
		Custom:      s.custom(o, true),
	}
	lg.Infow("sending refund", "tid", p.TID, "amount", req.Amount)
	resp, err := s.call(ctx, o.OrderNo, gateway.EndpointTransactionRefund, payload)
	if err != nil {
		lg.Errorw("refund request failed", "err", err)
		return nil, err
	}
	res := newResult(o.OrderNo, ActionRefund, resp)
	res.Accepted = int(resp.Result.StatusCode) == gateway.StatusCodeSuccess
	if !res.Accepted {
		lg.Infow("refund declined", "status_code", res.StatusCode, "status_text", res.StatusText)
		return res, nil
	}

	amount, refundTID := req.Amount, ""
	currency := lo.CoalesceOrEmpty(resp.Transaction.Currency, p.Response().Transaction.Currency, o.Currency)
	if ref := resp.Transaction.Refund; ref != nil {
		if ref.Amount != 0 {
			amount = ref.Amount.Int64()
		}
		refundTID = ref.TID.String()
		currency = lo.CoalesceOrEmpty(ref.Currency, currency)
	}

	saved, err := s.store.Mutate(ctx, o.OrderNo, "", func(o *models.Order) (bool, error) {
		p := o.EnsurePayment()
		marker := reconcile.EventMarker(gateway.EventTransactionRefund, refundTID)
		if refundTID != "" && p.HasProcessed(marker) {
			return false, nil
		}
		comment := reconcile.RefundComment(p.TID, reconcile.FormatAmount(amount, currency), refundTID)
		p.RefundedAmount += amount
		addComment(o, comment)
		if refundTID != "" {
			p.MarkProcessed(marker)
		} else {
			p.ExpectEvent(reconcile.RefundAmountMarker(p.TID, amount))
		}
		if ref := resp.Transaction.Refund; ref != nil {
			p.MergeResponse(&gateway.Response{Transaction: gateway.Transaction{Refund: ref}})
		}
		if st := resp.Transaction.Status; st.IsFailed() && !p.PaymentMethod.IsInstalment() {
			p.Status = st
			reconcile.Project(st, p.PaymentMethod).Apply(o)
		}
		res.Comment = comment
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	res.Status = saved.EnsurePayment().Status
	return res, nil
}

// Sync fetches the transaction details and reconciles the order with them. An order
// without a recorded transaction takes req.TID and is settled like a redirect return;
// a recorded transaction whose status moved is updated like a TRANSACTION_UPDATE event.
func (s *Service) Sync(ctx context.Context, req *SyncRequest) (*ActionResult, error) {
	start := time.Now()
	defer s.metrics.ObserveProcess("admin", string(ActionSync), start)
	ctx = logctx.WithOrderNo(ctx, req.OrderNo)
	lg := logctx.FromCtx(ctx, s.log)

	o, err := s.store.Get(ctx, req.OrderNo, "")
	if err != nil {
		return nil, err
	}
	tid := lo.CoalesceOrEmpty(o.EnsurePayment().TID, req.TID)
	if tid == "" {
		return nil, fmt.Errorf("%w: order has no transaction id", ErrActionNotAllowed)
	}

	payload := &gateway.ActionRequest{
		Transaction: &gateway.TransactionRef{TID: tid},
		Custom:      s.custom(o, false),
	}
	resp, err := s.call(ctx, o.OrderNo, gateway.EndpointTransactionDetails, payload)
	if err != nil {
		lg.Errorw("transaction details failed", "tid", tid, "err", err)
		return nil, err
	}
	res := newResult(o.OrderNo, ActionSync, resp)
	res.Accepted = resp.Succeeded()
	if !res.Accepted {
		lg.Infow("transaction details declined", "tid", tid, "status_text", res.StatusText)
		return res, nil
	}
	resp.Transaction.TID = gateway.ID(tid)

	saved, err := s.store.Mutate(ctx, o.OrderNo, "", func(o *models.Order) (bool, error) {
		p := o.EnsurePayment()
		var (
			out *reconcile.Outcome
			err error
		)
		switch {
		case p.TID == "":
			out, err = s.engine.ApplyInitial(ctx, o, resp)
		case resp.Transaction.Status == "" || resp.Transaction.Status == p.Status:
			return false, nil
		default:
			event := *resp
			event.Event = &gateway.Event{Type: gateway.EventTransactionUpdate, TID: gateway.ID(p.TID), ParentTID: gateway.ID(p.TID)}
			out, err = s.engine.ApplyEvent(ctx, o, &event)
		}
		if err != nil {
			return false, err
		}
		res.Comment = out.Comment
		return out.Mutated, nil
	})
	if err != nil {
		return nil, err
	}
	res.Status = saved.EnsurePayment().Status
	lg.Infow("transaction synchronised", "tid", tid, "status", res.Status, "changed", res.Comment != "")
	return res, nil
}

// View assembles the transaction page of an order.
func (s *Service) View(ctx context.Context, orderNo string) (*TransactionView, error) {
	o, err := s.store.Get(ctx, orderNo, "")
	if err != nil {
		return nil, err
	}
	p := o.EnsurePayment()
	notes, err := s.store.Notes(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	messages, err := s.logs.List(ctx, o.OrderNo)
	if err != nil {
		return nil, err
	}
	v := &TransactionView{
		Order:               o,
		RemainingAmount:     p.Balance(),
		CanCapture:          canManage(p),
		CanCancel:           canManage(p),
		CanRefund:           canRefund(p),
		CanCancelInstalment: canCancelInstalment(p),
		Notes:               notes,
		Messages:            messages,
	}
	if p.PaymentMethod.IsInstalment() {
		v.Instalments = schedule(p.Instalment.Data())
	}
	return v, nil
}

// schedule lists the cycles of a plan by their scheduled dates, marking the
// executed ones.
func schedule(l *models.InstalmentLedger) []*InstalmentRow {
	return lo.Map(l.CycleKeys(), func(n int, _ int) *InstalmentRow {
		key := strconv.Itoa(n)
		row := &InstalmentRow{Cycle: n, Date: l.CycleDates[key], Amount: l.CycleAmount}
		if c, ok := l.Cycles[key]; ok {
			row.TID, row.Paid = c.TID, true
		}
		return row
	})
}

// MerchantDetails asks the gateway for the merchant account behind a product
// activation key.
func (s *Service) MerchantDetails(ctx context.Context, req *MerchantDetailsRequest) (*MerchantDetailsResult, error) {
	signature := lo.CoalesceOrEmpty(req.Signature, s.cfg.Gateway.Signature)
	if signature == "" {
		return nil, ErrCredentialsMissing
	}
	payload := &gateway.ActionRequest{
		Merchant: &gateway.Merchant{Signature: signature},
		Custom:   &gateway.Custom{Lang: lo.CoalesceOrEmpty(req.Lang, s.cfg.Gateway.Lang)},
	}
	resp, err := s.call(ctx, "", gateway.EndpointMerchantDetails, payload)
	if err != nil {
		return nil, err
	}
	out := &MerchantDetailsResult{Accepted: resp.Succeeded(), StatusText: resp.Result.StatusText, Merchant: resp.Merchant}
	if v, ok := resp.Lookup("merchant"); ok {
		out.Details, _ = v.(map[string]any)
	}
	return out, nil
}

func (s *Service) ScanOrders(ctx context.Context, req *order.ScanOrdersRequest) (*order.ScanOrdersResponse, error) {
	return s.store.Scan(ctx, req)
}

func (s *Service) custom(o *models.Order, shopInvoked bool) *gateway.Custom {
	c := &gateway.Custom{Lang: lo.CoalesceOrEmpty(o.Lang, s.cfg.Gateway.Lang)}
	if shopInvoked {
		c.ShopInvoked = 1
	}
	return c
}

// call sends payload and normalizes the answer, keeping the raw answer in the
// notification log under orderNo.
func (s *Service) call(ctx context.Context, orderNo string, endpoint gateway.Endpoint, payload any) (*gateway.Response, error) {
	raw, err := s.caller.Call(ctx, endpoint, payload)
	if err != nil {
		return nil, err
	}
	resp, err := gateway.Normalize(raw)
	entry := notification_log.NewEntry(models.PaymentNotificationSourceAdmin, []byte(raw), resp)
	entry.OrderNo = lo.CoalesceOrEmpty(entry.OrderNo, orderNo)
	if err != nil {
		notification_log.Finish(entry, models.PaymentNotificationLogStatusRejected, err.Error())
		s.logs.Save(ctx, entry)
		return nil, fmt.Errorf("%s: %w", endpoint, err)
	}
	notification_log.Finish(entry, models.PaymentNotificationLogStatusHandled, map[string]any{"endpoint": endpoint})
	s.logs.Save(ctx, entry)
	return resp, nil
}

func newResult(orderNo string, action Action, resp *gateway.Response) *ActionResult {
	return &ActionResult{
		OrderNo:    orderNo,
		Action:     action,
		StatusCode: int(resp.Result.StatusCode),
		StatusText: resp.Result.StatusText,
		Status:     resp.Transaction.Status,
	}
}

func addComment(o *models.Order, comment string) {
	o.AddNote(comment)
	o.EnsurePayment().AppendComment(comment)
}
