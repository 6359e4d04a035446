package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/payport/internal/app/service/notification_log"
	"github.com/fatflowers/payport/internal/app/service/order"
	"github.com/fatflowers/payport/internal/app/service/reconcile"
	"github.com/fatflowers/payport/internal/models"
	"github.com/fatflowers/payport/internal/platform/gateway"
	"github.com/fatflowers/payport/pkg/config"
	"github.com/fatflowers/payport/pkg/logctx"
	"github.com/fatflowers/payport/pkg/metrics"
	"github.com/fatflowers/payport/pkg/types"
)

const (
	// MsgTechnicalError is shown to the buyer when the gateway could not be reached
	// or answered with something unreadable.
	MsgTechnicalError = "A technical error occurred while processing the payment. Please try again later."
	// MsgHashCheckFailed is the history entry and buyer message of a tampered redirect.
	MsgHashCheckFailed = "While redirecting some data has been changed. The hash check failed."
	msgPaymentFailed   = "Payment was not successful"

	savedPaymentLimit = 3
)

// OrderStore is the order storage used by checkout.
type OrderStore interface {
	order.Repository
	Create(ctx context.Context, o *models.Order) error
	SavedPayments(ctx context.Context, customerNo string, pt gateway.PaymentType, limit int) ([]*models.OrderPayment, error)
}

type Service struct {
	cfg     *config.Config
	store   OrderStore
	caller  gateway.Caller
	engine  *reconcile.Engine
	logs    notification_log.Recorder
	metrics *metrics.Recorder
	log     *zap.SugaredLogger
	now     func() time.Time
}

type Option func(*Service)

// WithClock replaces the clock used for due dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(cfg *config.Config, store OrderStore, caller gateway.Caller, engine *reconcile.Engine,
	logs notification_log.Recorder, rec *metrics.Recorder, log *zap.SugaredLogger, opts ...Option) *Service {
	s := &Service{cfg: cfg, store: store, caller: caller, engine: engine, logs: logs, metrics: rec, log: log, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type AuthorizeRequest struct {
	OrderNo    string    `json:"order_no" binding:"required"`
	OrderToken string    `json:"order_token" binding:"required"`
	Selection  Selection `json:"selection"`
}

// AuthorizeResult tells the shop where to send the buyer next.
type AuthorizeResult struct {
	OrderNo string `json:"order_no"`
	// RedirectURL is set when the buyer must complete the payment at the gateway
	RedirectURL string                    `json:"redirect_url,omitempty"`
	TID         string                    `json:"tid,omitempty"`
	Status      gateway.TransactionStatus `json:"status,omitempty"`
	Comment     string                    `json:"comment,omitempty"`
	// Error is the buyer-facing message of a rejected payment
	Error string `json:"error,omitempty"`
}

func (r *AuthorizeResult) Failed() bool { return r.Error != "" }

// Authorize sends the payment request of an order and records the synchronous answer.
// Configuration and eligibility errors leave the order untouched; a transport failure
// or a rejected payment fails the order.
func (s *Service) Authorize(ctx context.Context, req *AuthorizeRequest) (*AuthorizeResult, error) {
	start := time.Now()
	defer s.metrics.ObserveProcess("checkout", "authorize", start)
	ctx = logctx.WithOrderNo(ctx, req.OrderNo)
	lg := logctx.FromCtx(ctx, s.log)

	o, err := s.store.Get(ctx, req.OrderNo, req.OrderToken)
	if err != nil {
		return nil, err
	}
	if o.Payment != nil && o.Payment.TID != "" {
		return nil, fmt.Errorf("%w: order already has transaction %s", ErrBusinessRuleViolation, o.Payment.TID)
	}
	payload, err := BuildPaymentRequest(o, &req.Selection, s.cfg, s.now())
	if err != nil {
		lg.Infow("payment request rejected", "method", req.Selection.MethodID, "err", err)
		return nil, err
	}
	pt := payload.Transaction.PaymentType
	method, _ := s.cfg.Method(req.Selection.MethodID)
	endpoint := SelectPaymentEndpoint(pt, method, payload.Transaction.Amount)

	// remember the selection so later messages are interpreted against it
	if _, err := s.store.Mutate(ctx, o.OrderNo, o.Token, func(o *models.Order) (bool, error) {
		p := o.EnsurePayment()
		if p.TID != "" {
			return false, fmt.Errorf("%w: order already has transaction %s", ErrBusinessRuleViolation, p.TID)
		}
		p.PaymentMethod = pt
		p.ShopMethodID = req.Selection.MethodID
		p.SavePaymentData = req.Selection.SavePaymentData
		p.OrderAmount = payload.Transaction.Amount
		return true, nil
	}); err != nil {
		return nil, err
	}

	lg.Infow("sending payment request", "endpoint", endpoint, "payment_type", pt, "amount", payload.Transaction.Amount)
	resp, err := s.call(ctx, models.PaymentNotificationSourceAuthorize, endpoint, payload)
	if err != nil {
		lg.Errorw("payment request failed", "err", err)
		if _, ferr := s.fail(ctx, o.OrderNo, MsgTechnicalError); ferr != nil {
			lg.Errorw("failed to fail order", "err", ferr)
		}
		return nil, err
	}

	out := &AuthorizeResult{OrderNo: o.OrderNo}
	if !reconcile.Failed(resp) && resp.Result.RedirectURL != "" && resp.Transaction.TxnSecret != "" {
		_, err := s.store.Mutate(ctx, o.OrderNo, "", func(o *models.Order) (bool, error) {
			o.EnsurePayment().TxnSecret = resp.Transaction.TxnSecret
			return true, nil
		})
		if err != nil {
			return nil, err
		}
		out.RedirectURL = resp.Result.RedirectURL
		return out, nil
	}

	var outcome *reconcile.Outcome
	saved, err := s.store.Mutate(ctx, o.OrderNo, "", func(o *models.Order) (bool, error) {
		var err error
		outcome, err = s.engine.ApplyInitial(ctx, o, resp)
		if err != nil {
			return false, err
		}
		return outcome.Mutated, nil
	})
	if err != nil {
		return nil, err
	}
	out.TID = saved.Payment.TID
	out.Status = saved.Payment.Status
	out.Comment = saved.Payment.Comment
	if outcome.Failed {
		out.Error = lo.CoalesceOrEmpty(resp.Result.StatusText, msgPaymentFailed)
	}
	return out, nil
}

// ReturnQuery is the query string the gateway appends when sending the buyer back.
type ReturnQuery struct {
	TID         string `form:"tid"`
	OrderNo     string `form:"orderNo"`
	OrderToken  string `form:"orderToken"`
	PaymentType string `form:"payment_type"`
	StatusText  string `form:"status_text"`
	Status      string `form:"status"`
	Checksum    string `form:"checksum"`
	TxnSecret   string `form:"txn_secret"`
}

type ReturnResult struct {
	OrderNo string
	Success bool
	// Message is the buyer-facing error of an unsuccessful return
	Message string
}

// HandleReturn verifies a redirect return, fetches the transaction details and records
// them. The stored txn_secret is consumed before anything else, so a replayed return
// can only be verified against the query secret.
func (s *Service) HandleReturn(ctx context.Context, q *ReturnQuery) (*ReturnResult, error) {
	start := time.Now()
	defer s.metrics.ObserveProcess("checkout", "return", start)
	ctx = logctx.WithOrderNo(ctx, q.OrderNo)
	lg := logctx.FromCtx(ctx, s.log)

	secret := ""
	o, err := s.store.Mutate(ctx, q.OrderNo, q.OrderToken, func(o *models.Order) (bool, error) {
		p := o.EnsurePayment()
		secret = lo.CoalesceOrEmpty(p.TxnSecret, q.TxnSecret)
		if p.TxnSecret == "" {
			return false, nil
		}
		p.TxnSecret = ""
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	res := &ReturnResult{OrderNo: o.OrderNo}

	if q.TID == "" {
		lg.Infow("return without transaction", "status_text", q.StatusText)
		res.Message = lo.CoalesceOrEmpty(q.StatusText, msgPaymentFailed)
		_, err := s.fail(ctx, o.OrderNo, res.Message)
		return res, err
	}
	if err := gateway.VerifyRedirect(q.TID, secret, q.Status, q.Checksum, s.cfg.Gateway.AccessKey); err != nil {
		lg.Warnw("redirect verification failed", "tid", q.TID, "err", err)
		res.Message = MsgHashCheckFailed
		_, ferr := s.fail(ctx, o.OrderNo, MsgHashCheckFailed)
		return res, ferr
	}

	details := &gateway.ActionRequest{
		Transaction: &gateway.TransactionRef{TID: q.TID},
		Custom:      &gateway.Custom{Lang: lo.CoalesceOrEmpty(o.Lang, s.cfg.Gateway.Lang)},
	}
	resp, err := s.call(ctx, models.PaymentNotificationSourceReturn, gateway.EndpointTransactionDetails, details)
	if err != nil {
		// the order is left open; the PAYMENT webhook settles it
		lg.Errorw("transaction details failed", "tid", q.TID, "err", err)
		res.Message = MsgTechnicalError
		return res, nil
	}
	resp.Transaction.TID = gateway.ID(q.TID)

	var outcome *reconcile.Outcome
	saved, err := s.store.Mutate(ctx, o.OrderNo, "", func(o *models.Order) (bool, error) {
		var err error
		outcome, err = s.engine.ApplyInitial(ctx, o, resp)
		if err != nil {
			return false, err
		}
		return outcome.Mutated, nil
	})
	if err != nil {
		return nil, err
	}
	if outcome.Failed || saved.Status == types.OrderStatusFailed {
		res.Message = lo.CoalesceOrEmpty(q.StatusText, resp.Result.StatusText, msgPaymentFailed)
		return res, nil
	}
	res.Success = true
	return res, nil
}

// call sends payload and normalizes the answer. The raw answer is kept in the
// notification log.
func (s *Service) call(ctx context.Context, source models.PaymentNotificationSource, endpoint gateway.Endpoint, payload any) (*gateway.Response, error) {
	raw, err := s.caller.Call(ctx, endpoint, payload)
	if err != nil {
		return nil, err
	}
	resp, err := gateway.Normalize(raw)
	entry := notification_log.NewEntry(source, []byte(raw), resp)
	if err != nil {
		notification_log.Finish(entry, models.PaymentNotificationLogStatusRejected, err.Error())
		s.logs.Save(ctx, entry)
		return nil, fmt.Errorf("%s: %w", endpoint, err)
	}
	notification_log.Finish(entry, models.PaymentNotificationLogStatusHandled, nil)
	s.logs.Save(ctx, entry)
	return resp, nil
}

// fail records a rejected checkout attempt on an order that has no transaction yet.
func (s *Service) fail(ctx context.Context, orderNo, reason string) (*reconcile.Outcome, error) {
	resp := &gateway.Response{Result: gateway.Result{Status: gateway.ResultStatusFailure, StatusText: reason}}
	var outcome *reconcile.Outcome
	_, err := s.store.Mutate(ctx, orderNo, "", func(o *models.Order) (bool, error) {
		var err error
		outcome, err = s.engine.ApplyInitial(ctx, o, resp)
		if err != nil {
			return false, err
		}
		return outcome.Mutated, nil
	})
	return outcome, err
}

// SavedPayment is a stored instrument a returning customer can pay with again.
type SavedPayment struct {
	Token   string `json:"token"`
	Label   string `json:"label"`
	OrderID string `json:"order_id"`
}

// SavedPaymentDetails lists up to three distinct saved instruments of a customer for
// one payment method.
func (s *Service) SavedPaymentDetails(ctx context.Context, customerNo, methodID string) ([]*SavedPayment, error) {
	pt, ok := gateway.ToGatewayType(methodID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPaymentType, methodID)
	}
	if !pt.SupportsToken() {
		return nil, nil
	}
	rows, err := s.store.SavedPayments(ctx, customerNo, pt, 0)
	if err != nil {
		return nil, err
	}
	out := lo.FilterMap(rows, func(p *models.OrderPayment, _ int) (*SavedPayment, bool) {
		label := paymentLabel(pt, p.Response().Transaction.PaymentData)
		return &SavedPayment{Token: p.PaymentToken, Label: label, OrderID: p.OrderID}, label != ""
	})
	out = lo.UniqBy(out, func(sp *SavedPayment) string { return sp.Label })
	if len(out) > savedPaymentLimit {
		out = out[:savedPaymentLimit]
	}
	return out, nil
}

func paymentLabel(pt gateway.PaymentType, pd *gateway.PaymentData) string {
	if pd == nil {
		return ""
	}
	if pt == gateway.PaymentTypeCreditCard {
		if len(pd.CardNumber) < 4 {
			return ""
		}
		month := pd.CardExpiryMonth.String()
		if len(month) == 1 {
			month = "0" + month
		}
		year := pd.CardExpiryYear.String()
		if len(year) > 2 {
			year = year[len(year)-2:]
		}
		return fmt.Sprintf("%s ending in %s (expires %s/%s)", lo.CoalesceOrEmpty(pd.CardBrand, "Card"), pd.CardNumber[len(pd.CardNumber)-4:], month, year)
	}
	if pd.IBAN == "" {
		return ""
	}
	return "IBAN " + pd.IBAN
}

// RemovePaymentToken forgets the stored token of an order.
func (s *Service) RemovePaymentToken(ctx context.Context, orderNo, token string) error {
	_, err := s.store.Mutate(ctx, orderNo, token, func(o *models.Order) (bool, error) {
		p := o.EnsurePayment()
		if p.PaymentToken == "" {
			return false, nil
		}
		p.PaymentToken = ""
		o.AddNote("Stored payment data removed")
		return true, nil
	})
	return err
}

// CreateOrder registers a shop order ready for payment.
func (s *Service) CreateOrder(ctx context.Context, o *models.Order) error {
	if o.OrderNo == "" || o.Currency == "" || !o.GrossAmount.IsPositive() {
		return fmt.Errorf("%w: order number, currency and a positive amount are required", ErrBusinessRuleViolation)
	}
	if o.BillingAddress() == nil {
		return fmt.Errorf("%w: billing address missing", ErrBusinessRuleViolation)
	}
	o.ID, o.Token, o.Payment = "", "", nil
	o.Status, o.PaymentStatus, o.ConfirmationStatus, o.ExportStatus = "", "", "", ""
	if err := s.store.Create(ctx, o); err != nil {
		return err
	}
	logctx.FromCtx(ctx, s.log).Infow("order created", "order_no", o.OrderNo)
	return nil
}

// IsCheckoutError reports errors the buyer can act on.
func IsCheckoutError(err error) bool {
	return errors.Is(err, ErrConfigurationMissing) || errors.Is(err, ErrUnsupportedPaymentType) ||
		errors.Is(err, ErrBusinessRuleViolation)
}

var Module = fx.Options(
	fx.Provide(func(cfg *config.Config, store *order.Store, caller gateway.Caller, engine *reconcile.Engine,
		logs notification_log.Recorder, rec *metrics.Recorder, log *zap.SugaredLogger) *Service {
		return NewService(cfg, store, caller, engine, logs, rec, log)
	}),
)
