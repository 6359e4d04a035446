package notification_handler

import (
	"context"
	"errors"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/payport/internal/app/service/notification_log"
	"github.com/fatflowers/payport/internal/app/service/order"
	"github.com/fatflowers/payport/internal/app/service/reconcile"
	"github.com/fatflowers/payport/internal/models"
	"github.com/fatflowers/payport/internal/platform/cache"
	"github.com/fatflowers/payport/internal/platform/gateway"
	"github.com/fatflowers/payport/internal/platform/mail"
	"github.com/fatflowers/payport/pkg/config"
	"github.com/fatflowers/payport/pkg/logctx"
	"github.com/fatflowers/payport/pkg/metrics"
)

const msgInternalError = "Internal error while processing the notification"

// Result is the reply sent back to the gateway.
type Result struct {
	OrderNo string                              `json:"order_no,omitempty"`
	Message string                              `json:"message"`
	Status  models.PaymentNotificationLogStatus `json:"status"`
}

type NotificationHandler struct {
	cfg     *config.Config
	store   order.Repository
	engine  *reconcile.Engine
	logs    notification_log.Recorder
	guard   cache.DeliveryGuard
	mailer  mail.Notifier
	metrics *metrics.Recorder
	Logger  *zap.SugaredLogger
}

func NewNotificationHandler(cfg *config.Config, store order.Repository, engine *reconcile.Engine,
	logs notification_log.Recorder, guard cache.DeliveryGuard, mailer mail.Notifier,
	rec *metrics.Recorder, log *zap.SugaredLogger) *NotificationHandler {
	if guard == nil {
		guard = cache.Noop{}
	}
	if mailer == nil {
		mailer = mail.Noop{}
	}
	return &NotificationHandler{
		cfg: cfg, store: store, engine: engine, logs: logs,
		guard: guard, mailer: mailer, metrics: rec, Logger: log,
	}
}

// Handle runs one webhook delivery through the source, structure and checksum gates
// and applies the event to its order.
//
// Rejected deliveries are answered with a Result and a nil error. An error is returned
// for bodies that are not JSON (ErrNotJSON), for identical deliveries already in
// flight (ErrDeliveryInFlight) and for storage failures; the last two should make the
// gateway retry.
func (h *NotificationHandler) Handle(ctx context.Context, d *Delivery) (res *Result, resErr error) {
	start := time.Now()
	lg := logctx.FromCtx(ctx, h.Logger)
	res = &Result{Status: models.PaymentNotificationLogStatusRejected}

	var resp *gateway.Response
	defer func() {
		eventType := "unknown"
		if resp != nil && resp.Event != nil && resp.Event.Type != "" {
			eventType = string(resp.Event.Type)
		}
		result := map[string]any{"message": res.Message}
		if resErr != nil {
			result["error"] = resErr.Error()
		}
		entry := notification_log.NewEntry(models.PaymentNotificationSourceWebhook, d.Body, resp)
		notification_log.Finish(entry, res.Status, result)
		h.logs.Save(ctx, entry)

		h.metrics.IncWebhook(eventType, string(res.Status))
		h.metrics.ObserveProcess("webhook", eventType, start)
		lg.Infow("webhook handled", "event_type", eventType, "order_no", res.OrderNo,
			"status", res.Status, "message", res.Message)
	}()

	if err := checkSource(h.cfg.Webhook, d.RemoteIP); err != nil {
		res.Message = err.Error()
		return res, nil
	}

	var err error
	resp, err = parseDelivery(d.Body)
	if errors.Is(err, ErrNotJSON) {
		res.Message = err.Error()
		return res, err
	}
	if err != nil {
		res.Message = err.Error()
		return res, nil
	}
	if err := gateway.VerifyWebhook(resp, h.cfg.Gateway.AccessKey); err != nil {
		lg.Warnw("webhook checksum rejected", "event_type", resp.Event.Type, "event_tid", resp.Event.TID)
		res.Message = err.Error()
		return res, nil
	}

	key := deliveryKey(resp)
	claimed, err := h.guard.Claim(ctx, key)
	if err != nil {
		lg.Warnw("delivery guard unavailable", "err", err)
		claimed = true
	}
	if !claimed {
		res.Status = models.PaymentNotificationLogStatusHandleFailed
		res.Message = ErrDeliveryInFlight.Error()
		return res, ErrDeliveryInFlight
	}
	defer h.guard.Release(ctx, key)

	res.OrderNo = resp.Transaction.OrderNo.String()
	ctx = logctx.WithOrderNo(ctx, res.OrderNo)

	var outcome *reconcile.Outcome
	_, err = h.store.Mutate(ctx, res.OrderNo, resp.OrderToken(), func(o *models.Order) (bool, error) {
		out, err := h.engine.ApplyEvent(ctx, o, resp)
		if err != nil {
			return false, err
		}
		outcome = out
		return out.Mutated, nil
	})
	switch {
	case errors.Is(err, order.ErrOrderNotFound):
		res.Message = reconcile.MsgOrderNotFound
		return res, nil
	case errors.Is(err, reconcile.ErrOrderReferenceMismatch):
		res.Message = reconcile.MsgReferenceMismatch
		return res, nil
	case err != nil:
		res.Status = models.PaymentNotificationLogStatusHandleFailed
		res.Message = msgInternalError
		return res, err
	}

	res.Status = models.PaymentNotificationLogStatusHandled
	res.Message = outcome.Message
	if outcome.Mutated && outcome.Comment != "" {
		h.notify(ctx, res.OrderNo, outcome.Comment)
	}
	return res, nil
}

// notify mails the applied comment. Failures are logged only.
func (h *NotificationHandler) notify(ctx context.Context, orderNo, comment string) {
	if err := h.mailer.Notify(ctx, mail.WebhookSubject(orderNo), comment); err != nil {
		logctx.FromCtx(ctx, h.Logger).Warnw("webhook mail not sent", "err", err)
	}
}

var Module = fx.Options(
	fx.Provide(func(cfg *config.Config, store *order.Store, engine *reconcile.Engine, logs notification_log.Recorder,
		guard cache.DeliveryGuard, mailer mail.Notifier, rec *metrics.Recorder, log *zap.SugaredLogger) *NotificationHandler {
		return NewNotificationHandler(cfg, store, engine, logs, guard, mailer, rec, log)
	}),
)
